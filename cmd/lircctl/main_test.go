package main

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pior/lirc/internal/testutils"
)

func TestListCommand(t *testing.T) {
	isolateHome(t)
	d := testutils.NewUnixDaemon(t)
	d.Reply("LIST", testutils.SuccessReply("LIST", "tv", "amp"))

	out, _, err := runCLI(t, "list", "--socket", d.Addr())
	require.NoError(t, err)
	assert.Equal(t, "tv\namp\n", out)
}

func TestListCommandOverTCP(t *testing.T) {
	isolateHome(t)
	d := testutils.NewTCPDaemon(t)
	d.Reply("LIST", testutils.SuccessReply("LIST", "tv"))
	host, port := d.HostPort(t)

	out, _, err := runCLI(t, "list", "--host", host, "--port", strconv.Itoa(port))
	require.NoError(t, err)
	assert.Equal(t, "tv\n", out)
}

func TestKeysCommand(t *testing.T) {
	isolateHome(t)
	d := testutils.NewUnixDaemon(t)
	d.Reply("LIST tv", testutils.SuccessReply("LIST tv",
		"0000000000000001 KEY_POWER",
		"0000000000000002 KEY_MUTE",
	))

	out, _, err := runCLI(t, "keys", "tv", "--socket", d.Addr())
	require.NoError(t, err)
	assert.Equal(t, "0000000000000001 KEY_POWER\n0000000000000002 KEY_MUTE\n", out)

	_, _, err = runCLI(t, "keys", "radio", "--socket", d.Addr())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"radio"`)
}

func TestSendCommand(t *testing.T) {
	isolateHome(t)
	d := testutils.NewUnixDaemon(t)
	d.Reply("SEND_ONCE tv KEY_POWER 0", testutils.SuccessReply("SEND_ONCE tv KEY_POWER 0"))
	d.Reply("SEND_ONCE tv KEY_VOLUMEUP 3", testutils.SuccessReply("SEND_ONCE tv KEY_VOLUMEUP 3"))

	out, _, err := runCLI(t, "send", "tv", "KEY_POWER", "--socket", d.Addr())
	require.NoError(t, err)
	assert.Empty(t, out)

	_, _, err = runCLI(t, "send", "tv", "KEY_VOLUMEUP", "--repeats", "3", "--socket", d.Addr())
	require.NoError(t, err)

	_, _, err = runCLI(t, "send", "tv", "KEY_NOPE", "--socket", d.Addr())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")

	assert.Equal(t, []string{
		"SEND_ONCE tv KEY_POWER 0",
		"SEND_ONCE tv KEY_VOLUMEUP 3",
		"SEND_ONCE tv KEY_NOPE 0",
	}, d.Requests())
}

func TestSendCommandRejectsNegativeRepeats(t *testing.T) {
	isolateHome(t)
	d := testutils.NewUnixDaemon(t)

	_, _, err := runCLI(t, "send", "tv", "KEY_POWER", "--repeats", "-1", "--socket", d.Addr())
	require.Error(t, err)
	assert.Empty(t, d.Requests())
}

func TestVersionCommand(t *testing.T) {
	isolateHome(t)
	d := testutils.NewUnixDaemon(t)
	d.Reply("VERSION", testutils.SuccessReply("VERSION", "0.10.2"))

	out, _, err := runCLI(t, "version", "--socket", d.Addr())
	require.NoError(t, err)
	assert.Equal(t, "0.10.2\n", out)
}

func TestVerboseLogsToStderr(t *testing.T) {
	isolateHome(t)
	d := testutils.NewUnixDaemon(t)
	d.Reply("VERSION", testutils.SuccessReply("VERSION", "0.10.2"))

	_, stderr, err := runCLI(t, "version", "-v", "--socket", d.Addr())
	require.NoError(t, err)
	assert.Contains(t, stderr, `"msg":"reply"`)
	assert.Contains(t, stderr, `"command":"VERSION"`)
}

func TestCommandMissingSocket(t *testing.T) {
	home := isolateHome(t)

	_, _, err := runCLI(t, "list", "--socket", home+"/lircd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestCommandArgs(t *testing.T) {
	isolateHome(t)

	_, _, err := runCLI(t, "send", "tv")
	assert.Error(t, err)

	_, _, err = runCLI(t, "list", "extra")
	assert.Error(t, err)
}

func TestSplitKeyLine(t *testing.T) {
	tests := []struct {
		line string
		code string
		name string
	}{
		{line: "0000000000000001 KEY_POWER", code: "0000000000000001", name: "KEY_POWER"},
		{line: "KEY_POWER", code: "", name: "KEY_POWER"},
		{line: "  0001   KEY_MUTE ", code: "0001", name: "KEY_MUTE"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			code, name := splitKeyLine(tt.line)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.name, name)
		})
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"Code", "Key"}, [][]string{{"0001", "KEY_POWER"}, {"0002"}})
	assert.Contains(t, out, "Code")
	assert.Contains(t, out, "KEY_POWER")
	assert.Contains(t, out, "0002")

	assert.Empty(t, renderTable(nil, nil))
}
