package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pior/lirc"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newListCommand(ctx),
		newKeysCommand(ctx),
		newSendCommand(ctx),
		newVersionCommand(ctx),
	}
}

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the remotes known to lircd",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withTransmitter(cmd.Context(), cmd.ErrOrStderr(), func(c context.Context, t *lirc.Transmitter) error {
				devices, ok, err := t.ListDevices(c)
				if err != nil {
					return err
				}
				if !ok {
					return errors.New("lircd refused to list remotes")
				}

				out := cmd.OutOrStdout()
				if isTerminal(out) {
					rows := make([][]string, 0, len(devices))
					for _, device := range devices {
						rows = append(rows, []string{device})
					}
					fmt.Fprintln(out, renderTable([]string{"Remote"}, rows))
					return nil
				}
				printLines(out, devices)
				return nil
			})
		},
	}
}

func newKeysCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "keys <remote>",
		Short: "List the keys of a remote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote := args[0]
			return ctx.withTransmitter(cmd.Context(), cmd.ErrOrStderr(), func(c context.Context, t *lirc.Transmitter) error {
				keys, ok, err := t.ListKeys(c, remote)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("lircd refused to list keys of %q; check the remote name", remote)
				}

				out := cmd.OutOrStdout()
				if isTerminal(out) {
					rows := make([][]string, 0, len(keys))
					for _, key := range keys {
						code, name := splitKeyLine(key)
						rows = append(rows, []string{code, name})
					}
					fmt.Fprintln(out, renderTable([]string{"Code", "Key"}, rows))
					return nil
				}
				printLines(out, keys)
				return nil
			})
		},
	}
}

func newSendCommand(ctx *commandContext) *cobra.Command {
	var repeats int

	cmd := &cobra.Command{
		Use:   "send <remote> <key>",
		Short: "Transmit a key press",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, key := args[0], args[1]
			return ctx.withTransmitter(cmd.Context(), cmd.ErrOrStderr(), func(c context.Context, t *lirc.Transmitter) error {
				sent, err := t.Send(c, remote, key, repeats)
				if err != nil {
					return err
				}
				if !sent {
					return fmt.Errorf("lircd refused to send %s %s", remote, key)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&repeats, "repeats", "r", 0, "Number of additional repeats")
	return cmd
}

func newVersionCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the lircd version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withTransmitter(cmd.Context(), cmd.ErrOrStderr(), func(c context.Context, t *lirc.Transmitter) error {
				version, ok, err := t.Version(c)
				if err != nil {
					return err
				}
				if !ok {
					return errors.New("lircd refused to report its version")
				}
				fmt.Fprintln(cmd.OutOrStdout(), version)
				return nil
			})
		},
	}
}

// splitKeyLine splits a "<code> <name>" key line.
func splitKeyLine(line string) (string, string) {
	code, name, found := strings.Cut(strings.TrimSpace(line), " ")
	if !found {
		return "", code
	}
	return code, strings.TrimSpace(name)
}

func printLines(w io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}
