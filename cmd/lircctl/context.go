package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/pior/lirc"
)

type rootFlags struct {
	config  string
	socket  string
	host    string
	port    int
	timeout time.Duration
	verbose bool
}

type commandContext struct {
	flags *rootFlags

	configOnce sync.Once
	config     *fileConfig
	configPath string
	configErr  error
}

func newCommandContext(flags *rootFlags) *commandContext {
	return &commandContext{flags: flags}
}

// ensureConfig loads the configuration file once and applies flag overrides.
func (c *commandContext) ensureConfig() (*fileConfig, error) {
	c.configOnce.Do(func() {
		cfg, path, err := loadConfig(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.applyFlags(c.flags); err != nil {
			c.configErr = err
			return
		}
		if err := cfg.validate(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
	})
	return c.config, c.configErr
}

func (c *commandContext) logger(w io.Writer) *slog.Logger {
	cfg, err := c.ensureConfig()
	if err != nil {
		return newLogger(w, slog.LevelInfo)
	}
	return newLogger(w, cfg.Log.level())
}

// withTransmitter connects to the daemon for a single command.
func (c *commandContext) withTransmitter(ctx context.Context, logOut io.Writer, fn func(context.Context, *lirc.Transmitter) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	if timeout := cfg.Connection.timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	connConfig := cfg.Connection.lircConfig()
	connConfig.Logger = c.logger(logOut)

	t, err := lirc.Dial(ctx, connConfig)
	if err != nil {
		return wrapDialError(err, cfg.Connection.address())
	}
	defer t.Close()

	return fn(ctx, t)
}

func wrapDialError(err error, addr string) error {
	switch {
	case errors.Is(err, syscall.ENOENT) || errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("connect to lircd: socket %s not found; is lircd running?", addr)
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("connect to lircd: %s refused the connection; verify lircd is listening", addr)
	default:
		return fmt.Errorf("connect to lircd: %w", err)
	}
}
