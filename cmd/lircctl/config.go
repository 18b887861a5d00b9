package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/pior/lirc"
)

const defaultTimeout = 5 * time.Second

// fileConfig is the lircctl configuration file.
type fileConfig struct {
	Connection connectionConfig `toml:"connection"`
	Log        logConfig        `toml:"log"`
}

type connectionConfig struct {
	Kind    string `toml:"kind"`
	Socket  string `toml:"socket"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	Timeout string `toml:"timeout"`

	parsedKind    lirc.ConnectionKind
	parsedTimeout time.Duration
}

type logConfig struct {
	Level string `toml:"level"`

	parsedLevel slog.Level
}

func defaultConfig() fileConfig {
	return fileConfig{
		Connection: connectionConfig{
			Kind:    lirc.Local.String(),
			Socket:  lirc.DefaultSocketPath,
			Host:    "localhost",
			Port:    lirc.DefaultPort,
			Timeout: defaultTimeout.String(),
		},
		Log: logConfig{Level: "info"},
	}
}

// defaultConfigPath returns ~/.config/lircctl/config.toml.
func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "lircctl", "config.toml"), nil
}

// loadConfig reads path, or the default path when empty. A missing default
// file yields the defaults; a missing explicit file is an error.
func loadConfig(path string) (*fileConfig, string, error) {
	cfg := defaultConfig()

	explicit := path != ""
	if !explicit {
		var err error
		path, err = defaultConfigPath()
		if err != nil {
			return nil, "", err
		}
	}

	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		decoder := toml.NewDecoder(file).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		path = ""
	default:
		return nil, "", fmt.Errorf("open config: %w", err)
	}

	return &cfg, path, nil
}

// applyFlags overrides file values with the flags that were set.
// --socket and --host select different transports and cannot be combined.
func (c *fileConfig) applyFlags(f *rootFlags) error {
	if strings.TrimSpace(f.socket) != "" && strings.TrimSpace(f.host) != "" {
		return errors.New("--socket and --host cannot be used together")
	}
	if socket := strings.TrimSpace(f.socket); socket != "" {
		c.Connection.Kind = lirc.Local.String()
		c.Connection.Socket = socket
	}
	if host := strings.TrimSpace(f.host); host != "" {
		c.Connection.Kind = lirc.Stream.String()
		c.Connection.Host = host
	}
	if f.port != 0 {
		c.Connection.Port = f.port
	}
	if f.timeout != 0 {
		c.Connection.Timeout = f.timeout.String()
	}
	if f.verbose {
		c.Log.Level = "debug"
	}
	return nil
}

func (c *fileConfig) validate() error {
	kind, err := lirc.ParseConnectionKind(c.Connection.Kind)
	if err != nil {
		return fmt.Errorf("config: connection.kind: %w", err)
	}
	c.Connection.parsedKind = kind

	switch kind {
	case lirc.Local:
		if strings.TrimSpace(c.Connection.Socket) == "" {
			return errors.New("config: connection.socket is required for the local transport")
		}
	case lirc.Stream:
		if strings.TrimSpace(c.Connection.Host) == "" {
			return errors.New("config: connection.host is required for the stream transport")
		}
		if c.Connection.Port < 0 || c.Connection.Port > 65535 {
			return fmt.Errorf("config: connection.port %d out of range", c.Connection.Port)
		}
	}

	if c.Connection.Timeout != "" {
		timeout, err := time.ParseDuration(c.Connection.Timeout)
		if err != nil {
			return fmt.Errorf("config: connection.timeout: %w", err)
		}
		if timeout < 0 {
			return fmt.Errorf("config: connection.timeout must not be negative, got %s", timeout)
		}
		c.Connection.parsedTimeout = timeout
	}

	if err := c.Log.parsedLevel.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}

	return nil
}

func (c connectionConfig) lircConfig() lirc.Config {
	cfg := lirc.Config{Kind: c.parsedKind}
	if c.parsedKind == lirc.Local {
		cfg.Address = c.Socket
	} else {
		cfg.Address = c.Host
		cfg.Port = c.Port
	}
	return cfg
}

// address is the daemon address as shown to the user.
func (c connectionConfig) address() string {
	if c.parsedKind == lirc.Local {
		return c.Socket
	}
	port := c.Port
	if port == 0 {
		port = lirc.DefaultPort
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

func (c connectionConfig) timeout() time.Duration {
	return c.parsedTimeout
}

func (c logConfig) level() slog.Level {
	return c.parsedLevel
}

func (c *fileConfig) marshal() ([]byte, error) {
	return toml.Marshal(c)
}
