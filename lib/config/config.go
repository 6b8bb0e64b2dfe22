// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/tether/lib/pathmap"
	"github.com/bureau-foundation/tether/transport"
)

// EnvironmentVariable names the config file for Load.
const EnvironmentVariable = "TETHER_CONFIG"

// Config is the complete tether configuration.
type Config struct {
	// Bridge locates the two legs of a bridge.
	Bridge BridgeConfig `yaml:"bridge"`

	// Connect is the retry policy for outbound connections.
	Connect ConnectConfig `yaml:"connect"`

	// Accept configures single-shot listeners.
	Accept AcceptConfig `yaml:"accept"`

	// PathMappings rewrite local paths to remote ones, first match
	// wins.
	PathMappings Mappings `yaml:"path_mappings"`

	// PathFields names the message keys whose string values are paths.
	PathFields []string `yaml:"path_fields"`

	// ReverseMappings applies PathMappings remote-to-local, for a
	// bridge carrying traffic the other way.
	ReverseMappings bool `yaml:"reverse_mappings"`

	// ExitRecord, if set, is where tether-bridge writes the worker's
	// exit record in exec mode.
	ExitRecord string `yaml:"exit_record"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// BridgeConfig locates the local listener and the remote endpoint.
type BridgeConfig struct {
	// LocalHost is the bind address for the local listener. Empty
	// binds all interfaces.
	LocalHost string `yaml:"local_host"`

	// LocalPort is the local listener's port. 0 picks an ephemeral
	// port.
	LocalPort int `yaml:"local_port"`

	// RemoteHost is dialed for the remote leg.
	RemoteHost string `yaml:"remote_host"`

	// RemotePort is dialed for the remote leg. Required for bridging.
	RemotePort int `yaml:"remote_port"`
}

// ConnectConfig mirrors transport.ConnectOptions.
type ConnectConfig struct {
	// Timeout is the total retry budget. 0 disables retry.
	Timeout time.Duration `yaml:"timeout"`

	// RetryInterval is the pause between attempts.
	RetryInterval time.Duration `yaml:"retry_interval"`

	// RejectClosedSocket is the grace window after connecting. 0
	// disables the check.
	RejectClosedSocket time.Duration `yaml:"reject_closed_socket"`
}

// AcceptConfig mirrors transport.AcceptOptions.
type AcceptConfig struct {
	// Timeout bounds the wait for the single connection. 0 waits
	// forever.
	Timeout time.Duration `yaml:"timeout"`
}

// Mappings is a path mapping list that decodes from either
// "local=remote" strings or {local, remote} objects.
type Mappings []pathmap.Mapping

// UnmarshalYAML accepts a sequence whose items are scalars in
// "local=remote" form or mappings with local and remote keys.
func (m *Mappings) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: path_mappings must be a list", node.Line)
	}
	mappings := make(Mappings, 0, len(node.Content))
	for _, item := range node.Content {
		switch item.Kind {
		case yaml.ScalarNode:
			mapping, err := pathmap.ParseMapping(item.Value)
			if err != nil {
				return fmt.Errorf("line %d: %w", item.Line, err)
			}
			mappings = append(mappings, mapping)
		case yaml.MappingNode:
			var mapping pathmap.Mapping
			if err := item.Decode(&mapping); err != nil {
				return fmt.Errorf("line %d: %w", item.Line, err)
			}
			mappings = append(mappings, mapping)
		default:
			return fmt.Errorf("line %d: path mapping must be a string or an object", item.Line)
		}
	}
	*m = mappings
	return nil
}

// Default returns the configuration used when no file is given. The
// transport settings match transport.DefaultConnectOptions and
// transport.DefaultAcceptOptions.
func Default() *Config {
	connect := transport.DefaultConnectOptions()
	accept := transport.DefaultAcceptOptions()
	return &Config{
		Bridge: BridgeConfig{
			LocalHost:  "127.0.0.1",
			RemoteHost: transport.DefaultHost,
		},
		Connect: ConnectConfig{
			Timeout:            connect.Timeout,
			RetryInterval:      connect.RetryInterval,
			RejectClosedSocket: connect.RejectClosedSocket,
		},
		Accept: AcceptConfig{
			Timeout: accept.Timeout,
		},
		LogLevel: "info",
	}
}

// Load loads the file named by TETHER_CONFIG. It fails if the variable
// is unset; callers that can run without a file should check the
// variable themselves.
func Load() (*Config, error) {
	path := os.Getenv(EnvironmentVariable)
	if path == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of a tether config file, or use --config", EnvironmentVariable)
	}
	return LoadFile(path)
}

// LoadFile loads path on top of Default and expands variables. It does
// not validate; call Validate once flags have been applied.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := cfg.decode(path, data); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) decode(path string, data []byte) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil {
		// An empty file decodes to nothing; the defaults stand.
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

var variablePattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVariables expands ${VAR} and ${VAR:-default} in path-valued
// fields.
func (c *Config) expandVariables() {
	c.ExitRecord = expandVariables(c.ExitRecord)
	for index := range c.PathMappings {
		c.PathMappings[index].Local = expandVariables(c.PathMappings[index].Local)
		c.PathMappings[index].Remote = expandVariables(c.PathMappings[index].Remote)
	}
}

func expandVariables(s string) string {
	return variablePattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := variablePattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Validate checks the configuration. requireRemote demands a remote
// port, which only bridging and sending need.
func (c *Config) Validate(requireRemote bool) error {
	var errs []error

	if !validPort(c.Bridge.LocalPort) {
		errs = append(errs, fmt.Errorf("bridge.local_port %d out of range", c.Bridge.LocalPort))
	}
	if requireRemote && c.Bridge.RemotePort == 0 {
		errs = append(errs, fmt.Errorf("bridge.remote_port is required"))
	} else if !validPort(c.Bridge.RemotePort) {
		errs = append(errs, fmt.Errorf("bridge.remote_port %d out of range", c.Bridge.RemotePort))
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"connect.timeout", c.Connect.Timeout},
		{"connect.retry_interval", c.Connect.RetryInterval},
		{"connect.reject_closed_socket", c.Connect.RejectClosedSocket},
		{"accept.timeout", c.Accept.Timeout},
	}
	for _, duration := range durations {
		if duration.value < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", duration.name))
		}
	}
	if c.Connect.Timeout > 0 && c.Connect.RetryInterval <= 0 {
		errs = append(errs, fmt.Errorf("connect.retry_interval must be positive when connect.timeout is set"))
	}

	for index, mapping := range c.PathMappings {
		if mapping.Local == "" || mapping.Remote == "" {
			errs = append(errs, fmt.Errorf("path_mappings[%d]: both local and remote are required", index))
		}
	}
	if len(c.PathMappings) > 0 && len(c.PathFields) == 0 {
		errs = append(errs, fmt.Errorf("path_mappings given without path_fields; no message field would be rewritten"))
	}

	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func validPort(port int) bool {
	return port >= 0 && port <= 65535
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level %q: must be debug, info, warn, or error", c.LogLevel)
	}
	return level, nil
}

// ConnectOptions returns transport options for the remote leg.
func (c *Config) ConnectOptions() transport.ConnectOptions {
	return transport.ConnectOptions{
		Host:               c.Bridge.RemoteHost,
		Timeout:            c.Connect.Timeout,
		RetryInterval:      c.Connect.RetryInterval,
		RejectClosedSocket: c.Connect.RejectClosedSocket,
	}
}

// AcceptOptions returns transport options for the local listener.
func (c *Config) AcceptOptions() transport.AcceptOptions {
	return transport.AcceptOptions{
		Host:    c.Bridge.LocalHost,
		Timeout: c.Accept.Timeout,
	}
}

// PathTable returns the path mappings as a rewrite table, reversed if
// ReverseMappings is set.
func (c *Config) PathTable() pathmap.Table {
	table := pathmap.Table(c.PathMappings)
	if c.ReverseMappings {
		return table.Reverse()
	}
	return table
}
