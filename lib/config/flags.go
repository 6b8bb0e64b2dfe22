// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/tether/lib/pathmap"
)

// Section selects a group of command-line overrides for RegisterFlags.
type Section int

const (
	// SectionLocal: --local-host, --local-port.
	SectionLocal Section = iota
	// SectionRemote: --remote-host, --remote-port.
	SectionRemote
	// SectionConnect: --connect-timeout, --retry-interval, --reject-closed.
	SectionConnect
	// SectionAccept: --accept-timeout.
	SectionAccept
	// SectionPaths: --map, --field, --reverse.
	SectionPaths
	// SectionExec: --exit-record.
	SectionExec
)

// Flags holds command-line overrides bound to a pflag.FlagSet. Only
// flags the user actually set override the file; an unset flag leaves
// the file's (or the default) value alone.
type Flags struct {
	set *pflag.FlagSet

	path string

	localHost  string
	localPort  int
	remoteHost string
	remotePort int

	connectTimeout time.Duration
	retryInterval  time.Duration
	rejectClosed   time.Duration
	acceptTimeout  time.Duration

	mappings []string
	fields   []string
	reverse  bool

	exitRecord string
}

// RegisterFlags adds --config plus the flags of each section to
// flagSet. Flag defaults shown in help are the built-in defaults.
func RegisterFlags(flagSet *pflag.FlagSet, sections ...Section) *Flags {
	defaults := Default()
	flags := &Flags{set: flagSet}

	flagSet.StringVar(&flags.path, "config", "", "config file (YAML, or JSON with comments); default $"+EnvironmentVariable)

	for _, section := range sections {
		switch section {
		case SectionLocal:
			flagSet.StringVar(&flags.localHost, "local-host", defaults.Bridge.LocalHost, "local listen address (empty: all interfaces)")
			flagSet.IntVar(&flags.localPort, "local-port", defaults.Bridge.LocalPort, "local listen port (0: ephemeral)")
		case SectionRemote:
			flagSet.StringVar(&flags.remoteHost, "remote-host", defaults.Bridge.RemoteHost, "remote host to connect to")
			flagSet.IntVar(&flags.remotePort, "remote-port", defaults.Bridge.RemotePort, "remote port to connect to")
		case SectionConnect:
			flagSet.DurationVar(&flags.connectTimeout, "connect-timeout", defaults.Connect.Timeout, "total connect retry budget (0: single attempt)")
			flagSet.DurationVar(&flags.retryInterval, "retry-interval", defaults.Connect.RetryInterval, "pause between connect attempts")
			flagSet.DurationVar(&flags.rejectClosed, "reject-closed", defaults.Connect.RejectClosedSocket, "grace window for detecting an immediately closed connection (0: off)")
		case SectionAccept:
			flagSet.DurationVar(&flags.acceptTimeout, "accept-timeout", defaults.Accept.Timeout, "how long to wait for the local connection (0: forever)")
		case SectionPaths:
			flagSet.StringArrayVar(&flags.mappings, "map", nil, "path mapping local=remote (repeatable, first match wins)")
			flagSet.StringArrayVar(&flags.fields, "field", nil, "message key whose string values are paths (repeatable)")
			flagSet.BoolVar(&flags.reverse, "reverse", false, "apply path mappings remote-to-local")
		case SectionExec:
			flagSet.StringVar(&flags.exitRecord, "exit-record", "", "write the worker's exit record (CBOR) to this path")
		}
	}
	return flags
}

// Load reads the file named by --config, or by TETHER_CONFIG if the
// flag is absent, or starts from Default if neither is given, and then
// applies the flags that were set. It does not validate.
func (f *Flags) Load() (*Config, error) {
	path := f.path
	if path == "" {
		path = os.Getenv(EnvironmentVariable)
	}

	cfg := Default()
	if path != "" {
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := f.apply(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (f *Flags) apply(cfg *Config) error {
	changed := f.set.Changed

	if changed("local-host") {
		cfg.Bridge.LocalHost = f.localHost
	}
	if changed("local-port") {
		cfg.Bridge.LocalPort = f.localPort
	}
	if changed("remote-host") {
		cfg.Bridge.RemoteHost = f.remoteHost
	}
	if changed("remote-port") {
		cfg.Bridge.RemotePort = f.remotePort
	}
	if changed("connect-timeout") {
		cfg.Connect.Timeout = f.connectTimeout
	}
	if changed("retry-interval") {
		cfg.Connect.RetryInterval = f.retryInterval
	}
	if changed("reject-closed") {
		cfg.Connect.RejectClosedSocket = f.rejectClosed
	}
	if changed("accept-timeout") {
		cfg.Accept.Timeout = f.acceptTimeout
	}
	if changed("map") {
		table, err := pathmap.ParseTable(f.mappings)
		if err != nil {
			return err
		}
		cfg.PathMappings = Mappings(table)
	}
	if changed("field") {
		cfg.PathFields = f.fields
	}
	if changed("reverse") {
		cfg.ReverseMappings = f.reverse
	}
	if changed("exit-record") {
		cfg.ExitRecord = f.exitRecord
	}
	return nil
}
