// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// tether-bridge relays one worker's message channel to a controller
// that sees a different filesystem, rewriting paths in every message.
//
// Standalone mode connects to the controller, listens for the worker's
// single connection, and relays until either side closes or the bridge
// receives SIGINT/SIGTERM.
//
// Exec mode (arguments after --) does the same and additionally
// launches the worker, passing the bridge's address in TETHER_ADDR and
// TETHER_PORT. The bridge is torn down when the worker exits and the
// worker's exit status becomes the bridge's.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/tether/bridge"
	"github.com/bureau-foundation/tether/lib/clock"
	"github.com/bureau-foundation/tether/lib/config"
	"github.com/bureau-foundation/tether/lib/launcher"
	"github.com/bureau-foundation/tether/lib/pathmap"
	"github.com/bureau-foundation/tether/lib/process"
	"github.com/bureau-foundation/tether/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	flagSet := pflag.NewFlagSet("tether-bridge", pflag.ContinueOnError)
	flags := config.RegisterFlags(flagSet,
		config.SectionLocal,
		config.SectionRemote,
		config.SectionConnect,
		config.SectionAccept,
		config.SectionPaths,
		config.SectionExec,
	)
	verbose := flagSet.BoolP("verbose", "v", false, "enable per-message debug logging")
	showVersion := flagSet.Bool("version", false, "print version and exit")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printUsage(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printUsage(flagSet)
		return nil
	}
	if *showVersion {
		version.Print("tether-bridge")
		return nil
	}

	var command []string
	if dash := flagSet.ArgsLenAtDash(); dash >= 0 {
		if dash > 0 {
			return fmt.Errorf("unexpected argument before --: %s", flagSet.Args()[0])
		}
		command = flagSet.Args()
		if len(command) == 0 {
			return fmt.Errorf("no command specified after --")
		}
	} else if flagSet.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s (put the worker command after --)", flagSet.Arg(0))
	}

	cfg, err := flags.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(true); err != nil {
		return err
	}

	level, _ := cfg.Level()
	if *verbose {
		level = slog.LevelDebug
	}
	logger := process.NewLogger(level)
	slog.SetDefault(logger)

	connectOptions := cfg.ConnectOptions()
	acceptOptions := cfg.AcceptOptions()
	bridgeConfig := bridge.Config{
		LocalHost:  cfg.Bridge.LocalHost,
		LocalPort:  cfg.Bridge.LocalPort,
		RemoteHost: cfg.Bridge.RemoteHost,
		RemotePort: cfg.Bridge.RemotePort,
		Transform:  pathmap.FieldTransform(cfg.PathTable(), cfg.PathFields...),
		Connect:    &connectOptions,
		Accept:     &acceptOptions,
		Logger:     logger,
	}

	if len(command) > 0 {
		return runExecMode(bridgeConfig, command, cfg.ExitRecord, logger)
	}
	return runStandalone(bridgeConfig, logger)
}

func printUsage(flagSet *pflag.FlagSet) {
	fmt.Fprint(os.Stderr, `tether-bridge - relay a worker's message channel with path rewriting

USAGE
    tether-bridge [flags]
    tether-bridge [flags] -- <command> [args...]

EXAMPLES
    # Relay a container worker on :5000 to a controller on :5001
    tether-bridge --local-port 5000 --remote-port 5001 \
        --map /workspace/=/home/me/project/ --field file

    # Launch the worker too; it finds the bridge in $TETHER_ADDR
    tether-bridge --remote-port 5001 --map /workspace/=/home/me/project/ \
        --field file --exit-record /tmp/worker.cbor -- ./worker --suite all

In exec mode the worker's exit status is propagated. The bridge listens
before the worker starts, so the worker can connect immediately.

FLAGS
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}

// runStandalone runs one bridge until it ends or a shutdown signal
// arrives.
func runStandalone(bridgeConfig bridge.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := bridge.Open(ctx, bridgeConfig)
	if err != nil {
		return err
	}

	select {
	case <-b.Done():
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		b.Dispose()
	}
	return b.Err()
}

// runExecMode opens the bridge, runs the worker, and disposes the
// bridge when the worker exits.
func runExecMode(bridgeConfig bridge.Config, command []string, exitRecord string, logger *slog.Logger) error {
	ctx := context.Background()

	b, err := bridge.Open(ctx, bridgeConfig)
	if err != nil {
		return err
	}
	defer b.Dispose()

	address := b.Addr().(*net.TCPAddr)
	worker := launcher.Command{
		Path: command[0],
		Args: command[1:],
		Env: append(os.Environ(),
			"TETHER_ADDR="+address.String(),
			"TETHER_PORT="+strconv.Itoa(address.Port),
		),
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}

	wallClock := clock.Real()
	started := wallClock.Now()
	running := launcher.Start(ctx, worker, logger)
	stopForwarding := launcher.ForwardSignals(running)
	exit := running.Wait()
	stopForwarding()
	finished := wallClock.Now()

	b.Dispose()
	bridgeError := b.Err()
	if bridgeError != nil {
		logger.Warn("bridge ended with an error", "error", bridgeError)
	}

	if exitRecord != "" {
		record := launcher.NewRecord(worker, exit, started, finished)
		record.SessionID = b.SessionID()
		record.Forwarded = b.Forwarded()
		if err := launcher.WriteRecord(exitRecord, record); err != nil {
			logger.Error("writing exit record failed", "path", exitRecord, "error", err)
		}
	}

	switch {
	case exit.Err != nil:
		code := 126
		if errors.Is(exit.Err, exec.ErrNotFound) || errors.Is(exit.Err, fs.ErrNotExist) {
			code = 127
		}
		return &process.ExitError{Code: code, Err: exit.Err}
	case exit.Code != 0:
		return process.ExitCode(exit.Code)
	case bridgeError != nil:
		return bridgeError
	}
	return nil
}
