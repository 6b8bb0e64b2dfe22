// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// tether-listen accepts a single message channel connection and prints
// every message it receives to stdout as a JSON line. Malformed lines
// are logged and skipped. It exits when the peer closes the channel.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/tether/lib/codec"
	"github.com/bureau-foundation/tether/lib/config"
	"github.com/bureau-foundation/tether/lib/process"
	"github.com/bureau-foundation/tether/lib/version"
	"github.com/bureau-foundation/tether/transport"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	flagSet := pflag.NewFlagSet("tether-listen", pflag.ContinueOnError)
	flags := config.RegisterFlags(flagSet, config.SectionLocal, config.SectionAccept)
	verbose := flagSet.BoolP("verbose", "v", false, "enable debug logging")
	showVersion := flagSet.Bool("version", false, "print version and exit")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if *showVersion {
		version.Print("tether-listen")
		return nil
	}
	if flagSet.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}

	cfg, err := flags.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(false); err != nil {
		return err
	}

	level, _ := cfg.Level()
	if *verbose {
		level = slog.LevelDebug
	}
	logger := process.NewLogger(level).With("session_id", uuid.NewString())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	acceptOptions := cfg.AcceptOptions()
	acceptOptions.Logger = logger
	acceptor, err := transport.Listen(cfg.Bridge.LocalPort, acceptOptions)
	if err != nil {
		return err
	}
	logger.Info("waiting for connection", "address", acceptor.Addr().String())

	conn, err := acceptor.Accept(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	stopClose := context.AfterFunc(ctx, func() { conn.Close() })
	defer stopClose()

	logger.Info("connection accepted", "remote_addr", conn.RemoteAddr().String())
	return printMessages(conn, os.Stdout, logger)
}

// printMessages copies each message from r to w as a JSON line. A
// malformed line is logged and skipped.
func printMessages(r io.Reader, w io.Writer, logger *slog.Logger) error {
	decoder := codec.NewLineDecoder(r)
	encoder := codec.NewLineEncoder(w)
	received := 0
	for {
		message, err := decoder.Next()
		switch {
		case errors.Is(err, io.EOF):
			logger.Info("peer closed the channel", "received", received)
			return nil
		case codec.IsProtocolError(err):
			logger.Warn("skipping malformed message", "error", err)
			continue
		case err != nil:
			logger.Info("channel ended", "received", received, "error", err)
			return nil
		}

		if err := encoder.Encode(message); err != nil {
			return fmt.Errorf("writing message %d: %w", received+1, err)
		}
		received++
	}
}
