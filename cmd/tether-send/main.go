// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// tether-send connects to a message channel listener (retrying while
// it starts up) and sends the JSON lines read from stdin, one message
// per line. Every line is parsed before sending, so a malformed line
// stops the run with its line number instead of reaching the peer.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
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
	flagSet := pflag.NewFlagSet("tether-send", pflag.ContinueOnError)
	flags := config.RegisterFlags(flagSet, config.SectionRemote, config.SectionConnect)
	verbose := flagSet.BoolP("verbose", "v", false, "enable debug logging")
	showVersion := flagSet.Bool("version", false, "print version and exit")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if *showVersion {
		version.Print("tether-send")
		return nil
	}
	if flagSet.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
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
	logger := process.NewLogger(level).With("session_id", uuid.NewString())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectOptions := cfg.ConnectOptions()
	connectOptions.Logger = logger
	conn, err := transport.Connect(ctx, cfg.Bridge.RemotePort, connectOptions)
	if err != nil {
		return err
	}
	defer conn.Close()

	sent, err := sendMessages(os.Stdin, conn)
	if err != nil {
		return err
	}
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		tcpConn.CloseWrite()
	}
	logger.Info("sent messages", "count", sent)
	return nil
}

// sendMessages validates each JSON line from r and writes it to w. It
// stops at the first malformed line.
func sendMessages(r io.Reader, w io.Writer) (int, error) {
	decoder := codec.NewLineDecoder(r)
	encoder := codec.NewLineEncoder(w)
	sent := 0
	for message, err := range decoder.Messages() {
		if err != nil {
			return sent, fmt.Errorf("reading stdin: %w", err)
		}
		if err := encoder.Encode(message); err != nil {
			return sent, fmt.Errorf("sending message %d: %w", sent+1, err)
		}
		sent++
	}
	return sent, nil
}
