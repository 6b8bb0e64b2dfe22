// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/bureau-foundation/tether/lib/codec"
	"github.com/bureau-foundation/tether/lib/netutil"
	"github.com/bureau-foundation/tether/transport"
)

// Transform rewrites one decoded message. The returned value is encoded
// onto the remote leg. An error is fatal to the channel.
type Transform func(message any) (any, error)

// Identity forwards messages unchanged.
func Identity(message any) (any, error) { return message, nil }

// Config describes one bridge.
type Config struct {
	// LocalHost and LocalPort are where the bridge listens for the
	// single local connection. An empty LocalHost binds all
	// interfaces; port 0 picks an ephemeral port (see Bridge.Addr).
	LocalHost string
	LocalPort int

	// RemoteHost and RemotePort are dialed before listening. An empty
	// RemoteHost dials loopback.
	RemoteHost string
	RemotePort int

	// Transform is applied to every message. Nil means Identity.
	Transform Transform

	// Connect is the retry policy for the remote leg. Nil means
	// transport.DefaultConnectOptions: a 5s budget with a 10ms grace
	// window. Its Host is replaced by RemoteHost and a nil Logger
	// inherits the bridge's.
	Connect *transport.ConnectOptions

	// Accept configures the local listener. Nil means
	// transport.DefaultAcceptOptions: a 5s accept timeout. Its Host is
	// replaced by LocalHost and a nil Logger inherits the bridge's.
	Accept *transport.AcceptOptions

	// Logger receives structured log output. If nil, slog.Default() is
	// used. Lifecycle events are logged at Info, per-message detail at
	// Debug.
	Logger *slog.Logger
}

// Bridge is a running splice between one local and one remote
// connection.
type Bridge struct {
	sessionID string
	remote    net.Conn
	acceptor  *transport.Acceptor
	transform Transform
	logger    *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}

	// mu guards local and closing. Once closing is set no new local
	// connection is adopted.
	mu      sync.Mutex
	local   net.Conn
	closing bool

	disposeOnce sync.Once
	disposed    atomic.Bool
	forwarded   atomic.Int64

	// err is written once by run before done is closed.
	err error
}

// Open dials the remote leg, then binds the local listener, and starts
// the background accept and forwarding. If the listener cannot be bound
// the remote connection is closed before returning. Cancelling ctx
// aborts the remote dial and later tears the bridge down as Dispose
// would.
func Open(ctx context.Context, config Config) (*Bridge, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sessionID := uuid.NewString()
	logger = logger.With("session_id", sessionID)

	transform := config.Transform
	if transform == nil {
		transform = Identity
	}

	connectOptions := transport.DefaultConnectOptions()
	if config.Connect != nil {
		connectOptions = *config.Connect
	}
	connectOptions.Host = config.RemoteHost
	if connectOptions.Logger == nil {
		connectOptions.Logger = logger
	}
	remote, err := transport.Connect(ctx, config.RemotePort, connectOptions)
	if err != nil {
		return nil, fmt.Errorf("bridge: remote leg: %w", err)
	}

	acceptOptions := transport.DefaultAcceptOptions()
	if config.Accept != nil {
		acceptOptions = *config.Accept
	}
	acceptOptions.Host = config.LocalHost
	if acceptOptions.Logger == nil {
		acceptOptions.Logger = logger
	}
	acceptor, err := transport.Listen(config.LocalPort, acceptOptions)
	if err != nil {
		remote.Close()
		return nil, fmt.Errorf("bridge: local leg: %w", err)
	}

	runContext, cancel := context.WithCancel(ctx)
	bridge := &Bridge{
		sessionID: sessionID,
		remote:    remote,
		acceptor:  acceptor,
		transform: transform,
		logger:    logger,
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	logger.Info("bridge open",
		"local_addr", acceptor.Addr().String(),
		"remote_addr", remote.RemoteAddr().String(),
	)

	go bridge.run(runContext)
	return bridge, nil
}

// Addr returns the local listener's address.
func (b *Bridge) Addr() net.Addr {
	return b.acceptor.Addr()
}

// SessionID identifies this bridge in logs.
func (b *Bridge) SessionID() string {
	return b.sessionID
}

// Forwarded returns the number of messages written to the remote leg.
func (b *Bridge) Forwarded() int64 {
	return b.forwarded.Load()
}

// Done is closed when both legs are closed and background work has
// finished.
func (b *Bridge) Done() <-chan struct{} {
	return b.done
}

// Err returns the error that ended the channel, or nil if it ended by
// end of stream, Dispose, or has not ended yet.
func (b *Bridge) Err() error {
	select {
	case <-b.done:
		return b.err
	default:
		return nil
	}
}

// Wait blocks until the bridge has ended and returns Err.
func (b *Bridge) Wait() error {
	<-b.done
	return b.err
}

// Dispose closes both legs, or the remote leg and the listener if no
// local connection was accepted yet, and waits for background work to
// finish. It is safe to call any number of times from any state, but
// not from inside the Transform.
func (b *Bridge) Dispose() {
	b.disposeOnce.Do(func() {
		b.logger.Debug("disposing bridge")
		b.disposed.Store(true)
		b.cancel()
		b.acceptor.Close()
		b.closeLegs()
	})
	<-b.done
}

// closeLegs closes whatever legs exist. Closing a net.Conn twice is
// harmless, so this may be called from several paths.
func (b *Bridge) closeLegs() {
	b.mu.Lock()
	b.closing = true
	local := b.local
	b.mu.Unlock()

	if local != nil {
		local.Close()
	}
	b.remote.Close()
}

func (b *Bridge) run(ctx context.Context) {
	defer close(b.done)
	defer b.cancel()

	local, err := b.acceptor.Accept(ctx)
	if err != nil {
		b.closeLegs()
		if b.disposed.Load() {
			err = nil
		}
		b.finish(err)
		return
	}

	b.mu.Lock()
	if b.closing {
		b.mu.Unlock()
		local.Close()
		b.remote.Close()
		b.finish(nil)
		return
	}
	b.local = local
	b.mu.Unlock()

	b.logger.Debug("local leg accepted", "remote_addr", local.RemoteAddr().String())

	stop := context.AfterFunc(ctx, b.closeLegs)
	defer stop()

	var waitGroup sync.WaitGroup
	var pumpError, drainError error
	waitGroup.Add(2)
	go func() {
		defer waitGroup.Done()
		pumpError = b.pump(local)
	}()
	go func() {
		defer waitGroup.Done()
		drainError = b.drain(local)
	}()
	waitGroup.Wait()

	b.closeLegs()
	b.finish(errors.Join(pumpError, drainError))
}

func (b *Bridge) finish(err error) {
	b.err = err
	if err != nil {
		b.logger.Error("bridge closed", "forwarded", b.forwarded.Load(), "error", err)
		return
	}
	b.logger.Info("bridge closed", "forwarded", b.forwarded.Load())
}

// pump forwards local messages to the remote leg one at a time. Local
// end of stream half-closes and then closes the remote leg.
func (b *Bridge) pump(local net.Conn) error {
	decoder := codec.NewLineDecoder(local)
	encoder := codec.NewLineEncoder(b.remote)

	for {
		message, err := decoder.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				b.logger.Debug("local leg ended")
				if tcpConn, ok := b.remote.(*net.TCPConn); ok {
					tcpConn.CloseWrite()
				}
				b.remote.Close()
				return nil
			}
			if netutil.IsExpectedCloseError(err) {
				return nil
			}
			b.closeLegs()
			if codec.IsProtocolError(err) {
				return fmt.Errorf("bridge: reading local leg: %w", err)
			}
			return fmt.Errorf("bridge: reading local leg at line %d: %w", decoder.Line(), err)
		}

		rewritten, err := b.transform(message)
		if err != nil {
			b.closeLegs()
			return fmt.Errorf("bridge: transform of line %d: %w", decoder.Line(), err)
		}

		if err := encoder.Encode(rewritten); err != nil {
			b.closeLegs()
			if netutil.IsExpectedCloseError(err) {
				return nil
			}
			return fmt.Errorf("bridge: writing remote leg: %w", err)
		}
		count := b.forwarded.Add(1)
		b.logger.Debug("message forwarded", "line", decoder.Line(), "forwarded", count)
	}
}

// drain discards whatever the remote leg sends until it ends, then
// closes the local leg.
func (b *Bridge) drain(local net.Conn) error {
	discarded, err := io.Copy(io.Discard, b.remote)
	local.Close()
	if discarded > 0 {
		b.logger.Debug("discarded remote bytes", "bytes", discarded)
	}
	if err != nil && !netutil.IsExpectedCloseError(err) {
		return fmt.Errorf("bridge: reading remote leg: %w", err)
	}
	b.logger.Debug("remote leg ended")
	return nil
}
