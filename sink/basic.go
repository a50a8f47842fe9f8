// Package sink implements the consumer-side components that collect result
// envelopes emitted by workers.
package sink

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/taskfabric/cluster/clog"
	"github.com/taskfabric/cluster/endpoint"
	"github.com/taskfabric/cluster/wire"
)

// Item is one element of a sink's lazy receive sequence, modeled as a
// channel rather than an exception-raising iterator: exactly one of
// Envelope / Err is meaningful, mirroring Go's (value, error) idiom instead
// of a generator that raises mid-iteration.
type Item struct {
	Envelope wire.Envelope
	Err      error
}

// Config holds the basic sink's tunable parameters.
type Config struct {
	// ReceiveTimeout is the default per-poll timeout used when Receive is
	// called without an explicit override. Zero blocks indefinitely.
	ReceiveTimeout time.Duration
}

// Option configures a BasicSink at construction time.
type Option func(*Config)

// WithReceiveTimeout overrides the sink-configured default poll timeout.
func WithReceiveTimeout(d time.Duration) Option {
	return func(c *Config) { c.ReceiveTimeout = d }
}

// BasicSink pulls result envelopes with per-message timeouts and yields
// them as a sequence bounded by either an expected count or an external
// kill command.
type BasicSink struct {
	*clog.CLogger

	config Config

	resultDesc  endpoint.Descriptor
	commandDesc *endpoint.Descriptor
	conn        *nats.Conn

	mu      sync.Mutex
	result  *endpoint.Socket
	command *endpoint.Socket
	ready   bool
}

// New creates a BasicSink.
func New(opts ...Option) *BasicSink {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	id := uuid.NewString()
	return &BasicSink{
		CLogger: clog.New("sink %s ", id[:8]),
		config:  cfg,
	}
}

// WithEndpoints configures the result (pull) and optional command (sub,
// match-all) sockets to materialize lazily on the first call to Receive.
func (s *BasicSink) WithEndpoints(result endpoint.Descriptor, command *endpoint.Descriptor, conn *nats.Conn) *BasicSink {
	result.Role = endpoint.RolePull
	s.resultDesc = result
	s.conn = conn
	if command != nil {
		cmd := *command
		cmd.Role = endpoint.RoleSub
		if cmd.Options == nil {
			cmd.Options = map[string]string{}
		}
		cmd.Options[endpoint.OptionSubscribe] = ""
		s.commandDesc = &cmd
	}
	return s
}

func (s *BasicSink) setup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}

	result, err := s.resultDesc.Materialize(ctx, s.conn, nil)
	if err != nil {
		return err
	}

	var command *endpoint.Socket
	if s.commandDesc != nil {
		command, err = s.commandDesc.Materialize(ctx, s.conn, nil)
		if err != nil {
			result.Close()
			return err
		}
	}

	s.result, s.command = result, command
	s.ready = true
	return nil
}

// Receive returns a channel yielding result envelopes as they arrive.
// expectedCount, if non-nil, bounds the sequence to that many envelopes (or
// an earlier kill). timeout, if non-zero, overrides the sink-configured
// default; it applies per envelope, not as a global deadline. The channel
// is closed after the bound is reached, after a KILL-SINK command, after
// ctx is canceled, or immediately after a single RECEIVER-TIMEOUT item is
// emitted; the sink itself is not terminated by a timeout, and a fresh
// call to Receive remains valid.
func (s *BasicSink) Receive(ctx context.Context, expectedCount *int, timeout time.Duration) <-chan Item {
	out := make(chan Item)

	go func() {
		defer close(out)

		if err := s.setup(ctx); err != nil {
			out <- Item{Err: err}
			return
		}

		if timeout == 0 {
			timeout = s.config.ReceiveTimeout
		}
		// With no receive timeout, poll in short slices so a canceled ctx
		// is still noticed; only a configured timeout is reported as one.
		const ctxPollInterval = 100 * time.Millisecond
		pollTimeout := timeout
		if pollTimeout <= 0 {
			pollTimeout = ctxPollInterval
		}

		var commandCh <-chan *nats.Msg
		if s.command != nil {
			commandCh = s.command.Channel()
		}

		idx := 0
		for {
			if expectedCount != nil && idx >= *expectedCount {
				return
			}
			select {
			case <-ctx.Done():
				return
			default:
			}

			data, cmd, timedOut := endpoint.Poll(pollTimeout, s.result.Channel(), commandCh)
			if timedOut {
				if timeout <= 0 {
					continue
				}
				out <- Item{Err: wire.ErrReceiverTimeout}
				return
			}

			if data != nil {
				env, err := wire.DecodeEnvelope(data.Data)
				if err != nil {
					out <- Item{Err: err}
					return
				}
				select {
				case out <- Item{Envelope: env}:
				case <-ctx.Done():
					return
				}
				idx++
			}

			if cmd != nil {
				if wire.DecodeCommand(cmd.Data) == wire.CmdKillSink {
					s.Printf("received kill command, terminating")
					return
				}
				// Unknown commands are silently ignored.
			}
		}
	}()

	return out
}

// KillSink materializes a pub socket from d against conn, waits briefly for
// subscribers to finish their subscribe handshake, and publishes
// CLUSTER_SINK_KILL. Sending KILL-SINK twice has the same effect as once.
func KillSink(ctx context.Context, d endpoint.Descriptor, conn *nats.Conn) error {
	d.Role = endpoint.RolePub
	sock, err := d.Materialize(ctx, conn, nil)
	if err != nil {
		return err
	}
	defer sock.Close()

	timer := time.NewTimer(1 * time.Second)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return ctx.Err()
	}

	return sock.Send(wire.EncodeCommand(wire.CmdKillSink))
}

// Close releases the sink's sockets.
func (s *BasicSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for _, sock := range []*endpoint.Socket{s.result, s.command} {
		if sock == nil {
			continue
		}
		if err := sock.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
