// Package worker implements the component that pulls a task payload,
// invokes a user callback, and pushes the resulting envelope onward.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/taskfabric/cluster/clog"
	"github.com/taskfabric/cluster/endpoint"
	"github.com/taskfabric/cluster/wire"
)

// Callback converts a task payload to a result payload. A returned error
// (or a panic recovered around the call) is converted to a FAIL envelope;
// the callback's failure modes never reach the worker's own loop.
type Callback[T any, R any] func(T) (R, error)

// Config holds the worker's tunable parameters.
type Config struct {
	// ReceiveTimeout bounds each poll of the inbound/command sockets. Zero
	// (the default) blocks indefinitely.
	ReceiveTimeout time.Duration
}

// Option configures a Worker at construction time.
type Option func(*Config)

// WithReceiveTimeout overrides the default (block indefinitely) poll
// timeout. A non-zero timeout that elapses with nothing ready is a
// RECEIVER-TIMEOUT error, not a shutdown signal.
func WithReceiveTimeout(d time.Duration) Option {
	return func(c *Config) { c.ReceiveTimeout = d }
}

// Worker pulls task payloads from an inbound socket, applies a callback,
// and pushes result envelopes onto an outbound socket, while concurrently
// watching a command socket for a kill signal.
type Worker[T any, R any] struct {
	*clog.CLogger

	taskCodec   wire.Codec[T]
	resultCodec wire.Codec[R]
	callback    Callback[T, R]
	config      Config

	inboundDesc  *endpoint.Descriptor
	outboundDesc *endpoint.Descriptor
	commandDesc  *endpoint.Descriptor
	conn         *nats.Conn

	mu       sync.Mutex
	inbound  *endpoint.Socket
	outbound *endpoint.Socket
	command  *endpoint.Socket
	ready    bool
}

// New creates a Worker that decodes tasks and encodes results with the
// given codecs, applying callback to each task pulled.
func New[T any, R any](taskCodec wire.Codec[T], resultCodec wire.Codec[R], callback Callback[T, R], opts ...Option) *Worker[T, R] {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	id := uuid.NewString()
	return &Worker[T, R]{
		CLogger:     clog.New("worker %s ", id[:8]),
		taskCodec:   taskCodec,
		resultCodec: resultCodec,
		callback:    callback,
		config:      cfg,
	}
}

// WithEndpoints configures the inbound (pull), outbound (push), and
// optional command (sub, match-all) sockets to materialize lazily on the
// first call to Run. A nil command descriptor means the worker runs with
// no command plane and can only be stopped by canceling ctx.
func (w *Worker[T, R]) WithEndpoints(inbound, outbound endpoint.Descriptor, command *endpoint.Descriptor, conn *nats.Conn) *Worker[T, R] {
	inbound.Role = endpoint.RolePull
	outbound.Role = endpoint.RolePush
	w.inboundDesc = &inbound
	w.outboundDesc = &outbound
	w.conn = conn
	if command != nil {
		cmd := *command
		cmd.Role = endpoint.RoleSub
		if cmd.Options == nil {
			cmd.Options = map[string]string{}
		}
		cmd.Options[endpoint.OptionSubscribe] = "" // match-all
		w.commandDesc = &cmd
	}
	return w
}

func (w *Worker[T, R]) setup(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ready {
		return nil
	}
	if w.inboundDesc == nil || w.outboundDesc == nil {
		return fmt.Errorf("worker: inbound/outbound endpoints not configured")
	}

	inbound, err := w.inboundDesc.Materialize(ctx, w.conn, nil)
	if err != nil {
		return err
	}
	outbound, err := w.outboundDesc.Materialize(ctx, w.conn, nil)
	if err != nil {
		inbound.Close()
		return err
	}

	var command *endpoint.Socket
	if w.commandDesc != nil {
		command, err = w.commandDesc.Materialize(ctx, w.conn, nil)
		if err != nil {
			inbound.Close()
			outbound.Close()
			return err
		}
	}

	w.inbound, w.outbound, w.command = inbound, outbound, command
	w.ready = true
	return nil
}

// Run executes the worker's state machine until the command plane
// delivers CLUSTER_WORKER_KILL or ctx is canceled, returning nil in either
// case. It returns ErrReceiverTimeout if a non-zero ReceiveTimeout elapses
// with nothing ready on either socket (an explicit timeout, not a
// shutdown signal), and returns any transport error encountered while
// pulling a task or pushing a result, which is fatal to the worker.
//
// When both the inbound and command sockets are ready in the same poll,
// the in-flight task is completed and its envelope pushed before the
// command is examined, so an in-flight task is never dropped on shutdown.
func (w *Worker[T, R]) Run(ctx context.Context) error {
	if err := w.setup(ctx); err != nil {
		return err
	}

	var commandCh <-chan *nats.Msg
	if w.command != nil {
		commandCh = w.command.Channel()
	}

	// With no receive timeout, poll in short slices so a canceled ctx is
	// still noticed; only a configured timeout is reported as one.
	const ctxPollInterval = 100 * time.Millisecond
	pollTimeout := w.config.ReceiveTimeout
	if pollTimeout <= 0 {
		pollTimeout = ctxPollInterval
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		data, cmd, timedOut := endpoint.Poll(pollTimeout, w.inbound.Channel(), commandCh)
		if timedOut {
			if w.config.ReceiveTimeout <= 0 {
				continue
			}
			return wire.ErrReceiverTimeout
		}

		if data != nil {
			if err := w.handle(data); err != nil {
				return err
			}
		}

		if cmd != nil {
			if wire.DecodeCommand(cmd.Data) == wire.CmdKillWorker {
				w.Printf("received kill command, terminating")
				return nil
			}
			// Unknown commands are silently ignored.
		}
	}
}

func (w *Worker[T, R]) handle(msg *nats.Msg) (err error) {
	task, decodeErr := w.taskCodec.Decode(msg.Data)
	if decodeErr != nil {
		return fmt.Errorf("worker: decoding task: %w", decodeErr)
	}

	env := w.invoke(task)

	frame, encErr := wire.EncodeEnvelope(env)
	if encErr != nil {
		return fmt.Errorf("worker: encoding result envelope: %w", encErr)
	}
	return w.outbound.Send(frame)
}

// invoke applies the callback, converting any returned error or recovered
// panic into a FAIL envelope. This is the only place a user callback's
// failure can surface; it must never escape to Run.
func (w *Worker[T, R]) invoke(task T) (env wire.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			env = wire.Fail(fmt.Errorf("panic: %v", r))
		}
	}()

	result, err := w.callback(task)
	if err != nil {
		return wire.Fail(err)
	}

	payload, err := w.resultCodec.Encode(result)
	if err != nil {
		return wire.Fail(err)
	}
	return wire.Success(payload)
}

// Close releases the worker's sockets.
func (w *Worker[T, R]) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var firstErr error
	for _, s := range []*endpoint.Socket{w.inbound, w.outbound, w.command} {
		if s == nil {
			continue
		}
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
