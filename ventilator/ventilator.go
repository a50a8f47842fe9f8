// Package ventilator implements the producer-side component that pushes
// task payloads onto a worker pool.
package ventilator

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/taskfabric/cluster/clog"
	"github.com/taskfabric/cluster/endpoint"
	"github.com/taskfabric/cluster/wire"
)

// DefaultWorkerConnectDelay is the default quiescent period a ventilator
// waits, after setup, before transmitting its first task. It defeats the
// late-joiner race where peers that have not yet completed their
// subscription are unable to receive early messages.
const DefaultWorkerConnectDelay = 1 * time.Second

// Config holds the ventilator's tunable parameters.
type Config struct {
	WorkerConnectDelay time.Duration
}

// Option configures a Ventilator at construction time.
type Option func(*Config)

// WithWorkerConnectDelay overrides the default late-joiner delay.
func WithWorkerConnectDelay(d time.Duration) Option {
	return func(c *Config) { c.WorkerConnectDelay = d }
}

// Ventilator consumes a lazy sequence of task payloads and emits them onto
// an outbound push socket. Its phases are unconfigured -> ready ->
// terminated; the unconfigured->ready transition is lazy, triggered by the
// first call to Send.
type Ventilator[T any] struct {
	*clog.CLogger

	codec  wire.Codec[T]
	config Config

	descriptor *endpoint.Descriptor
	conn       *nats.Conn

	mu          sync.Mutex
	socket      *endpoint.Socket
	readyAt     time.Time
	terminated  bool
}

// New creates a Ventilator that frames task payloads with codec.
func New[T any](codec wire.Codec[T], opts ...Option) *Ventilator[T] {
	cfg := Config{WorkerConnectDelay: DefaultWorkerConnectDelay}
	for _, opt := range opts {
		opt(&cfg)
	}
	id := uuid.NewString()
	return &Ventilator[T]{
		CLogger: clog.New("ventilator %s ", id[:8]),
		codec:   codec,
		config:  cfg,
	}
}

// WithEndpoint configures the ventilator to materialize its outbound socket
// as a push-role socket from d against conn, on first use.
func (v *Ventilator[T]) WithEndpoint(d endpoint.Descriptor, conn *nats.Conn) *Ventilator[T] {
	push := endpoint.RolePush
	d.Role = push
	v.descriptor = &d
	v.conn = conn
	return v
}

// WithSocket adopts a caller-supplied, already-live push socket instead of
// a descriptor to materialize lazily.
func (v *Ventilator[T]) WithSocket(s *endpoint.Socket) *Ventilator[T] {
	v.socket = s
	return v
}

// setup is idempotent: it materializes the outbound socket (if not already
// adopted) and records the instant at which it becomes safe to transmit.
func (v *Ventilator[T]) setup(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.terminated {
		return errTerminated
	}
	if v.socket != nil {
		if v.readyAt.IsZero() {
			v.readyAt = time.Now().Add(v.config.WorkerConnectDelay)
		}
		return nil
	}
	if v.descriptor == nil {
		return errNoEndpoint
	}

	v.Printf("starting ventilator")
	sock, err := v.descriptor.Materialize(ctx, v.conn, nil)
	if err != nil {
		return err
	}
	v.socket = sock
	v.readyAt = time.Now().Add(v.config.WorkerConnectDelay)
	v.Printf("ready, transmission unlocked at %v", v.readyAt)
	return nil
}

// Send ensures setup, waits out any remaining late-joiner delay, then
// frames and pushes every payload yielded by tasks, in order, returning the
// number sent. A transport error aborts the send immediately; payloads
// already sent are not rolled back and there is no retry.
func (v *Ventilator[T]) Send(ctx context.Context, tasks iter.Seq[T]) (int, error) {
	if err := v.setup(ctx); err != nil {
		return 0, err
	}

	v.mu.Lock()
	readyAt := v.readyAt
	socket := v.socket
	v.mu.Unlock()

	if d := time.Until(readyAt); d > 0 {
		timer := time.NewTimer(d)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return 0, ctx.Err()
		}
	}

	v.Printf("starting send")
	count := 0
	for task := range tasks {
		select {
		case <-ctx.Done():
			return count, ctx.Err()
		default:
		}

		frame, err := v.codec.Encode(task)
		if err != nil {
			return count, err
		}
		if err := socket.Send(frame); err != nil {
			return count, err
		}
		count++
	}
	v.Printf("finished sending %d tasks", count)
	return count, nil
}

// Close releases the outbound socket and marks the ventilator terminated.
// Idempotent; a terminated ventilator cannot be reused.
func (v *Ventilator[T]) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.terminated {
		return nil
	}
	v.terminated = true
	if v.socket != nil {
		return v.socket.Close()
	}
	return nil
}
