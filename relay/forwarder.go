package relay

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/taskfabric/cluster/clog"
	"github.com/taskfabric/cluster/endpoint"
)

// Forwarder binds a sub frontend (match-all) and a pub backend and
// rebroadcasts every command frame it observes. It lets a single
// well-known command subject fan out to frontends bound on a different
// subject than the one publishers address, the same role a ZMQ XSUB/XPUB
// proxy plays for the fabric's command plane.
type Forwarder struct {
	*clog.CLogger

	frontendDesc endpoint.Descriptor
	backendDesc  endpoint.Descriptor
	conn         *nats.Conn

	mu                sync.Mutex
	frontend, backend *endpoint.Socket
}

// NewForwarder creates a Forwarder that binds frontend as a match-all sub
// socket and backend as a pub socket, both against conn, on the first call
// to Run.
func NewForwarder(frontend, backend endpoint.Descriptor, conn *nats.Conn) *Forwarder {
	frontend.Role = endpoint.RoleSub
	frontend.Orientation = endpoint.Bind
	if frontend.Options == nil {
		frontend.Options = map[string]string{}
	}
	frontend.Options[endpoint.OptionSubscribe] = ""
	backend.Role = endpoint.RolePub
	backend.Orientation = endpoint.Bind
	id := uuid.NewString()
	return &Forwarder{
		CLogger:      clog.New("forwarder %s ", id[:8]),
		frontendDesc: frontend,
		backendDesc:  backend,
		conn:         conn,
	}
}

func (f *Forwarder) setup(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.frontend != nil {
		return nil
	}

	frontend, err := f.frontendDesc.Materialize(ctx, f.conn, nil)
	if err != nil {
		return err
	}
	backend, err := f.backendDesc.Materialize(ctx, f.conn, nil)
	if err != nil {
		frontend.Close()
		return err
	}
	f.frontend, f.backend = frontend, backend
	return nil
}

// Run rebroadcasts every frame observed on the frontend onto the backend
// until ctx is canceled or a transport error occurs on either side.
func (f *Forwarder) Run(ctx context.Context) error {
	if err := f.setup(ctx); err != nil {
		return err
	}
	f.Printf("forwarding")

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-f.frontend.Channel():
			if err := f.backend.Send(msg.Data); err != nil {
				return err
			}
		}
	}
}

// Close releases both of the forwarder's sockets.
func (f *Forwarder) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var firstErr error
	for _, sock := range []*endpoint.Socket{f.frontend, f.backend} {
		if sock == nil {
			continue
		}
		if err := sock.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
