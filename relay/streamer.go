// Package relay implements the fabric's two forwarding devices: a streamer
// that shuttles task/result frames between a pull frontend and a push
// backend, and a forwarder that rebroadcasts command frames from a sub
// frontend onto a pub backend. Both are opaque byte-frame relays: they
// never decode the envelopes or commands they carry.
package relay

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/taskfabric/cluster/clog"
	"github.com/taskfabric/cluster/endpoint"
)

// Streamer binds a pull frontend and a push backend and copies every frame
// received on the frontend onto the backend, unexamined. It stands in
// between a ventilator and its workers, or between workers and a sink, when
// the two sides should not address each other's NATS subjects directly.
type Streamer struct {
	*clog.CLogger

	frontendDesc endpoint.Descriptor
	backendDesc  endpoint.Descriptor
	conn         *nats.Conn

	mu                sync.Mutex
	frontend, backend *endpoint.Socket
}

// NewStreamer creates a Streamer that binds frontend as a pull socket and
// backend as a push socket, both against conn, on the first call to Run.
func NewStreamer(frontend, backend endpoint.Descriptor, conn *nats.Conn) *Streamer {
	frontend.Role = endpoint.RolePull
	frontend.Orientation = endpoint.Bind
	backend.Role = endpoint.RolePush
	backend.Orientation = endpoint.Bind
	id := uuid.NewString()
	return &Streamer{
		CLogger:      clog.New("streamer %s ", id[:8]),
		frontendDesc: frontend,
		backendDesc:  backend,
		conn:         conn,
	}
}

func (s *Streamer) setup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frontend != nil {
		return nil
	}

	frontend, err := s.frontendDesc.Materialize(ctx, s.conn, nil)
	if err != nil {
		return err
	}
	backend, err := s.backendDesc.Materialize(ctx, s.conn, nil)
	if err != nil {
		frontend.Close()
		return err
	}
	s.frontend, s.backend = frontend, backend
	return nil
}

// Run copies frames from frontend to backend until ctx is canceled or a
// transport error occurs on either side.
func (s *Streamer) Run(ctx context.Context) error {
	if err := s.setup(ctx); err != nil {
		return err
	}
	s.Printf("relaying")

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-s.frontend.Channel():
			if err := s.backend.Send(msg.Data); err != nil {
				return err
			}
		}
	}
}

// Close releases both of the streamer's sockets.
func (s *Streamer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for _, sock := range []*endpoint.Socket{s.frontend, s.backend} {
		if sock == nil {
			continue
		}
		if err := sock.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
