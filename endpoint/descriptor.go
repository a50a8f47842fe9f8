// Package endpoint describes sockets declaratively and materializes them
// against a live NATS connection, the fabric's transport substrate.
package endpoint

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Role names the socket's transport pattern.
type Role int

const (
	RoleUndefined Role = iota
	RolePush
	RolePull
	RolePub
	RoleSub
)

func (r Role) String() string {
	switch r {
	case RolePush:
		return "PUSH"
	case RolePull:
		return "PULL"
	case RolePub:
		return "PUB"
	case RoleSub:
		return "SUB"
	default:
		return "UNDEFINED"
	}
}

// Orientation names which side of the connection this endpoint represents.
// The NATS substrate itself has no bind/connect distinction; every party
// just talks to the broker, but the field is kept for interface fidelity
// with the source fabric: relay devices mark their frontend/backend as
// Bind while ventilators, workers, and sinks leave it at Connect.
// Materialize accepts it but neither acts on it nor logs it.
type Orientation int

const (
	Connect Orientation = iota
	Bind
)

// Descriptor is a passive, reifiable specification of a socket. It is
// immutable after construction except through Materialize, which merges
// overrides without mutating the original.
type Descriptor struct {
	URL         string // required at materialization: NATS subject
	Role        Role
	Orientation Orientation
	Options     map[string]string // recognized keys: SUBSCRIBE, QUEUE
	PreDelay    time.Duration
	PostDelay   time.Duration
}

// SUBSCRIBE is the only option key the spec assigns semantics to: a
// subject-filter suffix for sub/pull sockets. Empty string means
// match-all.
const OptionSubscribe = "SUBSCRIBE"

// OptionQueue names the competing-consumer queue group a pull socket joins.
// It has no equivalent in the ZMQ-flavored source spec (PUSH/PULL sockets
// there have no named group; proximity to the same bound endpoint is the
// only thing that matters) but is required to express the same "any number
// of pull sockets share the work" semantics over NATS, where queue groups
// are named explicitly. Defaults to the subject itself.
const OptionQueue = "QUEUE"

// Overrides carries per-materialization field replacements. A nil field (or
// a nil Options map) leaves the descriptor's own value untouched; a
// non-nil Options map is merged key-by-key over the descriptor's, with the
// override's value winning on conflict.
type Overrides struct {
	URL         *string
	Role        *Role
	Orientation *Orientation
	Options     map[string]string
}

// Materialize merges overrides over the descriptor, waits any configured
// pre-delay, creates a socket of the resolved role against conn (the
// orientation has no effect, see Orientation), waits any configured
// post-delay, and returns the live socket. Failures at any
// step propagate; a socket partially created before the failure is closed.
func (d Descriptor) Materialize(ctx context.Context, conn *nats.Conn, overrides *Overrides) (*Socket, error) {
	url := d.URL
	role := d.Role
	orientation := d.Orientation
	options := mergeOptions(d.Options, nil)

	if overrides != nil {
		if overrides.URL != nil {
			url = *overrides.URL
		}
		if overrides.Role != nil {
			role = *overrides.Role
		}
		if overrides.Orientation != nil {
			orientation = *overrides.Orientation
		}
		options = mergeOptions(options, overrides.Options)
	}

	if url == "" {
		return nil, fmt.Errorf("endpoint: URL is required at materialization")
	}
	if role == RoleUndefined {
		return nil, fmt.Errorf("endpoint: role must be resolvable (on the descriptor or via overrides)")
	}

	if d.PreDelay > 0 {
		if err := sleep(ctx, d.PreDelay); err != nil {
			return nil, err
		}
	}

	_ = orientation // no bind/connect distinction on the NATS substrate; kept for interface fidelity

	sock, err := newSocket(conn, role, url, options)
	if err != nil {
		return nil, err
	}

	if d.PostDelay > 0 {
		if err := sleep(ctx, d.PostDelay); err != nil {
			sock.Close()
			return nil, err
		}
	}

	return sock, nil
}

func mergeOptions(base, overrides map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(overrides))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
