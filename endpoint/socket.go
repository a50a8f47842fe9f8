package endpoint

import (
	"fmt"

	"github.com/nats-io/nats.go"
)

// chanSubCapacity bounds how many not-yet-received messages a Pull or Sub
// socket buffers before NATS starts dropping slow-consumer deliveries.
const chanSubCapacity = 256

// Socket is a live, materialized endpoint. Push and Pub sockets only ever
// send; Pull and Sub sockets deliver onto a channel so a single poller can
// multiplex a data socket against a command socket (see Poll).
type Socket struct {
	role    Role
	subject string
	options map[string]string
	conn    *nats.Conn
	sub     *nats.Subscription
	ch      chan *nats.Msg
}

func newSocket(conn *nats.Conn, role Role, subject string, options map[string]string) (*Socket, error) {
	s := &Socket{role: role, subject: subject, options: options, conn: conn}

	switch role {
	case RolePush, RolePub:
		// Send-only: no subscription to establish.
		return s, nil

	case RolePull:
		effSubject := effectiveSubject(subject, options)
		queue := options[OptionQueue]
		if queue == "" {
			queue = subject
		}
		ch := make(chan *nats.Msg, chanSubCapacity)
		sub, err := conn.ChanQueueSubscribe(effSubject, queue, ch)
		if err != nil {
			return nil, fmt.Errorf("endpoint: materializing PULL socket on %q: %w", subject, err)
		}
		s.sub, s.ch = sub, ch
		return s, nil

	case RoleSub:
		effSubject := effectiveSubject(subject, options)
		ch := make(chan *nats.Msg, chanSubCapacity)
		sub, err := conn.ChanSubscribe(effSubject, ch)
		if err != nil {
			return nil, fmt.Errorf("endpoint: materializing SUB socket on %q: %w", subject, err)
		}
		s.sub, s.ch = sub, ch
		return s, nil

	default:
		return nil, fmt.Errorf("endpoint: unresolvable role %v", role)
	}
}

// effectiveSubject applies the SUBSCRIBE option as a subject-filter suffix.
// An absent SUBSCRIBE option subscribes to the base subject unfiltered; an
// empty-string SUBSCRIBE option is the spec's explicit "match-all" and also
// subscribes to the base subject; any other value narrows to a sub-subject.
func effectiveSubject(subject string, options map[string]string) string {
	filter, ok := options[OptionSubscribe]
	if !ok || filter == "" {
		return subject
	}
	return subject + "." + filter
}

// SubscribeFilter returns the effective SUBSCRIBE option value that was (or
// would be) applied to this socket's subject, for introspection in tests of
// the option-merge invariant.
func (s *Socket) SubscribeFilter() string {
	return s.options[OptionSubscribe]
}

// Options returns the fully-merged option set this socket was materialized
// with.
func (s *Socket) Options() map[string]string {
	out := make(map[string]string, len(s.options))
	for k, v := range s.options {
		out[k] = v
	}
	return out
}

// Role reports the socket's resolved role.
func (s *Socket) Role() Role { return s.role }

// Send frames and publishes one message. Valid for Push and Pub sockets.
func (s *Socket) Send(frame []byte) error {
	switch s.role {
	case RolePush, RolePub:
		return s.conn.Publish(s.subject, frame)
	default:
		return fmt.Errorf("endpoint: Send is not valid on a %v socket", s.role)
	}
}

// Channel exposes the delivery channel for Pull and Sub sockets, for use by
// Poll. It is nil for Push and Pub sockets.
func (s *Socket) Channel() <-chan *nats.Msg {
	return s.ch
}

// Close releases the socket. Safe to call on a partially-created or
// send-only socket.
func (s *Socket) Close() error {
	if s.sub != nil {
		return s.sub.Unsubscribe()
	}
	return nil
}
