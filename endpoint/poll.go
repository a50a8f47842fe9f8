package endpoint

import (
	"time"

	"github.com/nats-io/nats.go"
)

// Poll waits up to timeout (zero or negative means block indefinitely) for
// a message to arrive on data and/or command, the channels of two Pull/Sub
// sockets being multiplexed together (a worker's inbound+command pair, or a
// sink's result+command pair).
//
// It first checks both channels non-blockingly, in data-then-command order,
// so that whenever both already have a message buffered at poll time, both
// are returned from this single call, data always populated ahead of
// command, mirroring a ZMQ poller returning a ready-set that the caller
// drains in a fixed order. Only if neither is immediately available does it
// fall back to a single timed wait across both. timedOut is true only when
// neither channel produced anything before the deadline.
func Poll(timeout time.Duration, data, command <-chan *nats.Msg) (dataMsg, commandMsg *nats.Msg, timedOut bool) {
	select {
	case dataMsg = <-data:
	default:
	}
	select {
	case commandMsg = <-command:
	default:
	}
	if dataMsg != nil || commandMsg != nil {
		return dataMsg, commandMsg, false
	}

	if timeout <= 0 {
		select {
		case dataMsg = <-data:
			return dataMsg, nil, false
		case commandMsg = <-command:
			return nil, commandMsg, false
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case dataMsg = <-data:
		return dataMsg, nil, false
	case commandMsg = <-command:
		return nil, commandMsg, false
	case <-timer.C:
		return nil, nil, true
	}
}
