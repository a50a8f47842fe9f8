package sink

import (
	"context"
	"time"

	"github.com/taskfabric/cluster/wire"
)

// StrictItem is one element of a StrictSink's decoded, fail-fast sequence.
type StrictItem[R any] struct {
	Result R
	Err    error
}

// StrictSink decorates a BasicSink, decoding each envelope's payload with
// codec and turning the first FAIL envelope into a terminal
// WorkerFailureError: the sequence ends at the first failure instead of
// silently skipping it, trading the basic sink's raw-envelope exposure for
// an all-or-nothing contract.
type StrictSink[R any] struct {
	basic *BasicSink
	codec wire.Codec[R]
}

// NewStrict wraps basic with codec, decoding successful envelopes into R.
func NewStrict[R any](basic *BasicSink, codec wire.Codec[R]) *StrictSink[R] {
	return &StrictSink[R]{basic: basic, codec: codec}
}

// Receive mirrors BasicSink.Receive, but unwraps each envelope: a SUCCESS
// envelope decodes to a StrictItem carrying Result, and a FAIL envelope (or
// a decode error) closes the channel immediately after emitting one
// StrictItem carrying Err; no further items follow a failure.
func (s *StrictSink[R]) Receive(ctx context.Context, expectedCount *int, timeout time.Duration) <-chan StrictItem[R] {
	out := make(chan StrictItem[R])
	in := s.basic.Receive(ctx, expectedCount, timeout)

	go func() {
		defer close(out)
		for item := range in {
			if item.Err != nil {
				out <- StrictItem[R]{Err: item.Err}
				return
			}

			switch item.Envelope.Status {
			case wire.StatusFail:
				out <- StrictItem[R]{Err: &wire.WorkerFailureError{Description: item.Envelope.ErrorDescription}}
				return
			case wire.StatusSuccess:
				result, err := s.codec.Decode(item.Envelope.Payload)
				if err != nil {
					out <- StrictItem[R]{Err: err}
					return
				}
				select {
				case out <- StrictItem[R]{Result: result}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

// Close releases the underlying BasicSink's sockets.
func (s *StrictSink[R]) Close() error {
	return s.basic.Close()
}
