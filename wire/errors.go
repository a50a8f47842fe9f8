package wire

import "errors"

// ErrReceiverTimeout is surfaced to the caller of a worker's Run loop or a
// sink's Receive sequence when a poll elapses with nothing ready. It does
// not terminate the component: a worker's Run returns it and may be called
// again, and a fresh call to a sink's Receive is still valid afterwards.
var ErrReceiverTimeout = errors.New("taskfabric: receiver timeout")

// WorkerFailureError is raised by a strict sink on the first FAIL envelope
// it unwraps. It carries the serialized error-description from the worker
// that produced the failure and terminates the strict sink's sequence.
type WorkerFailureError struct {
	Description string
}

func (e *WorkerFailureError) Error() string {
	return "taskfabric: worker failure: " + e.Description
}
