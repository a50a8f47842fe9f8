package wire

// Command is a typed discriminator drawn from a closed, forward-compatible
// set. Unknown commands (any string outside the set below) are silently
// ignored by sinks and workers. The literal values are part of the wire
// contract and must stay bit-exact for interop with any other realization
// of this fabric.
type Command string

const (
	// CmdKillSink tells a sink's Receive loop to terminate its sequence.
	CmdKillSink Command = "CLUSTER_SINK_KILL"
	// CmdKillWorker tells a worker's Run loop to terminate after finishing
	// any in-flight task.
	CmdKillWorker Command = "CLUSTER_WORKER_KILL"
)

// EncodeCommand frames a Command as its raw string bytes.
func EncodeCommand(c Command) []byte {
	return []byte(c)
}

// DecodeCommand unframes a Command from raw bytes. Any value is returned
// verbatim; recognizing and discarding unknown commands is the caller's
// responsibility, per the forward-compatibility contract.
func DecodeCommand(b []byte) Command {
	return Command(b)
}
