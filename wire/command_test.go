package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommand_WireContract(t *testing.T) {
	require.Equal(t, Command("CLUSTER_SINK_KILL"), CmdKillSink)
	require.Equal(t, Command("CLUSTER_WORKER_KILL"), CmdKillWorker)
}

func TestEncodeDecodeCommand_RoundTrips(t *testing.T) {
	require.Equal(t, CmdKillSink, DecodeCommand(EncodeCommand(CmdKillSink)))
	require.Equal(t, CmdKillWorker, DecodeCommand(EncodeCommand(CmdKillWorker)))
}

func TestDecodeCommand_UnknownIsNotRecognized(t *testing.T) {
	cmd := DecodeCommand([]byte("BOGUS"))
	require.NotEqual(t, CmdKillSink, cmd)
	require.NotEqual(t, CmdKillWorker, cmd)
}
