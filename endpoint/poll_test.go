package endpoint_test

import (
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"

	"github.com/taskfabric/cluster/endpoint"
)

func TestPoll_TimesOutWithNothingReady(t *testing.T) {
	data := make(chan *nats.Msg)
	command := make(chan *nats.Msg)

	d, c, timedOut := endpoint.Poll(20*time.Millisecond, data, command)
	require.Nil(t, d)
	require.Nil(t, c)
	require.True(t, timedOut)
}

func TestPoll_DataOnlyReady(t *testing.T) {
	data := make(chan *nats.Msg, 1)
	command := make(chan *nats.Msg)
	data <- &nats.Msg{Data: []byte("task")}

	d, c, timedOut := endpoint.Poll(time.Second, data, command)
	require.False(t, timedOut)
	require.NotNil(t, d)
	require.Nil(t, c)
}

func TestPoll_BothReadyReturnsBoth(t *testing.T) {
	data := make(chan *nats.Msg, 1)
	command := make(chan *nats.Msg, 1)
	data <- &nats.Msg{Data: []byte("task")}
	command <- &nats.Msg{Data: []byte("CLUSTER_WORKER_KILL")}

	d, c, timedOut := endpoint.Poll(time.Second, data, command)
	require.False(t, timedOut)
	require.NotNil(t, d)
	require.NotNil(t, c)
}

func TestPoll_BlocksIndefinitelyWithNonPositiveTimeout(t *testing.T) {
	data := make(chan *nats.Msg, 1)
	command := make(chan *nats.Msg)

	go func() {
		time.Sleep(20 * time.Millisecond)
		data <- &nats.Msg{Data: []byte("late")}
	}()

	d, c, timedOut := endpoint.Poll(0, data, command)
	require.False(t, timedOut)
	require.NotNil(t, d)
	require.Nil(t, c)
}
