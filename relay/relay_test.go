package relay_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taskfabric/cluster/endpoint"
	"github.com/taskfabric/cluster/natstest"
	"github.com/taskfabric/cluster/relay"
)

func TestStreamer_ForwardsFramesUnexamined(t *testing.T) {
	conn := natstest.StartServer(t)
	frontendSubject := natstest.Subject(t, "front")
	backendSubject := natstest.Subject(t, "back")

	s := relay.NewStreamer(endpoint.Descriptor{URL: frontendSubject}, endpoint.Descriptor{URL: backendSubject}, conn)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)
	time.Sleep(50 * time.Millisecond) // let sockets materialize

	push, err := endpoint.Descriptor{URL: frontendSubject, Role: endpoint.RolePush}.Materialize(context.Background(), conn, nil)
	require.NoError(t, err)
	defer push.Close()

	pull, err := endpoint.Descriptor{URL: backendSubject, Role: endpoint.RolePull}.Materialize(context.Background(), conn, nil)
	require.NoError(t, err)
	defer pull.Close()

	require.NoError(t, push.Send([]byte("relayed")))

	select {
	case msg := <-pull.Channel():
		require.Equal(t, "relayed", string(msg.Data))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for relayed frame")
	}
}

func TestForwarder_RebroadcastsFromMatchAllFrontend(t *testing.T) {
	conn := natstest.StartServer(t)
	frontendSubject := natstest.Subject(t, "cmdfront")
	backendSubject := natstest.Subject(t, "cmdback")

	f := relay.NewForwarder(endpoint.Descriptor{URL: frontendSubject}, endpoint.Descriptor{URL: backendSubject}, conn)
	defer f.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	pub, err := endpoint.Descriptor{URL: frontendSubject, Role: endpoint.RolePub}.Materialize(context.Background(), conn, nil)
	require.NoError(t, err)
	defer pub.Close()

	sub, err := endpoint.Descriptor{URL: backendSubject, Role: endpoint.RoleSub}.Materialize(context.Background(), conn, nil)
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, pub.Send([]byte("CLUSTER_WORKER_KILL")))

	select {
	case msg := <-sub.Channel():
		require.Equal(t, "CLUSTER_WORKER_KILL", string(msg.Data))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for rebroadcast frame")
	}
}
