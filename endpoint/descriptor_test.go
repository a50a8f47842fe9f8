package endpoint_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taskfabric/cluster/endpoint"
	"github.com/taskfabric/cluster/natstest"
)

func TestMaterialize_PushPullRoundTrip(t *testing.T) {
	conn := natstest.StartServer(t)
	subject := natstest.Subject(t, "tasks")

	push, err := endpoint.Descriptor{URL: subject, Role: endpoint.RolePush}.Materialize(context.Background(), conn, nil)
	require.NoError(t, err)
	defer push.Close()

	pull, err := endpoint.Descriptor{URL: subject, Role: endpoint.RolePull}.Materialize(context.Background(), conn, nil)
	require.NoError(t, err)
	defer pull.Close()

	require.NoError(t, push.Send([]byte("hello")))

	select {
	case msg := <-pull.Channel():
		require.Equal(t, "hello", string(msg.Data))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestMaterialize_RequiresURLAndRole(t *testing.T) {
	conn := natstest.StartServer(t)

	_, err := endpoint.Descriptor{Role: endpoint.RolePush}.Materialize(context.Background(), conn, nil)
	require.Error(t, err)

	_, err = endpoint.Descriptor{URL: "subject"}.Materialize(context.Background(), conn, nil)
	require.Error(t, err)
}

func TestMaterialize_OverridesWinOnConflict(t *testing.T) {
	conn := natstest.StartServer(t)
	subject := natstest.Subject(t, "override")

	d := endpoint.Descriptor{
		URL:     subject,
		Role:    endpoint.RoleSub,
		Options: map[string]string{endpoint.OptionSubscribe: "base"},
	}

	overrideFilter := "override"
	sock, err := d.Materialize(context.Background(), conn, &endpoint.Overrides{
		Options: map[string]string{endpoint.OptionSubscribe: overrideFilter},
	})
	require.NoError(t, err)
	defer sock.Close()

	require.Equal(t, overrideFilter, sock.SubscribeFilter())
}

func TestMaterialize_EmptySubscribeIsMatchAll(t *testing.T) {
	conn := natstest.StartServer(t)
	subject := natstest.Subject(t, "matchall")

	sub, err := endpoint.Descriptor{
		URL:     subject,
		Role:    endpoint.RoleSub,
		Options: map[string]string{endpoint.OptionSubscribe: ""},
	}.Materialize(context.Background(), conn, nil)
	require.NoError(t, err)
	defer sub.Close()

	pub, err := endpoint.Descriptor{URL: subject, Role: endpoint.RolePub}.Materialize(context.Background(), conn, nil)
	require.NoError(t, err)
	defer pub.Close()

	require.NoError(t, pub.Send([]byte("broadcast")))

	select {
	case msg := <-sub.Channel():
		require.Equal(t, "broadcast", string(msg.Data))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for broadcast")
	}
}

func TestMaterialize_PreAndPostDelay(t *testing.T) {
	conn := natstest.StartServer(t)
	subject := natstest.Subject(t, "delayed")

	start := time.Now()
	sock, err := endpoint.Descriptor{
		URL:       subject,
		Role:      endpoint.RolePush,
		PreDelay:  20 * time.Millisecond,
		PostDelay: 20 * time.Millisecond,
	}.Materialize(context.Background(), conn, nil)
	require.NoError(t, err)
	defer sock.Close()

	require.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}
