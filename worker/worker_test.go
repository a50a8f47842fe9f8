package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taskfabric/cluster/endpoint"
	"github.com/taskfabric/cluster/natstest"
	"github.com/taskfabric/cluster/wire"
	"github.com/taskfabric/cluster/worker"
)

func double(n int) (int, error) { return n * 2, nil }

func TestRun_ProcessesTaskAndPushesSuccessEnvelope(t *testing.T) {
	conn := natstest.StartServer(t)
	tasksSubject := natstest.Subject(t, "tasks")
	resultsSubject := natstest.Subject(t, "results")

	push, err := endpoint.Descriptor{URL: tasksSubject, Role: endpoint.RolePush}.Materialize(context.Background(), conn, nil)
	require.NoError(t, err)
	defer push.Close()

	pull, err := endpoint.Descriptor{URL: resultsSubject, Role: endpoint.RolePull}.Materialize(context.Background(), conn, nil)
	require.NoError(t, err)
	defer pull.Close()

	w := worker.New(wire.GobCodec[int](), wire.GobCodec[int](), double)
	w.WithEndpoints(
		endpoint.Descriptor{URL: tasksSubject},
		endpoint.Descriptor{URL: resultsSubject},
		nil,
		conn,
	)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- w.Run(ctx) }()

	codec := wire.GobCodec[int]()
	frame, err := codec.Encode(21)
	require.NoError(t, err)
	require.NoError(t, push.Send(frame))

	select {
	case msg := <-pull.Channel():
		env, decErr := wire.DecodeEnvelope(msg.Data)
		require.NoError(t, decErr)
		require.Equal(t, wire.StatusSuccess, env.Status)
		result, decErr := codec.Decode(env.Payload)
		require.NoError(t, decErr)
		require.Equal(t, 42, result)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for result")
	}

	cancel()
	select {
	case err := <-runErr:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Run to return after cancel")
	}
}

func TestRun_CallbackErrorProducesFailEnvelope(t *testing.T) {
	conn := natstest.StartServer(t)
	tasksSubject := natstest.Subject(t, "tasks")
	resultsSubject := natstest.Subject(t, "results")

	push, err := endpoint.Descriptor{URL: tasksSubject, Role: endpoint.RolePush}.Materialize(context.Background(), conn, nil)
	require.NoError(t, err)
	defer push.Close()

	pull, err := endpoint.Descriptor{URL: resultsSubject, Role: endpoint.RolePull}.Materialize(context.Background(), conn, nil)
	require.NoError(t, err)
	defer pull.Close()

	failing := func(int) (int, error) { return 0, errors.New("bad task") }
	w := worker.New(wire.GobCodec[int](), wire.GobCodec[int](), failing)
	w.WithEndpoints(endpoint.Descriptor{URL: tasksSubject}, endpoint.Descriptor{URL: resultsSubject}, nil, conn)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	codec := wire.GobCodec[int]()
	frame, err := codec.Encode(1)
	require.NoError(t, err)
	require.NoError(t, push.Send(frame))

	select {
	case msg := <-pull.Channel():
		env, decErr := wire.DecodeEnvelope(msg.Data)
		require.NoError(t, decErr)
		require.Equal(t, wire.StatusFail, env.Status)
		require.Equal(t, "bad task", env.ErrorDescription)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for fail envelope")
	}
}

func TestRun_CallbackPanicRecoversToFailEnvelope(t *testing.T) {
	conn := natstest.StartServer(t)
	tasksSubject := natstest.Subject(t, "tasks")
	resultsSubject := natstest.Subject(t, "results")

	push, err := endpoint.Descriptor{URL: tasksSubject, Role: endpoint.RolePush}.Materialize(context.Background(), conn, nil)
	require.NoError(t, err)
	defer push.Close()

	pull, err := endpoint.Descriptor{URL: resultsSubject, Role: endpoint.RolePull}.Materialize(context.Background(), conn, nil)
	require.NoError(t, err)
	defer pull.Close()

	panicking := func(int) (int, error) { panic("kaboom") }
	w := worker.New(wire.GobCodec[int](), wire.GobCodec[int](), panicking)
	w.WithEndpoints(endpoint.Descriptor{URL: tasksSubject}, endpoint.Descriptor{URL: resultsSubject}, nil, conn)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	codec := wire.GobCodec[int]()
	frame, err := codec.Encode(1)
	require.NoError(t, err)
	require.NoError(t, push.Send(frame))

	select {
	case msg := <-pull.Channel():
		env, decErr := wire.DecodeEnvelope(msg.Data)
		require.NoError(t, decErr)
		require.Equal(t, wire.StatusFail, env.Status)
		require.Contains(t, env.ErrorDescription, "kaboom")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for fail envelope")
	}
}

func TestRun_KillCommandTerminatesAfterInFlightTask(t *testing.T) {
	conn := natstest.StartServer(t)
	tasksSubject := natstest.Subject(t, "tasks")
	resultsSubject := natstest.Subject(t, "results")
	commandSubject := natstest.Subject(t, "command")

	push, err := endpoint.Descriptor{URL: tasksSubject, Role: endpoint.RolePush}.Materialize(context.Background(), conn, nil)
	require.NoError(t, err)
	defer push.Close()

	pull, err := endpoint.Descriptor{URL: resultsSubject, Role: endpoint.RolePull}.Materialize(context.Background(), conn, nil)
	require.NoError(t, err)
	defer pull.Close()

	cmdPub, err := endpoint.Descriptor{URL: commandSubject, Role: endpoint.RolePub}.Materialize(context.Background(), conn, nil)
	require.NoError(t, err)
	defer cmdPub.Close()

	w := worker.New(wire.GobCodec[int](), wire.GobCodec[int](), double)
	command := endpoint.Descriptor{URL: commandSubject}
	w.WithEndpoints(endpoint.Descriptor{URL: tasksSubject}, endpoint.Descriptor{URL: resultsSubject}, &command, conn)
	defer w.Close()

	runErr := make(chan error, 1)
	go func() { runErr <- w.Run(context.Background()) }()

	codec := wire.GobCodec[int]()
	frame, err := codec.Encode(5)
	require.NoError(t, err)
	require.NoError(t, push.Send(frame))

	select {
	case <-pull.Channel():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for result before kill")
	}

	time.Sleep(50 * time.Millisecond) // let the subscriber settle before publishing the kill
	require.NoError(t, cmdPub.Send(wire.EncodeCommand(wire.CmdKillWorker)))

	select {
	case err := <-runErr:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Run to return after kill")
	}
}

func TestRun_TimesOutWhenNothingArrives(t *testing.T) {
	conn := natstest.StartServer(t)
	tasksSubject := natstest.Subject(t, "tasks")
	resultsSubject := natstest.Subject(t, "results")

	w := worker.New(wire.GobCodec[int](), wire.GobCodec[int](), double, worker.WithReceiveTimeout(20*time.Millisecond))
	w.WithEndpoints(endpoint.Descriptor{URL: tasksSubject}, endpoint.Descriptor{URL: resultsSubject}, nil, conn)
	defer w.Close()

	err := w.Run(context.Background())
	require.ErrorIs(t, err, wire.ErrReceiverTimeout)
}
