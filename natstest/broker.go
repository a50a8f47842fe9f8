// Package natstest starts an in-process NATS broker for tests, so the
// fabric's component tests exercise real PUSH/PULL/PUB/SUB semantics
// without depending on an external nats-server process.
package natstest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

// readyTimeout bounds how long StartServer waits for the embedded broker to
// accept connections before giving up.
const readyTimeout = 5 * time.Second

// StartServer starts an embedded, in-process NATS broker bound to an
// ephemeral port and returns a connection to it. The broker and connection
// are both torn down automatically via t.Cleanup.
func StartServer(t *testing.T) *nats.Conn {
	t.Helper()

	opts := &server.Options{
		Host:           "127.0.0.1",
		Port:           server.RANDOM_PORT,
		NoLog:          true,
		NoSigs:         true,
		MaxControlLine: 4096,
	}

	srv, err := server.NewServer(opts)
	if err != nil {
		t.Fatalf("natstest: starting embedded broker: %v", err)
	}

	go srv.Start()
	if !srv.ReadyForConnections(readyTimeout) {
		t.Fatalf("natstest: embedded broker did not become ready within %s", readyTimeout)
	}

	conn, err := nats.Connect(srv.ClientURL())
	if err != nil {
		srv.Shutdown()
		t.Fatalf("natstest: connecting to embedded broker: %v", err)
	}

	t.Cleanup(func() {
		conn.Close()
		srv.Shutdown()
		srv.WaitForShutdown()
	})

	return conn
}

// Subject returns a subject scoped to t's name, so tests run against the
// same shared embedded broker do not observe each other's traffic.
func Subject(t *testing.T, suffix string) string {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	return fmt.Sprintf("taskfabric.test.%s.%s", name, suffix)
}
