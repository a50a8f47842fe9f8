/*
Starts a streamer device that relays task or result frames between a bound
frontend and a bound backend, so ventilators/workers/sinks need not address
each other's subjects directly.

For usage details, run streamer with the command line flag -h or --help.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"

	"github.com/taskfabric/cluster/clog"
	"github.com/taskfabric/cluster/endpoint"
	"github.com/taskfabric/cluster/relay"
)

func main() {
	var natsURL, frontend, backend string
	var help, verbose bool

	flag.Usage = usage
	flag.StringVar(&natsURL, "n", nats.DefaultURL, "NATS broker URL")
	flag.StringVar(&frontend, "f", "cluster.tasks.in", "frontend (pull) subject")
	flag.StringVar(&backend, "b", "cluster.tasks.out", "backend (push) subject")
	flag.BoolVar(&help, "h", false, "Show usage information")
	flag.BoolVar(&verbose, "l", false, "Show logging output (for debugging)")
	flag.Parse()

	if help {
		usage()
		os.Exit(0)
	}
	if verbose {
		clog.Enable()
	}

	conn, err := nats.Connect(natsURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connecting to %s: %v\n", natsURL, err)
		os.Exit(1)
	}
	defer conn.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-sigCh
		fmt.Println("Terminating streamer on signal...")
		cancel()
	}()

	s := relay.NewStreamer(endpoint.Descriptor{URL: frontend}, endpoint.Descriptor{URL: backend}, conn)
	defer s.Close()
	if err := s.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "streamer stopped: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Printf(`usage: streamer [-h|--help] [-l] [-n natsURL] [-f frontend] [-b backend]

Relays frames from a bound pull frontend to a bound push backend.

Flags:
`)
	flag.PrintDefaults()
}
