/*
Starts a forwarder device that rebroadcasts command frames from a bound
match-all sub frontend onto a bound pub backend.

For usage details, run forwarder with the command line flag -h or --help.
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
	flag.StringVar(&frontend, "f", "cluster.command.in", "frontend (sub, match-all) subject")
	flag.StringVar(&backend, "b", "cluster.command.out", "backend (pub) subject")
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
		fmt.Println("Terminating forwarder on signal...")
		cancel()
	}()

	f := relay.NewForwarder(endpoint.Descriptor{URL: frontend}, endpoint.Descriptor{URL: backend}, conn)
	defer f.Close()
	if err := f.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "forwarder stopped: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Printf(`usage: forwarder [-h|--help] [-l] [-n natsURL] [-f frontend] [-b backend]

Rebroadcasts command frames from a bound match-all sub frontend onto a
bound pub backend.

Flags:
`)
	flag.PrintDefaults()
}
