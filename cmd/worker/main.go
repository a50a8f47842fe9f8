/*
Starts a specific number of worker components that pull task payloads from
the cluster, apply a computation's callback, and push result envelopes
onward.

For usage details, run worker with the command line flag -h or --help.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/nats-io/nats.go"

	"github.com/taskfabric/cluster/callbacks"
	"github.com/taskfabric/cluster/clog"
	"github.com/taskfabric/cluster/endpoint"
	"github.com/taskfabric/cluster/wire"
	"github.com/taskfabric/cluster/worker"
)

const (
	defaultWorkers = 10
	maxWorkers     = 100
)

func main() {
	var natsURL, tasksSubject, resultsSubject, commandSubject string
	var help, verbose bool

	flag.Usage = usage
	flag.StringVar(&natsURL, "n", nats.DefaultURL, "NATS broker URL")
	flag.StringVar(&tasksSubject, "t", "cluster.tasks", "subject tasks are pulled from")
	flag.StringVar(&resultsSubject, "r", "cluster.results", "subject results are pushed onto")
	flag.StringVar(&commandSubject, "c", "cluster.command", "subject the command plane is received on")
	flag.BoolVar(&help, "h", false, "Show usage information")
	flag.BoolVar(&verbose, "l", false, "Show logging output (for debugging)")
	flag.Parse()

	computation := flag.Arg(0)
	if help || computation == "" {
		usage()
		os.Exit(0)
	}
	if verbose {
		clog.Enable()
	}

	count, err := strconv.Atoi(flag.Arg(1))
	if err != nil && flag.Arg(1) == "" {
		count = defaultWorkers
	} else if err != nil || count < 1 || count > maxWorkers {
		fmt.Printf("Number of workers must be between 1 and %d\n", maxWorkers)
		return
	}

	conn, err := nats.Connect(natsURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connecting to %s: %v\n", natsURL, err)
		os.Exit(1)
	}
	defer conn.Close()

	inbound := endpoint.Descriptor{URL: tasksSubject}
	outbound := endpoint.Descriptor{URL: resultsSubject}
	command := &endpoint.Descriptor{URL: commandSubject}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-sigCh
		fmt.Println("Terminating workers on signal...")
		cancel()
	}()

	fmt.Printf("Starting %d workers for computation %s...\n", count, computation)

	completed := make(chan struct{}, count)
	for i := 0; i < count; i++ {
		go runWorker(ctx, computation, inbound, outbound, command, conn, completed)
	}
	for i := 0; i < count; i++ {
		<-completed
	}
}

func runWorker(
	ctx context.Context,
	computation string,
	inbound, outbound endpoint.Descriptor,
	command *endpoint.Descriptor,
	conn *nats.Conn,
	completed chan<- struct{},
) {
	defer func() { completed <- struct{}{} }()

	var err error
	switch computation {
	case "pi":
		w := worker.New(wire.GobCodec[callbacks.PiTask](), wire.GobCodec[callbacks.PiResult](), callbacks.PiCompute)
		w.WithEndpoints(inbound, outbound, command, conn)
		err = w.Run(ctx)
		w.Close()
	case "fac":
		w := worker.New(wire.GobCodec[callbacks.FacTask](), wire.GobCodec[callbacks.FacResult](), callbacks.FacCompute)
		w.WithEndpoints(inbound, outbound, command, conn)
		err = w.Run(ctx)
		w.Close()
	case "wf":
		w := worker.New(wire.GobCodec[callbacks.WfTask](), wire.GobCodec[callbacks.WfResult](), callbacks.WfCompute)
		w.WithEndpoints(inbound, outbound, command, conn)
		err = w.Run(ctx)
		w.Close()
	default:
		fmt.Fprintf(os.Stderr, "unknown computation %q\n", computation)
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "worker stopped: %v\n", err)
	}
}

func usage() {
	fmt.Printf(`usage: worker [-h|--help] [-l] [-n natsURL] [-t tasks] [-r results] [-c command] computation [count]

Starts the given number of worker components (default %d, maximum %d)
applying computation's callback to each pulled task.

Flags:
`, defaultWorkers, maxWorkers)
	flag.PrintDefaults()
}
