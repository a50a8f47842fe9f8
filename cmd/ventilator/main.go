/*
Starts a ventilator that sends a computation's task payloads onto the
cluster for workers to pick up.

For usage details, run ventilator with the command line flag -h or --help.
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

	"github.com/taskfabric/cluster/callbacks"
	"github.com/taskfabric/cluster/clog"
	"github.com/taskfabric/cluster/endpoint"
	"github.com/taskfabric/cluster/ventilator"
	"github.com/taskfabric/cluster/wire"
)

func main() {
	var natsURL, tasksSubject string
	var help, verbose bool

	flag.Usage = usage
	flag.StringVar(&natsURL, "n", nats.DefaultURL, "NATS broker URL")
	flag.StringVar(&tasksSubject, "t", "cluster.tasks", "subject tasks are pushed onto")
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

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-sigCh
		fmt.Println("Terminating ventilator on signal...")
		cancel()
	}()

	conn, err := nats.Connect(natsURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connecting to %s: %v\n", natsURL, err)
		os.Exit(1)
	}
	defer conn.Close()

	desc := endpoint.Descriptor{URL: tasksSubject}
	args := flag.Args()[1:]

	var count int
	switch computation {
	case "pi":
		digits, parseErr := parseUint(args, "pi requires one positive integer argument")
		if parseErr != nil {
			fmt.Fprintln(os.Stderr, parseErr)
			os.Exit(1)
		}
		tasks, _, pErr := callbacks.PiTasks(digits)
		if pErr != nil {
			fmt.Fprintln(os.Stderr, pErr)
			os.Exit(1)
		}
		v := ventilator.New(wire.GobCodec[callbacks.PiTask]())
		v.WithEndpoint(desc, conn)
		count, err = v.Send(ctx, tasks)
		v.Close()

	case "fac":
		n, parseErr := parseUint(args, "fac requires one positive integer argument")
		if parseErr != nil {
			fmt.Fprintln(os.Stderr, parseErr)
			os.Exit(1)
		}
		v := ventilator.New(wire.GobCodec[callbacks.FacTask]())
		v.WithEndpoint(desc, conn)
		count, err = v.Send(ctx, callbacks.FacTasks(n))
		v.Close()

	case "wf":
		tasks, tErr := callbacks.WfTasks(args, os.Stdout)
		if tErr != nil {
			fmt.Fprintln(os.Stderr, tErr)
			os.Exit(1)
		}
		v := ventilator.New(wire.GobCodec[callbacks.WfTask]())
		v.WithEndpoint(desc, conn)
		count, err = v.Send(ctx, tasks)
		v.Close()

	default:
		fmt.Fprintf(os.Stderr, "unknown computation %q\n", computation)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "sending tasks: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Sent %d tasks for computation %s\n", count, computation)
}

func parseUint(args []string, msg string) (uint64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%s", msg)
	}
	var n uint64
	if _, err := fmt.Sscanf(args[0], "%d", &n); err != nil || n == 0 {
		return 0, fmt.Errorf("%s", msg)
	}
	return n, nil
}

func usage() {
	fmt.Printf(`usage: ventilator [-h|--help] [-l] [-n natsURL] [-t subject] computation [arguments...]

Sends a computation's task payloads onto the cluster.

Predefined computations: pi digits, fac n, wf globs...

Flags:
`)
	flag.PrintDefaults()
}
