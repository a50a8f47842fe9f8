/*
Starts a sink that collects result envelopes from the cluster for a given
computation, accumulates them, and prints the final outcome.

For usage details, run sink with the command line flag -h or --help.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"iter"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/taskfabric/cluster/callbacks"
	"github.com/taskfabric/cluster/clog"
	"github.com/taskfabric/cluster/endpoint"
	"github.com/taskfabric/cluster/sink"
	"github.com/taskfabric/cluster/wire"
)

func main() {
	var natsURL, resultsSubject, commandSubject string
	var help, verbose bool
	var count int
	var timeout time.Duration
	var digits uint64

	flag.Usage = usage
	flag.StringVar(&natsURL, "n", nats.DefaultURL, "NATS broker URL")
	flag.StringVar(&resultsSubject, "r", "cluster.results", "subject results are pulled from")
	flag.StringVar(&commandSubject, "c", "cluster.command", "subject the command plane is received on")
	flag.IntVar(&count, "count", 0, "expected number of results (0 means unbounded, rely on kill command)")
	flag.DurationVar(&timeout, "timeout", 0, "per-result receive timeout (0 blocks indefinitely)")
	flag.Uint64Var(&digits, "digits", 0, "decimal digits requested of the pi computation (pi only)")
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

	conn, err := nats.Connect(natsURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connecting to %s: %v\n", natsURL, err)
		os.Exit(1)
	}
	defer conn.Close()

	result := endpoint.Descriptor{URL: resultsSubject}
	command := &endpoint.Descriptor{URL: commandSubject}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-sigCh
		fmt.Println("Terminating sink on signal...")
		cancel()
	}()

	var expected *int
	if count > 0 {
		expected = &count
	}

	switch computation {
	case "pi":
		runPi(ctx, result, command, conn, expected, timeout, digits)
	case "fac":
		runFac(ctx, result, command, conn, expected, timeout)
	case "wf":
		runWf(ctx, result, command, conn, expected, timeout)
	default:
		fmt.Fprintf(os.Stderr, "unknown computation %q\n", computation)
		os.Exit(1)
	}
}

func runPi(ctx context.Context, result endpoint.Descriptor, command *endpoint.Descriptor, conn *nats.Conn, expected *int, timeout time.Duration, digits uint64) {
	if digits == 0 {
		fmt.Fprintln(os.Stderr, "pi requires -digits matching the ventilator's request")
		os.Exit(1)
	}
	_, prec, err := callbacks.PiTasks(digits)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	strict := sink.NewStrict(sink.New().WithEndpoints(result, command, conn), wire.GobCodec[callbacks.PiResult]())
	defer strict.Close()

	sum := new(big.Float).SetPrec(prec)
	for item := range strict.Receive(ctx, expected, timeout) {
		if item.Err != nil {
			fmt.Fprintf(os.Stderr, "sink stopped: %v\n", item.Err)
			return
		}
		sum.Add(sum, item.Result.Sum)
	}
	fmt.Println(callbacks.PiFinalize(sum, prec, digits))
}

func runFac(ctx context.Context, result endpoint.Descriptor, command *endpoint.Descriptor, conn *nats.Conn, expected *int, timeout time.Duration) {
	strict := sink.NewStrict(sink.New().WithEndpoints(result, command, conn), wire.GobCodec[callbacks.FacResult]())
	defer strict.Close()

	product := callbacks.FacAccumulate(strictResults(ctx, strict, expected, timeout))
	fmt.Printf("fac computation complete: %v\n", product)
}

func runWf(ctx context.Context, result endpoint.Descriptor, command *endpoint.Descriptor, conn *nats.Conn, expected *int, timeout time.Duration) {
	strict := sink.NewStrict(sink.New().WithEndpoints(result, command, conn), wire.GobCodec[callbacks.WfResult]())
	defer strict.Close()

	freq := callbacks.WfAccumulate(strictResults(ctx, strict, expected, timeout))
	callbacks.WfReport(freq, os.Stdout)
}

// strictResults adapts a StrictSink's channel into an iter.Seq, stopping
// (and reporting) at the first error so the accumulator never sees a
// zero-valued result from a failed task.
func strictResults[R any](ctx context.Context, s *sink.StrictSink[R], expected *int, timeout time.Duration) iter.Seq[R] {
	return func(yield func(R) bool) {
		for item := range s.Receive(ctx, expected, timeout) {
			if item.Err != nil {
				fmt.Fprintf(os.Stderr, "sink stopped: %v\n", item.Err)
				return
			}
			if !yield(item.Result) {
				return
			}
		}
	}
}

func usage() {
	fmt.Printf(`usage: sink [-h|--help] [-l] [-n natsURL] [-r results] [-c command] [-count n] [-timeout d] computation

Collects and accumulates result envelopes for a computation.

Flags:
`)
	flag.PrintDefaults()
}
