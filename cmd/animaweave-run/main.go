// Command animaweave-run is a minimal demo entry point for the execution
// kernel: it loads a graphspec YAML file, launches it, and prints the
// terminal outputs and final status. Grounded on mgmt's cli package for its
// go-arg parsing conventions (cli/cli.go, cli/run.go), scaled down to this
// kernel's single-shot launch model instead of mgmt's long-running,
// subcommand-heavy CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/sanity-io/litter"

	"github.com/animaweave/animaweave/graphspec"
	"github.com/animaweave/animaweave/launcher"
	_ "github.com/animaweave/animaweave/nodelib"
)

// Args is the top-level CLI parsing structure.
type Args struct {
	Graph          string `arg:"positional,required" help:"path to a graphspec YAML file"`
	MaxConcurrency int64  `arg:"--max-concurrency" default:"0" help:"bound the number of simultaneous node executions; 0 means unbounded"`
	Timeout        uint   `arg:"--timeout" default:"30" help:"maximum number of seconds to wait for quiescence"`
	Verbose        bool   `arg:"--verbose" help:"log each wired component's diagnostic output to stderr"`
}

func (Args) Description() string {
	return "launch a graphspec YAML graph and print its terminal outputs"
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	var args Args
	parser, err := arg.NewParser(arg.Config{Program: "animaweave-run"}, &args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := parser.Parse(argv); err != nil {
		if err == arg.ErrHelp {
			parser.WriteHelp(os.Stdout)
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	spec, err := graphspec.Load(args.Graph)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	g, initialInputs, initialControl, err := spec.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	opts := launcher.Options{
		MaxConcurrency: args.MaxConcurrency,
		InitialControl: initialControl,
	}
	if args.Verbose {
		opts.Logf = func(format string, v ...interface{}) {
			fmt.Fprintf(os.Stderr, format+"\n", v...)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(args.Timeout)*time.Second)
	defer cancel()

	res := launcher.Launch(ctx, g, initialInputs, opts)
	if res.Err != nil {
		fmt.Fprintln(os.Stderr, "launch did not reach quiescence:", res.Err)
		return 1
	}

	fmt.Println("terminal outputs:")
	fmt.Println(litter.Sdump(res.TerminalOutputs))
	fmt.Printf("status: started=%d completed=%d failed=%d conversion_failures=%d\n",
		res.Status.TotalStarted, res.Status.TotalCompleted, res.Status.TotalFailed, res.Status.TotalConversionFailures)

	return 0
}
