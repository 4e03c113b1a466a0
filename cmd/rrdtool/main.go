// rrdtool is a command-line front end over the rrdgo engine.
//
// Usage:
//
//	rrdtool create <file> [--step N] [--start T] [--schema path] DS:... RRA:...
//	rrdtool update <file> [--template name[:name...]] <time>:<v>[:<v>...] [...]
//	rrdtool fetch <file> <CF> [--start T] [--end T] [--resolution step]
//	rrdtool info <file>
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/calvinalkan/rrdgo/internal/rrdcreate"
	"github.com/calvinalkan/rrdgo/internal/rrdfetch"
	"github.com/calvinalkan/rrdgo/internal/rrdinfo"
	"github.com/calvinalkan/rrdgo/internal/rrdupdate"
	"github.com/calvinalkan/rrdgo/pkg/rrdfile"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "rrdtool: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 1 {
		printUsage()
		return errors.New("missing command")
	}

	cmd, rest := args[0], args[1:]

	switch cmd {
	case "create":
		return runCreate(rest)
	case "update":
		return runUpdate(rest)
	case "fetch":
		return runFetch(rest)
	case "info":
		return runInfo(rest)
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  rrdtool create <file> [--step N] [--start T] [--schema path] DS:... RRA:...")
	fmt.Fprintln(os.Stderr, "  rrdtool update <file> [--template name[:name...]] <time>:<v>[:<v>...] [...]")
	fmt.Fprintln(os.Stderr, "  rrdtool fetch <file> <CF> [--start T] [--end T] [--resolution step]")
	fmt.Fprintln(os.Stderr, "  rrdtool info <file>")
}

func runCreate(args []string) error {
	fs := pflag.NewFlagSet("create", pflag.ContinueOnError)

	step := fs.Uint64("step", 300, "pdp_step in seconds")
	start := fs.Int64("start", 0, "last_up at creation, as an integer epoch second (time keywords such as N are not accepted)")
	schema := fs.String("schema", "", "path to a JSONC schema file (see internal/rrdcreate.LoadSchemaFile); if set, positional DS:/RRA: tokens are ignored")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: rrdtool create <file> [--step N] [--start T] [--schema path] DS:... RRA:...")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 1 {
		fs.Usage()
		return errors.New("missing file path")
	}

	path := fs.Arg(0)

	var opts rrdcreate.Options

	if *schema != "" {
		var err error

		opts, err = rrdcreate.LoadSchemaFile(*schema)
		if err != nil {
			return err
		}
	} else {
		opts = rrdcreate.Options{Step: *step, Start: *start, Specs: fs.Args()[1:]}
	}

	f, err := rrdcreate.Create(path, opts)
	if err != nil {
		return err
	}

	return f.Close()
}

func runUpdate(args []string) error {
	fs := pflag.NewFlagSet("update", pflag.ContinueOnError)

	template := fs.StringSlice("template", nil, "colon-separated (commas also accepted) list of ds names fixing the argument field order")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: rrdtool update <file> [--template name[:name...]] <time>:<v>[:<v>...] [...]")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 2 {
		fs.Usage()
		return errors.New("missing file path or update arguments")
	}

	path := fs.Arg(0)

	f, err := rrdfile.OpenWriter(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var names []string
	for _, t := range *template {
		names = append(names, strings.Split(t, ":")...)
	}

	out, err := rrdupdate.Update(f, rrdupdate.Options{
		Template: names,
		Args:     fs.Args()[1:],
	})
	if err != nil {
		return err
	}

	if out.Skipped > 0 {
		fmt.Fprintf(os.Stderr, "rrdtool: %d argument(s) skipped (non-monotonic time)\n", out.Skipped)
	}

	return nil
}

func runFetch(args []string) error {
	fs := pflag.NewFlagSet("fetch", pflag.ContinueOnError)

	start := fs.String("start", "", `query window start (at-style spec); defaults to "end-1day"`)
	end := fs.String("end", "", `query window end (at-style spec); defaults to "now"`)
	resolution := fs.Int64("resolution", 0, "requested step in seconds; 0 lets archive selection choose")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: rrdtool fetch <file> <CF> [--start T] [--end T] [--resolution step]")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 2 {
		fs.Usage()
		return errors.New("missing file path or cf")
	}

	path := fs.Arg(0)

	cf, ok := rrdfile.ParseCF(fs.Arg(1))
	if !ok {
		return fmt.Errorf("unknown cf %q", fs.Arg(1))
	}

	f, err := rrdfile.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := rrdfetch.Fetch(f, rrdfetch.Options{
		CF:         cf,
		Start:      *start,
		End:        *end,
		Resolution: *resolution,
	})
	if err != nil {
		return err
	}

	printFetchResult(res)

	return nil
}

func printFetchResult(res rrdfetch.Result) {
	fmt.Printf("%8s", "")

	for _, name := range res.DSNames {
		fmt.Printf(" %18s", name)
	}

	fmt.Println()

	t := res.Start + res.Step

	for _, row := range res.Rows {
		fmt.Printf("%8d:", t)

		for _, v := range row {
			fmt.Printf(" %18.10e", v)
		}

		fmt.Println()

		t += res.Step
	}
}

func runInfo(args []string) error {
	fs := pflag.NewFlagSet("info", pflag.ContinueOnError)

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: rrdtool info <file>")
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 1 {
		fs.Usage()
		return errors.New("missing file path")
	}

	f, err := rrdfile.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()

	entries, err := rrdinfo.Collect(f)
	if err != nil {
		return err
	}

	for _, e := range entries {
		switch v := e.Value.(type) {
		case string:
			fmt.Printf("%s = %q\n", e.Key, v)
		case float64:
			fmt.Printf("%s = %0.10e\n", e.Key, v)
		default:
			fmt.Printf("%s = %v\n", e.Key, v)
		}
	}

	return nil
}
