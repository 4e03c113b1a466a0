// rrdsh is an interactive shell for inspecting an open round-robin file.
//
// Usage:
//
//	rrdsh <rrd-file>
//
// Commands (in REPL):
//
//	info                              Show file info
//	fetch <cf> [start] [end]          Fetch a window (defaults: end-1day..now)
//	last                              Show the most recent update time
//	ds                                List data sources
//	rra                               List archives
//	help                              Show this help
//	exit / quit / q                   Exit
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/calvinalkan/rrdgo/internal/rrdfetch"
	"github.com/calvinalkan/rrdgo/internal/rrdinfo"
	"github.com/calvinalkan/rrdgo/pkg/rrdfile"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		printUsage()
		return errors.New("missing rrd file path")
	}

	path := os.Args[1]

	f, err := rrdfile.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	repl := &REPL{file: f, path: path}

	return repl.Run()
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage:\n  rrdsh <rrd-file>\n")
}

// REPL is the interactive command loop over one open file.
type REPL struct {
	file  *rrdfile.File
	path  string
	liner *liner.State
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".rrdsh_history")
}

// Run starts the REPL loop.
func (r *REPL) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Printf("rrdsh - %s\n", r.path)
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt("rrdsh> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nBye!")

				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("Bye!")
			r.saveHistory()

			return nil

		case "help", "?":
			r.printHelp()

		case "info":
			r.cmdInfo()

		case "fetch":
			r.cmdFetch(args)

		case "last":
			r.cmdLast()

		case "ds":
			r.cmdDS()

		case "rra":
			r.cmdRRA()

		case "clear", "cls":
			fmt.Print("\033[H\033[2J")

		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	r.saveHistory()

	return nil
}

func (r *REPL) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			r.liner.WriteHistory(f)
			f.Close()
		}
	}
}

func (r *REPL) completer(line string) []string {
	commands := []string{
		"info", "fetch", "last", "ds", "rra",
		"clear", "cls", "help", "exit", "quit", "q",
	}

	var completions []string

	lower := strings.ToLower(line)
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}

	return completions
}

func (r *REPL) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  info                          Show file info")
	fmt.Println("  fetch <cf> [start] [end]      Fetch a window (defaults: end-1day..now)")
	fmt.Println("  last                          Show the most recent update time")
	fmt.Println("  ds                            List data sources")
	fmt.Println("  rra                           List archives")
	fmt.Println("  help                          Show this help")
	fmt.Println("  exit / quit / q               Exit")
}

func (r *REPL) cmdInfo() {
	entries, err := rrdinfo.Collect(r.file)
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	for _, e := range entries {
		fmt.Printf("%s = %v\n", e.Key, e.Value)
	}
}

func (r *REPL) cmdFetch(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: fetch <cf> [start] [end]")

		return
	}

	cf, ok := rrdfile.ParseCF(args[0])
	if !ok {
		fmt.Printf("Unknown cf: %s\n", args[0])

		return
	}

	opts := rrdfetch.Options{CF: cf}
	if len(args) >= 2 {
		opts.Start = args[1]
	}

	if len(args) >= 3 {
		opts.End = args[2]
	}

	res, err := rrdfetch.Fetch(r.file, opts)
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Printf("start=%d end=%d step=%d\n", res.Start, res.End, res.Step)

	t := res.Start + res.Step

	for _, row := range res.Rows {
		fmt.Printf("%10d:", t)

		for _, v := range row {
			fmt.Printf(" %14.6f", v)
		}

		fmt.Println()

		t += res.Step
	}
}

func (r *REPL) cmdLast() {
	live, err := r.file.LiveHead()
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Printf("last_update: %d\n", live.LastUp)
}

func (r *REPL) cmdDS() {
	header, err := r.file.StaticHeader()
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	for i := 0; i < int(header.DSCount); i++ {
		d, err := r.file.DSDef(i)
		if err != nil {
			fmt.Printf("Error: %v\n", err)

			return
		}

		fmt.Printf("%3d. %-20s %s\n", i, d.Name, d.Type.String())
	}
}

func (r *REPL) cmdRRA() {
	header, err := r.file.StaticHeader()
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	for i := 0; i < int(header.RRACount); i++ {
		r2, err := r.file.RRADef(i)
		if err != nil {
			fmt.Printf("Error: %v\n", err)

			return
		}

		cur, err := r.file.RRAPtr(i)
		if err != nil {
			fmt.Printf("Error: %v\n", err)

			return
		}

		fmt.Printf("%3d. %-10s pdp_per_row=%-6d rows=%-6d cur_row=%-6d\n", i, r2.CF.String(), r2.PDPCnt, r2.RowCnt, cur)
	}
}
