// cdb-shell is an interactive REPL for inspecting and writing a CircularDB
// file.
//
// Usage:
//
//	cdb-shell <path>              Open an existing database
//	cdb-shell new [opts] <path>   Create a new database
//	cdb-shell config init         Write the default global config file
//
// Commands (in REPL):
//
//	write <time> <value>           Append a record
//	read [start] [end]             Read records in a time range
//	last <n>                       Read the last n records
//	cooked [start] [end]           Read a cooked time range
//	discard <start> <end>          Tombstone records in a time range
//	stats                          Descriptive statistics over all records
//	info                           Show header info
//	help                           Show this help
//	exit / quit / q                Exit
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/dsully/circulardb/internal/config"
	"github.com/dsully/circulardb/pkg/circulardb"
)

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		printUsage()

		return errors.New("missing command or database path")
	}

	if os.Args[1] == "new" {
		return runNew(os.Args[2:])
	}

	if os.Args[1] == "config" {
		return runConfig(os.Args[2:])
	}

	return runOpen(os.Args[1:])
}

// runConfig handles "cdb-shell config init", which writes the built-in
// defaults out as the global user config file so a user can edit it in
// place instead of hand-writing JSON from scratch.
func runConfig(args []string) error {
	if len(args) != 1 || args[0] != "init" {
		return errors.New("usage: cdb-shell config init")
	}

	path, err := config.WriteGlobal(os.Environ(), config.Default())
	if err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("wrote %s\n", path)

	return nil
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  cdb-shell <path>              Open an existing database")
	fmt.Fprintln(os.Stderr, "  cdb-shell new [opts] <path>   Create a new database")
	fmt.Fprintln(os.Stderr, "  cdb-shell config init         Write the default global config file")
	fmt.Fprintln(os.Stderr, "\nRun 'cdb-shell new --help' for options when creating a database.")
}

func runNew(args []string) error {
	fs := flag.NewFlagSet("new", flag.ContinueOnError)

	name := fs.StringP("name", "n", "", "database name")
	units := fs.String("units", "absolute", "units, e.g. \"per sec\"")
	typeFlag := fs.String("type", "gauge", "record type: gauge|counter")
	maxRecords := fs.Uint64P("max-records", "c", 105120, "ring capacity")
	interval := fs.Int32("interval", 300, "nominal sample interval in seconds")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: cdb-shell new [options] <path>")
		fmt.Fprintln(os.Stderr, "\nOptions:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 1 {
		fs.Usage()

		return errors.New("missing database path")
	}

	path := fs.Arg(0)

	recordType := circulardb.TypeGauge
	if *typeFlag == "counter" {
		recordType = circulardb.TypeCounter
	}

	hd, err := circulardb.Create(path, circulardb.CreateOptions{
		Name:       *name,
		Units:      *units,
		Type:       recordType,
		MaxRecords: *maxRecords,
		Interval:   *interval,
	})
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}

	defer hd.Free()

	fmt.Printf("created %s (max_records=%d type=%s)\n", path, *maxRecords, recordType)

	repl := &REPL{hd: hd, path: path}

	return repl.Run()
}

func runOpen(args []string) error {
	fs := flag.NewFlagSet("open", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: cdb-shell <path>")
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 1 {
		fs.Usage()

		return errors.New("missing database path")
	}

	path := fs.Arg(0)

	hd, err := circulardb.Open(path, true)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	defer hd.Free()

	repl := &REPL{hd: hd, path: path}

	return repl.Run()
}

// REPL is the interactive command loop.
type REPL struct {
	hd    *circulardb.Handle
	path  string
	liner *liner.State
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".cdb_shell_history")
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

	info := r.hd.Info()
	fmt.Printf("cdb-shell - %s (name=%q type=%s records=%d/%d)\n", r.path, info.Name, info.Type, info.NumRecords, info.MaxRecords)
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt("cdb> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
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

		case "write", "put":
			r.cmdWrite(args)

		case "read":
			r.cmdRead(args, false)

		case "cooked":
			r.cmdRead(args, true)

		case "last":
			r.cmdLast(args)

		case "discard":
			r.cmdDiscard(args)

		case "stats":
			r.cmdStats()

		case "info":
			r.cmdInfo()

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
	commands := []string{"write", "put", "read", "cooked", "last", "discard", "stats", "info", "help", "exit", "quit", "q"}

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
	fmt.Println("  write <time> <value>    Append a record")
	fmt.Println("  read [start] [end]      Read records in a time range")
	fmt.Println("  cooked [start] [end]    Read a cooked time range")
	fmt.Println("  last <n>                Read the last n records")
	fmt.Println("  discard <start> <end>   Tombstone records in a time range")
	fmt.Println("  stats                   Descriptive statistics over all records")
	fmt.Println("  info                    Show header info")
	fmt.Println("  help                    Show this help")
	fmt.Println("  exit / quit / q         Exit")
}

func (r *REPL) cmdWrite(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: write <time> <value>")

		return
	}

	t, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Printf("Error parsing time: %v\n", err)

		return
	}

	v, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		fmt.Printf("Error parsing value: %v\n", err)

		return
	}

	if _, err := r.hd.WriteRecords([]circulardb.Record{{Time: t, Value: v}}); err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Println("OK")
}

func (r *REPL) cmdRead(args []string, cooked bool) {
	var start, end int64

	if len(args) >= 1 {
		start, _ = strconv.ParseInt(args[0], 10, 64)
	}

	if len(args) >= 2 {
		end, _ = strconv.ParseInt(args[1], 10, 64)
	}

	recs, rng, err := r.hd.ReadRecords(circulardb.Request{Start: start, End: end, Cooked: cooked})
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	r.printRecords(recs, rng)
}

func (r *REPL) cmdLast(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: last <n>")

		return
	}

	n, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || n <= 0 {
		fmt.Println("Error: n must be a positive integer")

		return
	}

	recs, rng, err := r.hd.ReadRecords(circulardb.Request{Count: -n})
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	r.printRecords(recs, rng)
}

func (r *REPL) cmdDiscard(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: discard <start> <end>")

		return
	}

	start, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Printf("Error parsing start: %v\n", err)

		return
	}

	end, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		fmt.Printf("Error parsing end: %v\n", err)

		return
	}

	n, err := r.hd.DiscardRange(start, end)
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Printf("OK: discarded %d records\n", n)
}

func (r *REPL) cmdStats() {
	recs, _, err := r.hd.ReadRecords(circulardb.Request{})
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	st := circulardb.ComputeStatistics(recs)
	fmt.Printf("count=%d mean=%v stddev=%v min=%v max=%v median=%v\n", st.Count, st.Mean, st.StdDev, st.Min, st.Max, st.Median)
}

func (r *REPL) cmdInfo() {
	info := r.hd.Info()
	fmt.Printf("name:        %s\n", info.Name)
	fmt.Printf("desc:        %s\n", info.Desc)
	fmt.Printf("units:       %s\n", info.Units)
	fmt.Printf("type:        %s\n", info.Type)
	fmt.Printf("min/max:     %v/%v\n", info.MinValue, info.MaxValue)
	fmt.Printf("max_records: %d\n", info.MaxRecords)
	fmt.Printf("num_records: %d\n", info.NumRecords)
	fmt.Printf("interval:    %ds\n", info.Interval)
}

func (r *REPL) printRecords(recs []circulardb.Record, rng circulardb.Range) {
	if len(recs) == 0 {
		fmt.Println("(empty)")

		return
	}

	for _, rec := range recs {
		fmt.Printf("%d\t%v\n", rec.Time, rec.Value)
	}

	fmt.Printf("# count=%d min=%v max=%v avg=%v\n", rng.Count, rng.Min, rng.Max, rng.Average)
}
