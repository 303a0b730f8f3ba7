// Command cdb-dump reads records from a CircularDB file and prints them.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	flag "github.com/spf13/pflag"

	"github.com/dsully/circulardb/pkg/circulardb"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flagSet := flag.NewFlagSet("cdb-dump", flag.ContinueOnError)
	flagSet.SetOutput(os.Stderr)
	flagSet.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: cdb-dump [flags] <path>")
		flagSet.PrintDefaults()
	}

	start := flagSet.Int64("start", 0, "start time, unix seconds (0 = unbounded)")
	end := flagSet.Int64("end", 0, "end time, unix seconds (0 = unbounded)")
	count := flagSet.Int64("count", 0, "cooked: positive keeps last N, negative keeps first N; uncooked: negative reads last N; 0: all")
	cooked := flagSet.Bool("cooked", false, "apply the cook pipeline")
	step := flagSet.Int64("step", 0, "step-average window size (requires --cooked)")
	stats := flagSet.Bool("stats", false, "print descriptive statistics instead of records")

	if err := flagSet.Parse(args); err != nil {
		return 2
	}

	if flagSet.NArg() != 1 {
		flagSet.Usage()

		return 2
	}

	path := flagSet.Arg(0)

	hd, err := circulardb.Open(path, false)
	if err != nil {
		log.Error("open failed", "path", path, "error", err)

		return 1
	}

	defer hd.Free()

	req := circulardb.Request{
		Start:  *start,
		End:    *end,
		Count:  *count,
		Cooked: *cooked,
		Step:   *step,
	}

	recs, rng, err := hd.ReadRecords(req)
	if err != nil {
		log.Error("read failed", "path", path, "error", err)

		return 1
	}

	if *stats {
		st := circulardb.ComputeStatistics(recs)
		printStatistics(st)

		return 0
	}

	for _, r := range recs {
		fmt.Printf("%s\t%v\n", time.Unix(r.Time, 0).UTC().Format(time.RFC3339), r.Value)
	}

	fmt.Printf("# count=%d min=%v max=%v avg=%v\n", rng.Count, rng.Min, rng.Max, rng.Average)

	return 0
}

func printStatistics(st circulardb.Statistics) {
	fmt.Printf("count:   %d\n", st.Count)
	fmt.Printf("mean:    %v\n", st.Mean)
	fmt.Printf("sum:     %v\n", st.Sum)
	fmt.Printf("min:     %v\n", st.Min)
	fmt.Printf("max:     %v\n", st.Max)
	fmt.Printf("stddev:  %v\n", st.StdDev)
	fmt.Printf("absdev:  %v\n", st.AbsDev)
	fmt.Printf("median:  %v\n", st.Median)
	fmt.Printf("mad:     %v\n", st.MAD)
	fmt.Printf("p25:     %v\n", st.P25)
	fmt.Printf("p50:     %v\n", st.P50)
	fmt.Printf("p75:     %v\n", st.P75)
	fmt.Printf("p95:     %v\n", st.P95)
}
