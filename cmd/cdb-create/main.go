// Command cdb-create creates a new CircularDB file.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	flag "github.com/spf13/pflag"

	"github.com/dsully/circulardb/internal/config"
	"github.com/dsully/circulardb/pkg/circulardb"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flagSet := flag.NewFlagSet("cdb-create", flag.ContinueOnError)
	flagSet.SetOutput(os.Stderr)
	flagSet.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: cdb-create [flags] <path>")
		flagSet.PrintDefaults()
	}

	name := flagSet.StringP("name", "n", "", "database name")
	desc := flagSet.String("desc", "", "database description")
	units := flagSet.String("units", "", "units, e.g. \"per sec\" (default \"absolute\")")
	typeFlag := flagSet.String("type", "gauge", "record type: gauge|counter")
	maxRecords := flagSet.Uint64("max-records", 0, "ring capacity (0 = config default)")
	interval := flagSet.Int32("interval", 0, "nominal sample interval in seconds (0 = config default)")
	minValue := flagSet.Float64("min", 0, "minimum value accepted during cooking")
	maxValue := flagSet.Float64("max", 0, "maximum value accepted during cooking")
	configPath := flagSet.String("config", "", "explicit config file path")
	verbose := flagSet.Bool("verbose", false, "enable debug logging")

	if err := flagSet.Parse(args); err != nil {
		return 2
	}

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	if flagSet.NArg() != 1 {
		flagSet.Usage()

		return 2
	}

	path := flagSet.Arg(0)

	recordType, err := parseRecordType(*typeFlag)
	if err != nil {
		log.Error("invalid record type", "type", *typeFlag, "error", err)

		return 1
	}

	workDir, err := os.Getwd()
	if err != nil {
		log.Error("could not determine working directory", "error", err)

		return 1
	}

	cfg, sources, err := config.Load(workDir, *configPath, "", false, os.Environ())
	if err != nil {
		log.Error("could not load config", "error", err)

		return 1
	}

	log.Debug("loaded config", "global", sources.Global, "project", sources.Project)

	opts := circulardb.CreateOptions{
		Name:       *name,
		Desc:       *desc,
		Units:      *units,
		Type:       recordType,
		MinValue:   *minValue,
		MaxValue:   *maxValue,
		MaxRecords: orDefault(*maxRecords, cfg.DefaultMaxRecords),
		Interval:   orDefaultInt32(*interval, cfg.DefaultInterval),
	}

	hd, err := circulardb.Create(path, opts)
	if err != nil {
		log.Error("create failed", "path", path, "error", err)

		return 1
	}

	defer hd.Free()

	log.Info("created database", "path", path, "max_records", opts.MaxRecords, "type", recordType)

	return 0
}

func parseRecordType(s string) (circulardb.RecordType, error) {
	switch s {
	case "gauge", "":
		return circulardb.TypeGauge, nil
	case "counter":
		return circulardb.TypeCounter, nil
	default:
		return 0, fmt.Errorf("unknown type %q", s)
	}
}

func orDefault(v, def uint64) uint64 {
	if v == 0 {
		return def
	}

	return v
}

func orDefaultInt32(v, def int32) int32 {
	if v == 0 {
		return def
	}

	return v
}
