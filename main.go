package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/avamsi/ergo/assert"
	"github.com/pkg/profile"

	"github.com/avamsi/partagg/internal/chunk"
	"github.com/avamsi/partagg/internal/engine"
	"github.com/avamsi/partagg/internal/report"
	"github.com/avamsi/partagg/internal/table"
)

type options struct {
	cfg    engine.Config
	open   func(path string) (chunk.Source, error)
	format report.Format
}

func defaultOptions() options {
	return options{cfg: engine.DefaultConfig(), open: chunk.Open}
}

func processFile(path string, w io.Writer, o options) error {
	src, err := o.open(path)
	if err != nil {
		return err
	}
	defer func() { assert.Nil(src.Close()) }()

	res, err := engine.Run(src, o.cfg)
	if err != nil {
		return err
	}
	if log := o.cfg.Logger; log != nil {
		log.Info("aggregated",
			"bytes", res.Size, "chunks", res.Chunks, "records", res.Records,
			"keys", res.Keys(), "malformed", res.Malformed(), "elapsed", res.Elapsed)
	}
	x, err := report.Build(res.All(), res.Keys())
	if err != nil {
		return err
	}
	return report.Write(w, x, o.format)
}

func profileMode(name string) (func(*profile.Profile), error) {
	switch name {
	case "cpu":
		return profile.CPUProfile, nil
	case "mem":
		return profile.MemProfileAllocs, nil
	case "trace":
		return profile.TraceProfile, nil
	}
	return nil, fmt.Errorf("unknown profile %q (want cpu, mem or trace)", name)
}

func run() error {
	var (
		o       = defaultOptions()
		hash    = flag.String("hash", "murmur3", "bucket hash: murmur3 or xxh3")
		source  = flag.String("source", "mmap", "input mapping: mmap (per chunk) or readerat (whole file)")
		prof    = flag.String("profile", "", "write a cpu, mem or trace profile to debug/")
		long    = flag.Bool("long", false, "print counts and two decimals")
		verbose = flag.Bool("v", false, "log at debug level")
	)
	flag.IntVar(&o.cfg.Readers, "readers", o.cfg.Readers, "reader goroutines")
	flag.IntVar(&o.cfg.WorkersPerPartition, "workers", o.cfg.WorkersPerPartition, "aggregator goroutines per partition")
	flag.Int64Var(&o.cfg.ChunkSize, "chunk", o.cfg.ChunkSize, "bytes mapped per chunk")
	flag.IntVar(&o.cfg.TableSize, "table", o.cfg.TableSize, "buckets per partition table")
	flag.IntVar(&o.cfg.BatchSize, "batch", o.cfg.BatchSize, "records per queue entry")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	o.cfg.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var err error
	if o.cfg.Hash, err = table.HashByName(*hash); err != nil {
		return err
	}
	switch *source {
	case "mmap":
		o.open = chunk.Open
	case "readerat":
		o.open = chunk.OpenReaderAt
	default:
		return fmt.Errorf("unknown source %q (want mmap or readerat)", *source)
	}
	if *long {
		o.format = report.Verbose
	}
	if *prof != "" {
		mode, err := profileMode(*prof)
		if err != nil {
			return err
		}
		defer profile.Start(mode, profile.ProfilePath("debug"), profile.Quiet).Stop()
	}

	path := "measurements.txt"
	if flag.NArg() > 0 {
		path = flag.Arg(0)
	}
	return processFile(path, os.Stdout, o)
}

func main() {
	if err := run(); err != nil {
		slog.Error("partagg failed", "err", err)
		os.Exit(1)
	}
}
