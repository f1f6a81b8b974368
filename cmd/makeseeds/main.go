package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/projectdiscovery/goflags"
	"github.com/rs/zerolog"

	"github.com/cintamani/seedgen/internal/asn"
	"github.com/cintamani/seedgen/internal/config"
	"github.com/cintamani/seedgen/internal/logger"
	"github.com/cintamani/seedgen/internal/models"
	"github.com/cintamani/seedgen/internal/report"
	"github.com/cintamani/seedgen/internal/seeds"
)

// Options holds the command line options
type Options struct {
	Input      string
	ConfigPath string
	Output     string
	Format     string
	ChartPath  string

	MaxSeeds  int
	MaxPerASN int
	MinBlocks int
	Network   string
	Resolver  string
	MMDBPath  string
	Workers   int
	Timeout   time.Duration
	Verbose   bool
	Silent    bool
}

func parseOptions() *Options {
	options := &Options{}

	flagSet := goflags.NewFlagSet()
	flagSet.SetDescription(`makeseeds builds a diverse seed list from a crawler report`)

	flagSet.CreateGroup("input", "Input",
		flagSet.StringVarP(&options.Input, "input", "i", "-", "crawler report to read (- for stdin, .gz and .zst are decompressed)"),
		flagSet.StringVarP(&options.ConfigPath, "config", "c", "seedgen.json", "configuration file (json or yaml)"),
	)

	flagSet.CreateGroup("output", "Output",
		flagSet.StringVarP(&options.Output, "output", "o", "", "file to write the seed list to (default stdout)"),
		flagSet.StringVarP(&options.Format, "format", "f", report.FormatList, "output format (list, chainparams, json)"),
		flagSet.StringVar(&options.ChartPath, "chart", "", "write a PNG chart of seeds per ASN to this file"),
	)

	flagSet.CreateGroup("selection", "Selection",
		flagSet.IntVarP(&options.MaxSeeds, "max-seeds", "n", 0, "maximum number of seeds (overrides config)"),
		flagSet.IntVarP(&options.MaxPerASN, "max-per-asn", "k", 0, "maximum seeds per ASN (overrides config)"),
		flagSet.IntVar(&options.MinBlocks, "min-blocks", 0, "minimum block height (overrides config)"),
		flagSet.StringVar(&options.Network, "network", "", "network profile: main, test or regtest (overrides config)"),
	)

	flagSet.CreateGroup("resolver", "ASN Resolver",
		flagSet.StringVarP(&options.Resolver, "resolver", "r", "", "ASN resolver: cymru, maxmind or ripestat (overrides config)"),
		flagSet.StringVar(&options.MMDBPath, "mmdb", "", "GeoLite2-ASN database for the maxmind resolver"),
		flagSet.IntVarP(&options.Workers, "workers", "w", 0, "concurrent ASN lookups (overrides config)"),
		flagSet.DurationVarP(&options.Timeout, "timeout", "t", 0, "per-lookup timeout (overrides config)"),
	)

	flagSet.CreateGroup("debug", "Debug",
		flagSet.BoolVarP(&options.Verbose, "verbose", "v", false, "show debug logs"),
		flagSet.BoolVar(&options.Silent, "silent", false, "only log errors"),
	)

	if err := flagSet.Parse(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(2)
	}

	return options
}

// applyOverrides copies the flags that were set over the loaded config
func (o *Options) applyOverrides(cfg *config.Config) {
	if o.MaxSeeds > 0 {
		cfg.MaxSeeds = o.MaxSeeds
	}
	if o.MaxPerASN > 0 {
		cfg.MaxSeedsPerASN = o.MaxPerASN
	}
	if o.MinBlocks > 0 {
		cfg.MinBlocks = int64(o.MinBlocks)
	}
	if o.Network != "" {
		cfg.Network = o.Network
	}
	if o.Resolver != "" {
		cfg.Resolver.Kind = o.Resolver
	}
	if o.MMDBPath != "" {
		cfg.Resolver.MMDBPath = o.MMDBPath
	}
	if o.Workers > 0 {
		cfg.Resolver.Workers = o.Workers
	}
	if o.Timeout > 0 {
		cfg.Resolver.Timeout = o.Timeout
	}
}

func newLogger(o *Options) (logger.Logger, error) {
	logCfg := logger.DefaultConfig()
	switch {
	case o.Verbose:
		logCfg.Debug = true
	case o.Silent:
		logCfg.Level = zerolog.LevelErrorValue
	}
	return logger.New(logCfg)
}

func main() {
	options := parseOptions()

	log, err := newLogger(options)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, options, log); err != nil {
		log.Error().Err(err).Msg("makeseeds failed")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, options *Options, log logger.Logger) error {
	if !slices.Contains(report.Formats, options.Format) {
		return fmt.Errorf("unknown output format %q", options.Format)
	}

	cfg, err := config.LoadConfig(options.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	options.applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	resolver, err := asn.New(cfg.Resolver, log)
	if err != nil {
		return err
	}
	defer asn.Close(resolver)

	pipeline, err := seeds.NewPipeline(cfg, resolver, log)
	if err != nil {
		return err
	}

	in, err := report.OpenReport(options.Input)
	if err != nil {
		return err
	}
	defer in.Close()

	result, err := pipeline.Run(ctx, in)
	if err != nil {
		return err
	}

	if options.Output == "" {
		if err := report.Write(os.Stdout, options.Format, result, cfg.SeedArrayName()); err != nil {
			return fmt.Errorf("failed to write seeds: %w", err)
		}
	} else {
		f, err := os.Create(options.Output)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		if err := writeAndClose(f, options.Format, result, cfg.SeedArrayName()); err != nil {
			return err
		}
	}

	if options.ChartPath != "" {
		buf, err := report.RenderASNChart(result)
		if err != nil {
			log.Warn().Err(err).Msg("skipping chart")
		} else if err := os.WriteFile(options.ChartPath, buf.Bytes(), 0644); err != nil {
			return fmt.Errorf("failed to save chart: %w", err)
		} else {
			log.Info().Str("path", options.ChartPath).Msg("saved ASN chart")
		}
	}

	return nil
}

// writeAndClose writes the seed list to w and closes it, returning the
// first error of either step
func writeAndClose(w io.WriteCloser, format string, result *models.SelectionResult, arrayName string) error {
	if err := report.Write(w, format, result, arrayName); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write seeds: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	return nil
}
