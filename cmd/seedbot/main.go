package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/projectdiscovery/goflags"

	"github.com/cintamani/seedgen/internal/asn"
	"github.com/cintamani/seedgen/internal/config"
	"github.com/cintamani/seedgen/internal/logger"
	"github.com/cintamani/seedgen/internal/models"
	"github.com/cintamani/seedgen/internal/report"
	"github.com/cintamani/seedgen/internal/seeds"
	"github.com/cintamani/seedgen/internal/telegram"
)

type options struct {
	ConfigPath string
	Input      string
	Format     string
	Interval   time.Duration
	Once       bool
	Verbose    bool
}

func parseOptions() *options {
	opts := &options{}

	flagSet := goflags.NewFlagSet()
	flagSet.SetDescription(`seedbot periodically rebuilds the seed list and publishes it to Telegram`)

	flagSet.CreateGroup("bot", "Bot",
		flagSet.StringVarP(&opts.ConfigPath, "config", "c", "seedgen.json", "configuration file (json or yaml)"),
		flagSet.StringVarP(&opts.Input, "input", "i", "", "crawler report, re-read on every rebuild"),
		flagSet.StringVarP(&opts.Format, "format", "f", report.FormatList, "format of the published list (list, chainparams, json)"),
		flagSet.DurationVar(&opts.Interval, "interval", 0, "rebuild interval (overrides config)"),
		flagSet.BoolVar(&opts.Once, "once", false, "publish once and exit"),
		flagSet.BoolVarP(&opts.Verbose, "verbose", "v", false, "show debug logs"),
	)

	if err := flagSet.Parse(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(2)
	}

	return opts
}

func main() {
	startTime := time.Now()
	opts := parseOptions()

	logCfg := logger.DefaultConfig()
	logCfg.Debug = logCfg.Debug || opts.Verbose
	log, err := logger.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log configuration: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	cfg.ApplyEnvironment()
	if opts.Interval > 0 {
		cfg.Interval = opts.Interval
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if !slices.Contains(report.Formats, opts.Format) {
		log.Fatal().Str("format", opts.Format).Msg("unknown output format")
	}
	if opts.Input == "" || opts.Input == "-" {
		log.Fatal().Msg("seedbot needs a report file (-input) it can re-read on every rebuild")
	}

	resolver, err := asn.New(cfg.Resolver, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create ASN resolver")
	}
	defer asn.Close(resolver)

	pipeline, err := seeds.NewPipeline(cfg, resolver, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create pipeline")
	}

	pub, err := telegram.NewPublisher(cfg.TelegramToken, cfg.TelegramChannel, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Telegram publisher; set SEEDGEN_TELEGRAM_TOKEN and SEEDGEN_TELEGRAM_CHANNEL or add them to the config")
	}

	loop := &rebuildLoop{
		build: func(ctx context.Context) (*models.SelectionResult, error) {
			in, err := report.OpenReport(opts.Input)
			if err != nil {
				return nil, err
			}
			defer in.Close()
			return pipeline.Run(ctx, in)
		},
		publisher: pub,
		format:    opts.Format,
		arrayName: cfg.SeedArrayName(),
		interval:  cfg.Interval,
		logger:    log.WithComponent("seedbot"),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.Once {
		if _, err := loop.runOnce(ctx); err != nil {
			log.Error().Err(err).Msg("publish failed")
			stop()
			os.Exit(1)
		}
		return
	}

	log.Info().
		Str("network", cfg.Network).
		Str("channel", telegram.NormalizeChannelID(cfg.TelegramChannel)).
		Dur("interval", cfg.Interval).
		Int("pid", os.Getpid()).
		Msg("seedbot started")

	loop.run(ctx)

	log.Info().
		Dur("uptime", time.Since(startTime).Round(time.Second)).
		Msg("shutdown complete")
}
