package main

import (
	"fmt"
	"os"

	"github.com/projectdiscovery/goflags"

	"github.com/cintamani/seedgen/internal/config"
)

func main() {
	var (
		configPath string
		dump       bool
	)

	flagSet := goflags.NewFlagSet()
	flagSet.SetDescription(`seedcheck validates a seed generator configuration`)
	flagSet.CreateGroup("check", "Check",
		flagSet.StringVarP(&configPath, "config", "c", "seedgen.json", "configuration file (json or yaml)"),
		flagSet.BoolVar(&dump, "write-defaults", false, "write the default configuration to -config and exit"),
	)
	if err := flagSet.Parse(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(2)
	}

	if dump {
		if err := config.SaveConfig(configPath, config.DefaultConfig()); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write %s: %v\n", configPath, err)
			os.Exit(1)
		}
		fmt.Printf("Wrote default configuration to %s\n", configPath)
		return
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", configPath, err)
		os.Exit(1)
	}

	result := checkConfig(cfg)
	printReport(os.Stdout, configPath, cfg, result)
	if !result.OK() {
		os.Exit(1)
	}
}
