// Package main provides the diceroll command, which rolls dice-notation
// expression groups and lookup tables using standard dice only.
package main

import (
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/stddice/internal/config"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file; empty uses defaults and STDDICE_* environment")
	seed := flag.Int64("seed", -1, "seed for a reproducible source; negative keeps the configured source")
	showRange := flag.Bool("range", false, "print each slot's range without rolling")
	showStandard := flag.Bool("standardize", false, "print each slot's standardized form without rolling")
	tableRef := flag.String("table", "", "roll a lookup table by loaded ID or YAML file path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *seed >= 0 {
		cfg.Dice.Source = config.SourceSeeded
		cfg.Dice.Seed = uint64(*seed)
	}

	app, cleanup, err := initializeApp(cfg)
	if err != nil {
		log.Fatalf("initializing: %v", err)
	}
	defer cleanup()

	text := strings.Join(flag.Args(), " ")
	switch {
	case *tableRef != "":
		err = app.RollTable(os.Stdout, *tableRef)
	case text == "":
		flag.Usage()
		cleanup()
		os.Exit(2)
	case *showRange || *showStandard:
		err = app.Describe(os.Stdout, text, *showStandard, *showRange)
	default:
		err = app.Roll(os.Stdout, text)
	}
	if err != nil {
		app.logger.Error("diceroll failed", zap.Error(err))
		cleanup()
		os.Exit(1)
	}
	app.logger.Debug("diceroll complete", zap.Duration("elapsed", time.Since(start)))
}
