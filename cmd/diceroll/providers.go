package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/stddice/internal/config"
	"github.com/cory-johannsen/stddice/internal/dice"
	"github.com/cory-johannsen/stddice/internal/expr"
	"github.com/cory-johannsen/stddice/internal/group"
	"github.com/cory-johannsen/stddice/internal/observability"
	"github.com/cory-johannsen/stddice/internal/scripting"
	"github.com/cory-johannsen/stddice/internal/standard"
	"github.com/cory-johannsen/stddice/internal/table"
)

// rollerScriptName is the VM name roller scripts are loaded under.
const rollerScriptName = "roller"

func provideLogger(cfg config.LoggingConfig) (*zap.Logger, func(), error) {
	logger, err := observability.NewLogger(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing logger: %w", err)
	}
	return logger, func() { _ = logger.Sync() }, nil
}

func provideSource(cfg config.DiceConfig) dice.Source {
	if cfg.Source == config.SourceSeeded {
		return dice.NewSeededSource(cfg.Seed)
	}
	return dice.NewCryptoSource()
}

func provideParser(cfg config.DiceConfig) *expr.Parser {
	return expr.NewParser(dice.Kind(cfg.Kind))
}

func provideManager(src dice.Source, f *standard.Factorizer, logger *zap.Logger) (*scripting.Manager, func()) {
	mgr := scripting.NewManager(src, f, logger)
	return mgr, mgr.Close
}

// provideRoller builds the roller chain: a direct or Lua base roller,
// optionally standardizing, always logged.
func provideRoller(dc config.DiceConfig, sc config.ScriptingConfig, src dice.Source, f *standard.Factorizer, mgr *scripting.Manager, logger *zap.Logger) (group.Roller, error) {
	var base group.Roller = group.NewDirectRoller(src)
	if sc.RollerDir != "" {
		if err := mgr.Load(rollerScriptName, sc.RollerDir, sc.InstructionLimit); err != nil {
			return nil, fmt.Errorf("loading roller scripts: %w", err)
		}
		base = scripting.NewLuaRoller(mgr, rollerScriptName)
	}
	if dc.Standardize {
		base = group.NewStandardizingRoller(base, f)
	}
	return group.NewLoggedRoller(base, logger), nil
}

func provideTables(cfg config.TablesConfig) ([]*table.Table, error) {
	if cfg.Dir == "" {
		return nil, nil
	}
	tables, err := table.LoadDir(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("loading tables: %w", err)
	}
	return tables, nil
}
