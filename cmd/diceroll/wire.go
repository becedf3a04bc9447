//go:build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/cory-johannsen/stddice/internal/config"
	"github.com/cory-johannsen/stddice/internal/standard"
)

func initializeApp(cfg config.Config) (*App, func(), error) {
	wire.Build(
		wire.FieldsOf(new(config.Config), "Logging", "Dice", "Scripting", "Tables"),
		provideLogger,
		provideSource,
		provideParser,
		standard.NewFactorizer,
		provideManager,
		provideRoller,
		provideTables,
		NewApp,
	)
	return nil, nil, nil
}
