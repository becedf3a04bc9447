// Package config provides Viper-based configuration loading for the dice tools.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// File, when set, additionally writes JSON logs to a rotating file.
	File string `mapstructure:"file"`
	// MaxSizeMB is the size at which the log file is rotated.
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated files kept.
	MaxBackups int `mapstructure:"max_backups"`
	// MaxAgeDays is the number of days rotated files are kept.
	MaxAgeDays int `mapstructure:"max_age_days"`
}

// Dice sources.
const (
	SourceCrypto = "crypto"
	SourceSeeded = "seeded"
)

// DiceConfig selects the randomness source and rolling behavior.
type DiceConfig struct {
	// Source is "crypto" or "seeded".
	Source string `mapstructure:"source"`
	// Seed is used when Source is "seeded".
	Seed uint64 `mapstructure:"seed"`
	// Standardize rolls non-standard dice as combinations of standard ones.
	Standardize bool `mapstructure:"standardize"`
	// Kind tags every parsed dice term, e.g. a dice color.
	Kind string `mapstructure:"kind"`
}

// ScriptingConfig holds Lua roller settings.
type ScriptingConfig struct {
	// RollerDir is a directory of *.lua files defining roll_die(sides). When
	// empty dice are rolled with the configured source.
	RollerDir string `mapstructure:"roller_dir"`
	// InstructionLimit caps opcodes per script call; 0 uses the default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// TablesConfig locates YAML lookup tables.
type TablesConfig struct {
	Dir string `mapstructure:"dir"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Dice      DiceConfig      `mapstructure:"dice"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
	Tables    TablesConfig    `mapstructure:"tables"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateDice(c.Dice); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateScripting(c.Scripting); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	var errs []string
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		errs = append(errs, fmt.Sprintf("logging.level must be one of [debug, info, warn, error], got %q", l.Level))
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		errs = append(errs, fmt.Sprintf("logging.format must be one of [json, console], got %q", l.Format))
	}
	if l.MaxSizeMB < 0 {
		errs = append(errs, fmt.Sprintf("logging.max_size_mb must be >= 0, got %d", l.MaxSizeMB))
	}
	if l.MaxBackups < 0 {
		errs = append(errs, fmt.Sprintf("logging.max_backups must be >= 0, got %d", l.MaxBackups))
	}
	if l.MaxAgeDays < 0 {
		errs = append(errs, fmt.Sprintf("logging.max_age_days must be >= 0, got %d", l.MaxAgeDays))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDice(d DiceConfig) error {
	if d.Source != SourceCrypto && d.Source != SourceSeeded {
		return fmt.Errorf("dice.source must be one of [crypto, seeded], got %q", d.Source)
	}
	return nil
}

func validateScripting(s ScriptingConfig) error {
	if s.InstructionLimit < 0 {
		return fmt.Errorf("scripting.instruction_limit must be >= 0, got %d", s.InstructionLimit)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path uses defaults and the
// environment only.
//
// Precondition: path is empty or names a readable YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with STDDICE_ prefix
	v.SetEnvPrefix("STDDICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)

	v.SetDefault("dice.source", SourceCrypto)
	v.SetDefault("dice.seed", 0)
	v.SetDefault("dice.standardize", true)
	v.SetDefault("dice.kind", "")

	v.SetDefault("scripting.roller_dir", "")
	v.SetDefault("scripting.instruction_limit", 0)

	v.SetDefault("tables.dir", "")
}
