// Package config provides Viper-based configuration loading for auxindex.
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cory-johannsen/auxindex/internal/auxpow"
)

// DefaultChainIDs are the chains evaluated when none are configured.
var DefaultChainIDs = []int64{0, 0x62, 16, 0x2023, 0x3f}

// IndexConfig holds the inputs of the expected-index computation.
type IndexConfig struct {
	// Nonce seeds the slot derivation.
	Nonce uint32 `mapstructure:"nonce"`
	// Height is the aux merkle tree height; the tree has 2^Height slots.
	Height uint `mapstructure:"height"`
	// ChainIDs lists the aux chains in output order. Decoded wide so that
	// out-of-range ids are reported instead of truncated.
	ChainIDs []int64 `mapstructure:"chain_ids"`
}

// Chains returns ChainIDs narrowed to chain id width.
//
// Precondition: Validate accepted the enclosing Config.
func (i IndexConfig) Chains() []int32 {
	out := make([]int32, len(i.ChainIDs))
	for n, id := range i.ChainIDs {
		out[n] = int32(id)
	}
	return out
}

// SolveConfig holds layout search settings.
type SolveConfig struct {
	// Enabled replaces the fixed nonce and height with a collision-free layout search.
	Enabled   bool   `mapstructure:"enabled"`
	MinHeight uint   `mapstructure:"min_height"`
	MaxHeight uint   `mapstructure:"max_height"`
	MaxNonce  uint32 `mapstructure:"max_nonce"`
}

// OutputConfig holds result rendering settings.
type OutputConfig struct {
	// Format is one of "repr", "json", "yaml".
	Format string `mapstructure:"format"`
	// Chains is an optional path to a chain registry YAML file used to label results.
	Chains string `mapstructure:"chains"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// Config is the top-level application configuration.
type Config struct {
	Index   IndexConfig   `mapstructure:"index"`
	Solve   SolveConfig   `mapstructure:"solve"`
	Output  OutputConfig  `mapstructure:"output"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateIndex(c.Index); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateSolve(c.Solve); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateOutput(c.Output); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateIndex(i IndexConfig) error {
	var errs []string
	if i.Height > auxpow.MaxIndexBits {
		errs = append(errs, fmt.Sprintf("index.height must be 0-%d, got %d", auxpow.MaxIndexBits, i.Height))
	}
	if len(i.ChainIDs) == 0 {
		errs = append(errs, "index.chain_ids must not be empty")
	}
	seen := make(map[int64]bool, len(i.ChainIDs))
	for _, id := range i.ChainIDs {
		if id < math.MinInt32 || id > math.MaxInt32 {
			errs = append(errs, fmt.Sprintf("index.chain_ids value %d is outside the 32-bit chain id range", id))
			continue
		}
		if seen[id] {
			errs = append(errs, fmt.Sprintf("index.chain_ids lists %d more than once", id))
		}
		seen[id] = true
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateSolve(s SolveConfig) error {
	var errs []string
	if s.MaxHeight > auxpow.MaxIndexBits {
		errs = append(errs, fmt.Sprintf("solve.max_height must be 0-%d, got %d", auxpow.MaxIndexBits, s.MaxHeight))
	}
	if s.MinHeight > s.MaxHeight {
		errs = append(errs, "solve.min_height must not exceed solve.max_height")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateOutput(o OutputConfig) error {
	validFormats := map[string]bool{"repr": true, "json": true, "yaml": true}
	if !validFormats[o.Format] {
		return fmt.Errorf("output.format must be one of [repr, json, yaml], got %q", o.Format)
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// NewViper returns a Viper instance with defaults and AUXINDEX_ environment overrides applied.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("AUXINDEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path uses defaults and environment only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := NewViper()
	if err := ReadFile(v, path); err != nil {
		return Config{}, err
	}
	return LoadFromViper(v)
}

// ReadFile merges the YAML file at path into v. An empty path is a no-op.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	return nil
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

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"nonce":      "index.nonce",
	"height":     "index.height",
	"chain-id":   "index.chain_ids",
	"solve":      "solve.enabled",
	"min-height": "solve.min_height",
	"max-height": "solve.max_height",
	"max-nonce":  "solve.max_nonce",
	"format":     "output.format",
	"chains":     "output.chains",
	"log-level":  "logging.level",
	"log-format": "logging.format",
}

// RegisterFlags defines the configuration flags on fs. Flag defaults are left
// empty so configured and environment values win unless a flag is set.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.Uint32("nonce", 0, "nonce used to derive slots")
	fs.Uint("height", 0, "aux merkle tree height (tree has 2^height slots)")
	fs.StringSlice("chain-id", nil, "aux chain id, repeatable or comma separated (hex with 0x)")
	fs.Bool("solve", false, "search for a collision-free nonce and height instead")
	fs.Uint("min-height", 0, "smallest height tried by --solve")
	fs.Uint("max-height", 0, "largest height tried by --solve")
	fs.Uint32("max-nonce", 0, "largest nonce tried per height by --solve")
	fs.String("format", "", "output format: repr, json, yaml")
	fs.String("chains", "", "chain registry YAML used to label json and yaml output")
	fs.String("log-level", "", "log level: debug, info, warn, error")
	fs.String("log-format", "", "log format: json, console")
}

// BindFlags binds every flag defined by RegisterFlags to its configuration key.
//
// Precondition: RegisterFlags was called on fs.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			return fmt.Errorf("flag --%s is not registered", name)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag --%s: %w", name, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("index.nonce", 0)
	v.SetDefault("index.height", 4)
	v.SetDefault("index.chain_ids", DefaultChainIDs)

	v.SetDefault("solve.enabled", false)
	v.SetDefault("solve.min_height", 0)
	v.SetDefault("solve.max_height", auxpow.MaxIndexBits)
	v.SetDefault("solve.max_nonce", auxpow.DefaultMaxNonce)

	v.SetDefault("output.format", "repr")
	v.SetDefault("output.chains", "")

	v.SetDefault("logging.level", "error")
	v.SetDefault("logging.format", "console")
}
