// Package config loads and validates the client's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/osnap-tools/governor-client/chain/evm"
)

// ModuleConfig identifies the optimistic governor module to operate against.
type ModuleConfig struct {
	// Address is the deployed module contract address.
	Address string `mapstructure:"address" yaml:"address"`
}

// ConfirmConfig bounds the wait for action transactions to be mined.
type ConfirmConfig struct {
	WaitMinedTimeout time.Duration `mapstructure:"wait_mined_timeout" yaml:"wait_mined_timeout"`
	TickInterval     time.Duration `mapstructure:"tick_interval" yaml:"tick_interval"`
}

// Config is the full client configuration.
type Config struct {
	// LogLevel is a zap level string, e.g. "debug" or "info".
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`

	Network evm.RPCConfig `mapstructure:"network" yaml:"network"`
	Module  ModuleConfig  `mapstructure:"module" yaml:"module"`
	Confirm ConfirmConfig `mapstructure:"confirm" yaml:"confirm"`
}

// ModuleAddress returns the configured module address. Call Validate first.
func (c Config) ModuleAddress() common.Address {
	return common.HexToAddress(c.Module.Address)
}

// Level parses the configured log level, defaulting to info.
func (c Config) Level() (zapcore.Level, error) {
	if c.LogLevel == "" {
		return zapcore.InfoLevel, nil
	}

	return zapcore.ParseLevel(c.LogLevel)
}

// Validate checks the configuration is complete enough to start.
func (c Config) Validate() error {
	if err := c.Network.Validate(); err != nil {
		return fmt.Errorf("network: %w", err)
	}
	if c.Module.Address == "" {
		return errors.New("module address is required")
	}
	if !common.IsHexAddress(c.Module.Address) {
		return fmt.Errorf("module address %q is not a valid address", c.Module.Address)
	}
	if _, err := c.Level(); err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	return nil
}

// Load reads the configuration from a YAML file at path. Missing confirm
// timeouts fall back to defaults suited to mainnet block times.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config file %q: %w", path, err)
	}

	if cfg.Confirm.WaitMinedTimeout == 0 {
		cfg.Confirm.WaitMinedTimeout = 5 * time.Minute
	}
	if cfg.Confirm.TickInterval == 0 {
		cfg.Confirm.TickInterval = 2 * time.Second
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
