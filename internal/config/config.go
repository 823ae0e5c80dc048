// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "tally.config"

const (
	DefaultShutdownTimeout  = "30s"
	DefaultSnapshotInterval = "5m"
	DefaultOperationTTL     = "1h"
)

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

type Config struct {
	OwnerAddress     string `yaml:"ownerAddress"     split_words:"true"`
	FactoryAddress   string `yaml:"factoryAddress"   split_words:"true"`
	DatabasePath     string `yaml:"databasePath"     split_words:"true"`
	BindAddr         string `yaml:"bindAddr"         split_words:"true"`
	SnapshotInterval string `yaml:"snapshotInterval" split_words:"true"`
	ShutdownTimeout  string `yaml:"shutdownTimeout"  split_words:"true"`
	OperationTTL     string `yaml:"operationTTL"     envconfig:"OPERATION_TTL"`
	ApiPort          uint   `yaml:"apiPort"          split_words:"true"`
	MetricsPort      uint   `yaml:"metricsPort"      split_words:"true"`
	SnapshotRetain   int    `yaml:"snapshotRetain"   split_words:"true"`
	MinVotingAge     uint32 `yaml:"minVotingAge"     split_words:"true"`
	MinCandidateAge  uint32 `yaml:"minCandidateAge"  split_words:"true"`
	Tracing          bool   `yaml:"tracing"`
	TracingStdout    bool   `yaml:"tracingStdout"    split_words:"true"`
}

// Owner returns the parsed owner address
func (c *Config) Owner() (common.Address, error) {
	return parseAddress("ownerAddress", c.OwnerAddress)
}

// Factory returns the parsed factory address. An unset address is the zero
// address, which the node replaces with one derived from the owner.
func (c *Config) Factory() (common.Address, error) {
	if c.FactoryAddress == "" {
		return common.Address{}, nil
	}
	return parseAddress("factoryAddress", c.FactoryAddress)
}

func (c *Config) SnapshotIntervalDuration() (time.Duration, error) {
	return parseDuration("snapshotInterval", c.SnapshotInterval)
}

func (c *Config) ShutdownTimeoutDuration() (time.Duration, error) {
	return parseDuration("shutdownTimeout", c.ShutdownTimeout)
}

func (c *Config) OperationTTLDuration() (time.Duration, error) {
	return parseDuration("operationTTL", c.OperationTTL)
}

// Validate checks the fields that need parsing. An empty owner is allowed
// here; commands that run a node require it.
func (c *Config) Validate() error {
	if c.OwnerAddress != "" {
		if _, err := c.Owner(); err != nil {
			return err
		}
	}
	if _, err := c.Factory(); err != nil {
		return err
	}
	for _, fn := range []func() (time.Duration, error){
		c.SnapshotIntervalDuration,
		c.ShutdownTimeoutDuration,
		c.OperationTTLDuration,
	} {
		if _, err := fn(); err != nil {
			return err
		}
	}
	if c.SnapshotRetain < 1 {
		return errors.New("snapshotRetain must be at least 1")
	}
	if c.TracingStdout && !c.Tracing {
		return errors.New("tracingStdout requires tracing")
	}
	return nil
}

func parseAddress(field string, value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("invalid %s: %q", field, value)
	}
	return common.HexToAddress(value), nil
}

func parseDuration(field string, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", field)
	}
	return d, nil
}

func defaultConfig() *Config {
	return &Config{
		DatabasePath:     ".tally",
		BindAddr:         "0.0.0.0",
		ApiPort:          8080,
		MetricsPort:      12799,
		MinVotingAge:     18,
		MinCandidateAge:  18,
		SnapshotInterval: DefaultSnapshotInterval,
		SnapshotRetain:   3,
		ShutdownTimeout:  DefaultShutdownTimeout,
		OperationTTL:     DefaultOperationTTL,
	}
}

var globalConfig = defaultConfig()

// LoadConfig overlays the config file and then the environment onto the
// defaults. Without an explicit file it looks in ~/.tally/tally.yaml and then
// /etc/tally/tally.yaml.
func LoadConfig(configFile string) (*Config, error) {
	if configFile == "" {
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".tally", "tally.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}
		if configFile == "" {
			systemPath := "/etc/tally/tally.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, globalConfig); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	if err := envconfig.Process("tally", globalConfig); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	if err := globalConfig.Validate(); err != nil {
		return nil, err
	}
	return globalConfig, nil
}

func GetConfig() *Config {
	return globalConfig
}
