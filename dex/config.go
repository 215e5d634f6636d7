// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"encoding/json"
	"fmt"

	"github.com/luxfi/amm/contract"
	"github.com/luxfi/geth/common"
)

var _ contract.Config = (*Config)(nil)

// ConfigKey is the key used in json config files to specify this module's config.
const ConfigKey = "ammConfig"

// Config is the router's genesis configuration.
type Config struct {
	// FeeTo receives protocol fee liquidity. Zero disables the protocol fee.
	FeeTo common.Address `json:"feeTo,omitempty"`
	// FeeToSetter may change FeeTo and hand over the setter role.
	FeeToSetter common.Address `json:"feeToSetter"`
	// MaxPathLength bounds swap paths; zero means MaxPathLength.
	MaxPathLength int `json:"maxPathLength,omitempty"`
}

// ParseConfig decodes and verifies a JSON config.
func ParseConfig(data []byte) (*Config, error) {
	cfg := new(Config)
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", ConfigKey, err)
	}
	if err := cfg.Verify(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Key() string {
	return ConfigKey
}

func (c *Config) Verify() error {
	if c.FeeToSetter == (common.Address{}) {
		return fmt.Errorf("%s: feeToSetter must be set", ConfigKey)
	}
	if c.MaxPathLength != 0 && (c.MaxPathLength < 2 || c.MaxPathLength > 64) {
		return fmt.Errorf("%s: maxPathLength %d out of range [2, 64]", ConfigKey, c.MaxPathLength)
	}
	return nil
}

func (c *Config) Equal(cfg contract.Config) bool {
	other, ok := cfg.(*Config)
	if !ok {
		return false
	}
	return c.FeeTo == other.FeeTo &&
		c.FeeToSetter == other.FeeToSetter &&
		c.MaxPathLength == other.MaxPathLength
}
