// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package modules

import (
	"bytes"

	"github.com/luxfi/amm/contract"
	"github.com/luxfi/geth/common"
)

// Module binds a precompiled contract to its address and config key.
type Module struct {
	// ConfigKey is the key used in json config files to specify this module.
	ConfigKey string
	// Address is the address where the contract is registered.
	Address common.Address
	// Contract is the contract executed at Address.
	Contract contract.StatefulPrecompiledContract
	// Configurator applies the module's config on activation.
	Configurator contract.Configurator
}

type moduleArray []Module

func (u moduleArray) Len() int {
	return len(u)
}

func (u moduleArray) Swap(i, j int) {
	u[i], u[j] = u[j], u[i]
}

func (u moduleArray) Less(i, j int) bool {
	return bytes.Compare(u[i].Address.Bytes(), u[j].Address.Bytes()) < 0
}
