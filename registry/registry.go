// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package registry holds the exchange's well-known addresses and the
// pair registry that maps a token pair to its pool.
package registry

import (
	"fmt"

	"github.com/luxfi/geth/common"
)

// ============================================================================
// ADDRESS SCHEME
// ============================================================================
//
// Exchange modules use trailing-significant 20-byte addresses in the
// DEX/markets page:
//   Format: 0x00000000000000000000000000000000009CII
//
// C nibble = chain slot (2 = C-Chain), II = item.
// Pools are not precompiles; they live at caller-chosen addresses and are
// indexed by the pair registry.

const (
	RouterAddress        = "0x0000000000000000000000000000000000009012" // router, fee recipient config
	PairRegistryAddress  = "0x0000000000000000000000000000000000009015" // pair registry slots
	WrappedNativeAddress = "0x0000000000000000000000000000000000009016" // wrapped native coin
)

// ModuleInfo describes a well-known exchange address.
type ModuleInfo struct {
	Address     string
	Name        string
	Description string
	GasBase     uint64
}

// AllModules lists every well-known exchange address.
var AllModules = []ModuleInfo{
	{RouterAddress, "ROUTER", "Constant-product swap routing and liquidity", 10000},
	{PairRegistryAddress, "PAIR_REGISTRY", "Token pair to pool index", 2100},
	{WrappedNativeAddress, "WRAPPED_NATIVE", "Wrapped native coin", 5000},
}

// ModuleAddress returns the address for a module by name.
func ModuleAddress(name string) (common.Address, error) {
	for _, m := range AllModules {
		if m.Name == name {
			return common.HexToAddress(m.Address), nil
		}
	}
	return common.Address{}, fmt.Errorf("unknown module %q", name)
}
