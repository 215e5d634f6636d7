// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package contract defines the host-facing interfaces the exchange runs
// against: slot storage, native balances, logs and block context.
package contract

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/tracing"
	"github.com/luxfi/geth/core/types"
)

// StateDB is the subset of the host state the exchange reads and writes.
type StateDB interface {
	GetState(common.Address, common.Hash) common.Hash
	SetState(common.Address, common.Hash, common.Hash) common.Hash

	GetBalance(common.Address) *uint256.Int
	AddBalance(common.Address, *uint256.Int, tracing.BalanceChangeReason) uint256.Int
	SubBalance(common.Address, *uint256.Int, tracing.BalanceChangeReason) uint256.Int

	Exist(common.Address) bool
	CreateAccount(common.Address)

	AddLog(*types.Log)

	Snapshot() int
	RevertToSnapshot(int)

	// Error returns the first failure of the backing store, if any.
	Error() error
}

// BlockContext exposes the block being executed.
type BlockContext interface {
	Number() *big.Int
	Timestamp() uint64
}

// AccessibleState is handed to a precompile on every call.
type AccessibleState interface {
	GetStateDB() StateDB
	GetBlockContext() BlockContext
}

// StatefulPrecompiledContract is the dispatch surface invoked by the host.
type StatefulPrecompiledContract interface {
	Run(
		accessibleState AccessibleState,
		caller common.Address,
		addr common.Address,
		input []byte,
		suppliedGas uint64,
		readOnly bool,
	) (ret []byte, remainingGas uint64, err error)
}

// Config is a module's JSON configuration document.
type Config interface {
	Key() string
	Verify() error
	Equal(Config) bool
}

// Configurator builds a module's config and applies it to fresh state.
type Configurator interface {
	MakeConfig() Config
	Configure(cfg Config, state StateDB, blockContext BlockContext) error
}
