// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"math/big"

	"github.com/luxfi/amm/contract"
)

var (
	_ contract.BlockContext    = (*Block)(nil)
	_ contract.AccessibleState = (*Accessible)(nil)
)

// Block is a fixed block context.
type Block struct {
	Height uint64
	Time   uint64
}

func (b *Block) Number() *big.Int {
	return new(big.Int).SetUint64(b.Height)
}

func (b *Block) Timestamp() uint64 {
	return b.Time
}

// Accessible pairs a StateDB with the block it executes in.
type Accessible struct {
	StateDB *StateDB
	Block   *Block
}

func (a *Accessible) GetStateDB() contract.StateDB {
	return a.StateDB
}

func (a *Accessible) GetBlockContext() contract.BlockContext {
	return a.Block
}
