// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package token

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/amm/contract"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/tracing"
)

// WrappedNative is a token at Address backed 1:1 by native coin held by
// that address.
type WrappedNative struct {
	Ledger
	Address common.Address
}

// NewWrappedNative returns the wrapped-native token living at addr.
func NewWrappedNative(addr common.Address) *WrappedNative {
	return &WrappedNative{Address: addr}
}

// Deposit locks amount of from's native coin and credits the same amount of
// wrapped token to to.
func (w *WrappedNative) Deposit(stateDB contract.StateDB, from, to common.Address, amount *uint256.Int) error {
	if stateDB.GetBalance(from).Lt(amount) {
		return ErrInsufficientBalance
	}
	if err := w.Mint(stateDB, w.Address, to, amount); err != nil {
		return err
	}
	stateDB.SubBalance(from, amount, tracing.BalanceChangeTransfer)
	stateDB.AddBalance(w.Address, amount, tracing.BalanceChangeTransfer)
	return nil
}

// Withdraw burns amount of from's wrapped token and releases the native coin
// to to.
func (w *WrappedNative) Withdraw(stateDB contract.StateDB, from, to common.Address, amount *uint256.Int) error {
	if err := w.Burn(stateDB, w.Address, from, amount); err != nil {
		return err
	}
	stateDB.SubBalance(w.Address, amount, tracing.BalanceChangeTransfer)
	stateDB.AddBalance(to, amount, tracing.BalanceChangeTransfer)
	return nil
}

// TokenAddress returns the address of the wrapped token.
func (w *WrappedNative) TokenAddress() common.Address {
	return w.Address
}
