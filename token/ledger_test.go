// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package token

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/amm/state"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/tracing"
	"github.com/stretchr/testify/require"
)

var (
	tokenA  = common.HexToAddress("0xa000000000000000000000000000000000000001")
	alice   = common.HexToAddress("0x1000000000000000000000000000000000000001")
	bob     = common.HexToAddress("0x1000000000000000000000000000000000000002")
	spender = common.HexToAddress("0x1000000000000000000000000000000000000003")
)

func u(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

func TestMintTransferBurn(t *testing.T) {
	require := require.New(t)
	stateDB := state.New(memdb.New())
	var l Ledger

	require.NoError(l.Mint(stateDB, tokenA, alice, u(1000)))
	require.Equal(u(1000), l.TotalSupply(stateDB, tokenA))

	require.NoError(l.Transfer(stateDB, tokenA, alice, bob, u(300)))
	require.Equal(u(700), l.BalanceOf(stateDB, tokenA, alice))
	require.Equal(u(300), l.BalanceOf(stateDB, tokenA, bob))

	require.ErrorIs(l.Transfer(stateDB, tokenA, bob, alice, u(301)), ErrInsufficientBalance)

	require.NoError(l.Burn(stateDB, tokenA, bob, u(100)))
	require.Equal(u(200), l.BalanceOf(stateDB, tokenA, bob))
	require.Equal(u(900), l.TotalSupply(stateDB, tokenA))
	require.ErrorIs(l.Burn(stateDB, tokenA, bob, u(201)), ErrInsufficientBalance)

	// self transfer leaves the balance unchanged
	require.NoError(l.Transfer(stateDB, tokenA, alice, alice, u(700)))
	require.Equal(u(700), l.BalanceOf(stateDB, tokenA, alice))

	// mint, transfer, burn and self transfer
	require.Len(stateDB.Logs(), 4)
	require.Equal(TransferTopic, stateDB.Logs()[0].Topics[0])
}

func TestMintOverflow(t *testing.T) {
	stateDB := state.New(memdb.New())
	var l Ledger

	maxAmount := new(uint256.Int).SetAllOne()
	require.NoError(t, l.Mint(stateDB, tokenA, alice, maxAmount))
	require.ErrorIs(t, l.Mint(stateDB, tokenA, bob, u(1)), ErrOverflow)
	require.True(t, l.BalanceOf(stateDB, tokenA, bob).IsZero())
}

func TestTransferFrom(t *testing.T) {
	require := require.New(t)
	stateDB := state.New(memdb.New())
	var l Ledger

	require.NoError(l.Mint(stateDB, tokenA, alice, u(1000)))
	require.ErrorIs(l.TransferFrom(stateDB, tokenA, spender, alice, bob, u(1)), ErrInsufficientAllowance)

	l.Approve(stateDB, tokenA, alice, spender, u(400))
	require.NoError(l.TransferFrom(stateDB, tokenA, spender, alice, bob, u(150)))
	require.Equal(u(250), l.Allowance(stateDB, tokenA, alice, spender))
	require.Equal(u(150), l.BalanceOf(stateDB, tokenA, bob))

	// owners move their own tokens without an allowance
	require.NoError(l.TransferFrom(stateDB, tokenA, alice, alice, bob, u(50)))
	require.Equal(u(200), l.BalanceOf(stateDB, tokenA, bob))

	maxAmount := new(uint256.Int).SetAllOne()
	l.Approve(stateDB, tokenA, alice, spender, maxAmount)
	require.NoError(l.TransferFrom(stateDB, tokenA, spender, alice, bob, u(100)))
	require.Equal(maxAmount, l.Allowance(stateDB, tokenA, alice, spender))
}

func TestWrappedNative(t *testing.T) {
	require := require.New(t)
	stateDB := state.New(memdb.New())
	w := NewWrappedNative(common.HexToAddress("0x0000000000000000000000000000000000009015"))

	stateDB.AddBalance(alice, u(1000), tracing.BalanceChangeTransfer)
	require.ErrorIs(w.Deposit(stateDB, alice, alice, u(1001)), ErrInsufficientBalance)

	require.NoError(w.Deposit(stateDB, alice, bob, u(600)))
	require.Equal(u(400), stateDB.GetBalance(alice))
	require.Equal(u(600), stateDB.GetBalance(w.Address))
	require.Equal(u(600), w.BalanceOf(stateDB, w.Address, bob))

	require.NoError(w.Withdraw(stateDB, bob, alice, u(250)))
	require.Equal(u(650), stateDB.GetBalance(alice))
	require.Equal(u(350), stateDB.GetBalance(w.Address))
	require.Equal(u(350), w.TotalSupply(stateDB, w.Address))

	require.ErrorIs(w.Withdraw(stateDB, bob, alice, u(351)), ErrInsufficientBalance)
}
