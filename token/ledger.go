// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package token implements fungible token balances held in host storage.
// A token is identified by its address; every slot it owns lives under that
// address, so one Ledger value serves any number of tokens.
package token

import (
	"errors"

	"github.com/holiman/uint256"
	"github.com/luxfi/amm/contract"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
	"github.com/zeebo/blake3"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrOverflow              = errors.New("token amount overflow")
)

// Event topics
var (
	TransferTopic = common.Keccak256Hash([]byte("Transfer(address,address,uint256)"))
	ApprovalTopic = common.Keccak256Hash([]byte("Approval(address,address,uint256)"))
)

var (
	balancePrefix   = []byte("tbal")
	allowancePrefix = []byte("talw")
	supplySlot      = makeStorageKey([]byte("tsup"), nil)
)

func makeStorageKey(prefix []byte, id []byte) common.Hash {
	h := blake3.New()
	h.Write(prefix)
	h.Write(id)
	var key common.Hash
	h.Digest().Read(key[:])
	return key
}

func balanceSlot(owner common.Address) common.Hash {
	return makeStorageKey(balancePrefix, owner.Bytes())
}

func allowanceSlot(owner, spender common.Address) common.Hash {
	id := make([]byte, 0, 2*common.AddressLength)
	id = append(id, owner.Bytes()...)
	id = append(id, spender.Bytes()...)
	return makeStorageKey(allowancePrefix, id)
}

func readUint(stateDB contract.StateDB, addr common.Address, slot common.Hash) *uint256.Int {
	v := stateDB.GetState(addr, slot)
	return new(uint256.Int).SetBytes(v.Bytes())
}

func writeUint(stateDB contract.StateDB, addr common.Address, slot common.Hash, v *uint256.Int) {
	stateDB.SetState(addr, slot, common.Hash(v.Bytes32()))
}

// Ledger moves balances of any token stored in a StateDB.
type Ledger struct{}

func (Ledger) BalanceOf(stateDB contract.StateDB, token, owner common.Address) *uint256.Int {
	return readUint(stateDB, token, balanceSlot(owner))
}

func (Ledger) TotalSupply(stateDB contract.StateDB, token common.Address) *uint256.Int {
	return readUint(stateDB, token, supplySlot)
}

func (Ledger) Allowance(stateDB contract.StateDB, token, owner, spender common.Address) *uint256.Int {
	return readUint(stateDB, token, allowanceSlot(owner, spender))
}

// Transfer moves amount of token from one holder to another.
func (l Ledger) Transfer(stateDB contract.StateDB, token, from, to common.Address, amount *uint256.Int) error {
	fromBal := l.BalanceOf(stateDB, token, from)
	if fromBal.Lt(amount) {
		return ErrInsufficientBalance
	}
	if from != to {
		toBal := l.BalanceOf(stateDB, token, to)
		if _, overflow := toBal.AddOverflow(toBal, amount); overflow {
			return ErrOverflow
		}
		writeUint(stateDB, token, balanceSlot(from), fromBal.Sub(fromBal, amount))
		writeUint(stateDB, token, balanceSlot(to), toBal)
	}
	emit(stateDB, token, TransferTopic, from, to, amount)
	return nil
}

// TransferFrom moves owner's tokens on behalf of spender, consuming allowance.
// An allowance of 2^256-1 is never decremented.
func (l Ledger) TransferFrom(stateDB contract.StateDB, token, spender, owner, to common.Address, amount *uint256.Int) error {
	if spender != owner {
		allowed := l.Allowance(stateDB, token, owner, spender)
		if allowed.Lt(amount) {
			return ErrInsufficientAllowance
		}
		if !isMax(allowed) {
			writeUint(stateDB, token, allowanceSlot(owner, spender), allowed.Sub(allowed, amount))
		}
	}
	return l.Transfer(stateDB, token, owner, to, amount)
}

// Approve sets spender's allowance over owner's tokens.
func (Ledger) Approve(stateDB contract.StateDB, token, owner, spender common.Address, amount *uint256.Int) {
	writeUint(stateDB, token, allowanceSlot(owner, spender), amount)
	emit(stateDB, token, ApprovalTopic, owner, spender, amount)
}

// Mint creates amount new units for to.
func (l Ledger) Mint(stateDB contract.StateDB, token, to common.Address, amount *uint256.Int) error {
	supply := l.TotalSupply(stateDB, token)
	if _, overflow := supply.AddOverflow(supply, amount); overflow {
		return ErrOverflow
	}
	// balance <= supply, so this add cannot overflow once the supply add did not
	bal := l.BalanceOf(stateDB, token, to)
	bal.Add(bal, amount)
	writeUint(stateDB, token, supplySlot, supply)
	writeUint(stateDB, token, balanceSlot(to), bal)
	emit(stateDB, token, TransferTopic, common.Address{}, to, amount)
	return nil
}

// Burn destroys amount units held by from.
func (l Ledger) Burn(stateDB contract.StateDB, token, from common.Address, amount *uint256.Int) error {
	bal := l.BalanceOf(stateDB, token, from)
	if bal.Lt(amount) {
		return ErrInsufficientBalance
	}
	supply := l.TotalSupply(stateDB, token)
	writeUint(stateDB, token, balanceSlot(from), bal.Sub(bal, amount))
	writeUint(stateDB, token, supplySlot, supply.Sub(supply, amount))
	emit(stateDB, token, TransferTopic, from, common.Address{}, amount)
	return nil
}

func isMax(v *uint256.Int) bool {
	return v.Eq(new(uint256.Int).SetAllOne())
}

func emit(stateDB contract.StateDB, token common.Address, topic common.Hash, a, b common.Address, amount *uint256.Int) {
	data := amount.Bytes32()
	stateDB.AddLog(&types.Log{
		Address: token,
		Topics: []common.Hash{
			topic,
			common.BytesToHash(a.Bytes()),
			common.BytesToHash(b.Bytes()),
		},
		Data: data[:],
	})
}
