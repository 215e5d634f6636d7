// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/amm/contract"
	"github.com/luxfi/geth/common"
)

func (p *Pair) feeTo(stateDB contract.StateDB) common.Address {
	if p.fees == nil {
		return common.Address{}
	}
	return p.fees.FeeTo(stateDB)
}

// mintFee accrues the protocol's share of invariant growth since kLast as
// new liquidity for the fee recipient: one sixth of the growth, i.e.
// supply * (rootK - rootKLast) / (3*rootK + rootKLast).
// It reports whether the protocol fee is on. With the fee off, a stale
// kLast is cleared.
func (p *Pair) mintFee(stateDB contract.StateDB, reserves Reserves) (bool, error) {
	feeTo := p.feeTo(stateDB)
	feeOn := feeTo != (common.Address{})
	kLast := p.KLast(stateDB)

	if !feeOn {
		if !kLast.IsZero() {
			writeUint(stateDB, p.Address, kLastSlot, new(uint256.Int))
		}
		return false, nil
	}
	if kLast.IsZero() {
		return true, nil
	}

	k, err := checkedMul(reserves.Reserve0, reserves.Reserve1)
	if err != nil {
		return true, err
	}
	rootK := sqrt(k)
	rootKLast := sqrt(kLast)
	if !rootK.Gt(rootKLast) {
		return true, nil
	}

	totalSupply := p.ledger.TotalSupply(stateDB, p.Address)
	numerator, err := checkedMul(totalSupply, new(uint256.Int).Sub(rootK, rootKLast))
	if err != nil {
		return true, err
	}
	denominator, err := checkedMul(rootK, uint256.NewInt(3))
	if err != nil {
		return true, err
	}
	if denominator, err = checkedAdd(denominator, rootKLast); err != nil {
		return true, err
	}
	liquidity := numerator.Div(numerator, denominator)
	if liquidity.IsZero() {
		return true, nil
	}
	if err := p.ledger.Mint(stateDB, p.Address, feeTo, liquidity); err != nil {
		return true, err
	}
	p.log.Debug("protocol fee accrued",
		"pair", p.Address,
		"feeTo", feeTo,
		"liquidity", liquidity,
	)
	return true, nil
}

func (p *Pair) setKLast(stateDB contract.StateDB, reserve0, reserve1 *uint256.Int) error {
	k, err := checkedMul(reserve0, reserve1)
	if err != nil {
		return err
	}
	writeUint(stateDB, p.Address, kLastSlot, k)
	return nil
}
