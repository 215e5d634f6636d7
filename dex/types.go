// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"errors"

	"github.com/holiman/uint256"
	"github.com/luxfi/amm/registry"
	"github.com/luxfi/geth/common"
)

// MinimumLiquidity is locked at the zero address by the first mint of
// every pair.
const MinimumLiquidity uint64 = 1000

// Swap fee of 0.2%, applied as amount * FeeNumerator / FeeDenominator.
const (
	FeeNumerator   uint64 = 998
	FeeDenominator uint64 = 1000
)

// Gas costs
const (
	GasQuote           uint64 = 2_000
	GasQuotePerHop     uint64 = 2_100
	GasCreatePair      uint64 = 50_000
	GasAddLiquidity    uint64 = 60_000
	GasRemoveLiquidity uint64 = 60_000
	GasSwapPerHop      uint64 = 40_000
	GasPairLookup      uint64 = 2_100
	GasAdminWrite      uint64 = 5_000
	GasRead            uint64 = 200
	GasTokenWrite      uint64 = 10_000
)

// MaxPathLength bounds the number of tokens in a swap path unless
// configured otherwise.
const MaxPathLength = 8

// BurnAddress receives the minimum liquidity of every pair.
var BurnAddress = common.Address{}

// Errors - Pricing and pairs
var (
	ErrInsufficientAmount          = errors.New("insufficient amount")
	ErrInsufficientInputAmount     = errors.New("insufficient input amount")
	ErrInsufficientOutputAmount    = errors.New("insufficient output amount")
	ErrInsufficientLiquidity       = errors.New("insufficient liquidity")
	ErrInsufficientLiquidityMinted = errors.New("insufficient liquidity minted")
	ErrInsufficientLiquidityBurned = errors.New("insufficient liquidity burned")
	ErrInvalidTo                   = errors.New("invalid to")
	ErrOverflow                    = errors.New("arithmetic overflow")
	ErrLocked                      = errors.New("pair locked")
	ErrK                           = errors.New("constant product invariant violated")
	ErrPairExists                  = errors.New("pair already initialized")
	ErrPairNotInitialized          = errors.New("pair not initialized")
)

// Errors - Router
var (
	ErrInvalidPath          = errors.New("invalid path")
	ErrExpired              = errors.New("deadline expired")
	ErrInsufficientAAmount  = errors.New("insufficient A amount")
	ErrInsufficientBAmount  = errors.New("insufficient B amount")
	ErrExcessiveInputAmount = errors.New("excessive input amount")
	ErrPermission           = errors.New("permission denied")
	ErrPairNotFound         = registry.ErrPairNotFound
	ErrIdenticalAddresses   = registry.ErrIdenticalAddresses
	ErrZeroAddress          = registry.ErrZeroAddress
	ErrInvalidInput         = errors.New("invalid input")
	ErrOutOfGas             = errors.New("out of gas")
	ErrWriteProtection      = errors.New("write in read-only call")
)

// Reserves is a pair's tracked balances of token0 and token1.
type Reserves struct {
	Reserve0 *uint256.Int
	Reserve1 *uint256.Int
}

// Oriented returns the reserves ordered as (reserveIn, reserveOut) for a
// trade that sells tokenIn, given the pair's token0.
func (r Reserves) Oriented(tokenIn, token0 common.Address) (*uint256.Int, *uint256.Int) {
	if tokenIn == token0 {
		return r.Reserve0, r.Reserve1
	}
	return r.Reserve1, r.Reserve0
}

// SortTokens returns a and b in canonical order.
func SortTokens(a, b common.Address) (common.Address, common.Address, error) {
	return registry.SortTokens(a, b)
}
