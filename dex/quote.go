// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

var (
	feeNumerator   = uint256.NewInt(FeeNumerator)
	feeDenominator = uint256.NewInt(FeeDenominator)
)

func checkedMul(x, y *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

func checkedAdd(x, y *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

func checkedSub(x, y *uint256.Int) (*uint256.Int, error) {
	z, underflow := new(uint256.Int).SubOverflow(x, y)
	if underflow {
		return nil, ErrOverflow
	}
	return z, nil
}

// sqrt returns floor(sqrt(x)).
func sqrt(x *uint256.Int) *uint256.Int {
	return new(uint256.Int).Sqrt(x)
}

func minUint(x, y *uint256.Int) *uint256.Int {
	if x.Lt(y) {
		return x
	}
	return y
}

// Quote returns the amount of B worth amountA at the reserve ratio, with no fee.
func Quote(amountA, reserveA, reserveB *uint256.Int) (*uint256.Int, error) {
	if amountA.IsZero() {
		return nil, ErrInsufficientAmount
	}
	if reserveA.IsZero() || reserveB.IsZero() {
		return nil, ErrInsufficientLiquidity
	}
	numerator, err := checkedMul(amountA, reserveB)
	if err != nil {
		return nil, err
	}
	return numerator.Div(numerator, reserveA), nil
}

// AmountOut returns the maximum output for amountIn after the swap fee.
func AmountOut(amountIn, reserveIn, reserveOut *uint256.Int) (*uint256.Int, error) {
	if amountIn.IsZero() {
		return nil, ErrInsufficientInputAmount
	}
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return nil, ErrInsufficientLiquidity
	}
	amountInWithFee, err := checkedMul(amountIn, feeNumerator)
	if err != nil {
		return nil, err
	}
	numerator, err := checkedMul(amountInWithFee, reserveOut)
	if err != nil {
		return nil, err
	}
	scaledReserve, err := checkedMul(reserveIn, feeDenominator)
	if err != nil {
		return nil, err
	}
	denominator, err := checkedAdd(scaledReserve, amountInWithFee)
	if err != nil {
		return nil, err
	}
	return numerator.Div(numerator, denominator), nil
}

// AmountIn returns the minimum input that yields amountOut after the swap fee.
func AmountIn(amountOut, reserveIn, reserveOut *uint256.Int) (*uint256.Int, error) {
	if amountOut.IsZero() {
		return nil, ErrInsufficientOutputAmount
	}
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return nil, ErrInsufficientLiquidity
	}
	if !amountOut.Lt(reserveOut) {
		return nil, ErrInsufficientLiquidity
	}
	numerator, err := checkedMul(reserveIn, amountOut)
	if err != nil {
		return nil, err
	}
	if numerator, err = checkedMul(numerator, feeDenominator); err != nil {
		return nil, err
	}
	remaining := new(uint256.Int).Sub(reserveOut, amountOut)
	denominator, err := checkedMul(remaining, feeNumerator)
	if err != nil {
		return nil, err
	}
	numerator.Div(numerator, denominator)
	return checkedAdd(numerator, uint256.NewInt(1))
}

// ReservesFunc returns the reserves of the pool trading tokenIn for
// tokenOut, oriented as (reserveIn, reserveOut).
type ReservesFunc func(tokenIn, tokenOut common.Address) (*uint256.Int, *uint256.Int, error)

// AmountsOut chains AmountOut along path. The result has one entry per
// path element and starts with amountIn.
func AmountsOut(amountIn *uint256.Int, path []common.Address, reserves ReservesFunc) ([]*uint256.Int, error) {
	if len(path) < 2 {
		return nil, ErrInvalidPath
	}
	amounts := make([]*uint256.Int, len(path))
	amounts[0] = amountIn.Clone()
	for i := 0; i < len(path)-1; i++ {
		reserveIn, reserveOut, err := reserves(path[i], path[i+1])
		if err != nil {
			return nil, err
		}
		if amounts[i+1], err = AmountOut(amounts[i], reserveIn, reserveOut); err != nil {
			return nil, err
		}
	}
	return amounts, nil
}

// AmountsIn chains AmountIn backwards along path. The result is in path
// order and ends with amountOut.
func AmountsIn(amountOut *uint256.Int, path []common.Address, reserves ReservesFunc) ([]*uint256.Int, error) {
	if len(path) < 2 {
		return nil, ErrInvalidPath
	}
	amounts := make([]*uint256.Int, len(path))
	amounts[len(path)-1] = amountOut.Clone()
	for i := len(path) - 1; i > 0; i-- {
		reserveIn, reserveOut, err := reserves(path[i-1], path[i])
		if err != nil {
			return nil, err
		}
		if amounts[i-1], err = AmountIn(amounts[i], reserveIn, reserveOut); err != nil {
			return nil, err
		}
	}
	return amounts, nil
}
