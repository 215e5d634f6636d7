// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/amm/contract"
	"github.com/luxfi/geth/common"
)

// SwapExactTokensForTokens sells exactly params.Amount of path[0] for at
// least params.Limit of the last path token.
func (r *Router) SwapExactTokensForTokens(env contract.AccessibleState, caller common.Address, params SwapParams) ([]*uint256.Int, error) {
	if err := ensure(env, params.Deadline); err != nil {
		return nil, err
	}
	stateDB := env.GetStateDB()

	amounts, err := r.QuoteAmountsOut(stateDB, params.Amount, params.Path)
	if err != nil {
		return nil, err
	}
	if amounts[len(amounts)-1].Lt(params.Limit) {
		return nil, ErrInsufficientOutputAmount
	}
	if err := r.pullInput(stateDB, caller, params.Path, amounts[0]); err != nil {
		return nil, err
	}
	if err := r.swap(stateDB, amounts, params.Path, params.To); err != nil {
		return nil, err
	}
	r.emitSwap(stateDB, SwapExactInTopic, caller, params.To, params.Path, amounts)
	return amounts, nil
}

// SwapTokensForExactTokens buys exactly params.Amount of the last path
// token for at most params.Limit of path[0].
func (r *Router) SwapTokensForExactTokens(env contract.AccessibleState, caller common.Address, params SwapParams) ([]*uint256.Int, error) {
	if err := ensure(env, params.Deadline); err != nil {
		return nil, err
	}
	stateDB := env.GetStateDB()

	amounts, err := r.QuoteAmountsIn(stateDB, params.Amount, params.Path)
	if err != nil {
		return nil, err
	}
	if amounts[0].Gt(params.Limit) {
		return nil, ErrExcessiveInputAmount
	}
	if err := r.pullInput(stateDB, caller, params.Path, amounts[0]); err != nil {
		return nil, err
	}
	if err := r.swap(stateDB, amounts, params.Path, params.To); err != nil {
		return nil, err
	}
	r.emitSwap(stateDB, SwapExactOutTopic, caller, params.To, params.Path, amounts)
	return amounts, nil
}

// SwapExactTokensForTokensSupportingFee is SwapExactTokensForTokens for
// tokens that may deliver less than the amount sent. Each hop trades what
// the pool actually received, and the slippage bound is checked against
// what params.To actually received.
func (r *Router) SwapExactTokensForTokensSupportingFee(env contract.AccessibleState, caller common.Address, params SwapParams) (*uint256.Int, error) {
	if err := ensure(env, params.Deadline); err != nil {
		return nil, err
	}
	stateDB := env.GetStateDB()

	if err := r.checkPath(stateDB, params.Path); err != nil {
		return nil, err
	}
	if err := r.pullInput(stateDB, caller, params.Path, params.Amount); err != nil {
		return nil, err
	}
	tokenOut := params.Path[len(params.Path)-1]
	before := r.ledger.BalanceOf(stateDB, tokenOut, params.To)
	if err := r.swapSupportingFee(stateDB, params.Path, params.To); err != nil {
		return nil, err
	}
	after := r.ledger.BalanceOf(stateDB, tokenOut, params.To)
	received, err := checkedSub(after, before)
	if err != nil {
		return nil, err
	}
	if received.Lt(params.Limit) {
		return nil, ErrInsufficientOutputAmount
	}
	r.emitSwap(stateDB, SwapExactInTopic, caller, params.To, params.Path, []*uint256.Int{params.Amount, received})
	return received, nil
}

// SwapExactNativeForTokens wraps params.Amount of caller's native coin and
// sells it along path, which must start with the wrapped token.
func (r *Router) SwapExactNativeForTokens(env contract.AccessibleState, caller common.Address, params SwapParams) ([]*uint256.Int, error) {
	if err := ensure(env, params.Deadline); err != nil {
		return nil, err
	}
	stateDB := env.GetStateDB()

	if len(params.Path) == 0 || params.Path[0] != r.wrapped.TokenAddress() {
		return nil, fmt.Errorf("%w: path must start with the wrapped native token", ErrInvalidPath)
	}
	amounts, err := r.QuoteAmountsOut(stateDB, params.Amount, params.Path)
	if err != nil {
		return nil, err
	}
	if amounts[len(amounts)-1].Lt(params.Limit) {
		return nil, ErrInsufficientOutputAmount
	}
	first, err := r.pairFor(stateDB, params.Path[0], params.Path[1])
	if err != nil {
		return nil, err
	}
	if err := r.wrapped.Deposit(stateDB, caller, first.Address, amounts[0]); err != nil {
		return nil, fmt.Errorf("wrap native input: %w", err)
	}
	if err := r.swap(stateDB, amounts, params.Path, params.To); err != nil {
		return nil, err
	}
	r.emitSwap(stateDB, SwapExactInTopic, caller, params.To, params.Path, amounts)
	return amounts, nil
}

// SwapExactTokensForNative sells params.Amount of path[0] along path, which
// must end with the wrapped token, and pays params.To in native coin.
func (r *Router) SwapExactTokensForNative(env contract.AccessibleState, caller common.Address, params SwapParams) ([]*uint256.Int, error) {
	if err := ensure(env, params.Deadline); err != nil {
		return nil, err
	}
	stateDB := env.GetStateDB()

	if len(params.Path) == 0 || params.Path[len(params.Path)-1] != r.wrapped.TokenAddress() {
		return nil, fmt.Errorf("%w: path must end with the wrapped native token", ErrInvalidPath)
	}
	amounts, err := r.QuoteAmountsOut(stateDB, params.Amount, params.Path)
	if err != nil {
		return nil, err
	}
	amountOut := amounts[len(amounts)-1]
	if amountOut.Lt(params.Limit) {
		return nil, ErrInsufficientOutputAmount
	}
	if err := r.pullInput(stateDB, caller, params.Path, amounts[0]); err != nil {
		return nil, err
	}
	if err := r.swap(stateDB, amounts, params.Path, r.Address); err != nil {
		return nil, err
	}
	if err := r.wrapped.Withdraw(stateDB, r.Address, params.To, amountOut); err != nil {
		return nil, fmt.Errorf("unwrap native output: %w", err)
	}
	r.emitSwap(stateDB, SwapExactInTopic, caller, params.To, params.Path, amounts)
	return amounts, nil
}

// pullInput moves the first hop's input from caller into the first pool.
func (r *Router) pullInput(stateDB contract.StateDB, caller common.Address, path []common.Address, amount *uint256.Int) error {
	first, err := r.pairFor(stateDB, path[0], path[1])
	if err != nil {
		return err
	}
	if err := r.ledger.TransferFrom(stateDB, path[0], r.Address, caller, first.Address, amount); err != nil {
		return fmt.Errorf("deposit swap input: %w", err)
	}
	return nil
}

// hopRecipient is where hop i sends its output: the next pool, or to on
// the last hop.
func (r *Router) hopRecipient(stateDB contract.StateDB, path []common.Address, i int, to common.Address) (common.Address, error) {
	if i >= len(path)-2 {
		return to, nil
	}
	next, err := r.pairFor(stateDB, path[i+1], path[i+2])
	if err != nil {
		return common.Address{}, err
	}
	return next.Address, nil
}

// outputs orients amountOut onto the pool slot holding tokenOut.
func outputs(tokenOut, token0 common.Address, amountOut *uint256.Int) (*uint256.Int, *uint256.Int) {
	if tokenOut == token0 {
		return amountOut, new(uint256.Int)
	}
	return new(uint256.Int), amountOut
}

// swap executes every hop of path. The first pool must already hold
// amounts[0] of path[0].
func (r *Router) swap(stateDB contract.StateDB, amounts []*uint256.Int, path []common.Address, to common.Address) error {
	for i := 0; i < len(path)-1; i++ {
		pair, err := r.pairFor(stateDB, path[i], path[i+1])
		if err != nil {
			return err
		}
		token0, _, err := pair.Tokens(stateDB)
		if err != nil {
			return err
		}
		recipient, err := r.hopRecipient(stateDB, path, i, to)
		if err != nil {
			return err
		}
		amount0Out, amount1Out := outputs(path[i+1], token0, amounts[i+1])
		if err := pair.Swap(stateDB, amount0Out, amount1Out, recipient); err != nil {
			return fmt.Errorf("hop %d %s->%s: %w", i, path[i], path[i+1], err)
		}
	}
	return nil
}

// swapSupportingFee is swap with each hop's input taken from the pool's
// balance above its reserve.
func (r *Router) swapSupportingFee(stateDB contract.StateDB, path []common.Address, to common.Address) error {
	for i := 0; i < len(path)-1; i++ {
		input, output := path[i], path[i+1]
		pair, err := r.pairFor(stateDB, input, output)
		if err != nil {
			return err
		}
		token0, _, err := pair.Tokens(stateDB)
		if err != nil {
			return err
		}
		reserveIn, reserveOut := pair.GetReserves(stateDB).Oriented(input, token0)
		balanceIn := r.ledger.BalanceOf(stateDB, input, pair.Address)
		amountIn, err := checkedSub(balanceIn, reserveIn)
		if err != nil {
			return err
		}
		amountOut, err := AmountOut(amountIn, reserveIn, reserveOut)
		if err != nil {
			return fmt.Errorf("hop %d %s->%s: %w", i, input, output, err)
		}
		recipient, err := r.hopRecipient(stateDB, path, i, to)
		if err != nil {
			return err
		}
		amount0Out, amount1Out := outputs(output, token0, amountOut)
		if err := pair.Swap(stateDB, amount0Out, amount1Out, recipient); err != nil {
			return fmt.Errorf("hop %d %s->%s: %w", i, input, output, err)
		}
	}
	return nil
}
