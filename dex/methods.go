// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// Method signatures
const (
	SigGetReserves    = "getReserves(address)"
	SigGetPair        = "getPair(address,address)"
	SigAllPairsLength = "allPairsLength()"
	SigAllPairs       = "allPairs(uint256)"
	SigCreatePair     = "createPair(address,address,address)"
	SigFeeTo          = "feeTo()"
	SigFeeToSetter    = "feeToSetter()"
	SigSetFeeTo       = "setFeeTo(address)"
	SigSetFeeToSetter = "setFeeToSetter(address)"

	SigQuoteAmountsOut = "quoteAmountsOut(uint256,address[])"
	SigQuoteAmountsIn  = "quoteAmountsIn(uint256,address[])"

	SigAddLiquidity    = "addLiquidity(address,address,uint256,uint256,uint256,uint256,address,uint256)"
	SigRemoveLiquidity = "removeLiquidity(address,address,uint256,uint256,uint256,address,uint256)"

	SigSwapExactTokensForTokens              = "swapExactTokensForTokens(uint256,uint256,address[],address,uint256)"
	SigSwapTokensForExactTokens              = "swapTokensForExactTokens(uint256,uint256,address[],address,uint256)"
	SigSwapExactTokensForTokensSupportingFee = "swapExactTokensForTokensSupportingFeeOnTransferTokens(uint256,uint256,address[],address,uint256)"
	SigSwapExactNativeForTokens              = "swapExactNativeForTokens(uint256,uint256,address[],address,uint256)"
	SigSwapExactTokensForNative              = "swapExactTokensForNative(uint256,uint256,address[],address,uint256)"

	SigMint = "mint(address,address)"
	SigBurn = "burn(address,address)"
	SigSwap = "swap(address,uint256,uint256,address)"

	SigBalanceOf    = "balanceOf(address,address)"
	SigTotalSupply  = "totalSupply(address)"
	SigAllowance    = "allowance(address,address,address)"
	SigTransfer     = "transfer(address,address,uint256)"
	SigApprove      = "approve(address,address,uint256)"
	SigTransferFrom = "transferFrom(address,address,address,uint256)"
	SigDeposit      = "deposit(uint256)"
	SigWithdraw     = "withdraw(uint256)"
)

var methodTable = map[string]method{
	SigGetReserves:    {gas: GasPairLookup, run: (*Contract).getReserves},
	SigGetPair:        {gas: GasPairLookup, run: (*Contract).getPair},
	SigAllPairsLength: {gas: GasRead, run: (*Contract).allPairsLength},
	SigAllPairs:       {gas: GasPairLookup, run: (*Contract).allPairs},
	SigCreatePair:     {gas: GasCreatePair, write: true, run: (*Contract).createPair},
	SigFeeTo:          {gas: GasRead, run: (*Contract).feeTo},
	SigFeeToSetter:    {gas: GasRead, run: (*Contract).feeToSetter},
	SigSetFeeTo:       {gas: GasAdminWrite, write: true, run: (*Contract).setFeeTo},
	SigSetFeeToSetter: {gas: GasAdminWrite, write: true, run: (*Contract).setFeeToSetter},

	SigQuoteAmountsOut: {gas: GasQuote, run: (*Contract).quoteAmountsOut},
	SigQuoteAmountsIn:  {gas: GasQuote, run: (*Contract).quoteAmountsIn},

	SigAddLiquidity:    {gas: GasAddLiquidity, write: true, run: (*Contract).addLiquidity},
	SigRemoveLiquidity: {gas: GasRemoveLiquidity, write: true, run: (*Contract).removeLiquidity},

	SigSwapExactTokensForTokens:              {gas: GasQuote, write: true, run: (*Contract).swapExactTokensForTokens},
	SigSwapTokensForExactTokens:              {gas: GasQuote, write: true, run: (*Contract).swapTokensForExactTokens},
	SigSwapExactTokensForTokensSupportingFee: {gas: GasQuote, write: true, run: (*Contract).swapExactTokensForTokensSupportingFee},
	SigSwapExactNativeForTokens:              {gas: GasQuote, write: true, run: (*Contract).swapExactNativeForTokens},
	SigSwapExactTokensForNative:              {gas: GasQuote, write: true, run: (*Contract).swapExactTokensForNative},

	SigMint: {gas: GasAddLiquidity, write: true, run: (*Contract).mint},
	SigBurn: {gas: GasRemoveLiquidity, write: true, run: (*Contract).burn},
	SigSwap: {gas: GasSwapPerHop, write: true, run: (*Contract).swap},

	SigBalanceOf:    {gas: GasRead, run: (*Contract).balanceOf},
	SigTotalSupply:  {gas: GasRead, run: (*Contract).totalSupply},
	SigAllowance:    {gas: GasRead, run: (*Contract).allowance},
	SigTransfer:     {gas: GasTokenWrite, write: true, run: (*Contract).transfer},
	SigApprove:      {gas: GasTokenWrite, write: true, run: (*Contract).approve},
	SigTransferFrom: {gas: GasTokenWrite, write: true, run: (*Contract).transferFrom},
	SigDeposit:      {gas: GasTokenWrite, write: true, run: (*Contract).deposit},
	SigWithdraw:     {gas: GasTokenWrite, write: true, run: (*Contract).withdraw},
}

// =========================================================================
// Pairs and fee settings
// =========================================================================

func (c *Contract) getReserves(cl *call) ([]byte, error) {
	pairAddr := cl.args.address()
	if err := cl.args.done(); err != nil {
		return nil, err
	}
	reserves := c.router.Pair(pairAddr).GetReserves(cl.stateDB)
	return packUints(reserves.Reserve0, reserves.Reserve1), nil
}

func (c *Contract) getPair(cl *call) ([]byte, error) {
	tokenA, tokenB := cl.args.address(), cl.args.address()
	if err := cl.args.done(); err != nil {
		return nil, err
	}
	pairAddr, err := c.router.GetPair(cl.stateDB, tokenA, tokenB)
	if err != nil {
		return nil, err
	}
	return packWords(addressWord(pairAddr)), nil
}

func (c *Contract) allPairsLength(cl *call) ([]byte, error) {
	if err := cl.args.done(); err != nil {
		return nil, err
	}
	return packUints(uint256.NewInt(c.router.AllPairsLength(cl.stateDB))), nil
}

func (c *Contract) allPairs(cl *call) ([]byte, error) {
	i := cl.args.number()
	if err := cl.args.done(); err != nil {
		return nil, err
	}
	pairAddr, err := c.router.PairAt(cl.stateDB, i)
	if err != nil {
		return nil, err
	}
	return packWords(addressWord(pairAddr)), nil
}

func (c *Contract) createPair(cl *call) ([]byte, error) {
	tokenA, tokenB, pairAddr := cl.args.address(), cl.args.address(), cl.args.address()
	if err := cl.args.done(); err != nil {
		return nil, err
	}
	if err := c.router.CreatePair(cl.stateDB, tokenA, tokenB, pairAddr); err != nil {
		return nil, err
	}
	return packWords(addressWord(pairAddr)), nil
}

func (c *Contract) feeTo(cl *call) ([]byte, error) {
	if err := cl.args.done(); err != nil {
		return nil, err
	}
	return packWords(addressWord(c.router.FeeTo(cl.stateDB))), nil
}

func (c *Contract) feeToSetter(cl *call) ([]byte, error) {
	if err := cl.args.done(); err != nil {
		return nil, err
	}
	return packWords(addressWord(c.router.FeeToSetter(cl.stateDB))), nil
}

func (c *Contract) setFeeTo(cl *call) ([]byte, error) {
	feeTo := cl.args.address()
	if err := cl.args.done(); err != nil {
		return nil, err
	}
	return nil, c.router.SetFeeTo(cl.stateDB, cl.caller, feeTo)
}

func (c *Contract) setFeeToSetter(cl *call) ([]byte, error) {
	setter := cl.args.address()
	if err := cl.args.done(); err != nil {
		return nil, err
	}
	return nil, c.router.SetFeeToSetter(cl.stateDB, cl.caller, setter)
}

// =========================================================================
// Quotes
// =========================================================================

func (c *Contract) quoteAmountsOut(cl *call) ([]byte, error) {
	amountIn, path := cl.args.amount(), cl.args.path()
	if err := cl.args.done(); err != nil {
		return nil, err
	}
	if err := cl.useGas(GasQuotePerHop * uint64(len(path))); err != nil {
		return nil, err
	}
	amounts, err := c.router.QuoteAmountsOut(cl.stateDB, amountIn, path)
	if err != nil {
		return nil, err
	}
	return packAmounts(amounts), nil
}

func (c *Contract) quoteAmountsIn(cl *call) ([]byte, error) {
	amountOut, path := cl.args.amount(), cl.args.path()
	if err := cl.args.done(); err != nil {
		return nil, err
	}
	if err := cl.useGas(GasQuotePerHop * uint64(len(path))); err != nil {
		return nil, err
	}
	amounts, err := c.router.QuoteAmountsIn(cl.stateDB, amountOut, path)
	if err != nil {
		return nil, err
	}
	return packAmounts(amounts), nil
}

// =========================================================================
// Liquidity
// =========================================================================

func (c *Contract) addLiquidity(cl *call) ([]byte, error) {
	params := AddLiquidityParams{
		TokenA:         cl.args.address(),
		TokenB:         cl.args.address(),
		AmountADesired: cl.args.amount(),
		AmountBDesired: cl.args.amount(),
		AmountAMin:     cl.args.amount(),
		AmountBMin:     cl.args.amount(),
		To:             cl.args.address(),
		Deadline:       cl.args.number(),
	}
	if err := cl.args.done(); err != nil {
		return nil, err
	}
	amountA, amountB, liquidity, err := c.router.AddLiquidity(cl.env, cl.caller, params)
	if err != nil {
		return nil, err
	}
	return packUints(amountA, amountB, liquidity), nil
}

func (c *Contract) removeLiquidity(cl *call) ([]byte, error) {
	params := RemoveLiquidityParams{
		TokenA:     cl.args.address(),
		TokenB:     cl.args.address(),
		Liquidity:  cl.args.amount(),
		AmountAMin: cl.args.amount(),
		AmountBMin: cl.args.amount(),
		To:         cl.args.address(),
		Deadline:   cl.args.number(),
	}
	if err := cl.args.done(); err != nil {
		return nil, err
	}
	amountA, amountB, err := c.router.RemoveLiquidity(cl.env, cl.caller, params)
	if err != nil {
		return nil, err
	}
	return packUints(amountA, amountB), nil
}

// =========================================================================
// Swaps
// =========================================================================

// swapParams decodes (amount, limit, path, to, deadline) and charges gas
// for each hop.
func swapParams(cl *call) (SwapParams, error) {
	params := SwapParams{
		Amount:   cl.args.amount(),
		Limit:    cl.args.amount(),
		Path:     cl.args.path(),
		To:       cl.args.address(),
		Deadline: cl.args.number(),
	}
	if err := cl.args.done(); err != nil {
		return SwapParams{}, err
	}
	if len(params.Path) > 1 {
		if err := cl.useGas(GasSwapPerHop * uint64(len(params.Path)-1)); err != nil {
			return SwapParams{}, err
		}
	}
	return params, nil
}

func (c *Contract) swapExactTokensForTokens(cl *call) ([]byte, error) {
	params, err := swapParams(cl)
	if err != nil {
		return nil, err
	}
	amounts, err := c.router.SwapExactTokensForTokens(cl.env, cl.caller, params)
	if err != nil {
		return nil, err
	}
	return packAmounts(amounts), nil
}

func (c *Contract) swapTokensForExactTokens(cl *call) ([]byte, error) {
	params, err := swapParams(cl)
	if err != nil {
		return nil, err
	}
	amounts, err := c.router.SwapTokensForExactTokens(cl.env, cl.caller, params)
	if err != nil {
		return nil, err
	}
	return packAmounts(amounts), nil
}

func (c *Contract) swapExactTokensForTokensSupportingFee(cl *call) ([]byte, error) {
	params, err := swapParams(cl)
	if err != nil {
		return nil, err
	}
	received, err := c.router.SwapExactTokensForTokensSupportingFee(cl.env, cl.caller, params)
	if err != nil {
		return nil, err
	}
	return packUints(received), nil
}

func (c *Contract) swapExactNativeForTokens(cl *call) ([]byte, error) {
	params, err := swapParams(cl)
	if err != nil {
		return nil, err
	}
	amounts, err := c.router.SwapExactNativeForTokens(cl.env, cl.caller, params)
	if err != nil {
		return nil, err
	}
	return packAmounts(amounts), nil
}

func (c *Contract) swapExactTokensForNative(cl *call) ([]byte, error) {
	params, err := swapParams(cl)
	if err != nil {
		return nil, err
	}
	amounts, err := c.router.SwapExactTokensForNative(cl.env, cl.caller, params)
	if err != nil {
		return nil, err
	}
	return packAmounts(amounts), nil
}

// =========================================================================
// Pair entry points
// =========================================================================

func (c *Contract) mint(cl *call) ([]byte, error) {
	pairAddr, to := cl.args.address(), cl.args.address()
	if err := cl.args.done(); err != nil {
		return nil, err
	}
	liquidity, err := c.router.Pair(pairAddr).Mint(cl.stateDB, to)
	if err != nil {
		return nil, err
	}
	return packUints(liquidity), nil
}

func (c *Contract) burn(cl *call) ([]byte, error) {
	pairAddr, to := cl.args.address(), cl.args.address()
	if err := cl.args.done(); err != nil {
		return nil, err
	}
	amount0, amount1, err := c.router.Pair(pairAddr).Burn(cl.stateDB, to)
	if err != nil {
		return nil, err
	}
	return packUints(amount0, amount1), nil
}

func (c *Contract) swap(cl *call) ([]byte, error) {
	pairAddr := cl.args.address()
	amount0Out, amount1Out := cl.args.amount(), cl.args.amount()
	to := cl.args.address()
	if err := cl.args.done(); err != nil {
		return nil, err
	}
	return nil, c.router.Pair(pairAddr).Swap(cl.stateDB, amount0Out, amount1Out, to)
}

// =========================================================================
// Tokens
// =========================================================================

func (c *Contract) balanceOf(cl *call) ([]byte, error) {
	tokenAddr, owner := cl.args.address(), cl.args.address()
	if err := cl.args.done(); err != nil {
		return nil, err
	}
	return packUints(c.router.ledger.BalanceOf(cl.stateDB, tokenAddr, owner)), nil
}

func (c *Contract) totalSupply(cl *call) ([]byte, error) {
	tokenAddr := cl.args.address()
	if err := cl.args.done(); err != nil {
		return nil, err
	}
	return packUints(c.router.ledger.TotalSupply(cl.stateDB, tokenAddr)), nil
}

func (c *Contract) allowance(cl *call) ([]byte, error) {
	tokenAddr, owner, spender := cl.args.address(), cl.args.address(), cl.args.address()
	if err := cl.args.done(); err != nil {
		return nil, err
	}
	return packUints(c.router.ledger.Allowance(cl.stateDB, tokenAddr, owner, spender)), nil
}

func (c *Contract) transfer(cl *call) ([]byte, error) {
	tokenAddr, to, amount := cl.args.address(), cl.args.address(), cl.args.amount()
	if err := cl.args.done(); err != nil {
		return nil, err
	}
	return nil, c.router.ledger.Transfer(cl.stateDB, tokenAddr, cl.caller, to, amount)
}

func (c *Contract) approve(cl *call) ([]byte, error) {
	tokenAddr, spender, amount := cl.args.address(), cl.args.address(), cl.args.amount()
	if err := cl.args.done(); err != nil {
		return nil, err
	}
	c.router.ledger.Approve(cl.stateDB, tokenAddr, cl.caller, spender, amount)
	return nil, nil
}

func (c *Contract) transferFrom(cl *call) ([]byte, error) {
	tokenAddr, owner, to, amount := cl.args.address(), cl.args.address(), cl.args.address(), cl.args.amount()
	if err := cl.args.done(); err != nil {
		return nil, err
	}
	return nil, c.router.ledger.TransferFrom(cl.stateDB, tokenAddr, cl.caller, owner, to, amount)
}

func (c *Contract) deposit(cl *call) ([]byte, error) {
	amount := cl.args.amount()
	if err := cl.args.done(); err != nil {
		return nil, err
	}
	return nil, c.wrapped.Deposit(cl.stateDB, cl.caller, cl.caller, amount)
}

func (c *Contract) withdraw(cl *call) ([]byte, error) {
	amount := cl.args.amount()
	if err := cl.args.done(); err != nil {
		return nil, err
	}
	return nil, c.wrapped.Withdraw(cl.stateDB, cl.caller, cl.caller, amount)
}

// EncodeCall builds call input for signature from pre-encoded argument words.
func EncodeCall(signature string, args ...[]byte) []byte {
	sel := Selector(signature)
	out := []byte{byte(sel >> 24), byte(sel >> 16), byte(sel >> 8), byte(sel)}
	for _, a := range args {
		out = append(out, a...)
	}
	return out
}

// AddressArg encodes addr as a call argument word.
func AddressArg(addr common.Address) []byte {
	return addressWord(addr).Bytes()
}

// AmountArg encodes v as a call argument word.
func AmountArg(v *uint256.Int) []byte {
	b := v.Bytes32()
	return b[:]
}
