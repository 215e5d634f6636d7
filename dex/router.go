// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/amm/contract"
	"github.com/luxfi/amm/modules"
	"github.com/luxfi/amm/registry"
	"github.com/luxfi/geth/common"
	log "github.com/luxfi/log"
)

// NativeWrapper converts between native coin and its wrapped token.
type NativeWrapper interface {
	TokenAddress() common.Address
	Deposit(stateDB contract.StateDB, from, to common.Address, amount *uint256.Int) error
	Withdraw(stateDB contract.StateDB, from, to common.Address, amount *uint256.Int) error
}

// Router slots
var (
	feeToSlot         = makeStorageKey([]byte("rfee"), []byte("to"))
	feeToSetterSlot   = makeStorageKey([]byte("rfee"), []byte("setter"))
	maxPathLengthSlot = makeStorageKey([]byte("rcfg"), []byte("maxPath"))
)

// AddLiquidityParams are the arguments of Router.AddLiquidity.
type AddLiquidityParams struct {
	TokenA         common.Address
	TokenB         common.Address
	AmountADesired *uint256.Int
	AmountBDesired *uint256.Int
	AmountAMin     *uint256.Int
	AmountBMin     *uint256.Int
	To             common.Address
	Deadline       uint64
}

// RemoveLiquidityParams are the arguments of Router.RemoveLiquidity.
type RemoveLiquidityParams struct {
	TokenA     common.Address
	TokenB     common.Address
	Liquidity  *uint256.Int
	AmountAMin *uint256.Int
	AmountBMin *uint256.Int
	To         common.Address
	Deadline   uint64
}

// SwapParams are the arguments of the swap entry points. For exact-input
// swaps Amount is the input and Limit the minimum output; for exact-output
// swaps Amount is the output and Limit the maximum input.
type SwapParams struct {
	Amount   *uint256.Int
	Limit    *uint256.Int
	Path     []common.Address
	To       common.Address
	Deadline uint64
}

// Router quotes and executes trades across chains of pairs. It pulls
// tokens from callers with TransferFrom, so callers approve the router's
// address first.
type Router struct {
	Address common.Address

	ledger  TokenAccounts
	pairs   *registry.Pairs
	wrapped NativeWrapper
	log     log.Logger
}

// NewRouter returns a router whose own slots live at addr.
func NewRouter(
	addr common.Address,
	ledger TokenAccounts,
	pairs *registry.Pairs,
	wrapped NativeWrapper,
	logger log.Logger,
) *Router {
	if logger == nil {
		logger = log.NewTestLogger(log.InfoLevel)
	}
	return &Router{
		Address: addr,
		ledger:  ledger,
		pairs:   pairs,
		wrapped: wrapped,
		log:     logger,
	}
}

// Pair returns a handle to the pool at addr that accrues protocol fees to
// this router's fee recipient.
func (r *Router) Pair(addr common.Address) *Pair {
	return NewPair(addr, r.ledger, r, r.log)
}

// =========================================================================
// Fee recipient
// =========================================================================

// FeeTo returns the protocol fee recipient, or the zero address when the
// protocol fee is off.
func (r *Router) FeeTo(stateDB contract.StateDB) common.Address {
	return common.BytesToAddress(stateDB.GetState(r.Address, feeToSlot).Bytes())
}

// FeeToSetter returns the account allowed to change fee settings.
func (r *Router) FeeToSetter(stateDB contract.StateDB) common.Address {
	return common.BytesToAddress(stateDB.GetState(r.Address, feeToSetterSlot).Bytes())
}

// SetFeeTo changes the protocol fee recipient. The zero address turns the
// protocol fee off.
func (r *Router) SetFeeTo(stateDB contract.StateDB, caller, feeTo common.Address) error {
	if caller != r.FeeToSetter(stateDB) {
		return ErrPermission
	}
	stateDB.SetState(r.Address, feeToSlot, common.BytesToHash(feeTo.Bytes()))
	r.emit(stateDB, FeeToSetTopic, []common.Hash{addressWord(feeTo)})
	r.log.Info("protocol fee recipient changed", "feeTo", feeTo)
	return nil
}

// SetFeeToSetter hands fee administration to setter.
func (r *Router) SetFeeToSetter(stateDB contract.StateDB, caller, setter common.Address) error {
	if caller != r.FeeToSetter(stateDB) {
		return ErrPermission
	}
	stateDB.SetState(r.Address, feeToSetterSlot, common.BytesToHash(setter.Bytes()))
	r.emit(stateDB, FeeToSetterSetTopic, []common.Hash{addressWord(setter)})
	r.log.Info("fee setter changed", "setter", setter)
	return nil
}

// Configure writes cfg into the router's slots.
func (r *Router) Configure(stateDB contract.StateDB, cfg *Config) error {
	if err := cfg.Verify(); err != nil {
		return err
	}
	stateDB.SetState(r.Address, feeToSlot, common.BytesToHash(cfg.FeeTo.Bytes()))
	stateDB.SetState(r.Address, feeToSetterSlot, common.BytesToHash(cfg.FeeToSetter.Bytes()))
	writeUint(stateDB, r.Address, maxPathLengthSlot, uint256.NewInt(uint64(cfg.MaxPathLength)))
	return nil
}

func (r *Router) maxPathLength(stateDB contract.StateDB) int {
	n := readUint(stateDB, r.Address, maxPathLengthSlot)
	if n.IsZero() || !n.IsUint64() || n.Uint64() > 1<<16 {
		return MaxPathLength
	}
	return int(n.Uint64())
}

// =========================================================================
// Pairs
// =========================================================================

// CreatePair initializes the pool at pairAddr for tokenA and tokenB and
// registers it.
func (r *Router) CreatePair(stateDB contract.StateDB, tokenA, tokenB, pairAddr common.Address) error {
	token0, token1, err := SortTokens(tokenA, tokenB)
	if err != nil {
		return err
	}
	if pairAddr == (common.Address{}) || pairAddr == token0 || pairAddr == token1 {
		return fmt.Errorf("%w: pair address %s", ErrInvalidInput, pairAddr)
	}
	if r.systemAddress(pairAddr) {
		return fmt.Errorf("%w: pair address %s is reserved", ErrInvalidInput, pairAddr)
	}
	// The pool address doubles as its liquidity token.
	if !r.ledger.TotalSupply(stateDB, pairAddr).IsZero() {
		return fmt.Errorf("%w: pair address %s already has a token supply", ErrInvalidInput, pairAddr)
	}
	if _, err := r.pairs.Lookup(stateDB, token0, token1); err == nil {
		return ErrPairExists
	}
	if err := r.Pair(pairAddr).Initialize(stateDB, token0, token1); err != nil {
		return err
	}
	if err := r.pairs.Register(stateDB, token0, token1, pairAddr); err != nil {
		return err
	}

	r.emitCreatePair(stateDB, token0, token1, pairAddr, r.pairs.Len(stateDB))
	r.log.Debug("pair created",
		"token0", token0,
		"token1", token1,
		"pair", pairAddr,
	)
	return nil
}

// systemAddress reports whether addr belongs to the router, the registry,
// the wrapped native token or any registered module.
func (r *Router) systemAddress(addr common.Address) bool {
	if addr == r.Address || addr == r.pairs.Address || addr == modules.BlackholeAddr {
		return true
	}
	if r.wrapped != nil && addr == r.wrapped.TokenAddress() {
		return true
	}
	if modules.ReservedAddress(addr) {
		return true
	}
	_, ok := modules.GetModuleByAddress(addr)
	return ok
}

// GetPair returns the pool for tokenA and tokenB in either order.
func (r *Router) GetPair(stateDB contract.StateDB, tokenA, tokenB common.Address) (common.Address, error) {
	return r.pairs.Lookup(stateDB, tokenA, tokenB)
}

// AllPairsLength returns the number of pairs ever created.
func (r *Router) AllPairsLength(stateDB contract.StateDB) uint64 {
	return r.pairs.Len(stateDB)
}

// PairAt returns the i-th created pair.
func (r *Router) PairAt(stateDB contract.StateDB, i uint64) (common.Address, error) {
	return r.pairs.At(stateDB, i)
}

func (r *Router) pairFor(stateDB contract.StateDB, tokenA, tokenB common.Address) (*Pair, error) {
	addr, err := r.pairs.Lookup(stateDB, tokenA, tokenB)
	if err != nil {
		return nil, fmt.Errorf("pair %s/%s: %w", tokenA, tokenB, err)
	}
	return r.Pair(addr), nil
}

// orientedReserves returns the reserves of the tokenIn/tokenOut pool as
// (reserveIn, reserveOut).
func (r *Router) orientedReserves(stateDB contract.StateDB, tokenIn, tokenOut common.Address) (*uint256.Int, *uint256.Int, error) {
	pair, err := r.pairFor(stateDB, tokenIn, tokenOut)
	if err != nil {
		return nil, nil, err
	}
	token0, _, err := pair.Tokens(stateDB)
	if err != nil {
		return nil, nil, err
	}
	reserveIn, reserveOut := pair.GetReserves(stateDB).Oriented(tokenIn, token0)
	return reserveIn, reserveOut, nil
}

// =========================================================================
// Quotes
// =========================================================================

func (r *Router) checkPath(stateDB contract.StateDB, path []common.Address) error {
	if len(path) < 2 || len(path) > r.maxPathLength(stateDB) {
		return fmt.Errorf("%w: %d tokens", ErrInvalidPath, len(path))
	}
	return nil
}

// QuoteAmountsOut returns the amounts received at each step of path for
// amountIn.
func (r *Router) QuoteAmountsOut(stateDB contract.StateDB, amountIn *uint256.Int, path []common.Address) ([]*uint256.Int, error) {
	if err := r.checkPath(stateDB, path); err != nil {
		return nil, err
	}
	return AmountsOut(amountIn, path, func(tokenIn, tokenOut common.Address) (*uint256.Int, *uint256.Int, error) {
		return r.orientedReserves(stateDB, tokenIn, tokenOut)
	})
}

// QuoteAmountsIn returns the amounts required at each step of path to
// receive amountOut.
func (r *Router) QuoteAmountsIn(stateDB contract.StateDB, amountOut *uint256.Int, path []common.Address) ([]*uint256.Int, error) {
	if err := r.checkPath(stateDB, path); err != nil {
		return nil, err
	}
	return AmountsIn(amountOut, path, func(tokenIn, tokenOut common.Address) (*uint256.Int, *uint256.Int, error) {
		return r.orientedReserves(stateDB, tokenIn, tokenOut)
	})
}

// =========================================================================
// Liquidity
// =========================================================================

func ensure(env contract.AccessibleState, deadline uint64) error {
	if now := env.GetBlockContext().Timestamp(); deadline < now {
		return fmt.Errorf("%w: deadline %d, block time %d", ErrExpired, deadline, now)
	}
	return nil
}

// optimalAmounts picks the deposit that keeps the pool's price, within
// the caller's desired and minimum amounts.
func (r *Router) optimalAmounts(stateDB contract.StateDB, params AddLiquidityParams) (*uint256.Int, *uint256.Int, error) {
	reserveA, reserveB, err := r.orientedReserves(stateDB, params.TokenA, params.TokenB)
	if err != nil {
		return nil, nil, err
	}
	if reserveA.IsZero() && reserveB.IsZero() {
		return params.AmountADesired.Clone(), params.AmountBDesired.Clone(), nil
	}

	amountBOptimal, err := Quote(params.AmountADesired, reserveA, reserveB)
	if err != nil {
		return nil, nil, err
	}
	if !amountBOptimal.Gt(params.AmountBDesired) {
		if amountBOptimal.Lt(params.AmountBMin) {
			return nil, nil, ErrInsufficientBAmount
		}
		return params.AmountADesired.Clone(), amountBOptimal, nil
	}

	amountAOptimal, err := Quote(params.AmountBDesired, reserveB, reserveA)
	if err != nil {
		return nil, nil, err
	}
	// amountAOptimal <= AmountADesired since amountBOptimal > AmountBDesired
	if amountAOptimal.Lt(params.AmountAMin) {
		return nil, nil, ErrInsufficientAAmount
	}
	return amountAOptimal, params.AmountBDesired.Clone(), nil
}

// AddLiquidity deposits tokens from caller at the pool's current price and
// mints liquidity to params.To.
func (r *Router) AddLiquidity(
	env contract.AccessibleState,
	caller common.Address,
	params AddLiquidityParams,
) (*uint256.Int, *uint256.Int, *uint256.Int, error) {
	if err := ensure(env, params.Deadline); err != nil {
		return nil, nil, nil, err
	}
	stateDB := env.GetStateDB()

	amountA, amountB, err := r.optimalAmounts(stateDB, params)
	if err != nil {
		return nil, nil, nil, err
	}
	pair, err := r.pairFor(stateDB, params.TokenA, params.TokenB)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := r.ledger.TransferFrom(stateDB, params.TokenA, r.Address, caller, pair.Address, amountA); err != nil {
		return nil, nil, nil, fmt.Errorf("deposit token A: %w", err)
	}
	if err := r.ledger.TransferFrom(stateDB, params.TokenB, r.Address, caller, pair.Address, amountB); err != nil {
		return nil, nil, nil, fmt.Errorf("deposit token B: %w", err)
	}
	liquidity, err := pair.Mint(stateDB, params.To)
	if err != nil {
		return nil, nil, nil, err
	}

	r.emitLiquidity(stateDB, AddLiquidityTopic, caller, params.To, pair.Address, amountA, amountB, liquidity)
	r.log.Debug("liquidity added",
		"pair", pair.Address,
		"amountA", amountA,
		"amountB", amountB,
		"liquidity", liquidity,
	)
	return amountA, amountB, liquidity, nil
}

// RemoveLiquidity burns caller's liquidity and sends the underlying tokens
// to params.To.
func (r *Router) RemoveLiquidity(
	env contract.AccessibleState,
	caller common.Address,
	params RemoveLiquidityParams,
) (*uint256.Int, *uint256.Int, error) {
	if err := ensure(env, params.Deadline); err != nil {
		return nil, nil, err
	}
	stateDB := env.GetStateDB()

	pair, err := r.pairFor(stateDB, params.TokenA, params.TokenB)
	if err != nil {
		return nil, nil, err
	}
	if err := r.ledger.TransferFrom(stateDB, pair.Address, r.Address, caller, pair.Address, params.Liquidity); err != nil {
		return nil, nil, fmt.Errorf("deposit liquidity: %w", err)
	}
	amount0, amount1, err := pair.Burn(stateDB, params.To)
	if err != nil {
		return nil, nil, err
	}
	token0, _, err := pair.Tokens(stateDB)
	if err != nil {
		return nil, nil, err
	}
	amountA, amountB := amount0, amount1
	if params.TokenA != token0 {
		amountA, amountB = amount1, amount0
	}
	if amountA.Lt(params.AmountAMin) {
		return nil, nil, ErrInsufficientAAmount
	}
	if amountB.Lt(params.AmountBMin) {
		return nil, nil, ErrInsufficientBAmount
	}

	r.emitLiquidity(stateDB, RemoveLiquidityTopic, caller, params.To, pair.Address, amountA, amountB, params.Liquidity)
	r.log.Debug("liquidity removed",
		"pair", pair.Address,
		"amountA", amountA,
		"amountB", amountB,
		"liquidity", params.Liquidity,
	)
	return amountA, amountB, nil
}
