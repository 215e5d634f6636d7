// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/amm/contract"
	"github.com/luxfi/geth/common"
	log "github.com/luxfi/log"
	"github.com/zeebo/blake3"
)

// TokenLedger moves balances of the pair's tokens, including the pair's
// own liquidity token, which lives at the pair address.
type TokenLedger interface {
	BalanceOf(stateDB contract.StateDB, token, owner common.Address) *uint256.Int
	TotalSupply(stateDB contract.StateDB, token common.Address) *uint256.Int
	Transfer(stateDB contract.StateDB, token, from, to common.Address, amount *uint256.Int) error
	TransferFrom(stateDB contract.StateDB, token, spender, owner, to common.Address, amount *uint256.Int) error
	Mint(stateDB contract.StateDB, token, to common.Address, amount *uint256.Int) error
	Burn(stateDB contract.StateDB, token, from common.Address, amount *uint256.Int) error
}

// TokenAccounts adds allowances to TokenLedger. The router and the token
// entry points share one.
type TokenAccounts interface {
	TokenLedger
	Allowance(stateDB contract.StateDB, token, owner, spender common.Address) *uint256.Int
	Approve(stateDB contract.StateDB, token, owner, spender common.Address, amount *uint256.Int)
}

// FeeSource reports the protocol fee recipient. The zero address disables
// the protocol fee.
type FeeSource interface {
	FeeTo(stateDB contract.StateDB) common.Address
}

// MaxReserve is the largest reserve a pair tracks (2^112 - 1). Keeping
// reserves this small leaves the fee-adjusted invariant product room in
// 256 bits.
var MaxReserve = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 112), uint256.NewInt(1))

// Pair slots
var (
	reserve0Slot = makeStorageKey([]byte("pres"), []byte{0})
	reserve1Slot = makeStorageKey([]byte("pres"), []byte{1})
	kLastSlot    = makeStorageKey([]byte("pklt"), nil)
	lockedSlot   = makeStorageKey([]byte("plck"), nil)
	token0Slot   = makeStorageKey([]byte("ptok"), []byte{0})
	token1Slot   = makeStorageKey([]byte("ptok"), []byte{1})

	lockedValue = common.Hash{31: 1}
)

// makeStorageKey creates a storage key from prefix and identifier
func makeStorageKey(prefix []byte, id []byte) common.Hash {
	h := blake3.New()
	h.Write(prefix)
	h.Write(id)
	var key common.Hash
	h.Digest().Read(key[:])
	return key
}

func readUint(stateDB contract.StateDB, addr common.Address, slot common.Hash) *uint256.Int {
	v := stateDB.GetState(addr, slot)
	return new(uint256.Int).SetBytes(v.Bytes())
}

func writeUint(stateDB contract.StateDB, addr common.Address, slot common.Hash, v *uint256.Int) {
	stateDB.SetState(addr, slot, common.Hash(v.Bytes32()))
}

// Pair is a constant-product pool holding token0 and token1. All of its
// state lives in host storage under Address, so a Pair value is only a
// handle and may be created per call.
type Pair struct {
	Address common.Address

	ledger TokenLedger
	fees   FeeSource
	log    log.Logger
}

// NewPair returns a handle to the pool at addr. A nil fees disables the
// protocol fee.
func NewPair(addr common.Address, ledger TokenLedger, fees FeeSource, logger log.Logger) *Pair {
	if logger == nil {
		logger = log.NewTestLogger(log.InfoLevel)
	}
	return &Pair{
		Address: addr,
		ledger:  ledger,
		fees:    fees,
		log:     logger,
	}
}

// Initialize records the pair's tokens. token0 must sort before token1.
func (p *Pair) Initialize(stateDB contract.StateDB, token0, token1 common.Address) error {
	sorted0, sorted1, err := SortTokens(token0, token1)
	if err != nil {
		return err
	}
	if sorted0 != token0 || sorted1 != token1 {
		return fmt.Errorf("%w: tokens not in canonical order", ErrInvalidInput)
	}
	if stateDB.GetState(p.Address, token0Slot) != (common.Hash{}) {
		return ErrPairExists
	}
	stateDB.SetState(p.Address, token0Slot, common.BytesToHash(token0.Bytes()))
	stateDB.SetState(p.Address, token1Slot, common.BytesToHash(token1.Bytes()))
	return nil
}

// Tokens returns the pair's token0 and token1.
func (p *Pair) Tokens(stateDB contract.StateDB) (common.Address, common.Address, error) {
	t0 := stateDB.GetState(p.Address, token0Slot)
	if t0 == (common.Hash{}) {
		return common.Address{}, common.Address{}, ErrPairNotInitialized
	}
	t1 := stateDB.GetState(p.Address, token1Slot)
	return common.BytesToAddress(t0.Bytes()), common.BytesToAddress(t1.Bytes()), nil
}

// GetReserves returns the reserves as of the last mint, burn or swap.
func (p *Pair) GetReserves(stateDB contract.StateDB) Reserves {
	return Reserves{
		Reserve0: readUint(stateDB, p.Address, reserve0Slot),
		Reserve1: readUint(stateDB, p.Address, reserve1Slot),
	}
}

// KLast returns reserve0*reserve1 as of the last fee accrual.
func (p *Pair) KLast(stateDB contract.StateDB) *uint256.Int {
	return readUint(stateDB, p.Address, kLastSlot)
}

// TotalSupply returns the outstanding liquidity token supply.
func (p *Pair) TotalSupply(stateDB contract.StateDB) *uint256.Int {
	return p.ledger.TotalSupply(stateDB, p.Address)
}

// Locked reports whether a mint, burn or swap is executing.
func (p *Pair) Locked(stateDB contract.StateDB) bool {
	return stateDB.GetState(p.Address, lockedSlot) != (common.Hash{})
}

// lock sets the reentrancy flag. The returned func clears it and must be
// deferred by the caller.
func (p *Pair) lock(stateDB contract.StateDB) (func(), error) {
	if p.Locked(stateDB) {
		return nil, ErrLocked
	}
	stateDB.SetState(p.Address, lockedSlot, lockedValue)
	return func() {
		stateDB.SetState(p.Address, lockedSlot, common.Hash{})
	}, nil
}

func (p *Pair) balances(stateDB contract.StateDB, token0, token1 common.Address) (*uint256.Int, *uint256.Int) {
	return p.ledger.BalanceOf(stateDB, token0, p.Address), p.ledger.BalanceOf(stateDB, token1, p.Address)
}

// update overwrites the reserves with freshly observed balances.
func (p *Pair) update(stateDB contract.StateDB, balance0, balance1 *uint256.Int) error {
	if balance0.Gt(MaxReserve) || balance1.Gt(MaxReserve) {
		return ErrOverflow
	}
	writeUint(stateDB, p.Address, reserve0Slot, balance0)
	writeUint(stateDB, p.Address, reserve1Slot, balance1)
	return nil
}

// Mint credits to with liquidity for the tokens deposited since the last
// update.
func (p *Pair) Mint(stateDB contract.StateDB, to common.Address) (*uint256.Int, error) {
	unlock, err := p.lock(stateDB)
	if err != nil {
		return nil, err
	}
	defer unlock()

	token0, token1, err := p.Tokens(stateDB)
	if err != nil {
		return nil, err
	}
	reserves := p.GetReserves(stateDB)
	balance0, balance1 := p.balances(stateDB, token0, token1)
	amount0, err := checkedSub(balance0, reserves.Reserve0)
	if err != nil {
		return nil, err
	}
	amount1, err := checkedSub(balance1, reserves.Reserve1)
	if err != nil {
		return nil, err
	}

	feeOn, err := p.mintFee(stateDB, reserves)
	if err != nil {
		return nil, err
	}

	var liquidity *uint256.Int
	totalSupply := p.ledger.TotalSupply(stateDB, p.Address)
	if totalSupply.IsZero() {
		product, err := checkedMul(amount0, amount1)
		if err != nil {
			return nil, err
		}
		root := sqrt(product)
		minimum := uint256.NewInt(MinimumLiquidity)
		if !root.Gt(minimum) {
			return nil, ErrInsufficientLiquidityMinted
		}
		liquidity = root.Sub(root, minimum)
		if err := p.ledger.Mint(stateDB, p.Address, BurnAddress, minimum); err != nil {
			return nil, err
		}
	} else {
		if reserves.Reserve0.IsZero() || reserves.Reserve1.IsZero() {
			return nil, ErrInsufficientLiquidity
		}
		liquidity0, err := checkedMul(amount0, totalSupply)
		if err != nil {
			return nil, err
		}
		liquidity1, err := checkedMul(amount1, totalSupply)
		if err != nil {
			return nil, err
		}
		liquidity0.Div(liquidity0, reserves.Reserve0)
		liquidity1.Div(liquidity1, reserves.Reserve1)
		liquidity = minUint(liquidity0, liquidity1)
	}
	if liquidity.IsZero() {
		return nil, ErrInsufficientLiquidityMinted
	}
	if err := p.ledger.Mint(stateDB, p.Address, to, liquidity); err != nil {
		return nil, err
	}

	if err := p.update(stateDB, balance0, balance1); err != nil {
		return nil, err
	}
	if feeOn {
		if err := p.setKLast(stateDB, balance0, balance1); err != nil {
			return nil, err
		}
	}

	p.log.Debug("pair mint",
		"pair", p.Address,
		"to", to,
		"amount0", amount0,
		"amount1", amount1,
		"liquidity", liquidity,
	)
	return liquidity, nil
}

// Burn redeems the liquidity tokens held by the pair itself and sends the
// underlying tokens to to.
func (p *Pair) Burn(stateDB contract.StateDB, to common.Address) (*uint256.Int, *uint256.Int, error) {
	unlock, err := p.lock(stateDB)
	if err != nil {
		return nil, nil, err
	}
	defer unlock()

	token0, token1, err := p.Tokens(stateDB)
	if err != nil {
		return nil, nil, err
	}
	reserves := p.GetReserves(stateDB)
	balance0, balance1 := p.balances(stateDB, token0, token1)
	liquidity := p.ledger.BalanceOf(stateDB, p.Address, p.Address)

	feeOn, err := p.mintFee(stateDB, reserves)
	if err != nil {
		return nil, nil, err
	}

	totalSupply := p.ledger.TotalSupply(stateDB, p.Address)
	if totalSupply.IsZero() {
		return nil, nil, ErrInsufficientLiquidityBurned
	}
	amount0, err := checkedMul(liquidity, balance0)
	if err != nil {
		return nil, nil, err
	}
	amount1, err := checkedMul(liquidity, balance1)
	if err != nil {
		return nil, nil, err
	}
	amount0.Div(amount0, totalSupply)
	amount1.Div(amount1, totalSupply)
	if amount0.IsZero() || amount1.IsZero() {
		return nil, nil, ErrInsufficientLiquidityBurned
	}

	if err := p.ledger.Burn(stateDB, p.Address, p.Address, liquidity); err != nil {
		return nil, nil, err
	}
	if err := p.ledger.Transfer(stateDB, token0, p.Address, to, amount0); err != nil {
		return nil, nil, err
	}
	if err := p.ledger.Transfer(stateDB, token1, p.Address, to, amount1); err != nil {
		return nil, nil, err
	}

	balance0, balance1 = p.balances(stateDB, token0, token1)
	if err := p.update(stateDB, balance0, balance1); err != nil {
		return nil, nil, err
	}
	if feeOn {
		if err := p.setKLast(stateDB, balance0, balance1); err != nil {
			return nil, nil, err
		}
	}

	p.log.Debug("pair burn",
		"pair", p.Address,
		"to", to,
		"liquidity", liquidity,
		"amount0", amount0,
		"amount1", amount1,
	)
	return amount0, amount1, nil
}

// Swap sends the requested outputs to to and then requires the pair's
// balances to satisfy the fee-adjusted constant product.
func (p *Pair) Swap(stateDB contract.StateDB, amount0Out, amount1Out *uint256.Int, to common.Address) error {
	unlock, err := p.lock(stateDB)
	if err != nil {
		return err
	}
	defer unlock()

	if amount0Out.IsZero() && amount1Out.IsZero() {
		return ErrInsufficientOutputAmount
	}
	reserves := p.GetReserves(stateDB)
	if !amount0Out.Lt(reserves.Reserve0) || !amount1Out.Lt(reserves.Reserve1) {
		return ErrInsufficientLiquidity
	}
	token0, token1, err := p.Tokens(stateDB)
	if err != nil {
		return err
	}
	if to == token0 || to == token1 {
		return ErrInvalidTo
	}

	if !amount0Out.IsZero() {
		if err := p.ledger.Transfer(stateDB, token0, p.Address, to, amount0Out); err != nil {
			return err
		}
	}
	if !amount1Out.IsZero() {
		if err := p.ledger.Transfer(stateDB, token1, p.Address, to, amount1Out); err != nil {
			return err
		}
	}
	balance0, balance1 := p.balances(stateDB, token0, token1)

	amount0In := impliedInput(balance0, reserves.Reserve0, amount0Out)
	amount1In := impliedInput(balance1, reserves.Reserve1, amount1Out)
	if amount0In.IsZero() && amount1In.IsZero() {
		return ErrInsufficientInputAmount
	}

	adjusted0, err := adjustedBalance(balance0, amount0In)
	if err != nil {
		return err
	}
	adjusted1, err := adjustedBalance(balance1, amount1In)
	if err != nil {
		return err
	}
	product, err := checkedMul(adjusted0, adjusted1)
	if err != nil {
		return err
	}
	k, err := checkedMul(reserves.Reserve0, reserves.Reserve1)
	if err != nil {
		return err
	}
	if k, err = checkedMul(k, uint256.NewInt(FeeDenominator*FeeDenominator)); err != nil {
		return err
	}
	if product.Lt(k) {
		return ErrK
	}

	if err := p.update(stateDB, balance0, balance1); err != nil {
		return err
	}

	p.log.Debug("pair swap",
		"pair", p.Address,
		"to", to,
		"amount0In", amount0In,
		"amount1In", amount1In,
		"amount0Out", amount0Out,
		"amount1Out", amount1Out,
	)
	return nil
}

// impliedInput is how much of balance exceeds reserve - amountOut.
// amountOut < reserve has already been checked.
func impliedInput(balance, reserve, amountOut *uint256.Int) *uint256.Int {
	floor := new(uint256.Int).Sub(reserve, amountOut)
	if balance.Gt(floor) {
		return new(uint256.Int).Sub(balance, floor)
	}
	return new(uint256.Int)
}

// adjustedBalance returns balance*1000 - amountIn*2, the balance scaled by
// the fee denominator with the swap fee on amountIn removed.
func adjustedBalance(balance, amountIn *uint256.Int) (*uint256.Int, error) {
	scaled, err := checkedMul(balance, feeDenominator)
	if err != nil {
		return nil, err
	}
	fee, err := checkedMul(amountIn, uint256.NewInt(FeeDenominator-FeeNumerator))
	if err != nil {
		return nil, err
	}
	return checkedSub(scaled, fee)
}
