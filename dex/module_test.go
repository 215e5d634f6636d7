// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/amm/contract"
	"github.com/luxfi/amm/modules"
	"github.com/luxfi/amm/registry"
	"github.com/luxfi/amm/state"
	"github.com/luxfi/amm/token"
	"github.com/luxfi/database"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/tracing"
	"github.com/stretchr/testify/require"
)

const testGas uint64 = 10_000_000

func (e *testEnv) contract() *Contract {
	return NewContract(e.router, e.wrapped)
}

func (e *testEnv) run(t *testing.T, c *Contract, caller common.Address, input []byte) []byte {
	t.Helper()
	ret, _, err := c.Run(e, caller, e.router.Address, input, testGas, false)
	require.NoError(t, err)
	return ret
}

// words splits call output into 32-byte integers.
func words(t *testing.T, ret []byte) []*uint256.Int {
	t.Helper()
	require.Zero(t, len(ret)%wordSize)
	out := make([]*uint256.Int, 0, len(ret)/wordSize)
	for i := 0; i < len(ret); i += wordSize {
		out = append(out, new(uint256.Int).SetBytes(ret[i:i+wordSize]))
	}
	return out
}

func maxArg() []byte {
	return AmountArg(new(uint256.Int).SetAllOne())
}

func TestMethodSelectorsUnique(t *testing.T) {
	c := newTestEnv(t).contract()
	require.Len(t, c.methods, len(methodTable))
	require.Equal(t, uint32(0xa9059cbb), Selector("transfer(address,uint256)"))
}

func TestContractLiquidityAndSwap(t *testing.T) {
	e := newTestEnv(t)
	c := e.contract()

	ret := e.run(t, c, alice, EncodeCall(SigCreatePair, AddressArg(tokenB), AddressArg(tokenA), AddressArg(pairAB)))
	require.Equal(t, AddressArg(pairAB), ret)
	ret = e.run(t, c, bob, EncodeCall(SigGetPair, AddressArg(tokenB), AddressArg(tokenA)))
	require.Equal(t, AddressArg(pairAB), ret)
	require.Equal(t, []*uint256.Int{u(1)}, words(t, e.run(t, c, bob, EncodeCall(SigAllPairsLength))))
	require.Equal(t, AddressArg(pairAB), e.run(t, c, bob, EncodeCall(SigAllPairs, AmountArg(u(0)))))

	e.fund(t, tokenA, alice, 1_000_000)
	e.fund(t, tokenB, alice, 1_000_000)
	e.run(t, c, alice, EncodeCall(SigApprove, AddressArg(tokenA), AddressArg(e.router.Address), maxArg()))
	e.run(t, c, alice, EncodeCall(SigApprove, AddressArg(tokenB), AddressArg(e.router.Address), maxArg()))

	ret = e.run(t, c, alice, EncodeCall(SigAddLiquidity,
		AddressArg(tokenA), AddressArg(tokenB),
		AmountArg(u(5000)), AmountArg(u(10000)),
		AmountArg(u(0)), AmountArg(u(0)),
		AddressArg(alice), AmountArg(u(testTime)),
	))
	require.Equal(t, []*uint256.Int{u(5000), u(10000), u(6071)}, words(t, ret))

	ret = e.run(t, c, bob, EncodeCall(SigGetReserves, AddressArg(pairAB)))
	require.Equal(t, []*uint256.Int{u(5000), u(10000)}, words(t, ret))
	ret = e.run(t, c, bob, EncodeCall(SigBalanceOf, AddressArg(pairAB), AddressArg(alice)))
	require.Equal(t, []*uint256.Int{u(6071)}, words(t, ret))
	ret = e.run(t, c, bob, EncodeCall(SigTotalSupply, AddressArg(pairAB)))
	require.Equal(t, []*uint256.Int{u(7071)}, words(t, ret))

	path := EncodePath([]common.Address{tokenA, tokenB})
	expected, err := AmountOut(u(1000), u(5000), u(10000))
	require.NoError(t, err)

	ret = e.run(t, c, bob, EncodeCall(SigQuoteAmountsOut, AmountArg(u(1000)), path))
	require.Equal(t, []*uint256.Int{u(2), u(1000), expected}, words(t, ret))

	ret = e.run(t, c, alice, EncodeCall(SigSwapExactTokensForTokens,
		AmountArg(u(1000)), AmountArg(expected), path, AddressArg(bob), AmountArg(u(testTime)),
	))
	require.Equal(t, []*uint256.Int{u(2), u(1000), expected}, words(t, ret))
	ret = e.run(t, c, bob, EncodeCall(SigBalanceOf, AddressArg(tokenB), AddressArg(bob)))
	require.Equal(t, []*uint256.Int{expected}, words(t, ret))

	e.run(t, c, alice, EncodeCall(SigApprove, AddressArg(pairAB), AddressArg(e.router.Address), maxArg()))
	ret = e.run(t, c, alice, EncodeCall(SigRemoveLiquidity,
		AddressArg(tokenA), AddressArg(tokenB), AmountArg(u(1000)),
		AmountArg(u(1)), AmountArg(u(1)), AddressArg(alice), AmountArg(u(testTime)),
	))
	out := words(t, ret)
	require.Len(t, out, 2)
	require.False(t, out[0].IsZero())
	require.False(t, out[1].IsZero())
	ret = e.run(t, c, bob, EncodeCall(SigBalanceOf, AddressArg(pairAB), AddressArg(alice)))
	require.Equal(t, []*uint256.Int{u(5071)}, words(t, ret))
}

func TestContractPairEntryPoints(t *testing.T) {
	e := newTestEnv(t)
	c := e.contract()
	require.NoError(t, e.router.CreatePair(e.stateDB, tokenA, tokenB, pairAB))

	e.fund(t, tokenA, pairAB, 5000)
	e.fund(t, tokenB, pairAB, 10000)
	ret := e.run(t, c, bob, EncodeCall(SigMint, AddressArg(pairAB), AddressArg(alice)))
	require.Equal(t, []*uint256.Int{u(6071)}, words(t, ret))

	e.fund(t, tokenA, pairAB, 1000)
	out, err := AmountOut(u(1000), u(5000), u(10000))
	require.NoError(t, err)
	ret = e.run(t, c, bob, EncodeCall(SigSwap, AddressArg(pairAB), AmountArg(u(0)), AmountArg(out), AddressArg(bob)))
	require.Empty(t, ret)
	require.Equal(t, out, e.balance(tokenB, bob))

	require.NoError(t, e.ledger.Transfer(e.stateDB, pairAB, alice, pairAB, u(6071)))
	ret = e.run(t, c, bob, EncodeCall(SigBurn, AddressArg(pairAB), AddressArg(alice)))
	amounts := words(t, ret)
	require.Len(t, amounts, 2)
	require.Equal(t, amounts[0], e.balance(tokenA, alice))
	require.Equal(t, amounts[1], e.balance(tokenB, alice))
}

func TestContractRevertsFailedCall(t *testing.T) {
	e := newTestEnv(t)
	c := e.contract()
	e.seedPair(t, tokenA, tokenB, pairAB, 150000, 300000)
	e.fund(t, tokenA, pairAB, 1000)
	logs := len(e.stateDB.Logs())

	_, remaining, err := c.Run(e, bob, e.router.Address,
		EncodeCall(SigSwap, AddressArg(pairAB), AmountArg(u(0)), AmountArg(u(1983)), AddressArg(bob)),
		testGas, false,
	)
	require.ErrorIs(t, err, ErrK)
	require.Equal(t, testGas-GasSwapPerHop, remaining)
	require.True(t, e.balance(tokenB, bob).IsZero())
	require.False(t, e.router.Pair(pairAB).Locked(e.stateDB))
	require.Len(t, e.stateDB.Logs(), logs)

	e.run(t, c, bob, EncodeCall(SigSwap, AddressArg(pairAB), AmountArg(u(0)), AmountArg(u(1982)), AddressArg(bob)))
	require.Equal(t, u(1982), e.balance(tokenB, bob))
}

func TestContractGas(t *testing.T) {
	e := newTestEnv(t)
	c := e.contract()
	createPair := EncodeCall(SigCreatePair, AddressArg(tokenA), AddressArg(tokenB), AddressArg(pairAB))

	_, remaining, err := c.Run(e, alice, e.router.Address, createPair, GasCreatePair-1, false)
	require.ErrorIs(t, err, ErrOutOfGas)
	require.Zero(t, remaining)

	_, remaining, err = c.Run(e, alice, e.router.Address, createPair, GasCreatePair+7, false)
	require.NoError(t, err)
	require.Equal(t, uint64(7), remaining)

	_, remaining, err = c.Run(e, alice, e.router.Address, EncodeCall(SigGetPair, AddressArg(tokenA), AddressArg(tokenB)), testGas, true)
	require.NoError(t, err)
	require.Equal(t, testGas-GasPairLookup, remaining)

	// quotes pay per path element
	quote := EncodeCall(SigQuoteAmountsOut, AmountArg(u(1)), EncodePath([]common.Address{tokenA, tokenB}))
	_, _, err = c.Run(e, alice, e.router.Address, quote, GasQuote+GasQuotePerHop, false)
	require.ErrorIs(t, err, ErrOutOfGas)

	// swaps pay per hop
	swap := EncodeCall(SigSwapExactTokensForTokens,
		AmountArg(u(1)), AmountArg(u(0)), EncodePath([]common.Address{tokenA, tokenB, tokenC}),
		AddressArg(bob), AmountArg(u(testTime)),
	)
	_, _, err = c.Run(e, alice, e.router.Address, swap, GasQuote+GasSwapPerHop, false)
	require.ErrorIs(t, err, ErrOutOfGas)
}

func TestContractReadOnly(t *testing.T) {
	e := newTestEnv(t)
	c := e.contract()

	writes := [][]byte{
		EncodeCall(SigCreatePair, AddressArg(tokenA), AddressArg(tokenB), AddressArg(pairAB)),
		EncodeCall(SigSetFeeTo, AddressArg(feeRecipient)),
		EncodeCall(SigTransfer, AddressArg(tokenA), AddressArg(bob), AmountArg(u(1))),
		EncodeCall(SigDeposit, AmountArg(u(1))),
	}
	for _, input := range writes {
		_, remaining, err := c.Run(e, feeSetter, e.router.Address, input, testGas, true)
		require.ErrorIs(t, err, ErrWriteProtection)
		require.Equal(t, testGas, remaining)
	}
	require.Zero(t, e.router.AllPairsLength(e.stateDB))

	_, _, err := c.Run(e, alice, e.router.Address, EncodeCall(SigFeeToSetter), testGas, true)
	require.NoError(t, err)
}

func TestContractInvalidInput(t *testing.T) {
	e := newTestEnv(t)
	c := e.contract()

	dirty := AddressArg(tokenA)
	dirty[0] = 1

	tests := []struct {
		name  string
		input []byte
		err   error
	}{
		{name: "short", input: []byte{0x01, 0x02}, err: ErrInvalidInput},
		{name: "unknown selector", input: EncodeCall("unknown()"), err: ErrInvalidInput},
		{name: "missing argument", input: EncodeCall(SigGetPair, AddressArg(tokenA)), err: ErrInvalidInput},
		{name: "trailing bytes", input: EncodeCall(SigAllPairsLength, AmountArg(u(1))), err: ErrInvalidInput},
		{name: "dirty address", input: EncodeCall(SigGetPair, dirty, AddressArg(tokenB)), err: ErrInvalidInput},
		{
			name: "oversized path",
			input: EncodeCall(SigQuoteAmountsOut, AmountArg(u(1)),
				EncodePath(make([]common.Address, maxEncodedPath+1))),
			err: ErrInvalidPath,
		},
		{
			name:  "deadline beyond 64 bits",
			input: EncodeCall(SigSwapExactTokensForTokens, AmountArg(u(1)), AmountArg(u(0)), EncodePath([]common.Address{tokenA, tokenB}), AddressArg(bob), maxArg()),
			err:   ErrInvalidInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := c.Run(e, alice, e.router.Address, tt.input, testGas, false)
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestContractFeeSettings(t *testing.T) {
	e := newTestEnv(t)
	c := e.contract()
	setFeeTo := EncodeCall(SigSetFeeTo, AddressArg(feeRecipient))

	_, _, err := c.Run(e, alice, e.router.Address, setFeeTo, testGas, false)
	require.ErrorIs(t, err, ErrPermission)

	e.run(t, c, feeSetter, setFeeTo)
	require.Equal(t, AddressArg(feeRecipient), e.run(t, c, alice, EncodeCall(SigFeeTo)))

	e.run(t, c, feeSetter, EncodeCall(SigSetFeeToSetter, AddressArg(alice)))
	require.Equal(t, AddressArg(alice), e.run(t, c, bob, EncodeCall(SigFeeToSetter)))
}

func TestContractTokens(t *testing.T) {
	e := newTestEnv(t)
	c := e.contract()
	e.fund(t, tokenC, alice, 100)

	e.run(t, c, alice, EncodeCall(SigTransfer, AddressArg(tokenC), AddressArg(bob), AmountArg(u(10))))
	e.run(t, c, alice, EncodeCall(SigApprove, AddressArg(tokenC), AddressArg(bob), AmountArg(u(50))))
	e.run(t, c, bob, EncodeCall(SigTransferFrom, AddressArg(tokenC), AddressArg(alice), AddressArg(bob), AmountArg(u(20))))

	ret := e.run(t, c, bob, EncodeCall(SigBalanceOf, AddressArg(tokenC), AddressArg(bob)))
	require.Equal(t, []*uint256.Int{u(30)}, words(t, ret))
	ret = e.run(t, c, bob, EncodeCall(SigAllowance, AddressArg(tokenC), AddressArg(alice), AddressArg(bob)))
	require.Equal(t, []*uint256.Int{u(30)}, words(t, ret))

	_, _, err := c.Run(e, bob, e.router.Address,
		EncodeCall(SigTransferFrom, AddressArg(tokenC), AddressArg(alice), AddressArg(bob), AmountArg(u(31))),
		testGas, false,
	)
	require.Error(t, err)

	w := e.wrapped.TokenAddress()
	e.stateDB.AddBalance(bob, u(500), tracing.BalanceChangeTransfer)
	e.run(t, c, bob, EncodeCall(SigDeposit, AmountArg(u(300))))
	e.run(t, c, bob, EncodeCall(SigWithdraw, AmountArg(u(100))))
	require.Equal(t, u(200), e.balance(w, bob))
	require.Equal(t, u(300), e.stateDB.GetBalance(bob))
	require.Equal(t, u(200), e.stateDB.GetBalance(w))
}

// Token methods go through the same ledger the router trades with.
func TestContractTokensShareRouterLedger(t *testing.T) {
	e := newTestEnvWithLedger(t, taxedLedger{taxed: tokenC})
	c := e.contract()
	e.fund(t, tokenC, alice, 1000)

	e.run(t, c, alice, EncodeCall(SigTransfer, AddressArg(tokenC), AddressArg(bob), AmountArg(u(100))))
	ret := e.run(t, c, bob, EncodeCall(SigBalanceOf, AddressArg(tokenC), AddressArg(bob)))
	require.Equal(t, []*uint256.Int{u(99)}, words(t, ret))
	ret = e.run(t, c, bob, EncodeCall(SigTotalSupply, AddressArg(tokenC)))
	require.Equal(t, []*uint256.Int{u(999)}, words(t, ret))
}

func TestContractFailsOnStoreError(t *testing.T) {
	db := memdb.New()
	stateDB := state.New(db)
	router := NewRouter(
		ContractRouterAddress,
		token.Ledger{},
		registry.NewPairs(ContractPairRegistryAddress),
		wrappedNative,
		nil,
	)
	require.NoError(t, router.Configure(stateDB, &Config{FeeToSetter: feeSetter}))
	env := &state.Accessible{
		StateDB: stateDB,
		Block:   &state.Block{Height: 1, Time: testTime},
	}
	c := NewContract(router, wrappedNative)

	require.NoError(t, db.Close())
	_, _, err := c.Run(env, alice, router.Address,
		EncodeCall(SigApprove, AddressArg(tokenC), AddressArg(bob), AmountArg(u(50))),
		testGas, false,
	)
	require.ErrorIs(t, err, database.ErrClosed)
}

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name     string
		json     string
		expected *Config
		wantErr  bool
	}{
		{
			name:     "setter only",
			json:     `{"feeToSetter":"0x1000000000000000000000000000000000000003"}`,
			expected: &Config{FeeToSetter: feeSetter},
		},
		{
			name: "all fields",
			json: `{"feeTo":"0x1000000000000000000000000000000000000004","feeToSetter":"0x1000000000000000000000000000000000000003","maxPathLength":4}`,
			expected: &Config{
				FeeTo:         feeRecipient,
				FeeToSetter:   feeSetter,
				MaxPathLength: 4,
			},
		},
		{name: "missing setter", json: `{"feeTo":"0x1000000000000000000000000000000000000004"}`, wantErr: true},
		{name: "path too short", json: `{"feeToSetter":"0x1000000000000000000000000000000000000003","maxPathLength":1}`, wantErr: true},
		{name: "path too long", json: `{"feeToSetter":"0x1000000000000000000000000000000000000003","maxPathLength":65}`, wantErr: true},
		{name: "malformed", json: `{"feeToSetter":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseConfig([]byte(tt.json))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expected, cfg)
			require.True(t, cfg.Equal(tt.expected))
			require.Equal(t, ConfigKey, cfg.Key())
		})
	}
}

type otherConfig struct{}

func (otherConfig) Key() string                { return "other" }
func (otherConfig) Verify() error              { return nil }
func (otherConfig) Equal(contract.Config) bool { return false }

func TestConfigEqual(t *testing.T) {
	cfg := &Config{FeeToSetter: feeSetter}
	require.True(t, cfg.Equal(&Config{FeeToSetter: feeSetter}))
	require.False(t, cfg.Equal(&Config{FeeToSetter: feeSetter, MaxPathLength: 3}))
	require.False(t, cfg.Equal(otherConfig{}))
}

func TestModuleRegistered(t *testing.T) {
	m, ok := modules.GetModuleByAddress(ContractRouterAddress)
	require.True(t, ok)
	require.Equal(t, ConfigKey, m.ConfigKey)
	require.Same(t, AMMPrecompile, m.Contract)

	m, ok = modules.GetModule(ConfigKey)
	require.True(t, ok)
	require.Equal(t, ContractRouterAddress, m.Address)
}

func TestConfigurator(t *testing.T) {
	stateDB := state.New(memdb.New())
	block := &state.Block{Height: 1, Time: testTime}

	require.IsType(t, &Config{}, Module.Configurator.MakeConfig())
	require.Error(t, Module.Configurator.Configure(otherConfig{}, stateDB, block))
	require.Error(t, Module.Configurator.Configure(&Config{}, stateDB, block))

	cfg := &Config{FeeTo: feeRecipient, FeeToSetter: feeSetter}
	require.NoError(t, Module.Configurator.Configure(cfg, stateDB, block))
	require.Equal(t, feeRecipient, AMMPrecompile.Router().FeeTo(stateDB))
	require.Equal(t, feeSetter, AMMPrecompile.Router().FeeToSetter(stateDB))
}
