// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/amm/contract"
	"github.com/luxfi/amm/registry"
	"github.com/luxfi/amm/state"
	"github.com/luxfi/amm/token"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

var (
	tokenA = common.HexToAddress("0x00000000000000000000000000000000000a0001")
	tokenB = common.HexToAddress("0x00000000000000000000000000000000000b0001")
	tokenC = common.HexToAddress("0x00000000000000000000000000000000000c0001")

	pairAB = common.HexToAddress("0x00000000000000000000000000000000000ab001")
	pairBC = common.HexToAddress("0x00000000000000000000000000000000000bc001")
	pairWA = common.HexToAddress("0x00000000000000000000000000000000000fa001")

	alice        = common.HexToAddress("0x1000000000000000000000000000000000000001")
	bob          = common.HexToAddress("0x1000000000000000000000000000000000000002")
	feeSetter    = common.HexToAddress("0x1000000000000000000000000000000000000003")
	feeRecipient = common.HexToAddress("0x1000000000000000000000000000000000000004")
)

const testTime uint64 = 1_700_000_000

func u(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

// staticFees is a FeeSource with a fixed recipient.
type staticFees common.Address

func (f staticFees) FeeTo(contract.StateDB) common.Address {
	return common.Address(f)
}

type testEnv struct {
	*state.Accessible
	stateDB *state.StateDB
	ledger  token.Ledger
	wrapped *token.WrappedNative
	router  *Router
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithLedger(t, token.Ledger{})
}

func newTestEnvWithLedger(t *testing.T, ledger TokenAccounts) *testEnv {
	t.Helper()
	stateDB := state.New(memdb.New())
	wrapped := token.NewWrappedNative(ContractWrappedNativeAddress)
	router := NewRouter(
		ContractRouterAddress,
		ledger,
		registry.NewPairs(ContractPairRegistryAddress),
		wrapped,
		nil,
	)
	require.NoError(t, router.Configure(stateDB, &Config{FeeToSetter: feeSetter}))
	return &testEnv{
		Accessible: &state.Accessible{
			StateDB: stateDB,
			Block:   &state.Block{Height: 1, Time: testTime},
		},
		stateDB: stateDB,
		wrapped: wrapped,
		router:  router,
	}
}

// fund mints amount of tok to owner.
func (e *testEnv) fund(t *testing.T, tok, owner common.Address, amount uint64) {
	t.Helper()
	require.NoError(t, e.ledger.Mint(e.stateDB, tok, owner, u(amount)))
}

// approveRouter gives the router an unlimited allowance over owner's tok.
func (e *testEnv) approveRouter(tok, owner common.Address) {
	e.ledger.Approve(e.stateDB, tok, owner, e.router.Address, new(uint256.Int).SetAllOne())
}

func (e *testEnv) balance(tok, owner common.Address) *uint256.Int {
	return e.ledger.BalanceOf(e.stateDB, tok, owner)
}

// seedPair creates the pair at pairAddr and seeds it with the given
// reserves, minting the initial liquidity to alice.
func (e *testEnv) seedPair(t *testing.T, tA, tB, pairAddr common.Address, amountA, amountB uint64) {
	t.Helper()
	require.NoError(t, e.router.CreatePair(e.stateDB, tA, tB, pairAddr))
	e.fund(t, tA, pairAddr, amountA)
	e.fund(t, tB, pairAddr, amountB)
	_, err := e.router.Pair(pairAddr).Mint(e.stateDB, alice)
	require.NoError(t, err)
}

func (e *testEnv) logsWithTopic(topic common.Hash) int {
	n := 0
	for _, l := range e.stateDB.Logs() {
		if len(l.Topics) > 0 && l.Topics[0] == topic {
			n++
		}
	}
	return n
}
