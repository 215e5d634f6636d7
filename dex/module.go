// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"encoding/binary"
	"fmt"

	"github.com/luxfi/amm/contract"
	"github.com/luxfi/amm/modules"
	"github.com/luxfi/amm/registry"
	"github.com/luxfi/amm/token"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/crypto"
)

var (
	_ contract.Configurator                = (*configurator)(nil)
	_ contract.StatefulPrecompiledContract = (*Contract)(nil)
)

// Well-known addresses
var (
	ContractRouterAddress        = common.HexToAddress(registry.RouterAddress)
	ContractPairRegistryAddress  = common.HexToAddress(registry.PairRegistryAddress)
	ContractWrappedNativeAddress = common.HexToAddress(registry.WrappedNativeAddress)
)

var wrappedNative = token.NewWrappedNative(ContractWrappedNativeAddress)

// AMMPrecompile is the singleton instance
var AMMPrecompile = NewContract(
	NewRouter(
		ContractRouterAddress,
		token.Ledger{},
		registry.NewPairs(ContractPairRegistryAddress),
		wrappedNative,
		nil,
	),
	wrappedNative,
)

// Module is the router module
var Module = modules.Module{
	ConfigKey:    ConfigKey,
	Address:      ContractRouterAddress,
	Contract:     AMMPrecompile,
	Configurator: &configurator{},
}

func init() {
	if err := modules.RegisterModule(Module); err != nil {
		panic(err)
	}
}

type configurator struct{}

func (*configurator) MakeConfig() contract.Config {
	return new(Config)
}

func (*configurator) Configure(cfg contract.Config, state contract.StateDB, _ contract.BlockContext) error {
	config, ok := cfg.(*Config)
	if !ok {
		return fmt.Errorf("expected config type %T, got %T: %v", &Config{}, cfg, cfg)
	}
	return AMMPrecompile.router.Configure(state, config)
}

// Selector returns the 4-byte method id of signature.
func Selector(signature string) uint32 {
	return binary.BigEndian.Uint32(crypto.Keccak256([]byte(signature))[:4])
}

// call carries one invocation through a method handler.
type call struct {
	env     contract.AccessibleState
	stateDB contract.StateDB
	caller  common.Address
	args    *argReader
	gas     uint64
}

func (c *call) useGas(amount uint64) error {
	if c.gas < amount {
		c.gas = 0
		return ErrOutOfGas
	}
	c.gas -= amount
	return nil
}

type method struct {
	gas   uint64
	write bool
	run   func(*Contract, *call) ([]byte, error)
}

// Contract exposes the router, its pairs and the token ledger through
// selector dispatch.
type Contract struct {
	router  *Router
	wrapped *token.WrappedNative
	methods map[uint32]method
}

// NewContract returns a dispatcher over router. The token methods use the
// router's ledger; wrapped backs the deposit and withdraw methods.
func NewContract(router *Router, wrapped *token.WrappedNative) *Contract {
	c := &Contract{
		router:  router,
		wrapped: wrapped,
		methods: make(map[uint32]method),
	}
	for signature, m := range methodTable {
		c.methods[Selector(signature)] = m
	}
	return c
}

// Router returns the router behind the contract.
func (c *Contract) Router() *Router {
	return c.router
}

// Run executes the precompile. Any failing call leaves the state as it was
// before the call.
func (c *Contract) Run(
	accessibleState contract.AccessibleState,
	caller common.Address,
	addr common.Address,
	input []byte,
	suppliedGas uint64,
	readOnly bool,
) (ret []byte, remainingGas uint64, err error) {
	if len(input) < 4 {
		return nil, suppliedGas, fmt.Errorf("%w: input too short", ErrInvalidInput)
	}

	selector := binary.BigEndian.Uint32(input[:4])
	m, ok := c.methods[selector]
	if !ok {
		return nil, suppliedGas, fmt.Errorf("%w: unknown method selector %x", ErrInvalidInput, selector)
	}
	if m.write && readOnly {
		return nil, suppliedGas, ErrWriteProtection
	}

	stateDB := accessibleState.GetStateDB()
	cl := &call{
		env:     accessibleState,
		stateDB: stateDB,
		caller:  caller,
		args:    newArgReader(input[4:]),
		gas:     suppliedGas,
	}
	if err := cl.useGas(m.gas); err != nil {
		return nil, 0, err
	}

	snapshot := stateDB.Snapshot()
	ret, err = m.run(c, cl)
	if err == nil {
		err = stateDB.Error()
	}
	if err != nil {
		stateDB.RevertToSnapshot(snapshot)
		return nil, cl.gas, err
	}
	return ret, cl.gas, nil
}
