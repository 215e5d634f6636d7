// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/amm/contract"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
)

// Router event topics
var (
	CreatePairTopic      = common.Keccak256Hash([]byte("CreatePair(address,address,address,uint256)"))
	AddLiquidityTopic    = common.Keccak256Hash([]byte("AddLiquidity(address,address,address,uint256,uint256,uint256)"))
	RemoveLiquidityTopic = common.Keccak256Hash([]byte("RemoveLiquidity(address,address,address,uint256,uint256,uint256)"))
	SwapExactInTopic     = common.Keccak256Hash([]byte("SwapExactIn(address,address,address[],uint256[])"))
	SwapExactOutTopic    = common.Keccak256Hash([]byte("SwapExactOut(address,address,address[],uint256[])"))
	FeeToSetTopic        = common.Keccak256Hash([]byte("FeeToSet(address)"))
	FeeToSetterSetTopic  = common.Keccak256Hash([]byte("FeeToSetterSet(address)"))
)

func (r *Router) emit(stateDB contract.StateDB, topic common.Hash, indexed []common.Hash, words ...common.Hash) {
	data := make([]byte, 0, len(words)*common.HashLength)
	for _, w := range words {
		data = append(data, w.Bytes()...)
	}
	stateDB.AddLog(&types.Log{
		Address: r.Address,
		Topics:  append([]common.Hash{topic}, indexed...),
		Data:    data,
	})
}

func (r *Router) emitCreatePair(stateDB contract.StateDB, token0, token1, pair common.Address, count uint64) {
	r.emit(stateDB, CreatePairTopic,
		[]common.Hash{addressWord(token0), addressWord(token1)},
		addressWord(pair), common.Hash(uint256.NewInt(count).Bytes32()),
	)
}

func (r *Router) emitLiquidity(
	stateDB contract.StateDB,
	topic common.Hash,
	sender, to, pair common.Address,
	amountA, amountB, liquidity *uint256.Int,
) {
	r.emit(stateDB, topic,
		[]common.Hash{addressWord(sender), addressWord(to)},
		addressWord(pair),
		common.Hash(amountA.Bytes32()),
		common.Hash(amountB.Bytes32()),
		common.Hash(liquidity.Bytes32()),
	)
}

// emitSwap logs path and amounts, each as a count word followed by one
// word per entry.
func (r *Router) emitSwap(stateDB contract.StateDB, topic common.Hash, sender, to common.Address, path []common.Address, amounts []*uint256.Int) {
	words := make([]common.Hash, 0, len(path)+len(amounts)+2)
	words = append(words, common.Hash(uint256.NewInt(uint64(len(path))).Bytes32()))
	for _, token := range path {
		words = append(words, addressWord(token))
	}
	words = append(words, common.Hash(uint256.NewInt(uint64(len(amounts))).Bytes32()))
	for _, amount := range amounts {
		words = append(words, common.Hash(amount.Bytes32()))
	}
	r.emit(stateDB, topic, []common.Hash{addressWord(sender), addressWord(to)}, words...)
}
