// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package registry

import (
	"bytes"
	"errors"
	"math/big"

	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"
)

var (
	ErrPairNotFound       = errors.New("pair not found")
	ErrIdenticalAddresses = errors.New("identical token addresses")
	ErrZeroAddress        = errors.New("zero token address")
)

// Storage is the slot interface the registry persists through.
type Storage interface {
	GetState(common.Address, common.Hash) common.Hash
	SetState(common.Address, common.Hash, common.Hash) common.Hash
}

var (
	pairPrefix  = []byte("pair")
	indexPrefix = []byte("pidx")
	posPrefix   = []byte("ppos")
	countSlot   = makeStorageKey([]byte("pcnt"), nil)
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

// SortTokens returns a and b in canonical order.
func SortTokens(a, b common.Address) (common.Address, common.Address, error) {
	if a == b {
		return common.Address{}, common.Address{}, ErrIdenticalAddresses
	}
	token0, token1 := a, b
	if bytes.Compare(a.Bytes(), b.Bytes()) > 0 {
		token0, token1 = b, a
	}
	if token0 == (common.Address{}) {
		return common.Address{}, common.Address{}, ErrZeroAddress
	}
	return token0, token1, nil
}

// PairDigest is the canonical key of an unordered token pair.
func PairDigest(a, b common.Address) (common.Hash, error) {
	token0, token1, err := SortTokens(a, b)
	if err != nil {
		return common.Hash{}, err
	}
	id := make([]byte, 0, 2*common.AddressLength)
	id = append(id, token0.Bytes()...)
	id = append(id, token1.Bytes()...)
	return makeStorageKey(pairPrefix, id), nil
}

// Pairs maps unordered token pairs to pool addresses. Its slots live at
// Address.
type Pairs struct {
	Address common.Address
}

// NewPairs returns a registry stored at addr.
func NewPairs(addr common.Address) *Pairs {
	return &Pairs{Address: addr}
}

// Register maps the pair to pool. Re-registering overwrites the previous
// pool in place, both in lookups and at its enumeration index; the index
// only grows on the first registration.
func (p *Pairs) Register(db Storage, tokenA, tokenB, pool common.Address) error {
	if pool == (common.Address{}) {
		return ErrZeroAddress
	}
	digest, err := PairDigest(tokenA, tokenB)
	if err != nil {
		return err
	}
	word := common.BytesToHash(pool.Bytes())
	prev := db.SetState(p.Address, digest, word)
	if prev != (common.Hash{}) {
		// positions are stored one-based
		pos := db.GetState(p.Address, positionSlot(digest)).Big().Uint64()
		db.SetState(p.Address, indexSlot(pos-1), word)
		return nil
	}

	n := p.Len(db)
	db.SetState(p.Address, indexSlot(n), word)
	db.SetState(p.Address, positionSlot(digest), common.BigToHash(new(big.Int).SetUint64(n+1)))
	db.SetState(p.Address, countSlot, common.BigToHash(new(big.Int).SetUint64(n+1)))
	return nil
}

// Lookup returns the pool for the pair in either order.
func (p *Pairs) Lookup(db Storage, tokenA, tokenB common.Address) (common.Address, error) {
	digest, err := PairDigest(tokenA, tokenB)
	if err != nil {
		return common.Address{}, err
	}
	v := db.GetState(p.Address, digest)
	if v == (common.Hash{}) {
		return common.Address{}, ErrPairNotFound
	}
	return common.BytesToAddress(v.Bytes()), nil
}

// Len returns the number of distinct pairs ever registered.
func (p *Pairs) Len(db Storage) uint64 {
	return db.GetState(p.Address, countSlot).Big().Uint64()
}

// At returns the i-th registered pool in registration order.
func (p *Pairs) At(db Storage, i uint64) (common.Address, error) {
	if i >= p.Len(db) {
		return common.Address{}, ErrPairNotFound
	}
	return common.BytesToAddress(db.GetState(p.Address, indexSlot(i)).Bytes()), nil
}

func positionSlot(digest common.Hash) common.Hash {
	return makeStorageKey(posPrefix, digest.Bytes())
}

func indexSlot(i uint64) common.Hash {
	return makeStorageKey(indexPrefix, common.BigToHash(new(big.Int).SetUint64(i)).Bytes())
}
