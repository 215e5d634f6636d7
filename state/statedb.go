// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package state implements contract.StateDB on top of a key-value database,
// with a write journal so callers can snapshot and revert.
package state

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/amm/contract"
	"github.com/luxfi/database"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/tracing"
	"github.com/luxfi/geth/core/types"
)

var _ contract.StateDB = (*StateDB)(nil)

// Key prefixes in the backing database
var (
	storagePrefix = []byte{'s'}
	balancePrefix = []byte{'b'}
	accountPrefix = []byte{'a'}
)

type journalEntry struct {
	key     []byte
	prev    []byte
	existed bool
}

type revision struct {
	journalLen int
	logsLen    int
}

// StateDB writes through to db and journals every overwritten value.
// It is not safe for concurrent use.
type StateDB struct {
	db database.Database

	journal   []journalEntry
	revisions []revision
	logs      []*types.Log

	// dbErr is the first database failure; once set, reads return zero values.
	dbErr error
}

// New returns a StateDB backed by db.
func New(db database.Database) *StateDB {
	return &StateDB{db: db}
}

// Error returns the first database error encountered, if any.
func (s *StateDB) Error() error {
	return s.dbErr
}

func (s *StateDB) setError(err error) {
	if s.dbErr == nil {
		s.dbErr = err
	}
}

func storageKey(addr common.Address, key common.Hash) []byte {
	k := make([]byte, 0, len(storagePrefix)+common.AddressLength+common.HashLength)
	k = append(k, storagePrefix...)
	k = append(k, addr.Bytes()...)
	return append(k, key.Bytes()...)
}

func addressKey(prefix []byte, addr common.Address) []byte {
	k := make([]byte, 0, len(prefix)+common.AddressLength)
	k = append(k, prefix...)
	return append(k, addr.Bytes()...)
}

func (s *StateDB) get(key []byte) ([]byte, bool) {
	if s.dbErr != nil {
		return nil, false
	}
	value, err := s.db.Get(key)
	if errors.Is(err, database.ErrNotFound) {
		return nil, false
	}
	if err != nil {
		s.setError(fmt.Errorf("state read %x: %w", key, err))
		return nil, false
	}
	return value, true
}

// put records the previous value of key and then writes value.
// A nil value deletes the key.
func (s *StateDB) put(key []byte, value []byte) {
	if s.dbErr != nil {
		return
	}
	prev, existed := s.get(key)
	s.journal = append(s.journal, journalEntry{key: key, prev: prev, existed: existed})
	s.write(key, value)
}

func (s *StateDB) write(key []byte, value []byte) {
	var err error
	if value == nil {
		err = s.db.Delete(key)
	} else {
		err = s.db.Put(key, value)
	}
	if err != nil {
		s.setError(fmt.Errorf("state write %x: %w", key, err))
	}
}

func (s *StateDB) GetState(addr common.Address, key common.Hash) common.Hash {
	value, ok := s.get(storageKey(addr, key))
	if !ok {
		return common.Hash{}
	}
	return common.BytesToHash(value)
}

// SetState stores value and returns the previous one. Zero values are deleted.
func (s *StateDB) SetState(addr common.Address, key common.Hash, value common.Hash) common.Hash {
	prev := s.GetState(addr, key)
	if prev == value {
		return prev
	}
	if value == (common.Hash{}) {
		s.put(storageKey(addr, key), nil)
	} else {
		s.put(storageKey(addr, key), value.Bytes())
	}
	return prev
}

func (s *StateDB) GetBalance(addr common.Address) *uint256.Int {
	value, ok := s.get(addressKey(balancePrefix, addr))
	if !ok {
		return new(uint256.Int)
	}
	return new(uint256.Int).SetBytes(value)
}

func (s *StateDB) setBalance(addr common.Address, amount *uint256.Int) {
	if amount.IsZero() {
		s.put(addressKey(balancePrefix, addr), nil)
		return
	}
	b := amount.Bytes32()
	s.put(addressKey(balancePrefix, addr), b[:])
}

// AddBalance credits addr and returns the previous balance.
func (s *StateDB) AddBalance(addr common.Address, amount *uint256.Int, _ tracing.BalanceChangeReason) uint256.Int {
	prev := s.GetBalance(addr)
	s.setBalance(addr, new(uint256.Int).Add(prev, amount))
	return *prev
}

// SubBalance debits addr and returns the previous balance. Callers check
// sufficiency first; the balance wraps otherwise, as it does in the EVM state.
func (s *StateDB) SubBalance(addr common.Address, amount *uint256.Int, _ tracing.BalanceChangeReason) uint256.Int {
	prev := s.GetBalance(addr)
	s.setBalance(addr, new(uint256.Int).Sub(prev, amount))
	return *prev
}

func (s *StateDB) Exist(addr common.Address) bool {
	_, ok := s.get(addressKey(accountPrefix, addr))
	return ok
}

func (s *StateDB) CreateAccount(addr common.Address) {
	if s.Exist(addr) {
		return
	}
	s.put(addressKey(accountPrefix, addr), []byte{1})
}

func (s *StateDB) AddLog(log *types.Log) {
	log.Index = uint(len(s.logs))
	s.logs = append(s.logs, log)
}

// Logs returns the logs emitted since creation, excluding reverted ones.
func (s *StateDB) Logs() []*types.Log {
	return s.logs
}

// Snapshot returns an identifier for the current state.
func (s *StateDB) Snapshot() int {
	s.revisions = append(s.revisions, revision{
		journalLen: len(s.journal),
		logsLen:    len(s.logs),
	})
	return len(s.revisions) - 1
}

// RevertToSnapshot undoes every write made after the snapshot id was taken.
// Later snapshots become invalid.
func (s *StateDB) RevertToSnapshot(id int) {
	if id < 0 || id >= len(s.revisions) {
		panic(fmt.Errorf("revision id %d cannot be reverted", id))
	}
	rev := s.revisions[id]
	for i := len(s.journal) - 1; i >= rev.journalLen; i-- {
		entry := s.journal[i]
		if entry.existed {
			s.write(entry.key, entry.prev)
		} else {
			s.write(entry.key, nil)
		}
	}
	s.journal = s.journal[:rev.journalLen]
	s.logs = s.logs[:rev.logsLen]
	s.revisions = s.revisions[:id]
}

// Finalise drops the journal; writes up to here can no longer be reverted.
func (s *StateDB) Finalise() {
	s.journal = s.journal[:0]
	s.revisions = s.revisions[:0]
}
