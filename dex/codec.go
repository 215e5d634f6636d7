// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// Call arguments are a sequence of 32-byte big-endian words. Addresses are
// right-aligned in their word. A path is a count word followed by one word
// per token.

const wordSize = common.HashLength

// maxEncodedPath bounds decoded paths before the router's own limit applies.
const maxEncodedPath = 64

type argReader struct {
	data []byte
	err  error
}

func newArgReader(data []byte) *argReader {
	return &argReader{data: data}
}

func (r *argReader) word() []byte {
	if r.err != nil {
		return make([]byte, wordSize)
	}
	if len(r.data) < wordSize {
		r.err = fmt.Errorf("%w: input too short", ErrInvalidInput)
		return make([]byte, wordSize)
	}
	w := r.data[:wordSize]
	r.data = r.data[wordSize:]
	return w
}

func (r *argReader) address() common.Address {
	w := r.word()
	for _, b := range w[:wordSize-common.AddressLength] {
		if b != 0 && r.err == nil {
			r.err = fmt.Errorf("%w: dirty address word", ErrInvalidInput)
		}
	}
	return common.BytesToAddress(w)
}

func (r *argReader) amount() *uint256.Int {
	return new(uint256.Int).SetBytes(r.word())
}

func (r *argReader) number() uint64 {
	v := r.amount()
	if !v.IsUint64() {
		if r.err == nil {
			r.err = fmt.Errorf("%w: value exceeds 64 bits", ErrInvalidInput)
		}
		return 0
	}
	return v.Uint64()
}

func (r *argReader) path() []common.Address {
	n := r.number()
	if n > maxEncodedPath {
		if r.err == nil {
			r.err = fmt.Errorf("%w: path of %d tokens", ErrInvalidPath, n)
		}
		return nil
	}
	path := make([]common.Address, n)
	for i := range path {
		path[i] = r.address()
	}
	return path
}

// done reports the first decoding error, or trailing input.
func (r *argReader) done() error {
	if r.err != nil {
		return r.err
	}
	if len(r.data) != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrInvalidInput, len(r.data))
	}
	return nil
}

func packWords(words ...common.Hash) []byte {
	out := make([]byte, 0, len(words)*wordSize)
	for _, w := range words {
		out = append(out, w.Bytes()...)
	}
	return out
}

func uintWord(v *uint256.Int) common.Hash {
	return common.Hash(v.Bytes32())
}

func addressWord(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}

func packUints(values ...*uint256.Int) []byte {
	words := make([]common.Hash, len(values))
	for i, v := range values {
		words[i] = uintWord(v)
	}
	return packWords(words...)
}

// packAmounts encodes a count word followed by the amounts.
func packAmounts(amounts []*uint256.Int) []byte {
	out := packUints(uint256.NewInt(uint64(len(amounts))))
	return append(out, packUints(amounts...)...)
}

// EncodePath is the inverse of argReader.path.
func EncodePath(path []common.Address) []byte {
	words := make([]common.Hash, 0, len(path)+1)
	words = append(words, uintWord(uint256.NewInt(uint64(len(path)))))
	for _, token := range path {
		words = append(words, addressWord(token))
	}
	return packWords(words...)
}
