// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dict

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/blinklabs-io/goton/boc"
)

// ValueEncoder stores a dictionary value into the leaf being built
type ValueEncoder[T any] interface {
	EncodeValue(b *boc.Builder, v T) error
}

// EncoderFunc adapts a plain function to ValueEncoder
type EncoderFunc[T any] func(b *boc.Builder, v T) error

func (f EncoderFunc[T]) EncodeValue(b *boc.Builder, v T) error {
	return f(b, v)
}

type labelKind int

const (
	labelShort labelKind = iota
	labelLong
	labelSame
)

// labelChooser picks the label encoding for a label within a remaining key budget of n bits
type labelChooser func(label []bool, n int) labelKind

func labelCost(kind labelKind, l int, n int) int {
	switch kind {
	case labelLong:
		return 2 + labelWidth(n) + l
	case labelSame:
		return 3 + labelWidth(n)
	default:
		return 2*l + 2
	}
}

func allEqual(label []bool) bool {
	for _, b := range label {
		if b != label[0] {
			return false
		}
	}
	return true
}

// shortestLabel prefers short, then long, then same on ties
func shortestLabel(label []bool, n int) labelKind {
	ret := labelShort
	if labelCost(labelLong, len(label), n) < labelCost(ret, len(label), n) {
		ret = labelLong
	}
	if len(label) > 0 && allEqual(label) && labelCost(labelSame, len(label), n) < labelCost(ret, len(label), n) {
		ret = labelSame
	}
	return ret
}

func writeLabel(b *boc.Builder, kind labelKind, label []bool, n int) {
	switch kind {
	case labelLong:
		b.StoreUint(2, 2).
			StoreUint(uint64(len(label)), labelWidth(n)).
			StoreBitArray(label)
	case labelSame:
		bit := len(label) > 0 && label[0]
		b.StoreUint(3, 2).
			StoreBit(bit).
			StoreUint(uint64(len(label)), labelWidth(n))
	default:
		b.StoreBit(false)
		for range label {
			b.StoreBit(true)
		}
		b.StoreBit(false).StoreBitArray(label)
	}
}

type entry[T any] struct {
	key   []bool
	value T
}

func keyBits(key string, keySize int) ([]bool, error) {
	v, ok := new(big.Int).SetString(key, 10)
	if !ok || v.Sign() < 0 || v.BitLen() > keySize {
		return nil, fmt.Errorf("%w: key %q does not fit %d bits", boc.ErrValueTooWide, key, keySize)
	}
	ret := make([]bool, keySize)
	for i := 0; i < keySize; i++ {
		ret[i] = v.Bit(keySize-1-i) == 1
	}
	return ret, nil
}

// Serialize builds the trie root cell for entries, or returns nil for an
// empty map. Store the result with Builder.StoreDict.
func Serialize[T any](entries map[string]T, keySize int, enc ValueEncoder[T]) (*boc.Cell, error) {
	return serialize(entries, keySize, enc, shortestLabel)
}

func serialize[T any](entries map[string]T, keySize int, enc ValueEncoder[T], choose labelChooser) (*boc.Cell, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	if keySize < 0 || keySize > boc.MaxCellBits {
		return nil, fmt.Errorf("%w: key size %d", boc.ErrUnsupportedFormat, keySize)
	}
	list := make([]entry[T], 0, len(entries))
	for k, v := range entries {
		bits, err := keyBits(k, keySize)
		if err != nil {
			return nil, err
		}
		list = append(list, entry[T]{key: bits, value: v})
	}
	sort.Slice(list, func(i, j int) bool {
		for k := range list[i].key {
			if list[i].key[k] != list[j].key[k] {
				return !list[i].key[k]
			}
		}
		return false
	})
	for i := 1; i < len(list); i++ {
		if equalBits(list[i-1].key, list[i].key) {
			return nil, fmt.Errorf("%w: duplicate dictionary key", boc.ErrUnsupportedFormat)
		}
	}
	return buildNode(list, 0, keySize, enc, choose)
}

func equalBits(a, b []bool) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// buildNode builds the node for sorted entries sharing key bits before offset
func buildNode[T any](list []entry[T], offset int, n int, enc ValueEncoder[T], choose labelChooser) (*boc.Cell, error) {
	first := list[0].key
	last := list[len(list)-1].key
	// Sorted keys share a prefix exactly when the first and last do
	l := 0
	for l < n && first[offset+l] == last[offset+l] {
		l++
	}
	label := first[offset : offset+l]
	b := boc.NewBuilder()
	writeLabel(b, choose(label, n), label, n)
	if l == n {
		if err := b.Err(); err != nil {
			return nil, err
		}
		if err := enc.EncodeValue(b, list[0].value); err != nil {
			return nil, err
		}
		return b.EndCell()
	}
	split := offset + l
	mid := sort.Search(len(list), func(i int) bool {
		return list[i].key[split]
	})
	left, err := buildNode(list[:mid], split+1, n-l-1, enc, choose)
	if err != nil {
		return nil, err
	}
	right, err := buildNode(list[mid:], split+1, n-l-1, enc, choose)
	if err != nil {
		return nil, err
	}
	return b.StoreRef(left).StoreRef(right).EndCell()
}
