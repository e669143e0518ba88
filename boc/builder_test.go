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

package boc_test

import (
	"math/big"
	"testing"

	"github.com/blinklabs-io/goton/boc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCell(t *testing.T, b *boc.Builder) *boc.Cell {
	t.Helper()
	c, err := b.EndCell()
	require.NoError(t, err)
	return c
}

func TestBuilderBasic(t *testing.T) {
	c := mustCell(t, boc.NewBuilder().StoreUint(5, 8).StoreBit(true))
	assert.Equal(t, 0, c.RefsNum())
	assert.Equal(t, 9, c.BitsSize())
	s := c.BeginParse()
	v, err := s.LoadUint(8)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), v)
	bit, err := s.LoadBit()
	require.NoError(t, err)
	assert.True(t, bit)
	_, err = s.LoadBit()
	require.ErrorIs(t, err, boc.ErrCapacityExceeded)
}

func TestBuilderFinalized(t *testing.T) {
	stores := map[string]func(*boc.Builder) *boc.Builder{
		"StoreBit":      func(b *boc.Builder) *boc.Builder { return b.StoreBit(true) },
		"StoreUint":     func(b *boc.Builder) *boc.Builder { return b.StoreUint(1, 8) },
		"StoreInt":      func(b *boc.Builder) *boc.Builder { return b.StoreInt(-1, 8) },
		"StoreBytes":    func(b *boc.Builder) *boc.Builder { return b.StoreBytes([]byte{1}) },
		"StoreString":   func(b *boc.Builder) *boc.Builder { return b.StoreString("x") },
		"StoreCoins":    func(b *boc.Builder) *boc.Builder { return b.StoreCoins(big.NewInt(1)) },
		"StoreAddress":  func(b *boc.Builder) *boc.Builder { return b.StoreAddress(nil) },
		"StoreRef":      func(b *boc.Builder) *boc.Builder { return b.StoreRef(mustCell(t, boc.NewBuilder())) },
		"StoreDict":     func(b *boc.Builder) *boc.Builder { return b.StoreDict(nil) },
		"StoreCellCopy": func(b *boc.Builder) *boc.Builder { return b.StoreCellCopy(mustCell(t, boc.NewBuilder())) },
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			b := boc.NewBuilder()
			_, err := b.EndCell()
			require.NoError(t, err)
			err = store(b).Err()
			require.ErrorIs(t, err, boc.ErrAlreadyFinalized)
			require.ErrorIs(t, err, boc.ErrCapacityExceeded)
		})
	}
	b := boc.NewBuilder()
	_, err := b.EndCell()
	require.NoError(t, err)
	_, err = b.EndCell()
	require.ErrorIs(t, err, boc.ErrCapacityExceeded)
}

func TestBuilderStickyError(t *testing.T) {
	b := boc.NewBuilder().StoreUint(300, 8).StoreUint(1, 8)
	require.ErrorIs(t, b.Err(), boc.ErrValueTooWide)
	assert.Equal(t, 0, b.BitsUsed())
	_, err := b.EndCell()
	require.ErrorIs(t, err, boc.ErrValueTooWide)
}

func TestBuilderRefs(t *testing.T) {
	child := mustCell(t, boc.NewBuilder().StoreUint(7, 3))
	b := boc.NewBuilder()
	for i := 0; i < boc.MaxCellRefs; i++ {
		b.StoreRef(child)
	}
	require.NoError(t, b.Err())
	assert.Equal(t, 0, b.FreeRefs())
	b.StoreRef(child)
	require.ErrorIs(t, b.Err(), boc.ErrRefsOverflow)

	_, err := boc.NewBuilder().StoreRef(nil).EndCell()
	require.ErrorIs(t, err, boc.ErrMissingRef)
}

func TestBuilderCapacity(t *testing.T) {
	b := boc.NewBuilder().StoreBytes(make([]byte, 127)).StoreUint(0, 7)
	require.NoError(t, b.Err())
	assert.Equal(t, 0, b.FreeBits())
	b.StoreBit(false)
	require.ErrorIs(t, b.Err(), boc.ErrCapacityExceeded)
}

func TestStoreCellCopy(t *testing.T) {
	leaf := mustCell(t, boc.NewBuilder().StoreUint(1, 1))
	src := mustCell(t, boc.NewBuilder().StoreUint(0xabc, 12).StoreRef(leaf).StoreRef(leaf))
	c := mustCell(t, boc.NewBuilder().StoreBit(true).StoreCellCopy(src))
	assert.Equal(t, 13, c.BitsSize())
	assert.Equal(t, 2, c.RefsNum())
	s := c.BeginParse()
	_, err := s.LoadBit()
	require.NoError(t, err)
	v, err := s.LoadUint(12)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xabc), v)

	full := boc.NewBuilder().StoreRef(leaf).StoreRef(leaf).StoreRef(leaf)
	full.StoreCellCopy(src)
	require.ErrorIs(t, full.Err(), boc.ErrRefsOverflow)
	assert.Equal(t, 0, full.BitsUsed(), "failed copy must not store bits")
}

func TestStoreMaybeRef(t *testing.T) {
	leaf := mustCell(t, boc.NewBuilder().StoreUint(9, 4))
	c := mustCell(t, boc.NewBuilder().StoreMaybeRef(nil).StoreMaybeRef(leaf))
	assert.Equal(t, 2, c.BitsSize())
	assert.Equal(t, 1, c.RefsNum())
	s := c.BeginParse()
	got, err := s.LoadMaybeRef()
	require.NoError(t, err)
	assert.Nil(t, got)
	got, err = s.LoadMaybeRef()
	require.NoError(t, err)
	assert.True(t, leaf.Equal(got))
}

func TestSliceRefs(t *testing.T) {
	leaf := mustCell(t, boc.NewBuilder().StoreUint(3, 2))
	c := mustCell(t, boc.NewBuilder().StoreRef(leaf))
	s := c.BeginParse()
	assert.Equal(t, 1, s.FreeRefs())
	ref, err := s.LoadRef()
	require.NoError(t, err)
	v, err := ref.LoadUint(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), v)
	_, err = s.LoadRef()
	require.ErrorIs(t, err, boc.ErrMissingRef)

	c = mustCell(t, boc.NewBuilder().StoreRef(leaf).StoreRef(leaf).StoreRef(leaf).StoreRef(leaf))
	s = c.BeginParse()
	for i := 0; i < boc.MaxCellRefs; i++ {
		_, err := s.LoadRefCell()
		require.NoError(t, err)
	}
	_, err = s.LoadRefCell()
	require.ErrorIs(t, err, boc.ErrRefsOverflow)
}

func TestSliceDoesNotMutateCell(t *testing.T) {
	c := mustCell(t, boc.NewBuilder().StoreUint(0xdead, 16))
	hash := c.Hash()
	s := c.BeginParse()
	_, err := s.LoadUint(16)
	require.NoError(t, err)
	assert.Equal(t, 16, c.BitsSize())
	assert.Equal(t, hash, c.Hash())
	v, err := c.BeginParse().LoadUint(16)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xdead), v)
}

func TestSliceToCell(t *testing.T) {
	leaf := mustCell(t, boc.NewBuilder().StoreUint(1, 8))
	c := mustCell(t, boc.NewBuilder().StoreUint(0xff, 8).StoreUint(0x12, 8).StoreRef(leaf).StoreRef(leaf))
	s := c.BeginParse()
	_, err := s.LoadUint(8)
	require.NoError(t, err)
	_, err = s.LoadRefCell()
	require.NoError(t, err)
	rest, err := s.ToCell()
	require.NoError(t, err)
	expected := mustCell(t, boc.NewBuilder().StoreUint(0x12, 8).StoreRef(leaf))
	assert.True(t, expected.Equal(rest))
	assert.Equal(t, 0, s.FreeBits())
	assert.Equal(t, 0, s.FreeRefs())
}

func TestStoreSlice(t *testing.T) {
	c := mustCell(t, boc.NewBuilder().StoreUint(0xa, 4).StoreUint(0xb, 4))
	s := c.BeginParse()
	_, err := s.LoadUint(4)
	require.NoError(t, err)
	out := mustCell(t, boc.NewBuilder().StoreSlice(s))
	assert.Equal(t, "B", out.Bits().ToHex())
	assert.Equal(t, 4, s.FreeBits(), "source slice must not advance")
}

func TestReadUnaryLength(t *testing.T) {
	c := mustCell(t, boc.NewBuilder().StoreUint(0b1110, 4).StoreBit(false))
	s := c.BeginParse()
	l, err := s.ReadUnaryLength()
	require.NoError(t, err)
	assert.Equal(t, 3, l)
	l, err = s.ReadUnaryLength()
	require.NoError(t, err)
	assert.Equal(t, 0, l)
	_, err = s.ReadUnaryLength()
	require.ErrorIs(t, err, boc.ErrCapacityExceeded)
}

func TestPreloadUint(t *testing.T) {
	c := mustCell(t, boc.NewBuilder().StoreUint(0x5a, 8))
	s := c.BeginParse()
	v, err := s.PreloadUint(4)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), v)
	v, err = s.LoadUint(8)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x5a), v)
	_, err = s.LoadUint(65)
	require.ErrorIs(t, err, boc.ErrValueTooWide)
}

func TestCellHashAndDepth(t *testing.T) {
	leaf := mustCell(t, boc.NewBuilder())
	// Hash of the empty cell: sha256 of the two zero descriptor bytes
	assert.Equal(
		t,
		"96a296d224f285c67bee93c30f8a309157f0daa35dc5b87e410b78630a09cfc7",
		hexString(leaf.Hash()),
	)
	assert.Equal(t, uint16(0), leaf.Depth())
	mid := mustCell(t, boc.NewBuilder().StoreRef(leaf))
	root := mustCell(t, boc.NewBuilder().StoreRef(mid).StoreRef(leaf))
	assert.Equal(t, uint16(1), mid.Depth())
	assert.Equal(t, uint16(2), root.Depth())
	same := mustCell(t, boc.NewBuilder().StoreRef(mustCell(t, boc.NewBuilder().StoreRef(leaf))).StoreRef(leaf))
	assert.True(t, root.Equal(same))
	assert.False(t, root.Equal(mid))
}

func TestCellString(t *testing.T) {
	leaf := mustCell(t, boc.NewBuilder().StoreUint(0xab, 8))
	root := mustCell(t, boc.NewBuilder().StoreUint(1, 3).StoreRef(leaf))
	assert.Equal(t, "x{3_}\n x{AB}\n", root.String())
}
