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

package boc

import (
	"fmt"
	"math/big"

	"github.com/blinklabs-io/goton/address"
)

// Builder accumulates bits and refs and finalizes them into exactly one Cell.
//
// Store methods return the Builder so calls can be chained. The first failure
// is kept and every later call becomes a no-op; it is reported by Err and by
// EndCell. Any store after EndCell records ErrAlreadyFinalized.
type Builder struct {
	bits  *BitString
	refs  []*Cell
	ended bool
	err   error
}

// NewBuilder returns an empty Builder
func NewBuilder() *Builder {
	return &Builder{
		bits: NewBitString(MaxCellBits),
	}
}

// BeginCell is an alias for NewBuilder
func BeginCell() *Builder {
	return NewBuilder()
}

// Err returns the first error recorded by the Builder
func (b *Builder) Err() error {
	return b.err
}

// BitsUsed returns the number of bits stored so far
func (b *Builder) BitsUsed() int {
	return b.bits.UsedBits()
}

// FreeBits returns the number of bits that can still be stored
func (b *Builder) FreeBits() int {
	return b.bits.FreeBits()
}

// RefsNum returns the number of refs stored so far
func (b *Builder) RefsNum() int {
	return len(b.refs)
}

// FreeRefs returns the number of refs that can still be stored
func (b *Builder) FreeRefs() int {
	return MaxCellRefs - len(b.refs)
}

func (b *Builder) usable() bool {
	if b.err != nil {
		return false
	}
	if b.ended {
		b.err = ErrAlreadyFinalized
		return false
	}
	return true
}

func (b *Builder) record(err error) *Builder {
	if err != nil && b.err == nil {
		b.err = err
	}
	return b
}

// StoreBit stores a single bit
func (b *Builder) StoreBit(v bool) *Builder {
	if !b.usable() {
		return b
	}
	return b.record(b.bits.WriteBit(v))
}

// StoreBitArray stores the given bits
func (b *Builder) StoreBitArray(v []bool) *Builder {
	if !b.usable() {
		return b
	}
	return b.record(b.bits.WriteBitArray(v))
}

// StoreUint stores an unsigned integer of width bitLen
func (b *Builder) StoreUint(v uint64, bitLen int) *Builder {
	if !b.usable() {
		return b
	}
	return b.record(b.bits.WriteUint(v, bitLen))
}

// StoreBigUint stores an arbitrary-precision unsigned integer of width bitLen
func (b *Builder) StoreBigUint(v *big.Int, bitLen int) *Builder {
	if !b.usable() {
		return b
	}
	return b.record(b.bits.WriteBigUint(v, bitLen))
}

// StoreInt stores a signed integer of width bitLen
func (b *Builder) StoreInt(v int64, bitLen int) *Builder {
	if !b.usable() {
		return b
	}
	return b.record(b.bits.WriteInt(v, bitLen))
}

// StoreBigInt stores an arbitrary-precision signed integer of width bitLen
func (b *Builder) StoreBigInt(v *big.Int, bitLen int) *Builder {
	if !b.usable() {
		return b
	}
	return b.record(b.bits.WriteBigInt(v, bitLen))
}

// StoreUint8 stores a single byte
func (b *Builder) StoreUint8(v uint8) *Builder {
	if !b.usable() {
		return b
	}
	return b.record(b.bits.WriteUint8(v))
}

// StoreBytes stores raw bytes
func (b *Builder) StoreBytes(data []byte) *Builder {
	if !b.usable() {
		return b
	}
	return b.record(b.bits.WriteBytes(data))
}

// StoreString stores the UTF-8 bytes of s
func (b *Builder) StoreString(s string) *Builder {
	if !b.usable() {
		return b
	}
	return b.record(b.bits.WriteString(s))
}

// StoreVarUint stores v as a VarUInteger maxLen
func (b *Builder) StoreVarUint(v *big.Int, maxLen int) *Builder {
	if !b.usable() {
		return b
	}
	return b.record(b.bits.WriteVarUint(v, maxLen))
}

// StoreCoins stores an amount in nanocoins
func (b *Builder) StoreCoins(amount *big.Int) *Builder {
	if !b.usable() {
		return b
	}
	return b.record(b.bits.WriteCoins(amount))
}

// StoreAddress stores a MsgAddress, addr_none for nil
func (b *Builder) StoreAddress(addr *address.Address) *Builder {
	if !b.usable() {
		return b
	}
	return b.record(b.bits.WriteAddress(addr))
}

// StoreBitString stores the written bits of v
func (b *Builder) StoreBitString(v *BitString) *Builder {
	if !b.usable() {
		return b
	}
	return b.record(b.bits.WriteBitString(v))
}

// StoreRef stores a child reference
func (b *Builder) StoreRef(c *Cell) *Builder {
	if !b.usable() {
		return b
	}
	if c == nil {
		return b.record(fmt.Errorf("%w: nil cell", ErrMissingRef))
	}
	if len(b.refs) >= MaxCellRefs {
		return b.record(ErrRefsOverflow)
	}
	b.refs = append(b.refs, c)
	return b
}

// StoreMaybeRef stores a presence bit followed, when c is not nil, by a ref to c
func (b *Builder) StoreMaybeRef(c *Cell) *Builder {
	if !b.usable() {
		return b
	}
	if c == nil {
		return b.StoreBit(false)
	}
	if len(b.refs) >= MaxCellRefs {
		return b.record(ErrRefsOverflow)
	}
	return b.StoreBit(true).StoreRef(c)
}

// StoreDict stores a HashmapE: a presence bit and, for a non-empty
// dictionary, a ref to its root
func (b *Builder) StoreDict(root *Cell) *Builder {
	return b.StoreMaybeRef(root)
}

// StoreCellCopy appends the bits of c and then each of its refs
func (b *Builder) StoreCellCopy(c *Cell) *Builder {
	if !b.usable() {
		return b
	}
	if c == nil {
		return b.record(fmt.Errorf("%w: nil cell", ErrMissingRef))
	}
	if len(b.refs)+len(c.refs) > MaxCellRefs {
		return b.record(ErrRefsOverflow)
	}
	if err := b.bits.WriteBitString(c.bits); err != nil {
		return b.record(err)
	}
	b.refs = append(b.refs, c.refs...)
	return b
}

// StoreSlice appends the unread remainder of s without advancing it
func (b *Builder) StoreSlice(s *Slice) *Builder {
	if !b.usable() {
		return b
	}
	tmp := *s
	c, err := tmp.ToCell()
	if err != nil {
		return b.record(err)
	}
	return b.StoreCellCopy(c)
}

// EndCell finalizes the Builder into a new Cell. The Builder cannot be used afterward.
func (b *Builder) EndCell() (*Cell, error) {
	if !b.usable() {
		return nil, b.err
	}
	b.ended = true
	refs := make([]*Cell, len(b.refs))
	copy(refs, b.refs)
	return &Cell{
		bits: b.bits.Clone(),
		refs: refs,
	}, nil
}
