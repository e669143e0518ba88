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

// Slice is a read cursor over the bits and refs of a Cell. It borrows the
// cell data and never modifies it.
type Slice struct {
	data       []byte
	length     int
	readCursor int
	refs       []*Cell
	refCursor  int
}

// FreeBits returns the number of unread bits
func (s *Slice) FreeBits() int {
	return s.length - s.readCursor
}

// FreeRefs returns the number of unread refs
func (s *Slice) FreeRefs() int {
	return len(s.refs) - s.refCursor
}

func (s *Slice) ensureBits(n int) error {
	if n < 0 || s.readCursor+n > s.length {
		return CapacityError{Position: s.readCursor + n - 1, Length: s.length}
	}
	return nil
}

func (s *Slice) nextBit() bool {
	ret := s.data[s.readCursor/8]&(1<<(7-uint(s.readCursor%8))) != 0
	s.readCursor++
	return ret
}

// LoadBit reads a single bit
func (s *Slice) LoadBit() (bool, error) {
	if err := s.ensureBits(1); err != nil {
		return false, err
	}
	return s.nextBit(), nil
}

// LoadBits reads bitLen bits into a new BitString
func (s *Slice) LoadBits(bitLen int) (*BitString, error) {
	if err := s.ensureBits(bitLen); err != nil {
		return nil, err
	}
	ret := NewBitString(bitLen)
	for i := 0; i < bitLen; i++ {
		ret.writeBitUnchecked(s.nextBit())
	}
	return ret, nil
}

// LoadBytes reads n whole bytes
func (s *Slice) LoadBytes(n int) ([]byte, error) {
	bs, err := s.LoadBits(n * 8)
	if err != nil {
		return nil, err
	}
	return bs.data, nil
}

// LoadUint reads an unsigned integer of width bitLen, which must not exceed 64.
// A width of 0 reads nothing and returns 0.
func (s *Slice) LoadUint(bitLen int) (uint64, error) {
	if bitLen > 64 {
		return 0, ValueTooWideError{Value: "uint64", BitWidth: bitLen}
	}
	if err := s.ensureBits(bitLen); err != nil {
		return 0, err
	}
	var ret uint64
	for i := 0; i < bitLen; i++ {
		ret <<= 1
		if s.nextBit() {
			ret |= 1
		}
	}
	return ret, nil
}

// PreloadUint reads an unsigned integer without advancing the cursor
func (s *Slice) PreloadUint(bitLen int) (uint64, error) {
	cursor := s.readCursor
	ret, err := s.LoadUint(bitLen)
	s.readCursor = cursor
	return ret, err
}

// LoadBigUint reads an unsigned integer of arbitrary width
func (s *Slice) LoadBigUint(bitLen int) (*big.Int, error) {
	if err := s.ensureBits(bitLen); err != nil {
		return nil, err
	}
	ret := new(big.Int)
	for i := 0; i < bitLen; i++ {
		ret.Lsh(ret, 1)
		if s.nextBit() {
			ret.SetBit(ret, 0, 1)
		}
	}
	return ret, nil
}

// LoadInt reads a signed integer of width bitLen, which must not exceed 64
func (s *Slice) LoadInt(bitLen int) (int64, error) {
	if bitLen > 64 {
		return 0, ValueTooWideError{Value: "int64", BitWidth: bitLen}
	}
	v, err := s.LoadBigInt(bitLen)
	if err != nil {
		return 0, err
	}
	return v.Int64(), nil
}

// LoadBigInt reads a signed integer of arbitrary width. A width of 1 yields -1 or 0.
func (s *Slice) LoadBigInt(bitLen int) (*big.Int, error) {
	if bitLen < 1 {
		return nil, ValueTooWideError{Value: "int", BitWidth: bitLen}
	}
	if err := s.ensureBits(bitLen); err != nil {
		return nil, err
	}
	sign := s.nextBit()
	if bitLen == 1 {
		if sign {
			return big.NewInt(-1), nil
		}
		return new(big.Int), nil
	}
	ret, err := s.LoadBigUint(bitLen - 1)
	if err != nil {
		return nil, err
	}
	if sign {
		ret.Sub(ret, new(big.Int).Lsh(big.NewInt(1), uint(bitLen-1)))
	}
	return ret, nil
}

// ReadUnaryLength counts 1 bits up to and including the terminating 0 bit
func (s *Slice) ReadUnaryLength() (int, error) {
	ret := 0
	for {
		bit, err := s.LoadBit()
		if err != nil {
			return 0, err
		}
		if !bit {
			return ret, nil
		}
		ret++
	}
}

// ReadRemaining drains all unread bits into a new BitString
func (s *Slice) ReadRemaining() (*BitString, error) {
	ret := NewBitString(max(MaxCellBits, s.FreeBits()))
	for s.readCursor < s.length {
		ret.writeBitUnchecked(s.nextBit())
	}
	return ret, nil
}

// LoadVarUint reads a VarUInteger maxLen
func (s *Slice) LoadVarUint(maxLen int) (*big.Int, error) {
	l, err := s.LoadUint(varUintHeaderBits(maxLen))
	if err != nil {
		return nil, err
	}
	if l == 0 {
		return new(big.Int), nil
	}
	return s.LoadBigUint(int(l) * 8)
}

// LoadCoins reads an amount in nanocoins
func (s *Slice) LoadCoins() (*big.Int, error) {
	return s.LoadVarUint(16)
}

// LoadAddress reads a MsgAddress. addr_none yields nil; only addr_std without
// anycast is supported.
func (s *Slice) LoadAddress() (*address.Address, error) {
	tag, err := s.LoadUint(2)
	if err != nil {
		return nil, err
	}
	if tag == 0 {
		return nil, nil
	}
	if tag != 2 {
		return nil, fmt.Errorf("%w: address tag %02b", ErrUnsupportedFormat, tag)
	}
	anycast, err := s.LoadBit()
	if err != nil {
		return nil, err
	}
	if anycast {
		return nil, fmt.Errorf("%w: anycast address", ErrUnsupportedFormat)
	}
	wc, err := s.LoadInt(8)
	if err != nil {
		return nil, err
	}
	hash, err := s.LoadBytes(32)
	if err != nil {
		return nil, err
	}
	ret := address.NewAddress(int8(wc), hash)
	return &ret, nil
}

// LoadRefCell consumes the next child reference
func (s *Slice) LoadRefCell() (*Cell, error) {
	if s.refCursor >= MaxCellRefs {
		return nil, ErrRefsOverflow
	}
	if s.refCursor >= len(s.refs) {
		return nil, ErrMissingRef
	}
	ret := s.refs[s.refCursor]
	s.refCursor++
	return ret, nil
}

// LoadRef consumes the next child reference and begins parsing it
func (s *Slice) LoadRef() (*Slice, error) {
	c, err := s.LoadRefCell()
	if err != nil {
		return nil, err
	}
	return c.BeginParse(), nil
}

// LoadMaybeRef reads a presence bit and, when set, the next child reference
func (s *Slice) LoadMaybeRef() (*Cell, error) {
	present, err := s.LoadBit()
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	return s.LoadRefCell()
}

// ToCell consumes the unread bits and refs into a new Cell
func (s *Slice) ToCell() (*Cell, error) {
	bs, err := s.LoadBits(s.FreeBits())
	if err != nil {
		return nil, err
	}
	b := NewBuilder().StoreBitString(bs)
	for s.FreeRefs() > 0 {
		ref, err := s.LoadRefCell()
		if err != nil {
			return nil, err
		}
		b.StoreRef(ref)
	}
	return b.EndCell()
}
