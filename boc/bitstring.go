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
	"encoding/hex"
	"fmt"
	"math/big"
	"math/bits"
	"strings"

	"github.com/blinklabs-io/goton/address"
)

const (
	// MaxCellBits is the data capacity of a single cell
	MaxCellBits = 1023
	// MaxCellRefs is the maximum number of child references of a single cell
	MaxCellRefs = 4
)

// BitString is a fixed-capacity bit buffer with a write cursor. Bit n is
// stored MSB-first within byte n/8.
type BitString struct {
	data   []byte
	cursor int
	length int
}

// NewBitString returns an empty BitString able to hold length bits
func NewBitString(length int) *BitString {
	if length < 0 {
		length = 0
	}
	return &BitString{
		data:   make([]byte, (length+7)/8),
		length: length,
	}
}

// Length returns the capacity in bits
func (b *BitString) Length() int {
	return b.length
}

// FreeBits returns the number of bits that can still be written
func (b *BitString) FreeBits() int {
	return b.length - b.cursor
}

// UsedBits returns the number of bits written so far
func (b *BitString) UsedBits() int {
	return b.cursor
}

// UsedBytes returns the number of bytes touched by the written bits
func (b *BitString) UsedBytes() int {
	return (b.cursor + 7) / 8
}

// Bytes returns a copy of the bytes touched by the written bits. Trailing
// bits of the last byte past the cursor are zero.
func (b *BitString) Bytes() []byte {
	ret := make([]byte, b.UsedBytes())
	copy(ret, b.data)
	return ret
}

func (b *BitString) bit(n int) bool {
	return b.data[n/8]&(1<<(7-uint(n%8))) != 0
}

func (b *BitString) checkRange(n int) error {
	if n < 0 || n >= b.length {
		return CapacityError{Position: n, Length: b.length}
	}
	return nil
}

// Get returns the value of the bit at position n
func (b *BitString) Get(n int) (bool, error) {
	if err := b.checkRange(n); err != nil {
		return false, err
	}
	return b.bit(n), nil
}

// On sets the bit at position n
func (b *BitString) On(n int) error {
	if err := b.checkRange(n); err != nil {
		return err
	}
	b.data[n/8] |= 1 << (7 - uint(n%8))
	return nil
}

// Off clears the bit at position n
func (b *BitString) Off(n int) error {
	if err := b.checkRange(n); err != nil {
		return err
	}
	b.data[n/8] &^= 1 << (7 - uint(n%8))
	return nil
}

// Toggle flips the bit at position n
func (b *BitString) Toggle(n int) error {
	if err := b.checkRange(n); err != nil {
		return err
	}
	b.data[n/8] ^= 1 << (7 - uint(n%8))
	return nil
}

// ForEach calls fn for every written bit in order
func (b *BitString) ForEach(fn func(bool)) {
	for i := 0; i < b.cursor; i++ {
		fn(b.bit(i))
	}
}

// ensureFree fails when fewer than n bits remain
func (b *BitString) ensureFree(n int) error {
	if b.cursor+n > b.length {
		return CapacityError{Position: b.cursor + n - 1, Length: b.length}
	}
	return nil
}

// writeBitUnchecked assumes the caller already reserved room
func (b *BitString) writeBitUnchecked(v bool) {
	mask := byte(1 << (7 - uint(b.cursor%8)))
	if v {
		b.data[b.cursor/8] |= mask
	} else {
		b.data[b.cursor/8] &^= mask
	}
	b.cursor++
}

// WriteBit appends a single bit
func (b *BitString) WriteBit(v bool) error {
	if err := b.ensureFree(1); err != nil {
		return err
	}
	b.writeBitUnchecked(v)
	return nil
}

// WriteBitArray appends the given bits
func (b *BitString) WriteBitArray(v []bool) error {
	if err := b.ensureFree(len(v)); err != nil {
		return err
	}
	for _, bit := range v {
		b.writeBitUnchecked(bit)
	}
	return nil
}

// WriteUint appends v as a big-endian unsigned integer of width bitLen. A zero
// value is always accepted, and writes nothing when bitLen is 0.
func (b *BitString) WriteUint(v uint64, bitLen int) error {
	if bitLen < 0 || bits.Len64(v) > bitLen {
		return ValueTooWideError{Value: fmt.Sprintf("%d", v), BitWidth: bitLen}
	}
	if err := b.ensureFree(bitLen); err != nil {
		return err
	}
	for i := bitLen - 1; i >= 0; i-- {
		b.writeBitUnchecked(i < 64 && (v>>uint(i))&1 == 1)
	}
	return nil
}

// WriteBigUint is WriteUint for values wider than 64 bits
func (b *BitString) WriteBigUint(v *big.Int, bitLen int) error {
	if v == nil {
		v = new(big.Int)
	}
	if v.Sign() < 0 || bitLen < 0 || v.BitLen() > bitLen {
		return ValueTooWideError{Value: v.String(), BitWidth: bitLen}
	}
	if err := b.ensureFree(bitLen); err != nil {
		return err
	}
	for i := bitLen - 1; i >= 0; i-- {
		b.writeBitUnchecked(v.Bit(i) == 1)
	}
	return nil
}

// WriteInt appends v as a signed integer of width bitLen. For bitLen 1 only
// -1 and 0 are representable.
func (b *BitString) WriteInt(v int64, bitLen int) error {
	return b.WriteBigInt(big.NewInt(v), bitLen)
}

// WriteBigInt is WriteInt for values wider than 64 bits
func (b *BitString) WriteBigInt(v *big.Int, bitLen int) error {
	if v == nil {
		v = new(big.Int)
	}
	if bitLen == 1 {
		switch {
		case v.Cmp(big.NewInt(-1)) == 0:
			return b.WriteBit(true)
		case v.Sign() == 0:
			return b.WriteBit(false)
		}
		return ValueTooWideError{Value: v.String(), BitWidth: bitLen}
	}
	if bitLen < 1 {
		return ValueTooWideError{Value: v.String(), BitWidth: bitLen}
	}
	rest := new(big.Int).Set(v)
	if v.Sign() < 0 {
		rest.Add(rest, new(big.Int).Lsh(big.NewInt(1), uint(bitLen-1)))
	}
	// Validate before touching the buffer so a failed write leaves no sign bit behind
	if rest.Sign() < 0 || rest.BitLen() > bitLen-1 {
		return ValueTooWideError{Value: v.String(), BitWidth: bitLen}
	}
	if err := b.ensureFree(bitLen); err != nil {
		return err
	}
	b.writeBitUnchecked(v.Sign() < 0)
	return b.WriteBigUint(rest, bitLen-1)
}

// WriteUint8 appends a single byte
func (b *BitString) WriteUint8(v uint8) error {
	return b.WriteUint(uint64(v), 8)
}

// WriteBytes appends the given bytes
func (b *BitString) WriteBytes(data []byte) error {
	if err := b.ensureFree(len(data) * 8); err != nil {
		return err
	}
	if b.cursor%8 == 0 {
		copy(b.data[b.cursor/8:], data)
		b.cursor += len(data) * 8
		return nil
	}
	for _, v := range data {
		for i := 7; i >= 0; i-- {
			b.writeBitUnchecked((v>>uint(i))&1 == 1)
		}
	}
	return nil
}

// WriteString appends the UTF-8 bytes of s
func (b *BitString) WriteString(s string) error {
	return b.WriteBytes([]byte(s))
}

// varUintHeaderBits returns the width of the length prefix of VarUInteger maxLen
func varUintHeaderBits(maxLen int) int {
	if maxLen <= 1 {
		return 0
	}
	return bits.Len(uint(maxLen - 1))
}

// WriteVarUint appends v as a VarUInteger maxLen: a byte-length header wide
// enough to hold maxLen-1, followed by the minimal big-endian bytes of v.
func (b *BitString) WriteVarUint(v *big.Int, maxLen int) error {
	headerBits := varUintHeaderBits(maxLen)
	if v == nil || v.Sign() == 0 {
		return b.WriteUint(0, headerBits)
	}
	if v.Sign() < 0 {
		return ValueTooWideError{Value: v.String(), BitWidth: headerBits}
	}
	l := (v.BitLen() + 7) / 8
	if bits.Len(uint(l)) > headerBits {
		return ValueTooWideError{Value: v.String(), BitWidth: headerBits}
	}
	if err := b.ensureFree(headerBits + l*8); err != nil {
		return err
	}
	if err := b.WriteUint(uint64(l), headerBits); err != nil {
		return err
	}
	return b.WriteBigUint(v, l*8)
}

// WriteCoins appends an amount in nanocoins as VarUInteger 16
func (b *BitString) WriteCoins(amount *big.Int) error {
	return b.WriteVarUint(amount, 16)
}

// WriteGrams is an alias for WriteCoins
func (b *BitString) WriteGrams(amount *big.Int) error {
	return b.WriteCoins(amount)
}

// WriteAddress appends a MsgAddress. A nil address is stored as addr_none$00,
// anything else as addr_std$10 without anycast.
func (b *BitString) WriteAddress(addr *address.Address) error {
	if addr == nil {
		return b.WriteUint(0, 2)
	}
	if err := b.ensureFree(2 + 1 + 8 + 256); err != nil {
		return err
	}
	if err := b.WriteUint(2, 2); err != nil {
		return err
	}
	// anycast
	if err := b.WriteBit(false); err != nil {
		return err
	}
	if err := b.WriteInt(int64(addr.Workchain), 8); err != nil {
		return err
	}
	return b.WriteBytes(addr.Hash[:])
}

// WriteBitString appends the written bits of other
func (b *BitString) WriteBitString(other *BitString) error {
	n := other.cursor
	if err := b.ensureFree(n); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		b.writeBitUnchecked(other.bit(i))
	}
	return nil
}

// Clone returns a deep copy
func (b *BitString) Clone() *BitString {
	ret := &BitString{
		data:   make([]byte, len(b.data)),
		cursor: b.cursor,
		length: b.length,
	}
	copy(ret.data, b.data)
	return ret
}

// grow returns a copy with room for at least length bits
func (b *BitString) grow(length int) *BitString {
	if length < b.length {
		length = b.length
	}
	ret := NewBitString(length)
	copy(ret.data, b.data)
	ret.cursor = b.cursor
	return ret
}

// TopUppedArray returns the written bits as whole bytes. When the cursor is
// not byte aligned, a single 1 bit followed by 0 bits pads the last byte.
func (b *BitString) TopUppedArray() []byte {
	ret := b.grow((b.cursor + 7) / 8 * 8)
	if ret.cursor%8 != 0 {
		ret.writeBitUnchecked(true)
		for ret.cursor%8 != 0 {
			ret.writeBitUnchecked(false)
		}
	}
	return ret.data[:ret.cursor/8]
}

// SetTopUppedArray replaces the content with data. Unless fullfilledBytes is
// set, the terminating 1 bit is located within the trailing 7 bits, cleared,
// and the cursor moved to its position.
func (b *BitString) SetTopUppedArray(data []byte, fullfilledBytes bool) error {
	b.data = make([]byte, len(data))
	copy(b.data, data)
	b.length = len(data) * 8
	b.cursor = b.length
	if fullfilledBytes || b.length == 0 {
		return nil
	}
	for c := 0; c < 7; c++ {
		b.cursor--
		if b.bit(b.cursor) {
			b.data[b.cursor/8] &^= 1 << (7 - uint(b.cursor%8))
			return nil
		}
	}
	return ErrMalformedPadding
}

// ToHex renders the written bits in the canonical hex form. A trailing "_"
// marks a cursor that is not nibble aligned; the padding follows the
// top-upped convention at nibble granularity.
func (b *BitString) ToHex() string {
	if b.cursor%4 == 0 {
		s := strings.ToUpper(hex.EncodeToString(b.data[:b.UsedBytes()]))
		if b.cursor%8 == 0 {
			return s
		}
		return s[:len(s)-1]
	}
	tmp := b.grow((b.cursor + 4) / 4 * 4)
	tmp.writeBitUnchecked(true)
	for tmp.cursor%4 != 0 {
		tmp.writeBitUnchecked(false)
	}
	return tmp.ToHex() + "_"
}

// String returns the canonical hex form
func (b *BitString) String() string {
	return b.ToHex()
}

// ParseHexBits is the inverse of ToHex
func ParseHexBits(s string) (*BitString, error) {
	tagged := strings.HasSuffix(s, "_")
	s = strings.TrimSuffix(s, "_")
	ret := NewBitString(len(s) * 4)
	for _, c := range s {
		var v byte
		switch {
		case c >= '0' && c <= '9':
			v = byte(c - '0')
		case c >= 'a' && c <= 'f':
			v = byte(c-'a') + 10
		case c >= 'A' && c <= 'F':
			v = byte(c-'A') + 10
		default:
			return nil, fmt.Errorf("%w: invalid hex character %q", ErrUnsupportedFormat, c)
		}
		for i := 3; i >= 0; i-- {
			ret.writeBitUnchecked((v>>uint(i))&1 == 1)
		}
	}
	if !tagged {
		return ret, nil
	}
	for c := 0; c < 4 && ret.cursor > 0; c++ {
		ret.cursor--
		if ret.bit(ret.cursor) {
			ret.data[ret.cursor/8] &^= 1 << (7 - uint(ret.cursor%8))
			return ret, nil
		}
	}
	return nil, ErrMalformedPadding
}

// DecodeHex decodes a hex string into bytes
func DecodeHex(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, ErrInvalidHexLength
	}
	ret, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}
	return ret, nil
}
