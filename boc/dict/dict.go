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

// Package dict reads and writes fixed-key-width dictionaries stored as
// binary tries of cells (HashmapE). Keys are unsigned integers rendered in
// base 10.
package dict

import (
	"fmt"
	"math/big"
	"math/bits"
	"strings"

	"github.com/blinklabs-io/goton/boc"
)

// ValueDecoder extracts a dictionary value from the slice positioned at a leaf
type ValueDecoder[T any] interface {
	DecodeValue(s *boc.Slice) (T, error)
}

// DecoderFunc adapts a plain function to ValueDecoder
type DecoderFunc[T any] func(s *boc.Slice) (T, error)

func (f DecoderFunc[T]) DecodeValue(s *boc.Slice) (T, error) {
	return f(s)
}

// labelWidth returns the width of the length field of long and same labels
// for a remaining key budget of n bits
func labelWidth(n int) int {
	return bits.Len(uint(n))
}

// Parse decodes the dictionary whose root is the slice s
func Parse[T any](s *boc.Slice, keySize int, dec ValueDecoder[T]) (map[string]T, error) {
	if keySize < 0 {
		return nil, fmt.Errorf("%w: negative key size %d", boc.ErrUnsupportedFormat, keySize)
	}
	ret := make(map[string]T)
	var prefix strings.Builder
	if err := doParse(&prefix, s, keySize, ret, dec); err != nil {
		return nil, err
	}
	return ret, nil
}

// ParseBitString decodes a dictionary keeping each leaf as its remaining bits
func ParseBitString(s *boc.Slice, keySize int) (map[string]*boc.BitString, error) {
	return Parse(
		s,
		keySize,
		DecoderFunc[*boc.BitString](func(s *boc.Slice) (*boc.BitString, error) {
			return s.ReadRemaining()
		}),
	)
}

// ParseRefs decodes a dictionary whose leaves hold their value in a ref
func ParseRefs(s *boc.Slice, keySize int) (map[string]*boc.Cell, error) {
	return Parse(
		s,
		keySize,
		DecoderFunc[*boc.Cell](func(s *boc.Slice) (*boc.Cell, error) {
			return s.LoadRefCell()
		}),
	)
}

// Load decodes the dictionary stored in the next ref of s
func Load[T any](s *boc.Slice, keySize int, dec ValueDecoder[T]) (map[string]T, error) {
	root, err := s.LoadRef()
	if err != nil {
		return nil, err
	}
	return Parse(root, keySize, dec)
}

// LoadOptional reads a HashmapE: a presence bit and, when set, the
// dictionary in the next ref. An absent dictionary yields an empty map.
func LoadOptional[T any](s *boc.Slice, keySize int, dec ValueDecoder[T]) (map[string]T, error) {
	present, err := s.LoadBit()
	if err != nil {
		return nil, err
	}
	if !present {
		return make(map[string]T), nil
	}
	return Load(s, keySize, dec)
}

func writeBits(sb *strings.Builder, bit bool, count int) {
	c := byte('0')
	if bit {
		c = '1'
	}
	for i := 0; i < count; i++ {
		sb.WriteByte(c)
	}
}

func readLabel(prefix *strings.Builder, s *boc.Slice, n int) (int, error) {
	lb0, err := s.LoadBit()
	if err != nil {
		return 0, err
	}
	if !lb0 {
		// hml_short
		l, err := s.ReadUnaryLength()
		if err != nil {
			return 0, err
		}
		for i := 0; i < l; i++ {
			bit, err := s.LoadBit()
			if err != nil {
				return 0, err
			}
			writeBits(prefix, bit, 1)
		}
		return l, nil
	}
	lb1, err := s.LoadBit()
	if err != nil {
		return 0, err
	}
	if !lb1 {
		// hml_long
		l, err := s.LoadUint(labelWidth(n))
		if err != nil {
			return 0, err
		}
		for i := uint64(0); i < l; i++ {
			bit, err := s.LoadBit()
			if err != nil {
				return 0, err
			}
			writeBits(prefix, bit, 1)
		}
		return int(l), nil
	}
	// hml_same
	bit, err := s.LoadBit()
	if err != nil {
		return 0, err
	}
	l, err := s.LoadUint(labelWidth(n))
	if err != nil {
		return 0, err
	}
	if l > uint64(n) {
		return 0, fmt.Errorf("%w: label length %d exceeds %d remaining key bits", boc.ErrUnsupportedFormat, l, n)
	}
	writeBits(prefix, bit, int(l))
	return int(l), nil
}

func keyString(prefix string) (string, error) {
	if prefix == "" {
		return "0", nil
	}
	v, ok := new(big.Int).SetString(prefix, 2)
	if !ok {
		return "", fmt.Errorf("%w: bad key prefix", boc.ErrUnsupportedFormat)
	}
	return v.String(), nil
}

func doParse[T any](prefix *strings.Builder, s *boc.Slice, n int, res map[string]T, dec ValueDecoder[T]) error {
	l, err := readLabel(prefix, s, n)
	if err != nil {
		return err
	}
	if l > n {
		return fmt.Errorf("%w: label length %d exceeds %d remaining key bits", boc.ErrUnsupportedFormat, l, n)
	}
	if n == l {
		key, err := keyString(prefix.String())
		if err != nil {
			return err
		}
		v, err := dec.DecodeValue(s)
		if err != nil {
			return fmt.Errorf("decode value for key %s: %w", key, err)
		}
		res[key] = v
		return nil
	}
	left, err := s.LoadRefCell()
	if err != nil {
		return err
	}
	right, err := s.LoadRefCell()
	if err != nil {
		return err
	}
	base := prefix.String()
	for i, child := range []*boc.Cell{left, right} {
		// Pruned branches stand in for subtrees that are not present
		if child.IsExotic() {
			continue
		}
		var childPrefix strings.Builder
		childPrefix.WriteString(base)
		writeBits(&childPrefix, i == 1, 1)
		if err := doParse(&childPrefix, child.BeginParse(), n-l-1, res, dec); err != nil {
			return err
		}
	}
	return nil
}
