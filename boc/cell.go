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
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strings"
	"sync"
)

// HashSize is the size of a cell representation hash
const HashSize = sha256.Size

// Cell is an immutable node of the data tree: up to 1023 bits, up to 4 child
// references and an exotic flag. Cells are produced by a Builder or by
// parsing a bag of cells and may be shared between parents and goroutines.
type Cell struct {
	bits      *BitString
	refs      []*Cell
	exotic    bool
	levelMask uint8

	hashOnce sync.Once
	hash     [HashSize]byte
	depth    uint16
}

// BitsSize returns the number of data bits
func (c *Cell) BitsSize() int {
	return c.bits.UsedBits()
}

// Bits returns a copy of the cell data
func (c *Cell) Bits() *BitString {
	return c.bits.Clone()
}

// RefsNum returns the number of child references
func (c *Cell) RefsNum() int {
	return len(c.refs)
}

// Ref returns the child reference at index i
func (c *Cell) Ref(i int) (*Cell, error) {
	if i < 0 || i >= len(c.refs) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrMissingRef, i, len(c.refs))
	}
	return c.refs[i], nil
}

// Refs returns the child references
func (c *Cell) Refs() []*Cell {
	ret := make([]*Cell, len(c.refs))
	copy(ret, c.refs)
	return ret
}

// IsExotic reports whether the cell is a special cell, such as a pruned branch
func (c *Cell) IsExotic() bool {
	return c.exotic
}

// LevelMask returns the level mask carried in the cell descriptor
func (c *Cell) LevelMask() uint8 {
	return c.levelMask
}

// BeginParse returns a Slice reading this cell from the start
func (c *Cell) BeginParse() *Slice {
	return &Slice{
		data:   c.bits.data,
		length: c.bits.UsedBits(),
		refs:   c.refs,
	}
}

func (c *Cell) refsDescriptor() byte {
	d1 := byte(len(c.refs)) + c.levelMask<<5
	if c.exotic {
		d1 += 8
	}
	return d1
}

func (c *Cell) bitsDescriptor() byte {
	b := c.bits.UsedBits()
	return byte((b+7)/8 + b/8)
}

// dataWithDescriptors returns d1, d2 and the top-upped data
func (c *Cell) dataWithDescriptors() []byte {
	data := c.bits.TopUppedArray()
	ret := make([]byte, 0, 2+len(data))
	ret = append(ret, c.refsDescriptor(), c.bitsDescriptor())
	return append(ret, data...)
}

func (c *Cell) computeHash() {
	c.hashOnce.Do(func() {
		var buf bytes.Buffer
		buf.Write(c.dataWithDescriptors())
		var maxDepth uint16
		for _, r := range c.refs {
			d := r.Depth()
			buf.Write(binary.BigEndian.AppendUint16(nil, d))
			if d+1 > maxDepth {
				maxDepth = d + 1
			}
		}
		for _, r := range c.refs {
			buf.Write(r.reprHash())
		}
		c.hash = sha256.Sum256(buf.Bytes())
		c.depth = maxDepth
	})
}

func (c *Cell) reprHash() []byte {
	c.computeHash()
	return c.hash[:]
}

// Hash returns the representation hash of the cell tree rooted here
func (c *Cell) Hash() []byte {
	ret := make([]byte, HashSize)
	copy(ret, c.reprHash())
	return ret
}

// Depth returns the maximum distance to a leaf: 0 for a cell without refs
func (c *Cell) Depth() uint16 {
	c.computeHash()
	return c.depth
}

// Equal reports whether both cells have identical content
func (c *Cell) Equal(other *Cell) bool {
	if c == nil || other == nil {
		return c == other
	}
	return bytes.Equal(c.reprHash(), other.reprHash())
}

// String returns an indented hex dump of the cell tree
func (c *Cell) String() string {
	var sb strings.Builder
	c.dump(&sb, "")
	return sb.String()
}

func (c *Cell) dump(sb *strings.Builder, indent string) {
	sb.WriteString(indent)
	sb.WriteString("x{")
	sb.WriteString(c.bits.ToHex())
	sb.WriteString("}\n")
	for _, r := range c.refs {
		r.dump(sb, indent+" ")
	}
}
