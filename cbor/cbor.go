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

package cbor

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/blinklabs-io/goton/boc"
)

// Useful for embedding and easier to remember
type StructAsArray struct {
	// Tells the CBOR decoder to convert to/from a struct and a CBOR array
	_ struct{} `cbor:",toarray"`
}

var (
	ErrHashMismatch = errors.New("cell hash mismatch")
	ErrExoticCell   = errors.New("exotic cells cannot be rebuilt")
)

// Cell is the CBOR form of a cell and its subtree
type Cell struct {
	StructAsArray
	Bits   string
	Refs   []Cell
	Hash   []byte
	Exotic bool
}

// FromCell converts c and its subtree
func FromCell(c *boc.Cell) Cell {
	ret := Cell{
		Bits:   c.Bits().ToHex(),
		Hash:   c.Hash(),
		Exotic: c.IsExotic(),
	}
	for _, ref := range c.Refs() {
		ret.Refs = append(ret.Refs, FromCell(ref))
	}
	return ret
}

// ToCell rebuilds the cell tree. A non-empty Hash must match the rebuilt cell.
func (c Cell) ToCell() (*boc.Cell, error) {
	if c.Exotic {
		return nil, ErrExoticCell
	}
	bits, err := boc.ParseHexBits(c.Bits)
	if err != nil {
		return nil, err
	}
	b := boc.NewBuilder().StoreBitString(bits)
	for _, ref := range c.Refs {
		child, err := ref.ToCell()
		if err != nil {
			return nil, err
		}
		b.StoreRef(child)
	}
	ret, err := b.EndCell()
	if err != nil {
		return nil, err
	}
	if len(c.Hash) > 0 && !bytes.Equal(c.Hash, ret.Hash()) {
		return nil, fmt.Errorf("%w: cell %s", ErrHashMismatch, c.Bits)
	}
	return ret, nil
}

// EncodeCell returns the deterministic CBOR encoding of a cell tree
func EncodeCell(c *boc.Cell) ([]byte, error) {
	return Encode(FromCell(c))
}

// DecodeCell rebuilds a cell tree from its CBOR encoding
func DecodeCell(data []byte) (*boc.Cell, error) {
	var tmp Cell
	n, err := Decode(data, &tmp)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, fmt.Errorf("%d trailing bytes after cell", len(data)-n)
	}
	return tmp.ToCell()
}
