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

// Package message builds the envelopes that carry contract code, data and
// bodies to the network: StateInit, internal and inbound external messages.
package message

import (
	"errors"
	"math/big"

	"github.com/blinklabs-io/goton/address"
	"github.com/blinklabs-io/goton/boc"
)

var ErrMissingCode = errors.New("state init requires code")

// StateInit is the initial code and data of a contract
type StateInit struct {
	Code    *boc.Cell
	Data    *boc.Cell
	Library *boc.Cell
}

// ToCell encodes the StateInit. split_depth and special are always absent.
func (s StateInit) ToCell() (*boc.Cell, error) {
	b := boc.NewBuilder().
		// split_depth
		StoreBit(false).
		// special
		StoreBit(false).
		StoreMaybeRef(s.Code).
		StoreMaybeRef(s.Data).
		StoreMaybeRef(s.Library)
	return b.EndCell()
}

// ContractAddress returns the address of the contract deployed with the
// given StateInit, along with the encoded StateInit cell
func ContractAddress(workchain int8, s StateInit) (address.Address, *boc.Cell, error) {
	if s.Code == nil {
		return address.Address{}, nil, ErrMissingCode
	}
	c, err := s.ToCell()
	if err != nil {
		return address.Address{}, nil, err
	}
	return address.NewAddress(workchain, c.Hash()), c, nil
}

// CommonMessageInfo is the trailing part of every message: an optional
// StateInit and a body, each inlined when it fits and stored in a ref otherwise
type CommonMessageInfo struct {
	StateInit *boc.Cell
	Body      *boc.Cell
}

func fits(b *boc.Builder, c *boc.Cell, reserveBits int) bool {
	return b.FreeBits()-reserveBits >= c.BitsSize() && b.FreeRefs() >= c.RefsNum()
}

// WriteTo appends the StateInit and body to b
func (m CommonMessageInfo) WriteTo(b *boc.Builder) {
	if m.StateInit != nil {
		b.StoreBit(true)
		// Leave room for the Either bits of both fields. Reserving only one
		// would leave no room for the body bit when the StateInit fills the
		// rest of the cell.
		if fits(b, m.StateInit, 2) {
			b.StoreBit(false).StoreCellCopy(m.StateInit)
		} else {
			b.StoreBit(true).StoreRef(m.StateInit)
		}
	} else {
		b.StoreBit(false)
	}
	if m.Body != nil {
		// The Either bit itself must fit too
		if fits(b, m.Body, 1) {
			b.StoreBit(false).StoreCellCopy(m.Body)
		} else {
			b.StoreBit(true).StoreRef(m.Body)
		}
	} else {
		b.StoreBit(false)
	}
}

// InternalMessage is a message between contracts. Wallets wrap one of these
// for every outgoing transfer.
type InternalMessage struct {
	Dest address.Address
	// Src is normally empty and filled in by the validator
	Src   *address.Address
	Value *big.Int
	// AllowIhr clears the ihr_disabled flag
	AllowIhr bool
	// Bounce overrides the bounce flag of Dest when set
	Bounce    *bool
	Bounced   bool
	IhrFee    *big.Int
	FwdFee    *big.Int
	CreatedLt uint64
	CreatedAt uint32
	StateInit *boc.Cell
	Body      *boc.Cell
}

// WriteHeader appends the int_msg_info header to b
func (m InternalMessage) WriteHeader(b *boc.Builder) {
	bounce := m.Dest.IsBounceable()
	if m.Bounce != nil {
		bounce = *m.Bounce
	}
	b.StoreBit(false).
		StoreBit(!m.AllowIhr).
		StoreBit(bounce).
		StoreBit(m.Bounced).
		StoreAddress(m.Src).
		StoreAddress(&m.Dest).
		StoreCoins(m.Value).
		// extra currencies
		StoreBit(false).
		StoreCoins(m.IhrFee).
		StoreCoins(m.FwdFee).
		StoreUint(m.CreatedLt, 64).
		StoreUint(uint64(m.CreatedAt), 32)
}

// WriteTo appends the whole message to b
func (m InternalMessage) WriteTo(b *boc.Builder) {
	m.WriteHeader(b)
	CommonMessageInfo{StateInit: m.StateInit, Body: m.Body}.WriteTo(b)
}

// ToCell encodes the message into a new cell
func (m InternalMessage) ToCell() (*boc.Cell, error) {
	b := boc.NewBuilder()
	m.WriteTo(b)
	return b.EndCell()
}

// ExternalMessageHeader is the ext_in_msg_info header of an inbound external message
type ExternalMessageHeader struct {
	Dest      address.Address
	Src       *address.Address
	ImportFee *big.Int
}

// WriteTo appends the header to b
func (h ExternalMessageHeader) WriteTo(b *boc.Builder) {
	b.StoreUint(2, 2).
		StoreAddress(h.Src).
		StoreAddress(&h.Dest).
		StoreCoins(h.ImportFee)
}

// NewExternalMessage builds an inbound external message to dest. Either of
// stateInit and body may be nil.
func NewExternalMessage(dest address.Address, stateInit *boc.Cell, body *boc.Cell) (*boc.Cell, error) {
	b := boc.NewBuilder()
	ExternalMessageHeader{Dest: dest}.WriteTo(b)
	CommonMessageInfo{StateInit: stateInit, Body: body}.WriteTo(b)
	return b.EndCell()
}
