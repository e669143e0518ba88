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

// Package token builds the message bodies understood by jetton and NFT
// contracts and decodes the results of their get-methods.
package token

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/blinklabs-io/goton/address"
	"github.com/blinklabs-io/goton/boc"
	"github.com/blinklabs-io/goton/content"
)

// Operation codes
const (
	OpJettonTransfer         = 0x0f8a7ea5
	OpJettonInternalTransfer = 0x178d4519
	OpJettonBurn             = 0x595f07bc
	OpJettonMint             = 21
	OpMinterChangeAdmin      = 3
	OpMinterEditContent      = 4
	OpNftTransfer            = 0x5fcc3d14
	OpNftGetStaticData       = 0x2fcb26a2
)

var ErrUnexpectedStack = errors.New("unexpected get-method stack")

// JettonTransfer asks a jetton wallet to move Amount jettons to To
type JettonTransfer struct {
	QueryID         uint64
	Amount          *big.Int
	To              address.Address
	ResponseAddress *address.Address
	ForwardAmount   *big.Int
	ForwardPayload  []byte
}

// ToCell encodes the transfer body. The custom payload is always absent and
// the forward payload is inlined.
func (t JettonTransfer) ToCell() (*boc.Cell, error) {
	return boc.NewBuilder().
		StoreUint(OpJettonTransfer, 32).
		StoreUint(t.QueryID, 64).
		StoreCoins(t.Amount).
		StoreAddress(&t.To).
		StoreAddress(t.ResponseAddress).
		StoreBit(false).
		StoreCoins(t.ForwardAmount).
		StoreBit(false).
		StoreBytes(t.ForwardPayload).
		EndCell()
}

// JettonBurn asks a jetton wallet to destroy Amount jettons
type JettonBurn struct {
	QueryID         uint64
	Amount          *big.Int
	ResponseAddress *address.Address
}

func (b JettonBurn) ToCell() (*boc.Cell, error) {
	return boc.NewBuilder().
		StoreUint(OpJettonBurn, 32).
		StoreUint(b.QueryID, 64).
		StoreCoins(b.Amount).
		StoreAddress(b.ResponseAddress).
		EndCell()
}

// JettonMint asks a jetton minter to mint JettonAmount to Destination,
// attaching Amount of TON to the internal transfer
type JettonMint struct {
	QueryID      uint64
	Destination  address.Address
	Amount       *big.Int
	JettonAmount *big.Int
}

func (m JettonMint) ToCell() (*boc.Cell, error) {
	transfer, err := boc.NewBuilder().
		StoreUint(OpJettonInternalTransfer, 32).
		StoreUint(m.QueryID, 64).
		StoreCoins(m.JettonAmount).
		// from_address, response_address
		StoreAddress(nil).
		StoreAddress(nil).
		// forward_amount
		StoreCoins(nil).
		StoreBit(false).
		EndCell()
	if err != nil {
		return nil, err
	}
	return boc.NewBuilder().
		StoreUint(OpJettonMint, 32).
		StoreUint(m.QueryID, 64).
		StoreAddress(&m.Destination).
		StoreCoins(m.Amount).
		StoreRef(transfer).
		EndCell()
}

// MinterChangeAdminBody transfers control of a jetton minter
func MinterChangeAdminBody(queryID uint64, newAdmin address.Address) (*boc.Cell, error) {
	return boc.NewBuilder().
		StoreUint(OpMinterChangeAdmin, 32).
		StoreUint(queryID, 64).
		StoreAddress(&newAdmin).
		EndCell()
}

// MinterEditContentBody replaces the content of a jetton minter with an
// off-chain URI
func MinterEditContentBody(queryID uint64, uri string) (*boc.Cell, error) {
	c, err := content.CreateOffchainContent(uri)
	if err != nil {
		return nil, err
	}
	return boc.NewBuilder().
		StoreUint(OpMinterEditContent, 32).
		StoreUint(queryID, 64).
		StoreRef(c).
		EndCell()
}

// NftTransfer asks an NFT item to change its owner
type NftTransfer struct {
	QueryID         uint64
	NewOwner        address.Address
	ResponseAddress *address.Address
	ForwardAmount   *big.Int
	ForwardPayload  []byte
}

func (t NftTransfer) ToCell() (*boc.Cell, error) {
	return boc.NewBuilder().
		StoreUint(OpNftTransfer, 32).
		StoreUint(t.QueryID, 64).
		StoreAddress(&t.NewOwner).
		StoreAddress(t.ResponseAddress).
		StoreBit(false).
		StoreCoins(t.ForwardAmount).
		StoreBit(false).
		StoreBytes(t.ForwardPayload).
		EndCell()
}

// NftGetStaticDataBody requests the index and collection of an NFT item
func NftGetStaticDataBody(queryID uint64) (*boc.Cell, error) {
	return boc.NewBuilder().
		StoreUint(OpNftGetStaticData, 32).
		StoreUint(queryID, 64).
		EndCell()
}

// JettonWalletData is the result of the get_wallet_data get-method
type JettonWalletData struct {
	Balance      *big.Int
	Owner        *address.Address
	Minter       *address.Address
	JettonWallet *boc.Cell
}

// JettonData is the result of the get_jetton_data get-method
type JettonData struct {
	TotalSupply  *big.Int
	IsMutable    bool
	Admin        *address.Address
	Content      *boc.Cell
	JettonWallet *boc.Cell
}

// NftData is the result of the get_nft_data get-method
type NftData struct {
	IsInitialized bool
	Index         *big.Int
	Collection    *address.Address
	Owner         *address.Address
	Content       *boc.Cell
}

// CollectionData is the result of the get_collection_data get-method
type CollectionData struct {
	NextItemIndex *big.Int
	Content       *boc.Cell
	Owner         *address.Address
}

// ParseAddressCell reads a MsgAddress from a cell returned by a get-method.
// An empty address yields nil.
func ParseAddressCell(c *boc.Cell) (*address.Address, error) {
	return c.BeginParse().LoadAddress()
}

type stackReader struct {
	method string
	stack  []any
}

func (r stackReader) err(idx int, want string) error {
	return fmt.Errorf(
		"%w: %s: entry %d is not a %s",
		ErrUnexpectedStack,
		r.method,
		idx,
		want,
	)
}

func (r stackReader) check(n int) error {
	if len(r.stack) < n {
		return fmt.Errorf(
			"%w: %s: expected %d entries, got %d",
			ErrUnexpectedStack,
			r.method,
			n,
			len(r.stack),
		)
	}
	return nil
}

func (r stackReader) num(idx int) (*big.Int, error) {
	v, ok := r.stack[idx].(*big.Int)
	if !ok {
		return nil, r.err(idx, "number")
	}
	return v, nil
}

func (r stackReader) cell(idx int) (*boc.Cell, error) {
	v, ok := r.stack[idx].(*boc.Cell)
	if !ok {
		return nil, r.err(idx, "cell")
	}
	return v, nil
}

func (r stackReader) addr(idx int) (*address.Address, error) {
	c, err := r.cell(idx)
	if err != nil {
		return nil, err
	}
	ret, err := ParseAddressCell(c)
	if err != nil {
		return nil, fmt.Errorf("%s: entry %d: %w", r.method, idx, err)
	}
	return ret, nil
}

// ParseJettonWalletData decodes the stack of get_wallet_data. Stack entries
// are *big.Int for numbers and *boc.Cell for cells.
func ParseJettonWalletData(stack []any) (*JettonWalletData, error) {
	r := stackReader{method: "get_wallet_data", stack: stack}
	if err := r.check(4); err != nil {
		return nil, err
	}
	var ret JettonWalletData
	var err error
	if ret.Balance, err = r.num(0); err != nil {
		return nil, err
	}
	if ret.Owner, err = r.addr(1); err != nil {
		return nil, err
	}
	if ret.Minter, err = r.addr(2); err != nil {
		return nil, err
	}
	if ret.JettonWallet, err = r.cell(3); err != nil {
		return nil, err
	}
	return &ret, nil
}

// ParseJettonData decodes the stack of get_jetton_data
func ParseJettonData(stack []any) (*JettonData, error) {
	r := stackReader{method: "get_jetton_data", stack: stack}
	if err := r.check(5); err != nil {
		return nil, err
	}
	var ret JettonData
	var err error
	if ret.TotalSupply, err = r.num(0); err != nil {
		return nil, err
	}
	mutable, err := r.num(1)
	if err != nil {
		return nil, err
	}
	// TVM true is -1
	ret.IsMutable = mutable.Sign() != 0
	if ret.Admin, err = r.addr(2); err != nil {
		return nil, err
	}
	if ret.Content, err = r.cell(3); err != nil {
		return nil, err
	}
	if ret.JettonWallet, err = r.cell(4); err != nil {
		return nil, err
	}
	return &ret, nil
}

// ParseNftData decodes the stack of get_nft_data
func ParseNftData(stack []any) (*NftData, error) {
	r := stackReader{method: "get_nft_data", stack: stack}
	if err := r.check(5); err != nil {
		return nil, err
	}
	var ret NftData
	initialized, err := r.num(0)
	if err != nil {
		return nil, err
	}
	ret.IsInitialized = initialized.Sign() != 0
	if ret.Index, err = r.num(1); err != nil {
		return nil, err
	}
	if ret.Collection, err = r.addr(2); err != nil {
		return nil, err
	}
	if ret.Owner, err = r.addr(3); err != nil {
		return nil, err
	}
	if ret.Content, err = r.cell(4); err != nil {
		return nil, err
	}
	return &ret, nil
}

// ParseCollectionData decodes the stack of get_collection_data
func ParseCollectionData(stack []any) (*CollectionData, error) {
	r := stackReader{method: "get_collection_data", stack: stack}
	if err := r.check(3); err != nil {
		return nil, err
	}
	var ret CollectionData
	var err error
	if ret.NextItemIndex, err = r.num(0); err != nil {
		return nil, err
	}
	if ret.Content, err = r.cell(1); err != nil {
		return nil, err
	}
	if ret.Owner, err = r.addr(2); err != nil {
		return nil, err
	}
	return &ret, nil
}
