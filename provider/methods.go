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

package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"math/big"

	"github.com/blinklabs-io/goton/boc"
	"github.com/jinzhu/copier"
)

// Account states reported by getAddressInformation
const (
	StateActive        = "active"
	StateUninitialized = "uninitialized"
	StateFrozen        = "frozen"
)

type TransactionID struct {
	Lt   string `json:"lt"`
	Hash string `json:"hash"`
}

type BlockID struct {
	Workchain int    `json:"workchain"`
	Shard     string `json:"shard"`
	Seqno     uint32 `json:"seqno"`
}

type BlockIDExt struct {
	Workchain int    `json:"workchain"`
	Shard     string `json:"shard"`
	Seqno     uint32 `json:"seqno"`
	RootHash  string `json:"root_hash"`
	FileHash  string `json:"file_hash"`
}

// AddressInformation is the state of an account
type AddressInformation struct {
	Balance *big.Int
	State   string
	// Code and Data are nil for accounts without a deployed contract
	Code *boc.Cell
	Data *boc.Cell
	// LastTransaction is nil for accounts without transactions
	LastTransaction *TransactionID
	BlockID         BlockID
	FrozenHash      string
	SyncUtime       int64
}

type addressInformationResult struct {
	Balance           string        `json:"balance"`
	State             string        `json:"state"`
	Code              string        `json:"code"`
	Data              string        `json:"data"`
	LastTransactionID TransactionID `json:"last_transaction_id"`
	BlockID           BlockID       `json:"block_id"`
	FrozenHash        string        `json:"frozen_hash"`
	SyncUtime         int64         `json:"sync_utime"`
}

// WalletInformation is the state of a wallet account as parsed by the server
type WalletInformation struct {
	Wallet          bool
	Balance         *big.Int
	AccountState    string
	WalletType      string
	Seqno           int64
	WalletID        int64
	LastTransaction *TransactionID
}

type walletInformationResult struct {
	Wallet            bool          `json:"wallet"`
	Balance           string        `json:"balance"`
	AccountState      string        `json:"account_state"`
	WalletType        string        `json:"wallet_type"`
	Seqno             int64         `json:"seqno"`
	WalletID          int64         `json:"wallet_id"`
	LastTransactionID TransactionID `json:"last_transaction_id"`
}

type MasterchainInfo struct {
	Last          BlockIDExt `json:"last"`
	Init          BlockIDExt `json:"init"`
	StateRootHash string     `json:"state_root_hash"`
}

type FeeValues struct {
	InFwdFee   int64 `json:"in_fwd_fee"`
	StorageFee int64 `json:"storage_fee"`
	GasFee     int64 `json:"gas_fee"`
	FwdFee     int64 `json:"fwd_fee"`
}

// Total returns the sum of all fees
func (f FeeValues) Total() int64 {
	return f.InFwdFee + f.StorageFee + f.GasFee + f.FwdFee
}

type EstimatedFees struct {
	SourceFees      FeeValues   `json:"source_fees"`
	DestinationFees []FeeValues `json:"destination_fees"`
}

// copyOptions converts the string encodings used on the wire
var copyOptions = copier.Option{
	Converters: []copier.TypeConverter{
		{
			SrcType: copier.String,
			DstType: &big.Int{},
			Fn: func(src any) (any, error) {
				return parseBigInt(src.(string))
			},
		},
		{
			SrcType: copier.String,
			DstType: &boc.Cell{},
			Fn: func(src any) (any, error) {
				return parseOptionalCell(src.(string))
			},
		},
	},
}

func parseBigInt(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	ret, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	return ret, nil
}

func parseOptionalCell(s string) (*boc.Cell, error) {
	if s == "" {
		return nil, nil
	}
	return boc.FromBocBase64(s)
}

func lastTransaction(id TransactionID) *TransactionID {
	if id.Lt == "" || id.Lt == "0" {
		return nil
	}
	return &id
}

// GetAddressInformation returns the balance, state, code and data of an account
func (p *Provider) GetAddressInformation(ctx context.Context, addr string) (*AddressInformation, error) {
	var result addressInformationResult
	if err := p.call(ctx, "getAddressInformation", map[string]string{"address": addr}, &result); err != nil {
		return nil, err
	}
	var ret AddressInformation
	if err := copier.CopyWithOption(&ret, &result, copyOptions); err != nil {
		return nil, fmt.Errorf("getAddressInformation: %w", err)
	}
	ret.LastTransaction = lastTransaction(result.LastTransactionID)
	return &ret, nil
}

// IsContractDeployed reports whether the account holds an active contract
func (p *Provider) IsContractDeployed(ctx context.Context, addr string) (bool, error) {
	info, err := p.GetAddressInformation(ctx, addr)
	if err != nil {
		return false, err
	}
	return info.State == StateActive, nil
}

// GetAddressBalance returns the balance of an account in nanocoins
func (p *Provider) GetAddressBalance(ctx context.Context, addr string) (*big.Int, error) {
	var result string
	if err := p.call(ctx, "getAddressBalance", map[string]string{"address": addr}, &result); err != nil {
		return nil, err
	}
	return parseBigInt(result)
}

// GetWalletInformation returns the wallet specific state of an account
func (p *Provider) GetWalletInformation(ctx context.Context, addr string) (*WalletInformation, error) {
	var result walletInformationResult
	if err := p.call(ctx, "getWalletInformation", map[string]string{"address": addr}, &result); err != nil {
		return nil, err
	}
	var ret WalletInformation
	if err := copier.CopyWithOption(&ret, &result, copyOptions); err != nil {
		return nil, fmt.Errorf("getWalletInformation: %w", err)
	}
	ret.LastTransaction = lastTransaction(result.LastTransactionID)
	return &ret, nil
}

// GetMasterchainInfo returns the ids of the last and initial masterchain blocks
func (p *Provider) GetMasterchainInfo(ctx context.Context) (*MasterchainInfo, error) {
	var ret MasterchainInfo
	if err := p.call(ctx, "getMasterchainInfo", struct{}{}, &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

// SendBoc submits a serialized external message
func (p *Provider) SendBoc(ctx context.Context, data []byte) error {
	params := map[string]string{"boc": base64.StdEncoding.EncodeToString(data)}
	return p.call(ctx, "sendBoc", params, nil)
}

// SendCell serializes c and submits it
func (p *Provider) SendCell(ctx context.Context, c *boc.Cell) error {
	data, err := c.ToBoc()
	if err != nil {
		return err
	}
	return p.SendBoc(ctx, data)
}

// FeeQuery describes an external message to estimate fees for
type FeeQuery struct {
	Address      string
	Body         *boc.Cell
	InitCode     *boc.Cell
	InitData     *boc.Cell
	IgnoreChksig bool
}

type feeQueryParams struct {
	Address      string `json:"address"`
	Body         string `json:"body"`
	InitCode     string `json:"init_code"`
	InitData     string `json:"init_data"`
	IgnoreChksig bool   `json:"ignore_chksig"`
}

func cellBase64(c *boc.Cell) (string, error) {
	if c == nil {
		return "", nil
	}
	return c.ToBocBase64()
}

// EstimateFee returns the fees an external message would pay
func (p *Provider) EstimateFee(ctx context.Context, q FeeQuery) (*EstimatedFees, error) {
	params := feeQueryParams{
		Address:      q.Address,
		IgnoreChksig: q.IgnoreChksig,
	}
	var err error
	if params.Body, err = cellBase64(q.Body); err != nil {
		return nil, err
	}
	if params.InitCode, err = cellBase64(q.InitCode); err != nil {
		return nil, err
	}
	if params.InitData, err = cellBase64(q.InitData); err != nil {
		return nil, err
	}
	var ret EstimatedFees
	if err := p.call(ctx, "estimateFee", params, &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

// GetSeqno runs the seqno get-method of a wallet
func (p *Provider) GetSeqno(ctx context.Context, addr string) (uint32, error) {
	stack, err := p.RunGetMethod(ctx, addr, "seqno", nil)
	if err != nil {
		return 0, err
	}
	if len(stack) == 0 {
		return 0, fmt.Errorf("%w: seqno returned an empty stack", ErrUnknownStackEntry)
	}
	n, ok := stack[0].(*big.Int)
	if !ok || !n.IsUint64() || n.Uint64() > 0xFFFFFFFF {
		return 0, fmt.Errorf("%w: seqno is not a 32-bit number", ErrUnknownStackEntry)
	}
	return uint32(n.Uint64()), nil
}
