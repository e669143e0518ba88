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

// Package wallet builds the external messages accepted by the standard
// wallet contracts: deployment, transfers and v4 plugin management.
package wallet

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/blinklabs-io/goton/address"
	"github.com/blinklabs-io/goton/boc"
	"github.com/blinklabs-io/goton/keys"
	"github.com/blinklabs-io/goton/message"
)

const (
	// DefaultWalletID is the subwallet id of workchain 0
	DefaultWalletID = 698983191

	// DefaultSendMode pays transfer fees separately and ignores action errors
	DefaultSendMode uint8 = 3

	// Validity window of a signed message
	ValidFor = 60 * time.Second

	// valid_until used by the first message, which also deploys the wallet
	validUntilForever = 0xFFFFFFFF
)

var (
	ErrUnsupportedVersion = errors.New("unsupported wallet version")
	ErrMissingSecretKey   = errors.New("secret key is required")
)

type Wallet struct {
	version   Version
	publicKey ed25519.PublicKey
	workchain int8
	walletID  uint32
	hasID     bool
	logger    *slog.Logger
	now       func() time.Time
}

type WalletOptionFunc func(*Wallet)

// New returns a Wallet of the given version controlled by publicKey
func New(version Version, publicKey []byte, options ...WalletOptionFunc) (*Wallet, error) {
	if _, err := ParseVersion(string(version)); err != nil {
		return nil, err
	}
	if err := keys.ValidatePublicKey(publicKey); err != nil {
		return nil, err
	}
	w := &Wallet{
		version:   version,
		publicKey: ed25519.PublicKey(publicKey),
		workchain: address.WorkchainBasic,
		now:       time.Now,
	}
	for _, option := range options {
		option(w)
	}
	if !w.hasID {
		w.walletID = uint32(int64(DefaultWalletID) + int64(w.workchain))
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	return w, nil
}

// WithWorkchain specifies the workchain the wallet is deployed to. The default
// wallet id follows the workchain.
func WithWorkchain(workchain int8) WalletOptionFunc {
	return func(w *Wallet) {
		w.workchain = workchain
	}
}

// WithWalletID overrides the subwallet id
func WithWalletID(walletID uint32) WalletOptionFunc {
	return func(w *Wallet) {
		w.walletID = walletID
		w.hasID = true
	}
}

// WithLogger specifies the logger used by the seqno fallback
func WithLogger(logger *slog.Logger) WalletOptionFunc {
	return func(w *Wallet) {
		w.logger = logger
	}
}

// WithClock specifies the time source for message expiry
func WithClock(now func() time.Time) WalletOptionFunc {
	return func(w *Wallet) {
		w.now = now
	}
}

func (w *Wallet) Version() Version {
	return w.version
}

func (w *Wallet) WalletID() uint32 {
	return w.walletID
}

func (w *Wallet) Workchain() int8 {
	return w.workchain
}

func (w *Wallet) PublicKey() ed25519.PublicKey {
	return w.publicKey
}

// DataCell returns the initial persistent data of the wallet contract
func (w *Wallet) DataCell() (*boc.Cell, error) {
	b := boc.NewBuilder().
		// seqno
		StoreUint(0, 32).
		StoreUint(uint64(w.walletID), 32).
		StoreBytes(w.publicKey)
	if w.version.hasPluginDict() {
		// empty plugin dictionary
		b.StoreBit(false)
	}
	return b.EndCell()
}

// StateInit returns the code and initial data of the wallet
func (w *Wallet) StateInit() (message.StateInit, error) {
	code, err := w.version.Code()
	if err != nil {
		return message.StateInit{}, err
	}
	data, err := w.DataCell()
	if err != nil {
		return message.StateInit{}, err
	}
	return message.StateInit{Code: code, Data: data}, nil
}

func (w *Wallet) deployment() (address.Address, *boc.Cell, error) {
	stateInit, err := w.StateInit()
	if err != nil {
		return address.Address{}, nil, err
	}
	return message.ContractAddress(w.workchain, stateInit)
}

// Address returns the address of the wallet contract
func (w *Wallet) Address() (address.Address, error) {
	addr, _, err := w.deployment()
	return addr, err
}

// signingMessage starts the part of the body covered by the signature
func (w *Wallet) signingMessage(seqno uint32, withOp bool) *boc.Builder {
	validUntil := uint64(validUntilForever)
	if seqno != 0 {
		validUntil = uint64(w.now().Add(ValidFor).Unix())
	}
	b := boc.NewBuilder().
		StoreUint(uint64(w.walletID), 32).
		StoreUint(validUntil, 32).
		StoreUint(uint64(seqno), 32)
	if withOp && w.version.hasOp() {
		// simple send
		b.StoreUint8(0)
	}
	return b
}

// ExternalMessage is a signed message ready to be sent to the wallet along
// with the parts it was built from
type ExternalMessage struct {
	Address        address.Address
	Message        *boc.Cell
	Body           *boc.Cell
	Signature      []byte
	SigningMessage *boc.Cell
	// StateInit is set when the message also deploys the wallet
	StateInit *boc.Cell
}

// ToBoc serializes the message for sending
func (m *ExternalMessage) ToBoc() ([]byte, error) {
	return m.Message.ToBoc()
}

// externalMessage signs signingMessage and wraps it. A nil secretKey yields an
// all-zero signature, which is enough for fee estimation.
func (w *Wallet) externalMessage(
	signing *boc.Builder,
	secretKey ed25519.PrivateKey,
	seqno uint32,
) (*ExternalMessage, error) {
	signingMessage, err := signing.EndCell()
	if err != nil {
		return nil, err
	}
	signature := make([]byte, ed25519.SignatureSize)
	if secretKey != nil {
		if signature, err = keys.SignCell(signingMessage, secretKey); err != nil {
			return nil, err
		}
	}
	body, err := boc.NewBuilder().
		StoreBytes(signature).
		StoreCellCopy(signingMessage).
		EndCell()
	if err != nil {
		return nil, err
	}
	addr, stateInit, err := w.deployment()
	if err != nil {
		return nil, err
	}
	// Only the first message deploys the wallet
	if seqno != 0 {
		stateInit = nil
	}
	msg, err := message.NewExternalMessage(addr, stateInit, body)
	if err != nil {
		return nil, err
	}
	return &ExternalMessage{
		Address:        addr,
		Message:        msg,
		Body:           body,
		Signature:      signature,
		SigningMessage: signingMessage,
		StateInit:      stateInit,
	}, nil
}

// CreateInitExternalMessage returns the message that deploys the wallet
func (w *Wallet) CreateInitExternalMessage(secretKey ed25519.PrivateKey) (*ExternalMessage, error) {
	if secretKey == nil {
		return nil, ErrMissingSecretKey
	}
	return w.externalMessage(w.signingMessage(0, true), secretKey, 0)
}

// Transfer describes an outgoing transfer from the wallet
type Transfer struct {
	To     address.Address
	Amount *big.Int
	Seqno  uint32
	// Payload is optional
	Payload Payload
	// SendMode defaults to DefaultSendMode when nil
	SendMode *uint8
	// StateInit deploys the destination contract
	StateInit *boc.Cell
}

// CreateTransferMessage returns a signed transfer. With a nil secretKey the
// signature is zeroed.
func (w *Wallet) CreateTransferMessage(secretKey ed25519.PrivateKey, t Transfer) (*ExternalMessage, error) {
	payload, err := payloadCell(t.Payload)
	if err != nil {
		return nil, err
	}
	order, err := message.InternalMessage{
		Dest:      t.To,
		Value:     t.Amount,
		StateInit: t.StateInit,
		Body:      payload,
	}.ToCell()
	if err != nil {
		return nil, err
	}
	sendMode := DefaultSendMode
	if t.SendMode != nil {
		sendMode = *t.SendMode
	}
	signing := w.signingMessage(t.Seqno, true).
		StoreUint8(sendMode).
		StoreRef(order)
	return w.externalMessage(signing, secretKey, t.Seqno)
}

func (w *Wallet) requirePlugins() error {
	if !w.version.hasPlugins() {
		return fmt.Errorf("%w: %s does not support plugins", ErrUnsupportedVersion, w.version)
	}
	return nil
}

// Plugin operations of the v4 wallet
const (
	opDeployAndInstallPlugin = 1
	opInstallPlugin          = 2
	opRemovePlugin           = 3
)

// DefaultPluginAmount is attached to install and remove requests, 0.1 TON
var DefaultPluginAmount = big.NewInt(100_000_000)

// DeployPlugin describes a plugin contract deployed and installed in one message
type DeployPlugin struct {
	Seqno     uint32
	Workchain int8
	Amount    *big.Int
	StateInit *boc.Cell
	Body      *boc.Cell
}

// CreateDeployAndInstallPluginMessage returns a signed request to deploy a
// plugin and install it
func (w *Wallet) CreateDeployAndInstallPluginMessage(
	secretKey ed25519.PrivateKey,
	p DeployPlugin,
) (*ExternalMessage, error) {
	if err := w.requirePlugins(); err != nil {
		return nil, err
	}
	if secretKey == nil {
		return nil, ErrMissingSecretKey
	}
	signing := w.signingMessage(p.Seqno, false).
		StoreUint8(opDeployAndInstallPlugin).
		StoreInt(int64(p.Workchain), 8).
		StoreCoins(p.Amount).
		StoreRef(p.StateInit).
		StoreRef(p.Body)
	return w.externalMessage(signing, secretKey, p.Seqno)
}

// PluginParams describes an install or remove request for an existing plugin
type PluginParams struct {
	Seqno  uint32
	Plugin address.Address
	// Amount defaults to DefaultPluginAmount when nil
	Amount  *big.Int
	QueryID uint64
}

func (w *Wallet) setPlugin(secretKey ed25519.PrivateKey, p PluginParams, op uint8) (*ExternalMessage, error) {
	if err := w.requirePlugins(); err != nil {
		return nil, err
	}
	if secretKey == nil {
		return nil, ErrMissingSecretKey
	}
	amount := p.Amount
	if amount == nil {
		amount = DefaultPluginAmount
	}
	signing := w.signingMessage(p.Seqno, false).
		StoreUint8(op).
		StoreInt(int64(p.Plugin.Workchain), 8).
		StoreBytes(p.Plugin.Hash[:]).
		StoreCoins(amount).
		StoreUint(p.QueryID, 64)
	return w.externalMessage(signing, secretKey, p.Seqno)
}

// CreateInstallPluginMessage returns a signed request to install a plugin
func (w *Wallet) CreateInstallPluginMessage(secretKey ed25519.PrivateKey, p PluginParams) (*ExternalMessage, error) {
	return w.setPlugin(secretKey, p, opInstallPlugin)
}

// CreateRemovePluginMessage returns a signed request to remove a plugin
func (w *Wallet) CreateRemovePluginMessage(secretKey ed25519.PrivateKey, p PluginParams) (*ExternalMessage, error) {
	return w.setPlugin(secretKey, p, opRemovePlugin)
}
