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

package wallet_test

import (
	"context"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/blinklabs-io/goton/address"
	"github.com/blinklabs-io/goton/boc"
	"github.com/blinklabs-io/goton/content"
	"github.com/blinklabs-io/goton/internal/test"
	"github.com/blinklabs-io/goton/keys"
	"github.com/blinklabs-io/goton/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RFC 8032 test 1
const testSeedHex = "9d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60"

var testNow = time.Unix(1_700_000_000, 0)

func testKeyPair(t *testing.T) *keys.KeyPair {
	t.Helper()
	kp, err := keys.KeyPairFromSeed(test.DecodeHexString(testSeedHex))
	require.NoError(t, err)
	return kp
}

func testWallet(t *testing.T, version wallet.Version, options ...wallet.WalletOptionFunc) *wallet.Wallet {
	t.Helper()
	options = append(options, wallet.WithClock(func() time.Time { return testNow }))
	w, err := wallet.New(version, testKeyPair(t).PublicKey, options...)
	require.NoError(t, err)
	return w
}

func TestVersionCode(t *testing.T) {
	testDefs := []struct {
		version  wallet.Version
		codeHash string
	}{
		{version: wallet.VersionV3R1, codeHash: "b61041a58a7980b946e8fb9e198e3c904d24799ffa36574ea4251c41a566f581"},
		{version: wallet.VersionV3R2, codeHash: test.WalletV3R2CodeHashHex},
		{version: wallet.VersionV4R2, codeHash: "feb5ff6820e2ff0d9483e7e0d62c817d846789fb4ae580c878866d959dabd5c0"},
		{version: wallet.VersionV5R1, codeHash: "20834b7b72b112147e1b2fb457b84e74d1a30f04f737d4f62a668e9552d2b72f"},
	}
	for _, testDef := range testDefs {
		code, err := testDef.version.Code()
		require.NoError(t, err)
		assert.Equal(t, testDef.codeHash, hex.EncodeToString(code.Hash()), testDef.version.String())
	}
	_, err := wallet.Version("v9").Code()
	require.ErrorIs(t, err, wallet.ErrUnsupportedVersion)

	v, err := wallet.ParseVersion("V4R2")
	require.NoError(t, err)
	assert.Equal(t, wallet.VersionV4R2, v)
	v, err = wallet.ParseVersion("W5")
	require.NoError(t, err)
	assert.Equal(t, wallet.VersionV5R1, v)
	_, err = wallet.ParseVersion("v2")
	require.ErrorIs(t, err, wallet.ErrUnsupportedVersion)
}

func TestAddress(t *testing.T) {
	testDefs := []struct {
		version wallet.Version
		hash    string
	}{
		{version: wallet.VersionV3R1, hash: "2179d6632dd5a1cf1e17d0e363156160c1fc0ad1119c20e09b8da4b4ea709346"},
		{version: wallet.VersionV3R2, hash: "7757577dde60fabf8a96a113e7966d14ad8a5c1d9cf69420ffd74bbce0d1d6b9"},
		{version: wallet.VersionV4R2, hash: "cdac97c9162b2e141ad4463828b2a70efdf8762b97e83563f352becf902e88a6"},
		{version: wallet.VersionV5R1, hash: "cb766c4290acfa71fabe7c4832692acbb7826bfbae4e486461e2fc911c034c88"},
	}
	for _, testDef := range testDefs {
		w := testWallet(t, testDef.version)
		addr, err := w.Address()
		require.NoError(t, err)
		assert.Equal(t, "0:"+testDef.hash, addr.String(), testDef.version.String())
	}
}

func TestWalletID(t *testing.T) {
	assert.Equal(t, uint32(698983191), testWallet(t, wallet.VersionV3R2).WalletID())
	master := testWallet(t, wallet.VersionV3R2, wallet.WithWorkchain(address.WorkchainMaster))
	assert.Equal(t, uint32(698983190), master.WalletID())
	addr, err := master.Address()
	require.NoError(t, err)
	assert.Equal(t, address.WorkchainMaster, addr.Workchain)
	custom := testWallet(t, wallet.VersionV3R2, wallet.WithWalletID(42), wallet.WithWorkchain(-1))
	assert.Equal(t, uint32(42), custom.WalletID())

	_, err = wallet.New(wallet.VersionV3R2, []byte{1, 2, 3})
	require.ErrorIs(t, err, keys.ErrInvalidPublicKey)
	_, err = wallet.New(wallet.Version("v1"), testKeyPair(t).PublicKey)
	require.ErrorIs(t, err, wallet.ErrUnsupportedVersion)
}

func TestDataCell(t *testing.T) {
	v3, err := testWallet(t, wallet.VersionV3R2).DataCell()
	require.NoError(t, err)
	assert.Equal(t, 320, v3.BitsSize())
	v4, err := testWallet(t, wallet.VersionV4R2).DataCell()
	require.NoError(t, err)
	assert.Equal(t, 321, v4.BitsSize())
	w5 := testWallet(t, wallet.VersionV5R1)
	assert.Equal(t, uint32(698983191), w5.WalletID())
	v5, err := w5.DataCell()
	require.NoError(t, err)
	assert.Equal(t, 321, v5.BitsSize())
	assert.Equal(t, 0, v5.RefsNum())
}

type signingFields struct {
	walletID   uint64
	validUntil uint64
	seqno      uint64
}

func readSigningFields(t *testing.T, s *boc.Slice) signingFields {
	t.Helper()
	var ret signingFields
	var err error
	ret.walletID, err = s.LoadUint(32)
	require.NoError(t, err)
	ret.validUntil, err = s.LoadUint(32)
	require.NoError(t, err)
	ret.seqno, err = s.LoadUint(32)
	require.NoError(t, err)
	return ret
}

func TestInitExternalMessage(t *testing.T) {
	kp := testKeyPair(t)
	for _, version := range wallet.Versions {
		t.Run(version.String(), func(t *testing.T) {
			w := testWallet(t, version)
			msg, err := w.CreateInitExternalMessage(kp.SecretKey)
			require.NoError(t, err)
			require.NotNil(t, msg.StateInit)
			assert.True(t, keys.VerifyCell(msg.SigningMessage, kp.PublicKey, msg.Signature))
			fields := readSigningFields(t, msg.SigningMessage.BeginParse())
			assert.Equal(t, uint64(w.WalletID()), fields.walletID)
			assert.Equal(t, uint64(0xFFFFFFFF), fields.validUntil)
			assert.Equal(t, uint64(0), fields.seqno)
			expectBits := 96
			if version == wallet.VersionV4R2 || version == wallet.VersionV5R1 {
				expectBits += 8
			}
			assert.Equal(t, expectBits, msg.SigningMessage.BitsSize())
			assert.Equal(t, 512+expectBits, msg.Body.BitsSize())

			// The message must survive serialization
			data, err := msg.ToBoc()
			require.NoError(t, err)
			parsed, err := boc.FromBocOne(data)
			require.NoError(t, err)
			assert.True(t, msg.Message.Equal(parsed))
		})
	}
	_, err := testWallet(t, wallet.VersionV3R2).CreateInitExternalMessage(nil)
	require.ErrorIs(t, err, wallet.ErrMissingSecretKey)
}

func TestTransferMessage(t *testing.T) {
	kp := testKeyPair(t)
	w := testWallet(t, wallet.VersionV4R2)
	dest := address.NewAddress(0, test.Bytes32(0x42))
	msg, err := w.CreateTransferMessage(kp.SecretKey, wallet.Transfer{
		To:      dest,
		Amount:  big.NewInt(1_000_000_000),
		Seqno:   5,
		Payload: wallet.TextComment("hello"),
	})
	require.NoError(t, err)
	assert.Nil(t, msg.StateInit)
	assert.True(t, keys.VerifyCell(msg.SigningMessage, kp.PublicKey, msg.Signature))

	s := msg.SigningMessage.BeginParse()
	fields := readSigningFields(t, s)
	assert.Equal(t, uint64(testNow.Add(wallet.ValidFor).Unix()), fields.validUntil)
	assert.Equal(t, uint64(5), fields.seqno)
	op, err := s.LoadUint(8)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), op)
	mode, err := s.LoadUint(8)
	require.NoError(t, err)
	assert.Equal(t, uint64(wallet.DefaultSendMode), mode)

	order, err := s.LoadRef()
	require.NoError(t, err)
	flags, err := order.LoadUint(4)
	require.NoError(t, err)
	// bounce follows the bounceable destination
	assert.Equal(t, uint64(0b0110), flags)

	// No state init, and the body is inlined so only the order ref remains
	assert.Equal(t, 1, msg.Message.RefsNum())
}

func TestTransferFirstMessageDeploys(t *testing.T) {
	w := testWallet(t, wallet.VersionV3R2)
	mode := uint8(128)
	msg, err := w.CreateTransferMessage(nil, wallet.Transfer{
		To:       address.NewAddress(0, test.Bytes32(0x01)),
		Amount:   big.NewInt(1),
		SendMode: &mode,
	})
	require.NoError(t, err)
	require.NotNil(t, msg.StateInit)
	// Dummy signature
	assert.Equal(t, make([]byte, 64), msg.Signature)
	s := msg.SigningMessage.BeginParse()
	fields := readSigningFields(t, s)
	assert.Equal(t, uint64(0xFFFFFFFF), fields.validUntil)
	gotMode, err := s.LoadUint(8)
	require.NoError(t, err)
	assert.Equal(t, uint64(128), gotMode)
}

func TestPayloads(t *testing.T) {
	empty, err := wallet.TextComment("").PayloadCell()
	require.NoError(t, err)
	assert.Equal(t, 0, empty.BitsSize())

	text, err := wallet.TextComment("hi").PayloadCell()
	require.NoError(t, err)
	assert.Equal(t, "000000006869", text.Bits().ToHex())

	long := strings.Repeat("z", 300)
	longCell, err := wallet.TextComment(long).PayloadCell()
	require.NoError(t, err)
	data, err := content.ReadSnakeBytes(longCell.BeginParse())
	require.NoError(t, err)
	assert.Equal(t, append(make([]byte, 4), long...), data)

	raw, err := wallet.RawPayload{0xde, 0xad}.PayloadCell()
	require.NoError(t, err)
	assert.Equal(t, "DEAD", raw.Bits().ToHex())

	inner, err := boc.NewBuilder().StoreUint(7, 3).EndCell()
	require.NoError(t, err)
	wrapped, err := wallet.CellPayload{Cell: inner}.PayloadCell()
	require.NoError(t, err)
	assert.True(t, inner.Equal(wrapped))
}

func TestPlugins(t *testing.T) {
	kp := testKeyPair(t)
	plugin := address.NewAddress(0, test.Bytes32(0x99))
	v3 := testWallet(t, wallet.VersionV3R2)
	_, err := v3.CreateInstallPluginMessage(kp.SecretKey, wallet.PluginParams{Seqno: 1, Plugin: plugin})
	require.ErrorIs(t, err, wallet.ErrUnsupportedVersion)
	w5 := testWallet(t, wallet.VersionV5R1)
	_, err = w5.CreateRemovePluginMessage(kp.SecretKey, wallet.PluginParams{Seqno: 1, Plugin: plugin})
	require.ErrorIs(t, err, wallet.ErrUnsupportedVersion)

	v4 := testWallet(t, wallet.VersionV4R2)
	testDefs := []struct {
		name   string
		create func(*wallet.Wallet) (*wallet.ExternalMessage, error)
		op     uint64
	}{
		{
			name: "install",
			create: func(w *wallet.Wallet) (*wallet.ExternalMessage, error) {
				return w.CreateInstallPluginMessage(kp.SecretKey, wallet.PluginParams{Seqno: 1, Plugin: plugin, QueryID: 9})
			},
			op: 2,
		},
		{
			name: "remove",
			create: func(w *wallet.Wallet) (*wallet.ExternalMessage, error) {
				return w.CreateRemovePluginMessage(kp.SecretKey, wallet.PluginParams{Seqno: 1, Plugin: plugin, QueryID: 9})
			},
			op: 3,
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			msg, err := testDef.create(v4)
			require.NoError(t, err)
			s := msg.SigningMessage.BeginParse()
			readSigningFields(t, s)
			op, err := s.LoadUint(8)
			require.NoError(t, err)
			assert.Equal(t, testDef.op, op)
			wc, err := s.LoadInt(8)
			require.NoError(t, err)
			assert.Equal(t, int64(0), wc)
			hash, err := s.LoadBytes(32)
			require.NoError(t, err)
			assert.Equal(t, plugin.Hash[:], hash)
			amount, err := s.LoadCoins()
			require.NoError(t, err)
			assert.Equal(t, wallet.DefaultPluginAmount.Int64(), amount.Int64())
			queryID, err := s.LoadUint(64)
			require.NoError(t, err)
			assert.Equal(t, uint64(9), queryID)
			assert.Equal(t, 0, s.FreeBits())
		})
	}

	stateInit, err := boc.NewBuilder().StoreUint(1, 1).EndCell()
	require.NoError(t, err)
	body, err := boc.NewBuilder().StoreUint(2, 2).EndCell()
	require.NoError(t, err)
	msg, err := v4.CreateDeployAndInstallPluginMessage(kp.SecretKey, wallet.DeployPlugin{
		Seqno:     3,
		Workchain: -1,
		Amount:    big.NewInt(5),
		StateInit: stateInit,
		Body:      body,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, msg.SigningMessage.RefsNum())
	s := msg.SigningMessage.BeginParse()
	readSigningFields(t, s)
	op, err := s.LoadUint(8)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), op)
	wc, err := s.LoadInt(8)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), wc)
}

type fakeFetcher struct {
	seqno uint32
	err   error
	addr  string
}

func (f *fakeFetcher) GetSeqno(_ context.Context, addr string) (uint32, error) {
	f.addr = addr
	return f.seqno, f.err
}

func TestNextSeqno(t *testing.T) {
	w := testWallet(t, wallet.VersionV3R2)
	addr, err := w.Address()
	require.NoError(t, err)

	ok := &fakeFetcher{seqno: 12}
	seqno, err := w.NextSeqno(context.Background(), ok)
	require.NoError(t, err)
	assert.Equal(t, uint32(12), seqno)
	assert.Equal(t, addr.String(), ok.addr)

	failing := &fakeFetcher{seqno: 12, err: errors.New("exit code -13")}
	seqno, err = w.NextSeqno(context.Background(), failing)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), seqno)
	assert.Equal(t, uint32(0), wallet.NextSeqno(context.Background(), failing, addr))
}

type fakeRunner struct {
	results map[string][]any
	params  map[string][][2]string
}

func (f *fakeRunner) RunGetMethod(_ context.Context, _ string, method string, params [][2]string) ([]any, error) {
	if f.params == nil {
		f.params = make(map[string][][2]string)
	}
	f.params[method] = params
	return f.results[method], nil
}

func TestGetMethods(t *testing.T) {
	w := testWallet(t, wallet.VersionV4R2)
	kp := testKeyPair(t)
	plugin := address.NewAddress(-1, test.Bytes32(0x0f))
	runner := &fakeRunner{
		results: map[string][]any{
			"get_subwallet_id":    {big.NewInt(698983191)},
			"get_public_key":      {new(big.Int).SetBytes(kp.PublicKey)},
			"is_plugin_installed": {big.NewInt(-1)},
			"get_plugin_list": {
				[]any{
					[]any{big.NewInt(-1), new(big.Int).SetBytes(plugin.Hash[:])},
				},
			},
		},
	}
	ctx := context.Background()
	id, err := w.GetWalletID(ctx, runner)
	require.NoError(t, err)
	assert.Equal(t, uint32(698983191), id)

	pub, err := w.GetPublicKey(ctx, runner)
	require.NoError(t, err)
	assert.Equal(t, []byte(kp.PublicKey), pub)

	installed, err := w.IsPluginInstalled(ctx, runner, plugin)
	require.NoError(t, err)
	assert.True(t, installed)
	assert.Equal(t, "-1", runner.params["is_plugin_installed"][0][1])
	assert.Equal(t, "0x"+strings.Repeat("0f", 32)[1:], runner.params["is_plugin_installed"][1][1])

	plugins, err := w.GetPluginList(ctx, runner)
	require.NoError(t, err)
	require.Len(t, plugins, 1)
	assert.True(t, plugin.Equal(plugins[0]))

	empty := &fakeRunner{}
	_, err = w.GetWalletID(ctx, empty)
	require.ErrorIs(t, err, wallet.ErrUnexpectedResult)
}
