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

package provider_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/blinklabs-io/goton/boc"
	"github.com/blinklabs-io/goton/internal/test"
	"github.com/blinklabs-io/goton/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const testAddress = "EQCD39VS5jcptHL8vMjEXrzGaRcCVYto7HUn4bpAOg8xqB2N"

type rpcRequest struct {
	ID      uint64          `json:"id"`
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type fakeServer struct {
	sync.Mutex
	server   *httptest.Server
	requests []rpcRequest
	apiKeys  []string
	handle   func(req rpcRequest) (int, string)
}

func newFakeServer(handle func(req rpcRequest) (int, string)) *fakeServer {
	f := &fakeServer{handle: handle}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var req rpcRequest
		if err := json.Unmarshal(body, &req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.Lock()
		f.requests = append(f.requests, req)
		f.apiKeys = append(f.apiKeys, r.Header.Get("X-API-Key"))
		f.Unlock()
		status, resp := f.handle(req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(resp))
	}))
	return f
}

func (f *fakeServer) request(idx int) rpcRequest {
	f.Lock()
	defer f.Unlock()
	return f.requests[idx]
}

func (f *fakeServer) apiKey(idx int) string {
	f.Lock()
	defer f.Unlock()
	return f.apiKeys[idx]
}

func (f *fakeServer) provider(options ...provider.ProviderOptionFunc) *provider.Provider {
	options = append(
		[]provider.ProviderOptionFunc{
			provider.WithEndpoint(f.server.URL),
			provider.WithRetry(0, time.Millisecond, time.Millisecond),
			provider.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		},
		options...,
	)
	return provider.New(options...)
}

func okResult(result string) (int, string) {
	return http.StatusOK, `{"ok":true,"result":` + result + `,"jsonrpc":"2.0","id":1}`
}

func TestAddressInformation(t *testing.T) {
	defer goleak.VerifyNone(t)
	code, err := boc.FromBocHex(test.WalletV3R2CodeBocHex)
	require.NoError(t, err)
	codeB64, err := code.ToBocBase64()
	require.NoError(t, err)
	f := newFakeServer(func(req rpcRequest) (int, string) {
		return okResult(`{
			"@type": "raw.fullAccountState",
			"balance": "123456789012",
			"code": "` + codeB64 + `",
			"data": "",
			"last_transaction_id": {"@type": "internal.transactionId", "lt": "4000001", "hash": "abc="},
			"block_id": {"@type": "ton.blockIdExt", "workchain": -1, "shard": "-9223372036854775808", "seqno": 777},
			"frozen_hash": "",
			"sync_utime": 1700000000,
			"state": "active"
		}`)
	})
	defer f.server.Close()
	p := f.provider(provider.WithAPIKey("secret"))
	defer p.Close()

	info, err := p.GetAddressInformation(context.Background(), testAddress)
	require.NoError(t, err)
	assert.Equal(t, "123456789012", info.Balance.String())
	assert.Equal(t, provider.StateActive, info.State)
	require.NotNil(t, info.Code)
	assert.True(t, code.Equal(info.Code))
	assert.Nil(t, info.Data)
	require.NotNil(t, info.LastTransaction)
	assert.Equal(t, "4000001", info.LastTransaction.Lt)
	assert.Equal(t, uint32(777), info.BlockID.Seqno)
	assert.Equal(t, -1, info.BlockID.Workchain)
	assert.Equal(t, int64(1700000000), info.SyncUtime)

	deployed, err := p.IsContractDeployed(context.Background(), testAddress)
	require.NoError(t, err)
	assert.True(t, deployed)

	f.Lock()
	require.Len(t, f.requests, 2)
	f.Unlock()
	assert.Equal(t, "getAddressInformation", f.request(0).Method)
	assert.Equal(t, "2.0", f.request(0).JSONRPC)
	assert.NotEqual(t, f.request(0).ID, f.request(1).ID)
	assert.JSONEq(t, `{"address":"`+testAddress+`"}`, string(f.request(0).Params))
	assert.Equal(t, "secret", f.apiKey(0))
}

func TestBalanceAndWalletInformation(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newFakeServer(func(req rpcRequest) (int, string) {
		switch req.Method {
		case "getAddressBalance":
			return okResult(`"5000000000"`)
		case "getWalletInformation":
			return okResult(`{
				"wallet": true,
				"balance": "42",
				"account_state": "active",
				"wallet_type": "wallet v3 r2",
				"seqno": 17,
				"wallet_id": 698983191,
				"last_transaction_id": {"lt": "0", "hash": ""}
			}`)
		}
		return http.StatusNotFound, ""
	})
	defer f.server.Close()
	p := f.provider()
	defer p.Close()

	balance, err := p.GetAddressBalance(context.Background(), testAddress)
	require.NoError(t, err)
	assert.Equal(t, int64(5_000_000_000), balance.Int64())

	info, err := p.GetWalletInformation(context.Background(), testAddress)
	require.NoError(t, err)
	assert.True(t, info.Wallet)
	assert.Equal(t, int64(42), info.Balance.Int64())
	assert.Equal(t, "wallet v3 r2", info.WalletType)
	assert.Equal(t, int64(17), info.Seqno)
	assert.Equal(t, int64(698983191), info.WalletID)
	assert.Nil(t, info.LastTransaction)
	assert.Empty(t, f.apiKey(0))
}

func TestRunGetMethod(t *testing.T) {
	defer goleak.VerifyNone(t)
	code, err := boc.FromBocHex(test.WalletV3R2CodeBocHex)
	require.NoError(t, err)
	codeB64, err := code.ToBocBase64()
	require.NoError(t, err)
	f := newFakeServer(func(req rpcRequest) (int, string) {
		var params struct {
			Method string `json:"method"`
		}
		_ = json.Unmarshal(req.Params, &params)
		switch params.Method {
		case "seqno":
			return okResult(`{"gas_used": 100, "stack": [["num", "0x1f"]], "exit_code": 0}`)
		case "get_plugin_list":
			return okResult(`{"gas_used": 100, "exit_code": 0, "stack": [
				["num", "-0x1"],
				["cell", {"bytes": "` + codeB64 + `", "object": {}}],
				["list", {"@type": "tvm.list", "elements": [
					{"@type": "tvm.stackEntryTuple", "tuple": {"@type": "tvm.tuple", "elements": [
						{"@type": "tvm.stackEntryNumber", "number": {"@type": "tvm.numberDecimal", "number": "-1"}},
						{"@type": "tvm.stackEntryNumber", "number": {"@type": "tvm.numberDecimal", "number": "255"}}
					]}},
					{"@type": "tvm.stackEntryCell", "cell": {"@type": "tvm.cell", "bytes": "` + codeB64 + `"}}
				]}]
			]}`)
		case "broken":
			return okResult(`{"gas_used": 0, "stack": [], "exit_code": 11}`)
		}
		return okResult(`{"gas_used": 0, "stack": [["weird", "x"]], "exit_code": 0}`)
	})
	defer f.server.Close()
	p := f.provider()
	defer p.Close()
	ctx := context.Background()

	seqno, err := p.GetSeqno(ctx, testAddress)
	require.NoError(t, err)
	assert.Equal(t, uint32(31), seqno)
	assert.JSONEq(
		t,
		`{"address":"`+testAddress+`","method":"seqno","stack":[]}`,
		string(f.request(0).Params),
	)

	stack, err := p.RunGetMethod(ctx, testAddress, "get_plugin_list", [][2]string{{"num", "0x1"}})
	require.NoError(t, err)
	require.Len(t, stack, 3)
	assert.Equal(t, big.NewInt(-1), stack[0])
	cell, ok := stack[1].(*boc.Cell)
	require.True(t, ok)
	assert.True(t, code.Equal(cell))
	list, ok := stack[2].([]any)
	require.True(t, ok)
	require.Len(t, list, 2)
	assert.Equal(t, []any{big.NewInt(-1), big.NewInt(255)}, list[0])
	nested, ok := list[1].(*boc.Cell)
	require.True(t, ok)
	assert.True(t, code.Equal(nested))
	assert.JSONEq(
		t,
		`{"address":"`+testAddress+`","method":"get_plugin_list","stack":[["num","0x1"]]}`,
		string(f.request(1).Params),
	)

	_, err = p.RunGetMethod(ctx, testAddress, "broken", nil)
	require.ErrorIs(t, err, provider.ErrGetMethod)
	var getMethodErr *provider.GetMethodError
	require.ErrorAs(t, err, &getMethodErr)
	assert.Equal(t, 11, getMethodErr.ExitCode)

	_, err = p.RunGetMethod(ctx, testAddress, "other", nil)
	require.ErrorIs(t, err, provider.ErrUnknownStackEntry)
}

func TestSendBocAndEstimateFee(t *testing.T) {
	defer goleak.VerifyNone(t)
	c, err := boc.NewBuilder().StoreUint(0xabcd, 16).EndCell()
	require.NoError(t, err)
	data, err := c.ToBoc()
	require.NoError(t, err)
	f := newFakeServer(func(req rpcRequest) (int, string) {
		switch req.Method {
		case "sendBoc":
			return okResult(`{"@type": "ok"}`)
		case "estimateFee":
			return okResult(`{"@type": "query.fees", "source_fees": {"in_fwd_fee": 1, "storage_fee": 2, "gas_fee": 3, "fwd_fee": 4}, "destination_fees": []}`)
		case "getMasterchainInfo":
			return okResult(`{"last": {"workchain": -1, "shard": "-9223372036854775808", "seqno": 99, "root_hash": "r", "file_hash": "f"}, "state_root_hash": "s", "init": {"workchain": -1, "seqno": 0}}`)
		}
		return http.StatusNotFound, ""
	})
	defer f.server.Close()
	p := f.provider()
	defer p.Close()
	ctx := context.Background()

	require.NoError(t, p.SendBoc(ctx, data))
	assert.JSONEq(t, `{"boc":"`+base64.StdEncoding.EncodeToString(data)+`"}`, string(f.request(0).Params))
	require.NoError(t, p.SendCell(ctx, c))

	fees, err := p.EstimateFee(ctx, provider.FeeQuery{Address: testAddress, Body: c, IgnoreChksig: true})
	require.NoError(t, err)
	assert.Equal(t, int64(10), fees.SourceFees.Total())
	var params map[string]any
	require.NoError(t, json.Unmarshal(f.request(2).Params, &params))
	assert.Equal(t, true, params["ignore_chksig"])
	assert.Equal(t, "", params["init_code"])

	info, err := p.GetMasterchainInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(99), info.Last.Seqno)
	assert.Equal(t, "s", info.StateRootHash)
}

func TestErrors(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newFakeServer(func(req rpcRequest) (int, string) {
		switch req.Method {
		case "getAddressBalance":
			return http.StatusInternalServerError, `{"ok": false, "error": "LITE_SERVER_UNKNOWN: cannot load account", "code": 500, "jsonrpc": "2.0", "id": 1}`
		case "sendBoc":
			return http.StatusOK, `{"jsonrpc": "2.0", "id": 1, "error": {"code": -32602, "message": "invalid boc"}}`
		}
		return http.StatusUnauthorized, "not json"
	})
	defer f.server.Close()
	p := f.provider()
	defer p.Close()
	ctx := context.Background()

	_, err := p.GetAddressBalance(ctx, testAddress)
	require.ErrorIs(t, err, provider.ErrProvider)
	var providerErr *provider.ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, 500, providerErr.Code)
	assert.Contains(t, providerErr.Message, "cannot load account")

	err = p.SendBoc(ctx, []byte{1})
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, -32602, providerErr.Code)
	assert.Equal(t, "invalid boc", providerErr.Message)

	_, err = p.GetMasterchainInfo(ctx)
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, http.StatusUnauthorized, providerErr.StatusCode)
}

func TestRetry(t *testing.T) {
	defer goleak.VerifyNone(t)
	var calls atomic.Int32
	f := newFakeServer(func(req rpcRequest) (int, string) {
		if calls.Add(1) == 1 {
			return http.StatusServiceUnavailable, ""
		}
		return okResult(`"1"`)
	})
	defer f.server.Close()
	p := f.provider(provider.WithRetry(2, time.Millisecond, 5*time.Millisecond))
	defer p.Close()

	balance, err := p.GetAddressBalance(context.Background(), testAddress)
	require.NoError(t, err)
	assert.Equal(t, int64(1), balance.Int64())
	assert.Equal(t, int32(2), calls.Load())
}

func TestDefaults(t *testing.T) {
	p := provider.New()
	defer p.Close()
	assert.Equal(t, provider.DefaultEndpoint, p.Endpoint())
}
