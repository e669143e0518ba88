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

package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/blinklabs-io/goton/address"
)

var ErrUnexpectedResult = errors.New("unexpected get-method result")

// SeqnoFetcher queries the current seqno of a deployed wallet
type SeqnoFetcher interface {
	GetSeqno(ctx context.Context, addr string) (uint32, error)
}

// GetMethodRunner runs a get-method of a contract. Params are (type, value)
// pairs such as ("num", "0x1"). The returned stack holds *big.Int, *boc.Cell
// and []any entries.
type GetMethodRunner interface {
	RunGetMethod(ctx context.Context, addr string, method string, params [][2]string) ([]any, error)
}

// NextSeqno returns the seqno to use for the next message from addr. A wallet
// that cannot be queried, usually because it is not deployed yet, gets 0.
func NextSeqno(ctx context.Context, fetcher SeqnoFetcher, addr address.Address) uint32 {
	return nextSeqno(ctx, fetcher, addr, slog.Default())
}

func nextSeqno(ctx context.Context, fetcher SeqnoFetcher, addr address.Address, logger *slog.Logger) uint32 {
	seqno, err := fetcher.GetSeqno(ctx, addr.String())
	if err != nil {
		logger.Debug(
			"seqno unavailable, assuming undeployed wallet",
			"component", "wallet",
			"address", addr.String(),
			"error", err,
		)
		return 0
	}
	return seqno
}

// NextSeqno returns the seqno to use for the next message from the wallet
func (w *Wallet) NextSeqno(ctx context.Context, fetcher SeqnoFetcher) (uint32, error) {
	addr, err := w.Address()
	if err != nil {
		return 0, err
	}
	return nextSeqno(ctx, fetcher, addr, w.logger), nil
}

func (w *Wallet) runGetMethod(
	ctx context.Context,
	runner GetMethodRunner,
	method string,
	params [][2]string,
) ([]any, error) {
	addr, err := w.Address()
	if err != nil {
		return nil, err
	}
	stack, err := runner.RunGetMethod(ctx, addr.String(), method, params)
	if err != nil {
		return nil, err
	}
	if len(stack) == 0 {
		return nil, fmt.Errorf("%w: %s returned an empty stack", ErrUnexpectedResult, method)
	}
	return stack, nil
}

func firstNum(method string, stack []any) (*big.Int, error) {
	n, ok := stack[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%w: %s did not return a number", ErrUnexpectedResult, method)
	}
	return n, nil
}

// GetWalletID queries the subwallet id of a deployed v4 wallet
func (w *Wallet) GetWalletID(ctx context.Context, runner GetMethodRunner) (uint32, error) {
	stack, err := w.runGetMethod(ctx, runner, "get_subwallet_id", nil)
	if err != nil {
		return 0, err
	}
	n, err := firstNum("get_subwallet_id", stack)
	if err != nil {
		return 0, err
	}
	return uint32(n.Uint64()), nil
}

// GetPublicKey queries the public key stored in a deployed v4 wallet
func (w *Wallet) GetPublicKey(ctx context.Context, runner GetMethodRunner) ([]byte, error) {
	stack, err := w.runGetMethod(ctx, runner, "get_public_key", nil)
	if err != nil {
		return nil, err
	}
	n, err := firstNum("get_public_key", stack)
	if err != nil {
		return nil, err
	}
	if n.Sign() < 0 || n.BitLen() > 256 {
		return nil, fmt.Errorf("%w: public key out of range", ErrUnexpectedResult)
	}
	return n.FillBytes(make([]byte, 32)), nil
}

// IsPluginInstalled reports whether plugin is installed in a deployed v4 wallet
func (w *Wallet) IsPluginInstalled(ctx context.Context, runner GetMethodRunner, plugin address.Address) (bool, error) {
	params := [][2]string{
		{"num", fmt.Sprintf("%d", plugin.Workchain)},
		{"num", "0x" + new(big.Int).SetBytes(plugin.Hash[:]).Text(16)},
	}
	stack, err := w.runGetMethod(ctx, runner, "is_plugin_installed", params)
	if err != nil {
		return false, err
	}
	n, err := firstNum("is_plugin_installed", stack)
	if err != nil {
		return false, err
	}
	return n.Sign() != 0, nil
}

// GetPluginList returns the plugins installed in a deployed v4 wallet
func (w *Wallet) GetPluginList(ctx context.Context, runner GetMethodRunner) ([]address.Address, error) {
	stack, err := w.runGetMethod(ctx, runner, "get_plugin_list", nil)
	if err != nil {
		return nil, err
	}
	list, ok := stack[0].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: get_plugin_list did not return a list", ErrUnexpectedResult)
	}
	ret := make([]address.Address, 0, len(list))
	for _, item := range list {
		pair, ok := item.([]any)
		if !ok || len(pair) != 2 {
			return nil, fmt.Errorf("%w: malformed plugin entry", ErrUnexpectedResult)
		}
		wc, ok1 := pair[0].(*big.Int)
		hash, ok2 := pair[1].(*big.Int)
		if !ok1 || !ok2 || !wc.IsInt64() || hash.Sign() < 0 || hash.BitLen() > 256 {
			return nil, fmt.Errorf("%w: malformed plugin entry", ErrUnexpectedResult)
		}
		ret = append(ret, address.NewAddress(int8(wc.Int64()), hash.FillBytes(make([]byte, 32))))
	}
	return ret, nil
}
