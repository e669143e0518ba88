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

package utils

import (
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strings"

	"github.com/blinklabs-io/goton/address"
)

const TransferURLPrefix = "ton://transfer/"

var ErrInvalidTransferURL = errors.New("invalid transfer url")

// TransferURL is a payment request. Amount is in nanocoins.
type TransferURL struct {
	Address string
	Amount  *big.Int
	Text    string
}

// ParseTransferURL parses "ton://transfer/<address>?amount=<nano>&text=<comment>"
func ParseTransferURL(rawURL string) (*TransferURL, error) {
	rest, ok := strings.CutPrefix(rawURL, TransferURLPrefix)
	if !ok {
		return nil, fmt.Errorf("%w: must start with %s", ErrInvalidTransferURL, TransferURLPrefix)
	}
	parts := strings.Split(rest, "?")
	if len(parts) > 2 {
		return nil, fmt.Errorf("%w: multiple \"?\"", ErrInvalidTransferURL)
	}
	if !address.IsValid(parts[0]) {
		return nil, fmt.Errorf("%w: invalid address %q", ErrInvalidTransferURL, parts[0])
	}
	ret := &TransferURL{Address: parts[0]}
	if len(parts) < 2 || parts[1] == "" {
		return ret, nil
	}
	var haveText bool
	for _, pair := range strings.Split(parts[1], "&") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.Contains(value, "=") {
			return nil, fmt.Errorf("%w: invalid pair %q", ErrInvalidTransferURL, pair)
		}
		switch key {
		case "amount":
			if ret.Amount != nil {
				return nil, fmt.Errorf("%w: amount already set", ErrInvalidTransferURL)
			}
			amount, ok := new(big.Int).SetString(value, 10)
			if !ok {
				return nil, fmt.Errorf("%w: bad amount %q", ErrInvalidTransferURL, value)
			}
			if amount.Sign() < 0 {
				return nil, fmt.Errorf("%w: negative amount", ErrInvalidTransferURL)
			}
			ret.Amount = amount
		case "text":
			if haveText {
				return nil, fmt.Errorf("%w: text already set", ErrInvalidTransferURL)
			}
			text, err := url.PathUnescape(value)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidTransferURL, err)
			}
			ret.Text = text
			haveText = true
		default:
			return nil, fmt.Errorf("%w: unknown url var %q", ErrInvalidTransferURL, key)
		}
	}
	return ret, nil
}

// FormatTransferURL is the inverse of ParseTransferURL. A nil amount and an
// empty text are omitted.
func FormatTransferURL(addr string, amount *big.Int, text string) string {
	ret := TransferURLPrefix + addr
	var params []string
	if amount != nil {
		params = append(params, "amount="+amount.String())
	}
	if text != "" {
		// Spaces as %20 so the text decodes the same way it is parsed
		params = append(params, "text="+strings.ReplaceAll(url.QueryEscape(text), "+", "%20"))
	}
	if len(params) == 0 {
		return ret
	}
	return ret + "?" + strings.Join(params, "&")
}
