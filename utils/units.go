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

// Package utils provides coin unit conversion and transfer URL helpers
package utils

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// NanoDecimals is the number of decimal places of one coin
const NanoDecimals = 9

var ErrInvalidAmount = errors.New("invalid amount")

var nanoPerCoin = big.NewInt(1_000_000_000)

// ToNano converts a decimal coin amount such as "1.5" to nanocoins
func ToNano(amount string) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	neg := strings.HasPrefix(amount, "-")
	amount = strings.TrimPrefix(amount, "-")
	whole, frac, _ := strings.Cut(amount, ".")
	if whole == "" && frac == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	if len(frac) > NanoDecimals {
		return nil, fmt.Errorf("%w: more than %d decimal places", ErrInvalidAmount, NanoDecimals)
	}
	if whole == "" {
		whole = "0"
	}
	digits := whole + frac + strings.Repeat("0", NanoDecimals-len(frac))
	for _, c := range digits {
		if c < '0' || c > '9' {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
		}
	}
	ret, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	if neg {
		ret.Neg(ret)
	}
	return ret, nil
}

// FromNano renders nanocoins as a decimal coin amount without trailing zeros
func FromNano(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	q, r := new(big.Int).QuoRem(new(big.Int).Abs(amount), nanoPerCoin, new(big.Int))
	ret := q.String()
	if r.Sign() != 0 {
		frac := r.String()
		frac = strings.Repeat("0", NanoDecimals-len(frac)) + frac
		ret += "." + strings.TrimRight(frac, "0")
	}
	if amount.Sign() < 0 {
		ret = "-" + ret
	}
	return ret
}
