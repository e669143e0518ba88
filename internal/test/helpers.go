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

package test

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// Single-cell bag of cells holding the v3R2 wallet code, with CRC32C and no index
const WalletV3R2CodeBocHex = "B5EE9C724101010100710000DEFF0020DD2082014C97BA218201339CBAB19F71B0ED44D0D31FD31F31D70BFFE304E0A4F2608308D71820D31FD31FD31FF82313BBF263ED44D0D31FD31FD3FFD15132BAF2A15144BAF2A204F901541055F910F2A3F8009320D74A96D307D402FB00E8D101A4C8CB1FCB1FCBFFC9ED5410BD6DAD"

// Representation hash of the v3R2 wallet code cell
const WalletV3R2CodeHashHex = "84dafa449f98a6987789ba232358072bc0f76dc4524002a5d0918b9a75d2d599"

// DecodeHexString is a helper function for tests that decodes hex strings. It doesn't return
// an error value, which makes it usable inline.
func DecodeHexString(hexData string) []byte {
	// Strip off any leading/trailing whitespace in hex string
	hexData = strings.TrimSpace(hexData)
	decoded, err := hex.DecodeString(hexData)
	if err != nil {
		panic(fmt.Sprintf("error decoding hex: %s", err))
	}
	return decoded
}

// DecodeBase64String is the base64 counterpart of DecodeHexString
func DecodeBase64String(data string) []byte {
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(data))
	if err != nil {
		panic(fmt.Sprintf("error decoding base64: %s", err))
	}
	return decoded
}

// Bytes32 returns a 32-byte value with every byte set to fill
func Bytes32(fill byte) []byte {
	ret := make([]byte, 32)
	for i := range ret {
		ret[i] = fill
	}
	return ret
}
