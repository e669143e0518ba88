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

// Package address implements internal smart-contract addresses in their raw
// "workchain:hex" form and in the user-friendly base64 form.
package address

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	HashSize = 32

	// Length of the decoded user-friendly form: tag, workchain, hash, crc16
	FriendlyDecodedLength = 36
	// Length of the base64 user-friendly form
	FriendlyLength = 48

	TagBounceable    = 0x11
	TagNonBounceable = 0x51
	FlagTestOnly     = 0x80

	WorkchainBasic  int8 = 0
	WorkchainMaster int8 = -1
)

var ErrInvalidAddress = errors.New("invalid address")

type Address struct {
	Workchain    int8
	Hash         [HashSize]byte
	bounceable   bool
	testOnly     bool
	userFriendly bool
}

// NewAddress returns a bounceable Address from a workchain and hash. Hashes
// shorter than 32 bytes are left-padded with zeros.
func NewAddress(workchain int8, hash []byte) Address {
	a := Address{
		Workchain:  workchain,
		bounceable: true,
	}
	if len(hash) > HashSize {
		hash = hash[len(hash)-HashSize:]
	}
	copy(a.Hash[HashSize-len(hash):], hash)
	return a
}

// Parse accepts either the raw or the user-friendly form
func Parse(addr string) (Address, error) {
	if strings.Contains(addr, ":") {
		return ParseRaw(addr)
	}
	return ParseFriendly(addr)
}

// ParseRaw parses the "workchain:hex64" form
func ParseRaw(addr string) (Address, error) {
	wcStr, hashStr, ok := strings.Cut(addr, ":")
	if !ok {
		return Address{}, fmt.Errorf("%w: missing workchain separator in %q", ErrInvalidAddress, addr)
	}
	wc, err := strconv.ParseInt(wcStr, 10, 8)
	if err != nil {
		return Address{}, fmt.Errorf("%w: bad workchain %q", ErrInvalidAddress, wcStr)
	}
	if wc != int64(WorkchainBasic) && wc != int64(WorkchainMaster) {
		return Address{}, fmt.Errorf("%w: unsupported workchain %d", ErrInvalidAddress, wc)
	}
	if len(hashStr) != HashSize*2 {
		return Address{}, fmt.Errorf("%w: hash part must be 64 hex characters", ErrInvalidAddress)
	}
	hash, err := hex.DecodeString(hashStr)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	return NewAddress(int8(wc), hash), nil
}

// ParseFriendly parses the 48 character base64 or base64url form
func ParseFriendly(addr string) (Address, error) {
	if len(addr) != FriendlyLength {
		return Address{}, fmt.Errorf("%w: user-friendly address must be %d characters", ErrInvalidAddress, FriendlyLength)
	}
	// Normalize base64url to the standard alphabet
	addr = strings.NewReplacer("-", "+", "_", "/").Replace(addr)
	data, err := base64.StdEncoding.DecodeString(addr)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	if len(data) != FriendlyDecodedLength {
		return Address{}, fmt.Errorf("%w: unexpected decoded length %d", ErrInvalidAddress, len(data))
	}
	if !bytes.Equal(Crc16(data[:34]), data[34:]) {
		return Address{}, fmt.Errorf("%w: crc16 mismatch", ErrInvalidAddress)
	}
	tag := data[0]
	a := Address{userFriendly: true}
	if tag&FlagTestOnly != 0 {
		a.testOnly = true
		tag ^= FlagTestOnly
	}
	switch tag {
	case TagBounceable:
		a.bounceable = true
	case TagNonBounceable:
		a.bounceable = false
	default:
		return Address{}, fmt.Errorf("%w: unknown address tag %#x", ErrInvalidAddress, tag)
	}
	a.Workchain = int8(data[1])
	if a.Workchain != WorkchainBasic && a.Workchain != WorkchainMaster {
		return Address{}, fmt.Errorf("%w: unsupported workchain %d", ErrInvalidAddress, a.Workchain)
	}
	copy(a.Hash[:], data[2:34])
	return a, nil
}

// IsValid reports whether addr parses in either form
func IsValid(addr string) bool {
	_, err := Parse(addr)
	return err == nil
}

// IsBounceable reports the bounce flag. Raw addresses are bounceable.
func (a Address) IsBounceable() bool {
	return a.bounceable
}

// IsTestOnly reports the test-only flag of a user-friendly address
func (a Address) IsTestOnly() bool {
	return a.testOnly
}

// IsUserFriendly reports whether the address was parsed from the user-friendly form
func (a Address) IsUserFriendly() bool {
	return a.userFriendly
}

// Equal compares workchain and hash, ignoring flags
func (a Address) Equal(other Address) bool {
	return a.Workchain == other.Workchain && a.Hash == other.Hash
}

// String returns the raw form
func (a Address) String() string {
	return strconv.Itoa(int(a.Workchain)) + ":" + hex.EncodeToString(a.Hash[:])
}

// ToFriendly returns the user-friendly form
func (a Address) ToFriendly(bounceable bool, testOnly bool, urlSafe bool) string {
	data := make([]byte, 0, FriendlyDecodedLength)
	tag := byte(TagNonBounceable)
	if bounceable {
		tag = TagBounceable
	}
	if testOnly {
		tag |= FlagTestOnly
	}
	data = append(data, tag, byte(a.Workchain))
	data = append(data, a.Hash[:]...)
	data = append(data, Crc16(data)...)
	if urlSafe {
		return base64.URLEncoding.EncodeToString(data)
	}
	return base64.StdEncoding.EncodeToString(data)
}

// MarshalText implements encoding.TextMarshaler using the raw form
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler accepting either form
func (a *Address) UnmarshalText(data []byte) error {
	tmp, err := Parse(string(data))
	if err != nil {
		return err
	}
	*a = tmp
	return nil
}

// Crc16 returns the CRC-16/XMODEM checksum of data in big-endian order
func Crc16(data []byte) []byte {
	const poly = 0x1021
	var reg uint16
	for _, b := range data {
		reg ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if reg&0x8000 != 0 {
				reg = reg<<1 ^ poly
			} else {
				reg <<= 1
			}
		}
	}
	return binary.BigEndian.AppendUint16(nil, reg)
}
