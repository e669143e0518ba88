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

// Package content encodes token metadata: snake data chains, off-chain URIs
// and on-chain metadata dictionaries keyed by the sha256 of the field name.
package content

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"

	"github.com/blinklabs-io/goton/boc"
	"github.com/blinklabs-io/goton/boc/dict"
)

const (
	SnakePrefix    = 0x00
	OnchainPrefix  = 0x00
	OffchainPrefix = 0x01

	// Bytes of payload per snake cell
	SnakeChunkSize = 127

	metadataKeySize = 256
)

// MetadataKeys are the well-known on-chain metadata fields
var MetadataKeys = []string{
	"name",
	"description",
	"image",
	"symbol",
	"image_data",
	"decimals",
}

var (
	ErrUnknownPrefix  = errors.New("unknown content prefix")
	ErrNotByteAligned = errors.New("snake cell data is not byte aligned")
)

// MakeSnakeCell splits data into a chain of cells linked through their first ref
func MakeSnakeCell(data []byte) (*boc.Cell, error) {
	var chunks [][]byte
	for len(data) > 0 {
		n := min(len(data), SnakeChunkSize)
		chunks = append(chunks, data[:n])
		data = data[n:]
	}
	var next *boc.Cell
	for i := len(chunks) - 1; i >= 0; i-- {
		b := boc.NewBuilder().StoreBytes(chunks[i])
		if next != nil {
			b.StoreRef(next)
		}
		c, err := b.EndCell()
		if err != nil {
			return nil, err
		}
		next = c
	}
	if next == nil {
		return boc.NewBuilder().EndCell()
	}
	return next, nil
}

// ReadSnakeBytes reads the remaining bytes of s followed by every cell in its ref chain
func ReadSnakeBytes(s *boc.Slice) ([]byte, error) {
	var ret []byte
	for {
		if s.FreeBits()%8 != 0 {
			return nil, ErrNotByteAligned
		}
		chunk, err := s.LoadBytes(s.FreeBits() / 8)
		if err != nil {
			return nil, err
		}
		ret = append(ret, chunk...)
		if s.FreeRefs() == 0 {
			return ret, nil
		}
		next, err := s.LoadRef()
		if err != nil {
			return nil, err
		}
		s = next
	}
}

// CreateOffchainContent returns a snake cell holding the 0x01 prefix and the URI
func CreateOffchainContent(uri string) (*boc.Cell, error) {
	data := append([]byte{OffchainPrefix}, uri...)
	return MakeSnakeCell(data)
}

// ParseOffchainContent returns the URI of an off-chain content cell
func ParseOffchainContent(c *boc.Cell) (string, error) {
	data, err := ReadSnakeBytes(c.BeginParse())
	if err != nil {
		return "", err
	}
	if len(data) == 0 || data[0] != OffchainPrefix {
		return "", fmt.Errorf("%w: expected off-chain content", ErrUnknownPrefix)
	}
	return string(data[1:]), nil
}

// MetadataKey returns the dictionary key of a metadata field name
func MetadataKey(name string) string {
	hash := sha256.Sum256([]byte(name))
	return new(big.Int).SetBytes(hash[:]).String()
}

// CreateOnchainContent encodes fields as an on-chain metadata dictionary.
// Every value is stored as a snake cell in a ref.
func CreateOnchainContent(fields map[string]string) (*boc.Cell, error) {
	entries := make(map[string]string, len(fields))
	for k, v := range fields {
		entries[MetadataKey(k)] = v
	}
	root, err := dict.Serialize(
		entries,
		metadataKeySize,
		dict.EncoderFunc[string](func(b *boc.Builder, v string) error {
			c, err := MakeSnakeCell(append([]byte{SnakePrefix}, v...))
			if err != nil {
				return err
			}
			return b.StoreRef(c).Err()
		}),
	)
	if err != nil {
		return nil, err
	}
	return boc.NewBuilder().
		StoreUint8(OnchainPrefix).
		StoreDict(root).
		EndCell()
}

func decodeSnakeValue(s *boc.Slice) ([]byte, error) {
	if s.FreeRefs() > 0 && s.FreeBits() == 0 {
		ref, err := s.LoadRef()
		if err != nil {
			return nil, err
		}
		s = ref
	}
	prefix, err := s.LoadUint(8)
	if err != nil {
		return nil, err
	}
	if prefix != SnakePrefix {
		return nil, fmt.Errorf("%w: only snake values are supported, got %#x", ErrUnknownPrefix, prefix)
	}
	return ReadSnakeBytes(s)
}

// ParseOnchainContent decodes the well-known fields of an on-chain metadata
// cell. Unknown keys are ignored.
func ParseOnchainContent(c *boc.Cell) (map[string]string, error) {
	s := c.BeginParse()
	prefix, err := s.LoadUint(8)
	if err != nil {
		return nil, err
	}
	if prefix != OnchainPrefix {
		return nil, fmt.Errorf("%w: expected on-chain content, got %#x", ErrUnknownPrefix, prefix)
	}
	entries, err := dict.LoadOptional(s, metadataKeySize, dict.DecoderFunc[[]byte](decodeSnakeValue))
	if err != nil {
		return nil, err
	}
	ret := make(map[string]string)
	for _, name := range MetadataKeys {
		if v, ok := entries[MetadataKey(name)]; ok {
			ret[name] = string(v)
		}
	}
	return ret, nil
}

// Content is the decoded metadata of a token: either an off-chain URI or
// on-chain fields
type Content struct {
	URI    string
	Fields map[string]string
}

// Parse decodes a content cell of either layout
func Parse(c *boc.Cell) (*Content, error) {
	prefix, err := c.BeginParse().PreloadUint(8)
	if err != nil {
		return nil, err
	}
	switch prefix {
	case OnchainPrefix:
		fields, err := ParseOnchainContent(c)
		if err != nil {
			return nil, err
		}
		return &Content{Fields: fields}, nil
	case OffchainPrefix:
		uri, err := ParseOffchainContent(c)
		if err != nil {
			return nil, err
		}
		return &Content{URI: uri}, nil
	}
	return nil, fmt.Errorf("%w: %#x", ErrUnknownPrefix, prefix)
}
