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
	"github.com/blinklabs-io/goton/boc"
	"github.com/blinklabs-io/goton/content"
)

// Payload is the body of the internal message carried by a transfer
type Payload interface {
	PayloadCell() (*boc.Cell, error)
}

// TextComment is a plain text comment, prefixed by a zero op. Comments
// longer than one cell continue as snake data.
type TextComment string

func (t TextComment) PayloadCell() (*boc.Cell, error) {
	if len(t) == 0 {
		return boc.NewBuilder().EndCell()
	}
	data := make([]byte, 4, 4+len(t))
	return content.MakeSnakeCell(append(data, t...))
}

// RawPayload is stored as is
type RawPayload []byte

func (r RawPayload) PayloadCell() (*boc.Cell, error) {
	return boc.NewBuilder().StoreBytes(r).EndCell()
}

// CellPayload wraps an already built body
type CellPayload struct {
	Cell *boc.Cell
}

func (c CellPayload) PayloadCell() (*boc.Cell, error) {
	if c.Cell == nil {
		return boc.NewBuilder().EndCell()
	}
	return c.Cell, nil
}

func payloadCell(p Payload) (*boc.Cell, error) {
	if p == nil {
		return boc.NewBuilder().EndCell()
	}
	return p.PayloadCell()
}
