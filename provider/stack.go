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

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/blinklabs-io/goton/boc"
)

type runGetMethodParams struct {
	Address string      `json:"address"`
	Method  string      `json:"method"`
	Stack   [][2]string `json:"stack"`
}

type runGetMethodResult struct {
	GasUsed  int64               `json:"gas_used"`
	Stack    [][]json.RawMessage `json:"stack"`
	ExitCode int                 `json:"exit_code"`
}

// tvmObject is the typed form used for nested stack values
type tvmObject struct {
	Type     string          `json:"@type"`
	Elements []tvmObject     `json:"elements"`
	Bytes    string          `json:"bytes"`
	Cell     *tvmObject      `json:"cell"`
	Slice    *tvmObject      `json:"slice"`
	Tuple    *tvmObject      `json:"tuple"`
	List     *tvmObject      `json:"list"`
	Number   json.RawMessage `json:"number"`
}

// RunGetMethod runs a get-method of the contract at addr. Params are
// (type, value) pairs such as ("num", "0x1"). The result stack holds *big.Int
// for numbers, *boc.Cell for cells and slices, and []any for lists and tuples.
func (p *Provider) RunGetMethod(ctx context.Context, addr string, method string, params [][2]string) ([]any, error) {
	if params == nil {
		params = [][2]string{}
	}
	var result runGetMethodResult
	err := p.call(
		ctx,
		"runGetMethod",
		runGetMethodParams{Address: addr, Method: method, Stack: params},
		&result,
	)
	if err != nil {
		return nil, err
	}
	if result.ExitCode != 0 {
		return nil, &GetMethodError{
			Address:  addr,
			Method:   method,
			ExitCode: result.ExitCode,
		}
	}
	return ParseStack(result.Stack)
}

// ParseStack decodes the stack entries of a runGetMethod result
func ParseStack(stack [][]json.RawMessage) ([]any, error) {
	ret := make([]any, 0, len(stack))
	for i, pair := range stack {
		if len(pair) != 2 {
			return nil, fmt.Errorf("%w: entry %d has %d elements", ErrUnknownStackEntry, i, len(pair))
		}
		var typeName string
		if err := json.Unmarshal(pair[0], &typeName); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrUnknownStackEntry, i, err)
		}
		v, err := parseStackEntry(typeName, pair[1])
		if err != nil {
			return nil, fmt.Errorf("stack entry %d: %w", i, err)
		}
		ret = append(ret, v)
	}
	return ret, nil
}

func parseStackEntry(typeName string, value json.RawMessage) (any, error) {
	switch typeName {
	case "num":
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return nil, err
		}
		return parseHexNumber(s)
	case "cell", "slice":
		var obj tvmObject
		if err := json.Unmarshal(value, &obj); err != nil {
			return nil, err
		}
		return boc.FromBocBase64(obj.Bytes)
	case "list", "tuple":
		var obj tvmObject
		if err := json.Unmarshal(value, &obj); err != nil {
			return nil, err
		}
		return parseObject(&obj)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownStackEntry, typeName)
}

// parseHexNumber parses the "0x"-prefixed, optionally negative form of "num" entries
func parseHexNumber(s string) (*big.Int, error) {
	neg := strings.HasPrefix(s, "-")
	digits := strings.TrimPrefix(strings.TrimPrefix(s, "-"), "0x")
	ret, ok := new(big.Int).SetString(digits, 16)
	if !ok {
		return nil, fmt.Errorf("%w: invalid number %q", ErrUnknownStackEntry, s)
	}
	if neg {
		ret.Neg(ret)
	}
	return ret, nil
}

func parseObject(obj *tvmObject) (any, error) {
	switch obj.Type {
	case "tvm.list", "tvm.tuple":
		ret := make([]any, 0, len(obj.Elements))
		for i := range obj.Elements {
			v, err := parseObject(&obj.Elements[i])
			if err != nil {
				return nil, err
			}
			ret = append(ret, v)
		}
		return ret, nil
	case "tvm.cell", "tvm.slice":
		return boc.FromBocBase64(obj.Bytes)
	case "tvm.stackEntryCell":
		return parseNested(obj, obj.Cell)
	case "tvm.stackEntrySlice":
		return parseNested(obj, obj.Slice)
	case "tvm.stackEntryTuple":
		return parseNested(obj, obj.Tuple)
	case "tvm.stackEntryList":
		return parseNested(obj, obj.List)
	case "tvm.stackEntryNumber":
		var number tvmObject
		if err := json.Unmarshal(obj.Number, &number); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrUnknownStackEntry, obj.Type, err)
		}
		return parseObject(&number)
	case "tvm.numberDecimal":
		var s string
		if err := json.Unmarshal(obj.Number, &s); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrUnknownStackEntry, obj.Type, err)
		}
		ret, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("%w: invalid number %q", ErrUnknownStackEntry, s)
		}
		return ret, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownStackEntry, obj.Type)
}

func parseNested(parent *tvmObject, child *tvmObject) (any, error) {
	if child == nil {
		return nil, fmt.Errorf("%w: %s without a value", ErrUnknownStackEntry, parent.Type)
	}
	return parseObject(child)
}
