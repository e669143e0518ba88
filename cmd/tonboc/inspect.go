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

package main

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/blinklabs-io/goton/boc"
	"github.com/blinklabs-io/goton/cbor"
)

type inspectFlags struct {
	flagset *flag.FlagSet
	format  string
	file    string
}

func newInspectFlags() *inspectFlags {
	f := &inspectFlags{
		flagset: flag.NewFlagSet("inspect", flag.ExitOnError),
	}
	f.flagset.StringVar(
		&f.format,
		"format",
		"text",
		"output format (text, json or cbor)",
	)
	f.flagset.StringVar(
		&f.file,
		"file",
		"",
		"path to a raw BOC file to read instead of an argument",
	)
	return f
}

type cellJSON struct {
	Bits   string     `json:"bits"`
	Hash   string     `json:"hash"`
	Depth  uint16     `json:"depth"`
	Exotic bool       `json:"exotic,omitempty"`
	Refs   []cellJSON `json:"refs,omitempty"`
}

func newCellJSON(c *boc.Cell) cellJSON {
	ret := cellJSON{
		Bits:   c.Bits().ToHex(),
		Hash:   hex.EncodeToString(c.Hash()),
		Depth:  c.Depth(),
		Exotic: c.IsExotic(),
	}
	for _, ref := range c.Refs() {
		ret.Refs = append(ret.Refs, newCellJSON(ref))
	}
	return ret
}

// decodeBocArg accepts the hex or base64 form of a BOC
func decodeBocArg(arg string) ([]byte, error) {
	arg = strings.TrimSpace(arg)
	if data, err := boc.DecodeHex(arg); err == nil {
		return data, nil
	}
	data, err := base64.StdEncoding.DecodeString(arg)
	if err != nil {
		return nil, fmt.Errorf("BOC is neither hex nor base64: %w", err)
	}
	return data, nil
}

func readBoc(file string, args []string) []byte {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			fatalf("failed to read BOC file: %s", err)
		}
		return data
	}
	if len(args) < 1 {
		fatalf("you must specify a BOC")
	}
	data, err := decodeBocArg(args[0])
	if err != nil {
		fatalf("%s", err)
	}
	return data
}

func runInspect(args []string) {
	f := newInspectFlags()
	if err := f.flagset.Parse(args); err != nil {
		fatalf("failed to parse subcommand args: %s", err)
	}
	roots, err := boc.FromBoc(readBoc(f.file, f.flagset.Args()))
	if err != nil {
		fatalf("failed to decode BOC: %s", err)
	}
	switch f.format {
	case "text":
		for i, root := range roots {
			fmt.Printf(
				"root %d: hash = %x, depth = %d\n%s",
				i,
				root.Hash(),
				root.Depth(),
				root.String(),
			)
		}
	case "json":
		tmp := make([]cellJSON, 0, len(roots))
		for _, root := range roots {
			tmp = append(tmp, newCellJSON(root))
		}
		out, err := json.MarshalIndent(tmp, "", "  ")
		if err != nil {
			fatalf("%s", err)
		}
		fmt.Println(string(out))
	case "cbor":
		for i, root := range roots {
			data, err := cbor.EncodeCell(root)
			if err != nil {
				fatalf("failed to encode cell: %s", err)
			}
			dump, err := cbor.Dump(data)
			if err != nil {
				fatalf("%s", err)
			}
			fmt.Printf("root %d: %x\n%s", i, data, dump)
		}
	default:
		fatalf("unknown format: %s", f.format)
	}
}
