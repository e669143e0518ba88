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
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/blinklabs-io/goton/address"
	"github.com/blinklabs-io/goton/boc"
	"github.com/blinklabs-io/goton/cmd/common"
	"github.com/blinklabs-io/goton/utils"
	"github.com/blinklabs-io/goton/wallet"
)

const requestTimeout = 60 * time.Second

func addressArg(args []string) address.Address {
	if len(args) < 1 {
		fatalf("you must specify an address")
	}
	addr, err := address.Parse(args[0])
	if err != nil {
		fatalf("%s", err)
	}
	return addr
}

func runBalance(f *common.GlobalFlags, args []string) {
	addr := addressArg(args)
	p := f.NewProvider()
	defer p.Close()
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	info, err := p.GetAddressInformation(ctx, addr.String())
	if err != nil {
		fatalf("failure querying address: %s", err)
	}
	fmt.Printf("state:   %s\n", info.State)
	fmt.Printf("balance: %s\n", utils.FromNano(info.Balance))
	if info.LastTransaction != nil {
		fmt.Printf("last tx: lt = %s, hash = %s\n", info.LastTransaction.Lt, info.LastTransaction.Hash)
	}
}

func runSeqno(f *common.GlobalFlags, args []string) {
	addr := addressArg(args)
	p := f.NewProvider()
	defer p.Close()
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	// Undeployed wallets report 0
	seqno := wallet.NextSeqno(ctx, p, addr)
	fmt.Printf("seqno: %d\n", seqno)
}

type sendFlags struct {
	flagset *flag.FlagSet
	file    string
}

func runSend(f *common.GlobalFlags, args []string) {
	sf := &sendFlags{
		flagset: flag.NewFlagSet("send", flag.ExitOnError),
	}
	sf.flagset.StringVar(&sf.file, "file", "", "path to a raw BOC file to send")
	if err := sf.flagset.Parse(args); err != nil {
		fatalf("failed to parse subcommand args: %s", err)
	}
	data := readBoc(sf.file, sf.flagset.Args())
	// Reject malformed BOCs before they reach the network
	root, err := boc.FromBocOne(data)
	if err != nil {
		fatalf("failed to decode BOC: %s", err)
	}
	p := f.NewProvider()
	defer p.Close()
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if err := p.SendBoc(ctx, data); err != nil {
		fatalf("failure sending BOC: %s", err)
	}
	fmt.Printf("sent message %x\n", root.Hash())
}
