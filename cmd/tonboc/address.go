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
	"encoding/hex"
	"flag"
	"fmt"

	"github.com/blinklabs-io/goton/address"
	"github.com/blinklabs-io/goton/wallet"
)

func runAddress(args []string) {
	if len(args) < 1 {
		fatalf("you must specify an address")
	}
	addr, err := address.Parse(args[0])
	if err != nil {
		fatalf("%s", err)
	}
	printAddress(addr)
}

func printAddress(addr address.Address) {
	fmt.Printf("raw:                   %s\n", addr.String())
	fmt.Printf("bounceable:            %s\n", addr.ToFriendly(true, false, true))
	fmt.Printf("non-bounceable:        %s\n", addr.ToFriendly(false, false, true))
	fmt.Printf("bounceable (test):     %s\n", addr.ToFriendly(true, true, true))
	fmt.Printf("non-bounceable (test): %s\n", addr.ToFriendly(false, true, true))
}

type walletAddressFlags struct {
	flagset   *flag.FlagSet
	publicKey string
	version   string
	workchain int
	walletID  uint
}

func newWalletAddressFlags() *walletAddressFlags {
	f := &walletAddressFlags{
		flagset: flag.NewFlagSet("wallet-address", flag.ExitOnError),
	}
	f.flagset.StringVar(&f.publicKey, "public-key", "", "hex encoded Ed25519 public key")
	f.flagset.StringVar(
		&f.version,
		"version",
		string(wallet.VersionV4R2),
		"wallet contract version (v3R1, v3R2, v4R2 or w5)",
	)
	f.flagset.IntVar(&f.workchain, "workchain", 0, "workchain id")
	f.flagset.UintVar(
		&f.walletID,
		"wallet-id",
		0,
		"subwallet id (defaults to 698983191 + workchain)",
	)
	return f
}

func runWalletAddress(args []string) {
	f := newWalletAddressFlags()
	if err := f.flagset.Parse(args); err != nil {
		fatalf("failed to parse subcommand args: %s", err)
	}
	if f.publicKey == "" {
		fatalf("you must specify -public-key")
	}
	publicKey, err := hex.DecodeString(f.publicKey)
	if err != nil {
		fatalf("invalid public key: %s", err)
	}
	version, err := wallet.ParseVersion(f.version)
	if err != nil {
		fatalf("%s", err)
	}
	if f.workchain < -128 || f.workchain > 127 {
		fatalf("invalid workchain: %d", f.workchain)
	}
	opts := []wallet.WalletOptionFunc{
		wallet.WithWorkchain(int8(f.workchain)),
	}
	if f.walletID != 0 {
		opts = append(opts, wallet.WithWalletID(uint32(f.walletID)))
	}
	w, err := wallet.New(version, publicKey, opts...)
	if err != nil {
		fatalf("%s", err)
	}
	addr, err := w.Address()
	if err != nil {
		fatalf("%s", err)
	}
	fmt.Printf("version:               %s\n", w.Version())
	fmt.Printf("wallet id:             %d\n", w.WalletID())
	printAddress(addr)
}
