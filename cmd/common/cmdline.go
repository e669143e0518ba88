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

package common

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/blinklabs-io/goton/provider"
)

const apiKeyEnv = "TONCENTER_API_KEY"

type GlobalFlags struct {
	Flagset  *flag.FlagSet
	Endpoint string
	APIKey   string
	Testnet  bool
	LogLevel string
	Logger   *slog.Logger
}

func NewGlobalFlags() *GlobalFlags {
	f := &GlobalFlags{
		Flagset: flag.NewFlagSet(os.Args[0], flag.ExitOnError),
	}
	f.Flagset.StringVar(
		&f.Endpoint,
		"endpoint",
		"",
		"JSON-RPC endpoint URL (defaults to toncenter mainnet or testnet)",
	)
	f.Flagset.StringVar(
		&f.APIKey,
		"api-key",
		os.Getenv(apiKeyEnv),
		"toncenter API key (defaults to $"+apiKeyEnv+")",
	)
	f.Flagset.BoolVar(&f.Testnet, "testnet", false, "use the testnet")
	f.Flagset.StringVar(
		&f.LogLevel,
		"log-level",
		"info",
		"log level (debug, info, warn, error)",
	)
	return f
}

func (f *GlobalFlags) Parse() {
	if err := f.Flagset.Parse(os.Args[1:]); err != nil {
		fmt.Printf("failed to parse command args: %s\n", err)
		os.Exit(1)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(f.LogLevel)); err != nil {
		fmt.Printf("Invalid log level specified: %s\n", f.LogLevel)
		os.Exit(1)
	}
	f.Logger = slog.New(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
	)
	slog.SetDefault(f.Logger)
	if f.Endpoint == "" {
		f.Endpoint = provider.DefaultEndpoint
		if f.Testnet {
			f.Endpoint = provider.TestnetEndpoint
		}
	}
}

// NewProvider returns a provider for the configured endpoint
func (f *GlobalFlags) NewProvider() *provider.Provider {
	return provider.New(
		provider.WithEndpoint(f.Endpoint),
		provider.WithAPIKey(f.APIKey),
		provider.WithLogger(f.Logger),
	)
}
