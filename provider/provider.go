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

// Package provider is a client for the toncenter JSON-RPC HTTP API
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	DefaultEndpoint = "https://toncenter.com/api/v2/jsonRPC"
	TestnetEndpoint = "https://testnet.toncenter.com/api/v2/jsonRPC"

	DefaultTimeout      = 30 * time.Second
	DefaultRetryMax     = 3
	DefaultRetryWaitMin = 500 * time.Millisecond
	DefaultRetryWaitMax = 5 * time.Second

	apiKeyHeader = "X-API-Key"
)

// Provider sends JSON-RPC requests to a toncenter compatible endpoint
type Provider struct {
	endpoint     string
	apiKey       string
	logger       *slog.Logger
	timeout      time.Duration
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
	client       *retryablehttp.Client
	requestID    atomic.Uint64
}

type ProviderOptionFunc func(*Provider)

// New returns a Provider configured by the given options
func New(options ...ProviderOptionFunc) *Provider {
	p := &Provider{
		endpoint:     DefaultEndpoint,
		timeout:      DefaultTimeout,
		retryMax:     DefaultRetryMax,
		retryWaitMin: DefaultRetryWaitMin,
		retryWaitMax: DefaultRetryWaitMax,
	}
	for _, option := range options {
		option(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	client := retryablehttp.NewClient()
	client.HTTPClient.Timeout = p.timeout
	client.RetryMax = p.retryMax
	client.RetryWaitMin = p.retryWaitMin
	client.RetryWaitMax = p.retryWaitMax
	client.Logger = p.logger
	// Hand the last response back so JSON-RPC errors can be decoded
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	p.client = client
	return p
}

// WithEndpoint specifies the JSON-RPC endpoint URL
func WithEndpoint(endpoint string) ProviderOptionFunc {
	return func(p *Provider) {
		p.endpoint = endpoint
	}
}

// WithAPIKey specifies the API key sent in the X-API-Key header
func WithAPIKey(apiKey string) ProviderOptionFunc {
	return func(p *Provider) {
		p.apiKey = apiKey
	}
}

// WithLogger specifies the logger for requests and retries
func WithLogger(logger *slog.Logger) ProviderOptionFunc {
	return func(p *Provider) {
		p.logger = logger
	}
}

// WithTimeout specifies the timeout of a single HTTP attempt
func WithTimeout(timeout time.Duration) ProviderOptionFunc {
	return func(p *Provider) {
		p.timeout = timeout
	}
}

// WithRetry specifies how many times and how long to wait between retries
// of failed requests
func WithRetry(retryMax int, waitMin time.Duration, waitMax time.Duration) ProviderOptionFunc {
	return func(p *Provider) {
		p.retryMax = retryMax
		p.retryWaitMin = waitMin
		p.retryWaitMax = waitMax
	}
}

// Endpoint returns the configured endpoint URL
func (p *Provider) Endpoint() string {
	return p.endpoint
}

// Close releases idle connections
func (p *Provider) Close() {
	p.client.HTTPClient.CloseIdleConnections()
}

type rpcRequest struct {
	ID      uint64 `json:"id"`
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcResponse struct {
	OK     *bool           `json:"ok"`
	Result json.RawMessage `json:"result"`
	Error  json.RawMessage `json:"error"`
	Code   int             `json:"code"`
}

type rpcErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (r *rpcResponse) err(method string, statusCode int) error {
	hasError := len(r.Error) > 0 && string(r.Error) != "null"
	if !hasError && (r.OK == nil || *r.OK) && len(r.Result) > 0 {
		return nil
	}
	ret := &ProviderError{
		Method:     method,
		StatusCode: statusCode,
		Code:       r.Code,
	}
	var msg string
	var obj rpcErrorObject
	switch {
	case !hasError:
		ret.Message = "empty result"
	case json.Unmarshal(r.Error, &msg) == nil:
		ret.Message = msg
	case json.Unmarshal(r.Error, &obj) == nil:
		ret.Message = obj.Message
		if obj.Code != 0 {
			ret.Code = obj.Code
		}
	default:
		ret.Message = string(r.Error)
	}
	if ret.Code == 0 && statusCode != http.StatusOK {
		ret.Code = statusCode
	}
	return ret
}

// call performs a JSON-RPC request and decodes its result into result
func (p *Provider) call(ctx context.Context, method string, params any, result any) error {
	body, err := json.Marshal(rpcRequest{
		ID:      p.requestID.Add(1),
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("encode %s request: %w", method, err)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set(apiKeyHeader, p.apiKey)
	}
	p.logger.Debug(
		"sending request",
		"component", "provider",
		"method", method,
	)
	resp, err := p.client.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", method, err)
	}
	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return &ProviderError{
				Method:     method,
				StatusCode: resp.StatusCode,
				Message:    http.StatusText(resp.StatusCode),
			}
		}
		return fmt.Errorf("%s: decode response: %w", method, err)
	}
	if err := rpcResp.err(method, resp.StatusCode); err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, result); err != nil {
		return fmt.Errorf("%s: decode result: %w", method, err)
	}
	return nil
}
