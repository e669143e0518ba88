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
	"errors"
	"fmt"
)

var (
	// ErrProvider is matched by every ProviderError
	ErrProvider = errors.New("provider request failed")

	// ErrGetMethod is matched by every GetMethodError
	ErrGetMethod = errors.New("get-method failed")

	// ErrUnknownStackEntry is returned for get-method results of an unsupported type
	ErrUnknownStackEntry = errors.New("unknown stack entry type")
)

// ProviderError describes a failed HTTP request or a JSON-RPC error response
type ProviderError struct {
	Method     string
	StatusCode int
	Code       int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s: code %d: %s", e.Method, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Method, e.StatusCode, e.Message)
}

func (*ProviderError) Is(target error) bool {
	return target == ErrProvider
}

// GetMethodError describes a get-method that terminated with a non-zero exit code
type GetMethodError struct {
	Address  string
	Method   string
	ExitCode int
}

func (e *GetMethodError) Error() string {
	return fmt.Sprintf(
		"runGetMethod: %s on %s: exit code %d",
		e.Method,
		e.Address,
		e.ExitCode,
	)
}

func (*GetMethodError) Is(target error) bool {
	return target == ErrGetMethod
}
