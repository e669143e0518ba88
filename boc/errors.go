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

package boc

import (
	"errors"
	"fmt"
)

var (
	// ErrCapacityExceeded is returned when a bit position lies beyond the allocated length
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrValueTooWide is returned when an integer does not fit the requested bit width
	ErrValueTooWide = errors.New("value too wide for bit width")

	// ErrRefsOverflow is returned when more than 4 refs are stored or read
	ErrRefsOverflow = errors.New("refs overflow")

	// ErrMissingRef is returned when a ref is read but none remains
	ErrMissingRef = errors.New("no ref")

	// ErrUnsupportedFormat is returned for unrecognized address tags and trie shapes
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrMalformedPadding is returned when the terminating bit of a top-upped array is missing
	ErrMalformedPadding = errors.New("incorrect top-upped array")

	// ErrInvalidHexLength is returned for odd-length hex input to a byte decoder
	ErrInvalidHexLength = errors.New("hex string must have length a multiple of 2")
)

// ErrAlreadyFinalized is returned by a Builder after EndCell has been called
var ErrAlreadyFinalized = fmt.Errorf("%w: builder already finalized", ErrCapacityExceeded)

// ErrInvalidBoc is returned when bag-of-cells bytes cannot be parsed
var ErrInvalidBoc = fmt.Errorf("%w: invalid bag of cells", ErrUnsupportedFormat)

// ValueTooWideError describes an integer that does not fit into a fixed bit width
type ValueTooWideError struct {
	Value    string
	BitWidth int
}

func (e ValueTooWideError) Error() string {
	return fmt.Sprintf(
		"bit width is too small for value, got value=%s, bitWidth=%d",
		e.Value,
		e.BitWidth,
	)
}

func (ValueTooWideError) Is(target error) bool {
	return target == ErrValueTooWide
}

// CapacityError describes an access past the end of a bit buffer
type CapacityError struct {
	Position int
	Length   int
}

func (e CapacityError) Error() string {
	return fmt.Sprintf(
		"bit position %d is out of range for length %d",
		e.Position,
		e.Length,
	)
}

func (CapacityError) Is(target error) bool {
	return target == ErrCapacityExceeded
}
