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

// Package cbor encodes cell trees as deterministic CBOR.
//
// Cells are encoded as arrays of [bits, refs, hash] where bits is the
// canonical hex form of the cell data, refs holds the child cells in the
// same form and hash is the representation hash. Map keys are sorted in
// core deterministic order so equal values always encode to equal bytes.
package cbor
