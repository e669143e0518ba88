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
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"math/bits"
	"slices"
	"strings"
)

var (
	bocMagicGeneric  = []byte{0xb5, 0xee, 0x9c, 0x72}
	bocMagicLean     = []byte{0x68, 0xff, 0x65, 0xf3}
	bocMagicLeanCrc  = []byte{0xac, 0xc3, 0xa7, 0x28}
	crc32cTable      = crc32.MakeTable(crc32.Castagnoli)
	maxBocSizeBytes  = 4
	maxBocOffsetSize = 8
)

// SerializeOptions controls the optional parts of the bag-of-cells output
type SerializeOptions struct {
	// WithIndex emits the cell offset index
	WithIndex bool
	// WithCrc32c appends a CRC32C checksum of everything before it
	WithCrc32c bool
}

// DefaultSerializeOptions is what ToBoc uses: no index, checksum appended
var DefaultSerializeOptions = SerializeOptions{
	WithCrc32c: true,
}

// Crc32c returns the little-endian CRC32C checksum used by bags of cells
func Crc32c(data []byte) []byte {
	return binary.LittleEndian.AppendUint32(nil, crc32.Checksum(data, crc32cTable))
}

type bocHeader struct {
	hasIdx       bool
	hasCrc32c    bool
	hasCacheBits bool
	sizeBytes    int
	offsetBytes  int
	cellsNum     int
	rootsNum     int
	absentNum    int
	totCellsSize int
	rootList     []int
	cellsData    []byte
}

type bocReader struct {
	data []byte
	pos  int
}

func (r *bocReader) readBytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, fmt.Errorf("%w: not enough bytes", ErrInvalidBoc)
	}
	ret := r.data[r.pos : r.pos+n]
	r.pos += n
	return ret, nil
}

func (r *bocReader) readByte() (byte, error) {
	b, err := r.readBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *bocReader) readUint(n int) (int, error) {
	b, err := r.readBytes(n)
	if err != nil {
		return 0, err
	}
	var ret uint64
	for _, v := range b {
		ret = ret<<8 | uint64(v)
	}
	if ret > uint64(len(r.data))*8 {
		return 0, fmt.Errorf("%w: value %d out of range", ErrInvalidBoc, ret)
	}
	return int(ret), nil
}

func parseBocHeader(data []byte) (*bocHeader, error) {
	if len(data) < 5 {
		return nil, fmt.Errorf("%w: too short", ErrInvalidBoc)
	}
	r := &bocReader{data: data}
	prefix, _ := r.readBytes(4)
	h := &bocHeader{}
	switch {
	case bytes.Equal(prefix, bocMagicGeneric):
		flags, err := r.readByte()
		if err != nil {
			return nil, err
		}
		h.hasIdx = flags&0x80 != 0
		h.hasCrc32c = flags&0x40 != 0
		h.hasCacheBits = flags&0x20 != 0
		h.sizeBytes = int(flags & 0x07)
	case bytes.Equal(prefix, bocMagicLean):
		h.hasIdx = true
		size, err := r.readByte()
		if err != nil {
			return nil, err
		}
		h.sizeBytes = int(size)
	case bytes.Equal(prefix, bocMagicLeanCrc):
		h.hasIdx = true
		h.hasCrc32c = true
		size, err := r.readByte()
		if err != nil {
			return nil, err
		}
		h.sizeBytes = int(size)
	default:
		return nil, fmt.Errorf("%w: unknown magic %x", ErrInvalidBoc, prefix)
	}
	if h.sizeBytes < 1 || h.sizeBytes > maxBocSizeBytes {
		return nil, fmt.Errorf("%w: unsupported ref size %d", ErrInvalidBoc, h.sizeBytes)
	}
	offsetBytes, err := r.readByte()
	if err != nil {
		return nil, err
	}
	h.offsetBytes = int(offsetBytes)
	if h.offsetBytes < 1 || h.offsetBytes > maxBocOffsetSize {
		return nil, fmt.Errorf("%w: unsupported offset size %d", ErrInvalidBoc, h.offsetBytes)
	}
	if h.cellsNum, err = r.readUint(h.sizeBytes); err != nil {
		return nil, err
	}
	if h.rootsNum, err = r.readUint(h.sizeBytes); err != nil {
		return nil, err
	}
	if h.absentNum, err = r.readUint(h.sizeBytes); err != nil {
		return nil, err
	}
	if h.totCellsSize, err = r.readUint(h.offsetBytes); err != nil {
		return nil, err
	}
	if h.rootsNum < 1 || h.rootsNum > h.cellsNum {
		return nil, fmt.Errorf("%w: bad root count %d", ErrInvalidBoc, h.rootsNum)
	}
	// Every cell needs at least its two descriptor bytes
	if h.totCellsSize < h.cellsNum*2 {
		return nil, fmt.Errorf("%w: cells size %d too small for %d cells", ErrInvalidBoc, h.totCellsSize, h.cellsNum)
	}
	for i := 0; i < h.rootsNum; i++ {
		idx, err := r.readUint(h.sizeBytes)
		if err != nil {
			return nil, err
		}
		if idx >= h.cellsNum {
			return nil, fmt.Errorf("%w: root index %d out of range", ErrInvalidBoc, idx)
		}
		h.rootList = append(h.rootList, idx)
	}
	if h.hasIdx {
		if _, err := r.readBytes(h.cellsNum * h.offsetBytes); err != nil {
			return nil, err
		}
	}
	if h.cellsData, err = r.readBytes(h.totCellsSize); err != nil {
		return nil, err
	}
	if h.hasCrc32c {
		checksum, err := r.readBytes(4)
		if err != nil {
			return nil, err
		}
		if !bytes.Equal(Crc32c(data[:r.pos-4]), checksum) {
			return nil, fmt.Errorf("%w: crc32c mismatch", ErrInvalidBoc)
		}
	}
	if r.pos != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrInvalidBoc, len(data)-r.pos)
	}
	return h, nil
}

type rawCell struct {
	bits      *BitString
	refs      []int
	exotic    bool
	levelMask uint8
}

func parseRawCell(r *bocReader, refSize int) (*rawCell, error) {
	d1, err := r.readByte()
	if err != nil {
		return nil, err
	}
	d2, err := r.readByte()
	if err != nil {
		return nil, err
	}
	ret := &rawCell{
		exotic:    d1&8 != 0,
		levelMask: d1 >> 5,
	}
	refNum := int(d1 & 7)
	if refNum > MaxCellRefs {
		return nil, fmt.Errorf("%w: cell with %d refs", ErrInvalidBoc, refNum)
	}
	if d1&16 != 0 {
		// Stored hashes and depths are recomputed on demand
		hashCount := bits.OnesCount8(ret.levelMask) + 1
		if _, err := r.readBytes(hashCount * (HashSize + 2)); err != nil {
			return nil, err
		}
	}
	dataLen := (int(d2) + 1) / 2
	data, err := r.readBytes(dataLen)
	if err != nil {
		return nil, err
	}
	ret.bits = NewBitString(0)
	if err := ret.bits.SetTopUppedArray(data, d2%2 == 0); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBoc, err)
	}
	if ret.bits.UsedBits() > MaxCellBits {
		return nil, fmt.Errorf("%w: cell with %d bits", ErrInvalidBoc, ret.bits.UsedBits())
	}
	for i := 0; i < refNum; i++ {
		idx, err := r.readUint(refSize)
		if err != nil {
			return nil, err
		}
		ret.refs = append(ret.refs, idx)
	}
	return ret, nil
}

// FromBoc parses a bag of cells and returns its root cells
func FromBoc(data []byte) ([]*Cell, error) {
	h, err := parseBocHeader(data)
	if err != nil {
		return nil, err
	}
	r := &bocReader{data: h.cellsData}
	raws := make([]*rawCell, 0, h.cellsNum)
	for i := 0; i < h.cellsNum; i++ {
		rc, err := parseRawCell(r, h.sizeBytes)
		if err != nil {
			return nil, err
		}
		raws = append(raws, rc)
	}
	// Refs always point forward, so cells are assembled from the end
	cells := make([]*Cell, h.cellsNum)
	for i := h.cellsNum - 1; i >= 0; i-- {
		rc := raws[i]
		c := &Cell{
			bits:      rc.bits,
			exotic:    rc.exotic,
			levelMask: rc.levelMask,
		}
		for _, idx := range rc.refs {
			if idx <= i || idx >= h.cellsNum {
				return nil, fmt.Errorf("%w: topological order is broken at cell %d", ErrInvalidBoc, i)
			}
			c.refs = append(c.refs, cells[idx])
		}
		cells[i] = c
	}
	ret := make([]*Cell, 0, len(h.rootList))
	for _, idx := range h.rootList {
		ret = append(ret, cells[idx])
	}
	return ret, nil
}

// FromBocOne parses a bag of cells with exactly one root
func FromBocOne(data []byte) (*Cell, error) {
	roots, err := FromBoc(data)
	if err != nil {
		return nil, err
	}
	if len(roots) != 1 {
		return nil, fmt.Errorf("%w: expected 1 root, got %d", ErrInvalidBoc, len(roots))
	}
	return roots[0], nil
}

// FromBocHex parses a hex encoded bag of cells with exactly one root
func FromBocHex(s string) (*Cell, error) {
	data, err := DecodeHex(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	return FromBocOne(data)
}

// FromBocBase64 parses a base64 encoded bag of cells with exactly one root
func FromBocBase64(s string) (*Cell, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBoc, err)
	}
	return FromBocOne(data)
}

// topologicalOrder lists the distinct cells reachable from root so that every
// cell comes before all of its children. It is the reverse of a post-order
// walk that visits refs last to first, which keeps plain trees in DFS
// pre-order.
type topologicalOrder struct {
	cells []*Cell
	index map[[HashSize]byte]int
}

func cellKey(c *Cell) [HashSize]byte {
	var ret [HashSize]byte
	copy(ret[:], c.reprHash())
	return ret
}

func newTopologicalOrder(root *Cell) *topologicalOrder {
	t := &topologicalOrder{index: make(map[[HashSize]byte]int)}
	visited := make(map[[HashSize]byte]struct{})
	t.visit(root, visited)
	slices.Reverse(t.cells)
	for i, c := range t.cells {
		t.index[cellKey(c)] = i
	}
	return t
}

func (t *topologicalOrder) visit(c *Cell, visited map[[HashSize]byte]struct{}) {
	key := cellKey(c)
	if _, ok := visited[key]; ok {
		return
	}
	visited[key] = struct{}{}
	for i := len(c.refs) - 1; i >= 0; i-- {
		t.visit(c.refs[i], visited)
	}
	t.cells = append(t.cells, c)
}

func bytesForValue(v int) int {
	return max((bits.Len(uint(v))+7)/8, 1)
}

func appendUint(dst []byte, v int, size int) []byte {
	for i := size - 1; i >= 0; i-- {
		dst = append(dst, byte(uint64(v)>>(uint(i)*8)))
	}
	return dst
}

// ToBoc serializes the cell tree with DefaultSerializeOptions
func (c *Cell) ToBoc() ([]byte, error) {
	return c.ToBocWithOptions(DefaultSerializeOptions)
}

// ToBocBase64 returns ToBoc encoded as standard base64
func (c *Cell) ToBocBase64() (string, error) {
	data, err := c.ToBoc()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// ToBocWithOptions serializes the cell tree rooted at c as a single-root bag of cells
func (c *Cell) ToBocWithOptions(opts SerializeOptions) ([]byte, error) {
	order := newTopologicalOrder(c)
	cellsNum := len(order.cells)
	sizeBytes := bytesForValue(cellsNum)
	if sizeBytes > maxBocSizeBytes {
		return nil, fmt.Errorf("%w: too many cells (%d)", ErrInvalidBoc, cellsNum)
	}
	serialized := make([][]byte, 0, cellsNum)
	ends := make([]int, 0, cellsNum)
	fullSize := 0
	for i, cell := range order.cells {
		buf := cell.dataWithDescriptors()
		for _, r := range cell.refs {
			idx := order.index[cellKey(r)]
			if idx <= i {
				return nil, fmt.Errorf("%w: topological order is broken at cell %d", ErrInvalidBoc, i)
			}
			buf = appendUint(buf, idx, sizeBytes)
		}
		serialized = append(serialized, buf)
		fullSize += len(buf)
		ends = append(ends, fullSize)
	}
	offsetBytes := bytesForValue(fullSize)

	ret := make([]byte, 0, 16+fullSize)
	ret = append(ret, bocMagicGeneric...)
	var flags byte
	if opts.WithIndex {
		flags |= 0x80
	}
	if opts.WithCrc32c {
		flags |= 0x40
	}
	flags |= byte(sizeBytes)
	ret = append(ret, flags, byte(offsetBytes))
	ret = appendUint(ret, cellsNum, sizeBytes)
	// root count, absent count, total cells size, root index
	ret = appendUint(ret, 1, sizeBytes)
	ret = appendUint(ret, 0, sizeBytes)
	ret = appendUint(ret, fullSize, offsetBytes)
	ret = appendUint(ret, 0, sizeBytes)
	if opts.WithIndex {
		for _, end := range ends {
			ret = appendUint(ret, end, offsetBytes)
		}
	}
	for _, buf := range serialized {
		ret = append(ret, buf...)
	}
	if opts.WithCrc32c {
		ret = append(ret, Crc32c(ret)...)
	}
	return ret, nil
}
