// seehuhn.de/go/fontpick - extract minimal font subsets for a given text
// Copyright (C) 2025  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package woff2 reads and writes fonts in the WOFF 2.0 format.
//
// The reader supports the transformed "glyf", "loca" and "hmtx" tables.
// The writer stores all tables untransformed, using the null transform
// for "glyf" and "loca".  Font collections are not supported.
//
// https://www.w3.org/TR/WOFF2/
package woff2

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/dsnet/compress/brotli"

	"seehuhn.de/go/sfnt/parser"

	"seehuhn.de/go/fontpick/font"
	"seehuhn.de/go/fontpick/sfnt"
)

const signature = 0x774F4632 // "wOF2"

const headerSize = 48

// knownTags lists the tables which can be referenced by index in the
// table directory.
var knownTags = []string{
	"cmap", "head", "hhea", "hmtx", "maxp", "name", "OS/2", "post",
	"cvt ", "fpgm", "glyf", "loca", "prep", "CFF ", "VORG", "EBDT",
	"EBLC", "gasp", "hdmx", "kern", "LTSH", "PCLT", "VDMX", "vhea",
	"vmtx", "BASE", "GDEF", "GPOS", "GSUB", "EBSC", "JSTF", "MATH",
	"CBDT", "CBLC", "COLR", "CPAL", "SVG ", "sbix", "acnt", "avar",
	"bdat", "bloc", "bsln", "cvar", "fdsc", "feat", "fmtx", "fvar",
	"gvar", "hsty", "just", "lcar", "mort", "morx", "opbd", "prop",
	"trak", "Zapf", "Silf", "Glat", "Gloc", "Feat", "Sill",
}

const customTag = 63

// Transformation versions.
const (
	transformGlyf = 0
	transformHmtx = 1
	transformNull = 3
)

type tableEntry struct {
	tag             string
	transform       int
	origLength      uint32
	transformLength uint32
}

// isTransformed reports whether the table data is stored in transformed
// form.
func (e *tableEntry) isTransformed() bool {
	if e.tag == "glyf" || e.tag == "loca" {
		return e.transform != transformNull
	}
	return e.transform != 0
}

// storedLength is the length of the table inside the decompressed stream.
func (e *tableEntry) storedLength() uint32 {
	if e.isTransformed() {
		return e.transformLength
	}
	return e.origLength
}

// Read decodes a WOFF2 font.
func Read(data []byte) (*font.Font, error) {
	tables, err := ReadTables(data)
	if err != nil {
		return nil, err
	}
	f, err := sfnt.Decode(tables)
	if err != nil {
		return nil, err
	}
	f.Format = font.WOFF2
	return f, nil
}

// ReadTables extracts the tables of a WOFF2 font.  Transformed tables are
// converted back to their sfnt form.
func ReadTables(data []byte) (map[string][]byte, error) {
	tables, err := readTables(data)
	if err != nil {
		return nil, wrapError(err)
	}
	return tables, nil
}

func readTables(data []byte) (map[string][]byte, error) {
	p := parser.New(bytes.NewReader(data))
	sig, err := p.ReadUint32()
	if err != nil {
		return nil, err
	}
	if sig != signature {
		return nil, errCorrupt("invalid signature")
	}
	flavor, err := p.ReadUint32()
	if err != nil {
		return nil, err
	}
	if flavor == 0x74746366 { // "ttcf"
		return nil, &font.NotSupportedError{
			SubSystem: "woff2",
			Feature:   "font collections",
		}
	}
	length, err := p.ReadUint32()
	if err != nil {
		return nil, err
	}
	if int64(length) > int64(len(data)) {
		return nil, errCorrupt("file truncated")
	}
	numTables, err := p.ReadUint16()
	if err != nil {
		return nil, err
	}
	if numTables == 0 {
		return nil, errCorrupt("no tables")
	}
	// reserved, totalSfntSize
	if err := p.Discard(6); err != nil {
		return nil, err
	}
	totalCompressedSize, err := p.ReadUint32()
	if err != nil {
		return nil, err
	}
	// version, metadata and private block
	if err := p.SeekPos(headerSize); err != nil {
		return nil, err
	}

	entries := make([]*tableEntry, numTables)
	var totalLength uint64
	for i := range entries {
		e, err := readEntry(p)
		if err != nil {
			return nil, err
		}
		entries[i] = e
		totalLength += uint64(e.storedLength())
	}

	start := p.Pos()
	if start+int64(totalCompressedSize) > int64(len(data)) {
		return nil, errCorrupt("compressed data extends beyond end of file")
	}
	compressed := data[start : start+int64(totalCompressedSize)]
	stream, err := decompress(compressed, totalLength)
	if err != nil {
		return nil, err
	}

	tables := make(map[string][]byte, numTables)
	var glyfEntry, locaEntry *tableEntry
	pos := uint32(0)
	for _, e := range entries {
		n := e.storedLength()
		body := stream[pos : pos+n]
		pos += n
		if _, dup := tables[e.tag]; dup {
			return nil, errCorrupt(fmt.Sprintf("duplicate table %q", e.tag))
		}
		tables[e.tag] = body

		switch e.tag {
		case "glyf":
			glyfEntry = e
		case "loca":
			locaEntry = e
		}
	}

	if glyfEntry != nil || locaEntry != nil {
		if glyfEntry == nil || locaEntry == nil {
			return nil, errCorrupt("glyf and loca must be present together")
		}
		if glyfEntry.isTransformed() != locaEntry.isTransformed() {
			return nil, errCorrupt("glyf and loca use different transforms")
		}
	}
	if glyfEntry != nil && glyfEntry.isTransformed() {
		if glyfEntry.transform != transformGlyf {
			return nil, errUnknownTransform(glyfEntry)
		}
		if locaEntry.transformLength != 0 {
			return nil, errCorrupt("transformed loca table is not empty")
		}
		rec, err := reconstructGlyf(tables["glyf"])
		if err != nil {
			return nil, err
		}
		tables["glyf"] = rec.glyf
		tables["loca"] = rec.loca
		if err := patchHead(tables, rec.locaFormat); err != nil {
			return nil, err
		}
		if e := findEntry(entries, "hmtx"); e != nil && e.isTransformed() {
			if e.transform != transformHmtx {
				return nil, errUnknownTransform(e)
			}
			hmtx, err := reconstructHmtx(tables, rec.xMin)
			if err != nil {
				return nil, err
			}
			tables["hmtx"] = hmtx
		}
	}
	for _, e := range entries {
		if !e.isTransformed() {
			continue
		}
		switch e.tag {
		case "glyf", "loca", "hmtx":
			if glyfEntry != nil && glyfEntry.isTransformed() {
				continue
			}
		}
		return nil, errUnknownTransform(e)
	}
	return tables, nil
}

func readEntry(p *parser.Parser) (*tableEntry, error) {
	flags, err := p.ReadUint8()
	if err != nil {
		return nil, err
	}
	e := &tableEntry{
		transform: int(flags >> 6),
	}
	if idx := int(flags & 0x3F); idx == customTag {
		buf, err := p.ReadBytes(4)
		if err != nil {
			return nil, err
		}
		e.tag = string(buf)
	} else if idx < len(knownTags) {
		e.tag = knownTags[idx]
	} else {
		return nil, errCorrupt(fmt.Sprintf("invalid table index %d", idx))
	}

	e.origLength, err = readUintBase128(p)
	if err != nil {
		return nil, err
	}
	if e.isTransformed() {
		e.transformLength, err = readUintBase128(p)
		if err != nil {
			return nil, err
		}
	}
	return e, nil
}

func findEntry(entries []*tableEntry, tag string) *tableEntry {
	for _, e := range entries {
		if e.tag == tag {
			return e
		}
	}
	return nil
}

// decompress expands the Brotli compressed table data.  The result must
// have exactly the expected length.
func decompress(compressed []byte, expected uint64) ([]byte, error) {
	r, err := brotli.NewReader(bytes.NewReader(compressed), nil)
	if err != nil {
		return nil, errCorrupt(err.Error())
	}
	defer r.Close()
	stream, err := io.ReadAll(io.LimitReader(r, int64(expected)+1))
	if err != nil {
		return nil, errCorrupt("brotli: " + err.Error())
	}
	if uint64(len(stream)) != expected {
		return nil, errCorrupt(fmt.Sprintf("decompressed length %d, expected %d",
			len(stream), expected))
	}
	return stream, nil
}

// patchHead sets indexToLocFormat in the "head" table to match the
// reconstructed "loca" table.
func patchHead(tables map[string][]byte, locaFormat int16) error {
	head := tables["head"]
	if len(head) < 54 {
		return errCorrupt("missing or truncated head table")
	}
	head = bytes.Clone(head)
	head[50] = byte(locaFormat >> 8)
	head[51] = byte(locaFormat)
	tables["head"] = head
	return nil
}

// readUintBase128 reads a variable-length unsigned integer with at most
// five bytes.
func readUintBase128(p *parser.Parser) (uint32, error) {
	var accum uint32
	for i := range 5 {
		b, err := p.ReadUint8()
		if err != nil {
			return 0, err
		}
		if i == 0 && b == 0x80 {
			return 0, errCorrupt("UIntBase128 with leading zeros")
		}
		if accum&0xFE000000 != 0 {
			return 0, errCorrupt("UIntBase128 overflow")
		}
		accum = accum<<7 | uint32(b&0x7F)
		if b&0x80 == 0 {
			return accum, nil
		}
	}
	return 0, errCorrupt("UIntBase128 longer than 5 bytes")
}

// appendUintBase128 is the inverse of readUintBase128.
func appendUintBase128(buf []byte, x uint32) []byte {
	var tmp [5]byte
	i := len(tmp) - 1
	tmp[i] = byte(x & 0x7F)
	for x >>= 7; x > 0; x >>= 7 {
		i--
		tmp[i] = byte(x&0x7F) | 0x80
	}
	return append(buf, tmp[i:]...)
}

// read255Uint16 reads a variable-length 16-bit integer.
func read255Uint16(p *parser.Parser) (uint16, error) {
	const (
		oneMoreByteCode1 = 255
		oneMoreByteCode2 = 254
		wordCode         = 253
		lowestUCode      = 253
	)
	code, err := p.ReadUint8()
	if err != nil {
		return 0, err
	}
	switch code {
	case wordCode:
		return p.ReadUint16()
	case oneMoreByteCode1:
		b, err := p.ReadUint8()
		return uint16(b) + lowestUCode, err
	case oneMoreByteCode2:
		b, err := p.ReadUint8()
		return uint16(b) + 2*lowestUCode, err
	default:
		return uint16(code), nil
	}
}

// readBlob returns a copy of the next n bytes.
func readBlob(p *parser.Parser, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := p.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// wrapError reports read errors, for example from truncated streams,
// as corrupt font data.
func wrapError(err error) error {
	var invalid *font.InvalidFontError
	var unsupported *font.NotSupportedError
	if errors.As(err, &invalid) || errors.As(err, &unsupported) {
		return err
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return errCorrupt("unexpected end of data")
	}
	return errCorrupt(err.Error())
}

func errCorrupt(reason string) error {
	return &font.InvalidFontError{
		SubSystem: "woff2",
		Reason:    reason,
	}
}

func errUnknownTransform(e *tableEntry) error {
	return &font.NotSupportedError{
		SubSystem: "woff2",
		Feature:   fmt.Sprintf("transform %d of table %q", e.transform, e.tag),
	}
}
