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

// Package woff reads and writes fonts in the WOFF 1.0 format.
//
// WOFF files contain the tables of an sfnt font, each table compressed
// separately with zlib.  Extended metadata and private data blocks are
// ignored when reading and are never written.
//
// https://www.w3.org/TR/WOFF/
package woff

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"slices"

	"golang.org/x/exp/maps"

	"seehuhn.de/go/fontpick/font"
	"seehuhn.de/go/fontpick/sfnt"
)

const signature = 0x774F4646 // "wOFF"

type fileHeader struct {
	Signature      uint32
	Flavor         uint32
	Length         uint32
	NumTables      uint16
	Reserved       uint16
	TotalSfntSize  uint32
	MajorVersion   uint16
	MinorVersion   uint16
	MetaOffset     uint32
	MetaLength     uint32
	MetaOrigLength uint32
	PrivOffset     uint32
	PrivLength     uint32
}

type tableEntry struct {
	Tag          [4]byte
	Offset       uint32
	CompLength   uint32
	OrigLength   uint32
	OrigChecksum uint32
}

const (
	headerSize = 44
	entrySize  = 20
)

// Read decodes a WOFF font.
func Read(data []byte) (*font.Font, error) {
	tables, err := ReadTables(data)
	if err != nil {
		return nil, err
	}
	f, err := sfnt.Decode(tables)
	if err != nil {
		return nil, err
	}
	f.Format = font.WOFF
	return f, nil
}

// ReadTables extracts and decompresses the tables of a WOFF font.
func ReadTables(data []byte) (map[string][]byte, error) {
	if len(data) < headerSize {
		return nil, errCorrupt("file too short")
	}
	var hdr fileHeader
	_ = binary.Read(bytes.NewReader(data), binary.BigEndian, &hdr)
	if hdr.Signature != signature {
		return nil, errCorrupt("invalid signature")
	}
	if hdr.Flavor == 0x74746366 { // "ttcf"
		return nil, &font.NotSupportedError{
			SubSystem: "woff",
			Feature:   "font collections",
		}
	}
	if int64(hdr.Length) > int64(len(data)) {
		return nil, errCorrupt("file truncated")
	}
	numTables := int(hdr.NumTables)
	if numTables == 0 {
		return nil, errCorrupt("no tables")
	}
	if len(data) < headerSize+numTables*entrySize {
		return nil, errCorrupt("truncated table directory")
	}

	entries := make([]tableEntry, numTables)
	dir := bytes.NewReader(data[headerSize : headerSize+numTables*entrySize])
	_ = binary.Read(dir, binary.BigEndian, entries)

	tables := make(map[string][]byte, numTables)
	for _, e := range entries {
		tag := string(e.Tag[:])
		end := uint64(e.Offset) + uint64(e.CompLength)
		if end > uint64(len(data)) {
			return nil, errCorrupt(fmt.Sprintf("table %q extends beyond end of file", tag))
		}
		if e.CompLength > e.OrigLength {
			return nil, errCorrupt(fmt.Sprintf("table %q: invalid compressed length", tag))
		}
		body := data[e.Offset:end]
		if e.CompLength == e.OrigLength {
			tables[tag] = body
			continue
		}
		plain, err := inflate(body, e.OrigLength)
		if err != nil {
			return nil, errCorrupt(fmt.Sprintf("table %q: %v", tag, err))
		}
		tables[tag] = plain
	}
	return tables, nil
}

func inflate(body []byte, origLength uint32) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	plain, err := io.ReadAll(io.LimitReader(zr, int64(origLength)+1))
	if err != nil {
		return nil, err
	}
	if len(plain) != int(origLength) {
		return nil, fmt.Errorf("decompressed length %d, expected %d",
			len(plain), origLength)
	}
	return plain, nil
}

// Write encodes the font as a WOFF file.  The tables are the ones
// written by [sfnt.Write].
func Write(f *font.Font, opt *font.WriteOptions) ([]byte, error) {
	sfntData, err := sfnt.Write(f, opt)
	if err != nil {
		return nil, err
	}
	return Wrap(sfntData)
}

// Wrap converts an sfnt font file into a WOFF file.
func Wrap(sfntData []byte) ([]byte, error) {
	scalerType, tables, err := sfnt.ReadTables(sfntData)
	if err != nil {
		return nil, err
	}
	tags := maps.Keys(tables)
	slices.Sort(tags)
	numTables := len(tags)

	hdr := fileHeader{
		Signature:     signature,
		Flavor:        scalerType,
		NumTables:     uint16(numTables),
		TotalSfntSize: uint32(12 + 16*numTables),
		MajorVersion:  1,
	}

	entries := make([]tableEntry, numTables)
	bodies := make([][]byte, numTables)
	offset := uint32(headerSize + numTables*entrySize)
	for i, tag := range tags {
		plain := tables[tag]
		body, err := deflate(plain)
		if err != nil {
			return nil, err
		}
		entries[i] = tableEntry{
			Offset:       offset,
			CompLength:   uint32(len(body)),
			OrigLength:   uint32(len(plain)),
			OrigChecksum: checksum(tag, plain),
		}
		copy(entries[i].Tag[:], tag)
		bodies[i] = body
		offset += 4 * ((uint32(len(body)) + 3) / 4)
		hdr.TotalSfntSize += 4 * ((uint32(len(plain)) + 3) / 4)
	}
	hdr.Length = offset

	buf := bytes.NewBuffer(make([]byte, 0, offset))
	_ = binary.Write(buf, binary.BigEndian, hdr)
	_ = binary.Write(buf, binary.BigEndian, entries)
	var pad [3]byte
	for _, body := range bodies {
		buf.Write(body)
		if k := len(body) % 4; k != 0 {
			buf.Write(pad[:4-k])
		}
	}
	return buf.Bytes(), nil
}

// checksum computes the sfnt table checksum, the sum of the table read
// as big-endian uint32 values.  For the "head" table, the
// checkSumAdjustment field counts as zero.
func checksum(tag string, data []byte) uint32 {
	var sum uint32
	for i := 0; i < len(data); i += 4 {
		var word [4]byte
		copy(word[:], data[i:])
		if tag == "head" && i == 8 {
			continue
		}
		sum += binary.BigEndian.Uint32(word[:])
	}
	return sum
}

// deflate compresses a table.  If compression does not make the table
// smaller, the uncompressed data is returned.
func deflate(plain []byte) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw, err := zlib.NewWriterLevel(buf, zlib.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(plain); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	if buf.Len() >= len(plain) {
		return plain, nil
	}
	return buf.Bytes(), nil
}

func errCorrupt(reason string) error {
	return &font.InvalidFontError{
		SubSystem: "woff",
		Reason:    reason,
	}
}
