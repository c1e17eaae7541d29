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

package woff2

import (
	"bytes"
	"encoding/binary"
	"slices"

	"github.com/andybalholm/brotli"
	"golang.org/x/exp/maps"

	"seehuhn.de/go/fontpick/font"
	"seehuhn.de/go/fontpick/sfnt"
)

type fileHeader struct {
	Signature           uint32
	Flavor              uint32
	Length              uint32
	NumTables           uint16
	Reserved            uint16
	TotalSfntSize       uint32
	TotalCompressedSize uint32
	MajorVersion        uint16
	MinorVersion        uint16
	MetaOffset          uint32
	MetaLength          uint32
	MetaOrigLength      uint32
	PrivOffset          uint32
	PrivLength          uint32
}

// Write encodes the font as a WOFF2 file.  The tables are the ones
// written by [sfnt.Write].
func Write(f *font.Font, opt *font.WriteOptions) ([]byte, error) {
	sfntData, err := sfnt.Write(f, opt)
	if err != nil {
		return nil, err
	}
	return Wrap(sfntData)
}

// Wrap converts an sfnt font file into a WOFF2 file.
func Wrap(sfntData []byte) ([]byte, error) {
	scalerType, tables, err := sfnt.ReadTables(sfntData)
	if err != nil {
		return nil, err
	}
	tags := tableOrder(maps.Keys(tables))

	hdr := fileHeader{
		Signature:     signature,
		Flavor:        scalerType,
		NumTables:     uint16(len(tags)),
		TotalSfntSize: uint32(12 + 16*len(tags)),
		MajorVersion:  1,
	}

	var dir []byte
	plain := &bytes.Buffer{}
	for _, tag := range tags {
		body := tables[tag]
		transform := byte(0)
		if tag == "glyf" || tag == "loca" {
			transform = transformNull
		}
		if idx := slices.Index(knownTags, tag); idx >= 0 {
			dir = append(dir, transform<<6|byte(idx))
		} else {
			dir = append(dir, transform<<6|customTag)
			dir = append(dir, tag...)
		}
		dir = appendUintBase128(dir, uint32(len(body)))
		plain.Write(body)
		hdr.TotalSfntSize += 4 * ((uint32(len(body)) + 3) / 4)
	}

	compressed := &bytes.Buffer{}
	w := brotli.NewWriterOptions(compressed, brotli.WriterOptions{
		Quality: brotli.BestCompression,
		LGWin:   22,
	})
	if _, err := w.Write(plain.Bytes()); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	hdr.TotalCompressedSize = uint32(compressed.Len())

	length := headerSize + len(dir) + compressed.Len()
	padding := (4 - length%4) % 4
	hdr.Length = uint32(length + padding)

	buf := bytes.NewBuffer(make([]byte, 0, length+padding))
	_ = binary.Write(buf, binary.BigEndian, hdr)
	buf.Write(dir)
	buf.Write(compressed.Bytes())
	buf.Write(make([]byte, padding))
	return buf.Bytes(), nil
}

// tableOrder sorts the table tags, with "loca" placed directly after
// "glyf".
func tableOrder(tags []string) []string {
	slices.Sort(tags)
	if i := slices.Index(tags, "loca"); i >= 0 {
		tags = slices.Delete(tags, i, i+1)
		if j := slices.Index(tags, "glyf"); j >= 0 {
			tags = slices.Insert(tags, j+1, "loca")
		} else {
			tags = append(tags, "loca")
		}
	}
	return tags
}
