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
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/exp/maps"
	"golang.org/x/image/font/gofont/goregular"

	"seehuhn.de/go/postscript/funit"

	"seehuhn.de/go/sfnt/glyf"
	"seehuhn.de/go/sfnt/parser"

	"seehuhn.de/go/fontpick/font"
	"seehuhn.de/go/fontpick/sfnt"
)

func TestRoundTrip(t *testing.T) {
	f1, err := sfnt.Read(goregular.TTF)
	if err != nil {
		t.Fatal(err)
	}
	opt := &font.WriteOptions{IncludeHinting: true}
	data, err := Write(f1, opt)
	if err != nil {
		t.Fatal(err)
	}
	if len(data)%4 != 0 {
		t.Errorf("file length %d is not a multiple of 4", len(data))
	}
	if len(data) >= len(goregular.TTF)/2 {
		t.Errorf("poor compression: %d bytes", len(data))
	}

	f2, err := Read(data)
	if err != nil {
		t.Fatal(err)
	}
	if f2.Format != font.WOFF2 {
		t.Errorf("wrong format %s", f2.Format)
	}

	sfntData, err := sfnt.Write(f1, opt)
	if err != nil {
		t.Fatal(err)
	}
	want, err := sfnt.Read(sfntData)
	if err != nil {
		t.Fatal(err)
	}
	want.Format = font.WOFF2
	if d := cmp.Diff(want, f2); d != "" {
		t.Errorf("round trip (-want +got):\n%s", d)
	}

	_, wantTables, err := sfnt.ReadTables(sfntData)
	if err != nil {
		t.Fatal(err)
	}
	tables, err := ReadTables(data)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(wantTables, tables); d != "" {
		t.Errorf("tables (-want +got):\n%s", d)
	}
}

func TestTableOrder(t *testing.T) {
	m := map[string]bool{
		"OS/2": true, "cmap": true, "glyf": true, "head": true,
		"hhea": true, "hmtx": true, "loca": true, "maxp": true,
	}
	got := tableOrder(maps.Keys(m))
	want := []string{"OS/2", "cmap", "glyf", "loca", "head", "hhea", "hmtx", "maxp"}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("table order (-want +got):\n%s", d)
	}
}

func TestUintBase128(t *testing.T) {
	for _, x := range []uint32{0, 1, 127, 128, 16383, 16384, 1 << 28, 0xFFFFFFFF} {
		buf := appendUintBase128(nil, x)
		p := parser.New(bytes.NewReader(buf))
		got, err := readUintBase128(p)
		if err != nil {
			t.Fatal(err)
		}
		if got != x {
			t.Errorf("%d: got %d", x, got)
		}
		if p.Pos() != int64(len(buf)) {
			t.Errorf("%d: read %d of %d bytes", x, p.Pos(), len(buf))
		}
	}

	for _, buf := range [][]byte{
		{0x80, 0x01},
		{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01},
		{0x90, 0x80, 0x80, 0x80, 0x00},
	} {
		p := parser.New(bytes.NewReader(buf))
		if _, err := readUintBase128(p); !font.IsCorrupt(err) {
			t.Errorf("% x: expected InvalidFontError, got %v", buf, err)
		}
	}
}

func Test255Uint16(t *testing.T) {
	cases := []struct {
		in   []byte
		want uint16
	}{
		{[]byte{0}, 0},
		{[]byte{252}, 252},
		{[]byte{255, 0}, 253},
		{[]byte{255, 252}, 505},
		{[]byte{254, 0}, 506},
		{[]byte{254, 255}, 761},
		{[]byte{253, 0x12, 0x34}, 0x1234},
	}
	for _, c := range cases {
		got, err := read255Uint16(parser.New(bytes.NewReader(c.in)))
		if err != nil {
			t.Fatal(err)
		}
		if got != c.want {
			t.Errorf("% x: got %d, want %d", c.in, got, c.want)
		}
	}
}

// transformedGlyf is a transformed glyf table with an empty glyph 0 and a
// triangle as glyph 1.
var transformedGlyf = []byte{
	// reserved, optionFlags, numGlyphs, indexFormat
	0, 0, 0, 0, 0, 2, 0, 0,
	// stream sizes: nContour, nPoints, flag, glyph, composite, bbox,
	// instruction
	0, 0, 0, 4,
	0, 0, 0, 1,
	0, 0, 0, 3,
	0, 0, 0, 7,
	0, 0, 0, 0,
	0, 0, 0, 4,
	0, 0, 0, 0,

	// nContour stream
	0, 0, 0, 1,
	// nPoints stream
	3,
	// flag stream
	0x01, 11, 126,
	// glyph stream: three triplets and the instruction length
	0, 100, 0, 50, 0, 100, 0,
	// bbox bitmap
	0, 0, 0, 0,
}

func TestReconstructGlyf(t *testing.T) {
	rec, err := reconstructGlyf(transformedGlyf)
	if err != nil {
		t.Fatal(err)
	}
	gg, err := glyf.Decode(&glyf.Encoded{
		GlyfData:   rec.glyf,
		LocaData:   rec.loca,
		LocaFormat: rec.locaFormat,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(gg) != 2 {
		t.Fatalf("%d glyphs, want 2", len(gg))
	}
	if gg[0] != nil {
		t.Error("glyph 0 is not empty")
	}
	simple, ok := gg[1].Data.(glyf.SimpleGlyph)
	if !ok {
		t.Fatalf("glyph 1 has type %T", gg[1].Data)
	}
	unpacked, err := simple.Unpack()
	if err != nil {
		t.Fatal(err)
	}
	want := []glyf.Contour{{
		{X: 0, Y: 0, OnCurve: true},
		{X: 100, Y: 0, OnCurve: true},
		{X: 50, Y: 100, OnCurve: true},
	}}
	if d := cmp.Diff(want, unpacked.Contours); d != "" {
		t.Errorf("contours (-want +got):\n%s", d)
	}

	for _, n := range []int{10, 40, len(transformedGlyf) - 1} {
		if _, err := reconstructGlyf(transformedGlyf[:n]); !font.IsCorrupt(err) {
			t.Errorf("%d bytes: expected InvalidFontError, got %v", n, err)
		}
	}
}

func TestReconstructHmtx(t *testing.T) {
	hhea := make([]byte, 36)
	hhea[35] = 2 // numberOfHMetrics
	tables := map[string][]byte{
		"hhea": hhea,
		// lsb values are only omitted for the monospaced glyphs
		"hmtx": {
			0x02,
			0x01, 0xF4, 0x02, 0x58, // advances 500, 600
			0x00, 0x0A, 0xFF, 0xFF, // lsb 10, -1
		},
	}
	got, err := reconstructHmtx(tables, []funit.Int16{0, 0, 25})
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{
		0x01, 0xF4, 0x00, 0x0A,
		0x02, 0x58, 0xFF, 0xFF,
		0x00, 0x19,
	}
	if !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}

func TestCorrupt(t *testing.T) {
	f, err := sfnt.Read(goregular.TTF)
	if err != nil {
		t.Fatal(err)
	}
	data, err := Write(f, nil)
	if err != nil {
		t.Fatal(err)
	}

	for _, n := range []int{0, 10, 47, 60, len(data) / 2} {
		if _, err := Read(data[:n]); !font.IsCorrupt(err) {
			t.Errorf("%d bytes: expected InvalidFontError, got %v", n, err)
		}
	}

	bad := bytes.Clone(data)
	copy(bad, "wOFF")
	if _, err := Read(bad); !font.IsCorrupt(err) {
		t.Errorf("bad signature: expected InvalidFontError, got %v", err)
	}
}
