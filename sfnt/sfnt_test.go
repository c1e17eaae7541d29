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

package sfnt

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"golang.org/x/image/font/gofont/goregular"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/sfnt/glyph"

	"seehuhn.de/go/sfnt/header"

	"seehuhn.de/go/fontpick/font"
)

func square(x, y, size float64) []font.Command {
	return []font.Command{
		font.MoveTo(x, y),
		font.LineTo(x+size, y),
		font.LineTo(x+size, y+size),
		font.LineTo(x, y+size),
		font.Close(),
	}
}

func testFont(outlines font.OutlineKind) *font.Font {
	f := &font.Font{
		Format:   font.OutlineTTF,
		Outlines: outlines,
		Glyphs: []*font.Glyph{
			{Name: ".notdef", Advance: 500, Outline: square(50, 0, 400)},
			{Name: "space", Advance: 250},
			{Name: "A", Advance: 600, Outline: []font.Command{
				font.MoveTo(0, 0), font.LineTo(300, 700), font.LineTo(600, 0), font.Close(),
			}},
			{Name: "o", Advance: 700, Outline: []font.Command{
				font.MoveTo(50, 250),
				font.QuadTo(50, 550, 350, 550),
				font.QuadTo(650, 550, 650, 250),
				font.QuadTo(650, -50, 350, -50),
				font.QuadTo(50, -50, 50, 250),
				font.Close(),
			}},
			{Name: "dot", Advance: 200, Outline: square(50, 0, 100)},
			{Name: "o.dot", Advance: 700, Components: []font.Component{
				{Name: "o", Trfm: matrix.Identity},
				{Name: "dot", Trfm: matrix.Translate(175, 600)},
			}},
		},
		CMap: map[rune]glyph.ID{
			' ': 1,
			'A': 2,
			'o': 3,
			'.': 4,
			'ȯ': 5,
		},
		Metadata: font.Metadata{
			FamilyName:         "Test",
			StyleName:          "Regular",
			FullName:           "Test Regular",
			PostScriptName:     "Test-Regular",
			Version:            "Version 1.002",
			UnitsPerEm:         1000,
			FontRevision:       1.002,
			Ascent:             800,
			Descent:            -200,
			LineGap:            100,
			CapHeight:          700,
			XHeight:            500,
			UnderlinePosition:  -100,
			UnderlineThickness: 50,
			Weight:             400,
			Width:              5,
			IsRegular:          true,
			Vendor:             "TEST",
			Created:            time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC),
			Modified:           time.Date(2024, 6, 7, 8, 9, 10, 0, time.UTC),
		},
		Kerning: []font.KernPair{
			{Left: "A", Right: "o", Value: -40},
		},
	}
	if outlines == font.CFFOutlines {
		f.Format = font.OutlineOTF
	}
	return f
}

func TestRoundTripTrueType(t *testing.T) {
	f := testFont(font.GlyfOutlines)
	f.Glyphs[2].Instructions = []byte{0xB0, 0x01}
	f.Hinting = &font.Hinting{
		FontProgram:      []byte{0xB0, 0x00, 0x2C},
		ControlProgram:   []byte{0xB0, 0x02},
		MaxZones:         2,
		MaxStackElements: 16,
	}
	opt := &font.WriteOptions{IncludeHinting: true, IncludeKerning: true}
	data, err := Write(f, opt)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Read(data)
	if err != nil {
		t.Fatal(err)
	}

	if got.Format != font.OutlineTTF || got.Outlines != font.GlyfOutlines {
		t.Errorf("wrong format %s/%s", got.Format, got.Outlines)
	}
	if d := cmp.Diff(f.Glyphs, got.Glyphs); d != "" {
		t.Errorf("glyphs (-want +got):\n%s", d)
	}
	if d := cmp.Diff(f.CMap, got.CMap); d != "" {
		t.Errorf("cmap (-want +got):\n%s", d)
	}
	if d := cmp.Diff(f.Kerning, got.Kerning); d != "" {
		t.Errorf("kerning (-want +got):\n%s", d)
	}
	if d := cmp.Diff(f.Metadata, got.Metadata); d != "" {
		t.Errorf("metadata (-want +got):\n%s", d)
	}
	if got.Hinting == nil {
		t.Fatal("hinting data lost")
	}
	if !bytes.Equal(got.Hinting.FontProgram, f.Hinting.FontProgram) ||
		!bytes.Equal(got.Hinting.ControlProgram, f.Hinting.ControlProgram) {
		t.Error("hinting tables changed")
	}
	if got.Hinting.MaxZones != 2 || got.Hinting.MaxStackElements != 16 {
		t.Errorf("wrong maxp limits %+v", got.Hinting)
	}
}

func TestStripOptional(t *testing.T) {
	f := testFont(font.GlyfOutlines)
	f.Glyphs[2].Instructions = []byte{0xB0, 0x01}
	f.Hinting = &font.Hinting{FontProgram: []byte{0xB0, 0x00, 0x2C}}

	data, err := Write(f, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, tables, err := ReadTables(data)
	if err != nil {
		t.Fatal(err)
	}
	for _, tag := range []string{"kern", "fpgm", "prep", "cvt ", "gasp"} {
		if tables[tag] != nil {
			t.Errorf("unexpected %q table", tag)
		}
	}
	got, err := Read(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.Hinting != nil || got.Kerning != nil {
		t.Error("optional data was not removed")
	}
	if got.Glyphs[2].Instructions != nil {
		t.Error("glyph instructions were not removed")
	}
}

func TestRoundTripCFF(t *testing.T) {
	f := testFont(font.CFFOutlines)
	data, err := Write(f, &font.WriteOptions{IncludeKerning: true})
	if err != nil {
		t.Fatal(err)
	}
	scalerType, tables, err := ReadTables(data)
	if err != nil {
		t.Fatal(err)
	}
	if scalerType != header.ScalerTypeCFF || tables["CFF "] == nil || tables["glyf"] != nil {
		t.Fatal("wrong outline table")
	}

	got, err := Read(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.Format != font.OutlineOTF || got.Outlines != font.CFFOutlines {
		t.Errorf("wrong format %s/%s", got.Format, got.Outlines)
	}

	// quadratic curves are converted and compound glyphs are flattened
	want := font.Flatten(f)
	for _, g := range want.Glyphs {
		g.Outline = font.QuadToCubic(g.Outline)
	}
	if d := cmp.Diff(want.Glyphs, got.Glyphs, cmpopts.EquateEmpty()); d != "" {
		t.Errorf("glyphs (-want +got):\n%s", d)
	}
	if d := cmp.Diff(f.CMap, got.CMap); d != "" {
		t.Errorf("cmap (-want +got):\n%s", d)
	}
	if d := cmp.Diff(f.Kerning, got.Kerning); d != "" {
		t.Errorf("kerning (-want +got):\n%s", d)
	}
	if got.PostScriptName != "Test-Regular" || got.FamilyName != "Test" {
		t.Errorf("wrong names %q, %q", got.PostScriptName, got.FamilyName)
	}
}

func TestCubicToTrueType(t *testing.T) {
	f := testFont(font.GlyfOutlines)
	f.Glyphs[3].Outline = []font.Command{
		font.MoveTo(0, 0),
		font.CubeTo(0, 400, 400, 400, 400, 0),
		font.Close(),
	}
	data, err := Write(f, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Read(data)
	if err != nil {
		t.Fatal(err)
	}
	o := got.Glyphs[3].Outline
	if font.HasCubics(o) || font.NumContours(o) != 1 {
		t.Errorf("unexpected outline %v", o)
	}
	b := font.BBox(o)
	if b.LLx != 0 || b.URx != 400 || b.LLy != 0 || b.URy < 290 || b.URy > 310 {
		t.Errorf("unexpected bounding box %v", b)
	}
}

func TestGoRegular(t *testing.T) {
	f1, err := Read(goregular.TTF)
	if err != nil {
		t.Fatal(err)
	}
	if f1.Outlines != font.GlyfOutlines {
		t.Fatalf("wrong outline type %s", f1.Outlines)
	}
	if f1.FamilyName != "Go" {
		t.Errorf("wrong family name %q", f1.FamilyName)
	}
	if err := f1.Check(); err != nil {
		t.Fatal(err)
	}
	gid, ok := f1.CMap['A']
	if !ok || f1.Glyphs[gid].Advance == 0 || len(f1.Glyphs[gid].Outline) == 0 {
		t.Error("missing glyph for 'A'")
	}

	opt := &font.WriteOptions{IncludeHinting: true, IncludeKerning: true}
	data, err := Write(f1, opt)
	if err != nil {
		t.Fatal(err)
	}
	f2, err := Read(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(f2.Glyphs) != len(f1.Glyphs) {
		t.Fatalf("%d glyphs, want %d", len(f2.Glyphs), len(f1.Glyphs))
	}
	for i, g1 := range f1.Glyphs {
		g2 := f2.Glyphs[i]
		if g1.Name != g2.Name || g1.Advance != g2.Advance {
			t.Errorf("glyph %d: got %q/%d, want %q/%d",
				i, g2.Name, g2.Advance, g1.Name, g1.Advance)
		}
		if font.BBox(g1.Outline) != font.BBox(g2.Outline) {
			t.Errorf("glyph %q: outline changed", g1.Name)
		}
		if d := cmp.Diff(g1.Components, g2.Components); d != "" {
			t.Errorf("glyph %q: components (-want +got):\n%s", g1.Name, d)
		}
	}
	if d := cmp.Diff(f1.CMap, f2.CMap); d != "" {
		t.Errorf("cmap (-want +got):\n%s", d)
	}
	if d := cmp.Diff(f1.Kerning, f2.Kerning); d != "" {
		t.Errorf("kerning (-want +got):\n%s", d)
	}

	// a second round trip changes nothing
	data2, err := Write(f2, opt)
	if err != nil {
		t.Fatal(err)
	}
	f3, err := Read(data2)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(f2.Glyphs, f3.Glyphs); d != "" {
		t.Errorf("glyphs (-want +got):\n%s", d)
	}
	data3, err := Write(f3, opt)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data2, data3) {
		t.Error("output is not reproducible")
	}
}

func TestReadErrors(t *testing.T) {
	f := testFont(font.GlyfOutlines)
	data, err := Write(f, nil)
	if err != nil {
		t.Fatal(err)
	}

	for _, n := range []int{0, 4, 20, len(data) / 2} {
		_, err := Read(data[:n])
		if !font.IsCorrupt(err) {
			t.Errorf("%d bytes: expected InvalidFontError, got %v", n, err)
		}
	}

	_, tables, err := ReadTables(data)
	if err != nil {
		t.Fatal(err)
	}
	delete(tables, "cmap")
	_, err = Decode(tables)
	if !font.IsCorrupt(err) {
		t.Errorf("missing cmap: expected InvalidFontError, got %v", err)
	}

	_, tables, err = ReadTables(data)
	if err != nil {
		t.Fatal(err)
	}
	tables["CFF2"] = tables["glyf"]
	delete(tables, "glyf")
	delete(tables, "loca")
	_, err = Decode(tables)
	if !font.IsUnsupported(err) {
		t.Errorf("CFF2: expected NotSupportedError, got %v", err)
	}
}

func TestWriteErrors(t *testing.T) {
	f := testFont(font.GlyfOutlines)
	f.Glyphs[5].Outline = square(0, 0, 10)
	_, err := Write(f, nil)
	if !font.IsEngineFailure(err) {
		t.Errorf("outline and components: expected EngineError, got %v", err)
	}

	_, err = Write(&font.Font{Outlines: font.GlyfOutlines}, nil)
	if !font.IsEngineFailure(err) {
		t.Errorf("no glyphs: expected EngineError, got %v", err)
	}
}

func TestAssemble(t *testing.T) {
	data, err := Write(testFont(font.GlyfOutlines), nil)
	if err != nil {
		t.Fatal(err)
	}
	scalerType, tables, err := ReadTables(data)
	if err != nil {
		t.Fatal(err)
	}
	if scalerType != header.ScalerTypeTrueType {
		t.Errorf("wrong scaler type 0x%08x", scalerType)
	}
	head := bytes.Clone(tables["head"])

	data2, err := Assemble(tables)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, data2) {
		t.Error("reassembled file differs")
	}
	if !bytes.Equal(head, tables["head"]) {
		t.Error("head table was modified in place")
	}

	tables["junk"] = nil
	if _, err := Assemble(tables); err != nil {
		t.Errorf("nil table: %v", err)
	}

	for _, bad := range []map[string][]byte{
		{},
		{"junk": nil},
		{"head": {0, 1, 0, 0}},
	} {
		if _, err := Assemble(bad); !font.IsCorrupt(err) {
			t.Errorf("%v: expected InvalidFontError, got %v", bad, err)
		}
	}
}
