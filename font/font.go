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

// Package font contains the in-memory representation of a font which is
// shared by the parsers, the subsetter and the merge engine.
package font

import (
	"time"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/postscript/funit"
	"seehuhn.de/go/sfnt/glyph"
)

// Font is a font container.
//
// Glyph 0 is the ".notdef" glyph and is always present.  Fonts are treated
// as values: all transformations in this module return a new Font and leave
// their arguments unchanged.
type Font struct {
	Format   Format
	Outlines OutlineKind

	Glyphs []*Glyph
	CMap   map[rune]glyph.ID

	Metadata

	// Kerning lists pair adjustments, in font units.  Glyphs are
	// referenced by name.
	Kerning []KernPair

	// Hinting contains the global TrueType hinting data, or nil if
	// the font has none.
	Hinting *Hinting
}

// Metadata contains global information about a font.
type Metadata struct {
	FamilyName     string
	StyleName      string
	FullName       string
	PostScriptName string
	Version        string
	Copyright      string
	Trademark      string
	Manufacturer   string
	Designer       string
	Description    string
	License        string

	UnitsPerEm   uint16
	FontRevision float64 // in head table precision, e.g. 1.002

	Ascent    funit.Int16
	Descent   funit.Int16 // negative
	LineGap   funit.Int16
	CapHeight funit.Int16
	XHeight   funit.Int16

	ItalicAngle        float64 // degrees, counter-clockwise from the vertical
	UnderlinePosition  funit.Int16
	UnderlineThickness funit.Int16
	IsFixedPitch       bool

	Weight    uint16 // OS/2 usWeightClass, 100 to 900
	Width     uint16 // OS/2 usWidthClass, 1 to 9
	IsBold    bool
	IsItalic  bool
	IsRegular bool
	IsOblique bool
	Vendor    string
	Panose    [10]byte

	Created  time.Time
	Modified time.Time
}

// Glyph is a single glyph of a font.
type Glyph struct {
	// Name is unique within a font.
	Name string

	Advance funit.Int16

	// Outline is the glyph's own path.  For compound glyphs this is
	// normally empty.
	Outline []Command

	// Components lists the glyphs this glyph is built from.
	Components []Component

	// Instructions are TrueType hinting instructions for this glyph.
	Instructions []byte
}

// Component is a reference from a compound glyph to another glyph.
type Component struct {
	Name string
	Trfm matrix.Matrix

	// Flags contains the TrueType component flags which are not implied by
	// Trfm, e.g. ROUND_XY_TO_GRID or USE_MY_METRICS.
	Flags uint16

	// Match, if non-nil, aligns point Match[0] of the compound glyph with
	// point Match[1] of the component, instead of using the offset in Trfm.
	Match *[2]uint16
}

// IsCompound reports whether the glyph references other glyphs.
func (g *Glyph) IsCompound() bool {
	return len(g.Components) > 0
}

// KernPair describes a kerning adjustment between two glyphs.
type KernPair struct {
	Left, Right string
	Value       funit.Int16
}

// Hinting contains the global TrueType instructions and their limits.
type Hinting struct {
	FontProgram    []byte // "fpgm"
	ControlProgram []byte // "prep"
	CVT            []byte // "cvt "
	Gasp           []byte // "gasp"

	MaxZones              uint16
	MaxTwilightPoints     uint16
	MaxStorage            uint16
	MaxFunctionDefs       uint16
	MaxInstructionDefs    uint16
	MaxStackElements      uint16
	MaxSizeOfInstructions uint16
}

// OutlineKind says which kind of outlines an sfnt based font uses.
type OutlineKind int

// These are the supported outline types.
const (
	GlyfOutlines OutlineKind = iota // quadratic, "glyf" and "loca" tables
	CFFOutlines                     // cubic, "CFF " table
)

func (k OutlineKind) String() string {
	switch k {
	case GlyfOutlines:
		return "glyf"
	case CFFOutlines:
		return "CFF"
	default:
		return "OutlineKind(?)"
	}
}

// NumGlyphs returns the number of glyphs in the font.
func (f *Font) NumGlyphs() int {
	return len(f.Glyphs)
}

// GlyphIndex returns a map from glyph names to glyph indices.
func (f *Font) GlyphIndex() map[string]glyph.ID {
	res := make(map[string]glyph.ID, len(f.Glyphs))
	for i, g := range f.Glyphs {
		res[g.Name] = glyph.ID(i)
	}
	return res
}

// Codepoints returns, for every glyph, the code points mapped to it.
// The code points for each glyph are in increasing order.
func (f *Font) Codepoints() [][]rune {
	res := make([][]rune, len(f.Glyphs))
	for _, r := range sortedRunes(f.CMap) {
		gid := f.CMap[r]
		if int(gid) < len(res) {
			res[gid] = append(res[gid], r)
		}
	}
	return res
}

// Clone returns a deep copy of the font.
func (f *Font) Clone() *Font {
	res := &Font{
		Format:   f.Format,
		Outlines: f.Outlines,
		Metadata: f.Metadata,
	}
	res.Glyphs = make([]*Glyph, len(f.Glyphs))
	for i, g := range f.Glyphs {
		res.Glyphs[i] = g.Clone()
	}
	res.CMap = make(map[rune]glyph.ID, len(f.CMap))
	for r, gid := range f.CMap {
		res.CMap[r] = gid
	}
	if f.Kerning != nil {
		res.Kerning = append([]KernPair(nil), f.Kerning...)
	}
	if f.Hinting != nil {
		h := *f.Hinting
		h.FontProgram = cloneBytes(h.FontProgram)
		h.ControlProgram = cloneBytes(h.ControlProgram)
		h.CVT = cloneBytes(h.CVT)
		h.Gasp = cloneBytes(h.Gasp)
		res.Hinting = &h
	}
	return res
}

// Clone returns a deep copy of the glyph.
func (g *Glyph) Clone() *Glyph {
	res := &Glyph{
		Name:         g.Name,
		Advance:      g.Advance,
		Instructions: cloneBytes(g.Instructions),
	}
	if g.Outline != nil {
		res.Outline = append([]Command(nil), g.Outline...)
	}
	if g.Components != nil {
		res.Components = make([]Component, len(g.Components))
		for i, c := range g.Components {
			if c.Match != nil {
				m := *c.Match
				c.Match = &m
			}
			res.Components[i] = c
		}
	}
	return res
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
