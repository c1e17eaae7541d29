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

// Package fonttest provides synthetic fonts for use in unit tests.
package fonttest

import (
	"fmt"

	"seehuhn.de/go/postscript/funit"
	"seehuhn.de/go/sfnt/glyph"

	"seehuhn.de/go/fontpick/font"
)

// Make returns a TrueType font with n glyphs and the given code point map.
// Glyph 0 is called ".notdef", glyph i > 0 is called "gi".  Every glyph
// is a rectangle whose width depends on the glyph index, so that glyphs
// can be told apart after renumbering.
func Make(n int, cmap map[rune]glyph.ID) *font.Font {
	f := &font.Font{
		Format:   font.OutlineTTF,
		Outlines: font.GlyfOutlines,
		CMap:     make(map[rune]glyph.ID, len(cmap)),
		Metadata: font.Metadata{
			FamilyName: "Test",
			StyleName:  "Regular",
			UnitsPerEm: 1000,
			Ascent:     800,
			Descent:    -200,
			Weight:     400,
			Width:      5,
			IsRegular:  true,
		},
	}
	for i := range n {
		f.Glyphs = append(f.Glyphs, Glyph(i))
	}
	for r, gid := range cmap {
		f.CMap[r] = gid
	}
	return f
}

// Glyph returns the test glyph with index i, as used by Make.
func Glyph(i int) *font.Glyph {
	name := fmt.Sprintf("g%d", i)
	if i == 0 {
		name = font.NotdefName
	}
	w := float64(10 * (i + 1))
	return &font.Glyph{
		Name:    name,
		Advance: funit.Int16(w + 50),
		Outline: []font.Command{
			font.MoveTo(10, 0),
			font.LineTo(10+w, 0),
			font.LineTo(10+w, 700),
			font.LineTo(10, 700),
			font.Close(),
		},
	}
}

// Names returns the glyph names of f, in glyph order.
func Names(f *font.Font) []string {
	res := make([]string, len(f.Glyphs))
	for i, g := range f.Glyphs {
		res[i] = g.Name
	}
	return res
}
