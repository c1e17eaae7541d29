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

package font

import (
	"strconv"

	"seehuhn.de/go/postscript/type1/names"
	"seehuhn.de/go/sfnt/glyph"
)

// NotdefName is the name of glyph 0.
const NotdefName = ".notdef"

// MakeGlyphNames assigns names to all glyphs which have no name or a
// duplicate name.  Names are derived from the code points mapped to each
// glyph where possible, otherwise a name of the form "glyphN" is used.
// Glyph 0 is always called ".notdef".
//
// The glyphs are modified in place.
func MakeGlyphNames(glyphs []*Glyph, cmap map[rune]glyph.ID) {
	codes := make([][]rune, len(glyphs))
	for _, r := range sortedRunes(cmap) {
		gid := cmap[r]
		if int(gid) < len(glyphs) {
			codes[gid] = append(codes[gid], r)
		}
	}

	used := make(map[string]bool, len(glyphs))
	for i, g := range glyphs {
		name := g.Name
		if i == 0 {
			name = NotdefName
		}
		if name == "" || used[name] || (i > 0 && name == NotdefName) {
			name = ""
			if len(codes[i]) > 0 {
				name = names.FromUnicode(string(codes[i][0]))
			}
			if name == "" || used[name] || name == NotdefName {
				name = "glyph" + strconv.Itoa(i)
			}
			name = UniqueName(name, used)
		}
		g.Name = name
		used[name] = true
	}
}

// UniqueName returns name, if it is not yet in used.  Otherwise a numeric
// suffix is appended to make the name unique.
func UniqueName(name string, used map[string]bool) string {
	if !used[name] {
		return name
	}
	for k := 1; ; k++ {
		cand := name + "." + strconv.Itoa(k)
		if !used[cand] {
			return cand
		}
	}
}
