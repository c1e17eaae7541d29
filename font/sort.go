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
	"slices"

	"golang.org/x/exp/maps"

	"seehuhn.de/go/sfnt/glyph"
)

// Sort returns a copy of the font with the glyphs in canonical order:
// glyph 0 stays first, glyphs with code points follow in order of their
// smallest code point, and the remaining glyphs keep their relative order
// at the end.  The code point map is updated accordingly.
//
// The result depends only on the font contents, so that serializing sorted
// fonts gives reproducible output.
func Sort(f *Font) *Font {
	n := len(f.Glyphs)
	if n == 0 {
		return f.Clone()
	}

	minCode := make([]rune, n)
	for i := range minCode {
		minCode[i] = -1
	}
	for r, gid := range f.CMap {
		if gid == 0 || int(gid) >= n {
			continue
		}
		if minCode[gid] < 0 || r < minCode[gid] {
			minCode[gid] = r
		}
	}

	order := make([]int, n-1)
	for i := range order {
		order[i] = i + 1
	}
	slices.SortStableFunc(order, func(a, b int) int {
		ca, cb := minCode[a], minCode[b]
		switch {
		case ca >= 0 && cb >= 0:
			return int(ca) - int(cb)
		case ca >= 0:
			return -1
		case cb >= 0:
			return 1
		default:
			return 0
		}
	})
	order = append([]int{0}, order...)

	newGid := make([]glyph.ID, n)
	res := f.Clone()
	for newIdx, oldIdx := range order {
		res.Glyphs[newIdx] = f.Glyphs[oldIdx].Clone()
		newGid[oldIdx] = glyph.ID(newIdx)
	}
	for r, gid := range f.CMap {
		if int(gid) < n {
			res.CMap[r] = newGid[gid]
		}
	}
	return res
}

// sortedRunes returns the keys of the code point map in increasing order.
func sortedRunes(m map[rune]glyph.ID) []rune {
	res := maps.Keys(m)
	slices.Sort(res)
	return res
}

// SortedCodepoints returns the code points of the font in increasing order.
func (f *Font) SortedCodepoints() []rune {
	return sortedRunes(f.CMap)
}
