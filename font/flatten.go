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

// Flatten returns a copy of the font where every compound glyph is replaced
// by a simple glyph with the same shape.
//
// A component which leads back to a glyph still being resolved is skipped,
// so that fonts with component cycles do not make Flatten recurse forever.
func Flatten(f *Font) *Font {
	res := f.Clone()
	idx := f.GlyphIndex()

	cache := make(map[int][]Command)
	busy := make(map[int]bool)
	var resolve func(i int) []Command
	resolve = func(i int) []Command {
		if cmds, ok := cache[i]; ok {
			return cmds
		}
		if busy[i] {
			return nil
		}
		busy[i] = true
		defer delete(busy, i)

		g := f.Glyphs[i]
		cmds := append([]Command(nil), g.Outline...)
		for _, c := range g.Components {
			j, ok := idx[c.Name]
			if !ok {
				continue
			}
			cmds = append(cmds, Transform(resolve(j), c.Trfm)...)
		}
		cache[i] = cmds
		return cmds
	}

	for i, g := range res.Glyphs {
		if !g.IsCompound() {
			continue
		}
		g.Outline = resolve(i)
		g.Components = nil
	}
	return res
}

// HasCompounds reports whether any glyph of the font is a compound glyph.
func (f *Font) HasCompounds() bool {
	for _, g := range f.Glyphs {
		if g.IsCompound() {
			return true
		}
	}
	return false
}
