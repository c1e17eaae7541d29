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

// Package subset reduces a font to the glyphs needed for a given set of
// code points.
package subset

import (
	"fmt"

	"seehuhn.de/go/sfnt/glyph"

	"seehuhn.de/go/fontpick/codepoint"
	"seehuhn.de/go/fontpick/font"
)

// Subset returns a new font which contains only the glyphs needed to render
// the code points in target.
//
// The result contains glyph 0, the glyphs mapped from code points in target,
// and all glyphs these reference as components.  Glyphs keep their relative
// order.  Every code point which f maps to a kept glyph stays mapped, even
// if it is not in target.  Code points in target which are not mapped by
// the font are ignored.  The argument f is not modified.
func Subset(f *font.Font, target codepoint.Set) (*font.Font, error) {
	if len(f.Glyphs) == 0 {
		return nil, &font.EngineError{Op: "subset", Err: errNoNotdef}
	}

	keep, err := Closure(f, target)
	if err != nil {
		return nil, err
	}

	newGid := make(map[glyph.ID]glyph.ID, len(keep))
	res := &font.Font{
		Format:   f.Format,
		Outlines: f.Outlines,
		Metadata: f.Metadata,
		CMap:     make(map[rune]glyph.ID),
	}
	kept := make(map[string]bool, len(keep))
	for gid, g := range f.Glyphs {
		if !keep[glyph.ID(gid)] {
			continue
		}
		newGid[glyph.ID(gid)] = glyph.ID(len(res.Glyphs))
		res.Glyphs = append(res.Glyphs, g.Clone())
		kept[g.Name] = true
	}

	for r, gid := range f.CMap {
		if gid != 0 && keep[gid] {
			res.CMap[r] = newGid[gid]
		}
	}

	for _, k := range f.Kerning {
		if kept[k.Left] && kept[k.Right] {
			res.Kerning = append(res.Kerning, k)
		}
	}

	if f.Hinting != nil {
		h := *f.Hinting
		res.Hinting = &h
	}

	return res, nil
}

// Closure returns the set of glyphs needed to render the code points in
// target.  This includes glyph 0 and all component glyphs, recursively.
func Closure(f *font.Font, target codepoint.Set) (map[glyph.ID]bool, error) {
	idx := f.GlyphIndex()

	keep := map[glyph.ID]bool{0: true}
	todo := make(map[glyph.ID]bool)
	for r := range target {
		gid, ok := f.CMap[r]
		if !ok {
			continue
		}
		if int(gid) >= len(f.Glyphs) {
			return nil, &font.EngineError{
				Op:  "subset",
				Err: fmt.Errorf("code point %U maps to invalid glyph %d", r, gid),
			}
		}
		todo[gid] = true
	}
	todo[0] = true

	for len(todo) > 0 {
		gid := pop(todo)
		keep[gid] = true
		for _, c := range f.Glyphs[gid].Components {
			gid2, ok := idx[c.Name]
			if !ok {
				return nil, &font.EngineError{
					Op:  "subset",
					Err: fmt.Errorf("glyph %q references missing glyph %q", f.Glyphs[gid].Name, c.Name),
				}
			}
			if !keep[gid2] {
				todo[gid2] = true
			}
		}
	}
	return keep, nil
}

func pop(todo map[glyph.ID]bool) glyph.ID {
	for key := range todo {
		delete(todo, key)
		return key
	}
	panic("empty map")
}

var errNoNotdef = fmt.Errorf("font has no glyph 0")
