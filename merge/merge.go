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

// Package merge combines the glyphs of two fonts into one font.
package merge

import (
	"fmt"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/postscript/funit"
	"seehuhn.de/go/sfnt/glyph"

	"seehuhn.de/go/fontpick/codepoint"
	"seehuhn.de/go/fontpick/font"
	"seehuhn.de/go/fontpick/subset"
)

// Options control how the base font is merged into the primary font.
type Options struct {
	// Scale is applied to the outlines and metrics of the base font.
	// The value 0 is treated as 1.
	Scale float64

	// MatchUnitsPerEm, if set, derives the scale from the ratio of the
	// units per em of the two fonts.  This overrides Scale.
	MatchUnitsPerEm bool
}

// Merge returns a font which contains all glyphs of primary, followed by
// the glyphs of base which are needed for code points not covered by
// primary.
//
// The code point map of the result is the union of the maps of both
// fonts.  Where both fonts map a code point, the glyph from primary is
// used.  Metadata and hinting are taken from primary.  Neither argument is
// modified.
func Merge(primary, base *font.Font, opt *Options) (*font.Font, error) {
	if primary.Format != base.Format {
		return nil, &font.IncompatibleFormatsError{
			A: primary.Format.String(),
			B: base.Format.String(),
		}
	}
	if primary.Outlines != base.Outlines {
		return nil, &font.IncompatibleFormatsError{
			A:      primary.Outlines.String(),
			B:      base.Outlines.String(),
			Reason: "different outline types",
		}
	}
	if len(primary.Glyphs) == 0 || len(base.Glyphs) == 0 {
		return nil, &font.EngineError{Op: "merge", Err: errNoNotdef}
	}

	baseSet := make(codepoint.Set, len(base.CMap))
	for r := range base.CMap {
		baseSet[r] = struct{}{}
	}
	filtered := baseSet.Without(func(r rune) bool {
		_, ok := primary.CMap[r]
		return ok
	})
	if filtered.Len() == 0 {
		return primary.Clone(), nil
	}
	if filtered.Len() < baseSet.Len() {
		var err error
		base, err = subset.Subset(base, filtered)
		if err != nil {
			return nil, err
		}
	}

	scale := 1.0
	if opt != nil {
		if opt.MatchUnitsPerEm {
			if primary.UnitsPerEm != 0 && base.UnitsPerEm != 0 {
				scale = float64(primary.UnitsPerEm) / float64(base.UnitsPerEm)
			}
		} else if opt.Scale != 0 {
			scale = opt.Scale
		}
	}

	res := primary.Clone()

	used := make(map[string]bool, len(primary.Glyphs)+len(base.Glyphs))
	for _, g := range primary.Glyphs {
		used[g.Name] = true
	}
	rename := make(map[string]string, len(base.Glyphs))
	rename[base.Glyphs[0].Name] = primary.Glyphs[0].Name
	for _, g := range base.Glyphs[1:] {
		name := font.UniqueName(g.Name, used)
		used[name] = true
		rename[g.Name] = name
	}

	// Base glyph 0 is dropped, so base glyph i becomes glyph offset+i.
	offset := len(primary.Glyphs) - 1
	if offset+len(base.Glyphs) > 0xFFFF {
		return nil, &font.EngineError{
			Op:  "merge",
			Err: fmt.Errorf("too many glyphs (%d)", offset+len(base.Glyphs)),
		}
	}
	for _, g := range base.Glyphs[1:] {
		g2 := scaleGlyph(g, scale)
		g2.Name = rename[g.Name]
		for i := range g2.Components {
			c := &g2.Components[i]
			newName, ok := rename[c.Name]
			if !ok {
				return nil, &font.EngineError{
					Op:  "merge",
					Err: fmt.Errorf("glyph %q references missing glyph %q", g.Name, c.Name),
				}
			}
			c.Name = newName
		}
		res.Glyphs = append(res.Glyphs, g2)
	}

	for r, gid := range base.CMap {
		if _, taken := res.CMap[r]; taken {
			continue
		}
		if gid == 0 {
			res.CMap[r] = 0
			continue
		}
		res.CMap[r] = glyph.ID(offset) + gid
	}

	type pair struct{ l, r string }
	seen := make(map[pair]bool, len(res.Kerning))
	for _, k := range res.Kerning {
		seen[pair{k.Left, k.Right}] = true
	}
	for _, k := range base.Kerning {
		left, okL := rename[k.Left]
		right, okR := rename[k.Right]
		if !okL || !okR || seen[pair{left, right}] {
			continue
		}
		seen[pair{left, right}] = true
		res.Kerning = append(res.Kerning, font.KernPair{
			Left:  left,
			Right: right,
			Value: scaleInt(k.Value, scale),
		})
	}

	return res, nil
}

func scaleGlyph(g *font.Glyph, scale float64) *font.Glyph {
	res := g.Clone()
	if scale == 1 {
		return res
	}
	M := matrix.Scale(scale, scale)
	res.Advance = scaleInt(g.Advance, scale)
	res.Outline = font.Transform(g.Outline, M)
	for i := range res.Components {
		c := &res.Components[i]
		c.Trfm[4] *= scale
		c.Trfm[5] *= scale
	}
	return res
}

func scaleInt(x funit.Int16, scale float64) funit.Int16 {
	v := float64(x) * scale
	if v < 0 {
		return funit.Int16(v - 0.5)
	}
	return funit.Int16(v + 0.5)
}

var errNoNotdef = fmt.Errorf("font has no glyph 0")
