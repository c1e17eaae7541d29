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
	"cmp"
	"errors"
	"fmt"
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/postscript/funit"
	"seehuhn.de/go/postscript/type1"
	sfntlib "seehuhn.de/go/sfnt"
	"seehuhn.de/go/sfnt/cff"
	"seehuhn.de/go/sfnt/cmap"
	"seehuhn.de/go/sfnt/glyf"
	"seehuhn.de/go/sfnt/glyph"
	"seehuhn.de/go/sfnt/head"
	"seehuhn.de/go/sfnt/kern"
	"seehuhn.de/go/sfnt/maxp"
	"seehuhn.de/go/sfnt/name"
	"seehuhn.de/go/sfnt/os2"

	"seehuhn.de/go/fontpick/font"
)

// Write encodes the font as an sfnt file.  Fonts with glyf outlines are
// written as TrueType fonts, fonts with CFF outlines as OpenType fonts.
// If opt is nil, the default options are used.
//
// Fonts which fail [font.Font.Check] are rejected with an EngineError.
func Write(f *font.Font, opt *font.WriteOptions) ([]byte, error) {
	if opt == nil {
		opt = &font.WriteOptions{}
	}
	if len(f.Glyphs) == 0 {
		return nil, &font.EngineError{Op: "sfnt write", Err: errNoGlyphs}
	}
	if err := f.Check(); err != nil {
		return nil, err
	}
	isTTF := f.Outlines == font.GlyfOutlines

	// CFF has no compound glyphs
	src := f
	if !isTTF {
		src = font.Flatten(f)
	}
	shaped := src.Clone()
	for _, g := range shaped.Glyphs {
		if isTTF {
			g.Outline = font.CubicToQuad(g.Outline)
		} else {
			g.Outline = font.QuadToCubic(g.Outline)
		}
	}

	lf := toLibrary(&f.Metadata)
	if isTTF {
		outlines, err := makeGlyf(shaped, glyphExtents(shaped, true), opt)
		if err != nil {
			return nil, err
		}
		lf.Outlines = outlines
	} else {
		outlines, err := makeCFF(shaped)
		if err != nil {
			return nil, err
		}
		lf.Outlines = outlines
	}
	lf.InstallCMap(makeCMap(f.CMap))

	buf := &bytes.Buffer{}
	if _, err := lf.Write(buf); err != nil {
		return nil, &font.EngineError{Op: "sfnt write", Err: err}
	}

	// Replace the tables where the library omits metadata.
	_, tables, err := ReadTables(buf.Bytes())
	if err != nil {
		return nil, err
	}
	tables["name"] = makeName(lf, &f.Metadata)
	tables["OS/2"], err = patchOS2(tables["OS/2"], &f.Metadata)
	if err != nil {
		return nil, err
	}
	if opt.IncludeKerning {
		if data := makeKern(f); data != nil {
			tables["kern"] = data
		}
	}
	return Assemble(tables)
}

// toLibrary copies the font-wide metadata into a new library font.
func toLibrary(md *font.Metadata) *sfntlib.Font {
	upem := cmp.Or(md.UnitsPerEm, 1000)
	q := 1 / float64(upem)
	return &sfntlib.Font{
		FamilyName: md.FamilyName,
		Width:      os2.Width(cmp.Or(md.Width, uint16(os2.WidthNormal))),
		Weight:     os2.Weight(cmp.Or(md.Weight, uint16(os2.WeightNormal))),
		IsRegular:  md.IsRegular,
		IsBold:     md.IsBold,
		IsItalic:   md.IsItalic,
		IsOblique:  md.IsOblique,

		Version:          head.Version(math.Round(md.FontRevision * 65536)),
		CreationTime:     md.Created,
		ModificationTime: md.Modified,
		Description:      md.Description,
		Copyright:        md.Copyright,
		Trademark:        md.Trademark,
		License:          md.License,

		UnitsPerEm: upem,
		FontMatrix: matrix.Matrix{q, 0, 0, q, 0, 0},

		Ascent:    md.Ascent,
		Descent:   md.Descent,
		LineGap:   md.LineGap,
		CapHeight: md.CapHeight,
		XHeight:   md.XHeight,

		ItalicAngle:        md.ItalicAngle,
		UnderlinePosition:  funit.Float64(md.UnderlinePosition),
		UnderlineThickness: funit.Float64(md.UnderlineThickness),
	}
}

// makeGlyf converts a font with quadratic outlines into TrueType glyph
// data.  The maxp limits are computed from the glyphs, the hinting limits
// are only kept together with the hinting tables.
func makeGlyf(f *font.Font, extents []funit.Rect16, opt *font.WriteOptions) (*glyf.Outlines, error) {
	n := len(f.Glyphs)
	res := &glyf.Outlines{
		Glyphs: make(glyf.Glyphs, n),
		Widths: make([]funit.Int16, n),
		Names:  make([]string, n),
		Tables: make(map[string][]byte),
		Maxp:   glyfLimits(f),
	}

	idx := f.GlyphIndex()
	for i, g := range f.Glyphs {
		res.Widths[i] = g.Advance
		res.Names[i] = g.Name

		var instructions []byte
		if opt.IncludeHinting {
			instructions = nonEmpty(g.Instructions)
		}

		if g.IsCompound() {
			if len(g.Outline) > 0 {
				return nil, &font.EngineError{
					Op:  "sfnt write",
					Err: fmt.Errorf("glyph %q has both an outline and components", g.Name),
				}
			}
			comp := glyf.CompositeGlyph{Instructions: instructions}
			for _, c := range g.Components {
				comp.Components = append(comp.Components, packComponent(idx[c.Name], c))
			}
			if instructions != nil {
				comp.Components[len(comp.Components)-1].Flags |= glyf.FlagWeHaveInstructions
			}
			res.Glyphs[i] = &glyf.Glyph{Rect16: extents[i], Data: comp}
			continue
		}

		cc, err := toContours(g.Outline)
		if err != nil {
			return nil, fmt.Errorf("glyph %q: %w", g.Name, err)
		}
		if len(cc) == 0 && !opt.AllowZeroContourGlyphs {
			// an empty loca entry
			continue
		}
		su := &glyf.SimpleUnpacked{Contours: cc, Instructions: instructions}
		res.Glyphs[i] = &glyf.Glyph{Rect16: extents[i], Data: su.Pack()}
	}

	m := res.Maxp
	m.MaxZones = 1
	if h := f.Hinting; opt.IncludeHinting && h != nil {
		m.MaxZones = max(h.MaxZones, 1)
		m.MaxTwilightPoints = h.MaxTwilightPoints
		m.MaxStorage = h.MaxStorage
		m.MaxFunctionDefs = h.MaxFunctionDefs
		m.MaxInstructionDefs = h.MaxInstructionDefs
		m.MaxStackElements = h.MaxStackElements
		m.MaxSizeOfInstructions = h.MaxSizeOfInstructions
		for _, g := range f.Glyphs {
			if l := len(g.Instructions); l > int(m.MaxSizeOfInstructions) && l < 1<<16 {
				m.MaxSizeOfInstructions = uint16(l)
			}
		}
		addTable(res.Tables, "fpgm", h.FontProgram)
		addTable(res.Tables, "prep", h.ControlProgram)
		addTable(res.Tables, "cvt ", h.CVT)
		addTable(res.Tables, "gasp", h.Gasp)
	}
	return res, nil
}

func packComponent(child glyph.ID, c font.Component) glyf.GlyphComponent {
	flags := glyf.ComponentFlag(c.Flags)
	cu := &glyf.ComponentUnpacked{
		Child:                 child,
		Trfm:                  c.Trfm,
		RoundXYToGrid:         flags&glyf.FlagRoundXYToGrid != 0,
		UseMyMetrics:          flags&glyf.FlagUseMyMetrics != 0,
		OverlapCompound:       flags&glyf.FlagOverlapCompound != 0,
		ScaledComponentOffset: flags&glyf.FlagScaledComponentOffset != 0,
	}
	if c.Match != nil {
		cu.AlignPoints = true
		cu.OurPoint, cu.TheirPoint = c.Match[0], c.Match[1]
	}
	gc := cu.Pack()
	if flags&(glyf.FlagScaledComponentOffset|glyf.FlagUnscaledComponentOffset) == 0 {
		gc.Flags &^= glyf.FlagUnscaledComponentOffset
	}
	return gc
}

// glyfLimits computes the outline related fields of the "maxp" table.
// The font must not contain component cycles.
func glyfLimits(f *font.Font) *maxp.TTFInfo {
	type stats struct {
		points, contours, depth int
	}
	idx := f.GlyphIndex()
	memo := make(map[glyph.ID]stats)
	var visit func(gid glyph.ID) stats
	visit = func(gid glyph.ID) stats {
		if s, ok := memo[gid]; ok {
			return s
		}
		g := f.Glyphs[gid]
		var s stats
		if !g.IsCompound() {
			for _, c := range g.Outline {
				switch c.Op {
				case font.OpMoveTo, font.OpLineTo:
					s.points++
				case font.OpQuadTo:
					s.points += 2
				}
			}
			s.contours = font.NumContours(g.Outline)
		} else {
			for _, c := range g.Components {
				sub := visit(idx[c.Name])
				s.points += sub.points
				s.contours += sub.contours
				s.depth = max(s.depth, sub.depth+1)
			}
		}
		memo[gid] = s
		return s
	}

	res := &maxp.TTFInfo{}
	for i, g := range f.Glyphs {
		s := visit(glyph.ID(i))
		if g.IsCompound() {
			res.MaxCompositePoints = max(res.MaxCompositePoints, clampUint16(s.points))
			res.MaxCompositeContours = max(res.MaxCompositeContours, clampUint16(s.contours))
			res.MaxComponentElements = max(res.MaxComponentElements, clampUint16(len(g.Components)))
			res.MaxComponentDepth = max(res.MaxComponentDepth, clampUint16(s.depth))
		} else {
			res.MaxPoints = max(res.MaxPoints, clampUint16(s.points))
			res.MaxContours = max(res.MaxContours, clampUint16(s.contours))
		}
	}
	return res
}

func clampUint16(x int) uint16 {
	return uint16(min(x, 0xFFFF))
}

// makeCFF converts a font with cubic outlines and no compound glyphs into
// a simple (not CID-keyed) CFF font with a single, empty private
// dictionary.
func makeCFF(f *font.Font) (*cff.Outlines, error) {
	gg := make([]*cff.Glyph, len(f.Glyphs))
	for i, g := range f.Glyphs {
		cg, err := toCharString(g)
		if err != nil {
			return nil, fmt.Errorf("glyph %q: %w", g.Name, err)
		}
		gg[i] = cg
	}
	return &cff.Outlines{
		Glyphs:   gg,
		Private:  []*type1.PrivateDict{{}},
		FDSelect: func(glyph.ID) int { return 0 },
		Encoding: cff.StandardEncoding(gg),
	}, nil
}

// makeCMap builds a format 4 subtable if all code points are in the
// Basic Multilingual Plane, and a format 12 subtable otherwise.
func makeCMap(m map[rune]glyph.ID) cmap.Subtable {
	bmp := true
	for r := range m {
		if r > 0xFFFF {
			bmp = false
			break
		}
	}
	if bmp {
		res := make(cmap.Format4, len(m))
		for r, gid := range m {
			res[uint16(r)] = gid
		}
		return res
	}
	res := make(cmap.Format12, len(m))
	for r, gid := range m {
		res[uint32(r)] = gid
	}
	return res
}

// makeName encodes the "name" table.  The library derives the style and
// PostScript names from the font flags and stamps the table with the
// current date; here the names of the font are used instead, so that the
// output only depends on the font.
func makeName(lf *sfntlib.Font, md *font.Metadata) []byte {
	t := &name.Table{
		Copyright:      md.Copyright,
		Family:         md.FamilyName,
		Subfamily:      cmp.Or(md.StyleName, lf.Subfamily()),
		FullName:       cmp.Or(md.FullName, lf.FullName()),
		Version:        cmp.Or(md.Version, "Version "+lf.Version.String()),
		PostScriptName: cmp.Or(md.PostScriptName, postScriptName(md)),
		Trademark:      md.Trademark,
		Manufacturer:   md.Manufacturer,
		Designer:       md.Designer,
		Description:    md.Description,
		License:        md.License,
	}
	t.Identifier = t.FullName + "; " + t.Version
	info := &name.Info{
		Mac:     name.Tables{"en": t},
		Windows: name.Tables{"en-US": t},
	}
	return info.Encode(1)
}

// patchOS2 sets the fields of the "OS/2" table which the library leaves
// empty.
func patchOS2(data []byte, md *font.Metadata) ([]byte, error) {
	info, err := os2.Read(bytes.NewReader(data))
	if err != nil {
		return nil, &font.EngineError{Op: "sfnt write", Err: err}
	}
	info.Vendor = md.Vendor
	info.Panose = md.Panose
	info.IsItalic = md.IsItalic
	return info.Encode(), nil
}

// makeKern encodes the kerning pairs as a "kern" table.  Pairs with
// unknown glyphs are skipped.  The result is nil if no pairs remain.
func makeKern(f *font.Font) []byte {
	idx := f.GlyphIndex()
	info := make(kern.Info, len(f.Kerning))
	for _, k := range f.Kerning {
		left, okL := idx[k.Left]
		right, okR := idx[k.Right]
		if okL && okR && k.Value != 0 {
			info[glyph.Pair{Left: left, Right: right}] = k.Value
		}
	}
	if len(info) == 0 {
		return nil
	}
	return info.Encode()
}

// glyphExtents returns the bounding boxes of all glyphs, with compound
// glyphs resolved.  Glyphs without outline have a zero extent.
// If roundPoints is set, the coordinates are rounded first, in the same way
// as for TrueType contours.
func glyphExtents(f *font.Font, roundPoints bool) []funit.Rect16 {
	if roundPoints {
		f = f.Clone()
		for _, g := range f.Glyphs {
			g.Outline = font.Round(g.Outline)
		}
	}
	flat := font.Flatten(f)
	res := make([]funit.Rect16, len(flat.Glyphs))
	for i, g := range flat.Glyphs {
		if len(g.Outline) == 0 {
			continue
		}
		b := font.BBox(g.Outline)
		res[i] = funit.Rect16{
			LLx: clamp(math.Floor(b.LLx)),
			LLy: clamp(math.Floor(b.LLy)),
			URx: clamp(math.Ceil(b.URx)),
			URy: clamp(math.Ceil(b.URy)),
		}
	}
	return res
}

func clamp(x float64) funit.Int16 {
	return funit.Int16(max(math.MinInt16, min(math.MaxInt16, x)))
}

// postScriptName derives a PostScript font name from the family and style
// names, if the font does not specify one.
func postScriptName(md *font.Metadata) string {
	var buf []byte
	for _, s := range []string{md.FamilyName, "-", md.StyleName} {
		for _, c := range []byte(s) {
			if c > 32 && c < 127 && !bytes.ContainsRune([]byte("[](){}<>/%"), rune(c)) {
				buf = append(buf, c)
			}
		}
	}
	psName := string(bytes.Trim(buf, "-"))
	if psName == "" {
		return "Untitled"
	}
	return psName
}

func addTable(tables map[string][]byte, tag string, data []byte) {
	if len(data) > 0 {
		tables[tag] = data
	}
}

var errNoGlyphs = errors.New("font has no glyphs")
