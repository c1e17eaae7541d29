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

// Package svgfont reads and writes SVG 1.1 fonts.
//
// An SVG font is an XML document with a <font> element, which contains a
// <font-face> element with the global metrics, a <missing-glyph> element
// for glyph 0, and one <glyph> element per glyph.  Kerning pairs are
// stored in <hkern> elements.  Glyph coordinates use font units with the
// y-axis pointing up.
//
// https://www.w3.org/TR/SVG11/fonts.html
package svgfont

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"seehuhn.de/go/postscript/funit"
	"seehuhn.de/go/postscript/type1/names"
	"seehuhn.de/go/sfnt/glyph"

	"seehuhn.de/go/fontpick/font"
)

type svgDoc struct {
	XMLName xml.Name `xml:"svg"`
	Xmlns   string   `xml:"xmlns,attr,omitempty"`
	Defs    svgDefs  `xml:"defs"`
}

type svgDefs struct {
	Fonts []svgFont `xml:"font"`
}

type svgFont struct {
	ID           string      `xml:"id,attr,omitempty"`
	HorizAdvX    float64     `xml:"horiz-adv-x,attr"`
	FontFace     fontFace    `xml:"font-face"`
	MissingGlyph *glyphElem  `xml:"missing-glyph"`
	Glyphs       []glyphElem `xml:"glyph"`
	HKern        []kernElem  `xml:"hkern"`
}

type fontFace struct {
	FontFamily         string  `xml:"font-family,attr,omitempty"`
	FontWeight         string  `xml:"font-weight,attr,omitempty"`
	FontStretch        string  `xml:"font-stretch,attr,omitempty"`
	FontStyle          string  `xml:"font-style,attr,omitempty"`
	UnitsPerEm         float64 `xml:"units-per-em,attr,omitempty"`
	Panose1            string  `xml:"panose-1,attr,omitempty"`
	Ascent             float64 `xml:"ascent,attr,omitempty"`
	Descent            float64 `xml:"descent,attr,omitempty"`
	XHeight            float64 `xml:"x-height,attr,omitempty"`
	CapHeight          float64 `xml:"cap-height,attr,omitempty"`
	Slope              float64 `xml:"slope,attr,omitempty"`
	UnderlinePosition  float64 `xml:"underline-position,attr,omitempty"`
	UnderlineThickness float64 `xml:"underline-thickness,attr,omitempty"`
}

type glyphElem struct {
	GlyphName string   `xml:"glyph-name,attr,omitempty"`
	Unicode   *string  `xml:"unicode,attr"`
	HorizAdvX *float64 `xml:"horiz-adv-x,attr"`
	D         string   `xml:"d,attr,omitempty"`
}

type kernElem struct {
	U1 string  `xml:"u1,attr,omitempty"`
	U2 string  `xml:"u2,attr,omitempty"`
	G1 string  `xml:"g1,attr,omitempty"`
	G2 string  `xml:"g2,attr,omitempty"`
	K  float64 `xml:"k,attr"`
}

var widthNames = []string{
	"ultra-condensed", "extra-condensed", "condensed", "semi-condensed",
	"normal",
	"semi-expanded", "expanded", "extra-expanded", "ultra-expanded",
}

// Read decodes an SVG font.  If the document contains more than one
// font, the first one is used.
//
// Glyphs with a single character in their unicode attribute are entered
// into the code point map.  Glyphs without a unicode attribute are mapped
// if their name is a plain glyph name like "A" or "uni0041".
func Read(data []byte) (*font.Font, error) {
	doc := &svgDoc{}
	if err := xml.Unmarshal(data, doc); err != nil {
		return nil, errCorrupt(err.Error())
	}
	if len(doc.Defs.Fonts) == 0 {
		return nil, errCorrupt("no <font> element found")
	}
	in := &doc.Defs.Fonts[0]

	res := &font.Font{
		Format: font.SVGFont,
		CMap:   make(map[rune]glyph.ID),
	}
	defaultAdvance := in.HorizAdvX

	advance := func(g *glyphElem) funit.Int16 {
		if g.HorizAdvX != nil {
			return toFUnit(*g.HorizAdvX)
		}
		return toFUnit(defaultAdvance)
	}

	notdef := &font.Glyph{Name: font.NotdefName, Advance: toFUnit(defaultAdvance)}
	if g := in.MissingGlyph; g != nil {
		outline, err := parsePath(g.D)
		if err != nil {
			return nil, errCorrupt("missing-glyph: " + err.Error())
		}
		notdef.Advance = advance(g)
		notdef.Outline = outline
	}
	res.Glyphs = append(res.Glyphs, notdef)

	byName := make(map[string]glyph.ID)
	var unnamed []glyph.ID
	for i := range in.Glyphs {
		g := &in.Glyphs[i]

		gid, seen := byName[g.GlyphName]
		if !seen || g.GlyphName == "" {
			outline, err := parsePath(g.D)
			if err != nil {
				return nil, errCorrupt(fmt.Sprintf("glyph %d: %v", i, err))
			}
			gid = glyph.ID(len(res.Glyphs))
			res.Glyphs = append(res.Glyphs, &font.Glyph{
				Name:    g.GlyphName,
				Advance: advance(g),
				Outline: outline,
			})
			if g.GlyphName != "" {
				byName[g.GlyphName] = gid
			}
		}

		if g.Unicode != nil {
			r, size := utf8.DecodeRuneInString(*g.Unicode)
			if size > 0 && size == len(*g.Unicode) && r != utf8.RuneError {
				if _, dup := res.CMap[r]; !dup {
					res.CMap[r] = gid
				}
			}
		} else if !seen {
			unnamed = append(unnamed, gid)
		}
	}
	for _, gid := range unnamed {
		r, ok := nameToRune(res.Glyphs[gid].Name)
		if !ok {
			continue
		}
		if _, dup := res.CMap[r]; !dup {
			res.CMap[r] = gid
		}
	}
	font.MakeGlyphNames(res.Glyphs, res.CMap)

	res.Outlines = font.GlyfOutlines
	for _, g := range res.Glyphs {
		if font.HasCubics(g.Outline) {
			res.Outlines = font.CFFOutlines
			break
		}
	}

	readFontFace(&res.Metadata, in)

	res.Kerning = readKerning(in.HKern, res)

	return res, nil
}

// nameToRune maps a glyph name without suffix to a code point.
func nameToRune(name string) (rune, bool) {
	if name == "" || strings.ContainsAny(name, "._") {
		return 0, false
	}
	s := names.ToUnicode(name, false)
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) || r == utf8.RuneError {
		return 0, false
	}
	return r, true
}

func readFontFace(md *font.Metadata, in *svgFont) {
	ff := &in.FontFace
	md.FamilyName = ff.FontFamily
	md.PostScriptName = in.ID
	md.UnitsPerEm = 1000
	if ff.UnitsPerEm > 0 && ff.UnitsPerEm <= math.MaxUint16 {
		md.UnitsPerEm = uint16(math.Round(ff.UnitsPerEm))
	}
	md.Ascent = toFUnit(ff.Ascent)
	md.Descent = toFUnit(ff.Descent)
	md.XHeight = toFUnit(ff.XHeight)
	md.CapHeight = toFUnit(ff.CapHeight)
	md.ItalicAngle = ff.Slope
	md.UnderlinePosition = toFUnit(ff.UnderlinePosition)
	md.UnderlineThickness = toFUnit(ff.UnderlineThickness)

	switch w := strings.TrimSpace(ff.FontWeight); w {
	case "", "normal", "all":
		md.Weight = 400
	case "bold":
		md.Weight = 700
	default:
		// a list of weights is allowed, use the first one
		w, _, _ = strings.Cut(w, ",")
		if x, err := strconv.Atoi(strings.TrimSpace(w)); err == nil && x > 0 && x <= 1000 {
			md.Weight = uint16(x)
		}
	}
	md.IsBold = md.Weight >= 600

	md.Width = 5
	for i, name := range widthNames {
		if ff.FontStretch == name {
			md.Width = uint16(i + 1)
		}
	}

	switch ff.FontStyle {
	case "italic":
		md.IsItalic = true
	case "oblique":
		md.IsOblique = true
	}
	md.IsRegular = !md.IsBold && !md.IsItalic && !md.IsOblique

	if fields := strings.Fields(ff.Panose1); len(fields) == 10 {
		var panose [10]byte
		ok := true
		for i, f := range fields {
			x, err := strconv.ParseUint(f, 10, 8)
			if err != nil {
				ok = false
				break
			}
			panose[i] = byte(x)
		}
		if ok {
			md.Panose = panose
		}
	}

	if md.FamilyName != "" {
		md.FullName = md.FamilyName
		if !md.IsRegular {
			md.StyleName = styleName(md)
			md.FullName += " " + md.StyleName
		} else {
			md.StyleName = "Regular"
		}
	}
}

func styleName(md *font.Metadata) string {
	var parts []string
	if md.IsBold {
		parts = append(parts, "Bold")
	}
	if md.IsItalic {
		parts = append(parts, "Italic")
	} else if md.IsOblique {
		parts = append(parts, "Oblique")
	}
	return strings.Join(parts, " ")
}

// readKerning converts <hkern> elements into kerning pairs.  Pairs are
// given by glyph name lists (g1, g2) or by character lists (u1, u2).
func readKerning(elems []kernElem, f *font.Font) []font.KernPair {
	idx := f.GlyphIndex()
	var res []font.KernPair
	seen := make(map[[2]string]bool)
	for _, e := range elems {
		left := kernGlyphs(e.G1, e.U1, idx, f)
		right := kernGlyphs(e.G2, e.U2, idx, f)
		value := toFUnit(-e.K)
		for _, l := range left {
			for _, r := range right {
				key := [2]string{l, r}
				if seen[key] {
					continue
				}
				seen[key] = true
				res = append(res, font.KernPair{Left: l, Right: r, Value: value})
			}
		}
	}
	return res
}

func kernGlyphs(glyphNames, chars string, idx map[string]glyph.ID, f *font.Font) []string {
	var res []string
	for _, n := range strings.Split(glyphNames, ",") {
		n = strings.TrimSpace(n)
		if _, ok := idx[n]; ok && n != "" {
			res = append(res, n)
		}
	}
	for _, u := range strings.Split(chars, ",") {
		u = strings.TrimSpace(u)
		for _, r := range unicodeRange(u) {
			if gid, ok := f.CMap[r]; ok {
				res = append(res, f.Glyphs[gid].Name)
			}
		}
	}
	return res
}

// unicodeRange interprets one entry of a u1/u2 list.  This is either a
// single character, or a range like "U+0041" or "U+0041-005A".
func unicodeRange(u string) []rune {
	if u == "" {
		return nil
	}
	if rest, ok := strings.CutPrefix(strings.ToUpper(u), "U+"); ok && len(u) > 2 {
		from, to, isRange := strings.Cut(rest, "-")
		lo, err := strconv.ParseUint(from, 16, 32)
		if err != nil {
			return nil
		}
		hi := lo
		if isRange {
			hi, err = strconv.ParseUint(to, 16, 32)
			if err != nil || hi < lo || hi-lo > 0xFFFF {
				return nil
			}
		}
		res := make([]rune, 0, hi-lo+1)
		for r := lo; r <= hi; r++ {
			res = append(res, rune(r))
		}
		return res
	}
	r, size := utf8.DecodeRuneInString(u)
	if size != len(u) || r == utf8.RuneError {
		return nil
	}
	return []rune{r}
}

// Write encodes the font as an SVG font.  Compound glyphs are flattened.
// A glyph with several code points is written once for every code point,
// all copies having the same glyph name.
func Write(f *font.Font, opt *font.WriteOptions) ([]byte, error) {
	if opt == nil {
		opt = &font.WriteOptions{}
	}
	if len(f.Glyphs) == 0 {
		return nil, &font.EngineError{Op: "svg write", Err: errNoGlyphs}
	}
	flat := font.Flatten(f)
	md := &flat.Metadata

	out := svgFont{
		ID:        md.PostScriptName,
		HorizAdvX: float64(flat.Glyphs[0].Advance),
	}
	ff := &out.FontFace
	ff.FontFamily = md.FamilyName
	if md.Weight != 0 {
		ff.FontWeight = strconv.Itoa(int(md.Weight))
	}
	if md.Width >= 1 && int(md.Width) <= len(widthNames) && md.Width != 5 {
		ff.FontStretch = widthNames[md.Width-1]
	}
	switch {
	case md.IsItalic:
		ff.FontStyle = "italic"
	case md.IsOblique:
		ff.FontStyle = "oblique"
	}
	ff.UnitsPerEm = float64(md.UnitsPerEm)
	ff.Ascent = float64(md.Ascent)
	ff.Descent = float64(md.Descent)
	ff.XHeight = float64(md.XHeight)
	ff.CapHeight = float64(md.CapHeight)
	ff.Slope = md.ItalicAngle
	ff.UnderlinePosition = float64(md.UnderlinePosition)
	ff.UnderlineThickness = float64(md.UnderlineThickness)
	if md.Panose != [10]byte{} {
		var parts []string
		for _, b := range md.Panose {
			parts = append(parts, strconv.Itoa(int(b)))
		}
		ff.Panose1 = strings.Join(parts, " ")
	}

	out.MissingGlyph = &glyphElem{D: formatPath(flat.Glyphs[0].Outline)}
	codes := flat.Codepoints()
	for i, g := range flat.Glyphs[1:] {
		adv := float64(g.Advance)
		elem := glyphElem{
			GlyphName: g.Name,
			HorizAdvX: &adv,
			D:         formatPath(g.Outline),
		}
		cc := codes[i+1]
		if len(cc) == 0 {
			out.Glyphs = append(out.Glyphs, elem)
			continue
		}
		for _, r := range cc {
			u := string(r)
			elem.Unicode = &u
			out.Glyphs = append(out.Glyphs, elem)
		}
	}

	if opt.IncludeKerning {
		for _, k := range flat.Kerning {
			out.HKern = append(out.HKern, kernElem{
				G1: k.Left,
				G2: k.Right,
				K:  -float64(k.Value),
			})
		}
	}

	doc := &svgDoc{
		Xmlns: "http://www.w3.org/2000/svg",
		Defs:  svgDefs{Fonts: []svgFont{out}},
	}
	buf := &bytes.Buffer{}
	buf.WriteString(xml.Header)
	buf.WriteString(doctype)
	enc := xml.NewEncoder(buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, &font.EngineError{Op: "svg write", Err: err}
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

const doctype = `<!DOCTYPE svg PUBLIC "-//W3C//DTD SVG 1.1//EN" "http://www.w3.org/Graphics/SVG/1.1/DTD/svg11.dtd">` + "\n"

func toFUnit(x float64) funit.Int16 {
	return funit.Int16(max(math.MinInt16, min(math.MaxInt16, math.Round(x))))
}

func errCorrupt(reason string) error {
	return &font.InvalidFontError{
		SubSystem: "svgfont",
		Reason:    reason,
	}
}

var errNoGlyphs = fmt.Errorf("font has no glyphs")
