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

// Package sfnt reads and writes TrueType and OpenType font files.
//
// The tables are decoded and encoded by seehuhn.de/go/sfnt.  This package
// converts between the library's font representation and [font.Font].
// It also handles the few pieces of metadata which the library does not
// model: the complete "name" table, the vendor and PANOSE fields of the
// "OS/2" table, and the legacy "kern" table written for kerning pairs.
// The OpenType layout tables are ignored, except for pair kerning.
package sfnt

import (
	"bytes"
	"cmp"
	"io"
	"math"
	"slices"
	"strings"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/text/language"

	"seehuhn.de/go/postscript/funit"
	sfntlib "seehuhn.de/go/sfnt"
	"seehuhn.de/go/sfnt/cff"
	"seehuhn.de/go/sfnt/cmap"
	"seehuhn.de/go/sfnt/glyf"
	"seehuhn.de/go/sfnt/glyph"
	"seehuhn.de/go/sfnt/head"
	"seehuhn.de/go/sfnt/header"
	"seehuhn.de/go/sfnt/name"
	"seehuhn.de/go/sfnt/opentype/gtab"
	"seehuhn.de/go/sfnt/os2"

	"seehuhn.de/go/fontpick/font"
)

// Component flags which are kept in [font.Component.Flags].  All other
// flags follow from the transformation and the Match field.
const keptFlags = glyf.FlagRoundXYToGrid | glyf.FlagUseMyMetrics |
	glyf.FlagOverlapCompound | glyf.FlagScaledComponentOffset |
	glyf.FlagUnscaledComponentOffset

// Read decodes an sfnt font file.
//
// The Format of the result is OutlineTTF or OutlineOTF, depending on the
// outline table found in the file.
func Read(data []byte) (*font.Font, error) {
	r := bytes.NewReader(data)
	lf, err := sfntlib.Read(r)
	if err != nil {
		return nil, WrapError(err)
	}
	dir, err := header.Read(r)
	if err != nil {
		return nil, WrapError(err)
	}
	for _, tag := range []string{"head", "maxp", "hhea", "hmtx", "cmap"} {
		if !dir.Has(tag) {
			return nil, errMissingTable(tag)
		}
	}

	res, err := fromLibrary(lf)
	if err != nil {
		return nil, err
	}
	if err := readExtra(r, dir, &res.Metadata); err != nil {
		return nil, err
	}
	return res, nil
}

// Decode converts the tables of an sfnt font into a [font.Font].
// The map is indexed by table tag.  This is used by the WOFF readers,
// which store the tables without an sfnt table directory.
func Decode(tables map[string][]byte) (*font.Font, error) {
	data, err := Assemble(tables)
	if err != nil {
		return nil, err
	}
	return Read(data)
}

// fromLibrary converts a font decoded by the sfnt library.
func fromLibrary(lf *sfntlib.Font) (*font.Font, error) {
	numGlyphs := lf.NumGlyphs()
	if numGlyphs == 0 {
		return nil, font.Corrupt("sfnt", "no glyphs")
	}

	res := &font.Font{
		Glyphs: make([]*font.Glyph, numGlyphs),
	}
	var componentIDs [][]glyph.ID
	switch outlines := lf.Outlines.(type) {
	case *glyf.Outlines:
		res.Format = font.OutlineTTF
		res.Outlines = font.GlyfOutlines
		ids, err := fromGlyf(res.Glyphs, outlines)
		if err != nil {
			return nil, err
		}
		componentIDs = ids
		res.Hinting = fromHinting(outlines)
	case *cff.Outlines:
		res.Format = font.OutlineOTF
		res.Outlines = font.CFFOutlines
		for i, g := range outlines.Glyphs {
			res.Glyphs[i] = &font.Glyph{
				Name:    g.Name,
				Advance: funit.Int16(math.Round(g.Width)),
				Outline: fromCharString(g),
			}
		}
	}

	cm, err := fromCMap(lf.CMapTable, numGlyphs)
	if err != nil {
		return nil, err
	}
	res.CMap = cm

	font.MakeGlyphNames(res.Glyphs, res.CMap)
	for i, ids := range componentIDs {
		for j, gid := range ids {
			res.Glyphs[i].Components[j].Name = res.Glyphs[gid].Name
		}
	}
	if err := res.CheckComponents("sfnt/glyf"); err != nil {
		return nil, err
	}

	kern := fromGpos(lf.Gpos, numGlyphs)
	pairs := maps.Keys(kern)
	slices.SortFunc(pairs, comparePairs)
	for _, pair := range pairs {
		res.Kerning = append(res.Kerning, font.KernPair{
			Left:  res.Glyphs[pair.Left].Name,
			Right: res.Glyphs[pair.Right].Name,
			Value: kern[pair],
		})
	}

	md := &res.Metadata
	md.FamilyName = lf.FamilyName
	md.Copyright = lf.Copyright
	md.Trademark = lf.Trademark
	md.Description = lf.Description
	md.License = lf.License
	md.UnitsPerEm = lf.UnitsPerEm
	md.FontRevision = revision(lf.Version)
	md.Created = utc(lf.CreationTime)
	md.Modified = utc(lf.ModificationTime)
	md.Ascent = lf.Ascent
	md.Descent = lf.Descent
	md.LineGap = lf.LineGap
	md.CapHeight = lf.CapHeight
	md.XHeight = lf.XHeight
	md.ItalicAngle = lf.ItalicAngle
	md.UnderlinePosition = roundFUnit(lf.UnderlinePosition)
	md.UnderlineThickness = roundFUnit(lf.UnderlineThickness)
	md.IsFixedPitch = lf.IsFixedPitch()
	md.Weight = uint16(lf.Weight)
	md.Width = uint16(lf.Width)
	md.IsBold = lf.IsBold
	md.IsItalic = lf.IsItalic
	md.IsRegular = lf.IsRegular
	md.IsOblique = lf.IsOblique

	// used when the font has no "name" table
	md.StyleName = lf.Subfamily()
	md.FullName = lf.FullName()
	md.PostScriptName = lf.PostScriptName()

	return res, nil
}

// fromGlyf converts TrueType glyphs.  The component names cannot be set
// before all glyph names are known, so the glyph IDs of the components
// are returned separately.
func fromGlyf(out []*font.Glyph, o *glyf.Outlines) ([][]glyph.ID, error) {
	numGlyphs := len(out)
	if len(o.Glyphs) != numGlyphs {
		return nil, font.Corrupt("sfnt/glyf", "%d glyphs, expected %d", len(o.Glyphs), numGlyphs)
	}

	componentIDs := make([][]glyph.ID, numGlyphs)
	for i, g := range o.Glyphs {
		res := &font.Glyph{}
		out[i] = res
		if i < len(o.Widths) {
			res.Advance = o.Widths[i]
		}
		if len(o.Names) == numGlyphs {
			res.Name = o.Names[i]
		}
		if g == nil {
			continue
		}

		switch d := g.Data.(type) {
		case glyf.SimpleGlyph:
			su, err := d.Unpack()
			if err != nil {
				return nil, WrapError(err)
			}
			res.Outline = fromContours(su.Contours)
			res.Instructions = nonEmpty(su.Instructions)
		case glyf.CompositeGlyph:
			for _, gc := range d.Components {
				if int(gc.GlyphIndex) >= numGlyphs {
					return nil, font.Corrupt("sfnt/glyf",
						"glyph %d references invalid glyph %d", i, gc.GlyphIndex)
				}
				cu, err := gc.Unpack()
				if err != nil {
					return nil, WrapError(err)
				}
				c := font.Component{
					Trfm:  cu.Trfm,
					Flags: uint16(gc.Flags & keptFlags),
				}
				if cu.AlignPoints {
					c.Match = &[2]uint16{cu.OurPoint, cu.TheirPoint}
					if gc.Flags&glyf.FlagArg1And2AreWords == 0 && len(gc.Data) >= 2 {
						// point numbers are unsigned bytes
						c.Match = &[2]uint16{uint16(gc.Data[0]), uint16(gc.Data[1])}
					}
				}
				componentIDs[i] = append(componentIDs[i], gc.GlyphIndex)
				res.Components = append(res.Components, c)
			}
			res.Instructions = nonEmpty(d.Instructions)
		}
	}
	return componentIDs, nil
}

func fromHinting(o *glyf.Outlines) *font.Hinting {
	h := &font.Hinting{
		FontProgram:    o.Tables["fpgm"],
		ControlProgram: o.Tables["prep"],
		CVT:            o.Tables["cvt "],
		Gasp:           o.Tables["gasp"],
	}
	if h.FontProgram == nil && h.ControlProgram == nil && h.CVT == nil && h.Gasp == nil {
		return nil
	}
	if m := o.Maxp; m != nil {
		h.MaxZones = m.MaxZones
		h.MaxTwilightPoints = m.MaxTwilightPoints
		h.MaxStorage = m.MaxStorage
		h.MaxFunctionDefs = m.MaxFunctionDefs
		h.MaxInstructionDefs = m.MaxInstructionDefs
		h.MaxStackElements = m.MaxStackElements
		h.MaxSizeOfInstructions = m.MaxSizeOfInstructions
	}
	return h
}

// fromCMap returns the Unicode mappings of the best cmap subtable.
// Mappings to glyph 0 or to glyphs outside the font are dropped.
func fromCMap(t cmap.Table, numGlyphs int) (map[rune]glyph.ID, error) {
	if t == nil {
		return nil, errMissingTable("cmap")
	}
	sub, err := t.GetBest()
	if err != nil {
		return nil, WrapError(err)
	}

	res := make(map[rune]glyph.ID)
	add := func(r rune, gid glyph.ID) {
		if gid != 0 && int(gid) < numGlyphs {
			res[r] = gid
		}
	}
	switch sub := sub.(type) {
	case cmap.Format4:
		for c, gid := range sub {
			add(rune(c), gid)
		}
	case cmap.Format12:
		for c, gid := range sub {
			add(rune(c), gid)
		}
	default:
		low, high := sub.CodeRange()
		for r := low; r <= high && r <= 0xFFFF; r++ {
			add(r, sub.Lookup(r))
		}
	}
	return res, nil
}

// fromGpos extracts the pair adjustments of the "kern" feature.  For
// pairs listed in several subtables, the first subtable wins.
func fromGpos(info *gtab.Info, numGlyphs int) map[glyph.Pair]funit.Int16 {
	res := make(map[glyph.Pair]funit.Int16)
	if info == nil {
		return res
	}

	seen := make(map[glyph.Pair]bool)
	set := func(pair glyph.Pair, adj *gtab.PairAdjust) {
		if seen[pair] || adj == nil || adj.First == nil {
			return
		}
		if int(pair.Left) >= numGlyphs || int(pair.Right) >= numGlyphs {
			return
		}
		seen[pair] = true
		if adj.First.XAdvance != 0 {
			res[pair] = adj.First.XAdvance
		}
	}

	for _, feature := range info.FeatureList {
		if feature.Tag != "kern" {
			continue
		}
		for _, li := range feature.Lookups {
			if int(li) >= len(info.LookupList) {
				continue
			}
			lookup := info.LookupList[li]
			if lookup.Meta == nil || lookup.Meta.LookupType != 2 {
				continue
			}
			for _, sub := range lookup.Subtables {
				switch sub := sub.(type) {
				case gtab.Gpos2_1:
					pairs := maps.Keys(sub)
					slices.SortFunc(pairs, comparePairs)
					for _, pair := range pairs {
						set(pair, sub[pair])
					}
				case *gtab.Gpos2_2:
					lefts := maps.Keys(sub.Cov)
					slices.Sort(lefts)
					for _, left := range lefts {
						row := int(sub.Class1[left])
						if row >= len(sub.Adjust) {
							continue
						}
						for right := range numGlyphs {
							col := int(sub.Class2[glyph.ID(right)])
							if col < len(sub.Adjust[row]) {
								set(glyph.Pair{Left: left, Right: glyph.ID(right)}, sub.Adjust[row][col])
							}
						}
					}
				}
			}
		}
	}
	return res
}

// readExtra fills in the metadata which the sfnt library does not
// provide, from the "head", "name" and "OS/2" tables.
func readExtra(r io.ReaderAt, dir *header.Info, md *font.Metadata) error {
	fd, err := dir.TableReader(r, "head")
	if err != nil {
		return WrapError(err)
	}
	headInfo, err := head.Read(fd)
	if err != nil {
		return WrapError(err)
	}
	md.FontRevision = revision(headInfo.FontRevision)

	if dir.Has("name") {
		data, err := dir.ReadTableBytes(r, "name")
		if err != nil {
			return WrapError(err)
		}
		info, err := name.Decode(data)
		if err != nil {
			return WrapError(err)
		}
		if t := chooseNames(info); t != nil {
			md.StyleName = cmp.Or(t.Subfamily, md.StyleName)
			md.FullName = cmp.Or(t.FullName, md.FullName)
			md.PostScriptName = cmp.Or(t.PostScriptName, md.PostScriptName)
			md.Version = t.Version
			md.Manufacturer = t.Manufacturer
			md.Designer = t.Designer
		}
	}

	if dir.Has("OS/2") {
		fd, err := dir.TableReader(r, "OS/2")
		if err != nil {
			return WrapError(err)
		}
		info, err := os2.Read(fd)
		if err != nil {
			return WrapError(err)
		}
		md.Vendor = strings.TrimRight(info.Vendor, "\x00")
		md.Panose = info.Panose
	}
	return nil
}

// chooseNames picks the English name records, preferring the Windows
// platform.
func chooseNames(info *name.Info) *name.Table {
	win, winConf := info.Windows.Choose(language.AmericanEnglish)
	mac, macConf := info.Mac.Choose(language.AmericanEnglish)
	if win == nil || winConf < language.High && macConf > winConf {
		return mac
	}
	return win
}

// revision converts a 16.16 fixed point revision, rounded to three
// decimal places.
func revision(v head.Version) float64 {
	return math.Round(float64(v)/65536*1000) / 1000
}

func utc(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

func roundFUnit(x funit.Float64) funit.Int16 {
	return funit.Int16(math.Round(float64(x)))
}

func nonEmpty(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}

func comparePairs(a, b glyph.Pair) int {
	if c := cmp.Compare(a.Left, b.Left); c != 0 {
		return c
	}
	return cmp.Compare(a.Right, b.Right)
}
