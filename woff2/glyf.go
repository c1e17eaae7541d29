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

package woff2

import (
	"bytes"
	"fmt"
	"slices"

	"seehuhn.de/go/postscript/funit"

	"seehuhn.de/go/sfnt/glyf"
	"seehuhn.de/go/sfnt/glyph"
	"seehuhn.de/go/sfnt/parser"
)

type reconstructed struct {
	glyf, loca []byte
	locaFormat int16

	// xMin gives the left edge of every glyph's bounding box, for
	// reconstructing the left side bearings.
	xMin []funit.Int16
}

// glyfStreams holds the sub-streams of a transformed "glyf" table.
type glyfStreams struct {
	nContour    *parser.Parser
	nPoints     *parser.Parser
	flags       *parser.Parser
	glyph       *parser.Parser
	composite   []byte
	bboxBitmap  []byte
	bbox        *parser.Parser
	instruction *parser.Parser
}

const glyfHeaderSize = 36

// reconstructGlyf converts a transformed "glyf" table back into "glyf"
// and "loca" tables.
func reconstructGlyf(data []byte) (*reconstructed, error) {
	if len(data) < glyfHeaderSize {
		return nil, errCorrupt("transformed glyf table too short")
	}
	u16 := func(pos int) int { return int(data[pos])<<8 | int(data[pos+1]) }
	u32 := func(pos int) uint64 {
		return uint64(data[pos])<<24 | uint64(data[pos+1])<<16 |
			uint64(data[pos+2])<<8 | uint64(data[pos+3])
	}
	numGlyphs := u16(4)

	var sizes [7]uint64
	var total uint64
	for i := range sizes {
		sizes[i] = u32(8 + 4*i)
		total += sizes[i]
	}
	if glyfHeaderSize+total > uint64(len(data)) {
		return nil, errCorrupt("transformed glyf streams exceed table size")
	}
	var parts [7][]byte
	pos := uint64(glyfHeaderSize)
	for i, size := range sizes {
		parts[i] = data[pos : pos+size]
		pos += size
	}
	// an optional overlap bitmap may follow, it is not needed here

	bitmapLen := 4 * ((numGlyphs + 31) / 32)
	if len(parts[5]) < bitmapLen {
		return nil, errCorrupt("bbox bitmap truncated")
	}
	newParser := func(b []byte) *parser.Parser {
		return parser.New(bytes.NewReader(b))
	}
	s := &glyfStreams{
		nContour:    newParser(parts[0]),
		nPoints:     newParser(parts[1]),
		flags:       newParser(parts[2]),
		glyph:       newParser(parts[3]),
		composite:   parts[4],
		bboxBitmap:  parts[5][:bitmapLen],
		bbox:        newParser(parts[5][bitmapLen:]),
		instruction: newParser(parts[6]),
	}

	gg := make(glyf.Glyphs, numGlyphs)
	xMin := make([]funit.Int16, numGlyphs)
	for i := range gg {
		g, err := s.readGlyph(i)
		if err != nil {
			return nil, wrapError(err)
		}
		gg[i] = g
		if g != nil {
			xMin[i] = g.LLx
		}
	}

	enc := gg.Encode()
	return &reconstructed{
		glyf:       enc.GlyfData,
		loca:       enc.LocaData,
		locaFormat: enc.LocaFormat,
		xMin:       xMin,
	}, nil
}

func (s *glyfStreams) hasBBox(i int) bool {
	return s.bboxBitmap[i/8]&(0x80>>(i%8)) != 0
}

func (s *glyfStreams) readBBox() (funit.Rect16, error) {
	var v [4]funit.Int16
	for k := range v {
		x, err := s.bbox.ReadInt16()
		if err != nil {
			return funit.Rect16{}, err
		}
		v[k] = funit.Int16(x)
	}
	return funit.Rect16{LLx: v[0], LLy: v[1], URx: v[2], URy: v[3]}, nil
}

func (s *glyfStreams) readInstructions() ([]byte, error) {
	l, err := read255Uint16(s.glyph)
	if err != nil {
		return nil, err
	}
	if l == 0 {
		return nil, nil
	}
	return readBlob(s.instruction, int(l))
}

func (s *glyfStreams) readGlyph(i int) (*glyf.Glyph, error) {
	nContours, err := s.nContour.ReadInt16()
	if err != nil {
		return nil, err
	}
	switch {
	case nContours == 0:
		if s.hasBBox(i) {
			return nil, errCorrupt(fmt.Sprintf("empty glyph %d has a bounding box", i))
		}
		return nil, nil
	case nContours < 0:
		return s.readComposite(i)
	default:
		return s.readSimple(i, int(nContours))
	}
}

func (s *glyfStreams) readComposite(i int) (*glyf.Glyph, error) {
	cc, n, hasInstructions, err := splitComponents(s.composite)
	if err != nil {
		return nil, err
	}
	s.composite = s.composite[n:]
	if !s.hasBBox(i) {
		return nil, errCorrupt(fmt.Sprintf("composite glyph %d has no bounding box", i))
	}
	rect, err := s.readBBox()
	if err != nil {
		return nil, err
	}
	data := glyf.CompositeGlyph{Components: cc}
	if hasInstructions {
		data.Instructions, err = s.readInstructions()
		if err != nil {
			return nil, err
		}
		if data.Instructions == nil {
			// the flag promises a length field
			data.Instructions = []byte{}
		}
	}
	return &glyf.Glyph{Rect16: rect, Data: data}, nil
}

// splitComponents cuts the component records of one composite glyph from
// the start of buf.  It returns the components, the number of bytes
// consumed and whether the glyph carries instructions.
func splitComponents(buf []byte) ([]glyf.GlyphComponent, int, bool, error) {
	var res []glyf.GlyphComponent
	hasInstructions := false
	pos := 0
	for {
		if len(buf)-pos < 4 {
			return nil, 0, false, errCorrupt("composite glyph stream truncated")
		}
		flags := glyf.ComponentFlag(buf[pos])<<8 | glyf.ComponentFlag(buf[pos+1])
		gid := glyph.ID(buf[pos+2])<<8 | glyph.ID(buf[pos+3])
		pos += 4

		n := 2
		if flags&glyf.FlagArg1And2AreWords != 0 {
			n = 4
		}
		switch {
		case flags&glyf.FlagWeHaveAScale != 0:
			n += 2
		case flags&glyf.FlagWeHaveAnXAndYScale != 0:
			n += 4
		case flags&glyf.FlagWeHaveATwoByTwo != 0:
			n += 8
		}
		if len(buf)-pos < n {
			return nil, 0, false, errCorrupt("composite glyph stream truncated")
		}
		if flags&glyf.FlagWeHaveInstructions != 0 {
			hasInstructions = true
		}
		res = append(res, glyf.GlyphComponent{
			Flags:      flags &^ glyf.FlagMoreComponents,
			GlyphIndex: gid,
			Data:       slices.Clone(buf[pos : pos+n]),
		})
		pos += n
		if flags&glyf.FlagMoreComponents == 0 {
			return res, pos, hasInstructions, nil
		}
	}
}

func (s *glyfStreams) readSimple(i, nContours int) (*glyf.Glyph, error) {
	sizes := make([]int, nContours)
	numPoints := 0
	for k := range sizes {
		n, err := read255Uint16(s.nPoints)
		if err != nil {
			return nil, err
		}
		sizes[k] = int(n)
		numPoints += int(n)
	}
	flags, err := readBlob(s.flags, numPoints)
	if err != nil {
		return nil, err
	}

	var x, y int
	sg := &glyf.SimpleUnpacked{Contours: make([]glyf.Contour, nContours)}
	k := 0
	for c, size := range sizes {
		contour := make(glyf.Contour, size)
		for j := range contour {
			flag := flags[k]
			k++
			dx, dy, err := readTriplet(s.glyph, flag&0x7F)
			if err != nil {
				return nil, err
			}
			x += dx
			y += dy
			contour[j] = glyf.Point{
				X:       funit.Int16(x),
				Y:       funit.Int16(y),
				OnCurve: flag&0x80 == 0,
			}
		}
		sg.Contours[c] = contour
	}

	var rect funit.Rect16
	explicit := s.hasBBox(i)
	if explicit {
		rect, err = s.readBBox()
		if err != nil {
			return nil, err
		}
	}
	sg.Instructions, err = s.readInstructions()
	if err != nil {
		return nil, err
	}
	g := sg.AsGlyph()
	if explicit {
		g.Rect16 = rect
	}
	return &g, nil
}

// readTriplet decodes one point of a simple glyph.  The flag byte
// determines the number of data bytes and how the coordinates are
// packed into them.
func readTriplet(p *parser.Parser, flag byte) (int, int, error) {
	withSign := func(f byte, v int) int {
		if f&1 != 0 {
			return v
		}
		return -v
	}

	var n int
	switch {
	case flag < 84:
		n = 1
	case flag < 120:
		n = 2
	case flag < 124:
		n = 3
	default:
		n = 4
	}
	b, err := p.ReadBytes(n)
	if err != nil {
		return 0, 0, err
	}

	f := int(flag)
	var dx, dy int
	switch {
	case flag < 10:
		dy = withSign(flag, (f&14)<<7+int(b[0]))
	case flag < 20:
		dx = withSign(flag, ((f-10)&14)<<7+int(b[0]))
	case flag < 84:
		b0 := f - 20
		b1 := int(b[0])
		dx = withSign(flag, 1+(b0&0x30)+(b1>>4))
		dy = withSign(flag>>1, 1+(b0&0x0C)<<2+(b1&0x0F))
	case flag < 120:
		b0 := f - 84
		dx = withSign(flag, 1+(b0/12)<<8+int(b[0]))
		dy = withSign(flag>>1, 1+((b0%12)>>2)<<8+int(b[1]))
	case flag < 124:
		b2 := int(b[1])
		dx = withSign(flag, int(b[0])<<4+b2>>4)
		dy = withSign(flag>>1, (b2&0x0F)<<8+int(b[2]))
	default:
		dx = withSign(flag, int(b[0])<<8+int(b[1]))
		dy = withSign(flag>>1, int(b[2])<<8+int(b[3]))
	}
	return dx, dy, nil
}

// reconstructHmtx converts a transformed "hmtx" table back into its sfnt
// form.  Omitted left side bearings are taken from the glyph bounding
// boxes.
func reconstructHmtx(tables map[string][]byte, xMin []funit.Int16) ([]byte, error) {
	hhea := tables["hhea"]
	if len(hhea) < 36 {
		return nil, errCorrupt("missing or truncated hhea table")
	}
	numGlyphs := len(xMin)
	numHMetrics := int(hhea[34])<<8 | int(hhea[35])
	if numHMetrics < 1 || numHMetrics > numGlyphs {
		return nil, errCorrupt(fmt.Sprintf("invalid numberOfHMetrics %d", numHMetrics))
	}

	p := parser.New(bytes.NewReader(tables["hmtx"]))
	flags, err := p.ReadUint8()
	if err != nil {
		return nil, wrapError(err)
	}
	advances := make([]uint16, numHMetrics)
	for i := range advances {
		advances[i], err = p.ReadUint16()
		if err != nil {
			return nil, wrapError(err)
		}
	}
	lsb := make([]funit.Int16, numGlyphs)
	if flags&1 == 0 {
		for i := range numHMetrics {
			v, err := p.ReadInt16()
			if err != nil {
				return nil, wrapError(err)
			}
			lsb[i] = funit.Int16(v)
		}
	} else {
		copy(lsb[:numHMetrics], xMin)
	}
	if flags&2 == 0 {
		for i := numHMetrics; i < numGlyphs; i++ {
			v, err := p.ReadInt16()
			if err != nil {
				return nil, wrapError(err)
			}
			lsb[i] = funit.Int16(v)
		}
	} else {
		copy(lsb[numHMetrics:], xMin[numHMetrics:])
	}

	res := make([]byte, 0, 4*numHMetrics+2*(numGlyphs-numHMetrics))
	for i := range numGlyphs {
		if i < numHMetrics {
			res = append(res, byte(advances[i]>>8), byte(advances[i]))
		}
		res = append(res, byte(lsb[i]>>8), byte(lsb[i]))
	}
	return res, nil
}
