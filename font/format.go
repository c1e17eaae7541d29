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
	"strings"
)

// Format identifies a binary font format.
type Format int

// These are the supported font formats.  The zero value is not a valid
// format.
const (
	OutlineTTF Format = iota + 1 // TrueType or OpenType font with "glyf" outlines
	OutlineOTF                   // OpenType font with "CFF " outlines
	WOFF                         // Web Open Font Format 1.0
	WOFF2                        // Web Open Font Format 2.0
	SVGFont                      // SVG 1.1 font
)

// Formats lists all valid formats.
var Formats = []Format{OutlineTTF, OutlineOTF, WOFF, WOFF2, SVGFont}

func (f Format) String() string {
	switch f {
	case OutlineTTF:
		return "ttf"
	case OutlineOTF:
		return "otf"
	case WOFF:
		return "woff"
	case WOFF2:
		return "woff2"
	case SVGFont:
		return "svg"
	default:
		return "invalid"
	}
}

// IsValid reports whether f is one of the supported formats.
func (f Format) IsValid() bool {
	return f >= OutlineTTF && f <= SVGFont
}

// Ext returns the conventional file name extension, including the dot.
func (f Format) Ext() string {
	return "." + f.String()
}

// IsSFNT reports whether the format stores sfnt tables.
func (f Format) IsSFNT() bool {
	switch f {
	case OutlineTTF, OutlineOTF, WOFF, WOFF2:
		return true
	default:
		return false
	}
}

// ParseFormat converts a format name or file name extension, e.g. "ttf"
// or ".woff2", into a Format.
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimPrefix(s, "."))
	for _, f := range Formats {
		if f.String() == name {
			return f, nil
		}
	}
	return 0, &NotSupportedError{
		SubSystem: "fontpick",
		Feature:   "font format " + quoteFormat(s),
	}
}

// CheckFormat returns an error if f is not a valid format.
func CheckFormat(f Format) error {
	if f.IsValid() {
		return nil
	}
	return &NotSupportedError{
		SubSystem: "fontpick",
		Feature:   "font format " + quoteFormat(f.String()),
	}
}

func quoteFormat(s string) string {
	return "\"" + s + "\""
}

// WriteOptions control which optional data is included when a font is
// serialized.  The zero value strips everything which is not needed for
// rendering.
type WriteOptions struct {
	// IncludeHinting keeps TrueType glyph instructions, as well as the
	// "fpgm", "prep", "cvt " and "gasp" tables.
	IncludeHinting bool

	// IncludeKerning writes the kerning pairs to a "kern" table (or to
	// hkern elements for SVG fonts).
	IncludeKerning bool

	// AllowZeroContourGlyphs writes a glyph header for simple glyphs
	// without contours.  Otherwise such glyphs are stored with length 0.
	AllowZeroContourGlyphs bool
}
