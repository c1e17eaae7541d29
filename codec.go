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

package fontpick

import (
	"log/slog"

	"seehuhn.de/go/fontpick/font"
	"seehuhn.de/go/fontpick/sfnt"
	"seehuhn.de/go/fontpick/svgfont"
	"seehuhn.de/go/fontpick/woff"
	"seehuhn.de/go/fontpick/woff2"
)

// Parse decodes a font file.
//
// For OutlineTTF and OutlineOTF the two formats are not distinguished when
// reading: the Format of the result reflects the outlines found in the
// file.  For all other formats, the Format of the result equals format.
//
// Structurally invalid data gives a *font.InvalidFontError, an unknown
// format gives a *font.NotSupportedError.
func Parse(data []byte, format font.Format) (*font.Font, error) {
	return parse(data, format, Logger())
}

func parse(data []byte, format font.Format, log *slog.Logger) (*font.Font, error) {
	var f *font.Font
	var err error
	switch format {
	case font.OutlineTTF, font.OutlineOTF:
		f, err = sfnt.Read(data)
	case font.WOFF:
		f, err = woff.Read(data)
	case font.WOFF2:
		f, err = woff2.Read(data)
	case font.SVGFont:
		f, err = svgfont.Read(data)
	default:
		return nil, font.CheckFormat(format)
	}
	if err != nil {
		return nil, err
	}

	log.Debug("font parsed",
		"format", format,
		"outlines", f.Outlines,
		"glyphs", len(f.Glyphs),
		"codepoints", len(f.CMap),
		"bytes", len(data))
	return f, nil
}

// Serialize encodes a font in the given format.  A nil opt is the same as
// a pointer to the zero WriteOptions.
//
// TrueType output requires glyf outlines and OpenType/CFF output requires
// CFF outlines.  Other combinations give a *font.IncompatibleFormatsError.
// The web font formats and SVG fonts accept both kinds of outlines.
// Fonts which fail [font.Font.Check], for example because of a
// component cycle, give a *font.EngineError.
func Serialize(f *font.Font, format font.Format, opt *font.WriteOptions) ([]byte, error) {
	return serialize(f, format, opt, Logger())
}

func serialize(f *font.Font, format font.Format, opt *font.WriteOptions, log *slog.Logger) ([]byte, error) {
	if err := font.CheckFormat(format); err != nil {
		return nil, err
	}
	if opt == nil {
		opt = &font.WriteOptions{}
	}

	switch {
	case format == font.OutlineTTF && f.Outlines != font.GlyfOutlines:
		return nil, &font.IncompatibleFormatsError{
			A:      f.Outlines.String() + " outlines",
			B:      format.String(),
			Reason: "TrueType fonts require quadratic outlines",
		}
	case format == font.OutlineOTF && f.Outlines != font.CFFOutlines:
		return nil, &font.IncompatibleFormatsError{
			A:      f.Outlines.String() + " outlines",
			B:      format.String(),
			Reason: "OpenType/CFF fonts require cubic outlines",
		}
	}

	if err := f.Check(); err != nil {
		return nil, err
	}

	var data []byte
	var err error
	switch format {
	case font.OutlineTTF, font.OutlineOTF:
		data, err = sfnt.Write(f, opt)
	case font.WOFF:
		data, err = woff.Write(f, opt)
	case font.WOFF2:
		data, err = woff2.Write(f, opt)
	case font.SVGFont:
		data, err = svgfont.Write(f, opt)
	}
	if err != nil {
		return nil, err
	}

	log.Debug("font serialized",
		"format", format,
		"glyphs", len(f.Glyphs),
		"bytes", len(data))
	return data, nil
}
