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
	"bytes"
	"errors"
	"fmt"

	refsfnt "seehuhn.de/go/sfnt"

	"seehuhn.de/go/fontpick/font"
	"seehuhn.de/go/fontpick/sfnt"
	"seehuhn.de/go/fontpick/woff"
	"seehuhn.de/go/fontpick/woff2"
)

// Verify parses encoded font data directly with the sfnt library, bypassing
// the conversion to [font.Font], and compares the number of glyphs, the units per em and the character map
// to f.  WOFF and WOFF2 data is unpacked first.  SVG fonts are not
// checked.
//
// Any mismatch is reported as a *font.EngineError.
func Verify(data []byte, format font.Format, f *font.Font) error {
	var plain []byte
	switch format {
	case font.OutlineTTF, font.OutlineOTF:
		plain = data
	case font.WOFF, font.WOFF2:
		var tables map[string][]byte
		var err error
		if format == font.WOFF {
			tables, err = woff.ReadTables(data)
		} else {
			tables, err = woff2.ReadTables(data)
		}
		if err != nil {
			return verifyError(err)
		}
		plain, err = sfnt.Assemble(tables)
		if err != nil {
			return verifyError(err)
		}
	case font.SVGFont:
		return nil
	default:
		return font.CheckFormat(format)
	}

	info, err := refsfnt.Read(bytes.NewReader(plain))
	if err != nil {
		return verifyError(err)
	}

	if n := info.NumGlyphs(); n != len(f.Glyphs) {
		return verifyError(fmt.Errorf("%d glyphs written, %d expected", n, len(f.Glyphs)))
	}
	if f.UnitsPerEm != 0 && info.UnitsPerEm != f.UnitsPerEm {
		return verifyError(fmt.Errorf("units per em %d, %d expected", info.UnitsPerEm, f.UnitsPerEm))
	}

	if len(f.CMap) == 0 {
		return nil
	}
	if info.CMapTable == nil {
		return verifyError(errors.New("no cmap table"))
	}
	cmap, err := info.CMapTable.GetBest()
	if err != nil {
		return verifyError(err)
	}
	for _, r := range f.SortedCodepoints() {
		if got := cmap.Lookup(r); got != f.CMap[r] {
			return verifyError(fmt.Errorf("U+%04X maps to glyph %d, %d expected", r, got, f.CMap[r]))
		}
	}
	return nil
}

func verifyError(err error) error {
	return &font.EngineError{Op: "verify", Err: err}
}
