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

// Package fontpick extracts minimal fonts which contain only the glyphs
// needed to render a given text.
//
// The main entry point is [Pick], which reads a font, reduces it to the
// characters in [Config].Text, optionally merges in the glyphs of a base
// font, and writes the result to a file:
//
//	res, err := fontpick.Pick(ctx, &fontpick.Config{
//		Text:   "0123456789",
//		Font:   "fonts/Digits.woff2",
//		Output: "public/fonts",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(res.OutputPath, res.OutputSize)
//
// The individual steps are available as separate packages:
// [seehuhn.de/go/fontpick/codepoint] converts text to code points,
// [seehuhn.de/go/fontpick/subset] and [seehuhn.de/go/fontpick/merge]
// operate on the in-memory representation in
// [seehuhn.de/go/fontpick/font], and [Parse] and [Serialize] convert
// between this representation and the supported file formats: TrueType,
// OpenType/CFF, WOFF, WOFF2 and SVG fonts.
//
// Errors are reported using the types from the font package, see
// [font.IsCorrupt], [font.IsUnsupported], [font.IsIncompatible] and
// [font.IsEngineFailure].  Errors while loading font data are of type
// [AcquisitionError].
package fontpick
