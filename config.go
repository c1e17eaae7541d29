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
	"net/http"
	"path/filepath"

	"seehuhn.de/go/fontpick/font"
	"seehuhn.de/go/fontpick/internal/acquire"
)

// Default values for the Config fields.
const (
	DefaultFont   = "./font.ttf"
	DefaultOutput = "./font-pick"
)

// Config describes one run of the font picker.
type Config struct {
	// Text lists the characters which must be present in the output
	// font.  White space is ignored.
	Text string

	// Font is the file name or http(s) URL of the input font.  The file
	// name extension selects the font format.  If this is empty,
	// DefaultFont is used.
	Font string

	// Base, if set, is the file name or URL of a font which is merged
	// into the result.  The glyphs of Font take precedence.
	Base string

	// Dir is the directory against which relative file names of Font,
	// Base and Output are resolved.  If this is empty, the current
	// directory is used.
	Dir string

	// Output is the directory the output font is written to.  If this is
	// empty, DefaultOutput is used.
	Output string

	// Name is the file name of the output font, without extension.  If
	// this is empty, the base name of Font is used.
	Name string

	WriteOptions font.WriteOptions

	// Scale is applied to the glyphs of the base font when merging.
	// The value 0 is treated as 1.
	Scale float64

	// MatchUnitsPerEm scales the base font to the units per em of the
	// primary font.  This overrides Scale.
	MatchUnitsPerEm bool

	// SystemFonts allows bare file names for Font and Base to be found
	// in the system font directories.
	SystemFonts bool

	// Verify re-reads sfnt based output with an independent font reader
	// before the file is written.
	Verify bool

	// HTTPClient is used to download fonts given by URL.  If this is
	// nil, a client which does not verify server certificates is used.
	HTTPClient *http.Client

	// Logger, if non-nil, replaces the package logger for this run.
	Logger *slog.Logger
}

func (c *Config) fontSource() string {
	if c.Font == "" {
		return DefaultFont
	}
	return c.Font
}

func (c *Config) outputDir() string {
	out := c.Output
	if out == "" {
		out = DefaultOutput
	}
	if filepath.IsAbs(out) || c.Dir == "" {
		return filepath.Clean(out)
	}
	return filepath.Join(c.Dir, out)
}

func (c *Config) outputName() string {
	if c.Name != "" {
		return c.Name
	}
	return acquire.BaseName(c.fontSource())
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return Logger()
}

func (c *Config) loader(log *slog.Logger) *acquire.Loader {
	return &acquire.Loader{
		Dir:         c.Dir,
		Client:      c.HTTPClient,
		SystemFonts: c.SystemFonts,
		Logger:      log,
	}
}
