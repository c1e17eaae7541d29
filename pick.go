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
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"seehuhn.de/go/fontpick/codepoint"
	"seehuhn.de/go/fontpick/font"
	"seehuhn.de/go/fontpick/internal/acquire"
	"seehuhn.de/go/fontpick/merge"
	"seehuhn.de/go/fontpick/subset"
)

// Result summarises a successful run of Pick.
type Result struct {
	InputPath  string
	BasePath   string // empty if no base font was used
	OutputPath string

	// File sizes in bytes.  Sizes of fonts loaded over the network are
	// reported as 0.
	InputSize  int64
	BaseSize   int64
	OutputSize int64

	Format        font.Format
	NumGlyphs     int
	NumCodepoints int

	Elapsed time.Duration
}

// Pick builds the font described by cfg and writes it to the output
// directory.  The directory is created if needed.  The output file is
// named after cfg.Name, or after the input font.  The file name extension
// is the one of the output format, so that OpenType/CFF data read from a
// ".ttf" file is written with extension ".otf".
//
// If any step fails, no file is written.
func Pick(ctx context.Context, cfg *Config) (*Result, error) {
	start := time.Now()
	log := cfg.logger()

	res := &Result{}
	b, err := build(ctx, cfg, res, log)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	outDir := cfg.outputDir()
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create output directory: %w", err)
	}
	outPath := filepath.Join(outDir, cfg.outputName()+b.format.Ext())
	if err := os.WriteFile(outPath, b.data, 0o644); err != nil {
		return nil, err
	}

	res.OutputPath = outPath
	res.OutputSize = int64(len(b.data))
	res.Elapsed = time.Since(start)
	log.Debug("font written",
		slog.String("path", outPath),
		slog.Int64("bytes", res.OutputSize),
		slog.Duration("elapsed", res.Elapsed))
	return res, nil
}

// Build runs the font picker without writing the result to a file.  It
// returns the encoded font together with its in-memory representation.
func Build(ctx context.Context, cfg *Config) ([]byte, *font.Font, error) {
	b, err := build(ctx, cfg, &Result{}, cfg.logger())
	if err != nil {
		return nil, nil, err
	}
	return b.data, b.font, nil
}

type built struct {
	data   []byte
	font   *font.Font
	format font.Format
}

func build(ctx context.Context, cfg *Config, res *Result, log *slog.Logger) (*built, error) {
	target := codepoint.Extract(cfg.Text)
	log.Debug("code points extracted", slog.Int("codepoints", target.Len()))

	loader := cfg.loader(log)

	in, format, err := load(ctx, loader, cfg.fontSource())
	if err != nil {
		return nil, err
	}
	res.InputPath = in.Path
	res.InputSize = in.Size

	f, err := parse(in.Data, format, log)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", in.Path, err)
	}
	numBefore := len(f.Glyphs)
	f, err = subset.Subset(f, target)
	if err != nil {
		return nil, err
	}
	log.Debug("font subsetted",
		slog.Int("glyphs_before", numBefore),
		slog.Int("glyphs", len(f.Glyphs)),
		slog.Int("codepoints", len(f.CMap)))

	if cfg.Base != "" {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bin, baseFormat, err := load(ctx, loader, cfg.Base)
		if err != nil {
			return nil, err
		}
		res.BasePath = bin.Path
		res.BaseSize = bin.Size

		if !compatible(format, baseFormat) {
			return nil, &font.IncompatibleFormatsError{
				A:      format.String(),
				B:      baseFormat.String(),
				Reason: "font and base font must use the same format",
			}
		}
		base, err := parse(bin.Data, baseFormat, log)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", bin.Path, err)
		}

		numPrimary := len(f.Glyphs)
		f, err = merge.Merge(f, base, &merge.Options{
			Scale:           cfg.Scale,
			MatchUnitsPerEm: cfg.MatchUnitsPerEm,
		})
		if err != nil {
			return nil, err
		}
		log.Debug("base font merged",
			slog.Int("base_glyphs", len(base.Glyphs)),
			slog.Int("glyphs_before", numPrimary),
			slog.Int("glyphs", len(f.Glyphs)),
			slog.Int("codepoints", len(f.CMap)))
	}

	f = font.Sort(f)
	if err := f.Check(); err != nil {
		return nil, err
	}

	// TrueType and OpenType files are distinguished by their outlines,
	// not by their file name.
	outFormat := format
	if format == font.OutlineTTF || format == font.OutlineOTF {
		outFormat = f.Format
	}
	data, err := serialize(f, outFormat, &cfg.WriteOptions, log)
	if err != nil {
		return nil, err
	}
	if cfg.Verify {
		if err := Verify(data, outFormat, f); err != nil {
			return nil, err
		}
		log.Debug("output verified")
	}

	res.Format = outFormat
	res.NumGlyphs = len(f.Glyphs)
	res.NumCodepoints = len(f.CMap)

	return &built{data: data, font: f, format: outFormat}, nil
}

// load determines the font format from the file name extension and then
// reads the font data.
func load(ctx context.Context, l *acquire.Loader, source string) (*acquire.Result, font.Format, error) {
	format, err := font.ParseFormat(acquire.Ext(source))
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", source, err)
	}
	r, err := l.Load(ctx, source)
	if err != nil {
		return nil, 0, err
	}
	return r, format, nil
}

func compatible(a, b font.Format) bool {
	isSfnt := func(f font.Format) bool {
		return f == font.OutlineTTF || f == font.OutlineOTF
	}
	return a == b || isSfnt(a) && isSfnt(b)
}
