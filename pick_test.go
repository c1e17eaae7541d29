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
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/image/font/gofont/goregular"
	"seehuhn.de/go/sfnt/glyph"

	"seehuhn.de/go/fontpick/font"
	"seehuhn.de/go/fontpick/internal/fonttest"
)

// writeFont stores f in dir, in the format given by the extension of
// fileName.
func writeFont(t *testing.T, dir, fileName string, f *font.Font) {
	t.Helper()
	format, err := font.ParseFormat(filepath.Ext(fileName))
	if err != nil {
		t.Fatal(err)
	}
	data, err := Serialize(f, format, nil)
	if err != nil {
		t.Fatal(err)
	}
	err = os.WriteFile(filepath.Join(dir, fileName), data, 0o644)
	if err != nil {
		t.Fatal(err)
	}
}

func TestScenarioA(t *testing.T) {
	dir := t.TempDir()
	src := fonttest.Make(8, map[rune]glyph.ID{'A': 5, 'B': 6, 'C': 7})
	writeFont(t, dir, "source.ttf", src)

	cfg := &Config{
		Text: "AB",
		Font: "source.ttf",
		Dir:  dir,
	}
	res, err := Pick(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}

	wantPath := filepath.Join(dir, "font-pick", "source.ttf")
	if res.OutputPath != wantPath {
		t.Errorf("output path %q, want %q", res.OutputPath, wantPath)
	}
	data, err := os.ReadFile(wantPath)
	if err != nil {
		t.Fatal(err)
	}
	if int64(len(data)) != res.OutputSize {
		t.Errorf("output size %d, file has %d bytes", res.OutputSize, len(data))
	}
	fi, err := os.Stat(filepath.Join(dir, "source.ttf"))
	if err != nil {
		t.Fatal(err)
	}
	if res.InputSize != fi.Size() {
		t.Errorf("input size %d, want %d", res.InputSize, fi.Size())
	}
	if res.NumGlyphs != 3 || res.NumCodepoints != 2 {
		t.Errorf("got %d glyphs and %d code points, want 3 and 2",
			res.NumGlyphs, res.NumCodepoints)
	}

	out, err := Parse(data, font.OutlineTTF)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]string{".notdef", "g5", "g6"}, fonttest.Names(out)); d != "" {
		t.Errorf("glyphs (-want +got):\n%s", d)
	}
	wantCMap := map[rune]glyph.ID{'A': 1, 'B': 2}
	if d := cmp.Diff(wantCMap, out.CMap); d != "" {
		t.Errorf("cmap (-want +got):\n%s", d)
	}
	for i, orig := range []int{0, 5, 6} {
		want := fonttest.Glyph(orig)
		got := out.Glyphs[i]
		if got.Advance != want.Advance {
			t.Errorf("glyph %d: advance %d, want %d", i, got.Advance, want.Advance)
		}
		if font.BBox(got.Outline) != font.BBox(want.Outline) {
			t.Errorf("glyph %d: outline changed", i)
		}
	}
}

func TestOutputExtension(t *testing.T) {
	dir := t.TempDir()
	src := fonttest.Make(4, map[rune]glyph.ID{'a': 1, 'b': 2})
	src.Format = font.OutlineOTF
	src.Outlines = font.CFFOutlines
	data, err := Serialize(src, font.OutlineOTF, nil)
	if err != nil {
		t.Fatal(err)
	}
	// CFF data under a TrueType file name
	err = os.WriteFile(filepath.Join(dir, "cff.ttf"), data, 0o644)
	if err != nil {
		t.Fatal(err)
	}

	res, err := Pick(context.Background(), &Config{Text: "a", Font: "cff.ttf", Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if res.Format != font.OutlineOTF {
		t.Errorf("output format %s, want otf", res.Format)
	}
	wantPath := filepath.Join(dir, "font-pick", "cff.otf")
	if res.OutputPath != wantPath {
		t.Errorf("output path %q, want %q", res.OutputPath, wantPath)
	}
	if _, err := os.Stat(filepath.Join(dir, "font-pick", "cff.ttf")); !os.IsNotExist(err) {
		t.Errorf("unexpected .ttf output: %v", err)
	}
}

func TestScenarioB(t *testing.T) {
	dir := t.TempDir()
	primary := fonttest.Make(4, map[rune]glyph.ID{'A': 2, 'C': 3})
	base := fonttest.Make(5, map[rune]glyph.ID{'A': 1, 'B': 4})
	writeFont(t, dir, "primary.ttf", primary)
	writeFont(t, dir, "base.ttf", base)

	cfg := &Config{
		Text: "A",
		Font: "primary.ttf",
		Base: "base.ttf",
		Dir:  dir,
	}
	_, f, err := Build(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}

	// base's "A" is dropped, only "B" is appended
	if d := cmp.Diff([]string{".notdef", "g2", "g4"}, fonttest.Names(f)); d != "" {
		t.Errorf("glyphs (-want +got):\n%s", d)
	}
	wantCMap := map[rune]glyph.ID{'A': 1, 'B': 2}
	if d := cmp.Diff(wantCMap, f.CMap); d != "" {
		t.Errorf("cmap (-want +got):\n%s", d)
	}
	if f.Glyphs[1].Advance != fonttest.Glyph(2).Advance {
		t.Error("'A' does not use the glyph from the primary font")
	}
}

func TestScenarioC(t *testing.T) {
	dir := t.TempDir()
	src := fonttest.Make(4, map[rune]glyph.ID{'a': 1, '😀': 2, 0xD83D: 3})
	writeFont(t, dir, "emoji.woff", src)

	_, f, err := Build(context.Background(), &Config{
		Text: "a😀a",
		Font: "emoji.woff",
		Dir:  dir,
	})
	if err != nil {
		t.Fatal(err)
	}
	wantCMap := map[rune]glyph.ID{'a': 1, '😀': 2}
	if d := cmp.Diff(wantCMap, f.CMap); d != "" {
		t.Errorf("cmap (-want +got):\n%s", d)
	}
	if len(f.Glyphs) != 3 {
		t.Errorf("got %d glyphs, want 3", len(f.Glyphs))
	}
}

func TestScenarioD(t *testing.T) {
	dir := t.TempDir()
	writeFont(t, dir, "in.woff2", fonttest.Make(3, map[rune]glyph.ID{'x': 1, ' ': 2}))

	for _, text := range []string{"", " \t\n "} {
		data, f, err := Build(context.Background(), &Config{
			Text: text,
			Font: "in.woff2",
			Dir:  dir,
		})
		if err != nil {
			t.Fatalf("%q: %v", text, err)
		}
		if len(f.Glyphs) != 1 || len(f.CMap) != 0 {
			t.Errorf("%q: got %d glyphs and %d code points, want 1 and 0",
				text, len(f.Glyphs), len(f.CMap))
		}
		out, err := Parse(data, font.WOFF2)
		if err != nil {
			t.Fatal(err)
		}
		if len(out.Glyphs) != 1 || len(out.CMap) != 0 {
			t.Errorf("%q: output has %d glyphs and %d code points",
				text, len(out.Glyphs), len(out.CMap))
		}
	}
}

func TestPickOptions(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Go-Regular.ttf"), goregular.TTF, 0o644); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(t.TempDir(), "a", "b")

	res, err := Pick(context.Background(), &Config{
		Text:   "Hello",
		Font:   "Go-Regular.ttf",
		Dir:    dir,
		Output: outDir,
		Name:   "hello",
		WriteOptions: font.WriteOptions{
			IncludeKerning: true,
		},
		Verify: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.OutputPath != filepath.Join(outDir, "hello.ttf") {
		t.Errorf("wrong output path %q", res.OutputPath)
	}
	if res.OutputSize >= res.InputSize {
		t.Errorf("output (%d bytes) is not smaller than input (%d bytes)",
			res.OutputSize, res.InputSize)
	}
	if res.Format != font.OutlineTTF {
		t.Errorf("wrong format %s", res.Format)
	}
	if res.NumCodepoints != 4 {
		t.Errorf("got %d code points, want 4", res.NumCodepoints)
	}
}

func TestPickErrors(t *testing.T) {
	dir := t.TempDir()
	writeFont(t, dir, "a.ttf", fonttest.Make(2, map[rune]glyph.ID{'a': 1}))
	writeFont(t, dir, "b.svg", fonttest.Make(2, map[rune]glyph.ID{'b': 1}))
	if err := os.WriteFile(filepath.Join(dir, "bad.woff"), []byte("wOFFxxxx"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.eot"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	type testCase struct {
		name  string
		cfg   Config
		check func(error) bool
	}
	cases := []testCase{
		{"missing", Config{Font: "missing.ttf"}, IsAcquisitionError},
		{"unknown format", Config{Font: "a.eot"}, font.IsUnsupported},
		{"corrupt", Config{Font: "bad.woff"}, font.IsCorrupt},
		{"base format", Config{Font: "a.ttf", Base: "b.svg"}, font.IsIncompatible},
		{"missing base", Config{Font: "a.ttf", Base: "c.ttf"}, IsAcquisitionError},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := c.cfg
			cfg.Text = "ab"
			cfg.Dir = dir
			cfg.Output = "out"
			_, err := Pick(context.Background(), &cfg)
			if err == nil || !c.check(err) {
				t.Errorf("unexpected error %v", err)
			}
			// no output on failure
			if _, err := os.Stat(filepath.Join(dir, "out")); err == nil {
				t.Error("output directory was created")
			}
		})
	}
}

func TestPickURL(t *testing.T) {
	data, err := Serialize(fonttest.Make(3, map[rune]glyph.ID{'x': 1, 'y': 2}), font.WOFF, nil)
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer srv.Close()

	res, err := Pick(context.Background(), &Config{
		Text:   "y",
		Font:   srv.URL + "/fonts/remote.woff",
		Output: t.TempDir(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(res.OutputPath) != "remote.woff" {
		t.Errorf("wrong output file name %q", res.OutputPath)
	}
	if res.InputSize != 0 {
		t.Errorf("input size %d reported for a URL", res.InputSize)
	}
	if res.NumGlyphs != 2 {
		t.Errorf("got %d glyphs, want 2", res.NumGlyphs)
	}
}

func TestLogging(t *testing.T) {
	dir := t.TempDir()
	writeFont(t, dir, "f.ttf", fonttest.Make(3, map[rune]glyph.ID{'a': 1, 'b': 2}))

	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	_, _, err := Build(context.Background(), &Config{
		Text:   "a",
		Font:   "f.ttf",
		Dir:    dir,
		Logger: logger,
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, msg := range []string{"font parsed", "font subsetted", "font serialized"} {
		if !strings.Contains(buf.String(), msg) {
			t.Errorf("log output does not contain %q", msg)
		}
	}

	// the package logger is silent by default
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Error("default logger is enabled")
	}
	SetLogger(logger)
	if Logger() != logger {
		t.Error("SetLogger had no effect")
	}
	SetLogger(nil)
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Error("SetLogger(nil) did not restore the default")
	}
}
