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

package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "font.ttf"), goregular.TTF, 0o644)
	if err != nil {
		t.Fatal(err)
	}

	code := run(context.Background(), []string{"-s", "abc", "-d", dir, "--name", "abc"}, io.Discard)
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if _, err := os.Stat(filepath.Join(dir, "font-pick", "abc.ttf")); err != nil {
		t.Error(err)
	}

	// missing -s
	code = run(context.Background(), []string{"-d", dir}, io.Discard)
	if code != 1 {
		t.Errorf("missing string: exit code %d, want 1", code)
	}

	// missing font file
	code = run(context.Background(), []string{"-s", "x", "-d", dir, "-f", "nope.ttf"}, io.Discard)
	if code != 1 {
		t.Errorf("missing font: exit code %d, want 1", code)
	}

	code = run(context.Background(), []string{"--help"}, io.Discard)
	if code != 0 {
		t.Errorf("help: exit code %d, want 0", code)
	}
	code = run(context.Background(), []string{"-unknown-flag"}, io.Discard)
	if code != 1 {
		t.Errorf("unknown flag: exit code %d, want 1", code)
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	fname := filepath.Join(dir, "pick.yaml")
	conf := `string: "0123456789"
font: ./fonts/Digits.woff2
output: ./public
kerning: true
scale: 0.5
`
	if err := os.WriteFile(fname, []byte(conf), 0o644); err != nil {
		t.Fatal(err)
	}

	opts, err := parseArgs([]string{"-c", fname, "-o", "./other", "-s", "abc"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if opts.text != "abc" {
		t.Errorf("command line string overridden by config file: %q", opts.text)
	}
	if opts.output != "./other" {
		t.Errorf("command line output overridden by config file: %q", opts.output)
	}
	if opts.font != "./fonts/Digits.woff2" {
		t.Errorf("font not taken from config file: %q", opts.font)
	}
	if !opts.kerning || opts.hinting {
		t.Errorf("wrong boolean options: kerning=%t hinting=%t", opts.kerning, opts.hinting)
	}
	if opts.scale != 0.5 {
		t.Errorf("wrong scale %g", opts.scale)
	}

	_, err = parseArgs([]string{"-config", filepath.Join(dir, "missing.yaml")}, io.Discard)
	if err == nil {
		t.Error("missing config file not reported")
	}
}

func TestFormatSize(t *testing.T) {
	cases := []struct {
		size int64
		want string
	}{
		{0, "0 B"},
		{999, "999 B"},
		{1000, "1 kB"},
		{1536, "1.54 kB"},
		{52100, "52.1 kB"},
		{3_000_000, "3 MB"},
	}
	for _, c := range cases {
		if got := formatSize(c.size); got != c.want {
			t.Errorf("formatSize(%d) = %q, want %q", c.size, got, c.want)
		}
	}
}
