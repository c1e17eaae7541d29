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

// Font-pick creates a font file which contains only the glyphs needed to
// render a given string.
//
// Usage:
//
//	font-pick -s 0123456789 -f ./fonts/Digits.ttf -o ./public/fonts
//
// Run "font-pick --help" for a list of all options.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"seehuhn.de/go/fontpick"
	"seehuhn.de/go/fontpick/internal/acquire"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

// options holds the command line options.
type options struct {
	config string

	text   string
	font   string
	base   string
	dir    string
	output string
	name   string

	hinting      bool
	kerning      bool
	zeroContours bool
	scale        float64
	matchUPM     bool
	systemFonts  bool
	verify       bool

	verbose bool
	version bool
	help    bool
}

// fileConfig is the format of the YAML configuration file.  Command line
// flags take precedence over values from the file.
type fileConfig struct {
	String       string  `yaml:"string"`
	Font         string  `yaml:"font"`
	Base         string  `yaml:"base"`
	Dir          string  `yaml:"dir"`
	Output       string  `yaml:"output"`
	Name         string  `yaml:"name"`
	Hinting      bool    `yaml:"hinting"`
	Kerning      bool    `yaml:"kerning"`
	ZeroContours bool    `yaml:"zero-contours"`
	Scale        float64 `yaml:"scale"`
	MatchUPM     bool    `yaml:"match-upm"`
	SystemFonts  bool    `yaml:"system-fonts"`
	Verify       bool    `yaml:"verify"`
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		pterm.DisableColor()
	}
	initDisplay()

	opts, err := parseArgs(args, stderr)
	if err != nil {
		errorLog(err)
		return 1
	}

	switch {
	case opts.help:
		printHelp()
		return 0
	case opts.version:
		pterm.Println(pterm.FgLightBlue.Sprint(version()))
		return 0
	case opts.text == "":
		errorLog(fmt.Errorf("parameter -string is required! Run %s to learn more",
			bashStyle.Sprint("font-pick --help")))
		return 1
	}

	if opts.verbose {
		h := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
		fontpick.SetLogger(slog.New(h))
	}

	cfg := &fontpick.Config{
		Text:            opts.text,
		Font:            opts.font,
		Base:            opts.base,
		Dir:             opts.dir,
		Output:          opts.output,
		Name:            opts.name,
		Scale:           opts.scale,
		MatchUnitsPerEm: opts.matchUPM,
		SystemFonts:     opts.systemFonts,
		Verify:          opts.verify,
	}
	cfg.WriteOptions.IncludeHinting = opts.hinting
	cfg.WriteOptions.IncludeKerning = opts.kerning
	cfg.WriteOptions.AllowZeroContourGlyphs = opts.zeroContours

	res, err := fontpick.Pick(ctx, cfg)
	if err != nil {
		errorLog(err)
		return 1
	}

	pterm.Println("fontPath:", pathStyle.Sprint(opts.font), sizeString(res.InputSize))
	if res.BasePath != "" {
		pterm.Println("baseFontPath:", pathStyle.Sprint(opts.base), sizeString(res.BaseSize))
	}
	pterm.Println("outputPath:", pathStyle.Sprint(displayPath(res.OutputPath, opts.dir)), sizeString(res.OutputSize))
	pterm.Printfln("%d glyphs, %d code points, elapsed time %s",
		res.NumGlyphs, res.NumCodepoints, res.Elapsed.Round(time.Millisecond))
	pterm.Success.Println("Pick font successfully!")
	return 0
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}

	fs := flag.NewFlagSet("font-pick", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {}

	stringFlag := func(p *string, short, long, value, usage string) {
		fs.StringVar(p, short, value, usage)
		fs.StringVar(p, long, value, usage)
	}
	stringFlag(&opts.config, "c", "config", "", "YAML file with default values for the options")
	stringFlag(&opts.text, "s", "string", "", "the characters to include in the font")
	stringFlag(&opts.font, "f", "font", fontpick.DefaultFont, "file name or URL of the font")
	stringFlag(&opts.base, "b", "base", "", "file name or URL of a font to merge into the result")
	stringFlag(&opts.dir, "d", "dir", "", "directory for resolving relative file names")
	stringFlag(&opts.output, "o", "output", fontpick.DefaultOutput, "output directory")
	stringFlag(&opts.name, "n", "name", "", "name of the output font, without extension")
	fs.BoolVar(&opts.hinting, "hinting", false, "keep hinting instructions")
	fs.BoolVar(&opts.kerning, "kerning", false, "keep kerning information")
	fs.BoolVar(&opts.zeroContours, "zero-contours", false, "write glyph data for empty glyphs")
	fs.Float64Var(&opts.scale, "scale", 1, "scale factor for the glyphs of the base font")
	fs.BoolVar(&opts.matchUPM, "match-upm", false, "scale the base font to the units per em of the font")
	fs.BoolVar(&opts.systemFonts, "system-fonts", false, "look up bare font file names in the system font directories")
	fs.BoolVar(&opts.verify, "verify", false, "check the output with an independent font reader")
	fs.BoolVar(&opts.verbose, "v", false, "print debug messages")
	fs.BoolVar(&opts.version, "version", false, "print the version and exit")
	fs.BoolVar(&opts.help, "help", false, "print this help text and exit")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			opts.help = true
			return opts, nil
		}
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}

	if opts.config != "" {
		set := make(map[string]bool)
		fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
		if err := applyConfigFile(opts, opts.config, set); err != nil {
			return nil, err
		}
	}
	return opts, nil
}

func applyConfigFile(opts *options, fname string, set map[string]bool) error {
	data, err := os.ReadFile(fname)
	if err != nil {
		return err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("%s: %w", fname, err)
	}

	str := func(p *string, value string, names ...string) {
		for _, name := range names {
			if set[name] {
				return
			}
		}
		if value != "" {
			*p = value
		}
	}
	str(&opts.text, fc.String, "s", "string")
	str(&opts.font, fc.Font, "f", "font")
	str(&opts.base, fc.Base, "b", "base")
	str(&opts.dir, fc.Dir, "d", "dir")
	str(&opts.output, fc.Output, "o", "output")
	str(&opts.name, fc.Name, "n", "name")

	boolean := func(p *bool, value bool, name string) {
		if !set[name] && value {
			*p = true
		}
	}
	boolean(&opts.hinting, fc.Hinting, "hinting")
	boolean(&opts.kerning, fc.Kerning, "kerning")
	boolean(&opts.zeroContours, fc.ZeroContours, "zero-contours")
	boolean(&opts.matchUPM, fc.MatchUPM, "match-upm")
	boolean(&opts.systemFonts, fc.SystemFonts, "system-fonts")
	boolean(&opts.verify, fc.Verify, "verify")

	if !set["scale"] && fc.Scale != 0 {
		opts.scale = fc.Scale
	}
	return nil
}

var (
	bashStyle = pterm.NewRGB(200, 100, 200)
	pathStyle = pterm.NewStyle(pterm.FgYellow)
)

func initDisplay() {
	pterm.Error.Prefix = pterm.Prefix{
		Text:  "FAILED",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
	pterm.Success.Prefix = pterm.Prefix{
		Text:  "DONE",
		Style: pterm.NewStyle(pterm.BgGreen, pterm.FgBlack),
	}
}

func errorLog(err error) {
	var acqErr *fontpick.AcquisitionError
	if errors.As(err, &acqErr) && acquire.IsURL(acqErr.Source) {
		pterm.Error.Println("Failed to download font:", err)
		return
	}
	pterm.Error.Println("Failed to pick font:", err)
}

// sizeString formats a file size.  Sizes are coloured green below 50 KiB,
// yellow below 1000 KiB and red above.
func sizeString(size int64) string {
	if size <= 0 {
		return ""
	}
	s := formatSize(size)
	switch {
	case size > 1024*1000:
		return pterm.FgRed.Sprint(s)
	case size > 1024*50:
		return pterm.FgYellow.Sprint(s)
	default:
		return pterm.FgGreen.Sprint(s)
	}
}

func formatSize(size int64) string {
	units := []string{"B", "kB", "MB", "GB"}
	x := float64(size)
	i := 0
	for x >= 1000 && i < len(units)-1 {
		x /= 1000
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d %s", size, units[0])
	}
	s := strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", x), "0"), ".")
	return s + " " + units[i]
}

// displayPath shows the output path relative to dir, where possible.
func displayPath(fname, dir string) string {
	if dir == "" {
		dir = "."
	}
	rel, err := filepath.Rel(dir, fname)
	if err != nil || strings.HasPrefix(rel, "..") {
		return fname
	}
	return rel
}

func version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" {
		return "(devel)"
	}
	return info.Main.Version
}

func printHelp() {
	usage := []struct{ cmd, arg, text string }{
		{"font-pick --help", "", "print help information"},
		{"font-pick -s ", "0123", "the string that needs to be picked"},
		{"font-pick -f ", "./font.ttf", "font file or URL, the default is " + fontpick.DefaultFont},
		{"font-pick -b ", "./base.ttf", "base font, the new font is merged into this font"},
		{"font-pick -d ", "./fonts", "directory where fonts are looked up and generated, the default is the current directory"},
		{"font-pick -o ", "./font-pick", "directory where the font is generated, the default is " + fontpick.DefaultOutput},
		{"font-pick -n ", "font", "name of the generated font, the default is the base name of the font option"},
		{"font-pick -c ", "pick.yaml", "read default options from a YAML file"},
	}
	pterm.Println(pterm.FgGreen.Sprint("Usage:"))
	for _, u := range usage {
		line := "  " + bashStyle.Sprint(u.cmd)
		if u.arg != "" {
			line += pterm.Italic.Sprint(bashStyle.Sprint(u.arg))
		}
		pterm.Println(line + "  // " + u.text)
	}
	pterm.Println()
	pterm.Println(pterm.FgGreen.Sprint("Output options:"))
	pterm.Println("  -hinting        keep hinting instructions")
	pterm.Println("  -kerning        keep kerning information")
	pterm.Println("  -zero-contours  write glyph data for glyphs without contours")
	pterm.Println("  -scale x        scale factor for the base font (default 1)")
	pterm.Println("  -match-upm      scale the base font to the units per em of the font")
	pterm.Println("  -system-fonts   find bare font file names in the system font directories")
	pterm.Println("  -verify         check the output with an independent font reader")
	pterm.Println("  -v              print debug messages")
	pterm.Println("  -version        print the version number")
}
