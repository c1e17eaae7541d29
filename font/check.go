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
	"errors"
	"fmt"
)

// Check verifies the structural invariants of the font.  Violations are
// reported as an EngineError.
func (f *Font) Check() error {
	err := f.check()
	if err != nil {
		return &EngineError{Op: "check", Err: err}
	}
	return nil
}

func (f *Font) check() error {
	if len(f.Glyphs) == 0 {
		return errors.New("missing glyph 0")
	}
	if len(f.Glyphs) > 0xFFFF {
		return fmt.Errorf("too many glyphs (%d)", len(f.Glyphs))
	}

	idx := make(map[string]int, len(f.Glyphs))
	for i, g := range f.Glyphs {
		if g == nil {
			return fmt.Errorf("glyph %d is nil", i)
		}
		if g.Name == "" {
			return fmt.Errorf("glyph %d has no name", i)
		}
		if j, seen := idx[g.Name]; seen {
			return fmt.Errorf("glyphs %d and %d are both named %q", j, i, g.Name)
		}
		idx[g.Name] = i
	}

	for r, gid := range f.CMap {
		if int(gid) >= len(f.Glyphs) {
			return fmt.Errorf("code point %U maps to invalid glyph %d", r, gid)
		}
	}

	for i, g := range f.Glyphs {
		for _, c := range g.Components {
			if _, ok := idx[c.Name]; !ok {
				return fmt.Errorf("glyph %d references missing glyph %q", i, c.Name)
			}
		}
	}
	if cycle := f.findCycle(idx); cycle != "" {
		return fmt.Errorf("glyph %q depends on itself", cycle)
	}

	for _, k := range f.Kerning {
		_, okL := idx[k.Left]
		_, okR := idx[k.Right]
		if !okL || !okR {
			return fmt.Errorf("kerning pair %q/%q references missing glyph", k.Left, k.Right)
		}
	}
	return nil
}

// CheckComponents verifies the component references of a decoded font:
// every component must name an existing glyph, and no glyph may depend on
// itself.  Violations are reported as an InvalidFontError for subSystem.
func (f *Font) CheckComponents(subSystem string) error {
	idx := make(map[string]int, len(f.Glyphs))
	for i, g := range f.Glyphs {
		idx[g.Name] = i
	}
	for i, g := range f.Glyphs {
		for _, c := range g.Components {
			if _, ok := idx[c.Name]; !ok {
				return Corrupt(subSystem, "glyph %d references missing glyph %q", i, c.Name)
			}
		}
	}
	if cycle := f.findCycle(idx); cycle != "" {
		return Corrupt(subSystem, "composite glyph %q references itself", cycle)
	}
	return nil
}

// findCycle returns the name of a glyph which lies on a component cycle,
// or the empty string if there are no cycles.
func (f *Font) findCycle(idx map[string]int) string {
	const (
		unvisited = iota
		active
		done
	)
	state := make([]uint8, len(f.Glyphs))

	var visit func(i int) string
	visit = func(i int) string {
		switch state[i] {
		case active:
			return f.Glyphs[i].Name
		case done:
			return ""
		}
		state[i] = active
		for _, c := range f.Glyphs[i].Components {
			if name := visit(idx[c.Name]); name != "" {
				return name
			}
		}
		state[i] = done
		return ""
	}

	for i := range f.Glyphs {
		if name := visit(i); name != "" {
			return name
		}
	}
	return ""
}
