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

package sfnt

import (
	"errors"
	"math"

	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/postscript/funit"
	"seehuhn.de/go/sfnt/cff"
	"seehuhn.de/go/sfnt/glyf"

	"seehuhn.de/go/fontpick/font"
)

// fromContours converts TrueType contours into path commands.  Each
// contour starts at its first on-curve point.  Implied on-curve points
// between consecutive off-curve points are made explicit.
func fromContours(cc []glyf.Contour) []font.Command {
	var res []font.Command
	for _, c := range cc {
		res = appendContour(res, c)
	}
	return res
}

func appendContour(res []font.Command, c glyf.Contour) []font.Command {
	n := len(c)
	if n == 0 {
		return res
	}

	pt := func(i int) vec.Vec2 {
		p := c[(i%n+n)%n]
		return vec.Vec2{X: float64(p.X), Y: float64(p.Y)}
	}
	on := func(i int) bool {
		return c[(i%n+n)%n].OnCurve
	}

	start := -1
	for i := range c {
		if c[i].OnCurve {
			start = i
			break
		}
	}

	var first vec.Vec2
	var order []int
	switch {
	case start >= 0:
		first = pt(start)
		for k := 1; k <= n; k++ {
			order = append(order, start+k)
		}
	case n == 1:
		first = pt(0)
	default:
		// no on-curve points: start at the implied point between the
		// last and the first point
		first = midpoint(pt(n-1), pt(0))
		for i := range n {
			order = append(order, i)
		}
	}
	res = append(res, font.Command{Op: font.OpMoveTo, Pts: [3]vec.Vec2{first}})

	var ctrl *vec.Vec2
	for _, i := range order {
		p := pt(i)
		switch {
		case on(i) && ctrl == nil:
			res = append(res, font.Command{Op: font.OpLineTo, Pts: [3]vec.Vec2{p}})
		case on(i):
			res = append(res, font.Command{Op: font.OpQuadTo, Pts: [3]vec.Vec2{*ctrl, p}})
			ctrl = nil
		case ctrl != nil:
			m := midpoint(*ctrl, p)
			res = append(res, font.Command{Op: font.OpQuadTo, Pts: [3]vec.Vec2{*ctrl, m}})
			ctrl = &p
		default:
			ctrl = &p
		}
	}
	if ctrl != nil {
		res = append(res, font.Command{Op: font.OpQuadTo, Pts: [3]vec.Vec2{*ctrl, first}})
	}

	// the closing line segment is implied
	if last := res[len(res)-1]; last.Op == font.OpLineTo && last.Pts[0] == first {
		res = res[:len(res)-1]
	}
	return append(res, font.Command{Op: font.OpClose})
}

// toContours converts path commands into TrueType contours.  The commands
// must not contain cubic Bézier curves.  Coordinates are rounded to
// integers.  On-curve points which lie exactly in the middle between two
// off-curve points are omitted.
func toContours(cmds []font.Command) ([]glyf.Contour, error) {
	var res []glyf.Contour
	var cur []pathPoint

	flush := func() {
		if len(cur) == 0 {
			return
		}
		if len(cur) > 1 && cur[len(cur)-1] == cur[0] {
			cur = cur[:len(cur)-1]
		}
		res = append(res, compact(cur))
		cur = nil
	}

	for _, cmd := range cmds {
		switch cmd.Op {
		case font.OpMoveTo:
			flush()
			cur = []pathPoint{{cmd.Pts[0], true}}
		case font.OpLineTo:
			if len(cur) == 0 {
				return nil, errNoMoveTo
			}
			cur = append(cur, pathPoint{cmd.Pts[0], true})
		case font.OpQuadTo:
			if len(cur) == 0 {
				return nil, errNoMoveTo
			}
			cur = append(cur, pathPoint{cmd.Pts[0], false}, pathPoint{cmd.Pts[1], true})
		case font.OpCubeTo:
			return nil, &font.EngineError{
				Op:  "encode glyf",
				Err: errors.New("cubic curves cannot be stored in TrueType outlines"),
			}
		case font.OpClose:
			flush()
		}
	}
	flush()
	return res, nil
}

type pathPoint struct {
	vec.Vec2
	on bool
}

// compact removes on-curve points which are implied by the neighbouring
// off-curve points, and rounds the remaining points to integers.  The
// first point is only removed if no other on-curve point remains.
func compact(c []pathPoint) glyf.Contour {
	n := len(c)
	implied := func(i int) bool {
		prev, next := c[(i+n-1)%n], c[(i+1)%n]
		return n >= 3 && c[i].on && !prev.on && !next.on &&
			midpoint(prev.Vec2, next.Vec2) == c[i].Vec2
	}

	res := make(glyf.Contour, 0, n)
	otherOn := false
	for i, p := range c {
		if i > 0 && implied(i) {
			continue
		}
		if i > 0 && p.on {
			otherOn = true
		}
		res = append(res, glyf.Point{
			X:       funit.Int16(math.Round(p.X)),
			Y:       funit.Int16(math.Round(p.Y)),
			OnCurve: p.on,
		})
	}
	if !otherOn && implied(0) {
		res = res[1:]
	}
	return res
}

func midpoint(a, b vec.Vec2) vec.Vec2 {
	return vec.Vec2{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// fromCharString converts the drawing operators of a CFF glyph into path
// commands.  Every subpath is closed explicitly.
func fromCharString(g *cff.Glyph) []font.Command {
	var res []font.Command
	open := false
	for _, op := range g.Cmds {
		switch op.Op {
		case cff.OpMoveTo:
			if open {
				res = append(res, font.Close())
			}
			res = append(res, font.MoveTo(op.Args[0], op.Args[1]))
			open = true
		case cff.OpLineTo:
			res = append(res, font.LineTo(op.Args[0], op.Args[1]))
		case cff.OpCurveTo:
			a := op.Args
			res = append(res, font.CubeTo(a[0], a[1], a[2], a[3], a[4], a[5]))
		}
	}
	if open {
		res = append(res, font.Close())
	}
	return res
}

// toCharString builds a CFF glyph from cubic path commands.  Close
// commands are dropped, since every subpath of a CFF glyph is closed
// implicitly.
func toCharString(g *font.Glyph) (*cff.Glyph, error) {
	res := cff.NewGlyph(g.Name, float64(g.Advance))
	started := false
	for _, cmd := range g.Outline {
		p := cmd.Pts
		switch cmd.Op {
		case font.OpMoveTo:
			res.MoveTo(p[0].X, p[0].Y)
			started = true
		case font.OpLineTo:
			if !started {
				return nil, errNoMoveTo
			}
			res.LineTo(p[0].X, p[0].Y)
		case font.OpCubeTo:
			if !started {
				return nil, errNoMoveTo
			}
			res.CurveTo(p[0].X, p[0].Y, p[1].X, p[1].Y, p[2].X, p[2].Y)
		case font.OpQuadTo:
			return nil, &font.EngineError{
				Op:  "encode CFF",
				Err: errors.New("quadratic curves must be converted before encoding"),
			}
		}
	}
	return res, nil
}

var errNoMoveTo = &font.EngineError{
	Op:  "sfnt write",
	Err: errors.New("path does not start with MoveTo"),
}
