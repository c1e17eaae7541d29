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
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// Op is a path construction operator.
type Op uint8

// These are the path construction operators.
const (
	OpMoveTo Op = iota
	OpLineTo
	OpQuadTo
	OpCubeTo
	OpClose
)

func (op Op) String() string {
	switch op {
	case OpMoveTo:
		return "M"
	case OpLineTo:
		return "L"
	case OpQuadTo:
		return "Q"
	case OpCubeTo:
		return "C"
	case OpClose:
		return "Z"
	default:
		return "?"
	}
}

// NumPoints returns the number of points used by the operator.
func (op Op) NumPoints() int {
	switch op {
	case OpMoveTo, OpLineTo:
		return 1
	case OpQuadTo:
		return 2
	case OpCubeTo:
		return 3
	default:
		return 0
	}
}

// Command is a single path construction command.  Only the first
// Op.NumPoints() entries of Pts are used, the last of these is the end point.
//
// Every sub-path starts with OpMoveTo and is closed by OpClose.  The closing
// line segment back to the start point is implied by OpClose.
type Command struct {
	Op  Op
	Pts [3]vec.Vec2
}

// MoveTo returns a command which starts a new sub-path.
func MoveTo(x, y float64) Command {
	return Command{Op: OpMoveTo, Pts: [3]vec.Vec2{{X: x, Y: y}}}
}

// LineTo returns a straight line command.
func LineTo(x, y float64) Command {
	return Command{Op: OpLineTo, Pts: [3]vec.Vec2{{X: x, Y: y}}}
}

// QuadTo returns a quadratic Bézier curve command.
func QuadTo(cx, cy, x, y float64) Command {
	return Command{Op: OpQuadTo, Pts: [3]vec.Vec2{{X: cx, Y: cy}, {X: x, Y: y}}}
}

// CubeTo returns a cubic Bézier curve command.
func CubeTo(c1x, c1y, c2x, c2y, x, y float64) Command {
	return Command{Op: OpCubeTo, Pts: [3]vec.Vec2{{X: c1x, Y: c1y}, {X: c2x, Y: c2y}, {X: x, Y: y}}}
}

// Close returns a command which closes the current sub-path.
func Close() Command {
	return Command{Op: OpClose}
}

// End returns the end point of the command.
func (c Command) End() vec.Vec2 {
	n := c.Op.NumPoints()
	if n == 0 {
		return vec.Vec2{}
	}
	return c.Pts[n-1]
}

// NumContours returns the number of sub-paths in the outline.
func NumContours(cmds []Command) int {
	n := 0
	for _, c := range cmds {
		if c.Op == OpMoveTo {
			n++
		}
	}
	return n
}

// HasCubics reports whether the outline uses cubic Bézier curves.
func HasCubics(cmds []Command) bool {
	for _, c := range cmds {
		if c.Op == OpCubeTo {
			return true
		}
	}
	return false
}

// BBox returns the bounding box of all points in the outline, including
// control points.  The result is the zero rectangle for an empty outline.
func BBox(cmds []Command) rect.Rect {
	var bbox rect.Rect
	first := true
	for _, c := range cmds {
		for _, p := range c.Pts[:c.Op.NumPoints()] {
			if first {
				bbox = rect.Rect{LLx: p.X, LLy: p.Y, URx: p.X, URy: p.Y}
				first = false
			} else {
				bbox.ExtendVec(p)
			}
		}
	}
	return bbox
}

// Transform applies the affine transformation M to all points of the
// outline and returns the result as a new slice.
func Transform(cmds []Command, M matrix.Matrix) []Command {
	if len(cmds) == 0 {
		return nil
	}
	res := make([]Command, len(cmds))
	for i, c := range cmds {
		for j := range c.Op.NumPoints() {
			c.Pts[j] = apply(M, c.Pts[j])
		}
		res[i] = c
	}
	return res
}

// Round rounds all coordinates to the nearest integer.
func Round(cmds []Command) []Command {
	if len(cmds) == 0 {
		return nil
	}
	res := make([]Command, len(cmds))
	for i, c := range cmds {
		for j := range c.Op.NumPoints() {
			c.Pts[j] = vec.Vec2{X: math.Round(c.Pts[j].X), Y: math.Round(c.Pts[j].Y)}
		}
		res[i] = c
	}
	return res
}

func apply(M matrix.Matrix, p vec.Vec2) vec.Vec2 {
	return vec.Vec2{
		X: M[0]*p.X + M[2]*p.Y + M[4],
		Y: M[1]*p.X + M[3]*p.Y + M[5],
	}
}

// QuadToCubic converts all quadratic curves in the outline to cubic ones.
func QuadToCubic(cmds []Command) []Command {
	res := make([]Command, 0, len(cmds))
	var cur vec.Vec2
	for _, c := range cmds {
		if c.Op == OpQuadTo {
			q, p := c.Pts[0], c.Pts[1]
			c1 := vec.Vec2{X: cur.X + 2*(q.X-cur.X)/3, Y: cur.Y + 2*(q.Y-cur.Y)/3}
			c2 := vec.Vec2{X: p.X + 2*(q.X-p.X)/3, Y: p.Y + 2*(q.Y-p.Y)/3}
			c = Command{Op: OpCubeTo, Pts: [3]vec.Vec2{c1, c2, p}}
		}
		if c.Op != OpClose {
			cur = c.End()
		}
		res = append(res, c)
	}
	return res
}

// CubicToQuad approximates all cubic curves in the outline by quadratic
// ones.  Each cubic is split at t=1/2 and every half is replaced by a
// single quadratic curve.
func CubicToQuad(cmds []Command) []Command {
	res := make([]Command, 0, len(cmds))
	var cur vec.Vec2
	for _, c := range cmds {
		if c.Op == OpCubeTo {
			p0, p1, p2, p3 := cur, c.Pts[0], c.Pts[1], c.Pts[2]
			m01 := mid(p0, p1)
			m12 := mid(p1, p2)
			m23 := mid(p2, p3)
			a := mid(m01, m12)
			b := mid(m12, m23)
			m := mid(a, b)
			res = append(res,
				Command{Op: OpQuadTo, Pts: [3]vec.Vec2{quadControl(p0, m01, a, m), m}},
				Command{Op: OpQuadTo, Pts: [3]vec.Vec2{quadControl(m, b, m23, p3), p3}})
			cur = p3
			continue
		}
		if c.Op != OpClose {
			cur = c.End()
		}
		res = append(res, c)
	}
	return res
}

// quadControl returns the control point of the quadratic curve which
// best approximates the cubic curve p0, p1, p2, p3.
func quadControl(p0, p1, p2, p3 vec.Vec2) vec.Vec2 {
	return vec.Vec2{
		X: (3*(p1.X+p2.X) - p0.X - p3.X) / 4,
		Y: (3*(p1.Y+p2.Y) - p0.Y - p3.Y) / 4,
	}
}

func mid(a, b vec.Vec2) vec.Vec2 {
	return vec.Vec2{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}
