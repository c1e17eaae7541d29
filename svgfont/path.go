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

package svgfont

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/fontpick/font"
)

// parsePath converts SVG path data into outline commands.  Arcs are
// approximated by cubic Bézier curves.  Open subpaths are closed.
func parsePath(d string) ([]font.Command, error) {
	s := &pathScanner{data: d}
	var res []font.Command

	var cur, start vec.Vec2
	var lastCubic, lastQuad *vec.Vec2
	open := false
	var cmd byte

	closePath := func() {
		if open {
			res = append(res, font.Close())
			open = false
		}
		cur = start
	}
	ensureOpen := func() {
		if !open {
			res = append(res, font.MoveTo(start.X, start.Y))
			open = true
		}
	}

	for {
		s.skipSpace()
		if s.done() {
			break
		}
		if c := s.peek(); isCommand(c) {
			cmd = c
			s.pos++
		} else if cmd == 0 {
			return nil, s.errorf("path must start with a command")
		} else if cmd == 'Z' || cmd == 'z' {
			return nil, s.errorf("unexpected number after closepath")
		}
		rel := cmd >= 'a'

		point := func() (vec.Vec2, error) {
			x, err := s.number()
			if err != nil {
				return vec.Vec2{}, err
			}
			y, err := s.number()
			if err != nil {
				return vec.Vec2{}, err
			}
			p := vec.Vec2{X: x, Y: y}
			if rel {
				p = p.Add(cur)
			}
			return p, nil
		}

		var nextCubic, nextQuad *vec.Vec2
		switch cmd {
		case 'M', 'm':
			p, err := point()
			if err != nil {
				return nil, err
			}
			if open {
				res = append(res, font.Close())
			}
			res = append(res, font.MoveTo(p.X, p.Y))
			open = true
			cur, start = p, p
			// further coordinate pairs are implicit lineto commands
			if rel {
				cmd = 'l'
			} else {
				cmd = 'L'
			}
		case 'L', 'l':
			p, err := point()
			if err != nil {
				return nil, err
			}
			ensureOpen()
			res = append(res, font.LineTo(p.X, p.Y))
			cur = p
		case 'H', 'h':
			x, err := s.number()
			if err != nil {
				return nil, err
			}
			if rel {
				x += cur.X
			}
			ensureOpen()
			cur = vec.Vec2{X: x, Y: cur.Y}
			res = append(res, font.LineTo(cur.X, cur.Y))
		case 'V', 'v':
			y, err := s.number()
			if err != nil {
				return nil, err
			}
			if rel {
				y += cur.Y
			}
			ensureOpen()
			cur = vec.Vec2{X: cur.X, Y: y}
			res = append(res, font.LineTo(cur.X, cur.Y))
		case 'C', 'c', 'S', 's':
			var c1 vec.Vec2
			if cmd == 'C' || cmd == 'c' {
				var err error
				c1, err = point()
				if err != nil {
					return nil, err
				}
			} else {
				c1 = reflect(cur, lastCubic)
			}
			c2, err := point()
			if err != nil {
				return nil, err
			}
			p, err := point()
			if err != nil {
				return nil, err
			}
			ensureOpen()
			res = append(res, font.CubeTo(c1.X, c1.Y, c2.X, c2.Y, p.X, p.Y))
			cur = p
			nextCubic = &c2
		case 'Q', 'q', 'T', 't':
			var c vec.Vec2
			if cmd == 'Q' || cmd == 'q' {
				var err error
				c, err = point()
				if err != nil {
					return nil, err
				}
			} else {
				c = reflect(cur, lastQuad)
			}
			p, err := point()
			if err != nil {
				return nil, err
			}
			ensureOpen()
			res = append(res, font.QuadTo(c.X, c.Y, p.X, p.Y))
			cur = p
			nextQuad = &c
		case 'A', 'a':
			rx, err := s.number()
			if err != nil {
				return nil, err
			}
			ry, err := s.number()
			if err != nil {
				return nil, err
			}
			phi, err := s.number()
			if err != nil {
				return nil, err
			}
			large, err := s.flag()
			if err != nil {
				return nil, err
			}
			sweep, err := s.flag()
			if err != nil {
				return nil, err
			}
			p, err := point()
			if err != nil {
				return nil, err
			}
			ensureOpen()
			res = append(res, arcToCubics(cur, rx, ry, phi, large, sweep, p)...)
			cur = p
		case 'Z', 'z':
			closePath()
		}
		lastCubic, lastQuad = nextCubic, nextQuad
	}
	if open {
		res = append(res, font.Close())
	}
	return res, nil
}

func isCommand(c byte) bool {
	return strings.IndexByte("MmLlHhVvCcSsQqTtAaZz", c) >= 0
}

// reflect returns the reflection of the control point ctrl about p.  If
// there is no previous control point, p itself is used.
func reflect(p vec.Vec2, ctrl *vec.Vec2) vec.Vec2 {
	if ctrl == nil {
		return p
	}
	return vec.Vec2{X: 2*p.X - ctrl.X, Y: 2*p.Y - ctrl.Y}
}

// arcToCubics approximates an elliptical arc, given in SVG endpoint
// parameterization, by cubic Bézier curves.  Each curve spans at most
// 90 degrees.
//
// https://www.w3.org/TR/SVG11/implnote.html#ArcImplementationNotes
func arcToCubics(p1 vec.Vec2, rx, ry, phiDeg float64, large, sweep bool, p2 vec.Vec2) []font.Command {
	if p1 == p2 {
		return nil
	}
	rx, ry = math.Abs(rx), math.Abs(ry)
	if rx == 0 || ry == 0 {
		return []font.Command{font.LineTo(p2.X, p2.Y)}
	}

	sinPhi, cosPhi := math.Sincos(phiDeg * math.Pi / 180)
	dx := (p1.X - p2.X) / 2
	dy := (p1.Y - p2.Y) / 2
	x1p := cosPhi*dx + sinPhi*dy
	y1p := -sinPhi*dx + cosPhi*dy

	if lambda := x1p*x1p/(rx*rx) + y1p*y1p/(ry*ry); lambda > 1 {
		scale := math.Sqrt(lambda)
		rx *= scale
		ry *= scale
	}

	num := rx*rx*ry*ry - rx*rx*y1p*y1p - ry*ry*x1p*x1p
	den := rx*rx*y1p*y1p + ry*ry*x1p*x1p
	coef := math.Sqrt(max(0, num/den))
	if large == sweep {
		coef = -coef
	}
	cxp := coef * rx * y1p / ry
	cyp := -coef * ry * x1p / rx
	cx := cosPhi*cxp - sinPhi*cyp + (p1.X+p2.X)/2
	cy := sinPhi*cxp + cosPhi*cyp + (p1.Y+p2.Y)/2

	theta1 := angle(1, 0, (x1p-cxp)/rx, (y1p-cyp)/ry)
	dTheta := angle((x1p-cxp)/rx, (y1p-cyp)/ry, (-x1p-cxp)/rx, (-y1p-cyp)/ry)
	if !sweep && dTheta > 0 {
		dTheta -= 2 * math.Pi
	} else if sweep && dTheta < 0 {
		dTheta += 2 * math.Pi
	}

	n := int(math.Ceil(math.Abs(dTheta)/(math.Pi/2) - 1e-9))
	n = max(n, 1)
	delta := dTheta / float64(n)
	t := 4.0 / 3.0 * math.Tan(delta/4)

	toUser := func(ux, uy float64) vec.Vec2 {
		return vec.Vec2{
			X: cx + rx*cosPhi*ux - ry*sinPhi*uy,
			Y: cy + rx*sinPhi*ux + ry*cosPhi*uy,
		}
	}

	res := make([]font.Command, 0, n)
	a := theta1
	for i := range n {
		b := a + delta
		sinA, cosA := math.Sincos(a)
		sinB, cosB := math.Sincos(b)
		c1 := toUser(cosA-t*sinA, sinA+t*cosA)
		c2 := toUser(cosB+t*sinB, sinB-t*cosB)
		end := toUser(cosB, sinB)
		if i == n-1 {
			end = p2
		}
		res = append(res, font.CubeTo(c1.X, c1.Y, c2.X, c2.Y, end.X, end.Y))
		a = b
	}
	return res
}

// angle returns the signed angle from vector (ux, uy) to vector (vx, vy).
func angle(ux, uy, vx, vy float64) float64 {
	return math.Atan2(ux*vy-uy*vx, ux*vx+uy*vy)
}

type pathScanner struct {
	data string
	pos  int
}

func (s *pathScanner) done() bool {
	return s.pos >= len(s.data)
}

func (s *pathScanner) peek() byte {
	return s.data[s.pos]
}

func (s *pathScanner) skipSpace() {
	for !s.done() {
		switch s.peek() {
		case ' ', '\t', '\n', '\r', '\f', ',':
			s.pos++
		default:
			return
		}
	}
}

func (s *pathScanner) number() (float64, error) {
	s.skipSpace()
	start := s.pos
	if !s.done() && (s.peek() == '+' || s.peek() == '-') {
		s.pos++
	}
	digits := s.digits()
	if !s.done() && s.peek() == '.' {
		s.pos++
		digits += s.digits()
	}
	if digits == 0 {
		s.pos = start
		return 0, s.errorf("number expected")
	}
	if !s.done() && (s.peek() == 'e' || s.peek() == 'E') {
		mark := s.pos
		s.pos++
		if !s.done() && (s.peek() == '+' || s.peek() == '-') {
			s.pos++
		}
		if s.digits() == 0 {
			s.pos = mark
		}
	}
	x, err := strconv.ParseFloat(s.data[start:s.pos], 64)
	if err != nil {
		return 0, s.errorf("invalid number %q", s.data[start:s.pos])
	}
	return x, nil
}

func (s *pathScanner) digits() int {
	n := 0
	for !s.done() && s.peek() >= '0' && s.peek() <= '9' {
		s.pos++
		n++
	}
	return n
}

// flag reads an arc flag.  Flags are single characters and need not be
// separated from the following number.
func (s *pathScanner) flag() (bool, error) {
	s.skipSpace()
	if s.done() {
		return false, s.errorf("flag expected")
	}
	switch s.peek() {
	case '0':
		s.pos++
		return false, nil
	case '1':
		s.pos++
		return true, nil
	}
	return false, s.errorf("flag expected")
}

func (s *pathScanner) errorf(format string, a ...any) error {
	return fmt.Errorf("path data, offset %d: %s", s.pos, fmt.Sprintf(format, a...))
}

// formatPath converts outline commands into SVG path data.
func formatPath(cmds []font.Command) string {
	b := &strings.Builder{}
	for _, c := range cmds {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		switch c.Op {
		case font.OpMoveTo:
			b.WriteByte('M')
		case font.OpLineTo:
			b.WriteByte('L')
		case font.OpQuadTo:
			b.WriteByte('Q')
		case font.OpCubeTo:
			b.WriteByte('C')
		case font.OpClose:
			b.WriteByte('Z')
		}
		for i, p := range c.Pts[:c.Op.NumPoints()] {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(formatNumber(p.X))
			b.WriteByte(' ')
			b.WriteString(formatNumber(p.Y))
		}
	}
	return b.String()
}

func formatNumber(x float64) string {
	if x == 0 {
		// avoid "-0"
		return "0"
	}
	return strconv.FormatFloat(x, 'f', -1, 64)
}
