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

// Package codepoint converts text into the set of code points which must
// be present in a font to render the text.
package codepoint

import (
	"slices"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/exp/maps"
)

// Set is a set of Unicode scalar values.
type Set map[rune]struct{}

// Extract returns the set of code points used in text.  White space, as
// defined by [IsSpace], is ignored and every code point is included only once.  Text is processed
// by Unicode scalar value, so that characters outside the Basic
// Multilingual Plane are counted as a single code point.  Invalid UTF-8
// sequences are skipped.
func Extract(text string) Set {
	res := make(Set)
	for i, r := range text {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(text[i:]); size <= 1 {
				continue
			}
		}
		res.add(r)
	}
	return res
}

// ExtractUTF16 is like Extract, but takes UTF-16 code units as input.
// Surrogate pairs are combined into a single code point, unpaired
// surrogates are skipped.
func ExtractUTF16(units []uint16) Set {
	res := make(Set)
	for i := 0; i < len(units); i++ {
		r := rune(units[i])
		if utf16.IsSurrogate(r) {
			if i+1 >= len(units) {
				continue
			}
			r = utf16.DecodeRune(r, rune(units[i+1]))
			if r == unicode.ReplacementChar {
				continue
			}
			i++
		}
		res.add(r)
	}
	return res
}

// Of returns a set containing the given code points.
func Of(rr ...rune) Set {
	res := make(Set, len(rr))
	for _, r := range rr {
		res[r] = struct{}{}
	}
	return res
}

func (s Set) add(r rune) {
	if IsSpace(r) || !utf8.ValidRune(r) {
		return
	}
	s[r] = struct{}{}
}

// IsSpace reports whether r is white space in the sense of the "\s"
// class of JavaScript regular expressions: the space separators (Zs),
// the ASCII controls tab to carriage return, the line and paragraph
// separators and the byte order mark U+FEFF.  Unlike [unicode.IsSpace],
// NEL (U+0085) is not white space.
func IsSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', '\u2028', '\u2029', '\uFEFF':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

// Contains reports whether r is in the set.
func (s Set) Contains(r rune) bool {
	_, ok := s[r]
	return ok
}

// Len returns the number of code points in the set.
func (s Set) Len() int {
	return len(s)
}

// Sorted returns the elements of the set in increasing order.
func (s Set) Sorted() []rune {
	res := maps.Keys(s)
	slices.Sort(res)
	return res
}

// Without returns a new set with all code points of s which are not in
// other.
func (s Set) Without(other func(rune) bool) Set {
	res := make(Set, len(s))
	for r := range s {
		if !other(r) {
			res[r] = struct{}{}
		}
	}
	return res
}

// String returns the code points of the set, in increasing order, as a
// string.
func (s Set) String() string {
	return string(s.Sorted())
}
