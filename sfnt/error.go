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
	"strings"

	"seehuhn.de/go/sfnt/header"
	"seehuhn.de/go/sfnt/parser"

	"seehuhn.de/go/fontpick/font"
)

// WrapError converts errors reported by the sfnt library into the error
// types of package font.  Errors which already have one of these types are
// returned unchanged.  All other errors indicate malformed font data.
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	var invalid *font.InvalidFontError
	var unsupported *font.NotSupportedError
	var engine *font.EngineError
	if errors.As(err, &invalid) || errors.As(err, &unsupported) || errors.As(err, &engine) {
		return err
	}

	var libUnsupported *parser.NotSupportedError
	var libInvalid *parser.InvalidFontError
	var missing *header.ErrMissing
	switch {
	case errors.As(err, &libUnsupported):
		return &font.NotSupportedError{
			SubSystem: libUnsupported.SubSystem,
			Feature:   libUnsupported.Feature,
		}
	case errors.As(err, &libInvalid):
		return &font.InvalidFontError{
			SubSystem: libInvalid.SubSystem,
			Reason:    libInvalid.Reason,
		}
	case errors.As(err, &missing):
		return errMissingTable(missing.TableName)
	}
	return &font.InvalidFontError{
		SubSystem: "sfnt",
		Reason:    err.Error(),
	}
}

func errMissingTable(tag string) error {
	return font.Corrupt("sfnt", "missing %q table", strings.TrimSpace(tag))
}
