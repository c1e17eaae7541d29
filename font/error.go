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

// InvalidFontError indicates a problem with font data.
type InvalidFontError struct {
	SubSystem string
	Reason    string
}

func (err *InvalidFontError) Error() string {
	return err.SubSystem + ": " + err.Reason
}

// NotSupportedError indicates that a font or a font format is recognised,
// but uses a feature which is not supported by this library.
type NotSupportedError struct {
	SubSystem string
	Feature   string
}

func (err *NotSupportedError) Error() string {
	return err.SubSystem + ": " + err.Feature + " not supported"
}

// IncompatibleFormatsError is returned when two fonts, or a font and an
// output format, cannot be combined.
type IncompatibleFormatsError struct {
	A, B   string
	Reason string
}

func (err *IncompatibleFormatsError) Error() string {
	msg := fmt.Sprintf("incompatible formats %s and %s", err.A, err.B)
	if err.Reason != "" {
		msg += " (" + err.Reason + ")"
	}
	return msg
}

// EngineError indicates a violated invariant inside the subsetting and
// merging code.  This always points to a bug.
type EngineError struct {
	Op  string
	Err error
}

func (err *EngineError) Error() string {
	return "internal error in " + err.Op + ": " + err.Err.Error()
}

func (err *EngineError) Unwrap() error {
	return err.Err
}

// IsUnsupported returns true if the error is a NotSupportedError.
func IsUnsupported(err error) bool {
	var e *NotSupportedError
	return errors.As(err, &e)
}

// IsCorrupt returns true if the error is an InvalidFontError.
func IsCorrupt(err error) bool {
	var e *InvalidFontError
	return errors.As(err, &e)
}

// IsIncompatible returns true if the error is an IncompatibleFormatsError.
func IsIncompatible(err error) bool {
	var e *IncompatibleFormatsError
	return errors.As(err, &e)
}

// IsEngineFailure returns true if the error is an EngineError.
func IsEngineFailure(err error) bool {
	var e *EngineError
	return errors.As(err, &e)
}

// Corrupt returns an InvalidFontError for the given subsystem.
func Corrupt(subSystem, format string, a ...any) error {
	return &InvalidFontError{
		SubSystem: subSystem,
		Reason:    fmt.Sprintf(format, a...),
	}
}
