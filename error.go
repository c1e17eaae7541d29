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
	"errors"

	"seehuhn.de/go/fontpick/internal/acquire"
)

// AcquisitionError is returned when the data of a font cannot be loaded
// from a file or URL.
type AcquisitionError = acquire.Error

// IsAcquisitionError returns true if the error is an AcquisitionError.
func IsAcquisitionError(err error) bool {
	var e *AcquisitionError
	return errors.As(err, &e)
}
