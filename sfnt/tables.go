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
	"bytes"
	"slices"

	"seehuhn.de/go/sfnt/header"

	"seehuhn.de/go/fontpick/font"
)

// ReadTables splits an sfnt file into its tables, indexed by tag.
// The table data is copied, the result does not alias data.
func ReadTables(data []byte) (uint32, map[string][]byte, error) {
	r := bytes.NewReader(data)
	dir, err := header.Read(r)
	if err != nil {
		return 0, nil, WrapError(err)
	}
	tables := make(map[string][]byte, len(dir.Toc))
	for tag := range dir.Toc {
		body, err := dir.ReadTableBytes(r, tag)
		if err != nil {
			return 0, nil, WrapError(err)
		}
		tables[tag] = body
	}
	return dir.ScalerType, tables, nil
}

// Assemble builds an sfnt file from the given tables.  The scaler type is
// chosen by the outline table present.  Entries with nil data are skipped.
// The map is not modified.
func Assemble(tables map[string][]byte) ([]byte, error) {
	body := make(map[string][]byte, len(tables))
	for tag, data := range tables {
		if data != nil && len(tag) == 4 {
			body[tag] = data
		}
	}
	if len(body) == 0 {
		return nil, font.Corrupt("sfnt", "no tables")
	}
	if head, ok := body["head"]; ok {
		if len(head) < 12 {
			return nil, font.Corrupt("sfnt", "head table too short")
		}
		// the checksum is patched in place
		body["head"] = slices.Clone(head)
	}

	scalerType := header.ScalerTypeTrueType
	if body["CFF "] != nil || body["CFF2"] != nil {
		scalerType = header.ScalerTypeCFF
	}
	buf := &bytes.Buffer{}
	if _, err := header.Write(buf, scalerType, body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
