// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package graph

import (
	"github.com/viodotcom/jyafn/layout"
)

// FromTimestamp converts a scalar count of seconds since the Unix
// epoch into a datetime reference.
func (r Ref) FromTimestamp() (Ref, error) {
	if err := requireScalar(OpFromTimestamp, r); err != nil {
		return Ref{}, err
	}
	return unop(r, OpFromTimestamp, PrimDateTime)
}

// Timestamp converts a datetime reference back to a scalar count of
// seconds since the Unix epoch.
func (r Ref) Timestamp() (Ref, error) {
	if err := requireDateTime(OpTimestamp, r); err != nil {
		return Ref{}, err
	}
	return unop(r, OpTimestamp, PrimScalar)
}

func dtField(r Ref, op Op) (Ref, error) {
	if err := requireDateTime(op, r); err != nil {
		return Ref{}, err
	}
	return unop(r, op, PrimScalar)
}

func (r Ref) Year() (Ref, error)        { return dtField(r, OpDTYear) }
func (r Ref) Month() (Ref, error)       { return dtField(r, OpDTMonth) }
func (r Ref) Day() (Ref, error)         { return dtField(r, OpDTDay) }
func (r Ref) Hour() (Ref, error)        { return dtField(r, OpDTHour) }
func (r Ref) Minute() (Ref, error)      { return dtField(r, OpDTMinute) }
func (r Ref) Second() (Ref, error)      { return dtField(r, OpDTSecond) }
func (r Ref) Microsecond() (Ref, error) { return dtField(r, OpDTMicrosecond) }

// Parse lowers a symbol reference into a datetime reference by parsing
// it against format at call time (spec.md §4.1's parse(symbol, format)).
// An empty format means layout.DateTimeDefaultFormat.
func (r Ref) Parse(format string) (Ref, error) {
	if err := requireSymbol(OpParseDT, r); err != nil {
		return Ref{}, err
	}
	if format == "" {
		format = layout.DateTimeDefaultFormat
	}
	return r.g.push(OpParseDT, PrimDateTime, format, r.idx)
}

// Format lowers a datetime reference into a symbol reference by
// rendering it against format at call time. An empty format means
// layout.DateTimeDefaultFormat.
func (r Ref) Format(format string) (Ref, error) {
	if err := requireDateTime(OpFormatDT, r); err != nil {
		return Ref{}, err
	}
	if format == "" {
		format = layout.DateTimeDefaultFormat
	}
	return r.g.push(OpFormatDT, PrimSymbol, format, r.idx)
}
