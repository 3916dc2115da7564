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

package date

import (
	"strings"
	"time"
)

// DefaultFormat is the strftime-style format used by layout.DateTime
// when a graph does not annotate one explicitly: ISO-8601 with
// fractional seconds and an optional timezone offset.
const DefaultFormat = "%Y-%m-%dT%H:%M:%S%.f%z"

// goLayout translates a strftime-style format string (the textual form
// the graph builder and layout JSON use, matching the original Python
// surface's format strings) into a Go reference-time layout.
func goLayout(format string) string {
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 >= len(format) {
			b.WriteByte(c)
			continue
		}
		i++
		switch format[i] {
		case 'Y':
			b.WriteString("2006")
		case 'y':
			b.WriteString("06")
		case 'm':
			b.WriteString("01")
		case 'd':
			b.WriteString("02")
		case 'H':
			b.WriteString("15")
		case 'M':
			b.WriteString("04")
		case 'S':
			b.WriteString("05")
		case 'z':
			b.WriteString("Z07:00")
		case 'Z':
			b.WriteString("MST")
		case '.':
			// %.f is a jyafn extension for fractional seconds, since Go
			// has no single-verb equivalent; emit the fixed six-digit
			// (microsecond) fractional-second layout token, so formatting
			// always prints six digits and parsing requires them.
			if i+1 < len(format) && format[i+1] == 'f' {
				b.WriteString(".000000")
				i++
			} else {
				b.WriteByte('.')
			}
		case '%':
			b.WriteByte('%')
		default:
			b.WriteByte('%')
			b.WriteByte(format[i])
		}
	}
	return b.String()
}

// ParseFormat parses data according to format (a strftime-style format
// string) and returns the associated time and true, or the zero value
// and false on failure.
func ParseFormat(data, format string) (Time, bool) {
	t, err := time.Parse(goLayout(format), strings.TrimSpace(data))
	if err != nil {
		return Time{}, false
	}
	return FromTime(t), true
}

// FormatString renders t according to format (a strftime-style format
// string).
func FormatString(t Time, format string) string {
	return t.Time().Format(goLayout(format))
}
