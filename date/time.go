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

// Package date implements the timestamp representation backing the
// graph's datetime primitive and the layout.DateTime encoding: a signed
// count of microseconds since the Unix epoch. Time is kept as a packed
// calendar representation internally so that the field-extractor graph
// operations (year, month, day, ...) are cheap, since those are the
// operations a compiled function actually executes at call time; the
// microsecond conversion used for the wire encoding is comparatively
// rare and can afford to go through time.Time.
package date

import (
	"errors"
	"fmt"
	"time"
)

// A Time represents a date and time with a microsecond component. This
// representation cannot store years outside [0, 16383]; years falling
// outside that range are truncated to fit.
type Time struct {
	ts uint64
	us uint32
}

// Parse parses data using the default format (ISO-8601 with fractional
// seconds and an optional timezone offset) and returns the associated
// time and true, or the zero time value and false on failure. This is
// the format jyafn's layout.DateTime uses when no explicit format string
// is given.
func Parse(data []byte) (Time, bool) {
	return ParseFormat(string(data), DefaultFormat)
}

// Date constructs a Time from components, normalizing out-of-range
// month/day/hour/min/sec/us values the way time.Date does.
func Date(year, month, day, hour, min, sec, us int) Time {
	sec, us = norm(sec, us, 1e6)
	min, sec = norm(min, sec, 60)
	hour, min = norm(hour, min, 60)
	day, hour = norm(day, hour, 24)
	year, month, day = normdate(year, month, day)
	return date(year, month, day, hour, min, sec, us)
}

func date(year, month, day, hour, min, sec, us int) Time {
	if year < 0 {
		year = 0
	} else if year > (1<<14)-1 {
		year = (1 << 14) - 1
	}
	ts := (uint64(year) & 0xffff << 40) |
		(uint64(month-1) & 0xff << 32) |
		(uint64(day-1) & 0xff << 24) |
		(uint64(hour) & 0xff << 16) |
		(uint64(min) & 0xff << 8) |
		(uint64(sec) & 0xff)
	return Time{ts: ts, us: uint32(us)}
}

// FromTime returns a Time equivalent to t (converted to UTC first).
func FromTime(t time.Time) Time {
	t = t.UTC()
	year, month, day := t.Year(), int(t.Month()), t.Day()
	hour, min, sec := t.Hour(), t.Minute(), t.Second()
	us := t.Nanosecond() / 1000
	return date(year, month, day, hour, min, sec, us)
}

// Now returns the current time.
func Now() Time {
	return FromTime(time.Now())
}

// Unix returns a Time from a count of seconds and nanoseconds since
// the Unix epoch.
func Unix(sec, ns int64) Time {
	return FromTime(time.Unix(sec, ns))
}

// UnixMicro returns a Time from a count of microseconds since the Unix
// epoch. This is the inverse of Time.UnixMicro and is the constructor
// used when decoding a layout.DateTime word off the wire.
func UnixMicro(us int64) Time {
	return FromTime(time.UnixMicro(us))
}

// Time returns t as a time.Time in UTC.
func (t Time) Time() time.Time {
	year, month, day := t.Year(), time.Month(t.Month()), t.Day()
	hour, min, sec := t.Hour(), t.Minute(), t.Second()
	return time.Date(year, month, day, hour, min, sec, int(t.us)*1000, time.UTC)
}

// Year returns the year component of t.
func (t Time) Year() int { return int(t.ts & 0xffff0000000000 >> 40) }

// Month returns the month component of t, in [1,12].
func (t Time) Month() int { return int(t.ts&0xff00000000>>32) + 1 }

// Day returns the day-of-month component of t.
func (t Time) Day() int { return int(t.ts&0xff000000>>24) + 1 }

// Hour returns the hour component of t, in [0,23].
func (t Time) Hour() int { return int(t.ts & 0xff0000 >> 16) }

// Minute returns the minute component of t.
func (t Time) Minute() int { return int(t.ts & 0xff00 >> 8) }

// Second returns the second component of t.
func (t Time) Second() int { return int(t.ts & 0xff) }

// Microsecond returns the sub-second microsecond component of t.
func (t Time) Microsecond() int { return int(t.us) }

// Unix returns t as a count of seconds since the Unix epoch.
func (t Time) Unix() int64 { return t.Time().Unix() }

// UnixMicro returns t as a count of microseconds since the Unix epoch.
// This is the value stored in a layout.DateTime word.
func (t Time) UnixMicro() int64 { return t.Time().UnixMicro() }

// Equal returns whether t == t2.
func (t Time) Equal(t2 Time) bool { return t == t2 }

// Before returns whether t is before t2.
func (t Time) Before(t2 Time) bool {
	return t.ts < t2.ts || (t.ts == t2.ts && t.us < t2.us)
}

// After returns whether t is after t2.
func (t Time) After(t2 Time) bool {
	return t.ts > t2.ts || (t.ts == t2.ts && t.us > t2.us)
}

// IsZero returns whether t is the zero value (midnight, January 1,
// year zero).
func (t Time) IsZero() bool { return t == Time{} }

// AppendRFC3339Micro appends t formatted as an RFC3339 string with
// microsecond precision to b.
func (t Time) AppendRFC3339Micro(b []byte) []byte {
	return t.Time().AppendFormat(b, "2006-01-02T15:04:05.000000Z07:00")
}

// Add adds d to t.
func (t Time) Add(d time.Duration) Time { return FromTime(t.Time().Add(d)) }

// String implements fmt.Stringer for debugging.
func (t Time) String() string {
	y, mo, d := t.Year(), t.Month(), t.Day()
	h, mi, s := t.Hour(), t.Minute(), t.Second()
	if t.us == 0 {
		return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d +0000 UTC", y, mo, d, h, mi, s)
	}
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d.%06d +0000 UTC", y, mo, d, h, mi, s, t.us)
}

// MarshalJSON implements json.Marshaler.
func (t Time) MarshalJSON() ([]byte, error) {
	b := make([]byte, 0, 40)
	b = append(b, '"')
	b = t.AppendRFC3339Micro(b)
	b = append(b, '"')
	return b, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Time) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	if len(b) < 2 || b[0] != '"' {
		return errors.New("date.UnmarshalJSON: expected a string")
	}
	var ok bool
	*t, ok = Parse(b[1 : len(b)-1])
	if !ok {
		return errors.New("date.UnmarshalJSON: failed to parse")
	}
	return nil
}

func isleap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func norm(hi, lo, base int) (nhi, nlo int) {
	if lo < 0 {
		n := (-lo-1)/base + 1
		hi -= n
		lo += n * base
	}
	if lo >= base {
		n := lo / base
		hi += n
		lo -= n * base
	}
	return hi, lo
}

var monthdays = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

func daysin(y, m int) int {
	d := monthdays[m-1]
	if m == 2 && isleap(y) {
		d++
	}
	return d
}

func normdate(y, m, d int) (year, month, day int) {
	y, m = norm(y, m-1, 12)
	m++
	md := daysin(y, m)
	if d >= 1 && d <= md {
		return y, m, d
	}
	for d < 1 {
		if m--; m < 1 {
			y, m = y-1, 12
		}
		md = daysin(y, m)
		d += md
	}
	for ; d > md; md = daysin(y, m) {
		d -= md
		if m++; m > 12 {
			y, m = y+1, 1
		}
	}
	return y, m, d
}
