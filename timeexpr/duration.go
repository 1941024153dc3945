// Copyright 2016 Qubit Digital Ltd.
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package timeexpr

import (
	"math"
	"time"
	"unicode"

	"github.com/pkg/errors"
)

const (
	day   = 24 * time.Hour
	week  = 7 * day
	month = 2630016 * time.Second  // 30.44 days
	year  = 31557600 * time.Second // 365.25 days
)

var units = map[string]time.Duration{
	"nanos": time.Nanosecond, "nsec": time.Nanosecond, "ns": time.Nanosecond,
	"usec": time.Microsecond, "us": time.Microsecond,
	"millis": time.Millisecond, "msec": time.Millisecond, "ms": time.Millisecond,
	"seconds": time.Second, "second": time.Second, "secs": time.Second, "sec": time.Second, "s": time.Second,
	"minutes": time.Minute, "minute": time.Minute, "mins": time.Minute, "min": time.Minute, "m": time.Minute,
	"hours": time.Hour, "hour": time.Hour, "hrs": time.Hour, "hr": time.Hour, "h": time.Hour,
	"days": day, "day": day, "d": day,
	"weeks": week, "week": week, "w": week,
	"months": month, "month": month, "M": month,
	"years": year, "year": year, "y": year,
}

// ParseDuration reads a human readable duration made of one or more
// <number><unit> groups, like "90s", "1h30m" or "2 days 4 hours". Units are
// case sensitive, m is minutes and M is months.
func ParseDuration(s string) (time.Duration, error) {
	rs := []rune(s)
	i := skipSpace(rs, 0)
	if i == len(rs) {
		return 0, errors.New("empty duration")
	}

	var total time.Duration
	for i < len(rs) {
		if !isDigit(rs[i]) {
			return 0, errors.Errorf("expected number at offset %d in %q", i, s)
		}

		var n uint64
		for ; i < len(rs) && (isDigit(rs[i]) || unicode.IsSpace(rs[i])); i++ {
			if unicode.IsSpace(rs[i]) {
				continue
			}
			if n > (math.MaxUint64-9)/10 {
				return 0, errors.Errorf("number too large in %q", s)
			}
			n = n*10 + uint64(rs[i]-'0')
		}

		start := i
		for ; i < len(rs) && isLetter(rs[i]); i++ {
		}
		if start == i {
			if i < len(rs) {
				return 0, errors.Errorf("invalid character %q in %q", rs[i], s)
			}
			return 0, errors.Errorf("missing unit in %q", s)
		}

		unit, ok := units[string(rs[start:i])]
		if !ok {
			return 0, errors.Errorf("unknown unit %q in %q", string(rs[start:i]), s)
		}
		if n > uint64(math.MaxInt64/int64(unit)) {
			return 0, errors.Errorf("duration %q is too long", s)
		}
		d := time.Duration(n) * unit
		if total > math.MaxInt64-d {
			return 0, errors.Errorf("duration %q is too long", s)
		}
		total += d

		if i < len(rs) && !isDigit(rs[i]) && !unicode.IsSpace(rs[i]) {
			return 0, errors.Errorf("invalid character %q in %q", rs[i], s)
		}
		i = skipSpace(rs, i)
	}

	return total, nil
}

func skipSpace(rs []rune, i int) int {
	for i < len(rs) && unicode.IsSpace(rs[i]) {
		i++
	}
	return i
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

func isLetter(r rune) bool {
	return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
}
