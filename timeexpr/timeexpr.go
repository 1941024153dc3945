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

// Package timeexpr interprets the time expressions used in queries and
// finds the time of a parsed log line.
package timeexpr

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Now is the clock relative times are measured from.
var Now = time.Now

// Keys are the fields probed, in order, for a line's timestamp.
var Keys = []string{"timestamp", "ts", "@timestamp"}

// IsKey reports whether field is one of the timestamp Keys.
func IsKey(field string) bool {
	for _, k := range Keys {
		if k == field {
			return true
		}
	}
	return false
}

// Parse interprets s as an instant. s can be "now", a relative duration
// such as "15m", "2h 30min ago", "now-1h" or "now+5m", or an RFC3339 time.
func Parse(s string) (time.Time, error) {
	if strings.EqualFold(s, "now") {
		return Now(), nil
	}

	switch {
	case strings.HasPrefix(s, "now-"):
		d, err := ParseDuration(s[4:])
		if err == nil {
			return Now().Add(-1 * d), nil
		}
	case strings.HasPrefix(s, "now+"):
		d, err := ParseDuration(s[4:])
		if err == nil {
			return Now().Add(d), nil
		}
	}

	if d, err := ParseDuration(strings.TrimSuffix(s, " ago")); err == nil {
		return Now().Add(-1 * d), nil
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}

	return time.Time{}, errors.Errorf("could not parse time string: %s", s)
}

// Extract finds the timestamp of a parsed line. The first of Keys present
// decides, it must hold an RFC3339 string or a whole number of Unix
// seconds. A present but unreadable key does not fall through to the next
// one.
func Extract(v interface{}) (time.Time, bool) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return time.Time{}, false
	}

	for _, k := range Keys {
		tv, ok := m[k]
		if !ok {
			continue
		}
		if s, ok := tv.(string); ok {
			t, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return time.Time{}, false
			}
			return t.UTC(), true
		}
		if secs, ok := unixSeconds(tv); ok {
			return time.Unix(secs, 0).UTC(), true
		}
		return time.Time{}, false
	}

	return time.Time{}, false
}

func unixSeconds(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case float64:
		if n != math.Trunc(n) || n > math.MaxInt64 || n < math.MinInt64 {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}
