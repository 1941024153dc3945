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
	"encoding/json"
	"strconv"
	"testing"
	"time"
)

var testNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func withNow(t *testing.T) {
	old := Now
	Now = func() time.Time { return testNow }
	t.Cleanup(func() { Now = old })
}

func TestParse(t *testing.T) {
	withNow(t)

	tests := []struct {
		src string
		exp time.Time
		err bool
	}{
		{"now", testNow, false},
		{"NOW", testNow, false},
		{"15m", testNow.Add(-15 * time.Minute), false},
		{"15m ago", testNow.Add(-15 * time.Minute), false},
		{"2h 30min ago", testNow.Add(-150 * time.Minute), false},
		{"now-1h", testNow.Add(-time.Hour), false},
		{"now+5m", testNow.Add(5 * time.Minute), false},
		{"2024-01-01T00:00:00Z", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), false},
		{"2024-01-01T02:00:00+02:00", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), false},
		{"2024-01-01T00:00:00.5Z", time.Date(2024, 1, 1, 0, 0, 0, 500000000, time.UTC), false},

		{"", time.Time{}, true},
		{"yesterday", time.Time{}, true},
		{"now-", time.Time{}, true},
		{"now-soon", time.Time{}, true},
		{"2024-01-01", time.Time{}, true},
		{"2024-01-01 00:00:00", time.Time{}, true},
	}

	for i, st := range tests {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			got, err := Parse(st.src)
			if (err != nil) != st.err {
				t.Fatalf("%q: err = %v, expected error %v", st.src, err, st.err)
			}
			if err == nil && !got.Equal(st.exp) {
				t.Fatalf("%q: got %v, expected %v", st.src, got, st.exp)
			}
		})
	}
}

func TestExtract(t *testing.T) {
	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		v   interface{}
		exp time.Time
		ok  bool
	}{
		{map[string]interface{}{"timestamp": "2024-01-01T00:00:00Z"}, jan1, true},
		{map[string]interface{}{"ts": 1704067200.0}, jan1, true},
		{map[string]interface{}{"ts": json.Number("1704067200")}, jan1, true},
		{map[string]interface{}{"ts": int64(1704067200)}, jan1, true},
		{map[string]interface{}{"@timestamp": "2024-01-01T01:00:00+01:00"}, jan1, true},
		{map[string]interface{}{"timestamp": "2024-01-01T00:00:00Z", "ts": 0.0}, jan1, true},

		// the first key present decides
		{map[string]interface{}{"timestamp": "garbage", "ts": 1704067200.0}, time.Time{}, false},
		{map[string]interface{}{"ts": 1704067200.5}, time.Time{}, false},
		{map[string]interface{}{"ts": "1704067200"}, time.Time{}, false},
		{map[string]interface{}{"ts": true}, time.Time{}, false},
		{map[string]interface{}{"time": "2024-01-01T00:00:00Z"}, time.Time{}, false},
		{nil, time.Time{}, false},
		{"2024-01-01T00:00:00Z", time.Time{}, false},
	}

	for i, st := range tests {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			got, ok := Extract(st.v)
			if ok != st.ok {
				t.Fatalf("%v: ok = %v, expected %v", st.v, ok, st.ok)
			}
			if ok && !got.Equal(st.exp) {
				t.Fatalf("%v: got %v, expected %v", st.v, got, st.exp)
			}
		})
	}
}
