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

package ql

import (
	"strconv"
	"testing"
	"time"

	"github.com/Caelrith/loglens-core/timeexpr"
	"github.com/pkg/errors"
)

var (
	statusOK = map[string]interface{}{
		"status": 200.0,
		"msg":    "ok",
	}
	statusOKLine = "status=200 msg=ok"
)

func TestQuery_Matches(t *testing.T) {
	tests := []struct {
		q        string
		v        interface{}
		raw      string
		compiles bool
		res      bool
	}{
		{"status==200", statusOK, statusOKLine, true, true},
		{"status>=300", statusOK, statusOKLine, true, false},
		{`text contains "ok,status"`, statusOK, statusOKLine, true, true},
		{`text contains "ok,missing"`, statusOK, statusOKLine, true, false},
		{"missing exists", statusOK, statusOKLine, true, false},
		{"missing !exists", statusOK, statusOKLine, true, true},
		{"status exists", statusOK, statusOKLine, true, true},

		// plain substring queries
		{"", statusOK, statusOKLine, true, true},
		{"   ", statusOK, statusOKLine, true, true},
		{"MSG=OK", statusOK, statusOKLine, true, true},
		{"!msg=ok", statusOK, statusOKLine, true, false},
		{"!panic", statusOK, statusOKLine, true, true},
		{"panic", statusOK, statusOKLine, true, false},
		{"timeout", nil, "request Timeout after 5s", true, true},
		{`"timeout"`, nil, "request timeout after 5s", true, false},
		{`"timeout"`, nil, `error="timeout"`, true, true},

		// OR and AND
		{"status==404 || msg==ok", statusOK, statusOKLine, true, true},
		{"status==404 OR msg==ok", statusOK, statusOKLine, true, true},
		{"status==404 or msg==ok", statusOK, statusOKLine, true, true},
		{"status==200 && msg==fail", statusOK, statusOKLine, true, false},
		{"status==200 AND msg==ok", statusOK, statusOKLine, true, true},
		{"status==200 and msg==ok", statusOK, statusOKLine, true, true},
		{"status==200 &&&& msg==ok", statusOK, statusOKLine, true, true},
		{"status==404 |||| msg==ok", statusOK, statusOKLine, true, true},
		{"status==404 && msg==ok || status==200 && msg==ok", statusOK, statusOKLine, true, true},

		// absent fields
		{`missing != "x"`, statusOK, statusOKLine, true, true},
		{`missing isnot "x"`, statusOK, statusOKLine, true, true},
		{`missing == "x"`, statusOK, statusOKLine, true, false},
		{`absent > 1`, statusOK, statusOKLine, true, false},
		{`missing !contains x`, statusOK, statusOKLine, true, false},
		{`missing !between 1..2`, statusOK, statusOKLine, true, false},

		// num()
		{`num(count) == 5`, map[string]interface{}{"count": "5"}, "", true, true},
		{`num(count) > 4.5`, map[string]interface{}{"count": "5"}, "", true, true},
		{`num(name) == 1`, map[string]interface{}{"name": "bob"}, "", true, false},
		{`num(flag) == 1`, map[string]interface{}{"flag": true}, "", true, false},
		{`num(count) exists`, map[string]interface{}{"count": "5"}, "", true, true},
		{`num(count) between 1..10`, map[string]interface{}{"count": "5"}, "", true, true},

		// case folding
		{`level ~= ERROR`, map[string]interface{}{"level": "error"}, "", true, true},
		{`level !~= ERROR`, map[string]interface{}{"level": "error"}, "", true, false},
		{`level == ERROR`, map[string]interface{}{"level": "error"}, "", true, false},
		{`level is "error"`, map[string]interface{}{"level": "error"}, "", true, true},
		{`level isnot 'error'`, map[string]interface{}{"level": "error"}, "", true, false},

		// contains on fields
		{`msg contains "time"`, map[string]interface{}{"msg": "request timeout"}, "", true, true},
		{`msg contains "TIME"`, map[string]interface{}{"msg": "request timeout"}, "", true, false},
		{`msg !contains "time"`, map[string]interface{}{"msg": "request timeout"}, "", true, false},
		{`code contains 5`, map[string]interface{}{"code": 500.0}, "", true, false},
		{`code !contains 5`, map[string]interface{}{"code": 500.0}, "", true, true},

		// between on fields
		{`latency between 10..100`, map[string]interface{}{"latency": 45.0}, "", true, true},
		{`latency between 100..10`, map[string]interface{}{"latency": 45.0}, "", true, true},
		{`latency !between 100..10`, map[string]interface{}{"latency": 45.0}, "", true, false},
		{`latency between "10".."100"`, map[string]interface{}{"latency": 100.0}, "", true, true},
		{`host between a..c`, map[string]interface{}{"host": "b1"}, "", true, true},
		{`host between c..a`, map[string]interface{}{"host": "b1"}, "", true, true},
		{`host between c..d`, map[string]interface{}{"host": "b1"}, "", true, false},
		{`ok between 1..2`, map[string]interface{}{"ok": true}, "", true, false},
		{`ok !between 1..2`, map[string]interface{}{"ok": true}, "", true, true},

		// pointer paths
		{`/req/method == GET`, map[string]interface{}{"req": map[string]interface{}{"method": "GET"}}, "", true, true},
		{`/tags/1 == b`, map[string]interface{}{"tags": []interface{}{"a", "b"}}, "", true, true},
		{`/tags/2 exists`, map[string]interface{}{"tags": []interface{}{"a", "b"}}, "", true, false},
		{`/a~1b == 1`, map[string]interface{}{"a/b": 1.0}, "", true, true},

		// null still exists
		{`user exists`, map[string]interface{}{"user": nil}, "", true, true},
		{`user == null`, map[string]interface{}{"user": nil}, "", true, false},
		{`user != null`, map[string]interface{}{"user": nil}, "", true, true},

		// bools compare as text
		{`cached == true`, map[string]interface{}{"cached": true}, "", true, true},

		// text numbers
		{`text contains+50`, nil, "latency=45ms took 120ms total", true, true},
		{`text !contains+200`, nil, "latency=45ms took 120ms total", true, true},
		{`text !contains+100`, nil, "latency=45ms took 120ms total", true, false},
		{`text contains-45`, nil, "latency=45ms took 120ms total", true, true},
		{`text contains-10`, nil, "latency=45ms took 120ms total", true, false},
		{`text !contains-10`, nil, "latency=45ms took 120ms total", true, true},
		{`text between 100..150`, nil, "latency=45ms took 120ms total", true, true},
		{`text between 150..100`, nil, "latency=45ms took 120ms total", true, true},
		{`text !between 100..150`, nil, "latency=45ms took 120ms total", true, false},
		{`text between 50..100`, nil, "latency=45ms took 120ms total", true, false},
		{`text between -5..-1`, nil, "delta -3 applied", true, true},
		{`text contains ""`, nil, "anything", true, true},
		{`text !contains "error, panic"`, nil, "all fine", true, true},

		// timestamps
		{`timestamp between "2023-12-31T00:00:00Z".."2024-02-01T00:00:00Z"`,
			map[string]interface{}{"timestamp": "2024-01-01T00:00:00Z"}, "", true, true},
		{`timestamp between "2024-02-01T00:00:00Z".."2023-12-31T00:00:00Z"`,
			map[string]interface{}{"timestamp": "2024-01-01T00:00:00Z"}, "", true, true},
		{`timestamp !between "2024-02-01T00:00:00Z".."2023-12-31T00:00:00Z"`,
			map[string]interface{}{"timestamp": "2024-01-01T00:00:00Z"}, "", true, false},
		{`timestamp between "2024-01-01T00:00:00Z".."2024-01-01T00:00:00Z"`,
			map[string]interface{}{"timestamp": "2024-01-01T00:00:00Z"}, "", true, true},
		{`timestamp > "2023-12-31T00:00:00Z"`,
			map[string]interface{}{"timestamp": "2024-01-01T00:00:00Z"}, "", true, true},
		{`timestamp <= "2023-12-31T00:00:00Z"`,
			map[string]interface{}{"timestamp": "2024-01-01T00:00:00Z"}, "", true, false},
		{`ts >= 2024-01-01T00:00:00Z`, map[string]interface{}{"ts": 1704067200.0}, "", true, true},
		{`ts < 2024-01-01T00:00:00Z`, map[string]interface{}{"ts": 1704067200.0}, "", true, false},
		{`@timestamp > 2020-01-01T00:00:00Z`, map[string]interface{}{"@timestamp": "2024-01-01T00:00:00+02:00"}, "", true, true},
		{`timestamp > 2020-01-01T00:00:00Z`, map[string]interface{}{"msg": "no time"}, "", true, false},
		{`timestamp between 2020-01-01T00:00:00Z..now`, map[string]interface{}{"msg": "no time"}, "", true, false},
		{`timestamp !between 2020-01-01T00:00:00Z..now`, map[string]interface{}{"msg": "no time"}, "", true, true},
		{`timestamp > "whenever"`, map[string]interface{}{"timestamp": "2024-01-01T00:00:00Z"}, "", true, false},
		{`timestamp <= "whenever"`, map[string]interface{}{"timestamp": "2024-01-01T00:00:00Z"}, "", true, false},
		{`timestamp between "x".."y"`, map[string]interface{}{"msg": "no time"}, "", false, false},
		{`timestamp between now.."y"`, statusOK, "", false, false},
		{`timestamp == 2020-01-01T00:00:00Z`, statusOK, "", false, false},
		{`ts contains 2020`, statusOK, "", false, false},

		// operands that look like operators
		{`text contains <error>`, statusOK, "failed with <ERROR> code", true, true},
		{`text !contains <error>`, statusOK, statusOKLine, true, true},
		{`msg == <html>`, map[string]interface{}{"msg": "<html>"}, "", true, true},
		{`msg != <html>`, statusOK, statusOKLine, true, true},
		{`user is <nobody>`, map[string]interface{}{"user": "<nobody>"}, "", true, true},

		// errors
		{`status>>5`, statusOK, statusOKLine, false, false},
		{`a<=<3`, statusOK, statusOKLine, false, false},
		{`msg==<html>`, statusOK, statusOKLine, false, false},
		{`==5`, statusOK, statusOKLine, false, false},
		{`text == 5`, statusOK, statusOKLine, false, false},
		{`text contains+ many`, statusOK, statusOKLine, false, false},
		{`text between 1..x`, statusOK, statusOKLine, false, false},
		{`text between 1-5`, statusOK, statusOKLine, false, false},
		{`timestamp between now`, statusOK, statusOKLine, false, false},
		{`status==200 || code!contains+x`, statusOK, statusOKLine, true, true},
		{`status==200 || text !contains+x`, statusOK, statusOKLine, false, false},
	}

	for i, st := range tests {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			mf, err := Compile(st.q)
			if err != nil && st.compiles {
				t.Fatalf("%q: compile failed, %v", st.q, err)
			}
			if err == nil && !st.compiles {
				t.Fatalf("%q: compile should have failed", st.q)
			}

			if !st.compiles {
				if errors.Cause(err) != ErrInvalidFormat {
					t.Fatalf("%q: expected invalid format error, got %v", st.q, err)
				}
				return
			}

			if mf == nil {
				t.Fatalf("No error, but nil match function ")
			}

			res, err := mf(st.v, st.raw)
			if err != nil {
				t.Fatalf("%q: match failed, %v", st.q, err)
			}
			if res != st.res {
				t.Fatalf("%q: got res = %v, expected %v", st.q, res, st.res)
			}
		})
	}
}

func TestQuery_MatchErrors(t *testing.T) {
	tests := []struct {
		q string
		v interface{}
	}{
		{`latency between 1..fast`, map[string]interface{}{"latency": 4.0}},
		{`timestamp between "yesterday".."now"`, map[string]interface{}{"timestamp": "2024-01-01T00:00:00Z"}},
		{`status==200 || timestamp between "x".."y"`, map[string]interface{}{"status": 200.0}},
		{`timestamp !between "x"..now`, map[string]interface{}{}},
		{`status==404 || latency between 1..fast`, map[string]interface{}{"latency": 4.0, "status": 200.0}},
	}

	for i, st := range tests {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			res, err := Evaluate(st.v, "", st.q)
			if err == nil {
				t.Fatalf("%q: expected error, got res = %v", st.q, res)
			}
			if res {
				t.Fatalf("%q: error should not match", st.q)
			}
			if !errors.Is(err, ErrInvalidFormat) {
				t.Fatalf("%q: expected invalid format error, got %v", st.q, err)
			}
		})
	}
}

func TestQuery_ErrorsDependOnValue(t *testing.T) {
	// a non numeric bound only matters once there is a number to compare
	q := `latency between 1..fast`
	for _, v := range []interface{}{
		map[string]interface{}{},
		map[string]interface{}{"latency": "slow"},
		nil,
	} {
		if _, err := Evaluate(v, "", q); err != nil {
			t.Fatalf("%v: unexpected error %v", v, err)
		}
	}

	// an ordering against a time that does not parse never matches, with
	// or without a time in the line
	for _, v := range []interface{}{
		map[string]interface{}{},
		map[string]interface{}{"timestamp": "2024-01-01T00:00:00Z"},
	} {
		if res, err := Evaluate(v, "", `timestamp >= "whenever"`); err != nil || res {
			t.Fatalf("%v: got res = %v, err = %v", v, res, err)
		}
	}
}

func TestQuery_RelativeTime(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	defer func(f func() time.Time) { timeexpr.Now = f }(timeexpr.Now)
	timeexpr.Now = func() time.Time { return now }

	v := map[string]interface{}{"timestamp": "2024-01-01T11:50:00Z"}
	tests := []struct {
		q   string
		res bool
	}{
		{`timestamp > "15m ago"`, true},
		{`timestamp > "5m ago"`, false},
		{`timestamp between "1h ago".."now"`, true},
		{`timestamp between now.."1h ago"`, true},
		{`timestamp between "5m".."now"`, false},
		{`timestamp >= now-10m`, true},
		{`timestamp < now+1d`, true},
	}

	for i, st := range tests {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			res, err := Evaluate(v, "", st.q)
			if err != nil {
				t.Fatalf("%q: %v", st.q, err)
			}
			if res != st.res {
				t.Fatalf("%q: got res = %v, expected %v", st.q, res, st.res)
			}
		})
	}
}

func TestQuery_Complements(t *testing.T) {
	ts := "2024-01-01T00:00:00Z"
	values := []interface{}{
		map[string]interface{}{"timestamp": ts, "f": 5.0},
		map[string]interface{}{"timestamp": ts, "f": 50.0},
		map[string]interface{}{"timestamp": ts, "f": "m"},
		map[string]interface{}{"timestamp": ts, "f": "5"},
		map[string]interface{}{"timestamp": ts, "f": nil},
		map[string]interface{}{"timestamp": ts, "f": true},
		map[string]interface{}{"timestamp": ts, "f": []interface{}{1.0}},
		map[string]interface{}{"ts": 1e9, "f": 7.0},
	}
	untimed := map[string]interface{}{"msg": "x"}
	pairs := [][2]string{
		{`f exists`, `f !exists`},
		{`g exists`, `g !exists`},
		{`f between 1..9`, `f !between 1..9`},
		{`f between 9..1`, `f !between 1..9`},
		{`timestamp between 2023-01-01T00:00:00Z..2025-01-01T00:00:00Z`, `timestamp !between 2025-01-01T00:00:00Z..2023-01-01T00:00:00Z`},
		{`text between 1..9`, `text !between 9..1`},
	}
	// an absent field fails both halves of a between pair, a line without
	// a time does not.
	untimedPairs := [][2]string{
		{`f exists`, `f !exists`},
		{`timestamp between 2023-01-01T00:00:00Z..2025-01-01T00:00:00Z`, `timestamp !between 2023-01-01T00:00:00Z..2025-01-01T00:00:00Z`},
		{`timestamp between "1h ago".."now"`, `timestamp !between "1h ago".."now"`},
		{`text between 1..9`, `text !between 9..1`},
	}
	for j, p := range untimedPairs {
		t.Run("untimed/"+strconv.Itoa(j), func(t *testing.T) {
			a, err := Evaluate(untimed, "value 5", p[0])
			if err != nil {
				t.Fatal(err)
			}
			b, err := Evaluate(untimed, "value 5", p[1])
			if err != nil {
				t.Fatal(err)
			}
			if a == b {
				t.Fatalf("%v: %q = %v and %q = %v", untimed, p[0], a, p[1], b)
			}
		})
	}

	for i, v := range values {
		for j, p := range pairs {
			t.Run(strconv.Itoa(i)+"/"+strconv.Itoa(j), func(t *testing.T) {
				a, err := Evaluate(v, "value 5", p[0])
				if err != nil {
					t.Fatal(err)
				}
				b, err := Evaluate(v, "value 5", p[1])
				if err != nil {
					t.Fatal(err)
				}
				if a == b {
					t.Fatalf("%v: %q = %v and %q = %v", v, p[0], a, p[1], b)
				}
			})
		}
	}
}
