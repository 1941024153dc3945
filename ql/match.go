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
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Caelrith/loglens-core/timeexpr"
)

// textField searches the raw line rather than the parsed value.
const textField = "text"

func makeTermMatch(qt queryTerm) (MatchFunc, error) {
	switch {
	case qt.operator == OpExists || qt.operator == OpNotExists:
		return makeExistsMatch(qt), nil
	case timeexpr.IsKey(qt.field):
		return makeTimeMatch(qt)
	case qt.field == textField:
		return makeTextMatch(qt)
	}

	fm, ok := fieldOps[qt.operator]
	if !ok {
		// the numeric threshold operators only apply to text
		fm = func(queryTerm, interface{}) (bool, error) { return false, nil }
	}
	return makeFieldMatch(qt, fm)
}

func makeExistsMatch(qt queryTerm) MatchFunc {
	want := qt.operator == OpExists
	return func(v interface{}, raw string) (bool, error) {
		_, ok := Lookup(v, qt.field)
		return ok == want, nil
	}
}

// Timestamp fields

type timeOrder func(c int) bool

var timeOps = map[Operator]timeOrder{
	OpGt:  func(c int) bool { return c > 0 },
	OpLt:  func(c int) bool { return c < 0 },
	OpGte: func(c int) bool { return c >= 0 },
	OpLte: func(c int) bool { return c <= 0 },
}

func makeTimeMatch(qt queryTerm) (MatchFunc, error) {
	if qt.operator == OpBetween || qt.operator == OpNotBetween {
		start, end, err := readRange(qt)
		if err != nil {
			return nil, err
		}
		// bounds are checked up front so a broken range fails the query
		// even when no line reaches this term.
		if _, err := timeexpr.Parse(start); err != nil {
			return nil, invalidf(qt.text, "invalid start time: %s", start)
		}
		if _, err := timeexpr.Parse(end); err != nil {
			return nil, invalidf(qt.text, "invalid end time: %s", end)
		}
		want := qt.operator == OpBetween
		return func(v interface{}, raw string) (bool, error) {
			lt, ok := timeexpr.Extract(v)
			if !ok {
				// an untimed line is never inside the range.
				return !want, nil
			}
			// relative bounds move with the clock, parse them per line.
			t1, err := timeexpr.Parse(start)
			if err != nil {
				return false, invalidf(qt.text, "invalid start time: %s", start)
			}
			t2, err := timeexpr.Parse(end)
			if err != nil {
				return false, invalidf(qt.text, "invalid end time: %s", end)
			}
			if t2.Before(t1) {
				t1, t2 = t2, t1
			}
			in := !lt.Before(t1) && !lt.After(t2)
			return in == want, nil
		}, nil
	}

	order, ok := timeOps[qt.operator]
	if !ok {
		return nil, invalidf(qt.text, "timestamp fields only support >, <, >=, <=, between operators")
	}
	operand := unquote(qt.value)
	return func(v interface{}, raw string) (bool, error) {
		lt, ok := timeexpr.Extract(v)
		if !ok {
			return false, nil
		}
		qtime, err := timeexpr.Parse(operand)
		if err != nil {
			// nothing is ordered against a time that does not parse.
			return false, nil
		}
		return order(compareTimes(lt, qtime)), nil
	}, nil
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

// The text pseudo-field

func makeTextMatch(qt queryTerm) (MatchFunc, error) {
	switch qt.operator {
	case OpContains, OpNotContains:
		return makeTextContainsMatch(qt), nil
	case OpBetween, OpNotBetween:
		start, end, err := readRange(qt)
		if err != nil {
			return nil, err
		}
		r, err := readNumberRange(qt, start, end)
		if err != nil {
			return nil, err
		}
		want := qt.operator == OpBetween
		return func(v interface{}, raw string) (bool, error) {
			return anyNumber(raw, r.contains) == want, nil
		}, nil
	case OpAtLeast, OpNotAtLeast, OpAtMost, OpNotAtMost:
		return makeThresholdMatch(qt)
	}
	return nil, invalidf(qt.text, "the 'text' field only supports 'contains' and 'between' variations")
}

func makeTextContainsMatch(qt queryTerm) MatchFunc {
	var terms []string
	for _, t := range strings.Split(qt.value, ",") {
		t = strings.ToLower(unquote(t))
		if t != "" {
			terms = append(terms, t)
		}
	}
	want := qt.operator == OpContains

	return func(v interface{}, raw string) (bool, error) {
		line := strings.ToLower(raw)
		for _, t := range terms {
			if strings.Contains(line, t) != want {
				return false, nil
			}
		}
		return true, nil
	}
}

func makeThresholdMatch(qt queryTerm) (MatchFunc, error) {
	operand := unquote(qt.value)
	limit, err := strconv.ParseFloat(operand, 64)
	if err != nil {
		return nil, invalidf(qt.text, "operator %q requires a numeric value, but got '%s'", qt.operator, strings.TrimSpace(qt.value))
	}

	var f func(string) bool
	switch qt.operator {
	case OpAtLeast:
		f = func(raw string) bool { return anyNumber(raw, func(n float64) bool { return n >= limit }) }
	case OpNotAtLeast:
		f = func(raw string) bool { return !anyNumber(raw, func(n float64) bool { return n >= limit }) }
	case OpAtMost:
		f = func(raw string) bool { return anyNumber(raw, func(n float64) bool { return n <= limit }) }
	case OpNotAtMost:
		f = func(raw string) bool { return !anyNumber(raw, func(n float64) bool { return n <= limit }) }
	}

	return func(v interface{}, raw string) (bool, error) {
		return f(raw), nil
	}, nil
}

func anyNumber(raw string, pred func(float64) bool) bool {
	for _, n := range ExtractNumbers(raw) {
		if pred(n) {
			return true
		}
	}
	return false
}

// Ordinary fields

// fieldFunc applies an operator to a field that is present.
type fieldFunc func(qt queryTerm, v interface{}) (bool, error)

var fieldOps = map[Operator]fieldFunc{
	OpBetween:     betweenMatch(true),
	OpNotBetween:  betweenMatch(false),
	OpFoldEq:      orderMatch(true, func(c int) bool { return c == 0 }, false),
	OpNotFoldEq:   orderMatch(true, func(c int) bool { return c != 0 }, true),
	OpContains:    containsMatch(true),
	OpNotContains: containsMatch(false),
	OpEq:          orderMatch(false, func(c int) bool { return c == 0 }, false),
	OpIs:          orderMatch(false, func(c int) bool { return c == 0 }, false),
	OpNeq:         orderMatch(false, func(c int) bool { return c != 0 }, true),
	OpIsNot:       orderMatch(false, func(c int) bool { return c != 0 }, true),
	OpGt:          orderMatch(false, func(c int) bool { return c > 0 }, false),
	OpLt:          orderMatch(false, func(c int) bool { return c < 0 }, false),
	OpGte:         orderMatch(false, func(c int) bool { return c >= 0 }, false),
	OpLte:         orderMatch(false, func(c int) bool { return c <= 0 }, false),
}

// absentMatches is the result for a field that is not in the line.
func absentMatches(op Operator) bool {
	return op == OpNeq || op == OpIsNot
}

func makeFieldMatch(qt queryTerm, fm fieldFunc) (MatchFunc, error) {
	if qt.operator == OpBetween || qt.operator == OpNotBetween {
		if _, _, err := readRange(qt); err != nil {
			return nil, err
		}
	}

	absent := absentMatches(qt.operator)
	return func(v interface{}, raw string) (bool, error) {
		fv, ok := Lookup(v, qt.field)
		if !ok {
			return absent, nil
		}
		if qt.numeric {
			if fv, ok = forceNumber(fv); !ok {
				return false, nil
			}
		}
		return fm(qt, fv)
	}, nil
}

// forceNumber converts v for num(field), strings must hold a finite number.
func forceNumber(v interface{}) (interface{}, bool) {
	if n, ok := asNumber(v); ok {
		return n, true
	}
	s, ok := v.(string)
	if !ok {
		return nil, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
		return nil, false
	}
	return n, true
}

func orderMatch(foldCase bool, accept func(int) bool, unordered bool) fieldFunc {
	return func(qt queryTerm, v interface{}) (bool, error) {
		c, ok := compare(v, qt.value, foldCase)
		if !ok {
			return unordered, nil
		}
		return accept(c), nil
	}
}

func containsMatch(want bool) fieldFunc {
	return func(qt queryTerm, v interface{}) (bool, error) {
		s, ok := v.(string)
		if !ok {
			return !want, nil
		}
		return strings.Contains(s, unquote(qt.value)) == want, nil
	}
}

// betweenMatch checks numbers against a numeric range and strings against
// a lexical one. Other values are never in range.
func betweenMatch(want bool) fieldFunc {
	return func(qt queryTerm, v interface{}) (bool, error) {
		start, end, err := readRange(qt)
		if err != nil {
			return false, err
		}

		if n, ok := asNumber(v); ok {
			r, err := readNumberRange(qt, start, end)
			if err != nil {
				return false, err
			}
			return r.contains(n) == want, nil
		}

		s, ok := v.(string)
		if !ok {
			return !want, nil
		}
		if end < start {
			start, end = end, start
		}
		return (s >= start && s <= end) == want, nil
	}
}
