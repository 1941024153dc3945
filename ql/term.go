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
	"fmt"
	"strconv"
	"strings"
)

type queryTerm struct {
	text     string // the condition as written
	field    string
	operator Operator
	value    string // untrimmed operand
	numeric  bool   // field was wrapped in num()
}

func (qt queryTerm) String() string {
	field := qt.field
	if qt.numeric {
		field = "num(" + field + ")"
	}
	return fmt.Sprintf("{%s %s %s}", field, qt.operator, strings.TrimSpace(qt.value))
}

// readQueryTerm splits a single condition at its operator.
//
// QT: [ "num(" ] FIELD [ ")" ] OP STR
func readQueryTerm(text string) (queryTerm, error) {
	op, ok := findOperator(text)
	if !ok {
		return queryTerm{}, &FormatError{Text: text}
	}

	parts := strings.SplitN(text, string(op), 2)
	qt := queryTerm{
		text:     text,
		operator: op,
		value:    parts[1],
	}
	qt.field, qt.numeric = unwrapNum(strings.TrimSpace(parts[0]))

	// exists only looks at the field, anything after it is ignored.
	if op == OpExists || op == OpNotExists {
		return qt, nil
	}

	if qt.field == "" {
		return queryTerm{}, invalidf(text, "missing field name before %q", op)
	}
	if isSymbolic(op) && startsWithSymbol(qt.value) {
		return queryTerm{}, invalidf(text, "unexpected operator after %q", op)
	}

	return qt, nil
}

// unwrapNum strips a num(...) wrapper from a field name.
func unwrapNum(field string) (string, bool) {
	if strings.HasPrefix(field, "num(") && strings.HasSuffix(field, ")") && len(field) >= 5 {
		return strings.TrimSpace(field[4 : len(field)-1]), true
	}
	return field, false
}

// unquote trims space and any surrounding ' or " characters.
func unquote(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'`)
}

// readRange splits a start..end operand, the bounds are returned unquoted.
func readRange(qt queryTerm) (string, string, error) {
	parts := strings.Split(qt.value, "..")
	if len(parts) != 2 {
		return "", "", invalidf(qt.text, "operator %q requires a range 'start..end', got '%s'", qt.operator, strings.TrimSpace(qt.value))
	}
	return unquote(parts[0]), unquote(parts[1]), nil
}

// numberRange holds parsed numeric bounds, lo <= hi.
type numberRange struct {
	lo, hi float64
}

func (r numberRange) contains(n float64) bool {
	return n >= r.lo && n <= r.hi
}

func readNumberRange(qt queryTerm, start, end string) (numberRange, error) {
	n1, err := strconv.ParseFloat(start, 64)
	if err != nil {
		return numberRange{}, invalidf(qt.text, "invalid start number: %s", start)
	}
	n2, err := strconv.ParseFloat(end, 64)
	if err != nil {
		return numberRange{}, invalidf(qt.text, "invalid end number: %s", end)
	}
	if n2 < n1 {
		n1, n2 = n2, n1
	}
	return numberRange{lo: n1, hi: n2}, nil
}
