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

import "strings"

// Operator is the spelling of a condition operator.
type Operator string

// The recognised operators.
const (
	OpNotAtLeast   Operator = "!contains+"
	OpNotAtMost    Operator = "!contains-"
	OpNotBetween   Operator = "!between"
	OpNotFoldEq    Operator = "!~="
	OpNotContains  Operator = "!contains"
	OpNotExists    Operator = "!exists"
	OpIsNot        Operator = "isnot"
	OpGte          Operator = ">="
	OpLte          Operator = "<="
	OpEq           Operator = "=="
	OpNeq          Operator = "!="
	OpAtLeast      Operator = "contains+"
	OpAtMost       Operator = "contains-"
	OpBetween      Operator = "between"
	OpContains     Operator = "contains"
	OpExists       Operator = "exists"
	OpIs           Operator = "is"
	OpFoldEq       Operator = "~="
	OpGt           Operator = ">"
	OpLt           Operator = "<"
)

// operators is searched in order, the first operator found anywhere in a
// condition wins. Any operator that contains another operator's spelling
// must come before it.
var operators = []Operator{
	OpNotAtLeast, OpNotAtMost,
	OpNotBetween,
	OpNotFoldEq, OpNotContains, OpNotExists, OpIsNot, OpGte, OpLte, OpEq, OpNeq,
	OpAtLeast, OpAtMost,
	OpBetween,
	OpContains, OpExists,
	OpIs, OpFoldEq, OpGt, OpLt,
}

// symbolic operators can not be followed directly by another one, "a>>5"
// is a typo, not a comparison with ">5". Word operators and spaced
// operands are left alone, "msg == <html>" is a plain string compare.
var symbolic = []Operator{OpNotFoldEq, OpGte, OpLte, OpEq, OpNeq, OpFoldEq, OpGt, OpLt}

// Operators returns the operator table in matching order.
func Operators() []Operator {
	ops := make([]Operator, len(operators))
	copy(ops, operators)
	return ops
}

func findOperator(s string) (Operator, bool) {
	for _, op := range operators {
		if strings.Contains(s, string(op)) {
			return op, true
		}
	}
	return "", false
}

func hasOperator(s string) bool {
	_, ok := findOperator(s)
	return ok
}

func isSymbolic(op Operator) bool {
	for _, o := range symbolic {
		if o == op {
			return true
		}
	}
	return false
}

func startsWithSymbol(s string) bool {
	for _, op := range symbolic {
		if strings.HasPrefix(s, string(op)) {
			return true
		}
	}
	return false
}

func (op Operator) String() string {
	return string(op)
}
