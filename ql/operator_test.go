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
)

func TestFindOperator(t *testing.T) {
	tests := []struct {
		src string
		op  Operator
		ok  bool
	}{
		{"code!contains+5", OpNotAtLeast, true},
		{"code!contains-5", OpNotAtMost, true},
		{"code contains+5", OpAtLeast, true},
		{"code contains-5", OpAtMost, true},
		{"msg !contains x", OpNotContains, true},
		{"msg contains x", OpContains, true},
		{"a !between 1..2", OpNotBetween, true},
		{"a between 1..2", OpBetween, true},
		{"a !~= b", OpNotFoldEq, true},
		{"a ~= b", OpFoldEq, true},
		{"a isnot b", OpIsNot, true},
		{"a is b", OpIs, true},
		{"a !exists", OpNotExists, true},
		{"a exists", OpExists, true},
		{"a>=1", OpGte, true},
		{"a<=1", OpLte, true},
		{"a==1", OpEq, true},
		{"a!=1", OpNeq, true},
		{"a>1", OpGt, true},
		{"a<1", OpLt, true},

		// the table order wins over the position in the text
		{"a>1 || b contains x", OpContains, true},
		{"this>1", OpIs, true},

		{"just words", "", false},
		{"a=1", "", false},
	}

	for i, st := range tests {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			op, ok := findOperator(st.src)
			if ok != st.ok {
				t.Fatalf("%q: found = %v, expected %v", st.src, ok, st.ok)
			}
			if op != st.op {
				t.Fatalf("%q: got operator %q, expected %q", st.src, op, st.op)
			}
		})
	}
}

func TestOperators_Ordered(t *testing.T) {
	ops := Operators()
	if len(ops) != 20 {
		t.Fatalf("expected 20 operators, got %d", len(ops))
	}
	for i := range ops {
		for j := i + 1; j < len(ops); j++ {
			if len(ops[j]) > len(ops[i]) && containsOp(ops[j], ops[i]) {
				t.Errorf("%q is shadowed by %q", ops[j], ops[i])
			}
		}
	}

	ops[0] = "changed"
	if Operators()[0] != OpNotAtLeast {
		t.Fatalf("Operators returned the shared table")
	}
}

func containsOp(long, short Operator) bool {
	for i := 0; i+len(short) <= len(long); i++ {
		if long[i:i+len(short)] == short {
			return true
		}
	}
	return false
}
