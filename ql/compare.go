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
	"strings"
)

// compare orders v against the operand text, returning -1, 0 or 1. Numbers
// compare numerically with numeric operands, everything else compares as
// text. ok is false if v has no ordering with the operand (null, arrays,
// objects, NaN).
func compare(v interface{}, operand string, foldCase bool) (int, bool) {
	q := unquote(operand)

	if n, isNum := asNumber(v); isNum {
		if qn, err := strconv.ParseFloat(q, 64); err == nil {
			switch {
			case n < qn:
				return -1, true
			case n > qn:
				return 1, true
			case n == qn:
				return 0, true
			default:
				return 0, false
			}
		}
	}

	s, ok := asText(v)
	if !ok {
		return 0, false
	}
	if foldCase {
		s, q = strings.ToLower(s), strings.ToLower(q)
	}
	return strings.Compare(s, q), true
}
