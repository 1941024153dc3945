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
	"regexp"
	"strconv"
	"sync"
)

var (
	numberOnce sync.Once
	numberRe   *regexp.Regexp
)

// ExtractNumbers returns every decimal number found in text, in order.
// "took -1.5s, retried 3 times" gives [-1.5 3].
func ExtractNumbers(text string) []float64 {
	numberOnce.Do(func() {
		numberRe = regexp.MustCompile(`-?\d+(\.\d+)?`)
	})

	matches := numberRe.FindAllString(text, -1)
	ns := make([]float64, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.ParseFloat(m, 64)
		if err != nil {
			continue
		}
		ns = append(ns, n)
	}
	return ns
}
