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

package parsers

import (
	"strings"

	"github.com/go-logfmt/logfmt"
)

// parseLogfmt decodes key=value pairs. Keys without a value are kept with
// a nil value. The line is only accepted if fewer than half of its keys
// are valueless, which filters out prose that happens to contain "=".
func parseLogfmt(line string) (map[string]interface{}, bool) {
	d := logfmt.NewDecoder(strings.NewReader(line))
	if !d.ScanRecord() {
		return nil, false
	}

	m := map[string]interface{}{}
	for d.ScanKeyval() {
		k := string(d.Key())
		if d.Value() == nil {
			m[k] = nil
			continue
		}
		m[k] = string(d.Value())
	}
	if d.Err() != nil || len(m) == 0 {
		return nil, false
	}

	nulls := 0
	for _, v := range m {
		if v == nil {
			nulls++
		}
	}
	if nulls >= len(m)/2 {
		return nil, false
	}
	return m, true
}
