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
	"encoding/json"
	"strconv"
	"strings"
)

// Lookup resolves a field against a parsed line. Fields starting with /
// are pointer paths (RFC 6901) through objects and arrays, anything else
// names a top level key. A key holding null is found, with a nil value.
func Lookup(v interface{}, field string) (interface{}, bool) {
	if strings.HasPrefix(field, "/") {
		return lookupPointer(v, field)
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, false
	}
	fv, ok := m[field]
	return fv, ok
}

var pointerUnescaper = strings.NewReplacer("~1", "/", "~0", "~")

func lookupPointer(v interface{}, ptr string) (interface{}, bool) {
	for _, tok := range strings.Split(ptr[1:], "/") {
		tok = pointerUnescaper.Replace(tok)
		switch tv := v.(type) {
		case map[string]interface{}:
			nv, ok := tv[tok]
			if !ok {
				return nil, false
			}
			v = nv
		case []interface{}:
			i, ok := arrayIndex(tok)
			if !ok || i >= len(tv) {
				return nil, false
			}
			v = tv[i]
		default:
			return nil, false
		}
	}
	return v, true
}

// arrayIndex accepts only plain decimal indexes, no sign or leading zeros.
func arrayIndex(tok string) (int, bool) {
	if tok == "" || tok[0] == '+' || (len(tok) > 1 && tok[0] == '0') {
		return 0, false
	}
	i, err := strconv.Atoi(tok)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// asNumber reports the numeric value of v, if v is a number.
func asNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// asText renders scalars the way they are compared as strings.
func asText(v interface{}) (string, bool) {
	switch tv := v.(type) {
	case string:
		return tv, true
	case bool:
		return strconv.FormatBool(tv), true
	case json.Number:
		return tv.String(), true
	}
	if n, ok := asNumber(v); ok {
		return strconv.FormatFloat(n, 'f', -1, 64), true
	}
	return "", false
}
