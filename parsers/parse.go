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

// Package parsers classifies raw log lines and turns the structured ones
// into generic values the query engine can read.
package parsers

import "strings"

// Format identifies how a line was understood.
type Format int

// The line formats, in the order they are tried.
const (
	Unstructured Format = iota
	JSON
	AccessLog
	Logfmt
)

func (f Format) String() string {
	switch f {
	case JSON:
		return "json"
	case AccessLog:
		return "access"
	case Logfmt:
		return "logfmt"
	}
	return "unstructured"
}

// Entry is a classified line. Value is nil for Unstructured lines, and
// otherwise a map[string]interface{} holding nil, bool, float64, string,
// []interface{} and map[string]interface{} values.
type Entry struct {
	Format Format
	Value  interface{}
}

// Structured reports whether the line produced a value.
func (e Entry) Structured() bool {
	return e.Format != Unstructured
}

// Parse classifies a single line. A line that looks like a JSON object
// must be one, it is never given to the other parsers.
func Parse(line string) Entry {
	trimmed := strings.TrimSpace(line)

	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		v, err := parseJSON(trimmed)
		if err != nil {
			return Entry{}
		}
		return Entry{Format: JSON, Value: v}
	}

	if v, ok := parseAccessLog(trimmed); ok {
		return Entry{Format: AccessLog, Value: v}
	}

	if strings.Contains(trimmed, "=") {
		if v, ok := parseLogfmt(trimmed); ok {
			return Entry{Format: Logfmt, Value: v}
		}
	}

	return Entry{}
}
