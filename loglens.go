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

// Package loglens matches single log lines against filter queries. Lines
// are classified as JSON, access log, logfmt or plain text, and the query
// language in package ql is applied to the parsed fields.
package loglens

import (
	"github.com/Caelrith/loglens-core/parsers"
	"github.com/Caelrith/loglens-core/ql"
)

// ErrUnstructured is reported by RunQuery for lines with no fields.
const ErrUnstructured = "Could not parse log structure. Is it valid JSON or Logfmt?"

// Result describes the outcome of RunQuery.
type Result struct {
	Match  bool        `json:"is_match"`
	Parsed interface{} `json:"parsed_log"`
	Error  *string     `json:"error"`
}

// RunQuery parses line and evaluates query against it. Only structured
// lines are evaluated. The parsed value is returned even if the query
// failed.
func RunQuery(line, query string) Result {
	e := parsers.Parse(line)
	if !e.Structured() {
		msg := ErrUnstructured
		return Result{Error: &msg}
	}

	ok, err := ql.Evaluate(e.Value, line, query)
	if err != nil {
		msg := "Query Error: " + err.Error()
		return Result{Parsed: e.Value, Error: &msg}
	}
	return Result{Match: ok, Parsed: e.Value}
}

// Match reports whether line satisfies query. Unlike RunQuery, plain text
// lines are evaluated too, with no fields, so text and substring queries
// apply to them.
func Match(line, query string) (bool, error) {
	e := parsers.Parse(line)
	return ql.Evaluate(e.Value, line, query)
}
