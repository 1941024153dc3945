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
	"strings"
)

// MatchFunc describes a function that can be used to accept/reject log
// lines. v is the parsed form of the line (nil if the line had no
// structure), raw is the line as read. An error means the query itself
// could not be applied, and no answer was reached.
type MatchFunc func(v interface{}, raw string) (bool, error)

func matchAll(interface{}, string) (bool, error) {
	return true, nil
}

func makeSubstringMatch(qstr string) MatchFunc {
	negate := strings.HasPrefix(qstr, "!")
	if negate {
		qstr = qstr[1:]
	}
	needle := strings.ToLower(qstr)
	return func(v interface{}, raw string) (bool, error) {
		return strings.Contains(strings.ToLower(raw), needle) != negate, nil
	}
}

func makeConjunctionMatch(fs ...MatchFunc) MatchFunc {
	return func(v interface{}, raw string) (bool, error) {
		for i := range fs {
			res, err := fs[i](v, raw)
			if err != nil || !res {
				return false, err
			}
		}
		return true, nil
	}
}

func makeDisjunctionMatch(fs ...MatchFunc) MatchFunc {
	return func(v interface{}, raw string) (bool, error) {
		for i := range fs {
			res, err := fs[i](v, raw)
			if err != nil || res {
				return res && err == nil, err
			}
		}
		return false, nil
	}
}

// normalizeSeparators rewrites the word forms of the clause separators.
func normalizeSeparators(qstr string) string {
	qstr = strings.ReplaceAll(qstr, " OR ", "||")
	qstr = strings.ReplaceAll(qstr, " or ", "||")
	qstr = strings.ReplaceAll(qstr, " AND ", "&&")
	return strings.ReplaceAll(qstr, " and ", "&&")
}

// readQueryTerms splits a query into clauses of terms. Blank clauses and
// terms are dropped.
func readQueryTerms(qstr string) ([][]queryTerm, error) {
	var clauses [][]queryTerm
	for _, cstr := range strings.Split(normalizeSeparators(qstr), "||") {
		cstr = strings.TrimSpace(cstr)
		if cstr == "" {
			continue
		}

		qts := []queryTerm{}
		for _, tstr := range strings.Split(cstr, "&&") {
			tstr = strings.TrimSpace(tstr)
			if tstr == "" {
				continue
			}
			qt, err := readQueryTerm(tstr)
			if err != nil {
				return nil, err
			}
			qts = append(qts, qt)
		}
		clauses = append(clauses, qts)
	}
	return clauses, nil
}

// Compile qstr to a matching function. Problems that can be seen in the
// query text alone, anywhere in the query, are reported here. The returned
// MatchFunc is safe for concurrent use.
func Compile(qstr string) (MatchFunc, error) {
	if strings.TrimSpace(qstr) == "" {
		return matchAll, nil
	}

	if !hasOperator(qstr) {
		return makeSubstringMatch(qstr), nil
	}

	clauses, err := readQueryTerms(qstr)
	if err != nil {
		return nil, err
	}

	ors := []MatchFunc{}
	for _, qts := range clauses {
		ands := []MatchFunc{}
		for _, qt := range qts {
			mf, err := makeTermMatch(qt)
			if err != nil {
				return nil, err
			}
			ands = append(ands, mf)
		}
		ors = append(ors, makeConjunctionMatch(ands...))
	}

	return makeDisjunctionMatch(ors...), nil
}

// Evaluate matches a single line against qstr.
func Evaluate(v interface{}, raw string, qstr string) (bool, error) {
	mf, err := Compile(qstr)
	if err != nil {
		return false, err
	}
	return mf(v, raw)
}
