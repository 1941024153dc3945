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

package logline

import (
	"strings"

	"github.com/pkg/errors"
)

// LabelMatchFunc accepts or rejects a set of labels.
type LabelMatchFunc func(labels map[string]string) bool

func makeLabelMatch(label, value string) LabelMatchFunc {
	return func(labels map[string]string) bool {
		lv, ok := labels[label]
		return ok && lv == value
	}
}

func makeConjunctionMatch(fs ...LabelMatchFunc) LabelMatchFunc {
	return func(labels map[string]string) bool {
		for i := range fs {
			if !fs[i](labels) {
				return false
			}
		}
		return true
	}
}

func makeDisjunctionMatch(fs ...LabelMatchFunc) LabelMatchFunc {
	return func(labels map[string]string) bool {
		for i := range fs {
			if fs[i](labels) {
				return true
			}
		}
		return false
	}
}

// CompileSelector builds a matcher from space separated label=value
// pairs. Pairs for the same label are alternatives, different labels must
// all match. An empty selector matches everything.
func CompileSelector(sel string) (LabelMatchFunc, error) {
	labelMatches := map[string][]LabelMatchFunc{}
	for _, a := range strings.Fields(sel) {
		ts := strings.SplitN(a, "=", 2)
		if len(ts) != 2 || ts[0] == "" {
			return nil, errors.Errorf("invalid label selector %q, expected label=value", a)
		}
		labelMatches[ts[0]] = append(labelMatches[ts[0]], makeLabelMatch(ts[0], ts[1]))
	}

	terms := []LabelMatchFunc{}
	for _, lqs := range labelMatches {
		terms = append(terms, makeDisjunctionMatch(lqs...))
	}
	return makeConjunctionMatch(terms...), nil
}
