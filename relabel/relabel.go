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

// Package relabel rewrites the labels of log lines and streams using
// regexp based rules, and drops the ones a rule rejects.
package relabel

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/Caelrith/loglens-core/logline"
	"github.com/go-logfmt/logfmt"
	"github.com/pkg/errors"
)

// TextLabel holds the text of the line while rules are applied, so that
// rules can match on, and rewrite, the text itself.
const TextLabel = "__text__"

// Config is a collection of rules for updating the labels on a line.
type Config []*Rule

// Relabel transforms the labels on l using the set of relabel rules. The
// labels are copied before the first change, so maps shared between the
// lines of a stream are left alone. False means the line should be dropped.
func (rlc Config) Relabel(l *logline.Line) bool {
	ls := make(map[string]string, len(l.Labels)+1)
	for k, v := range l.Labels {
		ls[k] = v
	}
	ls[TextLabel] = l.Text
	l.Labels = ls

	ok := true
	for _, r := range rlc {
		if !r.Relabel(l) {
			ok = false
			break
		}
	}

	l.Text = l.Labels[TextLabel]
	delete(l.Labels, TextLabel)
	return ok
}

type ruleFunc func(*Rule, *logline.Line) bool

// XXX catches unknown Rule settings
type XXX map[string]interface{}

// Rule describes configuration for a rule to relabel a line.
type Rule struct {
	Action      ruleFunc    `json:"action" yaml:"action"`
	SrcLabels   []string    `json:"source_labels" yaml:"source_labels"`
	TargetLabel string      `json:"target_label" yaml:"target_label"`
	Regex       *JSONRegexp `json:"regex" yaml:"regex"`
	Replacement string      `json:"replacement" yaml:"replacement"`
	Separator   string      `json:"separator" yaml:"separator"`
	XXX         `json:",omitempty" yaml:",omitempty,inline"`
}

func defaultRule() Rule {
	return Rule{
		Action:      actions["keep"],
		Regex:       &JSONRegexp{regexp.MustCompile("(.+)")},
		Replacement: "$1",
		SrcLabels:   []string{"filename"},
		TargetLabel: "filename",
		Separator:   ";",
	}
}

type defdRelabelRule Rule

// UnmarshalYAML unmarshals yaml to a Relabel rule with appropriate defaults
func (r *Rule) UnmarshalYAML(unmarshal func(interface{}) error) error {
	rr := defdRelabelRule(defaultRule())
	if err := unmarshal(&rr); err != nil {
		return err
	}
	if len(rr.XXX) != 0 {
		unknowns := []string{}
		for k := range rr.XXX {
			unknowns = append(unknowns, k)
		}
		return fmt.Errorf("unknown rule fields: %s", strings.Join(unknowns, ", "))
	}
	*r = Rule(rr)
	return nil
}

// UnmarshalJSON unmarshals json to a Relabel rule with appropriate defaults
func (r *Rule) UnmarshalJSON(bs []byte) error {
	rr := defdRelabelRule(defaultRule())
	if err := json.Unmarshal(bs, &rr); err != nil {
		return err
	}
	*r = Rule(rr)
	return nil
}

func (r *Rule) buildKey(l *logline.Line) string {
	vs := make([]string, 0, len(r.SrcLabels))
	for _, k := range r.SrcLabels {
		if v, ok := l.Labels[k]; ok {
			vs = append(vs, v)
		}
	}
	return strings.Join(vs, r.Separator)
}

// Relabel the provided line using the described rule.
func (r *Rule) Relabel(l *logline.Line) bool {
	return r.Action(r, l)
}

var actions = map[string]ruleFunc{
	"keep":      (*Rule).applyKeep,
	"drop":      (*Rule).applyDrop,
	"labelkeep": (*Rule).applyLabelKeep,
	"labeldrop": (*Rule).applyLabelDrop,
	"replace":   (*Rule).applyReplace,
	"labelmap":  (*Rule).applyLabelMap,
	"logfmt":    (*Rule).applyLogfmt,
	"strptime":  (*Rule).applyStrptime,
}

func (r *Rule) applyDrop(l *logline.Line) bool {
	return !r.Regex.MatchString(r.buildKey(l))
}

func (r *Rule) applyKeep(l *logline.Line) bool {
	return r.Regex.MatchString(r.buildKey(l))
}

func (r *Rule) applyLabelDrop(l *logline.Line) bool {
	for k := range l.Labels {
		if k != TextLabel && r.Regex.MatchString(k) {
			delete(l.Labels, k)
		}
	}
	return true
}

func (r *Rule) applyLabelKeep(l *logline.Line) bool {
	for k := range l.Labels {
		if k != TextLabel && !r.Regex.MatchString(k) {
			delete(l.Labels, k)
		}
	}
	return true
}

func (r *Rule) applyReplace(l *logline.Line) bool {
	key := r.buildKey(l)
	matches := r.Regex.FindStringSubmatchIndex(key)
	if matches == nil {
		return true
	}
	target := string(r.Regex.ExpandString([]byte{}, r.TargetLabel, key, matches))
	l.Labels[target] = string(r.Regex.ExpandString([]byte{}, r.Replacement, key, matches))
	return true
}

func (r *Rule) applyLabelMap(l *logline.Line) bool {
	ls := make(map[string]string, len(l.Labels))
	for k, v := range l.Labels {
		ls[k] = v
		if k != TextLabel && r.Regex.MatchString(k) {
			nl := r.Regex.ReplaceAllString(k, r.Replacement)
			ls[nl] = v
		}
	}
	l.Labels = ls
	return true
}

// applyLogfmt decodes the key as logfmt and copies each pair into the
// labels. Lines that are not valid logfmt are dropped.
func (r *Rule) applyLogfmt(l *logline.Line) bool {
	key := r.buildKey(l)
	if !r.Regex.MatchString(key) {
		return true
	}

	d := logfmt.NewDecoder(strings.NewReader(key))
	for d.ScanRecord() {
		for d.ScanKeyval() {
			l.Labels[string(d.Key())] = string(d.Value())
		}
	}
	return d.Err() == nil
}

// applyStrptime sets the time of the line by parsing the expanded
// Replacement with TargetLabel as the time layout. Keys that do not parse
// leave the time as it was.
func (r *Rule) applyStrptime(l *logline.Line) bool {
	key := r.buildKey(l)
	matches := r.Regex.FindStringSubmatchIndex(key)
	if matches == nil {
		return true
	}
	ts := string(r.Regex.ExpandString([]byte{}, r.Replacement, key, matches))
	t, err := time.Parse(r.TargetLabel, ts)
	if err != nil {
		return true
	}
	l.Time = t
	return true
}

func getFuncName(i interface{}) string {
	return runtime.FuncForPC(reflect.ValueOf(i).Pointer()).Name()
}

func (r ruleFunc) MarshalYAML() (interface{}, error) {
	bs, err := r.MarshalJSON()
	return string(bs), err
}

func (r ruleFunc) MarshalJSON() ([]byte, error) {
	for a, f := range actions {
		if getFuncName(f) == getFuncName(r) {
			return json.Marshal(a)
		}
	}

	return nil, errors.Errorf("no name known for relabel function %s", getFuncName(r))
}

func (r *ruleFunc) UnmarshalYAML(unmarshal func(interface{}) error) error {
	str := ""
	if err := unmarshal(&str); err != nil {
		return err
	}

	jstr := fmt.Sprintf("%q", str)
	return r.UnmarshalJSON([]byte(jstr))
}

func (r *ruleFunc) UnmarshalJSON(bs []byte) error {
	rstr := ""
	if err := json.Unmarshal(bs, &rstr); err != nil {
		return err
	}
	rf, ok := actions[rstr]
	if !ok {
		return errors.Errorf("unknown relabel action %q", rstr)
	}
	*r = rf
	return nil
}

// JSONRegexp provides a means of directly unmarshaling a regexp
type JSONRegexp struct {
	*regexp.Regexp
}

// MarshalYAML implements the yaml Marshaler interface for JSON Regex
func (r *JSONRegexp) MarshalYAML() (interface{}, error) {
	bs, err := r.MarshalJSON()
	return string(bs), err
}

// MarshalJSON implements the json Marshaler interface for JSON Regex
func (r *JSONRegexp) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", r.Regexp.String())), nil
}

// UnmarshalYAML implements the yaml Unmarshaler interface for JSON Regex
func (r *JSONRegexp) UnmarshalYAML(unmarshal func(interface{}) error) error {
	str := ""
	if err := unmarshal(&str); err != nil {
		return err
	}
	jstr := fmt.Sprintf("%q", str)
	return r.UnmarshalJSON([]byte(jstr))
}

// UnmarshalJSON implements the json Unmarshaler interface for JSON Regex
func (r *JSONRegexp) UnmarshalJSON(bs []byte) error {
	rstr := ""
	if err := json.Unmarshal(bs, &rstr); err != nil {
		return err
	}
	re, err := regexp.Compile(rstr)
	if err != nil {
		return err
	}
	*r = JSONRegexp{re}
	return nil
}
