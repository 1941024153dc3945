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

// Package stdout renders matching lines to a writer using a text template.
package stdout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"text/template"

	"github.com/Caelrith/loglens-core/logline"
	"github.com/Caelrith/loglens-core/sinks"
	"github.com/Masterminds/sprig"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// DefaultFormat prints the line as read.
const DefaultFormat = "{{.Text}}"

var formattingFuncMap = template.FuncMap{
	"json": formatJSON,
}

func formatJSON(i interface{}) string {
	bs, _ := json.Marshal(i)
	return string(bs)
}

// Stdout writes each line through a template. Writes from concurrent
// streams are serialised, one rendered line at a time.
type Stdout struct {
	tmpl       *template.Template
	showLabels bool

	sync.Mutex
	w          io.Writer
	lastStream string
}

// New compiles format, a text/template with the sprig functions and json
// available. If showLabels is set, a "-- label=value" header is written
// whenever output switches to a different stream.
func New(w io.Writer, format string, showLabels bool) (*Stdout, error) {
	if format == "" {
		format = DefaultFormat
	}
	tmpl, err := template.New("out").
		Funcs(sprig.TxtFuncMap()).
		Funcs(formattingFuncMap).
		Parse(format + "\n")
	if err != nil {
		return nil, errors.Wrap(err, "failed to compile output template")
	}
	return &Stdout{tmpl: tmpl, showLabels: showLabels, w: w}, nil
}

func (o *Stdout) AddSource(id string, Labels map[string]string) (sinks.MessageWriter, error) {
	if glog.V(2) {
		glog.Infof("New Stream %#v: %v", id, Labels)
	}
	return &MessageWriter{o: o, id: id, labels: Labels}, nil
}

type MessageWriter struct {
	o      *Stdout
	id     string
	labels map[string]string
}

func (mw *MessageWriter) WriteMessage(ctx context.Context, l *logline.Line) error {
	if glog.V(3) {
		glog.Infof("Raw: %#v", *l)
	}

	tm := map[string]interface{}{}
	tm["Text"] = l.Text
	tm["Time"] = l.Time
	tm["Labels"] = l.Labels
	tm["Fields"] = l.Value
	tm["Format"] = l.Format.String()
	tm["Index"] = l.Index
	tm["ID"], _ = l.ID()

	buf := &bytes.Buffer{}
	if err := mw.o.tmpl.ExecuteTemplate(buf, "out", tm); err != nil {
		return errors.Wrap(err, "executing output template")
	}

	mw.o.Lock()
	defer mw.o.Unlock()

	if mw.o.showLabels && mw.o.lastStream != mw.id {
		if _, err := fmt.Fprintf(mw.o.w, "--%s\n", formatLabels(mw.labels)); err != nil {
			return err
		}
		mw.o.lastStream = mw.id
	}
	_, err := mw.o.w.Write(buf.Bytes())
	return err
}

func (mw *MessageWriter) Close() error {
	return nil
}

func formatLabels(ls map[string]string) string {
	keys := make([]string, 0, len(ls))
	for k := range ls {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sb := strings.Builder{}
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%s", k, ls[k])
	}
	return sb.String()
}
