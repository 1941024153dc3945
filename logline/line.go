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

// Package logline holds the unit of data passed from sources to sinks.
package logline

import (
	"fmt"
	"io"
	"time"

	"github.com/Caelrith/loglens-core/parsers"
	"github.com/oklog/ulid"
)

// Line is a single line read from a stream, along with what was learnt
// by parsing it.
type Line struct {
	StreamID string // ulid of the stream this line was read from
	Index    uint64 // position in the stream, starting at 1
	Time     time.Time
	Text     string
	Labels   map[string]string

	Format parsers.Format
	Value  interface{}
}

// Copy returns a copy of the line with its own label set. The parsed
// value is shared.
func (l *Line) Copy() *Line {
	nl := *l
	nl.Labels = make(map[string]string, len(l.Labels))
	for k, v := range l.Labels {
		nl.Labels[k] = v
	}
	return &nl
}

// ID Returns a unique string ID for a line.
// The StreamID and Index must be populated
func (l *Line) ID() (string, error) {
	id, err := ulid.Parse(l.StreamID)
	return fmt.Sprintf("%s-%d", id, l.Index), err
}

// NewStreamID creates a stream ID for the given time.
func NewStreamID(t time.Time, entropy io.Reader) string {
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
