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

// Package sources finds streams of log lines and reads them into sinks.
package sources

import (
	"context"

	"github.com/Caelrith/loglens-core/logline"
)

// Sourcer watches some arbitrary potential source of multiple log streams.
// Each time the Updater spots a new stream, ReadTarget is called to read
// lines from that stream.
type Sourcer interface {
	// Updater implementation required to find new streams.
	Updater

	// ReadTarget is called in response to a new target being found by the updater
	// The supplied context will be cancel'ed when the updater sees the source go
	// away. FromStart indicates whether you should read the stream from the
	// beginning, or the current position.
	ReadTarget(ctx context.Context, id string, FromStart bool) (MessageReader, error)
}

// MessageReader is used to Read a line from a source. io.EOF marks the
// end of the stream. A MessageReader that is also an io.Closer is closed
// once the stream is done with.
type MessageReader interface {
	MessageRead(ctx context.Context) (*logline.Line, error)
}

// Updater is used to watch for changes to a set of potential log sources. The
// first call to Next should return any pre-existing log sources. Subsequent
// calls should describe changes to that set. A set that will never change
// returns io.EOF once it has been listed.
type Updater interface {
	Next(context.Context) ([]*Update, error)
}

// Action is the kind of change an Update describes.
type Action int

const (
	// Add is sent for a newly found stream.
	Add Action = iota
	// Remove is sent when a stream goes away.
	Remove
)

func (a Action) String() string {
	if a == Remove {
		return "remove"
	}
	return "add"
}

// Update describes a change to the set of streams a source provides.
type Update struct {
	Action Action
	Target string
	Labels map[string]string
}
