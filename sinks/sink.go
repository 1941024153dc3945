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

// Package sinks defines the destinations lines are written to once read
// from a source.
package sinks

import (
	"context"

	"github.com/Caelrith/loglens-core/logline"
	"github.com/pkg/errors"
)

// ErrRejected is returned by AddSource when a sink does not want any lines
// from a stream. The stream should be skipped, not retried.
var ErrRejected = errors.New("stream rejected by sink")

// Sinker is something lines can be written to.
type Sinker interface {
	// AddSource should return a MessageWriter that lines can then be
	// written to. All lines written to the returned writer are associated
	// with the StreamID given. The Labels passed here describe the stream
	// and are attached to every line written to the MessageWriter.
	// StreamID should be a ULID that is unique to this call to AddSource.
	AddSource(StreamID string, Labels map[string]string) (MessageWriter, error)
}

// MessageWriter receives the lines of a single stream. Each line has a
// unique Index within the stream.
type MessageWriter interface {
	WriteMessage(ctx context.Context, l *logline.Line) error
	Close() error
}
