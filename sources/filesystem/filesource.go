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

package filesystem

import (
	"context"
	"io"

	"github.com/Caelrith/loglens-core/logline"
	"github.com/Caelrith/loglens-core/sources"
	"github.com/hpcloud/tail"
)

// MessageReader is used to tail a file path and create log lines from
// what is appended to it.
type MessageReader struct {
	*tail.Tail
}

// ReadTarget starts tailing fn. Unless fromStart is set only lines written
// after the call are read.
func (w *Watcher) ReadTarget(ctx context.Context, fn string, fromStart bool) (sources.MessageReader, error) {
	loc := &tail.SeekInfo{Whence: io.SeekEnd, Offset: 0}
	if fromStart {
		loc = &tail.SeekInfo{Whence: io.SeekStart, Offset: 0}
	}

	ft, err := tail.TailFile(fn, tail.Config{
		Location:  loc,
		MustExist: false,
		Follow:    true,
		ReOpen:    true,
		Poll:      w.Poll,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return nil, err
	}

	return &MessageReader{Tail: ft}, nil
}

// MessageRead implements the MessageReader interface
func (fs *MessageReader) MessageRead(ctx context.Context) (*logline.Line, error) {
	select {
	case l, ok := <-fs.Lines:
		if !ok {
			if err := fs.Err(); err != nil {
				return nil, err
			}
			return nil, io.EOF
		}
		if l.Err != nil {
			return nil, l.Err
		}
		return &logline.Line{Text: l.Text, Time: l.Time}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops the tail and releases its inotify watches.
func (fs *MessageReader) Close() error {
	err := fs.Stop()
	fs.Cleanup()
	return err
}
