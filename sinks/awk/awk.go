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

// Package awk provides a sink that feeds line text to an awk program.
package awk

import (
	"bufio"
	"context"
	"io"
	"sync"

	"github.com/Caelrith/loglens-core/logline"
	"github.com/Caelrith/loglens-core/sinks"
	"github.com/benhoyt/goawk/interp"
	"github.com/benhoyt/goawk/parser"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// AWK runs a single awk program over the text of every line written to
// any of its streams, in the order written.
type AWK struct {
	sync.Mutex
	pw  *io.PipeWriter
	bw  *bufio.Writer
	err error

	done   chan struct{}
	status int
}

// New parses prog and starts it, output goes to out. sep sets FS, a blank
// sep leaves awk's default field splitting.
func New(prog, sep string, out io.Writer) (*AWK, error) {
	prg, err := parser.ParseProgram([]byte(prog), nil)
	if err != nil {
		return nil, errors.Wrap(err, "could not parse awk program")
	}

	pr, pw := io.Pipe()
	ar := &AWK{
		pw:   pw,
		bw:   bufio.NewWriter(pw),
		done: make(chan struct{}),
	}

	cfg := &interp.Config{
		Stdin:  pr,
		Output: out,
	}
	if sep != "" {
		cfg.Vars = []string{"FS", sep}
	}

	go func() {
		defer close(ar.done)
		status, err := interp.ExecProgram(prg, cfg)
		// unblock writers if the program stopped reading early
		pr.CloseWithError(io.ErrClosedPipe)

		ar.Lock()
		ar.status = status
		if err != nil {
			ar.err = errors.Wrap(err, "awk program failed")
		}
		ar.Unlock()

		if glog.V(2) {
			glog.Infof("awk exited with status %d, err = %v", status, err)
		}
	}()

	return ar, nil
}

func (ar *AWK) AddSource(id string, Labels map[string]string) (sinks.MessageWriter, error) {
	return &MessageWriter{ar}, nil
}

// Close ends the awk program's input and waits for it to finish. The exit
// status given by the program is returned.
func (ar *AWK) Close() (int, error) {
	ar.Lock()
	if err := ar.bw.Flush(); err != nil && ar.err == nil && err != io.ErrClosedPipe {
		ar.err = err
	}
	ar.pw.Close()
	ar.Unlock()

	<-ar.done

	ar.Lock()
	defer ar.Unlock()
	return ar.status, ar.err
}

type MessageWriter struct {
	ar *AWK
}

func (o *MessageWriter) WriteMessage(ctx context.Context, l *logline.Line) error {
	o.ar.Lock()
	defer o.ar.Unlock()

	if _, err := o.ar.bw.WriteString(l.Text); err != nil {
		return o.writeErr(err)
	}
	if err := o.ar.bw.WriteByte('\n'); err != nil {
		return o.writeErr(err)
	}
	return nil
}

// writeErr hides the pipe closing when the program exits early, awk is
// allowed to stop reading.
func (o *MessageWriter) writeErr(err error) error {
	if err == io.ErrClosedPipe {
		return nil
	}
	return err
}

func (o *MessageWriter) Close() error {
	return nil
}
