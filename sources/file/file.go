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

// Package file reads a fixed list of files once, from start to end.
// Gzip and zstd compressed files are decompressed transparently.
package file

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"strings"

	"github.com/Caelrith/loglens-core/logline"
	"github.com/Caelrith/loglens-core/sources"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// Stdin is the path that names standard input.
const Stdin = "-"

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Files is a source for a list of paths that does not change.
type Files struct {
	Paths []string
	Stdin io.Reader // used for "-", os.Stdin if nil

	listed bool
}

// New creates a source for paths. No paths means standard input.
func New(paths ...string) *Files {
	if len(paths) == 0 {
		paths = []string{Stdin}
	}
	return &Files{Paths: paths}
}

// Next lists every path on the first call, and returns io.EOF after that.
func (fs *Files) Next(ctx context.Context) ([]*sources.Update, error) {
	if fs.listed {
		return nil, io.EOF
	}
	fs.listed = true

	us := make([]*sources.Update, 0, len(fs.Paths))
	for _, p := range fs.Paths {
		labels := map[string]string{"filename": p, "source": "file"}
		if p == Stdin {
			labels = map[string]string{"filename": "(stdin)", "source": "stdin"}
		}
		us = append(us, &sources.Update{Action: sources.Add, Target: p, Labels: labels})
	}
	return us, nil
}

// ReadTarget opens a path for reading. fromStart is ignored, files are
// always read in full.
func (fs *Files) ReadTarget(ctx context.Context, fn string, fromStart bool) (sources.MessageReader, error) {
	if fn == Stdin {
		in := fs.Stdin
		if in == nil {
			in = os.Stdin
		}
		return newReader(in, nil, "(stdin)")
	}

	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	r, err := newReader(f, f, fn)
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

// MessageReader reads one line at a time, lines may be of any length.
type MessageReader struct {
	br      *bufio.Reader
	closers []io.Closer
	err     error
}

func newReader(r io.Reader, c io.Closer, name string) (*MessageReader, error) {
	mr := &MessageReader{}
	if c != nil {
		mr.closers = append(mr.closers, c)
	}

	br := bufio.NewReaderSize(r, 64*1024)
	magic, _ := br.Peek(4)
	switch {
	case bytes.HasPrefix(magic, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, errors.Wrapf(err, "reading gzip header of %s", name)
		}
		mr.closers = append([]io.Closer{zr}, mr.closers...)
		br = bufio.NewReaderSize(zr, 64*1024)
	case bytes.HasPrefix(magic, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, errors.Wrapf(err, "reading zstd header of %s", name)
		}
		mr.closers = append([]io.Closer{zr.IOReadCloser()}, mr.closers...)
		br = bufio.NewReaderSize(zr, 64*1024)
	case strings.HasSuffix(name, ".gz"), strings.HasSuffix(name, ".zst"):
		if len(magic) > 0 {
			return nil, errors.Errorf("%s is not compressed as its name suggests", name)
		}
	}
	mr.br = br
	return mr, nil
}

func (mr *MessageReader) MessageRead(ctx context.Context) (*logline.Line, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if mr.err != nil {
		return nil, mr.err
	}

	text, err := mr.br.ReadString('\n')
	if err != nil {
		if err != io.EOF {
			return nil, err
		}
		// a final line with no newline is still a line
		mr.err = io.EOF
		if text == "" {
			return nil, io.EOF
		}
	}

	text = strings.TrimSuffix(text, "\n")
	text = strings.TrimSuffix(text, "\r")
	return &logline.Line{Text: text}, nil
}

// Close releases the decompressor and file, standard input is left open.
func (mr *MessageReader) Close() error {
	var err error
	for _, c := range mr.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
