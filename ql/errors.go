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
	"fmt"

	"github.com/pkg/errors"
)

// ErrInvalidFormat is the cause of every error produced while compiling or
// matching a query.
var ErrInvalidFormat = errors.New("invalid query format")

// FormatError provides details of a condition that could not be
// interpreted.
type FormatError struct {
	Text   string // the offending condition
	Reason string
}

func (err *FormatError) Error() string {
	if err.Reason == "" {
		return fmt.Sprintf("%v: '%s'", ErrInvalidFormat, err.Text)
	}
	return fmt.Sprintf("%v: '%s': %s", ErrInvalidFormat, err.Text, err.Reason)
}

// Cause lets errors.Cause find ErrInvalidFormat.
func (err *FormatError) Cause() error {
	return ErrInvalidFormat
}

func (err *FormatError) Unwrap() error {
	return ErrInvalidFormat
}

func invalidf(text string, format string, args ...interface{}) error {
	return &FormatError{Text: text, Reason: fmt.Sprintf(format, args...)}
}
