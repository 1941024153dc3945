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

package check

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/Caelrith/loglens-core/cmd/loglens/root"
	"github.com/Caelrith/loglens-core/config"
)

func TestRun(t *testing.T) {
	cfg, err := config.Parse([]byte("queries:\n  errors: level == error\n"))
	if err != nil {
		t.Fatal(err)
	}
	root.Config = cfg
	defer func() { root.Config = &config.Config{} }()

	tests := []struct {
		args []string
		in   string
		exp  string
		err  error
	}{
		{
			args: []string{"level == error", `{"level":"error"}`},
			exp:  `{"is_match":true,"parsed_log":{"level":"error"},"error":null}` + "\n",
		},
		{
			args: []string{"@errors"},
			in:   "level=error msg=x\r\nlevel=info msg=y",
			exp: `{"is_match":true,"parsed_log":{"level":"error","msg":"x"},"error":null}` + "\n" +
				`{"is_match":false,"parsed_log":{"level":"info","msg":"y"},"error":null}` + "\n",
		},
		{
			args: []string{"level == error", "just text"},
			exp:  `{"is_match":false,"parsed_log":null,"error":"Could not parse log structure. Is it valid JSON or Logfmt?"}` + "\n",
			err:  root.ErrNoMatch,
		},
	}

	for i, tt := range tests {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			out := &bytes.Buffer{}
			err := run(strings.NewReader(tt.in), out, tt.args)
			if err != tt.err {
				t.Fatalf("expected err = %v, got %v", tt.err, err)
			}
			if out.String() != tt.exp {
				t.Fatalf("unexpected output\nexp = %q\ngot = %q", tt.exp, out.String())
			}
		})
	}

	if err := run(strings.NewReader(""), &bytes.Buffer{}, []string{"@nosuch"}); err == nil {
		t.Fatalf("expected an error for an unknown saved query")
	}
}
