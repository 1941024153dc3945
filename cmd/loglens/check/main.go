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

// Package check implements the loglens check command.
package check

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/Caelrith/loglens-core"
	"github.com/Caelrith/loglens-core/cmd/loglens/root"
	"github.com/spf13/cobra"
)

var pretty bool

func init() {
	root.RootCmd.AddCommand(checkCmd)

	checkCmd.Flags().BoolVar(&pretty, "pretty", false, "indent the JSON output")
}

var checkCmd = &cobra.Command{
	Use:   "check QUERY [LINE...]",
	Short: "check shows how a query treats individual lines",
	Long: `check parses each LINE (or each line of standard input when none are
given), runs QUERY against it and prints the outcome as JSON, with the
parsed form of the line and any error.`,
	Example: `loglens check 'level == error' '{"level":"error","msg":"boom"}'`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(os.Stdin, os.Stdout, args)
	},
}

func run(in io.Reader, out io.Writer, args []string) error {
	query, err := root.Config.Expand(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	if pretty {
		enc.SetIndent("", "  ")
	}

	matched := false
	check := func(line string) error {
		res := loglens.RunQuery(line, query)
		matched = matched || res.Match
		return enc.Encode(res)
	}

	if len(args) > 1 {
		for _, line := range args[1:] {
			if err := check(line); err != nil {
				return err
			}
		}
	} else {
		br := bufio.NewReader(in)
		for {
			line, err := br.ReadString('\n')
			if line != "" {
				if cerr := check(strings.TrimRight(line, "\r\n")); cerr != nil {
					return cerr
				}
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
		}
	}

	if !matched {
		return root.ErrNoMatch
	}
	return nil
}
