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

// Package root holds the top level loglens command that the other
// commands register themselves with.
package root

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/Caelrith/loglens-core/config"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// ErrNoMatch is returned by commands that found nothing, it exits with
// status 1 rather than 2.
var ErrNoMatch = errors.New("no lines matched")

var (
	cfgFile   string
	verbosity int

	// Config is loaded before any command runs.
	Config = &config.Config{}
)

// RootCmd is the base loglens command.
var RootCmd = &cobra.Command{
	Use:   "loglens",
	Short: "loglens searches structured and unstructured logs",
	Long: `loglens matches log lines against a small query language. JSON,
logfmt and access log lines are parsed so that queries can refer to
their fields, anything else can still be searched as text.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/"+config.DefaultFile+" if present)")
	RootCmd.PersistentFlags().IntVar(&verbosity, "verbosity", 0, "log verbosity, as glog's -v")
}

func setup(cmd *cobra.Command, args []string) error {
	flag.Set("logtostderr", "true")
	flag.Set("v", strconv.Itoa(verbosity))
	flag.CommandLine.Parse(nil)
	glog.CopyStandardLogTo("INFO")

	cfg, err := config.LoadDefault(cfgFile)
	if err != nil {
		return err
	}
	Config = cfg
	return nil
}

// Execute runs the command line and returns the exit status.
func Execute() int {
	err := RootCmd.Execute()
	switch {
	case err == nil:
		return 0
	case errors.Cause(err) == ErrNoMatch:
		return 1
	}
	fmt.Fprintf(os.Stderr, "loglens: %v\n", err)
	return 2
}
