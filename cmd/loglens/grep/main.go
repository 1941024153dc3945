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

// Package grep implements the loglens grep command.
package grep

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"syscall"
	"time"

	"github.com/Caelrith/loglens-core/cmd/loglens/root"
	"github.com/Caelrith/loglens-core/logline"
	"github.com/Caelrith/loglens-core/sinks"
	"github.com/Caelrith/loglens-core/sinks/awk"
	"github.com/Caelrith/loglens-core/sinks/devnull"
	"github.com/Caelrith/loglens-core/sinks/filter"
	"github.com/Caelrith/loglens-core/sinks/relabeler"
	"github.com/Caelrith/loglens-core/sinks/stdout"
	"github.com/Caelrith/loglens-core/sources"
	"github.com/Caelrith/loglens-core/sources/file"
	"github.com/Caelrith/loglens-core/sources/filesystem"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Flags
var (
	follow     bool
	fromStart  bool
	poll       bool
	recursive  bool
	name       string
	format     string
	awkProg    string
	awkFS      string
	count      bool
	invert     bool
	since      cliTime
	until      cliTime
	showLabels bool
	selector   string
	parallel   int
	statsAddr  string
)

func init() {
	root.RootCmd.AddCommand(grepCmd)

	grepCmd.Flags().BoolVarP(&follow, "follow", "f", false, "follow files as they grow, and directories for new files")
	grepCmd.Flags().BoolVar(&fromStart, "from-start", false, "when following, read files already present from the start")
	grepCmd.Flags().BoolVar(&poll, "poll", false, "when following, poll files rather than use inotify")
	grepCmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "recur into directories")
	grepCmd.Flags().StringVar(&name, "name", "", "only read files in directories whose name matches this regexp")
	grepCmd.Flags().StringVar(&format, "fmt", stdout.DefaultFormat, "Go template to use to format each output line")
	grepCmd.Flags().StringVar(&awkProg, "awk", "", "awk program to pass matching lines through")
	grepCmd.Flags().StringVar(&awkFS, "awk.fs", "", "field separator for the awk program")
	grepCmd.Flags().BoolVarP(&count, "count", "c", false, "only print the number of matching lines")
	grepCmd.Flags().BoolVarP(&invert, "invert", "v", false, "print lines that do not match")
	grepCmd.Flags().Var(&since, "since", "drop lines with a timestamp before this time (e.g. 1h, now-30m, RFC3339)")
	grepCmd.Flags().Var(&until, "until", "drop lines with a timestamp after this time")
	grepCmd.Flags().BoolVar(&showLabels, "showlabels", false, "print the labels of each stream before its lines")
	grepCmd.Flags().StringVar(&selector, "select", "", "only read streams with these labels, e.g. source=stdin")
	grepCmd.Flags().IntVar(&parallel, "parallel", 1, "number of files to scan at once, output order is only kept with 1")
	grepCmd.Flags().StringVar(&statsAddr, "stats.addr", "", "address to serve prometheus metrics on")
}

var grepCmd = &cobra.Command{
	Use:   "grep [flags] QUERY [FILE...]",
	Short: "grep prints the log lines matching a query",
	Long: `grep reads each file (standard input when none are given, or for
"-") and prints the lines that match QUERY. A QUERY of the form @name is
replaced by the saved query of that name from the config file.`,
	Example: `loglens grep 'level == error && num(duration) > 2' app.log
loglens grep -f --name '\.log$' -r 'status >= 500' /var/log/nginx`,
	Args: cobra.MinimumNArgs(1),
	RunE: run,
}

// applyConfig fills in flags the user did not set from the config file.
func applyConfig(cmd *cobra.Command) error {
	cfg := root.Config
	if !cmd.Flags().Changed("fmt") && cfg.Format != "" {
		format = cfg.Format
	}
	if !cmd.Flags().Changed("showlabels") && cfg.ShowLabels {
		showLabels = true
	}
	if !cmd.Flags().Changed("since") && cfg.Since != "" {
		if err := since.Set(cfg.Since); err != nil {
			return err
		}
	}
	if !cmd.Flags().Changed("until") && cfg.Until != "" {
		if err := until.Set(cfg.Until); err != nil {
			return err
		}
	}
	return nil
}

// output builds the sink that matching lines end up in. finish must be
// called once reading is done.
func output(w io.Writer) (snk sinks.Sinker, finish func() error, err error) {
	switch {
	case count:
		dn := &devnull.DevNull{}
		return dn, func() error {
			_, err := fmt.Fprintln(w, dn.Count())
			return err
		}, nil
	case awkProg != "":
		ar, err := awk.New(awkProg, awkFS, w)
		if err != nil {
			return nil, nil, err
		}
		return ar, func() error {
			status, err := ar.Close()
			if err != nil {
				return err
			}
			if status != 0 {
				return errors.Errorf("awk exited with status %d", status)
			}
			return nil
		}, nil
	default:
		so, err := stdout.New(w, format, showLabels)
		if err != nil {
			return nil, nil, err
		}
		return so, func() error { return nil }, nil
	}
}

func run(cmd *cobra.Command, args []string) error {
	query, err := root.Config.Expand(args[0])
	if err != nil {
		return err
	}
	paths := args[1:]

	if err := applyConfig(cmd); err != nil {
		return err
	}

	var nameRe *regexp.Regexp
	if name != "" {
		if nameRe, err = regexp.Compile(name); err != nil {
			return errors.Wrap(err, "could not compile --name regexp")
		}
	}

	sel, err := logline.CompileSelector(selector)
	if err != nil {
		return err
	}

	out, finish, err := output(os.Stdout)
	if err != nil {
		return err
	}

	flt, err := filter.New(out, query,
		filter.WithWindow(time.Time(since), time.Time(until)),
		filter.WithInvert(invert),
		filter.WithLenient(follow),
		filter.WithSelector(sel),
	)
	if err != nil {
		return err
	}
	snk := relabeler.New(flt, root.Config.StreamRules, root.Config.LineRules)

	if statsAddr != "" {
		http.Handle("/metrics", promhttp.Handler())
		go func() {
			glog.Error(http.ListenAndServe(statsAddr, nil))
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if follow {
		err = runFollow(ctx, snk, paths, nameRe)
	} else {
		err = runStatic(ctx, snk, paths, nameRe)
	}
	if ferr := finish(); err == nil {
		err = ferr
	}
	if err != nil {
		return err
	}

	if glog.V(1) {
		glog.Infof("%d lines matched", flt.Matched())
	}
	if flt.Matched() == 0 {
		return root.ErrNoMatch
	}
	return nil
}

func runFollow(ctx context.Context, snk sinks.Sinker, paths []string, nameRe *regexp.Regexp) error {
	if len(paths) == 0 {
		return errors.New("--follow needs at least one file or directory")
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range paths {
		w := filesystem.New(p, nameRe, recursive)
		w.Poll = poll
		glog.V(1).Infof("following %s", w)
		g.Go(func() error {
			return sources.ReadAllTargets(gctx, snk, w, sources.WithExistingFromStart(fromStart))
		})
	}
	return g.Wait()
}

func runStatic(ctx context.Context, snk sinks.Sinker, paths []string, nameRe *regexp.Regexp) error {
	files, err := expandPaths(paths, nameRe)
	if err != nil {
		return err
	}
	return sources.ReadAllTargets(ctx, snk, file.New(files...), sources.WithConcurrency(parallel))
}

// expandPaths replaces directories with the files in them, in lexical
// order. Only files whose names match nameRe are taken from directories,
// files named directly are always read.
func expandPaths(paths []string, nameRe *regexp.Regexp) ([]string, error) {
	var files []string
	for _, p := range paths {
		if p == file.Stdin {
			files = append(files, p)
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}

		err = filepath.Walk(p, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				if path != p && !recursive {
					return filepath.SkipDir
				}
				return nil
			}
			if nameRe != nil && !nameRe.MatchString(info.Name()) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	if len(paths) != 0 && len(files) == 0 {
		return nil, errors.New("no files to read")
	}
	return files, nil
}
