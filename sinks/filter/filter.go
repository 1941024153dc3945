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

// Package filter provides a sink that forwards only the lines matching a
// query.
package filter

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/Caelrith/loglens-core/logline"
	"github.com/Caelrith/loglens-core/parsers"
	"github.com/Caelrith/loglens-core/ql"
	"github.com/Caelrith/loglens-core/sinks"
	"github.com/Caelrith/loglens-core/timeexpr"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

var (
	matchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "loglens_sink_filter_duration_seconds",
		Help:    "Histogram of time spent parsing and matching lines.",
		Buckets: prometheus.ExponentialBuckets(0.000001, 10, 6),
	})
	linesMatched = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "loglens_sink_filter_matched_lines_total",
		Help: "Counter of lines passed on by the filter.",
	})
	linesDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "loglens_sink_filter_dropped_lines_total",
		Help: "Counter of lines dropped by the filter.",
	}, []string{"reason"})
	lineErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "loglens_sink_filter_errors_total",
		Help: "Counter of lines the query could not be applied to.",
	})
	linesByFormat = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "loglens_sink_filter_parsed_lines_total",
		Help: "Counter of lines seen, by detected format.",
	}, []string{"format"})
	streamsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "loglens_sink_filter_stream_drops_total",
		Help: "Counter of streams rejected by the label selector.",
	})
)

func init() {
	prometheus.MustRegister(matchDuration)
	prometheus.MustRegister(linesMatched)
	prometheus.MustRegister(linesDropped)
	prometheus.MustRegister(lineErrors)
	prometheus.MustRegister(linesByFormat)
	prometheus.MustRegister(streamsDropped)
}

var warnLimiter = rate.NewLimiter(rate.Every(1*time.Second), 5)

// Filter parses each line written to it and passes the ones that match a
// query on to the next sink.
type Filter struct {
	nextSink sinks.Sinker
	match    ql.MatchFunc
	selector logline.LabelMatchFunc

	since, until time.Time
	invert       bool
	lenient      bool

	matched uint64
}

// Option configures a Filter.
type Option func(*Filter)

// WithWindow only passes lines whose timestamp is within since and until,
// inclusive. A zero time leaves that end open. When either end is set,
// lines without a timestamp are dropped.
func WithWindow(since, until time.Time) Option {
	return func(f *Filter) {
		f.since, f.until = since, until
	}
}

// WithInvert passes the lines that do not match instead.
func WithInvert(invert bool) Option {
	return func(f *Filter) {
		f.invert = invert
	}
}

// WithLenient logs lines the query could not be applied to and carries
// on, rather than failing the stream.
func WithLenient(lenient bool) Option {
	return func(f *Filter) {
		f.lenient = lenient
	}
}

// WithSelector rejects whole streams whose labels do not match.
func WithSelector(sel logline.LabelMatchFunc) Option {
	return func(f *Filter) {
		f.selector = sel
	}
}

// New compiles query and returns a filter in front of nextSink.
func New(nextSink sinks.Sinker, query string, opts ...Option) (*Filter, error) {
	mf, err := ql.Compile(query)
	if err != nil {
		return nil, err
	}
	f := &Filter{nextSink: nextSink, match: mf}
	for _, o := range opts {
		o(f)
	}
	return f, nil
}

// Matched returns the number of lines passed on so far.
func (f *Filter) Matched() uint64 {
	return atomic.LoadUint64(&f.matched)
}

func (f *Filter) AddSource(id string, Labels map[string]string) (sinks.MessageWriter, error) {
	if f.selector != nil && !f.selector(Labels) {
		streamsDropped.Inc()
		return nil, sinks.ErrRejected
	}
	mw, err := f.nextSink.AddSource(id, Labels)
	if err != nil {
		return nil, err
	}
	return &MessageWriter{f: f, mw: mw}, nil
}

type MessageWriter struct {
	f  *Filter
	mw sinks.MessageWriter
}

func (o *MessageWriter) WriteMessage(ctx context.Context, l *logline.Line) error {
	ok, err := o.f.accept(l)
	if err != nil {
		lineErrors.Inc()
		if !o.f.lenient {
			return errors.Wrapf(err, "%s line %d", l.Labels["filename"], l.Index)
		}
		if warnLimiter.Allow() {
			glog.Warningf("%s line %d: %v", l.Labels["filename"], l.Index, err)
		}
		return nil
	}
	if !ok {
		return nil
	}

	atomic.AddUint64(&o.f.matched, 1)
	linesMatched.Inc()
	return o.mw.WriteMessage(ctx, l)
}

func (o *MessageWriter) Close() error {
	return o.mw.Close()
}

func (f *Filter) windowed() bool {
	return !f.since.IsZero() || !f.until.IsZero()
}

// accept parses l, filling in its Format and Value, and decides whether
// it should be passed on.
func (f *Filter) accept(l *logline.Line) (bool, error) {
	t := prometheus.NewTimer(matchDuration)
	defer t.ObserveDuration()

	e := parsers.Parse(l.Text)
	l.Format, l.Value = e.Format, e.Value
	linesByFormat.WithLabelValues(e.Format.String()).Inc()

	if lt, ok := timeexpr.Extract(l.Value); ok {
		l.Time = lt
		if f.windowed() && !f.inWindow(lt) {
			linesDropped.WithLabelValues("window").Inc()
			return false, nil
		}
	} else if f.windowed() {
		linesDropped.WithLabelValues("untimed").Inc()
		return false, nil
	}

	ok, err := f.match(l.Value, l.Text)
	if err != nil {
		return false, err
	}
	if ok == f.invert {
		linesDropped.WithLabelValues("query").Inc()
		return false, nil
	}
	return true, nil
}

func (f *Filter) inWindow(t time.Time) bool {
	if !f.since.IsZero() && t.Before(f.since) {
		return false
	}
	if !f.until.IsZero() && t.After(f.until) {
		return false
	}
	return true
}
