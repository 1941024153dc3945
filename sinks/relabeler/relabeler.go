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

// Package relabeler provides a sink that rewrites stream and line labels
// before passing them on.
package relabeler

import (
	"context"

	"github.com/Caelrith/loglens-core/logline"
	"github.com/Caelrith/loglens-core/relabel"
	"github.com/Caelrith/loglens-core/sinks"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	relabelDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "loglens_sink_relabeler_duration_seconds",
		Help:    "Histogram of time spent relabeling.",
		Buckets: prometheus.ExponentialBuckets(0.00001, 10, 5),
	})
	relabelLineDrops = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "loglens_sink_relabeler_line_drops_total",
		Help: "Counter of total number of lines dropped by relabeling.",
	}, []string{"loglens_source"})
	relabelStreamDrops = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "loglens_sink_relabeler_stream_drops_total",
		Help: "Counter of total number of streams dropped by relabeling.",
	}, []string{"loglens_source"})
)

func init() {
	prometheus.MustRegister(relabelDuration)
	prometheus.MustRegister(relabelLineDrops)
	prometheus.MustRegister(relabelStreamDrops)
}

// Relabeler is a sink that runs all new streams and lines through a set
// of relabel rules.
type Relabeler struct {
	nextSink                sinks.Sinker
	streamRules, lineRules relabel.Config
}

// New creates a new Relabeler. Either set of rules may be empty.
func New(nextSink sinks.Sinker, streamRules, lineRules relabel.Config) *Relabeler {
	return &Relabeler{nextSink, streamRules, lineRules}
}

// AddSource implements sinks.Sinker for the Relabeler sink. Streams the
// stream rules reject are refused with sinks.ErrRejected.
func (o *Relabeler) AddSource(id string, Labels map[string]string) (sinks.MessageWriter, error) {
	if len(o.streamRules) != 0 {
		l := &logline.Line{Labels: Labels}
		t := prometheus.NewTimer(relabelDuration)
		ok := o.streamRules.Relabel(l)
		t.ObserveDuration()
		if !ok {
			relabelStreamDrops.WithLabelValues(Labels["source"]).Inc()
			return nil, sinks.ErrRejected
		}
		Labels = l.Labels
	}

	mw, err := o.nextSink.AddSource(id, Labels)
	if err != nil {
		return nil, err
	}

	return &MessageWriter{
		cfg:    o,
		mw:     mw,
		labels: Labels,
	}, nil
}

// MessageWriter is a message writer implementation for the Relabeler sink
type MessageWriter struct {
	cfg    *Relabeler
	mw     sinks.MessageWriter
	labels map[string]string
}

// WriteMessage implements the MessageWriter interface for the relabeler
// sink. Lines carry the relabeled stream labels onward.
func (o *MessageWriter) WriteMessage(ctx context.Context, l *logline.Line) error {
	l.Labels = o.labels
	if len(o.cfg.lineRules) != 0 {
		t := prometheus.NewTimer(relabelDuration)
		ok := o.cfg.lineRules.Relabel(l)
		t.ObserveDuration()
		if !ok {
			relabelLineDrops.WithLabelValues(o.labels["source"]).Inc()
			return nil
		}
	}
	return o.mw.WriteMessage(ctx, l)
}

// Close implements Close() for the relabeler MessageWriter
func (o *MessageWriter) Close() error {
	return o.mw.Close()
}
