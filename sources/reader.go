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

package sources

import (
	"context"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/Caelrith/loglens-core/logline"
	"github.com/Caelrith/loglens-core/sinks"
	"github.com/cloudflare/backoff"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

var (
	lineCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "loglens_reader_read_lines_total",
		Help: "Counter of total lines read since process start.",
	}, []string{"loglens_source"})
	bytesCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "loglens_reader_read_bytes_total",
		Help: "Counter of total bytes read since process start.",
	}, []string{"loglens_source"})
	sourcesActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "loglens_reader_active_sources",
		Help: "Gauge of number of active sources.",
	})
	sourcesOpened = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "loglens_reader_opened_sources_total",
		Help: "Counter of number of sources since process start.",
	})
)

func init() {
	prometheus.MustRegister(lineCount)
	prometheus.MustRegister(bytesCount)
	prometheus.MustRegister(sourcesActive)
	prometheus.MustRegister(sourcesOpened)
}

type readOpts struct {
	concurrency   int
	existingStart bool
}

// ReadOption configures ReadAllTargets.
type ReadOption func(*readOpts)

// WithConcurrency limits how many targets are read at once. n <= 0 means
// no limit, which a source that follows streams forever needs.
func WithConcurrency(n int) ReadOption {
	return func(o *readOpts) {
		o.concurrency = n
	}
}

// WithExistingFromStart reads the targets found by the first call to Next
// from their beginning, rather than their current end. Targets found
// later are always read from the start.
func WithExistingFromStart(b bool) ReadOption {
	return func(o *readOpts) {
		o.existingStart = b
	}
}

// ReadAllTargets drains a source of log data into snk. It returns once the
// source has reported io.EOF and every target has been read, or once ctx
// is cancelled. The first error reading or writing any target stops all of
// them and is returned.
func ReadAllTargets(ctx context.Context, snk sinks.Sinker, src Sourcer, opts ...ReadOption) error {
	ro := readOpts{}
	for _, o := range opts {
		o(&ro)
	}

	g, gctx := errgroup.WithContext(ctx)
	if ro.concurrency > 0 {
		g.SetLimit(ro.concurrency)
	}

	targets := &targetSet{
		Sourcer: src,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	defer targets.cancelAll()

	existing, err := src.Next(gctx)
	if err != nil && err != io.EOF {
		return err
	}

	for _, u := range existing {
		if glog.V(2) {
			glog.Infof("Found pre-existing target: %#v", *u)
		}
		u := u
		g.Go(func() error { return targets.addSource(gctx, snk, u, ro.existingStart) })
	}

	for err == nil {
		var us []*Update
		us, err = src.Next(gctx)
		if err != nil {
			break
		}
		for _, u := range us {
			switch u.Action {
			case Remove:
				if glog.V(2) {
					glog.Infof("Removing target: %#v", *u)
				}
				targets.cancelTarget(u.Target)
			case Add:
				if glog.V(2) {
					glog.Infof("Found new target: %#v", *u)
				}
				u := u
				g.Go(func() error { return targets.addSource(gctx, snk, u, true) })
			}
		}
	}

	switch {
	case err == io.EOF, gctx.Err() != nil:
		// listing finished, or cancelled by the caller or a failed target
	default:
		targets.cancelAll()
		g.Wait()
		return err
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if ctx.Err() == context.Canceled {
		return nil
	}
	return ctx.Err()
}

func (ts *targetSet) addSource(ctx context.Context, snk sinks.Sinker, u *Update, fromStart bool) error {
	b := backoff.New(10*time.Second, 1*time.Second)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		streamID := ts.newStreamID()
		w, err := snk.AddSource(streamID, u.Labels)
		if err == sinks.ErrRejected {
			if glog.V(2) {
				glog.Infof("target rejected by sink: %#v", *u)
			}
			return nil
		}
		if err != nil {
			if glog.V(2) {
				glog.Errorf("addsource error: %#v , %v", *u, err)
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(b.Duration()):
			}
			continue
		}

		err = ts.readAllFromTarget(ctx, w, streamID, u, fromStart)
		if err == nil || errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
}

func (ts *targetSet) readAllFromTarget(ctx context.Context, w sinks.MessageWriter, streamID string, u *Update, fromStart bool) error {
	sourcesOpened.Inc()
	sourcesActive.Inc()
	defer sourcesActive.Dec()

	fctx := ts.setTarget(ctx, u.Target)
	defer w.Close()
	lineid := uint64(1)
	srcName := u.Labels["source"]

	r, err := ts.ReadTarget(fctx, u.Target, fromStart)
	if err != nil {
		return errors.Wrapf(err, "opening %s", u.Target)
	}
	if c, ok := r.(io.Closer); ok {
		defer c.Close()
	}

	for {
		l, err := r.MessageRead(fctx)
		if err == io.EOF {
			if glog.V(2) {
				glog.Infof("Stream ended %v", u.Target)
			}
			return err
		}
		if err != nil {
			if fctx.Err() != nil {
				return context.Canceled
			}
			return errors.Wrapf(err, "reading %s", u.Target)
		}

		lineCount.WithLabelValues(srcName).Inc()
		bytesCount.WithLabelValues(srcName).Add(float64(len(l.Text)))
		l.StreamID = streamID
		l.Index = lineid
		lineid++
		if l.Labels == nil {
			l.Labels = u.Labels
		}
		if l.Time.IsZero() {
			l.Time = time.Now()
		}
		if err := w.WriteMessage(fctx, l); err != nil {
			return err
		}
	}
}

type targetSet struct {
	Sourcer

	sync.Mutex
	entropy io.Reader
	cfs     map[string]context.CancelFunc
}

func (ts *targetSet) newStreamID() string {
	ts.Lock()
	defer ts.Unlock()
	return logline.NewStreamID(time.Now(), ts.entropy)
}

func (ts *targetSet) setTarget(ctx context.Context, id string) context.Context {
	fctx, cf := context.WithCancel(ctx)

	ts.Lock()
	defer ts.Unlock()
	if ts.cfs == nil {
		ts.cfs = map[string]context.CancelFunc{}
	}

	ts.cfs[id] = cf
	return fctx
}

func (ts *targetSet) cancelTarget(id string) {
	ts.Lock()
	defer ts.Unlock()

	if cf, ok := ts.cfs[id]; ok {
		delete(ts.cfs, id)
		cf()
	}
}

func (ts *targetSet) cancelAll() {
	ts.Lock()
	defer ts.Unlock()
	for _, cf := range ts.cfs {
		cf()
	}
}
