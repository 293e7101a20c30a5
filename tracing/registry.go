// Copyright (C) 2019-2024 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

package tracing

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/algorand/nodetrace/config"
	"github.com/algorand/nodetrace/logging"
	"github.com/algorand/nodetrace/tracing/tracespec"
	"github.com/algorand/nodetrace/util/metrics"
)

// StderrScribeName selects the process standard error for a StdoutSK scribe.
const StderrScribeName = "stderr"

// Registry owns every sink opened at startup together with its worker.
// Sinks are never opened after MakeRegistry returns.
type Registry struct {
	log     logging.Logger
	origin  origin
	metrics *metrics.Registry

	order   []tracespec.ScribeID
	workers map[tracespec.ScribeID]*sinkWorker
	view    *MetricsView
	viewW   *sinkWorker

	dropped   *metrics.TagCounter
	failures  *metrics.Counter
	rotations *metrics.Counter

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// MakeRegistry opens every scribe of cfg.SetupScribes and the metrics view. A file
// scribe that cannot be opened fails the whole registry; the scribes opened
// before it are closed again.
func MakeRegistry(cfg config.Local, log logging.Logger, opts ...Option) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := makeOptions(opts)
	r := &Registry{
		log: log,
		origin: origin{
			host:    o.hostname,
			pid:     os.Getpid(),
			session: uuid.NewString(),
		},
		metrics:   o.metrics,
		workers:   make(map[tracespec.ScribeID]*sinkWorker, len(cfg.SetupScribes)),
		dropped:   metrics.NewTagCounterUnregistered(metrics.TracingSinkDropped.Name, metrics.TracingSinkDropped.Description),
		failures:  metrics.MakeCounterUnregistered(metrics.TracingSinkFailures),
		rotations: metrics.MakeCounterUnregistered(metrics.TracingSinkRotations),
	}

	var opened []Sink
	for _, sc := range cfg.SetupScribes {
		// Validate has checked the kind, the name and the format
		id, _ := sc.ID()
		format, _ := tracespec.ParseScribeFormat(sc.Format)
		sink, err := r.openSink(id, makeFormatter(format, r.origin), cfg.RotationFor(sc), o)
		if err != nil {
			for _, s := range opened {
				s.close()
			}
			return nil, err
		}
		opened = append(opened, sink)
		r.order = append(r.order, id)
		r.workers[id] = makeSinkWorker(sink, cfg.SinkQueueDepth, log, r.dropped, r.failures)
	}
	r.view = makeMetricsView(r.metrics)
	r.viewW = makeSinkWorker(r.view, cfg.SinkQueueDepth, log, r.dropped, r.failures)

	r.metrics.Register(r.dropped)
	r.failures.Register(r.metrics)
	r.rotations.Register(r.metrics)

	for _, w := range r.workers {
		go w.run()
	}
	go r.viewW.run()
	return r, nil
}

func (r *Registry) openSink(id tracespec.ScribeID, format formatter, rot config.RotationConfig, o options) (Sink, error) {
	switch id.Kind {
	case tracespec.FileSK:
		return openFileSink(id, format, rot, r.rotations)
	case tracespec.StdoutSK:
		if id.Name == StderrScribeName {
			return makeStreamSink(id, format, o.stderr), nil
		}
		return makeStreamSink(id, format, o.stdout), nil
	default:
		return nil, fmt.Errorf("%w: %s", tracespec.ErrInvalidScribe, id)
	}
}

// route queues ev on the scribes and the view it resolves to. It never blocks.
func (r *Registry) route(ev *tracespec.Event, p *policy) {
	rec := &record{ev: ev}
	for _, backend := range p.routes.ResolveBackends(ev.Namespace) {
		switch backend {
		case tracespec.KatipBK:
			for _, id := range p.routes.ResolveScribes(ev.Namespace) {
				if w, ok := r.workers[id]; ok {
					w.enqueue(rec)
				}
			}
		case tracespec.EKGViewBK:
			if p.metricsEnabled {
				r.viewW.enqueue(rec)
			}
		}
	}
}

// Write queues a copy of p, unformatted, on the scribe id. Each call is one record.
func (r *Registry) Write(id tracespec.ScribeID, p []byte) error {
	if r.closed.Load() {
		return ErrSinkClosed
	}
	w, ok := r.workers[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSink, id)
	}
	if len(p) == 0 {
		return nil
	}
	return w.enqueue(&record{raw: append([]byte(nil), p...)})
}

// Writer returns an io.Writer over Write, e.g. for redirecting a standard logger.
func (r *Registry) Writer(id tracespec.ScribeID) (io.Writer, error) {
	if _, ok := r.workers[id]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSink, id)
	}
	return scribeWriter{r: r, id: id}, nil
}

type scribeWriter struct {
	r  *Registry
	id tracespec.ScribeID
}

func (sw scribeWriter) Write(p []byte) (int, error) {
	if err := sw.r.Write(sw.id, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Has reports whether the scribe id was set up.
func (r *Registry) Has(id tracespec.ScribeID) bool {
	_, ok := r.workers[id]
	return ok
}

// Sinks lists the scribes in setup order.
func (r *Registry) Sinks() []tracespec.ScribeID {
	return append([]tracespec.ScribeID(nil), r.order...)
}

// Status returns nil for a healthy scribe and the *SinkError that degraded it otherwise.
func (r *Registry) Status(id tracespec.ScribeID) error {
	w, ok := r.workers[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSink, id)
	}
	if se := w.degraded.Load(); se != nil {
		return se
	}
	return nil
}

// Dropped returns how many records the scribe id lost to a full queue.
func (r *Registry) Dropped(id tracespec.ScribeID) uint64 {
	return r.dropped.GetValue(id.String())
}

// ViewDropped returns how many events the metrics view lost to a full queue.
func (r *Registry) ViewDropped() uint64 {
	return r.dropped.GetValue(MetricsViewName)
}

// MetricsView returns the sink of the EKGViewBK backend.
func (r *Registry) MetricsView() *MetricsView {
	return r.view
}

// Metrics returns the registry holding the tracing metrics.
func (r *Registry) Metrics() *metrics.Registry {
	return r.metrics
}

// Session identifies this process run in every record.
func (r *Registry) Session() string {
	return r.origin.session
}

// Sync waits until every record queued so far has reached its sink.
func (r *Registry) Sync(ctx context.Context) error {
	if r.closed.Load() {
		return ErrSinkClosed
	}
	eg, ctx := errgroup.WithContext(ctx)
	for _, w := range r.allWorkers() {
		w := w
		eg.Go(func() error { return w.sync(ctx) })
	}
	return eg.Wait()
}

// Close stops accepting records, drains every queue until ctx expires and
// closes the sinks. Only the first call does the work.
func (r *Registry) Close(ctx context.Context) error {
	r.closeOnce.Do(func() {
		r.closed.Store(true)
		var eg errgroup.Group
		for _, w := range r.allWorkers() {
			w := w
			eg.Go(func() error { return w.stop(ctx) })
		}
		r.closeErr = eg.Wait()
	})
	return r.closeErr
}

func (r *Registry) allWorkers() []*sinkWorker {
	out := make([]*sinkWorker, 0, len(r.order)+1)
	for _, id := range r.order {
		out = append(out, r.workers[id])
	}
	return append(out, r.viewW)
}
