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
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/algorand/nodetrace/logging"
	"github.com/algorand/nodetrace/util/metrics"
)

// maxConsecutiveFailures is how many writes in a row may fail before a sink is degraded.
const maxConsecutiveFailures = 3

// sinkWorker owns one sink and feeds it from a bounded queue. Emitters never
// block on it: a full queue drops the incoming record.
type sinkWorker struct {
	sink  Sink
	log   logging.Logger
	queue chan *record

	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	drainCtx context.Context
	closeErr error

	failures int // consecutive, touched only by the worker goroutine
	degraded atomic.Pointer[SinkError]

	dropped      *metrics.TagCounter
	failedWrites *metrics.Counter
}

// barrier is closed once everything queued before it was delivered.
type barrier chan struct{}

func makeSinkWorker(sink Sink, depth int, log logging.Logger, dropped *metrics.TagCounter, failedWrites *metrics.Counter) *sinkWorker {
	return &sinkWorker{
		sink:         sink,
		log:          log.With("sink", sink.Name()),
		queue:        make(chan *record, depth),
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
		dropped:      dropped,
		failedWrites: failedWrites,
	}
}

// enqueue never blocks. It reports ErrQueueOverflow for a dropped record and
// the SinkError of a degraded sink.
func (w *sinkWorker) enqueue(rec *record) error {
	if se := w.degraded.Load(); se != nil {
		return se
	}
	select {
	case w.queue <- rec:
		return nil
	default:
		w.dropped.Add(w.sink.Name(), 1)
		return ErrQueueOverflow
	}
}

// sync waits until every record queued before the call has been handled.
func (w *sinkWorker) sync(ctx context.Context) error {
	b := make(barrier)
	select {
	case w.queue <- &record{barrier: b}:
	case <-w.done:
		return ErrSinkClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-b:
		return nil
	case <-w.done:
		return ErrSinkClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *sinkWorker) run() {
	defer close(w.done)
	for {
		select {
		case rec := <-w.queue:
			w.handle(rec)
			if len(w.queue) == 0 {
				w.flush()
			}
		case <-w.quit:
			w.drain()
			err := w.sink.close()
			if w.degraded.Load() == nil {
				w.closeErr = err
			}
			return
		}
	}
}

// drain handles what is still queued until the queue is empty or the shutdown
// context expires. Records left behind are counted as dropped.
func (w *sinkWorker) drain() {
	for {
		select {
		case rec := <-w.queue:
			if w.drainCtx.Err() != nil {
				if rec.barrier == nil {
					w.dropped.Add(w.sink.Name(), 1)
				}
				continue
			}
			w.handle(rec)
		default:
			w.flush()
			return
		}
	}
}

func (w *sinkWorker) handle(rec *record) {
	if rec.barrier != nil {
		w.flush()
		close(rec.barrier)
		return
	}
	if w.degraded.Load() != nil {
		return
	}
	err := w.sink.deliver(rec)
	if err == nil {
		w.failures = 0
		return
	}
	w.fail(err)
}

func (w *sinkWorker) flush() {
	if w.degraded.Load() != nil {
		return
	}
	if err := w.sink.flush(); err != nil {
		w.fail(err)
	}
}

func (w *sinkWorker) fail(err error) {
	w.failedWrites.Inc(map[string]string{"sink": w.sink.Name()})
	w.failures++

	var se *SinkError
	if !errors.As(err, &se) {
		se = &SinkError{Sink: w.sink.Name(), Kind: WriteFailed, Err: err}
	}
	if se.Kind != RotationFailed && w.failures < maxConsecutiveFailures {
		w.log.Warnf("tracing sink write failed (%d in a row): %v", w.failures, err)
		return
	}
	w.degraded.Store(se)
	w.log.Errorf("tracing sink degraded, its events are discarded from now on: %v", se)
}

// stop asks the worker to drain and close its sink, and waits for it until ctx expires.
func (w *sinkWorker) stop(ctx context.Context) error {
	w.stopOnce.Do(func() {
		w.drainCtx = ctx
		close(w.quit)
	})
	select {
	case <-w.done:
		return w.closeErr
	case <-ctx.Done():
		return fmt.Errorf("sink %s did not drain: %w", w.sink.Name(), ctx.Err())
	}
}
