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
	"errors"
	"time"

	"github.com/algorand/nodetrace/tracing/tracespec"
	"github.com/algorand/nodetrace/util/metrics"
)

// MetricsViewName is the sink name of the EKGViewBK backend.
const MetricsViewName = "EKGViewBK"

var errRawToView = errors.New("the metrics view only accepts events")

// MetricsView is the in-memory sink behind the EKGViewBK backend. It counts the
// events of every namespace and keeps the last value of each numeric field.
type MetricsView struct {
	events *metrics.Counter
	values *metrics.Gauge
}

func makeMetricsView(reg *metrics.Registry) *MetricsView {
	mv := &MetricsView{
		events: metrics.MakeCounterUnregistered(metrics.TracingViewEvents),
		values: metrics.MakeGaugeUnregistered(metrics.TracingViewValue),
	}
	mv.events.Register(reg)
	mv.values.Register(reg)
	return mv
}

// Name implements Sink.
func (mv *MetricsView) Name() string {
	return MetricsViewName
}

func (mv *MetricsView) deliver(rec *record) error {
	if rec.ev == nil {
		return &SinkError{Sink: MetricsViewName, Kind: WriteFailed, Err: errRawToView}
	}
	ns := string(rec.ev.Namespace)
	mv.events.Inc(map[string]string{"namespace": ns})
	for field, v := range rec.ev.Fields {
		if f, ok := numericValue(v); ok {
			mv.values.Set(f, map[string]string{"namespace": ns, "field": field})
		}
	}
	return nil
}

func (mv *MetricsView) flush() error {
	return nil
}

func (mv *MetricsView) close() error {
	return nil
}

// Events returns how many events of ns the view has received.
func (mv *MetricsView) Events(ns tracespec.Namespace) uint64 {
	return mv.events.GetUint64ValueForLabels(map[string]string{"namespace": string(ns)})
}

// Value returns the last numeric value of field seen on an event of ns.
func (mv *MetricsView) Value(ns tracespec.Namespace, field string) (float64, bool) {
	return mv.values.Get(map[string]string{"namespace": string(ns), "field": field})
}

// Snapshot returns every counter and value, keyed by metric name and labels.
func (mv *MetricsView) Snapshot() map[string]float64 {
	out := make(map[string]float64)
	mv.events.AddMetric(out)
	mv.values.AddMetric(out)
	return out
}

// numericValue converts the numeric field types; durations count in seconds.
func numericValue(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case time.Duration:
		return n.Seconds(), true
	default:
		return 0, false
	}
}
