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
	"fmt"

	"github.com/algorand/nodetrace/tracing/tracespec"
)

// Tracer emits the events of one namespace through a Dispatcher. The zero
// value is not usable; get one from Dispatcher.Tracer.
type Tracer struct {
	d      *Dispatcher
	ns     tracespec.Namespace
	fields tracespec.Fields
}

// Tracer returns the emitter for ns.
func (d *Dispatcher) Tracer(ns tracespec.Namespace) Tracer {
	return Tracer{d: d, ns: ns}
}

// Namespace returns the namespace of every event the tracer emits.
func (t Tracer) Namespace() tracespec.Namespace {
	return t.ns
}

// Enabled reports whether an event at sev would be dispatched.
func (t Tracer) Enabled(sev tracespec.Severity) bool {
	return t.d.Enabled(t.ns, sev)
}

// With returns a tracer adding fields to every event.
func (t Tracer) With(fields tracespec.Fields) Tracer {
	merged := make(tracespec.Fields, len(t.fields)+len(fields))
	for k, v := range t.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return Tracer{d: t.d, ns: t.ns, fields: merged}
}

// Trace emits one event. Nothing is built when the event would be filtered.
func (t Tracer) Trace(sev tracespec.Severity, message string, fields tracespec.Fields) {
	if !t.Enabled(sev) {
		return
	}
	t.d.Dispatch(tracespec.MakeEvent(t.ns, sev, message, t.merge(fields)))
}

// Tracef formats the message only when the event would be dispatched.
func (t Tracer) Tracef(sev tracespec.Severity, format string, args ...interface{}) {
	if !t.Enabled(sev) {
		return
	}
	t.d.Dispatch(tracespec.MakeEvent(t.ns, sev, fmt.Sprintf(format, args...), t.fields))
}

func (t Tracer) merge(fields tracespec.Fields) tracespec.Fields {
	if len(t.fields) == 0 {
		return fields
	}
	if len(fields) == 0 {
		return t.fields
	}
	return t.With(fields).fields
}

// Debugf emits at Debug.
func (t Tracer) Debugf(format string, args ...interface{}) {
	t.Tracef(tracespec.Debug, format, args...)
}

// Infof emits at Info.
func (t Tracer) Infof(format string, args ...interface{}) {
	t.Tracef(tracespec.Info, format, args...)
}

// Noticef emits at Notice.
func (t Tracer) Noticef(format string, args ...interface{}) {
	t.Tracef(tracespec.Notice, format, args...)
}

// Warningf emits at Warning.
func (t Tracer) Warningf(format string, args ...interface{}) {
	t.Tracef(tracespec.Warning, format, args...)
}

// Errorf emits at Error.
func (t Tracer) Errorf(format string, args ...interface{}) {
	t.Tracef(tracespec.Error, format, args...)
}

// Criticalf emits at Critical.
func (t Tracer) Criticalf(format string, args ...interface{}) {
	t.Tracef(tracespec.Critical, format, args...)
}

// Alertf emits at Alert.
func (t Tracer) Alertf(format string, args ...interface{}) {
	t.Tracef(tracespec.Alert, format, args...)
}

// Emergencyf emits at Emergency.
func (t Tracer) Emergencyf(format string, args ...interface{}) {
	t.Tracef(tracespec.Emergency, format, args...)
}
