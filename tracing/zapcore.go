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
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/algorand/nodetrace/tracing/tracespec"
)

// severityForZap maps zap levels onto the severity lattice.
func severityForZap(l zapcore.Level) tracespec.Severity {
	switch {
	case l < zapcore.InfoLevel:
		return tracespec.Debug
	case l == zapcore.InfoLevel:
		return tracespec.Info
	case l == zapcore.WarnLevel:
		return tracespec.Warning
	case l == zapcore.ErrorLevel:
		return tracespec.Error
	case l == zapcore.DPanicLevel:
		return tracespec.Critical
	case l == zapcore.PanicLevel:
		return tracespec.Alert
	default:
		return tracespec.Emergency
	}
}

// tracingCore implements zapcore.Core on top of a Tracer, so libraries logging
// through zap end up in the trace namespaces.
type tracingCore struct {
	tracer Tracer
	fields []zapcore.Field
}

// NewZapCore returns a zapcore.Core emitting every entry as an event of ns.
// The zap logger name is kept in the "logger" field.
func NewZapCore(d *Dispatcher, ns tracespec.Namespace) zapcore.Core {
	return &tracingCore{tracer: d.Tracer(ns)}
}

func (c *tracingCore) Enabled(l zapcore.Level) bool {
	return c.tracer.Enabled(severityForZap(l))
}

func (c *tracingCore) With(fields []zapcore.Field) zapcore.Core {
	all := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	all = append(all, c.fields...)
	return &tracingCore{
		tracer: c.tracer,
		fields: append(all, fields...),
	}
}

func (c *tracingCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(e.Level) {
		return ce.AddCore(e, c)
	}
	return ce
}

func (c *tracingCore) Write(e zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}
	if e.LoggerName != "" {
		enc.Fields["logger"] = e.LoggerName
	}
	at := e.Time
	if at.IsZero() {
		at = time.Now()
	}
	c.tracer.d.Dispatch(tracespec.MakeEventAt(at, c.tracer.ns, severityForZap(e.Level), e.Message, enc.Fields))
	return nil
}

func (c *tracingCore) Sync() error {
	return nil
}
