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

package tracespec

import (
	"sort"
	"time"
)

// Namespace identifies the subsystem emitting an event, e.g. "cardano.node.ChainDB".
// It is an opaque key: no prefix or hierarchical matching is applied to it.
type Namespace string

// MetricsNamespace carries numeric measurements destined for the metrics view.
const MetricsNamespace Namespace = "cardano.node.metrics"

// Fields holds the optional structured payload of an event.
type Fields map[string]interface{}

// Event is a single trace record. Events are values: once made they are not modified.
type Event struct {
	Namespace Namespace
	Severity  Severity
	Timestamp time.Time
	Message   string
	Fields    Fields
}

// MakeEvent stamps a new event with the current time. The fields map is copied so
// the emitter may keep reusing its own map.
func MakeEvent(ns Namespace, sev Severity, message string, fields Fields) Event {
	return MakeEventAt(time.Now(), ns, sev, message, fields)
}

// MakeEventAt is MakeEvent with an explicit timestamp.
func MakeEventAt(at time.Time, ns Namespace, sev Severity, message string, fields Fields) Event {
	var copied Fields
	if len(fields) > 0 {
		copied = make(Fields, len(fields))
		for k, v := range fields {
			copied[k] = v
		}
	}
	return Event{
		Namespace: ns,
		Severity:  sev,
		Timestamp: at,
		Message:   message,
		Fields:    copied,
	}
}

// SortedKeys returns the field names in lexical order.
func (f Fields) SortedKeys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
