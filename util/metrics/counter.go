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

package metrics

import (
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/algorand/go-deadlock"
)

// Counter represent a single counter variable.
type Counter struct {
	// Collects value for special fast-path with no labels through Inc(nil) AddUint64(x, nil)
	intValue atomic.Uint64

	mu          deadlock.Mutex
	name        string
	description string
	values      map[string]*counterValues // keyed by formatted labels
}

type counterValues struct {
	counter         uint64
	formattedLabels string
}

// MakeCounter create a new counter with the provided name and description,
// registered with the default registry.
func MakeCounter(metric MetricName) *Counter {
	c := MakeCounterUnregistered(metric)
	c.Register(nil)
	return c
}

// MakeCounterUnregistered create a new counter that isn't part of any registry yet.
func MakeCounterUnregistered(metric MetricName) *Counter {
	return &Counter{
		name:        metric.Name,
		description: metric.Description,
		values:      make(map[string]*counterValues),
	}
}

// NewCounter is a shortcut to MakeCounter in one shorter line.
func NewCounter(name, desc string) *Counter {
	return MakeCounter(MetricName{Name: name, Description: desc})
}

// Register registers the counter with the default/specific registry
func (counter *Counter) Register(reg *Registry) {
	if reg == nil {
		DefaultRegistry().Register(counter)
	} else {
		reg.Register(counter)
	}
}

// Deregister deregisters the counter with the default/specific registry
func (counter *Counter) Deregister(reg *Registry) {
	if reg == nil {
		DefaultRegistry().Deregister(counter)
	} else {
		reg.Deregister(counter)
	}
}

// Inc increases counter by 1
// Much faster if labels is nil or empty.
func (counter *Counter) Inc(labels map[string]string) {
	counter.AddUint64(1, labels)
}

// AddUint64 increases counter by x
// If labels is nil this is much faster than if labels is not nil.
func (counter *Counter) AddUint64(x uint64, labels map[string]string) {
	if len(labels) == 0 {
		counter.intValue.Add(x)
		return
	}
	formatted := formatLabels(labels)

	counter.mu.Lock()
	defer counter.mu.Unlock()
	if cv, has := counter.values[formatted]; has {
		cv.counter += x
		return
	}
	counter.values[formatted] = &counterValues{counter: x, formattedLabels: formatted}
}

// AddMicrosecondsSince increases counter by microseconds between Time t and now.
// Fastest if labels is nil
func (counter *Counter) AddMicrosecondsSince(t time.Time, labels map[string]string) {
	counter.AddUint64(uint64(time.Since(t).Microseconds()), labels)
}

// GetUint64Value returns the value of the counter.
func (counter *Counter) GetUint64Value() (x uint64) {
	return counter.intValue.Load()
}

// GetUint64ValueForLabels returns the value of the counter for the given labels or 0 if it's not found.
func (counter *Counter) GetUint64ValueForLabels(labels map[string]string) uint64 {
	if len(labels) == 0 {
		return counter.GetUint64Value()
	}
	formatted := formatLabels(labels)

	counter.mu.Lock()
	defer counter.mu.Unlock()
	if cv, has := counter.values[formatted]; has {
		return cv.counter
	}
	return 0
}

func (counter *Counter) sortedValues() []counterValues {
	counter.mu.Lock()
	defer counter.mu.Unlock()
	out := make([]counterValues, 0, len(counter.values))
	for _, cv := range counter.values {
		out = append(out, *cv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].formattedLabels < out[j].formattedLabels })
	return out
}

// WriteMetric writes the metric into the output stream
func (counter *Counter) WriteMetric(buf *strings.Builder, parentLabels string) {
	values := counter.sortedValues()
	name := sanitizePrometheusName(counter.name)
	writeHeader(buf, name, counter.description, "counter")
	if fast := counter.intValue.Load(); fast > 0 || len(values) == 0 {
		writeSample(buf, name, parentLabels, "", strconv.FormatUint(fast, 10))
	}
	for _, cv := range values {
		writeSample(buf, name, parentLabels, cv.formattedLabels, strconv.FormatUint(cv.counter, 10))
	}
}

// AddMetric adds the metric into the map
func (counter *Counter) AddMetric(values map[string]float64) {
	labelled := counter.sortedValues()
	if fast := counter.intValue.Load(); fast > 0 || len(labelled) == 0 {
		values[counter.name] = float64(fast)
	}
	for _, cv := range labelled {
		values[labelledName(counter.name, cv.formattedLabels)] = float64(cv.counter)
	}
}
