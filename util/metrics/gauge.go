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

	"github.com/algorand/go-deadlock"
)

// Gauge represent a single gauge variable.
type Gauge struct {
	mu          deadlock.Mutex
	name        string
	description string
	values      map[string]*gaugeValues // keyed by formatted labels
}

type gaugeValues struct {
	gauge           float64
	formattedLabels string
}

// MakeGauge create a new gauge with the provided name and description,
// registered with the default registry.
func MakeGauge(metric MetricName) *Gauge {
	g := MakeGaugeUnregistered(metric)
	g.Register(nil)
	return g
}

// MakeGaugeUnregistered create a new gauge that isn't part of any registry yet.
func MakeGaugeUnregistered(metric MetricName) *Gauge {
	return &Gauge{
		name:        metric.Name,
		description: metric.Description,
		values:      make(map[string]*gaugeValues),
	}
}

// Register registers the gauge with the default/specific registry
func (gauge *Gauge) Register(reg *Registry) {
	if reg == nil {
		DefaultRegistry().Register(gauge)
	} else {
		reg.Register(gauge)
	}
}

// Deregister deregisters the gauge with the default/specific registry
func (gauge *Gauge) Deregister(reg *Registry) {
	if reg == nil {
		DefaultRegistry().Deregister(gauge)
	} else {
		reg.Deregister(gauge)
	}
}

// Add increases gauge by x
func (gauge *Gauge) Add(x float64, labels map[string]string) {
	gauge.update(labels, func(v *float64) { *v += x })
}

// Set sets gauge to x
func (gauge *Gauge) Set(x float64, labels map[string]string) {
	gauge.update(labels, func(v *float64) { *v = x })
}

func (gauge *Gauge) update(labels map[string]string, apply func(*float64)) {
	formatted := formatLabels(labels)

	gauge.mu.Lock()
	defer gauge.mu.Unlock()
	gv, has := gauge.values[formatted]
	if !has {
		gv = &gaugeValues{formattedLabels: formatted}
		gauge.values[formatted] = gv
	}
	apply(&gv.gauge)
}

// Get returns the value of the gauge for the given labels, and whether it was ever set.
func (gauge *Gauge) Get(labels map[string]string) (float64, bool) {
	formatted := formatLabels(labels)

	gauge.mu.Lock()
	defer gauge.mu.Unlock()
	if gv, has := gauge.values[formatted]; has {
		return gv.gauge, true
	}
	return 0, false
}

// Reset forgets every value of the gauge.
func (gauge *Gauge) Reset() {
	gauge.mu.Lock()
	defer gauge.mu.Unlock()
	gauge.values = make(map[string]*gaugeValues)
}

func (gauge *Gauge) sortedValues() []gaugeValues {
	gauge.mu.Lock()
	defer gauge.mu.Unlock()
	out := make([]gaugeValues, 0, len(gauge.values))
	for _, gv := range gauge.values {
		out = append(out, *gv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].formattedLabels < out[j].formattedLabels })
	return out
}

// WriteMetric writes the metric into the output stream
func (gauge *Gauge) WriteMetric(buf *strings.Builder, parentLabels string) {
	values := gauge.sortedValues()
	if len(values) < 1 {
		return
	}
	name := sanitizePrometheusName(gauge.name)
	writeHeader(buf, name, gauge.description, "gauge")
	for _, gv := range values {
		writeSample(buf, name, parentLabels, gv.formattedLabels, strconv.FormatFloat(gv.gauge, 'f', -1, 64))
	}
}

// AddMetric adds the metric into the map
func (gauge *Gauge) AddMetric(values map[string]float64) {
	for _, gv := range gauge.sortedValues() {
		values[labelledName(gauge.name, gv.formattedLabels)] = gv.gauge
	}
}
