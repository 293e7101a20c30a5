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
	"regexp"
	"sort"
	"strings"

	"github.com/algorand/go-deadlock"
)

// Metric represent any collectable metric
type Metric interface {
	// WriteMetric adds metrics in Prometheus exposition format to buf, including parentLabels tags if provided.
	WriteMetric(buf *strings.Builder, parentLabels string)
	// AddMetric adds metrics to a map, used for programmatic snapshots.
	AddMetric(values map[string]float64)
}

// Registry represents a single set of metrics registry
type Registry struct {
	metrics   []Metric
	metricsMu deadlock.Mutex
}

var defaultRegistry = MakeRegistry()

// DefaultRegistry returns the process wide registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// MakeRegistry creates a new metrics registry
func MakeRegistry() *Registry {
	return &Registry{}
}

// Register add the given metric to the registry. Registering a metric twice has no effect.
func (r *Registry) Register(metric Metric) {
	r.metricsMu.Lock()
	defer r.metricsMu.Unlock()
	for _, m := range r.metrics {
		if m == metric {
			return
		}
	}
	r.metrics = append(r.metrics, metric)
}

// Deregister removes the given metric from the registry
func (r *Registry) Deregister(metric Metric) {
	r.metricsMu.Lock()
	defer r.metricsMu.Unlock()
	for i, m := range r.metrics {
		if m == metric {
			r.metrics = append(r.metrics[:i], r.metrics[i+1:]...)
			return
		}
	}
}

// WriteMetrics writes all the metrics that were registered to the buffer, in the order they were registered.
func (r *Registry) WriteMetrics(buf *strings.Builder, parentLabels string) {
	for _, m := range r.snapshot() {
		m.WriteMetric(buf, parentLabels)
	}
}

// AddMetrics adds all the metrics to the values map
func (r *Registry) AddMetrics(values map[string]float64) {
	for _, m := range r.snapshot() {
		m.AddMetric(values)
	}
}

func (r *Registry) snapshot() []Metric {
	r.metricsMu.Lock()
	defer r.metricsMu.Unlock()
	return append([]Metric(nil), r.metrics...)
}

var sanitizeTelemetryCharactersRegexp = regexp.MustCompile("(^[^a-zA-Z_]|[^a-zA-Z0-9_-])")

// sanitizeTelemetryName ensures a metric name doesn't contain any
// non-alphanumeric characters (apart from - or _) and doesn't start with a number or a hyphen.
func sanitizeTelemetryName(name string) string {
	return sanitizeTelemetryCharactersRegexp.ReplaceAllString(name, "_")
}

// sanitizePrometheusName ensures a metric name doesn't contain any
// non-alphanumeric characters (apart from _) and doesn't start with a number.
func sanitizePrometheusName(name string) string {
	return strings.ReplaceAll(sanitizeTelemetryName(name), "-", "_")
}

var labelValueEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

// formatLabels renders labels as k1="v1",k2="v2" with keys in lexical order.
func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var buf strings.Builder
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(sanitizePrometheusName(k))
		buf.WriteString(`="`)
		buf.WriteString(labelValueEscaper.Replace(labels[k]))
		buf.WriteByte('"')
	}
	return buf.String()
}

// writeHeader writes the HELP and TYPE lines of a metric family.
func writeHeader(buf *strings.Builder, name, description, kind string) {
	buf.WriteString("# HELP ")
	buf.WriteString(name)
	buf.WriteString(" ")
	buf.WriteString(description)
	buf.WriteString("\n# TYPE ")
	buf.WriteString(name)
	buf.WriteString(" ")
	buf.WriteString(kind)
	buf.WriteString("\n")
}

// writeSample writes one `name{labels} value` line.
func writeSample(buf *strings.Builder, name, parentLabels, labels, value string) {
	buf.WriteString(name)
	if len(parentLabels) > 0 || len(labels) > 0 {
		buf.WriteString("{")
		buf.WriteString(parentLabels)
		if len(parentLabels) > 0 && len(labels) > 0 {
			buf.WriteString(",")
		}
		buf.WriteString(labels)
		buf.WriteString("}")
	}
	buf.WriteString(" ")
	buf.WriteString(value)
	buf.WriteString("\n")
}

func labelledName(name, formattedLabels string) string {
	if formattedLabels == "" {
		return name
	}
	return name + "_" + sanitizeTelemetryName(formattedLabels)
}
