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

// Functions for Prometheus metrics conversion to our internal data type
// suitable for further reporting

package metrics

import (
	"sort"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

type defaultPrometheusGatherer struct {
	names []string
}

// PrometheusDefaultMetrics exposes everything registered with the Prometheus
// default registerer, the Go runtime and process collectors included.
var PrometheusDefaultMetrics = defaultPrometheusGatherer{}

// WriteMetric writes the gathered counters and gauges. Summaries and histograms are skipped.
func (pg *defaultPrometheusGatherer) WriteMetric(buf *strings.Builder, parentLabels string) {
	metrics := collectPrometheusMetrics(pg.names)
	for _, metric := range metrics {
		metric.WriteMetric(buf, parentLabels)
	}
}

// AddMetric adds the gathered counters and gauges to values.
func (pg *defaultPrometheusGatherer) AddMetric(values map[string]float64) {
	metrics := collectPrometheusMetrics(pg.names)
	for _, metric := range metrics {
		metric.AddMetric(values)
	}
}

// promFamily adapts a gathered metric family to the Metric interface.
type promFamily struct {
	family *dto.MetricFamily
}

func (pf promFamily) kind() string {
	if pf.family.GetType() == dto.MetricType_COUNTER {
		return "counter"
	}
	return "gauge"
}

func (pf promFamily) sampleValue(m *dto.Metric) float64 {
	if pf.family.GetType() == dto.MetricType_COUNTER {
		return m.GetCounter().GetValue()
	}
	return m.GetGauge().GetValue()
}

func (pf promFamily) sampleLabels(m *dto.Metric) string {
	labels := make(map[string]string, len(m.GetLabel()))
	for _, lp := range m.GetLabel() {
		labels[lp.GetName()] = lp.GetValue()
	}
	return formatLabels(labels)
}

func (pf promFamily) WriteMetric(buf *strings.Builder, parentLabels string) {
	name := pf.family.GetName()
	writeHeader(buf, name, pf.family.GetHelp(), pf.kind())
	for _, m := range pf.family.GetMetric() {
		writeSample(buf, name, parentLabels, pf.sampleLabels(m), strconv.FormatFloat(pf.sampleValue(m), 'f', -1, 64))
	}
}

func (pf promFamily) AddMetric(values map[string]float64) {
	name := pf.family.GetName()
	for _, m := range pf.family.GetMetric() {
		values[labelledName(name, pf.sampleLabels(m))] = pf.sampleValue(m)
	}
}

// collectPrometheusMetrics gathers the default registry. When names is not
// empty only those families are returned.
func collectPrometheusMetrics(names []string) []Metric {
	var result []Metric
	var namesMap map[string]struct{}
	if len(names) > 0 {
		namesMap = make(map[string]struct{}, len(names))
		for _, name := range names {
			namesMap[name] = struct{}{}
		}
	}

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return nil
	}
	sort.Slice(families, func(i, j int) bool { return families[i].GetName() < families[j].GetName() })
	for _, family := range families {
		if namesMap != nil {
			if _, ok := namesMap[family.GetName()]; !ok {
				continue
			}
		}
		switch family.GetType() {
		case dto.MetricType_COUNTER, dto.MetricType_GAUGE:
			result = append(result, promFamily{family: family})
		}
	}
	return result
}
