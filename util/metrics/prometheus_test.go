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
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/algorand/nodetrace/test/partitiontest"
)

func TestPrometheusMetrics(t *testing.T) {
	partitiontest.PartitionTest(t)

	const metricNamespace = "test_metric"

	// gauge vec with labels
	gaugeLabels := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricNamespace,
		Name:      "queues",
		Help:      "Number of sink queues",
	}, []string{"kind", "format"})

	// counter without labels
	counter := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "counter_total",
			Help:      "Counter",
		},
	)

	prometheus.DefaultRegisterer.MustRegister(gaugeLabels)
	prometheus.DefaultRegisterer.MustRegister(counter)
	defer prometheus.DefaultRegisterer.Unregister(gaugeLabels)
	defer prometheus.DefaultRegisterer.Unregister(counter)

	gaugeLabels.WithLabelValues("FileSK", "ScJson").Set(float64(1))
	counter.Add(float64(4))

	metrics := collectPrometheusMetrics([]string{
		metricNamespace + "_queues",
		metricNamespace + "_counter_total"})
	require.Len(t, metrics, 2)

	for _, m := range metrics {
		buf := strings.Builder{}
		m.WriteMetric(&buf, "")
		promValue := buf.String()
		if strings.Contains(promValue, metricNamespace+"_queues") {
			require.Contains(t, promValue, metricNamespace+"_queues gauge\n")
			require.Contains(t, promValue, metricNamespace+`_queues{format="ScJson",kind="FileSK"} 1`+"\n")
		} else {
			require.Contains(t, promValue, metricNamespace+"_counter_total counter\n")
			require.Contains(t, promValue, metricNamespace+"_counter_total 4\n")
		}

		values := make(map[string]float64)
		m.AddMetric(values)
		require.Len(t, values, 1)
	}

	// ensure the exported gatherer works
	reg := MakeRegistry()
	reg.Register(&PrometheusDefaultMetrics)

	var buf strings.Builder
	reg.WriteMetrics(&buf, "")
	require.Contains(t, buf.String(), metricNamespace+"_queues")
	require.Contains(t, buf.String(), metricNamespace+"_counter_total")
	require.Contains(t, buf.String(), "go_goroutines")
}
