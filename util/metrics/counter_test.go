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
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/algorand/nodetrace/test/partitiontest"
)

func TestCounterLabels(t *testing.T) {
	partitiontest.PartitionTest(t)

	counter := MakeCounterUnregistered(MetricName{Name: "tracing_view_events_total", Description: "events"})
	counter.Inc(nil)
	counter.AddUint64(2, nil)
	counter.Inc(map[string]string{"namespace": "cardano.node.ChainDB"})
	counter.Inc(map[string]string{"namespace": "cardano.node.ChainDB"})
	counter.Inc(map[string]string{"namespace": "cardano.node.Mempool"})

	require.Equal(t, uint64(3), counter.GetUint64Value())
	require.Equal(t, uint64(2), counter.GetUint64ValueForLabels(map[string]string{"namespace": "cardano.node.ChainDB"}))
	require.Equal(t, uint64(0), counter.GetUint64ValueForLabels(map[string]string{"namespace": "cardano.node.Forge"}))

	var buf strings.Builder
	counter.WriteMetric(&buf, `host="relay"`)
	require.Equal(t, `# HELP tracing_view_events_total events
# TYPE tracing_view_events_total counter
tracing_view_events_total{host="relay"} 3
tracing_view_events_total{host="relay",namespace="cardano.node.ChainDB"} 2
tracing_view_events_total{host="relay",namespace="cardano.node.Mempool"} 1
`, buf.String())
}

func TestCounterConcurrentAdds(t *testing.T) {
	partitiontest.PartitionTest(t)

	counter := MakeCounterUnregistered(MetricName{Name: "c", Description: "d"})
	labels := map[string]string{"sink": "StdoutSK::stdout"}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				counter.Inc(nil)
				counter.Inc(labels)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, uint64(8000), counter.GetUint64Value())
	require.Equal(t, uint64(8000), counter.GetUint64ValueForLabels(labels))
}

func TestGaugeSetAdd(t *testing.T) {
	partitiontest.PartitionTest(t)

	gauge := MakeGaugeUnregistered(MetricName{Name: "tracing_view_value", Description: "value"})
	var buf strings.Builder
	gauge.WriteMetric(&buf, "")
	require.Empty(t, buf.String())

	labels := map[string]string{"namespace": "cardano.node.metrics", "field": "mempoolBytes"}
	gauge.Set(1.5, labels)
	gauge.Add(2, labels)
	v, ok := gauge.Get(labels)
	require.True(t, ok)
	require.Equal(t, 3.5, v)

	_, ok = gauge.Get(map[string]string{"namespace": "x"})
	require.False(t, ok)

	gauge.WriteMetric(&buf, "")
	require.Contains(t, buf.String(), `tracing_view_value{field="mempoolBytes",namespace="cardano.node.metrics"} 3.5`)

	values := make(map[string]float64)
	gauge.AddMetric(values)
	require.Len(t, values, 1)

	gauge.Reset()
	_, ok = gauge.Get(labels)
	require.False(t, ok)
}

func TestLabelValueEscaping(t *testing.T) {
	partitiontest.PartitionTest(t)

	require.Equal(t, `a="x\"y",b="back\\slash"`, formatLabels(map[string]string{"b": `back\slash`, "a": `x"y`}))
	require.Equal(t, "", formatLabels(nil))
}
