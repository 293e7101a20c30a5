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
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/algorand/nodetrace/test/partitiontest"
)

func TestTagCounter(t *testing.T) {
	partitiontest.PartitionTest(t)

	tags := make([]string, 17)
	for i := range tags {
		tags[i] = fmt.Sprintf("A%c", 'A'+i)
	}
	countsIn := make([]uint64, len(tags))
	for i := range countsIn {
		countsIn[i] = uint64(10 * (i + 1))
	}

	tc := NewTagCounterUnregistered("tc", "wat")
	var wg sync.WaitGroup
	wg.Add(len(tags))

	runf := func(tag string, count uint64) {
		for i := 0; i < int(count); i++ {
			tc.Add(tag, 1)
		}
		wg.Done()
	}

	for i, tag := range tags {
		go runf(tag, countsIn[i])
	}
	wg.Wait()

	for i, tag := range tags {
		require.Equal(t, countsIn[i], tc.GetValue(tag), "tag[%d] %s", i, tag)
	}
	require.Equal(t, uint64(0), tc.GetValue("missing"))
}

func TestTagCounterTemplate(t *testing.T) {
	partitiontest.PartitionTest(t)

	tc := NewTagCounterUnregistered("tracing_sink_dropped_{TAG}", "dropped")
	var buf strings.Builder
	tc.WriteMetric(&buf, "")
	require.Empty(t, buf.String())

	tc.Add("FileSK::logs/node.log", 3)
	tc.Add("StdoutSK::stdout", 1)

	tc.WriteMetric(&buf, "")
	require.Contains(t, buf.String(), "tracing_sink_dropped_FileSK__logs_node_log 3\n")
	require.Contains(t, buf.String(), "tracing_sink_dropped_StdoutSK__stdout 1\n")

	values := make(map[string]float64)
	tc.AddMetric(values)
	require.Equal(t, map[string]float64{
		"tracing_sink_dropped_FileSK__logs_node_log": 3,
		"tracing_sink_dropped_StdoutSK__stdout":      1,
	}, values)
}

func TestWriteAdd(t *testing.T) {
	partitiontest.PartitionTest(t)

	reg := MakeRegistry()
	counter := MakeCounterUnregistered(MetricName{Name: "gauge-name", Description: "gauge description"})
	counter.AddUint64(12, nil)
	counter.Register(reg)

	labelCounter := MakeCounterUnregistered(MetricName{Name: "label-counter", Description: "counter with labels"})
	labelCounter.AddUint64(5, map[string]string{"label": "a label value"})
	labelCounter.Register(reg)
	labelCounter.Register(reg)

	results := make(map[string]float64)
	reg.AddMetrics(results)

	require.Equal(t, 2, len(results), "results", results)
	require.InDelta(t, 12, results["gauge-name"], 0.01)
	require.InDelta(t, 5, results["label-counter_label__a_label_value_"], 0.01)

	bufBefore := strings.Builder{}
	reg.WriteMetrics(&bufBefore, `pid="1"`)
	require.True(t, bufBefore.Len() > 0)
	require.Contains(t, bufBefore.String(), "gauge_name{pid=\"1\"} 12\n")
	require.Equal(t, 1, strings.Count(bufBefore.String(), "# TYPE label_counter counter"))

	counter.Deregister(reg)
	bufAfter := strings.Builder{}
	reg.WriteMetrics(&bufAfter, `pid="1"`)
	require.NotContains(t, bufAfter.String(), "gauge_name")
	require.Contains(t, bufAfter.String(), "label_counter")
}
