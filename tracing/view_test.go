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
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/algorand/nodetrace/config"
	"github.com/algorand/nodetrace/test/partitiontest"
	"github.com/algorand/nodetrace/tracing/tracespec"
	"github.com/algorand/nodetrace/util/metrics"
)

func viewConfig() config.Local {
	cfg := config.GetDefaultLocal()
	cfg.TraceFlags = map[string]bool{"TraceChainDb": true, "TraceMempool": true}
	cfg.Options.MapBackends = map[string][]string{
		"cardano.node.metrics": {"EKGViewBK"},
		"cardano.node.ChainDB": {"KatipBK", "EKGViewBK"},
	}
	return cfg
}

func TestMetricsView(t *testing.T) {
	partitiontest.PartitionTest(t)

	var stdout bytes.Buffer
	d := startDispatcher(t, viewConfig(), WithStdout(&stdout))

	metricsTracer := d.Tracer(tracespec.MetricsNamespace)
	metricsTracer.Trace(tracespec.Info, "mempool", tracespec.Fields{"mempoolTxs": 12, "latency": 1500 * time.Millisecond, "peer": "relay-2"})
	metricsTracer.Trace(tracespec.Info, "mempool", tracespec.Fields{"mempoolTxs": uint32(7)})
	d.Tracer("cardano.node.ChainDB").Trace(tracespec.Notice, "added block", tracespec.Fields{"slot": 100})
	d.Tracer("cardano.node.Mempool").Infof("scribes only")
	require.NoError(t, d.Sync(context.Background()))

	view := d.MetricsView()
	require.Equal(t, uint64(2), view.Events(tracespec.MetricsNamespace))
	require.Equal(t, uint64(1), view.Events("cardano.node.ChainDB"))
	require.Zero(t, view.Events("cardano.node.Mempool"))

	v, ok := view.Value(tracespec.MetricsNamespace, "mempoolTxs")
	require.True(t, ok)
	require.Equal(t, 7.0, v)
	v, ok = view.Value(tracespec.MetricsNamespace, "latency")
	require.True(t, ok)
	require.Equal(t, 1.5, v)
	_, ok = view.Value(tracespec.MetricsNamespace, "peer")
	require.False(t, ok)
	v, _ = view.Value("cardano.node.ChainDB", "slot")
	require.Equal(t, 100.0, v)

	snapshot := view.Snapshot()
	require.Equal(t, 2.0, snapshot["tracing_view_events_total_namespace__cardano_node_metrics_"])

	// metrics events go to the view only, ChainDB to both
	require.NotContains(t, stdout.String(), "cardano.node.metrics")
	require.Contains(t, stdout.String(), "cardano.node.ChainDB:Notice")
	require.Contains(t, stdout.String(), "scribes only")
}

func TestScribesRequireTheKatipBackend(t *testing.T) {
	partitiontest.PartitionTest(t)

	cfg := viewConfig()
	cfg.Options.MapBackends["cardano.node.Mempool"] = []string{"EKGViewBK"}
	cfg.Options.MapScribes = map[string][]string{"cardano.node.Mempool": {"StdoutSK::stdout"}}

	var stdout bytes.Buffer
	d := startDispatcher(t, cfg, WithStdout(&stdout))
	require.Equal(t, []tracespec.ScribeID{{Kind: tracespec.StdoutSK, Name: "stdout"}}, d.Resolve("cardano.node.Mempool").Scribes)

	d.Tracer("cardano.node.Mempool").Trace(tracespec.Info, "txs", tracespec.Fields{"mempoolTxs": 3})
	require.NoError(t, d.Sync(context.Background()))

	// the namespace resolves to the scribe, but without KatipBK only the view sees the event
	require.Equal(t, uint64(1), d.MetricsView().Events("cardano.node.Mempool"))
	require.Empty(t, stdout.String())
}

func TestMetricsViewTurnedOff(t *testing.T) {
	partitiontest.PartitionTest(t)

	cfg := viewConfig()
	cfg.EnableLogMetrics = false
	d := startDispatcher(t, cfg)

	d.Tracer(tracespec.MetricsNamespace).Trace(tracespec.Info, "mempool", tracespec.Fields{"mempoolTxs": 12})
	d.Tracer("cardano.node.ChainDB").Trace(tracespec.Notice, "added block", tracespec.Fields{"slot": 100})
	require.NoError(t, d.Sync(context.Background()))

	require.False(t, d.Enabled(tracespec.MetricsNamespace, tracespec.Emergency))
	require.Zero(t, d.MetricsView().Events(tracespec.MetricsNamespace))
	require.Zero(t, d.MetricsView().Events("cardano.node.ChainDB"))
}

func TestMetricsViewRejectsRawRecords(t *testing.T) {
	partitiontest.PartitionTest(t)

	mv := makeMetricsView(metrics.MakeRegistry())
	var se *SinkError
	require.ErrorAs(t, mv.deliver(&record{raw: []byte("x")}), &se)
	require.Equal(t, MetricsViewName, mv.Name())

	for v, want := range map[interface{}]float64{int8(-3): -3, uint16(9): 9, float32(0.5): 0.5, 2 * time.Second: 2} {
		got, ok := numericValue(v)
		require.True(t, ok)
		require.Equal(t, want, got)
	}
	_, ok := numericValue("12")
	require.False(t, ok)
}

func TestTracerFields(t *testing.T) {
	partitiontest.PartitionTest(t)

	var stdout bytes.Buffer
	d := startDispatcher(t, viewConfig(), WithStdout(&stdout))

	base := d.Tracer("cardano.node.Mempool")
	require.Equal(t, tracespec.Namespace("cardano.node.Mempool"), base.Namespace())
	peer := base.With(tracespec.Fields{"peer": "relay-2"})
	peer.Trace(tracespec.Info, "tx added", tracespec.Fields{"txs": 2})
	peer.Infof("rejected %d", 1)
	base.Infof("plain")
	base.Debugf("filtered %s", "away")
	require.NoError(t, d.Sync(context.Background()))

	text := stdout.String()
	require.Contains(t, text, "] tx added peer=relay-2 txs=2\n")
	require.Contains(t, text, "] rejected 1 peer=relay-2\n")
	require.Contains(t, text, "] plain\n")
	require.NotContains(t, text, "filtered")
}

func TestZapCore(t *testing.T) {
	partitiontest.PartitionTest(t)

	var stdout bytes.Buffer
	d := startDispatcher(t, viewConfig(), WithStdout(&stdout))

	logger := zap.New(NewZapCore(d, "cardano.node.Mempool")).Named("mempool").With(zap.Int("size", 3))
	logger.Info("tx added", zap.String("tx", "abc"))
	logger.Debug("not traced")
	logger.Warn("getting full")
	require.NoError(t, logger.Sync())
	require.NoError(t, d.Sync(context.Background()))

	text := stdout.String()
	require.Contains(t, text, ":cardano.node.Mempool:Info:")
	require.Contains(t, text, "] tx added logger=mempool size=3 tx=abc\n")
	require.Contains(t, text, ":cardano.node.Mempool:Warning:")
	require.NotContains(t, text, "not traced")
}

func TestSeverityForZap(t *testing.T) {
	partitiontest.PartitionTest(t)

	for level, sev := range map[zapcore.Level]tracespec.Severity{
		zapcore.DebugLevel:  tracespec.Debug,
		zapcore.InfoLevel:   tracespec.Info,
		zapcore.WarnLevel:   tracespec.Warning,
		zapcore.ErrorLevel:  tracespec.Error,
		zapcore.DPanicLevel: tracespec.Critical,
		zapcore.PanicLevel:  tracespec.Alert,
		zapcore.FatalLevel:  tracespec.Emergency,
	} {
		require.Equal(t, sev, severityForZap(level), level.String())
	}
}

func TestRoutingHandler(t *testing.T) {
	partitiontest.PartitionTest(t)

	cfg := viewConfig()
	cfg.Options.MapSeverity = map[string]string{"cardano.node.ChainDB": "Notice"}
	d := startDispatcher(t, cfg)

	rec := httptest.NewRecorder()
	RoutingHandler(d).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/routing?ns=cardano.node.ChainDB&ns=cardano.node.Forge", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))

	var report routingReport
	require.NoError(t, yaml.Unmarshal(rec.Body.Bytes(), &report))
	require.Equal(t, d.Session(), report.Session)
	require.Equal(t, []RouteInfo{
		{
			Namespace: "cardano.node.ChainDB",
			Enabled:   true,
			Severity:  "Notice",
			Backends:  []string{"KatipBK", "EKGViewBK"},
			Scribes:   []string{"StdoutSK::stdout"},
			Overrides: []string{"mapSeverity", "mapBackends"},
		},
		{
			Namespace: "cardano.node.Forge",
			Enabled:   false,
			Severity:  "Info",
			Backends:  []string{"KatipBK"},
			Scribes:   []string{"StdoutSK::stdout"},
		},
	}, report.Routes)
	require.Equal(t, []sinkInfo{{Sink: "StdoutSK::stdout", Status: "ok"}}, report.Sinks)
}

func TestDescribeAllRoutes(t *testing.T) {
	partitiontest.PartitionTest(t)

	cfg := viewConfig()
	rt, err := MakeRoutingTable(cfg)
	require.NoError(t, err)
	routes := DescribeRoutes(MakeGate(cfg.TraceFlags, true), rt)

	var names []string
	for _, r := range routes {
		names = append(names, r.Namespace)
	}
	require.Equal(t, []string{"cardano.node.ChainDB", "cardano.node.Mempool", "cardano.node.metrics"}, names)
}

func TestResourceTraceThread(t *testing.T) {
	partitiontest.PartitionTest(t)

	d := startDispatcher(t, viewConfig())
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go ResourceTraceThread(ctx, d.Tracer(tracespec.MetricsNamespace), 5*time.Millisecond, &wg)

	require.Eventually(t, func() bool {
		return d.MetricsView().Events(tracespec.MetricsNamespace) >= 2
	}, 10*time.Second, 5*time.Millisecond)
	cancel()
	wg.Wait()

	goroutines, ok := d.MetricsView().Value(tracespec.MetricsNamespace, "goroutines")
	require.True(t, ok)
	require.Greater(t, goroutines, 0.0)
	_, ok = d.MetricsView().Value(tracespec.MetricsNamespace, "heapBytes")
	require.True(t, ok)
}
