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

// Package metrics provides counters, gauges and a Prometheus text exposition
// server for them.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/algorand/go-deadlock"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ErrMetricServiceAlreadyRunning Generated when we call Start and the metric service is already running
	ErrMetricServiceAlreadyRunning = errors.New("MetricService is already running")
	// ErrMetricServiceNotRunning is not currently running
	ErrMetricServiceNotRunning = errors.New("MetricService not running")
)

// DefaultMetricsPath is where the registry is exposed when ServiceConfig.Path is empty.
const DefaultMetricsPath = "/metrics"

const shutdownGracePeriod = 5 * time.Second

// ServiceConfig would contain all the information we need in order to create a listening server endpoint.
type ServiceConfig struct {
	ListenAddress string
	Labels        map[string]string
	Path          string
	// Registry is the registry served on Path; the default registry when nil.
	Registry *Registry
}

// MetricService represent a single running metric server instance
type MetricService struct {
	config ServiceConfig
	router *mux.Router

	runningMu deadlock.Mutex
	running   bool
	server    *http.Server
	addr      net.Addr
	cancel    context.CancelFunc
	done      chan struct{}
}

// MakeMetricService creates a new metrics server at the given endpoint.
// The registry is served on config.Path and the Prometheus default gatherer on
// config.Path + "/runtime".
func MakeMetricService(config *ServiceConfig) *MetricService {
	server := &MetricService{
		config: *config,
		router: mux.NewRouter(),
	}
	labels := make(map[string]string, len(config.Labels)+2)
	for k, v := range config.Labels {
		labels[k] = v
	}
	if _, hasPid := labels["pid"]; !hasPid {
		labels["pid"] = strconv.FormatInt(int64(os.Getpid()), 10)
	}
	if _, hasHost := labels["host"]; !hasHost {
		if hostname, err := os.Hostname(); err == nil && len(hostname) > 0 {
			labels["host"] = hostname
		}
	}
	server.config.Labels = labels
	if server.config.Path == "" {
		server.config.Path = DefaultMetricsPath
	}
	if server.config.Registry == nil {
		server.config.Registry = DefaultRegistry()
	}

	server.router.HandleFunc(server.config.Path, server.serveMetrics).Methods(http.MethodGet)
	server.router.Handle(server.config.Path+"/runtime", promhttp.Handler()).Methods(http.MethodGet)
	return server
}

// Handle adds a route served next to the metrics. It must be called before Start.
func (server *MetricService) Handle(path string, handler http.Handler) {
	server.router.Handle(path, handler).Methods(http.MethodGet)
}

func (server *MetricService) serveMetrics(w http.ResponseWriter, r *http.Request) {
	var buf strings.Builder
	server.config.Registry.WriteMetrics(&buf, formatLabels(server.config.Labels))
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_, _ = w.Write([]byte(buf.String()))
}

// Start starts the metric server. It stops on its own when ctx is done.
func (server *MetricService) Start(ctx context.Context) error {
	server.runningMu.Lock()
	defer server.runningMu.Unlock()
	if server.running {
		return ErrMetricServiceAlreadyRunning
	}

	listener, err := net.Listen("tcp", server.config.ListenAddress)
	if err != nil {
		return err
	}
	server.addr = listener.Addr()
	server.server = &http.Server{Handler: server.router, ReadHeaderTimeout: 10 * time.Second}
	server.done = make(chan struct{})

	var runContext context.Context
	runContext, server.cancel = context.WithCancel(ctx)
	go server.serve(runContext, server.server, listener, server.done)
	server.running = true
	return nil
}

func (server *MetricService) serve(ctx context.Context, srv *http.Server, listener net.Listener, done chan struct{}) {
	defer close(done)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	_ = srv.Serve(listener)
	<-stopped
}

// Addr returns the address the server listens on while it is running.
func (server *MetricService) Addr() string {
	server.runningMu.Lock()
	defer server.runningMu.Unlock()
	if !server.running {
		return ""
	}
	return server.addr.String()
}

// Shutdown the running server
func (server *MetricService) Shutdown() error {
	// check if the service is running.
	server.runningMu.Lock()
	defer server.runningMu.Unlock()
	if !server.running {
		return ErrMetricServiceNotRunning
	}
	server.cancel()
	server.cancel = nil
	<-server.done
	server.running = false
	return nil
}
