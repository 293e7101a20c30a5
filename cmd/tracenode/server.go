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

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/algorand/nodetrace/config"
	"github.com/algorand/nodetrace/logging"
	"github.com/algorand/nodetrace/tracing"
	"github.com/algorand/nodetrace/tracing/tracespec"
	"github.com/algorand/nodetrace/util"
	"github.com/algorand/nodetrace/util/metrics"
)

const routingDebugPath = "/debug/routing"

// baseFdAllowance covers stdio, the data directory lock and the metrics listener.
const baseFdAllowance = 64

// Server hosts a dispatcher along with its metrics endpoint and background tracers.
type Server struct {
	log        logging.Logger
	configFile string
	cfg        config.Local

	dispatcher    *tracing.Dispatcher
	metricService *metrics.MetricService

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Initialize opens every scribe of cfg.
func (s *Server) Initialize(cfg config.Local) error {
	s.ensureFdLimit(cfg)
	d, err := tracing.MakeDispatcher(cfg, s.log)
	if err != nil {
		return err
	}
	s.cfg = cfg
	s.dispatcher = d
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return nil
}

// ensureFdLimit raises the soft descriptor limit so that every file scribe can hold
// its active file and its lock file.
func (s *Server) ensureFdLimit(cfg config.Local) {
	needed := uint64(baseFdAllowance)
	for _, sc := range cfg.SetupScribes {
		if id, err := sc.ID(); err == nil && id.Kind == tracespec.FileSK {
			needed += 2
		}
	}
	if err := util.RaiseFdSoftLimit(needed); err != nil {
		s.log.Warnf("unable to raise the file descriptor limit to %d: %v", needed, err)
		return
	}
	soft, hard, err := util.GetFdLimits()
	if err != nil {
		s.log.Warnf("unable to read the file descriptor limits: %v", err)
		return
	}
	if soft < needed {
		s.log.Warnf("file descriptor limit %d (hard %d) is below the %d the scribes need", soft, hard, needed)
	}
}

// Start serves the metrics when hasPrometheus is configured and starts the usage tracer.
func (s *Server) Start() error {
	if s.cfg.HasPrometheus != nil {
		s.metricService = metrics.MakeMetricService(&metrics.ServiceConfig{
			ListenAddress: s.cfg.HasPrometheus.Address(),
			Labels:        map[string]string{"session": s.dispatcher.Session()},
			Registry:      s.dispatcher.Metrics(),
		})
		s.dispatcher.Metrics().Register(&metrics.PrometheusDefaultMetrics)
		s.metricService.Handle(routingDebugPath, tracing.RoutingHandler(s.dispatcher))
		if err := s.metricService.Start(s.ctx); err != nil {
			return fmt.Errorf("metrics endpoint %s: %w", s.cfg.HasPrometheus.Address(), err)
		}
		s.log.Infof("serving metrics on %s", s.metricService.Addr())
	}
	if *usagePeriod > 0 {
		s.wg.Add(1)
		go tracing.ResourceTraceThread(s.ctx, s.dispatcher.Tracer(tracespec.MetricsNamespace), *usagePeriod, &s.wg)
	}
	return nil
}

// Replay dispatches the events of path in the background. The returned channel
// yields the outcome once the input is exhausted.
func (s *Server) Replay(path string) <-chan error {
	done := make(chan error, 1)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		in := os.Stdin
		if path != "-" {
			f, err := os.Open(path)
			if err != nil {
				done <- err
				return
			}
			defer f.Close()
			in = f
		}
		n, err := replayEvents(s.ctx, s.dispatcher, in)
		s.log.Infof("replayed %d events from %s", n, path)
		done <- err
	}()
	return done
}

// Reload re-reads the configuration file and swaps in its routing.
func (s *Server) Reload() error {
	cfg, err := config.LoadConfigFromFile(s.configFile)
	if err != nil {
		return err
	}
	return s.dispatcher.Reload(cfg)
}

// Wait blocks until a termination signal, or until replayDone fires unless keepRunning is set.
// SIGHUP reloads the configuration. It returns the process exit code.
func (s *Server) Wait(replayDone <-chan error, keepRunning bool) int {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)
	defer signal.Stop(c)

	exitCode := 0
	for {
		select {
		case sig := <-c:
			if sig == syscall.SIGHUP {
				if err := s.Reload(); err != nil {
					s.log.Warnf("configuration not reloaded, keeping the current routing: %v", err)
				}
				continue
			}
			s.log.Infof("exiting on %v", sig)
		case err := <-replayDone:
			replayDone = nil
			if err != nil && !errors.Is(err, context.Canceled) {
				s.log.Errorf("replay failed: %v", err)
				exitCode = 1
			}
			if keepRunning {
				continue
			}
		}
		break
	}
	if err := s.Stop(); err != nil {
		exitCode = 1
	}
	return exitCode
}

// Stop ends the background work and drains the sinks within shutdownDrainSeconds.
func (s *Server) Stop() error {
	s.cancel()
	s.wg.Wait()

	if s.metricService != nil {
		if err := s.metricService.Shutdown(); err != nil {
			s.log.Infof("Unable to shutdown metric service : %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.DrainTimeout())
	defer cancel()
	err := s.dispatcher.Shutdown(ctx)
	if err != nil {
		s.log.Warnf("tracing sinks did not shut down cleanly: %v", err)
	}
	return err
}
