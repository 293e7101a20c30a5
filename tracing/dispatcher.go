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
	"context"
	"fmt"
	"sync/atomic"

	"github.com/algorand/go-deadlock"

	"github.com/algorand/nodetrace/config"
	"github.com/algorand/nodetrace/logging"
	"github.com/algorand/nodetrace/tracing/tracespec"
	"github.com/algorand/nodetrace/util/metrics"
)

// Dispatcher decides for each event whether it is emitted and where it goes,
// then hands it to the sinks without blocking. It is safe for concurrent use.
type Dispatcher struct {
	log      logging.Logger
	registry *Registry

	policy   atomic.Pointer[policy]
	reloadMu deadlock.Mutex
	closed   atomic.Bool

	dispatched *metrics.Counter
	filtered   *metrics.Counter
	reloads    *metrics.Counter
}

// MakeDispatcher validates cfg, opens its sinks and starts their workers.
func MakeDispatcher(cfg config.Local, log logging.Logger, opts ...Option) (*Dispatcher, error) {
	p, err := makePolicy(cfg)
	if err != nil {
		return nil, err
	}
	registry, err := MakeRegistry(cfg, log, opts...)
	if err != nil {
		return nil, err
	}
	d := &Dispatcher{
		log:        log,
		registry:   registry,
		dispatched: metrics.MakeCounterUnregistered(metrics.TracingEventsDispatched),
		filtered:   metrics.MakeCounterUnregistered(metrics.TracingEventsFiltered),
		reloads:    metrics.MakeCounterUnregistered(metrics.TracingPolicyReloads),
	}
	d.policy.Store(p)
	d.dispatched.Register(registry.Metrics())
	d.filtered.Register(registry.Metrics())
	d.reloads.Register(registry.Metrics())

	if !cfg.EnableLogging {
		log.Infof("tracing is turned off, no events will be emitted")
	}
	return d, nil
}

// Dispatch routes ev to the sinks its namespace resolves to. It returns as soon
// as the event is queued; the event must not be modified afterwards.
func (d *Dispatcher) Dispatch(ev tracespec.Event) {
	if d.closed.Load() {
		return
	}
	p := d.policy.Load()
	if !p.enabled {
		return
	}
	if !p.admits(ev.Namespace, ev.Severity) {
		d.filtered.Inc(nil)
		return
	}
	d.dispatched.Inc(nil)
	d.registry.route(&ev, p)
}

// Enabled reports whether an event of ns at sev would be dispatched, so
// emitters can skip building it.
func (d *Dispatcher) Enabled(ns tracespec.Namespace, sev tracespec.Severity) bool {
	return !d.closed.Load() && d.policy.Load().admits(ns, sev)
}

// Resolve returns how events of ns are currently routed.
func (d *Dispatcher) Resolve(ns tracespec.Namespace) Route {
	return d.policy.Load().routes.Resolve(ns)
}

// Routing returns the current routing table.
func (d *Dispatcher) Routing() *RoutingTable {
	return d.policy.Load().routes
}

// Gate returns the current trace gate.
func (d *Dispatcher) Gate() Gate {
	return d.policy.Load().gate
}

// Reload swaps in the routing of cfg. Events dispatched concurrently see either
// the old or the new routing, never a mix. Scribes cannot be added at runtime:
// a cfg routing to a scribe that was not opened at startup is rejected and the
// current routing is kept.
func (d *Dispatcher) Reload(cfg config.Local) error {
	d.reloadMu.Lock()
	defer d.reloadMu.Unlock()

	if d.closed.Load() {
		return ErrSinkClosed
	}
	p, err := makePolicy(cfg)
	if err != nil {
		return err
	}
	var problems []string
	for _, id := range p.routes.ReferencedScribes() {
		if !d.registry.Has(id) {
			problems = append(problems, fmt.Sprintf("scribe %s was not open at startup", id))
		}
	}
	if len(problems) > 0 {
		return &config.ConfigError{Problems: problems}
	}
	d.policy.Store(p)
	d.reloads.Inc(nil)
	d.log.Infof("tracing policy reloaded: logging=%v metrics=%v", p.enabled, p.metricsEnabled)
	return nil
}

// Sync waits until every event dispatched so far has reached its sinks.
func (d *Dispatcher) Sync(ctx context.Context) error {
	return d.registry.Sync(ctx)
}

// Shutdown stops dispatching, drains the sink queues until ctx expires and
// closes the sinks.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.closed.Store(true)
	return d.registry.Close(ctx)
}

// Registry returns the sinks of the dispatcher.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// MetricsView returns the sink of the EKGViewBK backend.
func (d *Dispatcher) MetricsView() *MetricsView {
	return d.registry.MetricsView()
}

// Metrics returns the registry holding the tracing metrics.
func (d *Dispatcher) Metrics() *metrics.Registry {
	return d.registry.Metrics()
}

// Session identifies this process run in every record.
func (d *Dispatcher) Session() string {
	return d.registry.Session()
}
