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
	"github.com/algorand/nodetrace/config"
	"github.com/algorand/nodetrace/tracing/tracespec"
)

// policy is the immutable routing snapshot a Dispatcher consults for every event.
type policy struct {
	enabled        bool
	metricsEnabled bool
	gate           Gate
	routes         *RoutingTable
}

func makePolicy(cfg config.Local) (*policy, error) {
	routes, err := MakeRoutingTable(cfg)
	if err != nil {
		return nil, err
	}
	return &policy{
		enabled:        cfg.EnableLogging,
		metricsEnabled: cfg.EnableLogMetrics,
		gate:           MakeGate(cfg.TraceFlags, cfg.EnableLogMetrics),
		routes:         routes,
	}, nil
}

func (p *policy) admits(ns tracespec.Namespace, sev tracespec.Severity) bool {
	return p.enabled && p.gate.Enabled(ns) && sev.AtLeast(p.routes.ResolveSeverity(ns))
}
