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
	"net/http"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/algorand/nodetrace/tracing/tracespec"
)

// RouteInfo is the printable routing of one namespace.
type RouteInfo struct {
	Namespace string   `yaml:"namespace"`
	Enabled   bool     `yaml:"enabled"`
	Severity  string   `yaml:"minSeverity"`
	Backends  []string `yaml:"backends"`
	Scribes   []string `yaml:"scribes"`
	Overrides []string `yaml:"overrides,omitempty"`
}

// DescribeRoutes resolves the given namespaces, or every namespace the gate or
// the routing table knows of when none are given.
func DescribeRoutes(g Gate, rt *RoutingTable, namespaces ...tracespec.Namespace) []RouteInfo {
	if len(namespaces) == 0 {
		seen := make(map[tracespec.Namespace]bool)
		for _, ns := range g.Namespaces() {
			seen[ns] = true
		}
		for _, ns := range rt.Namespaces() {
			seen[ns] = true
		}
		for ns := range seen {
			namespaces = append(namespaces, ns)
		}
		sort.Slice(namespaces, func(i, j int) bool { return namespaces[i] < namespaces[j] })
	}

	out := make([]RouteInfo, 0, len(namespaces))
	for _, ns := range namespaces {
		route := rt.Resolve(ns)
		info := RouteInfo{
			Namespace: string(ns),
			Enabled:   g.Enabled(ns),
			Severity:  route.Severity.String(),
			Backends:  make([]string, 0, len(route.Backends)),
			Scribes:   make([]string, 0, len(route.Scribes)),
		}
		for _, b := range route.Backends {
			info.Backends = append(info.Backends, b.String())
		}
		for _, id := range route.Scribes {
			info.Scribes = append(info.Scribes, id.String())
		}
		if route.SeverityOverride {
			info.Overrides = append(info.Overrides, "mapSeverity")
		}
		if route.BackendsOverride {
			info.Overrides = append(info.Overrides, "mapBackends")
		}
		if route.ScribesOverride {
			info.Overrides = append(info.Overrides, "mapScribes")
		}
		out = append(out, info)
	}
	return out
}

type sinkInfo struct {
	Sink    string `yaml:"sink"`
	Dropped uint64 `yaml:"dropped"`
	Status  string `yaml:"status"`
}

type routingReport struct {
	Session string      `yaml:"session"`
	Routes  []RouteInfo `yaml:"routes"`
	Sinks   []sinkInfo  `yaml:"sinks"`
}

// RoutingHandler serves the live routing and sink health of d as YAML.
// The ns query parameter, repeatable, limits the report to those namespaces.
func RoutingHandler(d *Dispatcher) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var namespaces []tracespec.Namespace
		for _, ns := range r.URL.Query()["ns"] {
			namespaces = append(namespaces, tracespec.Namespace(ns))
		}
		p := d.policy.Load()
		report := routingReport{
			Session: d.Session(),
			Routes:  DescribeRoutes(p.gate, p.routes, namespaces...),
		}
		for _, id := range d.registry.Sinks() {
			info := sinkInfo{Sink: id.String(), Dropped: d.registry.Dropped(id), Status: "ok"}
			if err := d.registry.Status(id); err != nil {
				info.Status = err.Error()
			}
			report.Sinks = append(report.Sinks, info)
		}

		data, err := yaml.Marshal(report)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(data)
	})
}
