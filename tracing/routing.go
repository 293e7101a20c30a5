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
	"sort"

	"github.com/algorand/nodetrace/config"
	"github.com/algorand/nodetrace/tracing/tracespec"
)

// RoutingTable resolves the severity threshold, backends and scribes of a
// namespace. An override for the exact namespace replaces the global default;
// an override present with an empty list routes the namespace nowhere.
// A RoutingTable is immutable and safe for concurrent use. Slices returned by
// the Resolve methods are shared and must not be modified.
type RoutingTable struct {
	minSeverity     tracespec.Severity
	defaultBackends []tracespec.Backend
	defaultScribes  []tracespec.ScribeID

	severity map[tracespec.Namespace]tracespec.Severity
	backends map[tracespec.Namespace][]tracespec.Backend
	scribes  map[tracespec.Namespace][]tracespec.ScribeID
}

// Route is the resolved routing of one namespace.
type Route struct {
	Namespace tracespec.Namespace
	Severity  tracespec.Severity
	Backends  []tracespec.Backend
	Scribes   []tracespec.ScribeID

	// set when the namespace has its own entry in the respective option map
	SeverityOverride bool
	BackendsOverride bool
	ScribesOverride  bool
}

// MakeRoutingTable validates cfg and builds its routing table.
func MakeRoutingTable(cfg config.Local) (*RoutingTable, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	// Validate has checked every entry, so parse errors below cannot happen.
	rt := &RoutingTable{
		severity: make(map[tracespec.Namespace]tracespec.Severity, len(cfg.Options.MapSeverity)),
		backends: make(map[tracespec.Namespace][]tracespec.Backend, len(cfg.Options.MapBackends)),
		scribes:  make(map[tracespec.Namespace][]tracespec.ScribeID, len(cfg.Options.MapScribes)),
	}
	rt.minSeverity, _ = tracespec.ParseSeverity(cfg.MinSeverity)
	rt.defaultBackends = parseBackends(cfg.DefaultBackends)
	for _, pair := range cfg.DefaultScribes {
		id, _ := tracespec.MakeScribeID(pair[0], pair[1])
		rt.defaultScribes = appendUniqueScribe(rt.defaultScribes, id)
	}

	for ns, text := range cfg.Options.MapSeverity {
		rt.severity[tracespec.Namespace(ns)], _ = tracespec.ParseSeverity(text)
	}
	for ns, names := range cfg.Options.MapBackends {
		rt.backends[tracespec.Namespace(ns)] = parseBackends(names)
	}
	for ns, names := range cfg.Options.MapScribes {
		ids := make([]tracespec.ScribeID, 0, len(names))
		for _, name := range names {
			id, _ := tracespec.ParseScribeID(name)
			ids = appendUniqueScribe(ids, id)
		}
		rt.scribes[tracespec.Namespace(ns)] = ids
	}
	return rt, nil
}

func parseBackends(names []string) []tracespec.Backend {
	out := make([]tracespec.Backend, 0, len(names))
	for _, name := range names {
		b, _ := tracespec.ParseBackend(name)
		dup := false
		for _, have := range out {
			dup = dup || have == b
		}
		if !dup {
			out = append(out, b)
		}
	}
	return out
}

func appendUniqueScribe(ids []tracespec.ScribeID, id tracespec.ScribeID) []tracespec.ScribeID {
	for _, have := range ids {
		if have == id {
			return ids
		}
	}
	return append(ids, id)
}

// ResolveSeverity returns the threshold events of ns must reach.
func (rt *RoutingTable) ResolveSeverity(ns tracespec.Namespace) tracespec.Severity {
	if sev, ok := rt.severity[ns]; ok {
		return sev
	}
	return rt.minSeverity
}

// ResolveBackends returns the backends events of ns are routed to.
func (rt *RoutingTable) ResolveBackends(ns tracespec.Namespace) []tracespec.Backend {
	if backends, ok := rt.backends[ns]; ok {
		return backends
	}
	return rt.defaultBackends
}

// ResolveScribes returns the scribes the KatipBK backend writes events of ns to.
func (rt *RoutingTable) ResolveScribes(ns tracespec.Namespace) []tracespec.ScribeID {
	if scribes, ok := rt.scribes[ns]; ok {
		return scribes
	}
	return rt.defaultScribes
}

// Resolve returns the complete routing of ns.
func (rt *RoutingTable) Resolve(ns tracespec.Namespace) Route {
	_, sevOverride := rt.severity[ns]
	_, backendsOverride := rt.backends[ns]
	_, scribesOverride := rt.scribes[ns]
	return Route{
		Namespace:        ns,
		Severity:         rt.ResolveSeverity(ns),
		Backends:         rt.ResolveBackends(ns),
		Scribes:          rt.ResolveScribes(ns),
		SeverityOverride: sevOverride,
		BackendsOverride: backendsOverride,
		ScribesOverride:  scribesOverride,
	}
}

// Namespaces lists the namespaces that carry at least one override, in lexical order.
func (rt *RoutingTable) Namespaces() []tracespec.Namespace {
	seen := make(map[tracespec.Namespace]bool)
	for ns := range rt.severity {
		seen[ns] = true
	}
	for ns := range rt.backends {
		seen[ns] = true
	}
	for ns := range rt.scribes {
		seen[ns] = true
	}
	out := make([]tracespec.Namespace, 0, len(seen))
	for ns := range seen {
		out = append(out, ns)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ReferencedScribes returns every scribe some namespace can be routed to, defaults included.
func (rt *RoutingTable) ReferencedScribes() []tracespec.ScribeID {
	out := append([]tracespec.ScribeID(nil), rt.defaultScribes...)
	for _, ns := range rt.Namespaces() {
		for _, id := range rt.scribes[ns] {
			out = appendUniqueScribe(out, id)
		}
	}
	return out
}
