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
	"strings"

	"github.com/algorand/nodetrace/tracing/tracespec"
)

// NodeNamespacePrefix prefixes every namespace derived from a Trace<Subsystem> key.
const NodeNamespacePrefix = "cardano.node."

const traceKeyPrefix = "Trace"

// wellKnownTraceKeys maps the node's gate keys to their namespaces. Several
// differ from the key suffix, e.g. TraceChainDb and TraceDNSResolver.
var wellKnownTraceKeys = map[string]tracespec.Namespace{
	"TraceBlockFetchClient":             "cardano.node.BlockFetchClient",
	"TraceBlockFetchDecisions":          "cardano.node.BlockFetchDecision",
	"TraceBlockFetchProtocol":           "cardano.node.BlockFetchProtocol",
	"TraceBlockFetchProtocolSerialised": "cardano.node.BlockFetchProtocolSerialised",
	"TraceBlockFetchServer":             "cardano.node.BlockFetchServer",
	"TraceChainDb":                      "cardano.node.ChainDB",
	"TraceChainSyncBlockServer":         "cardano.node.ChainSyncBlockServer",
	"TraceChainSyncClient":              "cardano.node.ChainSyncClient",
	"TraceChainSyncHeaderServer":        "cardano.node.ChainSyncHeaderServer",
	"TraceChainSyncProtocol":            "cardano.node.ChainSyncProtocol",
	"TraceDNSResolver":                  "cardano.node.DnsResolver",
	"TraceDNSSubscription":              "cardano.node.DnsSubscription",
	"TraceErrorPolicy":                  "cardano.node.ErrorPolicy",
	"TraceForge":                        "cardano.node.Forge",
	"TraceHandshake":                    "cardano.node.Handshake",
	"TraceIpSubscription":               "cardano.node.IpSubscription",
	"TraceLocalChainSyncProtocol":       "cardano.node.LocalChainSyncProtocol",
	"TraceLocalErrorPolicy":             "cardano.node.LocalErrorPolicy",
	"TraceLocalHandshake":               "cardano.node.LocalHandshake",
	"TraceLocalTxSubmissionProtocol":    "cardano.node.LocalTxSubmissionProtocol",
	"TraceLocalTxSubmissionServer":      "cardano.node.LocalTxSubmissionServer",
	"TraceMempool":                      "cardano.node.Mempool",
	"TraceMux":                          "cardano.node.Mux",
	"TraceTxInbound":                    "cardano.node.TxInbound",
	"TraceTxOutbound":                   "cardano.node.TxOutbound",
	"TraceTxSubmissionProtocol":         "cardano.node.TxSubmissionProtocol",
}

// NamespaceForTraceKey returns the namespace gated by a Trace<Subsystem> key.
// Keys outside the well-known table map to NodeNamespacePrefix + Subsystem.
func NamespaceForTraceKey(key string) (tracespec.Namespace, bool) {
	if ns, ok := wellKnownTraceKeys[key]; ok {
		return ns, true
	}
	subsystem := strings.TrimPrefix(key, traceKeyPrefix)
	if subsystem == key || subsystem == "" {
		return "", false
	}
	return tracespec.Namespace(NodeNamespacePrefix + subsystem), true
}

// Gate answers whether a namespace is traced at all. It is immutable once made
// and safe for concurrent use. Namespaces without a flag are disabled.
type Gate struct {
	flags map[tracespec.Namespace]bool
}

// MakeGate builds a gate from the Trace<Subsystem> keys of a configuration.
// The metrics namespace follows metricsEnabled. When two keys name the same
// namespace, the namespace is enabled if either key is true.
func MakeGate(traceFlags map[string]bool, metricsEnabled bool) Gate {
	flags := make(map[tracespec.Namespace]bool, len(traceFlags)+1)
	for key, on := range traceFlags {
		ns, ok := NamespaceForTraceKey(key)
		if !ok {
			continue
		}
		flags[ns] = flags[ns] || on
	}
	flags[tracespec.MetricsNamespace] = metricsEnabled
	return Gate{flags: flags}
}

// Enabled reports whether events of ns may be emitted.
func (g Gate) Enabled(ns tracespec.Namespace) bool {
	return g.flags[ns]
}

// Namespaces lists every namespace the gate has a flag for, in lexical order.
func (g Gate) Namespaces() []tracespec.Namespace {
	out := make([]tracespec.Namespace, 0, len(g.flags))
	for ns := range g.flags {
		out = append(out, ns)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
