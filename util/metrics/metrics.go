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

// MetricName describes the name and description of a single metric
type MetricName struct {
	Name        string
	Description string
}

var (
	// TracingEventsDispatched Number of trace events that passed the gate and severity filter
	TracingEventsDispatched = MetricName{Name: "tracing_events_dispatched_total", Description: "Number of trace events accepted for delivery"}
	// TracingEventsFiltered Number of trace events discarded by the gate or the severity threshold
	TracingEventsFiltered = MetricName{Name: "tracing_events_filtered_total", Description: "Number of trace events discarded before routing"}
	// TracingSinkDropped Number of events dropped per sink because its queue was full. {TAG} is the sink id.
	TracingSinkDropped = MetricName{Name: "tracing_sink_dropped_{TAG}", Description: "Number of events dropped because the sink queue was full"}
	// TracingSinkFailures Number of failed sink writes
	TracingSinkFailures = MetricName{Name: "tracing_sink_failures_total", Description: "Number of failed sink writes"}
	// TracingSinkRotations Number of completed file rotations
	TracingSinkRotations = MetricName{Name: "tracing_sink_rotations_total", Description: "Number of file rotations"}
	// TracingViewEvents Number of events seen by the metrics view, per namespace
	TracingViewEvents = MetricName{Name: "tracing_view_events_total", Description: "Number of events received by the metrics view"}
	// TracingViewValue Last numeric value of an event field seen by the metrics view
	TracingViewValue = MetricName{Name: "tracing_view_value", Description: "Last value of a numeric event field"}
	// TracingPolicyReloads Number of successful policy reloads
	TracingPolicyReloads = MetricName{Name: "tracing_policy_reloads_total", Description: "Number of tracing policy reloads"}
)
