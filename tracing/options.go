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
	"io"
	"os"

	"github.com/algorand/nodetrace/util/metrics"
)

// Option adjusts how a Registry or a Dispatcher is built.
type Option func(*options)

type options struct {
	stdout   io.Writer
	stderr   io.Writer
	hostname string
	metrics  *metrics.Registry
}

func makeOptions(opts []Option) options {
	o := options{stdout: os.Stdout, stderr: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}
	if o.hostname == "" {
		o.hostname, _ = os.Hostname()
	}
	if o.metrics == nil {
		o.metrics = metrics.MakeRegistry()
	}
	return o
}

// WithStdout replaces the process standard output for StdoutSK scribes.
func WithStdout(w io.Writer) Option {
	return func(o *options) { o.stdout = w }
}

// WithStderr replaces the process standard error for the StdoutSK::stderr scribe.
func WithStderr(w io.Writer) Option {
	return func(o *options) { o.stderr = w }
}

// WithHostname sets the host reported in every record.
func WithHostname(host string) Option {
	return func(o *options) { o.hostname = host }
}

// WithMetricsRegistry collects the tracing metrics in reg instead of a private registry.
func WithMetricsRegistry(reg *metrics.Registry) Option {
	return func(o *options) { o.metrics = reg }
}
