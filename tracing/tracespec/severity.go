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

// Package tracespec specifies the data format of trace events and the
// identifiers used by the tracing configuration.
package tracespec

import (
	"errors"
	"fmt"
	"strings"
)

// Severity is the ordered severity of a trace event.
type Severity uint8

const (
	// Debug severity: very verbose, usually only enabled while debugging.
	Debug Severity = iota
	// Info severity: general operational entries.
	Info
	// Notice severity: normal but significant conditions.
	Notice
	// Warning severity: non-critical entries that deserve eyes.
	Warning
	// Error severity: errors that should definitely be noted.
	Error
	// Critical severity: critical conditions.
	Critical
	// Alert severity: action must be taken immediately.
	Alert
	// Emergency severity: the node is unusable.
	Emergency

	numSeverities // keep this last
)

// ErrInvalidSeverity is returned when a severity name is not recognized.
var ErrInvalidSeverity = errors.New("invalid severity")

var severityNames = [numSeverities]string{
	"Debug",
	"Info",
	"Notice",
	"Warning",
	"Error",
	"Critical",
	"Alert",
	"Emergency",
}

// AllSeverities returns every severity in ascending order.
func AllSeverities() []Severity {
	out := make([]Severity, numSeverities)
	for i := range out {
		out[i] = Severity(i)
	}
	return out
}

func (s Severity) String() string {
	if s >= numSeverities {
		return fmt.Sprintf("Severity(%d)", uint8(s))
	}
	return severityNames[s]
}

// Valid reports whether s is one of the eight known severities.
func (s Severity) Valid() bool {
	return s < numSeverities
}

// Compare returns -1, 0 or +1 depending on whether s is less than, equal to or greater than other.
func (s Severity) Compare(other Severity) int {
	switch {
	case s < other:
		return -1
	case s > other:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether s passes the given threshold.
func (s Severity) AtLeast(threshold Severity) bool {
	return s >= threshold
}

// ParseSeverity converts a severity name into a Severity. Matching ignores case.
func ParseSeverity(text string) (Severity, error) {
	trimmed := strings.TrimSpace(text)
	for i, name := range severityNames {
		if strings.EqualFold(name, trimmed) {
			return Severity(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidSeverity, text)
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSeverity, uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	v, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
