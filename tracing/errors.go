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
	"errors"
	"fmt"
)

var (
	// ErrUnknownSink is returned when addressing a scribe that was not set up at startup.
	ErrUnknownSink = errors.New("unknown sink")
	// ErrQueueOverflow is returned by Registry.Write when the sink queue is full and the record was dropped.
	ErrQueueOverflow = errors.New("sink queue is full")
	// ErrSinkClosed is returned once the registry has been shut down.
	ErrSinkClosed = errors.New("sink is shut down")
)

// SinkErrorKind classifies sink failures.
type SinkErrorKind int

const (
	// WriteFailed means a record could not be written.
	WriteFailed SinkErrorKind = iota
	// RotationFailed means the file could not be rotated; the sink is degraded at once.
	RotationFailed
)

func (k SinkErrorKind) String() string {
	switch k {
	case WriteFailed:
		return "WriteFailed"
	case RotationFailed:
		return "RotationFailed"
	default:
		return fmt.Sprintf("SinkErrorKind(%d)", int(k))
	}
}

// SinkError reports a failure local to one sink. It never reaches the emitters.
type SinkError struct {
	Sink string
	Kind SinkErrorKind
	Err  error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink %s: %s: %v", e.Sink, e.Kind, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}
