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
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/algorand/nodetrace/tracing"
	"github.com/algorand/nodetrace/tracing/tracespec"
)

// maxReplayLine bounds one JSON-lines record.
const maxReplayLine = 1 << 20

// replayedEvent is the shape of the records written by ScJson scribes.
type replayedEvent struct {
	At        time.Time           `json:"at"`
	Namespace tracespec.Namespace `json:"ns"`
	Severity  tracespec.Severity  `json:"sev"`
	Message   string              `json:"msg"`
	Data      tracespec.Fields    `json:"data"`
}

// replayEvents dispatches every record of in, in order, and returns how many were read.
// Blank lines are skipped; a malformed record stops the replay.
func replayEvents(ctx context.Context, d *tracing.Dispatcher, in io.Reader) (int, error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), maxReplayLine)

	n := 0
	for line := 1; scanner.Scan(); line++ {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		text := scanner.Bytes()
		if len(text) == 0 {
			continue
		}
		var rec replayedEvent
		if err := json.Unmarshal(text, &rec); err != nil {
			return n, fmt.Errorf("line %d: %w", line, err)
		}
		if rec.Namespace == "" {
			return n, fmt.Errorf("line %d: missing ns", line)
		}
		if rec.At.IsZero() {
			rec.At = time.Now()
		}
		d.Dispatch(tracespec.MakeEventAt(rec.At, rec.Namespace, rec.Severity, rec.Message, rec.Data))
		n++
	}
	return n, scanner.Err()
}
