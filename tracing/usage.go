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
	"runtime"
	"sync"
	"time"

	"github.com/algorand/nodetrace/tracing/tracespec"
	"github.com/algorand/nodetrace/util"
)

// ResourceTraceThread emits the resource usage of the process every period
// until ctx is done. CPU shares are only reported from the second tick on.
func ResourceTraceThread(ctx context.Context, t Tracer, period time.Duration, wg *sync.WaitGroup) {
	if wg != nil {
		defer wg.Done()
	}

	var prevUtime, prevStime int64
	var prevTime time.Time
	hasPrev := false

	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
		if !t.Enabled(tracespec.Info) {
			continue
		}

		now := time.Now()
		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)
		fields := tracespec.Fields{
			"goroutines": runtime.NumGoroutine(),
			"heapBytes":  mem.HeapAlloc,
			"gcCount":    uint64(mem.NumGC),
		}
		if rss, err := util.GetMaxResidentSetBytes(); err == nil {
			fields["maxRssBytes"] = rss
		}

		utime, stime, err := util.GetCurrentProcessTimes()
		if err == nil {
			if hasPrev {
				wallNanos := now.Sub(prevTime).Nanoseconds()
				fields["cpuUser"] = float64(utime-prevUtime) / float64(wallNanos)
				fields["cpuSys"] = float64(stime-prevStime) / float64(wallNanos)
			}
			prevUtime, prevStime, prevTime = utime, stime, now
			hasPrev = true
		}
		t.Trace(tracespec.Info, "resource usage", fields)
	}
}
