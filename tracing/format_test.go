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
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/algorand/nodetrace/test/partitiontest"
	"github.com/algorand/nodetrace/tracing/tracespec"
)

var testOrigin = origin{host: "relay", pid: 42, session: "3f1c"}

func formatEvent(t *testing.T, f formatter, ev tracespec.Event) string {
	buf, err := f.format(&ev)
	require.NoError(t, err)
	defer buf.Free()
	return buf.String()
}

func TestTextFormat(t *testing.T) {
	partitiontest.PartitionTest(t)

	at := time.Date(2021, 1, 2, 3, 4, 5, 120*int(time.Millisecond), time.UTC)
	ev := tracespec.MakeEventAt(at, "cardano.node.ChainDB", tracespec.Notice, "added block",
		tracespec.Fields{"slot": 10, "hash": "ab cd", "delay": 1500 * time.Millisecond, "ok": true, "peer": ""})

	line := formatEvent(t, makeFormatter(tracespec.ScText, testOrigin), ev)
	require.Equal(t, `[relay:cardano.node.ChainDB:Notice:42] [2021-01-02 03:04:05.12 UTC] added block delay=1.5s hash="ab cd" ok=true peer="" slot=10`+"\n", line)

	ev = tracespec.MakeEventAt(at.In(time.FixedZone("X", 3600)), "cardano.node.Forge", tracespec.Error, "two\nlines", nil)
	line = formatEvent(t, makeFormatter(tracespec.ScText, testOrigin), ev)
	require.Equal(t, `[relay:cardano.node.Forge:Error:42] [2021-01-02 03:04:05.12 UTC] two\nlines`+"\n", line)
}

func TestJSONFormat(t *testing.T) {
	partitiontest.PartitionTest(t)

	at := time.Date(2021, 1, 2, 3, 4, 5, 120*int(time.Millisecond), time.UTC)
	ev := tracespec.MakeEventAt(at, "cardano.node.Mempool", tracespec.Info, `tx "added"`,
		tracespec.Fields{"txs": 3, "delay": 250 * time.Millisecond, "err": errors.New("boom")})

	line := formatEvent(t, makeFormatter(tracespec.ScJson, testOrigin), ev)
	require.Equal(t, byte('\n'), line[len(line)-1])

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line), &decoded))
	require.Equal(t, map[string]interface{}{
		"at":      "2021-01-02T03:04:05.12Z",
		"ns":      "cardano.node.Mempool",
		"msg":     `tx "added"`,
		"sev":     "Info",
		"host":    "relay",
		"pid":     float64(42),
		"session": "3f1c",
		"data": map[string]interface{}{
			"txs":   float64(3),
			"delay": 0.25,
			"err":   "boom",
		},
	}, decoded)
}

func TestJSONFormatWithoutFields(t *testing.T) {
	partitiontest.PartitionTest(t)

	ev := tracespec.MakeEvent("cardano.node.Forge", tracespec.Warning, "missed slot", nil)
	line := formatEvent(t, makeFormatter(tracespec.ScJson, testOrigin), ev)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line), &decoded))
	require.Equal(t, map[string]interface{}{}, decoded["data"])
	require.Equal(t, "Warning", decoded["sev"])
}
