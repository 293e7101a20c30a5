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

package tracespec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/algorand/nodetrace/test/partitiontest"
)

func TestSeverityOrder(t *testing.T) {
	partitiontest.PartitionTest(t)

	ordered := []Severity{Debug, Info, Notice, Warning, Error, Critical, Alert, Emergency}
	require.Equal(t, ordered, AllSeverities())
	for i := 1; i < len(ordered); i++ {
		require.Equal(t, -1, ordered[i-1].Compare(ordered[i]))
		require.Equal(t, 1, ordered[i].Compare(ordered[i-1]))
		require.True(t, ordered[i].AtLeast(ordered[i-1]))
		require.False(t, ordered[i-1].AtLeast(ordered[i]))
	}
	require.Equal(t, 0, Notice.Compare(Notice))
}

func TestSeverityCompareIsTotalOrder(t *testing.T) {
	partitiontest.PartitionTest(t)

	gen := rapid.Custom(func(t *rapid.T) Severity {
		return Severity(rapid.IntRange(0, int(numSeverities)-1).Draw(t, "sev"))
	})
	rapid.Check(t, func(t *rapid.T) {
		a, b := gen.Draw(t, "a"), gen.Draw(t, "b")
		if a.Compare(b) != -b.Compare(a) {
			t.Fatalf("compare not antisymmetric for %v %v", a, b)
		}
		if (a.Compare(b) >= 0) != a.AtLeast(b) {
			t.Fatalf("AtLeast disagrees with Compare for %v %v", a, b)
		}
	})
}

func TestParseSeverity(t *testing.T) {
	partitiontest.PartitionTest(t)

	for _, sev := range AllSeverities() {
		parsed, err := ParseSeverity(sev.String())
		require.NoError(t, err)
		require.Equal(t, sev, parsed)
	}

	parsed, err := ParseSeverity(" notice ")
	require.NoError(t, err)
	require.Equal(t, Notice, parsed)

	_, err = ParseSeverity("Verbose")
	require.ErrorIs(t, err, ErrInvalidSeverity)

	var s Severity
	require.NoError(t, s.UnmarshalText([]byte("Critical")))
	require.Equal(t, Critical, s)
	require.Error(t, s.UnmarshalText([]byte("")))

	_, err = Severity(42).MarshalText()
	require.ErrorIs(t, err, ErrInvalidSeverity)
}

func TestParseScribeID(t *testing.T) {
	partitiontest.PartitionTest(t)

	id, err := ParseScribeID("FileSK::logs/mainnet.log")
	require.NoError(t, err)
	require.Equal(t, ScribeID{Kind: FileSK, Name: "logs/mainnet.log"}, id)
	require.Equal(t, "FileSK::logs/mainnet.log", id.String())

	id, err = ParseScribeID("StdoutSK::stdout")
	require.NoError(t, err)
	require.Equal(t, StdoutSK, id.Kind)

	for _, bad := range []string{"FileSK:logs", "JournalSK::x", "FileSK::", "logs/mainnet.log"} {
		_, err = ParseScribeID(bad)
		require.ErrorIs(t, err, ErrInvalidScribe, bad)
	}
}

func TestParseBackendAndFormat(t *testing.T) {
	partitiontest.PartitionTest(t)

	b, err := ParseBackend("EKGViewBK")
	require.NoError(t, err)
	require.Equal(t, EKGViewBK, b)
	_, err = ParseBackend("GraylogBK")
	require.ErrorIs(t, err, ErrInvalidBackend)

	f, err := ParseScribeFormat("")
	require.NoError(t, err)
	require.Equal(t, ScText, f)
	f, err = ParseScribeFormat("ScJson")
	require.NoError(t, err)
	require.Equal(t, ScJson, f)
	_, err = ParseScribeFormat("ScXml")
	require.ErrorIs(t, err, ErrInvalidScribe)
}

func TestMakeEventCopiesFields(t *testing.T) {
	partitiontest.PartitionTest(t)

	fields := Fields{"slot": 10}
	at := time.Date(2021, 1, 2, 3, 4, 5, 0, time.UTC)
	ev := MakeEventAt(at, "cardano.node.ChainDB", Notice, "added block", fields)
	fields["slot"] = 11

	require.Equal(t, 10, ev.Fields["slot"])
	require.Equal(t, at, ev.Timestamp)
	require.Equal(t, []string{"slot"}, ev.Fields.SortedKeys())

	empty := MakeEvent("cardano.node.ChainDB", Info, "x", nil)
	require.Nil(t, empty.Fields)
}
