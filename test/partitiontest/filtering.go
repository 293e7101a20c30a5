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

// Package partitiontest splits the test suite across CI runners.
package partitiontest

import (
	"hash/fnv"
	"os"
	"runtime"
	"strconv"
	"testing"
)

// PartitionTest checks if the current partition should run this test, and skips it if not.
// Partitioning is driven by PARTITION_TOTAL and PARTITION_ID; when either is missing every test runs.
func PartitionTest(t testing.TB) {
	total, ok := envInt("PARTITION_TOTAL")
	if !ok || total <= 0 {
		return
	}
	partitionID, ok := envInt("PARTITION_ID")
	if !ok {
		return
	}
	_, file, _, _ := runtime.Caller(1) // filename of the test calling PartitionTest
	idx := stringToUint64(file+":"+t.Name()) % uint64(total)
	if idx != uint64(partitionID) {
		t.Skipf("skipping due to partitioning, assigned to partition %d", idx)
	}
}

func envInt(name string) (int, bool) {
	raw, found := os.LookupEnv(name)
	if !found {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func stringToUint64(str string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(str))
	return h.Sum64()
}
