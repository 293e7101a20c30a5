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

package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/algorand/nodetrace/test/partitiontest"
)

func makeTestWriter(t *testing.T, policy RotationPolicy) (*CyclicFileWriter, string) {
	t.Helper()
	live := filepath.Join(t.TempDir(), "node.log")
	cyclic, err := MakeCyclicFileWriter(live, policy)
	require.NoError(t, err)
	t.Cleanup(func() { cyclic.Close() })
	return cyclic, live
}

func TestCyclicWrite(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	space := 1024
	cyclicWriter, liveFileName := makeTestWriter(t, RotationPolicy{LimitBytes: uint64(space), KeepFiles: 2})

	firstWrite := bytes.Repeat([]byte{'A'}, space)
	n, err := cyclicWriter.Write(firstWrite)
	require.NoError(t, err)
	require.Equal(t, len(firstWrite), n)

	secondWrite := []byte{'B'}
	n, err = cyclicWriter.Write(secondWrite)
	require.NoError(t, err)
	require.Equal(t, len(secondWrite), n)

	liveData, err := os.ReadFile(liveFileName)
	require.NoError(t, err)
	require.Equal(t, secondWrite, liveData)

	oldData, err := os.ReadFile(liveFileName + ".1")
	require.NoError(t, err)
	require.Equal(t, firstWrite, oldData)
}

func TestCyclicWriteRejectsNoKeepFiles(t *testing.T) {
	partitiontest.PartitionTest(t)

	_, err := MakeCyclicFileWriter(filepath.Join(t.TempDir(), "node.log"), RotationPolicy{LimitBytes: 10})
	require.Error(t, err)
}

func TestCyclicWriteSingleRotationAtLimit(t *testing.T) {
	partitiontest.PartitionTest(t)

	cyclic, live := makeTestWriter(t, RotationPolicy{LimitBytes: 5000000, KeepFiles: 3, MaxAge: 24 * time.Hour})

	record := bytes.Repeat([]byte{'x'}, 999)
	record = append(record, '\n')
	for i := 0; i < 5000; i++ {
		_, err := cyclic.Write(record)
		require.NoError(t, err)
	}
	require.Equal(t, uint64(5000000), cyclic.Size())
	archives, err := cyclic.Archives()
	require.NoError(t, err)
	require.Empty(t, archives)

	_, err = cyclic.Write(record)
	require.NoError(t, err)

	archives, err = cyclic.Archives()
	require.NoError(t, err)
	require.Equal(t, []string{live + ".1"}, archives)

	st, err := os.Stat(live + ".1")
	require.NoError(t, err)
	require.Equal(t, int64(5000000), st.Size())
	st, err = os.Stat(live)
	require.NoError(t, err)
	require.Equal(t, int64(len(record)), st.Size())

	entries, err := os.ReadDir(filepath.Dir(live))
	require.NoError(t, err)
	require.LessOrEqual(t, len(entries), 3)
}

func TestCyclicWriteShiftsArchives(t *testing.T) {
	partitiontest.PartitionTest(t)

	cyclic, live := makeTestWriter(t, RotationPolicy{LimitBytes: 10, KeepFiles: 3})

	for i := 0; i < 20; i++ {
		_, err := cyclic.Write([]byte(fmt.Sprintf("record-%02d\n", i)))
		require.NoError(t, err)
	}

	archives, err := cyclic.Archives()
	require.NoError(t, err)
	require.Equal(t, []string{live + ".2", live + ".1"}, archives)

	read := func(path string) string {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		return string(data)
	}
	require.Equal(t, "record-19\n", read(live))
	require.Equal(t, "record-18\n", read(live+".1"))
	require.Equal(t, "record-17\n", read(live+".2"))
}

func TestCyclicWriteOversizedRecord(t *testing.T) {
	partitiontest.PartitionTest(t)

	cyclic, live := makeTestWriter(t, RotationPolicy{LimitBytes: 10, KeepFiles: 2})

	_, err := cyclic.Write([]byte("small\n"))
	require.NoError(t, err)

	big := bytes.Repeat([]byte{'z'}, 50)
	n, err := cyclic.Write(big)
	require.NoError(t, err)
	require.Equal(t, len(big), n)

	data, err := os.ReadFile(live)
	require.NoError(t, err)
	require.Equal(t, big, data)

	// the oversized file is rotated away before the next record
	_, err = cyclic.Write([]byte("next\n"))
	require.NoError(t, err)
	data, err = os.ReadFile(live + ".1")
	require.NoError(t, err)
	require.Equal(t, big, data)
}

func TestCyclicWriteRotatesByAge(t *testing.T) {
	partitiontest.PartitionTest(t)

	cyclic, live := makeTestWriter(t, RotationPolicy{KeepFiles: 2, MaxAge: time.Hour})
	clock := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	cyclic.now = func() time.Time { return clock }
	cyclic.openedAt = clock

	_, err := cyclic.Write([]byte("first\n"))
	require.NoError(t, err)
	clock = clock.Add(30 * time.Minute)
	_, err = cyclic.Write([]byte("second\n"))
	require.NoError(t, err)
	require.False(t, fileExists(live+".1"))

	// exactly MaxAge old is not yet too old
	clock = clock.Add(30 * time.Minute)
	_, err = cyclic.Write([]byte("second\n"))
	require.NoError(t, err)
	require.False(t, fileExists(live+".1"))

	clock = clock.Add(time.Minute)
	_, err = cyclic.Write([]byte("third\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(live + ".1")
	require.NoError(t, err)
	require.Equal(t, "first\nsecond\nsecond\n", string(data))
	data, err = os.ReadFile(live)
	require.NoError(t, err)
	require.Equal(t, "third\n", string(data))
}

func TestCyclicWriteCompressesArchives(t *testing.T) {
	partitiontest.PartitionTest(t)

	cyclic, live := makeTestWriter(t, RotationPolicy{LimitBytes: 16, KeepFiles: 3, Compress: true})

	records := []string{"block 1 adopted\n", "block 2 adopted\n", "block 3 adopted\n"}
	for _, r := range records {
		_, err := cyclic.Write([]byte(r))
		require.NoError(t, err)
	}

	archives, err := cyclic.Archives()
	require.NoError(t, err)
	require.Equal(t, []string{live + ".2.gz", live + ".1.gz"}, archives)

	for i, path := range archives {
		f, err := os.Open(path)
		require.NoError(t, err)
		zr, err := gzip.NewReader(f)
		require.NoError(t, err)
		data, err := io.ReadAll(zr)
		f.Close()
		require.NoError(t, err)
		require.Equal(t, records[i], string(data))
	}
}

func TestCyclicWriteKeepOneTruncates(t *testing.T) {
	partitiontest.PartitionTest(t)

	cyclic, live := makeTestWriter(t, RotationPolicy{LimitBytes: 8, KeepFiles: 1})
	_, err := cyclic.Write([]byte("1234567\n"))
	require.NoError(t, err)
	_, err = cyclic.Write([]byte("abc\n"))
	require.NoError(t, err)

	archives, err := cyclic.Archives()
	require.NoError(t, err)
	require.Empty(t, archives)
	data, err := os.ReadFile(live)
	require.NoError(t, err)
	require.Equal(t, "abc\n", string(data))
}

func TestCyclicWritePrunesStaleArchives(t *testing.T) {
	partitiontest.PartitionTest(t)

	dir := t.TempDir()
	live := filepath.Join(dir, "node.log")
	for _, name := range []string{"node.log.1", "node.log.5", "node.log.7.gz", "node.log.lock"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0644))
	}
	require.NoError(t, os.WriteFile(live, []byte("previous run\n"), 0644))

	cyclic, err := MakeCyclicFileWriter(live, RotationPolicy{LimitBytes: 16, KeepFiles: 3})
	require.NoError(t, err)
	defer cyclic.Close()
	require.Equal(t, uint64(len("previous run\n")), cyclic.Size())

	_, err = cyclic.Write([]byte("this run starts\n"))
	require.NoError(t, err)

	archives, err := cyclic.Archives()
	require.NoError(t, err)
	require.Equal(t, []string{live + ".2", live + ".1"}, archives)
	data, err := os.ReadFile(live + ".2")
	require.NoError(t, err)
	require.Equal(t, "node.log.1", string(data))
	require.True(t, fileExists(live+".lock"))
}

func TestCyclicWriteRotationFailure(t *testing.T) {
	partitiontest.PartitionTest(t)

	cyclic, live := makeTestWriter(t, RotationPolicy{LimitBytes: 4, KeepFiles: 2})
	// a directory squatting on the archive name makes the move fail
	require.NoError(t, os.Mkdir(live+".1", 0755))

	_, err := cyclic.Write([]byte("abcd"))
	require.NoError(t, err)
	_, err = cyclic.Write([]byte("efgh"))
	require.ErrorIs(t, err, ErrRotationFailed)

	_, err = cyclic.Write([]byte("ijkl"))
	require.ErrorIs(t, err, ErrRotationFailed)
	require.ErrorIs(t, cyclic.Rotate(), ErrRotationFailed)
}

func TestCyclicWriteForcedRotate(t *testing.T) {
	partitiontest.PartitionTest(t)

	cyclic, live := makeTestWriter(t, RotationPolicy{KeepFiles: 2})
	require.NoError(t, cyclic.Rotate())
	require.False(t, fileExists(live+".1"))

	_, err := cyclic.Write([]byte("x\n"))
	require.NoError(t, err)
	require.NoError(t, cyclic.Rotate())
	require.True(t, fileExists(live+".1"))
	require.Equal(t, uint64(0), cyclic.Size())
	require.Equal(t, uint64(1), cyclic.Rotations())

	require.NoError(t, cyclic.Close())
	_, err = cyclic.Write([]byte("y\n"))
	require.ErrorIs(t, err, os.ErrClosed)
}

func TestCyclicWriteBoundsFileCount(t *testing.T) {
	partitiontest.PartitionTest(t)

	rapid.Check(t, func(rt *rapid.T) {
		dir, err := os.MkdirTemp("", "cyclic")
		if err != nil {
			rt.Fatal(err)
		}
		defer os.RemoveAll(dir)

		limit := rapid.Uint64Range(1, 64).Draw(rt, "limit")
		keep := rapid.UintRange(1, 4).Draw(rt, "keep")
		cyclic, err := MakeCyclicFileWriter(filepath.Join(dir, "node.log"), RotationPolicy{LimitBytes: limit, KeepFiles: keep})
		if err != nil {
			rt.Fatal(err)
		}
		defer cyclic.Close()

		sizes := rapid.SliceOfN(rapid.IntRange(1, 100), 1, 40).Draw(rt, "sizes")
		for _, size := range sizes {
			if _, err := cyclic.Write(bytes.Repeat([]byte{'r'}, size)); err != nil {
				rt.Fatal(err)
			}
			if cyclic.Size() > limit && cyclic.Size() != uint64(size) {
				rt.Fatalf("live file holds %d bytes over limit %d", cyclic.Size(), limit)
			}
			entries, err := os.ReadDir(dir)
			if err != nil {
				rt.Fatal(err)
			}
			if uint(len(entries)) > keep {
				rt.Fatalf("%d files kept, policy allows %d", len(entries), keep)
			}
		}
	})
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
