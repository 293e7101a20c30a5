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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/algorand/go-deadlock"

	"github.com/algorand/nodetrace/util"
)

// ErrRotationFailed is wrapped by every error caused by a failed rotation.
// A writer that failed to rotate stays unusable.
var ErrRotationFailed = errors.New("log rotation failed")

var errInvalidKeepFiles = errors.New("CyclicFileWriter: KeepFiles must be at least 1")

const compressedSuffix = ".gz"

// RotationPolicy bounds the size, age and count of the files written by a CyclicFileWriter.
type RotationPolicy struct {
	// LimitBytes is the largest size of the live file. Zero disables size based rotation.
	LimitBytes uint64
	// KeepFiles is the total number of files kept, the live file included.
	KeepFiles uint
	// MaxAge rotates a live file opened longer ago than this. Zero disables age based rotation.
	MaxAge time.Duration
	// Compress gzips archives as they are created.
	Compress bool
}

// CyclicFileWriter implements the io.Writer interface and wraps an underlying file.
// It ensures that the file never grows over a limit by archiving it as <live>.1,
// shifting older archives to <live>.2 and so on, and deleting the ones beyond
// the policy's KeepFiles.
type CyclicFileWriter struct {
	mu        deadlock.Mutex
	writer    *os.File
	liveLog   string
	policy    RotationPolicy
	nextWrite uint64
	openedAt  time.Time
	failed    error
	rotations uint64

	now func() time.Time
}

type archiveFile struct {
	index      int
	compressed bool
	path       string
}

// MakeCyclicFileWriter returns a writer that wraps a file to ensure it never grows too large.
// An existing live file is appended to, and its age counts from its last modification.
func MakeCyclicFileWriter(liveLogFilePath string, policy RotationPolicy) (*CyclicFileWriter, error) {
	if policy.KeepFiles < 1 {
		return nil, errInvalidKeepFiles
	}
	cyclic := &CyclicFileWriter{liveLog: liveLogFilePath, policy: policy, now: time.Now}

	if err := os.MkdirAll(filepath.Dir(liveLogFilePath), 0755); err != nil {
		return nil, fmt.Errorf("CyclicFileWriter: cannot create log directory: %w", err)
	}

	cyclic.openedAt = cyclic.now()
	if fs, err := os.Stat(liveLogFilePath); err == nil {
		cyclic.nextWrite = uint64(fs.Size())
		cyclic.openedAt = fs.ModTime()
	}

	writer, err := os.OpenFile(liveLogFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("CyclicFileWriter: cannot open log file: %w", err)
	}
	cyclic.writer = writer
	return cyclic, nil
}

// Write appends p to the live file as a single record, rotating first when p
// would push the file over its size limit or the file is too old. A record
// larger than the limit is written alone into a fresh file.
func (cyclic *CyclicFileWriter) Write(p []byte) (n int, err error) {
	cyclic.mu.Lock()
	defer cyclic.mu.Unlock()

	if cyclic.failed != nil {
		return 0, cyclic.failed
	}
	if cyclic.writer == nil {
		return 0, os.ErrClosed
	}

	if cyclic.shouldRotate(uint64(len(p))) {
		if err = cyclic.rotate(); err != nil {
			return 0, err
		}
	}

	n, err = cyclic.writer.Write(p)
	cyclic.nextWrite += uint64(n)
	return
}

// Rotate archives a non-empty live file immediately.
func (cyclic *CyclicFileWriter) Rotate() error {
	cyclic.mu.Lock()
	defer cyclic.mu.Unlock()

	if cyclic.failed != nil {
		return cyclic.failed
	}
	if cyclic.writer == nil {
		return os.ErrClosed
	}
	if cyclic.nextWrite == 0 {
		return nil
	}
	return cyclic.rotate()
}

// Archives returns the archived files, oldest first.
func (cyclic *CyclicFileWriter) Archives() ([]string, error) {
	archives, err := cyclic.listArchives()
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(archives))
	for i, a := range archives {
		paths[i] = a.path
	}
	return paths, nil
}

// Size returns the number of bytes in the live file.
func (cyclic *CyclicFileWriter) Size() uint64 {
	cyclic.mu.Lock()
	defer cyclic.mu.Unlock()
	return cyclic.nextWrite
}

// Rotations returns how many times the live file has been archived.
func (cyclic *CyclicFileWriter) Rotations() uint64 {
	cyclic.mu.Lock()
	defer cyclic.mu.Unlock()
	return cyclic.rotations
}

// Path returns the live file path.
func (cyclic *CyclicFileWriter) Path() string {
	return cyclic.liveLog
}

// Sync commits the live file to stable storage.
func (cyclic *CyclicFileWriter) Sync() error {
	cyclic.mu.Lock()
	defer cyclic.mu.Unlock()
	if cyclic.writer == nil {
		return nil
	}
	return cyclic.writer.Sync()
}

// Close closes the live file. Further writes fail with os.ErrClosed.
func (cyclic *CyclicFileWriter) Close() error {
	cyclic.mu.Lock()
	defer cyclic.mu.Unlock()
	if cyclic.writer == nil {
		return nil
	}
	err := cyclic.writer.Close()
	cyclic.writer = nil
	return err
}

func (cyclic *CyclicFileWriter) shouldRotate(incoming uint64) bool {
	if cyclic.nextWrite == 0 {
		return false
	}
	if cyclic.policy.LimitBytes > 0 && cyclic.nextWrite+incoming > cyclic.policy.LimitBytes {
		return true
	}
	return cyclic.policy.MaxAge > 0 && cyclic.now().Sub(cyclic.openedAt) > cyclic.policy.MaxAge
}

// rotate must be called with the lock held; writers block until the new live file is open.
func (cyclic *CyclicFileWriter) rotate() error {
	if err := cyclic.roll(); err != nil {
		if cyclic.writer != nil {
			cyclic.writer.Close()
			cyclic.writer = nil
		}
		cyclic.failed = fmt.Errorf("%w: %s: %w", ErrRotationFailed, cyclic.liveLog, err)
		return cyclic.failed
	}
	return nil
}

func (cyclic *CyclicFileWriter) roll() error {
	if err := cyclic.writer.Close(); err != nil {
		return err
	}
	cyclic.writer = nil

	archives, err := cyclic.listArchives()
	if err != nil {
		return err
	}
	// oldest first, so every shift lands on a free name
	keep := int(cyclic.policy.KeepFiles)
	for _, a := range archives {
		if a.index >= keep-1 {
			if err = os.Remove(a.path); err != nil {
				return err
			}
			continue
		}
		if err = util.MoveFile(a.path, cyclic.archivePath(a.index+1, a.compressed)); err != nil {
			return err
		}
	}

	if keep > 1 {
		first := cyclic.archivePath(1, false)
		if err = util.MoveFile(cyclic.liveLog, first); err != nil {
			return err
		}
		if cyclic.policy.Compress {
			if err = util.GzipFile(first, cyclic.archivePath(1, true)); err != nil {
				return err
			}
		}
	}

	writer, err := os.OpenFile(cyclic.liveLog, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	cyclic.writer = writer
	cyclic.nextWrite = 0
	cyclic.openedAt = cyclic.now()
	cyclic.rotations++
	return nil
}

func (cyclic *CyclicFileWriter) archivePath(index int, compressed bool) string {
	name := cyclic.liveLog + "." + strconv.Itoa(index)
	if compressed {
		name += compressedSuffix
	}
	return name
}

// listArchives returns <live>.N and <live>.N.gz files, highest N first.
func (cyclic *CyclicFileWriter) listArchives() ([]archiveFile, error) {
	dir, base := filepath.Split(cyclic.liveLog)
	if dir == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var archives []archiveFile
	prefix := base + "."
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		suffix := strings.TrimPrefix(name, prefix)
		compressed := strings.HasSuffix(suffix, compressedSuffix)
		index, err := strconv.Atoi(strings.TrimSuffix(suffix, compressedSuffix))
		if err != nil || index < 1 {
			continue
		}
		archives = append(archives, archiveFile{index: index, compressed: compressed, path: filepath.Join(dir, name)})
	}
	sort.Slice(archives, func(i, j int) bool {
		if archives[i].index != archives[j].index {
			return archives[i].index > archives[j].index
		}
		return archives[i].path < archives[j].path
	})
	return archives, nil
}
