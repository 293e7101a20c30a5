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
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/algorand/nodetrace/config"
	"github.com/algorand/nodetrace/logging"
	"github.com/algorand/nodetrace/tracing/tracespec"
	"github.com/algorand/nodetrace/util/metrics"
)

// lockSuffix names the advisory lock kept next to every file scribe.
const lockSuffix = ".lock"

// Sink is a destination owned by a Registry. Each sink is driven by exactly one
// worker goroutine, so implementations need no locking of their own.
type Sink interface {
	Name() string

	deliver(rec *record) error
	// flush pushes buffered output; the worker calls it whenever its queue runs empty
	flush() error
	close() error
}

// record is one entry of a sink queue: an event still to be formatted, raw
// bytes written through Registry.Write, or a barrier used by Registry.Sync.
type record struct {
	ev      *tracespec.Event
	raw     []byte
	barrier barrier
}

type fileSink struct {
	name      string
	format    formatter
	out       *logging.CyclicFileWriter
	lock      *flock.Flock
	rotations *metrics.Counter
}

func policyFromConfig(rot config.RotationConfig) logging.RotationPolicy {
	return logging.RotationPolicy{
		LimitBytes: *rot.LogLimitBytes,
		KeepFiles:  *rot.KeepFilesNum,
		MaxAge:     time.Duration(*rot.MaxAgeHours) * time.Hour,
		Compress:   rot.CompressArchive,
	}
}

// openFileSink takes the advisory lock of the live file and opens it for appending.
func openFileSink(id tracespec.ScribeID, format formatter, rot config.RotationConfig, rotations *metrics.Counter) (*fileSink, error) {
	if err := os.MkdirAll(filepath.Dir(id.Name), 0755); err != nil {
		return nil, fmt.Errorf("scribe %s: %w", id, err)
	}
	lock := flock.New(id.Name + lockSuffix)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("scribe %s: cannot lock: %w", id, err)
	}
	if !locked {
		return nil, fmt.Errorf("scribe %s: %s is in use by another writer", id, id.Name)
	}
	out, err := logging.MakeCyclicFileWriter(id.Name, policyFromConfig(rot))
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("scribe %s: %w", id, err)
	}
	return &fileSink{
		name:      id.String(),
		format:    format,
		out:       out,
		lock:      lock,
		rotations: rotations,
	}, nil
}

func (fs *fileSink) Name() string {
	return fs.name
}

func (fs *fileSink) deliver(rec *record) error {
	before := fs.out.Rotations()
	defer func() {
		if after := fs.out.Rotations(); after > before {
			fs.rotations.AddUint64(after-before, map[string]string{"sink": fs.name})
		}
	}()

	if rec.raw != nil {
		_, err := fs.out.Write(rec.raw)
		return fs.classify(err)
	}
	buf, err := fs.format.format(rec.ev)
	if err != nil {
		return &SinkError{Sink: fs.name, Kind: WriteFailed, Err: err}
	}
	_, err = fs.out.Write(buf.Bytes())
	buf.Free()
	return fs.classify(err)
}

func (fs *fileSink) classify(err error) error {
	if err == nil {
		return nil
	}
	kind := WriteFailed
	if errors.Is(err, logging.ErrRotationFailed) {
		kind = RotationFailed
	}
	return &SinkError{Sink: fs.name, Kind: kind, Err: err}
}

func (fs *fileSink) flush() error {
	return nil
}

func (fs *fileSink) close() error {
	return errors.Join(fs.out.Sync(), fs.out.Close(), fs.lock.Unlock())
}

// streamSink writes to the process standard output or standard error.
type streamSink struct {
	name   string
	format formatter
	w      *bufio.Writer
}

func makeStreamSink(id tracespec.ScribeID, format formatter, w io.Writer) *streamSink {
	return &streamSink{name: id.String(), format: format, w: bufio.NewWriter(w)}
}

func (ss *streamSink) Name() string {
	return ss.name
}

func (ss *streamSink) deliver(rec *record) error {
	if rec.raw != nil {
		return ss.wrap(ss.writeRecord(rec.raw))
	}
	buf, err := ss.format.format(rec.ev)
	if err != nil {
		return ss.wrap(err)
	}
	err = ss.writeRecord(buf.Bytes())
	buf.Free()
	return ss.wrap(err)
}

// writeRecord hands p to the stream in a single Write. The stream may be shared with
// other writers, such as the node's own logger on stderr.
func (ss *streamSink) writeRecord(p []byte) error {
	if len(p) > ss.w.Available() {
		if err := ss.w.Flush(); err != nil {
			return err
		}
	}
	_, err := ss.w.Write(p)
	return err
}

func (ss *streamSink) wrap(err error) error {
	if err == nil {
		return nil
	}
	return &SinkError{Sink: ss.name, Kind: WriteFailed, Err: err}
}

func (ss *streamSink) flush() error {
	return ss.wrap(ss.w.Flush())
}

func (ss *streamSink) close() error {
	return ss.flush()
}
