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
	"strings"
	"testing"
)

type testLoggerWriter struct {
	t testing.TB
}

func (w testLoggerWriter) Write(p []byte) (n int, err error) {
	w.t.Helper()
	w.t.Log(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}

// TestingLog is a test-only helper returning a Logger that writes through t.Log
// at level Debug.
func TestingLog(tb testing.TB) Logger {
	l := NewLogger()
	l.SetLevel(Debug)
	l.SetOutput(testLoggerWriter{t: tb})
	return l
}

// TestingLogWithoutFatalExit is TestingLog where Fatal runs the exit handlers
// but does not terminate the test binary.
func TestingLogWithoutFatalExit(tb testing.TB) Logger {
	l := TestingLog(tb).(logger)
	l.entry.Logger.ExitFunc = func(int) {}
	return l
}
