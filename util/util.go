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

//go:build !windows

package util

import (
	"golang.org/x/sys/unix"
)

/* misc */

// GetCurrentProcessTimes gets current process kernel and usermode times
func GetCurrentProcessTimes() (utime int64, stime int64, err error) {
	var usage unix.Rusage

	err = unix.Getrusage(unix.RUSAGE_SELF, &usage)
	if err == nil {
		utime = usage.Utime.Nano()
		stime = usage.Stime.Nano()
	}
	return
}

// GetMaxResidentSetBytes returns the peak resident set size of the process.
func GetMaxResidentSetBytes() (uint64, error) {
	var usage unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &usage); err != nil {
		return 0, err
	}
	return uint64(usage.Maxrss) * maxrssUnit, nil
}

// GetFdLimits returns the current soft and hard limits on open file descriptors.
func GetFdLimits() (soft uint64, hard uint64, err error) {
	var rLimit unix.Rlimit
	err = unix.Getrlimit(unix.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		return 0, 0, err
	}
	return uint64(rLimit.Cur), uint64(rLimit.Max), nil
}

// RaiseFdSoftLimit raises the file descriptors soft limit to at least newLimit,
// bounded by the hard limit.
func RaiseFdSoftLimit(newLimit uint64) error {
	var rLimit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rLimit); err != nil {
		return err
	}
	if uint64(rLimit.Cur) >= newLimit {
		return nil
	}
	if newLimit > uint64(rLimit.Max) {
		newLimit = uint64(rLimit.Max)
	}
	rLimit.Cur = newLimit
	return unix.Setrlimit(unix.RLIMIT_NOFILE, &rLimit)
}
