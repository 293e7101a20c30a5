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
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/algorand/nodetrace/config"
	"github.com/algorand/nodetrace/logging"
)

var configFile = flag.String("c", os.ExpandEnv("$NODETRACE_CONFIG"), "Tracing configuration file")
var dataDirectory = flag.String("d", "", "Data directory; relative scribe paths are resolved against it")
var replayFile = flag.String("r", "", `Replay JSON-lines events from this file ("-" for standard input)`)
var usagePeriod = flag.Duration("u", 0, "Trace the process resource usage at this period (0 disables)")
var keepRunning = flag.Bool("w", false, "Keep running after the replay has finished")
var logLevel = flag.Uint("l", uint(logging.Info), "Verbosity of the node's own log, 0 (panic) to 5 (debug)")

const lockFilename = "tracenode.lock"

func main() {
	flag.Parse()
	exitCode := run()
	os.Exit(exitCode)
}

func run() int {
	if *configFile == "" {
		fmt.Fprintln(os.Stderr, "Configuration file not specified.  Please use -c or set $NODETRACE_CONFIG in your environment.")
		return 1
	}
	absoluteConfig, err := filepath.Abs(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Can't convert configuration path to absolute, %v\n", *configFile)
		return 1
	}

	log := logging.Base()
	log.SetLevel(logging.Level(*logLevel))

	if *dataDirectory != "" {
		if _, err = os.Stat(*dataDirectory); err != nil {
			fmt.Fprintf(os.Stderr, "Data directory %s does not appear to be valid\n", *dataDirectory)
			return 1
		}
		// only one node may write the scribes of a data directory
		fileLock := flock.New(filepath.Join(*dataDirectory, lockFilename))
		locked, err := fileLock.TryLock()
		if err != nil {
			fmt.Fprintf(os.Stderr, "unexpected failure in establishing %s: %s \n", lockFilename, err.Error())
			return 1
		}
		if !locked {
			fmt.Fprintf(os.Stderr, "failed to lock %s; is another tracenode already running in this data directory?\n", lockFilename)
			return 1
		}
		defer fileLock.Unlock()
		logging.RegisterExitHandler(func() { fileLock.Unlock() })

		if err = os.Chdir(*dataDirectory); err != nil {
			fmt.Fprintf(os.Stderr, "Cannot enter data directory %s: %v\n", *dataDirectory, err)
			return 1
		}
	}

	cfg, err := config.LoadConfigFromFile(absoluteConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration file (%s): %v\n", absoluteConfig, err)
		return 1
	}

	s := Server{log: log, configFile: absoluteConfig}
	if err = s.Initialize(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Cannot start tracing: %v\n", err)
		return 1
	}
	if err = s.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Cannot start tracing: %v\n", err)
		s.Stop()
		return 1
	}

	var replayDone <-chan error
	if *replayFile != "" {
		replayDone = s.Replay(*replayFile)
	}
	return s.Wait(replayDone, *keepRunning)
}
