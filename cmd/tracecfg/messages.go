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

const (
	configFileMissing  = "no configuration file was specified. Please use either -c or set environment variable NODETRACE_CONFIG"
	configReadFailed   = "Failed to read configuration file %s : %s\n"
	configInvalid      = "%s is invalid:\n"
	configProblem      = "  - %s\n"
	configValid        = "%s is valid: %d scribes, %d gated namespaces\n"
	configSaveFailed   = "Configuration file could not be saved : %s\n"
	traceKeyUnknown    = "%s is not a Trace<Subsystem> key\n"
	traceKeyStatus     = "%s (%s) is %s\n"
	traceRewriteNote   = "The configuration file is rewritten in full: comments are dropped, TurnOn* aliases are saved as Enable*, and every default is written out."
	routeHeader        = "%-40s %-8s %-10s %-22s %s\n"
	routeNoneSymbol    = "-"
	routeOverrideLabel = " (override: %s)"
)
