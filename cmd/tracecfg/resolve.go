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
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/algorand/nodetrace/config"
	"github.com/algorand/nodetrace/tracing"
	"github.com/algorand/nodetrace/tracing/tracespec"
)

var namespaces []string

func init() {
	resolveCmd.Flags().StringArrayVarP(&namespaces, "namespace", "n", nil, "Namespace to resolve, may be repeated; all known namespaces when omitted")
}

var validateCmd = &cobra.Command{
	Use:   "validate -c config",
	Short: "Check a tracing configuration",
	Long:  `Check every severity, backend, scribe and rotation entry of a tracing configuration and list all problems found`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, ok := loadConfig(os.Stdout)
		if !ok {
			os.Exit(1)
		}
		gate := tracing.MakeGate(cfg.TraceFlags, cfg.EnableLogMetrics)
		color.New(color.FgGreen).Printf(configValid, configFile, len(cfg.SetupScribes), len(gate.Namespaces()))
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve -c config [-n namespace]...",
	Short: "Print where the events of each namespace are routed",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, ok := loadConfig(os.Stdout)
		if !ok {
			os.Exit(1)
		}
		rt, err := tracing.MakeRoutingTable(cfg)
		if err != nil {
			fmt.Printf(configReadFailed, configFile, err)
			os.Exit(1)
		}
		nss := make([]tracespec.Namespace, len(namespaces))
		for i, ns := range namespaces {
			nss[i] = tracespec.Namespace(ns)
		}
		printRoutes(os.Stdout, tracing.DescribeRoutes(tracing.MakeGate(cfg.TraceFlags, cfg.EnableLogMetrics), rt, nss...))
	},
}

// loadConfig reads configFile and reports every validation problem to out.
func loadConfig(out io.Writer) (config.Local, bool) {
	if configFile == "" {
		fmt.Fprintln(out, configFileMissing)
		return config.Local{}, false
	}
	cfg, err := config.LoadConfigFromFile(configFile)
	if err == nil {
		return cfg, true
	}
	var cerr *config.ConfigError
	if !errors.As(err, &cerr) {
		fmt.Fprintf(out, configReadFailed, configFile, err)
		return cfg, false
	}
	red := color.New(color.FgRed)
	red.Fprintf(out, configInvalid, configFile)
	for _, problem := range cerr.Problems {
		red.Fprintf(out, configProblem, problem)
	}
	return cfg, false
}

func printRoutes(out io.Writer, routes []tracing.RouteInfo) {
	fmt.Fprintf(out, routeHeader, "NAMESPACE", "ENABLED", "SEVERITY", "BACKENDS", "SCRIBES")
	disabled := color.New(color.FgYellow)
	for _, r := range routes {
		line := fmt.Sprintf(routeHeader, r.Namespace, yesNo(r.Enabled), r.Severity, joinOrNone(r.Backends), joinOrNone(r.Scribes))
		if len(r.Overrides) > 0 {
			line = strings.TrimSuffix(line, "\n") + fmt.Sprintf(routeOverrideLabel, strings.Join(r.Overrides, ",")) + "\n"
		}
		if r.Enabled {
			fmt.Fprint(out, line)
		} else {
			disabled.Fprint(out, line)
		}
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return routeNoneSymbol
	}
	return strings.Join(items, ",")
}
