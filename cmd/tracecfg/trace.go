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
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/algorand/nodetrace/tracing"
)

func init() {
	traceCmd.AddCommand(traceStatusCmd)
	traceCmd.AddCommand(traceEnableCmd)
	traceCmd.AddCommand(traceDisableCmd)
}

var showCmd = &cobra.Command{
	Use:   "show -c config",
	Short: "Print the configuration with every default filled in",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, ok := loadConfig(os.Stdout)
		if !ok {
			os.Exit(1)
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		enc.Close()
	},
}

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Control the Trace<Subsystem> gate of a configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.HelpFunc()(cmd, args)
	},
}

var traceStatusCmd = &cobra.Command{
	Use:   "status -c config TraceKey",
	Short: "Print whether a subsystem is traced",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, ok := loadConfig(os.Stdout)
		if !ok {
			os.Exit(1)
		}
		ns, known := tracing.NamespaceForTraceKey(args[0])
		if !known {
			fmt.Printf(traceKeyUnknown, args[0])
			os.Exit(1)
		}
		status := "disabled"
		if tracing.MakeGate(cfg.TraceFlags, cfg.EnableLogMetrics).Enabled(ns) {
			status = "enabled"
		}
		fmt.Printf(traceKeyStatus, args[0], ns, status)
	},
}

var traceEnableCmd = &cobra.Command{
	Use:   "enable -c config TraceKey",
	Short: "Turn tracing of a subsystem on, rewriting the configuration file",
	Long:  traceRewriteNote,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if !traceEnableDisable(os.Stdout, args[0], true) {
			os.Exit(1)
		}
	},
}

var traceDisableCmd = &cobra.Command{
	Use:   "disable -c config TraceKey",
	Short: "Turn tracing of a subsystem off, rewriting the configuration file",
	Long:  traceRewriteNote,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if !traceEnableDisable(os.Stdout, args[0], false) {
			os.Exit(1)
		}
	},
}

// traceEnableDisable sets one gate key and saves the whole configuration back.
func traceEnableDisable(out io.Writer, key string, enable bool) bool {
	cfg, ok := loadConfig(out)
	if !ok {
		return false
	}
	ns, known := tracing.NamespaceForTraceKey(key)
	if !known {
		fmt.Fprintf(out, traceKeyUnknown, key)
		return false
	}
	if cfg.TraceFlags == nil {
		cfg.TraceFlags = make(map[string]bool)
	}
	cfg.TraceFlags[key] = enable
	if err := cfg.SaveToFile(configFile); err != nil {
		fmt.Fprintf(out, configSaveFailed, err)
		return false
	}
	status := "disabled"
	if enable {
		status = "enabled"
	}
	fmt.Fprintf(out, traceKeyStatus, key, ns, status)
	return true
}
