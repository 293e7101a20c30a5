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

package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/algorand/nodetrace/tracing/tracespec"
)

// ErrInvalidConfig matches every ConfigError through errors.Is.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigError collects every problem found while validating a configuration.
// A node must not start with a ConfigError.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", strings.Join(e.Problems, "; "))
}

// Is reports whether target is ErrInvalidConfig.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

type problems []string

func (p *problems) addf(format string, args ...interface{}) {
	*p = append(*p, fmt.Sprintf(format, args...))
}

// Validate checks every routing, scribe and rotation entry. It returns a *ConfigError
// listing all problems, or nil.
func (cfg Local) Validate() error {
	var p problems
	p = append(p, cfg.traceProblems...)

	if _, err := tracespec.ParseSeverity(cfg.MinSeverity); err != nil {
		p.addf("minSeverity: %v", err)
	}
	for _, b := range cfg.SetupBackends {
		if _, err := tracespec.ParseBackend(b); err != nil {
			p.addf("setupBackends: %v", err)
		}
	}
	for _, b := range cfg.DefaultBackends {
		if _, err := tracespec.ParseBackend(b); err != nil {
			p.addf("defaultBackends: %v", err)
		}
	}

	configured := make(map[tracespec.ScribeID]bool, len(cfg.SetupScribes))
	for i, sc := range cfg.SetupScribes {
		id, err := sc.ID()
		if err != nil {
			p.addf("setupScribes[%d]: %v", i, err)
			continue
		}
		if configured[id] {
			p.addf("setupScribes[%d]: duplicate scribe %s", i, id)
		}
		configured[id] = true
		if _, err = tracespec.ParseScribeFormat(sc.Format); err != nil {
			p.addf("setupScribes[%d]: %v", i, err)
		}
		if id.Kind == tracespec.FileSK {
			where := "rotation"
			if sc.Rotation != nil {
				where = fmt.Sprintf("setupScribes[%d].scRotation", i)
			}
			cfg.RotationFor(sc).validate(where, &p)
		}
	}

	for i, pair := range cfg.DefaultScribes {
		if len(pair) != 2 {
			p.addf("defaultScribes[%d]: expected [kind, name], got %d entries", i, len(pair))
			continue
		}
		id, err := tracespec.MakeScribeID(pair[0], pair[1])
		if err != nil {
			p.addf("defaultScribes[%d]: %v", i, err)
			continue
		}
		if !configured[id] {
			p.addf("defaultScribes[%d]: scribe %s is not in setupScribes", i, id)
		}
	}

	for _, ns := range sortedKeys(cfg.Options.MapBackends) {
		if ns == "" {
			p.addf("options.mapBackends: empty namespace")
		}
		for _, b := range cfg.Options.MapBackends[ns] {
			if _, err := tracespec.ParseBackend(b); err != nil {
				p.addf("options.mapBackends[%s]: %v", ns, err)
			}
		}
	}
	for _, ns := range sortedKeys(cfg.Options.MapScribes) {
		if ns == "" {
			p.addf("options.mapScribes: empty namespace")
		}
		for _, s := range cfg.Options.MapScribes[ns] {
			id, err := tracespec.ParseScribeID(s)
			if err != nil {
				p.addf("options.mapScribes[%s]: %v", ns, err)
				continue
			}
			if !configured[id] {
				p.addf("options.mapScribes[%s]: scribe %s is not in setupScribes", ns, id)
			}
		}
	}
	for _, ns := range sortedKeys(cfg.Options.MapSeverity) {
		if ns == "" {
			p.addf("options.mapSeverity: empty namespace")
		}
		if _, err := tracespec.ParseSeverity(cfg.Options.MapSeverity[ns]); err != nil {
			p.addf("options.mapSeverity[%s]: %v", ns, err)
		}
	}

	if cfg.SinkQueueDepth < 1 {
		p.addf("sinkQueueDepth: must be at least 1, got %d", cfg.SinkQueueDepth)
	}
	if cfg.ShutdownDrainSeconds < 0 {
		p.addf("shutdownDrainSeconds: must not be negative, got %d", cfg.ShutdownDrainSeconds)
	}
	if cfg.HasPrometheus != nil && (cfg.HasPrometheus.Port < 1 || cfg.HasPrometheus.Port > 65535) {
		p.addf("hasPrometheus: port %d out of range", cfg.HasPrometheus.Port)
	}

	if len(p) == 0 {
		return nil
	}
	return &ConfigError{Problems: p}
}

func (r RotationConfig) validate(where string, p *problems) {
	if r.LogLimitBytes == nil {
		p.addf("%s: missing rpLogLimitBytes", where)
	}
	if r.KeepFilesNum == nil {
		p.addf("%s: missing rpKeepFilesNum", where)
	} else if *r.KeepFilesNum < 1 {
		p.addf("%s: rpKeepFilesNum must be at least 1", where)
	}
	if r.MaxAgeHours == nil {
		p.addf("%s: missing rpMaxAgeHours", where)
	}
}

// ID parses the scribe kind and name.
func (sc ScribeConfig) ID() (tracespec.ScribeID, error) {
	return tracespec.MakeScribeID(sc.Kind, sc.Name)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
