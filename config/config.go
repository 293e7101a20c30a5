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
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFilename is the name of the node configuration file inside a data directory.
const ConfigFilename = "config.yaml"

// tracePrefix marks the per-subsystem boolean gate keys, e.g. TraceChainDb.
const tracePrefix = "Trace"

// flagWords are the scalars an operator may mistake for a boolean. YAML 1.2 reads
// them as strings, so a gate key set to one of them would otherwise vanish.
var flagWords = map[string]bool{
	"yes": true, "no": true, "on": true, "off": true,
	"y": true, "n": true, "true": true, "false": true,
}

// Local holds the per-node configuration. The tracing section drives the trace
// routing engine; the runtime, genesis and networking entries are carried for
// the rest of the node and are opaque to tracing.
type Local struct {
	// Protocol names the consensus protocol the node runs.
	Protocol string `yaml:"Protocol,omitempty"`
	// RequiresNetworkMagic is either RequiresMagic or RequiresNoMagic.
	RequiresNetworkMagic string `yaml:"RequiresNetworkMagic,omitempty"`

	ByronGenesisFile   string `yaml:"ByronGenesisFile,omitempty"`
	ByronGenesisHash   string `yaml:"ByronGenesisHash,omitempty"`
	ShelleyGenesisFile string `yaml:"ShelleyGenesisFile,omitempty"`
	ShelleyGenesisHash string `yaml:"ShelleyGenesisHash,omitempty"`
	AlonzoGenesisFile  string `yaml:"AlonzoGenesisFile,omitempty"`
	AlonzoGenesisHash  string `yaml:"AlonzoGenesisHash,omitempty"`

	LastKnownBlockVersionMajor int `yaml:"LastKnownBlockVersion-Major,omitempty"`
	LastKnownBlockVersionMinor int `yaml:"LastKnownBlockVersion-Minor,omitempty"`
	LastKnownBlockVersionAlt   int `yaml:"LastKnownBlockVersion-Alt,omitempty"`

	// MaxConcurrencyBulkSync bounds the number of concurrent bulk-sync block fetches.
	MaxConcurrencyBulkSync int `yaml:"MaxConcurrencyBulkSync,omitempty"`
	// MaxConcurrencyDeadline bounds the number of concurrent deadline-mode block fetches.
	MaxConcurrencyDeadline int `yaml:"MaxConcurrencyDeadline,omitempty"`

	// EnableLogging is the master switch of the tracing engine. When false no
	// sink ever receives an event. TurnOnLogging is accepted as an alias.
	EnableLogging bool `yaml:"EnableLogging"`
	// EnableLogMetrics is the master switch of the metrics view backend.
	// TurnOnLogMetrics is accepted as an alias.
	EnableLogMetrics bool `yaml:"EnableLogMetrics"`

	// MinSeverity is the global severity threshold.
	MinSeverity string `yaml:"minSeverity"`

	SetupBackends   []string `yaml:"setupBackends,omitempty"`
	DefaultBackends []string `yaml:"defaultBackends,omitempty"`

	// SetupScribes lists every sink the node opens at startup.
	SetupScribes []ScribeConfig `yaml:"setupScribes,omitempty"`
	// DefaultScribes lists [kind, name] pairs used when a namespace has no mapScribes entry.
	DefaultScribes [][]string `yaml:"defaultScribes,omitempty"`

	// Rotation is the policy of every FileSK scribe without its own scRotation.
	Rotation RotationConfig `yaml:"rotation,omitempty"`

	Options Options `yaml:"options,omitempty"`

	// HasPrometheus, when set, exposes the metrics view over HTTP.
	HasPrometheus *Endpoint `yaml:"hasPrometheus,omitempty"`

	// SinkQueueDepth is the capacity of every sink delivery queue.
	SinkQueueDepth int `yaml:"sinkQueueDepth,omitempty"`
	// ShutdownDrainSeconds bounds how long sinks drain their queues on shutdown.
	ShutdownDrainSeconds int `yaml:"shutdownDrainSeconds,omitempty"`

	// TraceFlags holds the Trace<Subsystem> gate keys, which live at the top
	// level of the file next to the fields above.
	TraceFlags map[string]bool `yaml:"-"`

	// traceProblems records Trace<Subsystem> keys written as a word instead of a boolean.
	traceProblems []string
}

// ScribeConfig describes one configured sink.
type ScribeConfig struct {
	Kind     string          `yaml:"scKind"`
	Name     string          `yaml:"scName"`
	Format   string          `yaml:"scFormat,omitempty"`
	Rotation *RotationConfig `yaml:"scRotation,omitempty"`
}

// RotationConfig is the file rotation policy as written in the configuration.
// Pointer fields distinguish a missing entry from an explicit zero.
type RotationConfig struct {
	LogLimitBytes   *uint64 `yaml:"rpLogLimitBytes,omitempty"`
	KeepFilesNum    *uint   `yaml:"rpKeepFilesNum,omitempty"`
	MaxAgeHours     *uint   `yaml:"rpMaxAgeHours,omitempty"`
	CompressArchive bool    `yaml:"rpCompressArchive,omitempty"`
}

// Options holds the per-namespace routing overrides. A namespace present with an
// empty list routes nowhere; a namespace absent from a map uses the defaults.
type Options struct {
	MapBackends map[string][]string `yaml:"mapBackends,omitempty"`
	MapScribes  map[string][]string `yaml:"mapScribes,omitempty"`
	MapSeverity map[string]string   `yaml:"mapSeverity,omitempty"`
}

// Endpoint is a [host, port] pair.
type Endpoint struct {
	Host string
	Port int
}

var defaultLocal = Local{
	EnableLogging:        true,
	EnableLogMetrics:     true,
	MinSeverity:          "Info",
	SetupBackends:        []string{"KatipBK"},
	DefaultBackends:      []string{"KatipBK"},
	SetupScribes:         []ScribeConfig{{Kind: "StdoutSK", Name: "stdout", Format: "ScText"}},
	DefaultScribes:       [][]string{{"StdoutSK", "stdout"}},
	SinkQueueDepth:       1024,
	ShutdownDrainSeconds: 5,
}

// GetDefaultLocal returns a copy of the default configuration.
func GetDefaultLocal() Local {
	return defaultLocal.clone()
}

// LoadConfigFromDisk loads root/ConfigFilename on top of the defaults and validates it.
// When the file does not exist the defaults are returned along with the os error.
func LoadConfigFromDisk(root string) (Local, error) {
	return LoadConfigFromFile(filepath.Join(root, ConfigFilename))
}

// LoadConfigFromFile loads a configuration file on top of the defaults and validates it.
func LoadConfigFromFile(configFile string) (Local, error) {
	f, err := os.Open(configFile)
	if err != nil {
		return GetDefaultLocal(), err
	}
	defer f.Close()
	return LoadConfig(f)
}

// LoadConfig decodes a configuration on top of the defaults and validates it.
func LoadConfig(reader io.Reader) (Local, error) {
	c := GetDefaultLocal()
	dec := yaml.NewDecoder(reader)
	err := dec.Decode(&c)
	if err != nil && err != io.EOF {
		return c, fmt.Errorf("cannot decode configuration: %w", err)
	}
	return c, c.Validate()
}

// SaveToDisk writes the configuration into root/ConfigFilename.
func (cfg Local) SaveToDisk(root string) error {
	return cfg.SaveToFile(filepath.Join(root, ConfigFilename))
}

// SaveToFile writes the configuration as YAML.
func (cfg Local) SaveToFile(filename string) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return os.WriteFile(os.ExpandEnv(filename), buf.Bytes(), 0644)
}

// DrainTimeout is ShutdownDrainSeconds as a duration.
func (cfg Local) DrainTimeout() time.Duration {
	return time.Duration(cfg.ShutdownDrainSeconds) * time.Second
}

// RotationFor returns the rotation policy that applies to a scribe.
func (cfg Local) RotationFor(sc ScribeConfig) RotationConfig {
	if sc.Rotation != nil {
		return *sc.Rotation
	}
	return cfg.Rotation
}

// UnmarshalYAML decodes the regular fields and then collects the Trace* boolean
// keys and the TurnOn* aliases, which cannot be expressed as struct tags.
func (cfg *Local) UnmarshalYAML(node *yaml.Node) error {
	type plain Local
	if err := node.Decode((*plain)(cfg)); err != nil {
		return err
	}
	if node.Kind != yaml.MappingNode {
		return nil
	}
	var setupScribes, defaultScribes bool
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i].Value, node.Content[i+1]
		switch {
		case key == "setupScribes":
			setupScribes = true
		case key == "defaultScribes":
			defaultScribes = true
		case key == "TurnOnLogging":
			if err := value.Decode(&cfg.EnableLogging); err != nil {
				return fmt.Errorf("TurnOnLogging: %w", err)
			}
		case key == "TurnOnLogMetrics":
			if err := value.Decode(&cfg.EnableLogMetrics); err != nil {
				return fmt.Errorf("TurnOnLogMetrics: %w", err)
			}
		case strings.HasPrefix(key, tracePrefix) && len(key) > len(tracePrefix):
			if value.Kind != yaml.ScalarNode {
				continue
			}
			if value.ShortTag() != "!!bool" {
				// Trace-prefixed keys such as TraceOptionNodeName carry other values.
				if flagWords[strings.ToLower(value.Value)] {
					cfg.traceProblems = append(cfg.traceProblems,
						fmt.Sprintf("%s: %q is not a boolean, write true or false", key, value.Value))
				}
				continue
			}
			var on bool
			if err := value.Decode(&on); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			if cfg.TraceFlags == nil {
				cfg.TraceFlags = make(map[string]bool)
			}
			cfg.TraceFlags[key] = on
		}
	}
	if setupScribes && !defaultScribes {
		// without defaultScribes every configured scribe is a default
		cfg.DefaultScribes = make([][]string, 0, len(cfg.SetupScribes))
		for _, sc := range cfg.SetupScribes {
			cfg.DefaultScribes = append(cfg.DefaultScribes, []string{sc.Kind, sc.Name})
		}
	}
	return nil
}

// MarshalYAML writes the regular fields followed by the Trace* keys in lexical order.
func (cfg Local) MarshalYAML() (interface{}, error) {
	type plain Local
	var node yaml.Node
	if err := node.Encode(plain(cfg)); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(cfg.TraceFlags))
	for k := range cfg.TraceFlags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(cfg.TraceFlags[k])},
		)
	}
	return &node, nil
}

// UnmarshalYAML decodes a [host, port] sequence.
func (e *Endpoint) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode || len(node.Content) != 2 {
		return fmt.Errorf("line %d: expected [host, port]", node.Line)
	}
	port, err := strconv.Atoi(node.Content[1].Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid port %q", node.Line, node.Content[1].Value)
	}
	e.Host = node.Content[0].Value
	e.Port = port
	return nil
}

// MarshalYAML writes the endpoint back as a [host, port] sequence.
func (e Endpoint) MarshalYAML() (interface{}, error) {
	return []interface{}{e.Host, e.Port}, nil
}

// Address returns host:port.
func (e Endpoint) Address() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

func (cfg Local) clone() Local {
	out := cfg
	out.SetupBackends = append([]string(nil), cfg.SetupBackends...)
	out.DefaultBackends = append([]string(nil), cfg.DefaultBackends...)
	out.SetupScribes = append([]ScribeConfig(nil), cfg.SetupScribes...)
	out.traceProblems = append([]string(nil), cfg.traceProblems...)
	out.DefaultScribes = make([][]string, len(cfg.DefaultScribes))
	for i, pair := range cfg.DefaultScribes {
		out.DefaultScribes[i] = append([]string(nil), pair...)
	}
	if cfg.TraceFlags != nil {
		out.TraceFlags = make(map[string]bool, len(cfg.TraceFlags))
		for k, v := range cfg.TraceFlags {
			out.TraceFlags[k] = v
		}
	}
	return out
}
