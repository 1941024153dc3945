// Copyright 2016 Qubit Digital Ltd.
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config reads the optional loglens configuration file.
package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Caelrith/loglens-core/ql"
	"github.com/Caelrith/loglens-core/relabel"
	"github.com/Caelrith/loglens-core/timeexpr"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// DefaultFile is looked for in the home directory when no file is named.
const DefaultFile = ".loglens.yaml"

// Config holds defaults for the command line and named queries.
type Config struct {
	Format      string            `yaml:"format,omitempty"`
	ShowLabels  bool              `yaml:"show_labels,omitempty"`
	Since       string            `yaml:"since,omitempty"`
	Until       string            `yaml:"until,omitempty"`
	Queries     map[string]string `yaml:"queries,omitempty"`
	StreamRules relabel.Config    `yaml:"stream_relabel,omitempty"`
	LineRules   relabel.Config    `yaml:"line_relabel,omitempty"`

	XXX map[string]interface{} `yaml:",inline"`
}

// Parse reads a config from yaml. Unknown settings, saved queries that do
// not compile and unreadable times are all errors.
func Parse(bs []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(bs, cfg); err != nil {
		return nil, err
	}

	if len(cfg.XXX) != 0 {
		unknowns := []string{}
		for k := range cfg.XXX {
			unknowns = append(unknowns, k)
		}
		sort.Strings(unknowns)
		return nil, errors.Errorf("unknown config fields: %s", strings.Join(unknowns, ", "))
	}

	for name, q := range cfg.Queries {
		if _, err := ql.Compile(q); err != nil {
			return nil, errors.Wrapf(err, "saved query %q", name)
		}
	}

	for _, ts := range []string{cfg.Since, cfg.Until} {
		if ts == "" {
			continue
		}
		if _, err := timeexpr.Parse(ts); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Load reads the config file at path.
func Load(path string) (*Config, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(bs)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return cfg, nil
}

// LoadDefault reads path, or the default file in the home directory when
// path is empty. A missing default file gives an empty config.
func LoadDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return &Config{}, nil
	}
	cfg, err := Load(filepath.Join(home, DefaultFile))
	if os.IsNotExist(errors.Cause(err)) {
		return &Config{}, nil
	}
	return cfg, err
}

// Expand replaces a query of the form @name with the saved query of that
// name. Other queries are returned as they are.
func (c *Config) Expand(q string) (string, error) {
	if !strings.HasPrefix(q, "@") {
		return q, nil
	}
	name := q[1:]
	sq, ok := c.Queries[name]
	if !ok {
		return "", errors.Errorf("no saved query named %q", name)
	}
	return sq, nil
}
