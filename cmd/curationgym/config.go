// Copyright 2026 The CurationGym Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// InputSource is one raw document source the pipeline reads from.
type InputSource struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"` // warc | wet | tabular; empty infers from the path's extension
	Dump   string `yaml:"dump"`   // stamped into metadata.dump; defaults to the base file name
}

// EvalSource is a benchmark text file folded into the decontamination index.
type EvalSource struct {
	Path string `yaml:"path"`
	Name string `yaml:"name"`
}

// RunConfig is curationgym.yaml: the operator-facing run configuration
// (inputs, output directory, worker count), distinct from policy.yaml's
// curation policy, matching the teacher's separation of project.yaml
// (where to look, how many workers) from its indexing config proper.
type RunConfig struct {
	Inputs          []InputSource `yaml:"inputs"`
	PolicyPath      string        `yaml:"policy"`
	OutputDir       string        `yaml:"output"`
	Workers         int           `yaml:"workers"`
	MetricsAddr     string        `yaml:"metrics_addr"`
	BlocklistPath   string        `yaml:"blocklist"`
	ExtractHTML     bool          `yaml:"extract_html"`
	DecontamSources []EvalSource  `yaml:"decontam_sources"`
	DatasetID       string        `yaml:"dataset_id"`
}

// LoadRunConfig reads and validates a RunConfig from path.
func LoadRunConfig(path string) (RunConfig, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied config path
	if err != nil {
		return RunConfig{}, fmt.Errorf("read run config %q: %w", path, err)
	}
	var cfg RunConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return RunConfig{}, fmt.Errorf("parse run config yaml: %w", err)
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./curationgym_out"
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.PolicyPath == "" {
		return RunConfig{}, fmt.Errorf("run config %q: policy path is required", path)
	}
	if len(cfg.Inputs) == 0 {
		return RunConfig{}, fmt.Errorf("run config %q: at least one input is required", path)
	}
	if cfg.DatasetID == "" {
		cfg.DatasetID = "curationgym-dataset"
	}
	return cfg, nil
}
