// Copyright 2026 The Panoptikon PQL Authors
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

// Package config decodes the compiler server/CLI's YAML configuration file,
// the way the teacher's per-tool/per-source Config structs are decoded and
// validated.
package config

import (
	"fmt"
	"os"

	yaml "github.com/goccy/go-yaml"
	"github.com/go-playground/validator/v10"
)

// Config is the top-level configuration for cmd/pqlc serve.
type Config struct {
	Database Database `yaml:"database" validate:"required"`
	Log      Log      `yaml:"log"`
	Server   Server   `yaml:"server"`
}

// Database names the SQLite file the compiler runs queries against.
type Database struct {
	Path string `yaml:"path" validate:"required"`
}

// Log holds a logging format and level in the shape internal/log.NewLogger
// takes; Load validates them. cmd/pqlc builds its logger from the
// --log-format and --log-level flags and does not read this section.
type Log struct {
	Format string `yaml:"format" validate:"required,oneof=standard json"`
	Level  string `yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR"`
}

// Server configures internal/server's HTTP listener.
type Server struct {
	Address string `yaml:"address" validate:"required"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		Database: Database{Path: "panoptikon.db"},
		Log:      Log{Format: "standard", Level: "INFO"},
		Server:   Server{Address: "127.0.0.1:8080"},
	}
}

// Load reads and validates a YAML configuration file at path, defaulting
// unset fields to Default()'s values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %q: %w", path, err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config: invalid configuration: %w", err)
	}
	return cfg, nil
}
