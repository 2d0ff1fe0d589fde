/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package config loads the repokit configuration from a YAML file and
// REPOKIT_ environment variables.
//
// Environment keys drop the prefix, are lowercased and use "__" as the
// nesting separator, so REPOKIT_DATABASE__CONNECTION__HOST sets
// database.connection.host.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"

	"github.com/tomoncle/repokit/database"
	"github.com/tomoncle/repokit/utils"
)

const (
	EnvPrefix = "REPOKIT_"
	// DefaultPath is used by the CLI when -config is not given and the file exists.
	DefaultPath = "configs/repokit.yaml"
)

type Config struct {
	Database database.Config `json:"database" yaml:"database" koanf:"database" validate:"required"`
	Storage  StorageConfig   `json:"storage" yaml:"storage" koanf:"storage"`
	Log      LogConfig       `json:"log" yaml:"log" koanf:"log"`
	Scaffold ScaffoldConfig  `json:"scaffold" yaml:"scaffold" koanf:"scaffold"`
}

// StorageConfig configures storage.LocalDisk.
type StorageConfig struct {
	Root    string `json:"root" yaml:"root" koanf:"root" validate:"required"`
	BaseURL string `json:"base_url" yaml:"base_url" koanf:"base_url"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level" koanf:"level" validate:"omitempty,oneof=trace debug info warn warning error fatal panic"`
	Format string `json:"format" yaml:"format" koanf:"format" validate:"omitempty,oneof=text json"`
}

// ScaffoldConfig holds the defaults of make:repository flags.
type ScaffoldConfig struct {
	OutputDir  string `json:"output_dir" yaml:"output_dir" koanf:"output_dir"`
	ModulePath string `json:"module_path" yaml:"module_path" koanf:"module_path"`
	Dialect    string `json:"dialect" yaml:"dialect" koanf:"dialect" validate:"omitempty,oneof=postgres mysql sqlite"`
}

// Default returns the configuration every source is layered on.
func Default() *Config {
	return &Config{
		Database: *database.DefaultConfig(),
		Storage: StorageConfig{
			Root:    "storage/app/public",
			BaseURL: "/storage",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Scaffold: ScaffoldConfig{
			OutputDir: ".",
		},
	}
}

// Load reads path (skipped when empty), overlays REPOKIT_ variables on it
// and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), yamlParser{}); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// ApplyLogging pushes the log section into the utils logger registry.
func (c *Config) ApplyLogging() {
	utils.ConfigureLogLevel(c.Log.Level)
	utils.ConfigureLogFormat(c.Log.Format)
}

// Write renders c as YAML with the database password masked.
func Write(w io.Writer, c *Config) error {
	masked := *c
	if masked.Database.Connection.Password != "" {
		masked.Database.Connection.Password = "******"
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&masked); err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	return enc.Close()
}

// yamlParser is a koanf.Parser over gopkg.in/yaml.v3.
type yamlParser struct{}

var _ koanf.Parser = yamlParser{}

func (yamlParser) Unmarshal(b []byte) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := yaml.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]interface{}{}
	}
	return out, nil
}

func (yamlParser) Marshal(o map[string]interface{}) ([]byte, error) {
	return yaml.Marshal(o)
}
