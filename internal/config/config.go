// Copyright 2025 Poiesic Systems
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


// Package config loads the settings of a thoughts deployment from an
// optional YAML file and THOUGHTS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
// Nested keys use underscores: encryption.passphrase is THOUGHTS_ENCRYPTION_PASSPHRASE.
const EnvPrefix = "THOUGHTS"

// Config holds the settings of one data directory and its surfaces.
type Config struct {
	// DataDir is the root of the record store.
	// Default: "data"
	DataDir string `mapstructure:"data_dir"`

	Encryption EncryptionConfig `mapstructure:"encryption"`

	// Admins may delete posts they do not own.
	Admins []string `mapstructure:"admins"`

	HTTP HTTPConfig `mapstructure:"http"`

	Mirror MirrorConfig `mapstructure:"mirror"`
}

// EncryptionConfig holds the secret the private content key is derived from.
// Both values are only read when the data directory has no key file yet.
type EncryptionConfig struct {
	Passphrase string `mapstructure:"passphrase"`
	// Salt is used verbatim. Empty means a random salt.
	Salt string `mapstructure:"salt"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	// Addr is the listen address.
	// Default: "127.0.0.1:8080"
	Addr string `mapstructure:"addr"`
}

// MirrorConfig configures git mirroring of the data directory.
type MirrorConfig struct {
	// Enabled turns on a commit after every mutation.
	// The data directory must be a git work tree.
	Enabled bool `mapstructure:"enabled"`
	// Remote is pushed to after each commit. Empty commits locally only.
	Remote string `mapstructure:"remote"`
	// Branch is the remote branch.
	// Default: "main"
	Branch string `mapstructure:"branch"`
	// RatePerSecond caps syncs per second. Zero means unlimited.
	// Default: 1
	RatePerSecond int `mapstructure:"rate_per_second"`
}

// DefaultConfig returns a Config with the defaults used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "data",
		HTTP: HTTPConfig{
			Addr: "127.0.0.1:8080",
		},
		Mirror: MirrorConfig{
			Branch:        "main",
			RatePerSecond: 1,
		},
	}
}

// Load reads path, when not empty, then applies environment overrides on
// top of the defaults. The result is normalized and validated.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so environment variables are seen by Unmarshal.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("encryption.passphrase", cfg.Encryption.Passphrase)
	v.SetDefault("encryption.salt", cfg.Encryption.Salt)
	v.SetDefault("admins", cfg.Admins)
	v.SetDefault("http.addr", cfg.HTTP.Addr)
	v.SetDefault("mirror.enabled", cfg.Mirror.Enabled)
	v.SetDefault("mirror.remote", cfg.Mirror.Remote)
	v.SetDefault("mirror.branch", cfg.Mirror.Branch)
	v.SetDefault("mirror.rate_per_second", cfg.Mirror.RatePerSecond)
}

// Normalize cleans paths and drops blank admin ids.
func (c *Config) Normalize() {
	if c.DataDir != "" {
		c.DataDir = filepath.Clean(c.DataDir)
	}

	admins := c.Admins[:0]
	for _, id := range c.Admins {
		if id = strings.TrimSpace(id); id != "" {
			admins = append(admins, id)
		}
	}
	c.Admins = admins

	if c.Mirror.Branch == "" {
		c.Mirror.Branch = "main"
	}
}

// Validate checks that the configuration is valid and complete.
// It normalizes the configuration first.
func (c *Config) Validate() error {
	c.Normalize()

	if c.DataDir == "" {
		return errors.New("config: data_dir is required")
	}
	if c.HTTP.Addr != "" {
		if _, _, err := net.SplitHostPort(c.HTTP.Addr); err != nil {
			return fmt.Errorf("config: http.addr: %w", err)
		}
	}
	if c.Mirror.RatePerSecond < 0 {
		return errors.New("config: mirror.rate_per_second must not be negative")
	}
	return nil
}
