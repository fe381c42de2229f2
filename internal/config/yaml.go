// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load resolves the configuration: built-in defaults, then the YAML file
// at path (or "config.yaml" if present when path is empty), then WARP_*
// environment overrides. A .env file in the working directory is loaded
// first so container deployments can ship overrides as a file.
func Load(path string) (*Config, error) {
	// Ignore a missing .env; it is optional.
	_ = godotenv.Load()

	cfg := NewConfig()

	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides maps WARP_* environment variables onto the config.
// Environment wins over file values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("WARP_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("WARP_DEBUG"); v != "" {
		c.Debug = v == "1" || v == "true"
	}
	if v := os.Getenv("WARP_ALGORITHM"); v != "" {
		c.Engine.Algorithm = v
	}
	if v := os.Getenv("WARP_QUALITY"); v != "" {
		c.Engine.Quality = v
	}
	if v := os.Getenv("WARP_SENSITIVITY"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Engine.Sensitivity = f
		}
	}
	if v := os.Getenv("WARP_REDIS_ADDR"); v != "" {
		c.Commit.RedisAddr = v
	}
	if v := os.Getenv("WARP_REDIS_PASSWORD"); v != "" {
		c.Commit.RedisPassword = v
	}
	if v := os.Getenv("WARP_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Commit.RedisDB = n
		}
	}
	if v := os.Getenv("WARP_STORAGE_ROOT"); v != "" {
		c.Commit.StorageRoot = v
	}
	if v := os.Getenv("WARP_WS_PORT"); v != "" {
		c.Transport.WebsocketEnabled = true
		c.Transport.WebsocketPort = v
	}
}

// Validate rejects out-of-range values at the boundary.
func (c *Config) Validate() error {
	if c.Engine.Sensitivity < MinSensitivity || c.Engine.Sensitivity > MaxSensitivity {
		return fmt.Errorf("engine.sensitivity %.3f outside [%.1f, %.1f]", c.Engine.Sensitivity, MinSensitivity, MaxSensitivity)
	}
	if c.Engine.MinGap < 0 {
		return fmt.Errorf("engine.min_gap must be non-negative, got %.3f", c.Engine.MinGap)
	}
	switch c.Engine.BitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("engine.bit_depth must be 16, 24 or 32, got %d", c.Engine.BitDepth)
	}
	switch c.Engine.Algorithm {
	case "high-quality", "hq", "phase-vocoder", "pvoc", "overlap-add", "ola":
	default:
		return fmt.Errorf("engine.algorithm %q unknown", c.Engine.Algorithm)
	}
	switch c.Engine.Quality {
	case "fast", "normal", "high":
	default:
		return fmt.Errorf("engine.quality %q unknown", c.Engine.Quality)
	}
	if c.Commit.StorageRoot == "" {
		return fmt.Errorf("commit.storage_root must not be empty")
	}
	return nil
}
