// SPDX-License-Identifier: MIT
// Package config holds the runtime configuration of the warp engine and
// its worker, loaded from YAML with environment overrides.
package config

// Defaults and limits for the engine configuration.
const (
	DefaultSensitivity = 0.5
	DefaultMinGap      = 0.05
	DefaultAlgorithm   = "high-quality"
	DefaultQuality     = "normal"
	DefaultBitDepth    = 16

	DefaultRedisAddr   = "127.0.0.1:6379"
	DefaultStorageRoot = "./artifacts"

	MinSensitivity = 0.0
	MaxSensitivity = 1.0
	MaxPitchShift  = 48.0
)

// EngineConfig holds stretch/detection settings.
type EngineConfig struct {
	Algorithm   string  `yaml:"algorithm"`   // high-quality, phase-vocoder, overlap-add
	Quality     string  `yaml:"quality"`     // fast, normal, high
	Sensitivity float64 `yaml:"sensitivity"` // transient detection sensitivity [0,1]
	MinGap      float64 `yaml:"min_gap"`     // minimum inter-onset gap, seconds
	BitDepth    int     `yaml:"bit_depth"`   // encoded artifact bit depth
}

// CommitConfig holds worker and queue settings.
type CommitConfig struct {
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	StorageRoot   string `yaml:"storage_root"`
}

// TransportConfig holds event publishing settings.
type TransportConfig struct {
	WebsocketEnabled bool   `yaml:"websocket_enabled"`
	WebsocketPort    string `yaml:"websocket_port"`
}

// CLI holds per-invocation command state populated by the argument
// parser. These fields never come from YAML.
type CLI struct {
	Command      string
	InputFile    string
	OutputFile   string
	MarkersFile  string
	ClipID       string
	JobID        string
	TargetBPM    float64
	Strength     float64
	PreviewStart float64
	PreviewEnd   float64
	PitchShift   float64
	Formants     bool
}

// Config is the root configuration.
type Config struct {
	Debug     bool            `yaml:"debug"`
	LogLevel  string          `yaml:"log_level"`
	Engine    EngineConfig    `yaml:"engine"`
	Commit    CommitConfig    `yaml:"commit"`
	Transport TransportConfig `yaml:"transport"`
	CLI       CLI             `yaml:"-"`
}

// NewConfig returns the built-in defaults.
func NewConfig() *Config {
	return &Config{
		LogLevel: "info",
		Engine: EngineConfig{
			Algorithm:   DefaultAlgorithm,
			Quality:     DefaultQuality,
			Sensitivity: DefaultSensitivity,
			MinGap:      DefaultMinGap,
			BitDepth:    DefaultBitDepth,
		},
		Commit: CommitConfig{
			RedisAddr:   DefaultRedisAddr,
			StorageRoot: DefaultStorageRoot,
		},
		Transport: TransportConfig{
			WebsocketEnabled: false,
			WebsocketPort:    "8080",
		},
	}
}
