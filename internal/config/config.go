// Package config loads weex's daemon configuration: a TOML file for
// structural settings (station identity, sink addresses) plus environment
// variable overrides for the values operators tend to flip per-deployment,
// grounded on original_source/crates/weewx-config/src/lib.rs (the TOML
// loader) and original_source/crates/weex-daemon/src/config.rs (the
// env-driven DaemonConfig).
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/ask-23/weex/internal/packet"
)

// StationConfig describes the physical station this daemon instance
// represents.
type StationConfig struct {
	ID       string `toml:"id"`
	Timezone string `toml:"timezone"`
}

// PostgresSinkConfig configures the optional Postgres archive sink.
type PostgresSinkConfig struct {
	DSN string `toml:"dsn"`
}

// SQLiteSinkConfig configures the optional SQLite archive sink.
type SQLiteSinkConfig struct {
	Path string `toml:"path"`
}

// FilesystemSinkConfig configures the append-only JSONL packet sink.
type FilesystemSinkConfig struct {
	Path string `toml:"path"`
}

// InfluxSinkConfig configures the line-protocol time-series sink.
type InfluxSinkConfig struct {
	URL    string `toml:"url"`
	Org    string `toml:"org"`
	Bucket string `toml:"bucket"`
	Token  string `toml:"token"`
}

// SinksConfig groups every optional downstream sink. A zero-value field
// (empty DSN/path/URL) means that sink is disabled.
type SinksConfig struct {
	Postgres   PostgresSinkConfig   `toml:"postgres"`
	SQLite     SQLiteSinkConfig     `toml:"sqlite"`
	Filesystem FilesystemSinkConfig `toml:"filesystem"`
	Influx     InfluxSinkConfig     `toml:"influx"`
}

// FileConfig is the structural, rarely-changed configuration loaded from
// TOML, matching original_source/crates/weewx-config's AppConfig shape.
type FileConfig struct {
	Station StationConfig `toml:"station"`
	Sinks   SinksConfig   `toml:"sinks"`
	Bind    string        `toml:"bind"`
}

// HTTPBind returns the configured HTTP listen address, defaulting to
// 0.0.0.0:8080 as original_source's AppConfig::http_bind does.
func (f FileConfig) HTTPBind() string {
	if f.Bind != "" {
		return f.Bind
	}
	return "0.0.0.0:8080"
}

// Config is the fully resolved daemon configuration: the TOML file merged
// with environment variable overrides.
type Config struct {
	File FileConfig

	DatabaseURL     string
	ArchiveInterval int32
	PollInterval    int
	UnitSystem      int
	StationDriver   string
	UDPListenAddr   string
	LogLevel        string
}

// Load reads WEEWX_CONFIG (defaulting to "config.toml", tolerating its
// absence exactly as the original loader does) and layers the
// DATABASE_URL / ARCHIVE_INTERVAL / POLL_INTERVAL / UNIT_SYSTEM /
// STATION_DRIVER / WEEX_LOG_LEVEL environment overrides on top.
func Load() (Config, error) {
	path := getEnv("WEEWX_CONFIG", "config.toml")

	var file FileConfig
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &file); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	archiveInterval, err := parseIntEnv("ARCHIVE_INTERVAL", 300)
	if err != nil {
		return Config{}, fmt.Errorf("config: ARCHIVE_INTERVAL: %w", err)
	}
	pollInterval, err := parseIntEnv("POLL_INTERVAL", 10)
	if err != nil {
		return Config{}, fmt.Errorf("config: POLL_INTERVAL: %w", err)
	}
	unitSystem, err := parseIntEnv("UNIT_SYSTEM", packet.UnitsMetric)
	if err != nil {
		return Config{}, fmt.Errorf("config: UNIT_SYSTEM: %w", err)
	}

	return Config{
		File:            file,
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		ArchiveInterval: int32(archiveInterval),
		PollInterval:    pollInterval,
		UnitSystem:      unitSystem,
		StationDriver:   getEnv("STATION_DRIVER", "simulator"),
		UDPListenAddr:   getEnv("INTERCEPTOR_ADDR", ":3000"),
		LogLevel:        getEnv("WEEX_LOG_LEVEL", "info"),
	}, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func parseIntEnv(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}
