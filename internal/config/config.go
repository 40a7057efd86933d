// Package config loads runtime configuration for the storage service via
// spf13/viper — environment variables with an optional config file overlay,
// generalizing the teacher's bare os.Getenv-based Load().
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds every runtime knob the service and the engine it wires need.
type Config struct {
	Port         string
	MetricsPort  string
	ServiceToken string

	// Substrate selects which kv.Substrate backs the engine: "bolt" (default),
	// "dir", or "memory" (tests/dev only — nothing survives a restart).
	Substrate string
	BoltPath  string
	DirPath   string

	// SubstrateDiskPath is the filesystem path the readiness probe runs
	// DiskSpace against. Empty disables the disk-space check (e.g. when
	// Substrate is "memory").
	SubstrateDiskPath string
	MinFreeBytes      uint64

	MaxConcurrentRequests int

	// Engine defaults, applied when a caller doesn't override them per-call.
	DefaultChunksPerSecond        int
	DefaultMaxDirEntriesPerSecond int
	SweepOnStartup                bool
	SweepIntervalSeconds          int
	ShutdownDrainSeconds          int
}

// Load reads configuration from KVFS_-prefixed environment variables, with
// an optional config file (path given by KVFS_CONFIG, any viper-supported
// format) overlaying lower-priority defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("KVFS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("port", "5000")
	v.SetDefault("metrics_port", "9090")
	v.SetDefault("substrate", "bolt")
	v.SetDefault("bolt_path", "/data/kvfs/store.db")
	v.SetDefault("dir_path", "/data/kvfs/store")
	v.SetDefault("substrate_disk_path", "/data/kvfs")
	v.SetDefault("min_free_bytes", 512*1024*1024)
	v.SetDefault("max_concurrent_requests", 256)
	v.SetDefault("service_token", "")
	v.SetDefault("default_chunks_per_second", 0) // 0 == unbounded
	v.SetDefault("default_max_dir_entries_per_second", 0)
	v.SetDefault("sweep_on_startup", true)
	v.SetDefault("sweep_interval_seconds", 300)
	v.SetDefault("shutdown_drain_seconds", 30)

	if cfgFile := v.GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	substrate := v.GetString("substrate")
	diskPath := v.GetString("substrate_disk_path")
	if substrate == "memory" {
		diskPath = ""
	}

	return &Config{
		Port:                          v.GetString("port"),
		MetricsPort:                   v.GetString("metrics_port"),
		ServiceToken:                  v.GetString("service_token"),
		Substrate:                     substrate,
		BoltPath:                      v.GetString("bolt_path"),
		DirPath:                       v.GetString("dir_path"),
		SubstrateDiskPath:             diskPath,
		MinFreeBytes:                  uint64(v.GetInt64("min_free_bytes")),
		MaxConcurrentRequests:         v.GetInt("max_concurrent_requests"),
		DefaultChunksPerSecond:        v.GetInt("default_chunks_per_second"),
		DefaultMaxDirEntriesPerSecond: v.GetInt("default_max_dir_entries_per_second"),
		SweepOnStartup:                v.GetBool("sweep_on_startup"),
		SweepIntervalSeconds:          v.GetInt("sweep_interval_seconds"),
		ShutdownDrainSeconds:          v.GetInt("shutdown_drain_seconds"),
	}, nil
}
