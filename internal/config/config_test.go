package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zynqcloud/kvfs/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "5000", cfg.Port)
	require.Equal(t, "bolt", cfg.Substrate)
	require.Equal(t, 0, cfg.DefaultChunksPerSecond)
	require.True(t, cfg.SweepOnStartup)
}

func TestLoadHonorsEnvironmentOverride(t *testing.T) {
	os.Setenv("KVFS_PORT", "6000")       //nolint:errcheck
	os.Setenv("KVFS_SUBSTRATE", "memory") //nolint:errcheck
	t.Cleanup(func() {
		os.Unsetenv("KVFS_PORT")      //nolint:errcheck
		os.Unsetenv("KVFS_SUBSTRATE") //nolint:errcheck
	})

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "6000", cfg.Port)
	require.Equal(t, "memory", cfg.Substrate)
	require.Empty(t, cfg.SubstrateDiskPath, "memory substrate disables the disk-space readiness check")
}
