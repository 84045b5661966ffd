package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notewire/notewire/pkg/config"
	"github.com/notewire/notewire/pkg/notes"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "serve"}
	serveFlags(cmd)
	return cmd
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(newServeCommand())
	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.Listen)
	assert.Equal(t, notes.BackendMemory, cfg.Store.Backend)
}

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notewire.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: \":9999\"\nstore:\n  backend: memory\n"), 0o644))

	cmd := newServeCommand()
	require.NoError(t, cmd.Flags().Set("config", path))
	require.NoError(t, cmd.Flags().Set("listen", ":8080"))
	require.NoError(t, cmd.Flags().Set("backend", "bolt"))
	require.NoError(t, cmd.Flags().Set("path", filepath.Join(t.TempDir(), "notes.db")))

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, notes.BackendBolt, cfg.Store.Backend)
}

func TestLoadConfigRejectsIncompleteBackend(t *testing.T) {
	cmd := newServeCommand()
	require.NoError(t, cmd.Flags().Set("backend", "filesystem"))

	_, err := loadConfig(cmd)
	assert.Error(t, err)
}

func TestInitLoggingAppliesLevel(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run("level "+tt.level, func(t *testing.T) {
			cfg := config.Default()
			cfg.Log.Level = tt.level
			initLogging(cfg)
			assert.Equal(t, tt.want, zerolog.GlobalLevel())
		})
	}
}
