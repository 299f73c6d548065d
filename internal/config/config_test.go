package config_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/fossil/internal/config"
)

func TestDefaultAtLayout(t *testing.T) {
	cfg := config.DefaultAt("/home/ana")
	l := cfg.Layout()

	assert.Equal(t, "/home/ana/.fossil", cfg.BaseDir)
	assert.Equal(t, "/home/ana/.fossil/config", l.ConfigFile())
	assert.Equal(t, "/home/ana/.fossil/profiles/work.manifest", l.ProfileManifest("work"))
	assert.Equal(t, "/home/ana/.fossil/snapshots/work/work[3].archive", l.ArchivePath("work", 3))
	assert.Equal(t, "/home/ana/.fossil/buffer", l.BufferDir())
	require.NoError(t, cfg.Validate())
}

func TestParseArchiveName(t *testing.T) {
	cases := []struct {
		profile, name string
		want          int
		ok            bool
	}{
		{"work", "work[0].archive", 0, true},
		{"work", "work[12].archive", 12, true},
		{"work", "work[x].archive", 0, false},
		{"work", "work[-1].archive", 0, false},
		{"work", "other[1].archive", 0, false},
		{"work", "work[1].tar", 0, false},
		{"work", ".tmp-archive-123", 0, false},
	}
	for _, tt := range cases {
		got, ok := config.ParseArchiveName(tt.profile, tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
}

func TestResolveReadsSettingsFileAndEnv(t *testing.T) {
	fsys := afero.NewMemMapFs()
	cfg := config.DefaultAt("/home/ana")

	settings := "hash: sha256\nworkers: 3\nwatch:\n  interval: 15m\n"
	require.NoError(t, afero.WriteFile(fsys, filepath.Join(cfg.BaseDir, config.SettingsFile), []byte(settings), 0o644))
	t.Setenv("FOSSIL_WORKERS", "7")

	got, err := config.Resolve(fsys, cfg, "")
	require.NoError(t, err)
	assert.Equal(t, "sha256", got.Hash)
	assert.Equal(t, 7, got.Workers)
	assert.Equal(t, 15*time.Minute, got.Watch.Interval)
}

func TestResolveWithoutSettingsFile(t *testing.T) {
	cfg := config.DefaultAt("/home/ana")
	got, err := config.Resolve(afero.NewMemMapFs(), cfg, "")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultHash, got.Hash)
}

func TestResolveExplicitMissingFile(t *testing.T) {
	cfg := config.DefaultAt("/home/ana")
	_, err := config.Resolve(afero.NewMemMapFs(), cfg, "/etc/fossil.yaml")
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown hash", func(c *config.Config) { c.Hash = "md5" }},
		{"zero workers", func(c *config.Config) { c.Workers = 0 }},
		{"relative base", func(c *config.Config) { c.BaseDir = "relative/.fossil" }},
		{"bad compression", func(c *config.Config) { c.Compression = "zip" }},
		{"negative interval", func(c *config.Config) { c.Watch.Interval = -time.Second }},
	}
	for _, tt := range cases {
		cfg := config.DefaultAt("/home/ana")
		tt.mutate(cfg)
		assert.Error(t, cfg.Validate(), tt.name)
	}
}
