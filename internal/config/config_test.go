package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 240.0, cfg.Detector.Threshold)
	assert.Equal(t, 0.2, cfg.Cropper.PaddingRatio)
	assert.Equal(t, "cropped_images", cfg.Output.Dir)
	assert.Equal(t, "_cropped", cfg.Output.Suffix)
	assert.Equal(t, 95, cfg.Output.Quality)
	assert.Empty(t, cfg.Output.Format)
	assert.Equal(t, 1, cfg.Batch.Workers)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"detector":{"threshold":200},"batch":{"workers":4}}`), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 200.0, cfg.Detector.Threshold)
	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.Equal(t, 0.2, cfg.Cropper.PaddingRatio, "unset fields keep defaults")
}

func TestLoadFromFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "cropper:\n  padding_ratio: 0.1\noutput:\n  format: webp\n  dir: out\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0.1, cfg.Cropper.PaddingRatio)
	assert.Equal(t, "webp", cfg.Output.Format)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, 95, cfg.Output.Quality)
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))
	_, err = LoadFromFile(path)
	assert.Error(t, err)
}

func TestSaveToFileRoundTrip(t *testing.T) {
	for _, name := range []string{"cfg.json", "cfg.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			cfg := Default()
			cfg.Output.Suffix = "_sq"
			cfg.Redis.TTL = time.Hour

			require.NoError(t, cfg.SaveToFile(path))

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CROPPER_THRESHOLD", "220")
	t.Setenv("CROPPER_PADDING_RATIO", "0.35")
	t.Setenv("CROPPER_OUTPUT_DIR", "squares")
	t.Setenv("CROPPER_WORKERS", "8")
	t.Setenv("PORT", "9090")
	t.Setenv("REDIS_ADDR", "localhost:6380")
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Default()
	cfg.ApplyEnv()

	assert.Equal(t, 220.0, cfg.Detector.Threshold)
	assert.Equal(t, 0.35, cfg.Cropper.PaddingRatio)
	assert.Equal(t, "squares", cfg.Output.Dir)
	assert.Equal(t, 8, cfg.Batch.Workers)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "localhost:6380", cfg.Redis.Addr)
	assert.Equal(t, 0, cfg.Redis.DB, "invalid numbers are ignored")
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestApplyEnvDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SUPABASE_BUCKET=crops-from-dotenv\n"), 0644))
	t.Setenv("SUPABASE_BUCKET", "")
	require.NoError(t, os.Unsetenv("SUPABASE_BUCKET"))

	cfg := Default()
	cfg.ApplyEnv()

	assert.Equal(t, "crops-from-dotenv", cfg.Supabase.Bucket)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero threshold", func(c *Config) { c.Detector.Threshold = 0 }},
		{"threshold above 255", func(c *Config) { c.Detector.Threshold = 300 }},
		{"negative padding", func(c *Config) { c.Cropper.PaddingRatio = -0.1 }},
		{"quality zero", func(c *Config) { c.Output.Quality = 0 }},
		{"unknown format", func(c *Config) { c.Output.Format = "xcf" }},
		{"empty output dir", func(c *Config) { c.Output.Dir = "" }},
		{"no workers", func(c *Config) { c.Batch.Workers = 0 }},
		{"supabase without bucket", func(c *Config) { c.Supabase.URL = "https://x.supabase.co" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestGetConfigPath(t *testing.T) {
	assert.Equal(t, "config.json", filepath.Base(GetConfigPath()))
}
