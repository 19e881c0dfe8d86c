package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "127.0.0.1:8080", cfg.HTTP.Addr)
	assert.Equal(t, "main", cfg.Mirror.Branch)
	assert.Equal(t, 1, cfg.Mirror.RatePerSecond)
	assert.False(t, cfg.Mirror.Enabled)
	assert.Empty(t, cfg.Encryption.Passphrase)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().DataDir, cfg.DataDir)
	assert.Equal(t, DefaultConfig().HTTP.Addr, cfg.HTTP.Addr)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thoughts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: /srv/thoughts/
encryption:
  passphrase: from-file
  salt: pepper
admins: [mod1, " mod2 ", ""]
http:
  addr: ":9090"
mirror:
  enabled: true
  remote: origin
  rate_per_second: 5
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/thoughts", cfg.DataDir)
	assert.Equal(t, "from-file", cfg.Encryption.Passphrase)
	assert.Equal(t, "pepper", cfg.Encryption.Salt)
	assert.Equal(t, []string{"mod1", "mod2"}, cfg.Admins)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.True(t, cfg.Mirror.Enabled)
	assert.Equal(t, "origin", cfg.Mirror.Remote)
	assert.Equal(t, "main", cfg.Mirror.Branch)
	assert.Equal(t, 5, cfg.Mirror.RatePerSecond)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thoughts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: from-file\nencryption:\n  passphrase: from-file\n"), 0o644))

	t.Setenv("THOUGHTS_DATA_DIR", "from-env")
	t.Setenv("THOUGHTS_ENCRYPTION_PASSPHRASE", "secret-from-env")
	t.Setenv("THOUGHTS_MIRROR_RATE_PER_SECOND", "3")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.DataDir)
	assert.Equal(t, "secret-from-env", cfg.Encryption.Passphrase)
	assert.Equal(t, 3, cfg.Mirror.RatePerSecond)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid addr", func(t *testing.T) {
		t.Setenv("THOUGHTS_HTTP_ADDR", "no-port")
		_, err := Load("")
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "empty data dir", mutate: func(c *Config) { c.DataDir = "" }, wantErr: true},
		{name: "negative rate", mutate: func(c *Config) { c.Mirror.RatePerSecond = -1 }, wantErr: true},
		{name: "bad addr", mutate: func(c *Config) { c.HTTP.Addr = "localhost" }, wantErr: true},
		{name: "empty addr allowed", mutate: func(c *Config) { c.HTTP.Addr = "" }},
		{name: "blank branch defaults", mutate: func(c *Config) { c.Mirror.Branch = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.NotEmpty(t, cfg.Mirror.Branch)
		})
	}
}
