package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("KEYGEN_ACCOUNT", "acct_123")
	t.Setenv("KEYGEN_TOKEN", "tok_123")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.keygen.sh", cfg.Keygen.Host)
	assert.Equal(t, "1.8", cfg.Keygen.Version)
	assert.Equal(t, 10*time.Second, cfg.Keygen.Timeout())
	assert.Equal(t, 100*time.Millisecond, cfg.Keygen.InitialBackoff())
	assert.Equal(t, 3, cfg.Keygen.MaxRetries)
	assert.Equal(t, 900, cfg.Keygen.DownloadTTL)
	assert.Equal(t, "keygen_policy", cfg.Plugin.PolicyMetadataKey)
	assert.Equal(t, "keygen_product", cfg.Plugin.ProductMetadataKey)
	assert.True(t, cfg.Database.AutoMigrate)
}

func TestLoadCustomHostTrimsTrailingSlash(t *testing.T) {
	t.Setenv("KEYGEN_ACCOUNT", "acct_123")
	t.Setenv("KEYGEN_TOKEN", "tok_123")
	t.Setenv("KEYGEN_HOST", "https://custom.example.com/")
	t.Setenv("SERVER_ALLOW_ORIGINS", "https://shop.example.com, https://admin.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://custom.example.com", cfg.Keygen.Host)
	assert.Equal(t, []string{"https://shop.example.com", "https://admin.example.com"}, cfg.Server.AllowOrigins)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Environment: "production",
			JWT:         JWTConfig{SecretKey: "s3cret"},
			Database:    DatabaseConfig{Password: "pw"},
			Keygen: KeygenConfig{
				Account:    "acct",
				Token:      "tok",
				Host:       "https://api.keygen.sh",
				TimeoutMs:  10000,
				MaxRetries: 3,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "default jwt secret", mutate: func(c *Config) { c.JWT.SecretKey = "your-secret-key-change-in-production" }, wantErr: "JWT secret"},
		{name: "missing credentials", mutate: func(c *Config) { c.Keygen.Token = "" }, wantErr: "KEYGEN_ACCOUNT and KEYGEN_TOKEN"},
		{name: "missing credentials in development", mutate: func(c *Config) { c.Environment = "development"; c.Keygen.Token = "" }},
		{name: "relative host", mutate: func(c *Config) { c.Keygen.Host = "api.keygen.sh" }, wantErr: "KEYGEN_HOST"},
		{name: "zero retries", mutate: func(c *Config) { c.Keygen.MaxRetries = 0 }, wantErr: "KEYGEN_MAX_RETRIES"},
		{name: "zero timeout", mutate: func(c *Config) { c.Keygen.TimeoutMs = 0 }, wantErr: "KEYGEN_TIMEOUT_MS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadLicenseMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
variants:
  variant_pro:
    policy: pol_pro
products:
  prod_app:
    product: kg_prod_app
`), 0o600))

	m, err := LoadLicenseMapping(path)
	require.NoError(t, err)

	assert.Equal(t, LicenseTarget{Policy: "pol_pro"}, m.Lookup("variant_pro", "prod_app"))
	assert.Equal(t, LicenseTarget{Product: "kg_prod_app"}, m.Lookup("variant_other", "prod_app"))
	assert.True(t, m.Lookup("", "").Empty())
}

func TestLoadLicenseMappingRejectsEmptyTargets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.yaml")
	require.NoError(t, os.WriteFile(path, []byte("variants:\n  v1: {}\n"), 0o600))

	_, err := LoadLicenseMapping(path)
	assert.ErrorContains(t, err, `variant "v1"`)
}

func TestLoadLicenseMappingWithoutPath(t *testing.T) {
	m, err := LoadLicenseMapping("")
	require.NoError(t, err)
	assert.True(t, m.Lookup("v", "p").Empty())
}
