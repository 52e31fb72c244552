package configs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, name := range []string{
		"ENVIRONMENT", "API_URL", "WS_URL", "REQUEST_TIMEOUT", "OTP_COOLDOWN", "DATABASE_URL",
		"S3_BUCKET_NAME", "S3_ENDPOINT", "S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY", "S3_PUBLIC_URL",
		"INSPECT_ADDR", "ALLOWED_ORIGINS",
	} {
		t.Setenv(name, "")
	}
	t.Setenv("STATE_DIR", t.TempDir())
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "http://localhost:8080/api", cfg.APIURL)
	assert.Equal(t, "ws://localhost:8080/api", cfg.WSURL)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 30*time.Second, cfg.OTPCooldown)
	assert.False(t, cfg.AttachmentsEnabled())
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestLoadConfig_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("API_URL", "https://chat.example.com/api")
	t.Setenv("WS_URL", "wss://chat.example.com/api")
	t.Setenv("REQUEST_TIMEOUT", "3s")
	t.Setenv("ALLOWED_ORIGINS", " http://a.test , ,http://b.test")
	t.Setenv("S3_BUCKET_NAME", "media")
	t.Setenv("S3_ENDPOINT", "https://s3.example.com")
	t.Setenv("S3_ACCESS_KEY_ID", "key")
	t.Setenv("S3_SECRET_ACCESS_KEY", "secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.True(t, cfg.AttachmentsEnabled())
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := map[string][2]string{
		"bad api scheme":  {"API_URL", "ftp://host/api"},
		"bad ws scheme":   {"WS_URL", "http://host/api"},
		"bad timeout":     {"REQUEST_TIMEOUT", "soon"},
		"negative":        {"OTP_COOLDOWN", "-1s"},
		"partial storage": {"S3_BUCKET_NAME", "media"},
	}

	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(kv[0], kv[1])

			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
