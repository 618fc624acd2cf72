package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ACCESS_SECRET", "access-secret")
	t.Setenv("REFRESH_SECRET", "refresh-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []byte("access-secret"), cfg.Auth.AccessSecret)
	assert.Equal(t, []byte("refresh-secret"), cfg.Auth.RefreshSecret)
	assert.Equal(t, 30*time.Minute, cfg.Auth.AccessTTL())
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTTL())
	assert.Equal(t, "HS256", cfg.Auth.Algorithm)
	assert.Equal(t, 20, cfg.RateLimit.AuthRPM)
	assert.Equal(t, "0.0.0.0:8081", cfg.App.Addr())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ACCESS_SECRET", "a")
	t.Setenv("REFRESH_SECRET", "b")
	t.Setenv("ACCESS_TTL_MINUTES", "5")
	t.Setenv("REFRESH_TTL_MINUTES", "60")
	t.Setenv("JWT_ALGORITHM", "hs512")
	t.Setenv("AUTH_MAX_FAILED_LOGINS", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTTL())
	assert.Equal(t, time.Hour, cfg.Auth.RefreshTTL())
	assert.Equal(t, "HS512", cfg.Auth.Algorithm)
	assert.Zero(t, cfg.Auth.MaxFailedLogins)
}

func TestLoad_MissingSecrets(t *testing.T) {
	t.Setenv("ACCESS_SECRET", "")
	t.Setenv("REFRESH_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ACCESS_SECRET is required")
	assert.Contains(t, err.Error(), "REFRESH_SECRET is required")
}

func TestAuthConfigValidate(t *testing.T) {
	valid := AuthConfig{
		AccessSecret:      []byte("a"),
		RefreshSecret:     []byte("b"),
		AccessTTLMinutes:  15,
		RefreshTTLMinutes: 60,
		Algorithm:         "HS256",
	}

	tests := []struct {
		name    string
		mutate  func(*AuthConfig)
		wantErr string
	}{
		{name: "valid", mutate: func(*AuthConfig) {}},
		{name: "same secrets", mutate: func(c *AuthConfig) { c.RefreshSecret = []byte("a") }, wantErr: "must differ"},
		{name: "zero access ttl", mutate: func(c *AuthConfig) { c.AccessTTLMinutes = 0 }, wantErr: "ACCESS_TTL_MINUTES"},
		{name: "negative refresh ttl", mutate: func(c *AuthConfig) { c.RefreshTTLMinutes = -1 }, wantErr: "REFRESH_TTL_MINUTES"},
		{name: "asymmetric algorithm", mutate: func(c *AuthConfig) { c.Algorithm = "RS256" }, wantErr: "not supported"},
		{name: "throttle without lockout window", mutate: func(c *AuthConfig) { c.MaxFailedLogins = 5 }, wantErr: "AUTH_LOCKOUT_MINUTES"},
		{name: "throttle disabled ignores window", mutate: func(c *AuthConfig) { c.MaxFailedLogins = 0; c.LockoutMinutes = 0 }},
		{name: "throttle with window", mutate: func(c *AuthConfig) { c.MaxFailedLogins = 5; c.LockoutMinutes = 15 }},
		{name: "seed without password", mutate: func(c *AuthConfig) { c.SeedAdminUsername = "root" }, wantErr: "SEED_SUPERADMIN_PASSWORD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
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
