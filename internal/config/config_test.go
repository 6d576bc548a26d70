package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cr3t")
	for _, key := range []string{"PORT", "DATABASE_URL", "JWT_ALGORITHM", "TOKEN_TTL", "BCRYPT_COST", "REQUIRE_AUTH_ON_MUTATIONS"} {
		unsetEnv(t, key)
	}

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "expenses.db", cfg.DatabaseURL)
	assert.Equal(t, "HS256", cfg.Auth.JWTAlgorithm)
	assert.Equal(t, 60*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.False(t, cfg.Auth.RequireAuthOnMutations)
}

func TestParse_RequiresJWTSecret(t *testing.T) {
	unsetEnv(t, "JWT_SECRET")

	_, err := Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://app:pw@localhost:5432/ledger")
	t.Setenv("JWT_ALGORITHM", "HS512")
	t.Setenv("TOKEN_TTL", "15m")
	t.Setenv("REQUIRE_AUTH_ON_MUTATIONS", "true")
	t.Setenv("ADMIN_USER", "root")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "HS512", cfg.Auth.JWTAlgorithm)
	assert.Equal(t, 15*time.Minute, cfg.Auth.TokenTTL)
	assert.True(t, cfg.Auth.RequireAuthOnMutations)
	assert.Equal(t, "root", cfg.Bootstrap.Username)
}

func TestParse_RejectsNonHMACAlgorithm(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("JWT_ALGORITHM", "RS256")

	_, err := Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RS256")
}

func TestParse_InvalidValue(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("PORT", "not-a-port")

	_, err := Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	unsetEnv(t, "JWT_SECRET")
	unsetEnv(t, "PORT")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("JWT_SECRET=from-file\nPORT=7070\n"), 0o600))
	t.Chdir(dir)
	t.Cleanup(func() {
		os.Unsetenv("JWT_SECRET")
		os.Unsetenv("PORT")
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, 7070, cfg.Port)
}

func TestString_MasksSecrets(t *testing.T) {
	cfg := &Config{
		Port:        8080,
		DatabaseURL: "postgres://app:hunter2@db:5432/ledger",
		Auth:        AuthConfig{JWTSecret: "topsecret", JWTAlgorithm: "HS256", TokenTTL: time.Hour},
	}
	s := cfg.String()
	assert.NotContains(t, s, "topsecret")
	assert.NotContains(t, s, "hunter2")
	assert.Contains(t, s, "postgres://app:***@db:5432/ledger")
}

// unsetEnv clears key for the duration of the test.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	prev, had := os.LookupEnv(key)
	os.Unsetenv(key)
	t.Cleanup(func() {
		if had {
			os.Setenv(key, prev)
		}
	})
}
