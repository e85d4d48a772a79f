package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATA_DIR", "var")
	t.Setenv("DB_DRIVER", "sqlite")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, filepath.Join("var", "hospital.db"), cfg.Database.Path)
	assert.Contains(t, cfg.Database.DSN, "_busy_timeout=5000")
	assert.True(t, cfg.SeedDefaultAccounts)
	assert.Equal(t, 60, cfg.JWTExpirationMinutes)
}

func TestLoadConfigMySQLDSN(t *testing.T) {
	t.Setenv("DB_DRIVER", "MySQL")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_USERNAME", "clinic")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "hms")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "clinic:secret@tcp(db.internal:3306)/hms?charset=utf8mb4&parseTime=True&loc=Local", cfg.Database.DSN)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	cases := map[string][2]string{
		"driver":  {"DB_DRIVER", "oracle"},
		"expiry":  {"JWT_EXPIRATION_MINUTES", "soon"},
		"seed":    {"SEED_DEFAULT_ACCOUNTS", "maybe"},
		"tax":     {"DEFAULT_TAX_PERCENT", "abc"},
		"taxHigh": {"DEFAULT_TAX_PERCENT", "150"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
