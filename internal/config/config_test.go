package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	v.Set("jwt.secret", "secret")

	cfg, err := fromViper(v)
	require.NoError(t, err)
	require.Equal(t, "sqlite", cfg.DatabaseDriver)
	require.Equal(t, "induction.sqlite", cfg.DatabaseURL)
	require.Equal(t, 2*time.Hour, cfg.JWTTTL)
	require.Equal(t, "local", cfg.StorageDriver)
	require.Equal(t, 20, cfg.UploadMaxSizeMB)
	require.Equal(t, ":5001", cfg.HTTPAddress())
}

func TestFromViperRequiresSecret(t *testing.T) {
	_, err := fromViper(viper.New())
	require.Error(t, err)
}

func TestFromViperRejectsInvalidValues(t *testing.T) {
	v := viper.New()
	v.Set("jwt.secret", "secret")
	v.Set("jwt.ttl", "soon")
	_, err := fromViper(v)
	require.ErrorContains(t, err, "invalid jwt ttl")

	v = viper.New()
	v.Set("jwt.secret", "secret")
	v.Set("database.driver", "mongodb")
	_, err = fromViper(v)
	require.ErrorContains(t, err, "unsupported database driver")
}

func TestHTTPAddressKeepsColonPrefix(t *testing.T) {
	require.Equal(t, ":9000", Config{AppPort: ":9000"}.HTTPAddress())
}
