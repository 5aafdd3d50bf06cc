package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/triagecore/api/schemas"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	// Verify a few key defaults to ensure the layering works.
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.Equal(t, "triagecore", cfg.Logger.ServiceName)
	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 50.0, cfg.Server.RateLimit)

	// The scoring section must be the shipped calibration.
	assert.Equal(t, "1.0.0", cfg.Scoring.Version)
	assert.Equal(t, 20.0, cfg.Scoring.CategoryWeights[schemas.CategorySafety])
	assert.Equal(t, 80.0, cfg.Scoring.Tiers.Critical)
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	t.Run("valid defaults pass", func(t *testing.T) {
		cfg := NewDefaultConfig()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("empty listen address rejected", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Server.ListenAddr = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "listen_addr")
	})

	t.Run("non-positive timeout rejected", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Server.ShutdownTimeout = 0
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "shutdown_timeout")
	})

	t.Run("rate limit must be positive", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Server.RateLimit = 0
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rate_limit")
	})

	t.Run("broken scoring calibration rejected", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Scoring.Aggregate.Category = 0.9 // weights no longer sum to one
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "scoring configuration invalid")
	})
}

// -- Viper Layering Tests --

func TestNewConfigFromViper_FileOverrides(t *testing.T) {
	yamlConfig := []byte(`
logger:
  level: debug
  format: json
server:
  listen_addr: ":9090"
  rate_limit: 5
scoring:
  version: "1.1.0"
  category_weights:
    furniture: 5
`)

	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewReader(yamlConfig)))

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, ":9090", cfg.Server.ListenAddr)
	assert.Equal(t, 5.0, cfg.Server.RateLimit)

	// Named scoring entries override; untouched entries keep the shipped
	// calibration.
	assert.Equal(t, "1.1.0", cfg.Scoring.Version)
	assert.Equal(t, 5.0, cfg.Scoring.CategoryWeights[schemas.CategoryFurniture])
	assert.Equal(t, 20.0, cfg.Scoring.CategoryWeights[schemas.CategorySafety])
	assert.Equal(t, 100, cfg.Server.RateBurst, "unset server keys keep their defaults")
}

func TestNewConfigFromViper_InvalidOverrideFails(t *testing.T) {
	yamlConfig := []byte(`
scoring:
  tiers:
    critical: 10  # below the high threshold, ordering broken
`)

	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewReader(yamlConfig)))

	_, err := NewConfigFromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
