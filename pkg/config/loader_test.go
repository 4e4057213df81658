package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/upvote/pkg/config"
)

type billingTestConfig struct {
	APIKey      string `env:"CFG_TEST_DODO_API_KEY"`
	Environment string `env:"CFG_TEST_DODO_ENVIRONMENT" envDefault:"test"`
	Trial       int    `env:"CFG_TEST_TRIAL_DAYS" envDefault:"14"`
}

type cachedTestConfig struct {
	Value string `env:"CFG_TEST_CACHED" envDefault:"first"`
}

type requiredTestConfig struct {
	Secret string `env:"CFG_TEST_REQUIRED_SECRET,required"`
}

func TestLoad(t *testing.T) {
	t.Setenv("CFG_TEST_DODO_API_KEY", "key_123")

	var cfg billingTestConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "key_123", cfg.APIKey)
	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, 14, cfg.Trial)
}

func TestLoad_CachesPerType(t *testing.T) {
	t.Setenv("CFG_TEST_CACHED", "first")

	var a cachedTestConfig
	require.NoError(t, config.Load(&a))

	t.Setenv("CFG_TEST_CACHED", "second")
	var b cachedTestConfig
	require.NoError(t, config.Load(&b))

	assert.Equal(t, "first", b.Value)
}

func TestLoad_Errors(t *testing.T) {
	var nilCfg *billingTestConfig
	assert.ErrorIs(t, config.Load(nilCfg), config.ErrNilPointer)

	var cfg requiredTestConfig
	assert.ErrorIs(t, config.Load(&cfg), config.ErrParsingConfig)
	assert.Panics(t, func() { config.MustLoad(&requiredTestConfig{}) })
}
