package configs

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_DESTINATION_PATH", "/tmp/landing")
	t.Setenv("APP_TEMP_PATH", "/tmp/staging")

	v := viper.New()
	v.AddConfigPath(t.TempDir())
	cfg, err := load(v, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.SleepInterval)
	assert.Equal(t, 100, cfg.RowsPerGeneration)
	assert.Equal(t, []string{"A", "B", "C"}, cfg.ProductList())
	assert.Equal(t, 1000, cfg.TotalIterations)
	assert.Equal(t, 4000, cfg.ShiftThreshold)
	assert.Zero(t, cfg.Seed)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_DESTINATION_PATH", "/tmp/landing")
	t.Setenv("APP_TEMP_PATH", "/tmp/staging")
	t.Setenv("APP_SLEEP_INTERVAL", "250ms")
	t.Setenv("APP_PRODUCTS", "C, A")
	t.Setenv("APP_SEED", "42")

	v := viper.New()
	v.AddConfigPath(t.TempDir())
	cfg, err := load(v, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.SleepInterval)
	assert.Equal(t, []string{"C", "A"}, cfg.ProductList())
	assert.EqualValues(t, 42, cfg.Seed)
}

func TestLoad_MissingDestination(t *testing.T) {
	t.Setenv("APP_TEMP_PATH", "/tmp/staging")

	v := viper.New()
	v.AddConfigPath(t.TempDir())
	_, err := load(v, zap.NewNop())
	assert.ErrorContains(t, err, "DESTINATION_PATH failed 'required'")
}

func TestLoad_StagingMustDifferFromDestination(t *testing.T) {
	t.Setenv("APP_DESTINATION_PATH", "/tmp/same")
	t.Setenv("APP_TEMP_PATH", "/tmp/same")

	v := viper.New()
	v.AddConfigPath(t.TempDir())
	_, err := load(v, zap.NewNop())
	assert.ErrorContains(t, err, "TEMP_PATH failed 'nefield'")
}
