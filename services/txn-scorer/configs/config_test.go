package configs

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setRequired(t *testing.T) {
	t.Setenv("APP_DESTINATION_PATH", "/tmp/landing")
	t.Setenv("APP_SERVING_ENDPOINT_URL", "https://workspace.example.com/serving-endpoints/fraud/invocations")
	t.Setenv("APP_PRIMARY_DB_ADDR", "u:p@localhost:5432/scores")
	t.Setenv("APP_REDIS_ADDR", "localhost:6379")
	t.Setenv("APP_KAFKA_BROKERS", "localhost:9092")
}

func loadFromEnv(t *testing.T) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(t.TempDir())
	return load(v, zap.NewNop())
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	cfg, err := loadFromEnv(t)
	require.NoError(t, err)

	assert.Equal(t, "DATABRICKS_TOKEN", cfg.TokenEnv)
	assert.Equal(t, PayloadDataframeSplit, cfg.PayloadFormat)
	assert.Equal(t, 3, cfg.MaxRetryCount)
	assert.Equal(t, 2*time.Second, cfg.MlRequestMaxThrottleWait)
	assert.Equal(t, 24*time.Hour, cfg.DedupeTTL)
	assert.EqualValues(t, 4, cfg.KafkaPartition)
	assert.Equal(t, "transaction-scores-dlq", cfg.KafkaDLQTopic)
}

func TestLoad_RejectsUnknownPayloadFormat(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_PAYLOAD_FORMAT", "records")

	_, err := loadFromEnv(t)
	assert.ErrorContains(t, err, "PAYLOAD_FORMAT failed 'oneof'")
}

func TestLoad_RejectsRetryOutOfRange(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_MAX_RETRY_COUNT", "9")

	_, err := loadFromEnv(t)
	assert.ErrorContains(t, err, "MAX_RETRY_COUNT failed 'max'")
}

func TestLoad_RequiresEndpoint(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_SERVING_ENDPOINT_URL", "")

	_, err := loadFromEnv(t)
	assert.ErrorContains(t, err, "SERVING_ENDPOINT_URL failed 'required'")
}
