package configs

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg/utils"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PayloadDataframeSplit = "dataframe_split"
	PayloadInputs         = "inputs"
)

// Config holds application configuration for txn-scorer.
type Config struct {
	DestinationPath          string        `mapstructure:"DESTINATION_PATH" validate:"required"`
	ServingEndpointURL       string        `mapstructure:"SERVING_ENDPOINT_URL" validate:"required,url"`
	TokenEnv                 string        `mapstructure:"TOKEN_ENV" validate:"required"`
	PayloadFormat            string        `mapstructure:"PAYLOAD_FORMAT" validate:"oneof=dataframe_split inputs"`
	HttpClientTimeout        time.Duration `mapstructure:"HTTP_CLIENT_TIMEOUT" validate:"required"`
	PrimaryDbAddr            string        `mapstructure:"PRIMARY_DB_ADDR" validate:"required"`
	ReplicaDbAddr            string        `mapstructure:"REPLICA_DB_ADDR"`
	MaxDbCons                int32         `mapstructure:"MAX_DB_CONNECTIONS" validate:"min=1"`
	MinDbCons                int32         `mapstructure:"MIN_DB_CONNECTIONS" validate:"min=1"`
	RedisAddr                string        `mapstructure:"REDIS_ADDR" validate:"required"`
	DedupeTTL                time.Duration `mapstructure:"DEDUPE_TTL" validate:"required"`
	KafkaBrokers             string        `mapstructure:"KAFKA_BROKERS" validate:"required"`
	KafkaScoresTopic         string        `mapstructure:"KAFKA_SCORES_TOPIC" validate:"required"`
	KafkaDLQTopic            string        `mapstructure:"KAFKA_DLQ_TOPIC" validate:"required,nefield=KafkaScoresTopic"`
	KafkaPartition           uint32        `mapstructure:"KAFKA_PARTITION" validate:"min=1"`
	KafkaRetention           time.Duration `mapstructure:"KAFKA_RETENTION" validate:"required"`
	MlRateLimitPerSec        int           `mapstructure:"ML_RATE_LIMIT_PER_SEC" validate:"min=0"`
	MlRequestBurst           int           `mapstructure:"ML_REQUEST_BURST" validate:"min=1"`
	MlRequestMaxThrottleWait time.Duration `mapstructure:"ML_REQUEST_MAX_THROTTLE_WAIT" validate:"required"` // fail fast when a token is further away than this
	MaxRetryCount            int           `mapstructure:"MAX_RETRY_COUNT" validate:"min=1,max=5"`
	RetryBaseBackoff         time.Duration `mapstructure:"RETRY_BASE_BACKOFF" validate:"required"`
	MaxRetryBackoff          time.Duration `mapstructure:"MAX_RETRY_BACKOFF" validate:"required,gtefield=RetryBaseBackoff"`
	MaxConcurrentFiles       int           `mapstructure:"MAX_CONCURRENT_FILES" validate:"min=1"`
	MetricsAddr              string        `mapstructure:"METRICS_ADDR"`
}

func Load(logger *zap.Logger) (*Config, error) {
	v := viper.New()
	v.AddConfigPath("./services/txn-scorer/configs")
	return load(v, logger)
}

func load(v *viper.Viper, logger *zap.Logger) (*Config, error) {
	v.SetEnvPrefix("app")
	v.AutomaticEnv()

	v.SetDefault("TOKEN_ENV", "DATABRICKS_TOKEN")
	v.SetDefault("PAYLOAD_FORMAT", PayloadDataframeSplit)
	v.SetDefault("HTTP_CLIENT_TIMEOUT", "60s")
	v.SetDefault("MAX_DB_CONNECTIONS", "10")
	v.SetDefault("MIN_DB_CONNECTIONS", "2")
	v.SetDefault("DEDUPE_TTL", "24h")
	v.SetDefault("KAFKA_SCORES_TOPIC", "transaction-scores")
	v.SetDefault("KAFKA_DLQ_TOPIC", "transaction-scores-dlq")
	v.SetDefault("KAFKA_PARTITION", "4")
	v.SetDefault("KAFKA_RETENTION", "168h")
	v.SetDefault("ML_RATE_LIMIT_PER_SEC", "10")
	v.SetDefault("ML_REQUEST_BURST", "5")
	v.SetDefault("ML_REQUEST_MAX_THROTTLE_WAIT", "2s")
	v.SetDefault("MAX_RETRY_COUNT", "3")
	v.SetDefault("RETRY_BASE_BACKOFF", "500ms")
	v.SetDefault("MAX_RETRY_BACKOFF", "10s")
	v.SetDefault("MAX_CONCURRENT_FILES", "4")
	v.SetDefault("METRICS_ADDR", ":9102")

	// Optional: Read from config.yaml if exists
	if gin.ReleaseMode == gin.Mode() {
		v.SetConfigName("config.prod")
	} else if gin.TestMode == gin.Mode() {
		logger.Warn("running_in_test_mode")
		v.SetConfigName("config.test")
	} else {
		logger.Warn("running_in_development_mode")
		v.SetConfigName("config.dev")
	}
	v.SetConfigType("yaml")
	_ = v.ReadInConfig() // Ignore if no file

	var cfg Config
	if err := utils.ParseStructEnv(v, &cfg); err != nil {
		return nil, err
	}
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, utils.FormatConfigErrors(logger, err, cfg)
	}
	return &cfg, nil
}
