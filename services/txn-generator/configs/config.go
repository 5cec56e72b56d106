package configs

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg/utils"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds application configuration for txn-generator.
type Config struct {
	DestinationPath   string        `mapstructure:"DESTINATION_PATH" validate:"required"`
	TempPath          string        `mapstructure:"TEMP_PATH" validate:"required,nefield=DestinationPath"`
	SleepInterval     time.Duration `mapstructure:"SLEEP_INTERVAL" validate:"min=0"`
	RowsPerGeneration int           `mapstructure:"ROWS_PER_GENERATION" validate:"min=1"`
	Products          string        `mapstructure:"PRODUCTS" validate:"required"`
	TotalIterations   int           `mapstructure:"TOTAL_ITERATIONS" validate:"min=1"`
	ShiftThreshold    int           `mapstructure:"SHIFT_THRESHOLD" validate:"min=0"`
	Seed              uint64        `mapstructure:"SEED"`
	MetricsAddr       string        `mapstructure:"METRICS_ADDR"`
}

// ProductList returns the configured product ids in order.
func (c *Config) ProductList() []string {
	return utils.SplitCSV(c.Products)
}

func Load(logger *zap.Logger) (*Config, error) {
	v := viper.New()
	v.AddConfigPath("./services/txn-generator/configs")
	return load(v, logger)
}

func load(v *viper.Viper, logger *zap.Logger) (*Config, error) {
	v.SetEnvPrefix("app")
	v.AutomaticEnv()

	v.SetDefault("SLEEP_INTERVAL", "5s")
	v.SetDefault("ROWS_PER_GENERATION", "100")
	v.SetDefault("PRODUCTS", "A,B,C")
	v.SetDefault("TOTAL_ITERATIONS", "1000")
	v.SetDefault("SHIFT_THRESHOLD", "4000")
	v.SetDefault("SEED", "0")
	v.SetDefault("METRICS_ADDR", ":9101")

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
