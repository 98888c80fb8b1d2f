package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "chatfleet/internal/shared/config"
)

type Config struct {
	Server       sharedConfig.ServerConfig       `mapstructure:"server"`
	Database     sharedConfig.DatabaseConfig     `mapstructure:"database"`
	Logger       sharedConfig.LoggerConfig       `mapstructure:"logger"`
	Auth         sharedConfig.AuthConfig         `mapstructure:"auth"`
	Redis        sharedConfig.RedisConfig        `mapstructure:"redis"`
	Metering     sharedConfig.MeteringConfig     `mapstructure:"metering"`
	Subscription sharedConfig.SubscriptionConfig `mapstructure:"subscription"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load reads configs/config.yaml and applies CHATFLEET_* environment
// overrides on top of the defaults. A missing config file is fine; the
// defaults describe a complete development setup.
func Load(env string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	for _, dir := range []string{"./configs", "../configs", "../../configs"} {
		viper.AddConfigPath(dir)
	}

	viper.SetEnvPrefix("CHATFLEET")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	if env != "" && env != "default" {
		viper.Set("server.mode", env)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

// defaults describe a working development setup; production deployments
// override through configs/config.yaml or CHATFLEET_* env vars.
var defaults = map[string]any{
	"server.host":     "0.0.0.0",
	"server.port":     8080,
	"server.mode":     "debug",
	"server.timezone": "Asia/Almaty",

	"database.host":              "localhost",
	"database.port":              3306,
	"database.username":          "root",
	"database.password":          "password",
	"database.database":          "chatfleet_dev",
	"database.max_idle_conns":    10,
	"database.max_open_conns":    100,
	"database.conn_max_lifetime": 60,

	"logger.level":       "info",
	"logger.format":      "console",
	"logger.output_path": "stdout",

	"auth.jwt.secret":             "change-me-in-production",
	"auth.jwt.access_exp_minutes": 15,
	"auth.api_key.bcrypt_cost":    12,

	"redis.host":     "localhost",
	"redis.port":     6379,
	"redis.password": "",
	"redis.db":       0,

	"metering.reservation_ttl_minutes":   5,
	"metering.sweep_interval_seconds":    60,
	"metering.rollover_interval_seconds": 300,
	"metering.drain_timeout_seconds":     30,
	"metering.drain_poll_seconds":        1,

	// period_length_days 0 means calendar months in the business timezone.
	"subscription.trial_days":              14,
	"subscription.period_length_days":      0,
	"subscription.quota_cache_ttl_minutes": 10,
}

func setDefaults() {
	for key, value := range defaults {
		viper.SetDefault(key, value)
	}
}
