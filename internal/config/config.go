package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/maver1ck/flink-cdc-connectors/internal/source/reader"
)

// Config is the full runtime configuration of the source-reader binary.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Kafka   reader.Config `mapstructure:"kafka"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// MetricsConfig configures how the reader's gauges are named.
type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
	ReaderID  string `mapstructure:"reader_id"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from the given YAML file, falling back to
// ./config.yaml, with CDC_-prefixed environment variables overriding file
// values. Missing files are fine; defaults cover every key.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("CDC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := reader.DefaultConfig()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("kafka.brokers", def.Brokers)
	v.SetDefault("kafka.topic", def.Topic)
	v.SetDefault("kafka.group_id", def.GroupID)
	v.SetDefault("kafka.min_bytes", def.MinBytes)
	v.SetDefault("kafka.max_bytes", def.MaxBytes)
	v.SetDefault("kafka.max_wait", 500*time.Millisecond)
	v.SetDefault("metrics.namespace", "flink_cdc")
	v.SetDefault("metrics.reader_id", "reader-0")
	v.SetDefault("log.level", "info")
}
