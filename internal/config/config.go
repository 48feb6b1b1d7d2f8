package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultDatabase   = "speedtest_db"
	DefaultInfluxPort = 8086
	DefaultMaxRetries = 3
)

type LoggingConfig struct {
	Dir        string `mapstructure:"dir"`
	Name       string `mapstructure:"name"`
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // json or console
	Compress   bool   `mapstructure:"compress"`
	MaxBackups int    `mapstructure:"max_backups"`
}

type InfluxConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type SpeedtestConfig struct {
	MaxRetries    int   `mapstructure:"max_retries"`
	AcceptLicense bool  `mapstructure:"accept_license"`
	AcceptGDPR    bool  `mapstructure:"accept_gdpr"`
	ServerIDs     []int `mapstructure:"server_ids"` // empty picks the nearest server
	PacketLoss    bool  `mapstructure:"packet_loss"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type Config struct {
	Influx    InfluxConfig    `mapstructure:"influx"`
	Speedtest SpeedtestConfig `mapstructure:"speedtest"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
}

// URL is the InfluxDB HTTP endpoint.
func (c InfluxConfig) URL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

func (c InfluxConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LoadConfig reads path if it exists. A missing file is not an error: the
// defaults describe the stock deployment (local InfluxDB, speedtest_db).
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")

		if _, err := os.Stat(path); err == nil {
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// quick sanity checks
	if cfg.Influx.Port <= 0 {
		cfg.Influx.Port = DefaultInfluxPort
	}
	if cfg.Influx.Database == "" {
		cfg.Influx.Database = DefaultDatabase
	}
	if cfg.Speedtest.MaxRetries < 0 {
		cfg.Speedtest.MaxRetries = DefaultMaxRetries
	}
	if cfg.Logging.Name == "" {
		cfg.Logging.Name = "speedtest"
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("influx.host", "localhost")
	v.SetDefault("influx.port", DefaultInfluxPort)
	v.SetDefault("influx.database", DefaultDatabase)
	v.SetDefault("influx.timeout_seconds", 30)

	v.SetDefault("speedtest.max_retries", DefaultMaxRetries)
	v.SetDefault("speedtest.accept_license", true)
	v.SetDefault("speedtest.accept_gdpr", true)
	v.SetDefault("speedtest.server_ids", []int{})
	v.SetDefault("speedtest.packet_loss", true)

	v.SetDefault("logging.dir", "logs")
	v.SetDefault("logging.name", "speedtest")
	v.SetDefault("logging.level", "debug")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.compress", true)
	v.SetDefault("logging.max_backups", 30)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "speedtest.results")
}
