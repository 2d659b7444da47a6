package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"

	SinkLog   = "log"
	SinkKafka = "kafka"
	SinkNone  = "none"

	PaymentSimulator = "simulator"
	PaymentHTTP      = "http"
)

type StorageConfig struct {
	Driver      string        `envconfig:"STORAGE_DRIVER" default:"memory"`
	RedisURL    string        `envconfig:"STORAGE_REDIS_URL" default:"redis://localhost:6379/0"`
	RedisTTL    time.Duration `envconfig:"STORAGE_REDIS_TTL" default:"720h"`
	SQLitePath  string        `envconfig:"STORAGE_SQLITE_PATH" default:"storefront.db"`
	PostgresDSN string        `envconfig:"STORAGE_POSTGRES_DSN"`
	MongoURI    string        `envconfig:"STORAGE_MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDB     string        `envconfig:"STORAGE_MONGO_DB" default:"storefront"`
}

type AnalyticsConfig struct {
	Sink         string   `envconfig:"ANALYTICS_SINK" default:"log"`
	KafkaBrokers []string `envconfig:"ANALYTICS_KAFKA_BROKERS" default:"localhost:9092"`
	KafkaTopic   string   `envconfig:"ANALYTICS_KAFKA_TOPIC" default:"storefront-analytics"`
	Buffer       int      `envconfig:"ANALYTICS_BUFFER" default:"256"`
}

type PaymentConfig struct {
	Mode        string  `envconfig:"PAYMENT_MODE" default:"simulator"`
	URL         string  `envconfig:"PAYMENT_URL"`
	Token       string  `envconfig:"PAYMENT_TOKEN"`
	SuccessRate float64 `envconfig:"PAYMENT_SUCCESS_RATE" default:"0.95"`
}

type Config struct {
	Environment     string        `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel        string        `envconfig:"LOG_LEVEL"`
	HTTPPort        string        `envconfig:"HTTP_PORT" default:"8080"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
	Currency        string        `envconfig:"CURRENCY" default:"SEK"`
	MaxShoppers     int           `envconfig:"MAX_SHOPPERS" default:"10000"`

	CMSURL     string        `envconfig:"CMS_URL" default:"http://localhost:1337"`
	CMSTimeout time.Duration `envconfig:"CMS_TIMEOUT" default:"5s"`

	Storage   StorageConfig
	Analytics AnalyticsConfig
	Payment   PaymentConfig
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return errors.New("HTTP_PORT is required")
	}
	if c.Currency == "" {
		return errors.New("CURRENCY is required")
	}
	if c.MaxShoppers < 1 {
		return errors.New("MAX_SHOPPERS must be positive")
	}

	switch c.Storage.Driver {
	case DriverMemory:
	case DriverRedis:
		if c.Storage.RedisURL == "" {
			return errors.New("STORAGE_REDIS_URL is required for the redis driver")
		}
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("STORAGE_SQLITE_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			return errors.New("STORAGE_POSTGRES_DSN is required for the postgres driver")
		}
	case DriverMongo:
		if c.Storage.MongoURI == "" || c.Storage.MongoDB == "" {
			return errors.New("STORAGE_MONGO_URI and STORAGE_MONGO_DB are required for the mongo driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}

	switch c.Analytics.Sink {
	case SinkLog, SinkNone:
	case SinkKafka:
		if len(c.Analytics.KafkaBrokers) == 0 {
			return errors.New("ANALYTICS_KAFKA_BROKERS is required for the kafka sink")
		}
	default:
		return fmt.Errorf("unknown ANALYTICS_SINK %q", c.Analytics.Sink)
	}
	if c.Analytics.Buffer < 1 {
		return errors.New("ANALYTICS_BUFFER must be positive")
	}

	switch c.Payment.Mode {
	case PaymentSimulator:
		if c.Payment.SuccessRate < 0 || c.Payment.SuccessRate > 1 {
			return errors.New("PAYMENT_SUCCESS_RATE must be between 0 and 1")
		}
	case PaymentHTTP:
		if c.Payment.URL == "" {
			return errors.New("PAYMENT_URL is required for the http payment mode")
		}
	default:
		return fmt.Errorf("unknown PAYMENT_MODE %q", c.Payment.Mode)
	}
	return nil
}
