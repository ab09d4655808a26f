// Package config loads service configuration from an optional config.yml
// and the environment. Keys are dotted (http.port); the matching environment
// variable replaces dots with underscores (HTTP_PORT). A handful of legacy
// variable names (PORT, NODE_SERVER_URL, GATEWAY_URL, ...) are bound as well
// so existing deployments keep working.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTP struct {
	Port string `mapstructure:"port"`
}

type GRPC struct {
	Port string `mapstructure:"port"`
}

type Log struct {
	Level string `mapstructure:"level"`
}

type OTel struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

type Redis struct {
	Addr string `mapstructure:"addr"`
}

type Kafka struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

// BrokerList splits the comma separated broker list, dropping blanks.
func (k Kafka) BrokerList() []string {
	var out []string
	for _, b := range strings.Split(k.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// Orders is the configuration of cmd/order-service.
type Orders struct {
	HTTP HTTP `mapstructure:"http"`
	GRPC GRPC `mapstructure:"grpc"`
	Log  Log  `mapstructure:"log"`
	OTel OTel `mapstructure:"otel"`
	DB   struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"db"`
	Catalog struct {
		URL      string        `mapstructure:"url"`
		Timeout  time.Duration `mapstructure:"timeout"`
		CacheTTL time.Duration `mapstructure:"cache_ttl"`
	} `mapstructure:"catalog"`
	Redis Redis `mapstructure:"redis"`
	Kafka Kafka `mapstructure:"kafka"`
}

// Frontend is the configuration of cmd/frontend.
type Frontend struct {
	HTTP    HTTP `mapstructure:"http"`
	Log     Log  `mapstructure:"log"`
	OTel    OTel `mapstructure:"otel"`
	Gateway struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"gateway"`
	Session struct {
		SecretKey string        `mapstructure:"secret_key"`
		TTL       time.Duration `mapstructure:"ttl"`
	} `mapstructure:"session"`
	Redis     Redis  `mapstructure:"redis"`
	PublicURL string `mapstructure:"public_url"`
}

// LoadOrders reads the orders service configuration. dir is searched for
// config.yml; a missing file is not an error.
func LoadOrders(dir string) (Orders, error) {
	v := newViper(dir)
	v.SetDefault("http.port", "5001")
	v.SetDefault("grpc.port", "9090")
	v.SetDefault("log.level", "info")
	v.SetDefault("otel.enabled", false)
	v.SetDefault("otel.service_name", "orders-service")
	v.SetDefault("db.path", "food_delivery.db")
	v.SetDefault("catalog.url", "http://localhost:5002")
	v.SetDefault("catalog.timeout", 5*time.Second)
	v.SetDefault("catalog.cache_ttl", time.Minute)
	v.SetDefault("redis.addr", "")
	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.topic", "order-status-changed")

	bindLegacy(v, map[string]string{
		"http.port":         "PORT",
		"catalog.url":       "NODE_SERVER_URL",
		"db.path":           "DB_PATH",
		"redis.addr":        "REDIS_ADDR",
		"kafka.brokers":     "KAFKA_BROKERS",
		"otel.service_name": "OTEL_SERVICE_NAME",
	})

	var cfg Orders
	if err := load(v, &cfg); err != nil {
		return Orders{}, err
	}
	if cfg.Catalog.URL == "" {
		return Orders{}, errors.New("config: catalog.url is required")
	}
	cfg.Catalog.URL = strings.TrimRight(cfg.Catalog.URL, "/")
	return cfg, nil
}

// LoadFrontend reads the front end configuration.
func LoadFrontend(dir string) (Frontend, error) {
	v := newViper(dir)
	v.SetDefault("http.port", "5000")
	v.SetDefault("log.level", "info")
	v.SetDefault("otel.enabled", false)
	v.SetDefault("otel.service_name", "frontend")
	v.SetDefault("gateway.url", "http://localhost:3000/api")
	v.SetDefault("session.secret_key", "your-secret-key-here")
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("redis.addr", "")
	v.SetDefault("public_url", "http://localhost:5000")

	bindLegacy(v, map[string]string{
		"http.port":          "PORT",
		"gateway.url":        "GATEWAY_URL",
		"session.secret_key": "SECRET_KEY",
		"redis.addr":         "REDIS_ADDR",
		"public_url":         "PUBLIC_URL",
		"otel.service_name":  "OTEL_SERVICE_NAME",
	})

	var cfg Frontend
	if err := load(v, &cfg); err != nil {
		return Frontend{}, err
	}
	if cfg.Session.SecretKey == "" {
		return Frontend{}, errors.New("config: session.secret_key must not be empty")
	}
	cfg.Gateway.URL = strings.TrimRight(cfg.Gateway.URL, "/")
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")
	return cfg, nil
}

func newViper(dir string) *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yml")
	if dir != "" {
		v.AddConfigPath(dir)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// bindLegacy binds each key to its structured env name first and the legacy
// name second, so HTTP_PORT wins over PORT when both are set.
func bindLegacy(v *viper.Viper, legacy map[string]string) {
	for key, env := range legacy {
		structured := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, structured, env)
	}
}

func load(v *viper.Viper, out any) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("config: read config file: %w", err)
		}
	}
	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("config: decode: %w", err)
	}
	return nil
}
