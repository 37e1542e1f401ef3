// Package config loads per-binary settings from the environment.
package config

import "github.com/kelseyhightower/envconfig"

// Server configures the storefront HTTP server.
type Server struct {
	Port           string   `envconfig:"PORT" default:"8080"`
	PostgresURL    string   `envconfig:"POSTGRES_URL" required:"true"`
	RedisAddr      string   `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	KafkaBrokers   []string `envconfig:"KAFKA_BROKERS"`
	ServiceVersion string   `envconfig:"SERVICE_VERSION" default:"0.1.0"`
}

// Worker configures the order confirmation worker.
type Worker struct {
	PostgresURL     string   `envconfig:"POSTGRES_URL" required:"true"`
	KafkaBrokers    []string `envconfig:"KAFKA_BROKERS" required:"true"`
	EmailServiceURL string   `envconfig:"EMAIL_SERVICE_URL" required:"true"`
	ServiceVersion  string   `envconfig:"SERVICE_VERSION" default:"0.1.0"`
}

// Email configures the mock email sender.
type Email struct {
	Port string `envconfig:"PORT" default:"8084"`
}

func Load(cfg any) error {
	return envconfig.Process("", cfg)
}
