package config

import (
	"fmt"
	"os"
)

type Config struct {
	Port             string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string

	UberAPIBase       string
	UberAccessToken   string
	UberSigningSecret string

	JWTSecret        string
	KafkaBrokers     string
	OrderEventsTopic string
}

// Load reads configuration from the environment once at process start. The
// signing secret is deliberately not required here: its absence is reported
// per-request by the webhook verifier, matching the platform contract.
func Load() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone: getEnv("POSTGRES_TIMEZONE", "UTC"),

		UberAPIBase:       getEnv("UBER_API_BASE", "https://api.uber.com"),
		UberAccessToken:   os.Getenv("UBER_ACCESS_TOKEN"),
		UberSigningSecret: os.Getenv("UBER_SIGNING_SECRET"),

		JWTSecret:        os.Getenv("JWT_SECRET"),
		KafkaBrokers:     os.Getenv("KAFKA_BROKERS"),
		OrderEventsTopic: getEnv("ORDER_EVENTS_TOPIC", "order.events"),
	}

	if cfg.PostgresUser == "" || cfg.PostgresPassword == "" || cfg.PostgresDB == "" {
		return nil, fmt.Errorf("database config incomplete")
	}
	return cfg, nil
}

// DSN builds the Postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB,
		c.PostgresPort, c.PostgresSSLMode, c.PostgresTimeZone)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
