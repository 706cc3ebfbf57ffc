// Package config provides configuration management for the application.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type Config struct {
	RabbitMQ   RabbitMQConfig
	Logging    LoggingConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Server     ServerConfig
	Auth       AuthConfig
	Moderation ModerationConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
	AllowOrigins    []string
}

// DatabaseConfig contains database connection configuration.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type DatabaseConfig struct {
	Host           string
	Name           string
	User           string
	Password       string
	SSLMode        string
	Port           int
	MaxConnections int
	MinConnections int
	MaxIdleTime    time.Duration
	MaxLifetime    time.Duration
}

// RedisConfig contains the blocked-video cache connection. An empty Addr disables the cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RabbitMQConfig contains RabbitMQ connection and exchange configuration for
// notification fan-out.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type RabbitMQConfig struct {
	Enabled    bool
	Host       string
	User       string
	Password   string
	Exchange   string
	Queue      string
	RoutingKey string
	Port       int
}

// AuthConfig contains session token verification settings.
type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

// ModerationConfig bounds the free-text fields of the moderation workflow.
type ModerationConfig struct {
	ReasonMinLength   int
	ReasonMaxLength   int
	AppealMinLength   int
	AppealMaxLength   int
	ResponseMinLength int
	ResponseMaxLength int
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level string
	File  string
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	// APP_SECTION_KEY maps to section.key.
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	m := c.Moderation
	bounds := []struct {
		name     string
		min, max int
	}{
		{"reason", m.ReasonMinLength, m.ReasonMaxLength},
		{"appeal", m.AppealMinLength, m.AppealMaxLength},
		{"response", m.ResponseMinLength, m.ResponseMaxLength},
	}
	for _, b := range bounds {
		if b.min < 1 || b.max < b.min {
			return fmt.Errorf("invalid moderation %s length bounds [%d, %d]", b.name, b.min, b.max)
		}
	}
	return nil
}

// ConnString renders the pgx key/value connection string.
func (d DatabaseConfig) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// URL renders the connection as a postgres:// URL, the form golang-migrate expects.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// URL renders the AMQP connection URL.
func (r RabbitMQConfig) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", r.User, r.Password, r.Host, r.Port)
}

func setDefaults() {
	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.shutdowntimeout", 30*time.Second)
	viper.SetDefault("server.alloworigins", []string{"http://localhost:3000"})

	// Database
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "vitrine")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.maxconnections", 10)
	viper.SetDefault("database.minconnections", 2)
	viper.SetDefault("database.maxidletime", 10*time.Minute)
	viper.SetDefault("database.maxlifetime", 1*time.Hour)

	// Redis
	viper.SetDefault("redis.addr", "")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// RabbitMQ
	viper.SetDefault("rabbitmq.enabled", false)
	viper.SetDefault("rabbitmq.host", "localhost")
	viper.SetDefault("rabbitmq.port", 5672)
	viper.SetDefault("rabbitmq.user", "guest")
	viper.SetDefault("rabbitmq.password", "guest")
	viper.SetDefault("rabbitmq.exchange", "vitrine.notifications")
	viper.SetDefault("rabbitmq.queue", "vitrine.notifications.delivery")
	viper.SetDefault("rabbitmq.routingkey", "notification.created")

	// Auth
	viper.SetDefault("auth.jwtsecret", "")
	viper.SetDefault("auth.issuer", "vitrine-de-craques")

	// Moderation
	viper.SetDefault("moderation.reasonminlength", 10)
	viper.SetDefault("moderation.reasonmaxlength", 500)
	viper.SetDefault("moderation.appealminlength", 20)
	viper.SetDefault("moderation.appealmaxlength", 800)
	viper.SetDefault("moderation.responseminlength", 10)
	viper.SetDefault("moderation.responsemaxlength", 500)

	// Logging
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.file", "")
}
