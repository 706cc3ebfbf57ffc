package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T)
		wantErr bool
		check   func(*testing.T, *Config)
	}{
		{
			name: "load with defaults (no config file)",
			setup: func(t *testing.T) {
				viper.Reset()
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "vitrine", cfg.Database.Name)
				assert.Empty(t, cfg.Redis.Addr)
				assert.False(t, cfg.RabbitMQ.Enabled)
				assert.Equal(t, "vitrine.notifications", cfg.RabbitMQ.Exchange)
				assert.Equal(t, 10, cfg.Moderation.ReasonMinLength)
				assert.Equal(t, 500, cfg.Moderation.ReasonMaxLength)
				assert.Equal(t, 20, cfg.Moderation.AppealMinLength)
				assert.Equal(t, 800, cfg.Moderation.AppealMaxLength)
				assert.Equal(t, 10, cfg.Moderation.ResponseMinLength)
				assert.Equal(t, 500, cfg.Moderation.ResponseMaxLength)
				assert.Equal(t, "vitrine-de-craques", cfg.Auth.Issuer)
			},
		},
		{
			name: "load with environment variables",
			setup: func(t *testing.T) {
				viper.Reset()
				t.Setenv("APP_SERVER_PORT", "9090")
				t.Setenv("APP_DATABASE_HOST", "testdb")
				t.Setenv("APP_REDIS_ADDR", "cache:6379")
				t.Setenv("APP_AUTH_JWTSECRET", "s3cret")
				t.Setenv("APP_RABBITMQ_ENABLED", "true")
				t.Setenv("APP_MODERATION_REASONMAXLENGTH", "300")
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, "testdb", cfg.Database.Host)
				assert.Equal(t, "cache:6379", cfg.Redis.Addr)
				assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
				assert.True(t, cfg.RabbitMQ.Enabled)
				assert.Equal(t, 300, cfg.Moderation.ReasonMaxLength)
			},
		},
		{
			name: "rejects inverted moderation bounds",
			setup: func(t *testing.T) {
				viper.Reset()
				viper.Set("moderation.appealminlength", 900)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup(t)
			}

			cfg, err := Load()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, cfg)

			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestSetDefaults(t *testing.T) {
	viper.Reset()
	setDefaults()

	tests := []struct {
		name string
		key  string
		want interface{}
	}{
		{"server port", "server.port", 8080},
		{"database host", "database.host", "localhost"},
		{"database port", "database.port", 5432},
		{"database name", "database.name", "vitrine"},
		{"database sslmode", "database.sslmode", "disable"},
		{"redis addr", "redis.addr", ""},
		{"rabbitmq enabled", "rabbitmq.enabled", false},
		{"rabbitmq routingkey", "rabbitmq.routingkey", "notification.created"},
		{"reason min", "moderation.reasonminlength", 10},
		{"appeal max", "moderation.appealmaxlength", 800},
		{"logging level", "logging.level", "info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := viper.Get(tt.key)
			if got != tt.want {
				t.Errorf("viper.Get(%s) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}

	if viper.GetDuration("server.shutdowntimeout") != 30*time.Second {
		t.Errorf("server.shutdowntimeout = %v, want 30s", viper.GetDuration("server.shutdowntimeout"))
	}
	if viper.GetDuration("database.maxlifetime") != 1*time.Hour {
		t.Errorf("database.maxlifetime = %v, want 1h", viper.GetDuration("database.maxlifetime"))
	}
}

func TestConnectionStrings(t *testing.T) {
	db := DatabaseConfig{
		Host:     "db",
		Port:     5433,
		User:     "u",
		Password: "p",
		Name:     "vitrine",
		SSLMode:  "disable",
	}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=vitrine sslmode=disable", db.ConnString())
	assert.Equal(t, "postgres://u:p@db:5433/vitrine?sslmode=disable", db.URL())

	mq := RabbitMQConfig{Host: "mq", Port: 5672, User: "guest", Password: "guest"}
	assert.Equal(t, "amqp://guest:guest@mq:5672/", mq.URL())
}

func TestValidate(t *testing.T) {
	valid := ModerationConfig{
		ReasonMinLength: 10, ReasonMaxLength: 500,
		AppealMinLength: 20, AppealMaxLength: 800,
		ResponseMinLength: 10, ResponseMaxLength: 500,
	}

	cfg := &Config{Moderation: valid}
	assert.NoError(t, cfg.Validate())

	zeroMin := valid
	zeroMin.ResponseMinLength = 0
	assert.Error(t, (&Config{Moderation: zeroMin}).Validate())

	inverted := valid
	inverted.ReasonMaxLength = 5
	assert.Error(t, (&Config{Moderation: inverted}).Validate())
}
