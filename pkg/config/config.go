package config

import (
	"os"
	"strconv"
	"time"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env      string
	Server   ServerConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	NATS     NATSConfig
	Auth     AuthConfig
	Stripe   StripeConfig
	Email    EmailConfig
	Frontend FrontendConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type MongoConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	URL string
	// Requests allowed per client address within Window.
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

type NATSConfig struct {
	URL string
}

type AuthConfig struct {
	JWTSecret     string
	TokenTTL      time.Duration
	ResetTokenTTL time.Duration
	CookieSecure  bool
}

type StripeConfig struct {
	SecretKey string
	Currency  string
}

type EmailConfig struct {
	MailerSendKey string
	FromName      string
	FromEmail     string
	DevMode       bool // print emails to logs instead of sending
}

type FrontendConfig struct {
	BaseURL string
}

func Load() *Config {
	return &Config{
		Env: getEnv("APP_ENV", EnvDevelopment),
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 5*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DATABASE", "roamtrails"),
		},
		Redis: RedisConfig{
			URL:               getEnv("REDIS_URL", "redis://localhost:6379"),
			RateLimitRequests: getInt("RATE_LIMIT_REQUESTS", 100),
			RateLimitWindow:   getDuration("RATE_LIMIT_WINDOW", 10*time.Minute),
		},
		NATS: NATSConfig{
			URL: getEnv("NATS_URL", "nats://localhost:4222"),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("JWT_SECRET", "dev-only-secret-change-in-prod"),
			TokenTTL:      getDuration("JWT_TTL", 24*time.Hour),
			ResetTokenTTL: getDuration("PASSWORD_RESET_TTL", 10*time.Minute),
			CookieSecure:  getBool("COOKIE_SECURE", false),
		},
		Stripe: StripeConfig{
			SecretKey: getEnv("STRIPE_SECRET_KEY", ""),
			Currency:  getEnv("STRIPE_CURRENCY", "usd"),
		},
		Email: EmailConfig{
			MailerSendKey: getEnv("MAILERSEND_API_KEY", ""),
			FromName:      getEnv("EMAIL_FROM_NAME", "RoamTrails"),
			FromEmail:     getEnv("EMAIL_FROM", "noreply@roamtrails.local"),
			DevMode:       getBool("EMAIL_DEV_MODE", true),
		},
		Frontend: FrontendConfig{
			BaseURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
		},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
