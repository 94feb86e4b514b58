// Package config reads process configuration from the environment so main
// stays lean. Defaults favor local development; production deployments set
// everything explicitly.
package config

import (
	"os"
	"strings"
	"time"
)

type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

// PlaceholderAPIKey is the checked-in development key. A deployment still
// carrying it has no real identity backend and runs in mock mode.
const PlaceholderAPIKey = "demo-key-for-development"

type Firebase struct {
	APIKey   string
	Endpoint string
}

type Google struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type Session struct {
	SigningKey string
	Issuer     string
	TTL        time.Duration
}

type Kafka struct {
	Brokers []string
	Topic   string
}

type Config struct {
	Addr        string
	Environment Environment
	LogLevel    string

	Firebase Firebase
	Google   Google
	Session  Session
	Kafka    Kafka

	RedisURL    string
	PostgresDSN string

	// ProtectedPaths overrides the built-in guarded path set when set.
	ProtectedPaths []string
}

// FromEnv builds the configuration from environment variables.
func FromEnv() Config {
	return Config{
		Addr:        getenv("ELAN_ADDR", ":8080"),
		Environment: environment(),
		LogLevel:    getenv("ELAN_LOG_LEVEL", "info"),
		Firebase: Firebase{
			APIKey:   getenv("FIREBASE_API_KEY", PlaceholderAPIKey),
			Endpoint: os.Getenv("FIREBASE_ENDPOINT"),
		},
		Google: Google{
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		},
		Session: Session{
			SigningKey: getenv("SESSION_SIGNING_KEY", "dev-secret-key-change-in-production"),
			Issuer:     getenv("SESSION_ISSUER", "elan"),
			TTL:        getduration("SESSION_TTL", 7*24*time.Hour),
		},
		Kafka: Kafka{
			Brokers: getlist("KAFKA_BROKERS"),
			Topic:   getenv("AUDIT_TOPIC", "elan.audit"),
		},
		RedisURL:       os.Getenv("REDIS_URL"),
		PostgresDSN:    os.Getenv("POSTGRES_DSN"),
		ProtectedPaths: getlist("PROTECTED_PATHS"),
	}
}

// FirebaseConfigured reports whether a real identity backend is wired. The
// placeholder key does not count.
func (c Config) FirebaseConfigured() bool {
	return c.Firebase.APIKey != "" && c.Firebase.APIKey != PlaceholderAPIKey
}

func (c Config) GoogleConfigured() bool {
	return c.Google.ClientID != "" && c.Google.ClientSecret != ""
}

func environment() Environment {
	if getenv("ELAN_ENV", string(EnvDevelopment)) == string(EnvProduction) {
		return EnvProduction
	}
	return EnvDevelopment
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getlist(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
