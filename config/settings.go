package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const defaultTokenSecret = "fintech-dev-secret"

type AuthSettings struct {
	Secret     []byte
	Issuer     string
	Audience   string
	Expiration time.Duration
}

// LoadAuthSettings reads the token settings.
//
// Set via env:
// - API_SECRET (required when GO_ENV=production)
// - TOKEN_ISSUER (default "fintech_backend")
// - TOKEN_AUDIENCE (default "fintech_clients")
// - TOKEN_EXPIRATION_MINUTES (default 60)
func LoadAuthSettings() (AuthSettings, error) {
	secret := strings.TrimSpace(os.Getenv("API_SECRET"))
	if secret == "" {
		if IsProduction() {
			return AuthSettings{}, errors.New("API_SECRET is required in production")
		}
		secret = defaultTokenSecret
	}
	minutes := intFromEnv("TOKEN_EXPIRATION_MINUTES", 60)
	if minutes <= 0 {
		minutes = 60
	}
	return AuthSettings{
		Secret:     []byte(secret),
		Issuer:     stringFromEnv("TOKEN_ISSUER", "fintech_backend"),
		Audience:   stringFromEnv("TOKEN_AUDIENCE", "fintech_clients"),
		Expiration: time.Duration(minutes) * time.Minute,
	}, nil
}

func IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production")
}

// EventsBackend selects the outbox publisher: "pubsub", "kafka" or "none" (default).
//
// Set via env:
// - EVENTS_BACKEND=pubsub|kafka|none
func EventsBackend() string {
	return strings.ToLower(stringFromEnv("EVENTS_BACKEND", "none"))
}

func KafkaBrokers() []string {
	raw := os.Getenv("KAFKA_BROKERS")
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EventsTopic() string {
	if EventsBackend() == "kafka" {
		return stringFromEnv("KAFKA_TOPIC", "transaction_events")
	}
	return stringFromEnv("PUBSUB_TOPIC", "transaction_events")
}

// AnomalyThreshold is the default amount above which a transaction is flagged.
//
// Set via env:
// - ANOMALY_THRESHOLD (default 10000)
func AnomalyThreshold() decimal.Decimal {
	raw := strings.TrimSpace(os.Getenv("ANOMALY_THRESHOLD"))
	if raw == "" {
		return decimal.NewFromInt(10000)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || !d.IsPositive() {
		return decimal.NewFromInt(10000)
	}
	return d
}

func stringFromEnv(key string, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}
