package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the
// coordinator service.
type Config struct {
	HTTPPort     int
	SQLiteDSN    string
	SessionTTL   time.Duration
	RateLimit    float64
	RateBurst    int
	AMQPURL      string
	AMQPExchange string

	// AdminEmail and AdminPassword seed the first administrator account
	// when the user table is empty. Both are required for seeding.
	AdminEmail    string
	AdminPassword string
}

// Load reads a .env file when present, then parses configuration from the
// process environment. Optional fields fall back to defaults; invalid
// values are reported together.
func Load() (Config, error) {
	// Missing .env is the normal production case.
	_ = godotenv.Load()

	cfg := Config{
		HTTPPort:     8080,
		SQLiteDSN:    "file:coordinator.db",
		SessionTTL:   24 * time.Hour,
		RateLimit:    10,
		RateBurst:    20,
		AMQPExchange: "coordinator.events",
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("COORDINATOR_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "COORDINATOR_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("COORDINATOR_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if ttlValue := strings.TrimSpace(os.Getenv("COORDINATOR_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "COORDINATOR_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if limitValue := strings.TrimSpace(os.Getenv("COORDINATOR_RATE_LIMIT")); limitValue != "" {
		limit, err := strconv.ParseFloat(limitValue, 64)
		if err != nil || limit <= 0 {
			invalid = append(invalid, "COORDINATOR_RATE_LIMIT")
		} else {
			cfg.RateLimit = limit
		}
	}

	if burstValue := strings.TrimSpace(os.Getenv("COORDINATOR_RATE_BURST")); burstValue != "" {
		burst, err := strconv.Atoi(burstValue)
		if err != nil || burst <= 0 {
			invalid = append(invalid, "COORDINATOR_RATE_BURST")
		} else {
			cfg.RateBurst = burst
		}
	}

	// Event publishing is optional; an empty URL keeps the fallback
	// publisher.
	cfg.AMQPURL = strings.TrimSpace(os.Getenv("COORDINATOR_AMQP_URL"))
	if exchange := strings.TrimSpace(os.Getenv("COORDINATOR_AMQP_EXCHANGE")); exchange != "" {
		cfg.AMQPExchange = exchange
	}

	cfg.AdminEmail = strings.TrimSpace(strings.ToLower(os.Getenv("COORDINATOR_ADMIN_EMAIL")))
	cfg.AdminPassword = os.Getenv("COORDINATOR_ADMIN_PASSWORD")

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
