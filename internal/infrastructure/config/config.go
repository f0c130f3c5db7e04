// internal/infrastructure/config/config.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// App
	AppVersion string
	LogLevel   string
	ClientKey  string

	// Gateway
	GatewayURL          string
	HTTPTimeout         time.Duration
	GatewayClientID     string
	GatewayClientSecret string
	GatewayTokenURL     string

	// Push channel
	NotificationURL      string
	ReconnectMaxAttempts int
	KeepAliveInterval    time.Duration

	// Confirmation flow
	SlowNoticeAfter     time.Duration
	CriticalNoticeAfter time.Duration
	PollInterval        time.Duration
	PollMaxAttempts     int
	MessageRetention    time.Duration
	RejectCloseDelay    time.Duration
	PaymentRetryDelay   time.Duration

	// Postgres
	PostgresURI string

	// MongoDB
	MongoURI      string
	MongoDB       string
	MongoUser     string
	MongoPassword string

	// Metrics
	MetricsPort string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		AppVersion: getEnv("APP_VERSION", "1.0.0"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		ClientKey:  getEnv("CLIENT_KEY", defaultClientKey()),

		GatewayURL:          getEnv("GATEWAY_URL", "http://localhost:8080/api"),
		HTTPTimeout:         getEnvAsDuration("HTTP_TIMEOUT", 10*time.Second),
		GatewayClientID:     getEnv("GATEWAY_CLIENT_ID", ""),
		GatewayClientSecret: getEnv("GATEWAY_CLIENT_SECRET", ""),
		GatewayTokenURL:     getEnv("GATEWAY_TOKEN_URL", ""),

		NotificationURL:      getEnv("NOTIFICATION_URL", "ws://localhost:8085/ws/notifications"),
		ReconnectMaxAttempts: getEnvAsInt("RECONNECT_MAX_ATTEMPTS", 10),
		KeepAliveInterval:    getEnvAsDuration("KEEPALIVE_INTERVAL", 25*time.Second),

		SlowNoticeAfter:     getEnvAsDuration("SLOW_NOTICE_AFTER", 10*time.Second),
		CriticalNoticeAfter: getEnvAsDuration("CRITICAL_NOTICE_AFTER", 30*time.Second),
		PollInterval:        getEnvAsDuration("POLL_INTERVAL", 2*time.Second),
		PollMaxAttempts:     getEnvAsInt("POLL_MAX_ATTEMPTS", 60),
		MessageRetention:    getEnvAsDuration("MESSAGE_RETENTION", 5*time.Minute),
		RejectCloseDelay:    getEnvAsDuration("REJECT_CLOSE_DELAY", 2*time.Second),
		PaymentRetryDelay:   getEnvAsDuration("PAYMENT_RETRY_DELAY", 2*time.Second),

		PostgresURI: getEnv("POSTGRES_URI", ""),

		MongoURI:      getEnv("MONGODB_DSN", ""),
		MongoDB:       getEnv("MONGO_DB", "hotel_booking"),
		MongoUser:     getEnv("MONGO_USER", ""),
		MongoPassword: getEnv("MONGO_PASSWORD", ""),

		MetricsPort: getEnv("METRICS_PORT", "9090"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects values the client cannot run with
func (c *Config) Validate() error {
	gw, err := url.Parse(c.GatewayURL)
	if err != nil || (gw.Scheme != "http" && gw.Scheme != "https") {
		return fmt.Errorf("invalid GATEWAY_URL %q", c.GatewayURL)
	}
	ws, err := url.Parse(c.NotificationURL)
	if err != nil || (ws.Scheme != "ws" && ws.Scheme != "wss" && ws.Scheme != "http" && ws.Scheme != "https") {
		return fmt.Errorf("invalid NOTIFICATION_URL %q", c.NotificationURL)
	}
	if c.SlowNoticeAfter >= c.CriticalNoticeAfter {
		return fmt.Errorf("SLOW_NOTICE_AFTER (%s) must be shorter than CRITICAL_NOTICE_AFTER (%s)", c.SlowNoticeAfter, c.CriticalNoticeAfter)
	}
	if c.PollInterval <= 0 || c.PollMaxAttempts <= 0 {
		return fmt.Errorf("poll interval and attempts must be positive")
	}
	if c.ReconnectMaxAttempts < 0 {
		return fmt.Errorf("RECONNECT_MAX_ATTEMPTS must not be negative")
	}
	return nil
}

func defaultClientKey() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "default"
	}
	return host
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("2s", "5m") or whole seconds
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	if seconds, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
