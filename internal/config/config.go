package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Rhymond/go-money"

	"kakeibo/internal/log"
)

// Backends accepted in DATA_BACKEND.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// maxOffset bounds KAKEIBO_UTC_OFFSET to the zones that exist.
const maxOffset = 14 * time.Hour

type Config struct {
	// Storage
	DataBackend    string
	SQLiteDBPath   string
	MemorySeedFile string

	// Calendar and display
	UTCOffset time.Duration
	Currency  string

	LogLevel string

	// AMQP, optional
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Values Load could not parse, reported by Validate.
	loadErrors []string
}

// Load reads the configuration from the environment. Unparseable values
// fall back to their default and make Validate fail.
func Load() *Config {
	c := &Config{
		DataBackend:    getEnv("DATA_BACKEND", BackendSQLite),
		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", "./data/kakeibo.db"),
		MemorySeedFile: getEnv("MEMORY_SEED_FILE", ""),

		Currency: strings.ToUpper(getEnv("KAKEIBO_CURRENCY", "JPY")),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "kakeibo"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "record_changes"),
	}
	c.UTCOffset = c.getEnvDuration("KAKEIBO_UTC_OFFSET", 9*time.Hour)
	return c
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	errors := append([]string(nil), c.loadErrors...)

	switch c.DataBackend {
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0o755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	case BackendMemory:
		if c.MemorySeedFile != "" {
			if info, err := os.Stat(c.MemorySeedFile); err == nil && info.IsDir() {
				errors = append(errors, fmt.Sprintf("memory seed file '%s' is a directory", c.MemorySeedFile))
			}
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of [%s %s]",
			c.DataBackend, BackendMemory, BackendSQLite))
	}

	if c.UTCOffset < -maxOffset || c.UTCOffset > maxOffset {
		errors = append(errors, fmt.Sprintf("invalid UTC offset %v: must be within ±14h", c.UTCOffset))
	}

	if money.GetCurrency(c.Currency) == nil {
		errors = append(errors, fmt.Sprintf("unknown currency '%s'", c.Currency))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// AMQPEnabled reports whether change notifications are configured.
func (c *Config) AMQPEnabled() bool { return c.AMQPURL != "" }

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		c.loadErrors = append(c.loadErrors,
			fmt.Sprintf("invalid %s '%s': must be a duration such as 9h or -5h30m", key, value))
		return defaultValue
	}
	return d
}
