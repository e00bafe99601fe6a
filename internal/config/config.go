package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"jbudget/internal/log"
)

type Config struct {
	// Backend selection
	DataBackend string

	// XML documents
	DataDir          string
	TransactionsFile string
	TagsFile         string

	// Database
	SQLiteDBPath string

	// Memory backend seed, one "Parent/Child" tag per line
	TagsSeedFile string

	// AMQP, disabled when AMQPURL is empty
	AMQPURL            string
	AMQPExchange       string
	AMQPRoutingKey     string
	AMQPQueue          string
	AMQPConnectRetries int

	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		DataBackend: getEnv("DATA_BACKEND", "xml"),

		DataDir:          getEnv("DATA_DIR", "./data"),
		TransactionsFile: getEnv("TRANSACTIONS_FILE", "transactions.xml"),
		TagsFile:         getEnv("TAGS_FILE", "tags.xml"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/jbudget.db"),

		TagsSeedFile: getEnv("TAGS_SEED_FILE", ""),

		AMQPURL:            getEnv("AMQP_URL", ""),
		AMQPExchange:       getEnv("AMQP_EXCHANGE", "jbudget"),
		AMQPRoutingKey:     getEnv("AMQP_ROUTING_KEY", "ledger.events"),
		AMQPQueue:          getEnv("AMQP_QUEUE", "jbudget.events"),
		AMQPConnectRetries: getEnvInt("AMQP_CONNECT_RETRIES", 3),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// AMQPEnabled reports whether change events should be published.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate data backend
	validBackends := []string{"xml", "sqlite", "memory"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate XML configuration if backend is xml
	if c.DataBackend == "xml" {
		if c.DataDir == "" {
			errors = append(errors, "data directory cannot be empty when using xml backend")
		}
		files := []struct{ name, file string }{
			{"transactions", c.TransactionsFile},
			{"tags", c.TagsFile},
		}
		for _, f := range files {
			name, file := f.name, f.file
			if file == "" {
				errors = append(errors, fmt.Sprintf("%s file name cannot be empty when using xml backend", name))
			} else if filepath.Base(file) != file {
				errors = append(errors, fmt.Sprintf("%s file name '%s' must not contain a directory", name, file))
			}
		}
		if c.TransactionsFile != "" && c.TransactionsFile == c.TagsFile {
			errors = append(errors, "transactions and tags files must differ")
		}
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// Check if the tag seed file exists (if specified)
	if c.DataBackend == "memory" && c.TagsSeedFile != "" {
		if _, err := os.Stat(c.TagsSeedFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("tags seed file does not exist: %s", c.TagsSeedFile))
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
	}

	// Validate AMQP topology if AMQP is configured
	if c.AMQPURL != "" {
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPRoutingKey == "" {
			errors = append(errors, "AMQP routing key cannot be empty when AMQP URL is provided")
		}
		if c.AMQPConnectRetries < 1 {
			errors = append(errors, fmt.Sprintf("invalid AMQP connect retries %d: must be at least 1", c.AMQPConnectRetries))
		} else if c.AMQPConnectRetries > 20 {
			errors = append(errors, fmt.Sprintf("invalid AMQP connect retries %d: must be at most 20", c.AMQPConnectRetries))
		}
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
