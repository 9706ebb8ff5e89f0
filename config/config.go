// Package config loads service settings from defaults, an optional YAML file,
// a .env file and MYFINANCE_ environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Store backends accepted by store.backend.
const (
	BackendMemory    = "memory"
	BackendSQLite    = "sqlite"
	BackendPostgres  = "postgres"
	BackendMongo     = "mongo"
	BackendFirestore = "firestore"
)

var validBackends = []string{BackendMemory, BackendSQLite, BackendPostgres, BackendMongo, BackendFirestore}

type Config struct {
	Env      string         `mapstructure:"env"`
	Server   ServerConfig   `mapstructure:"server"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Database DatabaseConfig `mapstructure:"database"`
	Filters  FiltersConfig  `mapstructure:"filters"`
	Store    StoreConfig    `mapstructure:"store"`
	AMQP     AMQPConfig     `mapstructure:"amqp"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type FiltersConfig struct {
	StorageKey string `mapstructure:"storage_key"`
}

// StoreConfig selects where filter state and presets are persisted.
type StoreConfig struct {
	Backend                  string        `mapstructure:"backend"`
	Timeout                  time.Duration `mapstructure:"timeout"`
	PostgresURL              string        `mapstructure:"postgres_url"`
	MongoURI                 string        `mapstructure:"mongo_uri"`
	MongoDatabase            string        `mapstructure:"mongo_database"`
	MongoCollection          string        `mapstructure:"mongo_collection"`
	FirestoreProject         string        `mapstructure:"firestore_project"`
	FirestoreCollection      string        `mapstructure:"firestore_collection"`
	FirestoreCredentialsFile string        `mapstructure:"firestore_credentials_file"`
	FirestoreCredentialsJSON string        `mapstructure:"firestore_credentials_json"`
	// EncryptionKey, when set, encrypts persisted filter values at rest.
	EncryptionKey string `mapstructure:"encryption_key"`
}

// AMQPConfig enables publishing filter change events when URL is set.
type AMQPConfig struct {
	URL        string `mapstructure:"url"`
	Exchange   string `mapstructure:"exchange"`
	RoutingKey string `mapstructure:"routing_key"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// IsDevelopment reports whether the service runs outside production.
func (c *Config) IsDevelopment() bool {
	return c.Env != "production"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:5173", "http://localhost:3000"})
	v.SetDefault("database.path", "./database.db")
	v.SetDefault("filters.storage_key", "myfinance-advanced-filters")
	v.SetDefault("store.backend", BackendSQLite)
	v.SetDefault("store.timeout", 5*time.Second)
	v.SetDefault("store.postgres_url", "")
	v.SetDefault("store.mongo_uri", "")
	v.SetDefault("store.mongo_database", "myfinance")
	v.SetDefault("store.mongo_collection", "filters")
	v.SetDefault("store.firestore_project", "")
	v.SetDefault("store.firestore_collection", "filters")
	v.SetDefault("store.firestore_credentials_file", "")
	v.SetDefault("store.firestore_credentials_json", "")
	v.SetDefault("store.encryption_key", "")
	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.exchange", "myfinance")
	v.SetDefault("amqp.routing_key", "filters.changed")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load builds the configuration. cfgFile may be empty, in which case
// config.yaml is looked up in the working directory and ~/.config/myfinance.
// Flags named log-level and log-format override the logging settings.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// A missing .env file is fine.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "myfinance"))
		}
	}

	v.SetEnvPrefix("MYFINANCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range map[string]string{"logging.level": "log-level", "logging.format": "log-format"} {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", c.Server.Port))
	}

	if strings.TrimSpace(c.Filters.StorageKey) == "" {
		problems = append(problems, "filters storage key cannot be empty")
	}

	if !slices.Contains(validBackends, c.Store.Backend) {
		problems = append(problems, fmt.Sprintf("invalid store backend '%s': must be one of %v", c.Store.Backend, validBackends))
	}
	if c.Store.Timeout <= 0 {
		problems = append(problems, fmt.Sprintf("invalid store timeout %v: must be positive", c.Store.Timeout))
	}

	switch c.Store.Backend {
	case BackendSQLite:
		if c.Database.Path == "" {
			problems = append(problems, "database path cannot be empty when using sqlite backend")
		}
	case BackendPostgres:
		if c.Store.PostgresURL == "" {
			problems = append(problems, "postgres URL is required when using postgres backend")
		}
	case BackendMongo:
		if c.Store.MongoURI == "" {
			problems = append(problems, "mongo URI is required when using mongo backend")
		}
		if c.Store.MongoDatabase == "" || c.Store.MongoCollection == "" {
			problems = append(problems, "mongo database and collection are required when using mongo backend")
		}
	case BackendFirestore:
		if c.Store.FirestoreProject == "" {
			problems = append(problems, "firestore project is required when using firestore backend")
		}
		if c.Store.FirestoreCollection == "" {
			problems = append(problems, "firestore collection is required when using firestore backend")
		}
		// Keys become document ids, which cannot contain '/'.
		if strings.Contains(c.Filters.StorageKey, "/") {
			problems = append(problems, fmt.Sprintf("filters storage key '%s' cannot contain '/' when using firestore backend", c.Filters.StorageKey))
		}
		if c.Store.FirestoreCredentialsFile != "" {
			if _, err := os.Stat(c.Store.FirestoreCredentialsFile); os.IsNotExist(err) {
				problems = append(problems, fmt.Sprintf("firestore credentials file does not exist: %s", c.Store.FirestoreCredentialsFile))
			}
		}
	}

	if c.Store.EncryptionKey != "" && len(c.Store.EncryptionKey) < 16 {
		problems = append(problems, "store encryption key must be at least 16 characters")
	}

	if c.AMQP.URL != "" {
		if parsedURL, err := url.Parse(c.AMQP.URL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQP.URL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQP.Exchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Logging.Level) {
		problems = append(problems, fmt.Sprintf("invalid log level '%s'", c.Logging.Level))
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		problems = append(problems, fmt.Sprintf("invalid log format '%s': must be 'console' or 'json'", c.Logging.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}
