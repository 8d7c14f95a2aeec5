package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	GinMode         string        `yaml:"gin_mode" envconfig:"GIN_MODE"`
	Port            string        `yaml:"port" envconfig:"PORT"`
	TZ              string        `yaml:"tz" envconfig:"TZ"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	LogLevel        zapcore.Level `yaml:"log_level" envconfig:"LOG_LEVEL"`

	DBDriver      string        `yaml:"db_driver" envconfig:"DB_DRIVER"`
	DBHost        string        `yaml:"db_host" envconfig:"DB_HOST"`
	DBPort        string        `yaml:"db_port" envconfig:"DB_PORT"`
	DBUser        string        `yaml:"db_user" envconfig:"DB_USER"`
	DBPass        string        `yaml:"db_pass" envconfig:"DB_PASS"`
	DBName        string        `yaml:"db_name" envconfig:"DB_NAME"`
	DBSSLMode     string        `yaml:"db_sslmode" envconfig:"DB_SSLMODE"`
	SQLitePath    string        `yaml:"sqlite_path" envconfig:"SQLITE_PATH"`
	DBMaxAttempts int           `yaml:"db_max_attempts" envconfig:"DB_MAX_ATTEMPTS"`
	DBRetryDelay  time.Duration `yaml:"db_retry_delay" envconfig:"DB_RETRY_DELAY"`
	DBDebug       bool          `yaml:"db_debug" envconfig:"DB_DEBUG"`

	// StrictValidation rejects empty, oversized and out-of-range book fields
	// on save. Off by default: books are stored exactly as given.
	StrictValidation bool `yaml:"strict_validation" envconfig:"STRICT_VALIDATION"`
}

// Load builds the configuration from, in increasing priority, the optional
// YAML file, .env.dev (debug mode only) and the process environment.
func Load(file string) (*Config, error) {
	cfg := Default()

	if file != "" {
		if err := loadFile(file, cfg); err != nil {
			return nil, err
		}
	}

	if getenv("GIN_MODE", cfg.GinMode) != "release" {
		loadDotEnv(".env.dev")
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, errors.Wrap(err, "failed to load configuration from environment")
	}

	if cfg.DBSSLMode == "" {
		if cfg.GinMode == "release" {
			cfg.DBSSLMode = "require"
		} else {
			cfg.DBSSLMode = "disable"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func Default() *Config {
	return &Config{
		GinMode:         "debug",
		Port:            "8080",
		TZ:              "UTC",
		ShutdownTimeout: 10 * time.Second,
		LogLevel:        zapcore.InfoLevel,
		DBDriver:        DriverPostgres,
		DBHost:          "localhost",
		DBPort:          "5432",
		DBUser:          "postgres",
		DBName:          "postgres",
		SQLitePath:      "library.db",
		DBMaxAttempts:   10,
		DBRetryDelay:    2 * time.Second,
	}
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverPostgres:
		if c.DBHost == "" || c.DBName == "" {
			return errors.New("DB_HOST and DB_NAME are required for the postgres driver")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for the sqlite driver")
		}
	default:
		return errors.Errorf("unsupported DB_DRIVER %q (want %q or %q)", c.DBDriver, DriverPostgres, DriverSQLite)
	}

	if c.DBMaxAttempts < 1 {
		return errors.New("DB_MAX_ATTEMPTS must be at least 1")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.DBHost,
		c.DBUser,
		c.DBPass,
		c.DBName,
		c.DBPort,
		c.DBSSLMode,
		c.TZ,
	)
}

func (c *Config) SQLiteDSN() string {
	if c.SQLitePath == ":memory:" {
		return "file::memory:?cache=shared"
	}
	return fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", c.SQLitePath)
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "failed to open configuration file")
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return errors.Wrapf(err, "failed to decode configuration file %s", path)
	}
	return nil
}

// loadDotEnv looks for name in the working directory and its parents. Values
// already present in the environment are not overridden.
func loadDotEnv(name string) {
	dir, err := os.Getwd()
	if err != nil {
		return
	}

	for {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			if err := godotenv.Load(candidate); err != nil {
				log.Printf("warning: could not load %s: %v", candidate, err)
			}
			return
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
