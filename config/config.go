// config/config.go
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

type ServerConfig struct {
	Host string `yaml:"host" env:"HOST"`
	Port string `yaml:"port" env:"PORT"`
}

// Addr is the listen address handed to http.Server.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver" env:"DB_DRIVER"`
	Host     string `yaml:"host" env:"DB_HOST"`
	Port     string `yaml:"port" env:"DB_PORT"`
	User     string `yaml:"user" env:"DB_USERNAME"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	DBName   string `yaml:"dbname" env:"DB_NAME"`
	Schema   string `yaml:"schema" env:"DB_SCHEMA"` // postgres only
	Path     string `yaml:"path" env:"DB_PATH"`     // sqlite only

	MaxOpenConns    int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout" env:"DB_CONNECT_TIMEOUT"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

type TelemetryConfig struct {
	Endpoint    string `yaml:"endpoint" env:"OTEL_ENDPOINT"`
	Insecure    bool   `yaml:"insecure" env:"OTEL_INSECURE"`
	ServiceName string `yaml:"service_name" env:"OTEL_SERVICE"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// Default returns a configuration that runs against a local SQLite file.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills every zero value with its default.
func (c *Config) SetDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}

	db := &c.Database
	if db.Driver == "" {
		db.Driver = DriverSQLite
	}
	if db.Driver == DriverSQLite && db.Path == "" {
		db.Path = "incidents.db"
	}
	if db.Schema == "" {
		db.Schema = "network"
	}
	if db.Port == "" {
		switch db.Driver {
		case DriverMySQL:
			db.Port = "3306"
		case DriverPostgres:
			db.Port = "5432"
		}
	}
	if db.MaxOpenConns == 0 {
		db.MaxOpenConns = 25
	}
	if db.MaxIdleConns == 0 {
		db.MaxIdleConns = 25
	}
	if db.ConnMaxLifetime == 0 {
		db.ConnMaxLifetime = 5 * time.Minute
	}
	if db.ConnectTimeout == 0 {
		db.ConnectTimeout = 30 * time.Second
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "netincidents"
	}
}

// Validate checks if the configuration is usable.
func (c *Config) Validate() error {
	db := c.Database
	switch db.Driver {
	case DriverSQLite:
		if db.Path == "" {
			return goerr.New("database path is required for sqlite")
		}
	case DriverMySQL, DriverPostgres:
		if db.Host == "" {
			return goerr.New("database host is required", goerr.V("driver", db.Driver))
		}
		if db.DBName == "" {
			return goerr.New("database name is required", goerr.V("driver", db.Driver))
		}
	default:
		return goerr.New("unsupported database driver", goerr.V("driver", db.Driver))
	}
	if db.MaxOpenConns < 1 {
		return goerr.New("max_open_conns must be at least 1")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return goerr.New("unsupported log level", goerr.V("level", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return goerr.New("unsupported log format", goerr.V("format", c.Log.Format))
	}
	return nil
}

// DSN renders the connection string for the configured driver.
func (db DatabaseConfig) DSN() string {
	switch db.Driver {
	case DriverMySQL:
		// username:password@protocol(address)/dbname?param=value
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
			db.User, db.Password, db.Host, db.Port, db.DBName)
	case DriverPostgres:
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(db.User, db.Password),
			Host:   db.Host + ":" + db.Port,
			Path:   "/" + db.DBName,
		}
		return u.String()
	default:
		return db.Path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_time_format=sqlite"
	}
}

// Load builds the configuration from an optional yaml file, a .env file in
// the working directory and the process environment, in that order.
// overrides run last, before defaults are filled in and the result is
// validated; the CLI passes its explicitly set flags here.
func Load(configPath string, overrides ...func(*Config)) (*Config, error) {
	cfg := &Config{}

	if configPath != "" {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read config file", goerr.V("path", configPath))
		}
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal config", goerr.V("path", configPath))
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, goerr.Wrap(err, "failed to load .env file")
	}
	if err := env.Parse(cfg); err != nil {
		return nil, goerr.Wrap(err, "failed to parse environment")
	}

	for _, override := range overrides {
		override(cfg)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}
