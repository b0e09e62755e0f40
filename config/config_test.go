package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gewnthar/netincidents/config"
	"github.com/m-mizutani/gt"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	gt.NoError(t, os.WriteFile(path, []byte(body), 0o600)).Required()
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	gt.NoError(t, err).Required()

	gt.Equal(t, cfg.Server.Port, "8080")
	gt.Equal(t, cfg.Database.Driver, config.DriverSQLite)
	gt.Equal(t, cfg.Database.Path, "incidents.db")
	gt.Equal(t, cfg.Database.Schema, "network")
	gt.Equal(t, cfg.Database.ConnectTimeout, 30*time.Second)
	gt.Equal(t, cfg.Log.Level, "info")
	gt.Equal(t, cfg.Log.Format, "json")
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, `
server:
  port: "9000"
database:
  driver: postgres
  host: db.internal
  user: netops
  password: secret
  dbname: incidents
  schema: ops
log:
  level: debug
  format: console
`)
	cfg, err := config.Load(path)
	gt.NoError(t, err).Required()

	gt.Equal(t, cfg.Server.Addr(), "0.0.0.0:9000")
	gt.Equal(t, cfg.Database.Driver, config.DriverPostgres)
	gt.Equal(t, cfg.Database.Port, "5432")
	gt.Equal(t, cfg.Database.Schema, "ops")
	gt.Equal(t, cfg.Log.Format, "console")
}

func TestEnvOverridesYAML(t *testing.T) {
	path := writeFile(t, `
database:
  driver: mysql
  host: yaml-host
  dbname: incidents
`)
	t.Setenv("DB_HOST", "env-host")
	t.Setenv("DB_PASSWORD", "from-env")
	t.Setenv("PORT", "7070")

	cfg, err := config.Load(path)
	gt.NoError(t, err).Required()

	gt.Equal(t, cfg.Database.Host, "env-host")
	gt.Equal(t, cfg.Database.Password, "from-env")
	gt.Equal(t, cfg.Database.Port, "3306")
	gt.Equal(t, cfg.Server.Port, "7070")
}

func TestOverridesApplyLast(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := config.Load("", func(c *config.Config) {
		c.Log.Level = "error"
		c.Database.Path = "override.db"
	})
	gt.NoError(t, err).Required()
	gt.Equal(t, cfg.Log.Level, "error")
	gt.Equal(t, cfg.Database.Path, "override.db")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	gt.Error(t, err)
}

func TestValidate(t *testing.T) {
	testCases := map[string]struct {
		mutate func(*config.Config)
		valid  bool
	}{
		"defaults": {
			mutate: func(*config.Config) {},
			valid:  true,
		},
		"unknown driver": {
			mutate: func(c *config.Config) { c.Database.Driver = "oracle" },
		},
		"mysql without host": {
			mutate: func(c *config.Config) {
				c.Database.Driver = config.DriverMySQL
				c.Database.DBName = "incidents"
			},
		},
		"postgres without dbname": {
			mutate: func(c *config.Config) {
				c.Database.Driver = config.DriverPostgres
				c.Database.Host = "localhost"
			},
		},
		"bad log level": {
			mutate: func(c *config.Config) { c.Log.Level = "verbose" },
		},
		"bad log format": {
			mutate: func(c *config.Config) { c.Log.Format = "xml" },
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.valid {
				gt.NoError(t, err)
			} else {
				gt.Error(t, err)
			}
		})
	}
}

func TestDSN(t *testing.T) {
	mysql := config.DatabaseConfig{
		Driver: config.DriverMySQL, User: "u", Password: "p",
		Host: "h", Port: "3306", DBName: "incidents",
	}
	gt.Equal(t, mysql.DSN(), "u:p@tcp(h:3306)/incidents?parseTime=true")

	pg := config.DatabaseConfig{
		Driver: config.DriverPostgres, User: "u", Password: "p@ss",
		Host: "h", Port: "5432", DBName: "incidents",
	}
	gt.Equal(t, pg.DSN(), "postgres://u:p%40ss@h:5432/incidents")

	lite := config.DatabaseConfig{Driver: config.DriverSQLite, Path: "x.db"}
	gt.S(t, lite.DSN()).Contains("foreign_keys(1)")
	gt.S(t, lite.DSN()).Contains("_time_format=sqlite")
}

func TestLoadExampleFile(t *testing.T) {
	cfg, err := config.Load("config.example.yaml")
	gt.NoError(t, err).Required()
	gt.Equal(t, cfg.Database.Driver, config.DriverPostgres)
	gt.Equal(t, cfg.Database.ConnMaxLifetime, 5*time.Minute)
	gt.True(t, cfg.Telemetry.Insecure)
}
