// main.go
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gewnthar/netincidents/config"
	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:  "netincidents",
		Usage: "Network incident tracking backend",
		Flags: globalFlags(),
		Commands: []*cli.Command{
			cmdServe(),
			cmdMigrate(),
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "netincidents: %+v\n", err)
		os.Exit(1)
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "path to a yaml config file",
			Sources: cli.EnvVars("NETINCIDENTS_CONFIG"),
		},
		&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error", Category: "Logging"},
		&cli.StringFlag{Name: "log-format", Usage: "json or console", Category: "Logging"},
		&cli.StringFlag{Name: "db-driver", Usage: "sqlite, mysql or postgres", Category: "Database"},
		&cli.StringFlag{Name: "db-path", Usage: "SQLite database file", Category: "Database"},
		&cli.StringFlag{Name: "db-host", Usage: "database host", Category: "Database"},
		&cli.StringFlag{Name: "db-port", Usage: "database port", Category: "Database"},
		&cli.StringFlag{Name: "db-name", Usage: "database name", Category: "Database"},
		&cli.StringFlag{Name: "db-schema", Usage: "PostgreSQL schema holding the tables", Category: "Database"},
	}
}

// loadConfig reads file and environment configuration, then applies the
// flags the user set explicitly on top.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	return config.Load(cmd.String("config"), func(cfg *config.Config) {
		set := func(flag string, dst *string) {
			if cmd.IsSet(flag) {
				*dst = cmd.String(flag)
			}
		}
		set("log-level", &cfg.Log.Level)
		set("log-format", &cfg.Log.Format)
		set("db-driver", &cfg.Database.Driver)
		set("db-path", &cfg.Database.Path)
		set("db-host", &cfg.Database.Host)
		set("db-port", &cfg.Database.Port)
		set("db-name", &cfg.Database.DBName)
		set("db-schema", &cfg.Database.Schema)
		set("addr", &cfg.Server.Host)
		set("port", &cfg.Server.Port)
	})
}
