// database/connection.go
package database

import (
	"context"
	"database/sql"

	"github.com/cenkalti/backoff/v4"
	"github.com/gewnthar/netincidents/config"
	"github.com/gewnthar/netincidents/logging"
	"github.com/gewnthar/netincidents/models"
	_ "github.com/go-sql-driver/mysql" // MariaDB/MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	"github.com/m-mizutani/goerr/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	_ "modernc.org/sqlite" // registers "sqlite"
)

var tracer = otel.Tracer("netincidents/database")

// Store is the handle every access operation runs against. It owns the
// connection pool; each operation takes its own connection from it and
// gives it back before returning.
type Store struct {
	db      *sql.DB
	dialect dialect
	log     *logging.Logger
}

// Open initializes the connection pool and waits for the database to answer
// a ping, for at most cfg.ConnectTimeout.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *logging.Logger) (*Store, error) {
	d, err := newDialect(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.driverName, cfg.DSN())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open database connection",
			goerr.V("driver", cfg.Driver), goerr.T(models.TagDatabase))
	}

	// Configure connection pool settings
	maxOpen, maxIdle := cfg.MaxOpenConns, cfg.MaxIdleConns
	if d.name == config.DriverSQLite {
		// single writer; a second connection would only wait on the file lock
		maxOpen, maxIdle = 1, 1
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = cfg.ConnectTimeout
	ping := func() error {
		if err := db.PingContext(ctx); err != nil {
			log.Warnw("database not reachable yet", "driver", cfg.Driver, "error", err)
			return err
		}
		return nil
	}
	if err := backoff.Retry(ping, backoff.WithContext(bo, ctx)); err != nil {
		db.Close()
		return nil, goerr.Wrap(err, "failed to ping database",
			goerr.V("driver", cfg.Driver), goerr.T(models.TagDatabase))
	}

	log.Infow("Successfully connected to the database", "driver", cfg.Driver)
	return &Store{db: db, dialect: d, log: log}, nil
}

// Close closes the connection pool.
// Typically called on application shutdown.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return goerr.Wrap(err, "failed to close database", goerr.T(models.TagDatabase))
	}
	s.log.Info("Database connection closed.")
	return nil
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return goerr.Wrap(err, "database ping failed", goerr.T(models.TagDatabase))
	}
	return nil
}

// withConn acquires a dedicated connection for one operation and releases
// it on every exit path.
func (s *Store) withConn(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to acquire database connection", goerr.T(models.TagDatabase))
	}
	defer conn.Close()
	return fn(conn)
}

// withTx runs fn inside one transaction on a dedicated connection. The
// transaction is detached from ctx cancellation: once begun it either
// commits or rolls back on its own error, never half way because the
// caller went away.
func (s *Store) withTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	return s.withConn(ctx, func(conn *sql.Conn) error {
		txCtx := context.WithoutCancel(ctx)
		tx, err := conn.BeginTx(txCtx, nil)
		if err != nil {
			return goerr.Wrap(err, "failed to begin transaction", goerr.T(models.TagDatabase))
		}
		defer tx.Rollback()

		if err := fn(txCtx, tx); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return goerr.Wrap(err, "failed to commit transaction", goerr.T(models.TagDatabase))
		}
		return nil
	})
}

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "database."+name)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
