// database/schema.go
package database

import (
	"context"
	"database/sql"

	"github.com/gewnthar/netincidents/models"
	"github.com/m-mizutani/goerr/v2"
)

// EnsureSchema creates the incident tables and indexes when they are
// missing. Running it against an existing schema changes nothing.
func (s *Store) EnsureSchema(ctx context.Context) (err error) {
	ctx, span := startSpan(ctx, "EnsureSchema")
	defer func() { endSpan(span, err) }()

	// DDL runs outside a transaction: MySQL commits implicitly around it.
	return s.withConn(ctx, func(conn *sql.Conn) error {
		for _, stmt := range s.dialect.ddl {
			if _, err := conn.ExecContext(ctx, stmt); err != nil {
				return goerr.Wrap(err, "failed to create schema",
					goerr.V("driver", s.dialect.name), goerr.V("statement", stmt), goerr.T(models.TagDatabase))
			}
		}
		s.log.Infow("Schema ready", "driver", s.dialect.name, "statements", len(s.dialect.ddl))
		return nil
	})
}
