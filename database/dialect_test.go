package database

import (
	"testing"

	"github.com/gewnthar/netincidents/config"
	"github.com/m-mizutani/gt"
)

func TestRebind(t *testing.T) {
	gt.Equal(t, rebind("SELECT a FROM t WHERE x = ? AND y = ?"), "SELECT a FROM t WHERE x = $1 AND y = $2")
	gt.Equal(t, rebind("SELECT 1"), "SELECT 1")
}

func TestDialectTables(t *testing.T) {
	pg, err := newDialect(config.DatabaseConfig{Driver: config.DriverPostgres, Schema: "network"})
	gt.NoError(t, err).Required()
	gt.Equal(t,
		pg.sql("SELECT id FROM @incidents WHERE id = ?"),
		"SELECT id FROM network.incidents WHERE id = $1")
	gt.Equal(t, pg.lockSuffix, " FOR UPDATE")
	gt.True(t, pg.returning)

	lite, err := newDialect(config.DatabaseConfig{Driver: config.DriverSQLite})
	gt.NoError(t, err).Required()
	gt.Equal(t,
		lite.sql("DELETE FROM @affected_services WHERE incident_id = ?"),
		"DELETE FROM affected_services WHERE incident_id = ?")
	gt.Equal(t, lite.lockSuffix, "")

	my, err := newDialect(config.DatabaseConfig{Driver: config.DriverMySQL, Schema: "ignored"})
	gt.NoError(t, err).Required()
	gt.Equal(t, my.table("incidents"), "incidents")
	gt.A(t, my.ddl).Length(3)
}

func TestDialectRejects(t *testing.T) {
	_, err := newDialect(config.DatabaseConfig{Driver: config.DriverPostgres, Schema: "net; DROP"})
	gt.Error(t, err)

	_, err = newDialect(config.DatabaseConfig{Driver: "oracle"})
	gt.Error(t, err)
}
