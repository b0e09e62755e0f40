// database/dialect.go
package database

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/gewnthar/netincidents/config"
	"github.com/gewnthar/netincidents/models"
	"github.com/m-mizutani/goerr/v2"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// dialect captures what differs between the supported engines: the
// database/sql driver name, table qualification, placeholder style, how a
// generated id is returned and the DDL.
type dialect struct {
	name       string
	driverName string
	schema     string // namespace qualifier, empty when tables are unqualified
	numbered   bool   // $1, $2 placeholders instead of ?
	returning  bool   // INSERT ... RETURNING id instead of LastInsertId
	lockSuffix string // appended to row reads that precede a write
	tables     *strings.Replacer
	ddl        []string
}

func newDialect(cfg config.DatabaseConfig) (dialect, error) {
	var d dialect
	switch cfg.Driver {
	case config.DriverSQLite:
		d = dialect{name: config.DriverSQLite, driverName: "sqlite"}
	case config.DriverMySQL:
		d = dialect{name: config.DriverMySQL, driverName: "mysql", lockSuffix: " FOR UPDATE"}
	case config.DriverPostgres:
		if !identifierPattern.MatchString(cfg.Schema) {
			return dialect{}, goerr.New("invalid schema name",
				goerr.V("schema", cfg.Schema), goerr.T(models.TagValidation))
		}
		d = dialect{
			name:       config.DriverPostgres,
			driverName: "pgx",
			schema:     cfg.Schema,
			numbered:   true,
			returning:  true,
			lockSuffix: " FOR UPDATE",
		}
	default:
		return dialect{}, goerr.New("unsupported database driver",
			goerr.V("driver", cfg.Driver), goerr.T(models.TagValidation))
	}

	d.tables = strings.NewReplacer(
		"@incidents", d.table("incidents"),
		"@affected_services", d.table("affected_services"),
		"@historic_incidents", d.table("historic_incidents"),
	)
	d.ddl = d.schemaStatements()
	return d, nil
}

func (d dialect) table(name string) string {
	if d.schema == "" {
		return name
	}
	return d.schema + "." + name
}

// sql resolves @table tokens and rewrites placeholders for the engine.
func (d dialect) sql(query string) string {
	q := d.tables.Replace(query)
	if d.numbered {
		q = rebind(q)
	}
	return q
}

// rebind turns each ? into $1, $2, ... in order.
func rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d dialect) schemaStatements() []string {
	switch d.name {
	case config.DriverMySQL:
		return []string{
			`CREATE TABLE IF NOT EXISTS incidents (
				id INT AUTO_INCREMENT PRIMARY KEY,
				element VARCHAR(255) NOT NULL,
				issue_type VARCHAR(255) NOT NULL,
				start_date DATETIME NOT NULL,
				end_date DATETIME NULL,
				time_range VARCHAR(255) NOT NULL,
				type_service VARCHAR(255) NOT NULL
			) ENGINE=InnoDB`,
			`CREATE TABLE IF NOT EXISTS affected_services (
				id INT AUTO_INCREMENT PRIMARY KEY,
				incident_id INT NOT NULL,
				service_id VARCHAR(255) NOT NULL,
				INDEX idx_service_id (service_id),
				CONSTRAINT fk_affected_services_incident
					FOREIGN KEY (incident_id) REFERENCES incidents(id) ON DELETE CASCADE
			) ENGINE=InnoDB`,
			`CREATE TABLE IF NOT EXISTS historic_incidents (
				id INT AUTO_INCREMENT PRIMARY KEY,
				element VARCHAR(255) NOT NULL,
				issue_type VARCHAR(255) NOT NULL,
				start_date DATETIME NOT NULL,
				end_date DATETIME NULL,
				time_range VARCHAR(255) NOT NULL,
				type_service VARCHAR(255) NOT NULL
			) ENGINE=InnoDB`,
		}

	case config.DriverPostgres:
		return []string{
			fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, d.schema),
			d.sql(`CREATE TABLE IF NOT EXISTS @incidents (
				id SERIAL PRIMARY KEY,
				element VARCHAR NOT NULL,
				issue_type VARCHAR NOT NULL,
				start_date TIMESTAMP NOT NULL,
				end_date TIMESTAMP,
				time_range VARCHAR NOT NULL,
				type_service VARCHAR NOT NULL
			)`),
			d.sql(`CREATE TABLE IF NOT EXISTS @affected_services (
				id SERIAL PRIMARY KEY,
				incident_id INTEGER NOT NULL REFERENCES @incidents(id) ON DELETE CASCADE,
				service_id VARCHAR NOT NULL
			)`),
			d.sql(`CREATE INDEX IF NOT EXISTS idx_service_id ON @affected_services (service_id)`),
			d.sql(`CREATE INDEX IF NOT EXISTS idx_affected_services_incident_id ON @affected_services (incident_id)`),
			d.sql(`CREATE TABLE IF NOT EXISTS @historic_incidents (
				id SERIAL PRIMARY KEY,
				element VARCHAR NOT NULL,
				issue_type VARCHAR NOT NULL,
				start_date TIMESTAMP NOT NULL,
				end_date TIMESTAMP,
				time_range VARCHAR NOT NULL,
				type_service VARCHAR NOT NULL
			)`),
		}

	default:
		return []string{
			`CREATE TABLE IF NOT EXISTS incidents (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				element TEXT NOT NULL,
				issue_type TEXT NOT NULL,
				start_date TIMESTAMP NOT NULL,
				end_date TIMESTAMP,
				time_range TEXT NOT NULL,
				type_service TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS affected_services (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				incident_id INTEGER NOT NULL REFERENCES incidents(id) ON DELETE CASCADE,
				service_id TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_service_id ON affected_services (service_id)`,
			`CREATE INDEX IF NOT EXISTS idx_affected_services_incident_id ON affected_services (incident_id)`,
			`CREATE TABLE IF NOT EXISTS historic_incidents (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				element TEXT NOT NULL,
				issue_type TEXT NOT NULL,
				start_date TIMESTAMP NOT NULL,
				end_date TIMESTAMP,
				time_range TEXT NOT NULL,
				type_service TEXT NOT NULL
			)`,
		}
	}
}
