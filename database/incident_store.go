// database/incident_store.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/gewnthar/netincidents/models"
	"github.com/m-mizutani/goerr/v2"
)

const incidentColumns = `i.id, i.element, i.issue_type, i.start_date, i.end_date, i.time_range, i.type_service`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIncident(row rowScanner, extra ...any) (models.Incident, error) {
	var inc models.Incident
	var endDate sql.NullTime
	dest := append([]any{
		&inc.ID, &inc.Element, &inc.IssueType, &inc.StartDate,
		&endDate, &inc.TimeRange, &inc.TypeService,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return models.Incident{}, err
	}
	if endDate.Valid {
		inc.EndDate = &endDate.Time
	}
	return inc, nil
}

// storedTime is the value written to a timestamp column. Columns carry no
// zone, so every engine gets the same instant in UTC.
func storedTime(ts models.Timestamp) time.Time {
	return ts.Time.UTC()
}

func nullTime(ts *models.Timestamp) sql.NullTime {
	if ts == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: storedTime(*ts), Valid: true}
}

// ListIncidents returns every incident in id order, each carrying all of its
// affected service ids. No incidents yields an empty slice.
func (s *Store) ListIncidents(ctx context.Context) (incidents []models.Incident, err error) {
	ctx, span := startSpan(ctx, "ListIncidents")
	defer func() { endSpan(span, err) }()

	incidents = []models.Incident{}
	err = s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, s.dialect.sql(`
			SELECT `+incidentColumns+`, a.service_id
			FROM @incidents i
			LEFT OUTER JOIN @affected_services a ON a.incident_id = i.id
			ORDER BY i.id, a.id
		`))
		if err != nil {
			return goerr.Wrap(err, "failed to query incidents", goerr.T(models.TagDatabase))
		}
		defer rows.Close()

		// one row per (incident, service) pair; fold them back per incident
		position := make(map[int64]int)
		for rows.Next() {
			var serviceID sql.NullString
			inc, err := scanIncident(rows, &serviceID)
			if err != nil {
				return goerr.Wrap(err, "failed to scan incident row", goerr.T(models.TagDatabase))
			}
			idx, seen := position[inc.ID]
			if !seen {
				inc.ServicesAffected = []string{}
				incidents = append(incidents, inc)
				idx = len(incidents) - 1
				position[inc.ID] = idx
			}
			if serviceID.Valid {
				incidents[idx].ServicesAffected = append(incidents[idx].ServicesAffected, serviceID.String)
			}
		}
		if err := rows.Err(); err != nil {
			return goerr.Wrap(err, "error iterating incident rows", goerr.T(models.TagDatabase))
		}
		return nil
	})
	if err != nil {
		s.log.Errorw("failed to list incidents", "error", err)
		return nil, err
	}

	s.log.Debugf("Retrieved %d incidents.", len(incidents))
	return incidents, nil
}

// GetIncidentByServiceID returns the incident affecting serviceID. When
// several do, the one with the lowest id wins. Not found is not an error:
// it returns nil, nil.
func (s *Store) GetIncidentByServiceID(ctx context.Context, serviceID string) (result *models.ServiceIncident, err error) {
	ctx, span := startSpan(ctx, "GetIncidentByServiceID")
	defer func() { endSpan(span, err) }()

	err = s.withConn(ctx, func(conn *sql.Conn) error {
		row := conn.QueryRowContext(ctx, s.dialect.sql(`
			SELECT i.element, i.issue_type, i.start_date, i.end_date, i.time_range, i.type_service, a.service_id
			FROM @incidents i
			INNER JOIN @affected_services a ON a.incident_id = i.id
			WHERE a.service_id = ?
			ORDER BY i.id, a.id
			LIMIT 1
		`), serviceID)

		var si models.ServiceIncident
		var endDate sql.NullTime
		err := row.Scan(&si.Element, &si.IssueType, &si.StartDate, &endDate,
			&si.TimeRange, &si.TypeService, &si.ServiceID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return goerr.Wrap(err, "failed to query incident by service id",
				goerr.V("service_id", serviceID), goerr.T(models.TagDatabase))
		}
		if endDate.Valid {
			si.EndDate = &endDate.Time
		}
		result = &si
		return nil
	})
	if err != nil {
		s.log.Errorw("failed to look up incident by service id", "service_id", serviceID, "error", err)
		return nil, err
	}
	return result, nil
}

// GetIncidentByElement returns the lowest-id incident recorded against
// element, with its affected service ids, or nil when there is none.
func (s *Store) GetIncidentByElement(ctx context.Context, element string) (result *models.Incident, err error) {
	ctx, span := startSpan(ctx, "GetIncidentByElement")
	defer func() { endSpan(span, err) }()

	err = s.withConn(ctx, func(conn *sql.Conn) error {
		row := conn.QueryRowContext(ctx, s.dialect.sql(`
			SELECT `+incidentColumns+`
			FROM @incidents i
			WHERE i.element = ?
			ORDER BY i.id
			LIMIT 1
		`), element)
		inc, err := scanIncident(row)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return goerr.Wrap(err, "failed to query incident by element",
				goerr.V("element", element), goerr.T(models.TagDatabase))
		}

		services, err := s.serviceIDs(ctx, conn, inc.ID)
		if err != nil {
			return err
		}
		inc.ServicesAffected = services
		result = &inc
		return nil
	})
	if err != nil {
		s.log.Errorw("failed to look up incident by element", "element", element, "error", err)
		return nil, err
	}
	return result, nil
}

func (s *Store) serviceIDs(ctx context.Context, conn *sql.Conn, incidentID int64) ([]string, error) {
	rows, err := conn.QueryContext(ctx, s.dialect.sql(`
		SELECT id, incident_id, service_id FROM @affected_services WHERE incident_id = ? ORDER BY id
	`), incidentID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query affected services",
			goerr.V("incident_id", incidentID), goerr.T(models.TagDatabase))
	}
	defer rows.Close()

	services := []string{}
	for rows.Next() {
		var svc models.AffectedService
		if err := rows.Scan(&svc.ID, &svc.IncidentID, &svc.ServiceID); err != nil {
			return nil, goerr.Wrap(err, "failed to scan affected service row", goerr.T(models.TagDatabase))
		}
		services = append(services, svc.ServiceID)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "error iterating affected service rows", goerr.T(models.TagDatabase))
	}
	return services, nil
}

// CreateIncident inserts the incident and one affected service row per
// entry of in.ServicesAffected as a single transaction, and returns the
// generated id. Duplicated service ids are stored as given.
func (s *Store) CreateIncident(ctx context.Context, in models.CreateIncidentInput) (id int64, err error) {
	ctx, span := startSpan(ctx, "CreateIncident")
	defer func() { endSpan(span, err) }()

	if in.StartDate.Time.IsZero() {
		return 0, goerr.New("start_date must not be null", goerr.T(models.TagValidation))
	}

	timeRange := models.TimeRange(in.StartDate, in.EndDate)
	err = s.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		newID, err := s.insertReturningID(ctx, tx, `
			INSERT INTO @incidents (element, issue_type, start_date, end_date, time_range, type_service)
			VALUES (?, ?, ?, ?, ?, ?)`,
			in.Element, in.IssueType, storedTime(in.StartDate), nullTime(in.EndDate), timeRange, in.TypeService,
		)
		if err != nil {
			return goerr.Wrap(err, "failed to insert incident",
				goerr.V("element", in.Element), goerr.T(models.TagDatabase))
		}

		if err := s.insertServices(ctx, tx, newID, in.ServicesAffected); err != nil {
			return err
		}
		id = newID
		return nil
	})
	if err != nil {
		s.log.Errorw("failed to create incident", "element", in.Element, "error", err)
		return 0, err
	}

	s.log.Infow("Created incident", "incident_id", id, "services", len(in.ServicesAffected))
	return id, nil
}

func (s *Store) insertReturningID(ctx context.Context, tx *sql.Tx, query string, args ...any) (int64, error) {
	if s.dialect.returning {
		var id int64
		if err := tx.QueryRowContext(ctx, s.dialect.sql(query+" RETURNING id"), args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	res, err := tx.ExecContext(ctx, s.dialect.sql(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) insertServices(ctx context.Context, tx *sql.Tx, incidentID int64, serviceIDs []string) error {
	if len(serviceIDs) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, s.dialect.sql(`
		INSERT INTO @affected_services (incident_id, service_id) VALUES (?, ?)
	`))
	if err != nil {
		return goerr.Wrap(err, "failed to prepare affected service insert statement", goerr.T(models.TagDatabase))
	}
	defer stmt.Close()

	for _, serviceID := range serviceIDs {
		if _, err := stmt.ExecContext(ctx, incidentID, serviceID); err != nil {
			return goerr.Wrap(err, "failed to insert affected service",
				goerr.V("incident_id", incidentID), goerr.V("service_id", serviceID), goerr.T(models.TagDatabase))
		}
	}
	return nil
}

// UpdateIncident applies the supplied fields of in to incident in.ID and
// reports whether that incident exists. Empty strings count as not
// supplied. A supplied ServicesAffected replaces the whole set.
func (s *Store) UpdateIncident(ctx context.Context, in models.UpdateIncidentInput) (found bool, err error) {
	ctx, span := startSpan(ctx, "UpdateIncident")
	defer func() { endSpan(span, err) }()

	err = s.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var storedStart time.Time
		var storedEnd sql.NullTime
		err := tx.QueryRowContext(ctx, s.dialect.sql(`
			SELECT start_date, end_date FROM @incidents WHERE id = ?`+s.dialect.lockSuffix,
		), in.ID).Scan(&storedStart, &storedEnd)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return goerr.Wrap(err, "failed to load incident",
				goerr.V("incident_id", in.ID), goerr.T(models.TagDatabase))
		}
		found = true

		var sets []string
		var args []any
		setString := func(column string, v *string) {
			if v != nil && *v != "" {
				sets = append(sets, column+" = ?")
				args = append(args, *v)
			}
		}
		setString("element", in.Element)
		setString("issue_type", in.IssueType)
		setString("type_service", in.TypeService)

		start := supplied(in.StartDate)
		end := supplied(in.EndDate)
		if start != nil {
			sets = append(sets, "start_date = ?")
			args = append(args, storedTime(*start))
		}
		if end != nil {
			sets = append(sets, "end_date = ?")
			args = append(args, storedTime(*end))
		}
		if start != nil || end != nil {
			rangeStart := models.StoredTimestamp(storedStart)
			if start != nil {
				rangeStart = *start
			}
			rangeEnd := end
			if rangeEnd == nil && storedEnd.Valid {
				ts := models.StoredTimestamp(storedEnd.Time)
				rangeEnd = &ts
			}
			sets = append(sets, "time_range = ?")
			args = append(args, models.TimeRange(rangeStart, rangeEnd))
		}

		if len(sets) > 0 {
			args = append(args, in.ID)
			if _, err := tx.ExecContext(ctx, s.dialect.sql(
				`UPDATE @incidents SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
			), args...); err != nil {
				return goerr.Wrap(err, "failed to update incident",
					goerr.V("incident_id", in.ID), goerr.T(models.TagDatabase))
			}
		}

		if in.ServicesAffected != nil {
			if _, err := tx.ExecContext(ctx, s.dialect.sql(
				`DELETE FROM @affected_services WHERE incident_id = ?`,
			), in.ID); err != nil {
				return goerr.Wrap(err, "failed to clear affected services",
					goerr.V("incident_id", in.ID), goerr.T(models.TagDatabase))
			}
			if err := s.insertServices(ctx, tx, in.ID, *in.ServicesAffected); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.log.Errorw("failed to update incident", "incident_id", in.ID, "error", err)
		return false, err
	}

	if found {
		s.log.Infow("Updated incident", "incident_id", in.ID)
	} else {
		s.log.Debugw("Incident to update not found", "incident_id", in.ID)
	}
	return found, nil
}

func supplied(ts *models.Timestamp) *models.Timestamp {
	if ts == nil || ts.Text == "" {
		return nil
	}
	return ts
}

// DeleteIncident removes the incident and every affected service row that
// references it, and reports whether the incident existed.
func (s *Store) DeleteIncident(ctx context.Context, id int64) (found bool, err error) {
	ctx, span := startSpan(ctx, "DeleteIncident")
	defer func() { endSpan(span, err) }()

	err = s.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var existing int64
		err := tx.QueryRowContext(ctx, s.dialect.sql(
			`SELECT id FROM @incidents WHERE id = ?`+s.dialect.lockSuffix,
		), id).Scan(&existing)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return goerr.Wrap(err, "failed to load incident",
				goerr.V("incident_id", id), goerr.T(models.TagDatabase))
		}
		found = true

		// children first, so no orphan survives even without FK enforcement
		if _, err := tx.ExecContext(ctx, s.dialect.sql(
			`DELETE FROM @affected_services WHERE incident_id = ?`,
		), id); err != nil {
			return goerr.Wrap(err, "failed to delete affected services",
				goerr.V("incident_id", id), goerr.T(models.TagDatabase))
		}
		if _, err := tx.ExecContext(ctx, s.dialect.sql(
			`DELETE FROM @incidents WHERE id = ?`,
		), id); err != nil {
			return goerr.Wrap(err, "failed to delete incident",
				goerr.V("incident_id", id), goerr.T(models.TagDatabase))
		}
		return nil
	})
	if err != nil {
		s.log.Errorw("failed to delete incident", "incident_id", id, "error", err)
		return false, err
	}

	if found {
		s.log.Infow("Deleted incident and its affected services", "incident_id", id)
	}
	return found, nil
}
