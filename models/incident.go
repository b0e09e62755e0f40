// models/incident.go
package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

const (
	// TimestampLayout is how timestamps leave the API.
	TimestampLayout = "2006-01-02T15:04:05"
	// storedLayout renders a persisted timestamp inside time_range when the
	// caller did not resupply it.
	storedLayout = "2006-01-02 15:04:05"

	OngoingLabel = "ongoing"
)

// Accepted input layouts, tried in order.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02-01-2006 15:04",
	"2006-01-02",
}

// Timestamp keeps the text a caller supplied next to its parsed value, so
// time_range can reproduce the caller's spelling.
type Timestamp struct {
	Time time.Time
	Text string
}

// ParseTimestamp parses s against the accepted layouts.
func ParseTimestamp(s string) (Timestamp, error) {
	text := strings.TrimSpace(s)
	if text == "" {
		return Timestamp{}, goerr.New("timestamp is empty", goerr.T(TagValidation))
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return Timestamp{Time: t, Text: text}, nil
		}
	}
	return Timestamp{}, goerr.New("unrecognized timestamp format",
		goerr.V("value", s), goerr.T(TagValidation))
}

// StoredTimestamp wraps a value read back from storage.
func StoredTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t, Text: t.Format(storedLayout)}
}

// TimeRange renders "<start> - <end>", with "ongoing" for a missing end.
func TimeRange(start Timestamp, end *Timestamp) string {
	endText := OngoingLabel
	if end != nil && end.Text != "" {
		endText = end.Text
	}
	return start.Text + " - " + endText
}

// Incident is a recorded network issue together with the ids of the
// services it affects.
type Incident struct {
	ID               int64      `db:"id"`
	Element          string     `db:"element"`
	IssueType        string     `db:"issue_type"`
	StartDate        time.Time  `db:"start_date"`
	EndDate          *time.Time `db:"end_date"` // nil while ongoing
	TimeRange        string     `db:"time_range"`
	TypeService      string     `db:"type_service"`
	ServicesAffected []string   `db:"-"`
}

type incidentJSON struct {
	ID               int64    `json:"id"`
	Element          string   `json:"element"`
	IssueType        string   `json:"issue_type"`
	StartDate        string   `json:"start_date"`
	EndDate          *string  `json:"end_date"`
	TimeRange        string   `json:"time_range"`
	TypeService      string   `json:"type_service"`
	ServicesAffected []string `json:"services_affected"`
}

func (i Incident) MarshalJSON() ([]byte, error) {
	services := i.ServicesAffected
	if services == nil {
		services = []string{}
	}
	return json.Marshal(incidentJSON{
		ID:               i.ID,
		Element:          i.Element,
		IssueType:        i.IssueType,
		StartDate:        FormatTimestamp(i.StartDate),
		EndDate:          FormatOptionalTimestamp(i.EndDate),
		TimeRange:        i.TimeRange,
		TypeService:      i.TypeService,
		ServicesAffected: services,
	})
}

// AffectedService links one external service id to its parent incident.
type AffectedService struct {
	ID         int64  `db:"id"`
	IncidentID int64  `db:"incident_id"`
	ServiceID  string `db:"service_id"`
}

// HistoricIncident is the archival shape of an Incident. Only the table is
// managed; nothing reads or writes it yet.
type HistoricIncident struct {
	ID          int64      `db:"id"`
	Element     string     `db:"element"`
	IssueType   string     `db:"issue_type"`
	StartDate   time.Time  `db:"start_date"`
	EndDate     *time.Time `db:"end_date"`
	TimeRange   string     `db:"time_range"`
	TypeService string     `db:"type_service"`
}

// ServiceIncident is the projection returned by the service id lookup.
type ServiceIncident struct {
	Element     string
	IssueType   string
	StartDate   time.Time
	EndDate     *time.Time
	TimeRange   string
	TypeService string
	ServiceID   string
}

func (s ServiceIncident) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Element     string  `json:"element"`
		IssueType   string  `json:"issue_type"`
		StartDate   string  `json:"start_date"`
		EndDate     *string `json:"end_date"`
		TimeRange   string  `json:"time_range"`
		TypeService string  `json:"type_service"`
		ServiceID   string  `json:"service_id"`
	}{
		Element:     s.Element,
		IssueType:   s.IssueType,
		StartDate:   FormatTimestamp(s.StartDate),
		EndDate:     FormatOptionalTimestamp(s.EndDate),
		TimeRange:   s.TimeRange,
		TypeService: s.TypeService,
		ServiceID:   s.ServiceID,
	})
}

// CreateIncidentInput carries an already validated new incident.
type CreateIncidentInput struct {
	Element          string
	IssueType        string
	StartDate        Timestamp
	EndDate          *Timestamp
	TypeService      string
	ServicesAffected []string // duplicates are kept
}

// UpdateIncidentInput is a partial update. A nil field, or a field holding
// an empty string, leaves the stored value unchanged. A non-nil
// ServicesAffected replaces the whole set, even when it points to an empty
// slice.
type UpdateIncidentInput struct {
	ID               int64
	Element          *string
	IssueType        *string
	StartDate        *Timestamp
	EndDate          *Timestamp
	TypeService      *string
	ServicesAffected *[]string
}

func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

func FormatOptionalTimestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := FormatTimestamp(*t)
	return &s
}
