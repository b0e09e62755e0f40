package export_test

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/gewnthar/netincidents/export"
	"github.com/gewnthar/netincidents/models"
	"github.com/m-mizutani/gt"
)

func TestWriteIncidentsCSV(t *testing.T) {
	end := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)
	incidents := []models.Incident{
		{
			ID:               1,
			Element:          "Server A",
			IssueType:        "Outage",
			StartDate:        time.Date(2023, 1, 1, 10, 0, 0, 0, time.UTC),
			EndDate:          &end,
			TimeRange:        "2023-01-01T10:00 - 2023-01-01T12:00",
			TypeService:      "Web Service",
			ServicesAffected: []string{"svc1", "svc2"},
		},
		{
			ID:          2,
			Element:     "Router, core",
			IssueType:   "Latency",
			StartDate:   time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC),
			TimeRange:   "2023-02-01 - ongoing",
			TypeService: "VPN",
		},
	}

	var buf bytes.Buffer
	gt.NoError(t, export.WriteIncidentsCSV(&buf, incidents)).Required()

	records, err := csv.NewReader(&buf).ReadAll()
	gt.NoError(t, err).Required()
	gt.A(t, records).Length(3)

	gt.Equal(t, records[0], []string{
		"id", "element", "issue_type", "start_date", "end_date",
		"time_range", "type_service", "services_affected",
	})
	gt.Equal(t, records[1], []string{
		"1", "Server A", "Outage", "2023-01-01T10:00:00", "2023-01-01T12:00:00",
		"2023-01-01T10:00 - 2023-01-01T12:00", "Web Service", "svc1;svc2",
	})
	gt.Equal(t, records[2][1], "Router, core")
	gt.Equal(t, records[2][4], "")
	gt.Equal(t, records[2][7], "")
}

func TestWriteIncidentsCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	gt.NoError(t, export.WriteIncidentsCSV(&buf, nil)).Required()
	gt.Equal(t, buf.String(), "id,element,issue_type,start_date,end_date,time_range,type_service,services_affected\n")
}
