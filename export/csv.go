// export/csv.go
package export

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/gewnthar/netincidents/models"
	"github.com/jszwec/csvutil"
	"github.com/m-mizutani/goerr/v2"
)

// ServiceSeparator joins affected service ids inside one CSV cell.
const ServiceSeparator = ";"

// IncidentRow is one CSV line. Headers match the JSON field names.
type IncidentRow struct {
	ID               int64  `csv:"id"`
	Element          string `csv:"element"`
	IssueType        string `csv:"issue_type"`
	StartDate        string `csv:"start_date"`
	EndDate          string `csv:"end_date"` // empty while ongoing
	TimeRange        string `csv:"time_range"`
	TypeService      string `csv:"type_service"`
	ServicesAffected string `csv:"services_affected"`
}

func toRow(inc models.Incident) IncidentRow {
	row := IncidentRow{
		ID:               inc.ID,
		Element:          inc.Element,
		IssueType:        inc.IssueType,
		StartDate:        models.FormatTimestamp(inc.StartDate),
		TimeRange:        inc.TimeRange,
		TypeService:      inc.TypeService,
		ServicesAffected: strings.Join(inc.ServicesAffected, ServiceSeparator),
	}
	if inc.EndDate != nil {
		row.EndDate = models.FormatTimestamp(*inc.EndDate)
	}
	return row
}

// WriteIncidentsCSV writes a header line followed by one line per incident.
// The header is written even when incidents is empty.
func WriteIncidentsCSV(w io.Writer, incidents []models.Incident) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)

	if err := enc.EncodeHeader(IncidentRow{}); err != nil {
		return goerr.Wrap(err, "failed to encode CSV header")
	}
	for _, inc := range incidents {
		if err := enc.Encode(toRow(inc)); err != nil {
			return goerr.Wrap(err, "failed to encode incident row", goerr.V("incident_id", inc.ID))
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return goerr.Wrap(err, "failed to flush CSV output")
	}
	return nil
}
