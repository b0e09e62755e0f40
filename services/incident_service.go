// services/incident_service.go
package services

import (
	"context"
	"errors"

	"github.com/gewnthar/netincidents/logging"
	"github.com/gewnthar/netincidents/metrics"
	"github.com/gewnthar/netincidents/models"
	"github.com/m-mizutani/goerr/v2"
)

// ErrMissingFields is returned when a create request lacks a required field.
var ErrMissingFields = errors.New("missing required fields")

// IncidentStore is the persistence contract the service relies on.
// *database.Store implements it.
type IncidentStore interface {
	ListIncidents(ctx context.Context) ([]models.Incident, error)
	GetIncidentByServiceID(ctx context.Context, serviceID string) (*models.ServiceIncident, error)
	GetIncidentByElement(ctx context.Context, element string) (*models.Incident, error)
	CreateIncident(ctx context.Context, in models.CreateIncidentInput) (int64, error)
	UpdateIncident(ctx context.Context, in models.UpdateIncidentInput) (bool, error)
	DeleteIncident(ctx context.Context, id int64) (bool, error)
	Ping(ctx context.Context) error
}

// IncidentService validates requests coming from the HTTP layer and turns
// them into store calls.
type IncidentService struct {
	store IncidentStore
	log   *logging.Logger
}

func NewIncidentService(store IncidentStore, log *logging.Logger) *IncidentService {
	return &IncidentService{store: store, log: log}
}

func outcome(err error, found bool) string {
	switch {
	case err != nil && goerr.HasTag(err, models.TagValidation):
		return metrics.OutcomeInvalid
	case err != nil:
		return metrics.OutcomeError
	case !found:
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeOK
	}
}

func (s *IncidentService) ListIncidents(ctx context.Context) ([]models.Incident, error) {
	incidents, err := s.store.ListIncidents(ctx)
	metrics.Observe("list", outcome(err, len(incidents) > 0))
	return incidents, err
}

func (s *IncidentService) GetIncidentByServiceID(ctx context.Context, serviceID string) (*models.ServiceIncident, error) {
	result, err := s.store.GetIncidentByServiceID(ctx, serviceID)
	metrics.Observe("get_by_service", outcome(err, result != nil))
	return result, err
}

func (s *IncidentService) GetIncidentByElement(ctx context.Context, element string) (*models.Incident, error) {
	result, err := s.store.GetIncidentByElement(ctx, element)
	metrics.Observe("get_by_element", outcome(err, result != nil))
	return result, err
}

// CreateIncident checks that every required field is present, parses the
// dates and stores the incident. It returns the new incident id.
func (s *IncidentService) CreateIncident(ctx context.Context, req models.CreateIncidentRequest) (id int64, err error) {
	defer func() { metrics.Observe("create", outcome(err, true)) }()

	if req.Element == nil || req.IssueType == nil || req.StartDate == nil ||
		req.TypeService == nil || req.ServicesAffected == nil {
		return 0, goerr.Wrap(ErrMissingFields, "invalid create request", goerr.T(models.TagValidation))
	}

	start, err := models.ParseTimestamp(*req.StartDate)
	if err != nil {
		return 0, goerr.Wrap(err, "invalid start_date", goerr.V("start_date", *req.StartDate), goerr.T(models.TagValidation))
	}
	end, err := optionalTimestamp(req.EndDate)
	if err != nil {
		return 0, goerr.Wrap(err, "invalid end_date", goerr.V("end_date", *req.EndDate), goerr.T(models.TagValidation))
	}

	return s.store.CreateIncident(ctx, models.CreateIncidentInput{
		Element:          *req.Element,
		IssueType:        *req.IssueType,
		StartDate:        start,
		EndDate:          end,
		TypeService:      *req.TypeService,
		ServicesAffected: *req.ServicesAffected,
	})
}

// UpdateIncident applies a partial update and reports whether the incident
// exists. Fields that are absent or empty are left untouched.
func (s *IncidentService) UpdateIncident(ctx context.Context, req models.UpdateIncidentRequest) (found bool, err error) {
	defer func() { metrics.Observe("update", outcome(err, found)) }()

	if req.IncidentID == nil {
		return false, goerr.New("incident_id is required", goerr.T(models.TagValidation))
	}

	start, err := optionalTimestamp(req.StartDate)
	if err != nil {
		return false, goerr.Wrap(err, "invalid start_date", goerr.V("start_date", *req.StartDate), goerr.T(models.TagValidation))
	}
	end, err := optionalTimestamp(req.EndDate)
	if err != nil {
		return false, goerr.Wrap(err, "invalid end_date", goerr.V("end_date", *req.EndDate), goerr.T(models.TagValidation))
	}

	return s.store.UpdateIncident(ctx, models.UpdateIncidentInput{
		ID:               *req.IncidentID,
		Element:          req.Element,
		IssueType:        req.IssueType,
		StartDate:        start,
		EndDate:          end,
		TypeService:      req.TypeService,
		ServicesAffected: req.ServicesAffected,
	})
}

func (s *IncidentService) DeleteIncident(ctx context.Context, id int64) (found bool, err error) {
	defer func() { metrics.Observe("delete", outcome(err, found)) }()
	return s.store.DeleteIncident(ctx, id)
}

// Health pings the backing store.
func (s *IncidentService) Health(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		s.log.Warnw("Health check failed: DB ping error", "error", err)
		return err
	}
	return nil
}

// optionalTimestamp maps an absent or empty value to nil.
func optionalTimestamp(v *string) (*models.Timestamp, error) {
	if v == nil || *v == "" {
		return nil, nil
	}
	ts, err := models.ParseTimestamp(*v)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}
