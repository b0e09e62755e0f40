package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gewnthar/netincidents/logging"
	"github.com/gewnthar/netincidents/models"
	"github.com/gewnthar/netincidents/services"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

type fakeStore struct {
	created []models.CreateIncidentInput
	updated []models.UpdateIncidentInput
	found   bool
	pingErr error
}

func (f *fakeStore) ListIncidents(ctx context.Context) ([]models.Incident, error) {
	return []models.Incident{}, nil
}

func (f *fakeStore) GetIncidentByServiceID(ctx context.Context, serviceID string) (*models.ServiceIncident, error) {
	return nil, nil
}

func (f *fakeStore) GetIncidentByElement(ctx context.Context, element string) (*models.Incident, error) {
	return nil, nil
}

func (f *fakeStore) CreateIncident(ctx context.Context, in models.CreateIncidentInput) (int64, error) {
	f.created = append(f.created, in)
	return int64(len(f.created)), nil
}

func (f *fakeStore) UpdateIncident(ctx context.Context, in models.UpdateIncidentInput) (bool, error) {
	f.updated = append(f.updated, in)
	return f.found, nil
}

func (f *fakeStore) DeleteIncident(ctx context.Context, id int64) (bool, error) {
	return f.found, nil
}

func (f *fakeStore) Ping(ctx context.Context) error {
	return f.pingErr
}

func strp(s string) *string { return &s }

func validCreate() models.CreateIncidentRequest {
	affected := []string{"svc1"}
	return models.CreateIncidentRequest{
		Element:          strp("Server A"),
		IssueType:        strp("Outage"),
		StartDate:        strp("2023-01-01T10:00"),
		TypeService:      strp("Web Service"),
		ServicesAffected: &affected,
	}
}

func TestCreateIncident(t *testing.T) {
	store := &fakeStore{}
	svc := services.NewIncidentService(store, logging.Nop())

	id, err := svc.CreateIncident(context.Background(), validCreate())
	gt.NoError(t, err).Required()
	gt.Equal(t, id, int64(1))

	gt.A(t, store.created).Length(1)
	in := store.created[0]
	gt.Equal(t, in.StartDate.Text, "2023-01-01T10:00")
	gt.True(t, in.EndDate == nil)
	gt.Equal(t, in.ServicesAffected, []string{"svc1"})
}

func TestCreateIncidentMissingFields(t *testing.T) {
	testCases := map[string]func(*models.CreateIncidentRequest){
		"element":           func(r *models.CreateIncidentRequest) { r.Element = nil },
		"issue_type":        func(r *models.CreateIncidentRequest) { r.IssueType = nil },
		"start_date":        func(r *models.CreateIncidentRequest) { r.StartDate = nil },
		"type_service":      func(r *models.CreateIncidentRequest) { r.TypeService = nil },
		"services_affected": func(r *models.CreateIncidentRequest) { r.ServicesAffected = nil },
	}

	for name, drop := range testCases {
		t.Run(name, func(t *testing.T) {
			store := &fakeStore{}
			svc := services.NewIncidentService(store, logging.Nop())
			req := validCreate()
			drop(&req)

			_, err := svc.CreateIncident(context.Background(), req)
			gt.True(t, errors.Is(err, services.ErrMissingFields))
			gt.True(t, goerr.HasTag(err, models.TagValidation))
			gt.A(t, store.created).Length(0)
		})
	}
}

func TestCreateIncidentBadDates(t *testing.T) {
	store := &fakeStore{}
	svc := services.NewIncidentService(store, logging.Nop())

	req := validCreate()
	req.StartDate = strp("")
	_, err := svc.CreateIncident(context.Background(), req)
	gt.True(t, goerr.HasTag(err, models.TagValidation))

	req = validCreate()
	req.EndDate = strp("not a date")
	_, err = svc.CreateIncident(context.Background(), req)
	gt.True(t, goerr.HasTag(err, models.TagValidation))

	gt.A(t, store.created).Length(0)
}

func TestUpdateIncident(t *testing.T) {
	store := &fakeStore{found: true}
	svc := services.NewIncidentService(store, logging.Nop())
	id := int64(4)

	found, err := svc.UpdateIncident(context.Background(), models.UpdateIncidentRequest{
		IncidentID: &id,
		StartDate:  strp(""),
		EndDate:    strp("2023-01-02T08:00"),
	})
	gt.NoError(t, err).Required()
	gt.True(t, found)

	gt.A(t, store.updated).Length(1)
	in := store.updated[0]
	gt.Equal(t, in.ID, int64(4))
	gt.True(t, in.StartDate == nil)
	gt.Equal(t, in.EndDate.Text, "2023-01-02T08:00")
	gt.True(t, in.ServicesAffected == nil)
}

func TestUpdateIncidentRequiresID(t *testing.T) {
	store := &fakeStore{}
	svc := services.NewIncidentService(store, logging.Nop())

	_, err := svc.UpdateIncident(context.Background(), models.UpdateIncidentRequest{Element: strp("x")})
	gt.True(t, goerr.HasTag(err, models.TagValidation))
	gt.A(t, store.updated).Length(0)
}

func TestHealth(t *testing.T) {
	store := &fakeStore{}
	svc := services.NewIncidentService(store, logging.Nop())
	gt.NoError(t, svc.Health(context.Background()))

	store.pingErr = errors.New("connection refused")
	gt.Error(t, svc.Health(context.Background()))
}
