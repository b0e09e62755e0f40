// handlers/incident_handler.go
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gewnthar/netincidents/models"
	"github.com/gewnthar/netincidents/services"
	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
)

const maxBodyBytes = 1 << 20

var (
	errNoJSON       = errors.New("no JSON object in request body")
	errBodyTooLarge = errors.New("request body too large")
)

// isJSON accepts application/json and any +json media type.
func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// decodeObject reads a non-empty JSON object of at most maxBodyBytes from
// the body into dst. It returns the set of top-level keys that were present.
func decodeObject(w http.ResponseWriter, r *http.Request, dst any) (map[string]json.RawMessage, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errBodyTooLarge
		}
		return nil, goerr.Wrap(err, "failed to read request body")
	}
	defer r.Body.Close()

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || len(fields) == 0 {
		return nil, errNoJSON
	}
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(dst); err != nil {
		return fields, goerr.Wrap(err, "invalid field type", goerr.T(models.TagValidation))
	}
	return fields, nil
}

// respondDecodeError answers the body errors both write endpoints share and
// reports whether it wrote a response.
func (h *Handler) respondDecodeError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, errNoJSON):
		respondWithError(h.log, w, http.StatusBadRequest, "No JSON data provided")
	case errors.Is(err, errBodyTooLarge):
		respondWithError(h.log, w, http.StatusRequestEntityTooLarge, "Request body too large")
	default:
		return false
	}
	return true
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	if goerr.HasTag(err, models.TagValidation) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// ListIncidents handles GET /incidents
func (h *Handler) ListIncidents(w http.ResponseWriter, r *http.Request) {
	incidents, err := h.svc.ListIncidents(r.Context())
	if err != nil {
		respondWithError(h.log, w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(incidents) == 0 {
		respondWithError(h.log, w, http.StatusNotFound, "No incidents found")
		return
	}
	respondWithJSON(h.log, w, http.StatusOK, incidents)
}

// GetIncidentByServiceID handles GET /incidents/service/{service_id}
func (h *Handler) GetIncidentByServiceID(w http.ResponseWriter, r *http.Request) {
	serviceID := chi.URLParam(r, "service_id")
	result, err := h.svc.GetIncidentByServiceID(r.Context(), serviceID)
	if err != nil {
		respondWithError(h.log, w, http.StatusInternalServerError, err.Error())
		return
	}
	if result == nil {
		respondWithError(h.log, w, http.StatusNotFound, "Incident not found for this service ID")
		return
	}
	respondWithJSON(h.log, w, http.StatusOK, result)
}

// GetIncidentByElement handles GET /incidents/element/{element_name}
func (h *Handler) GetIncidentByElement(w http.ResponseWriter, r *http.Request) {
	element := chi.URLParam(r, "element_name")
	result, err := h.svc.GetIncidentByElement(r.Context(), element)
	if err != nil {
		respondWithError(h.log, w, http.StatusInternalServerError, err.Error())
		return
	}
	if result == nil {
		respondWithError(h.log, w, http.StatusNotFound, "Incident not found for this element")
		return
	}
	respondWithJSON(h.log, w, http.StatusOK, result)
}

// CreateIncident handles POST /incidents/create/
func (h *Handler) CreateIncident(w http.ResponseWriter, r *http.Request) {
	if !isJSON(r) {
		respondWithError(h.log, w, http.StatusUnsupportedMediaType, "Invalid data")
		return
	}

	var req models.CreateIncidentRequest
	if _, err := decodeObject(w, r, &req); err != nil {
		if h.respondDecodeError(w, err) {
			return
		}
		respondWithError(h.log, w, statusFor(err), err.Error())
		return
	}

	id, err := h.svc.CreateIncident(r.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrMissingFields) {
			respondWithError(h.log, w, http.StatusBadRequest, "Missing required fields")
			return
		}
		respondWithError(h.log, w, statusFor(err), err.Error())
		return
	}

	h.log.Infow("Incident created", "incident_id", id, "element", *req.Element)
	respondWithJSON(h.log, w, http.StatusCreated, models.CreateIncidentResponse{
		IncidentID: id,
		Message:    "Incident created successfully",
	})
}

// UpdateIncident handles POST /incidents/update/
func (h *Handler) UpdateIncident(w http.ResponseWriter, r *http.Request) {
	if !isJSON(r) {
		respondWithError(h.log, w, http.StatusUnsupportedMediaType, "Invalid data")
		return
	}

	var req models.UpdateIncidentRequest
	fields, err := decodeObject(w, r, &req)
	if err != nil && h.respondDecodeError(w, err) {
		return
	}
	if _, ok := fields["incident_id"]; !ok {
		respondWithError(h.log, w, http.StatusUnsupportedMediaType, "Invalid data - incident_id")
		return
	}
	if err != nil {
		respondWithError(h.log, w, statusFor(err), err.Error())
		return
	}
	if req.IncidentID == nil {
		// a null id names no incident
		respondWithError(h.log, w, http.StatusNotFound, "Incident not found")
		return
	}

	found, err := h.svc.UpdateIncident(r.Context(), req)
	if err != nil {
		respondWithError(h.log, w, statusFor(err), err.Error())
		return
	}
	if !found {
		respondWithError(h.log, w, http.StatusNotFound, "Incident not found")
		return
	}

	h.log.Infow("Incident updated", "incident_id", *req.IncidentID)
	respondWithJSON(h.log, w, http.StatusOK, models.MessageResponse{Message: "Incident updated successfully"})
}

// DeleteIncident handles DELETE /incidents/delete/{incident_id}
func (h *Handler) DeleteIncident(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "incident_id"), 10, 64)
	if err != nil {
		respondWithError(h.log, w, http.StatusNotFound, "Incident not found")
		return
	}

	found, err := h.svc.DeleteIncident(r.Context(), id)
	if err != nil {
		respondWithError(h.log, w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		respondWithError(h.log, w, http.StatusNotFound, "Incident not found")
		return
	}

	h.log.Infow("Incident deleted", "incident_id", id)
	respondWithJSON(h.log, w, http.StatusOK, models.MessageResponse{
		Message: "Incident and its affected services deleted successfully",
	})
}

// Health handles GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Health(r.Context()); err != nil {
		respondWithJSON(h.log, w, http.StatusInternalServerError, map[string]string{
			"status":  "error",
			"message": "database connection error",
		})
		return
	}
	respondWithJSON(h.log, w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "incident backend is healthy",
	})
}
