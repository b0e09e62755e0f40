// handlers/page_handler.go
package handlers

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gewnthar/netincidents/export"
	"github.com/gewnthar/netincidents/models"
)

type incidentsPage struct {
	Incidents []models.Incident
}

func (p incidentsPage) FormatStart(inc models.Incident) string {
	return models.FormatTimestamp(inc.StartDate)
}

func (p incidentsPage) FormatEnd(inc models.Incident) string {
	if inc.EndDate == nil {
		return ""
	}
	return models.FormatTimestamp(*inc.EndDate)
}

// render buffers the template output; on error nothing but the 500 is
// written.
func (h *Handler) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.log.Errorw("Error rendering template", "template", name, "error", err)
		http.Error(w, "Error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// Home handles GET /
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, "home.html", nil)
}

// IncidentsHTML handles GET /incidents/html
func (h *Handler) IncidentsHTML(w http.ResponseWriter, r *http.Request) {
	incidents, err := h.svc.ListIncidents(r.Context())
	if err != nil {
		h.log.Errorw("Error listing incidents", "error", err)
		http.Error(w, "Error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	h.render(w, "incidents.html", incidentsPage{Incidents: incidents})
}

// IncidentsCSV handles GET /incidents/csv
func (h *Handler) IncidentsCSV(w http.ResponseWriter, r *http.Request) {
	incidents, err := h.svc.ListIncidents(r.Context())
	if err != nil {
		respondWithError(h.log, w, http.StatusInternalServerError, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := export.WriteIncidentsCSV(&buf, incidents); err != nil {
		respondWithError(h.log, w, http.StatusInternalServerError, err.Error())
		return
	}

	filename := "incidents-" + time.Now().UTC().Format("20060102") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// APISpec handles GET /apispec_1.json
func (h *Handler) APISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(apiSpec)
}

// APIDocs handles GET /apidocs/
func (h *Handler) APIDocs(w http.ResponseWriter, r *http.Request) {
	h.render(w, "apidocs.html", map[string]string{
		"Title":   "Incident Management API",
		"SpecURL": "/apispec_1.json",
	})
}
