// handlers/router.go
package handlers

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gewnthar/netincidents/logging"
	"github.com/gewnthar/netincidents/metrics"
	"github.com/gewnthar/netincidents/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static/apispec.json
var apiSpec []byte

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// Handler serves the incident API and its HTML pages.
type Handler struct {
	svc *services.IncidentService
	log *logging.Logger
}

// NewRouter wires every route onto a chi mux.
func NewRouter(svc *services.IncidentService, log *logging.Logger) http.Handler {
	h := &Handler{svc: svc, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(log))
	r.Use(middleware.Recoverer)

	r.Get("/", h.Home)

	r.Route("/incidents", func(r chi.Router) {
		r.Get("/", h.ListIncidents)
		r.Get("/service/{service_id}", h.GetIncidentByServiceID)
		r.Get("/element/{element_name}", h.GetIncidentByElement)
		r.Post("/create/", h.CreateIncident)
		r.Post("/update/", h.UpdateIncident)
		r.Delete("/delete/{incident_id}", h.DeleteIncident)
		r.Get("/html", h.IncidentsHTML)
		r.Get("/csv", h.IncidentsCSV)
	})

	r.Get("/apispec_1.json", h.APISpec)
	r.Get("/apidocs", http.RedirectHandler("/apidocs/", http.StatusMovedPermanently).ServeHTTP)
	r.Get("/apidocs/", h.APIDocs)

	r.Get("/api/health", h.Health)
	r.Handle("/metrics", metrics.Handler())

	return r
}
