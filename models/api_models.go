// models/api_models.go
package models

// CreateIncidentRequest is the JSON body of POST /incidents/create/.
// Pointers distinguish an absent field from an empty one.
type CreateIncidentRequest struct {
	Element          *string   `json:"element"`
	IssueType        *string   `json:"issue_type"`
	StartDate        *string   `json:"start_date"`
	EndDate          *string   `json:"end_date"`
	TypeService      *string   `json:"type_service"`
	ServicesAffected *[]string `json:"services_affected"`
}

// UpdateIncidentRequest is the JSON body of POST /incidents/update/.
type UpdateIncidentRequest struct {
	IncidentID       *int64    `json:"incident_id"`
	Element          *string   `json:"element"`
	IssueType        *string   `json:"issue_type"`
	StartDate        *string   `json:"start_date"`
	EndDate          *string   `json:"end_date"`
	TypeService      *string   `json:"type_service"`
	ServicesAffected *[]string `json:"services_affected"`
}

type CreateIncidentResponse struct {
	IncidentID int64  `json:"incident_id"`
	Message    string `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
