// handlers/response.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gewnthar/netincidents/logging"
	"github.com/gewnthar/netincidents/models"
)

// Helper to respond with JSON
func respondWithJSON(log *logging.Logger, w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Errorw("Error marshalling JSON response", "error", err)
		http.Error(w, `{"error":"Failed to marshal JSON response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// Helper to respond with an error
func respondWithError(log *logging.Logger, w http.ResponseWriter, code int, message string) {
	if code >= http.StatusInternalServerError {
		log.Errorw("API Error", "status", code, "message", message)
	} else {
		log.Debugw("API Error", "status", code, "message", message)
	}
	respondWithJSON(log, w, code, models.ErrorResponse{Error: message})
}
