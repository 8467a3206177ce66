package handler

import (
	"encoding/json"
	"net/http"
)

func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, "failed to encode response", http.StatusInternalServerError)
		}
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Error writes an error body. Error responses are never cacheable, so
// an intermediary cannot pin a transient failure in front of the site.
func Error(w http.ResponseWriter, status int, err string, message string) {
	w.Header().Set("Cache-Control", "no-store")
	JSON(w, status, ErrorResponse{
		Error:   err,
		Message: message,
	})
}

// MethodNotAllowed is the router-level fallback for unsupported methods.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	Error(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
}
