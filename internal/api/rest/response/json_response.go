package response

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the payload of every error response.
type ErrorBody struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// JSONResponse writes the given data as a JSON response with the specified status code.
func JSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// JSONErrorResponse writes an error message and optional details as a JSON response.
func JSONErrorResponse(w http.ResponseWriter, statusCode int, message string, details ...string) {
	JSONResponse(w, statusCode, ErrorBody{Error: message, Details: details})
}

// NoContent writes an empty response with the given status code.
func NoContent(w http.ResponseWriter, statusCode int) {
	w.WriteHeader(statusCode)
}
