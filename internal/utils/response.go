package utils

import (
	"encoding/json"
	"net/http"
)

// JSON writes payload as a JSON response. The body is marshaled before
// the status line goes out, so an encoding failure can still become a
// clean 500 instead of a truncated 2xx.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if payload == nil {
		w.WriteHeader(status)
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"encoding_failure"}`))
		return
	}
	w.WriteHeader(status)
	w.Write(body)
}

// JSONError writes a machine-readable error code as the response body.
func JSONError(w http.ResponseWriter, status int, code string) {
	JSON(w, status, map[string]string{"error": code})
}
