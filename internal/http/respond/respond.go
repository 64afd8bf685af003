// Package respond writes JSON HTTP responses in the shape the web client
// expects: plain payloads on success and {"detail": "..."} on failure.
package respond

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the failure payload read by the booking dialog.
type ErrorBody struct {
	Detail string `json:"detail"`
}

// JSON writes payload with the given status.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Detail writes an error body carrying a human readable message.
func Detail(w http.ResponseWriter, status int, detail string) {
	JSON(w, status, ErrorBody{Detail: detail})
}
