package handler

import (
	"encoding/json"
	"net/http"
)

// Stable machine-readable error kinds reported to clients.
const (
	KindValidationFailed = "validation_failed"
	KindQuotaExhausted   = "quota_exhausted"
	KindNotFound         = "not_found"
	KindInternal         = "internal"
)

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, errorResponse{Error: errorBody{Kind: kind, Message: message}})
}

// writeInternal hides the cause from the client; the caller logs it.
func writeInternal(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, KindInternal, "something went wrong, try again later")
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
