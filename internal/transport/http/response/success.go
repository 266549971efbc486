package response

import (
	"encoding/json"
	"net/http"
)

// Envelope is the success body: {"data": ...}.
type Envelope struct {
	Data any `json:"data"`
}

// writeJSON is shared by success and error bodies. Responses may carry session
// tokens, so none of them are cacheable.
func writeJSON(w http.ResponseWriter, status int, v any) {
	h := w.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes a 200 response with {"data": ...}.
func OK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Envelope{Data: data})
}

// NoContent ends member lock, unlock and delete with an empty 204.
func NoContent(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusNoContent)
}
