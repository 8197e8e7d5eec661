package httpserver

import (
	"encoding/json"
	"net/http"
)

// writeJSON is the single response encoder for every handler. Encode errors
// after the header is written are unrecoverable, so they are dropped.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
