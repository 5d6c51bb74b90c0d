// This file holds the JSON helpers shared by the stage and player routes.
// Command bodies are tiny ({"key"}, {"id"}, {"position"}, {"percent"},
// {"delta"}, {"visible"}), so decoding is strict: one object, no unknown
// fields. Errors are always answered as {"error": "..."} so the front end
// can show them next to the queued notifications.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// decodeJSON decodes a single JSON object from the request body into v. The
// body is capped at 1MB, and a misspelled field such as {"volume": 30} on
// the volume route is rejected instead of silently reading as zero.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer r.Body.Close()
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1MB
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return errors.New("empty body")
		}
		return err
	}
	if dec.More() {
		return errors.New("extra data in request body")
	}
	return nil
}

// respondJSON writes v as a JSON document with the given status. Encoding
// errors are ignored; the header has already been sent by then.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respondJSONError writes {"error": msg} with the given status.
func respondJSONError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
