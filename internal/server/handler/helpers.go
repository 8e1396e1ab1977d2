// Package handler contains the REST handlers for the monitoring API.
package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/alanyoungcy/dexarb/internal/domain"
)

// VenueChecker reports whether a venue has a configured fee rate. Handlers
// that receive a nil checker accept any venue name and let the cost model
// apply its default rate.
type VenueChecker interface {
	KnownVenue(venue string) bool
}

// checkVenues validates each name against the checker. A nil checker accepts
// everything.
func checkVenues(venues VenueChecker, names ...string) error {
	if venues == nil {
		return nil
	}
	for _, name := range names {
		if !venues.KnownVenue(name) {
			return fmt.Errorf("%w: %q", domain.ErrUnknownVenue, name)
		}
	}
	return nil
}

// writeJSON marshals v and writes it with the given status code. A marshal
// failure falls back to a plain 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// queryInt reads an integer query parameter, returning def when absent or
// unparseable.
func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
