package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Auth gates every API route behind a single static key when one is
// configured. Clients present it either as "Authorization: Bearer <key>" or
// in the X-API-Key header. An empty configured key disables the gate, which
// is the development default.
func Auth(apiKey string) func(http.Handler) http.Handler {
	want := []byte(apiKey)
	return func(next http.Handler) http.Handler {
		if apiKey == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := presentedKey(r)
			if subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"invalid or missing api key"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// presentedKey extracts the key the client sent, preferring the Bearer
// scheme over X-API-Key.
func presentedKey(r *http.Request) string {
	const bearer = "bearer "
	if h := r.Header.Get("Authorization"); len(h) > len(bearer) && strings.EqualFold(h[:len(bearer)], bearer) {
		return strings.TrimSpace(h[len(bearer):])
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}
