package middleware

import (
	"net/http"
	"strings"
)

const jsonContentType = "application/json"

// ContentTypeJSON defaults the response Content-Type to application/json.
// Handlers that set their own type (problem+json) win.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", jsonContentType)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireJSON rejects body-carrying requests whose Content-Type is not JSON.
func RequireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if methodHasBody(r.Method) {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, jsonContentType) {
				http.Error(w, `{"error":"Content-Type must be application/json"}`, http.StatusUnsupportedMediaType)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func methodHasBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}
