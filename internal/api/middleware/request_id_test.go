package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airaware/airaware/internal/api/middleware"
)

func TestRequestIDGeneratesWhenAbsent(t *testing.T) {
	var captured string
	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = middleware.GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, captured)
	assert.True(t, strings.HasPrefix(captured, "req_"))
	assert.Equal(t, captured, rec.Header().Get("X-Request-Id"))
}

func TestRequestIDPropagatesExisting(t *testing.T) {
	var captured string
	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = middleware.GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "req_existing")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "req_existing", captured)
	assert.Equal(t, "req_existing", rec.Header().Get("X-Request-Id"))
}

func TestGetRequestIDMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, middleware.GetRequestID(req.Context()))
}
