package middlew

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
)

func newCORSRouter(called *bool) *chi.Mux {
	r := chi.NewRouter()
	r.Use(CORS())
	r.Get("/currency/convert", func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
	r.Options("/currency/convert", Preflight)
	return r
}

func TestCORS_Preflight(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
	}{
		{
			name: "browser preflight",
			headers: map[string]string{
				"Origin":                         "https://staging.example.am",
				"Access-Control-Request-Method":  "GET",
				"Access-Control-Request-Headers": "content-type",
			},
		},
		{name: "bare options"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			req := httptest.NewRequest(http.MethodOptions, "/currency/convert", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			newCORSRouter(&called).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusNoContent, rec.Code)
			assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "GET, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
			assert.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
			assert.Empty(t, rec.Body.String())
			assert.False(t, called)
		})
	}
}

func TestCORS_GetPassesThrough(t *testing.T) {
	called := false
	req := httptest.NewRequest(http.MethodGet, "/currency/convert?amount=1", nil)
	req.Header.Set("Origin", "https://staging.example.am")
	rec := httptest.NewRecorder()
	newCORSRouter(&called).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestWithLogger_AttachesTraceID(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(WithLogger(base))
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		GetLogger(r.Context()).Info("inside")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, buf.String(), `"trace_id":"req-42"`)
}

func TestGetLogger_DefaultWithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, slog.Default(), GetLogger(req.Context()))
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	r := chi.NewRouter()
	r.Use(WithLogger(base))
	r.Use(AccessLog)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Contains(t, buf.String(), `"status":418`)
	assert.Contains(t, buf.String(), `"path":"/healthz"`)
}
