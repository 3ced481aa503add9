package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorsMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	tests := []struct {
		name       string
		config     CorsConfig
		method     string
		origin     string
		wantStatus int
		wantOrigin string
	}{
		{
			name:       "disabled",
			method:     http.MethodGet,
			origin:     "http://a.example",
			wantStatus: http.StatusTeapot,
		},
		{
			name:       "any origin",
			config:     CorsConfig{CorsAllowedOrigins: []string{"*"}},
			method:     http.MethodGet,
			origin:     "http://a.example",
			wantStatus: http.StatusTeapot,
			wantOrigin: "*",
		},
		{
			name:       "listed origin",
			config:     CorsConfig{CorsAllowedOrigins: []string{"http://a.example"}},
			method:     http.MethodGet,
			origin:     "http://a.example",
			wantStatus: http.StatusTeapot,
			wantOrigin: "http://a.example",
		},
		{
			name:       "unlisted origin",
			config:     CorsConfig{CorsAllowedOrigins: []string{"http://a.example"}},
			method:     http.MethodGet,
			origin:     "http://b.example",
			wantStatus: http.StatusTeapot,
		},
		{
			name:       "preflight",
			config:     CorsConfig{CorsAllowedOrigins: []string{"http://a.example"}},
			method:     http.MethodOptions,
			origin:     "http://a.example",
			wantStatus: http.StatusNoContent,
			wantOrigin: "http://a.example",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/query", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			corsMiddleware(tt.config)(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}
