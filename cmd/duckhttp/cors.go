package main

import (
	"net/http"
	"slices"
	"strings"
)

type CorsConfig struct {
	CorsAllowedOrigins []string
	CorsAllowedHeaders []string
	CorsAllowedMethods []string
}

func corsMiddleware(c CorsConfig) func(next http.Handler) http.Handler {
	if len(c.CorsAllowedOrigins) == 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	if len(c.CorsAllowedHeaders) == 0 {
		c.CorsAllowedHeaders = []string{"Content-Type", "Accept", "Accept-Encoding"}
	}
	if len(c.CorsAllowedMethods) == 0 {
		c.CorsAllowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	}
	anyOrigin := slices.Contains(c.CorsAllowedOrigins, "*")
	headers := strings.Join(c.CorsAllowedHeaders, ", ")
	methods := strings.Join(c.CorsAllowedMethods, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case anyOrigin:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && slices.Contains(c.CorsAllowedOrigins, origin):
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			default:
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Access-Control-Allow-Headers", headers)
			w.Header().Set("Access-Control-Allow-Methods", methods)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
