// SPDX-License-Identifier: MIT

// Package middleware provides the canonical HTTP ingress middleware stack.
package middleware

import (
	"github.com/go-chi/chi/v5"
)

// StackConfig configures the ingress middleware stack so cross-cutting
// concerns cannot drift between routers.
type StackConfig struct {
	// CORS
	AllowedOrigins []string

	// Rate limiting (0 disables)
	RateLimitRPM int
}

// NewRouter constructs a chi router with the canonical stack applied.
func NewRouter(cfg StackConfig) *chi.Mux {
	r := chi.NewRouter()
	ApplyStack(r, cfg)
	return r
}

// ApplyStack applies the canonical middleware stack to r.
func ApplyStack(r chi.Router, cfg StackConfig) {
	// Recoverer is the outermost safety net.
	r.Use(Recoverer)
	// RequestID establishes correlation early.
	r.Use(RequestID)
	r.Use(CORS(cfg.AllowedOrigins))
	r.Use(SecurityHeaders)
	// Metrics wraps before logging so both see final status codes.
	r.Use(Metrics())
	r.Use(Logging)
	if cfg.RateLimitRPM > 0 {
		r.Use(APIRateLimit(cfg.RateLimitRPM))
	}
}
