package middleware

import (
	"net/http"
	"strings"
)

// SecurityHeadersMiddleware adds HTTP security headers to all responses.
type SecurityHeadersMiddleware struct {
	isSecure bool // enables HSTS (true in production)
	csp      string
}

// NewSecurityHeadersMiddleware creates a new security headers middleware.
// extraImgSources are added to img-src, e.g. the R2 public bucket URL.
func NewSecurityHeadersMiddleware(isSecure bool, extraImgSources ...string) *SecurityHeadersMiddleware {
	return &SecurityHeadersMiddleware{
		isSecure: isSecure,
		csp:      buildCSP(extraImgSources),
	}
}

// Handler returns middleware that sets security headers on all responses.
func (m *SecurityHeadersMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if m.isSecure {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		h.Set("Content-Security-Policy", m.csp)
		h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")

		next.ServeHTTP(w, r)
	})
}

// buildCSP allows htmx and Leaflet from unpkg, the Tailwind browser build,
// OpenStreetMap tiles and the Unsplash fallback photos.
func buildCSP(extraImgSources []string) string {
	img := []string{"'self'", "data:", "https://images.unsplash.com", "https://*.tile.openstreetmap.org", "https://unpkg.com"}
	img = append(img, extraImgSources...)

	directives := []string{
		"default-src 'self'",
		"script-src 'self' https://unpkg.com https://cdn.tailwindcss.com",
		"style-src 'self' 'unsafe-inline' https://unpkg.com",
		"img-src " + strings.Join(img, " "),
		"font-src 'self'",
		"connect-src 'self'",
		"frame-ancestors 'none'",
		"base-uri 'self'",
		"form-action 'self'",
	}
	return strings.Join(directives, "; ")
}
