package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// =============================================================================
// Basic Auth
// =============================================================================

func TestBasicAuth(t *testing.T) {
	tests := []struct {
		name       string
		user, pass string
		setAuth    bool
		want       int
	}{
		{"valid", "admin", "secret123", true, http.StatusOK},
		{"no credentials", "", "", false, http.StatusUnauthorized},
		{"wrong user", "root", "secret123", true, http.StatusUnauthorized},
		{"wrong password", "admin", "nope", true, http.StatusUnauthorized},
		{"empty credentials", "", "", true, http.StatusUnauthorized},
	}
	h := BasicAuth("metrics", "admin", "secret123")(okHandler())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			if tt.setAuth {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") != `Basic realm="metrics"` {
				t.Errorf("unexpected challenge %q", rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestBasicAuth_DisabledWithoutCredentials(t *testing.T) {
	h := BasicAuth("metrics", "", "")(okHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
