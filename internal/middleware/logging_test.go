package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// =============================================================================
// Request Logging
// =============================================================================

func TestRequestLogging_LogsRequest(t *testing.T) {
	var buf bytes.Buffer
	mw := NewRequestLoggingMiddleware(slog.New(slog.NewTextHandler(&buf, nil)))

	req := httptest.NewRequest(http.MethodPost, "/contact", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	mw.Handler(okHandler()).ServeHTTP(rec, req)

	out := buf.String()
	for _, want := range []string{"method=POST", "path=/contact", "status=200", "ip=192.168.1.1", "htmx=true", "duration_ms="} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q: %s", want, out)
		}
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("expected request id header")
	}
}

func TestRequestLogging_ErrorLevelFor5xx(t *testing.T) {
	var buf bytes.Buffer
	mw := NewRequestLoggingMiddleware(slog.New(slog.NewTextHandler(&buf, nil)))

	h := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/contact", nil))

	if !strings.Contains(buf.String(), "level=ERROR") || !strings.Contains(buf.String(), "status=503") {
		t.Errorf("expected error level with status 503, got: %s", buf.String())
	}
}

func TestRequestLogging_RedactsSensitiveQuery(t *testing.T) {
	var buf bytes.Buffer
	mw := NewRequestLoggingMiddleware(slog.New(slog.NewTextHandler(&buf, nil)))

	req := httptest.NewRequest(http.MethodGet, "/gallery?category=Cranes&email=raj@example.com&access_key=abc", nil)
	mw.Handler(okHandler()).ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	if strings.Contains(out, "raj@example.com") || strings.Contains(out, "access_key=abc") {
		t.Errorf("sensitive values leaked: %s", out)
	}
	if !strings.Contains(out, "category=Cranes") {
		t.Errorf("non-sensitive params should remain: %s", out)
	}
}

func TestRequestLogging_SkipsNoisyPaths(t *testing.T) {
	for _, path := range []string{"/health", "/metrics", "/static/css/site.css", "/files/gallery/a.jpg"} {
		t.Run(path, func(t *testing.T) {
			var buf bytes.Buffer
			mw := NewRequestLoggingMiddleware(slog.New(slog.NewTextHandler(&buf, nil)))
			mw.Handler(okHandler()).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
			if buf.Len() != 0 {
				t.Errorf("expected no log for %s, got: %s", path, buf.String())
			}
		})
	}
}

func TestStatusRecorder_KeepsFirstStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: rec, statusCode: http.StatusOK}
	sr.WriteHeader(http.StatusConflict)
	sr.WriteHeader(http.StatusOK)
	if sr.statusCode != http.StatusConflict {
		t.Errorf("statusCode = %d, want 409", sr.statusCode)
	}
}
