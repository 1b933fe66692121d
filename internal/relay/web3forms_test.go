package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DukeRupert/svelectricals/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleSubmission() domain.Submission {
	return domain.Submission{
		Name:    "Asha Rao",
		Email:   "asha@example.com",
		Phone:   "98765 43210",
		Service: "Industrial Cranes",
		Message: "Need a 5 ton overhead crane",
	}
}

func newTestWeb3Forms(t *testing.T, handler http.HandlerFunc) *Web3Forms {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewWeb3Forms(Web3FormsConfig{
		URL:       srv.URL,
		AccessKey: "test-key",
		Subject:   "New Contact Form Submission",
		Timeout:   2 * time.Second,
	}, testLogger())
}

func TestWeb3Forms_Send_Payload(t *testing.T) {
	var got map[string]string
	var contentType string
	w := newTestWeb3Forms(t, func(rw http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = rw.Write([]byte(`{"success":true,"message":"Email sent"}`))
	})

	err := w.Send(context.Background(), sampleSubmission())
	require.NoError(t, err)

	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, map[string]string{
		"access_key": "test-key",
		"subject":    "New Contact Form Submission",
		"from_name":  "Asha Rao",
		"email":      "asha@example.com",
		"phone":      "98765 43210",
		"service":    "Industrial Cranes",
		"message":    "Need a 5 ton overhead crane",
	}, got)
}

func TestWeb3Forms_Send_Outcomes(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantRejected bool
		wantTransprt bool
	}{
		{name: "success", status: http.StatusOK, body: `{"success":true}`},
		{name: "success flag wins over status", status: http.StatusBadRequest, body: `{"success":true}`},
		{name: "logical failure", status: http.StatusOK, body: `{"success":false,"message":"Invalid access key"}`, wantRejected: true},
		{name: "failure with error status", status: http.StatusTooManyRequests, body: `{"success":false}`, wantRejected: true},
		{name: "missing flag", status: http.StatusOK, body: `{}`, wantRejected: true},
		{name: "html body", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, wantTransprt: true},
		{name: "empty body", status: http.StatusOK, body: ``, wantTransprt: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWeb3Forms(t, func(rw http.ResponseWriter, r *http.Request) {
				rw.WriteHeader(tt.status)
				_, _ = rw.Write([]byte(tt.body))
			})

			err := w.Send(context.Background(), sampleSubmission())

			switch {
			case tt.wantRejected:
				assert.True(t, IsRejected(err), "expected rejection, got %v", err)
				assert.False(t, IsTransport(err))
			case tt.wantTransprt:
				assert.True(t, IsTransport(err), "expected transport error, got %v", err)
				assert.False(t, IsRejected(err))
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestWeb3Forms_Send_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	w := NewWeb3Forms(Web3FormsConfig{URL: url, Timeout: time.Second}, testLogger())
	err := w.Send(context.Background(), sampleSubmission())

	assert.True(t, errors.Is(err, ErrTransport), "got %v", err)
}

func TestWeb3Forms_Send_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	w := NewWeb3Forms(Web3FormsConfig{URL: srv.URL, Timeout: 50 * time.Millisecond}, testLogger())
	err := w.Send(context.Background(), sampleSubmission())

	assert.True(t, IsTransport(err), "got %v", err)
}

func TestNewWeb3Forms_DefaultURL(t *testing.T) {
	w := NewWeb3Forms(Web3FormsConfig{}, testLogger())
	assert.Equal(t, DefaultWeb3FormsURL, w.config.URL)
	assert.Equal(t, ProviderWeb3Forms, w.Name())
}
