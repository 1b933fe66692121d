package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/DukeRupert/svelectricals/internal/domain"
)

// DefaultWeb3FormsURL is the public submit endpoint of web3forms.com.
const DefaultWeb3FormsURL = "https://api.web3forms.com/submit"

// maxResponseBytes caps how much of the relay's answer is read.
const maxResponseBytes = 64 << 10

// Web3FormsConfig holds settings for the web3forms relay.
type Web3FormsConfig struct {
	URL       string
	AccessKey string
	Subject   string
	Timeout   time.Duration
}

// Web3Forms posts submissions to the web3forms JSON API.
type Web3Forms struct {
	config Web3FormsConfig
	client *http.Client
	logger *slog.Logger
}

type web3formsRequest struct {
	AccessKey string `json:"access_key"`
	Subject   string `json:"subject"`
	FromName  string `json:"from_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Service   string `json:"service"`
	Message   string `json:"message"`
}

type web3formsResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NewWeb3Forms creates a web3forms relay.
func NewWeb3Forms(config Web3FormsConfig, logger *slog.Logger) *Web3Forms {
	if config.URL == "" {
		config.URL = DefaultWeb3FormsURL
	}
	return &Web3Forms{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger,
	}
}

// Name implements Relay.
func (w *Web3Forms) Name() string {
	return ProviderWeb3Forms
}

// Send implements Relay. The outcome is decided by the "success" flag of
// the JSON answer, whatever the HTTP status.
func (w *Web3Forms) Send(ctx context.Context, sub domain.Submission) error {
	body, err := json.Marshal(web3formsRequest{
		AccessKey: w.config.AccessKey,
		Subject:   w.config.Subject,
		FromName:  sub.Name,
		Email:     sub.Email,
		Phone:     sub.Phone,
		Service:   sub.Service,
		Message:   sub.Message,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrTransport, err)
	}

	var result web3formsResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("%w: decode response (status %d): %v", ErrTransport, resp.StatusCode, err)
	}

	if !result.Success {
		w.logger.Warn("web3forms rejected submission",
			"status", resp.StatusCode,
			"relay_message", result.Message,
		)
		return fmt.Errorf("%w: %s", ErrRejected, result.Message)
	}

	w.logger.Debug("web3forms accepted submission", "status", resp.StatusCode)
	return nil
}
