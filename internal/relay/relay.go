// Package relay forwards contact form submissions to a destination that
// delivers them to the company inbox.
//
// Implementations:
//   - Web3Forms: third-party HTTP form relay (production default)
//   - SMTP: direct e-mail through an SMTP server
//   - mock.Relay: logs submissions, for development and tests
package relay

import (
	"context"
	"errors"

	"github.com/DukeRupert/svelectricals/internal/domain"
)

// Relay delivers one submission. Send is called exactly once per submit and
// is never retried by callers.
type Relay interface {
	// Send dispatches the submission. It returns nil when the relay reports
	// success, an error wrapping ErrRejected when the relay answered with a
	// logical failure, and an error wrapping ErrTransport for network or
	// decoding failures.
	Send(ctx context.Context, sub domain.Submission) error

	// Name identifies the relay in logs and metrics.
	Name() string
}

// Provider names accepted in configuration.
const (
	ProviderWeb3Forms = "web3forms"
	ProviderSMTP      = "smtp"
	ProviderMock      = "mock"
)

var (
	// ErrRejected indicates the relay processed the request and refused it.
	ErrRejected = errors.New("relay rejected submission")

	// ErrTransport indicates the relay could not be reached or its answer
	// could not be read.
	ErrTransport = errors.New("relay transport failure")
)

// IsRejected reports whether err is a logical failure from the relay.
func IsRejected(err error) bool {
	return errors.Is(err, ErrRejected)
}

// IsTransport reports whether err is a network or decoding failure.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}
