// Package mock provides a relay that records submissions instead of
// delivering them.
package mock

import (
	"context"
	"log/slog"
	"sync"

	"github.com/DukeRupert/svelectricals/internal/domain"
	"github.com/DukeRupert/svelectricals/internal/relay"
)

// Relay is a mock relay for testing and development.
type Relay struct {
	logger *slog.Logger

	mu sync.Mutex

	// SendError is returned from Send when set.
	SendError error
	// Block, when set, makes Send wait until it is closed or ctx ends.
	Block chan struct{}

	// Call tracking for testing
	SendCalls   int
	Submissions []domain.Submission
}

// New creates a new mock relay.
func New(logger *slog.Logger) *Relay {
	return &Relay{logger: logger}
}

// Name implements relay.Relay.
func (r *Relay) Name() string {
	return relay.ProviderMock
}

// Send records the submission and returns SendError.
func (r *Relay) Send(ctx context.Context, sub domain.Submission) error {
	r.mu.Lock()
	r.SendCalls++
	r.Submissions = append(r.Submissions, sub)
	block := r.Block
	err := r.SendError
	r.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if r.logger != nil {
		r.logger.Info("mock relay received submission",
			"from", sub.Name,
			"service", sub.Service,
			"failed", err != nil,
		)
	}
	return err
}

// Calls returns the number of Send calls so far.
func (r *Relay) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.SendCalls
}

// Last returns the most recent submission, if any.
func (r *Relay) Last() (domain.Submission, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Submissions) == 0 {
		return domain.Submission{}, false
	}
	return r.Submissions[len(r.Submissions)-1], true
}

var _ relay.Relay = (*Relay)(nil)
