// Package contact implements the contact form: field edits, validation and
// the one-shot submit lifecycle, serialised per visitor session.
package contact

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/DukeRupert/svelectricals/internal/domain"
	"github.com/DukeRupert/svelectricals/internal/metrics"
	"github.com/DukeRupert/svelectricals/internal/relay"
	"github.com/DukeRupert/svelectricals/internal/session"
)

// Messages shown to visitors when a submit does not go through.
const (
	MsgRejected  = "Submission failed. Please try again."
	MsgTransport = "Network error. Please try again."
	MsgInFlight  = "Your message is already being sent."
	MsgSubmitted = "Your message was already sent. Start a new message to send another."
	MsgBadField  = "Unknown form field."
)

// DefaultRelayTimeout bounds a relay call when none is configured.
const DefaultRelayTimeout = 30 * time.Second

// finalizeGrace is added to the relay timeout for the submit lock expiry.
const finalizeGrace = 10 * time.Second

// Controller owns every mutation of a visitor's FormState.
type Controller struct {
	store        session.Store
	relay        relay.Relay
	validator    *Validator
	relayTimeout time.Duration
	logger       *slog.Logger
}

// NewController creates a controller. relayTimeout bounds each relay call
// and, with a grace period, how long the submit lock can be held.
func NewController(store session.Store, r relay.Relay, relayTimeout time.Duration, logger *slog.Logger) *Controller {
	if relayTimeout <= 0 {
		relayTimeout = DefaultRelayTimeout
	}
	return &Controller{
		store:        store,
		relay:        r,
		validator:    NewValidator(),
		relayTimeout: relayTimeout,
		logger:       logger,
	}
}

// State returns a snapshot of the visitor's form.
func (c *Controller) State(ctx context.Context, sessionID string) (*domain.FormState, error) {
	state, err := c.store.Get(ctx, sessionID)
	if err != nil {
		return nil, domain.Internal(err, "contact.State", "failed to load form")
	}
	return state, nil
}

// PopNotice returns the pending failure notice, if any, and clears it.
func (c *Controller) PopNotice(ctx context.Context, sessionID string) (*domain.Notice, error) {
	var notice *domain.Notice
	_, err := c.store.Update(ctx, sessionID, func(st *domain.FormState) error {
		notice, st.Notice = st.Notice, nil
		return nil
	})
	if err != nil {
		return nil, domain.Internal(err, "contact.PopNotice", "failed to update form")
	}
	return notice, nil
}

// UpdateField stores one typed value and clears that field's error. The
// value is not validated until the next submit.
func (c *Controller) UpdateField(ctx context.Context, sessionID, field, value string) (*domain.FormState, error) {
	return c.UpdateFields(ctx, sessionID, map[string]string{field: value})
}

// UpdateFields applies UpdateField to each entry. Nothing is stored if any
// field name is unknown.
func (c *Controller) UpdateFields(ctx context.Context, sessionID string, values map[string]string) (*domain.FormState, error) {
	const op = "contact.UpdateFields"

	for field := range values {
		if !domain.IsContactField(field) {
			return nil, domain.Invalid(op, MsgBadField)
		}
	}

	state, err := c.store.Update(ctx, sessionID, func(st *domain.FormState) error {
		for field, value := range values {
			st.SetField(field, value)
		}
		return nil
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to update form")
	}
	return state, nil
}

// Validate checks form against the field rules without touching any state.
func (c *Controller) Validate(form domain.ContactForm) Result {
	return c.validator.Validate(form)
}

// Submit validates the visitor's form and, when valid, sends it to the
// relay exactly once. The returned state is the one after the attempt.
//
// Errors:
//   - *domain.ValidationError when fields are invalid (nothing sent)
//   - ECONFLICT when a submit is in flight or the form was already sent
//   - EREJECTED when the relay refused the submission
//   - EUNAVAILABLE when the relay could not be reached
func (c *Controller) Submit(ctx context.Context, sessionID string) (*domain.FormState, error) {
	const op = "contact.Submit"

	lockToken, err := c.store.TryLock(ctx, sessionID, c.relayTimeout+finalizeGrace)
	if err != nil {
		if errors.Is(err, session.ErrLocked) {
			metrics.ContactSubmitted(metrics.OutcomeConflict)
			return c.currentState(ctx, sessionID), domain.Conflict(op, MsgInFlight)
		}
		metrics.ContactSubmitted(metrics.OutcomeError)
		return nil, domain.Internal(err, op, "failed to lock form")
	}

	// Cleanup must outlive the request: a visitor closing the tab must not
	// leave the form stuck in the submitting state.
	detached := context.WithoutCancel(ctx)
	submitting := false
	defer func() {
		if submitting {
			if _, err := c.store.Update(detached, sessionID, func(st *domain.FormState) error {
				st.IsSubmitting = false
				return nil
			}); err != nil {
				c.logger.Error("failed to clear submitting flag", "error", err)
			}
		}
		if err := c.store.Unlock(detached, sessionID, lockToken); err != nil {
			c.logger.Error("failed to release submit lock", "error", err)
		}
	}()

	var (
		snapshot  domain.Submission
		invalid   *domain.ValidationError
		conflicts bool
	)
	state, err := c.store.Update(ctx, sessionID, func(st *domain.FormState) error {
		if st.IsSubmitted {
			conflicts = true
			return nil
		}

		res := c.validator.Validate(st.Form)
		if !res.Valid {
			st.Errors = res.Errors
			invalid = &domain.ValidationError{Op: op, Fields: res.Errors}
			return nil
		}

		// Holding the lock means no other submit is running, so a leftover
		// IsSubmitting flag is stale and gets overwritten here.
		st.Errors = make(map[string]string)
		st.Notice = nil
		st.IsSubmitting = true
		snapshot = st.Form.Snapshot()
		return nil
	})
	if err != nil {
		metrics.ContactSubmitted(metrics.OutcomeError)
		return nil, domain.Internal(err, op, "failed to update form")
	}
	if conflicts {
		metrics.ContactSubmitted(metrics.OutcomeConflict)
		return state, domain.Conflict(op, MsgSubmitted)
	}
	if invalid != nil {
		metrics.ContactSubmitted(metrics.OutcomeInvalid)
		return state, invalid
	}
	submitting = true

	sendErr := c.send(detached, snapshot)

	state, err = c.store.Update(detached, sessionID, func(st *domain.FormState) error {
		st.IsSubmitting = false
		switch {
		case sendErr == nil:
			st.IsSubmitted = true
			st.Form = domain.ContactForm{}
			st.Errors = make(map[string]string)
		case relay.IsRejected(sendErr):
			st.Notice = &domain.Notice{Kind: domain.NoticeRejected, Message: MsgRejected}
		default:
			st.Notice = &domain.Notice{Kind: domain.NoticeTransport, Message: MsgTransport}
		}
		return nil
	})
	if err != nil {
		metrics.ContactSubmitted(metrics.OutcomeError)
		return nil, domain.Internal(err, op, "failed to record submit outcome")
	}
	submitting = false

	switch {
	case sendErr == nil:
		metrics.ContactSubmitted(metrics.OutcomeSent)
		c.logger.Info("contact submission sent", "relay", c.relay.Name(), "service", snapshot.Service)
		return state, nil
	case relay.IsRejected(sendErr):
		metrics.ContactSubmitted(metrics.OutcomeRejected)
		c.logger.Warn("contact submission rejected", "relay", c.relay.Name(), "error", sendErr)
		return state, domain.Rejected(sendErr, op, MsgRejected)
	default:
		metrics.ContactSubmitted(metrics.OutcomeUnavailable)
		c.logger.Error("contact submission failed", "relay", c.relay.Name(), "error", sendErr)
		return state, domain.Unavailable(sendErr, op, MsgTransport)
	}
}

// send makes the single relay call for a submit.
func (c *Controller) send(ctx context.Context, sub domain.Submission) error {
	ctx, cancel := context.WithTimeout(ctx, c.relayTimeout)
	defer cancel()

	done := metrics.RelayStarted(c.relay.Name())
	err := c.relay.Send(ctx, sub)
	switch {
	case err == nil:
		done(metrics.OutcomeSent)
	case relay.IsRejected(err):
		done(metrics.OutcomeRejected)
	default:
		done(metrics.OutcomeUnavailable)
	}
	return err
}

// ResetAfterSuccess returns a sent form to the editable state.
func (c *Controller) ResetAfterSuccess(ctx context.Context, sessionID string) (*domain.FormState, error) {
	state, err := c.store.Update(ctx, sessionID, func(st *domain.FormState) error {
		st.IsSubmitted = false
		return nil
	})
	if err != nil {
		return nil, domain.Internal(err, "contact.ResetAfterSuccess", "failed to update form")
	}
	return state, nil
}

// currentState loads the state for error responses, falling back to an
// empty form when the store is unavailable.
func (c *Controller) currentState(ctx context.Context, sessionID string) *domain.FormState {
	state, err := c.store.Get(ctx, sessionID)
	if err != nil {
		return domain.NewFormState()
	}
	return state
}
