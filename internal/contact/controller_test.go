package contact

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/DukeRupert/svelectricals/internal/domain"
	"github.com/DukeRupert/svelectricals/internal/relay"
	"github.com/DukeRupert/svelectricals/internal/relay/mock"
	"github.com/DukeRupert/svelectricals/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestController(t *testing.T, r relay.Relay) (*Controller, session.Store) {
	t.Helper()
	store := session.NewMemoryStore(time.Hour)
	t.Cleanup(func() { _ = store.Close() })
	return NewController(store, r, 5*time.Second, testLogger()), store
}

// web3formsReplying starts a fake relay endpoint answering with body.
func web3formsReplying(t *testing.T, status int, body string) relay.Relay {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return relay.NewWeb3Forms(relay.Web3FormsConfig{URL: srv.URL, Timeout: time.Second}, testLogger())
}

func fillForm(t *testing.T, c *Controller, id string, form domain.ContactForm) {
	t.Helper()
	_, err := c.UpdateFields(context.Background(), id, map[string]string{
		domain.FieldName:    form.Name,
		domain.FieldEmail:   form.Email,
		domain.FieldPhone:   form.Phone,
		domain.FieldService: form.Service,
		domain.FieldMessage: form.Message,
	})
	require.NoError(t, err)
}

// =============================================================================
// Field edits
// =============================================================================

func TestController_UpdateField_ClearsOnlyThatError(t *testing.T) {
	c, _ := newTestController(t, mock.New(nil))
	ctx := context.Background()
	id := session.NewID()

	_, err := c.Submit(ctx, id)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)

	state, err := c.UpdateField(ctx, id, domain.FieldEmail, "x")
	require.NoError(t, err)

	assert.Equal(t, "x", state.Form.Email)
	assert.NotContains(t, state.Errors, domain.FieldEmail, "edited field error cleared")
	assert.Equal(t, "Name is required", state.Errors[domain.FieldName])
	assert.Len(t, state.Errors, 4)
}

func TestController_UpdateField_DoesNotValidate(t *testing.T) {
	c, _ := newTestController(t, mock.New(nil))

	state, err := c.UpdateField(context.Background(), session.NewID(), domain.FieldPhone, "12")
	require.NoError(t, err)
	assert.Empty(t, state.Errors)
}

func TestController_UpdateField_UnknownField(t *testing.T) {
	c, _ := newTestController(t, mock.New(nil))

	_, err := c.UpdateField(context.Background(), session.NewID(), "website", "spam")
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

func TestController_UpdateFields_AllOrNothing(t *testing.T) {
	c, _ := newTestController(t, mock.New(nil))
	ctx := context.Background()
	id := session.NewID()

	_, err := c.UpdateFields(ctx, id, map[string]string{domain.FieldName: "Raj", "bogus": "x"})
	require.Error(t, err)

	state, err := c.State(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, state.Form.Name)
}

// =============================================================================
// Submit outcomes
// =============================================================================

func TestController_Submit_InvalidDispatchesNothing(t *testing.T) {
	r := mock.New(nil)
	c, _ := newTestController(t, r)
	ctx := context.Background()
	id := session.NewID()

	fillForm(t, c, id, domain.ContactForm{Name: "Raj", Email: "bad-email", Phone: "12345"})

	state, err := c.Submit(ctx, id)

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, map[string]string{
		"email":   "Email is invalid",
		"phone":   "Phone number should be 10 digits",
		"service": "Please select a service",
		"message": "Message is required",
	}, ve.Fields)
	assert.Equal(t, ve.Fields, state.Errors)
	assert.False(t, state.IsSubmitting)
	assert.Equal(t, 0, r.Calls())
}

func TestController_Submit_Success(t *testing.T) {
	c, _ := newTestController(t, web3formsReplying(t, http.StatusOK, `{"success":true}`))
	ctx := context.Background()
	id := session.NewID()
	fillForm(t, c, id, validForm())

	state, err := c.Submit(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, domain.ContactForm{}, state.Form)
	assert.Empty(t, state.Errors)
	assert.True(t, state.IsSubmitted)
	assert.False(t, state.IsSubmitting)
	assert.Nil(t, state.Notice)
}

func TestController_Submit_Rejected(t *testing.T) {
	c, _ := newTestController(t, web3formsReplying(t, http.StatusOK, `{"success":false,"message":"bad key"}`))
	ctx := context.Background()
	id := session.NewID()
	fillForm(t, c, id, validForm())

	state, err := c.Submit(ctx, id)

	assert.Equal(t, domain.EREJECTED, domain.ErrorCode(err))
	assert.Equal(t, MsgRejected, domain.ErrorMessage(err))
	assert.Equal(t, validForm(), state.Form)
	assert.False(t, state.IsSubmitted)
	assert.False(t, state.IsSubmitting)
	require.NotNil(t, state.Notice)
	assert.Equal(t, domain.NoticeRejected, state.Notice.Kind)
}

func TestController_Submit_TransportFailure(t *testing.T) {
	c, _ := newTestController(t, web3formsReplying(t, http.StatusBadGateway, `<html>oops</html>`))
	ctx := context.Background()
	id := session.NewID()
	fillForm(t, c, id, validForm())

	state, err := c.Submit(ctx, id)

	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))
	assert.Equal(t, MsgTransport, domain.ErrorMessage(err))
	assert.Equal(t, validForm(), state.Form)
	assert.False(t, state.IsSubmitted)
	assert.False(t, state.IsSubmitting)
	require.NotNil(t, state.Notice)
	assert.Equal(t, domain.NoticeTransport, state.Notice.Kind)
	assert.Equal(t, MsgTransport, state.Notice.Message)
}

func TestController_Submit_UnclassifiedRelayErrorIsTransport(t *testing.T) {
	r := mock.New(nil)
	r.SendError = errors.New("boom")
	c, _ := newTestController(t, r)
	id := session.NewID()
	fillForm(t, c, id, validForm())

	_, err := c.Submit(context.Background(), id)
	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))
}

func TestController_Submit_SendsSnapshot(t *testing.T) {
	r := mock.New(nil)
	c, _ := newTestController(t, r)
	id := session.NewID()
	fillForm(t, c, id, validForm())

	_, err := c.Submit(context.Background(), id)
	require.NoError(t, err)

	sub, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, validForm().Snapshot(), sub)
	assert.Equal(t, 1, r.Calls())
}

func TestController_Submit_AfterSuccessConflicts(t *testing.T) {
	r := mock.New(nil)
	c, _ := newTestController(t, r)
	ctx := context.Background()
	id := session.NewID()
	fillForm(t, c, id, validForm())

	_, err := c.Submit(ctx, id)
	require.NoError(t, err)

	_, err = c.Submit(ctx, id)
	assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))
	assert.Equal(t, 1, r.Calls())

	state, err := c.ResetAfterSuccess(ctx, id)
	require.NoError(t, err)
	assert.False(t, state.IsSubmitted)
	assert.Equal(t, domain.ContactForm{}, state.Form)
}

func TestController_Submit_ResetsFlagOnPanic(t *testing.T) {
	c, store := newTestController(t, panicRelay{})
	ctx := context.Background()
	id := session.NewID()
	fillForm(t, c, id, validForm())

	assert.Panics(t, func() { _, _ = c.Submit(ctx, id) })

	state, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, state.IsSubmitting)
	_, err = store.TryLock(ctx, id, time.Second)
	assert.NoError(t, err, "lock should be released")
}

func TestController_Submit_SurvivesRequestCancellation(t *testing.T) {
	r := mock.New(nil)
	r.Block = make(chan struct{})
	c, store := newTestController(t, r)
	id := session.NewID()
	fillForm(t, c, id, validForm())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(ctx, id)
		done <- err
	}()

	waitFor(t, func() bool { return r.Calls() == 1 })
	cancel()
	close(r.Block)

	require.NoError(t, <-done)
	state, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, state.IsSubmitted)
	assert.False(t, state.IsSubmitting)
}

// =============================================================================
// Re-entry
// =============================================================================

func TestController_Submit_ReentryWhileInFlight(t *testing.T) {
	r := mock.New(nil)
	r.Block = make(chan struct{})
	c, _ := newTestController(t, r)
	ctx := context.Background()
	id := session.NewID()
	fillForm(t, c, id, validForm())

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = c.Submit(ctx, id)
	}()

	waitFor(t, func() bool { return r.Calls() == 1 })

	state, err := c.State(ctx, id)
	require.NoError(t, err)
	assert.True(t, state.IsSubmitting)
	assert.False(t, state.IsSubmitted)

	_, err = c.Submit(ctx, id)
	assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))

	// Edits during flight are kept but do not change what was sent.
	_, err = c.UpdateField(ctx, id, domain.FieldMessage, "changed")
	require.NoError(t, err)

	close(r.Block)
	wg.Wait()

	require.NoError(t, firstErr)
	assert.Equal(t, 1, r.Calls())
	sub, _ := r.Last()
	assert.Equal(t, validForm().Message, sub.Message)
}

func TestController_PopNotice(t *testing.T) {
	r := mock.New(nil)
	r.SendError = relay.ErrRejected
	c, _ := newTestController(t, r)
	ctx := context.Background()
	id := session.NewID()
	fillForm(t, c, id, validForm())

	_, _ = c.Submit(ctx, id)

	n, err := c.PopNotice(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, domain.NoticeRejected, n.Kind)

	n, err = c.PopNotice(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, n)
}

type panicRelay struct{}

func (panicRelay) Name() string { return "panic" }

func (panicRelay) Send(context.Context, domain.Submission) error { panic("relay exploded") }

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
