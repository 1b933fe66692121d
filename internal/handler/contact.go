package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/a-h/templ"

	"github.com/DukeRupert/svelectricals/internal/csrf"
	"github.com/DukeRupert/svelectricals/internal/domain"
	"github.com/DukeRupert/svelectricals/internal/session"
	"github.com/DukeRupert/svelectricals/internal/templ/partials"
)

// maxContactBody bounds contact form and API request bodies.
const maxContactBody = 64 << 10

// SuccessMessage is returned to API clients after a sent submission.
const SuccessMessage = "Thank you for contacting us. We'll get back to you soon."

// contactAnchor is where plain form posts land after Post/Redirect/Get.
const contactAnchor = "/#contact"

// ContactHandler serves the contact form endpoints.
type ContactHandler struct {
	contact  ContactController
	services []string
	renderer TemplateRenderer
	logger   *slog.Logger
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(contact ContactController, services []string, renderer TemplateRenderer, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{
		contact:  contact,
		services: services,
		renderer: renderer,
		logger:   logger,
	}
}

// =============================================================================
// Route Registration
// =============================================================================

// RegisterRoutes registers the contact routes. limit wraps the routes that
// reach the relay.
//
// Routes:
// - POST /contact/field -> Field (one field edit, htmx)
// - POST /contact       -> Submit
// - POST /contact/reset -> Reset ("send another message")
// - POST /api/contact   -> SubmitJSON
func (h *ContactHandler) RegisterRoutes(mux *http.ServeMux, limit func(http.Handler) http.Handler) {
	mux.HandleFunc("POST /contact/field", h.Field)
	mux.Handle("POST /contact", limit(http.HandlerFunc(h.Submit)))
	mux.HandleFunc("POST /contact/reset", h.Reset)
	mux.Handle("POST /api/contact", limit(http.HandlerFunc(h.SubmitJSON)))
}

// =============================================================================
// POST /contact/field - Field Edit
// =============================================================================

// Field stores one edited value and answers with the field's now empty
// error slot. The request names the field in "field" and carries the value
// under the field's own name, which is what htmx posts for an input.
func (h *ContactHandler) Field(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxContactBody)
	if err := r.ParseForm(); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("contact.Field", "Invalid form data"))
		return
	}

	field := r.PostForm.Get("field")
	state, err := h.contact.UpdateField(r.Context(), session.IDFromContext(r.Context()), field, r.PostForm.Get(field))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if !isHTMX(r) {
		http.Redirect(w, r, contactAnchor, http.StatusSeeOther)
		return
	}
	h.renderer.RenderPartial(w, r, http.StatusOK, "field_error", FieldErrorData{
		Field:   field,
		Message: state.Errors[field],
	})
}

// =============================================================================
// POST /contact - Submit
// =============================================================================

// Submit stores the posted fields and submits the form. htmx requests get
// the re-rendered form, plus the blocking alert out of band when the relay
// failed. Plain posts are redirected back to the contact section, where the
// next page render shows the outcome.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := session.IDFromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxContactBody)
	if err := r.ParseForm(); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("contact.Submit", "Invalid form data"))
		return
	}

	if values := postedFields(r.PostForm); len(values) > 0 {
		if _, err := h.contact.UpdateFields(ctx, sid, values); err != nil {
			ErrorResponse(w, r, h.logger, err)
			return
		}
	}

	state, err := h.contact.Submit(ctx, sid)

	if !isHTMX(r) {
		if err != nil && state == nil {
			ErrorResponse(w, r, h.logger, err)
			return
		}
		http.Redirect(w, r, contactAnchor, http.StatusSeeOther)
		return
	}

	h.renderOutcome(w, r, state, err)
}

// renderOutcome renders the form after a submit attempt with a status that
// matches the outcome.
func (h *ContactHandler) renderOutcome(w http.ResponseWriter, r *http.Request, state *domain.FormState, err error) {
	if err == nil {
		h.renderForm(w, r, http.StatusOK, state)
		return
	}
	if state == nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		h.renderForm(w, r, http.StatusUnprocessableEntity, state)
		return
	}

	code := domain.ErrorCode(err)
	status := ErrorCodeToHTTPStatus(code)
	switch code {
	case domain.EREJECTED, domain.EUNAVAILABLE:
		// The alert is delivered now, so it must not show again on the
		// next page load.
		notice, popErr := h.contact.PopNotice(r.Context(), session.IDFromContext(r.Context()))
		if popErr != nil {
			h.logger.Warn("failed to clear pending notice", "error", popErr)
		}
		if notice == nil {
			notice = noticeFor(code, domain.ErrorMessage(err))
		}
		state.Notice = nil
		h.renderForm(w, r, status, state, partials.AlertOOB(alertData(notice)))
	case domain.ECONFLICT:
		h.renderForm(w, r, status, state)
	default:
		ErrorResponse(w, r, h.logger, err)
	}
}

func (h *ContactHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, state *domain.FormState, oob ...templ.Component) {
	h.renderer.RenderPartial(w, r, status, "contact_form", ContactFormData{
		State:     state,
		Services:  h.services,
		CSRFToken: csrf.Token(r.Context()),
	}, oob...)
}

// =============================================================================
// POST /contact/reset - Send Another Message
// =============================================================================

// Reset returns a sent form to the editable state.
func (h *ContactHandler) Reset(w http.ResponseWriter, r *http.Request) {
	state, err := h.contact.ResetAfterSuccess(r.Context(), session.IDFromContext(r.Context()))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if !isHTMX(r) {
		http.Redirect(w, r, contactAnchor, http.StatusSeeOther)
		return
	}
	h.renderForm(w, r, http.StatusOK, state)
}

// =============================================================================
// POST /api/contact - JSON Submit
// =============================================================================

// ContactRequest is the JSON body of POST /api/contact.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Service string `json:"service"`
	Message string `json:"message"`
}

// ContactResponse is the JSON body of a sent submission.
type ContactResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SubmitJSON submits a whole form in one call. Every call is a new message:
// a sent form is reset right away so the client can post again.
func (h *ContactHandler) SubmitJSON(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := session.IDFromContext(ctx)

	var req ContactRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxContactBody))
	if err := dec.Decode(&req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("contact.SubmitJSON", "Invalid JSON body"))
		return
	}

	values := map[string]string{
		domain.FieldName:    req.Name,
		domain.FieldEmail:   req.Email,
		domain.FieldPhone:   req.Phone,
		domain.FieldService: req.Service,
		domain.FieldMessage: req.Message,
	}
	if _, err := h.contact.UpdateFields(ctx, sid, values); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if _, err := h.contact.Submit(ctx, sid); err != nil {
		code := domain.ErrorCode(err)
		if code == domain.EREJECTED || code == domain.EUNAVAILABLE {
			// API clients get the failure in the response, not as an alert.
			if _, popErr := h.contact.PopNotice(ctx, sid); popErr != nil {
				h.logger.Warn("failed to clear pending notice", "error", popErr)
			}
		}
		ValidationErrorResponse(w, r, h.logger, err)
		return
	}

	if _, err := h.contact.ResetAfterSuccess(ctx, sid); err != nil {
		h.logger.Warn("failed to reset sent form", "error", err)
	}
	writeJSON(w, http.StatusOK, ContactResponse{Success: true, Message: SuccessMessage})
}

// =============================================================================
// Helpers
// =============================================================================

// postedFields picks the contact fields out of a form post. Other keys,
// such as the CSRF token, are ignored.
func postedFields(form url.Values) map[string]string {
	values := make(map[string]string)
	for _, field := range domain.ContactFields {
		if v, ok := form[field]; ok && len(v) > 0 {
			values[field] = v[0]
		}
	}
	return values
}

func noticeFor(code, message string) *domain.Notice {
	kind := domain.NoticeRejected
	if code == domain.EUNAVAILABLE {
		kind = domain.NoticeTransport
	}
	return &domain.Notice{Kind: kind, Message: message}
}
