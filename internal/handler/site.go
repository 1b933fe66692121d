// Package handler contains HTTP handlers for the company website.
package handler

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/a-h/templ"

	"github.com/DukeRupert/svelectricals/internal/contact"
	"github.com/DukeRupert/svelectricals/internal/csrf"
	"github.com/DukeRupert/svelectricals/internal/domain"
	"github.com/DukeRupert/svelectricals/internal/gallery"
	"github.com/DukeRupert/svelectricals/internal/session"
	"github.com/DukeRupert/svelectricals/internal/templ/partials"
)

// =============================================================================
// Dependencies
// =============================================================================

// TemplateRenderer defines the interface for rendering templates.
type TemplateRenderer interface {
	RenderHTTP(w http.ResponseWriter, req *http.Request, status int, name string, data interface{}, oob ...templ.Component)
	RenderPartial(w http.ResponseWriter, req *http.Request, status int, name string, data interface{}, oob ...templ.Component)
}

// ContactController is the contact form state machine.
type ContactController interface {
	State(ctx context.Context, sessionID string) (*domain.FormState, error)
	PopNotice(ctx context.Context, sessionID string) (*domain.Notice, error)
	UpdateField(ctx context.Context, sessionID, field, value string) (*domain.FormState, error)
	UpdateFields(ctx context.Context, sessionID string, values map[string]string) (*domain.FormState, error)
	Submit(ctx context.Context, sessionID string) (*domain.FormState, error)
	ResetAfterSuccess(ctx context.Context, sessionID string) (*domain.FormState, error)
}

// GalleryService resolves gallery photos.
type GalleryService interface {
	Photos(ctx context.Context, category string) []gallery.Photo
	Lightbox(ctx context.Context, category string, index int) (gallery.LightboxView, error)
}

var (
	_ ContactController = (*contact.Controller)(nil)
	_ GalleryService    = (*gallery.Service)(nil)
)

// =============================================================================
// Template Data Types
// =============================================================================

// ContactFormData is the data for the contact_form partial.
type ContactFormData struct {
	State     *domain.FormState
	Services  []string
	CSRFToken string
}

// FieldErrorData is the data for the field_error partial.
type FieldErrorData struct {
	Field   string
	Message string
}

// GalleryData is the data for the gallery_grid partial.
type GalleryData struct {
	Category   string
	Categories []string
	Photos     []gallery.Photo
}

// HomePageData contains data for the home page.
type HomePageData struct {
	Site      domain.Site
	Contact   ContactFormData
	Gallery   GalleryData
	Lightbox  *gallery.LightboxView // open when the visitor followed a photo link without htmx
	Alert     template.HTML         // pending blocking alert, if any
	CSRFToken string
}

// =============================================================================
// Handler Configuration
// =============================================================================

// SiteHandler serves the home page.
type SiteHandler struct {
	site     domain.Site
	contact  ContactController
	gallery  GalleryService
	renderer TemplateRenderer
	logger   *slog.Logger
}

// NewSiteHandler creates a new SiteHandler.
func NewSiteHandler(
	site domain.Site,
	contact ContactController,
	gallery GalleryService,
	renderer TemplateRenderer,
	logger *slog.Logger,
) *SiteHandler {
	return &SiteHandler{
		site:     site,
		contact:  contact,
		gallery:  gallery,
		renderer: renderer,
		logger:   logger,
	}
}

// RegisterRoutes registers the page routes.
//
// Routes:
// - GET /       -> Home
// - GET /health -> Health
func (h *SiteHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", h.Home)
	mux.HandleFunc("GET /health", Health)
}

// =============================================================================
// GET / - Home Page
// =============================================================================

// Home renders the whole site. The gallery filter and lightbox can be
// driven by ?category= and ?photo= so everything works without htmx.
// A blocking alert left by a failed plain form post is shown once.
func (h *SiteHandler) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		NotFoundResponse(w, r, h.logger)
		return
	}

	ctx := r.Context()
	sid := session.IDFromContext(ctx)

	state, err := h.contact.State(ctx, sid)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var notice *domain.Notice
	if state.Notice != nil {
		notice, err = h.contact.PopNotice(ctx, sid)
		if err != nil {
			// The page is still useful without the alert.
			h.logger.Warn("failed to clear pending notice", "error", err)
		}
	}

	category := domain.NormalizeCategory(r.URL.Query().Get("category"))
	token := csrf.Token(ctx)

	data := HomePageData{
		Site: h.site,
		Contact: ContactFormData{
			State:     state,
			Services:  h.site.ServiceOpts,
			CSRFToken: token,
		},
		Gallery: GalleryData{
			Category:   category,
			Categories: h.site.Categories,
			Photos:     h.gallery.Photos(ctx, category),
		},
		CSRFToken: token,
	}

	if p := r.URL.Query().Get("photo"); p != "" {
		if idx, err := strconv.Atoi(p); err == nil {
			if lb, err := h.gallery.Lightbox(ctx, category, idx); err == nil {
				data.Lightbox = &lb
			}
		}
	}

	if notice != nil {
		alert, err := templ.ToGoHTML(ctx, partials.Alert(alertData(notice)))
		if err != nil {
			h.logger.Error("failed to render alert", "error", err)
		}
		data.Alert = alert
	}

	h.renderer.RenderHTTP(w, r, http.StatusOK, "public/home", data)
}

// Health reports that the process is serving.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func alertData(n *domain.Notice) partials.AlertData {
	kind := partials.AlertRejected
	if n.Kind == domain.NoticeTransport {
		kind = partials.AlertTransport
	}
	return partials.AlertData{Kind: kind, Message: n.Message}
}
