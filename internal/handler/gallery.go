package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/DukeRupert/svelectricals/internal/domain"
)

// GalleryHandler serves the gallery fragments.
type GalleryHandler struct {
	gallery    GalleryService
	categories []string
	renderer   TemplateRenderer
	logger     *slog.Logger
}

// NewGalleryHandler creates a new GalleryHandler.
func NewGalleryHandler(gallery GalleryService, categories []string, renderer TemplateRenderer, logger *slog.Logger) *GalleryHandler {
	return &GalleryHandler{
		gallery:    gallery,
		categories: categories,
		renderer:   renderer,
		logger:     logger,
	}
}

// RegisterRoutes registers the gallery routes.
//
// Routes:
// - GET /gallery          -> Grid
// - GET /gallery/lightbox -> Lightbox
func (h *GalleryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /gallery", h.Grid)
	mux.HandleFunc("GET /gallery/lightbox", h.Lightbox)
}

// Grid renders the filter buttons and photos of ?category=. Unknown
// categories show everything. Without htmx the visitor is sent to the
// same view on the home page.
func (h *GalleryHandler) Grid(w http.ResponseWriter, r *http.Request) {
	category := domain.NormalizeCategory(r.URL.Query().Get("category"))

	if !isHTMX(r) {
		http.Redirect(w, r, homeURL(category, nil), http.StatusSeeOther)
		return
	}

	h.renderer.RenderPartial(w, r, http.StatusOK, "gallery_grid", GalleryData{
		Category:   category,
		Categories: h.categories,
		Photos:     h.gallery.Photos(r.Context(), category),
	})
}

// Lightbox renders photo ?index= of the ?category= list with wrap-around
// previous and next links.
func (h *GalleryHandler) Lightbox(w http.ResponseWriter, r *http.Request) {
	category := domain.NormalizeCategory(r.URL.Query().Get("category"))

	index, err := strconv.Atoi(r.URL.Query().Get("index"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("gallery.Lightbox", "Invalid photo index"))
		return
	}

	view, err := h.gallery.Lightbox(r.Context(), category, index)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if !isHTMX(r) {
		http.Redirect(w, r, homeURL(category, &index), http.StatusSeeOther)
		return
	}
	h.renderer.RenderPartial(w, r, http.StatusOK, "lightbox", view)
}

// homeURL links to the gallery section of the home page.
func homeURL(category string, photo *int) string {
	q := url.Values{}
	if category != domain.CategoryAll {
		q.Set("category", category)
	}
	if photo != nil {
		q.Set("photo", strconv.Itoa(*photo))
	}
	if len(q) == 0 {
		return "/#gallery"
	}
	return "/?" + q.Encode() + "#gallery"
}
