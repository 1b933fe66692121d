// Package gallery resolves the project photos shown in the gallery grid and
// lightbox, generating thumbnails for photos kept in storage.
package gallery

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/DukeRupert/svelectricals/internal/domain"
	"github.com/DukeRupert/svelectricals/internal/metrics"
	"github.com/DukeRupert/svelectricals/internal/storage"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Thumbnail resolution results used as the metrics label.
const (
	resultCached    = "cached"
	resultGenerated = "generated"
	resultFallback  = "fallback"
	resultFailed    = "failed"
)

// DefaultCacheTTL keeps resolved URLs shorter than presigned URL expiry.
const DefaultCacheTTL = 30 * time.Minute

// warmConcurrency caps parallel thumbnail generation at startup.
const warmConcurrency = 4

// Photo is a gallery image with the URLs a browser should load.
type Photo struct {
	domain.GalleryImage
	FullURL  string
	ThumbURL string
}

// LightboxView is an open lightbox with its neighbours resolved.
type LightboxView struct {
	Category string
	Index    int
	Count    int
	Photo    Photo
	Prev     int
	Next     int
}

type cacheEntry struct {
	photo     Photo
	expiresAt time.Time
}

// Service resolves gallery photos. Safe for concurrent use.
type Service struct {
	images    []domain.GalleryImage
	store     storage.Storage // nil serves fallback URLs only
	processor ThumbnailProcessor
	cacheTTL  time.Duration
	logger    *slog.Logger

	group singleflight.Group
	mu    sync.RWMutex
	cache map[string]cacheEntry
	now   func() time.Time
}

// NewService creates a gallery over images. store may be nil.
func NewService(images []domain.GalleryImage, store storage.Storage, processor ThumbnailProcessor, logger *slog.Logger) *Service {
	if processor == nil {
		processor = NewImagingProcessor()
	}
	return &Service{
		images:    images,
		store:     store,
		processor: processor,
		cacheTTL:  DefaultCacheTTL,
		logger:    logger,
		cache:     make(map[string]cacheEntry),
		now:       time.Now,
	}
}

// Photos returns the resolved photos of category in catalogue order.
func (s *Service) Photos(ctx context.Context, category string) []Photo {
	images := domain.FilterGallery(s.images, category)
	photos := make([]Photo, len(images))
	for i, img := range images {
		photos[i] = s.Resolve(ctx, img)
	}
	return photos
}

// Lightbox opens the lightbox at index within category.
func (s *Service) Lightbox(ctx context.Context, category string, index int) (LightboxView, error) {
	category = domain.NormalizeCategory(category)
	lb, err := domain.OpenLightbox(domain.FilterGallery(s.images, category), index)
	if err != nil {
		return LightboxView{}, err
	}
	return LightboxView{
		Category: category,
		Index:    lb.Index,
		Count:    len(lb.Images),
		Photo:    s.Resolve(ctx, lb.Current()),
		Prev:     lb.PrevIndex(),
		Next:     lb.NextIndex(),
	}, nil
}

// Resolve returns the URLs for img. Photos missing from storage use their
// fallback URL; a failed thumbnail falls back to the full photo. Concurrent
// calls for the same image share one resolution.
func (s *Service) Resolve(ctx context.Context, img domain.GalleryImage) Photo {
	if p, ok := s.cached(img.Slug); ok {
		metrics.Thumbnail(resultCached)
		return p
	}

	// The flight is shared, so one caller going away must not cut it short
	// for the others.
	flightCtx := context.WithoutCancel(ctx)
	v, _, _ := s.group.Do(img.Slug, func() (interface{}, error) {
		p, cache := s.resolve(flightCtx, img)
		if cache {
			s.mu.Lock()
			s.cache[img.Slug] = cacheEntry{photo: p, expiresAt: s.now().Add(s.cacheTTL)}
			s.mu.Unlock()
		}
		return p, nil
	})
	return v.(Photo)
}

func (s *Service) cached(slug string) (Photo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.cache[slug]
	if !ok || s.now().After(e.expiresAt) {
		return Photo{}, false
	}
	return e.photo, true
}

// resolve does the storage work. The bool reports whether the result is
// stable enough to cache.
func (s *Service) resolve(ctx context.Context, img domain.GalleryImage) (Photo, bool) {
	fallback := Photo{GalleryImage: img, FullURL: img.FallbackURL, ThumbURL: img.FallbackURL}
	if s.store == nil {
		metrics.Thumbnail(resultFallback)
		return fallback, true
	}

	ok, err := s.store.Exists(ctx, img.StorageKey())
	if err != nil {
		s.logger.Warn("gallery storage lookup failed", "image", img.Slug, "error", err)
		metrics.Thumbnail(resultFailed)
		return fallback, false
	}
	if !ok {
		metrics.Thumbnail(resultFallback)
		return fallback, true
	}

	full, err := s.store.URL(ctx, img.StorageKey())
	if err != nil {
		s.logger.Warn("gallery url failed", "image", img.Slug, "error", err)
		metrics.Thumbnail(resultFailed)
		return fallback, false
	}
	photo := Photo{GalleryImage: img, FullURL: full, ThumbURL: full}

	if err := s.ensureThumbnail(ctx, img); err != nil {
		s.logger.Error("thumbnail generation failed", "image", img.Slug, "error", err)
		metrics.Thumbnail(resultFailed)
		return photo, false
	}

	thumb, err := s.store.URL(ctx, img.ThumbnailKey())
	if err != nil {
		metrics.Thumbnail(resultFailed)
		return photo, false
	}
	photo.ThumbURL = thumb
	return photo, true
}

// ensureThumbnail generates the thumbnail unless it is already stored.
func (s *Service) ensureThumbnail(ctx context.Context, img domain.GalleryImage) error {
	ok, err := s.store.Exists(ctx, img.ThumbnailKey())
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	rc, _, err := s.store.Get(ctx, img.StorageKey())
	if err != nil {
		return err
	}
	defer rc.Close()

	data, err := s.processor.Thumbnail(rc, ThumbnailMaxSize)
	if err != nil {
		return err
	}

	if err := s.store.Put(ctx, img.ThumbnailKey(), bytes.NewReader(data), storage.PutOptions{
		ContentType:  "image/jpeg",
		CacheControl: storage.ThumbnailCacheControl,
	}); err != nil {
		return err
	}

	metrics.Thumbnail(resultGenerated)
	s.logger.Info("generated gallery thumbnail", "image", img.Slug, "bytes", len(data))
	return nil
}

// Warm resolves every image so the first visitor does not pay for
// thumbnail generation. Individual failures are logged, not returned.
func (s *Service) Warm(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(warmConcurrency)

	for _, img := range s.images {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.Resolve(ctx, img)
			return nil
		})
	}
	return g.Wait()
}
