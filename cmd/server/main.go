package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DukeRupert/svelectricals/internal"
	"github.com/DukeRupert/svelectricals/internal/contact"
	"github.com/DukeRupert/svelectricals/internal/csrf"
	"github.com/DukeRupert/svelectricals/internal/domain"
	"github.com/DukeRupert/svelectricals/internal/gallery"
	"github.com/DukeRupert/svelectricals/internal/handler"
	"github.com/DukeRupert/svelectricals/internal/metrics"
	"github.com/DukeRupert/svelectricals/internal/middleware"
	"github.com/DukeRupert/svelectricals/internal/relay"
	"github.com/DukeRupert/svelectricals/internal/relay/mock"
	"github.com/DukeRupert/svelectricals/internal/session"
	"github.com/DukeRupert/svelectricals/internal/storage"
	"github.com/DukeRupert/svelectricals/web"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	isSecure := !cfg.IsDev()

	// Form sessions
	store, closeStore, err := newSessionStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("session store initialization failed: %w", err)
	}
	defer closeStore.Close()
	logger.Info("Session store ready", "store", cfg.SessionStore)

	// Contact relay
	contactRelay := newRelay(cfg, logger)
	logger.Info("Contact relay ready", "provider", contactRelay.Name())

	// Gallery storage
	fileStorage, filesHandler, err := newStorage(cfg, logger)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}

	galleryService := gallery.NewService(domain.GalleryImages, fileStorage, gallery.NewImagingProcessor(), logger)
	if cfg.GalleryWarm {
		go func() {
			warmCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			if err := galleryService.Warm(warmCtx); err != nil {
				logger.Warn("Gallery warm-up incomplete", "error", err)
				return
			}
			logger.Info("Gallery warmed", "images", len(domain.GalleryImages))
		}()
	}

	controller := contact.NewController(store, contactRelay, cfg.RelayTimeout, logger)

	// Initialize template renderer
	renderer, err := handler.NewRenderer(handler.RendererConfig{
		FS:           web.Templates(),
		TemplatesDir: cfg.TemplatesDir,
		Logger:       logger,
		IsDev:        cfg.IsDev(),
	})
	if err != nil {
		return fmt.Errorf("renderer initialization failed: %w", err)
	}
	defer renderer.Close()
	logger.Info("Templates loaded", "count", len(renderer.ListTemplates()))

	// Initialize handlers
	site := domain.DefaultSite()
	siteHandler := handler.NewSiteHandler(site, controller, galleryService, renderer, logger)
	contactHandler := handler.NewContactHandler(controller, site.ServiceOpts, renderer, logger)
	galleryHandler := handler.NewGalleryHandler(galleryService, site.Categories, renderer, logger)

	contactLimiter := middleware.NewRateLimiter(cfg.ContactRateLimit, cfg.ContactRateWindow, logger)
	defer contactLimiter.Close()

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Static files
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(web.Static())))
	if filesHandler != nil {
		mux.Handle("GET /files/", http.StripPrefix("/files/", filesHandler))
	}

	// Metrics endpoint (protected with basic auth if credentials configured)
	if cfg.MetricsUsername != "" && cfg.MetricsPassword != "" {
		metricsAuth := middleware.BasicAuth("Metrics", cfg.MetricsUsername, cfg.MetricsPassword)
		mux.Handle("GET /metrics", metricsAuth(promhttp.Handler()))
		logger.Info("Metrics endpoint enabled with basic auth")
	} else {
		mux.Handle("GET /metrics", promhttp.Handler())
		logger.Warn("Metrics endpoint enabled WITHOUT authentication - set METRICS_USERNAME and METRICS_PASSWORD")
	}

	siteHandler.RegisterRoutes(mux)
	galleryHandler.RegisterRoutes(mux)
	contactHandler.RegisterRoutes(mux, middleware.Limit(contactLimiter, logger))

	securityMw := middleware.NewSecurityHeadersMiddleware(isSecure, imageSources(cfg)...)
	requestLogger := middleware.NewRequestLoggingMiddleware(logger)
	stack := middleware.Stack(
		middleware.Recover(logger),
		requestLogger.Handler,
		metrics.Middleware,
		securityMw.Handler,
		session.Middleware(cfg.SessionTTL, isSecure),
		csrf.Protect(isSecure, logger),
	)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           stack(mux),
		ReadHeaderTimeout: 10 * time.Second,
		// Long enough for a contact submission that waits on the relay.
		WriteTimeout: cfg.RelayTimeout + 15*time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env, "base_url", cfg.BaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown...")
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
		return err
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// newSessionStore returns the configured store and the resource to release
// on shutdown.
func newSessionStore(ctx context.Context, cfg *internal.Config) (session.Store, io.Closer, error) {
	if cfg.SessionStore == "redis" {
		client, err := session.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return session.NewRedisStore(client, cfg.SessionTTL), client, nil
	}
	store := session.NewMemoryStore(cfg.SessionTTL)
	return store, store, nil
}

func newRelay(cfg *internal.Config, logger *slog.Logger) relay.Relay {
	switch cfg.RelayProvider {
	case "smtp":
		return relay.NewSMTP(relay.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
			To:       cfg.ContactTo,
			Subject:  cfg.ContactSubject,
		}, logger)
	case "mock":
		return mock.New(logger)
	default:
		return relay.NewWeb3Forms(relay.Web3FormsConfig{
			URL:       cfg.Web3FormsURL,
			AccessKey: cfg.Web3FormsAccessKey,
			Subject:   cfg.ContactSubject,
			Timeout:   cfg.RelayTimeout,
		}, logger)
	}
}

// newStorage returns the gallery storage and, for local storage, the
// handler serving its files.
func newStorage(cfg *internal.Config, logger *slog.Logger) (storage.Storage, http.Handler, error) {
	if cfg.StorageProvider == "r2" {
		r2, err := storage.NewR2Storage(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
			PresignExpiry:   cfg.R2PresignExpiry,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return r2, nil, nil
	}

	local, err := storage.NewLocalStorage(storage.LocalConfig{
		BasePath: cfg.LocalStoragePath,
		BaseURL:  cfg.LocalStorageURL,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	return local, local.Handler(), nil
}

// imageSources lists the origins gallery images may come from besides the
// fallback CDN.
func imageSources(cfg *internal.Config) []string {
	if cfg.StorageProvider != "r2" {
		return nil
	}
	if cfg.R2PublicURL != "" {
		return []string{cfg.R2PublicURL}
	}
	return []string{fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)}
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
