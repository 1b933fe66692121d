package handler

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/a-h/templ"
	"github.com/fsnotify/fsnotify"
)

// Renderer manages template parsing and rendering.
//
// Templates are organized as:
//   - layouts/public.html - the page layout, defining "public"
//   - components/**/*.html - page sections, shared by pages and partials
//   - partials/*.html - fragments for htmx responses; each file defines a
//     template named after the file
//   - pages/public/*.html - pages rendered inside the layout
type Renderer struct {
	templates map[string]*template.Template
	logger    *slog.Logger
	mu        sync.RWMutex

	fsys    fs.FS
	watcher *fsnotify.Watcher
	dirty   atomic.Bool
	// reloadAlways is set in development when file watching is unavailable.
	reloadAlways bool
}

// RendererConfig holds configuration for the renderer.
type RendererConfig struct {
	// FS holds the templates in production.
	FS fs.FS
	// TemplatesDir is read from disk instead of FS in development, and
	// watched so edits show up without a restart.
	TemplatesDir string
	Logger       *slog.Logger
	IsDev        bool
}

// NewRenderer creates a new template renderer.
func NewRenderer(cfg RendererConfig) (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template),
		logger:    cfg.Logger,
		fsys:      cfg.FS,
	}

	if cfg.IsDev && cfg.TemplatesDir != "" {
		r.fsys = os.DirFS(cfg.TemplatesDir)
		if err := r.watch(cfg.TemplatesDir); err != nil {
			r.logger.Warn("template watcher unavailable, reloading on every render", "error", err)
			r.reloadAlways = true
		}
	}
	if r.fsys == nil {
		return nil, fmt.Errorf("renderer: no template filesystem configured")
	}

	if err := r.Reload(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// watch marks the templates dirty whenever a file under dir changes.
func (r *Renderer) watch(dir string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(p)
		}
		return nil
	})
	if err != nil {
		w.Close()
		return err
	}

	r.watcher = w
	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
					r.dirty.Store(true)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				r.logger.Warn("template watcher error", "error", err)
			}
		}
	}()
	return nil
}

// Close stops the development file watcher, if any.
func (r *Renderer) Close() error {
	if r.watcher != nil {
		return r.watcher.Close()
	}
	return nil
}

func (r *Renderer) loadTemplates() (map[string]*template.Template, error) {
	templates := make(map[string]*template.Template)

	// Components are shared by every page and partial, from all subdirs.
	var componentFiles []string
	err := fs.WalkDir(r.fsys, "components", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(p, ".html") {
			componentFiles = append(componentFiles, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk components dir: %w", err)
	}

	partialFiles, err := fs.Glob(r.fsys, "partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to glob partials: %w", err)
	}

	// Partials may include each other and components, so they share one set.
	partialSet := template.New("partials").Funcs(TemplateFuncs())
	if files := append(append([]string{}, partialFiles...), componentFiles...); len(files) > 0 {
		partialSet, err = partialSet.ParseFS(r.fsys, files...)
		if err != nil {
			return nil, fmt.Errorf("failed to parse partials: %w", err)
		}
	}
	for _, partial := range partialFiles {
		templates["partial/"+baseName(partial)] = partialSet
	}

	publicBaseTmpl, err := template.New("public").Funcs(TemplateFuncs()).ParseFS(r.fsys, "layouts/public.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse public layout: %w", err)
	}
	if files := append(append([]string{}, componentFiles...), partialFiles...); len(files) > 0 {
		publicBaseTmpl, err = publicBaseTmpl.ParseFS(r.fsys, files...)
		if err != nil {
			return nil, fmt.Errorf("failed to parse components into public layout: %w", err)
		}
	}

	publicPages, err := fs.Glob(r.fsys, "pages/public/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to glob public pages: %w", err)
	}
	for _, page := range publicPages {
		pageTmpl, err := publicBaseTmpl.Clone()
		if err != nil {
			return nil, fmt.Errorf("failed to clone public template for %s: %w", page, err)
		}
		pageTmpl, err = pageTmpl.ParseFS(r.fsys, page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse public page %s: %w", page, err)
		}
		// Stored as "public/home".
		templates["public/"+baseName(page)] = pageTmpl
	}

	return templates, nil
}

func baseName(p string) string {
	name := path.Base(p)
	return strings.TrimSuffix(name, path.Ext(name))
}

// Reload re-parses every template from the configured filesystem.
func (r *Renderer) Reload() error {
	templates, err := r.loadTemplates()
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.templates = templates
	r.mu.Unlock()

	r.logger.Debug("templates loaded", "count", len(templates))
	return nil
}

// refresh reloads templates that changed on disk since the last render.
func (r *Renderer) refresh() error {
	if r.reloadAlways || r.dirty.Swap(false) {
		if err := r.Reload(); err != nil {
			return fmt.Errorf("template reload failed: %w", err)
		}
	}
	return nil
}

func (r *Renderer) lookup(name string) (*template.Template, error) {
	if err := r.refresh(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	tmpl, ok := r.templates[name]
	if !ok {
		return nil, fmt.Errorf("template %q not found", name)
	}
	return tmpl, nil
}

// Render renders a template to an io.Writer.
func (r *Renderer) Render(w io.Writer, name string, data interface{}) error {
	tmpl, err := r.lookup(name)
	if err != nil {
		return err
	}
	return tmpl.ExecuteTemplate(w, r.getBaseTemplateName(name), data)
}

// RenderHTTP renders a page with the given status. Components in oob are
// appended after the page, for htmx out-of-band swaps.
func (r *Renderer) RenderHTTP(w http.ResponseWriter, req *http.Request, status int, name string, data interface{}, oob ...templ.Component) {
	r.render(w, req.Context(), status, name, data, oob)
}

// RenderPartial renders a partial template (for htmx responses).
// The partial file should contain {{define "name"}}...{{end}} where name matches the file name.
func (r *Renderer) RenderPartial(w http.ResponseWriter, req *http.Request, status int, name string, data interface{}, oob ...templ.Component) {
	r.render(w, req.Context(), status, "partial/"+name, data, oob)
}

func (r *Renderer) render(w http.ResponseWriter, ctx context.Context, status int, name string, data interface{}, oob []templ.Component) {
	// Render to buffer first to catch errors before writing headers
	var buf bytes.Buffer
	if err := r.Render(&buf, name, data); err != nil {
		r.logger.Error("template execution failed", "name", name, "error", err)
		http.Error(w, "Template execution failed", http.StatusInternalServerError)
		return
	}
	for _, c := range oob {
		if err := c.Render(ctx, &buf); err != nil {
			r.logger.Error("component render failed", "name", name, "error", err)
			http.Error(w, "Template execution failed", http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// getBaseTemplateName determines which template to execute.
func (r *Renderer) getBaseTemplateName(name string) string {
	switch {
	case strings.HasPrefix(name, "public/"):
		return "public"
	case strings.HasPrefix(name, "partial/"):
		return strings.TrimPrefix(name, "partial/")
	default:
		return name
	}
}

// ListTemplates returns a list of all loaded template names.
func (r *Renderer) ListTemplates() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	return names
}
