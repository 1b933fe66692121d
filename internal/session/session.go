// Package session keeps each visitor's contact form state on the server,
// keyed by an opaque id carried in a cookie.
package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/DukeRupert/svelectricals/internal/domain"
	"github.com/google/uuid"
)

const (
	// CookieName is the name of the cookie that stores the session id.
	CookieName = "svw_session"

	// CookiePath ensures the cookie is sent with all requests.
	CookiePath = "/"

	// DefaultTTL is how long an idle form session is kept.
	DefaultTTL = 24 * time.Hour
)

// Store backends accepted in configuration.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

var (
	// ErrLocked is returned by TryLock when another submit holds the lock.
	ErrLocked = errors.New("session locked")
)

// UpdateFunc mutates a form state in place. Returning an error aborts the
// update and nothing is written.
type UpdateFunc func(state *domain.FormState) error

// Store persists form states. All methods are safe for concurrent use.
//
// Get on an unknown id returns a fresh, empty state rather than an error.
type Store interface {
	Get(ctx context.Context, id string) (*domain.FormState, error)
	// Update applies fn atomically and returns the stored result.
	Update(ctx context.Context, id string, fn UpdateFunc) (*domain.FormState, error)
	Delete(ctx context.Context, id string) error
	// TryLock takes the submit lock for id, held at most ttl, and returns
	// the holder's token. It returns ErrLocked when the lock is already held.
	TryLock(ctx context.Context, id string, ttl time.Duration) (string, error)
	// Unlock releases the lock only while token still owns it. Releasing an
	// expired lock that someone else has since taken is a no-op.
	Unlock(ctx context.Context, id, token string) error
}

// NewID returns a fresh random session id.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like one issued by NewID.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

// =============================================================================
// Context
// =============================================================================

type contextKey struct{}

// WithID returns a copy of ctx carrying the session id.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IDFromContext returns the session id set by the middleware.
func IDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

// =============================================================================
// Middleware
// =============================================================================

// Middleware makes sure every request carries a session id, issuing the
// cookie on first visit or when the presented value is malformed.
func Middleware(ttl time.Duration, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if c, err := r.Cookie(CookieName); err == nil && ValidID(c.Value) {
				id = c.Value
			} else {
				id = NewID()
				http.SetCookie(w, &http.Cookie{
					Name:     CookieName,
					Value:    id,
					Path:     CookiePath,
					MaxAge:   int(ttl.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
		})
	}
}
