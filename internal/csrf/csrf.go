// Package csrf protects the contact form posts with the double-submit
// cookie pattern: a random token lives in a cookie and must be echoed back
// in the form body or the X-CSRF-Token header. Cross-origin pages can make
// the browser send the cookie but cannot read it to echo it.
package csrf

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"log/slog"
	"net/http"
)

// =============================================================================
// Configuration Constants
// =============================================================================

const (
	// CookieName is the name of the CSRF token cookie.
	CookieName = "csrf_token"

	// FormFieldName is the hidden input carrying the token in plain posts.
	FormFieldName = "csrf_token"

	// HeaderName carries the token for htmx and JSON requests.
	HeaderName = "X-CSRF-Token"

	// TokenLength is the number of random bytes for the token (256 bits).
	TokenLength = 32

	// CookieMaxAge matches a long browsing session on the single page.
	CookieMaxAge = 12 * 60 * 60
)

// =============================================================================
// Tokens
// =============================================================================

// GenerateToken returns 32 random bytes, base64 URL-encoded.
func GenerateToken() (string, error) {
	b := make([]byte, TokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ValidateToken compares the two tokens in constant time.
func ValidateToken(cookieToken, submitted string) bool {
	if cookieToken == "" || submitted == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookieToken), []byte(submitted)) == 1
}

// ValidateRequest checks the submitted token against the cookie. The header
// is preferred; the form field is read otherwise.
func ValidateRequest(r *http.Request) bool {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return false
	}
	submitted := r.Header.Get(HeaderName)
	if submitted == "" {
		submitted = r.FormValue(FormFieldName)
	}
	return ValidateToken(cookie.Value, submitted)
}

// SetCookie sets the token cookie. It is not HttpOnly so htmx can copy it
// into the request header.
func SetCookie(w http.ResponseWriter, token string, isSecure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   CookieMaxAge,
		HttpOnly: false,
		Secure:   isSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

// =============================================================================
// Context
// =============================================================================

type contextKey struct{}

// Token returns the token for the current request, for rendering into
// forms and the htmx header config.
func Token(ctx context.Context) string {
	t, _ := ctx.Value(contextKey{}).(string)
	return t
}

// =============================================================================
// Middleware
// =============================================================================

// Protect makes sure every visitor has a token and rejects unsafe requests
// whose token does not match with 403.
func Protect(isSecure bool, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
				token = c.Value
			}

			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				if token == "" {
					t, err := GenerateToken()
					if err != nil {
						logger.Error("failed to generate csrf token", "error", err)
						http.Error(w, "Internal Server Error", http.StatusInternalServerError)
						return
					}
					token = t
					SetCookie(w, token, isSecure)
				}
			default:
				if !ValidateRequest(r) {
					logger.Warn("csrf token mismatch",
						"method", r.Method,
						"path", r.URL.Path,
						"remote_addr", r.RemoteAddr,
					)
					http.Error(w, "Forbidden - invalid or missing security token, reload the page and try again", http.StatusForbidden)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, token)))
		})
	}
}
