package middleware

import (
	"crypto/subtle"
	"net/http"
)

// BasicAuth guards a handler such as /metrics with HTTP basic auth. When
// both username and password are empty the guard is disabled, which is how
// scrapes on a private network are configured.
func BasicAuth(realm, username, password string) func(http.Handler) http.Handler {
	enabled := username != "" || password != ""
	challenge := `Basic realm="` + realm + `"`

	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			// Compare both halves every time so timing does not reveal which failed.
			userOK := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
			passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1
			if !ok || !userOK || !passOK {
				w.Header().Set("WWW-Authenticate", challenge)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
