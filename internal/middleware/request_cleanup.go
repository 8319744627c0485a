package middleware

import (
	"io"
	"net/http"
)

// DefaultMaxBodyBytes covers the largest admin payload, a full KDBWEB tree
// with its HTML content.
const DefaultMaxBodyBytes = 4 << 20

// LimitAndDrainRequest caps the request body at maxBodyBytes (0 means no cap)
// and, after the handler returns, drains and closes whatever is left unread.
func LimitAndDrainRequest(maxBodyBytes int64) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && maxBodyBytes > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
			}

			next.ServeHTTP(w, r)

			if r.Body != nil {
				_, _ = io.Copy(io.Discard, r.Body)
				_ = r.Body.Close()
			}
		})
	}
}
