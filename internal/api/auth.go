package api

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kalambet/lookbook/internal/metrics"
)

// BearerAuth rejects requests whose Authorization header does not carry
// token. Rejections are counted by reason and never echo the presented value.
func BearerAuth(token string) func(http.Handler) http.Handler {
	want := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			switch {
			case !ok || got == "":
				rejectAuth(w, r, "missing")
				return
			case subtle.ConstantTimeCompare([]byte(got), want) != 1:
				rejectAuth(w, r, "mismatch")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rejectAuth(w http.ResponseWriter, r *http.Request, reason string) {
	metrics.AuthFailures.WithLabelValues(reason).Inc()
	slog.Debug("rejected request", "method", r.Method, "path", r.URL.Path, "reason", reason)
	httpError(w, http.StatusUnauthorized, "authentication_error", "invalid or missing bearer token")
}
