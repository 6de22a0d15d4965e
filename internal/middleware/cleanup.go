package middleware

import (
	"context"
	"net/http"

	"github.com/fhuszti/skillswap-media-ms/internal/sentinel"
)

// WithCleanupSentinel gives every request its own sentinel and releases
// whatever it still tracks once the handler returns or panics.
func WithCleanupSentinel(store sentinel.Releaser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := sentinel.New(store)
			defer s.ReleaseAll(context.WithoutCancel(r.Context()))

			next.ServeHTTP(w, r.WithContext(sentinel.NewContext(r.Context(), s)))
		})
	}
}
