package middleware

import (
	"context"
	"fmt"
	"net/http"
	"regexp"

	"github.com/fhuszti/skillswap-media-ms/internal/api_context"
	"github.com/fhuszti/skillswap-media-ms/internal/handler/api"
	"github.com/go-chi/chi/v5"
)

var entityIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// WithPathID validates the entity id in the named route parameter and stores it in the context.
func WithPathID(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, param)
			if id == "" {
				api.WriteError(w, http.StatusBadRequest, "ID is required", nil)
				return
			}
			if !entityIDPattern.MatchString(id) {
				api.WriteError(w, http.StatusBadRequest, fmt.Sprintf("ID %q is not valid", id), nil)
				return
			}

			// stash it in context and call the real handler
			ctx := context.WithValue(r.Context(), api_context.IDKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
