package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/fhuszti/skillswap-media-ms/internal/api_context"
	"github.com/fhuszti/skillswap-media-ms/internal/logger"
	"github.com/fhuszti/skillswap-media-ms/internal/metrics"
	"github.com/fhuszti/skillswap-media-ms/internal/port"
	"github.com/fhuszti/skillswap-media-ms/internal/sentinel"
)

type OwnerSource int

const (
	// OwnerFromPrincipal uses the authenticated user as owner.
	OwnerFromPrincipal OwnerSource = iota
	// OwnerFromPath uses the id validated by middleware.WithPathID.
	OwnerFromPath
)

// Binding ties one route to its upload profile.
type Binding struct {
	Profile string
	Owner   OwnerSource
	Status  int
	Message string
}

func UploadHandler(b Binding, pipeline port.UploadPipeline) http.HandlerFunc {
	if b.Status == 0 {
		b.Status = http.StatusOK
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		start := time.Now()
		status := b.Status
		defer func() { metrics.ObserveUpload(b.Profile, status, time.Since(start)) }()

		actor, ok := api_context.AuthUserIDFromContext(ctx)
		if !ok {
			status = http.StatusUnauthorized
			WriteError(w, status, "Authentication required", nil)
			return
		}

		owner := actor
		if b.Owner == OwnerFromPath {
			if owner, ok = api_context.IDFromContext(ctx); !ok {
				status = http.StatusBadRequest
				WriteError(w, status, "ID is required", nil)
				return
			}
		}

		tracker, ok := sentinel.FromContext(ctx)
		if !ok {
			status = http.StatusInternalServerError
			WriteError(w, status, "Upload failed", nil)
			logger.Error(ctx, "❌  upload route mounted without a cleanup sentinel")
			return
		}

		out, err := pipeline.Run(ctx, port.UploadInput{
			Profile:       b.Profile,
			Source:        r,
			ContentLength: r.ContentLength,
			OwnerID:       owner,
			ActorID:       actor,
			Tracker:       tracker,
		})
		if err != nil {
			f := classify(err)
			status = f.status
			WriteErrorDetails(w, f.status, f.msg, f.details, err)
			return
		}

		RespondJSON(w, status, uploadResponse(b.Message, out))
		logger.Infof(ctx, "✅  %s: committed %d asset(s) on %s #%s", b.Profile, len(out.Assets), out.Entity.Collection, out.Entity.ID)
	}
}

// uploadResponse builds {message, <url fields>..., entity}, naming each URL
// field after the last segment of the path it was written to.
func uploadResponse(message string, out *port.UploadOutput) map[string]any {
	body := map[string]any{
		"message": message,
		"entity":  out.Entity.View(),
	}

	p := out.Profile
	if p.IsArray() {
		urls := make([]string, 0, len(out.Assets))
		for _, a := range out.Assets {
			urls = append(urls, a.CanonicalURL)
		}
		body[lastSegment(p.OwnerPath)] = urls
		return body
	}

	if len(out.Assets) == 0 {
		return body
	}
	ref := out.Assets[0]
	body[lastSegment(p.OwnerPath)] = ref.CanonicalURL
	for name, path := range p.VariantPaths {
		body[lastSegment(path)] = ref.VariantURL(name)
	}
	return body
}

func lastSegment(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return path
}
