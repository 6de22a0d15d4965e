package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/fhuszti/skillswap-media-ms/internal/assets"
	"github.com/fhuszti/skillswap-media-ms/internal/ingress"
	"github.com/fhuszti/skillswap-media-ms/internal/policy"
	"github.com/fhuszti/skillswap-media-ms/internal/usecase/upload"
)

type failure struct {
	status  int
	msg     string
	details any
}

// classify maps a pipeline error to the response the client sees.
func classify(err error) failure {
	var rej *ingress.RejectError
	if errors.As(err, &rej) {
		return rejection(rej)
	}

	var form *upload.FormError
	if errors.As(err, &form) {
		return failure{http.StatusBadRequest, "Invalid form fields", form.Fields}
	}

	switch {
	case errors.Is(err, assets.ErrInvalidContent):
		return failure{http.StatusBadRequest, "File upload error", err.Error()}
	case errors.Is(err, assets.ErrAssetServiceUnavailable):
		return failure{status: http.StatusBadGateway, msg: "Media service unavailable, please retry"}
	case errors.Is(err, upload.ErrOwnerNotFound):
		return failure{status: http.StatusNotFound, msg: "Owner not found"}
	case errors.Is(err, upload.ErrConcurrentModification):
		return failure{status: http.StatusConflict, msg: "Entity was modified concurrently, please retry"}
	case errors.Is(err, upload.ErrStoreUnavailable):
		return failure{status: http.StatusServiceUnavailable, msg: "Document store unavailable"}
	case errors.Is(err, policy.ErrUnknownProfile):
		return failure{status: http.StatusInternalServerError, msg: "Upload is not configured"}
	default:
		return failure{status: http.StatusInternalServerError, msg: "Upload failed"}
	}
}

func rejection(rej *ingress.RejectError) failure {
	switch {
	case errors.Is(rej, ingress.ErrDisallowedMime):
		return failure{status: http.StatusBadRequest, msg: "Invalid file type. Allowed types: " + strings.Join(rej.Allowed, ", ")}
	case errors.Is(rej, ingress.ErrTooLarge):
		return failure{http.StatusBadRequest, "File too large", fmt.Sprintf("Maximum file size is %dMB", megabytes(rej.Limit))}
	case errors.Is(rej, ingress.ErrTooManyFiles):
		return failure{http.StatusBadRequest, "Too many files", fmt.Sprintf("Maximum %d files allowed", rej.Limit)}
	case errors.Is(rej, ingress.ErrUnexpectedField):
		return failure{status: http.StatusBadRequest, msg: "Unexpected file field"}
	case errors.Is(rej, ingress.ErrNoFile):
		return failure{status: http.StatusBadRequest, msg: "No file uploaded"}
	default:
		f := failure{status: http.StatusBadRequest, msg: "File upload error"}
		if rej.Reason != "" {
			f.details = rej.Reason
		}
		return f
	}
}

// megabytes rounds up so a limit is never reported smaller than it is.
func megabytes(n int64) int64 {
	const mb = 1 << 20
	return (n + mb - 1) / mb
}
