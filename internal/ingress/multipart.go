package ingress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/fhuszti/skillswap-media-ms/internal/logger"
	"github.com/fhuszti/skillswap-media-ms/internal/model"
	"github.com/fhuszti/skillswap-media-ms/internal/port"
)

const (
	maxValueBytes = 64 << 10
	maxValues     = 32
	formAllowance = 1 << 20
)

type Ingestor struct {
	store port.ScratchStore
}

// compile-time check: *Ingestor must satisfy port.Ingestor
var _ port.Ingestor = (*Ingestor)(nil)

func New(store port.ScratchStore) *Ingestor {
	return &Ingestor{store: store}
}

// Ingest streams every part of a multipart body. File parts are checked
// against the profile before any byte reaches disk, then written to scratch
// with a hard size cap. On the first violation every file staged by this call
// is released and the rejection is returned.
func (i *Ingestor) Ingest(ctx context.Context, src port.MultipartSource, contentLength int64, profile *model.UploadProfile, tracker port.ScratchTracker) (*port.IngestResult, error) {
	if contentLength > bodyLimit(profile) {
		return nil, &RejectError{Err: ErrTooLarge, Limit: profile.MaxBytes, Reason: "request body exceeds the upload limit"}
	}

	mr, err := src.MultipartReader()
	if err != nil {
		return nil, malformed(err.Error())
	}

	res := &port.IngestResult{Values: map[string]string{}}
	perField := map[string]int{}

	fail := func(err error) (*port.IngestResult, error) {
		for _, f := range res.Files {
			tracker.Release(ctx, f)
		}
		return nil, err
	}

	for {
		if ctx.Err() != nil {
			return fail(malformed("request aborted"))
		}

		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fail(malformed(err.Error()))
		}

		field := part.FormName()
		if part.FileName() == "" {
			if len(res.Values) >= maxValues {
				_ = part.Close()
				return fail(malformed("too many form fields"))
			}
			v, err := readValue(part)
			_ = part.Close()
			if err != nil {
				return fail(err)
			}
			res.Values[field] = v
			continue
		}

		f, err := i.stage(part.FileName(), part.Header.Get("Content-Type"), field, part, profile, perField, len(res.Files), tracker)
		_ = part.Close()
		if f != nil {
			res.Files = append(res.Files, f)
		}
		if err != nil {
			logger.Warnf(ctx, "⚠️  upload rejected for profile %q: %v", profile.Name, err)
			return fail(err)
		}
	}

	if len(res.Files) == 0 {
		return nil, &RejectError{Err: ErrNoFile}
	}
	return res, nil
}

// stage returns the staged file even on failure once scratch was acquired,
// so the caller can release it.
func (i *Ingestor) stage(fileName, contentType, field string, r io.Reader, profile *model.UploadProfile, perField map[string]int, total int, tracker port.ScratchTracker) (*model.StagedFile, error) {
	maxForField, ok := profile.Fields[field]
	if !ok {
		return nil, &RejectError{Err: ErrUnexpectedField, Field: field}
	}
	if perField[field] >= maxForField || total >= profile.MaxCount {
		return nil, &RejectError{Err: ErrTooManyFiles, Field: field, Limit: int64(profile.MaxCount)}
	}

	declared := declaredMime(contentType)
	if !profile.Allows(declared) {
		return nil, &RejectError{Err: ErrDisallowedMime, Field: field, Mime: declared, Allowed: profile.AllowedMime}
	}

	path, fh, err := i.store.Acquire(field, fileName)
	if err != nil {
		return nil, err
	}

	sf := &model.StagedFile{
		TempPath:     path,
		Field:        field,
		DeclaredMime: declared,
		DeclaredName: filepath.Base(fileName),
		Profile:      profile,
		State:        model.StateReceived,
	}
	tracker.Track(sf)

	n, copyErr := io.Copy(fh, io.LimitReader(r, profile.MaxBytes+1))
	closeErr := fh.Close()

	switch {
	case copyErr != nil:
		return sf, malformed(copyErr.Error())
	case n > profile.MaxBytes:
		return sf, &RejectError{Err: ErrTooLarge, Field: field, Limit: profile.MaxBytes}
	case closeErr != nil:
		return sf, fmt.Errorf("could not flush scratch file: %w", closeErr)
	case n == 0:
		return sf, &RejectError{Err: ErrMalformed, Field: field, Reason: "empty file"}
	}

	perField[field]++
	sf.SizeBytes = n
	sf.State = model.StateValidated
	return sf, nil
}

func readValue(r io.Reader) (string, error) {
	b, err := io.ReadAll(io.LimitReader(r, maxValueBytes+1))
	if err != nil {
		return "", malformed(err.Error())
	}
	if len(b) > maxValueBytes {
		return "", malformed("form field too large")
	}
	return string(b), nil
}

func declaredMime(contentType string) string {
	if contentType == "" {
		return "application/octet-stream"
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

func bodyLimit(p *model.UploadProfile) int64 {
	return p.MaxBytes*int64(p.MaxCount) + formAllowance
}
