package sentinel

import (
	"context"
	"sync"

	"github.com/fhuszti/skillswap-media-ms/internal/logger"
	"github.com/fhuszti/skillswap-media-ms/internal/metrics"
	"github.com/fhuszti/skillswap-media-ms/internal/model"
)

// Releaser removes a scratch path; releasing a missing path must succeed.
type Releaser interface {
	Release(path string) error
}

// Sentinel tracks every scratch file acquired during one request and
// guarantees each is released exactly once.
type Sentinel struct {
	mu       sync.Mutex
	store    Releaser
	files    []*model.StagedFile
	released map[string]bool
}

func New(store Releaser) *Sentinel {
	return &Sentinel{store: store, released: map[string]bool{}}
}

// Track registers a file at acquisition time, before any bytes are written.
func (s *Sentinel) Track(f *model.StagedFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = append(s.files, f)
	metrics.ScratchFilesInFlight.Inc()
}

// Release frees one file early. A second release of the same file is logged and ignored.
func (s *Sentinel) Release(ctx context.Context, f *model.StagedFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released[f.TempPath] {
		logger.Warnf(ctx, "⚠️  scratch file %q released more than once", f.TempPath)
		return
	}
	s.releaseLocked(ctx, f)
}

// ReleaseAll frees everything not released yet. Safe to call more than once.
func (s *Sentinel) ReleaseAll(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.files {
		if !s.released[f.TempPath] {
			s.releaseLocked(ctx, f)
		}
	}
}

// Counts returns how many files were tracked and how many were released.
func (s *Sentinel) Counts() (acquired, released int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files), len(s.released)
}

func (s *Sentinel) releaseLocked(ctx context.Context, f *model.StagedFile) {
	if err := s.store.Release(f.TempPath); err != nil {
		// keep it unreleased so a later ReleaseAll retries
		logger.Errorf(ctx, "❌  could not release scratch file %q: %v", f.TempPath, err)
		return
	}
	s.released[f.TempPath] = true
	f.State = model.StateReleased
	metrics.ScratchFilesInFlight.Dec()
	logger.Debugf(ctx, "released scratch file %q", f.TempPath)
}

type ctxKey struct{}

// NewContext attaches the request's sentinel to ctx.
func NewContext(ctx context.Context, s *Sentinel) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (*Sentinel, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Sentinel)
	return s, ok && s != nil
}
