package assets

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/fhuszti/skillswap-media-ms/internal/logger"
	"github.com/fhuszti/skillswap-media-ms/internal/metrics"
	"github.com/fhuszti/skillswap-media-ms/internal/model"
	"github.com/fhuszti/skillswap-media-ms/internal/port"
	"github.com/sony/gobreaker"
)

// Provider stores staged files with one backend.
type Provider interface {
	Name() string
	Upload(ctx context.Context, f *model.StagedFile) (*model.AssetRef, error)
	Destroy(ctx context.Context, ref model.AssetRef) error
}

type Options struct {
	Timeout time.Duration

	BreakerFailureRate float64
	BreakerMinRequests uint32
	BreakerTimeout     time.Duration
}

type Service struct {
	providers map[string]Provider
	breakers  map[string]*gobreaker.CircuitBreaker
	timeout   time.Duration
}

// compile-time check: *Service must satisfy port.AssetService
var _ port.AssetService = (*Service)(nil)

func NewService(opts Options, providers ...Provider) *Service {
	s := &Service{
		providers: make(map[string]Provider, len(providers)),
		breakers:  make(map[string]*gobreaker.CircuitBreaker, len(providers)),
		timeout:   opts.Timeout,
	}
	for _, p := range providers {
		s.providers[p.Name()] = p
		s.breakers[p.Name()] = newBreaker(p.Name(), opts)
	}
	return s
}

func newBreaker(name string, opts Options) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "assets-" + name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < opts.BreakerMinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= opts.BreakerFailureRate
		},
		// a caller that went away or a corrupt file says nothing about the provider's health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrInvalidContent)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warnf(context.Background(), "⚠️  circuit breaker %s: %s -> %s", name, from, to)
		},
	})
}

// Providers lists the configured provider names.
func (s *Service) Providers() map[string]bool {
	out := make(map[string]bool, len(s.providers))
	for name := range s.providers {
		out[name] = true
	}
	return out
}

func (s *Service) ProviderNames() []string {
	names := make([]string, 0, len(s.providers))
	for name := range s.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Upload hands the staged file to the profile's provider and applies the variant fallback.
func (s *Service) Upload(ctx context.Context, f *model.StagedFile) (*model.AssetRef, error) {
	name := f.Profile.Provider
	p, ok := s.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %w %q", ErrAssetServiceUnavailable, ErrUnknownProvider, name)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.breakers[name].Execute(func() (interface{}, error) {
		return p.Upload(ctx, f)
	})
	if errors.Is(err, ErrInvalidContent) {
		logger.Infof(ctx, "%s rejected %q: %v", name, f.DeclaredName, err)
		return nil, err
	}
	if err != nil {
		metrics.AssetProviderFailures.WithLabelValues(name).Inc()
		logger.Warnf(ctx, "⚠️  %s upload of %q failed: %v", name, f.DeclaredName, err)
		return nil, fmt.Errorf("%w: %v", ErrAssetServiceUnavailable, err)
	}

	ref := res.(*model.AssetRef)
	ref.Provider = name
	fillVariants(ref, f.Profile.VariantNames())
	f.State = model.StateUploaded
	return ref, nil
}

// Delete removes a stored asset. Failures are logged and swallowed.
func (s *Service) Delete(ctx context.Context, ref model.AssetRef) {
	if err := s.Destroy(ctx, ref); err != nil {
		logger.Warnf(ctx, "⚠️  could not delete asset %s/%s: %v", ref.Provider, ref.ProviderID, err)
	}
}

// Destroy is Delete with the error surfaced, for callers that retry.
func (s *Service) Destroy(ctx context.Context, ref model.AssetRef) error {
	p, ok := s.providers[ref.Provider]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownProvider, ref.Provider)
	}
	if ref.ProviderID == "" {
		return nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.breakers[ref.Provider].Execute(func() (interface{}, error) {
		return nil, p.Destroy(ctx, ref)
	})
	if err != nil {
		metrics.AssetProviderFailures.WithLabelValues(ref.Provider).Inc()
		return fmt.Errorf("%w: %v", ErrAssetServiceUnavailable, err)
	}
	return nil
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func fillVariants(ref *model.AssetRef, names []string) {
	if len(names) == 0 {
		return
	}
	if ref.Variants == nil {
		ref.Variants = make(map[string]string, len(names))
	}
	for _, n := range names {
		if ref.Variants[n] == "" {
			ref.Variants[n] = ref.CanonicalURL
		}
	}
}
