package policy

import (
	"errors"
	"fmt"
	"sort"

	"github.com/fhuszti/skillswap-media-ms/internal/model"
	"github.com/fhuszti/skillswap-media-ms/internal/validation"
)

var ErrUnknownProfile = errors.New("unknown upload profile")

// Registry maps profile names to immutable upload profiles.
type Registry struct {
	profiles map[string]model.UploadProfile
}

func New(profiles ...model.UploadProfile) (*Registry, error) {
	r := &Registry{profiles: make(map[string]model.UploadProfile, len(profiles))}
	for _, p := range profiles {
		if err := validation.ValidateStruct(p); err != nil {
			return nil, fmt.Errorf("invalid profile %q: %w", p.Name, err)
		}
		if p.Mode == model.CommitCreate && p.AuthorField == "" {
			return nil, fmt.Errorf("invalid profile %q: create mode requires an author field", p.Name)
		}
		if p.ParentField != "" && p.ParentCollection == "" {
			return nil, fmt.Errorf("invalid profile %q: parent field without parent collection", p.Name)
		}
		total := 0
		for _, n := range p.Fields {
			total += n
		}
		if total < p.MaxCount {
			return nil, fmt.Errorf("invalid profile %q: fields accept %d files, max count is %d", p.Name, total, p.MaxCount)
		}
		if _, dup := r.profiles[p.Name]; dup {
			return nil, fmt.Errorf("duplicate profile %q", p.Name)
		}
		r.profiles[p.Name] = p
	}
	return r, nil
}

// Resolve returns a copy so callers can never alter the registered policy.
func (r *Registry) Resolve(name string) (*model.UploadProfile, error) {
	p, ok := r.profiles[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	return clone(p), nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.profiles))
	for n := range r.profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Buckets lists the distinct buckets used by profiles of the given provider.
func (r *Registry) Buckets(provider string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, p := range r.profiles {
		if p.Provider != provider {
			continue
		}
		if _, ok := seen[p.Bucket]; ok {
			continue
		}
		seen[p.Bucket] = struct{}{}
		out = append(out, p.Bucket)
	}
	sort.Strings(out)
	return out
}

// RequireProviders fails when a registered profile relies on a provider that is not available.
func (r *Registry) RequireProviders(available map[string]bool) error {
	for _, name := range r.Names() {
		p := r.profiles[name]
		if !available[p.Provider] {
			return fmt.Errorf("profile %q requires asset provider %q, which is not configured", p.Name, p.Provider)
		}
	}
	return nil
}

func clone(p model.UploadProfile) *model.UploadProfile {
	c := p
	c.AllowedMime = append([]string(nil), p.AllowedMime...)
	c.Transform = append(model.Recipe(nil), p.Transform...)
	c.Fields = copyMap(p.Fields)
	c.VariantPaths = copyMap(p.VariantPaths)
	c.FormFields = copyMap(p.FormFields)
	return &c
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return nil
	}
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
