package upload

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrOwnerNotFound          = errors.New("owner not found")
	ErrConcurrentModification = errors.New("owner was modified concurrently")
	ErrStoreUnavailable       = errors.New("document store unavailable")
	ErrInvalidForm            = errors.New("invalid form fields")
)

// FormError lists the form fields that failed validation and the rule each broke.
type FormError struct {
	Fields map[string]string
}

func (e *FormError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for n := range e.Fields {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", n, e.Fields[n]))
	}
	return ErrInvalidForm.Error() + ": " + strings.Join(parts, ", ")
}

func (e *FormError) Unwrap() error { return ErrInvalidForm }
