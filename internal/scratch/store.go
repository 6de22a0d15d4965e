package scratch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var (
	ErrScratchCollision = errors.New("scratch path already exists")
	ErrOutsideRoot      = errors.New("path is outside the scratch root")
)

const maxExtLen = 10

// Store hands out unique, request-scoped temporary files under one root directory.
type Store struct {
	root string
	seq  atomic.Uint64
	now  func() time.Time
	rand func() string
}

// New resolves root against the working directory, so staged paths stay valid after a chdir.
func New(root string) *Store {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &Store{
		root: filepath.Clean(root),
		now:  time.Now,
		rand: func() string { return strings.ReplaceAll(uuid.NewString(), "-", "")[:12] },
	}
}

func (s *Store) Root() string {
	return s.root
}

// EnsureRoot creates the scratch directory if needed.
func (s *Store) EnsureRoot() error {
	if err := os.MkdirAll(s.root, 0o750); err != nil {
		return fmt.Errorf("could not create scratch root %q: %w", s.root, err)
	}
	return nil
}

// Acquire creates a new empty file named <field>-<timestamp>-<rand>.<ext>.
// The caller owns the returned handle and must close it.
func (s *Store) Acquire(field, declaredName string) (string, *os.File, error) {
	name := fmt.Sprintf("%s-%d-%s%s%s",
		sanitizeField(field),
		s.now().UnixMilli(),
		strconv.FormatUint(s.seq.Add(1), 36),
		s.rand(),
		extension(declaredName),
	)
	path := filepath.Join(s.root, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return "", nil, fmt.Errorf("%w: %s", ErrScratchCollision, path)
	}
	if err != nil {
		return "", nil, fmt.Errorf("could not create scratch file: %w", err)
	}
	return path, f, nil
}

// Release removes a scratch file. Releasing a missing path is not an error.
func (s *Store) Release(path string) error {
	if !s.owns(path) {
		return fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	err := os.Remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("could not remove scratch file %q: %w", path, err)
}

func (s *Store) owns(path string) bool {
	rel, err := filepath.Rel(s.root, filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != "." && !strings.HasPrefix(rel, "..") && !strings.ContainsRune(rel, filepath.Separator)
}

func sanitizeField(field string) string {
	var b strings.Builder
	for _, r := range field {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
		if b.Len() >= 32 {
			break
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}

func extension(declaredName string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(declaredName), "."))
	var b strings.Builder
	for _, r := range ext {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 || b.Len() > maxExtLen {
		return ".bin"
	}
	return "." + b.String()
}
