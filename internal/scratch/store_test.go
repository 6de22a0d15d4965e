package scratch

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), "uploads"))
	if err := s.EnsureRoot(); err != nil {
		t.Fatalf("EnsureRoot: %v", err)
	}
	return s
}

func TestEnsureRoot_Idempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.EnsureRoot(); err != nil {
		t.Fatalf("second EnsureRoot: %v", err)
	}
	info, err := os.Stat(s.Root())
	if err != nil || !info.IsDir() {
		t.Fatalf("root is not a directory: %v", err)
	}
}

func TestNew_RelativeRootBecomesAbsolute(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	s := New("uploads")
	if !filepath.IsAbs(s.Root()) {
		t.Fatalf("root %q is not absolute", s.Root())
	}
	if err := s.EnsureRoot(); err != nil {
		t.Fatalf("EnsureRoot: %v", err)
	}

	path, f, err := s.Acquire("avatar", "me.png")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	_ = f.Close()
	if !filepath.IsAbs(path) {
		t.Errorf("acquired path %q is not absolute", path)
	}

	// the path must keep working once the process leaves the directory
	t.Chdir(t.TempDir())
	if _, err := os.Stat(path); err != nil {
		t.Errorf("acquired path unusable after chdir: %v", err)
	}
	if err := s.Release(path); err != nil {
		t.Errorf("Release: %v", err)
	}
}

func TestAcquire_NamingAndSanitising(t *testing.T) {
	s := newTestStore(t)

	tests := []struct {
		field, declared string
		pattern         string
	}{
		{"avatar", "me.PNG", `^avatar-\d+-[0-9a-z]+\.png$`},
		{"images", "holiday.tar.gz", `^images-\d+-[0-9a-z]+\.gz$`},
		{"../../etc", "passwd", `^etc-\d+-[0-9a-z]+\.bin$`},
		{"", "x.verylongextension", `^file-\d+-[0-9a-z]+\.bin$`},
	}

	for _, tc := range tests {
		path, f, err := s.Acquire(tc.field, tc.declared)
		if err != nil {
			t.Fatalf("Acquire(%q,%q): %v", tc.field, tc.declared, err)
		}
		_ = f.Close()

		if filepath.Dir(path) != s.Root() {
			t.Errorf("path %q escaped root %q", path, s.Root())
		}
		if !regexp.MustCompile(tc.pattern).MatchString(filepath.Base(path)) {
			t.Errorf("name %q does not match %s", filepath.Base(path), tc.pattern)
		}
	}
}

func TestAcquire_Collision(t *testing.T) {
	s := newTestStore(t)
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }
	s.rand = func() string { return "fixed" }

	path, f, err := s.Acquire("avatar", "a.png")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	_ = f.Close()

	// rewind the counter so the next name repeats
	s.seq.Store(0)
	_, _, err = s.Acquire("avatar", "a.png")
	if !errors.Is(err, ErrScratchCollision) {
		t.Fatalf("err = %v; want ErrScratchCollision", err)
	}
	if _, statErr := os.Stat(path); statErr != nil {
		t.Errorf("original file must survive the collision: %v", statErr)
	}
}

func TestAcquire_ConcurrentUnique(t *testing.T) {
	s := newTestStore(t)
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }

	const n = 64
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		paths = map[string]struct{}{}
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, f, err := s.Acquire("images", "x.jpg")
			if err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			_ = f.Close()
			mu.Lock()
			paths[p] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(paths) != n {
		t.Fatalf("got %d unique paths; want %d", len(paths), n)
	}
}

func TestRelease_Idempotent(t *testing.T) {
	s := newTestStore(t)
	path, f, err := s.Acquire("avatar", "a.png")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	_ = f.Close()

	if err := s.Release(path); err != nil {
		t.Fatalf("first Release: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("file still present after release: %v", err)
	}
	if err := s.Release(path); err != nil {
		t.Fatalf("second Release must be a no-op, got %v", err)
	}
}

func TestRelease_RefusesOutsideRoot(t *testing.T) {
	s := newTestStore(t)
	outside := filepath.Join(t.TempDir(), "keep.txt")
	if err := os.WriteFile(outside, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	for _, p := range []string{outside, s.Root(), filepath.Join(s.Root(), "..", "keep.txt")} {
		if err := s.Release(p); !errors.Is(err, ErrOutsideRoot) {
			t.Errorf("Release(%q) err = %v; want ErrOutsideRoot", p, err)
		}
	}
	if _, err := os.Stat(outside); err != nil {
		t.Errorf("file outside root was touched: %v", err)
	}
}
