package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		p := filepath.Join(root, f)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func collect(t *testing.T, s *Scanner) []string {
	t.Helper()
	out, done := s.Stream(context.Background(), 2)
	var got []string
	for c := range out {
		rel, err := filepath.Rel(s.Root(), c.Path)
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, filepath.ToSlash(rel))
	}
	if err := <-done; err != nil {
		t.Fatalf("walk error: %v", err)
	}
	sort.Strings(got)
	return got
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestScannerFiltersCandidates(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeTree(t, root,
		"a.png", "b.JPG", "c.jpeg", "notes.txt", ".hidden.png",
		"sub/d.webp", "sub/deeper/e.png", ".git/f.png",
	)

	tests := []struct {
		name      string
		recursive bool
		hidden    bool
		want      []string
	}{
		{"recursive", true, true, []string{"a.png", "b.JPG", "c.jpeg", "sub/d.webp", "sub/deeper/e.png"}},
		{"flat", false, true, []string{"a.png", "b.JPG", "c.jpeg"}},
		{"include hidden", true, false, []string{".git/f.png", ".hidden.png", "a.png", "b.JPG", "c.jpeg", "sub/d.webp", "sub/deeper/e.png"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(Config{Root: root, Recursive: tt.recursive, SkipHidden: tt.hidden})
			got := collect(t, s)
			if !equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if s.Discovered() != int64(len(tt.want)) {
				t.Errorf("Discovered() = %d, want %d", s.Discovered(), len(tt.want))
			}
		})
	}
}

func TestScannerSymlinks(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	outside := t.TempDir()
	writeTree(t, root, "a.png")
	writeTree(t, outside, "real.png", "dir/inner.png")

	if err := os.Symlink(filepath.Join(outside, "real.png"), filepath.Join(root, "link.png")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.Symlink(filepath.Join(outside, "missing.png"), filepath.Join(root, "broken.png")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(outside, "dir"), filepath.Join(root, "dirlink")); err != nil {
		t.Fatal(err)
	}

	s := New(Config{Root: root, Recursive: true, SkipHidden: true})
	got := collect(t, s)
	want := []string{"a.png", "link.png"}
	if !equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if s.Unreadable() != 1 {
		t.Errorf("Unreadable() = %d, want 1 (broken link)", s.Unreadable())
	}
}

func TestScannerUnreadableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	t.Parallel()
	root := t.TempDir()
	writeTree(t, root, "a.png", "locked/b.png")
	locked := filepath.Join(root, "locked")
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	s := New(Config{Root: root, Recursive: true, SkipHidden: true})
	got := collect(t, s)
	if !equal(got, []string{"a.png"}) {
		t.Errorf("got %v", got)
	}
	if s.Unreadable() != 1 {
		t.Errorf("Unreadable() = %d, want 1", s.Unreadable())
	}
}

func TestScannerStreamsBeforeWalkCompletes(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeTree(t, root, "a.png", "b.png", "c.png", "d.png")

	s := New(Config{Root: root, Recursive: true})
	out := make(chan Candidate)
	errc := make(chan error, 1)
	go func() { errc <- s.Run(context.Background(), out) }()

	// an unbuffered channel means the walk cannot be done before the first receive
	first := <-out
	if first.Path == "" || first.Info == nil {
		t.Fatalf("bad candidate %+v", first)
	}
	for i := 0; i < 3; i++ {
		<-out
	}
	if err := <-errc; err != nil {
		t.Fatal(err)
	}
}

func TestDiscoveredNeverTrailsReceived(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeTree(t, root, "a.png", "b.png", "c.png", "d.png")

	s := New(Config{Root: root, Recursive: true})
	out := make(chan Candidate)
	errc := make(chan error, 1)
	go func() { errc <- s.Run(context.Background(), out) }()

	for received := int64(1); received <= 4; received++ {
		<-out
		if got := s.Discovered(); got < received {
			t.Fatalf("Discovered() = %d after %d candidates received", got, received)
		}
	}
	if err := <-errc; err != nil {
		t.Fatal(err)
	}
	if s.Discovered() != 4 {
		t.Errorf("Discovered() = %d, want 4", s.Discovered())
	}
}

func TestScannerCancel(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeTree(t, root, "a.png", "b.png", "c.png")

	ctx, cancel := context.WithCancel(context.Background())
	s := New(Config{Root: root, Recursive: true})
	out := make(chan Candidate)
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx, out) }()

	<-out
	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}
	if s.Discovered() != 1 {
		t.Errorf("Discovered() = %d, want 1", s.Discovered())
	}
}

func TestValidateRoot(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	file := filepath.Join(dir, "a.png")
	writeTree(t, dir, "a.png")

	if _, err := ValidateRoot(dir); err != nil {
		t.Errorf("ValidateRoot(dir) = %v", err)
	}
	if _, err := ValidateRoot(file); !errors.Is(err, ErrNotDirectory) {
		t.Errorf("ValidateRoot(file) = %v, want ErrNotDirectory", err)
	}
	if _, err := ValidateRoot(""); !errors.Is(err, ErrNotDirectory) {
		t.Errorf("ValidateRoot(\"\") = %v, want ErrNotDirectory", err)
	}
	if _, err := ValidateRoot(filepath.Join(dir, "missing")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ValidateRoot(missing) = %v, want not-exist", err)
	}
}

func TestScannerRootMissing(t *testing.T) {
	t.Parallel()
	s := New(Config{Root: filepath.Join(t.TempDir(), "gone"), Recursive: true})
	out := make(chan Candidate, 1)
	if err := s.Run(context.Background(), out); err == nil {
		t.Error("expected error for missing root")
	}
}
