package media

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"partybot/core/logger"
)

func TestMain(m *testing.M) {
	_ = logger.InitLogger(nil)
	os.Exit(m.Run())
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestNewStoreEmptyDir(t *testing.T) {
	if _, err := NewStore("  "); err == nil {
		t.Fatal("expected error for empty dir")
	}
}

func TestNewStoreCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "posters")
	if _, err := NewStore(dir); err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		t.Fatalf("dir not created: %v", err)
	}
}

func TestSaveRemoveRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	webPath, err := s.Save(ctx, strings.NewReader("jpegbytes"), "jpg")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(webPath, WebPrefix) {
		t.Fatalf("web path = %q, want %q prefix", webPath, WebPrefix)
	}
	if !strings.HasSuffix(webPath, ".jpg") {
		t.Fatalf("web path = %q, want .jpg suffix", webPath)
	}

	abs, ok := s.Abs(webPath)
	if !ok {
		t.Fatalf("Abs(%q) rejected", webPath)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(data) != "jpegbytes" {
		t.Fatalf("stored content = %q", data)
	}

	if err := s.Remove(webPath); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(abs); !os.IsNotExist(err) {
		t.Fatalf("file survived Remove: %v", err)
	}
}

func TestSaveUniqueNames(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		webPath, err := s.Save(ctx, strings.NewReader("x"), "jpg")
		if err != nil {
			t.Fatalf("Save #%d: %v", i, err)
		}
		if seen[webPath] {
			t.Fatalf("duplicate name %q", webPath)
		}
		seen[webPath] = true
	}
}

func TestSaveDefaultsExtension(t *testing.T) {
	s := newTestStore(t)
	webPath, err := s.Save(context.Background(), strings.NewReader("x"), "")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasSuffix(webPath, ".jpg") {
		t.Fatalf("web path = %q, want default .jpg", webPath)
	}
}

func TestSaveCancelledContext(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Save(ctx, strings.NewReader("jpegbytes"), "jpg"); err == nil {
		t.Fatal("expected error from cancelled context")
	}
	entries, err := os.ReadDir(s.Dir())
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("partial file left behind: %v", entries)
	}
}

func TestIsLocal(t *testing.T) {
	s := newTestStore(t)
	cases := []struct {
		ref  string
		want bool
	}{
		{"/posters/poster_1.jpg", true},
		{"/photo/file-abc", false},
		{"file-abc", false},
		{"/posters/", false},
		{"/posters/../secret", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := s.IsLocal(tc.ref); got != tc.want {
			t.Errorf("IsLocal(%q) = %v, want %v", tc.ref, got, tc.want)
		}
	}
}

func TestRemoveRejectsOutsidePaths(t *testing.T) {
	s := newTestStore(t)
	for _, ref := range []string{"/etc/passwd", "/posters/../escape", "poster_1.jpg"} {
		if err := s.Remove(ref); err == nil {
			t.Errorf("Remove(%q) accepted a path outside the store", ref)
		}
	}
}

func TestAbsRejectsTraversal(t *testing.T) {
	s := newTestStore(t)
	if _, ok := s.Abs("/posters/../../etc/passwd"); ok {
		t.Fatal("Abs accepted a traversal path")
	}
}
