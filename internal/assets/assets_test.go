package assets

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func writeZip(t *testing.T, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pack.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		w.Write([]byte(content))
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()
	return path
}

func TestManagerFetch(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "models", "cube.obj"), "from root")
	writeFile(t, filepath.Join(root, "only-root.mtl"), "root only")
	pack := writeZip(t, map[string]string{"models/cube.obj": "from pack"})

	m := NewManager()
	defer m.Close()
	if err := m.AddRoot(root); err != nil {
		t.Fatalf("AddRoot: %v", err)
	}
	if err := m.AddPack(pack, ""); err != nil {
		t.Fatalf("AddPack: %v", err)
	}

	tests := []struct {
		path string
		want string
	}{
		{"models/cube.obj", "from pack"},
		{`models\cube.obj`, "from pack"},
		{"models/../only-root.mtl", "root only"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			data, err := m.Fetch(context.Background(), tt.path)
			if err != nil {
				t.Fatalf("Fetch: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("got %q, want %q", data, tt.want)
			}
		})
	}

	if got := m.Sources(); len(got) != 2 || got[0] != pack {
		t.Errorf("Sources() = %v, want pack first", got)
	}
}

func TestManagerFetchErrors(t *testing.T) {
	m := NewManager()
	defer m.Close()
	if err := m.AddRoot(t.TempDir()); err != nil {
		t.Fatal(err)
	}

	if _, err := m.Fetch(context.Background(), "missing.png"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	for _, p := range []string{"../secret", "a/../../secret", ""} {
		if _, err := m.Fetch(context.Background(), p); !errors.Is(err, ErrEscapesRoot) {
			t.Errorf("Fetch(%q): expected ErrEscapesRoot, got %v", p, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Fetch(ctx, "missing.png"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestManagerCache(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.obj"), "v 0 0 0")

	m := NewManager()
	defer m.Close()
	m.AddRoot(root)

	for i := 0; i < 3; i++ {
		if _, err := m.Fetch(context.Background(), "a.obj"); err != nil {
			t.Fatalf("Fetch: %v", err)
		}
	}

	hits, misses := m.Cache().Stats()
	if hits != 2 || misses != 1 {
		t.Errorf("stats = %d hits, %d misses; want 2, 1", hits, misses)
	}
	if m.Cache().Len() != 1 {
		t.Errorf("cache len = %d", m.Cache().Len())
	}

	// cached bytes survive removal of the file
	os.Remove(filepath.Join(root, "a.obj"))
	if _, err := m.Fetch(context.Background(), "./a.obj"); err != nil {
		t.Errorf("expected cached read, got %v", err)
	}
}

func TestManagerAddErrors(t *testing.T) {
	m := NewManager()
	defer m.Close()

	if err := m.AddRoot(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing root")
	}
	file := filepath.Join(t.TempDir(), "file.txt")
	writeFile(t, file, "x")
	if err := m.AddRoot(file); err == nil {
		t.Error("expected error for file root")
	}
	if err := m.AddPack(file, ""); err == nil {
		t.Error("expected error for invalid pack")
	}
}

func TestCacheClear(t *testing.T) {
	c := NewCache()
	c.Set("a", []byte("1"))
	c.Get("a")
	c.Get("b")
	c.Clear()

	hits, misses := c.Stats()
	if hits != 0 || misses != 0 || c.Len() != 0 {
		t.Errorf("cache not cleared: %d %d %d", hits, misses, c.Len())
	}
}
