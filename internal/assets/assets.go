// Package assets resolves document-relative paths against directory roots
// and zip packs, caching the bytes it reads.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/objscene/internal/logger"
	"github.com/Faultbox/objscene/pkg/pak"
)

// Fetch errors.
var (
	ErrNotFound    = errors.New("file not found")
	ErrEscapesRoot = errors.New("path escapes asset root")
)

// source is one place files are looked up in.
type source interface {
	read(name string) ([]byte, error)
	close() error
	String() string
}

type dirSource struct {
	root string
}

func (d *dirSource) read(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(d.root, filepath.FromSlash(name)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

func (d *dirSource) close() error   { return nil }
func (d *dirSource) String() string { return d.root }

type packSource struct {
	path    string
	archive *pak.Archive
}

func (p *packSource) read(name string) ([]byte, error) {
	data, err := p.archive.Read(name)
	if errors.Is(err, pak.ErrNotFound) {
		return nil, ErrNotFound
	}
	return data, err
}

func (p *packSource) close() error   { return p.archive.Close() }
func (p *packSource) String() string { return p.path }

// Manager reads files from directory roots and packs.
// Sources are searched in reverse order (last added = highest priority).
// It is safe for concurrent use.
type Manager struct {
	sources []source
	cache   *Cache
	mu      sync.RWMutex
}

// NewManager creates a new asset manager with no sources.
func NewManager() *Manager {
	return &Manager{
		cache: NewCache(),
	}
}

// AddRoot adds a directory root.
func (m *Manager) AddRoot(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("adding root %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("adding root %s: not a directory", dir)
	}

	m.mu.Lock()
	m.sources = append(m.sources, &dirSource{root: dir})
	m.mu.Unlock()
	return nil
}

// AddPack opens a zip pack and adds it. nameEncoding decodes entry names
// not flagged as UTF-8; empty means UTF-8.
func (m *Manager) AddPack(packPath, nameEncoding string) error {
	archive, err := pak.OpenEncoded(packPath, nameEncoding)
	if err != nil {
		return fmt.Errorf("opening pack %s: %w", packPath, err)
	}

	m.mu.Lock()
	m.sources = append(m.sources, &packSource{path: packPath, archive: archive})
	m.mu.Unlock()
	return nil
}

// Fetch returns the contents of a slash-separated relative path.
func (m *Manager) Fetch(ctx context.Context, name string) ([]byte, error) {
	key, err := cleanPath(name)
	if err != nil {
		return nil, err
	}
	if data, ok := m.cache.Get(key); ok {
		return data, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.sources) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := m.sources[i].read(key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s from %s: %w", key, m.sources[i], err)
		}
		logger.Debug("asset read", zap.String("path", key), zap.Stringer("source", m.sources[i]))
		m.cache.Set(key, data)
		return data, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Sources returns the configured roots and packs in search order.
func (m *Manager) Sources() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.sources))
	for i := len(m.sources) - 1; i >= 0; i-- {
		out = append(out, m.sources[i].String())
	}
	return out
}

// Cache returns the manager's byte cache.
func (m *Manager) Cache() *Cache {
	return m.cache
}

// Close closes all packs and clears the cache.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.sources {
		s.close()
	}
	m.sources = nil
	m.cache.Clear()
}

// cleanPath normalizes a relative path and rejects paths leaving the root.
func cleanPath(name string) (string, error) {
	p := path.Clean(strings.ReplaceAll(name, "\\", "/"))
	p = strings.TrimPrefix(p, "/")
	if p == "." || p == "" || p == ".." || strings.HasPrefix(p, "../") {
		return "", fmt.Errorf("%w: %s", ErrEscapesRoot, name)
	}
	return p, nil
}

// Cache is a simple in-memory cache for loaded files.
type Cache struct {
	data map[string][]byte
	mu   sync.Mutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
