package collection

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	ioutils "github.com/handiism/fuo/internal/io"
	"github.com/handiism/fuo/internal/model"
	"github.com/handiism/fuo/internal/signal"
	"github.com/handiism/fuo/internal/uri"
)

var (
	// ErrCollectionNotFound is returned for names the manager does not know.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrCollectionExists is returned by Create when the file already exists.
	ErrCollectionExists = errors.New("collection already exists")
	// ErrSystemCollection is returned when deleting library or pool.
	ErrSystemCollection = errors.New("system collection cannot be deleted")
)

// Manager owns the collections of one directory.
//
// Scan makes sure the system collections exist: library.fuo is seeded with
// the union of every other collection the first time it is created, and
// pool.fuo starts empty. Listings always put library first, pool second and
// the rest by name.
//
// Example:
//
//	mgr := collection.NewManager(dir, resolver, logger)
//	if err := mgr.Scan(); err != nil {
//		return err
//	}
//	lib, _ := mgr.Get(collection.LibraryFile)
//	lib.Add(song)
type Manager struct {
	dir      string
	resolver *uri.Resolver
	logger   *slog.Logger
	now      func() time.Time

	mu    sync.RWMutex
	items map[string]*Collection

	// Changed carries the name of a collection that was created, modified
	// or deleted.
	Changed signal.Signal[string]
}

// NewManager returns a Manager for dir. Call Scan before use.
func NewManager(dir string, resolver *uri.Resolver, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		dir:      dir,
		resolver: resolver,
		logger:   logger,
		now:      time.Now,
		items:    map[string]*Collection{},
	}
}

func (m *Manager) Dir() string { return m.dir }

func (m *Manager) opts() []Option {
	return []Option{WithLogger(m.logger), WithClock(m.now)}
}

// Scan (re)loads every .fuo file in the directory and creates the system
// collections when they are missing.
func (m *Manager) Scan() error {
	if err := ioutils.EnsureDir(m.dir); err != nil {
		return err
	}
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return fmt.Errorf("scan collections: %w", err)
	}

	items := map[string]*Collection{}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != Extension {
			continue
		}
		c, err := Open(filepath.Join(m.dir, e.Name()), m.resolver, m.opts()...)
		if err != nil {
			m.logger.Warn("skip collection", "file", e.Name(), "err", err)
			continue
		}
		items[e.Name()] = c
	}

	if _, ok := items[LibraryFile]; !ok {
		c, err := m.seedLibrary(items)
		if err != nil {
			return err
		}
		items[LibraryFile] = c
	}
	if _, ok := items[PoolFile]; !ok {
		path := filepath.Join(m.dir, PoolFile)
		if err := ioutils.WriteFileAtomic(path, nil, 0o644); err != nil {
			return fmt.Errorf("create pool: %w", err)
		}
		c, err := Open(path, m.resolver, m.opts()...)
		if err != nil {
			return err
		}
		items[PoolFile] = c
	}

	m.mu.Lock()
	m.items = items
	m.mu.Unlock()
	return nil
}

func (m *Manager) seedLibrary(others map[string]*Collection) (*Collection, error) {
	names := make([]string, 0, len(others))
	for name := range others {
		names = append(names, name)
	}
	sort.Strings(names)

	doc := &document{meta: map[string]any{
		"title":   "Library",
		"updated": m.now().Format(TimeLayout),
	}, eol: true}
	seen := map[model.Key]struct{}{}
	for _, name := range names {
		for _, md := range others[name].models {
			if _, dup := seen[md.Key()]; dup {
				continue
			}
			seen[md.Key()] = struct{}{}
			doc.body = append(doc.body, uri.Reverse(md, true))
		}
	}
	data, err := doc.encode()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(m.dir, LibraryFile)
	if err := ioutils.WriteFileAtomic(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("create library: %w", err)
	}
	m.logger.Info("library initialised", "models", len(doc.body))
	return Open(path, m.resolver, m.opts()...)
}

// List returns the collections, system ones first.
func (m *Manager) List() []*Collection {
	m.mu.RLock()
	out := make([]*Collection, 0, len(m.items))
	for _, c := range m.items {
		out = append(out, c)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		ki, kj := out[i].Kind(), out[j].Kind()
		if ki.IsSystem() || kj.IsSystem() {
			if ki == kj {
				return false
			}
			// library (1) before pool (2) before ordinary (0)
			return ki != KindOrdinary && (kj == KindOrdinary || ki < kj)
		}
		return out[i].Name() < out[j].Name()
	})
	return out
}

// Get returns a collection by file name, with or without extension.
func (m *Manager) Get(name string) (*Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.items[fileName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	return c, nil
}

// Library returns library.fuo.
func (m *Manager) Library() *Collection {
	c, _ := m.Get(LibraryFile)
	return c
}

// Pool returns pool.fuo.
func (m *Manager) Pool() *Collection {
	c, _ := m.Get(PoolFile)
	return c
}

// Create makes a new collection titled title. The file name is derived
// from the title.
func (m *Manager) Create(title string) (*Collection, error) {
	base := ioutils.SanitizeFileName(title)
	if base == "" {
		return nil, fmt.Errorf("invalid collection title %q", title)
	}
	path := filepath.Join(m.dir, base+Extension)
	if ioutils.Exists(path) {
		return nil, fmt.Errorf("%w: %s", ErrCollectionExists, base)
	}
	doc := &document{meta: map[string]any{
		"title":   title,
		"updated": m.now().Format(TimeLayout),
	}, eol: true}
	data, err := doc.encode()
	if err != nil {
		return nil, err
	}
	if err := ioutils.WriteFileAtomic(path, data, 0o644); err != nil {
		return nil, err
	}
	c, err := Open(path, m.resolver, m.opts()...)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.items[filepath.Base(path)] = c
	m.mu.Unlock()
	m.Changed.Emit(c.Name())
	return c, nil
}

// Delete removes a user collection and its file.
func (m *Manager) Delete(name string) error {
	c, err := m.Get(name)
	if err != nil {
		return err
	}
	if c.Kind().IsSystem() {
		return fmt.Errorf("%w: %s", ErrSystemCollection, c.Name())
	}
	if err := os.Remove(c.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	m.mu.Lock()
	delete(m.items, filepath.Base(c.Path()))
	m.mu.Unlock()
	m.Changed.Emit(c.Name())
	return nil
}

// Add adds md to the named collection and notifies Changed.
func (m *Manager) Add(name string, md model.Model) (bool, error) {
	c, err := m.Get(name)
	if err != nil {
		return false, err
	}
	ok, err := c.Add(md)
	if ok {
		m.Changed.Emit(c.Name())
	}
	return ok, err
}

// Remove removes md from the named collection and notifies Changed.
func (m *Manager) Remove(name string, md model.Model) (bool, error) {
	c, err := m.Get(name)
	if err != nil {
		return false, err
	}
	ok, err := c.Remove(md)
	if ok {
		m.Changed.Emit(c.Name())
	}
	return ok, err
}

func fileName(name string) string {
	if strings.HasSuffix(name, Extension) {
		return name
	}
	return name + Extension
}
