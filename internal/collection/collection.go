package collection

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	ioutils "github.com/handiism/fuo/internal/io"
	"github.com/handiism/fuo/internal/model"
	"github.com/handiism/fuo/internal/uri"
)

const (
	// Extension is the file extension of collection files.
	Extension = ".fuo"
	// LibraryFile is the user's canonical library.
	LibraryFile = "library" + Extension
	// PoolFile is the transient pool.
	PoolFile = "pool" + Extension

	fence = "+++"
	// TimeLayout is the format of the updated front-matter key.
	TimeLayout = "2006-01-02T15:04:05"
)

// ErrInvalidFrontMatter is returned when the fenced header is not valid TOML
// or is never closed.
var ErrInvalidFrontMatter = errors.New("invalid front matter")

// Kind tells system collections apart from user ones.
type Kind int

const (
	KindOrdinary Kind = iota
	KindLibrary
	KindPool
)

func (k Kind) String() string {
	switch k {
	case KindLibrary:
		return "library"
	case KindPool:
		return "pool"
	}
	return "ordinary"
}

// IsSystem reports whether the kind is one of the reserved collections.
func (k Kind) IsSystem() bool { return k != KindOrdinary }

func kindOf(path string) Kind {
	switch filepath.Base(path) {
	case LibraryFile:
		return KindLibrary
	case PoolFile:
		return KindPool
	}
	return KindOrdinary
}

// Option configures a Collection.
type Option func(*Collection)

// WithLogger sets the logger used for skipped lines.
func WithLogger(l *slog.Logger) Option {
	return func(c *Collection) { c.logger = l }
}

// WithClock replaces time.Now for the updated timestamp.
func WithClock(now func() time.Time) Option {
	return func(c *Collection) { c.now = now }
}

// Collection is one .fuo file: optional TOML front-matter fenced by "+++"
// lines followed by one model URI per line.
//
// Every mutation reads the whole file, edits the body and writes it back
// atomically, so hand edits made between calls are kept. Unknown
// front-matter keys survive rewrites.
//
// Example:
//
//	c, err := collection.Open("/home/me/.fuo/favorites.fuo", resolver)
//	if err != nil {
//		return err
//	}
//	for _, m := range c.Models() {
//		fmt.Println(uri.Reverse(m, false))
//	}
//	_, err = c.Add(song)
type Collection struct {
	path     string
	kind     Kind
	resolver *uri.Resolver
	logger   *slog.Logger
	now      func() time.Time

	meta   map[string]any
	models []model.Model
}

// Open loads the collection stored at path.
func Open(path string, resolver *uri.Resolver, opts ...Option) (*Collection, error) {
	c := &Collection{
		path:     path,
		kind:     kindOf(path),
		resolver: resolver,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.Load(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Collection) Path() string { return c.path }
func (c *Collection) Kind() Kind   { return c.kind }

// Name is the file name without the extension.
func (c *Collection) Name() string {
	return strings.TrimSuffix(filepath.Base(c.path), Extension)
}

// Title returns the front-matter title, falling back to Name.
func (c *Collection) Title() string {
	if t, ok := c.meta["title"].(string); ok && t != "" {
		return t
	}
	return c.Name()
}

// Updated returns the front-matter updated time, zero when absent.
func (c *Collection) Updated() time.Time {
	return parseUpdated(c.meta["updated"])
}

// Meta returns a copy of the front-matter.
func (c *Collection) Meta() map[string]any {
	out := make(map[string]any, len(c.meta))
	for k, v := range c.meta {
		out[k] = v
	}
	return out
}

// Models returns the resolved models in file order.
func (c *Collection) Models() []model.Model {
	return append([]model.Model(nil), c.models...)
}

func (c *Collection) Len() int { return len(c.models) }

// Contains reports whether a model with the same key is in the collection.
func (c *Collection) Contains(m model.Model) bool {
	k := m.Key()
	for _, x := range c.models {
		if x.Key() == k {
			return true
		}
	}
	return false
}

// Load re-reads the file. A missing file is an empty collection.
func (c *Collection) Load() error {
	doc, err := c.read()
	if err != nil {
		return err
	}
	c.meta = doc.meta
	c.models = c.models[:0]
	seen := make(map[model.Key]struct{})
	for i, line := range doc.body {
		if strings.TrimSpace(line) == "" {
			continue
		}
		m, err := c.resolver.Resolve(line)
		if err != nil {
			c.logger.Warn("skip collection line", "path", c.path, "line", doc.bodyStart+i+1, "err", err)
			continue
		}
		if _, dup := seen[m.Key()]; dup {
			continue
		}
		seen[m.Key()] = struct{}{}
		c.models = append(c.models, m)
	}
	return nil
}

// Add writes m at the top of the file. It reports false, without touching
// the file, when the model is already present.
func (c *Collection) Add(m model.Model) (bool, error) {
	return c.mutate(func(doc *document) bool {
		if doc.index(m.Key()) >= 0 {
			return false
		}
		doc.body = append([]string{uri.Reverse(m, true)}, doc.body...)
		return true
	})
}

// Remove deletes the first line referring to m. It reports false when no
// line matched.
func (c *Collection) Remove(m model.Model) (bool, error) {
	return c.mutate(func(doc *document) bool {
		i := doc.index(m.Key())
		if i < 0 {
			return false
		}
		doc.body = append(doc.body[:i], doc.body[i+1:]...)
		return true
	})
}

// SetTitle updates the title key in the front-matter.
func (c *Collection) SetTitle(title string) error {
	_, err := c.mutate(func(doc *document) bool {
		doc.meta["title"] = title
		return true
	})
	return err
}

func (c *Collection) mutate(edit func(*document) bool) (bool, error) {
	doc, err := c.read()
	if err != nil {
		return false, err
	}
	if !edit(doc) {
		return false, nil
	}
	if _, ok := doc.meta["title"]; !ok {
		doc.meta["title"] = c.Name()
	}
	updated := c.now().Truncate(time.Second)
	if prev := parseUpdated(doc.meta["updated"]); prev.After(updated) {
		updated = prev
	}
	doc.meta["updated"] = updated.Format(TimeLayout)

	data, err := doc.encode()
	if err != nil {
		return false, err
	}
	if err := ioutils.WriteFileAtomic(c.path, data, 0o644); err != nil {
		return false, fmt.Errorf("write collection %s: %w", c.path, err)
	}
	return true, c.Load()
}

func (c *Collection) read() (*document, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		data, err = nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read collection %s: %w", c.path, err)
	}
	doc, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.path, err)
	}
	return doc, nil
}

func parseUpdated(v any) time.Time {
	switch t := v.(type) {
	case string:
		if tm, err := time.ParseInLocation(TimeLayout, t, time.Local); err == nil {
			return tm
		}
		if tm, err := time.Parse(time.RFC3339, t); err == nil {
			return tm
		}
	case toml.LocalDateTime:
		return t.AsTime(time.Local)
	case time.Time:
		return t
	}
	return time.Time{}
}

// document is the raw file split into front-matter and body lines.
type document struct {
	meta      map[string]any
	hasFence  bool
	body      []string
	bodyStart int
	// trailing newline
	eol bool
}

func decode(data []byte) (*document, error) {
	doc := &document{meta: map[string]any{}, eol: len(data) == 0 || bytes.HasSuffix(data, []byte("\n"))}
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return doc, nil
	}
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}

	if strings.TrimSpace(lines[0]) == fence {
		end := -1
		for i := 1; i < len(lines); i++ {
			if strings.TrimSpace(lines[i]) == fence {
				end = i
				break
			}
		}
		if end < 0 {
			return nil, fmt.Errorf("%w: missing closing %s", ErrInvalidFrontMatter, fence)
		}
		if err := toml.Unmarshal([]byte(strings.Join(lines[1:end], "\n")), &doc.meta); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFrontMatter, err)
		}
		doc.hasFence = true
		doc.bodyStart = end + 1
		lines = lines[end+1:]
	}
	doc.body = lines
	return doc, nil
}

// index returns the body position of the first line referring to k.
func (d *document) index(k model.Key) int {
	for i, line := range d.body {
		if got, err := uri.Parse(line); err == nil && got == k {
			return i
		}
	}
	return -1
}

func (d *document) encode() ([]byte, error) {
	var buf bytes.Buffer
	if len(d.meta) > 0 {
		head, err := toml.Marshal(d.meta)
		if err != nil {
			return nil, fmt.Errorf("encode front matter: %w", err)
		}
		buf.WriteString(fence + "\n")
		buf.Write(head)
		if len(head) > 0 && head[len(head)-1] != '\n' {
			buf.WriteByte('\n')
		}
		buf.WriteString(fence + "\n")
	}
	buf.WriteString(strings.Join(d.body, "\n"))
	if d.eol && len(d.body) > 0 {
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}
