package collection

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/fuo/internal/model"
	"github.com/handiism/fuo/internal/uri"
)

var fixedNow = time.Date(2024, 8, 1, 12, 34, 56, 0, time.Local)

func clock() time.Time { return fixedNow }

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// body returns the lines after the front-matter.
func body(t *testing.T, content string) []string {
	t.Helper()
	doc, err := decode([]byte(content))
	require.NoError(t, err)
	return doc.body
}

func song(id string) model.BriefSong {
	return model.BriefSong{Source: "s", Identifier: id}
}

func TestLoad(t *testing.T) {
	path := writeFile(t, t.TempDir(), "fav.fuo", strings.Join([]string{
		"+++",
		`title = "My Favorites"`,
		`updated = "2024-08-01T12:34:56"`,
		"+++",
		"fuo://local/songs/abc\t# Song Title - Artist - Album - 03:12",
		"",
		"not a uri",
		`fuo://netease/songs/42	# Another - Someone - "Album - Special" - 04:00`,
		"fuo://local/songs/abc",
		"",
	}, "\n"))

	c, err := Open(path, uri.NewResolver(nil))
	require.NoError(t, err)

	assert.Equal(t, "My Favorites", c.Title())
	assert.Equal(t, "fav", c.Name())
	assert.True(t, fixedNow.Equal(c.Updated()))
	require.Equal(t, 2, c.Len(), "bad and duplicate lines are skipped")

	models := c.Models()
	first := models[0].(model.BriefSong)
	assert.Equal(t, "Song Title", first.Title)
	assert.Equal(t, int64(192000), first.DurationMS)
	second := models[1].(model.BriefSong)
	assert.Equal(t, "Album - Special", second.AlbumName)
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	c, err := Open(filepath.Join(t.TempDir(), "none.fuo"), uri.NewResolver(nil))
	require.NoError(t, err)
	assert.Zero(t, c.Len())
	assert.Equal(t, "none", c.Title())
}

func TestLoadUnclosedFrontMatter(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.fuo", "+++\ntitle = \"x\"\nfuo://s/songs/1\n")
	_, err := Open(path, uri.NewResolver(nil))
	assert.ErrorIs(t, err, ErrInvalidFrontMatter)
}

func TestAddThenRemove(t *testing.T) {
	path := writeFile(t, t.TempDir(), "c.fuo", "fuo://s/songs/1\n")
	c, err := Open(path, uri.NewResolver(nil), WithClock(clock))
	require.NoError(t, err)

	added, err := c.Add(song("2"))
	require.NoError(t, err)
	assert.True(t, added)

	content := readFile(t, path)
	assert.Equal(t, []string{"fuo://s/songs/2", "fuo://s/songs/1"}, body(t, content))
	assert.True(t, strings.HasPrefix(content, "+++\n"), "front matter is synthesized")
	assert.Equal(t, "c", c.Title())
	assert.True(t, fixedNow.Equal(c.Updated()))

	removed, err := c.Remove(song("2"))
	require.NoError(t, err)
	assert.True(t, removed)

	content = readFile(t, path)
	assert.Equal(t, []string{"fuo://s/songs/1"}, body(t, content))
	assert.True(t, strings.HasSuffix(content, "fuo://s/songs/1\n"))
	require.Equal(t, 1, c.Len())
	assert.Equal(t, "1", c.Models()[0].Key().Identifier)
}

func TestAddExistingIsNoop(t *testing.T) {
	path := writeFile(t, t.TempDir(), "c.fuo", "fuo://s/songs/1\n")
	c, err := Open(path, uri.NewResolver(nil), WithClock(clock))
	require.NoError(t, err)

	added, err := c.Add(song("1"))
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, "fuo://s/songs/1\n", readFile(t, path))

	removed, err := c.Remove(song("9"))
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestAddRoundTripProperty(t *testing.T) {
	path := writeFile(t, t.TempDir(), "c.fuo", strings.Join([]string{
		"+++",
		`title = "T"`,
		`updated = "2030-01-01T00:00:00"`,
		`tags = ["rock", "live"]`,
		"+++",
		"fuo://s/songs/1\t# One",
		"fuo://s/albums/7\t# Album - Band",
		"",
	}, "\n"))
	c, err := Open(path, uri.NewResolver(nil), WithClock(clock))
	require.NoError(t, err)
	before := c.Models()
	prevUpdated := c.Updated()

	m := model.BriefSong{Source: "s", Identifier: "3", Title: "Three - Live", ArtistsName: "X"}
	_, err = c.Add(m)
	require.NoError(t, err)

	reloaded, err := Open(path, uri.NewResolver(nil))
	require.NoError(t, err)
	after := reloaded.Models()
	require.Len(t, after, len(before)+1)
	assert.Equal(t, m.Key(), after[0].Key())
	assert.Equal(t, "Three - Live", after[0].(model.BriefSong).Title)
	for i := range before {
		assert.Equal(t, before[i].Key(), after[i+1].Key())
	}

	assert.False(t, reloaded.Updated().Before(prevUpdated), "updated never goes back")
	assert.Equal(t, []any{"rock", "live"}, reloaded.Meta()["tags"], "unknown keys are kept")
}

func TestSetTitle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.fuo")
	c, err := Open(path, uri.NewResolver(nil), WithClock(clock))
	require.NoError(t, err)
	require.NoError(t, c.SetTitle("Road Trip"))
	assert.Equal(t, "Road Trip", c.Title())
	assert.Contains(t, readFile(t, path), "Road Trip")
}

type sources map[string]bool

func (s sources) Has(id string) bool { return s[id] }

func TestLoadUnknownSource(t *testing.T) {
	path := writeFile(t, t.TempDir(), "c.fuo", "fuo://gone/songs/1\nfuo://local/songs/2\n")
	c, err := Open(path, uri.NewResolver(sources{"local": true}))
	require.NoError(t, err)
	models := c.Models()
	require.Len(t, models, 2)
	assert.Equal(t, model.StateNotExists, models[0].(model.BriefSong).State)
	assert.Equal(t, model.StateArtificial, models[1].(model.BriefSong).State)
}

func TestManagerScan(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.fuo", "fuo://s/songs/1\nfuo://s/songs/2\n")
	writeFile(t, dir, "a.fuo", "fuo://s/songs/2\nfuo://s/songs/3\n")
	writeFile(t, dir, "notes.txt", "ignored")

	mgr := NewManager(dir, uri.NewResolver(nil), nil)
	mgr.now = clock
	require.NoError(t, mgr.Scan())

	var names []string
	for _, c := range mgr.List() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"library", "pool", "a", "b"}, names)

	var ids []string
	for _, m := range mgr.Library().Models() {
		ids = append(ids, m.Key().Identifier)
	}
	assert.Equal(t, []string{"2", "3", "1"}, ids, "library seeded from the union")
	assert.Zero(t, mgr.Pool().Len())

	// a second scan keeps the existing library untouched
	_, err := mgr.Add("a", song("4"))
	require.NoError(t, err)
	require.NoError(t, mgr.Scan())
	assert.Equal(t, 3, mgr.Library().Len())
}

func TestManagerCreateDelete(t *testing.T) {
	mgr := NewManager(t.TempDir(), uri.NewResolver(nil), nil)
	require.NoError(t, mgr.Scan())

	var changed []string
	mgr.Changed.Connect(func(name string) { changed = append(changed, name) })

	c, err := mgr.Create("Road: Trip")
	require.NoError(t, err)
	assert.Equal(t, "Road_ Trip", c.Name())
	assert.Equal(t, "Road: Trip", c.Title())

	_, err = mgr.Create("Road: Trip")
	assert.ErrorIs(t, err, ErrCollectionExists)

	ok, err := mgr.Add("Road_ Trip", song("1"))
	require.NoError(t, err)
	assert.True(t, ok)

	assert.ErrorIs(t, mgr.Delete("library"), ErrSystemCollection)
	assert.ErrorIs(t, mgr.Delete("pool.fuo"), ErrSystemCollection)
	require.NoError(t, mgr.Delete("Road_ Trip"))
	_, err = mgr.Get("Road_ Trip")
	assert.ErrorIs(t, err, ErrCollectionNotFound)

	assert.Equal(t, []string{"Road_ Trip", "Road_ Trip", "Road_ Trip"}, changed)
}
