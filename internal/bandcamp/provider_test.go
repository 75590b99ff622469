package bandcamp

import (
	"context"
	"encoding/json"
	"html"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fhttp "github.com/handiism/fuo/internal/http"
	"github.com/handiism/fuo/internal/model"
	"github.com/handiism/fuo/internal/provider"
	"github.com/handiism/fuo/internal/reader"
)

// releasePage renders a page embedding tralbum the way bandcamp does.
func releasePage(t *testing.T, tralbum map[string]any, extra string) string {
	t.Helper()
	data, err := json.Marshal(tralbum)
	require.NoError(t, err)
	return `<html><head><meta property="og:site_name" content="Mystery Artist"></head><body>` +
		`<script type="text/javascript" data-tralbum="` + html.EscapeString(string(data)) + `"></script>` +
		extra + `</body></html>`
}

type site struct {
	mu    sync.Mutex
	pages map[string]string
	hits  map[string]int
	srv   *httptest.Server
}

func (s *site) handler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.hits[r.URL.Path]++
	page, ok := s.pages[r.URL.Path]
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	if r.URL.Path == "/search" {
		page = strings.ReplaceAll(page, "SERVER", s.srv.URL)
		if r.URL.Query().Get("q") == "" {
			http.Error(w, "no query", http.StatusBadRequest)
			return
		}
	}
	_, _ = w.Write([]byte(page))
}

func (s *site) count(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func newSite(t *testing.T) (*Provider, *site) {
	t.Helper()
	s := &site{hits: map[string]int{}}
	s.pages = map[string]string{
		"/mystery/album/first-light": releasePage(t, map[string]any{
			"current":   map[string]any{"title": "First Light", "about": "Recorded at dawn.", "release_date": "01 Jan 2023 00:00:00 GMT"},
			"artist":    "Mystery Artist",
			"art_id":    1234567890,
			"item_type": "album",
			"trackinfo": []map[string]any{
				{"track_num": 1, "title": "Dawn", "title_link": "/track/dawn", "duration": 180.5, "file": map[string]string{"mp3-128": "https://t4.bcbits.com/stream/1"}},
				{"track_num": 2, "title": "Dusk", "title_link": "/track/dusk", "duration": 200, "file": nil},
			},
		}, `<tr id="lyrics_row_2"><td><div>Night falls</div></td></tr>`),
		"/mystery/track/dawn": releasePage(t, map[string]any{
			"current":   map[string]any{"title": "Dawn", "release_date": "01 Jan 2023 00:00:00 GMT"},
			"artist":    "Mystery Artist",
			"art_id":    1234567890,
			"item_type": "track",
			"album_url": "/album/first-light",
			"trackinfo": []map[string]any{
				{"track_num": 1, "title": "Dawn", "title_link": "/track/dawn", "duration": 180.5, "lyrics": "Sun comes up", "file": map[string]string{"mp3-128": "//t4.bcbits.com/stream/1"}},
			},
		}, `<h3><span class="fromAlbum">First Light</span></h3>`),
		"/mystery/track/dusk": releasePage(t, map[string]any{
			"current":   map[string]any{"title": "Dusk"},
			"artist":    "Mystery Artist",
			"item_type": "track",
			"album_url": "/album/first-light",
			"trackinfo": []map[string]any{
				{"track_num": 2, "title": "Dusk", "title_link": "/track/dusk", "duration": 200, "file": nil},
			},
		}, ""),
		"/mystery/track/single-one": releasePage(t, map[string]any{
			"current":   map[string]any{"title": "Single One"},
			"artist":    "Mystery Artist",
			"item_type": "track",
			"trackinfo": []map[string]any{
				{"track_num": nil, "title": "Single One", "title_link": "/track/single-one", "duration": 60, "file": map[string]string{"mp3-128": "https://t4.bcbits.com/stream/3"}},
			},
		}, ""),
		"/mystery/music": `<html><head><meta property="og:site_name" content="Mystery Artist"></head><body>
			<img class="band-photo" src="https://f4.bcbits.com/img/0001_21.jpg">
			<p id="bio-text">Plays &amp; sings.</p>
			<ol class="music-grid">
			<li><a href="/album/first-light"><p class="title">First Light</p></a></li>
			<li><a href="/track/single-one"><p class="title">Single One</p></a></li>
			<li><a href="/track/broken"><p class="title">Broken</p></a></li>
			</ol></body></html>`,
		"/mystery/track/broken": `<html><body>private</body></html>`,
		"/quiet/music":          `<html><body>Nothing yet</body></html>`,
		"/search": `<ul class="result-items">
			<li class="searchresult data-search">
			  <div class="result-info">
			    <div class="itemtype">
			        TRACK
			    </div>
			    <div class="heading">
			      <a href="SERVER/mystery/track/dawn?from=search">Dawn</a>
			    </div>
			    <div class="subhead">
			        from First Light
			        by Mystery Artist
			    </div>
			    <div class="itemurl"><a href="SERVER/mystery/track/dawn?from=search">SERVER/mystery/track/dawn</a></div>
			  </div>
			</li>
			<li class="searchresult data-search">
			  <div class="result-info">
			    <div class="itemtype">ALBUM</div>
			    <div class="heading"><a href="SERVER/mystery/album/first-light">First Light</a></div>
			    <div class="subhead">by Mystery Artist</div>
			    <div class="itemurl"><a href="SERVER/mystery/album/first-light">SERVER/mystery/album/first-light</a></div>
			  </div>
			</li>
			<li class="searchresult data-search">
			  <div class="result-info">
			    <div class="itemtype">ARTIST</div>
			    <div class="heading"><a href="SERVER/mystery">Mystery Artist</a></div>
			    <div class="itemurl"><a href="SERVER/mystery">SERVER/mystery</a></div>
			  </div>
			</li>
			</ul>`,
	}
	s.srv = httptest.NewServer(http.HandlerFunc(s.handler))
	t.Cleanup(s.srv.Close)

	p := New(
		WithClient(fhttp.NewClient(fhttp.WithHTTPClient(s.srv.Client()))),
		WithSiteURL(func(sub string) string { return s.srv.URL + "/" + sub }),
		WithSearchURL(s.srv.URL+"/search"),
		WithPageSize(1),
	)
	return p, s
}

func TestProvider_Registers(t *testing.T) {
	require.NoError(t, provider.NewRegistry().Register(New()))
}

func TestProvider_SongGet(t *testing.T) {
	p, _ := newSite(t)
	ctx := context.Background()

	song, err := p.SongGet(ctx, "mystery:dawn")
	require.NoError(t, err)
	assert.Equal(t, "Dawn", song.Title)
	assert.Equal(t, int64(180500), song.DurationMS)
	assert.Equal(t, "Mystery Artist", song.ArtistsName())
	assert.Equal(t, "mystery", song.Artists[0].Identifier)
	require.NotNil(t, song.Album)
	assert.Equal(t, "mystery:first-light", song.Album.Identifier)
	assert.Equal(t, "First Light", song.Album.Name)
	assert.Equal(t, "2023-01-01", song.Released)
	assert.Equal(t, "https://f4.bcbits.com/img/a1234567890_0.jpg", song.PicURL)

	single, err := p.SongGet(ctx, "mystery:single-one")
	require.NoError(t, err)
	assert.Nil(t, single.Album)
	assert.Equal(t, 1, single.TrackNumber)
}

func TestProvider_Errors(t *testing.T) {
	p, _ := newSite(t)
	ctx := context.Background()

	_, err := p.SongGet(ctx, "mystery:missing")
	assert.ErrorIs(t, err, provider.ErrModelNotFound)

	_, err = p.SongGet(ctx, "no-colon")
	assert.ErrorIs(t, err, provider.ErrModelNotFound)

	_, err = p.SongGet(ctx, "mystery:broken")
	assert.ErrorIs(t, err, provider.ErrModelNotFound)

	_, err = p.ArtistGet(ctx, "gone")
	assert.ErrorIs(t, err, provider.ErrModelNotFound)
}

func TestProvider_MediaUsesCachedPage(t *testing.T) {
	p, s := newSite(t)
	ctx := context.Background()
	song := model.BriefSong{Source: Identifier, Identifier: "mystery:dawn"}

	qs, err := p.SongListQuality(ctx, song)
	require.NoError(t, err)
	assert.Equal(t, []model.Quality{model.AudioSQ}, qs)

	media, err := p.SongGetMedia(ctx, song, model.AudioSQ)
	require.NoError(t, err)
	assert.Equal(t, "https://t4.bcbits.com/stream/1", media.URL)
	assert.Equal(t, "mp3", media.Format)
	assert.Equal(t, 128, media.Bitrate)
	assert.Equal(t, model.MediaAudio, media.Type)

	assert.Equal(t, 1, s.count("/mystery/track/dawn"))

	_, err = p.SongGetMedia(ctx, song, model.AudioHQ)
	assert.ErrorIs(t, err, provider.ErrMediaNotFound)
}

func TestProvider_NotStreamable(t *testing.T) {
	p, _ := newSite(t)
	ctx := context.Background()
	song := model.BriefSong{Source: Identifier, Identifier: "mystery:dusk"}

	qs, err := p.SongListQuality(ctx, song)
	require.NoError(t, err)
	assert.Empty(t, qs)

	_, err = p.SongGetMedia(ctx, song, model.AudioSQ)
	assert.ErrorIs(t, err, provider.ErrMediaNotFound)
}

func TestProvider_LyricAndWebURL(t *testing.T) {
	p, s := newSite(t)
	ctx := context.Background()

	lyric, err := p.SongGetLyric(ctx, model.BriefSong{Identifier: "mystery:dawn"})
	require.NoError(t, err)
	require.NotNil(t, lyric)
	assert.Equal(t, "Sun comes up", lyric.Content)

	lyric, err = p.SongGetLyric(ctx, model.BriefSong{Identifier: "mystery:single-one"})
	require.NoError(t, err)
	assert.Nil(t, lyric)

	u, err := p.SongGetWebURL(ctx, model.BriefSong{Identifier: "mystery:dawn"})
	require.NoError(t, err)
	assert.Equal(t, s.srv.URL+"/mystery/track/dawn", u)
	assert.Equal(t, "https://mystery.bandcamp.com", SubdomainURL("mystery"))
}

func TestProvider_Album(t *testing.T) {
	p, _ := newSite(t)
	ctx := context.Background()

	album, err := p.AlbumGet(ctx, "mystery:first-light")
	require.NoError(t, err)
	assert.Equal(t, "First Light", album.Name)
	assert.Equal(t, "Recorded at dawn.", album.Description)
	assert.Equal(t, 2, album.SongCount)
	assert.True(t, album.HasCover())
	require.Len(t, album.Songs, 2)
	assert.Equal(t, "mystery:dawn", album.Songs[0].Identifier)
	assert.Equal(t, "First Light", album.Songs[1].AlbumName)

	rd, err := p.AlbumCreateSongsRd(ctx, album.Brief())
	require.NoError(t, err)
	songs, err := rd.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, album.Songs, songs)
}

func TestProvider_Artist(t *testing.T) {
	p, _ := newSite(t)
	ctx := context.Background()

	artist, err := p.ArtistGet(ctx, "mystery")
	require.NoError(t, err)
	assert.Equal(t, "Mystery Artist", artist.Name)
	assert.Equal(t, "Plays & sings.", artist.Description)
	assert.Equal(t, "https://f4.bcbits.com/img/0001_21.jpg", artist.PicURL)
	assert.Equal(t, 1, artist.AlbumCount)

	quiet, err := p.ArtistGet(ctx, "quiet")
	require.NoError(t, err)
	assert.Equal(t, "quiet", quiet.Name)
	assert.Zero(t, quiet.AlbumCount)
}

func TestProvider_ArtistReaders(t *testing.T) {
	p, s := newSite(t)
	ctx := context.Background()
	artist := model.BriefArtist{Source: Identifier, Identifier: "mystery"}

	albums, err := p.ArtistCreateAlbumsRd(ctx, artist)
	require.NoError(t, err)
	n, known := albums.Count()
	assert.True(t, known)
	assert.Equal(t, 1, n)
	assert.Zero(t, s.count("/mystery/album/first-light"), "album pages are fetched lazily")
	all, err := albums.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "First Light", all[0].Name)

	songs, err := p.ArtistCreateSongsRd(ctx, artist)
	require.NoError(t, err)
	first, err := reader.Take(ctx, songs, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dawn", "Dusk"}, []string{first[0].Title, first[1].Title})
	assert.Zero(t, s.count("/mystery/track/single-one"))

	// the broken release has no album data and ends the walk with an error
	_, err = reader.Take(ctx, songs, 10)
	assert.ErrorIs(t, err, provider.ErrModelNotFound)
	assert.Equal(t, 1, s.count("/mystery/track/single-one"))
}

func TestProvider_Search(t *testing.T) {
	p, s := newSite(t)
	ctx := context.Background()

	res, err := p.Search(ctx, "dawn", model.SearchSong, 10)
	require.NoError(t, err)
	require.Len(t, res.Songs, 1)
	assert.Equal(t, model.BriefSong{
		Source: Identifier, Identifier: "mystery:dawn", Title: "Dawn",
		ArtistsName: "Mystery Artist", AlbumName: "First Light", State: model.StateExists,
	}, res.Songs[0])

	res, err = p.Search(ctx, "first light", model.SearchAlbum, 10)
	require.NoError(t, err)
	require.Len(t, res.Albums, 1)
	assert.Equal(t, "mystery:first-light", res.Albums[0].Identifier)
	assert.Equal(t, "Mystery Artist", res.Albums[0].ArtistsName)

	res, err = p.Search(ctx, "mystery", model.SearchArtist, 10)
	require.NoError(t, err)
	require.Len(t, res.Artists, 1)
	assert.Equal(t, "mystery", res.Artists[0].Identifier)

	before := s.count("/search")
	res, err = p.Search(ctx, "dawn", model.SearchPlaylist, 10)
	require.NoError(t, err)
	assert.Zero(t, res.Len())
	assert.Equal(t, before, s.count("/search"))
}

func TestPageCache_Expires(t *testing.T) {
	c := newPageCache(pageTTL, 2)
	now := c.now()
	c.now = func() time.Time { return now }

	c.put("a", "A")
	now = now.Add(time.Second)
	c.put("b", "B")
	now = now.Add(time.Second)
	c.put("c", "C")
	_, ok := c.get("a")
	assert.False(t, ok, "oldest entry evicted")

	page, ok := c.get("c")
	assert.True(t, ok)
	assert.Equal(t, "C", page)

	now = now.Add(pageTTL + time.Second)
	_, ok = c.get("c")
	assert.False(t, ok)
}
