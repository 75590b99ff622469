package bandcamp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/handiism/fuo/internal/bandcamp/dto"
	fhttp "github.com/handiism/fuo/internal/http"
	"github.com/handiism/fuo/internal/model"
	"github.com/handiism/fuo/internal/provider"
	"github.com/handiism/fuo/internal/reader"
)

// Identifier is the source of every bandcamp model.
const Identifier = "bandcamp"

const (
	DefaultSearchURL = "https://bandcamp.com/search"
	DefaultPageSize  = 20

	pageTTL       = 5 * time.Minute
	pageCacheSize = 64
	maxPageFetch  = 4
)

// Bandcamp streams a single 128 kbps mp3 per track.
const (
	streamQuality = model.AudioSQ
	streamBitrate = 128
)

// SubdomainURL returns https://<sub>.bandcamp.com.
func SubdomainURL(sub string) string {
	return "https://" + sub + ".bandcamp.com"
}

// Option configures a Provider.
type Option func(*Provider)

func WithLogger(l *slog.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

func WithClient(c *fhttp.Client) Option {
	return func(p *Provider) { p.client = c }
}

// WithSiteURL changes how an artist's site root is built from its
// subdomain. It defaults to SubdomainURL.
func WithSiteURL(fn func(sub string) string) Option {
	return func(p *Provider) { p.siteURL = fn }
}

func WithSearchURL(u string) Option {
	return func(p *Provider) { p.searchURL = u }
}

// WithPageSize sets how many releases an artist's albums reader loads per
// read.
func WithPageSize(n int) Option {
	return func(p *Provider) {
		if n > 0 {
			p.pageSize = n
		}
	}
}

// Provider serves Bandcamp releases by scraping their public pages.
//
// Pages are fetched on demand and kept for a few minutes, so that getting
// a song and then its media costs one request. Only the 128 kbps stream
// Bandcamp offers to every visitor is served.
//
// Example:
//
//	bc := bandcamp.New(bandcamp.WithLogger(logger))
//	reg.Register(bc)
//
//	song, err := bc.SongGet(ctx, "mysteryartist:first-light")
type Provider struct {
	client    *fhttp.Client
	logger    *slog.Logger
	siteURL   func(sub string) string
	searchURL string
	pageSize  int

	parser *Parser
	disco  *Discography
	cache  *pageCache
}

// New creates a Bandcamp provider.
func New(opts ...Option) *Provider {
	p := &Provider{
		client:    fhttp.NewClient(),
		logger:    slog.Default(),
		siteURL:   SubdomainURL,
		searchURL: DefaultSearchURL,
		pageSize:  DefaultPageSize,
		parser:    NewParser(),
		disco:     NewDiscography(),
		cache:     newPageCache(pageTTL, pageCacheSize),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Identifier() string { return Identifier }
func (p *Provider) Name() string       { return "Bandcamp" }

func (p *Provider) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		model.TypeSong:   provider.FlagGet | provider.FlagMultiQuality | provider.FlagLyric | provider.FlagWebURL,
		model.TypeAlbum:  provider.FlagGet | provider.FlagListSongs,
		model.TypeArtist: provider.FlagGet | provider.FlagListSongs | provider.FlagListAlbums,
	}
}

// fetch returns the HTML at url, from the cache when fresh.
func (p *Provider) fetch(ctx context.Context, url string) (string, error) {
	if page, ok := p.cache.get(url); ok {
		return page, nil
	}
	page, err := p.client.GetString(ctx, url)
	if err != nil {
		var se *fhttp.StatusError
		if errors.As(err, &se) && se.NotFound() {
			return "", fmt.Errorf("%w: %s", provider.ErrModelNotFound, url)
		}
		return "", provider.WrapIO(Identifier, err)
	}
	p.cache.put(url, page)
	return page, nil
}

func (p *Provider) releaseURL(sub, kind, slug string) string {
	return p.siteURL(sub) + "/" + kind + "/" + slug
}

// release fetches and parses an album or track page.
func (p *Provider) release(ctx context.Context, sub, kind, slug string) (*dto.JSONAlbum, error) {
	url := p.releaseURL(sub, kind, slug)
	page, err := p.fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	album, err := p.parser.ParseAlbumPage(page)
	if errors.Is(err, ErrNoAlbumData) {
		return nil, fmt.Errorf("%w: %s", provider.ErrModelNotFound, url)
	}
	if err != nil {
		return nil, &provider.IOError{Provider: Identifier, Message: "parse " + url, Err: err}
	}
	return album, nil
}

// track fetches the track page of a song id.
func (p *Provider) track(ctx context.Context, id string) (string, *dto.JSONAlbum, *dto.JSONTrack, error) {
	sub, slug, err := parseReleaseID(id)
	if err != nil {
		return "", nil, nil, err
	}
	page, err := p.release(ctx, sub, "track", slug)
	if err != nil {
		return "", nil, nil, err
	}
	if len(page.Tracks) == 0 {
		return "", nil, nil, fmt.Errorf("%w: bandcamp track %s", provider.ErrModelNotFound, id)
	}
	return sub, page, &page.Tracks[0], nil
}

func released(page *dto.JSONAlbum) string {
	t := page.Released()
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func artistOf(sub string, page *dto.JSONAlbum, t *dto.JSONTrack) model.BriefArtist {
	name := page.Artist
	if t != nil && t.Artist != "" {
		name = t.Artist
	}
	if name == "" {
		name = page.SiteName
	}
	return model.BriefArtist{Source: Identifier, Identifier: sub, Name: name, State: model.StateExists}
}

// songOf builds the song for track t listed on page. album is nil for
// tracks released on their own.
func songOf(sub string, page *dto.JSONAlbum, t *dto.JSONTrack, slug string, album *model.BriefAlbum) model.Song {
	return model.Song{
		Source:      Identifier,
		Identifier:  releaseID(sub, slug),
		Title:       t.Title,
		Album:       album,
		Artists:     []model.BriefArtist{artistOf(sub, page, t)},
		DurationMS:  t.DurationMS(),
		PicURL:      page.ArtworkURL(),
		TrackNumber: t.TrackNumber(),
		DiscNumber:  1,
		Released:    released(page),
		State:       model.StateUpgraded,
	}
}

func (p *Provider) SongGet(ctx context.Context, id string) (*model.Song, error) {
	sub, page, t, err := p.track(ctx, id)
	if err != nil {
		return nil, err
	}
	_, slug, _ := parseReleaseID(id)

	var album *model.BriefAlbum
	if page.AlbumURL != "" {
		album = &model.BriefAlbum{
			Source:      Identifier,
			Identifier:  releaseID(sub, slugOf(page.AlbumURL)),
			Name:        page.AlbumTitle,
			ArtistsName: artistOf(sub, page, nil).Name,
			State:       model.StateExists,
		}
	}
	s := songOf(sub, page, t, slug, album)
	return &s, nil
}

func (p *Provider) SongListQuality(ctx context.Context, song model.BriefSong) ([]model.Quality, error) {
	_, _, t, err := p.track(ctx, song.Identifier)
	if err != nil {
		return nil, err
	}
	if t.MP3URL() == "" {
		return nil, nil
	}
	return []model.Quality{streamQuality}, nil
}

func (p *Provider) SongGetMedia(ctx context.Context, song model.BriefSong, q model.Quality) (*model.Media, error) {
	if q != streamQuality {
		return nil, provider.NewMediaNotFound(fmt.Sprintf("bandcamp has no %s quality", q))
	}
	_, _, t, err := p.track(ctx, song.Identifier)
	if err != nil {
		return nil, err
	}
	u := t.MP3URL()
	if u == "" {
		return nil, provider.NewMediaNotFound("track is not streamable")
	}
	return &model.Media{
		URL:     u,
		Type:    model.MediaAudio,
		Format:  "mp3",
		Bitrate: streamBitrate,
		Quality: streamQuality,
	}, nil
}

// SongGetLyric returns the lyrics published with the track, which are
// plain text without timestamps.
func (p *Provider) SongGetLyric(ctx context.Context, song model.BriefSong) (*model.Lyric, error) {
	_, _, t, err := p.track(ctx, song.Identifier)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(t.Lyrics) == "" {
		return nil, nil
	}
	return &model.Lyric{Source: Identifier, Identifier: song.Identifier, Content: t.Lyrics}, nil
}

func (p *Provider) SongGetWebURL(ctx context.Context, song model.BriefSong) (string, error) {
	sub, slug, err := parseReleaseID(song.Identifier)
	if err != nil {
		return "", err
	}
	return p.releaseURL(sub, "track", slug), nil
}

// albumOf converts a release page. Tracks without their own page are
// left out of Songs.
func albumOf(sub, slug string, page *dto.JSONAlbum) *model.Album {
	a := &model.Album{
		Source:      Identifier,
		Identifier:  releaseID(sub, slug),
		Name:        page.Title(),
		Artists:     []model.BriefArtist{artistOf(sub, page, nil)},
		Cover:       page.ArtworkURL(),
		Description: page.Description(),
		Released:    released(page),
		State:       model.StateUpgraded,
	}
	brief := a.Brief()
	for i := range page.Tracks {
		t := &page.Tracks[i]
		ts := t.Slug()
		if ts == "" {
			continue
		}
		s := songOf(sub, page, t, ts, &brief)
		a.Songs = append(a.Songs, s.Brief())
	}
	a.SongCount = len(a.Songs)
	return a
}

func (p *Provider) AlbumGet(ctx context.Context, id string) (*model.Album, error) {
	sub, slug, err := parseReleaseID(id)
	if err != nil {
		return nil, err
	}
	page, err := p.release(ctx, sub, "album", slug)
	if err != nil {
		return nil, err
	}
	return albumOf(sub, slug, page), nil
}

func (p *Provider) AlbumCreateSongsRd(ctx context.Context, album model.BriefAlbum) (reader.Reader[model.BriefSong], error) {
	a, err := p.AlbumGet(ctx, album.Identifier)
	if err != nil {
		return nil, err
	}
	return reader.Wrap(a.Songs), nil
}

// discography returns the release links on an artist's music page and the
// page itself. An artist without releases has no links.
func (p *Provider) discography(ctx context.Context, sub string) ([]string, string, error) {
	if sub == "" || strings.ContainsAny(sub, "/:") {
		return nil, "", fmt.Errorf("%w: bad bandcamp artist %q", provider.ErrModelNotFound, sub)
	}
	page, err := p.fetch(ctx, p.siteURL(sub)+"/music")
	if err != nil {
		return nil, "", err
	}
	links, err := p.disco.GetAlbumURLs(page)
	if errors.Is(err, ErrNoAlbumFound) {
		return nil, page, nil
	}
	if err != nil {
		return nil, "", &provider.IOError{Provider: Identifier, Message: "read discography of " + sub, Err: err}
	}
	return links, page, nil
}

func (p *Provider) ArtistGet(ctx context.Context, id string) (*model.Artist, error) {
	links, page, err := p.discography(ctx, id)
	if err != nil {
		return nil, err
	}
	info := p.disco.ParseArtist(page)
	a := &model.Artist{
		Source:      Identifier,
		Identifier:  id,
		Name:        info.Name,
		PicURL:      info.PhotoURL,
		Description: info.Bio,
		State:       model.StateUpgraded,
	}
	if a.Name == "" {
		a.Name = id
	}
	for _, link := range links {
		if kindOf(link) == "album" {
			a.AlbumCount++
		}
	}
	return a, nil
}

// ArtistCreateAlbumsRd lists the artist's albums, newest first. Album
// pages are fetched as the reader reaches them.
func (p *Provider) ArtistCreateAlbumsRd(ctx context.Context, artist model.BriefArtist) (reader.Reader[model.BriefAlbum], error) {
	links, _, err := p.discography(ctx, artist.Identifier)
	if err != nil {
		return nil, err
	}
	var slugs []string
	for _, link := range links {
		if kindOf(link) == "album" {
			slugs = append(slugs, slugOf(link))
		}
	}
	sub := artist.Identifier

	fetch := func(ctx context.Context, start, end int) ([]model.BriefAlbum, error) {
		out := make([]model.BriefAlbum, end-start)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(maxPageFetch)
		for i := start; i < end; i++ {
			g.Go(func() error {
				page, err := p.release(gctx, sub, "album", slugs[i])
				if err != nil {
					return err
				}
				out[i-start] = albumOf(sub, slugs[i], page).Brief()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return out, nil
	}
	return reader.NewRandom(fetch, len(slugs), p.pageSize), nil
}

// ArtistCreateSongsRd walks every release of the artist, newest first, and
// yields their songs. The count is unknown until the last release is read.
func (p *Provider) ArtistCreateSongsRd(ctx context.Context, artist model.BriefArtist) (reader.Reader[model.BriefSong], error) {
	links, _, err := p.discography(ctx, artist.Identifier)
	if err != nil {
		return nil, err
	}
	sub := artist.Identifier

	i := 0
	next := reader.Pages(func(ctx context.Context, _ int) ([]model.BriefSong, bool, error) {
		for i < len(links) {
			link := links[i]
			i++
			songs, err := p.releaseSongs(ctx, sub, link)
			if err != nil {
				return nil, false, err
			}
			if len(songs) > 0 {
				return songs, i < len(links), nil
			}
		}
		return nil, false, nil
	})
	return reader.NewSequential(next, -1), nil
}

func (p *Provider) releaseSongs(ctx context.Context, sub, link string) ([]model.BriefSong, error) {
	kind, slug := kindOf(link), slugOf(link)
	page, err := p.release(ctx, sub, kind, slug)
	if err != nil {
		return nil, err
	}
	if kind == "album" {
		return albumOf(sub, slug, page).Songs, nil
	}
	if len(page.Tracks) == 0 {
		return nil, nil
	}
	s := songOf(sub, page, &page.Tracks[0], slug, nil)
	return []model.BriefSong{s.Brief()}, nil
}
