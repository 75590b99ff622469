package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/handiism/fuo/internal/audio"
	"github.com/handiism/fuo/internal/http"
	ioutils "github.com/handiism/fuo/internal/io"
	"github.com/handiism/fuo/internal/model"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a download progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}

// Config controls where and how songs are saved.
type Config struct {
	// Dir is where files are written. It is created on demand.
	Dir string
	// FileNameFormat names files without extension. Placeholders:
	// {artist}, {title}, {album}, {tracknum}.
	FileNameFormat string
	// AudioPolicy selects the quality to download, empty for the library default.
	AudioPolicy string
	// MaxConcurrent bounds songs downloaded at once.
	MaxConcurrent int
	MaxRetries    int
	// RetryCooldown is the first wait in seconds; each retry multiplies it
	// by RetryExponent.
	RetryCooldown float64
	RetryExponent float64
	// AllowedFileSizeDifference is the relative size mismatch under which
	// an existing file is kept.
	AllowedFileSizeDifference float64
	ModifyTags                bool
	// ArtworkMaxSize bounds the embedded cover, 0 disables artwork.
	ArtworkMaxSize int
}

// DefaultConfig returns settings suitable for most users.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:                       dir,
		FileNameFormat:            "{artist} - {title}",
		MaxConcurrent:             4,
		MaxRetries:                7,
		RetryCooldown:             0.2,
		RetryExponent:             4.0,
		AllowedFileSizeDifference: 0.05,
		ModifyTags:                true,
		ArtworkMaxSize:            1000,
	}
}

// Library is what the manager needs to resolve songs. library.Library
// satisfies it.
type Library interface {
	SongUpgrade(ctx context.Context, s model.BriefSong) (*model.Song, error)
	SongPrepareMedia(ctx context.Context, s model.BriefSong, policy string) (*model.Media, error)
	SongGetLyric(ctx context.Context, s model.BriefSong) (*model.Lyric, error)
}

// Result is the outcome of one song.
type Result struct {
	Song model.BriefSong
	// Path is the saved file, empty on failure.
	Path    string
	Skipped bool
	Err     error
}

// Manager coordinates song downloads.
//
// For every song it:
//
//  1. prepares the song's media through the library
//  2. downloads (or copies, for file:// media) it with retries
//  3. tags MP3 files with title, artists, album, lyrics and cover
//
// Example:
//
//	m := download.NewManager(lib, download.DefaultConfig(dir), func(e download.ProgressEvent) {
//	    fmt.Println(e.Message)
//	})
//	results, err := m.Download(ctx, songs)
type Manager struct {
	cfg          Config
	lib          Library
	httpClient   *http.Client
	tagger       *audio.Tagger
	imageService *ioutils.ImageService
	logger       *slog.Logger

	totalFiles      int32
	downloadedFiles int32
	receivedBytes   int64

	onProgress func(ProgressEvent)
}

// Option configures a Manager.
type Option func(*Manager)

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithHTTPClient replaces the client used for remote media and covers.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) { m.httpClient = c }
}

// WithTagger replaces the default tagger.
func WithTagger(t *audio.Tagger) Option {
	return func(m *Manager) { m.tagger = t }
}

// NewManager creates a new download Manager. onProgress may be nil.
func NewManager(lib Library, cfg Config, onProgress func(ProgressEvent), opts ...Option) *Manager {
	def := DefaultConfig(cfg.Dir)
	if cfg.FileNameFormat == "" {
		cfg.FileNameFormat = def.FileNameFormat
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = def.MaxConcurrent
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
	m := &Manager{
		cfg:          cfg,
		lib:          lib,
		httpClient:   http.NewClient(http.WithTimeout(0)),
		tagger:       audio.NewTagger(audio.DefaultTagConfig()),
		imageService: ioutils.NewImageService(cfg.ArtworkMaxSize),
		logger:       slog.Default(),
		onProgress:   onProgress,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Download saves songs concurrently. A failing song does not stop the
// others; its error is in its Result. The returned error is only set when
// ctx ends first.
func (m *Manager) Download(ctx context.Context, songs []model.BriefSong) ([]Result, error) {
	if err := ioutils.EnsureDir(m.cfg.Dir); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}
	atomic.AddInt32(&m.totalFiles, int32(len(songs)))

	results := make([]Result, len(songs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.MaxConcurrent)

	for i, s := range songs {
		g.Go(func() error {
			res := m.downloadSong(gctx, s)
			results[i] = res
			switch {
			case res.Err != nil:
				m.progress(ProgressEvent{Message: fmt.Sprintf("Error downloading %s: %v", s, res.Err), Level: LevelError})
			case res.Skipped:
				m.progress(ProgressEvent{Message: fmt.Sprintf("Skipping existing: %s", filepath.Base(res.Path)), Level: LevelVerbose})
			default:
				m.progress(ProgressEvent{Message: fmt.Sprintf("Downloaded: %s", filepath.Base(res.Path)), Level: LevelSuccess})
			}
			return nil
		})
	}
	_ = g.Wait()
	return results, ctx.Err()
}

// GetProgress returns bytes received and files finished so far.
func (m *Manager) GetProgress() (received int64, filesReceived, filesTotal int32) {
	return atomic.LoadInt64(&m.receivedBytes), atomic.LoadInt32(&m.downloadedFiles), atomic.LoadInt32(&m.totalFiles)
}

func (m *Manager) downloadSong(ctx context.Context, s model.BriefSong) Result {
	res := Result{Song: s}

	song, err := m.lib.SongUpgrade(ctx, s)
	if err != nil || song == nil {
		m.logger.Debug("download: upgrade failed, using brief song", "uri", s.Key().String(), "err", err)
		song = briefToSong(s)
	}

	media, err := m.lib.SongPrepareMedia(ctx, s, m.cfg.AudioPolicy)
	if err != nil {
		res.Err = fmt.Errorf("prepare media: %w", err)
		return res
	}

	res.Path = filepath.Join(m.cfg.Dir, FileName(m.cfg.FileNameFormat, song)+extension(media))

	if m.upToDate(ctx, res.Path, media) {
		atomic.AddInt32(&m.downloadedFiles, 1)
		res.Skipped = true
		return res
	}

	if err := m.fetch(ctx, media, res.Path, s); err != nil {
		res.Err = err
		res.Path = ""
		return res
	}
	atomic.AddInt32(&m.downloadedFiles, 1)

	if strings.EqualFold(filepath.Ext(res.Path), ".mp3") {
		m.tag(ctx, res.Path, s, song)
	}
	return res
}

// fetch copies local media or downloads remote media with retries.
func (m *Manager) fetch(ctx context.Context, media *model.Media, dest string, s model.BriefSong) error {
	u, err := url.Parse(media.URL)
	if err != nil {
		return fmt.Errorf("parse media url: %w", err)
	}
	if u.Scheme == "file" {
		return ioutils.CopyFile(ctx, u.Path, dest)
	}

	for tries := 0; tries < m.cfg.MaxRetries; tries++ {
		err = m.httpClient.DownloadFile(ctx, media.URL, media.HTTPHeaders, dest, func(written, total int64) {})
		if err == nil {
			if info, serr := os.Stat(dest); serr == nil {
				atomic.AddInt64(&m.receivedBytes, info.Size())
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var se *http.StatusError
		if errors.As(err, &se) && se.NotFound() {
			return err
		}
		m.progress(ProgressEvent{Message: fmt.Sprintf("Retry %d/%d for %s", tries+1, m.cfg.MaxRetries, s.Title), Level: LevelWarning})
		m.waitForRetry(ctx, tries)
	}
	return err
}

// upToDate reports whether dest already holds the media, judged by size.
func (m *Manager) upToDate(ctx context.Context, dest string, media *model.Media) bool {
	info, err := os.Stat(dest)
	if err != nil {
		return false
	}
	if u, err := url.Parse(media.URL); err == nil && u.Scheme == "file" {
		src, err := os.Stat(u.Path)
		return err == nil && src.Size() == info.Size()
	}
	expected, err := m.httpClient.GetFileSize(ctx, media.URL, media.HTTPHeaders)
	if err != nil || expected <= 0 {
		return false
	}
	diff := float64(info.Size()-expected) / float64(expected)
	return math.Abs(diff) <= m.cfg.AllowedFileSizeDifference
}

func (m *Manager) tag(ctx context.Context, path string, s model.BriefSong, song *model.Song) {
	if !m.cfg.ModifyTags && m.cfg.ArtworkMaxSize <= 0 {
		return
	}
	var lyrics string
	if l, err := m.lib.SongGetLyric(ctx, s); err == nil && l != nil {
		lyrics = l.Content
	}

	var artwork []byte
	if m.cfg.ArtworkMaxSize > 0 && song.PicURL != "" {
		artwork = m.downloadArtwork(ctx, song.PicURL)
	}

	if err := m.tagger.SaveTags(path, audio.TagsFromSong(song, lyrics), artwork); err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Error tagging %s: %v", song.Title, err), Level: LevelWarning})
	}
}

func (m *Manager) downloadArtwork(ctx context.Context, picURL string) []byte {
	data, err := m.httpClient.Get(ctx, picURL, nil)
	if err != nil {
		m.logger.Debug("download: artwork failed", "url", picURL, "err", err)
		return nil
	}
	thumb, err := m.imageService.Thumbnail(ctx, data)
	if err != nil {
		return data
	}
	return thumb
}

func (m *Manager) waitForRetry(ctx context.Context, tries int) {
	cooldown := m.cfg.RetryCooldown * math.Pow(m.cfg.RetryExponent, float64(tries))
	select {
	case <-ctx.Done():
	case <-time.After(time.Duration(cooldown * float64(time.Second))):
	}
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress != nil {
		m.onProgress(event)
	}
}

// FileName renders format for song, sanitized for the filesystem.
func FileName(format string, song *model.Song) string {
	album := ""
	if song.Album != nil {
		album = song.Album.Name
	}
	track := ""
	if song.TrackNumber > 0 {
		track = fmt.Sprintf("%02d", song.TrackNumber)
	}
	name := strings.NewReplacer(
		"{artist}", song.ArtistsName(),
		"{title}", song.Title,
		"{album}", album,
		"{tracknum}", track,
	).Replace(format)
	name = strings.Trim(strings.TrimSpace(name), "-")
	name = ioutils.SanitizeFileName(strings.TrimSpace(name))
	if name == "" {
		name = ioutils.SanitizeFileName(song.Identifier)
	}
	return name
}

// extension guesses the file extension from the media.
func extension(media *model.Media) string {
	if media.Format != "" {
		return "." + strings.TrimPrefix(strings.ToLower(media.Format), ".")
	}
	if u, err := url.Parse(media.URL); err == nil {
		if ext := path.Ext(u.Path); ext != "" && len(ext) <= 5 {
			return strings.ToLower(ext)
		}
	}
	return ".mp3"
}

func briefToSong(s model.BriefSong) *model.Song {
	song := &model.Song{
		Source:     s.Source,
		Identifier: s.Identifier,
		Title:      s.Title,
		DurationMS: s.DurationMS,
	}
	for _, name := range strings.Split(s.ArtistsName, ",") {
		if name = strings.TrimSpace(name); name != "" {
			song.Artists = append(song.Artists, model.BriefArtist{Source: s.Source, Name: name})
		}
	}
	if s.AlbumName != "" {
		song.Album = &model.BriefAlbum{Source: s.Source, Name: s.AlbumName}
	}
	return song
}
