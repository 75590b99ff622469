package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/handiism/fuo/internal/download"
	ioutils "github.com/handiism/fuo/internal/io"
	"github.com/handiism/fuo/internal/library"
)

// EnvPrefix prefixes environment overrides, e.g. FUO_SERVER_ADDR.
const EnvPrefix = "FUO"

// Settings holds all configuration options.
type Settings struct {
	// Storage
	CollectionsDir  string   `mapstructure:"collections_dir"`
	LocalMusicDirs  []string `mapstructure:"local_music_dirs"`
	ArtworkCacheDir string   `mapstructure:"artwork_cache_dir"`

	// Playback
	AudioSelectPolicy string `mapstructure:"audio_select_policy"`
	VideoSelectPolicy string `mapstructure:"video_select_policy"`
	LyricOffsetMS     int    `mapstructure:"lyric_offset_ms"`
	RecentCapacity    int    `mapstructure:"recent_capacity"`

	// Providers
	StandbyThreshold           float64  `mapstructure:"standby_threshold"`
	StandbyLimit               int      `mapstructure:"standby_limit"`
	StandbyAIURL               string   `mapstructure:"standby_ai_url"`
	ProviderPriority           []string `mapstructure:"provider_priority"`
	SearchLimit                int      `mapstructure:"search_limit"`
	MaxConcurrentProviderCalls int      `mapstructure:"max_concurrent_provider_calls"`
	MetadataTimeoutMS          int      `mapstructure:"metadata_timeout_ms"`
	ReaderPageSize             int      `mapstructure:"reader_page_size"`
	BandcampEnabled            bool     `mapstructure:"bandcamp_enabled"`

	// Control server
	ServerAddr string `mapstructure:"server_addr"`

	// Download settings
	DownloadDir           string  `mapstructure:"download_dir"`
	DownloadMaxRetries    int     `mapstructure:"download_max_retries"`
	DownloadRetryCooldown float64 `mapstructure:"download_retry_cooldown"`
	DownloadRetryExponent float64 `mapstructure:"download_retry_exponent"`
	MaxConcurrentDownload int     `mapstructure:"max_concurrent_downloads"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"` // text, json
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	homeDir, _ := os.UserHomeDir()
	base := filepath.Join(homeDir, ".fuo")
	lib := library.DefaultConfig()
	return &Settings{
		CollectionsDir:  filepath.Join(base, "collections"),
		LocalMusicDirs:  []string{filepath.Join(homeDir, "Music")},
		ArtworkCacheDir: filepath.Join(base, "cache", "artwork"),

		AudioSelectPolicy: lib.AudioPolicy,
		VideoSelectPolicy: lib.VideoPolicy,
		LyricOffsetMS:     300,
		RecentCapacity:    100,

		StandbyThreshold:           lib.StandbyThreshold,
		StandbyLimit:               lib.StandbyLimit,
		ProviderPriority:           []string{},
		SearchLimit:                lib.SearchLimit,
		MaxConcurrentProviderCalls: lib.MaxConcurrentCalls,
		MetadataTimeoutMS:          1000,
		ReaderPageSize:             50,
		BandcampEnabled:            true,

		ServerAddr: "127.0.0.1:23333",

		DownloadDir:           filepath.Join(homeDir, "Music", "fuo"),
		DownloadMaxRetries:    7,
		DownloadRetryCooldown: 0.2,
		DownloadRetryExponent: 4.0,
		MaxConcurrentDownload: 4,

		LogLevel:  "info",
		LogFormat: "text",
	}
}

// values flattens s into viper keys.
func (s *Settings) values() map[string]any {
	return map[string]any{
		"collections_dir":               s.CollectionsDir,
		"local_music_dirs":              s.LocalMusicDirs,
		"artwork_cache_dir":             s.ArtworkCacheDir,
		"audio_select_policy":           s.AudioSelectPolicy,
		"video_select_policy":           s.VideoSelectPolicy,
		"lyric_offset_ms":               s.LyricOffsetMS,
		"recent_capacity":               s.RecentCapacity,
		"standby_threshold":             s.StandbyThreshold,
		"standby_limit":                 s.StandbyLimit,
		"standby_ai_url":                s.StandbyAIURL,
		"provider_priority":             s.ProviderPriority,
		"search_limit":                  s.SearchLimit,
		"max_concurrent_provider_calls": s.MaxConcurrentProviderCalls,
		"metadata_timeout_ms":           s.MetadataTimeoutMS,
		"reader_page_size":              s.ReaderPageSize,
		"bandcamp_enabled":              s.BandcampEnabled,
		"server_addr":                   s.ServerAddr,
		"download_dir":                  s.DownloadDir,
		"download_max_retries":          s.DownloadMaxRetries,
		"download_retry_cooldown":       s.DownloadRetryCooldown,
		"download_retry_exponent":       s.DownloadRetryExponent,
		"max_concurrent_downloads":      s.MaxConcurrentDownload,
		"log_level":                     s.LogLevel,
		"log_format":                    s.LogFormat,
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	for k, val := range DefaultSettings().values() {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return v
}

// Load reads settings from a TOML, JSON or YAML file, chosen by extension.
// Missing keys, and a missing file, fall back to DefaultSettings. FUO_*
// environment variables override both.
func Load(path string) (*Settings, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Validate rejects values no component can work with.
func (s *Settings) Validate() error {
	if _, err := parseLevel(s.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(s.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", s.LogFormat)
	}
	if s.StandbyThreshold < 0 || s.StandbyThreshold > 1 {
		return fmt.Errorf("standby_threshold %v out of [0, 1]", s.StandbyThreshold)
	}
	return nil
}

// Save writes settings to path. The format follows the extension.
func (s *Settings) Save(path string) error {
	if err := ioutils.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	v := viper.New()
	for k, val := range s.values() {
		v.Set(k, val)
	}
	return v.WriteConfigAs(path)
}

// ToLibraryConfig converts settings to a library.Config.
func (s *Settings) ToLibraryConfig() library.Config {
	return library.Config{
		AudioPolicy:        s.AudioSelectPolicy,
		VideoPolicy:        s.VideoSelectPolicy,
		MaxConcurrentCalls: s.MaxConcurrentProviderCalls,
		Priority:           s.ProviderPriority,
		SearchLimit:        s.SearchLimit,
		StandbyThreshold:   s.StandbyThreshold,
		StandbyLimit:       s.StandbyLimit,
	}
}

// ToDownloadConfig converts settings to a download.Config.
func (s *Settings) ToDownloadConfig() download.Config {
	cfg := download.DefaultConfig(s.DownloadDir)
	cfg.AudioPolicy = s.AudioSelectPolicy
	cfg.MaxRetries = s.DownloadMaxRetries
	cfg.RetryCooldown = s.DownloadRetryCooldown
	cfg.RetryExponent = s.DownloadRetryExponent
	cfg.MaxConcurrent = s.MaxConcurrentDownload
	return cfg
}

func (s *Settings) LyricOffset() time.Duration {
	return time.Duration(s.LyricOffsetMS) * time.Millisecond
}

func (s *Settings) MetadataTimeout() time.Duration {
	return time.Duration(s.MetadataTimeoutMS) * time.Millisecond
}

// NewLogger builds the slog logger described by log_level and log_format.
// verbose forces the debug level.
func (s *Settings) NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level, err := parseLevel(s.LogLevel)
	if err != nil || verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(s.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return l, nil
}
