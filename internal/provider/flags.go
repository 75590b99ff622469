package provider

import (
	"strings"

	"github.com/handiism/fuo/internal/model"
)

// Flag is one capability bit. Flags are declared per model type; the same
// bit means different operations for different types (FlagGet on songs is
// SongGet, on albums AlbumGet).
type Flag uint32

const (
	FlagGet Flag = 1 << iota
	FlagListSongs
	FlagListAlbums
	FlagListSimilar
	FlagListHotComments
	FlagWebURL
	FlagLyric
	FlagMV
	FlagRecent
	FlagFavorites
	FlagDislikes
	FlagRecDailyPlaylists
	FlagRecDailySongs
	FlagRecACollectionOfSongs
	FlagRecACollectionOfVideos
	FlagPlaylistAddSong
	FlagPlaylistDelete
	FlagPlaylistCreateByName
	FlagToplist
	FlagCurrentUser
	FlagMultiQuality
	FlagImgURLToMedia

	FlagNone Flag = 0
)

var flagNames = map[Flag]string{
	FlagGet:                    "get",
	FlagListSongs:              "list_songs",
	FlagListAlbums:             "list_albums",
	FlagListSimilar:            "list_similar",
	FlagListHotComments:        "list_hot_comments",
	FlagWebURL:                 "web_url",
	FlagLyric:                  "lyric",
	FlagMV:                     "mv",
	FlagRecent:                 "recent",
	FlagFavorites:              "favorites",
	FlagDislikes:               "dislikes",
	FlagRecDailyPlaylists:      "rec_daily_playlists",
	FlagRecDailySongs:          "rec_daily_songs",
	FlagRecACollectionOfSongs:  "rec_a_collection_of_songs",
	FlagRecACollectionOfVideos: "rec_a_collection_of_videos",
	FlagPlaylistAddSong:        "playlist_add_song",
	FlagPlaylistDelete:         "playlist_delete",
	FlagPlaylistCreateByName:   "playlist_create_by_name",
	FlagToplist:                "toplist",
	FlagCurrentUser:            "current_user",
	FlagMultiQuality:           "multi_quality",
	FlagImgURLToMedia:          "img_url_to_media",
}

// String renders set bits joined by "|", e.g. "get|lyric".
func (f Flag) String() string {
	if f == FlagNone {
		return "none"
	}
	var parts []string
	for bit := Flag(1); bit != 0 && bit <= f; bit <<= 1 {
		if f&bit != 0 {
			if name, ok := flagNames[bit]; ok {
				parts = append(parts, name)
			}
		}
	}
	return strings.Join(parts, "|")
}

// Capabilities maps each model type to the operations a provider supports
// for it.
//
// Example:
//
//	caps := provider.Capabilities{
//	    model.TypeSong:  provider.FlagGet | provider.FlagMultiQuality | provider.FlagLyric,
//	    model.TypeAlbum: provider.FlagGet,
//	}
type Capabilities map[model.ModelType]Flag

// Has returns true if every bit of f is set for t.
func (c Capabilities) Has(t model.ModelType, f Flag) bool {
	return c[t]&f == f && f != FlagNone
}
