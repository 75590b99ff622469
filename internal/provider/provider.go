package provider

import (
	"context"

	"github.com/handiism/fuo/internal/model"
	"github.com/handiism/fuo/internal/reader"
)

// Provider adapts one music source. Beyond these methods a provider
// implements any subset of the operation interfaces below and declares
// them in Capabilities.
//
// Providers are shared by every caller and must be safe for concurrent use.
type Provider interface {
	// Identifier is the source string used in model URIs, e.g. "local".
	Identifier() string
	// Name is a human readable name.
	Name() string
	Capabilities() Capabilities
}

// Searcher is implemented by providers that can search.
type Searcher interface {
	Search(ctx context.Context, q string, typ model.SearchType, limit int) (*model.SearchResult, error)
}

// Song operations.

type SongGetter interface {
	SongGet(ctx context.Context, id string) (*model.Song, error)
}

// SongMedia serves audio media. A provider with a single quality lists
// just that one.
type SongMedia interface {
	SongListQuality(ctx context.Context, song model.BriefSong) ([]model.Quality, error)
	SongGetMedia(ctx context.Context, song model.BriefSong, q model.Quality) (*model.Media, error)
}

type SongSimilar interface {
	SongListSimilar(ctx context.Context, song model.BriefSong) ([]model.BriefSong, error)
}

type SongHotComments interface {
	SongListHotComments(ctx context.Context, song model.BriefSong) ([]*model.Comment, error)
}

type SongWebURL interface {
	SongGetWebURL(ctx context.Context, song model.BriefSong) (string, error)
}

// SongLyric returns nil, nil when the song has no lyric.
type SongLyric interface {
	SongGetLyric(ctx context.Context, song model.BriefSong) (*model.Lyric, error)
}

// SongMV returns nil, nil when the song has no MV.
type SongMV interface {
	SongGetMV(ctx context.Context, song model.BriefSong) (*model.Video, error)
}

// SongImageMedia converts a picture URL into media carrying the headers
// needed to fetch it.
type SongImageMedia interface {
	SongImgURLToMedia(ctx context.Context, url string) (*model.Media, error)
}

// Album operations.

type AlbumGetter interface {
	AlbumGet(ctx context.Context, id string) (*model.Album, error)
}

type AlbumSongsReader interface {
	AlbumCreateSongsRd(ctx context.Context, album model.BriefAlbum) (reader.Reader[model.BriefSong], error)
}

// Artist operations.

type ArtistGetter interface {
	ArtistGet(ctx context.Context, id string) (*model.Artist, error)
}

type ArtistSongsReader interface {
	ArtistCreateSongsRd(ctx context.Context, artist model.BriefArtist) (reader.Reader[model.BriefSong], error)
}

type ArtistAlbumsReader interface {
	ArtistCreateAlbumsRd(ctx context.Context, artist model.BriefArtist) (reader.Reader[model.BriefAlbum], error)
}

// Playlist operations.

type PlaylistGetter interface {
	PlaylistGet(ctx context.Context, id string) (*model.Playlist, error)
}

type PlaylistSongsReader interface {
	PlaylistCreateSongsRd(ctx context.Context, pl model.BriefPlaylist) (reader.Reader[model.BriefSong], error)
}

type PlaylistEditor interface {
	PlaylistAddSong(ctx context.Context, pl model.BriefPlaylist, song model.BriefSong) error
	PlaylistRemoveSong(ctx context.Context, pl model.BriefPlaylist, song model.BriefSong) error
}

type PlaylistDeleter interface {
	PlaylistDelete(ctx context.Context, pl model.BriefPlaylist) error
}

type PlaylistCreator interface {
	PlaylistCreateByName(ctx context.Context, name string) (model.BriefPlaylist, error)
}

type Toplist interface {
	ToplistList(ctx context.Context) ([]model.BriefPlaylist, error)
}

// Video operations.

type VideoGetter interface {
	VideoGet(ctx context.Context, id string) (*model.Video, error)
}

type VideoMedia interface {
	VideoListQuality(ctx context.Context, video model.BriefVideo) ([]model.Quality, error)
	VideoGetMedia(ctx context.Context, video model.BriefVideo, q model.Quality) (*model.Media, error)
}

// User operations.

type UserGetter interface {
	UserGet(ctx context.Context, id string) (*model.User, error)
}

// CurrentUser returns ErrNoUserLoggedIn when nobody is logged in.
type CurrentUser interface {
	CurrentUser(ctx context.Context) (*model.User, error)
}

type CurrentUserFavorites interface {
	CurrentUserFavCreateSongsRd(ctx context.Context) (reader.Reader[model.BriefSong], error)
}

type CurrentUserDislikes interface {
	CurrentUserDislikeCreateSongsRd(ctx context.Context) (reader.Reader[model.BriefSong], error)
}

type CurrentUserRecent interface {
	CurrentUserListRecentSongs(ctx context.Context) ([]model.BriefSong, error)
}

// Recommendation operations.

// RecCollection is a titled set of recommended items.
type RecCollection struct {
	Name   string
	Songs  []model.BriefSong
	Videos []model.BriefVideo
}

type RecDailySongs interface {
	RecListDailySongs(ctx context.Context) ([]model.BriefSong, error)
}

type RecDailyPlaylists interface {
	RecListDailyPlaylists(ctx context.Context) ([]model.BriefPlaylist, error)
}

type RecSongs interface {
	RecACollectionOfSongs(ctx context.Context) (*RecCollection, error)
}

type RecVideos interface {
	RecACollectionOfVideos(ctx context.Context) (*RecCollection, error)
}

// requirement binds a declared flag to the interface that implements it.
type requirement struct {
	typ      model.ModelType
	flag     Flag
	protocol string
	check    func(Provider) bool
}

func is[T any](p Provider) bool {
	_, ok := p.(T)
	return ok
}

var requirements = []requirement{
	{model.TypeSong, FlagGet, "SongGetter", is[SongGetter]},
	{model.TypeSong, FlagMultiQuality, "SongMedia", is[SongMedia]},
	{model.TypeSong, FlagListSimilar, "SongSimilar", is[SongSimilar]},
	{model.TypeSong, FlagListHotComments, "SongHotComments", is[SongHotComments]},
	{model.TypeSong, FlagWebURL, "SongWebURL", is[SongWebURL]},
	{model.TypeSong, FlagLyric, "SongLyric", is[SongLyric]},
	{model.TypeSong, FlagMV, "SongMV", is[SongMV]},
	{model.TypeSong, FlagImgURLToMedia, "SongImageMedia", is[SongImageMedia]},
	{model.TypeAlbum, FlagGet, "AlbumGetter", is[AlbumGetter]},
	{model.TypeAlbum, FlagListSongs, "AlbumSongsReader", is[AlbumSongsReader]},
	{model.TypeArtist, FlagGet, "ArtistGetter", is[ArtistGetter]},
	{model.TypeArtist, FlagListSongs, "ArtistSongsReader", is[ArtistSongsReader]},
	{model.TypeArtist, FlagListAlbums, "ArtistAlbumsReader", is[ArtistAlbumsReader]},
	{model.TypePlaylist, FlagGet, "PlaylistGetter", is[PlaylistGetter]},
	{model.TypePlaylist, FlagListSongs, "PlaylistSongsReader", is[PlaylistSongsReader]},
	{model.TypePlaylist, FlagPlaylistAddSong, "PlaylistEditor", is[PlaylistEditor]},
	{model.TypePlaylist, FlagPlaylistDelete, "PlaylistDeleter", is[PlaylistDeleter]},
	{model.TypePlaylist, FlagPlaylistCreateByName, "PlaylistCreator", is[PlaylistCreator]},
	{model.TypePlaylist, FlagToplist, "Toplist", is[Toplist]},
	{model.TypeVideo, FlagGet, "VideoGetter", is[VideoGetter]},
	{model.TypeVideo, FlagMultiQuality, "VideoMedia", is[VideoMedia]},
	{model.TypeUser, FlagGet, "UserGetter", is[UserGetter]},
	{model.TypeUser, FlagCurrentUser, "CurrentUser", is[CurrentUser]},
	{model.TypeUser, FlagFavorites, "CurrentUserFavorites", is[CurrentUserFavorites]},
	{model.TypeUser, FlagDislikes, "CurrentUserDislikes", is[CurrentUserDislikes]},
	{model.TypeUser, FlagRecent, "CurrentUserRecent", is[CurrentUserRecent]},
	{model.TypeUser, FlagRecDailySongs, "RecDailySongs", is[RecDailySongs]},
	{model.TypeUser, FlagRecDailyPlaylists, "RecDailyPlaylists", is[RecDailyPlaylists]},
	{model.TypeUser, FlagRecACollectionOfSongs, "RecSongs", is[RecSongs]},
	{model.TypeUser, FlagRecACollectionOfVideos, "RecVideos", is[RecVideos]},
}

// ProtocolName returns the interface name implementing flag for typ, or
// "<type>.<flag>" when no interface is bound to the pair.
func ProtocolName(typ model.ModelType, flag Flag) string {
	for _, r := range requirements {
		if r.typ == typ && r.flag == flag {
			return r.protocol
		}
	}
	return typ.String() + "." + flag.String()
}

// declaredUnbound returns the flags declared for typ that no requirement
// knows about.
func declaredUnbound(typ model.ModelType, declared Flag) Flag {
	for _, r := range requirements {
		if r.typ == typ {
			declared &^= r.flag
		}
	}
	return declared
}
