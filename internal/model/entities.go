package model

import "time"

// BriefArtist is the one-line form of an artist.
type BriefArtist struct {
	Source     string
	Identifier string
	Name       string
	State      ModelState
}

func (a BriefArtist) Key() Key {
	return Key{Type: TypeArtist, Source: a.Source, Identifier: a.Identifier}
}

func (a BriefArtist) ModelState() ModelState { return a.State }

// Artist is the full form of an artist.
type Artist struct {
	Source      string
	Identifier  string
	Name        string
	Aliases     []string
	PicURL      string
	Description string
	HotSongs    []BriefSong
	SongCount   int
	AlbumCount  int
	State       ModelState
}

func (a *Artist) Key() Key {
	return Key{Type: TypeArtist, Source: a.Source, Identifier: a.Identifier}
}

func (a *Artist) Brief() BriefArtist {
	return BriefArtist{Source: a.Source, Identifier: a.Identifier, Name: a.Name, State: StateExists}
}

// BriefPlaylist is the one-line form of a playlist.
type BriefPlaylist struct {
	Source      string
	Identifier  string
	Name        string
	CreatorName string
	State       ModelState
}

func (p BriefPlaylist) Key() Key {
	return Key{Type: TypePlaylist, Source: p.Source, Identifier: p.Identifier}
}

func (p BriefPlaylist) ModelState() ModelState { return p.State }

// Playlist is the full form of a provider-side playlist.
type Playlist struct {
	Source      string
	Identifier  string
	Name        string
	Cover       string
	Description string
	Creator     *BriefUser
	PlayCount   int
	State       ModelState
}

func (p *Playlist) Key() Key {
	return Key{Type: TypePlaylist, Source: p.Source, Identifier: p.Identifier}
}

func (p *Playlist) Brief() BriefPlaylist {
	b := BriefPlaylist{Source: p.Source, Identifier: p.Identifier, Name: p.Name, State: StateExists}
	if p.Creator != nil {
		b.CreatorName = p.Creator.Name
	}
	return b
}

// BriefVideo is the one-line form of a video (usually an MV).
type BriefVideo struct {
	Source      string
	Identifier  string
	Title       string
	ArtistsName string
	DurationMS  int64
	State       ModelState
}

func (v BriefVideo) Key() Key {
	return Key{Type: TypeVideo, Source: v.Source, Identifier: v.Identifier}
}

func (v BriefVideo) ModelState() ModelState { return v.State }

// Video is the full form of a video.
type Video struct {
	Source     string
	Identifier string
	Title      string
	Artists    []BriefArtist
	DurationMS int64
	Cover      string
	PlayCount  int
	State      ModelState
}

func (v *Video) Key() Key {
	return Key{Type: TypeVideo, Source: v.Source, Identifier: v.Identifier}
}

func (v *Video) Brief() BriefVideo {
	return BriefVideo{
		Source:      v.Source,
		Identifier:  v.Identifier,
		Title:       v.Title,
		ArtistsName: JoinArtists(v.Artists),
		DurationMS:  v.DurationMS,
		State:       StateExists,
	}
}

// BriefUser is the one-line form of a user.
type BriefUser struct {
	Source     string
	Identifier string
	Name       string
	State      ModelState
}

func (u BriefUser) Key() Key {
	return Key{Type: TypeUser, Source: u.Source, Identifier: u.Identifier}
}

func (u BriefUser) ModelState() ModelState { return u.State }

// User is the full form of a user.
type User struct {
	Source        string
	Identifier    string
	Name          string
	AvatarURL     string
	Description   string
	FollowerCount int
	State         ModelState
}

func (u *User) Key() Key {
	return Key{Type: TypeUser, Source: u.Source, Identifier: u.Identifier}
}

func (u *User) Brief() BriefUser {
	return BriefUser{Source: u.Source, Identifier: u.Identifier, Name: u.Name, State: StateExists}
}

// Lyric carries timed lyric text and an optional time-aligned translation.
//
// Content and TransContent use the LRC format understood by package lyric.
// Providers without timing information return plain text, which the
// synchronizer treats as having no timed lines.
type Lyric struct {
	Source       string
	Identifier   string
	Content      string
	TransContent string
}

func (l *Lyric) Key() Key {
	return Key{Type: TypeLyric, Source: l.Source, Identifier: l.Identifier}
}

// HasTranslation returns true if the lyric carries a translation track.
func (l *Lyric) HasTranslation() bool {
	return l.TransContent != ""
}

// BriefComment is a comment reference used for replies.
type BriefComment struct {
	Source     string
	Identifier string
	UserName   string
	Content    string
}

func (c BriefComment) Key() Key {
	return Key{Type: TypeComment, Source: c.Source, Identifier: c.Identifier}
}

// Comment is a user comment on a song, album, playlist or video.
type Comment struct {
	Source     string
	Identifier string
	User       BriefUser
	Content    string
	LikedCount int
	Time       time.Time
	Parent     *BriefComment
}

func (c *Comment) Key() Key {
	return Key{Type: TypeComment, Source: c.Source, Identifier: c.Identifier}
}
