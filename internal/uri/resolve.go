package uri

import (
	"github.com/handiism/fuo/internal/model"
)

// SourceLookup reports whether a provider with the given identifier is
// registered. provider.Registry satisfies it.
type SourceLookup interface {
	Has(source string) bool
}

// Resolver turns URIs and display lines into brief models.
//
// A Resolver carries the registry it checks sources against, so parsing
// needs no process-wide state.
type Resolver struct {
	sources SourceLookup
}

// NewResolver returns a Resolver backed by sources. A nil sources treats
// every provider as registered.
func NewResolver(sources SourceLookup) *Resolver {
	return &Resolver{sources: sources}
}

// Resolve parses line and returns a brief model filled from its display
// fields. Models whose provider is not registered get StateNotExists;
// the rest are StateArtificial until upgraded.
//
// Example:
//
//	m, err := r.Resolve("fuo://local/songs/1\t# Hey Jude - The Beatles")
//	song := m.(model.BriefSong)
func (r *Resolver) Resolve(line string) (model.Model, error) {
	l, err := ParseLine(line)
	if err != nil {
		return nil, err
	}
	m := l.Brief()
	if r.sources != nil && !r.sources.Has(l.Key.Source) {
		m = model.WithState(m, model.StateNotExists)
	}
	return m, nil
}

// Brief builds the brief model described by the line.
//
// Lyrics have no brief variant and are returned as *model.Lyric.
func (l Line) Brief() model.Model {
	f := func(i int) string {
		if i < len(l.Fields) {
			return l.Fields[i]
		}
		return ""
	}
	src, id := l.Key.Source, l.Key.Identifier
	switch l.Key.Type {
	case model.TypeSong:
		return model.BriefSong{
			Source:      src,
			Identifier:  id,
			Title:       f(0),
			ArtistsName: f(1),
			AlbumName:   f(2),
			DurationMS:  ParseDuration(f(3)),
		}
	case model.TypeAlbum:
		return model.BriefAlbum{Source: src, Identifier: id, Name: f(0), ArtistsName: f(1)}
	case model.TypeArtist:
		return model.BriefArtist{Source: src, Identifier: id, Name: f(0)}
	case model.TypePlaylist:
		return model.BriefPlaylist{Source: src, Identifier: id, Name: f(0)}
	case model.TypeUser:
		return model.BriefUser{Source: src, Identifier: id, Name: f(0)}
	case model.TypeVideo:
		return model.BriefVideo{Source: src, Identifier: id, Title: f(0)}
	}
	return &model.Lyric{Source: src, Identifier: id}
}
