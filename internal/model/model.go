package model

import "fmt"

// ModelType is the closed set of entity kinds a provider can serve.
type ModelType int

const (
	TypeSong ModelType = iota
	TypeAlbum
	TypeArtist
	TypePlaylist
	TypeVideo
	TypeUser
	TypeLyric
	TypeComment
)

var typeNames = [...]string{"song", "album", "artist", "playlist", "video", "user", "lyric", "comment"}

// AllTypes lists every ModelType in declaration order.
func AllTypes() []ModelType {
	return []ModelType{TypeSong, TypeAlbum, TypeArtist, TypePlaylist, TypeVideo, TypeUser, TypeLyric, TypeComment}
}

func (t ModelType) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("ModelType(%d)", int(t))
	}
	return typeNames[t]
}

// Namespace returns the URI path segment for the type, e.g. "songs".
func (t ModelType) Namespace() string {
	return t.String() + "s"
}

// TypeFromNamespace maps a URI namespace back to its ModelType.
func TypeFromNamespace(ns string) (ModelType, bool) {
	for i, name := range typeNames {
		if name+"s" == ns {
			return ModelType(i), true
		}
	}
	return 0, false
}

// Key is the identity of a model. Two models are the same entity
// iff their keys are equal.
type Key struct {
	Type       ModelType
	Source     string
	Identifier string
}

func (k Key) String() string {
	return fmt.Sprintf("fuo://%s/%s/%s", k.Source, k.Type.Namespace(), k.Identifier)
}

// ModelState tracks how much is known about a model.
type ModelState int

const (
	// StateArtificial is a model built locally (e.g. parsed from a .fuo line)
	// that has not been checked against its provider yet.
	StateArtificial ModelState = iota
	// StateExists means the provider is known to serve the model.
	StateExists
	// StateNotExists means the provider is missing or reported the model gone.
	StateNotExists
	// StateCantUpgrade means the provider cannot return the full variant.
	StateCantUpgrade
	// StateUpgraded means the model carries full fields.
	StateUpgraded
)

func (s ModelState) String() string {
	switch s {
	case StateArtificial:
		return "artificial"
	case StateExists:
		return "exists"
	case StateNotExists:
		return "not_exists"
	case StateCantUpgrade:
		return "cant_upgrade"
	case StateUpgraded:
		return "upgraded"
	}
	return fmt.Sprintf("ModelState(%d)", int(s))
}

// Upgradable reports whether an upgrade attempt is still worth making.
func (s ModelState) Upgradable() bool {
	return s != StateNotExists && s != StateCantUpgrade
}

// Model is implemented by every brief and full entity.
type Model interface {
	Key() Key
}

// BriefModel is a cheap, line-renderable model that may be upgraded later.
type BriefModel interface {
	Model
	ModelState() ModelState
}

// WithState returns a copy of a brief model with its state replaced.
// Models that carry no state are returned unchanged.
func WithState(m Model, st ModelState) Model {
	switch v := m.(type) {
	case BriefSong:
		v.State = st
		return v
	case BriefAlbum:
		v.State = st
		return v
	case BriefArtist:
		v.State = st
		return v
	case BriefPlaylist:
		v.State = st
		return v
	case BriefVideo:
		v.State = st
		return v
	case BriefUser:
		v.State = st
		return v
	}
	return m
}
