package provider_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/fuo/internal/model"
	"github.com/handiism/fuo/internal/provider"
	"github.com/handiism/fuo/internal/provider/providertest"
)

type bare struct {
	id   string
	caps provider.Capabilities
}

func (b bare) Identifier() string                   { return b.id }
func (b bare) Name() string                         { return b.id }
func (b bare) Capabilities() provider.Capabilities { return b.caps }

func TestRegistry_RegisterTwiceFails(t *testing.T) {
	reg := provider.NewRegistry()
	require.NoError(t, reg.Register(providertest.New("a")))

	err := reg.Register(providertest.New("a"))
	assert.ErrorIs(t, err, provider.ErrProviderAlreadyRegistered)
	assert.Len(t, reg.List(), 1)
}

func TestRegistry_InconsistentCapabilityRejected(t *testing.T) {
	reg := provider.NewRegistry()
	p := bare{id: "x", caps: provider.Capabilities{model.TypeSong: provider.FlagGet}}

	err := reg.Register(p)
	assert.ErrorIs(t, err, provider.ErrInconsistentCapability)
	assert.Contains(t, err.Error(), "SongGetter")
	assert.False(t, reg.Has("x"))
}

func TestRegistry_UnknownFlagRejected(t *testing.T) {
	p := bare{id: "x", caps: provider.Capabilities{model.TypeLyric: provider.FlagGet}}
	assert.ErrorIs(t, provider.Validate(p), provider.ErrInconsistentCapability)
}

func TestRegistry_OrderAndSignals(t *testing.T) {
	reg := provider.NewRegistry()
	var added, removed []string
	reg.Added.Connect(func(p provider.Provider) { added = append(added, p.Identifier()) })
	reg.Removed.Connect(func(p provider.Provider) { removed = append(removed, p.Identifier()) })

	for _, id := range []string{"b", "a", "c"} {
		require.NoError(t, reg.Register(providertest.New(id)))
	}
	assert.True(t, reg.Remove("a"))
	assert.False(t, reg.Remove("a"))

	var ids []string
	for _, p := range reg.List() {
		ids = append(ids, p.Identifier())
	}
	assert.Equal(t, []string{"b", "c"}, ids)
	assert.Equal(t, []string{"b", "a", "c"}, added)
	assert.Equal(t, []string{"a"}, removed)
}

func TestLookup(t *testing.T) {
	reg := provider.NewRegistry()
	fake := providertest.New("f")
	fake.Caps = provider.Capabilities{model.TypeSong: provider.FlagGet}
	require.NoError(t, reg.Register(fake))

	g, err := provider.Lookup[provider.SongGetter](reg, "f", model.TypeSong, provider.FlagGet)
	require.NoError(t, err)
	assert.NotNil(t, g)

	// implemented but not declared
	_, err = provider.Lookup[provider.SongLyric](reg, "f", model.TypeSong, provider.FlagLyric)
	var nse *provider.NotSupportedError
	require.ErrorAs(t, err, &nse)
	assert.Equal(t, "f", nse.Provider)
	assert.Equal(t, "SongLyric", nse.Protocol)
	assert.ErrorIs(t, err, provider.ErrNotSupported)

	_, err = provider.Lookup[provider.SongGetter](reg, "missing", model.TypeSong, provider.FlagGet)
	assert.ErrorIs(t, err, provider.ErrProviderNotFound)
}

func TestWrapIO(t *testing.T) {
	assert.NoError(t, provider.WrapIO("p", nil))

	err := provider.WrapIO("p", errors.New("connection reset"))
	var ioe *provider.IOError
	require.ErrorAs(t, err, &ioe)
	assert.Equal(t, "p", ioe.Provider)
	assert.ErrorIs(t, err, provider.ErrProviderIO)
	assert.Contains(t, err.Error(), "connection reset")

	nf := provider.NewMediaNotFound("gone")
	assert.Same(t, nf, provider.WrapIO("p", nf))
}

func TestExpected(t *testing.T) {
	assert.True(t, provider.Expected(provider.NewMediaNotFound("")))
	assert.True(t, provider.Expected(&provider.IOError{Provider: "p"}))
	assert.True(t, provider.Expected(provider.ErrModelNotFound))
	assert.True(t, provider.Expected(context.DeadlineExceeded))
	assert.False(t, provider.Expected(errors.New("nil pointer")))
	assert.False(t, provider.Expected(context.Canceled))
}

func TestFlagString(t *testing.T) {
	assert.Equal(t, "get|lyric", (provider.FlagGet | provider.FlagLyric).String())
	assert.Equal(t, "none", provider.FlagNone.String())
}

func TestFake_SearchAndMedia(t *testing.T) {
	ctx := context.Background()
	f := providertest.New("f")
	s := f.AddSong(&model.Song{Identifier: "1", Title: "Hello", Artists: []model.BriefArtist{{Name: "Adele"}}}, "http://m/1")

	res, err := f.Search(ctx, "adele", model.SearchSong, 10)
	require.NoError(t, err)
	assert.Equal(t, []model.BriefSong{s}, res.Songs)

	m, err := f.SongGetMedia(ctx, s, model.AudioHQ)
	require.NoError(t, err)
	assert.Equal(t, "http://m/1", m.URL)
	assert.Equal(t, 1, f.Calls("SongGetMedia"))

	require.NoError(t, provider.Validate(f))
}
