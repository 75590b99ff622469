// Package provider defines the plugin contract for music sources.
//
// A provider implements Provider plus any subset of the small operation
// interfaces in this package (SongGetter, SongMedia, AlbumSongsReader, ...).
// It declares what it implements in Capabilities, one Flag set per model
// type, and the Registry refuses a provider whose flags and methods
// disagree.
//
// # Dispatch
//
// Callers never type-assert providers directly. Lookup resolves the
// provider for a source and checks the flag in one step:
//
//	m, err := provider.Lookup[provider.SongMedia](reg, song.Source, model.TypeSong, provider.FlagMultiQuality)
//	switch {
//	case errors.Is(err, provider.ErrProviderNotFound):
//	case errors.Is(err, provider.ErrNotSupported):
//	}
//
// # Errors
//
// Providers return ErrModelNotFound, *MediaNotFoundError or
// ErrNoUserLoggedIn for the conditions they describe. Transport failures
// are wrapped with WrapIO so they match ErrProviderIO.
package provider
