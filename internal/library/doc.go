// Package library is the facade between consumers and providers.
//
// Every operation takes a model, finds the provider owning its source,
// checks the capability flag and calls the provider on a bounded worker
// slot. The possible failures are the provider package's taxonomy:
//
//	provider.ErrProviderNotFound  source not registered
//	provider.ErrNotSupported      flag not declared
//	provider.ErrModelNotFound     provider has no such model
//	provider.ErrMediaNotFound     model has no playable media
//	provider.ErrProviderIO        transport failure inside the provider
//
// # Search
//
// Search fans a query out to every provider and yields results in
// completion order. A slow provider does not hold back the others and a
// failing one yields a result with ErrMsg set.
//
// # Standby
//
// When a song cannot be played from its own provider, ListSongStandby
// searches the other providers for the same recording. RuleStandby scores
// candidates by normalised title, artist overlap and duration; AIStandby
// delegates scoring to an external service over line-delimited JSON and
// prepares media for candidates while scores are still arriving.
package library
