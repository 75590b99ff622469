// Package uri implements the textual model grammar.
//
// A model URI has the form
//
//	fuo://<source>/<namespace>/<identifier>
//
// where source and namespace match [a-z][a-z0-9_]* and the identifier is
// any run of characters other than whitespace and "/". A display line adds
// human readable fields after a tab:
//
//	fuo://local/songs/abc	# Title - Artist - "Album - Special" - 03:12
//
// Fields containing " - " are written as JSON strings so they survive a
// round trip. Display fields are informational; loaders use them only to
// fill brief models until the owning provider is asked.
//
// # Resolving
//
// Resolver parses a line into a brief model and marks it not_exists when
// its provider is unknown:
//
//	r := uri.NewResolver(registry)
//	m, err := r.Resolve(line)
package uri
