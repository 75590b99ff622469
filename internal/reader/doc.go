// Package reader provides lazy pagination over remote lists.
//
// A provider listing may be a generator that can only be walked forwards,
// a paged API with a known total, or an asynchronous stream. All three are
// exposed through the Reader interface so callers never load a 10k song
// playlist just to show its first page.
//
// # Sequential
//
// Sequential wraps a NextFunc. Its count may be unknown until the generator
// is exhausted:
//
//	r := reader.NewSequential(reader.Pages(fetchPage), -1)
//	first20, err := reader.Take(ctx, r, 20)
//
// # Random
//
// Random wraps a FetchFunc over a list of known size and fetches windows
// of at most maxPerRead items, never refetching a filled range:
//
//	r := reader.NewRandom(fetch, total, 50)
//	song, err := r.Read(ctx, 1234)
//
// # Stream
//
// NewStream runs a producer goroutine feeding a bounded channel and reads
// from it sequentially.
package reader
