package library

import (
	"context"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/handiism/fuo/internal/model"
	"github.com/handiism/fuo/internal/provider"
)

// SearchOptions narrows a fan-out search.
type SearchOptions struct {
	// Types defaults to songs only.
	Types []model.SearchType
	// Sources defaults to every searchable provider.
	Sources []string
	// Limit is the per-provider limit; 0 uses the configured one.
	Limit int
	// Timeout bounds each provider call; 0 means no bound.
	Timeout time.Duration
}

// Search queries every selected provider for every selected type in
// parallel and yields one SearchResult per (provider, type) in completion
// order. The channel is closed once all providers have answered.
//
// A failing provider yields a result with ErrMsg set; Search itself never
// fails. Cancel ctx to abandon the search early.
//
// Example:
//
//	for res := range lib.Search(ctx, "yesterday", library.SearchOptions{}) {
//	    if res.Failed() {
//	        log.Printf("%s: %s", res.Source, res.ErrMsg)
//	        continue
//	    }
//	    show(res.Songs)
//	}
func (l *Library) Search(ctx context.Context, q string, opts SearchOptions) <-chan model.SearchResult {
	types := opts.Types
	if len(types) == 0 {
		types = []model.SearchType{model.SearchSong}
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = l.cfg.SearchLimit
	}

	var providers []provider.Provider
	if len(opts.Sources) == 0 {
		for _, p := range l.reg.List() {
			if _, ok := p.(provider.Searcher); ok {
				providers = append(providers, p)
			}
		}
	} else {
		for _, p := range l.reg.List() {
			if slices.Contains(opts.Sources, p.Identifier()) {
				providers = append(providers, p)
			}
		}
	}

	// buffered so producers never block on a consumer that stopped reading
	out := make(chan model.SearchResult, len(providers)*len(types))
	var g errgroup.Group
	for _, p := range providers {
		for _, typ := range types {
			g.Go(func() error {
				out <- l.searchOne(ctx, p, q, typ, limit, opts.Timeout)
				return nil
			})
		}
	}
	go func() {
		_ = g.Wait()
		close(out)
	}()
	return out
}

// SearchAll collects every result of Search.
func (l *Library) SearchAll(ctx context.Context, q string, opts SearchOptions) []model.SearchResult {
	var results []model.SearchResult
	for res := range l.Search(ctx, q, opts) {
		results = append(results, res)
	}
	return results
}

func (l *Library) searchOne(ctx context.Context, p provider.Provider, q string, typ model.SearchType, limit int, timeout time.Duration) model.SearchResult {
	id := p.Identifier()
	failed := func(err error) model.SearchResult {
		l.logger.Warn("search failed", "provider", id, "type", typ, "err", err)
		return model.SearchResult{Source: id, Type: typ, Q: q, ErrMsg: err.Error()}
	}

	s, ok := p.(provider.Searcher)
	if !ok {
		return failed(&provider.NotSupportedError{Provider: id, Protocol: "Searcher"})
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	res, err := run(ctx, l, id, func(ctx context.Context) (*model.SearchResult, error) {
		return s.Search(ctx, q, typ, limit)
	})
	if err != nil {
		return failed(err)
	}
	if res == nil {
		return failed(fmt.Errorf("provider %q returned no result", id))
	}
	r := *res
	r.Source, r.Type, r.Q = id, typ, q
	return r
}
