package library

import (
	"context"
	"math"
	"slices"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/handiism/fuo/internal/model"
	"github.com/handiism/fuo/internal/provider"
)

// StandbyPair is a substitute song and the media it resolved to.
type StandbyPair struct {
	Song  model.BriefSong
	Media *model.Media
}

// StandbyFinder looks for playable equivalents of a song on other
// providers. An empty result with a nil error means nothing was playable.
type StandbyFinder interface {
	FindStandby(ctx context.Context, song model.BriefSong, limit int) ([]StandbyPair, error)
}

// ListSongStandby returns up to the configured limit of playable
// substitutes for song from providers other than its own.
func (l *Library) ListSongStandby(ctx context.Context, song model.BriefSong) ([]StandbyPair, error) {
	return l.standby.FindStandby(ctx, song, l.cfg.StandbyLimit)
}

// Candidate is a search hit considered as a standby, with its score.
type Candidate struct {
	Song  model.BriefSong
	Score float64
}

// searchCandidates queries every searchable provider except the song's own
// for title plus primary artist. Failing providers are skipped.
func (l *Library) searchCandidates(ctx context.Context, song model.BriefSong) []model.BriefSong {
	q := strings.TrimSpace(song.Title + " " + primaryArtist(song.ArtistsName))
	var sources []string
	for _, p := range l.reg.List() {
		if p.Identifier() == song.Source {
			continue
		}
		if _, ok := p.(provider.Searcher); !ok {
			continue
		}
		if !p.Capabilities().Has(model.TypeSong, provider.FlagMultiQuality) {
			continue
		}
		sources = append(sources, p.Identifier())
	}
	if len(sources) == 0 {
		return nil
	}

	var out []model.BriefSong
	for res := range l.Search(ctx, q, SearchOptions{Types: []model.SearchType{model.SearchSong}, Sources: sources}) {
		if res.Failed() {
			l.logger.Debug("standby search failed", "provider", res.Source, "err", res.ErrMsg)
			continue
		}
		out = append(out, res.Songs...)
	}
	return out
}

// ScoreCandidate rates how likely cand is the same recording as origin.
//
// The score is a weighted sum in [0, 1]:
//   - 0.5 for the normalised title (1 if equal, 0.7 if one contains the other)
//   - 0.3 for the share of origin's artists found in cand
//   - 0.2 for 1 - |Δduration| / max(duration), neutral 0.5 when unknown
//
// A candidate whose title does not match at all scores 0.
func ScoreCandidate(origin, cand model.BriefSong) float64 {
	ot, ct := normalizeTitle(origin.Title), normalizeTitle(cand.Title)
	var title float64
	switch {
	case ot == "" || ct == "":
		return 0
	case ot == ct:
		title = 1
	case strings.Contains(ct, ot) || strings.Contains(ot, ct):
		title = 0.7
	default:
		return 0
	}

	oa, ca := artistKeys(origin.ArtistsName), artistKeys(cand.ArtistsName)
	var artist float64
	if len(oa) > 0 {
		hit := 0
		for _, k := range oa {
			if slices.Contains(ca, k) {
				hit++
			}
		}
		artist = float64(hit) / float64(len(oa))
	}

	duration := 0.5
	if origin.DurationMS > 0 && cand.DurationMS > 0 {
		d := math.Abs(float64(origin.DurationMS - cand.DurationMS))
		m := math.Max(float64(origin.DurationMS), float64(cand.DurationMS))
		duration = 1 - d/m
	}
	return 0.5*title + 0.3*artist + 0.2*duration
}

// RuleStandby scores search hits with ScoreCandidate and tries the best
// ones until enough of them resolve to media.
type RuleStandby struct {
	lib *Library
}

func NewRuleStandby(lib *Library) *RuleStandby {
	return &RuleStandby{lib: lib}
}

// Rank scores candidates, drops those under the threshold and sorts the
// rest by score then provider priority.
func (r *RuleStandby) Rank(origin model.BriefSong, cands []model.BriefSong) []Candidate {
	var ranked []Candidate
	for _, c := range cands {
		if c.Key() == origin.Key() {
			continue
		}
		score := ScoreCandidate(origin, c)
		if score < r.lib.cfg.StandbyThreshold {
			continue
		}
		ranked = append(ranked, Candidate{Song: c, Score: score})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return r.lib.priority(ranked[i].Song.Source) < r.lib.priority(ranked[j].Song.Source)
	})
	return ranked
}

func (r *RuleStandby) FindStandby(ctx context.Context, song model.BriefSong, limit int) ([]StandbyPair, error) {
	ranked := r.Rank(song, r.lib.searchCandidates(ctx, song))
	var pairs []StandbyPair
	for _, c := range ranked {
		if len(pairs) >= max(limit, 1) {
			break
		}
		media, err := r.lib.SongPrepareMedia(ctx, c.Song, "")
		if err != nil {
			if ctx.Err() != nil {
				return pairs, ctx.Err()
			}
			r.lib.logger.Debug("standby candidate unplayable", "uri", c.Song.Key().String(), "err", err)
			continue
		}
		pairs = append(pairs, StandbyPair{Song: c.Song, Media: media})
	}
	return pairs, nil
}

// resolveFirst prepares media for songs arriving on in, several at a time,
// and returns the first limit that resolve, in resolution order.
func (l *Library) resolveFirst(parent context.Context, in <-chan model.BriefSong, limit int) ([]StandbyPair, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var (
		mu    sync.Mutex
		pairs []StandbyPair
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(l.cfg.MaxConcurrentCalls, 1))
	for song := range in {
		g.Go(func() error {
			media, err := l.SongPrepareMedia(gctx, song, "")
			if err != nil {
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			if len(pairs) < limit {
				pairs = append(pairs, StandbyPair{Song: song, Media: media})
			}
			if len(pairs) >= limit {
				cancel()
			}
			return nil
		})
		mu.Lock()
		done := len(pairs) >= limit
		mu.Unlock()
		if done {
			break
		}
	}
	_ = g.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(pairs) == 0 && parent.Err() != nil {
		return nil, parent.Err()
	}
	return pairs, nil
}
