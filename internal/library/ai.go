package library

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/handiism/fuo/internal/http"
	"github.com/handiism/fuo/internal/model"
)

// Scorer rates standby candidates, reporting each score through fn as soon
// as it is known. Scores may arrive in any order and for any subset of the
// candidates.
type Scorer interface {
	Score(ctx context.Context, origin model.BriefSong, cands []model.BriefSong, fn func(index int, score float64) error) error
}

type scoreSong struct {
	Index      int    `json:"index"`
	Source     string `json:"source"`
	Title      string `json:"title"`
	Artists    string `json:"artists"`
	Album      string `json:"album,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
}

func toScoreSong(i int, s model.BriefSong) scoreSong {
	return scoreSong{Index: i, Source: s.Source, Title: s.Title, Artists: s.ArtistsName, Album: s.AlbumName, DurationMS: s.DurationMS}
}

type scoreRequest struct {
	Song       scoreSong   `json:"song"`
	Candidates []scoreSong `json:"candidates"`
}

type scoreLine struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// HTTPScorer asks an external scoring service over line-delimited JSON.
//
// The request body is
//
//	{"song": {...}, "candidates": [{"index": 0, "title": ...}, ...]}
//
// and the service answers with one {"index": i, "score": s} object per line,
// best guesses first.
type HTTPScorer struct {
	client *http.Client
	url    string
}

// NewHTTPScorer creates a scorer posting to url.
func NewHTTPScorer(client *http.Client, url string) *HTTPScorer {
	return &HTTPScorer{client: client, url: url}
}

func (s *HTTPScorer) Score(ctx context.Context, origin model.BriefSong, cands []model.BriefSong, fn func(int, float64) error) error {
	req := scoreRequest{Song: toScoreSong(-1, origin)}
	for i, c := range cands {
		req.Candidates = append(req.Candidates, toScoreSong(i, c))
	}
	return s.client.PostLines(ctx, s.url, req, func(line []byte) error {
		var sl scoreLine
		if err := json.Unmarshal(line, &sl); err != nil {
			return fmt.Errorf("decode score line %q: %w", line, err)
		}
		return fn(sl.Index, sl.Score)
	})
}

// AIStandby streams candidates to a Scorer and prepares media for every
// candidate scoring above the threshold as soon as its score arrives. The
// first candidates whose media resolve win.
//
// When the scorer fails before anything resolved, the fallback finder is
// used if set.
type AIStandby struct {
	lib       *Library
	scorer    Scorer
	threshold float64
	fallback  StandbyFinder
}

// NewAIStandby creates an AI standby finder. fallback may be nil.
func NewAIStandby(lib *Library, scorer Scorer, threshold float64, fallback StandbyFinder) *AIStandby {
	return &AIStandby{lib: lib, scorer: scorer, threshold: threshold, fallback: fallback}
}

func (a *AIStandby) FindStandby(ctx context.Context, song model.BriefSong, limit int) ([]StandbyPair, error) {
	cands := a.lib.searchCandidates(ctx, song)
	if len(cands) == 0 {
		return nil, ctx.Err()
	}

	sctx, cancel := context.WithCancel(ctx)
	defer cancel()

	accepted := make(chan model.BriefSong)
	scoreErr := make(chan error, 1)
	go func() {
		defer close(accepted)
		seen := make(map[int]bool)
		scoreErr <- a.scorer.Score(sctx, song, cands, func(i int, score float64) error {
			if i < 0 || i >= len(cands) || seen[i] || score < a.threshold {
				return nil
			}
			seen[i] = true
			select {
			case accepted <- cands[i]:
				return nil
			case <-sctx.Done():
				return sctx.Err()
			}
		})
	}()

	pairs, err := a.lib.resolveFirst(sctx, accepted, max(limit, 1))
	cancel()
	serr := <-scoreErr
	if len(pairs) > 0 {
		return pairs, nil
	}
	if err != nil {
		return nil, err
	}
	if serr != nil && ctx.Err() == nil {
		a.lib.logger.Warn("standby scorer failed", "uri", song.Key().String(), "err", serr)
		if a.fallback != nil {
			return a.fallback.FindStandby(ctx, song, limit)
		}
	}
	return nil, ctx.Err()
}
