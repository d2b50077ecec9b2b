package matcher

import (
	"sort"

	"github.com/scriptwatch/scriptwatch/internal/config"
	"github.com/scriptwatch/scriptwatch/internal/fingerprint"
	"github.com/scriptwatch/scriptwatch/internal/urlhandler"

	"github.com/agnivade/levenshtein"
	"github.com/rs/zerolog"
)

// RenameRecord is one inferred rename/move: a removed URL whose content is
// structurally close enough to an added URL's content.
type RenameRecord struct {
	OldURL string
	NewURL string
	Score  float64
}

// MatchResult carries the committed rename pairs and the URLs left over as
// genuine adds and removes.
type MatchResult struct {
	Renamed          []RenameRecord
	RemainingAdded   []string
	RemainingRemoved []string
}

// candidate is one scored Added x Removed pair under consideration.
type candidate struct {
	oldURL       string
	newURL       string
	score        float64
	pathDistance int
}

// SimilarityMatcher pairs removed and added files that are likely the same
// file renamed or moved, using fingerprint similarity.
type SimilarityMatcher struct {
	logger    zerolog.Logger
	engine    *fingerprint.Engine
	threshold float64
}

// NewSimilarityMatcher creates a matcher over the given fingerprint engine.
func NewSimilarityMatcher(engine *fingerprint.Engine, cfg config.MatcherConfig, logger zerolog.Logger) *SimilarityMatcher {
	threshold := cfg.SimilarityThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = config.DefaultSimilarityThreshold
	}
	return &SimilarityMatcher{
		logger:    logger.With().Str("component", "SimilarityMatcher").Logger(),
		engine:    engine,
		threshold: threshold,
	}
}

// Match computes the full bipartite similarity matrix across added and
// removed URLs and resolves it with a greedy maximum-weight matching: the
// highest-scoring pair at or above the threshold is committed first, both
// endpoints leave the pool, and the process repeats. Ties in score are broken
// by the shorter Levenshtein distance between the two URL paths, then by the
// lexicographically smaller new URL, so output is deterministic. Cost is
// O(|added| x |removed|) similarity comparisons; per-cycle change sets are
// expected to be small.
func (sm *SimilarityMatcher) Match(added, removed []string, fingerprints map[string]fingerprint.Vector) MatchResult {
	if len(added) == 0 || len(removed) == 0 {
		return MatchResult{RemainingAdded: added, RemainingRemoved: removed}
	}

	candidates := sm.collectCandidates(added, removed, fingerprints)
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.pathDistance != b.pathDistance {
			return a.pathDistance < b.pathDistance
		}
		return a.newURL < b.newURL
	})

	consumedAdded := make(map[string]struct{})
	consumedRemoved := make(map[string]struct{})

	var result MatchResult
	for _, c := range candidates {
		if _, taken := consumedAdded[c.newURL]; taken {
			continue
		}
		if _, taken := consumedRemoved[c.oldURL]; taken {
			continue
		}
		consumedAdded[c.newURL] = struct{}{}
		consumedRemoved[c.oldURL] = struct{}{}
		result.Renamed = append(result.Renamed, RenameRecord{
			OldURL: c.oldURL,
			NewURL: c.newURL,
			Score:  c.score,
		})
		sm.logger.Info().
			Str("old_url", c.oldURL).
			Str("new_url", c.newURL).
			Float64("score", c.score).
			Msg("Inferred rename")
	}

	for _, u := range added {
		if _, taken := consumedAdded[u]; !taken {
			result.RemainingAdded = append(result.RemainingAdded, u)
		}
	}
	for _, u := range removed {
		if _, taken := consumedRemoved[u]; !taken {
			result.RemainingRemoved = append(result.RemainingRemoved, u)
		}
	}
	return result
}

// collectCandidates scores every Added x Removed pair and keeps those at or
// above the threshold.
func (sm *SimilarityMatcher) collectCandidates(added, removed []string, fingerprints map[string]fingerprint.Vector) []candidate {
	var candidates []candidate
	for _, oldURL := range removed {
		oldVec, ok := fingerprints[oldURL]
		if !ok {
			continue
		}
		for _, newURL := range added {
			newVec, ok := fingerprints[newURL]
			if !ok {
				continue
			}
			score := sm.engine.Similarity(oldVec, newVec)
			if score < sm.threshold {
				continue
			}
			candidates = append(candidates, candidate{
				oldURL:       oldURL,
				newURL:       newURL,
				score:        score,
				pathDistance: levenshtein.ComputeDistance(urlhandler.PathOf(oldURL), urlhandler.PathOf(newURL)),
			})
		}
	}
	return candidates
}
