package extractor

import (
	"sort"
	"strings"

	"github.com/scriptwatch/scriptwatch/internal/config"
	"github.com/scriptwatch/scriptwatch/internal/models"

	"github.com/BishopFox/jsluice"
	"github.com/rs/zerolog"
)

// astCategory is the synthetic category assigned to endpoints discovered by
// the jsluice AST channel. It sorts after all configured regex categories.
const astCategory = "ast"

// RawMatch is one pattern hit before dedup: the normalized path, the category
// that produced it and the offset of its first occurrence in the file.
type RawMatch struct {
	NormalizedPath string
	Category       string
	Offset         int
}

// EndpointExtractor applies named regex pattern groups (and optionally
// jsluice AST analysis) to file content, normalizing and deduplicating
// matches into Endpoint records.
type EndpointExtractor struct {
	logger     zerolog.Logger
	groups     []CompiledGroup
	astEnabled bool
}

// NewEndpointExtractor compiles the configured pattern groups once. Invalid
// patterns are reported back but do not prevent construction; extraction
// simply runs with whatever compiled.
func NewEndpointExtractor(cfg config.ExtractorConfig, logger zerolog.Logger) (*EndpointExtractor, []PatternError) {
	groups, patternErrors := CompilePatternGroups(cfg.PatternGroups, logger)
	ee := &EndpointExtractor{
		logger:     logger.With().Str("component", "EndpointExtractor").Logger(),
		groups:     groups,
		astEnabled: cfg.EnableASTExtraction,
	}
	return ee, patternErrors
}

// HasPatterns reports whether any extraction channel is configured.
func (ee *EndpointExtractor) HasPatterns() bool {
	return len(ee.groups) > 0 || ee.astEnabled
}

// Extract runs all pattern groups over one file's content and returns the
// deduplicated endpoints in deterministic order: category declaration order
// first, first-match offset within each category second. For each regex
// match the endpoint value is the last non-empty capture group. An identical
// normalized path keeps only its first occurrence, tagged with the first
// matching category.
func (ee *EndpointExtractor) Extract(sourceURL, content string, scanID int64) []models.Endpoint {
	if content == "" {
		return nil
	}

	seen := make(map[string]struct{})
	var matches []RawMatch

	for _, group := range ee.groups {
		categoryMatches := ee.extractGroup(group, content, seen)
		sort.Slice(categoryMatches, func(i, j int) bool {
			return categoryMatches[i].Offset < categoryMatches[j].Offset
		})
		matches = append(matches, categoryMatches...)
	}

	if ee.astEnabled && looksLikeJavaScript(sourceURL) {
		matches = append(matches, ee.extractAST(content, seen)...)
	}

	endpoints := make([]models.Endpoint, 0, len(matches))
	for _, m := range matches {
		endpoints = append(endpoints, models.Endpoint{
			NormalizedPath:  m.NormalizedPath,
			Category:        m.Category,
			SourceURL:       sourceURL,
			FirstSeenScanID: scanID,
		})
	}

	ee.logger.Debug().
		Str("source_url", sourceURL).
		Int("endpoint_count", len(endpoints)).
		Msg("Extraction finished for file")
	return endpoints
}

// extractGroup collects this category's matches, left to right per pattern,
// skipping paths already claimed by an earlier category or pattern.
func (ee *EndpointExtractor) extractGroup(group CompiledGroup, content string, seen map[string]struct{}) []RawMatch {
	var out []RawMatch
	for _, re := range group.Patterns {
		for _, loc := range re.FindAllStringSubmatchIndex(content, -1) {
			value, ok := lastNonEmptyGroup(content, loc)
			if !ok {
				continue
			}
			normalized, ok := normalizeCandidate(value)
			if !ok {
				continue
			}
			if _, dup := seen[normalized]; dup {
				continue
			}
			seen[normalized] = struct{}{}
			out = append(out, RawMatch{
				NormalizedPath: normalized,
				Category:       group.Category,
				Offset:         loc[0],
			})
		}
	}
	return out
}

// extractAST runs jsluice's AST-based URL matchers over JavaScript content
// and feeds relative paths through the same normalization pipeline.
func (ee *EndpointExtractor) extractAST(content string, seen map[string]struct{}) []RawMatch {
	var out []RawMatch
	analyzer := jsluice.NewAnalyzer([]byte(content))
	for _, result := range analyzer.GetURLs() {
		raw := result.URL
		if !strings.HasPrefix(raw, "/") {
			continue
		}
		normalized, ok := normalizeCandidate(raw)
		if !ok {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, RawMatch{
			NormalizedPath: normalized,
			Category:       astCategory,
		})
	}
	return out
}

// lastNonEmptyGroup resolves the endpoint value from a submatch index slice:
// the last capture group that participated in the match with non-empty text.
func lastNonEmptyGroup(content string, loc []int) (string, bool) {
	for i := len(loc) - 2; i >= 2; i -= 2 {
		start, end := loc[i], loc[i+1]
		if start >= 0 && end > start {
			return content[start:end], true
		}
	}
	return "", false
}

func looksLikeJavaScript(sourceURL string) bool {
	trimmed := sourceURL
	if idx := strings.IndexByte(trimmed, '?'); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	for _, ext := range []string{".js", ".mjs", ".jsx", ".ts", ".tsx"} {
		if strings.HasSuffix(trimmed, ext) {
			return true
		}
	}
	return false
}
