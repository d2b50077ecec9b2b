package extractor

import (
	"fmt"
	"regexp"

	"github.com/scriptwatch/scriptwatch/internal/config"

	"github.com/rs/zerolog"
)

// PatternError describes one rejected extraction pattern. Rejection is
// non-fatal: extraction proceeds with the remaining valid patterns.
type PatternError struct {
	Category string
	Pattern  string
	Err      error
}

func (e PatternError) Error() string {
	return fmt.Sprintf("invalid pattern in category '%s': %s: %v", e.Category, e.Pattern, e.Err)
}

// CompiledGroup is one pattern category with its compiled regexes, in
// declaration order.
type CompiledGroup struct {
	Category string
	Patterns []*regexp.Regexp
}

// CompilePatternGroups validates and compiles the configured pattern groups.
// A pattern is rejected when it does not compile or when it has zero capture
// groups; a zero-group pattern would silently match the whole string, so it
// is treated as a configuration error rather than accepted. Groups left with
// no valid patterns are dropped. Category declaration order is preserved.
func CompilePatternGroups(groups []config.PatternGroup, logger zerolog.Logger) ([]CompiledGroup, []PatternError) {
	log := logger.With().Str("component", "PatternCompiler").Logger()

	var compiled []CompiledGroup
	var patternErrors []PatternError

	for _, group := range groups {
		cg := CompiledGroup{Category: group.Category}
		for _, pattern := range group.Patterns {
			re, err := regexp.Compile(pattern)
			if err != nil {
				patternErrors = append(patternErrors, PatternError{Category: group.Category, Pattern: pattern, Err: err})
				log.Warn().Err(err).Str("category", group.Category).Str("pattern", pattern).Msg("Rejected uncompilable pattern")
				continue
			}
			if re.NumSubexp() == 0 {
				err := fmt.Errorf("pattern has no capture group")
				patternErrors = append(patternErrors, PatternError{Category: group.Category, Pattern: pattern, Err: err})
				log.Warn().Str("category", group.Category).Str("pattern", pattern).Msg("Rejected pattern without capture group")
				continue
			}
			cg.Patterns = append(cg.Patterns, re)
		}
		if len(cg.Patterns) > 0 {
			compiled = append(compiled, cg)
		}
	}

	return compiled, patternErrors
}
