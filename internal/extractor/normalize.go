package extractor

import (
	"regexp"
	"strings"
)

var (
	ternaryExprRegex  = regexp.MustCompile(`\$\{[^}]+\?[^}]+:[^}]+\}`)
	templateVarRegex  = regexp.MustCompile(`\$\{[^}]+\}`)
	routeParamRegex   = regexp.MustCompile(`:\w+`)
	memberAccessRegex = regexp.MustCompile(`\b[a-z]\.\w+`)
	htmlTagRegex      = regexp.MustCompile(`(?i)/[a-z0-9]+>`)
	flagSuffixRegex   = regexp.MustCompile(`/[gimsuvy,);]*$`)
	assetExtRegex     = regexp.MustCompile(`(?i)\.(js|css|html|png|jpg|jpeg|gif|svg|woff|ttf|pdf|heic)$`)
	meaningfulRegex   = regexp.MustCompile(`[a-zA-Z0-9_-]`)
)

// NormalizePath turns a raw pattern match into an endpoint identity key.
// Template-literal interpolations are collapsed to stable placeholders rather
// than resolved, so they stay part of the distinguishing key: ternary
// expressions and `${...}` become `{var}`, `:param` route parameters become
// `{param}`. The query string is stripped and a single trailing slash is
// collapsed (the root `/` is kept).
func NormalizePath(raw string) string {
	return finalizePath(substitutePlaceholders(raw))
}

// normalizeCandidate runs one raw match through placeholder substitution,
// the plausibility filter and identity-key reduction. The filter must see
// the query-bearing form, so it runs between the two normalization steps.
func normalizeCandidate(raw string) (string, bool) {
	candidate := substitutePlaceholders(raw)
	if !IsPlausiblePath(candidate) {
		return "", false
	}
	return finalizePath(candidate), true
}

// substitutePlaceholders collapses template interpolations and route
// parameters but keeps the query string, which the plausibility filter
// still needs to see.
func substitutePlaceholders(raw string) string {
	path := raw
	if strings.Contains(path, "${") {
		path = extractTemplatePath(path)
	}

	path = ternaryExprRegex.ReplaceAllString(path, "{var}")
	path = templateVarRegex.ReplaceAllString(path, "{var}")
	path = routeParamRegex.ReplaceAllString(path, "{param}")
	path = memberAccessRegex.ReplaceAllString(path, "{var}")
	return path
}

// finalizePath reduces a placeholder-substituted path to its identity key:
// the query string is stripped and a single trailing slash is collapsed.
func finalizePath(path string) string {
	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		path = path[:idx]
	}
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = path[:len(path)-1]
	}
	return path
}

// extractTemplatePath trims a template-literal match down to its path: it
// walks from the first `/`, carries `${...}` expressions through verbatim
// (even when they contain quotes or nested braces) and stops at the literal's
// closing backtick, a bare quote or whitespace.
func extractTemplatePath(raw string) string {
	start := strings.IndexByte(raw, '/')
	if start < 0 {
		return raw
	}

	var b strings.Builder
	braceDepth := 0
	inExpr := false

	for i := start; i < len(raw); i++ {
		c := raw[i]
		switch {
		case inExpr:
			b.WriteByte(c)
			if c == '{' {
				braceDepth++
			} else if c == '}' {
				braceDepth--
				if braceDepth == 0 {
					inExpr = false
				}
			}
		case c == '$' && i+1 < len(raw) && raw[i+1] == '{':
			inExpr = true
			braceDepth = 1
			b.WriteByte(c)
			i++
			b.WriteByte(raw[i])
		case c == '`' || c == '"' || c == '\'':
			return b.String()
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			return b.String()
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// IsPlausiblePath filters out common false positives: regex literals, HTML
// tag fragments, protocol-relative URLs, static-asset references and strings
// with characters that never appear in a real route. It runs on the
// placeholder-substituted form before the query string is stripped, so
// regex artifacts hiding behind a `?` are still visible.
func IsPlausiblePath(path string) bool {
	if len(path) < 2 || path[0] != '/' {
		return false
	}
	if strings.HasPrefix(path, "//") {
		return false
	}
	if htmlTagRegex.MatchString(path) {
		return false
	}
	if strings.ContainsAny(path, `\[]`) {
		return false
	}
	// A final segment of nothing but regex flags or closers marks a regex
	// literal, like /pattern/gi or /pattern/);. A trailing slash is a route.
	if flagSuffixRegex.MatchString(path) && !strings.HasSuffix(path, "/") {
		return false
	}
	// Regex lookaheads and non-capturing groups betray a regex literal.
	if strings.Contains(path, "?:") || strings.Contains(path, "?=") || strings.Contains(path, "?!") {
		return false
	}
	if assetExtRegex.MatchString(path) {
		return false
	}
	if strings.ContainsAny(path, " <>|*%()+;,!@#$") {
		return false
	}
	if !meaningfulRegex.MatchString(path) {
		return false
	}
	// Reject single-segment paths that are one non-letter character, like /9 or /-.
	if strings.Count(path, "/") == 1 && len(path) == 2 {
		c := path[1]
		if !(c >= 'a' && c <= 'z') && !(c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}
