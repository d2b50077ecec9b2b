package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain path untouched", "/api/v2/users", "/api/v2/users"},
		{"query string stripped", "/api/users?page=2&sort=asc", "/api/users"},
		{"trailing slash collapsed", "/api/users/", "/api/users"},
		{"root slash kept", "/", "/"},
		{"template variable", "/api/users/${userId}/posts", "/api/users/{var}/posts"},
		{"ternary in template", "/api/${isAdmin ? 'admin' : 'user'}/home", "/api/{var}/home"},
		{"route parameter", "/users/:id/orders/:orderId", "/users/{param}/orders/{param}"},
		{"query with template", "/search?q=${query}", "/search"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizePath(tt.input))
		})
	}
}

func TestNormalizePath_TemplateLiteralTail(t *testing.T) {
	// A match reaching into a template literal must stop at the closing
	// backtick and keep the interpolation as a stable placeholder.
	raw := "`/api/v1/items/${item.id}/detail`"
	assert.Equal(t, "/api/v1/items/{var}/detail", NormalizePath(raw))
}

func TestIsPlausiblePath(t *testing.T) {
	plausible := []string{
		"/api/v2/users",
		"/api/users?page=2&sort=asc",
		"/users/{param}",
		"/api/",
		"/a",
		"/graphql",
	}
	for _, path := range plausible {
		assert.True(t, IsPlausiblePath(path), "expected plausible: %s", path)
	}

	implausible := []string{
		"",
		"/",
		"relative/path",
		"//cdn.example.com/lib.js",
		"/div>",
		"/app.css",
		"/logo.png",
		"/foo(bar)",
		"/(?:a|b)/c",
		"/a b",
		"/9",
		"/api/users?filter=x?:y",
		"/pattern/gi",
		"/pattern/g",
		"/d+/gm",
	}
	for _, path := range implausible {
		assert.False(t, IsPlausiblePath(path), "expected implausible: %s", path)
	}
}
