package fingerprint

import (
	"testing"

	"github.com/scriptwatch/scriptwatch/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(config.NewDefaultMatcherConfig(), zerolog.Nop())
}

func TestFingerprint_Deterministic(t *testing.T) {
	engine := newTestEngine(t)
	content := `function getUser(id) { return fetch("/api/users/" + id); }`

	first := engine.Fingerprint(content)
	second := engine.Fingerprint(content)

	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestFingerprint_EmptyContent(t *testing.T) {
	engine := newTestEngine(t)

	assert.Empty(t, engine.Fingerprint(""))
	assert.Empty(t, engine.Fingerprint("   \n\t  "))
}

func TestFingerprint_SortedAndDeduplicated(t *testing.T) {
	engine := newTestEngine(t)
	// Repeated statements produce duplicate shingles.
	content := `a=1;a=1;a=1;a=1;a=1;a=1;a=1;a=1;`

	vector := engine.Fingerprint(content)
	require.NotEmpty(t, vector)
	for i := 1; i < len(vector); i++ {
		assert.Less(t, vector[i-1], vector[i], "vector must be strictly increasing")
	}
}

func TestFingerprint_StableAcrossLiteralChanges(t *testing.T) {
	engine := newTestEngine(t)
	before := `const endpoint = "/api/v1/users"; const retries = 3; load(endpoint, retries);`
	after := `const endpoint = "/api/v2/accounts"; const retries = 15; load(endpoint, retries);`

	// Only literal values differ, so the normalized token streams are identical.
	assert.Equal(t, engine.Fingerprint(before), engine.Fingerprint(after))
}

func TestFingerprint_WhitespaceInsensitive(t *testing.T) {
	engine := newTestEngine(t)
	minified := `function f(a,b){return a+b}`
	pretty := "function f(a, b) {\n\treturn a + b\n}"

	assert.Equal(t, engine.Fingerprint(minified), engine.Fingerprint(pretty))
}

func TestFingerprint_CaseSensitiveIdentifiers(t *testing.T) {
	engine := newTestEngine(t)

	assert.NotEqual(t,
		engine.Fingerprint(`getUser(); getUser(); getUser();`),
		engine.Fingerprint(`getuser(); getuser(); getuser();`))
}

func TestFingerprint_ShortContent(t *testing.T) {
	engine := newTestEngine(t)

	// Fewer tokens than one shingle still yields a signature.
	vector := engine.Fingerprint("ab")
	assert.Len(t, vector, 1)
}

func TestSimilarity_Identity(t *testing.T) {
	engine := newTestEngine(t)
	vector := engine.Fingerprint(`function render(items) { for (const item of items) { draw(item); } }`)

	assert.Equal(t, 1.0, engine.Similarity(vector, vector))
}

func TestSimilarity_Symmetric(t *testing.T) {
	engine := newTestEngine(t)
	a := engine.Fingerprint(`function alpha(x) { return x * 2; } function beta(y) { return y - 1; }`)
	b := engine.Fingerprint(`function alpha(x) { return x * 2; } function gamma(z) { return z + 7; }`)

	assert.Equal(t, engine.Similarity(a, b), engine.Similarity(b, a))
}

func TestSimilarity_EmptyVectors(t *testing.T) {
	engine := newTestEngine(t)
	vector := engine.Fingerprint(`let x = 1;`)

	assert.Equal(t, 1.0, engine.Similarity(nil, nil))
	assert.Equal(t, 0.0, engine.Similarity(vector, nil))
	assert.Equal(t, 0.0, engine.Similarity(nil, vector))
}

func TestSimilarity_DisjointContent(t *testing.T) {
	engine := newTestEngine(t)
	a := engine.Fingerprint(`import { render } from "react-dom"; render(App, root);`)
	b := engine.Fingerprint(`SELECT_COLUMNS.forEach(c => table.hide(c)); table.refresh();`)

	score := engine.Similarity(a, b)
	assert.Less(t, score, 0.2)
}

func TestSimilarity_MinorEditStaysHigh(t *testing.T) {
	engine := newTestEngine(t)

	base := `
function fetchUsers() { return api.get("/users"); }
function fetchOrders() { return api.get("/orders"); }
function fetchItems() { return api.get("/items"); }
function fetchStats() { return api.get("/stats"); }
function fetchAudit() { return api.get("/audit"); }
`
	edited := base + `
function fetchExtra() { return api.get("/extra"); }
`

	score := engine.Similarity(engine.Fingerprint(base), engine.Fingerprint(edited))
	assert.Greater(t, score, 0.6, "appending one function should keep similarity high")
	assert.Less(t, score, 1.0)
}
