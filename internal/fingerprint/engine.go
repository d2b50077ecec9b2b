package fingerprint

import (
	"sort"

	"github.com/scriptwatch/scriptwatch/internal/config"

	"github.com/rs/zerolog"
	"github.com/spaolacci/murmur3"
)

// Vector is a structural signature of file content: the sorted set of shingle
// hashes derived from the normalized token stream, truncated to the engine's
// signature size (a bottom-k sketch). Vectors are order-independent sets;
// comparison cost is linear in vector size, never in content length.
type Vector []uint64

// Token markers substituted for literal values. Identifier tokens are kept
// case-preserved; only literal values and whitespace are collapsed, which
// makes the signature stable across minification and beautification.
const (
	stringMarker = "\x02str"
	numberMarker = "\x02num"
)

const shingleSeparator = '\x1f'

// Engine builds fingerprint vectors and scores their similarity.
type Engine struct {
	logger        zerolog.Logger
	shingleSize   int
	signatureSize int
}

// NewEngine creates a fingerprint engine from matcher configuration.
func NewEngine(cfg config.MatcherConfig, logger zerolog.Logger) *Engine {
	shingleSize := cfg.ShingleSize
	if shingleSize < 2 {
		shingleSize = config.DefaultShingleSize
	}
	signatureSize := cfg.SignatureSize
	if signatureSize <= 0 {
		signatureSize = config.DefaultSignatureSize
	}
	return &Engine{
		logger:        logger.With().Str("component", "FingerprintEngine").Logger(),
		shingleSize:   shingleSize,
		signatureSize: signatureSize,
	}
}

// Fingerprint builds a structural signature for the given content. It is a
// pure function: identical input always yields an identical vector. Empty or
// token-free content yields an empty vector. Runs in time linear in content
// length.
func (e *Engine) Fingerprint(content string) Vector {
	tokens := tokenize(content)
	if len(tokens) == 0 {
		return nil
	}

	hashes := e.shingleHashes(tokens)
	sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })

	// Dedupe in place, then keep the bottom-k of the signature space.
	vector := hashes[:0]
	var prev uint64
	for i, h := range hashes {
		if i > 0 && h == prev {
			continue
		}
		vector = append(vector, h)
		prev = h
	}
	if len(vector) > e.signatureSize {
		vector = vector[:e.signatureSize]
	}
	return Vector(vector)
}

// shingleHashes hashes every overlapping run of shingleSize tokens. Content
// shorter than one shingle is hashed as a single window so that small files
// still produce a comparable signature.
func (e *Engine) shingleHashes(tokens []string) []uint64 {
	windowCount := len(tokens) - e.shingleSize + 1
	if windowCount < 1 {
		windowCount = 1
	}

	hashes := make([]uint64, 0, windowCount)
	buf := make([]byte, 0, 64)
	for i := 0; i < windowCount; i++ {
		end := i + e.shingleSize
		if end > len(tokens) {
			end = len(tokens)
		}
		buf = buf[:0]
		for _, tok := range tokens[i:end] {
			buf = append(buf, tok...)
			buf = append(buf, shingleSeparator)
		}
		hashes = append(hashes, murmur3.Sum64(buf))
	}
	return hashes
}

// Similarity computes the Jaccard coefficient of two vectors: 1.0 for
// identical vectors, 0.0 for disjoint ones, symmetric in its arguments.
// Vectors are sorted sets, so intersection and union fall out of one linear
// merge pass.
func (e *Engine) Similarity(a, b Vector) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	var intersection int
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			intersection++
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}

	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
