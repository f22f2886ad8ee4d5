package fusion

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"regexp"
	"sort"
	"strings"

	"material-search-be/pkg/store"
)

// Config tunes deduplication and the MMR diversifier.
type Config struct {
	// Lambda trades relevance against redundancy: 1 is pure relevance
	// ordering, 0 is pure diversity.
	Lambda float64
	// PoolCap bounds the candidate pool before re-ranking so MMR's pairwise
	// similarity cost stays bounded.
	PoolCap int
}

func DefaultConfig() Config {
	return Config{
		Lambda:  0.7,
		PoolCap: 50,
	}
}

var fingerprintSpaceRe = regexp.MustCompile(`\s+`)

// ContentFingerprint identifies a result's content across backends: the
// stable material id when present, otherwise a hash of the normalized text.
func ContentFingerprint(res store.RetrievalResult) string {
	if res.MaterialId != nil {
		return "material:" + res.MaterialId.String()
	}
	normalized := fingerprintSpaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(res.Content)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Fuse unions the document-category results (realtime is handled separately),
// deduplicates them by content fingerprint, caps the pool and applies greedy
// MMR. Output ordering is deterministic given identical inputs.
func Fuse(resultsBySource map[store.Backend][]store.RetrievalResult, maxResults int, cfg Config) []store.FusedResult {
	if cfg.PoolCap <= 0 {
		cfg.PoolCap = 50
	}
	if maxResults <= 0 {
		return nil
	}

	pool := deduplicate(resultsBySource)

	// Deterministic pool order: similarity desc, fingerprint as tiebreak.
	sort.Slice(pool, func(i, j int) bool {
		if pool[i].similarity != pool[j].similarity {
			return pool[i].similarity > pool[j].similarity
		}
		return pool[i].fingerprint < pool[j].fingerprint
	})
	if len(pool) > cfg.PoolCap {
		pool = pool[:cfg.PoolCap]
	}

	return diversify(pool, maxResults, cfg.Lambda)
}

type candidate struct {
	result      store.RetrievalResult
	fingerprint string
	sources     map[store.Backend]bool
	similarity  float64
}

func deduplicate(resultsBySource map[store.Backend][]store.RetrievalResult) []*candidate {
	byFingerprint := make(map[string]*candidate)

	// Iterate backends in a fixed order so merge results are deterministic.
	backends := make([]store.Backend, 0, len(resultsBySource))
	for backend := range resultsBySource {
		backends = append(backends, backend)
	}
	sort.Slice(backends, func(i, j int) bool { return backends[i] < backends[j] })

	for _, backend := range backends {
		if backend == store.BackendRealtime {
			// Live results have different semantics (current events vs.
			// catalog facts) and are never merged into documents.
			continue
		}
		for _, res := range resultsBySource[backend] {
			fp := ContentFingerprint(res)
			existing, ok := byFingerprint[fp]
			if !ok {
				byFingerprint[fp] = &candidate{
					result:      res,
					fingerprint: fp,
					sources:     map[store.Backend]bool{res.Backend: true},
					similarity:  res.Similarity,
				}
				continue
			}
			existing.sources[res.Backend] = true
			// Keep the representative with the highest score; a vector hit
			// usually carries the embedding the diversifier wants.
			if res.Similarity > existing.similarity {
				existing.similarity = res.Similarity
				existing.result = res
			}
		}
	}

	pool := make([]*candidate, 0, len(byFingerprint))
	for _, c := range byFingerprint {
		pool = append(pool, c)
	}
	return pool
}

// diversify applies greedy MMR: at each step pick the unselected candidate
// maximizing lambda*relevance - (1-lambda)*maxSimilarityToSelected.
func diversify(pool []*candidate, maxResults int, lambda float64) []store.FusedResult {
	selected := make([]*candidate, 0, maxResults)
	remaining := append([]*candidate(nil), pool...)

	for len(selected) < maxResults && len(remaining) > 0 {
		bestIdx := 0
		bestScore := mmrScore(remaining[0], selected, lambda)
		for i := 1; i < len(remaining); i++ {
			score := mmrScore(remaining[i], selected, lambda)
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	fused := make([]store.FusedResult, len(selected))
	for i, c := range selected {
		sources := make([]store.Backend, 0, len(c.sources))
		for backend := range c.sources {
			sources = append(sources, backend)
		}
		sort.Slice(sources, func(a, b int) bool { return sources[a] < sources[b] })

		result := c.result
		result.Similarity = c.similarity
		fused[i] = store.FusedResult{
			RetrievalResult: result,
			MergedSources:   sources,
		}
	}
	return fused
}

func mmrScore(c *candidate, selected []*candidate, lambda float64) float64 {
	redundancy := 0.0
	for _, s := range selected {
		if sim := candidateSimilarity(c, s); sim > redundancy {
			redundancy = sim
		}
	}
	return lambda*c.similarity - (1-lambda)*redundancy
}

// candidateSimilarity compares two candidates in embedding space when both
// carry vectors, falling back to token overlap for keyword-only results.
func candidateSimilarity(a, b *candidate) float64 {
	if len(a.result.Embedding) > 0 && len(a.result.Embedding) == len(b.result.Embedding) {
		return cosine(a.result.Embedding, b.result.Embedding)
	}
	return tokenOverlap(a.result.Content, b.result.Content)
}

func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// tokenOverlap is the Jaccard similarity of the two token sets.
func tokenOverlap(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	intersection := 0
	for tok := range setA {
		if setB[tok] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]bool {
	tokens := strings.Fields(strings.ToLower(s))
	set := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		set[tok] = true
	}
	return set
}
