package analyzer

import (
	"fmt"
	"regexp"
	"strings"

	"material-search-be/pkg/store"
)

// Vocabulary holds the configurable term sets used for entity extraction.
type Vocabulary struct {
	MaterialTypes []string
	Colors        []string
	Units         []string
	PriceTokens   []string
}

// Config encapsulates analyzer tuning. Analyze is a pure function of the
// query text and this config; there is no hidden state.
type Config struct {
	Vocab            Vocabulary
	CompareTerms     []string
	RecommendTerms   []string
	ExplainTerms     []string
	MinEntityMatches int
	MaxRefinements   int
}

// DefaultConfig returns the built-in vocabularies. Catalog terms follow the
// material/product taxonomy of the ingestion side (tile collections, colors,
// dimension tokens).
func DefaultConfig() Config {
	return Config{
		Vocab: Vocabulary{
			MaterialTypes: []string{
				"ceramic", "porcelain", "tile", "marble", "granite", "stone",
				"wood", "metal", "glass", "fabric", "laminate", "vinyl", "concrete",
			},
			Colors: []string{
				"white", "black", "grey", "gray", "beige", "taupe", "sand", "clay",
				"mint", "navy", "bordeaux", "terracotta", "cream", "brown", "green",
				"blue", "red",
			},
			Units:       []string{"mm", "cm", "m2", "sqm", "inch"},
			PriceTokens: []string{"price", "cost", "cheap", "affordable", "budget", "expensive", "premium"},
		},
		CompareTerms:     []string{"vs", "versus", "compare", "difference", "better than"},
		RecommendTerms:   []string{"recommend", "suggest", "best", "alternative", "which should"},
		ExplainTerms:     []string{"why", "how does", "explain", "what is", "what are"},
		MinEntityMatches: 1,
		MaxRefinements:   3,
	}
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	dimensionRe  = regexp.MustCompile(`\b\d+\s?x\s?\d+\b`)
)

// Normalize trims, lowercases and collapses internal whitespace.
func Normalize(raw string) string {
	return whitespaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(raw)), " ")
}

// Analyze classifies intent, extracts typed entities and scores complexity.
// It never fails: unmatched tokens are ignored and the zero query yields an
// empty best-effort analysis.
func Analyze(raw string, cfg Config) store.QueryAnalysis {
	normalized := Normalize(raw)
	tokens := strings.Fields(normalized)

	analysis := store.QueryAnalysis{
		Normalized: normalized,
		Intent:     classifyIntent(normalized, tokens, cfg),
	}

	analysis.Entities = extractEntities(normalized, tokens, cfg.Vocab)
	analysis.ComplexityScore = complexity(tokens, analysis.Entities, normalized, cfg)

	if len(analysis.Entities) < cfg.MinEntityMatches {
		analysis.SuggestedRefinements = refinements(normalized, cfg)
	}

	return analysis
}

func classifyIntent(normalized string, tokens []string, cfg Config) store.Intent {
	if matchesAny(normalized, tokens, cfg.CompareTerms) {
		return store.IntentCompare
	}
	if matchesAny(normalized, tokens, cfg.RecommendTerms) {
		return store.IntentRecommend
	}
	if matchesAny(normalized, tokens, cfg.ExplainTerms) {
		return store.IntentExplain
	}
	return store.IntentSearch
}

func extractEntities(normalized string, tokens []string, vocab Vocabulary) []store.Entity {
	var entities []store.Entity
	seen := make(map[string]bool)

	add := func(entityType, value string) {
		key := entityType + ":" + value
		if seen[key] {
			return
		}
		seen[key] = true
		entities = append(entities, store.Entity{Type: entityType, Value: value})
	}

	for _, tok := range tokens {
		tok = strings.Trim(tok, ".,!?\"'")
		switch {
		case matchTerm(tok, vocab.MaterialTypes):
			add("material_type", tok)
		case matchTerm(tok, vocab.Colors):
			add("color", tok)
		case matchTerm(tok, vocab.PriceTokens):
			add("price", tok)
		case matchTerm(tok, vocab.Units):
			add("unit", tok)
		}
	}

	// Dimensions like "60x60" are a strong product signal in catalog queries.
	for _, dim := range dimensionRe.FindAllString(normalized, -1) {
		add("dimension", whitespaceRe.ReplaceAllString(dim, ""))
	}

	return entities
}

// complexity maps token count, entity count and comparative phrasing onto
// [0,1]. The score only drives refinement suggestions downstream.
func complexity(tokens []string, entities []store.Entity, normalized string, cfg Config) float64 {
	tokenScore := float64(len(tokens)) / 12.0
	if tokenScore > 1 {
		tokenScore = 1
	}
	entityScore := float64(len(entities)) / 4.0
	if entityScore > 1 {
		entityScore = 1
	}
	comparative := 0.0
	if matchesAny(normalized, tokens, cfg.CompareTerms) {
		comparative = 1.0
	}
	return (tokenScore + entityScore + comparative) / 3.0
}

func refinements(normalized string, cfg Config) []string {
	if normalized == "" || cfg.MaxRefinements <= 0 {
		return nil
	}
	candidates := []string{
		fmt.Sprintf("%s ceramic", normalized),
		fmt.Sprintf("%s in white or beige", normalized),
		fmt.Sprintf("%s under a target price", normalized),
		fmt.Sprintf("compare %s options", normalized),
	}
	if len(candidates) > cfg.MaxRefinements {
		candidates = candidates[:cfg.MaxRefinements]
	}
	return candidates
}

// matchesAny matches single-word terms against whole tokens (so "vs" does
// not fire inside "canvas") and multi-word terms as substrings.
func matchesAny(normalized string, tokens []string, terms []string) bool {
	for _, term := range terms {
		if term == "" {
			continue
		}
		if strings.Contains(term, " ") {
			if strings.Contains(normalized, term) {
				return true
			}
			continue
		}
		if matchTerm(term, tokens) {
			return true
		}
	}
	return false
}

func matchTerm(token string, terms []string) bool {
	for _, term := range terms {
		if token == term {
			return true
		}
	}
	return false
}
