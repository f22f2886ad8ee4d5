package analyzer

import (
	"testing"

	"material-search-be/pkg/store"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "trims and lowercases", in: "  Taupe Ceramic  ", want: "taupe ceramic"},
		{name: "collapses whitespace", in: "taupe\t\n  ceramic", want: "taupe ceramic"},
		{name: "empty", in: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestAnalyzeIntent(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name  string
		query string
		want  store.Intent
	}{
		{name: "plain search", query: "taupe ceramic tiles", want: store.IntentSearch},
		{name: "compare keyword", query: "ceramic vs porcelain durability", want: store.IntentCompare},
		{name: "compare phrase", query: "is marble better than granite", want: store.IntentCompare},
		{name: "recommend", query: "recommend a floor tile for kitchens", want: store.IntentRecommend},
		{name: "explain", query: "why does porcelain crack", want: store.IntentExplain},
		{name: "vs inside a word does not trigger compare", query: "canvas texture fabric", want: store.IntentSearch},
		{name: "compare wins over recommend", query: "compare the best options", want: store.IntentCompare},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Analyze(tt.query, cfg)
			if got.Intent != tt.want {
				t.Errorf("Analyze(%q).Intent = %q, want %q", tt.query, got.Intent, tt.want)
			}
		})
	}
}

func TestAnalyzeEntities(t *testing.T) {
	cfg := DefaultConfig()

	analysis := Analyze("Taupe ceramic tile 60x60 under budget", cfg)

	wantTypes := map[string]string{
		"color":         "taupe",
		"material_type": "ceramic",
		"price":         "budget",
		"dimension":     "60x60",
	}
	for _, e := range analysis.Entities {
		if want, ok := wantTypes[e.Type]; ok {
			if e.Value != want {
				t.Errorf("entity %s = %q, want %q", e.Type, e.Value, want)
			}
			delete(wantTypes, e.Type)
		}
	}
	if len(wantTypes) > 0 {
		t.Errorf("missing entity types: %v (got %v)", wantTypes, analysis.Entities)
	}
}

func TestAnalyzeEntityDedup(t *testing.T) {
	cfg := DefaultConfig()

	analysis := Analyze("ceramic ceramic ceramic", cfg)
	if len(analysis.Entities) != 1 {
		t.Fatalf("expected 1 deduplicated entity, got %d: %v", len(analysis.Entities), analysis.Entities)
	}
}

func TestAnalyzeRefinements(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name            string
		query           string
		wantRefinements bool
	}{
		{name: "no entities suggests refinements", query: "something nice for the hallway", wantRefinements: true},
		{name: "entity match suppresses refinements", query: "white ceramic tile", wantRefinements: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Analyze(tt.query, cfg)
			if (len(got.SuggestedRefinements) > 0) != tt.wantRefinements {
				t.Errorf("Analyze(%q) refinements = %v, wantRefinements=%v", tt.query, got.SuggestedRefinements, tt.wantRefinements)
			}
			if len(got.SuggestedRefinements) > cfg.MaxRefinements {
				t.Errorf("refinement count %d exceeds max %d", len(got.SuggestedRefinements), cfg.MaxRefinements)
			}
		})
	}
}

func TestAnalyzeComplexityBounds(t *testing.T) {
	cfg := DefaultConfig()

	queries := []string{
		"",
		"tile",
		"compare white ceramic 60x60 vs beige porcelain 30x30 for a premium bathroom floor with underfloor heating",
	}
	var prev float64 = -1
	for _, q := range queries {
		got := Analyze(q, cfg)
		if got.ComplexityScore < 0 || got.ComplexityScore > 1 {
			t.Errorf("Analyze(%q).ComplexityScore = %f, out of [0,1]", q, got.ComplexityScore)
		}
		if got.ComplexityScore < prev {
			t.Errorf("expected non-decreasing complexity across %q", q)
		}
		prev = got.ComplexityScore
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	q := "compare taupe ceramic 60x60 vs sand porcelain"

	a := Analyze(q, cfg)
	b := Analyze(q, cfg)

	if a.Normalized != b.Normalized || a.Intent != b.Intent || a.ComplexityScore != b.ComplexityScore {
		t.Errorf("Analyze is not deterministic: %+v vs %+v", a, b)
	}
	if len(a.Entities) != len(b.Entities) {
		t.Fatalf("entity counts differ: %d vs %d", len(a.Entities), len(b.Entities))
	}
	for i := range a.Entities {
		if a.Entities[i] != b.Entities[i] {
			t.Errorf("entity %d differs: %v vs %v", i, a.Entities[i], b.Entities[i])
		}
	}
}
