package fusion

import (
	"fmt"
	"testing"

	"material-search-be/pkg/store"

	"github.com/google/uuid"
)

func result(id string, backend store.Backend, content string, sim float64) store.RetrievalResult {
	return store.RetrievalResult{
		Id:         id,
		Backend:    backend,
		Content:    content,
		Similarity: sim,
	}
}

func TestFuseDeduplicatesAcrossBackends(t *testing.T) {
	materialId := uuid.New()

	chunkHit := result("c1", store.BackendChunk, "terra taupe matte tile", 0.91)
	materialHit := result("m1", store.BackendMaterial, "Terra Taupe product entry", 0.88)
	materialHit.MaterialId = &materialId
	keywordHit := result("k1", store.BackendKeyword, "Terra Taupe product entry", 0.55)
	keywordHit.MaterialId = &materialId

	fused := Fuse(map[store.Backend][]store.RetrievalResult{
		store.BackendChunk:    {chunkHit},
		store.BackendMaterial: {materialHit},
		store.BackendKeyword:  {keywordHit},
	}, 10, DefaultConfig())

	if len(fused) != 2 {
		t.Fatalf("expected 2 fused results, got %d", len(fused))
	}

	var merged *store.FusedResult
	for i := range fused {
		if fused[i].MaterialId != nil {
			merged = &fused[i]
		}
	}
	if merged == nil {
		t.Fatal("material result missing from fused output")
	}
	if len(merged.MergedSources) != 2 {
		t.Fatalf("merged sources = %v, want material+keyword", merged.MergedSources)
	}
	if merged.Similarity != 0.88 {
		t.Errorf("merged similarity = %f, want best score 0.88", merged.Similarity)
	}
}

func TestFuseExcludesRealtime(t *testing.T) {
	fused := Fuse(map[store.Backend][]store.RetrievalResult{
		store.BackendRealtime: {result("r1", store.BackendRealtime, "live feed item", 0.99)},
		store.BackendChunk:    {result("c1", store.BackendChunk, "catalog chunk", 0.8)},
	}, 10, DefaultConfig())

	if len(fused) != 1 {
		t.Fatalf("expected 1 fused result, got %d", len(fused))
	}
	if fused[0].Backend == store.BackendRealtime {
		t.Error("realtime result leaked into fused documents")
	}
}

func TestFuseRespectsMaxResults(t *testing.T) {
	bySource := map[store.Backend][]store.RetrievalResult{store.BackendChunk: nil}
	for i := 0; i < 20; i++ {
		bySource[store.BackendChunk] = append(bySource[store.BackendChunk],
			result(fmt.Sprintf("c%d", i), store.BackendChunk, fmt.Sprintf("unique content number %d", i), 0.9-float64(i)*0.01))
	}

	fused := Fuse(bySource, 5, DefaultConfig())
	if len(fused) != 5 {
		t.Fatalf("expected 5 results, got %d", len(fused))
	}
}

func TestFuseLambdaOneIsPureRelevance(t *testing.T) {
	// With lambda=1 redundancy is ignored, so output must be plain
	// similarity-descending order even for near-identical texts.
	bySource := map[store.Backend][]store.RetrievalResult{
		store.BackendChunk: {
			result("a", store.BackendChunk, "taupe tile sixty by sixty", 0.9),
			result("b", store.BackendChunk, "taupe tile sixty by sixty matte", 0.85),
			result("c", store.BackendChunk, "something completely different", 0.5),
		},
	}

	fused := Fuse(bySource, 3, Config{Lambda: 1, PoolCap: 50})

	wantOrder := []string{"a", "b", "c"}
	for i, want := range wantOrder {
		if fused[i].Id != want {
			t.Errorf("position %d = %s, want %s", i, fused[i].Id, want)
		}
	}
}

func TestFuseDiversityDemotesNearDuplicates(t *testing.T) {
	// b is a near-duplicate of a (high token overlap); c is distinct but
	// slightly less relevant. With a diversity-leaning lambda, c should be
	// picked before b.
	bySource := map[store.Backend][]store.RetrievalResult{
		store.BackendChunk: {
			result("a", store.BackendChunk, "terra taupe matte porcelain tile sixty", 0.90),
			result("b", store.BackendChunk, "terra taupe matte porcelain tile thirty", 0.89),
			result("c", store.BackendChunk, "installation guide for underfloor heating", 0.80),
		},
	}

	fused := Fuse(bySource, 3, Config{Lambda: 0.5, PoolCap: 50})

	if fused[0].Id != "a" {
		t.Fatalf("first pick = %s, want most relevant a", fused[0].Id)
	}
	if fused[1].Id != "c" {
		t.Errorf("second pick = %s, want diverse c before near-duplicate b", fused[1].Id)
	}
}

func TestFuseDeterministicOnTies(t *testing.T) {
	bySource := map[store.Backend][]store.RetrievalResult{
		store.BackendChunk: {
			result("x", store.BackendChunk, "alpha content", 0.7),
			result("y", store.BackendChunk, "beta content", 0.7),
			result("z", store.BackendChunk, "gamma content", 0.7),
		},
	}

	first := Fuse(bySource, 3, DefaultConfig())
	for i := 0; i < 10; i++ {
		again := Fuse(bySource, 3, DefaultConfig())
		for j := range first {
			if first[j].Id != again[j].Id {
				t.Fatalf("run %d position %d = %s, want %s", i, j, again[j].Id, first[j].Id)
			}
		}
	}
}

func TestContentFingerprint(t *testing.T) {
	materialId := uuid.New()

	tests := []struct {
		name string
		a    store.RetrievalResult
		b    store.RetrievalResult
		same bool
	}{
		{
			name: "same material id",
			a:    store.RetrievalResult{MaterialId: &materialId, Content: "one"},
			b:    store.RetrievalResult{MaterialId: &materialId, Content: "two"},
			same: true,
		},
		{
			name: "whitespace and case insensitive",
			a:    store.RetrievalResult{Content: "Terra  Taupe Tile"},
			b:    store.RetrievalResult{Content: "terra taupe tile"},
			same: true,
		},
		{
			name: "different content",
			a:    store.RetrievalResult{Content: "terra taupe"},
			b:    store.RetrievalResult{Content: "sand clay"},
			same: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ContentFingerprint(tt.a) == ContentFingerprint(tt.b)
			if got != tt.same {
				t.Errorf("fingerprint equality = %v, want %v", got, tt.same)
			}
		})
	}
}
