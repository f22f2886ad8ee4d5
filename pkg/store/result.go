package store

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Backend identifies a retrieval source.
type Backend string

const (
	BackendChunk    Backend = "chunk"
	BackendMaterial Backend = "material"
	BackendKeyword  Backend = "keyword"
	BackendRealtime Backend = "realtime"
)

// Mode controls how much work a search request is allowed to do.
type Mode string

const (
	ModeQuick    Mode = "quick"
	ModeDetailed Mode = "detailed"
	ModeHybrid   Mode = "hybrid"
)

// Valid reports whether the mode is one of the known request modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeQuick, ModeDetailed, ModeHybrid:
		return true
	}
	return false
}

// BackendState is the per-adapter outcome recorded in the response envelope.
type BackendState string

const (
	BackendOK      BackendState = "ok"
	BackendTimeout BackendState = "timeout"
	BackendError   BackendState = "error"
)

// Filters are the structured predicates supported by the material backend.
// All populated fields are applied conjunctively.
type Filters struct {
	MaterialTypes []string `json:"material_types,omitempty"`
	Availability  *bool    `json:"availability,omitempty"`
	PriceMin      *float64 `json:"price_min,omitempty"`
	PriceMax      *float64 `json:"price_max,omitempty"`
}

// IsZero reports whether no filter is set.
func (f Filters) IsZero() bool {
	return len(f.MaterialTypes) == 0 && f.Availability == nil && f.PriceMin == nil && f.PriceMax == nil
}

// Canonical renders the filters in a stable textual form for fingerprinting.
// Field order is fixed and list values are sorted so that logically identical
// filter sets always produce the same string.
func (f Filters) Canonical() string {
	types := append([]string(nil), f.MaterialTypes...)
	for i := range types {
		types[i] = strings.ToLower(strings.TrimSpace(types[i]))
	}
	sort.Strings(types)

	var b strings.Builder
	b.WriteString("types=")
	b.WriteString(strings.Join(types, ","))
	b.WriteString(";avail=")
	if f.Availability != nil {
		fmt.Fprintf(&b, "%t", *f.Availability)
	}
	b.WriteString(";price=")
	if f.PriceMin != nil {
		fmt.Fprintf(&b, "%g", *f.PriceMin)
	}
	b.WriteString(":")
	if f.PriceMax != nil {
		fmt.Fprintf(&b, "%g", *f.PriceMax)
	}
	return b.String()
}

// RetrievalResult is a single candidate returned by one backend adapter.
type RetrievalResult struct {
	Id          string                 `json:"id"`
	Backend     Backend                `json:"backend"`
	WorkspaceId uuid.UUID              `json:"workspace_id"`
	Title       string                 `json:"title,omitempty"`
	Content     string                 `json:"content"`
	MaterialId  *uuid.UUID             `json:"material_id,omitempty"`
	Similarity  float64                `json:"similarity"`
	Embedding   []float32              `json:"-"`
	Timestamp   *time.Time             `json:"timestamp,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// FusedResult is one deduplicated document after fusion, carrying the union
// of the backends that produced it and a derived confidence score.
type FusedResult struct {
	RetrievalResult
	MergedSources []Backend `json:"merged_sources"`
	Confidence    float64   `json:"confidence"`
}

// Intent is the coarse classification of what the user wants.
type Intent string

const (
	IntentSearch    Intent = "search"
	IntentCompare   Intent = "compare"
	IntentRecommend Intent = "recommend"
	IntentExplain   Intent = "explain"
)

// Entity is a typed token extracted from the query text.
type Entity struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// QueryAnalysis is the analyzer's best-effort reading of a raw query.
type QueryAnalysis struct {
	Normalized           string   `json:"normalized"`
	Intent               Intent   `json:"intent"`
	Entities             []Entity `json:"entities"`
	ComplexityScore      float64  `json:"complexity_score"`
	SuggestedRefinements []string `json:"suggested_refinements,omitempty"`
}

// ResponseEnvelope is the final shape returned to the caller (and cached).
type ResponseEnvelope struct {
	Mode                 Mode                     `json:"mode"`
	Documents            []FusedResult            `json:"documents"`
	RealTime             []RetrievalResult        `json:"real_time,omitempty"`
	GeneratedResponse    *string                  `json:"generated_response"`
	SuggestedRefinements []string                 `json:"suggested_refinements,omitempty"`
	Degraded             bool                     `json:"degraded"`
	BackendStatus        map[Backend]BackendState `json:"backend_status"`
	OverallConfidence    float64                  `json:"overall_confidence"`
	FromCache            bool                     `json:"from_cache"`
}
