package compose

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"material-search-be/internal/pkg/logger"
	"material-search-be/pkg/llm"
	"material-search-be/pkg/store"
)

// Config tunes confidence scoring and generation budgets.
type Config struct {
	// TrustWeights scale each backend's contribution to confidence.
	TrustWeights map[store.Backend]float64
	// TopN is how many leading documents feed overallConfidence.
	TopN int
	// RecencyHalfLife halves a result's confidence per elapsed interval.
	// Results without timestamps decay by nothing.
	RecencyHalfLife time.Duration
	// Token budgets for the generation collaborator per mode. Hybrid gets a
	// smaller budget for a short synthesis.
	DetailedTokenBudget int
	HybridTokenBudget   int
	// GenerationTimeout bounds the collaborator call under the request
	// deadline.
	GenerationTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		TrustWeights: map[store.Backend]float64{
			store.BackendChunk:    1.0,
			store.BackendMaterial: 1.0,
			store.BackendKeyword:  0.85,
			store.BackendRealtime: 0.9,
		},
		TopN:                5,
		RecencyHalfLife:     30 * 24 * time.Hour,
		DetailedTokenBudget: 1024,
		HybridTokenBudget:   256,
		GenerationTimeout:   20 * time.Second,
	}
}

// Composer shapes the final envelope per mode, derives confidence scores and
// handles degraded generation.
type Composer struct {
	llmProvider llm.LLMProvider
	cfg         Config
	logger      logger.ILogger
	now         func() time.Time
}

func NewComposer(llmProvider llm.LLMProvider, cfg Config, log logger.ILogger) *Composer {
	if cfg.TopN <= 0 {
		cfg.TopN = 5
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = 20 * time.Second
	}
	return &Composer{
		llmProvider: llmProvider,
		cfg:         cfg,
		logger:      log,
		now:         time.Now,
	}
}

// Compose assembles the response envelope. Generation failure is never fatal:
// detailed/hybrid degrade to documents-only with degraded=true.
func (c *Composer) Compose(
	ctx context.Context,
	query string,
	analysis store.QueryAnalysis,
	fused []store.FusedResult,
	realtime []store.RetrievalResult,
	mode store.Mode,
	backendStatus map[store.Backend]store.BackendState,
) *store.ResponseEnvelope {

	degraded := false
	for _, state := range backendStatus {
		if state != store.BackendOK {
			degraded = true
			break
		}
	}

	c.scoreConfidence(fused)

	env := &store.ResponseEnvelope{
		Mode:                 mode,
		Documents:            fused,
		RealTime:             realtime,
		SuggestedRefinements: analysis.SuggestedRefinements,
		Degraded:             degraded,
		BackendStatus:        backendStatus,
		OverallConfidence:    c.overallConfidence(fused),
	}

	// quick never calls the generation collaborator.
	if mode == store.ModeQuick {
		return env
	}

	budget := c.cfg.DetailedTokenBudget
	if mode == store.ModeHybrid {
		budget = c.cfg.HybridTokenBudget
	}

	generated, err := c.generate(ctx, query, fused, budget)
	if err != nil {
		c.logger.Warn("compose", "Generation failed, degrading to documents-only", map[string]interface{}{
			"mode":  string(mode),
			"error": err.Error(),
		})
		env.Degraded = true
		return env
	}
	env.GeneratedResponse = &generated

	return env
}

func (c *Composer) generate(ctx context.Context, query string, fused []store.FusedResult, budget int) (string, error) {
	if c.llmProvider == nil {
		return "", fmt.Errorf("no generation provider configured")
	}

	gctx, cancel := context.WithTimeout(ctx, c.cfg.GenerationTimeout)
	defer cancel()

	prompt := buildPrompt(query, fused)
	return c.llmProvider.Generate(gctx, prompt, llm.WithMaxTokens(budget), llm.WithTemperature(0.3))
}

func buildPrompt(query string, fused []store.FusedResult) string {
	var b strings.Builder
	b.WriteString("<context>\n")
	for i, doc := range fused {
		title := doc.Title
		if title == "" {
			title = fmt.Sprintf("Document %d", i+1)
		}
		fmt.Fprintf(&b, "[%d] %s\n%s\n\n", i+1, title, doc.Content)
	}
	b.WriteString("</context>\n\n")
	b.WriteString("<task>\nAnswer the user's question using ONLY the context above. ")
	b.WriteString("Cite sources by their [n] marker. If the context is insufficient, say so.\n</task>\n\n")
	fmt.Fprintf(&b, "Question: %s", query)
	return b.String()
}

// scoreConfidence sets each result's confidence to
// similarity x backendTrustWeight x recencyDecay.
func (c *Composer) scoreConfidence(fused []store.FusedResult) {
	now := c.now()
	for i := range fused {
		trust := c.trustWeight(fused[i].MergedSources)
		decay := 1.0
		if fused[i].Timestamp != nil && c.cfg.RecencyHalfLife > 0 {
			age := now.Sub(*fused[i].Timestamp)
			if age > 0 {
				decay = math.Pow(0.5, age.Hours()/c.cfg.RecencyHalfLife.Hours())
			}
		}
		fused[i].Confidence = fused[i].Similarity * trust * decay
	}
}

// trustWeight takes the strongest weight among the backends that produced
// the merged result.
func (c *Composer) trustWeight(sources []store.Backend) float64 {
	best := 0.0
	for _, backend := range sources {
		if w, ok := c.cfg.TrustWeights[backend]; ok && w > best {
			best = w
		}
	}
	if best == 0 {
		best = 1.0
	}
	return best
}

// overallConfidence is the rank-weighted mean of the top-N confidences:
// earlier documents count more.
func (c *Composer) overallConfidence(fused []store.FusedResult) float64 {
	n := c.cfg.TopN
	if n > len(fused) {
		n = len(fused)
	}
	if n == 0 {
		return 0
	}

	var weighted, weights float64
	for i := 0; i < n; i++ {
		w := 1.0 / float64(i+1)
		weighted += fused[i].Confidence * w
		weights += w
	}
	return weighted / weights
}
