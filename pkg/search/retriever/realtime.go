package retriever

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"material-search-be/pkg/store"
)

// RealtimeRetriever queries a live external info source (market pricing,
// supplier stock feeds). Its results are a distinct category: the fusion
// stage never deduplicates them against catalog results, and the composer
// appends them as a separate response section. Disabled by default; it is
// only registered when an endpoint is configured.
type RealtimeRetriever struct {
	endpoint string
	client   *http.Client
}

func NewRealtimeRetriever(endpoint string) *RealtimeRetriever {
	return &RealtimeRetriever{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *RealtimeRetriever) Name() store.Backend {
	return store.BackendRealtime
}

func (r *RealtimeRetriever) NeedsQueryVector() bool {
	return false
}

type realtimeItem struct {
	Id        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Score     float64    `json:"score"`
	Timestamp *time.Time `json:"timestamp"`
}

func (r *RealtimeRetriever) Retrieve(ctx context.Context, q Query) ([]store.RetrievalResult, error) {
	reqURL := fmt.Sprintf("%s?q=%s&limit=%d", r.endpoint, url.QueryEscape(q.Text), q.Limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("realtime source error: status %d", resp.StatusCode)
	}

	var items []realtimeItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("realtime source returned invalid payload: %w", err)
	}

	results := make([]store.RetrievalResult, len(items))
	for i, item := range items {
		results[i] = store.RetrievalResult{
			Id:      item.Id,
			Backend: store.BackendRealtime,
			// The live source is global; results are tagged with the
			// requester's workspace so the isolation guard keeps them.
			WorkspaceId: q.WorkspaceId,
			Title:       item.Title,
			Content:     item.Content,
			Similarity:  item.Score,
			Timestamp:   item.Timestamp,
		}
	}
	return results, nil
}
