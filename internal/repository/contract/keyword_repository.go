package contract

import (
	"context"
	"time"

	"material-search-be/pkg/store"

	"github.com/google/uuid"
)

// KeywordHit is one full-text match over chunks or materials. Rank is the
// normalized ts_rank, already mapped into [0,1).
type KeywordHit struct {
	Id          string
	WorkspaceId uuid.UUID
	Title       string
	Content     string
	MaterialId  *uuid.UUID
	Rank        float64
	CreatedAt   time.Time
}

// KeywordRepository is the full-text fallback for terms that embed poorly
// (model numbers, exact product codes).
type KeywordRepository interface {
	TextSearch(ctx context.Context, query string, workspaceId uuid.UUID, filters store.Filters, limit int) ([]*KeywordHit, error)
}
