package service

import (
	"context"

	"material-search-be/internal/dto"
	"material-search-be/pkg/search"
	"material-search-be/pkg/search/access"
	"material-search-be/pkg/store"
)

type ISearchService interface {
	Search(ctx context.Context, claims access.Claims, req *dto.SearchRequest) (*store.ResponseEnvelope, error)
}

type searchService struct {
	engine *search.Engine
}

func NewSearchService(engine *search.Engine) ISearchService {
	return &searchService{
		engine: engine,
	}
}

func (s *searchService) Search(ctx context.Context, claims access.Claims, req *dto.SearchRequest) (*store.ResponseEnvelope, error) {
	return s.engine.Search(ctx, claims, search.Request{
		Query:      req.Query,
		Mode:       store.Mode(req.Mode),
		Filters:    req.ToFilters(),
		MaxResults: req.MaxResults,
	})
}
