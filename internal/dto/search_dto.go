package dto

import (
	"material-search-be/pkg/store"
)

type SearchFilters struct {
	MaterialTypes []string `json:"material_types"`
	Availability  *bool    `json:"availability"`
	PriceMin      *float64 `json:"price_min"`
	PriceMax      *float64 `json:"price_max"`
}

type SearchRequest struct {
	Query      string        `json:"query" validate:"required"`
	Mode       string        `json:"mode" validate:"omitempty,oneof=quick detailed hybrid"`
	Filters    SearchFilters `json:"filters"`
	MaxResults int           `json:"max_results" validate:"omitempty,min=1,max=50"`
}

func (r SearchRequest) ToFilters() store.Filters {
	return store.Filters{
		MaterialTypes: r.Filters.MaterialTypes,
		Availability:  r.Filters.Availability,
		PriceMin:      r.Filters.PriceMin,
		PriceMax:      r.Filters.PriceMax,
	}
}
