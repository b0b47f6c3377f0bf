package api

import (
	"github.com/agriarche/price-intel/internal/analysis"
	"github.com/agriarche/price-intel/internal/taxonomy"
	"github.com/agriarche/price-intel/pkg/model"
)

// RecordsResponse is a filtered slice of one source's snapshot.
type RecordsResponse struct {
	Source      model.Source        `json:"source"`
	Path        string              `json:"path"`
	Count       int                 `json:"count"`
	RowsDropped int                 `json:"rows_dropped"`
	Records     []model.PriceRecord `json:"records"`
}

// CommodityResponse pairs a canonical name with its curated profile.
type CommodityResponse struct {
	Name    taxonomy.CommodityName `json:"name"`
	Curated bool                   `json:"curated"`
	Profile taxonomy.Profile       `json:"profile"`
}

// TrendResponse is the daily mean series for a selection.
type TrendResponse struct {
	Commodity taxonomy.CommodityName `json:"commodity"`
	Market    string                 `json:"market"`
	Month     string                 `json:"month,omitempty"`
	Points    []analysis.TrendPoint  `json:"points"`
}

// SummaryResponse carries window statistics plus the procurement advisory.
type SummaryResponse struct {
	Commodity taxonomy.CommodityName `json:"commodity"`
	Market    string                 `json:"market"`
	Stats     analysis.SummaryStats  `json:"stats"`
	Advisory  analysis.Advisory      `json:"advisory"`
}
