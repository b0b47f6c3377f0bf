package model

import (
	"sort"
	"time"

	"github.com/agriarche/price-intel/internal/taxonomy"
)

// Source identifies which ingestion pipeline produced a record.
type Source string

const (
	// SourceInternal is the first-party structured export
	// ("Predictive Analysis Commodity pricing.xlsx").
	SourceInternal Source = "internal"
	// SourceExternal is the second-party scraped export
	// ("data/clean_prices.xlsx"). Prices are quoted per bag.
	SourceExternal Source = "external"
)

// UnknownMarket is the sentinel used when a source carries no market column.
const UnknownMarket = "Unknown"

// PriceRecord is one normalized price observation. Both physical source
// schemas are reconciled onto this shape; Commodity is always canonical —
// there is no raw-text code path out of the loaders.
type PriceRecord struct {
	Date      time.Time              `json:"date"`
	Commodity taxonomy.CommodityName `json:"commodity"`
	Market    string                 `json:"market"`
	// Price is the raw quoted price in naira. For the internal source this is
	// either a per-kg or a per-bag figure depending on the export; for the
	// external source it is per-bag by convention.
	Price float64 `json:"price"`
	// PricePerKg is the per-kilogram price. When the source has no dedicated
	// per-kg column it is a copy of Price (units unknown, not converted).
	PricePerKg float64 `json:"price_per_kg"`
	Source     Source  `json:"source"`

	// Calendar fields derived from Date at load time.
	Year      int    `json:"year"`
	MonthName string `json:"month_name"`
	Day       int    `json:"day"`
}

// Dataset is an immutable snapshot of one source file after reconciliation.
// An empty Dataset (no records) is the degraded result for every loader-level
// failure: missing file, undetectable schema, corrupt workbook.
type Dataset struct {
	Source    Source        `json:"source"`
	Path      string        `json:"path"`
	LoadedAt  time.Time     `json:"loaded_at"`
	Records   []PriceRecord `json:"records"`
	// RowsDropped counts rows discarded for unparseable date or price cells.
	RowsDropped int `json:"rows_dropped"`
}

// Empty reports whether the dataset carries no usable records.
func (d Dataset) Empty() bool { return len(d.Records) == 0 }

// Commodities returns the distinct canonical commodity names, sorted.
func (d Dataset) Commodities() []taxonomy.CommodityName {
	return distinctCommodities(d.Records)
}

// Markets returns the distinct market names, sorted.
func (d Dataset) Markets() []string {
	return distinctMarkets(d.Records)
}

// Years returns the distinct calendar years, ascending.
func (d Dataset) Years() []int {
	seen := map[int]struct{}{}
	var out []int
	for _, r := range d.Records {
		if _, ok := seen[r.Year]; ok {
			continue
		}
		seen[r.Year] = struct{}{}
		out = append(out, r.Year)
	}
	sort.Ints(out)
	return out
}

func distinctCommodities(records []PriceRecord) []taxonomy.CommodityName {
	seen := map[taxonomy.CommodityName]struct{}{}
	var out []taxonomy.CommodityName
	for _, r := range records {
		if _, ok := seen[r.Commodity]; ok {
			continue
		}
		seen[r.Commodity] = struct{}{}
		out = append(out, r.Commodity)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func distinctMarkets(records []PriceRecord) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, r := range records {
		if _, ok := seen[r.Market]; ok {
			continue
		}
		seen[r.Market] = struct{}{}
		out = append(out, r.Market)
	}
	sort.Strings(out)
	return out
}
