package analysis

import (
	"github.com/agriarche/price-intel/internal/taxonomy"
	"github.com/agriarche/price-intel/pkg/model"
)

//
// ────────────────────────────────────────────────
//   Cross-Source Price Comparison
// ────────────────────────────────────────────────
//
// The scraped export quotes per bag; the internal export is per kg. A bag
// is conventionally taken as 100 kg, but real bag weights vary by commodity
// (50 kg groundnut sacks vs 100 kg grain bags), so the divisor is a
// per-commodity table with a 100 kg default rather than a hard-coded
// constant.
//

// DefaultBagWeightKg is the conventional bag weight used when no
// per-commodity override is configured.
const DefaultBagWeightKg = 100.0

// BagWeights maps canonical commodities to their bag weight in kilograms.
type BagWeights struct {
	DefaultKg float64
	Overrides map[taxonomy.CommodityName]float64
}

// NewBagWeights returns the conventional table: every commodity at the
// 100 kg default.
func NewBagWeights() BagWeights {
	return BagWeights{DefaultKg: DefaultBagWeightKg}
}

// For returns the bag weight for a commodity, falling back to the default.
func (w BagWeights) For(c taxonomy.CommodityName) float64 {
	if kg, ok := w.Overrides[c]; ok && kg > 0 {
		return kg
	}
	if w.DefaultKg > 0 {
		return w.DefaultKg
	}
	return DefaultBagWeightKg
}

// Comparison is the cross-source result for one commodity/market pairing.
type Comparison struct {
	Commodity       taxonomy.CommodityName `json:"commodity"`
	InternalMarket  string                 `json:"internal_market"`
	ExternalMarket  string                 `json:"external_market"`
	InternalPerKg   float64                `json:"internal_per_kg"`
	ExternalBagMean float64                `json:"external_bag_mean"`
	BagWeightKg     float64                `json:"bag_weight_kg"`
	ExternalPerKg   float64                `json:"external_per_kg"`
	DiffPerKg       float64                `json:"diff_per_kg"`
	PercentDiff     float64                `json:"percent_diff"`
}

// CompareSources converts the external mean bag price to an approximate
// per-kg figure and measures it against the internal per-kg mean for the
// same commodity. The bool result is false when either side has no records
// for the pairing.
func CompareSources(
	internal, external []model.PriceRecord,
	commodity taxonomy.CommodityName,
	internalMarket, externalMarket string,
	weights BagWeights,
) (Comparison, bool) {
	internalStats, ok := Summarize(Filter(internal, Selection{Commodity: commodity, Market: internalMarket}))
	if !ok {
		return Comparison{}, false
	}

	externalSubset := Filter(external, Selection{Commodity: commodity, Market: externalMarket})
	if len(externalSubset) == 0 {
		return Comparison{}, false
	}
	var bagSum float64
	for _, r := range externalSubset {
		bagSum += r.Price
	}
	bagMean := bagSum / float64(len(externalSubset))

	bagKg := weights.For(commodity)
	perKg := bagMean / bagKg

	c := Comparison{
		Commodity:       commodity,
		InternalMarket:  internalMarket,
		ExternalMarket:  externalMarket,
		InternalPerKg:   internalStats.Mean,
		ExternalBagMean: bagMean,
		BagWeightKg:     bagKg,
		ExternalPerKg:   perKg,
		DiffPerKg:       perKg - internalStats.Mean,
	}
	if internalStats.Mean != 0 {
		c.PercentDiff = c.DiffPerKg / internalStats.Mean * 100
	}
	return c, true
}
