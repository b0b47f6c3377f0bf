package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agriarche/price-intel/internal/taxonomy"
	"github.com/agriarche/price-intel/pkg/model"
)

func extRec(commodity taxonomy.CommodityName, market string, bagPrice float64, date string) model.PriceRecord {
	r := rec(commodity, market, bagPrice, date)
	r.Source = model.SourceExternal
	return r
}

func TestCompareSources(t *testing.T) {
	// Internal per-kg mean 500; external bag mean 60,000 at the 100 kg
	// convention -> 600/kg -> +20%.
	internal := []model.PriceRecord{
		rec(taxonomy.Soybeans, "Giwa", 500, "2025-01-05"),
	}
	external := []model.PriceRecord{
		extRec(taxonomy.Soybeans, "Potiskum", 60000, "2025-01-06"),
	}

	c, ok := CompareSources(internal, external, taxonomy.Soybeans, "Giwa", "Potiskum", NewBagWeights())
	require.True(t, ok)

	assert.Equal(t, 500.0, c.InternalPerKg)
	assert.Equal(t, 60000.0, c.ExternalBagMean)
	assert.Equal(t, 100.0, c.BagWeightKg)
	assert.Equal(t, 600.0, c.ExternalPerKg)
	assert.Equal(t, 100.0, c.DiffPerKg)
	assert.InDelta(t, 20.0, c.PercentDiff, 1e-9)
}

func TestCompareSources_PerCommodityBagWeight(t *testing.T) {
	internal := []model.PriceRecord{
		rec(taxonomy.GroundnutKampala, "Kano", 800, "2025-01-05"),
	}
	external := []model.PriceRecord{
		extRec(taxonomy.GroundnutKampala, "Dawanau", 40000, "2025-01-06"),
	}

	weights := NewBagWeights()
	weights.Overrides = map[taxonomy.CommodityName]float64{
		taxonomy.GroundnutKampala: 50, // groundnut moves in 50 kg sacks
	}

	c, ok := CompareSources(internal, external, taxonomy.GroundnutKampala, "Kano", "Dawanau", weights)
	require.True(t, ok)
	assert.Equal(t, 50.0, c.BagWeightKg)
	assert.Equal(t, 800.0, c.ExternalPerKg)
	assert.Equal(t, 0.0, c.DiffPerKg)
	assert.Equal(t, 0.0, c.PercentDiff)
}

func TestCompareSources_MissingSides(t *testing.T) {
	internal := []model.PriceRecord{
		rec(taxonomy.Soybeans, "Giwa", 500, "2025-01-05"),
	}

	_, ok := CompareSources(nil, nil, taxonomy.Soybeans, "Giwa", "Potiskum", NewBagWeights())
	assert.False(t, ok, "no internal records")

	_, ok = CompareSources(internal, nil, taxonomy.Soybeans, "Giwa", "Potiskum", NewBagWeights())
	assert.False(t, ok, "no external records")
}

func TestCompareSources_ZeroInternalMean(t *testing.T) {
	internal := []model.PriceRecord{
		rec(taxonomy.Soybeans, "Giwa", 0, "2025-01-05"),
	}
	external := []model.PriceRecord{
		extRec(taxonomy.Soybeans, "Potiskum", 60000, "2025-01-06"),
	}

	c, ok := CompareSources(internal, external, taxonomy.Soybeans, "Giwa", "Potiskum", NewBagWeights())
	require.True(t, ok)
	assert.Equal(t, 0.0, c.PercentDiff, "guarded division by zero internal mean")
}

func TestBagWeights_For(t *testing.T) {
	w := BagWeights{}
	assert.Equal(t, DefaultBagWeightKg, w.For(taxonomy.Maize), "zero-value table falls back to convention")

	w = NewBagWeights()
	w.Overrides = map[taxonomy.CommodityName]float64{taxonomy.Millet: 0}
	assert.Equal(t, 100.0, w.For(taxonomy.Millet), "non-positive override is ignored")
}
