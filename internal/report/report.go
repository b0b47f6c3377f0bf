package report

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agriarche/price-intel/pkg/model"
)

// Line is one narrative row of the document body.
type Line struct {
	Date       string  `json:"date"`
	Commodity  string  `json:"commodity"`
	PricePerKg float64 `json:"price_per_kg"`
}

// CommoditySection groups a market's lines for one commodity.
type CommoditySection struct {
	Commodity string `json:"commodity"`
	Lines     []Line `json:"lines"`
}

// MarketSection groups one market's commodity sections.
type MarketSection struct {
	Market      string             `json:"market"`
	Commodities []CommoditySection `json:"commodities"`
}

// SummaryRow is one entry of the closing summary table.
type SummaryRow struct {
	Market     string  `json:"market"`
	Commodity  string  `json:"commodity"`
	AvgPerKg   float64 `json:"avg_per_kg"`
	HighPerKg  float64 `json:"high_per_kg"`
	LowPerKg   float64 `json:"low_per_kg"`
	SampleSize int     `json:"sample_size"`
}

// Document is the assembled monthly report. Rendering (PDF, print layout)
// happens elsewhere; this is the complete content model.
type Document struct {
	ID          string          `json:"id"`
	Month       string          `json:"month"`
	GeneratedAt time.Time       `json:"generated_at"`
	Markets     []MarketSection `json:"markets"`
	Summary     []SummaryRow    `json:"summary"`
}

// Empty reports whether the document carries no rows.
func (d Document) Empty() bool { return len(d.Markets) == 0 }

// Assemble builds the monthly document for month over records the caller
// already filtered. Markets and commodities appear in name order, lines
// in date order, and summary prices round to two decimal places.
func Assemble(month string, records []model.PriceRecord) Document {
	doc := Document{
		ID:          uuid.NewString(),
		Month:       month,
		GeneratedAt: time.Now().UTC(),
	}

	type groupKey struct{ market, commodity string }
	groups := make(map[groupKey][]model.PriceRecord)
	for _, r := range records {
		key := groupKey{r.Market, string(r.Commodity)}
		groups[key] = append(groups[key], r)
	}

	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].market != keys[j].market {
			return keys[i].market < keys[j].market
		}
		return keys[i].commodity < keys[j].commodity
	})

	var current *MarketSection
	for _, key := range keys {
		if current == nil || current.Market != key.market {
			doc.Markets = append(doc.Markets, MarketSection{Market: key.market})
			current = &doc.Markets[len(doc.Markets)-1]
		}

		recs := groups[key]
		sort.SliceStable(recs, func(i, j int) bool { return recs[i].Date.Before(recs[j].Date) })

		section := CommoditySection{Commodity: key.commodity}
		low, high := recs[0].PricePerKg, recs[0].PricePerKg
		sum := decimal.Zero
		for _, r := range recs {
			section.Lines = append(section.Lines, Line{
				Date:       r.Date.Format(time.DateOnly),
				Commodity:  key.commodity,
				PricePerKg: r.PricePerKg,
			})
			if r.PricePerKg < low {
				low = r.PricePerKg
			}
			if r.PricePerKg > high {
				high = r.PricePerKg
			}
			sum = sum.Add(decimal.NewFromFloat(r.PricePerKg))
		}
		current.Commodities = append(current.Commodities, section)

		avg := sum.Div(decimal.NewFromInt(int64(len(recs))))
		doc.Summary = append(doc.Summary, SummaryRow{
			Market:     key.market,
			Commodity:  key.commodity,
			AvgPerKg:   round2(avg),
			HighPerKg:  round2(decimal.NewFromFloat(high)),
			LowPerKg:   round2(decimal.NewFromFloat(low)),
			SampleSize: len(recs),
		})
	}
	return doc
}

func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
