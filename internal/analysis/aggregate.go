package analysis

import (
	"sort"
	"strings"

	"github.com/agriarche/price-intel/internal/taxonomy"
	"github.com/agriarche/price-intel/pkg/model"
)

//
// ────────────────────────────────────────────────
//   Filter / Aggregation Layer
// ────────────────────────────────────────────────
//
// Every operation here is a pure pass over an in-memory snapshot: records
// in, derived figures out. Nothing is mutated or persisted.
//

// AllMarkets is the selection wildcard for the market filter.
const AllMarkets = "All Markets"

// Selection holds the user-chosen filters. Zero values mean "no filter" for
// that dimension.
type Selection struct {
	Commodity taxonomy.CommodityName `json:"commodity"`
	Market    string                 `json:"market"`
	Month     string                 `json:"month"`
	Years     []int                  `json:"years"`
}

// Filter returns the subset of records matching every set dimension.
func Filter(records []model.PriceRecord, sel Selection) []model.PriceRecord {
	yearSet := map[int]struct{}{}
	for _, y := range sel.Years {
		yearSet[y] = struct{}{}
	}

	var out []model.PriceRecord
	for _, r := range records {
		if sel.Commodity != "" && r.Commodity != sel.Commodity {
			continue
		}
		if sel.Market != "" && sel.Market != AllMarkets && r.Market != sel.Market {
			continue
		}
		if sel.Month != "" && !strings.EqualFold(r.MonthName, sel.Month) {
			continue
		}
		if len(yearSet) > 0 {
			if _, ok := yearSet[r.Year]; !ok {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// Search keeps records whose commodity, market, month, or year rendering
// contains the query, case-insensitively. An empty query keeps everything.
func Search(records []model.PriceRecord, query string) []model.PriceRecord {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return records
	}

	var out []model.PriceRecord
	for _, r := range records {
		haystack := strings.ToLower(
			string(r.Commodity) + " " + r.Market + " " + r.MonthName + " " + r.Date.Format("2006-01-02"))
		if strings.Contains(haystack, q) {
			out = append(out, r)
		}
	}
	return out
}

// SummaryStats are the descriptive figures over one filtered subset,
// computed on the per-kg price.
type SummaryStats struct {
	Mean  float64 `json:"mean"`
	Max   float64 `json:"max"`
	Min   float64 `json:"min"`
	Count int     `json:"count"`
}

// Summarize computes mean/max/min over the per-kg prices. The bool result is
// false for an empty subset.
func Summarize(records []model.PriceRecord) (SummaryStats, bool) {
	if len(records) == 0 {
		return SummaryStats{}, false
	}

	s := SummaryStats{
		Max:   records[0].PricePerKg,
		Min:   records[0].PricePerKg,
		Count: len(records),
	}
	var sum float64
	for _, r := range records {
		sum += r.PricePerKg
		if r.PricePerKg > s.Max {
			s.Max = r.PricePerKg
		}
		if r.PricePerKg < s.Min {
			s.Min = r.PricePerKg
		}
	}
	s.Mean = sum / float64(len(records))
	return s, true
}

// TrendPoint is one (year, day-of-month) bucket of the daily mean series.
type TrendPoint struct {
	Year      int     `json:"year"`
	Day       int     `json:"day"`
	MeanPrice float64 `json:"mean_price"`
	Count     int     `json:"count"`
}

// DailyTrend groups records by (year, day) and returns the per-bucket mean
// per-kg price, ordered by year then day.
func DailyTrend(records []model.PriceRecord) []TrendPoint {
	type bucket struct {
		sum   float64
		count int
	}
	type key struct {
		year, day int
	}

	buckets := map[key]*bucket{}
	for _, r := range records {
		k := key{r.Year, r.Day}
		b, ok := buckets[k]
		if !ok {
			b = &bucket{}
			buckets[k] = b
		}
		b.sum += r.PricePerKg
		b.count++
	}

	out := make([]TrendPoint, 0, len(buckets))
	for k, b := range buckets {
		out = append(out, TrendPoint{
			Year:      k.year,
			Day:       k.day,
			MeanPrice: b.sum / float64(b.count),
			Count:     b.count,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Day < out[j].Day
	})
	return out
}

// MarketMean is the mean per-kg price of one market within a subset.
type MarketMean struct {
	Market string  `json:"market"`
	Mean   float64 `json:"mean"`
	Count  int     `json:"count"`
}

// Ranking orders every market of a subset from cheapest to priciest mean.
// Best is the minimum-mean market ("best to buy"), Worst the maximum.
type Ranking struct {
	Markets []MarketMean `json:"markets"`
	Best    MarketMean   `json:"best"`
	Worst   MarketMean   `json:"worst"`
}

// RankMarkets computes the cross-market ranking for a (pre-filtered) subset.
// Ties on mean price break deterministically by market name ascending. The
// bool result is false for an empty subset.
func RankMarkets(records []model.PriceRecord) (Ranking, bool) {
	if len(records) == 0 {
		return Ranking{}, false
	}

	type agg struct {
		sum   float64
		count int
	}
	byMarket := map[string]*agg{}
	for _, r := range records {
		a, ok := byMarket[r.Market]
		if !ok {
			a = &agg{}
			byMarket[r.Market] = a
		}
		a.sum += r.PricePerKg
		a.count++
	}

	means := make([]MarketMean, 0, len(byMarket))
	for market, a := range byMarket {
		means = append(means, MarketMean{
			Market: market,
			Mean:   a.sum / float64(a.count),
			Count:  a.count,
		})
	}
	sort.Slice(means, func(i, j int) bool {
		if means[i].Mean != means[j].Mean {
			return means[i].Mean < means[j].Mean
		}
		return means[i].Market < means[j].Market
	})

	return Ranking{
		Markets: means,
		Best:    means[0],
		Worst:   means[len(means)-1],
	}, true
}

// GapRow is the per-commodity arbitrage summary: the spread between the
// cheapest and priciest observation and where each was seen.
type GapRow struct {
	Commodity      taxonomy.CommodityName `json:"commodity"`
	MinPrice       float64                `json:"min_price"`
	MaxPrice       float64                `json:"max_price"`
	AvgPrice       float64                `json:"avg_price"`
	Gap            float64                `json:"gap"`
	CheapestMarket string                 `json:"cheapest_market"`
	PriciestMarket string                 `json:"priciest_market"`
}

// GapAnalysis computes one GapRow per commodity in the subset, sorted by
// commodity name. The cheapest/priciest market is the one of the first
// record carrying the extreme price, in input order.
func GapAnalysis(records []model.PriceRecord) []GapRow {
	byCommodity := map[taxonomy.CommodityName][]model.PriceRecord{}
	for _, r := range records {
		byCommodity[r.Commodity] = append(byCommodity[r.Commodity], r)
	}

	out := make([]GapRow, 0, len(byCommodity))
	for commodity, recs := range byCommodity {
		stats, _ := Summarize(recs)
		row := GapRow{
			Commodity:      commodity,
			MinPrice:       stats.Min,
			MaxPrice:       stats.Max,
			AvgPrice:       stats.Mean,
			Gap:            stats.Max - stats.Min,
			CheapestMarket: marketOfPrice(recs, stats.Min),
			PriciestMarket: marketOfPrice(recs, stats.Max),
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Commodity < out[j].Commodity })
	return out
}

func marketOfPrice(records []model.PriceRecord, price float64) string {
	for _, r := range records {
		if r.PricePerKg == price {
			return r.Market
		}
	}
	return model.UnknownMarket
}
