package forecast

import (
	"sort"
	"time"
)

// ─────────────────────────────── Signals ───────────────────────────────

const (
	SignalBuy     = "BUY"
	SignalDontBuy = "DON'T BUY"
)

// Observation is one cleaned input row before feature derivation.
type Observation struct {
	Date      time.Time
	Commodity string
	Price     float64
}

// FeatureRow is one fully derived training example.
type FeatureRow struct {
	Date        time.Time
	Commodity   string
	Price       float64
	Lag1        float64
	Lag7        float64
	MA7         float64
	MA30        float64
	DayOfWeek   int
	Month       int
	CommodityLE int
	Signal      string
}

// FeatureNames lists the model inputs in training order.
var FeatureNames = []string{"lag_1", "lag_7", "ma_7", "ma_30", "dayofweek", "month", "commodity_le"}

// Vector returns the row's features in FeatureNames order.
func (r FeatureRow) Vector() []float64 {
	return []float64{r.Lag1, r.Lag7, r.MA7, r.MA30, float64(r.DayOfWeek), float64(r.Month), float64(r.CommodityLE)}
}

// ─────────────────────────── Label encoding ────────────────────────────

// LabelEncoder maps commodity names to dense integer codes. Classes are
// sorted so the same input set always yields the same encoding.
type LabelEncoder struct {
	Classes []string `json:"classes"`
	index   map[string]int
}

// FitLabelEncoder builds an encoder over the unique values in names.
func FitLabelEncoder(names []string) *LabelEncoder {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		seen[n] = struct{}{}
	}
	classes := make([]string, 0, len(seen))
	for n := range seen {
		classes = append(classes, n)
	}
	sort.Strings(classes)

	enc := &LabelEncoder{Classes: classes}
	enc.buildIndex()
	return enc
}

func (e *LabelEncoder) buildIndex() {
	e.index = make(map[string]int, len(e.Classes))
	for i, c := range e.Classes {
		e.index[c] = i
	}
}

// Encode returns the code for name, or -1 for a class the encoder never saw.
func (e *LabelEncoder) Encode(name string) int {
	if e.index == nil {
		e.buildIndex()
	}
	if code, ok := e.index[name]; ok {
		return code
	}
	return -1
}

// ────────────────────────── Feature derivation ─────────────────────────

// BuildFeatures derives lag and moving-average features per commodity.
// Observations are sorted chronologically within each commodity before
// windows are computed; rows without a full lag_1 history are dropped,
// and missing lag_7 falls back to lag_1 while a short moving-average
// window averages whatever history exists.
func BuildFeatures(obs []Observation, enc *LabelEncoder) []FeatureRow {
	byCommodity := make(map[string][]Observation)
	for _, o := range obs {
		byCommodity[o.Commodity] = append(byCommodity[o.Commodity], o)
	}

	names := make([]string, 0, len(byCommodity))
	for name := range byCommodity {
		names = append(names, name)
	}
	sort.Strings(names)

	var rows []FeatureRow
	for _, name := range names {
		series := byCommodity[name]
		sort.SliceStable(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })

		for i, o := range series {
			if i == 0 {
				continue // no lag_1 history
			}
			lag1 := series[i-1].Price
			lag7 := lag1
			if i >= 7 {
				lag7 = series[i-7].Price
			}
			row := FeatureRow{
				Date:        o.Date,
				Commodity:   o.Commodity,
				Price:       o.Price,
				Lag1:        lag1,
				Lag7:        lag7,
				MA7:         trailingMean(series, i, 7),
				MA30:        trailingMean(series, i, 30),
				DayOfWeek:   int(o.Date.Weekday()),
				Month:       int(o.Date.Month()),
				CommodityLE: enc.Encode(o.Commodity),
			}
			row.Signal = SignalBuy
			if row.Price < row.MA30 {
				row.Signal = SignalDontBuy
			}
			rows = append(rows, row)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return rows
}

// trailingMean averages the window of prices ending at i exclusive.
func trailingMean(series []Observation, i, window int) float64 {
	start := i - window
	if start < 0 {
		start = 0
	}
	var sum float64
	for _, o := range series[start:i] {
		sum += o.Price
	}
	return sum / float64(i-start)
}
