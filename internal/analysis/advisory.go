package analysis

import (
	"fmt"

	"github.com/agriarche/price-intel/pkg/model"
)

//
// ────────────────────────────────────────────────
//   Advisory Classification
// ────────────────────────────────────────────────
//

// Signal is the three-way procurement classification for a filtered window.
// It is a fixed rule, not a model: no calibration, no confidence bound.
type Signal string

const (
	// SignalHighVolatility: the window's (max-min)/min spread exceeds the
	// volatility threshold. Spot-buying is discouraged.
	SignalHighVolatility Signal = "high_volatility"
	// SignalBuyWindow: the window mean sits below the commodity's all-time
	// mean. Favourable for inventory stocking.
	SignalBuyWindow Signal = "buy_window"
	// SignalStable: neither condition holds.
	SignalStable Signal = "stable"
)

// HighVolatilityThresholdPct is the (max-min)/min percentage above which a
// window is classified high-volatility.
const HighVolatilityThresholdPct = 20.0

// Advisory is the classification plus the figures that produced it.
type Advisory struct {
	Signal        Signal  `json:"signal"`
	VolatilityPct float64 `json:"volatility_pct"`
	WindowMean    float64 `json:"window_mean"`
	AllTimeMean   float64 `json:"all_time_mean"`
	// BelowAveragePct is how far the window mean sits below the all-time
	// mean, as a percentage of the all-time mean. Zero unless buy_window.
	BelowAveragePct float64 `json:"below_average_pct"`
	Headline        string  `json:"headline"`
}

// Advise classifies a filtered window against the commodity's full history.
// window is the filtered subset; history is every record of the same
// commodity regardless of filters. The bool result is false when the window
// is empty.
func Advise(window, history []model.PriceRecord) (Advisory, bool) {
	stats, ok := Summarize(window)
	if !ok {
		return Advisory{}, false
	}
	allTime, _ := Summarize(history)

	adv := Advisory{
		Signal:      SignalStable,
		WindowMean:  stats.Mean,
		AllTimeMean: allTime.Mean,
	}
	if stats.Min > 0 {
		adv.VolatilityPct = (stats.Max - stats.Min) / stats.Min * 100
	}

	switch {
	case adv.VolatilityPct > HighVolatilityThresholdPct:
		adv.Signal = SignalHighVolatility
		adv.Headline = fmt.Sprintf(
			"High volatility warning: prices are fluctuating significantly (%.1f%%). Avoid spot-buying; look for long-term fixed contracts.",
			adv.VolatilityPct)
	case allTime.Mean > 0 && stats.Mean < allTime.Mean:
		adv.Signal = SignalBuyWindow
		adv.BelowAveragePct = (allTime.Mean - stats.Mean) / allTime.Mean * 100
		adv.Headline = fmt.Sprintf(
			"Optimal buy window: prices are %.1f%% below the all-time average. Strong window for inventory stocking.",
			adv.BelowAveragePct)
	default:
		adv.Headline = "Market stability: stable price action. Proceed with standard procurement volumes."
	}

	return adv, true
}
