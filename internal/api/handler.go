package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/agriarche/price-intel/internal/analysis"
	"github.com/agriarche/price-intel/internal/report"
	"github.com/agriarche/price-intel/internal/taxonomy"
	"github.com/agriarche/price-intel/pkg/model"
)

// Snapshots exposes the current datasets held by the refresher.
type Snapshots interface {
	Internal() model.Dataset
	External() model.Dataset
}

type Handler struct {
	Logger  *zap.Logger
	Data    Snapshots
	Weights analysis.BagWeights
}

// dataset resolves the ?source= query, defaulting to the primary export.
func (h *Handler) dataset(c *fiber.Ctx) model.Dataset {
	if c.Query("source") == string(model.SourceExternal) {
		return h.Data.External()
	}
	return h.Data.Internal()
}

// selection builds the filter dimensions from query parameters.
func selection(c *fiber.Ctx) analysis.Selection {
	sel := analysis.Selection{
		Market: c.Query("market"),
		Month:  c.Query("month"),
	}
	if raw := c.Query("commodity"); raw != "" {
		sel.Commodity = taxonomy.Normalize(raw)
	}
	if years := c.Query("years"); years != "" {
		for _, part := range strings.Split(years, ",") {
			if y, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
				sel.Years = append(sel.Years, y)
			}
		}
	}
	return sel
}

// ListRecords returns the filtered records of one source, with optional
// free-text search via ?q=.
func (h *Handler) ListRecords(c *fiber.Ctx) error {
	ds := h.dataset(c)
	records := analysis.Filter(ds.Records, selection(c))
	if q := c.Query("q"); q != "" {
		records = analysis.Search(records, q)
	}

	return c.Status(http.StatusOK).JSON(RecordsResponse{
		Source:      ds.Source,
		Path:        ds.Path,
		Count:       len(records),
		RowsDropped: ds.RowsDropped,
		Records:     records,
	})
}

// ListCommodities returns the canonical names present in the snapshot,
// each with its curated profile.
func (h *Handler) ListCommodities(c *fiber.Ctx) error {
	ds := h.dataset(c)
	out := make([]CommodityResponse, 0, len(ds.Commodities()))
	for _, name := range ds.Commodities() {
		profile, curated := taxonomy.ProfileFor(name)
		out = append(out, CommodityResponse{Name: name, Curated: curated, Profile: profile})
	}
	return c.Status(http.StatusOK).JSON(out)
}

// GetProfile returns one commodity's profile, canonicalizing the path value
// first so "soya beans" and "Soybeans" land on the same entry.
func (h *Handler) GetProfile(c *fiber.Ctx) error {
	raw, err := url.PathUnescape(c.Params("commodity"))
	if err != nil || raw == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "missing commodity"})
	}
	name := taxonomy.Normalize(raw)
	profile, curated := taxonomy.ProfileFor(name)
	return c.Status(http.StatusOK).JSON(CommodityResponse{Name: name, Curated: curated, Profile: profile})
}

// GetTrend returns the daily mean series for the selection.
func (h *Handler) GetTrend(c *fiber.Ctx) error {
	sel := selection(c)
	if sel.Commodity == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "missing commodity"})
	}
	ds := h.dataset(c)
	points := analysis.DailyTrend(analysis.Filter(ds.Records, sel))
	return c.Status(http.StatusOK).JSON(TrendResponse{
		Commodity: sel.Commodity,
		Market:    sel.Market,
		Month:     sel.Month,
		Points:    points,
	})
}

// GetSummary returns window statistics plus the procurement advisory for
// the selection.
func (h *Handler) GetSummary(c *fiber.Ctx) error {
	sel := selection(c)
	if sel.Commodity == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "missing commodity"})
	}
	ds := h.dataset(c)

	window := analysis.Filter(ds.Records, sel)
	stats, ok := analysis.Summarize(window)
	if !ok {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "no records for selection"})
	}

	history := analysis.Filter(ds.Records, analysis.Selection{Commodity: sel.Commodity})
	advisory, _ := analysis.Advise(window, history)

	return c.Status(http.StatusOK).JSON(SummaryResponse{
		Commodity: sel.Commodity,
		Market:    sel.Market,
		Stats:     stats,
		Advisory:  advisory,
	})
}

// GetRanking returns markets ordered from cheapest to priciest mean.
func (h *Handler) GetRanking(c *fiber.Ctx) error {
	sel := selection(c)
	if sel.Commodity == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "missing commodity"})
	}
	ds := h.dataset(c)

	ranking, ok := analysis.RankMarkets(analysis.Filter(ds.Records, sel))
	if !ok {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "no records for selection"})
	}
	return c.Status(http.StatusOK).JSON(ranking)
}

// GetGap returns per-commodity price gaps across the whole snapshot.
func (h *Handler) GetGap(c *fiber.Ctx) error {
	ds := h.dataset(c)
	rows := analysis.GapAnalysis(analysis.Filter(ds.Records, selection(c)))
	return c.Status(http.StatusOK).JSON(rows)
}

// GetCompare measures the external per-bag mean against the internal per-kg
// mean for one commodity.
func (h *Handler) GetCompare(c *fiber.Ctx) error {
	raw := c.Query("commodity")
	if raw == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "missing commodity"})
	}
	commodity := taxonomy.Normalize(raw)

	cmp, ok := analysis.CompareSources(
		h.Data.Internal().Records,
		h.Data.External().Records,
		commodity,
		c.Query("internal_market"),
		c.Query("external_market"),
		h.Weights,
	)
	if !ok {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "no overlapping records for commodity"})
	}
	return c.Status(http.StatusOK).JSON(cmp)
}

// GetReport assembles the monthly document over the filtered records.
func (h *Handler) GetReport(c *fiber.Ctx) error {
	month, err := url.PathUnescape(c.Params("month"))
	if err != nil || month == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "missing month"})
	}

	sel := selection(c)
	sel.Month = month
	ds := h.dataset(c)

	doc := report.Assemble(month, analysis.Filter(ds.Records, sel))
	if doc.Empty() {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "no records for month"})
	}

	h.Logger.Info("api.report_generated",
		zap.String("report_id", doc.ID),
		zap.String("month", month),
		zap.Int("summary_rows", len(doc.Summary)))
	return c.Status(http.StatusOK).JSON(doc)
}
