package ingest

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/agriarche/price-intel/internal/metrics"
	"github.com/agriarche/price-intel/internal/taxonomy"
	"github.com/agriarche/price-intel/pkg/model"
)

//
// ────────────────────────────────────────────────
//   External (scraped) export reconciliation
// ────────────────────────────────────────────────
//
// The scraped export has no stable header set. Columns are renamed onto the
// fixed {Date, Price, Commodity, Location} schema by keyword, in original
// column order. Only the FIRST date-like column becomes Date — scraped files
// often carry both a market date and a scraped_at timestamp, and renaming
// both used to produce duplicate Date columns downstream.
//

// externalDateKeywords mark date-like headers in the scraped export.
var externalDateKeywords = []string{"date", "scraped_at", "time"}

// LoadExternal parses the scraped export at path. Missing file or any parse
// failure yields an empty Dataset.
func (l *Loader) LoadExternal(path string) model.Dataset {
	start := time.Now()
	defer metrics.ObserveDuration(metrics.DatasetLoadDuration, start, string(model.SourceExternal))

	ds := model.Dataset{Source: model.SourceExternal, Path: path, LoadedAt: time.Now().UTC()}

	if !fileExists(path) {
		l.logger.Warn("ingest.external.file_missing", zap.String("path", path))
		metrics.DatasetLoadsTotal.WithLabelValues(string(model.SourceExternal), "missing").Inc()
		return ds
	}

	table, err := ReadWorkbook(path)
	if err != nil {
		l.logger.Warn("ingest.external.load_failed", zap.String("path", path), zap.Error(err))
		metrics.DatasetLoadsTotal.WithLabelValues(string(model.SourceExternal), "error").Inc()
		return ds
	}

	table = dropDuplicateHeaders(table)
	renamed := reconcileHeaders(table.Headers)

	dateIdx := columnIndex(renamed, "Date")
	priceIdx := columnIndex(renamed, "Price")
	commIdx := columnIndex(renamed, "Commodity")
	locIdx := columnIndex(renamed, "Location")

	if dateIdx < 0 || priceIdx < 0 {
		l.logger.Warn("ingest.external.schema_incomplete",
			zap.String("path", path),
			zap.Bool("date", dateIdx >= 0),
			zap.Bool("price", priceIdx >= 0))
		metrics.DatasetLoadsTotal.WithLabelValues(string(model.SourceExternal), "schema").Inc()
		return ds
	}

	for _, row := range table.Rows {
		ts, ok := ParseDate(table.Cell(row, dateIdx))
		if !ok {
			ds.RowsDropped++
			metrics.RowsDroppedTotal.WithLabelValues(string(model.SourceExternal), "date").Inc()
			continue
		}
		price, ok := ParsePrice(table.Cell(row, priceIdx))
		if !ok {
			ds.RowsDropped++
			metrics.RowsDroppedTotal.WithLabelValues(string(model.SourceExternal), "price").Inc()
			continue
		}

		market := model.UnknownMarket
		if locIdx >= 0 {
			if m := strings.TrimSpace(table.Cell(row, locIdx)); m != "" {
				market = m
			}
		}

		ds.Records = append(ds.Records, model.PriceRecord{
			Date:      ts,
			Commodity: taxonomy.Normalize(table.Cell(row, commIdx)),
			Market:    market,
			// Scraped prices are quoted per bag; PricePerKg mirrors the raw
			// price here and the comparison layer applies the bag weight.
			Price:      price,
			PricePerKg: price,
			Source:     model.SourceExternal,
			Year:       ts.Year(),
			MonthName:  ts.Month().String(),
			Day:        ts.Day(),
		})
	}

	result := "ok"
	if ds.Empty() {
		result = "empty"
	}
	metrics.DatasetLoadsTotal.WithLabelValues(string(model.SourceExternal), result).Inc()
	l.logger.Info("ingest.external.loaded",
		zap.String("path", path),
		zap.Int("records", len(ds.Records)),
		zap.Int("rows_dropped", ds.RowsDropped))
	return ds
}

// dropDuplicateHeaders keeps only the first occurrence of each header name,
// removing the cells of later duplicates so lookups stay unambiguous.
func dropDuplicateHeaders(t Table) Table {
	seen := map[string]struct{}{}
	keep := make([]int, 0, len(t.Headers))
	for i, h := range t.Headers {
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		keep = append(keep, i)
	}
	if len(keep) == len(t.Headers) {
		return t
	}

	out := Table{Headers: make([]string, len(keep)), Rows: make([][]string, len(t.Rows))}
	for j, idx := range keep {
		out.Headers[j] = t.Headers[idx]
	}
	for i, row := range t.Rows {
		slim := make([]string, len(keep))
		for j, idx := range keep {
			slim[j] = t.Cell(row, idx)
		}
		out.Rows[i] = slim
	}
	return out
}

// reconcileHeaders maps raw headers onto the fixed external schema. Each
// target name is assigned at most once; later columns matching an already
// assigned target keep their raw name.
func reconcileHeaders(headers []string) []string {
	out := make([]string, len(headers))
	assigned := map[string]bool{}

	for i, h := range headers {
		low := strings.ToLower(h)
		target := ""
		switch {
		case containsAny(low, externalDateKeywords):
			target = "Date"
		case strings.Contains(low, "price"):
			target = "Price"
		case strings.Contains(low, "commodity"):
			target = "Commodity"
		case strings.Contains(low, "location") || strings.Contains(low, "market"):
			target = "Location"
		}

		if target != "" && !assigned[target] {
			out[i] = target
			assigned[target] = true
		} else {
			out[i] = h
		}
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
