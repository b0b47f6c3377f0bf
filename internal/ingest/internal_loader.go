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
//   Loader – Reconciles source exports onto the
//   canonical PriceRecord schema
// ────────────────────────────────────────────────
//
// Loaders are stateless functions of an explicit path: memoization belongs
// to the snapshot store, not here. Every failure below the loader boundary
// degrades to an empty Dataset; callers distinguish causes through logs and
// metrics only, never through the return value.
//

// Loader parses source spreadsheets into normalized datasets.
type Loader struct {
	logger *zap.Logger
}

// NewLoader constructs a Loader. A nil logger falls back to a no-op logger.
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{logger: logger}
}

// LoadInternal parses the primary structured export at path. A missing file,
// undetectable schema, or corrupt workbook all yield an empty Dataset.
func (l *Loader) LoadInternal(path string) model.Dataset {
	start := time.Now()
	defer metrics.ObserveDuration(metrics.DatasetLoadDuration, start, string(model.SourceInternal))

	ds := model.Dataset{Source: model.SourceInternal, Path: path, LoadedAt: time.Now().UTC()}

	if !fileExists(path) {
		l.logger.Warn("ingest.internal.file_missing", zap.String("path", path))
		metrics.DatasetLoadsTotal.WithLabelValues(string(model.SourceInternal), "missing").Inc()
		return ds
	}

	table, err := ReadWorkbook(path)
	if err != nil {
		l.logger.Warn("ingest.internal.load_failed", zap.String("path", path), zap.Error(err))
		metrics.DatasetLoadsTotal.WithLabelValues(string(model.SourceInternal), "error").Inc()
		return ds
	}

	schema := DetectSchema(table.Headers)
	if !schema.Complete() {
		l.logger.Warn("ingest.internal.schema_incomplete",
			zap.String("path", path),
			zap.Bool("date", schema.Date.Found),
			zap.Bool("price", schema.Price.Found),
			zap.Bool("commodity", schema.Commodity.Found))
		metrics.DatasetLoadsTotal.WithLabelValues(string(model.SourceInternal), "schema").Inc()
		return ds
	}

	dateIdx := columnIndex(table.Headers, schema.Date.Column)
	priceIdx := columnIndex(table.Headers, schema.Price.Column)
	commIdx := columnIndex(table.Headers, schema.Commodity.Column)
	marketIdx := -1
	if schema.Market.Found {
		marketIdx = columnIndex(table.Headers, schema.Market.Column)
	}
	// A dedicated per-kg column beats the fallback copy of the raw price.
	perKgIdx := perKgColumnIndex(table.Headers)

	for _, row := range table.Rows {
		ts, ok := ParseDate(table.Cell(row, dateIdx))
		if !ok {
			ds.RowsDropped++
			metrics.RowsDroppedTotal.WithLabelValues(string(model.SourceInternal), "date").Inc()
			continue
		}
		price, ok := ParsePrice(table.Cell(row, priceIdx))
		if !ok {
			ds.RowsDropped++
			metrics.RowsDroppedTotal.WithLabelValues(string(model.SourceInternal), "price").Inc()
			continue
		}

		perKg := price
		if perKgIdx >= 0 {
			if v, ok := ParsePrice(table.Cell(row, perKgIdx)); ok {
				perKg = v
			}
		}

		market := model.UnknownMarket
		if marketIdx >= 0 {
			if m := strings.TrimSpace(table.Cell(row, marketIdx)); m != "" {
				market = m
			}
		}

		ds.Records = append(ds.Records, model.PriceRecord{
			Date:       ts,
			Commodity:  taxonomy.Normalize(table.Cell(row, commIdx)),
			Market:     market,
			Price:      price,
			PricePerKg: perKg,
			Source:     model.SourceInternal,
			Year:       ts.Year(),
			MonthName:  ts.Month().String(),
			Day:        ts.Day(),
		})
	}

	result := "ok"
	if ds.Empty() {
		result = "empty"
	}
	metrics.DatasetLoadsTotal.WithLabelValues(string(model.SourceInternal), result).Inc()
	l.logger.Info("ingest.internal.loaded",
		zap.String("path", path),
		zap.Int("records", len(ds.Records)),
		zap.Int("rows_dropped", ds.RowsDropped))
	return ds
}

// perKgColumnIndex finds a dedicated per-kg price column, if any. When the
// export carries only a bag or unknown-basis price, the loader copies the raw
// price instead — a fallback, not a unit conversion.
func perKgColumnIndex(headers []string) int {
	for i, h := range headers {
		if strings.Contains(strings.ToLower(h), "price_per_kg") {
			return i
		}
	}
	return -1
}
