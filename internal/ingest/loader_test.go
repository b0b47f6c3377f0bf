package ingest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/agriarche/price-intel/internal/taxonomy"
	"github.com/agriarche/price-intel/pkg/model"
)

// writeWorkbook builds an xlsx file with the given rows on the first sheet.
func writeWorkbook(t *testing.T, path string, rows [][]string) {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for j, cell := range row {
			ref, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, ref, cell))
		}
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
}

func TestLoadInternal_MissingFile(t *testing.T) {
	l := NewLoader(nil)
	ds := l.LoadInternal(filepath.Join(t.TempDir(), "nope.xlsx"))

	assert.True(t, ds.Empty())
	assert.Len(t, ds.Records, 0)
}

func TestLoadInternal_SchemaDetectionAndNormalization(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Predictive Analysis Commodity pricing.xlsx")
	writeWorkbook(t, path, [][]string{
		{"Start Time ", " Clean Price", "Commodity Name", "Market"},
		{"2025-01-05", "52000", "soya beans", "Giwa"},
		{"2025-01-06", "1,250.50", "Sorghum Red", "Dawanau"},
		{"not-a-date", "100", "Maize", "Giwa"},    // dropped: bad date
		{"2025-01-07", "abc", "Maize", "Giwa"},    // dropped: bad price
		{"2025-02-10", "48000", "Soyabean", ""},   // empty market -> Unknown
	})

	l := NewLoader(nil)
	ds := l.LoadInternal(path)

	require.Len(t, ds.Records, 3)
	assert.Equal(t, 2, ds.RowsDropped)

	first := ds.Records[0]
	assert.Equal(t, taxonomy.Soybeans, first.Commodity)
	assert.Equal(t, "Giwa", first.Market)
	assert.Equal(t, 52000.0, first.Price)
	assert.Equal(t, 52000.0, first.PricePerKg, "no per-kg column: raw price is copied")
	assert.Equal(t, 2025, first.Year)
	assert.Equal(t, "January", first.MonthName)
	assert.Equal(t, 5, first.Day)

	assert.Equal(t, taxonomy.SorghumRed, ds.Records[1].Commodity)
	assert.Equal(t, 1250.50, ds.Records[1].Price)

	assert.Equal(t, model.UnknownMarket, ds.Records[2].Market)
	assert.Equal(t, "February", ds.Records[2].MonthName)
}

func TestLoadInternal_DedicatedPerKgColumn(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prices.xlsx")
	writeWorkbook(t, path, [][]string{
		{"Date", "price_per_kg", "Commodity", "Market", "Bag Price"},
		{"2025-03-01", "520", "maize", "Funtua", "52000"},
	})

	ds := NewLoader(nil).LoadInternal(path)

	require.Len(t, ds.Records, 1)
	// price_per_kg wins the price role scan, so Price and PricePerKg agree.
	assert.Equal(t, 520.0, ds.Records[0].Price)
	assert.Equal(t, 520.0, ds.Records[0].PricePerKg)
}

func TestLoadInternal_RequiredRoleMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prices.xlsx")
	writeWorkbook(t, path, [][]string{
		{"Date", "Volume", "Commodity"}, // no price-like column
		{"2025-03-01", "10", "maize"},
	})

	ds := NewLoader(nil).LoadInternal(path)
	assert.True(t, ds.Empty(), "missing required role degrades to empty dataset")
}

func TestLoadExternal_HeaderReconciliation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clean_prices.xlsx")
	writeWorkbook(t, path, [][]string{
		// market_date is date-like and comes first; scraped_at must NOT be
		// renamed to Date as well.
		{"market_date", "scraped_at", "bag_price", "commodity_name", "market"},
		{"2025-04-02", "2025-04-03", "60,000", "cowpea brown", "Potiskum"},
		{"2025-04-03", "2025-04-04", "bad", "maize", "Giwa"}, // dropped: bad price
	})

	ds := NewLoader(nil).LoadExternal(path)

	require.Len(t, ds.Records, 1)
	assert.Equal(t, 1, ds.RowsDropped)

	rec := ds.Records[0]
	assert.Equal(t, taxonomy.CowpeaBrown, rec.Commodity)
	assert.Equal(t, "Potiskum", rec.Market)
	assert.Equal(t, 60000.0, rec.Price)
	assert.Equal(t, "April", rec.MonthName)
	assert.Equal(t, 2, rec.Day, "Date comes from market_date, not scraped_at")
	assert.Equal(t, model.SourceExternal, rec.Source)
}

func TestLoadExternal_MissingFile(t *testing.T) {
	ds := NewLoader(nil).LoadExternal(filepath.Join(t.TempDir(), "data", "clean_prices.xlsx"))
	assert.True(t, ds.Empty())
}

func TestReconcileHeaders_TargetAssignedOnce(t *testing.T) {
	headers := []string{"price_low", "price_high", "Commodity", "Market", "Location"}
	out := reconcileHeaders(headers)

	assert.Equal(t, "Price", out[0])
	assert.Equal(t, "price_high", out[1], "second price-like column keeps its raw name")
	assert.Equal(t, "Commodity", out[2])
	assert.Equal(t, "Location", out[3], "market maps to Location")
	assert.Equal(t, "Location", out[4], "raw name collides with assigned target but is left as-is")
}

func TestDropDuplicateHeaders(t *testing.T) {
	table := Table{
		Headers: []string{"Date", "Price", "Date", "Commodity"},
		Rows: [][]string{
			{"2025-01-01", "100", "2024-12-31", "maize"},
		},
	}

	out := dropDuplicateHeaders(table)

	assert.Equal(t, []string{"Date", "Price", "Commodity"}, out.Headers)
	assert.Equal(t, []string{"2025-01-01", "100", "maize"}, out.Rows[0])
}

func TestLocateInternalFile(t *testing.T) {
	dir := t.TempDir()

	_, found := LocateInternalFile(dir)
	assert.False(t, found)

	// Glob fallback picks up renamed exports.
	globPath := filepath.Join(dir, "predictive_prices_v2.xlsx")
	writeWorkbook(t, globPath, [][]string{{"Date", "Price", "Commodity"}})

	got, found := LocateInternalFile(dir)
	assert.True(t, found)
	assert.Equal(t, globPath, got)

	// Exact name beats the glob.
	exact := filepath.Join(dir, InternalFileName)
	writeWorkbook(t, exact, [][]string{{"Date", "Price", "Commodity"}})

	got, found = LocateInternalFile(dir)
	assert.True(t, found)
	assert.Equal(t, exact, got)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		cell string
		ok   bool
	}{
		{"2025-01-05", true},
		{"2025-01-05 14:30:00", true},
		{"1/5/2025", true},
		{"", false},
		{"tomorrow", false},
	}
	for _, tt := range tests {
		_, ok := ParseDate(tt.cell)
		assert.Equal(t, tt.ok, ok, "cell %q", tt.cell)
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		cell string
		want float64
		ok   bool
	}{
		{"52000", 52000, true},
		{"1,250.50", 1250.50, true},
		{"₦900", 900, true},
		{" 45 ", 45, true},
		{"", 0, false},
		{"n/a", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParsePrice(tt.cell)
		assert.Equal(t, tt.ok, ok, "cell %q", tt.cell)
		if ok {
			assert.Equal(t, tt.want, got, "cell %q", tt.cell)
		}
	}
}
