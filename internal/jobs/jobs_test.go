package jobs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/agriarche/price-intel/internal/ingest"
	"github.com/agriarche/price-intel/pkg/model"
)

type mockCache struct {
	cached   []model.Dataset
	archived []model.Dataset
	hit      *model.Dataset
}

func (m *mockCache) CacheDataset(ctx context.Context, ds model.Dataset, mtime time.Time, ttl time.Duration) error {
	m.cached = append(m.cached, ds)
	return nil
}

func (m *mockCache) GetCachedDataset(ctx context.Context, source model.Source, path string, mtime time.Time) (*model.Dataset, error) {
	return m.hit, nil
}

func (m *mockCache) ArchiveRecords(ctx context.Context, ds model.Dataset) error {
	m.archived = append(m.archived, ds)
	return nil
}

type mockEventPublisher struct {
	reloaded []model.Dataset
	raw      []string
}

func (m *mockEventPublisher) PublishDatasetReloaded(ctx context.Context, ds model.Dataset) error {
	m.reloaded = append(m.reloaded, ds)
	return nil
}

func (m *mockEventPublisher) Publish(ctx context.Context, subject string, payload any) error {
	m.raw = append(m.raw, subject)
	return nil
}

func writePricingWorkbook(t *testing.T, path string, rows [][]any) {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	headers := []any{"Date", "Commodity", "Market", "Price", "price_per_kg"}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		require.NoError(t, f.SetCellValue(sheet, cell, h))
	}
	for i, row := range rows {
		for col, v := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
	require.NoError(t, f.SaveAs(path))
}

func TestDatasetRefresher_LoadCacheArchivePublish(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pricing.xlsx")
	writePricingWorkbook(t, path, [][]any{
		{"2024-03-01", "maize grain", "Zaria", 45000, 450},
		{"2024-03-02", "soya beans", "Mubi", 62000, 620},
	})

	cache := &mockCache{}
	pub := &mockEventPublisher{}
	r := NewDatasetRefresher(nil, ingest.NewLoader(nil), cache, pub,
		path, filepath.Join(dir, "absent.xlsx"), time.Minute, time.Minute)

	r.RefreshNow(context.Background())

	ds := r.Internal()
	require.Len(t, ds.Records, 2)
	assert.Equal(t, model.SourceInternal, ds.Source)
	assert.True(t, r.External().Empty())

	require.Len(t, cache.cached, 1)
	require.Len(t, cache.archived, 1)
	require.Len(t, pub.reloaded, 1)
	assert.Equal(t, 2, pub.reloaded[0].Records[1].Day)
}

func TestDatasetRefresher_SkipsUnchangedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pricing.xlsx")
	writePricingWorkbook(t, path, [][]any{
		{"2024-03-01", "maize", "Zaria", 45000, 450},
	})

	cache := &mockCache{}
	pub := &mockEventPublisher{}
	r := NewDatasetRefresher(nil, ingest.NewLoader(nil), cache, pub,
		path, filepath.Join(dir, "absent.xlsx"), time.Minute, time.Minute)

	r.RefreshNow(context.Background())
	r.RefreshNow(context.Background())

	assert.Len(t, pub.reloaded, 1) // unchanged mtime, no second reload
	assert.Len(t, r.Internal().Records, 1)
}

func TestDatasetRefresher_ReloadsOnMtimeChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pricing.xlsx")
	writePricingWorkbook(t, path, [][]any{
		{"2024-03-01", "maize", "Zaria", 45000, 450},
	})

	pub := &mockEventPublisher{}
	r := NewDatasetRefresher(nil, ingest.NewLoader(nil), nil, pub,
		path, filepath.Join(dir, "absent.xlsx"), time.Minute, time.Minute)

	r.RefreshNow(context.Background())

	writePricingWorkbook(t, path, [][]any{
		{"2024-03-01", "maize", "Zaria", 45000, 450},
		{"2024-03-02", "rice", "Zaria", 91000, 910},
	})
	newMtime := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, newMtime, newMtime))

	r.RefreshNow(context.Background())

	assert.Len(t, pub.reloaded, 2)
	assert.Len(t, r.Internal().Records, 2)
}

func TestDatasetRefresher_ServesCachedSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pricing.xlsx")
	writePricingWorkbook(t, path, [][]any{
		{"2024-03-01", "maize", "Zaria", 45000, 450},
	})

	cached := model.Dataset{
		Source: model.SourceInternal,
		Path:   path,
		Records: []model.PriceRecord{
			{Commodity: "Maize", Market: "CachedMarket", PricePerKg: 123},
		},
	}
	cache := &mockCache{hit: &cached}
	pub := &mockEventPublisher{}
	r := NewDatasetRefresher(nil, ingest.NewLoader(nil), cache, pub,
		path, filepath.Join(dir, "absent.xlsx"), time.Minute, time.Minute)

	r.RefreshNow(context.Background())

	require.Len(t, r.Internal().Records, 1)
	assert.Equal(t, "CachedMarket", r.Internal().Records[0].Market)
	assert.Empty(t, pub.reloaded) // cache hit publishes nothing
}

type mockSummaryWriter struct {
	rows [][2]string
}

func (m *mockSummaryWriter) UpsertMarketSummary(ctx context.Context, commodity, market string, mean, low, high float64, samples int) error {
	m.rows = append(m.rows, [2]string{commodity, market})
	return nil
}

type staticSnapshots struct{ ds model.Dataset }

func (s staticSnapshots) Internal() model.Dataset { return s.ds }

func TestSummaryRefresher_RunOnce(t *testing.T) {
	ds := model.Dataset{
		Source: model.SourceInternal,
		Records: []model.PriceRecord{
			{Commodity: "Maize", Market: "Zaria", PricePerKg: 450},
			{Commodity: "Maize", Market: "Mubi", PricePerKg: 470},
			{Commodity: "Rice", Market: "Zaria", PricePerKg: 910},
		},
	}

	writer := &mockSummaryWriter{}
	pub := &mockEventPublisher{}
	r := NewSummaryRefresher(nil, staticSnapshots{ds}, writer, pub, time.Hour)

	r.RunOnce(context.Background())

	assert.Len(t, writer.rows, 3)
	require.Len(t, pub.raw, 1)
	assert.Equal(t, "evt.market.summary.refreshed.v1", pub.raw[0])
}

func TestSummaryRefresher_SkipsEmptySnapshot(t *testing.T) {
	writer := &mockSummaryWriter{}
	r := NewSummaryRefresher(nil, staticSnapshots{}, writer, nil, time.Hour)

	r.RunOnce(context.Background())
	assert.Empty(t, writer.rows)
}
