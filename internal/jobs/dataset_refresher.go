package jobs

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/agriarche/price-intel/internal/ingest"
	"github.com/agriarche/price-intel/internal/metrics"
	"github.com/agriarche/price-intel/pkg/model"
)

// SnapshotCache is the minimal store surface the refresher needs.
type SnapshotCache interface {
	CacheDataset(ctx context.Context, ds model.Dataset, mtime time.Time, ttl time.Duration) error
	GetCachedDataset(ctx context.Context, source model.Source, path string, mtime time.Time) (*model.Dataset, error)
	ArchiveRecords(ctx context.Context, ds model.Dataset) error
}

// EventPublisher is the minimal publisher surface the refresher needs.
type EventPublisher interface {
	PublishDatasetReloaded(ctx context.Context, ds model.Dataset) error
}

// DatasetRefresher polls the source files, reloads them when their
// modification time changes, and holds the current snapshots for readers.
// Cache and publisher are optional; a nil store just means every refresh
// reparses the file.
type DatasetRefresher struct {
	logger    *zap.Logger
	loader    *ingest.Loader
	cache     SnapshotCache
	publisher EventPublisher

	internalPath string
	externalPath string
	interval     time.Duration
	cacheTTL     time.Duration
	stopCh       chan struct{}

	mu        sync.RWMutex
	internal  model.Dataset
	external  model.Dataset
	lastMtime map[model.Source]time.Time
}

func NewDatasetRefresher(logger *zap.Logger, loader *ingest.Loader, cache SnapshotCache, pub EventPublisher, internalPath, externalPath string, interval, cacheTTL time.Duration) *DatasetRefresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DatasetRefresher{
		logger:       logger,
		loader:       loader,
		cache:        cache,
		publisher:    pub,
		internalPath: internalPath,
		externalPath: externalPath,
		interval:     interval,
		cacheTTL:     cacheTTL,
		stopCh:       make(chan struct{}),
		lastMtime:    make(map[model.Source]time.Time),
	}
}

// Internal returns the current primary snapshot.
func (r *DatasetRefresher) Internal() model.Dataset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.internal
}

// External returns the current scraped snapshot.
func (r *DatasetRefresher) External() model.Dataset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.external
}

// Start loads both sources immediately, then polls on the interval.
func (r *DatasetRefresher) Start(ctx context.Context) {
	r.logger.Info("dataset_refresher.started",
		zap.Duration("interval", r.interval),
		zap.String("internal_path", r.internalPath),
		zap.String("external_path", r.externalPath))

	r.RefreshNow(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.RefreshNow(ctx)
		case <-r.stopCh:
			r.logger.Info("dataset_refresher.stopped (manual stop)")
			return
		case <-ctx.Done():
			r.logger.Info("dataset_refresher.stopped (context canceled)")
			return
		}
	}
}

// Stop gracefully halts the refresher.
func (r *DatasetRefresher) Stop() {
	close(r.stopCh)
}

// RefreshNow runs one refresh cycle over both sources.
func (r *DatasetRefresher) RefreshNow(ctx context.Context) {
	internal, changed := r.refreshSource(ctx, model.SourceInternal, r.internalPath)
	if changed {
		r.mu.Lock()
		r.internal = internal
		r.mu.Unlock()
	}

	external, changed := r.refreshSource(ctx, model.SourceExternal, r.externalPath)
	if changed {
		r.mu.Lock()
		r.external = external
		r.mu.Unlock()
	}
}

// refreshSource reloads one source if its file changed since the last
// cycle. The second result is false when the held snapshot is still
// current.
func (r *DatasetRefresher) refreshSource(ctx context.Context, source model.Source, path string) (model.Dataset, bool) {
	info, err := os.Stat(path)
	if err != nil {
		// A vanished file degrades to an empty snapshot, once.
		r.mu.RLock()
		empty := r.current(source).Empty()
		r.mu.RUnlock()
		if empty {
			return model.Dataset{}, false
		}
		r.logger.Warn("dataset_refresher.file_vanished",
			zap.String("source", string(source)), zap.String("path", path))
		return model.Dataset{Source: source, Path: path, LoadedAt: time.Now().UTC()}, true
	}

	mtime := info.ModTime()
	if last, ok := r.lastMtime[source]; ok && last.Equal(mtime) {
		return model.Dataset{}, false
	}

	if r.cache != nil {
		if cached, err := r.cache.GetCachedDataset(ctx, source, path, mtime); err == nil && cached != nil {
			r.lastMtime[source] = mtime
			return *cached, true
		}
	}

	start := time.Now()
	var ds model.Dataset
	switch source {
	case model.SourceExternal:
		ds = r.loader.LoadExternal(path)
	default:
		ds = r.loader.LoadInternal(path)
	}
	r.lastMtime[source] = mtime

	if r.cache != nil {
		if err := r.cache.CacheDataset(ctx, ds, mtime, r.cacheTTL); err != nil {
			r.logger.Warn("dataset_refresher.cache_failed",
				zap.String("source", string(source)), zap.Error(err))
		}
		if err := r.cache.ArchiveRecords(ctx, ds); err != nil {
			r.logger.Warn("dataset_refresher.archive_failed",
				zap.String("source", string(source)), zap.Error(err))
		}
	}

	if r.publisher != nil {
		if err := r.publisher.PublishDatasetReloaded(ctx, ds); err != nil {
			r.logger.Warn("dataset_refresher.publish_failed",
				zap.String("source", string(source)), zap.Error(err))
		}
	}

	metrics.LastReloadTimestamp.WithLabelValues(string(source)).Set(float64(time.Now().Unix()))
	r.logger.Info("dataset_refresher.reloaded",
		zap.String("source", string(source)),
		zap.Int("records", len(ds.Records)),
		zap.Int("rows_dropped", ds.RowsDropped),
		zap.Duration("duration", time.Since(start)))
	return ds, true
}

func (r *DatasetRefresher) current(source model.Source) model.Dataset {
	if source == model.SourceExternal {
		return r.external
	}
	return r.internal
}
