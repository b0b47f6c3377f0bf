package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/agriarche/price-intel/internal/analysis"
	"github.com/agriarche/price-intel/pkg/model"
)

// SummaryWriter is the store surface for the market summary projection.
type SummaryWriter interface {
	UpsertMarketSummary(ctx context.Context, commodity, market string, mean, low, high float64, samples int) error
}

// SnapshotSource exposes the current primary dataset.
type SnapshotSource interface {
	Internal() model.Dataset
}

// RawPublisher publishes non-canonical internal events.
type RawPublisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// SummaryRefresher periodically recomputes per-market summary statistics
// from the current snapshot and upserts them into the projection table,
// then emits a NATS event indicating summary recalculation completion.
type SummaryRefresher struct {
	logger    *zap.Logger
	snapshots SnapshotSource
	writer    SummaryWriter
	publisher RawPublisher
	interval  time.Duration
	stopCh    chan struct{}
}

// NewSummaryRefresher constructs a background job that runs periodically.
func NewSummaryRefresher(logger *zap.Logger, snapshots SnapshotSource, writer SummaryWriter, pub RawPublisher, interval time.Duration) *SummaryRefresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryRefresher{
		logger:    logger,
		snapshots: snapshots,
		writer:    writer,
		publisher: pub,
		interval:  interval,
		stopCh:    make(chan struct{}),
	}
}

// Start runs the summary refresh loop (typically every 24 h).
func (r *SummaryRefresher) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("summary_refresher.started", zap.Duration("interval", r.interval))

	for {
		select {
		case <-ticker.C:
			r.RunOnce(ctx)
		case <-r.stopCh:
			r.logger.Info("summary_refresher.stopped (manual stop)")
			return
		case <-ctx.Done():
			r.logger.Info("summary_refresher.stopped (context canceled)")
			return
		}
	}
}

// Stop gracefully halts the refresher.
func (r *SummaryRefresher) Stop() {
	close(r.stopCh)
}

// RunOnce executes one refresh cycle.
func (r *SummaryRefresher) RunOnce(ctx context.Context) {
	start := time.Now()
	ds := r.snapshots.Internal()
	if ds.Empty() {
		r.logger.Info("summary_refresher.skipped_empty_snapshot")
		return
	}

	var upserts int
	for _, commodity := range ds.Commodities() {
		byCommodity := analysis.Filter(ds.Records, analysis.Selection{Commodity: commodity})
		for _, market := range distinctMarkets(byCommodity) {
			stats, ok := analysis.Summarize(analysis.Filter(byCommodity, analysis.Selection{Market: market}))
			if !ok {
				continue
			}
			err := r.writer.UpsertMarketSummary(ctx, string(commodity), market,
				stats.Mean, stats.Min, stats.Max, stats.Count)
			if err != nil {
				r.logger.Error("summary_refresher.upsert_failed",
					zap.String("commodity", string(commodity)),
					zap.String("market", market),
					zap.Error(err))
				return
			}
			upserts++
		}
	}

	if r.publisher != nil {
		event := map[string]any{
			"event":       "evt.market.summary.refreshed.v1",
			"timestamp":   time.Now().UTC(),
			"upserts":     upserts,
			"duration_ms": time.Since(start).Milliseconds(),
		}
		if err := r.publisher.Publish(ctx, "evt.market.summary.refreshed.v1", event); err != nil {
			r.logger.Warn("summary_refresher.nats_publish_failed", zap.Error(err))
		}
	}

	r.logger.Info("summary_refresher.success",
		zap.Int("upserts", upserts),
		zap.Duration("duration", time.Since(start)))
}

func distinctMarkets(records []model.PriceRecord) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, r := range records {
		if _, ok := seen[r.Market]; ok {
			continue
		}
		seen[r.Market] = struct{}{}
		out = append(out, r.Market)
	}
	return out
}
