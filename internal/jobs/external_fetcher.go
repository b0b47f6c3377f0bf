package jobs

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/agriarche/price-intel/internal/httpclient"
)

// ExternalFetcher periodically downloads the scraped price export from its
// publisher and replaces the local copy. The dataset refresher picks up the
// new file on its next cycle via the changed modification time.
type ExternalFetcher struct {
	logger   *zap.Logger
	executor *httpclient.Executor
	url      string
	destPath string
	interval time.Duration
	stopCh   chan struct{}
}

func NewExternalFetcher(logger *zap.Logger, executor *httpclient.Executor, url, destPath string, interval time.Duration) *ExternalFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExternalFetcher{
		logger:   logger,
		executor: executor,
		url:      url,
		destPath: destPath,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start fetches immediately, then on the interval.
func (f *ExternalFetcher) Start(ctx context.Context) {
	f.logger.Info("external_fetcher.started",
		zap.String("url", f.url),
		zap.String("dest", f.destPath),
		zap.Duration("interval", f.interval))

	if err := f.FetchOnce(ctx); err != nil {
		f.logger.Warn("external_fetcher.initial_fetch_failed", zap.Error(err))
	}

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := f.FetchOnce(ctx); err != nil {
				f.logger.Warn("external_fetcher.fetch_failed", zap.Error(err))
			}
		case <-f.stopCh:
			f.logger.Info("external_fetcher.stopped (manual stop)")
			return
		case <-ctx.Done():
			f.logger.Info("external_fetcher.stopped (context canceled)")
			return
		}
	}
}

// Stop gracefully halts the fetcher.
func (f *ExternalFetcher) Stop() {
	close(f.stopCh)
}

// FetchOnce downloads the export and swaps it into place atomically, so the
// refresher never reads a half-written workbook.
func (f *ExternalFetcher) FetchOnce(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return err
	}

	body, err := f.executor.Fetch(ctx, req, "external")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(f.destPath), 0o755); err != nil {
		return err
	}
	tmp := f.destPath + ".tmp"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, f.destPath); err != nil {
		return err
	}

	f.logger.Info("external_fetcher.downloaded",
		zap.String("dest", f.destPath),
		zap.Int("bytes", len(body)))
	return nil
}
