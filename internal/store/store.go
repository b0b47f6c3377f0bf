package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/agriarche/price-intel/internal/metrics"
	"github.com/agriarche/price-intel/pkg/model"
)

// Store defines the contract for caching dataset snapshots and archiving
// price records.
type Store interface {
	CacheDataset(ctx context.Context, ds model.Dataset, mtime time.Time, ttl time.Duration) error
	GetCachedDataset(ctx context.Context, source model.Source, path string, mtime time.Time) (*model.Dataset, error)
	ArchiveRecords(ctx context.Context, ds model.Dataset) error
	UpsertMarketSummary(ctx context.Context, commodity, market string, mean, low, high float64, samples int) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	GetJSON(ctx context.Context, key string, dest any) error
	HealthCheck(ctx context.Context) error
	Close() error
}

type HybridStore struct {
	redis  *redis.Client
	PG     *pgxpool.Pool
	logger *zap.Logger
}

type PGPoolConfig struct {
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

// NewHybrid creates a Redis-first, Postgres-backed store. Postgres is
// optional: with an empty pgURL the archive methods become no-ops.
func NewHybrid(redisAddr string, redisDB int, redisPass string, pgURL string, pgPoolConfig PGPoolConfig, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rdb := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		DB:       redisDB,
		Password: redisPass,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	var pgPool *pgxpool.Pool
	if pgURL != "" {
		cfg, err := pgxpool.ParseConfig(pgURL)
		if err != nil {
			return nil, fmt.Errorf("invalid pg config: %w", err)
		}
		if pgPoolConfig.MaxConns > 0 {
			cfg.MaxConns = pgPoolConfig.MaxConns
		}
		if pgPoolConfig.MinConns > 0 {
			cfg.MinConns = pgPoolConfig.MinConns
		}
		if pgPoolConfig.MaxConnLifetime > 0 {
			cfg.MaxConnLifetime = pgPoolConfig.MaxConnLifetime
		}
		if pgPoolConfig.MaxConnIdleTime > 0 {
			cfg.MaxConnIdleTime = pgPoolConfig.MaxConnIdleTime
		}
		if pgPoolConfig.HealthCheckPeriod > 0 {
			cfg.HealthCheckPeriod = pgPoolConfig.HealthCheckPeriod
		}
		pgPool, err = pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
	}

	return &HybridStore{redis: rdb, PG: pgPool, logger: logger}, nil
}

// datasetKey identifies a snapshot by source file path and modification
// time, so a rewritten file never serves a stale snapshot.
func datasetKey(source model.Source, path string, mtime time.Time) string {
	return fmt.Sprintf("dataset:%s:%s:%d", source, path, mtime.Unix())
}

// CacheDataset stores a loaded dataset snapshot in Redis.
func (s *HybridStore) CacheDataset(ctx context.Context, ds model.Dataset, mtime time.Time, ttl time.Duration) error {
	return s.SetJSON(ctx, datasetKey(ds.Source, ds.Path, mtime), ds, ttl)
}

// GetCachedDataset returns the cached snapshot for the file version, or
// nil on a cache miss.
func (s *HybridStore) GetCachedDataset(ctx context.Context, source model.Source, path string, mtime time.Time) (*model.Dataset, error) {
	data, err := s.redis.Get(ctx, datasetKey(source, path, mtime)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.SnapshotCacheAccess.WithLabelValues(string(source), "miss").Inc()
		return nil, nil
	} else if err != nil {
		metrics.SnapshotCacheAccess.WithLabelValues(string(source), "error").Inc()
		return nil, err
	}

	var ds model.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		metrics.SnapshotCacheAccess.WithLabelValues(string(source), "error").Inc()
		return nil, err
	}
	metrics.SnapshotCacheAccess.WithLabelValues(string(source), "hit").Inc()
	return &ds, nil
}

// ArchiveRecords inserts the dataset's rows into pricing.price_record.
func (s *HybridStore) ArchiveRecords(ctx context.Context, ds model.Dataset) error {
	if s.PG == nil {
		return nil
	}
	for _, r := range ds.Records {
		_, err := s.PG.Exec(ctx, `
			INSERT INTO pricing.price_record (
				source, observed_on, commodity, market,
				price, price_per_kg, recorded_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())
			ON CONFLICT (source, observed_on, commodity, market) DO NOTHING
		`, ds.Source, r.Date, string(r.Commodity), r.Market, r.Price, r.PricePerKg)
		if err != nil {
			s.logger.Error("store.pg.insert_record_failed", zap.Error(err))
			return err
		}
	}
	return nil
}

// UpsertMarketSummary updates the per-market projection table.
func (s *HybridStore) UpsertMarketSummary(ctx context.Context, commodity, market string, mean, low, high float64, samples int) error {
	if s.PG == nil {
		return nil
	}
	_, err := s.PG.Exec(ctx, `
		INSERT INTO pricing.market_summary (
			commodity, market, mean_per_kg, low_per_kg, high_per_kg, samples, as_of
		)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (commodity, market)
		DO UPDATE SET
			mean_per_kg = EXCLUDED.mean_per_kg,
			low_per_kg = EXCLUDED.low_per_kg,
			high_per_kg = EXCLUDED.high_per_kg,
			samples = EXCLUDED.samples,
			as_of = EXCLUDED.as_of;
	`, commodity, market, mean, low, high, samples)
	if err != nil {
		s.logger.Error("store.pg.summary_upsert_failed", zap.Error(err))
	}
	return err
}

func (s *HybridStore) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, key, data, ttl).Err()
}

func (s *HybridStore) GetJSON(ctx context.Context, key string, dest any) error {
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (s *HybridStore) HealthCheck(ctx context.Context) error {
	if s.redis == nil {
		return fmt.Errorf("redis not initialized")
	}
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	if s.PG != nil {
		if err := s.PG.Ping(ctx); err != nil {
			return fmt.Errorf("postgres ping failed: %w", err)
		}
	}
	return nil
}

func (s *HybridStore) Close() error {
	if s.PG != nil {
		s.PG.Close()
	}
	if s.redis != nil {
		return s.redis.Close()
	}
	return nil
}
