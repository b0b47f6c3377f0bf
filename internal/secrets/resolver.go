package secrets

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	pkgsecrets "github.com/agriarche/price-intel/pkg/secrets"
	"github.com/agriarche/price-intel/pkg/utils"
)

// DSNResolver resolves the service's Postgres DSN from AWS Secrets Manager,
// caching the result locally to reduce API calls.
//
// Secret naming convention: {env}/price-intel/postgres, stored as a JSON
// map with host, port, user, password, dbname and optional sslmode keys.
type DSNResolver struct {
	logger   *zap.Logger
	env      string
	provider pkgsecrets.Provider
	cache    *pkgsecrets.Cache[string]
}

// NewDSNResolver constructs a resolver for the given deploy environment.
func NewDSNResolver(logger *zap.Logger, env string, provider pkgsecrets.Provider, cache *pkgsecrets.Cache[string]) *DSNResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DSNResolver{
		logger:   logger,
		env:      env,
		provider: provider,
		cache:    cache,
	}
}

// secretName builds the AWS Secrets Manager key.
func (r *DSNResolver) secretName() string {
	return strings.ToLower(fmt.Sprintf("%s/price-intel/postgres", r.env))
}

// Resolve fetches or returns the cached DSN.
func (r *DSNResolver) Resolve(ctx context.Context) (string, error) {
	key := r.secretName()

	if dsn, ok := r.cache.Get(key); ok {
		return dsn, nil
	}

	secretMap, err := r.provider.GetSecret(ctx, key)
	if err != nil {
		r.logger.Warn("aws.secret_fetch_failed",
			zap.String("key", key),
			zap.Error(err))
		return "", fmt.Errorf("resolve postgres dsn: %w", err)
	}

	dsn, err := buildDSN(secretMap)
	if err != nil {
		return "", fmt.Errorf("parse secret %q: %w", key, err)
	}

	r.cache.Put(key, dsn)

	r.logger.Info("aws.dsn_resolved",
		zap.String("env", r.env),
		zap.String("dsn", utils.MaskDSN(dsn)),
	)
	return dsn, nil
}

// buildDSN assembles a pgx connection URL from the secret's key-value map.
func buildDSN(m map[string]string) (string, error) {
	for _, required := range []string{"host", "user", "password", "dbname"} {
		if m[required] == "" {
			return "", fmt.Errorf("secret missing %q", required)
		}
	}
	port := m["port"]
	if port == "" {
		port = "5432"
	}
	sslmode := m["sslmode"]
	if sslmode == "" {
		sslmode = "require"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		m["user"], m["password"], m["host"], port, m["dbname"], sslmode), nil
}
