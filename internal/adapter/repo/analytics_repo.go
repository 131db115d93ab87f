package repo

import (
	"context"

	"nanodraw/internal/infra"
)

// AnalyticsRepositoryPG accumulates daily generation counters per country.
type AnalyticsRepositoryPG struct {
	db infra.SQLExecutor
}

// NewAnalyticsRepository constructs the repository.
func NewAnalyticsRepository(db infra.SQLExecutor) *AnalyticsRepositoryPG {
	return &AnalyticsRepositoryPG{db: db}
}

// IncrementDaily upserts counters for the provided day and country.
func (r *AnalyticsRepositoryPG) IncrementDaily(ctx context.Context, day, country string, counters map[string]int) error {
	query := `
INSERT INTO generation_stats (day, country, requests, succeeded, failed)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (day, country) DO UPDATE SET
    requests = generation_stats.requests + EXCLUDED.requests,
    succeeded = generation_stats.succeeded + EXCLUDED.succeeded,
    failed = generation_stats.failed + EXCLUDED.failed,
    updated_at = NOW();
`
	if country == "" {
		country = "??"
	}
	_, err := r.db.Exec(ctx, query,
		day,
		country,
		counters["requests"],
		counters["succeeded"],
		counters["failed"],
	)
	return err
}
