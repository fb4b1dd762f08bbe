package service

import (
	"context"
	"league-tracker/internal/domain"

	"github.com/rs/zerolog"
)

type SeasonStore interface {
	UpsertBatch(ctx context.Context, trackerID string, records []domain.SeasonRecord) error
	Upsert(ctx context.Context, trackerID string, record domain.SeasonRecord) error
	CountByTracker(ctx context.Context, trackerID string) (int, error)
}

// UpsertCoordinator persists season records in one transaction, degrading to
// per-record upserts when the batch is rejected.
type UpsertCoordinator struct {
	store  SeasonStore
	logger zerolog.Logger
}

func NewUpsertCoordinator(store SeasonStore, logger zerolog.Logger) *UpsertCoordinator {
	return &UpsertCoordinator{store: store, logger: logger}
}

// Persist always accounts for every record: SeasonsScraped+SeasonsFailed == len(records).
func (c *UpsertCoordinator) Persist(ctx context.Context, trackerID string, records []domain.SeasonRecord) domain.UpsertResult {
	if len(records) == 0 {
		return domain.UpsertResult{}
	}

	err := c.store.UpsertBatch(ctx, trackerID, records)
	if err == nil {
		return domain.UpsertResult{SeasonsScraped: len(records)}
	}

	c.logger.Warn().
		Err(err).
		Str("tracker_id", trackerID).
		Int("records", len(records)).
		Msg("bulk season upsert failed, falling back to per-record upserts")

	var result domain.UpsertResult
	for _, record := range records {
		if err := c.store.Upsert(ctx, trackerID, record); err != nil {
			result.SeasonsFailed++
			c.logger.Error().
				Err(err).
				Str("tracker_id", trackerID).
				Int("season", record.SeasonNumber).
				Msg("failed to upsert season")
			continue
		}
		result.SeasonsScraped++
	}

	c.logger.Info().
		Str("tracker_id", trackerID).
		Int("seasons_scraped", result.SeasonsScraped).
		Int("seasons_failed", result.SeasonsFailed).
		Msg("per-record season upsert finished")
	return result
}
