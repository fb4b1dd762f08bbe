package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"league-tracker/internal/db"
	"league-tracker/internal/domain"
	"time"

	"github.com/rs/zerolog"
)

type SeasonRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewSeasonRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *SeasonRepository {
	return &SeasonRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

// UpsertBatch writes all records in one transaction; any failure rolls back the whole batch.
func (r *SeasonRepository) UpsertBatch(ctx context.Context, trackerID string, records []domain.SeasonRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)
	now := time.Now().UTC()

	for _, record := range records {
		params, err := toUpsertParams(trackerID, record, now)
		if err != nil {
			return err
		}
		if err := qtx.UpsertTrackerSeason(ctx, params); err != nil {
			return fmt.Errorf("failed to upsert season %d: %w", record.SeasonNumber, err)
		}
	}

	return tx.Commit()
}

func (r *SeasonRepository) Upsert(ctx context.Context, trackerID string, record domain.SeasonRecord) error {
	params, err := toUpsertParams(trackerID, record, time.Now().UTC())
	if err != nil {
		return err
	}
	if err := r.queries.UpsertTrackerSeason(ctx, params); err != nil {
		return fmt.Errorf("failed to upsert season %d: %w", record.SeasonNumber, err)
	}
	return nil
}

func (r *SeasonRepository) CountByTracker(ctx context.Context, trackerID string) (int, error) {
	count, err := r.queries.CountTrackerSeasons(ctx, trackerID)
	if err != nil {
		return 0, fmt.Errorf("failed to count seasons: %w", err)
	}
	return int(count), nil
}

func (r *SeasonRepository) ListByTracker(ctx context.Context, trackerID string, limit int) ([]domain.StoredSeason, error) {
	rows, err := r.queries.ListTrackerSeasons(ctx, db.ListTrackerSeasonsParams{
		TrackerID: trackerID,
		Limit:     int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list seasons: %w", err)
	}

	result := make([]domain.StoredSeason, 0, len(rows))
	for _, row := range rows {
		season := domain.StoredSeason{
			TrackerID: row.TrackerID,
			SeasonRecord: domain.SeasonRecord{
				SeasonNumber: int(row.SeasonNumber),
			},
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		}
		if row.SeasonName.Valid {
			name := row.SeasonName.String
			season.SeasonName = &name
		}
		slots := []struct {
			src sql.NullString
			dst **domain.PlaylistRecord
		}{
			{row.Playlist1v1, &season.Playlist1v1},
			{row.Playlist2v2, &season.Playlist2v2},
			{row.Playlist3v3, &season.Playlist3v3},
			{row.Playlist4v4, &season.Playlist4v4},
		}
		for _, slot := range slots {
			playlist, err := decodePlaylist(slot.src)
			if err != nil {
				r.logger.Warn().
					Err(err).
					Str("tracker_id", trackerID).
					Int("season", season.SeasonNumber).
					Msg("stored playlist is not valid JSON, skipping")
				continue
			}
			*slot.dst = playlist
		}
		result = append(result, season)
	}
	return result, nil
}

func toUpsertParams(trackerID string, record domain.SeasonRecord, now time.Time) (db.UpsertTrackerSeasonParams, error) {
	params := db.UpsertTrackerSeasonParams{
		TrackerID:    trackerID,
		SeasonNumber: int64(record.SeasonNumber),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if record.SeasonName != nil {
		params.SeasonName = sql.NullString{String: *record.SeasonName, Valid: true}
	}

	var err error
	if params.Playlist1v1, err = encodePlaylist(record.Playlist1v1); err != nil {
		return params, err
	}
	if params.Playlist2v2, err = encodePlaylist(record.Playlist2v2); err != nil {
		return params, err
	}
	if params.Playlist3v3, err = encodePlaylist(record.Playlist3v3); err != nil {
		return params, err
	}
	if params.Playlist4v4, err = encodePlaylist(record.Playlist4v4); err != nil {
		return params, err
	}
	return params, nil
}

func encodePlaylist(p *domain.PlaylistRecord) (sql.NullString, error) {
	if p == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode playlist: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func decodePlaylist(s sql.NullString) (*domain.PlaylistRecord, error) {
	if !s.Valid {
		return nil, nil
	}
	var p domain.PlaylistRecord
	if err := json.Unmarshal([]byte(s.String), &p); err != nil {
		return nil, err
	}
	return &p, nil
}
