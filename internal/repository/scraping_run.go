package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"league-tracker/internal/db"
	"league-tracker/internal/domain"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type ScrapingRunRepository struct {
	queries *db.Queries
	logger  zerolog.Logger
}

func NewScrapingRunRepository(queries *db.Queries, logger zerolog.Logger) *ScrapingRunRepository {
	return &ScrapingRunRepository{queries: queries, logger: logger}
}

func (r *ScrapingRunRepository) Create(ctx context.Context, trackerID string, startedAt time.Time) (*domain.ScrapingRun, error) {
	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate nanoid: %w", err)
	}

	run := &domain.ScrapingRun{
		ID:        id,
		TrackerID: trackerID,
		Status:    domain.StatusInProgress,
		StartedAt: startedAt.UTC(),
	}
	err = r.queries.CreateScrapingRun(ctx, db.CreateScrapingRunParams{
		ID:        run.ID,
		TrackerID: run.TrackerID,
		StartedAt: run.StartedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create scraping run: %w", err)
	}
	return run, nil
}

// Finish writes the terminal state of run. Status must be COMPLETED or FAILED.
func (r *ScrapingRunRepository) Finish(ctx context.Context, run *domain.ScrapingRun) error {
	if !run.Status.IsTerminal() {
		return fmt.Errorf("cannot finish scraping run %s with status %s", run.ID, run.Status)
	}
	completedAt := time.Now().UTC()
	if run.CompletedAt != nil {
		completedAt = run.CompletedAt.UTC()
	}

	var errMsg sql.NullString
	if run.ErrorMessage != nil {
		errMsg = sql.NullString{String: *run.ErrorMessage, Valid: true}
	}

	err := r.queries.FinishScrapingRun(ctx, db.FinishScrapingRunParams{
		Status:         string(run.Status),
		SeasonsScraped: int64(run.SeasonsScraped),
		SeasonsFailed:  int64(run.SeasonsFailed),
		CompletedAt:    completedAt,
		ErrorMessage:   errMsg,
		ID:             run.ID,
	})
	if err != nil {
		return fmt.Errorf("failed to finish scraping run: %w", err)
	}
	return nil
}

func (r *ScrapingRunRepository) Get(ctx context.Context, id string) (*domain.ScrapingRun, error) {
	row, err := r.queries.GetScrapingRun(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("scraping run %s not found: %w", id, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scraping run: %w", err)
	}
	return toDomainRun(row), nil
}

func (r *ScrapingRunRepository) ListByTracker(ctx context.Context, trackerID string, limit int) ([]domain.ScrapingRun, error) {
	rows, err := r.queries.ListScrapingRunsByTracker(ctx, db.ListScrapingRunsByTrackerParams{
		TrackerID: trackerID,
		Limit:     int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list scraping runs: %w", err)
	}

	result := make([]domain.ScrapingRun, len(rows))
	for i, row := range rows {
		result[i] = *toDomainRun(row)
	}
	return result, nil
}

func toDomainRun(row db.ScrapingRun) *domain.ScrapingRun {
	run := &domain.ScrapingRun{
		ID:             row.ID,
		TrackerID:      row.TrackerID,
		Status:         domain.ScrapingStatus(row.Status),
		SeasonsScraped: int(row.SeasonsScraped),
		SeasonsFailed:  int(row.SeasonsFailed),
		StartedAt:      row.StartedAt,
	}
	if row.CompletedAt.Valid {
		t := row.CompletedAt.Time
		run.CompletedAt = &t
	}
	if row.ErrorMessage.Valid {
		msg := row.ErrorMessage.String
		run.ErrorMessage = &msg
	}
	return run
}
