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
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

type TrackerRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewTrackerRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *TrackerRepository {
	return &TrackerRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

func (r *TrackerRepository) Create(ctx context.Context, tracker *domain.Tracker) error {
	if tracker.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate nanoid: %w", err)
		}
		tracker.ID = id
	}
	now := time.Now().UTC()
	tracker.CreatedAt = now
	tracker.UpdatedAt = now
	tracker.ScrapingStatus = domain.StatusPending
	tracker.ScrapingAttempts = 0

	err := r.queries.CreateTracker(ctx, db.CreateTrackerParams{
		ID:        tracker.ID,
		Url:       tracker.URL,
		Platform:  string(tracker.Platform),
		Username:  tracker.Username,
		UserID:    tracker.UserID,
		CreatedAt: tracker.CreatedAt,
		UpdatedAt: tracker.UpdatedAt,
	})
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return fmt.Errorf("%w: %s/%s", domain.ErrDuplicateTracker, tracker.Platform, tracker.Username)
	}
	if err != nil {
		return fmt.Errorf("failed to create tracker: %w", err)
	}

	r.logger.Debug().Str("tracker_id", tracker.ID).Str("platform", string(tracker.Platform)).Msg("tracker created")
	return nil
}

func (r *TrackerRepository) Get(ctx context.Context, id string) (*domain.Tracker, error) {
	row, err := r.queries.GetTracker(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewScrapeError(domain.KindTrackerNotFound, fmt.Sprintf("tracker %s does not exist", id), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tracker: %w", err)
	}
	return toDomainTracker(row), nil
}

func (r *TrackerRepository) GetByProfile(ctx context.Context, platform domain.Platform, username string) (*domain.Tracker, error) {
	row, err := r.queries.GetTrackerByProfile(ctx, db.GetTrackerByProfileParams{
		Platform: string(platform),
		Username: username,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewScrapeError(domain.KindTrackerNotFound, fmt.Sprintf("no tracker for %s/%s", platform, username), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tracker by profile: %w", err)
	}
	return toDomainTracker(row), nil
}

func (r *TrackerRepository) MarkInProgress(ctx context.Context, id string) error {
	affected, err := r.queries.MarkTrackerInProgress(ctx, db.MarkTrackerInProgressParams{
		UpdatedAt: time.Now().UTC(),
		ID:        id,
	})
	if err != nil {
		return fmt.Errorf("failed to mark tracker in progress: %w", err)
	}
	if affected == 0 {
		return domain.NewScrapeError(domain.KindTrackerNotFound, fmt.Sprintf("tracker %s does not exist", id), nil)
	}
	return nil
}

func (r *TrackerRepository) MarkCompleted(ctx context.Context, id string, scrapedAt time.Time) error {
	err := r.queries.MarkTrackerCompleted(ctx, db.MarkTrackerCompletedParams{
		LastScrapedAt: scrapedAt.UTC(),
		UpdatedAt:     time.Now().UTC(),
		ID:            id,
	})
	if err != nil {
		return fmt.Errorf("failed to mark tracker completed: %w", err)
	}
	return nil
}

// MarkFailed stores message and bumps scraping_attempts in the same statement.
func (r *TrackerRepository) MarkFailed(ctx context.Context, id, message string) error {
	err := r.queries.MarkTrackerFailed(ctx, db.MarkTrackerFailedParams{
		ScrapingError: message,
		UpdatedAt:     time.Now().UTC(),
		ID:            id,
	})
	if err != nil {
		return fmt.Errorf("failed to mark tracker failed: %w", err)
	}
	return nil
}

func toDomainTracker(row db.Tracker) *domain.Tracker {
	tracker := &domain.Tracker{
		ID:               row.ID,
		URL:              row.Url,
		Platform:         domain.Platform(row.Platform),
		Username:         row.Username,
		UserID:           row.UserID,
		ScrapingStatus:   domain.ScrapingStatus(row.ScrapingStatus),
		ScrapingAttempts: int(row.ScrapingAttempts),
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
	if row.LastScrapedAt.Valid {
		t := row.LastScrapedAt.Time
		tracker.LastScrapedAt = &t
	}
	if row.ScrapingError.Valid {
		msg := row.ScrapingError.String
		tracker.ScrapingError = &msg
	}
	return tracker
}
