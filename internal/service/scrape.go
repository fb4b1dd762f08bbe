package service

import (
	"context"
	"errors"
	"fmt"
	"league-tracker/internal/api"
	"league-tracker/internal/constants"
	"league-tracker/internal/domain"
	"time"

	"github.com/rs/zerolog"
)

type TrackerStore interface {
	Get(ctx context.Context, id string) (*domain.Tracker, error)
	MarkInProgress(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id string, scrapedAt time.Time) error
	MarkFailed(ctx context.Context, id, message string) error
}

type RunStore interface {
	Create(ctx context.Context, trackerID string, startedAt time.Time) (*domain.ScrapingRun, error)
	Finish(ctx context.Context, run *domain.ScrapingRun) error
}

type SeasonCollector interface {
	Collect(ctx context.Context, profileAPIURL string, maxHistorical int) ([]domain.SeasonRecord, error)
}

// ScrapeService drives one scrape of one tracker from start to a terminal state.
type ScrapeService struct {
	trackers  TrackerStore
	runs      RunStore
	seasons   SeasonStore
	collector SeasonCollector
	upserter  *UpsertCoordinator
	effects   *SideEffects
	logger    zerolog.Logger
}

func NewScrapeService(
	trackers TrackerStore,
	runs RunStore,
	seasons SeasonStore,
	collector SeasonCollector,
	upserter *UpsertCoordinator,
	effects *SideEffects,
	logger zerolog.Logger,
) *ScrapeService {
	return &ScrapeService{
		trackers:  trackers,
		runs:      runs,
		seasons:   seasons,
		collector: collector,
		upserter:  upserter,
		effects:   effects,
		logger:    logger,
	}
}

// Run scrapes trackerID. A missing tracker returns TrackerNotFound and no run.
// Otherwise the returned run is in its terminal state; the error is non-nil
// when that state is FAILED.
func (s *ScrapeService) Run(ctx context.Context, trackerID string) (*domain.ScrapingRun, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	logger := s.logger.With().Str("tracker_id", trackerID).Logger()

	tracker, err := s.trackers.Get(ctx, trackerID)
	if err != nil {
		if errors.Is(err, domain.ErrTrackerNotFound) {
			logger.Warn().Err(err).Msg("tracker not found, aborting scrape")
			return nil, err
		}
		logger.Error().Err(err).Msg("failed to load tracker")
		return nil, fmt.Errorf("failed to load tracker: %w", err)
	}

	if !tracker.ScrapingStatus.CanTransitionTo(domain.StatusInProgress) {
		// same-tracker jobs are serialized by the dispatcher, so this is a crashed earlier run
		logger.Warn().Str("status", string(tracker.ScrapingStatus)).Msg("tracker already in progress, taking over stale run")
	}

	run, err := s.runs.Create(ctx, trackerID, time.Now())
	if err != nil {
		logger.Error().Err(err).Msg("failed to create scraping run")
		return nil, err
	}
	logger = logger.With().Str("run_id", run.ID).Logger()
	logger.Info().Msg("scrape started")

	if err := s.trackers.MarkInProgress(ctx, trackerID); err != nil {
		return s.fail(ctx, tracker, run, err, logger)
	}
	tracker.ScrapingStatus = domain.StatusInProgress
	tracker.ScrapingError = nil

	records, err := s.fetch(ctx, tracker, logger)
	if err != nil {
		return s.fail(ctx, tracker, run, err, logger)
	}

	if len(records) == 0 {
		logger.Info().Msg("no seasons discovered")
		return s.complete(ctx, tracker, run, domain.UpsertResult{}, logger)
	}

	// per-record failures are counted on the run, never fatal
	result := s.upserter.Persist(ctx, trackerID, records)
	if result.SeasonsFailed > 0 {
		logger.Warn().
			Int("seasons_scraped", result.SeasonsScraped).
			Int("seasons_failed", result.SeasonsFailed).
			Msg("some seasons could not be stored")
	}

	return s.complete(ctx, tracker, run, result, logger)
}

// Wait drains background side effects; used on shutdown.
func (s *ScrapeService) Wait() {
	s.effects.Wait()
}

func (s *ScrapeService) fetch(ctx context.Context, tracker *domain.Tracker, logger zerolog.Logger) ([]domain.SeasonRecord, error) {
	profileURL, err := api.NormalizeProfileURL(tracker.URL)
	if err != nil {
		return nil, err
	}

	maxHistorical, err := s.historicalBound(ctx, tracker)
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Str("profile_url", profileURL).
		Int("max_historical", maxHistorical).
		Msg("collecting seasons")

	return s.collector.Collect(ctx, profileURL, maxHistorical)
}

// historicalBound picks the first-run depth unless the tracker already has a
// completed scrape with stored seasons.
func (s *ScrapeService) historicalBound(ctx context.Context, tracker *domain.Tracker) (int, error) {
	if tracker.LastScrapedAt == nil {
		return constants.FirstRunHistoricalSeasons, nil
	}
	count, err := s.seasons.CountByTracker(ctx, tracker.ID)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return constants.FirstRunHistoricalSeasons, nil
	}
	return constants.IncrementalHistoricalSeasons, nil
}

func (s *ScrapeService) complete(ctx context.Context, tracker *domain.Tracker, run *domain.ScrapingRun, result domain.UpsertResult, logger zerolog.Logger) (*domain.ScrapingRun, error) {
	ctx, cancel := terminalContext(ctx)
	defer cancel()

	now := time.Now().UTC()
	if err := s.trackers.MarkCompleted(ctx, tracker.ID, now); err != nil {
		logger.Error().Err(err).Msg("failed to mark tracker completed")
		return s.fail(ctx, tracker, run, err, logger)
	}

	run.Status = domain.StatusCompleted
	run.SeasonsScraped = result.SeasonsScraped
	run.SeasonsFailed = result.SeasonsFailed
	run.CompletedAt = &now
	if err := s.runs.Finish(ctx, run); err != nil {
		logger.Error().Err(err).Msg("failed to finish scraping run")
		return run, err
	}

	tracker.ScrapingStatus = domain.StatusCompleted
	tracker.LastScrapedAt = &now
	tracker.ScrapingAttempts = 0

	logger.Info().
		Int("seasons_scraped", run.SeasonsScraped).
		Int("seasons_failed", run.SeasonsFailed).
		Dur("duration", now.Sub(run.StartedAt)).
		Msg("scrape completed")

	s.effects.ScrapeCompleted(tracker, run)
	return run, nil
}

func (s *ScrapeService) fail(ctx context.Context, tracker *domain.Tracker, run *domain.ScrapingRun, cause error, logger zerolog.Logger) (*domain.ScrapingRun, error) {
	ctx, cancel := terminalContext(ctx)
	defer cancel()

	message := domain.TruncateError(cause)
	now := time.Now().UTC()

	logger.Error().Err(cause).Msg("scrape failed")

	if err := s.trackers.MarkFailed(ctx, tracker.ID, message); err != nil {
		logger.Error().Err(err).Msg("failed to mark tracker failed")
	}

	run.Status = domain.StatusFailed
	run.ErrorMessage = &message
	run.CompletedAt = &now
	if err := s.runs.Finish(ctx, run); err != nil {
		logger.Error().Err(err).Msg("failed to finish scraping run")
	}

	tracker.ScrapingStatus = domain.StatusFailed
	tracker.ScrapingError = &message
	tracker.ScrapingAttempts++

	s.effects.ScrapeFailed(tracker, run)
	return run, cause
}

// terminalContext keeps the final writes alive when the run itself hit its deadline.
func terminalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), constants.DatabaseTimeout)
}
