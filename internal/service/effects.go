package service

import (
	"context"
	"league-tracker/internal/constants"
	"league-tracker/internal/domain"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type Notifier interface {
	NotifyScrapeComplete(ctx context.Context, trackerID, userID string, seasonsScraped, seasonsFailed int) error
	NotifyScrapeFailed(ctx context.Context, trackerID, userID, errorMessage string) error
}

type ScoreRecomputer interface {
	RecomputeDerivedScore(ctx context.Context, userID, trackerID string) error
}

// SideEffects runs post-scrape work in the background. Failures are logged and
// never reach the run that triggered them.
type SideEffects struct {
	notifier   Notifier
	recomputer ScoreRecomputer
	logger     zerolog.Logger
	wg         sync.WaitGroup
}

func NewSideEffects(notifier Notifier, recomputer ScoreRecomputer, logger zerolog.Logger) *SideEffects {
	return &SideEffects{
		notifier:   notifier,
		recomputer: recomputer,
		logger:     logger.With().Str("component", "side_effects").Logger(),
	}
}

func (e *SideEffects) ScrapeCompleted(tracker *domain.Tracker, run *domain.ScrapingRun) {
	e.dispatch(tracker.ID, map[string]func(context.Context) error{
		"notify_scrape_complete": func(ctx context.Context) error {
			return e.notifier.NotifyScrapeComplete(ctx, tracker.ID, tracker.UserID, run.SeasonsScraped, run.SeasonsFailed)
		},
		"recompute_derived_score": func(ctx context.Context) error {
			return e.recomputer.RecomputeDerivedScore(ctx, tracker.UserID, tracker.ID)
		},
	})
}

func (e *SideEffects) ScrapeFailed(tracker *domain.Tracker, run *domain.ScrapingRun) {
	message := ""
	if run.ErrorMessage != nil {
		message = *run.ErrorMessage
	}
	e.dispatch(tracker.ID, map[string]func(context.Context) error{
		"notify_scrape_failed": func(ctx context.Context) error {
			return e.notifier.NotifyScrapeFailed(ctx, tracker.ID, tracker.UserID, message)
		},
	})
}

// Wait blocks until every dispatched task has finished.
func (e *SideEffects) Wait() {
	e.wg.Wait()
}

func (e *SideEffects) dispatch(trackerID string, tasks map[string]func(context.Context) error) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), constants.SideEffectTimeout)
		defer cancel()

		g := new(errgroup.Group)
		for name, task := range tasks {
			g.Go(func() error {
				if err := task(ctx); err != nil {
					e.logger.Error().
						Err(err).
						Str("task", name).
						Str("tracker_id", trackerID).
						Msg("side effect failed")
					return err
				}
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			e.logger.Warn().Str("tracker_id", trackerID).Msg("background side effects finished with errors")
		}
	}()
}
