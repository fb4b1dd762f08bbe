package fx

import (
	"database/sql"
	"league-tracker/internal/api"
	"league-tracker/internal/config"
	"league-tracker/internal/database"
	"league-tracker/internal/db"
	"league-tracker/internal/logger"
	"league-tracker/internal/notify"
	"league-tracker/internal/parser"
	"league-tracker/internal/repository"
	"league-tracker/internal/server"
	"league-tracker/internal/service"

	"go.uber.org/fx"
)

func ProvideQueries(sqlDB *sql.DB) *db.Queries {
	return db.New(sqlDB)
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(database.New),
	fx.Provide(ProvideQueries),
	// repos
	fx.Provide(
		fx.Annotate(repository.NewTrackerRepository,
			fx.As(new(service.TrackerStore)),
			fx.As(new(server.TrackerStore)),
		),
		fx.Annotate(repository.NewScrapingRunRepository,
			fx.As(new(service.RunStore)),
			fx.As(new(server.RunLister)),
		),
		fx.Annotate(repository.NewSeasonRepository,
			fx.As(new(service.SeasonStore)),
			fx.As(new(server.SeasonLister)),
		),
	),
	// proxy client, one rate limiter per process
	fx.Provide(api.NewSharedRateLimiter),
	fx.Provide(fx.Annotate(api.NewProxyClient, fx.As(new(service.ProfileFetcher)))),
	fx.Provide(parser.NewDefaultSeasonBuilder),
	// side effects
	fx.Provide(notify.New),
	fx.Provide(fx.Annotate(notify.NewLogRecomputer, fx.As(new(service.ScoreRecomputer)))),
	fx.Provide(service.NewSideEffects),
	// svc
	fx.Provide(fx.Annotate(service.NewSeasonService, fx.As(new(service.SeasonCollector)))),
	fx.Provide(service.NewUpsertCoordinator),
	fx.Provide(fx.Annotate(service.NewScrapeService, fx.As(fx.Self()), fx.As(new(server.Scraper)))),
	// server
	fx.Provide(server.NewTrackerServer),
)
