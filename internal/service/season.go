package service

import (
	"context"
	"fmt"
	"league-tracker/internal/api"
	"league-tracker/internal/domain"
	"league-tracker/internal/parser"
	"sort"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("league-tracker/internal/service")

// ProfileFetcher returns the raw proxy body for a tracker API URL.
type ProfileFetcher interface {
	Fetch(ctx context.Context, targetURL string) ([]byte, error)
}

type SeasonService struct {
	fetcher ProfileFetcher
	builder *parser.SeasonBuilder
	logger  zerolog.Logger
}

func NewSeasonService(fetcher ProfileFetcher, builder *parser.SeasonBuilder, logger zerolog.Logger) *SeasonService {
	return &SeasonService{fetcher: fetcher, builder: builder, logger: logger}
}

// Collect fetches the profile at profileAPIURL and assembles its season records,
// newest first. The current season comes from the base response; up to
// maxHistorical older seasons are fetched one request at a time. A failed
// historical season is dropped, only a failed base fetch is returned as an error.
func (s *SeasonService) Collect(ctx context.Context, profileAPIURL string, maxHistorical int) ([]domain.SeasonRecord, error) {
	ctx, span := tracer.Start(ctx, "SeasonService.Collect")
	defer span.End()
	span.SetAttributes(attribute.Int("scrape.max_historical", maxHistorical))

	profile, err := s.fetchProfile(ctx, profileAPIURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "base profile fetch failed")
		return nil, fmt.Errorf("failed to fetch base profile: %w", err)
	}

	seasons, names := discoverSeasons(profile.AvailableSegments)
	if len(seasons) == 0 {
		s.logger.Info().Str("url", profileAPIURL).Msg("no seasons discovered for profile")
		return []domain.SeasonRecord{}, nil
	}

	current := profile.Metadata.CurrentSeason
	if current <= 0 {
		current = seasons[0]
	}

	records := []domain.SeasonRecord{
		s.builder.Build(profile.Segments, current, names[current]),
	}

	var historical []int
	for _, season := range seasons {
		if season == current {
			continue
		}
		if len(historical) >= maxHistorical {
			break
		}
		historical = append(historical, season)
	}

	// sequential on purpose: every request goes through the shared rate limiter
	fetched := 0
	for _, season := range historical {
		record, err := s.collectSeason(ctx, profileAPIURL, season, names[season])
		if err != nil {
			s.logger.Warn().
				Err(err).
				Int("season", season).
				Str("url", profileAPIURL).
				Msg("failed to fetch historical season, skipping")
			continue
		}
		records = append(records, record)
		fetched++
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].SeasonNumber > records[j].SeasonNumber
	})

	span.SetAttributes(
		attribute.Int("scrape.current_season", current),
		attribute.Int("scrape.historical_requested", len(historical)),
		attribute.Int("scrape.historical_fetched", fetched),
	)
	s.logger.Debug().
		Int("current_season", current).
		Ints("discovered", seasons).
		Int("historical_requested", len(historical)).
		Int("historical_fetched", fetched).
		Msg("seasons collected")

	return records, nil
}

func (s *SeasonService) collectSeason(ctx context.Context, profileAPIURL string, season int, name string) (domain.SeasonRecord, error) {
	profile, err := s.fetchProfile(ctx, api.SeasonURL(profileAPIURL, season))
	if err != nil {
		return domain.SeasonRecord{}, err
	}
	return s.builder.Build(profile.Segments, season, name), nil
}

func (s *SeasonService) fetchProfile(ctx context.Context, targetURL string) (*parser.Profile, error) {
	body, err := s.fetcher.Fetch(ctx, targetURL)
	if err != nil {
		return nil, err
	}
	profile, err := parser.Unwrap(body)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("url", targetURL).
			Int("body_bytes", len(body)).
			Msg("upstream payload has unexpected shape")
		return nil, err
	}
	return profile, nil
}

// discoverSeasons returns the distinct playlist seasons, newest first, and their display names.
func discoverSeasons(available []parser.AvailableSegment) ([]int, map[int]string) {
	names := map[int]string{}
	seen := map[int]bool{}
	var seasons []int
	for _, seg := range available {
		if seg.Type != parser.SegmentTypePlaylist || seg.Season == nil {
			continue
		}
		season := *seg.Season
		if !seen[season] {
			seen[season] = true
			seasons = append(seasons, season)
		}
		if seg.Name != "" && names[season] == "" {
			names[season] = seg.Name
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(seasons)))
	return seasons, names
}
