package service

import (
	"context"
	"league-tracker/internal/api"
	"league-tracker/internal/domain"
	"league-tracker/internal/parser"
	"league-tracker/internal/testutil"
	"testing"

	"github.com/stretchr/testify/require"
)

const profileAPIURL = "https://api.tracker.gg/api/v2/rocket-league/standard/profile/epic/PlayerOne"

func availableSeasons(numbers ...int) []map[string]any {
	available := make([]map[string]any, 0, len(numbers))
	for _, n := range numbers {
		available = append(available, testutil.AvailableSeason(n, ""))
	}
	return available
}

// seedProfile registers the base body plus one body per historical season.
func seedProfile(f *fakeFetcher, current int, seasons ...int) {
	available := availableSeasons(seasons...)
	f.bodies[profileAPIURL] = testutil.WrapSolution(testutil.Profile(current, available,
		testutil.PlaylistSegment(2, current, 1500+current),
	))
	for _, s := range seasons {
		if s == current {
			continue
		}
		f.bodies[api.SeasonURL(profileAPIURL, s)] = testutil.WrapContent(testutil.Profile(current, available,
			testutil.PlaylistSegment(2, s, 1500+s),
		))
	}
}

func seasonNumbers(records []domain.SeasonRecord) []int {
	out := make([]int, len(records))
	for i, r := range records {
		out[i] = r.SeasonNumber
	}
	return out
}

func newTestSeasonService(t *testing.T, fetcher ProfileFetcher) *SeasonService {
	logger := testutil.Logger(t)
	return NewSeasonService(fetcher, parser.NewDefaultSeasonBuilder(logger), logger)
}

func TestCollectFirstRun(t *testing.T) {
	fetcher := newFakeFetcher()
	seedProfile(fetcher, 22, 22, 21, 20, 19, 18)

	records, err := newTestSeasonService(t, fetcher).Collect(context.Background(), profileAPIURL, 3)
	require.NoError(t, err)
	require.Equal(t, []int{22, 21, 20, 19}, seasonNumbers(records))
	require.Len(t, fetcher.Calls(), 4)

	for _, r := range records {
		require.NotNil(t, r.Playlist2v2)
		require.Equal(t, 1500+r.SeasonNumber, *r.Playlist2v2.Rating)
	}
}

func TestCollectIncremental(t *testing.T) {
	fetcher := newFakeFetcher()
	seedProfile(fetcher, 22, 22, 21, 20, 19, 18)

	records, err := newTestSeasonService(t, fetcher).Collect(context.Background(), profileAPIURL, 0)
	require.NoError(t, err)
	require.Equal(t, []int{22}, seasonNumbers(records))
	require.Equal(t, []string{profileAPIURL}, fetcher.Calls())
}

func TestCollectSkipsFailedHistoricalSeason(t *testing.T) {
	fetcher := newFakeFetcher()
	seedProfile(fetcher, 22, 22, 21, 20, 19)
	fetcher.errs[api.SeasonURL(profileAPIURL, 20)] = domain.NewScrapeError(domain.KindUpstreamUnavailable, "proxy returned server error", nil)

	records, err := newTestSeasonService(t, fetcher).Collect(context.Background(), profileAPIURL, 3)
	require.NoError(t, err)
	require.Equal(t, []int{22, 21, 19}, seasonNumbers(records))
}

func TestCollectSkipsUnparseableHistoricalSeason(t *testing.T) {
	fetcher := newFakeFetcher()
	seedProfile(fetcher, 22, 22, 21)
	fetcher.bodies[api.SeasonURL(profileAPIURL, 21)] = []byte("<html>blocked</html>")

	records, err := newTestSeasonService(t, fetcher).Collect(context.Background(), profileAPIURL, 3)
	require.NoError(t, err)
	require.Equal(t, []int{22}, seasonNumbers(records))
}

func TestCollectBaseFailure(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.errs[profileAPIURL] = domain.NewScrapeError(domain.KindRateLimited, "proxy rate limit exceeded", nil)

	_, err := newTestSeasonService(t, fetcher).Collect(context.Background(), profileAPIURL, 3)
	require.ErrorIs(t, err, domain.ErrRateLimited)
	require.Contains(t, err.Error(), "failed to fetch base profile")
}

func TestCollectBaseInvalidPayload(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.bodies[profileAPIURL] = []byte(`{"data":{"segments":[]}}`)

	_, err := newTestSeasonService(t, fetcher).Collect(context.Background(), profileAPIURL, 3)
	require.ErrorIs(t, err, domain.ErrInvalidUpstreamPayload)
}

func TestCollectNoSeasons(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.bodies[profileAPIURL] = testutil.Profile(22, nil)

	records, err := newTestSeasonService(t, fetcher).Collect(context.Background(), profileAPIURL, 3)
	require.NoError(t, err)
	require.NotNil(t, records)
	require.Empty(t, records)
	require.Len(t, fetcher.Calls(), 1)
}

func TestCollectWithoutCurrentSeason(t *testing.T) {
	fetcher := newFakeFetcher()
	available := []map[string]any{
		testutil.AvailableSeason(21, "Season 21"),
		testutil.AvailableSeason(22, "Season 22"),
		testutil.AvailableSeason(22, "Season 22 duplicate"),
	}
	fetcher.bodies[profileAPIURL] = testutil.Profile(0, available, testutil.PlaylistSegment(1, 22, 1000))

	records, err := newTestSeasonService(t, fetcher).Collect(context.Background(), profileAPIURL, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, 22, records[0].SeasonNumber)
	require.Equal(t, "Season 22", *records[0].SeasonName)
	require.Equal(t, 1000, *records[0].Playlist1v1.Rating)
}

func TestDiscoverSeasons(t *testing.T) {
	season := func(n int) *int { return &n }
	seasons, names := discoverSeasons([]parser.AvailableSegment{
		{Type: "playlist", Season: season(20), Name: "Season 20"},
		{Type: "overview", Season: season(99)},
		{Type: "playlist"},
		{Type: "playlist", Season: season(22)},
		{Type: "playlist", Season: season(20), Name: "ignored"},
	})

	require.Equal(t, []int{22, 20}, seasons)
	require.Equal(t, "Season 20", names[20])
	require.Empty(t, names[22])
}
