package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"league-tracker/internal/domain"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type memoryTrackers struct {
	byID map[string]*domain.Tracker
}

func (m *memoryTrackers) Create(ctx context.Context, tracker *domain.Tracker) error {
	for _, t := range m.byID {
		if t.Platform == tracker.Platform && t.Username == tracker.Username {
			return fmt.Errorf("%w: %s/%s", domain.ErrDuplicateTracker, tracker.Platform, tracker.Username)
		}
	}
	tracker.ID = fmt.Sprintf("trk-%d", len(m.byID)+1)
	tracker.ScrapingStatus = domain.StatusPending
	m.byID[tracker.ID] = tracker
	return nil
}

func (m *memoryTrackers) Get(ctx context.Context, id string) (*domain.Tracker, error) {
	t, ok := m.byID[id]
	if !ok {
		return nil, domain.NewScrapeError(domain.KindTrackerNotFound, "tracker "+id+" does not exist", nil)
	}
	return t, nil
}

type memorySeasons []domain.StoredSeason

func (m memorySeasons) ListByTracker(ctx context.Context, trackerID string, limit int) ([]domain.StoredSeason, error) {
	return m, nil
}

type memoryRuns []domain.ScrapingRun

func (m memoryRuns) ListByTracker(ctx context.Context, trackerID string, limit int) ([]domain.ScrapingRun, error) {
	return m, nil
}

type stubScraper struct {
	run *domain.ScrapingRun
	err error
}

func (s stubScraper) Run(ctx context.Context, trackerID string) (*domain.ScrapingRun, error) {
	return s.run, s.err
}

func newTestServer(scraper Scraper, seasons memorySeasons, runs memoryRuns) (*TrackerServer, *memoryTrackers) {
	trackers := &memoryTrackers{byID: map[string]*domain.Tracker{}}
	return NewTrackerServer(trackers, seasons, runs, scraper, zerolog.Nop()), trackers
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestRegisterTracker(t *testing.T) {
	srv, trackers := newTestServer(stubScraper{}, nil, nil)
	h := srv.Routes()

	rec := do(t, h, http.MethodPost, "/v1/trackers",
		`{"url":"https://rocketleague.tracker.network/rocket-league/profile/epic/Player%20One/overview","userId":"user-1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	got := decode[trackerResponse](t, rec)
	require.Equal(t, "trk-1", got.ID)
	require.Equal(t, "epic", got.Platform)
	require.Equal(t, "Player One", got.Username)
	require.Equal(t, "PENDING", got.ScrapingStatus)
	require.Contains(t, trackers.byID, "trk-1")

	rec = do(t, h, http.MethodPost, "/v1/trackers",
		`{"url":"https://rocketleague.tracker.network/rocket-league/profile/epic/Player%20One","userId":"user-2"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterTrackerRejects(t *testing.T) {
	srv, _ := newTestServer(stubScraper{}, nil, nil)
	h := srv.Routes()

	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"not json", `{`, "invalid request body"},
		{"missing user", `{"url":"https://rocketleague.tracker.network/rocket-league/profile/epic/A"}`, "userId is required"},
		{"bad url", `{"url":"https://tracker.gg/x","userId":"u"}`, "unsupported host"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/v1/trackers", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Contains(t, decode[map[string]string](t, rec)["error"], tt.msg)
		})
	}
}

func TestGetTracker(t *testing.T) {
	srv, trackers := newTestServer(stubScraper{}, nil, nil)
	require.NoError(t, trackers.Create(context.Background(), &domain.Tracker{Platform: domain.PlatformSteam, Username: "A"}))
	h := srv.Routes()

	rec := do(t, h, http.MethodGet, "/v1/trackers/trk-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "steam", decode[trackerResponse](t, rec).Platform)

	rec = do(t, h, http.MethodGet, "/v1/trackers/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScrapeEndpoint(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	message := "UpstreamUnavailable: proxy returned server error (status 503)"

	tests := []struct {
		name    string
		scraper stubScraper
		code    int
		status  string
	}{
		{
			name:    "completed",
			scraper: stubScraper{run: &domain.ScrapingRun{ID: "run-1", Status: domain.StatusCompleted, SeasonsScraped: 4, StartedAt: now, CompletedAt: &now}},
			code:    http.StatusOK,
			status:  "COMPLETED",
		},
		{
			name: "failed",
			scraper: stubScraper{
				run: &domain.ScrapingRun{ID: "run-2", Status: domain.StatusFailed, StartedAt: now, ErrorMessage: &message},
				err: domain.NewScrapeError(domain.KindUpstreamUnavailable, "proxy returned server error", nil),
			},
			code:   http.StatusBadGateway,
			status: "FAILED",
		},
		{
			name:    "tracker missing",
			scraper: stubScraper{err: domain.NewScrapeError(domain.KindTrackerNotFound, "tracker trk-9 does not exist", nil)},
			code:    http.StatusNotFound,
		},
		{
			name:    "no run",
			scraper: stubScraper{err: errors.New("database is locked")},
			code:    http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(tt.scraper, nil, nil)
			rec := do(t, srv.Routes(), http.MethodPost, "/v1/trackers/trk-9/scrape", "")
			require.Equal(t, tt.code, rec.Code)
			if tt.status != "" {
				require.Equal(t, tt.status, decode[runResponse](t, rec).Status)
			}
		})
	}
}

func TestListSeasonsAndRuns(t *testing.T) {
	name := "Season 22"
	rating := 1500
	seasons := memorySeasons{{
		TrackerID: "trk-1",
		SeasonRecord: domain.SeasonRecord{
			SeasonNumber: 22,
			SeasonName:   &name,
			Playlist2v2:  &domain.PlaylistRecord{Rating: &rating},
		},
	}}
	runs := memoryRuns{{ID: "run-1", TrackerID: "trk-1", Status: domain.StatusCompleted, SeasonsScraped: 1}}

	srv, trackers := newTestServer(stubScraper{}, seasons, runs)
	require.NoError(t, trackers.Create(context.Background(), &domain.Tracker{Platform: domain.PlatformEpic, Username: "A"}))
	h := srv.Routes()

	rec := do(t, h, http.MethodGet, "/v1/trackers/trk-1/seasons", "")
	require.Equal(t, http.StatusOK, rec.Code)
	gotSeasons := decode[[]seasonResponse](t, rec)
	require.Len(t, gotSeasons, 1)
	require.Equal(t, 22, gotSeasons[0].SeasonNumber)
	require.Equal(t, 1500, *gotSeasons[0].Playlist2v2.Rating)
	require.Nil(t, gotSeasons[0].Playlist1v1)

	rec = do(t, h, http.MethodGet, "/v1/trackers/trk-1/runs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	gotRuns := decode[[]runResponse](t, rec)
	require.Len(t, gotRuns, 1)
	require.Equal(t, "run-1", gotRuns[0].ID)

	rec = do(t, h, http.MethodGet, "/v1/trackers/missing/seasons", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
