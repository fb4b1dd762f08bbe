package server

import (
	"context"
	"encoding/json"
	"errors"
	"league-tracker/internal/api"
	"league-tracker/internal/constants"
	"league-tracker/internal/domain"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

type TrackerStore interface {
	Create(ctx context.Context, tracker *domain.Tracker) error
	Get(ctx context.Context, id string) (*domain.Tracker, error)
}

type SeasonLister interface {
	ListByTracker(ctx context.Context, trackerID string, limit int) ([]domain.StoredSeason, error)
}

type RunLister interface {
	ListByTracker(ctx context.Context, trackerID string, limit int) ([]domain.ScrapingRun, error)
}

type Scraper interface {
	Run(ctx context.Context, trackerID string) (*domain.ScrapingRun, error)
}

type TrackerServer struct {
	trackers TrackerStore
	seasons  SeasonLister
	runs     RunLister
	scraper  Scraper
	logger   zerolog.Logger
}

func NewTrackerServer(trackers TrackerStore, seasons SeasonLister, runs RunLister, scraper Scraper, logger zerolog.Logger) *TrackerServer {
	return &TrackerServer{trackers: trackers, seasons: seasons, runs: runs, scraper: scraper, logger: logger}
}

func (s *TrackerServer) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/trackers", s.RegisterTracker)
	mux.HandleFunc("GET /v1/trackers/{id}", s.GetTracker)
	mux.HandleFunc("POST /v1/trackers/{id}/scrape", s.Scrape)
	mux.HandleFunc("GET /v1/trackers/{id}/seasons", s.ListSeasons)
	mux.HandleFunc("GET /v1/trackers/{id}/runs", s.ListRuns)
	return mux
}

type registerRequest struct {
	URL    string `json:"url"`
	UserID string `json:"userId"`
}

type trackerResponse struct {
	ID               string     `json:"id"`
	URL              string     `json:"url"`
	Platform         string     `json:"platform"`
	Username         string     `json:"username"`
	UserID           string     `json:"userId"`
	LastScrapedAt    *time.Time `json:"lastScrapedAt"`
	ScrapingStatus   string     `json:"scrapingStatus"`
	ScrapingError    *string    `json:"scrapingError"`
	ScrapingAttempts int        `json:"scrapingAttempts"`
}

type runResponse struct {
	ID             string     `json:"id"`
	TrackerID      string     `json:"trackerId"`
	Status         string     `json:"status"`
	SeasonsScraped int        `json:"seasonsScraped"`
	SeasonsFailed  int        `json:"seasonsFailed"`
	StartedAt      time.Time  `json:"startedAt"`
	CompletedAt    *time.Time `json:"completedAt"`
	ErrorMessage   *string    `json:"errorMessage"`
}

type seasonResponse struct {
	SeasonNumber int                    `json:"seasonNumber"`
	SeasonName   *string                `json:"seasonName"`
	Playlist1v1  *domain.PlaylistRecord `json:"playlist1v1"`
	Playlist2v2  *domain.PlaylistRecord `json:"playlist2v2"`
	Playlist3v3  *domain.PlaylistRecord `json:"playlist3v3"`
	Playlist4v4  *domain.PlaylistRecord `json:"playlist4v4"`
	UpdatedAt    time.Time              `json:"updatedAt"`
}

func (s *TrackerServer) RegisterTracker(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		s.writeError(w, r, http.StatusBadRequest, "userId is required")
		return
	}

	ref, err := api.ParseProfileURL(req.URL)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	tracker := &domain.Tracker{
		URL:      req.URL,
		Platform: ref.Platform,
		Username: ref.Username(),
		UserID:   req.UserID,
	}
	if err := s.trackers.Create(r.Context(), tracker); err != nil {
		if errors.Is(err, domain.ErrDuplicateTracker) {
			s.writeError(w, r, http.StatusConflict, err.Error())
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to register tracker")
		s.writeError(w, r, http.StatusInternalServerError, "failed to register tracker")
		return
	}

	s.writeJSON(w, r, http.StatusCreated, toTrackerResponse(tracker))
}

func (s *TrackerServer) GetTracker(w http.ResponseWriter, r *http.Request) {
	tracker, ok := s.loadTracker(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, r, http.StatusOK, toTrackerResponse(tracker))
}

func (s *TrackerServer) Scrape(w http.ResponseWriter, r *http.Request) {
	run, err := s.scraper.Run(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, domain.ErrTrackerNotFound):
		s.writeError(w, r, http.StatusNotFound, err.Error())
	case run == nil:
		s.writeError(w, r, http.StatusInternalServerError, "failed to start scrape")
	case err != nil:
		s.writeJSON(w, r, http.StatusBadGateway, toRunResponse(run))
	default:
		s.writeJSON(w, r, http.StatusOK, toRunResponse(run))
	}
}

func (s *TrackerServer) ListSeasons(w http.ResponseWriter, r *http.Request) {
	tracker, ok := s.loadTracker(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), constants.DatabaseTimeout)
	defer cancel()

	seasons, err := s.seasons.ListByTracker(ctx, tracker.ID, constants.SeasonListLimit)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("tracker_id", tracker.ID).Msg("failed to list seasons")
		s.writeError(w, r, http.StatusInternalServerError, "failed to list seasons")
		return
	}

	resp := make([]seasonResponse, 0, len(seasons))
	for _, season := range seasons {
		resp = append(resp, seasonResponse{
			SeasonNumber: season.SeasonNumber,
			SeasonName:   season.SeasonName,
			Playlist1v1:  season.Playlist1v1,
			Playlist2v2:  season.Playlist2v2,
			Playlist3v3:  season.Playlist3v3,
			Playlist4v4:  season.Playlist4v4,
			UpdatedAt:    season.UpdatedAt,
		})
	}
	s.writeJSON(w, r, http.StatusOK, resp)
}

func (s *TrackerServer) ListRuns(w http.ResponseWriter, r *http.Request) {
	tracker, ok := s.loadTracker(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), constants.DatabaseTimeout)
	defer cancel()

	runs, err := s.runs.ListByTracker(ctx, tracker.ID, constants.SeasonListLimit)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("tracker_id", tracker.ID).Msg("failed to list scraping runs")
		s.writeError(w, r, http.StatusInternalServerError, "failed to list scraping runs")
		return
	}

	resp := make([]runResponse, 0, len(runs))
	for i := range runs {
		resp = append(resp, toRunResponse(&runs[i]))
	}
	s.writeJSON(w, r, http.StatusOK, resp)
}

func (s *TrackerServer) loadTracker(w http.ResponseWriter, r *http.Request) (*domain.Tracker, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.DatabaseTimeout)
	defer cancel()

	tracker, err := s.trackers.Get(ctx, r.PathValue("id"))
	if errors.Is(err, domain.ErrTrackerNotFound) {
		s.writeError(w, r, http.StatusNotFound, err.Error())
		return nil, false
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to load tracker")
		s.writeError(w, r, http.StatusInternalServerError, "failed to load tracker")
		return nil, false
	}
	return tracker, true
}

func (s *TrackerServer) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn().Err(err).Str("path", r.URL.Path).Msg("failed to write response")
	}
}

func (s *TrackerServer) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.writeJSON(w, r, status, map[string]string{"error": message})
}

func toTrackerResponse(t *domain.Tracker) trackerResponse {
	return trackerResponse{
		ID:               t.ID,
		URL:              t.URL,
		Platform:         string(t.Platform),
		Username:         t.Username,
		UserID:           t.UserID,
		LastScrapedAt:    t.LastScrapedAt,
		ScrapingStatus:   string(t.ScrapingStatus),
		ScrapingError:    t.ScrapingError,
		ScrapingAttempts: t.ScrapingAttempts,
	}
}

func toRunResponse(run *domain.ScrapingRun) runResponse {
	return runResponse{
		ID:             run.ID,
		TrackerID:      run.TrackerID,
		Status:         string(run.Status),
		SeasonsScraped: run.SeasonsScraped,
		SeasonsFailed:  run.SeasonsFailed,
		StartedAt:      run.StartedAt,
		CompletedAt:    run.CompletedAt,
		ErrorMessage:   run.ErrorMessage,
	}
}
