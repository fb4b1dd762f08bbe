package db

import (
	"context"
	"database/sql"
	"time"
)

const trackerColumns = `id, url, platform, username, user_id, last_scraped_at, scraping_status,
       scraping_error, scraping_attempts, created_at, updated_at`

func scanTracker(row interface{ Scan(...interface{}) error }) (Tracker, error) {
	var i Tracker
	err := row.Scan(
		&i.ID,
		&i.Url,
		&i.Platform,
		&i.Username,
		&i.UserID,
		&i.LastScrapedAt,
		&i.ScrapingStatus,
		&i.ScrapingError,
		&i.ScrapingAttempts,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createTracker = `
INSERT INTO trackers (id, url, platform, username, user_id, scraping_status, scraping_attempts, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, 'PENDING', 0, ?, ?)
`

type CreateTrackerParams struct {
	ID        string
	Url       string
	Platform  string
	Username  string
	UserID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (q *Queries) CreateTracker(ctx context.Context, arg CreateTrackerParams) error {
	_, err := q.db.ExecContext(ctx, createTracker,
		arg.ID,
		arg.Url,
		arg.Platform,
		arg.Username,
		arg.UserID,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getTracker = `SELECT ` + trackerColumns + ` FROM trackers WHERE id = ?`

func (q *Queries) GetTracker(ctx context.Context, id string) (Tracker, error) {
	return scanTracker(q.db.QueryRowContext(ctx, getTracker, id))
}

const getTrackerByProfile = `SELECT ` + trackerColumns + ` FROM trackers WHERE platform = ? AND username = ?`

type GetTrackerByProfileParams struct {
	Platform string
	Username string
}

func (q *Queries) GetTrackerByProfile(ctx context.Context, arg GetTrackerByProfileParams) (Tracker, error) {
	return scanTracker(q.db.QueryRowContext(ctx, getTrackerByProfile, arg.Platform, arg.Username))
}

const markTrackerInProgress = `
UPDATE trackers
SET scraping_status = 'IN_PROGRESS', scraping_error = NULL, updated_at = ?
WHERE id = ?
`

type MarkTrackerInProgressParams struct {
	UpdatedAt time.Time
	ID        string
}

func (q *Queries) MarkTrackerInProgress(ctx context.Context, arg MarkTrackerInProgressParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, markTrackerInProgress, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const markTrackerCompleted = `
UPDATE trackers
SET scraping_status = 'COMPLETED', scraping_error = NULL, scraping_attempts = 0,
    last_scraped_at = ?, updated_at = ?
WHERE id = ?
`

type MarkTrackerCompletedParams struct {
	LastScrapedAt time.Time
	UpdatedAt     time.Time
	ID            string
}

func (q *Queries) MarkTrackerCompleted(ctx context.Context, arg MarkTrackerCompletedParams) error {
	_, err := q.db.ExecContext(ctx, markTrackerCompleted, arg.LastScrapedAt, arg.UpdatedAt, arg.ID)
	return err
}

const markTrackerFailed = `
UPDATE trackers
SET scraping_status = 'FAILED', scraping_error = ?, scraping_attempts = scraping_attempts + 1,
    updated_at = ?
WHERE id = ?
`

type MarkTrackerFailedParams struct {
	ScrapingError string
	UpdatedAt     time.Time
	ID            string
}

func (q *Queries) MarkTrackerFailed(ctx context.Context, arg MarkTrackerFailedParams) error {
	_, err := q.db.ExecContext(ctx, markTrackerFailed, arg.ScrapingError, arg.UpdatedAt, arg.ID)
	return err
}

const runColumns = `id, tracker_id, status, seasons_scraped, seasons_failed, started_at, completed_at, error_message`

func scanScrapingRun(row interface{ Scan(...interface{}) error }) (ScrapingRun, error) {
	var i ScrapingRun
	err := row.Scan(
		&i.ID,
		&i.TrackerID,
		&i.Status,
		&i.SeasonsScraped,
		&i.SeasonsFailed,
		&i.StartedAt,
		&i.CompletedAt,
		&i.ErrorMessage,
	)
	return i, err
}

const createScrapingRun = `
INSERT INTO scraping_runs (id, tracker_id, status, seasons_scraped, seasons_failed, started_at)
VALUES (?, ?, 'IN_PROGRESS', 0, 0, ?)
`

type CreateScrapingRunParams struct {
	ID        string
	TrackerID string
	StartedAt time.Time
}

func (q *Queries) CreateScrapingRun(ctx context.Context, arg CreateScrapingRunParams) error {
	_, err := q.db.ExecContext(ctx, createScrapingRun, arg.ID, arg.TrackerID, arg.StartedAt)
	return err
}

const finishScrapingRun = `
UPDATE scraping_runs
SET status = ?, seasons_scraped = ?, seasons_failed = ?, completed_at = ?, error_message = ?
WHERE id = ?
`

type FinishScrapingRunParams struct {
	Status         string
	SeasonsScraped int64
	SeasonsFailed  int64
	CompletedAt    time.Time
	ErrorMessage   sql.NullString
	ID             string
}

func (q *Queries) FinishScrapingRun(ctx context.Context, arg FinishScrapingRunParams) error {
	_, err := q.db.ExecContext(ctx, finishScrapingRun,
		arg.Status,
		arg.SeasonsScraped,
		arg.SeasonsFailed,
		arg.CompletedAt,
		arg.ErrorMessage,
		arg.ID,
	)
	return err
}

const getScrapingRun = `SELECT ` + runColumns + ` FROM scraping_runs WHERE id = ?`

func (q *Queries) GetScrapingRun(ctx context.Context, id string) (ScrapingRun, error) {
	return scanScrapingRun(q.db.QueryRowContext(ctx, getScrapingRun, id))
}

const listScrapingRunsByTracker = `
SELECT ` + runColumns + `
FROM scraping_runs
WHERE tracker_id = ?
ORDER BY started_at DESC
LIMIT ?
`

type ListScrapingRunsByTrackerParams struct {
	TrackerID string
	Limit     int64
}

func (q *Queries) ListScrapingRunsByTracker(ctx context.Context, arg ListScrapingRunsByTrackerParams) ([]ScrapingRun, error) {
	rows, err := q.db.QueryContext(ctx, listScrapingRunsByTracker, arg.TrackerID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ScrapingRun
	for rows.Next() {
		i, err := scanScrapingRun(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertTrackerSeason = `
INSERT INTO tracker_seasons (
    tracker_id, season_number, season_name,
    playlist_1v1, playlist_2v2, playlist_3v3, playlist_4v4,
    created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (tracker_id, season_number) DO UPDATE SET
    season_name  = excluded.season_name,
    playlist_1v1 = excluded.playlist_1v1,
    playlist_2v2 = excluded.playlist_2v2,
    playlist_3v3 = excluded.playlist_3v3,
    playlist_4v4 = excluded.playlist_4v4,
    updated_at   = excluded.updated_at
`

type UpsertTrackerSeasonParams struct {
	TrackerID    string
	SeasonNumber int64
	SeasonName   sql.NullString
	Playlist1v1  sql.NullString
	Playlist2v2  sql.NullString
	Playlist3v3  sql.NullString
	Playlist4v4  sql.NullString
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (q *Queries) UpsertTrackerSeason(ctx context.Context, arg UpsertTrackerSeasonParams) error {
	_, err := q.db.ExecContext(ctx, upsertTrackerSeason,
		arg.TrackerID,
		arg.SeasonNumber,
		arg.SeasonName,
		arg.Playlist1v1,
		arg.Playlist2v2,
		arg.Playlist3v3,
		arg.Playlist4v4,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const listTrackerSeasons = `
SELECT tracker_id, season_number, season_name,
       playlist_1v1, playlist_2v2, playlist_3v3, playlist_4v4,
       created_at, updated_at
FROM tracker_seasons
WHERE tracker_id = ?
ORDER BY season_number DESC
LIMIT ?
`

type ListTrackerSeasonsParams struct {
	TrackerID string
	Limit     int64
}

func (q *Queries) ListTrackerSeasons(ctx context.Context, arg ListTrackerSeasonsParams) ([]TrackerSeason, error) {
	rows, err := q.db.QueryContext(ctx, listTrackerSeasons, arg.TrackerID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TrackerSeason
	for rows.Next() {
		var i TrackerSeason
		if err := rows.Scan(
			&i.TrackerID,
			&i.SeasonNumber,
			&i.SeasonName,
			&i.Playlist1v1,
			&i.Playlist2v2,
			&i.Playlist3v3,
			&i.Playlist4v4,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countTrackerSeasons = `SELECT COUNT(*) FROM tracker_seasons WHERE tracker_id = ?`

func (q *Queries) CountTrackerSeasons(ctx context.Context, trackerID string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countTrackerSeasons, trackerID)
	var count int64
	err := row.Scan(&count)
	return count, err
}
