package db

import (
	"database/sql"
	"time"
)

type Tracker struct {
	ID               string
	Url              string
	Platform         string
	Username         string
	UserID           string
	LastScrapedAt    sql.NullTime
	ScrapingStatus   string
	ScrapingError    sql.NullString
	ScrapingAttempts int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type ScrapingRun struct {
	ID             string
	TrackerID      string
	Status         string
	SeasonsScraped int64
	SeasonsFailed  int64
	StartedAt      time.Time
	CompletedAt    sql.NullTime
	ErrorMessage   sql.NullString
}

type TrackerSeason struct {
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
