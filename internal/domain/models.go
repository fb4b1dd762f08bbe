package domain

import (
	"time"
)

type ScrapingStatus string

const (
	StatusPending    ScrapingStatus = "PENDING"
	StatusInProgress ScrapingStatus = "IN_PROGRESS"
	StatusCompleted  ScrapingStatus = "COMPLETED"
	StatusFailed     ScrapingStatus = "FAILED"
)

// CanTransitionTo reports whether a tracker may move from s to next.
// Every run goes through IN_PROGRESS before reaching a terminal state.
func (s ScrapingStatus) CanTransitionTo(next ScrapingStatus) bool {
	switch next {
	case StatusInProgress:
		return s == StatusPending || s == StatusCompleted || s == StatusFailed
	case StatusCompleted, StatusFailed:
		return s == StatusInProgress
	}
	return false
}

func (s ScrapingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type Platform string

const (
	PlatformSteam  Platform = "steam"
	PlatformEpic   Platform = "epic"
	PlatformXbox   Platform = "xbl"
	PlatformPSN    Platform = "psn"
	PlatformSwitch Platform = "switch"
)

var SupportedPlatforms = map[Platform]bool{
	PlatformSteam:  true,
	PlatformEpic:   true,
	PlatformXbox:   true,
	PlatformPSN:    true,
	PlatformSwitch: true,
}

type Tracker struct {
	ID               string
	URL              string
	Platform         Platform
	Username         string
	UserID           string
	LastScrapedAt    *time.Time
	ScrapingStatus   ScrapingStatus
	ScrapingError    *string
	ScrapingAttempts int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type ScrapingRun struct {
	ID             string
	TrackerID      string
	Status         ScrapingStatus // never PENDING
	SeasonsScraped int
	SeasonsFailed  int
	StartedAt      time.Time
	CompletedAt    *time.Time
	ErrorMessage   *string
}

type SeasonRecord struct {
	SeasonNumber int
	SeasonName   *string
	Playlist1v1  *PlaylistRecord
	Playlist2v2  *PlaylistRecord
	Playlist3v3  *PlaylistRecord
	Playlist4v4  *PlaylistRecord
}

// PlaylistRecord fields are independently nullable; upstream omits unplayed playlists.
type PlaylistRecord struct {
	Rank          *string `json:"rank"`
	RankValue     *int    `json:"rankValue"`
	Division      *string `json:"division"`
	DivisionValue *int    `json:"divisionValue"`
	Rating        *int    `json:"rating"`
	MatchesPlayed *int    `json:"matchesPlayed"`
	WinStreak     *int    `json:"winStreak"`
}

// RawSegment is the loosely typed upstream stat segment. Read it only after
// parser.ValidateSegment accepted it.
type RawSegment struct {
	Type       string
	Attributes map[string]any
	Metadata   map[string]any
	Stats      map[string]any
}

type UpsertResult struct {
	SeasonsScraped int
	SeasonsFailed  int
}

type StoredSeason struct {
	TrackerID string
	SeasonRecord
	CreatedAt time.Time
	UpdatedAt time.Time
}
