// Package testutil builds upstream payloads shaped like the tracker API and
// the proxy envelopes around it.
package testutil

import (
	"encoding/json"
	"fmt"
	"html"
	"io"
	"testing"

	"github.com/rs/zerolog"
)

func PlaylistSegment(playlistID, season, rating int) map[string]any {
	return map[string]any{
		"type": "playlist",
		"attributes": map[string]any{
			"playlistId": playlistID,
			"season":     season,
		},
		"metadata": map[string]any{"name": fmt.Sprintf("Playlist %d", playlistID)},
		"stats": map[string]any{
			"tier": map[string]any{
				"value":        19,
				"displayValue": "Grand Champion I",
				"metadata":     map[string]any{"name": "Grand Champion I", "iconUrl": "https://example.com/gc1.png"},
			},
			"division": map[string]any{
				"value":        2,
				"displayValue": "Division III",
				"metadata":     map[string]any{"name": "Division III"},
			},
			"rating":        map[string]any{"value": rating, "displayValue": fmt.Sprint(rating)},
			"matchesPlayed": map[string]any{"value": 120, "displayValue": "120"},
			"winStreak":     map[string]any{"value": 3, "displayValue": "3", "metadata": map[string]any{"type": "win"}},
		},
	}
}

func OverviewSegment(name string) map[string]any {
	return map[string]any{
		"type":       "overview",
		"attributes": map[string]any{},
		"metadata":   map[string]any{"name": name},
		"stats":      map[string]any{"wins": map[string]any{"value": 500}},
	}
}

func AvailableSeason(season int, name string) map[string]any {
	return map[string]any{
		"type":       "playlist",
		"attributes": map[string]any{"season": season},
		"metadata":   map[string]any{"name": name},
	}
}

// Profile returns a bare tracker API profile body wrapped in {"data": ...}.
func Profile(currentSeason int, available []map[string]any, segments ...map[string]any) []byte {
	if available == nil {
		available = []map[string]any{}
	}
	if segments == nil {
		segments = []map[string]any{}
	}
	body := map[string]any{
		"data": map[string]any{
			"platformInfo": map[string]any{
				"platformSlug":       "epic",
				"platformUserHandle": "Player One",
			},
			"userInfo": map[string]any{"userId": 42, "isPremium": false},
			"metadata": map[string]any{
				"currentSeason": currentSeason,
				"lastUpdated":   map[string]any{"value": "2026-10-01T12:00:00Z"},
			},
			"segments":          segments,
			"availableSegments": available,
		},
	}
	return MustJSON(body)
}

// WrapContent nests body in a {"content": "<json string>"} envelope.
func WrapContent(body []byte) []byte {
	return MustJSON(map[string]any{"content": string(body)})
}

// WrapSolution embeds body in a <pre> block under solution.response.
func WrapSolution(body []byte) []byte {
	markup := "<html><head></head><body><pre style=\"word-wrap: break-word;\">" +
		html.EscapeString(string(body)) +
		"</pre></body></html>"
	return MustJSON(map[string]any{
		"status":   "ok",
		"solution": map[string]any{"url": "https://api.tracker.gg", "status": 200, "response": markup},
	})
}

func MustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func Logger(t testing.TB) zerolog.Logger {
	t.Helper()
	if testing.Verbose() {
		return zerolog.New(zerolog.NewTestWriter(t)).With().Timestamp().Logger()
	}
	return zerolog.New(io.Discard)
}
