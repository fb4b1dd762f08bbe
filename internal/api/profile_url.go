package api

import (
	"fmt"
	"league-tracker/internal/domain"
	"net/url"
	"strconv"
	"strings"
)

const (
	ProfileHost    = "rocketleague.tracker.network"
	ProfileGame    = "rocket-league"
	TrackerAPIBase = "https://api.tracker.gg/api/v2/rocket-league/standard/profile"
)

type ProfileRef struct {
	Platform domain.Platform
	// escaped exactly as it appeared in the profile URL
	RawUsername string
}

// Username returns the decoded display name, falling back to the raw segment.
func (p ProfileRef) Username() string {
	name, err := url.PathUnescape(p.RawUsername)
	if err != nil {
		return p.RawUsername
	}
	return name
}

// APIURL builds the internal query URL. The username segment is escaped once
// more on purpose: the upstream API expects it double-encoded.
func (p ProfileRef) APIURL() string {
	return fmt.Sprintf("%s/%s/%s", TrackerAPIBase, p.Platform, url.PathEscape(p.RawUsername))
}

func ParseProfileURL(raw string) (ProfileRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ProfileRef{}, malformed("empty url", nil)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ProfileRef{}, malformed("invalid url", err)
	}
	if !strings.EqualFold(u.Scheme, "https") {
		return ProfileRef{}, malformed("unsupported scheme", nil)
	}
	if !strings.EqualFold(u.Hostname(), ProfileHost) {
		return ProfileRef{}, malformed("unsupported host", nil)
	}

	// /<game>/profile/<platform>/<username>/...
	segments := strings.Split(strings.Trim(u.EscapedPath(), "/"), "/")
	if len(segments) < 2 || segments[0] != ProfileGame || segments[1] != "profile" {
		return ProfileRef{}, malformed("unsupported game", nil)
	}
	if len(segments) < 3 || segments[2] == "" {
		return ProfileRef{}, malformed("missing platform", nil)
	}
	platform := domain.Platform(strings.ToLower(segments[2]))
	if !domain.SupportedPlatforms[platform] {
		return ProfileRef{}, malformed("unsupported platform", nil)
	}
	if len(segments) < 4 || segments[3] == "" {
		return ProfileRef{}, malformed("missing username", nil)
	}

	return ProfileRef{Platform: platform, RawUsername: segments[3]}, nil
}

func NormalizeProfileURL(raw string) (string, error) {
	ref, err := ParseProfileURL(raw)
	if err != nil {
		return "", err
	}
	return ref.APIURL(), nil
}

// SeasonURL parameterizes a profile API URL for a single historical season.
func SeasonURL(profileAPIURL string, season int) string {
	sep := "?"
	if strings.Contains(profileAPIURL, "?") {
		sep = "&"
	}
	return profileAPIURL + sep + "season=" + strconv.Itoa(season)
}

func malformed(reason string, err error) error {
	return domain.NewScrapeError(domain.KindMalformedProfileURL, reason, err)
}
