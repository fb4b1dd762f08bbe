package parser

import (
	"encoding/json"
	"league-tracker/internal/domain"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	SegmentTypePlaylist = "playlist"
	SegmentTypeOverview = "overview"
)

type PlatformInfo struct {
	PlatformSlug           string
	PlatformUserHandle     string
	PlatformUserIdentifier string
}

type UserInfo struct {
	UserID    int
	IsPremium bool
}

type ProfileMetadata struct {
	CurrentSeason int
	LastUpdated   string
}

type AvailableSegment struct {
	Type   string
	Season *int
	Name   string
}

// Profile is the structured payload recovered from a proxy response.
type Profile struct {
	PlatformInfo      PlatformInfo
	UserInfo          UserInfo
	Metadata          ProfileMetadata
	Segments          []domain.RawSegment
	AvailableSegments []AvailableSegment
}

// Unwrap strips the proxy envelope off body: a "content" string holding JSON,
// a "<pre>" block in markup (directly or under solution.response) and one level
// of {"data": ...}. Only segments and availableSegments are required.
func Unwrap(body []byte) (*Profile, error) {
	var working any
	if err := json.Unmarshal(body, &working); err != nil {
		// not JSON at all, maybe bare markup
		working = string(body)
	}

	if obj, ok := working.(map[string]any); ok {
		if content, ok := obj["content"].(string); ok {
			var parsed any
			if err := json.Unmarshal([]byte(content), &parsed); err == nil {
				working = parsed
			} else {
				working = content
			}
		}
	}

	if markup := embeddedMarkup(working); markup != "" {
		parsed, err := parsePreBlock(markup)
		if err != nil {
			return nil, err
		}
		working = parsed
	} else if s, ok := working.(string); ok {
		var parsed any
		if err := json.Unmarshal([]byte(s), &parsed); err != nil {
			return nil, invalidPayload("response is neither JSON nor markup with a <pre> block", err)
		}
		working = parsed
	}

	obj, ok := working.(map[string]any)
	if !ok {
		return nil, invalidPayload("payload is not an object", nil)
	}
	if data, ok := obj["data"].(map[string]any); ok {
		obj = data
	}

	segments, ok := obj["segments"].([]any)
	if !ok {
		return nil, invalidPayload("payload has no segments array", nil)
	}
	available, ok := obj["availableSegments"].([]any)
	if !ok {
		return nil, invalidPayload("payload has no availableSegments array", nil)
	}

	return &Profile{
		PlatformInfo:      decodePlatformInfo(asMap(obj["platformInfo"])),
		UserInfo:          decodeUserInfo(asMap(obj["userInfo"])),
		Metadata:          decodeMetadata(asMap(obj["metadata"])),
		Segments:          decodeSegments(segments),
		AvailableSegments: decodeAvailableSegments(available),
	}, nil
}

// embeddedMarkup returns markup containing a <pre> block, if the working value carries one.
func embeddedMarkup(working any) string {
	var candidate string
	switch v := working.(type) {
	case string:
		candidate = v
	case map[string]any:
		candidate = asString(asMap(v["solution"])["response"])
	}
	if strings.Contains(strings.ToLower(candidate), "<pre") {
		return candidate
	}
	return ""
}

func parsePreBlock(markup string) (any, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, invalidPayload("failed to parse markup", err)
	}
	pre := doc.Find("pre").First()
	if pre.Length() == 0 {
		return nil, invalidPayload("markup has no <pre> block", nil)
	}

	var parsed any
	if err := json.Unmarshal([]byte(strings.TrimSpace(pre.Text())), &parsed); err != nil {
		return nil, invalidPayload("<pre> block is not valid JSON", err)
	}
	return parsed, nil
}

func decodePlatformInfo(m map[string]any) PlatformInfo {
	return PlatformInfo{
		PlatformSlug:           asString(m["platformSlug"]),
		PlatformUserHandle:     asString(m["platformUserHandle"]),
		PlatformUserIdentifier: asString(m["platformUserIdentifier"]),
	}
}

func decodeUserInfo(m map[string]any) UserInfo {
	id, _ := intValue(m["userId"])
	premium, _ := m["isPremium"].(bool)
	return UserInfo{UserID: id, IsPremium: premium}
}

func decodeMetadata(m map[string]any) ProfileMetadata {
	season, _ := intValue(m["currentSeason"])
	return ProfileMetadata{
		CurrentSeason: season,
		LastUpdated:   asString(asMap(m["lastUpdated"])["value"]),
	}
}

func decodeSegments(raw []any) []domain.RawSegment {
	segments := make([]domain.RawSegment, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		segments = append(segments, domain.RawSegment{
			Type:       asString(m["type"]),
			Attributes: asMap(m["attributes"]),
			Metadata:   asMap(m["metadata"]),
			Stats:      asMap(m["stats"]),
		})
	}
	return segments
}

func decodeAvailableSegments(raw []any) []AvailableSegment {
	available := make([]AvailableSegment, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		available = append(available, AvailableSegment{
			Type:   asString(m["type"]),
			Season: intPtr(asMap(m["attributes"])["season"]),
			Name:   asString(asMap(m["metadata"])["name"]),
		})
	}
	return available
}

func invalidPayload(message string, err error) error {
	return domain.NewScrapeError(domain.KindInvalidUpstreamPayload, message, err)
}
