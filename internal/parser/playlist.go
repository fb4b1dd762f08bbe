package parser

import (
	"league-tracker/internal/domain"
)

type Slot int

const (
	SlotNone Slot = iota
	Slot1v1
	Slot2v2
	Slot3v3
	Slot4v4
)

type SlotMapping struct {
	Slot    Slot
	Primary bool
}

// PlaylistSlots maps upstream playlist ids to the four ranked slots.
type PlaylistSlots map[int]SlotMapping

// DefaultPlaylistSlots holds the documented ids plus the alternates seen in
// some responses. The alternates are observed behaviour, not a contract.
var DefaultPlaylistSlots = PlaylistSlots{
	1: {Slot: Slot1v1, Primary: true},
	2: {Slot: Slot2v2, Primary: true},
	3: {Slot: Slot3v3, Primary: true},
	8: {Slot: Slot4v4, Primary: true},

	10: {Slot: Slot1v1},
	11: {Slot: Slot2v2},
	13: {Slot: Slot3v3},
	61: {Slot: Slot4v4},
}

func (p PlaylistSlots) Lookup(playlistID int) (SlotMapping, bool) {
	m, ok := p[playlistID]
	if !ok || m.Slot == SlotNone {
		return SlotMapping{}, false
	}
	return m, true
}

func PlaylistID(seg domain.RawSegment) (int, bool) {
	return intValue(seg.Attributes["playlistId"])
}

func SegmentSeason(seg domain.RawSegment) (int, bool) {
	return intValue(seg.Attributes["season"])
}

// ExtractPlaylist maps a validated segment to a PlaylistRecord. Missing or
// non-numeric values become nil; it never fails.
func ExtractPlaylist(seg domain.RawSegment) domain.PlaylistRecord {
	tier := asMap(seg.Stats["tier"])
	division := asMap(seg.Stats["division"])

	return domain.PlaylistRecord{
		Rank:          stringPtr(asMap(tier["metadata"])["name"]),
		RankValue:     intPtr(tier["value"]),
		Division:      stringPtr(asMap(division["metadata"])["name"]),
		DivisionValue: intPtr(division["value"]),
		Rating:        statValue(seg.Stats, "rating"),
		MatchesPlayed: statValue(seg.Stats, "matchesPlayed"),
		WinStreak:     statValue(seg.Stats, "winStreak"),
	}
}

func statValue(stats map[string]any, key string) *int {
	return intPtr(asMap(stats[key])["value"])
}

func assignSlot(record *domain.SeasonRecord, slot Slot, playlist *domain.PlaylistRecord) {
	switch slot {
	case Slot1v1:
		record.Playlist1v1 = playlist
	case Slot2v2:
		record.Playlist2v2 = playlist
	case Slot3v3:
		record.Playlist3v3 = playlist
	case Slot4v4:
		record.Playlist4v4 = playlist
	}
}
