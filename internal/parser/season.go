package parser

import (
	"league-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// SeasonBuilder assembles SeasonRecords from raw segments, dropping segments
// that fail the schema guard.
type SeasonBuilder struct {
	slots  PlaylistSlots
	logger zerolog.Logger
}

func NewSeasonBuilder(slots PlaylistSlots, logger zerolog.Logger) *SeasonBuilder {
	if slots == nil {
		slots = DefaultPlaylistSlots
	}
	return &SeasonBuilder{slots: slots, logger: logger}
}

func NewDefaultSeasonBuilder(logger zerolog.Logger) *SeasonBuilder {
	return NewSeasonBuilder(DefaultPlaylistSlots, logger)
}

// Build creates the record for season from playlist segments tagged with that
// season. name, when empty, falls back to an overview segment's display name.
func (b *SeasonBuilder) Build(segments []domain.RawSegment, season int, name string) domain.SeasonRecord {
	record := domain.SeasonRecord{SeasonNumber: season}
	filledByPrimary := map[Slot]bool{}

	for _, seg := range segments {
		if seg.Type == SegmentTypeOverview {
			// an overview tagged with another season must not name this one
			if s, ok := SegmentSeason(seg); name == "" && (!ok || s == season) {
				name = asString(seg.Metadata["name"])
			}
			continue
		}
		if seg.Type != SegmentTypePlaylist {
			continue
		}
		if s, ok := SegmentSeason(seg); !ok || s != season {
			continue
		}

		playlistID, hasID := PlaylistID(seg)
		if err := ValidateSegment(seg); err != nil {
			event := b.logger.Warn().
				Err(err).
				Str("segment_type", seg.Type).
				Int("season", season)
			if hasID {
				event = event.Int("playlist_id", playlistID)
			}
			if se, ok := err.(*SchemaError); ok {
				event = event.Strs("issues", se.Issues)
			}
			event.Msg("segment rejected by schema guard, skipping")
			continue
		}
		if !hasID {
			continue
		}
		mapping, ok := b.slots.Lookup(playlistID)
		if !ok {
			continue
		}
		if filledByPrimary[mapping.Slot] && !mapping.Primary {
			continue
		}

		playlist := ExtractPlaylist(seg)
		assignSlot(&record, mapping.Slot, &playlist)
		if mapping.Primary {
			filledByPrimary[mapping.Slot] = true
		}
	}

	if name != "" {
		record.SeasonName = &name
	}
	return record
}
