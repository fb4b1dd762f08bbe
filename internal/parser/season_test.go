package parser

import (
	"league-tracker/internal/domain"
	"league-tracker/internal/testutil"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func segmentsFrom(t *testing.T, segments ...map[string]any) []domain.RawSegment {
	t.Helper()
	profile, err := Unwrap(testutil.Profile(22, nil, segments...))
	require.NoError(t, err)
	return profile.Segments
}

func TestExtractPlaylist(t *testing.T) {
	segs := segmentsFrom(t, testutil.PlaylistSegment(2, 22, 1500))

	got := ExtractPlaylist(segs[0])
	want := domain.PlaylistRecord{
		Rank:          ptr("Grand Champion I"),
		RankValue:     ptr(19),
		Division:      ptr("Division III"),
		DivisionValue: ptr(2),
		Rating:        ptr(1500),
		MatchesPlayed: ptr(120),
		WinStreak:     ptr(3),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractPlaylist mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractPlaylistMissingValues(t *testing.T) {
	seg := domain.RawSegment{
		Type:       SegmentTypePlaylist,
		Attributes: map[string]any{"playlistId": float64(1), "season": float64(22)},
		Stats: map[string]any{
			"tier":   map[string]any{"value": nil, "metadata": map[string]any{"name": ""}},
			"rating": map[string]any{"value": 987.6},
		},
	}

	got := ExtractPlaylist(seg)
	want := domain.PlaylistRecord{Rating: ptr(988)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractPlaylist mismatch (-want +got):\n%s", diff)
	}
}

func TestSeasonBuilderBuild(t *testing.T) {
	builder := NewDefaultSeasonBuilder(testutil.Logger(t))

	t.Run("single doubles playlist", func(t *testing.T) {
		segs := segmentsFrom(t, testutil.PlaylistSegment(2, 22, 1500))

		got := builder.Build(segs, 22, "Season 22")
		require.Equal(t, 22, got.SeasonNumber)
		require.Equal(t, "Season 22", *got.SeasonName)
		require.NotNil(t, got.Playlist2v2)
		require.Equal(t, 1500, *got.Playlist2v2.Rating)
		require.Nil(t, got.Playlist1v1)
		require.Nil(t, got.Playlist3v3)
		require.Nil(t, got.Playlist4v4)
	})

	t.Run("unmapped playlist is dropped", func(t *testing.T) {
		segs := segmentsFrom(t, testutil.PlaylistSegment(42, 22, 1500))

		got := builder.Build(segs, 22, "")
		require.Equal(t, domain.SeasonRecord{SeasonNumber: 22}, got)
	})

	t.Run("other seasons are ignored", func(t *testing.T) {
		segs := segmentsFrom(t,
			testutil.PlaylistSegment(1, 21, 800),
			testutil.PlaylistSegment(3, 22, 1200),
		)

		got := builder.Build(segs, 22, "")
		require.Nil(t, got.Playlist1v1)
		require.Equal(t, 1200, *got.Playlist3v3.Rating)
	})

	t.Run("alternate ids fill slots", func(t *testing.T) {
		segs := segmentsFrom(t,
			testutil.PlaylistSegment(10, 22, 700),
			testutil.PlaylistSegment(61, 22, 1100),
		)

		got := builder.Build(segs, 22, "")
		require.Equal(t, 700, *got.Playlist1v1.Rating)
		require.Equal(t, 1100, *got.Playlist4v4.Rating)
	})

	t.Run("primary id wins over alternate in either order", func(t *testing.T) {
		before := builder.Build(segmentsFrom(t,
			testutil.PlaylistSegment(3, 22, 1300),
			testutil.PlaylistSegment(13, 22, 999),
		), 22, "")
		after := builder.Build(segmentsFrom(t,
			testutil.PlaylistSegment(13, 22, 999),
			testutil.PlaylistSegment(3, 22, 1300),
		), 22, "")

		require.Equal(t, 1300, *before.Playlist3v3.Rating)
		require.Equal(t, 1300, *after.Playlist3v3.Rating)
	})

	t.Run("overview supplies the name", func(t *testing.T) {
		segs := segmentsFrom(t,
			testutil.OverviewSegment("Season 22 (Current)"),
			testutil.PlaylistSegment(1, 22, 900),
		)

		got := builder.Build(segs, 22, "")
		require.Equal(t, "Season 22 (Current)", *got.SeasonName)
	})

	t.Run("overview of another season is ignored", func(t *testing.T) {
		other := testutil.OverviewSegment("Season 22")
		other["attributes"] = map[string]any{"season": 22}
		own := testutil.OverviewSegment("Season 19")
		own["attributes"] = map[string]any{"season": 19}
		segs := segmentsFrom(t, other, own, testutil.PlaylistSegment(1, 19, 700))

		got := builder.Build(segs, 19, "")
		require.Equal(t, "Season 19", *got.SeasonName)
		require.Equal(t, 700, *got.Playlist1v1.Rating)
	})

	t.Run("overview of another season alone leaves the name empty", func(t *testing.T) {
		other := testutil.OverviewSegment("Season 22")
		other["attributes"] = map[string]any{"season": 22}
		segs := segmentsFrom(t, other, testutil.PlaylistSegment(1, 19, 700))

		got := builder.Build(segs, 19, "")
		require.Nil(t, got.SeasonName)
	})

	t.Run("invalid segment is skipped", func(t *testing.T) {
		bad := testutil.PlaylistSegment(1, 22, 900)
		bad["stats"].(map[string]any)["tier"] = map[string]any{"value": "19"}
		segs := segmentsFrom(t, bad, testutil.PlaylistSegment(2, 22, 1500))

		got := builder.Build(segs, 22, "")
		require.Nil(t, got.Playlist1v1)
		require.NotNil(t, got.Playlist2v2)
	})
}

func TestSeasonBuilderCustomSlots(t *testing.T) {
	builder := NewSeasonBuilder(PlaylistSlots{42: {Slot: Slot2v2, Primary: true}}, testutil.Logger(t))
	segs := segmentsFrom(t,
		testutil.PlaylistSegment(2, 22, 1500),
		testutil.PlaylistSegment(42, 22, 1600),
	)

	got := builder.Build(segs, 22, "")
	require.Equal(t, 1600, *got.Playlist2v2.Rating)
}
