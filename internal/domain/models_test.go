package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScrapingStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to ScrapingStatus
		valid    bool
	}{
		{StatusPending, StatusInProgress, true},
		{StatusCompleted, StatusInProgress, true},
		{StatusFailed, StatusInProgress, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusFailed, true},
		{StatusInProgress, StatusInProgress, false},
		{StatusPending, StatusCompleted, false},
		{StatusPending, StatusFailed, false},
		{StatusCompleted, StatusFailed, false},
		{StatusFailed, StatusCompleted, false},
		{StatusCompleted, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s->%s", tt.from, tt.to), func(t *testing.T) {
			require.Equal(t, tt.valid, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestScrapeErrorMatchesSentinelByKind(t *testing.T) {
	err := fmt.Errorf("fetch: %w", &ScrapeError{
		Kind:       KindUpstreamUnavailable,
		Message:    "proxy returned server error",
		StatusCode: 503,
	})

	require.ErrorIs(t, err, ErrUpstreamUnavailable)
	require.NotErrorIs(t, err, ErrRateLimited)
	require.True(t, IsKind(err, KindUpstreamUnavailable))
	require.Contains(t, err.Error(), "status 503")

	var se *ScrapeError
	require.True(t, errors.As(err, &se))
	require.True(t, se.Retryable())
	require.False(t, NewScrapeError(KindMalformedProfileURL, "unsupported platform", nil).Retryable())
}

func TestTruncateError(t *testing.T) {
	require.Equal(t, "", TruncateError(nil))
	require.Equal(t, "short", TruncateError(errors.New("short")))

	long := errors.New(strings.Repeat("é", 1500))
	truncated := TruncateError(long)
	require.Len(t, []rune(truncated), 1000)
}
