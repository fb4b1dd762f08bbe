package domain

import (
	"errors"
	"fmt"
	"league-tracker/internal/constants"
	"unicode/utf8"
)

type ErrorKind int

const (
	KindMalformedProfileURL ErrorKind = iota + 1
	KindInvalidUpstreamPayload
	KindRateLimited
	KindUpstreamUnavailable
	KindTrackerNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindMalformedProfileURL:
		return "MalformedProfileUrl"
	case KindInvalidUpstreamPayload:
		return "InvalidUpstreamPayload"
	case KindRateLimited:
		return "RateLimited"
	case KindUpstreamUnavailable:
		return "UpstreamUnavailable"
	case KindTrackerNotFound:
		return "TrackerNotFound"
	}
	return "Unknown"
}

// ScrapeError is the classified failure of the ingestion pipeline.
type ScrapeError struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
	JobID      string
	Timeout    bool
	Err        error
}

var (
	ErrMalformedProfileURL    = &ScrapeError{Kind: KindMalformedProfileURL}
	ErrInvalidUpstreamPayload = &ScrapeError{Kind: KindInvalidUpstreamPayload}
	ErrRateLimited            = &ScrapeError{Kind: KindRateLimited}
	ErrUpstreamUnavailable    = &ScrapeError{Kind: KindUpstreamUnavailable}
	ErrTrackerNotFound        = &ScrapeError{Kind: KindTrackerNotFound}
)

var ErrDuplicateTracker = errors.New("tracker already registered")

func NewScrapeError(kind ErrorKind, message string, err error) *ScrapeError {
	return &ScrapeError{Kind: kind, Message: message, Err: err}
}

func (e *ScrapeError) Error() string {
	msg := e.Kind.String()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.JobID != "" {
		msg += fmt.Sprintf(" (job %s)", e.JobID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// Is matches any ScrapeError of the same kind, so the package sentinels work with errors.Is.
func (e *ScrapeError) Is(target error) bool {
	t, ok := target.(*ScrapeError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func (e *ScrapeError) Retryable() bool {
	return e.Kind == KindRateLimited || e.Kind == KindUpstreamUnavailable
}

func IsKind(err error, kind ErrorKind) bool {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}

// TruncateError returns err's message cut to MaxErrorMessageLength runes.
func TruncateError(err error) string {
	if err == nil {
		return ""
	}
	return Truncate(err.Error(), constants.MaxErrorMessageLength)
}

func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
