package service

import (
	"context"
	"errors"
	"fmt"
	"league-tracker/internal/domain"
	"sync"
)

type fakeFetcher struct {
	mu     sync.Mutex
	bodies map[string][]byte
	errs   map[string]error
	calls  []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{bodies: map[string][]byte{}, errs: map[string]error{}}
}

func (f *fakeFetcher) Fetch(ctx context.Context, targetURL string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, targetURL)
	if err, ok := f.errs[targetURL]; ok {
		return nil, err
	}
	if body, ok := f.bodies[targetURL]; ok {
		return body, nil
	}
	return nil, fmt.Errorf("no fixture for %s", targetURL)
}

func (f *fakeFetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeSeasonStore struct {
	mu       sync.Mutex
	batchErr error
	failing  map[int]bool
	stored   map[int]domain.SeasonRecord
}

func newFakeSeasonStore() *fakeSeasonStore {
	return &fakeSeasonStore{failing: map[int]bool{}, stored: map[int]domain.SeasonRecord{}}
}

func (s *fakeSeasonStore) UpsertBatch(ctx context.Context, trackerID string, records []domain.SeasonRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.batchErr != nil {
		return s.batchErr
	}
	for _, r := range records {
		s.stored[r.SeasonNumber] = r
	}
	return nil
}

func (s *fakeSeasonStore) Upsert(ctx context.Context, trackerID string, record domain.SeasonRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing[record.SeasonNumber] {
		return errors.New("constraint failed")
	}
	s.stored[record.SeasonNumber] = record
	return nil
}

func (s *fakeSeasonStore) CountByTracker(ctx context.Context, trackerID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stored), nil
}

type notification struct {
	kind      string
	trackerID string
	userID    string
	scraped   int
	failed    int
	message   string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification
	err  error
}

func (n *fakeNotifier) NotifyScrapeComplete(ctx context.Context, trackerID, userID string, seasonsScraped, seasonsFailed int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{kind: "complete", trackerID: trackerID, userID: userID, scraped: seasonsScraped, failed: seasonsFailed})
	return n.err
}

func (n *fakeNotifier) NotifyScrapeFailed(ctx context.Context, trackerID, userID, errorMessage string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{kind: "failed", trackerID: trackerID, userID: userID, message: errorMessage})
	return n.err
}

func (n *fakeNotifier) Sent() []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification(nil), n.sent...)
}

type fakeRecomputer struct {
	mu    sync.Mutex
	users []string
}

func (r *fakeRecomputer) RecomputeDerivedScore(ctx context.Context, userID, trackerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, userID)
	return nil
}

func (r *fakeRecomputer) Users() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.users...)
}
