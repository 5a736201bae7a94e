package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wholesale-portal/internal/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var errStoreDown = errors.New("store down")

type fakeStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	failSet bool
	deletes int
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string][]byte)}
}

func (s *fakeStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *fakeStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSet {
		return errStoreDown
	}
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	delete(s.data, key)
	return nil
}

func (s *fakeStore) raw(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.data[key])
}

func (s *fakeStore) setFailing(fail bool) {
	s.mu.Lock()
	s.failSet = fail
	s.mu.Unlock()
}

type noticeRecorder struct {
	mu      sync.Mutex
	notices []Notice
	ch      chan Notice
}

func newNoticeRecorder() *noticeRecorder {
	return &noticeRecorder{ch: make(chan Notice, 16)}
}

func (r *noticeRecorder) Notify(n Notice) {
	r.mu.Lock()
	r.notices = append(r.notices, n)
	r.mu.Unlock()
	r.ch <- n
}

func (r *noticeRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notices)
}

func money(v string) models.Money {
	return models.MustMoney(v)
}
