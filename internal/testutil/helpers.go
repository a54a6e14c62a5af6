package testutil

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ndewijer/invest-tracker/internal/model"
)

// MakeID generates a unique UUID for testing.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// MakeAccountName generates a unique account name for testing.
func MakeAccountName(base string) string {
	if base == "" {
		base = "Account"
	}
	return base + " " + randomAlphanumeric(6)
}

func randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		//nolint:gosec // G404: Test data only
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// MustDate parses YYYY-MM-DD or fails the test.
func MustDate(t *testing.T, s string) time.Time {
	t.Helper()

	d, err := model.ParseDate(s)
	if err != nil {
		t.Fatalf("bad test date: %v", err)
	}
	return d
}

// Clock is a settable time source for services that take a clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock fixed at now.
func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock.
func (c *Clock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// SyncStub records provider sync calls and fails the keys listed in Errors.
type SyncStub struct {
	mu     sync.Mutex
	Errors map[string]error
	Calls  []string
}

// NewSyncStub creates a stub that succeeds for every key.
func NewSyncStub() *SyncStub {
	return &SyncStub{Errors: map[string]error{}}
}

// FailFor makes every sync of key return err.
func (s *SyncStub) FailFor(key string, err error) *SyncStub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Errors[key] = err
	return s
}

// AppendSince records the call and returns the configured error.
func (s *SyncStub) AppendSince(_ context.Context, key string, _ time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, key)
	if err := s.Errors[key]; err != nil {
		return 0, err
	}
	return 0, nil
}

// CallCount returns how many syncs were made.
func (s *SyncStub) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Calls)
}
