package service

import "sync"

// accountLocks serializes work per account while letting different accounts run
// in parallel.
type accountLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[string]*sync.Mutex)}
}

// lock blocks until the account is free and returns the matching unlock.
func (l *accountLocks) lock(accountID string) func() {
	l.mu.Lock()
	m, ok := l.locks[accountID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[accountID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
