package service

import "sync"

// idLocks hands out one mutex per live file id so that at most one append
// or delete is in flight per id. Entries are refcounted and dropped when
// the last holder releases, keeping the table bounded by concurrency, not
// by the number of files ever seen.
type idLocks struct {
	mu      sync.Mutex
	entries map[string]*idLockEntry
}

type idLockEntry struct {
	mu   sync.Mutex
	refs int
}

func newIDLocks() *idLocks {
	return &idLocks{entries: make(map[string]*idLockEntry)}
}

// Lock blocks until the id is exclusively held and returns the release
// function.
func (l *idLocks) Lock(id string) func() {
	l.mu.Lock()
	entry, ok := l.entries[id]
	if !ok {
		entry = &idLockEntry{}
		l.entries[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, id)
		}
		l.mu.Unlock()
	}
}
