package tutor

import "sync"

// lockTable hands out one mutex per user id so operations for different users
// proceed fully in parallel while same-user operations serialize. There is no
// global lock here beyond the short map access.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*sync.Mutex)}
}

func (t *lockTable) get(userID string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	lk, ok := t.locks[userID]
	if !ok {
		lk = &sync.Mutex{}
		t.locks[userID] = lk
	}
	return lk
}
