package service

import (
	"fmt"
	"sync"

	"github.com/fieldops/workforce-api/internal/domain"
)

// keyedMutex serializes the cancel-then-create sequences of the lifecycle
// engine per (reference ID, reference type) key. Without it, two
// concurrent writers racing on the same reference could leave zero or two
// active tasks for a type between the cancel and the create steps.
//
// Lock entries are never evicted; the key space is bounded by the number
// of distinct references the process has touched.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{
		locks: make(map[string]*sync.Mutex),
	}
}

// Lock acquires the mutex for the given key, creating it on first use.
// The returned function releases the lock.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	lock, ok := k.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		k.locks[key] = lock
	}
	k.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// referenceKey builds the lock key for a reference.
func referenceKey(referenceID int64, referenceType domain.ReferenceType) string {
	return fmt.Sprintf("%d/%s", referenceID, referenceType)
}
