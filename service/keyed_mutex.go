package service

import (
	"sort"
	"sync"
)

// KeyedMutex serializes work per key. Unused keys are released so the map
// only holds accounts with in-flight transfers.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedMutex creates an empty keyed mutex
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[int64]*keyedLock)}
}

// Lock acquires the locks for all keys in ascending order and returns the release func.
// Duplicate keys are locked once.
func (k *KeyedMutex) Lock(keys ...int64) func() {
	sorted := uniqueSorted(keys)

	acquired := make([]*keyedLock, 0, len(sorted))
	for _, key := range sorted {
		k.mu.Lock()
		l, ok := k.locks[key]
		if !ok {
			l = &keyedLock{}
			k.locks[key] = l
		}
		l.refs++
		k.mu.Unlock()

		l.mu.Lock()
		acquired = append(acquired, l)
	}

	return func() {
		for i := len(sorted) - 1; i >= 0; i-- {
			acquired[i].mu.Unlock()

			k.mu.Lock()
			acquired[i].refs--
			if acquired[i].refs == 0 {
				delete(k.locks, sorted[i])
			}
			k.mu.Unlock()
		}
	}
}

// size is the number of keys currently tracked
func (k *KeyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

func uniqueSorted(keys []int64) []int64 {
	out := make([]int64, 0, len(keys))
	seen := make(map[int64]bool, len(keys))
	for _, key := range keys {
		if !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
