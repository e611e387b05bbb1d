package nacc

import (
	"errors"
	"sync"
)

var ErrProgramCacheNilFactory = errors.New("program cache nil factory provided")

// ProgramCache provides thread-safe memoization of compiled values keyed
// by source text. The rule engine uses it so that identical rule text
// shared by many fields compiles once.
type ProgramCache[K comparable, V any] struct {
	cache sync.Map // map[K]*cacheEntry[V]
}

type cacheEntry[V any] struct {
	once  sync.Once
	value V
	err   error
}

func NewProgramCache[K comparable, V any]() *ProgramCache[K, V] {
	return &ProgramCache[K, V]{}
}

// GetOrCreate returns the cached value for key, calling factory at most
// once per key even under concurrent access. A factory error is cached
// along with the key.
func (pc *ProgramCache[K, V]) GetOrCreate(key K, factory func() (V, error)) (V, error) {
	if factory == nil {
		var zero V
		return zero, ErrProgramCacheNilFactory
	}

	actual, _ := pc.cache.LoadOrStore(key, &cacheEntry[V]{})
	entry := actual.(*cacheEntry[V])
	entry.once.Do(func() {
		entry.value, entry.err = factory()
	})
	return entry.value, entry.err
}

// Len counts cached keys.
func (pc *ProgramCache[K, V]) Len() int {
	n := 0
	pc.cache.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
