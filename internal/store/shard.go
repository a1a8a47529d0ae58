package store

import (
	"hash/maphash"
	"sync"
)

// shardCount is the number of independently locked shards per index.
const shardCount = 32

// shardedMap is a map split into shardCount buckets, each with its own lock,
// so writers on different keys rarely contend.
type shardedMap[K comparable, V any] struct {
	seed   maphash.Seed
	shards [shardCount]shard[K, V]
}

type shard[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

func newShardedMap[K comparable, V any]() *shardedMap[K, V] {
	s := &shardedMap[K, V]{seed: maphash.MakeSeed()}
	for i := range s.shards {
		s.shards[i].m = make(map[K]V)
	}
	return s
}

func (s *shardedMap[K, V]) shard(key K) *shard[K, V] {
	return &s.shards[maphash.Comparable(s.seed, key)%shardCount]
}

func (s *shardedMap[K, V]) load(key K) (V, bool) {
	sh := s.shard(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	v, ok := sh.m[key]
	return v, ok
}

func (s *shardedMap[K, V]) store(key K, v V) {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.m[key] = v
}

// loadOrCreate returns the value for key, calling create under the shard
// lock if it is absent. loaded reports whether the value already existed.
func (s *shardedMap[K, V]) loadOrCreate(key K, create func() V) (v V, loaded bool) {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if v, ok := sh.m[key]; ok {
		return v, true
	}
	v = create()
	sh.m[key] = v
	return v, false
}

// compareAndDelete deletes key only if match reports true for its value.
func (s *shardedMap[K, V]) compareAndDelete(key K, match func(V) bool) bool {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	v, ok := sh.m[key]
	if !ok || !match(v) {
		return false
	}
	delete(sh.m, key)
	return true
}

func (s *shardedMap[K, V]) delete(key K) {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	delete(sh.m, key)
}

// values returns a snapshot of every value. Shards are locked one at a time.
func (s *shardedMap[K, V]) values() []V {
	var out []V
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		for _, v := range sh.m {
			out = append(out, v)
		}
		sh.mu.RUnlock()
	}
	return out
}

func (s *shardedMap[K, V]) len() int {
	n := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		n += len(sh.m)
		sh.mu.RUnlock()
	}
	return n
}
