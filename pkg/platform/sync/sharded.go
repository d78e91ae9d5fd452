// Package sync holds keyed locking used to serialize work on one logical
// resource (an approval triple, a vetting account) without a global lock.
package sync

import (
	"hash/fnv"
	"strings"
	"sync"
)

const defaultShards = 32

// ShardedMutex maps keys onto a fixed set of mutexes. Two keys may share a
// shard, so callers must never hold two keys at once.
type ShardedMutex struct {
	shards []sync.Mutex
}

// NewShardedMutex creates a ShardedMutex with n shards (32 when n <= 0).
func NewShardedMutex(n int) *ShardedMutex {
	if n <= 0 {
		n = defaultShards
	}
	return &ShardedMutex{shards: make([]sync.Mutex, n)}
}

func (m *ShardedMutex) Lock(key string)   { m.shards[m.shardFor(key)].Lock() }
func (m *ShardedMutex) Unlock(key string) { m.shards[m.shardFor(key)].Unlock() }

// With runs fn while holding the lock for key.
func (m *ShardedMutex) With(key string, fn func() error) error {
	m.Lock(key)
	defer m.Unlock(key)
	return fn()
}

func (m *ShardedMutex) shardFor(key string) int {
	if key == "" {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(m.shards)))
}

// Key joins parts into a lock key.
func Key(parts ...string) string {
	return strings.Join(parts, "|")
}
