package otp

import (
	"hash/fnv"
	"sync"
)

// keyMutexShards trades memory for contention: operations on distinct keys
// rarely share a shard, while operations on the same key always do.
const keyMutexShards = 64

// keyMutex linearizes operations per challenge key. Two concurrent calls
// for the same (identifier, purpose) are serialised; calls for different
// keys almost always proceed in parallel.
type keyMutex struct {
	shards [keyMutexShards]sync.Mutex
}

// Lock acquires the shard owning key and returns it; the caller must
// Unlock the returned mutex.
func (k *keyMutex) Lock(key string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(key))
	m := &k.shards[h.Sum32()%keyMutexShards]
	m.Lock()
	return m
}
