package services

import (
	"hash/fnv"
	"sync"
)

const lockStripes = 32

// keyLock serializes read-modify-write cycles per record key. Keys are
// hashed onto a fixed set of stripes; two concurrent writers to the same
// (project, date, actor) key always contend on the same mutex, so a Merge
// can never read a value another Merge is about to overwrite.
type keyLock struct {
	stripes [lockStripes]sync.Mutex
}

func (k *keyLock) lock(key string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	mu := &k.stripes[h.Sum32()%lockStripes]
	mu.Lock()
	return mu
}

func recordKey(projectID, date, actorID string) string {
	return projectID + "|" + date + "|" + actorID
}
