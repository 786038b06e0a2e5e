package loader

import (
	"container/list"
	"sync"

	"github.com/dorian305/3D-Model-Viewer/internal/scene"
)

// ObjectCache is a thread-safe LRU of parsed models keyed by source and
// file name. Each entry carries the digest of the bytes it was parsed from
// and only matches that digest. A capacity below one disables caching.
type ObjectCache struct {
	capacity int
	mu       sync.Mutex
	cache    map[string]*list.Element
	lru      *list.List
}

type cacheEntry struct {
	key    string
	digest string
	obj    *scene.Object
}

func NewObjectCache(capacity int) *ObjectCache {
	return &ObjectCache{
		capacity: capacity,
		cache:    make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Put stores obj under key, evicting the least recently used entry when
// over capacity.
func (oc *ObjectCache) Put(key, digest string, obj *scene.Object) {
	if oc == nil || oc.capacity < 1 {
		return
	}

	oc.mu.Lock()
	defer oc.mu.Unlock()

	if elem, exists := oc.cache[key]; exists {
		oc.lru.MoveToFront(elem)
		entry := elem.Value.(*cacheEntry)
		entry.digest = digest
		entry.obj = obj
		return
	}

	elem := oc.lru.PushFront(&cacheEntry{key: key, digest: digest, obj: obj})
	oc.cache[key] = elem

	if oc.lru.Len() > oc.capacity {
		oldest := oc.lru.Back()
		if oldest != nil {
			oc.lru.Remove(oldest)
			delete(oc.cache, oldest.Value.(*cacheEntry).key)
		}
	}
}

// Get returns the object under key and marks it most recently used. An
// entry parsed from different bytes is dropped.
func (oc *ObjectCache) Get(key, digest string) (*scene.Object, bool) {
	if oc == nil {
		return nil, false
	}

	oc.mu.Lock()
	defer oc.mu.Unlock()

	elem, exists := oc.cache[key]
	if !exists {
		return nil, false
	}

	entry := elem.Value.(*cacheEntry)
	if entry.digest != digest {
		oc.lru.Remove(elem)
		delete(oc.cache, key)
		return nil, false
	}

	oc.lru.MoveToFront(elem)
	return entry.obj, true
}

// Forget drops key.
func (oc *ObjectCache) Forget(key string) {
	if oc == nil {
		return
	}

	oc.mu.Lock()
	defer oc.mu.Unlock()

	if elem, exists := oc.cache[key]; exists {
		oc.lru.Remove(elem)
		delete(oc.cache, key)
	}
}

func (oc *ObjectCache) Len() int {
	if oc == nil {
		return 0
	}

	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.lru.Len()
}
