package media

import (
	"sync"

	"github.com/golang/groupcache/lru"
)

// Presentation descriptors are static per container, so re-deriving them on
// every reopen or new-presentation rebuild is wasted probing. A small LRU
// keyed by source path bounds the cost.
const presentationCacheSize = 32

var presentationCache = struct {
	sync.Mutex
	*lru.Cache
}{Cache: lru.New(presentationCacheSize)}

func cachedPresentation(key string) *Presentation {
	presentationCache.Lock()
	defer presentationCache.Unlock()

	if v, ok := presentationCache.Get(key); ok {
		return v.(*Presentation)
	}
	return nil
}

func storePresentation(key string, p *Presentation) {
	presentationCache.Lock()
	defer presentationCache.Unlock()

	presentationCache.Add(key, p)
}
