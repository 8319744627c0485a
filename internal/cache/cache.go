package cache

import (
	"time"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const megabyte = 1024 * 1024

type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Clear()
}

var _ Cache = (*ResponseCache)(nil)

// ResponseCache keeps rendered public responses in memory. freecache is
// safe for concurrent use, no extra locking needed.
type ResponseCache struct {
	mainCache *freecache.Cache
	ttl       time.Duration
}

func NewResponseCache(sizeMB int, ttl time.Duration) *ResponseCache {
	if sizeMB <= 0 {
		sizeMB = 1
	}
	return &ResponseCache{
		mainCache: freecache.NewCache(sizeMB * megabyte),
		ttl:       ttl,
	}
}

func (rc *ResponseCache) Get(key string) ([]byte, bool) {
	value, err := rc.mainCache.Get([]byte(key))
	if err != nil {
		// freecache.ErrNotFound is the only expected error here
		return nil, false
	}
	return value, true
}

func (rc *ResponseCache) Set(key string, value []byte) {
	expireSeconds := int(rc.ttl.Seconds())
	if expireSeconds <= 0 {
		return
	}
	if err := rc.mainCache.Set([]byte(key), value, expireSeconds); err != nil {
		// larger than 1/1024 of the cache size
		log.Debugf("response cache, skip key [%s]: %s", key, err)
	}
}

func (rc *ResponseCache) Clear() {
	rc.mainCache.Clear()
}

func (rc *ResponseCache) EntryCount() int64 {
	return rc.mainCache.EntryCount()
}
