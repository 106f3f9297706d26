package weather

import (
	"sync"
	"time"

	"github.com/jasonlvhit/gocron"
	log "github.com/sirupsen/logrus"
)

// responseCache keeps provider responses for one forecast hour so nearby
// requests do not hit the API again.
type responseCache struct {
	ttl     time.Duration
	entries map[string]cacheEntry
	lock    sync.RWMutex
}

type cacheEntry struct {
	infos   [][]Info
	expires time.Time
}

func newResponseCache(ttl time.Duration) *responseCache {
	c := &responseCache{
		ttl:     ttl,
		entries: map[string]cacheEntry{},
	}

	s := gocron.NewScheduler()
	job := s.Every(15).Minutes()
	job.Do(c.sweep)

	go s.Start()

	return c
}

func (c *responseCache) get(key string) ([][]Info, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	e, found := c.entries[key]
	if !found || time.Now().After(e.expires) {
		return nil, false
	}
	return e.infos, true
}

func (c *responseCache) put(key string, infos [][]Info) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.entries[key] = cacheEntry{infos: infos, expires: time.Now().Add(c.ttl)}
}

func (c *responseCache) sweep() {
	c.lock.Lock()
	defer c.lock.Unlock()

	now := time.Now()
	for k, e := range c.entries {
		if now.After(e.expires) {
			log.Debugf("Expire weather cache entry %s", k)
			delete(c.entries, k)
		}
	}
}
