package service

import (
	"container/list"
	"sync"

	"trustgate/internal/trust/models"
)

const defaultCacheSize = 1024

// assessmentCache is a bounded LRU of the most recent assessment per
// (user, device) pair. Bounded with explicit eviction so long-running
// processes never grow it without limit.
type assessmentCache struct {
	mu      sync.Mutex
	max     int
	order   *list.List
	entries map[string]*list.Element
}

type cacheEntry struct {
	key        string
	assessment models.TrustAssessment
}

func newAssessmentCache(max int) *assessmentCache {
	return &assessmentCache{
		max:     max,
		order:   list.New(),
		entries: make(map[string]*list.Element, max),
	}
}

func cacheKey(userID, deviceID string) string {
	return userID + ":" + deviceID
}

func (c *assessmentCache) put(userID, deviceID string, a models.TrustAssessment) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(userID, deviceID)
	if elem, ok := c.entries[key]; ok {
		elem.Value.(*cacheEntry).assessment = a
		c.order.MoveToFront(elem)
		return
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, assessment: a})
	if c.order.Len() > c.max {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

func (c *assessmentCache) get(userID, deviceID string) (models.TrustAssessment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[cacheKey(userID, deviceID)]
	if !ok {
		return models.TrustAssessment{}, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*cacheEntry).assessment, true
}
