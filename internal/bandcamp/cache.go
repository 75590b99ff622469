package bandcamp

import (
	"sync"
	"time"
)

type cachedPage struct {
	html string
	at   time.Time
}

// pageCache keeps recently fetched pages. Stream URLs embedded in pages
// expire, so entries live for ttl only.
type pageCache struct {
	mu    sync.Mutex
	ttl   time.Duration
	size  int
	pages map[string]cachedPage
	now   func() time.Time
}

func newPageCache(ttl time.Duration, size int) *pageCache {
	return &pageCache{ttl: ttl, size: size, pages: make(map[string]cachedPage), now: time.Now}
}

func (c *pageCache) get(url string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pages[url]
	if !ok {
		return "", false
	}
	if c.now().Sub(p.at) > c.ttl {
		delete(c.pages, url)
		return "", false
	}
	return p.html, true
}

func (c *pageCache) put(url, html string) {
	if c.size <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.pages[url]; !ok && len(c.pages) >= c.size {
		c.evictOldestLocked()
	}
	c.pages[url] = cachedPage{html: html, at: c.now()}
}

func (c *pageCache) evictOldestLocked() {
	var (
		oldest string
		at     time.Time
	)
	for url, p := range c.pages {
		if oldest == "" || p.at.Before(at) {
			oldest, at = url, p.at
		}
	}
	delete(c.pages, oldest)
}
