// Package fetch pulls item listings and detail records out of the metadata
// API: page-by-page for playlists, in deduplicated fixed-size batches for
// detail lookups.
package fetch

import (
	"sync"

	"github.com/podtrends/chartbuilder/model"
)

// Caches hold every record resolved during one run. They are owned by the
// run and passed by reference into each stage; records are never mutated
// after insertion, so concurrent writers of the same id write identical
// values and last-writer-wins is safe.
type Caches struct {
	mu         sync.RWMutex
	videos     map[string]*model.VideoRecord
	channels   map[string]*model.ChannelRecord
	categories map[string]string
}

// NewCaches creates empty caches for one pipeline invocation.
func NewCaches() *Caches {
	return &Caches{
		videos:     make(map[string]*model.VideoRecord),
		channels:   make(map[string]*model.ChannelRecord),
		categories: make(map[string]string),
	}
}

// Video returns the cached record for id, if any.
func (c *Caches) Video(id string) (*model.VideoRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.videos[id]
	return v, ok
}

// PutVideo inserts a resolved video record.
func (c *Caches) PutVideo(v *model.VideoRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.videos[v.ID] = v
}

// Channel returns the cached record for id, if any.
func (c *Caches) Channel(id string) (*model.ChannelRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ch, ok := c.channels[id]
	return ch, ok
}

// PutChannel inserts a resolved channel record.
func (c *Caches) PutChannel(ch *model.ChannelRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.channels[ch.ID] = ch
}

// CategoryName returns the cached name for a category id, if any.
func (c *Caches) CategoryName(id string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.categories[id]
	return name, ok
}

// SetCategories installs the region's category map. It is populated once per
// run and read-only afterwards.
func (c *Caches) SetCategories(categories map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, name := range categories {
		c.categories[id] = name
	}
}

// CategoriesLoaded reports whether the category map has been populated.
func (c *Caches) CategoriesLoaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.categories) > 0
}

// missingVideos returns the ids not yet cached, deduplicated, in first-seen
// order.
func (c *Caches) missingVideos(ids []string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	missing := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if _, ok := c.videos[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// missingChannels returns the ids not yet cached, deduplicated, in
// first-seen order.
func (c *Caches) missingChannels(ids []string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	missing := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if _, ok := c.channels[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
