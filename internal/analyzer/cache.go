package analyzer

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/hyperjump/venturelens/internal/models"
)

// deckCache is an LRU of processed decks keyed by content hash, so re-submitting the
// same file skips extraction and OCR.
type deckCache struct {
	capacity int
	items    map[string]*list.Element
	lru      *list.List
	mu       sync.Mutex
}

type deckEntry struct {
	key  string
	info models.PitchDeckInfo
}

func newDeckCache(capacity int) *deckCache {
	return &deckCache{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		lru:      list.New(),
	}
}

func deckKey(content []byte, ext string) string {
	h := sha256.New()
	h.Write([]byte(ext))
	h.Write([]byte{0})
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

// get returns a copy of the cached deck.
func (c *deckCache) get(key string) (*models.PitchDeckInfo, bool) {
	if c == nil || c.capacity <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.lru.MoveToFront(elem)
	return copyDeck(&elem.Value.(*deckEntry).info), true
}

func (c *deckCache) set(key string, info *models.PitchDeckInfo) {
	if c == nil || c.capacity <= 0 || info == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*deckEntry).info = *copyDeck(info)
		return
	}
	c.items[key] = c.lru.PushFront(&deckEntry{key: key, info: *copyDeck(info)})
	if c.lru.Len() > c.capacity {
		if oldest := c.lru.Back(); oldest != nil {
			c.lru.Remove(oldest)
			delete(c.items, oldest.Value.(*deckEntry).key)
		}
	}
}

func (c *deckCache) len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func copyDeck(in *models.PitchDeckInfo) *models.PitchDeckInfo {
	out := *in
	out.TechDetails = append([]string(nil), in.TechDetails...)
	out.GTMDetails = append([]string(nil), in.GTMDetails...)
	if out.TechDetails == nil {
		out.TechDetails = []string{}
	}
	if out.GTMDetails == nil {
		out.GTMDetails = []string{}
	}
	return &out
}
