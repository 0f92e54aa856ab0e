package language

import (
	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru"
)

// Cache memoizes parsed query documents keyed by the hash of their source.
// Parsed documents are never mutated by the executor so a cached document
// can be shared by concurrent requests.
type Cache struct {
	lru *lru.Cache
}

type cacheEntry struct {
	source string
	doc    *QueryDocument
}

func NewCache(size int) (*Cache, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: c}, nil
}

// ParseQuery returns the cached document for source, parsing and storing it
// on a miss. Parse failures are not cached.
func (c *Cache) ParseQuery(source string) (*QueryDocument, error) {
	key := xxhash.Sum64String(source)
	if v, ok := c.lru.Get(key); ok {
		if e := v.(cacheEntry); e.source == source {
			return e.doc, nil
		}
	}
	doc, err := ParseQuery(source)
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, cacheEntry{source: source, doc: doc})
	return doc, nil
}

func (c *Cache) Len() int {
	return c.lru.Len()
}
