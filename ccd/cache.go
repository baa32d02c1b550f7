package ccd

import (
	"io"
	"log"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Entry is what the cache hands out. Found is false for an unknown
// residue and also when the accessor failed. Callers then treat the
// residue as non-standard.
type Entry struct {
	ID     string
	Found  bool
	Atoms  []Atom
	Bonds  []Bond
	Status string
}

// AtomNames of the entry in dictionary order
func (e Entry) AtomNames() []string { return AtomNames(e.Atoms) }

// Cache remembers the last residue looked up. Asking for a different
// one throws the old one away.
type Cache struct {
	acc    Accessor
	lru    *lru.Cache[string, Entry]
	logger *log.Logger
	nMiss  int
}

// NewCache puts a one slot cache in front of an accessor. acc may be
// nil, then every residue is unknown.
func NewCache(acc Accessor, logger *log.Logger) *Cache {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	c, _ := lru.New[string, Entry](1) // only fails for size <= 0
	return &Cache{acc: acc, lru: c, logger: logger}
}

// Lookup returns the entry for a residue id.
func (c *Cache) Lookup(id string) Entry {
	id = strings.ToUpper(strings.TrimSpace(id))
	if e, ok := c.lru.Get(id); ok {
		return e
	}
	c.nMiss++
	e := Entry{ID: id}
	if c.acc != nil && id != "" {
		found, err := c.acc.Select(id)
		if err != nil {
			c.logger.Printf("residue dictionary lookup %s: %v", id, err)
		}
		if found && err == nil {
			e.Found = true
			e.Atoms = c.acc.Atoms()
			e.Bonds = c.acc.Bonds()
			e.Status = c.acc.Status()
		}
	}
	c.lru.Add(id, e)
	return e
}

// Invalidate empties the cache.
func (c *Cache) Invalidate() { c.lru.Purge() }

// Misses counts lookups that went to the accessor.
func (c *Cache) Misses() int { return c.nMiss }
