package evaluator

import "github.com/lox/holdem/internal/deck"

// Cache memoizes Evaluate by the exact set of cards. It is owned by a single
// hand (or bot) and is not safe for concurrent use. Call Reset when a new hand
// starts.
type Cache struct {
	results map[cacheKey]HandResult
	hits    int
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{results: make(map[cacheKey]HandResult)}
}

// Evaluate returns the cached result for hole+board, computing it on a miss.
func (c *Cache) Evaluate(hole, board []deck.Card) HandResult {
	validate(hole, board)
	key := cacheKey{hole: mask(hole), board: mask(board)}
	if r, ok := c.results[key]; ok {
		c.hits++
		return r
	}
	r := Evaluate(hole, board)
	c.results[key] = r
	return r
}

// Reset drops every cached result.
func (c *Cache) Reset() {
	clear(c.results)
	c.hits = 0
}

// Len returns the number of cached results.
func (c *Cache) Len() int { return len(c.results) }

// Hits returns how many lookups were served from the cache since the last Reset.
func (c *Cache) Hits() int { return c.hits }

// Pre-flop results depend on which cards are the hole cards, so the key keeps
// the two sets apart.
type cacheKey struct {
	hole, board uint64
}

func mask(cards []deck.Card) uint64 {
	var m uint64
	for _, c := range cards {
		m |= 1 << c.Index()
	}
	return m
}
