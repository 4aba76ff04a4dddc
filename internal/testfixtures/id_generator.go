package testfixtures

import (
	"strconv"
	"sync"
)

// IDGenerator hands out sequential identifiers ("res-1", "res-2", …) so test
// assertions can name the ids they expect.
type IDGenerator struct {
	mu     sync.Mutex
	prefix string
	next   uint64
}

// NewIDGenerator builds a generator for the given prefix ("id" when empty).
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

// Next returns the next identifier.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return g.prefix + "-" + strconv.FormatUint(g.next, 10)
}

// NextFunc adapts the generator for injection. A nil generator yields empty
// ids, which surfaces quickly in assertions.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}
