package entity

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// IDLength is the number of characters in a generated id.
const IDLength = 12

// IDGenerator produces entity ids.
type IDGenerator interface {
	Generate() string
}

// RandomIDGenerator derives ids from random (version 4) UUIDs.
//
// The first 12 hex digits of a v4 UUID are all random bits, which is
// unique enough for ids scoped to one directory tree.
//
// Thread-safety: RandomIDGenerator is stateless and safe for concurrent use.
type RandomIDGenerator struct{}

// Generate returns 12 lowercase hex characters.
func (RandomIDGenerator) Generate() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:IDLength]
}

// FixedIDGenerator returns predetermined ids, for deterministic tests.
//
// Thread-safety: FixedIDGenerator is safe for concurrent use via internal mutex.
type FixedIDGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedIDGenerator creates a generator that returns ids in order.
func NewFixedIDGenerator(ids ...string) *FixedIDGenerator {
	return &FixedIDGenerator{ids: ids}
}

// Generate returns the next predetermined id.
//
// Panics if all ids have been consumed, to catch tests that construct
// more entities than they expect.
func (g *FixedIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedIDGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}

var (
	idMu  sync.RWMutex
	idGen IDGenerator = RandomIDGenerator{}
)

// NewID returns an id from the current generator.
func NewID() string {
	idMu.RLock()
	g := idGen
	idMu.RUnlock()
	return g.Generate()
}

// UseIDGenerator replaces the id generator and returns a func restoring
// the previous one.
//
//	defer entity.UseIDGenerator(entity.NewFixedIDGenerator("aaaaaaaaaaaa"))()
func UseIDGenerator(g IDGenerator) (restore func()) {
	idMu.Lock()
	prev := idGen
	idGen = g
	idMu.Unlock()
	return func() {
		idMu.Lock()
		idGen = prev
		idMu.Unlock()
	}
}
