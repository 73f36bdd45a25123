package orderid

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

const (
	prefix    = "ORD"
	alphabet  = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	suffixLen = 9
)

// Generator produces order identifiers. Keeping it behind an interface lets
// the scheme be upgraded (e.g. to a collision-proof UUID variant) without
// touching call sites.
type Generator interface {
	NewOrderID() string
}

// RandomGenerator issues "ORD" plus 9 random uppercase base-36 characters.
// The randomness is not cryptographic and collisions, while birthday-bound
// unlikely, are not checked against the store.
type RandomGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomGenerator creates a RandomGenerator seeded from the clock.
func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewOrderID returns a fresh identifier matching ^ORD[A-Z0-9]{9}$.
func (g *RandomGenerator) NewOrderID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var b strings.Builder
	b.Grow(len(prefix) + suffixLen)
	b.WriteString(prefix)
	for i := 0; i < suffixLen; i++ {
		b.WriteByte(alphabet[g.rng.Intn(len(alphabet))])
	}
	return b.String()
}
