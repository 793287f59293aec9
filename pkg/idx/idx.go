// Package idx mints the request correlation IDs stamped on outbound calls.
package idx

import (
	"crypto/rand"
	"sync"

	"github.com/oklog/ulid/v2"
)

// ID is a lexicographically sortable ULID-based identifier. The SDK stamps one
// on every outbound request (X-Request-ID) so client and server logs can be
// correlated.
type ID string

// String returns the canonical string form.
func (id ID) String() string { return string(id) }

var (
	globalOnce sync.Once
	global     *generator
)

// generator produces ULIDs safely across goroutines using a monotonic
// entropy source, so IDs minted in the same millisecond still sort.
type generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func (g *generator) next() ID {
	g.mu.Lock()
	defer g.mu.Unlock()

	return ID(ulid.MustNew(ulid.Now(), g.entropy).String())
}

func initGlobal() {
	global = &generator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// New returns a new ID.
func New() ID {
	globalOnce.Do(initGlobal)
	return global.next()
}
