package orders

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

var (
	codeRngMu sync.Mutex
	codeRng   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// GenerateCode builds a human-readable order code: prefix, four-digit year,
// six-digit zero-padded random suffix, e.g. FSH-2026-004821. Collisions are
// possible and resolved by the unique index on orders.code plus a bounded
// retry at the call site.
func GenerateCode(prefix string, now time.Time) string {
	codeRngMu.Lock()
	n := codeRng.Intn(1000000)
	codeRngMu.Unlock()
	return fmt.Sprintf("%s-%04d-%06d", prefix, now.Year(), n)
}
