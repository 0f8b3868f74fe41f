package routing

import "math/rand/v2"

// seedCounterStart returns a uniform random starting index in [0, n)
// for a freshly built table's round-robin counter, or 0 for an empty
// or single-element table (any start is equivalent there). It uses
// the package-level math/rand/v2 source, which is auto-seeded and
// safe for concurrent use by multiple goroutines building tables at
// once — the same liveness-only requirement spec.md places on the
// counter itself (§5: "correctness requires no particular value, only
// liveness of distinct-starts across calls").
func seedCounterStart(n int) int64 {
	if n <= 0 {
		return 0
	}
	return int64(rand.Uint32()) % int64(n)
}
