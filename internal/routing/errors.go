package routing

import "errors"

// ErrDecode is the sentinel all wire-decode failures wrap, so callers
// can distinguish "the bytes were malformed" from other error classes
// with a single errors.Is check. Decode errors are never retried at
// this layer (§7): routing is in-memory and side-effect-free, so a
// caller that gets ErrDecode should treat the peer or the stored
// cluster-state snapshot as corrupt, not transient.
var ErrDecode = errors.New("routing: malformed wire bytes")
