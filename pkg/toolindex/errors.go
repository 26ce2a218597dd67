package toolindex

import "errors"

// ErrStoreUnavailable is returned by every Store method when the underlying
// database is unreachable. Stage AB treats this as the degraded path (spec
// §4.2: "store-unavailable sets a degraded flag rather than failing the
// request outright") — callers are expected to check for it with errors.Is
// and fall back rather than propagate a hard failure.
var ErrStoreUnavailable = errors.New("toolindex: store_unavailable")

// ErrNotFound is returned by GetFullSpec when no tool with the given ID
// exists.
var ErrNotFound = errors.New("toolindex: not_found")
