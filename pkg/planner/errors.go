package planner

import "errors"

// ErrNoSelection is returned when asked to plan an empty SelectionV1 — a
// plan with zero steps is never useful to Stage D/E.
var ErrNoSelection = errors.New("planner: empty selection")
