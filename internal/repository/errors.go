// Package repository implements MySQL data access for the auction
// service: user accounts and their granted points, festival line-ups, and
// the settlement audit trail. The live bid state is owned by the in-memory
// auction engine; this layer stores the durable facts the engine is seeded
// from at startup and the results it produces at settlement. Sentinel
// errors defined here let handlers distinguish failure scenarios without
// inspecting driver-specific errors.
package repository

import "errors"

// ErrNotFound is returned when a requested row does not exist. Handlers
// should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert or update cannot proceed because
// of conflicting state, such as publishing an auction under a festival
// that does not exist. Handlers should translate this into HTTP 409.
var ErrConflict = errors.New("conflict")
