package store

import "errors"

// Sentinel errors for the ledger's invariants. Callers distinguish these
// with errors.Is so every rejection can name the invariant that failed
// instead of a generic "not found".
var (
	// ErrItemExists is returned when an item id is already registered.
	// The existing item's attributes and history are left untouched.
	ErrItemExists = errors.New("item id already exists")

	// ErrStationExists is returned when a station id is already registered.
	ErrStationExists = errors.New("station id already exists")

	// ErrItemNotFound is returned when a referenced item does not exist.
	ErrItemNotFound = errors.New("item not found")

	// ErrStationNotFound is returned when a referenced station does not exist.
	ErrStationNotFound = errors.New("station not found")
)
