package idgen

import "github.com/google/uuid"

// NewFunc produces identifiers; tests may swap it.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new identifier.
func New() string { return NewFunc() }

// Short returns the first eight characters of a new identifier, used to tag
// boot sessions in logs and span attributes.
func Short() string {
	id := New()
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
