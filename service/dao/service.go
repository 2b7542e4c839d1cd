// Package dao defines the generic persistence contract used for kernel
// accounting records.
package dao

import (
	"context"
)

type Service[K comparable, T any] interface {
	Save(ctx context.Context, t *T) error

	Load(ctx context.Context, id K) (*T, error)

	Delete(ctx context.Context, id K) error

	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}

// Matcher is implemented by entities that can be filtered by List.
type Matcher interface {
	Matches(name string, value interface{}) bool
}

// Match reports whether v satisfies every parameter. Entities that do not
// implement Matcher always match.
func Match(v interface{}, parameters []*Parameter) bool {
	matcher, ok := v.(Matcher)
	if !ok {
		return true
	}
	for _, parameter := range parameters {
		if parameter != nil && !matcher.Matches(parameter.Name, parameter.Value) {
			return false
		}
	}
	return true
}
