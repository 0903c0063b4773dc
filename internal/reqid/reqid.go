// Package reqid tags every operation invocation with an id carried in its
// context, so instrumentation can correlate start and finish events.
package reqid

import (
	"context"

	"github.com/google/uuid"
)

// key is the context key for the invocation ID.
type key struct{}

// NewContext returns a copy of parent carrying a fresh invocation ID.
// It also returns the generated ID.
func NewContext(parent context.Context) (context.Context, string) {
	id := uuid.NewString()
	return context.WithValue(parent, key{}, id), id
}

// FromContext extracts the invocation ID from ctx.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(key{}).(string)
	return id, ok
}
