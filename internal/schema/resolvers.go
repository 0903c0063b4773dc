package schema

import (
	"context"
	"sort"
	"strings"
)

// SubscribeFunc opens the event stream of a subscription.
type SubscribeFunc func(ctx context.Context, args map[string]any) (<-chan any, error)

// FieldResolver is the entry of a root field. Subscribe is set for
// subscriptions only; their Resolve maps each streamed payload.
type FieldResolver struct {
	Resolve   ResolveFunc
	Subscribe SubscribeFunc
}

// Resolvers maps a root type name and field name to its resolver.
type Resolvers map[string]map[string]*FieldResolver

func (r Resolvers) set(root, field string, fr *FieldResolver) {
	m, ok := r[root]
	if !ok {
		m = make(map[string]*FieldResolver)
		r[root] = m
	}
	m[field] = fr
}

// Lookup finds a resolver by path, e.g. "Query.posts".
func (r Resolvers) Lookup(path string) (*FieldResolver, bool) {
	root, field, ok := strings.Cut(path, ".")
	if !ok {
		return nil, false
	}
	fr, ok := r[root][field]
	return fr, ok
}

// Paths lists every registered path, sorted.
func (r Resolvers) Paths() []string {
	var out []string
	for root, fields := range r {
		for field := range fields {
			out = append(out, root+"."+field)
		}
	}
	sort.Strings(out)
	return out
}
