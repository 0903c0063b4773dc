package hook

import (
	"fmt"
	"strings"
)

// Kind is the operation namespace a hook applies to.
type Kind string

const (
	KindQuery        Kind = "query"
	KindMutation     Kind = "mutation"
	KindSubscription Kind = "subscription"
)

// Kinds lists every operation kind in emission order.
var Kinds = []Kind{KindQuery, KindMutation, KindSubscription}

// Valid reports whether k is a known operation kind.
func (k Kind) Valid() bool {
	switch k {
	case KindQuery, KindMutation, KindSubscription:
		return true
	}
	return false
}

// RootType returns the root object type name for k ("Query", "Mutation", "Subscription").
func (k Kind) RootType() string {
	switch k {
	case KindQuery:
		return "Query"
	case KindMutation:
		return "Mutation"
	case KindSubscription:
		return "Subscription"
	}
	return ""
}

// Stage places a hook before or after the handler.
type Stage string

const (
	Pre  Stage = "pre"
	Post Stage = "post"
)

// Point identifies a registration point such as "pre.query".
type Point struct {
	Stage Stage
	Kind  Kind
}

func (p Point) String() string { return string(p.Stage) + "." + string(p.Kind) }

// ParsePoint validates s against {pre|post}.{query|mutation|subscription}.
func ParsePoint(s string) (Point, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return Point{}, fmt.Errorf("invalid hook point %q: must have the format {pre,post}.{query,mutation,subscription}", s)
	}
	stage, kind := Stage(parts[0]), Kind(parts[1])
	if stage != Pre && stage != Post {
		return Point{}, fmt.Errorf("invalid hook point %q: first part must be one of {pre, post}", s)
	}
	if !kind.Valid() {
		return Point{}, fmt.Errorf("invalid hook point %q: second part must be one of {query, mutation, subscription}", s)
	}
	return Point{Stage: stage, Kind: kind}, nil
}
