package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/anhldbk/graphqly/internal/hook"
)

// ErrChannelUnavailable is returned by Operation.Publish before the first
// successful Build.
var ErrChannelUnavailable = errors.New("publish channel unavailable: schema not built")

// RegistrationError reports an invalid builder call: a bad or duplicate name,
// missing definition text, conflicting links or a malformed hook point.
type RegistrationError struct {
	Kind   string
	Name   string
	Reason string
}

func (e *RegistrationError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("%s %q: %s", e.Kind, e.Name, e.Reason)
}

// PendingStructure is a structure the resolver could not place.
type PendingStructure struct {
	Kind    StructureKind
	Name    string
	Missing []string // unresolved parent or interface names
}

// UnresolvableStructuresError lists every structure left pending when
// resolution stopped making progress.
type UnresolvableStructuresError struct {
	Pending []PendingStructure
}

func (e *UnresolvableStructuresError) Error() string {
	var b strings.Builder
	b.WriteString("can not resolve following structures:")
	for _, p := range e.Pending {
		fmt.Fprintf(&b, "\n- %s %q (waiting on %s)", p.Kind, p.Name, strings.Join(p.Missing, ", "))
	}
	return b.String()
}

// Names returns the pending structure names in report order.
func (e *UnresolvableStructuresError) Names() []string {
	names := make([]string, len(e.Pending))
	for i, p := range e.Pending {
		names[i] = p.Name
	}
	return names
}

// UnresolvedDependencyError reports a referenced type name that no
// registered structure provides.
type UnresolvedDependencyError struct {
	Kind    string // structure or operation kind of the referrer
	Name    string
	Missing string
}

func (e *UnresolvedDependencyError) Error() string {
	return fmt.Sprintf("unresolved dependency %q in %s %q", e.Missing, e.Kind, e.Name)
}

// MissingHandlerError reports a query or mutation without a resolving function.
type MissingHandlerError struct {
	Kind hook.Kind
	Name string
}

func (e *MissingHandlerError) Error() string {
	return fmt.Sprintf("%s %q must provide a resolving function", e.Kind, e.Name)
}

// InterfaceResolutionError reports an implementing type with no fields of its
// own, which would make its type-resolution predicate match everything.
type InterfaceResolutionError struct {
	Type      string
	Interface string
}

func (e *InterfaceResolutionError) Error() string {
	return fmt.Sprintf("type %q implements %q but declares no fields of its own", e.Type, e.Interface)
}
