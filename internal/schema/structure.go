package schema

import (
	"strconv"
	"strings"

	"github.com/anhldbk/graphqly/internal/fragment"
)

// StructureKind is the declaration keyword of a structure.
type StructureKind string

const (
	KindType      StructureKind = "type"
	KindInterface StructureKind = "interface"
	KindInput     StructureKind = "input"
	KindEnum      StructureKind = "enum"
)

// structureKinds is the order kinds enter resolution.
var structureKinds = []StructureKind{KindInterface, KindEnum, KindInput, KindType}

// Structure is a type, interface, input or enum registered on a Builder.
// Its body is set once through Define; a structure without a body must
// inherit one through Extend or Implements.
type Structure struct {
	b *Builder

	kind    StructureKind
	name    string
	parent  string
	iface   string
	body    string
	defined bool
	deps    []string
	fields  []string
	err     error
}

func (s *Structure) Kind() StructureKind { return s.kind }
func (s *Structure) Name() string        { return s.name }

// Parent returns the name of the structure s extends, if any.
func (s *Structure) Parent() string { return s.parent }

// Interface returns the name of the interface s implements, if any.
func (s *Structure) Interface() string { return s.iface }

// Body returns the field text given to Define.
func (s *Structure) Body() string { return s.body }

// Dependencies returns the non-builtin type names the body references.
func (s *Structure) Dependencies() []string { return s.deps }

// Fields returns the field names declared in the body itself.
func (s *Structure) Fields() []string { return s.fields }

// Err returns the first registration error raised on s.
func (s *Structure) Err() error { return s.err }

func (s *Structure) fail(reason string) *Structure {
	err := &RegistrationError{Kind: string(s.kind), Name: s.name, Reason: reason}
	if s.err == nil {
		s.err = err
	}
	s.b.record(err)
	return s
}

// Extend makes s inherit the merged body of parent.
func (s *Structure) Extend(parent string) *Structure {
	switch {
	case !fragment.IsName(parent):
		return s.fail("invalid parent name " + strconv.Quote(parent))
	case s.iface != "":
		return s.fail("can not implement an interface and extend " + strconv.Quote(parent) + " at the same time")
	case s.parent != "":
		return s.fail("already extends " + strconv.Quote(s.parent))
	}
	s.parent = parent
	return s
}

// Implements declares that s, which must be a type, implements iface.
func (s *Structure) Implements(iface string) *Structure {
	switch {
	case s.kind != KindType:
		return s.fail("only a type can implement an interface")
	case !fragment.IsName(iface):
		return s.fail("invalid interface name " + strconv.Quote(iface))
	case s.parent != "":
		return s.fail("can not extend " + strconv.Quote(s.parent) + " and implement an interface at the same time")
	case s.iface != "":
		return s.fail("already implements " + strconv.Quote(s.iface))
	}
	s.iface = iface
	return s
}

// Define sets the field text of s. It may be called once.
func (s *Structure) Define(body string) *Structure {
	switch {
	case s.defined:
		return s.fail("already defined")
	case strings.TrimSpace(body) == "":
		return s.fail("definition text must not be empty")
	}
	s.body = body
	s.defined = true
	s.deps = fragment.DependenciesOf(body)
	s.fields = fragment.FieldsOf(body)
	return s
}

// Definition is a resolved structure ready to be rendered.
type Definition struct {
	Kind   StructureKind
	Name   string
	Header string // "type Posts" or "type Posts implements List"
	Body   string // interface body, parent body and own body, in that order
}

func (d *Definition) String() string {
	return d.Header + " {\n" + d.Body + "\n}"
}
