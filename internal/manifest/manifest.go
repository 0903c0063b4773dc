// Package manifest describes a schema as YAML so it can be assembled without
// writing Go.
package manifest

import (
	"fmt"
	"os"

	"github.com/anhldbk/graphqly/internal/schema"
	"gopkg.in/yaml.v3"
)

// Manifest lists structures and operation signatures in registration order.
type Manifest struct {
	Structures    []Structure `yaml:"structures"`
	Queries       []string    `yaml:"queries"`
	Mutations     []string    `yaml:"mutations"`
	Subscriptions []string    `yaml:"subscriptions"`
}

// Structure is one type, interface, input or enum.
type Structure struct {
	Kind       string `yaml:"kind"`
	Name       string `yaml:"name"`
	Extends    string `yaml:"extends,omitempty"`
	Implements string `yaml:"implements,omitempty"`
	Define     string `yaml:"define,omitempty"`
}

// Load reads and parses a manifest file
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates manifest YAML.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest YAML: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return &m, nil
}

// Validate checks what the builder can not: structure kinds and required names.
func (m *Manifest) Validate() error {
	for i, s := range m.Structures {
		if s.Name == "" {
			return fmt.Errorf("structures[%d]: name is required", i)
		}
		switch schema.StructureKind(s.Kind) {
		case schema.KindType, schema.KindInterface, schema.KindInput, schema.KindEnum:
		default:
			return fmt.Errorf("structure %q: kind must be one of type, interface, input, enum, got: %q", s.Name, s.Kind)
		}
	}
	return nil
}

// Provider returns a function registering everything m lists. bind, if not
// nil, is called with every registered operation, e.g. to attach handlers.
func (m *Manifest) Provider(bind func(*schema.Operation)) func(*schema.Builder) {
	return func(b *schema.Builder) {
		for _, s := range m.Structures {
			var st *schema.Structure
			switch schema.StructureKind(s.Kind) {
			case schema.KindType:
				st = b.Type(s.Name)
			case schema.KindInterface:
				st = b.Interface(s.Name)
			case schema.KindInput:
				st = b.Input(s.Name)
			case schema.KindEnum:
				st = b.Enum(s.Name)
			default:
				continue
			}
			if s.Extends != "" {
				st.Extend(s.Extends)
			}
			if s.Implements != "" {
				st.Implements(s.Implements)
			}
			if s.Define != "" {
				st.Define(s.Define)
			}
		}

		register := func(ops []string, add func(string) *schema.Operation) {
			for _, sig := range ops {
				o := add(sig)
				if bind != nil && o.Err() == nil {
					bind(o)
				}
			}
		}
		register(m.Queries, b.Query)
		register(m.Mutations, b.Mutation)
		register(m.Subscriptions, b.Subscription)
	}
}
