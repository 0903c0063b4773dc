// Package language parses and validates rendered schema text with gqlparser.
package language

import (
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/validator"
)

// Schema is a validated schema.
type Schema = ast.Schema

// LoadSchema parses and validates source together with the built-in prelude
// (scalars and standard directives).
func LoadSchema(name, source string) (*Schema, error) {
	s, err := validator.LoadSchema(validator.Prelude, &ast.Source{Name: name, Input: source})
	if err != nil {
		return nil, err
	}
	return s, nil
}
