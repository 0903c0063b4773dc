// Package validate checks operation arguments against declarative rules
// before a handler runs. The Validator is injected; Playground adapts
// github.com/go-playground/validator.
package validate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Rules maps argument names to validation tags ("required,min=3") or to
// nested Rules for object arguments.
type Rules = map[string]any

// Validator validates operation arguments.
type Validator interface {
	Validate(ctx context.Context, args map[string]any, rules Rules) error
}

// FieldError is one failed argument.
type FieldError struct {
	Field  string
	Reason string
}

// Error lists every failed argument, sorted by field.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return "invalid arguments: " + strings.Join(parts, "; ")
}

// Playground validates with go-playground/validator map rules.
type Playground struct {
	v *validator.Validate
}

// NewPlayground returns a validator with the default tag set.
func NewPlayground() *Playground {
	return &Playground{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (p *Playground) Validate(ctx context.Context, args map[string]any, rules Rules) error {
	if args == nil {
		args = map[string]any{}
	}
	failed := p.v.ValidateMapCtx(ctx, args, rules)
	if len(failed) == 0 {
		return nil
	}
	e := &Error{}
	flatten("", failed, e)
	sort.Slice(e.Fields, func(i, j int) bool { return e.Fields[i].Field < e.Fields[j].Field })
	return e
}

func flatten(prefix string, failed map[string]any, e *Error) {
	for field, v := range failed {
		name := field
		if prefix != "" {
			name = prefix + "." + field
		}
		switch v := v.(type) {
		case map[string]any:
			flatten(name, v, e)
		case validator.ValidationErrors:
			for _, fe := range v {
				e.Fields = append(e.Fields, FieldError{Field: name, Reason: fe.Tag()})
			}
		default:
			e.Fields = append(e.Fields, FieldError{Field: name, Reason: fmt.Sprint(v)})
		}
	}
}
