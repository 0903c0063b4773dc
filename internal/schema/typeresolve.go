package schema

import (
	"reflect"
	"strings"
)

type candidate struct {
	name   string
	fields []string
}

// TypeResolver picks the concrete type of an interface value. A type matches
// when every field it declares itself is present and non-nil on the value;
// the first match in registration order wins.
type TypeResolver struct {
	Interface  string
	candidates []candidate
}

// ResolveType returns the name of the first type whose own fields are all
// present on value.
func (r *TypeResolver) ResolveType(value any) (string, bool) {
	for _, c := range r.candidates {
		if hasFields(value, c.fields) {
			return c.name, true
		}
	}
	return "", false
}

// PossibleTypes lists the implementing types in match order.
func (r *TypeResolver) PossibleTypes() []string {
	out := make([]string, len(r.candidates))
	for i, c := range r.candidates {
		out[i] = c.name
	}
	return out
}

func typeResolvers(types []*Structure) map[string]*TypeResolver {
	out := make(map[string]*TypeResolver)
	for _, t := range types {
		if t.iface == "" {
			continue
		}
		r, ok := out[t.iface]
		if !ok {
			r = &TypeResolver{Interface: t.iface}
			out[t.iface] = r
		}
		r.candidates = append(r.candidates, candidate{name: t.name, fields: t.fields})
	}
	return out
}

// hasFields reports whether value carries every field. Maps are matched by
// key; structs by json tag name, falling back to a case-insensitive field
// name.
func hasFields(value any, fields []string) bool {
	v := reflect.ValueOf(value)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return false
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return false
		}
		for _, f := range fields {
			e := v.MapIndex(reflect.ValueOf(f).Convert(v.Type().Key()))
			if !e.IsValid() || isNil(e) {
				return false
			}
		}
		return true
	case reflect.Struct:
		for _, f := range fields {
			e, ok := structField(v, f)
			if !ok || isNil(e) {
				return false
			}
		}
		return true
	}
	return false
}

func structField(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if tag == "-" {
			continue
		}
		if tag == name || (tag == "" && strings.EqualFold(sf.Name, name)) {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
