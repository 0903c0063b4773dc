// Package fragment extracts names and type references from raw schema
// fragments without parsing them as a full document.
//
// A fragment is a snippet such as a structure body ("title: String") or an
// operation signature ("posts(filter: FilterInput): [Post!]!"). The scanner
// is line oriented: '#' starts a comment that runs to the end of the line,
// and quoted strings (including """block""" strings) are skipped.
package fragment

import (
	"strings"
)

// Builtins are the scalar names that never count as dependencies.
var Builtins = map[string]struct{}{
	"String":  {},
	"Int":     {},
	"Float":   {},
	"Boolean": {},
	"ID":      {},
}

// IsBuiltin reports whether name is a built-in scalar.
func IsBuiltin(name string) bool {
	_, ok := Builtins[name]
	return ok
}

const (
	nameStops       = "({:"
	dependencyStops = "{:=,)}!]#\n"
	wrapperChars    = "([!)"
)

// NameOf returns the declared name of a fragment: the trimmed text preceding
// the first '(', '{' or ':' on the first line that has one. Comment lines and
// lines without a stop character are skipped. An empty fragment yields "".
func NameOf(text string) string {
	var sc lineScanner
	for _, line := range splitLines(text) {
		code := sc.code(line)
		if i := strings.IndexAny(code, nameStops); i >= 0 {
			if name := strings.TrimSpace(code[:i]); name != "" {
				return name
			}
		}
	}
	return ""
}

// DependenciesOf returns the type names referenced after each ':' in text,
// in first-seen order without duplicates. Built-in scalars and references
// inside comments or strings are excluded.
func DependenciesOf(text string) []string {
	var (
		sc   lineScanner
		deps []string
		seen = make(map[string]struct{})
	)
	for _, line := range splitLines(text) {
		code := sc.code(line)
		for begin := 0; begin < len(code); begin++ {
			if code[begin] != ':' {
				continue
			}
			end := begin + 1
			for end < len(code) && strings.IndexByte(dependencyStops, code[end]) < 0 {
				end++
			}
			if dep := cleanReference(code[begin+1 : end]); dep != "" && !IsBuiltin(dep) {
				if _, ok := seen[dep]; !ok {
					seen[dep] = struct{}{}
					deps = append(deps, dep)
				}
			}
			begin = end
		}
	}
	return deps
}

// FieldsOf returns the names of the fields declared directly in a structure
// body, in declaration order. Argument lists are skipped, so only top level
// field names are reported.
func FieldsOf(text string) []string {
	var (
		sc     lineScanner
		fields []string
		depth  int
		flat   strings.Builder
	)
	for _, line := range splitLines(text) {
		for _, c := range []byte(sc.code(line)) {
			switch {
			case c == '(':
				depth++
			case c == ')':
				if depth > 0 {
					depth--
				}
			case depth == 0:
				flat.WriteByte(c)
			}
		}
		if depth == 0 {
			flat.WriteByte('\n')
		}
	}
	for _, line := range strings.Split(flat.String(), "\n") {
		for _, segment := range strings.Split(line, ",") {
			i := strings.IndexByte(segment, ':')
			if i < 0 {
				continue
			}
			if name := strings.TrimSpace(segment[:i]); isName(name) {
				fields = append(fields, name)
			}
		}
	}
	return fields
}

// cleanReference trims a raw reference, strips list and non-null wrappers and
// keeps the first word, so trailing directives do not leak into the name.
func cleanReference(raw string) string {
	ref := strings.Map(func(r rune) rune {
		if strings.ContainsRune(wrapperChars, r) {
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
	words := strings.Fields(ref)
	if len(words) == 0 || !isName(words[0]) {
		return ""
	}
	return words[0]
}

func isName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// IsName reports whether s is a valid schema name.
func IsName(s string) bool { return isName(s) }

func splitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}

// lineScanner blanks out comments and string literals line by line. Block
// strings may span lines, so the scanner carries that state between calls.
type lineScanner struct {
	inBlock bool
}

// code returns line with comments removed and string contents replaced by
// spaces, keeping byte offsets of the remaining code stable.
func (s *lineScanner) code(line string) string {
	out := []byte(line)
	inString := false
	for i := 0; i < len(out); i++ {
		if strings.HasPrefix(line[i:], `"""`) && !inString {
			s.inBlock = !s.inBlock
			out[i], out[i+1], out[i+2] = ' ', ' ', ' '
			i += 2
			continue
		}
		if s.inBlock {
			out[i] = ' '
			continue
		}
		switch c := out[i]; {
		case c == '"':
			inString = !inString
			out[i] = ' '
		case inString:
			out[i] = ' '
			if c == '\\' && i+1 < len(out) {
				i++
				out[i] = ' '
			}
		case c == '#':
			return string(out[:i])
		}
	}
	return string(out)
}
