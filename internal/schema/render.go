package schema

import (
	"regexp"
	"strings"

	"github.com/anhldbk/graphqly/internal/hook"
)

var blankRun = regexp.MustCompile(`\n(?:[ \t]*\n)+`)

// render joins resolved definitions and the root operation blocks, one blank
// line between each. Longer runs of blank lines collapse to one.
func render(defs []*Definition, operations map[hook.Kind][]*Operation) string {
	parts := make([]string, 0, len(defs)+len(hook.Kinds))
	for _, d := range defs {
		parts = append(parts, d.String())
	}
	for _, kind := range hook.Kinds {
		ops := operations[kind]
		if len(ops) == 0 {
			continue
		}
		var lines []string
		for _, o := range ops {
			lines = append(lines, indent(o.signature)...)
		}
		parts = append(parts, "type "+kind.RootType()+" {\n"+strings.Join(lines, "\n")+"\n}")
	}
	if len(parts) == 0 {
		return ""
	}
	text := blankRun.ReplaceAllString(strings.Join(parts, "\n\n"), "\n\n")
	return strings.TrimRight(text, "\n") + "\n"
}

// indent prefixes every unindented line of a signature with two spaces.
func indent(signature string) []string {
	lines := strings.Split(signature, "\n")
	for i, l := range lines {
		if l != "" && l[0] != ' ' && l[0] != '\t' {
			lines[i] = "  " + l
		}
	}
	return lines
}
