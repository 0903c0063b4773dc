package schema

import (
	"strings"
)

// structureGraph links each structure to the parent and interface it must
// wait for. Names are the only edges; nodes keep their entry order so
// resolution is reproducible.
type structureGraph struct {
	order      []*Structure
	nodes      map[string]*Structure
	dependents map[string][]*Structure
	indegree   map[string]int
}

func newStructureGraph(structures []*Structure) *structureGraph {
	g := &structureGraph{
		order:      structures,
		nodes:      make(map[string]*Structure, len(structures)),
		dependents: make(map[string][]*Structure),
		indegree:   make(map[string]int, len(structures)),
	}
	for _, s := range structures {
		g.nodes[s.name] = s
	}
	for _, s := range structures {
		for _, link := range links(s) {
			g.indegree[s.name]++
			if _, ok := g.nodes[link]; ok {
				g.dependents[link] = append(g.dependents[link], s)
			}
		}
	}
	return g
}

// links returns the names s must wait for, interface first.
func links(s *Structure) []string {
	var out []string
	if s.iface != "" {
		out = append(out, s.iface)
	}
	if s.parent != "" {
		out = append(out, s.parent)
	}
	return out
}

// resolveStructures orders structures so every parent and interface comes
// before the structures built on it, and merges inherited bodies. Field
// references do not gate the order; they are checked for existence by
// checkDependencies once everything is placed.
func resolveStructures(structures []*Structure) ([]*Definition, map[string]*Definition, error) {
	g := newStructureGraph(structures)
	resolved := make(map[string]*Definition, len(structures))
	ordered := make([]*Definition, 0, len(structures))

	var queue []*Structure
	for _, s := range g.order {
		if g.indegree[s.name] == 0 {
			queue = append(queue, s)
		}
	}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		def := mergeDefinition(s, resolved)
		resolved[s.name] = def
		ordered = append(ordered, def)
		for _, d := range g.dependents[s.name] {
			g.indegree[d.name]--
			if g.indegree[d.name] == 0 {
				queue = append(queue, d)
			}
		}
	}

	if len(ordered) < len(structures) {
		err := &UnresolvableStructuresError{}
		for _, s := range g.order {
			if _, ok := resolved[s.name]; ok {
				continue
			}
			p := PendingStructure{Kind: s.kind, Name: s.name}
			for _, link := range links(s) {
				if _, ok := resolved[link]; !ok {
					p.Missing = append(p.Missing, link)
				}
			}
			err.Pending = append(err.Pending, p)
		}
		return nil, nil, err
	}
	return ordered, resolved, nil
}

func mergeDefinition(s *Structure, resolved map[string]*Definition) *Definition {
	def := &Definition{Kind: s.kind, Name: s.name, Header: string(s.kind) + " " + s.name}
	var body []string
	if s.iface != "" {
		def.Header += " implements " + s.iface
		body = appendPart(body, resolved[s.iface].Body)
	}
	if s.parent != "" {
		body = appendPart(body, resolved[s.parent].Body)
	}
	body = appendPart(body, trimBlankLines(s.body))
	def.Body = strings.Join(body, "\n")
	return def
}

func appendPart(parts []string, part string) []string {
	if part == "" {
		return parts
	}
	return append(parts, part)
}

// checkDependencies verifies that every type a structure references was
// resolved. The first missing name is reported.
func checkDependencies(structures []*Structure, resolved map[string]*Definition) error {
	for _, s := range structures {
		for _, dep := range s.deps {
			if _, ok := resolved[dep]; !ok {
				return &UnresolvedDependencyError{Kind: string(s.kind), Name: s.name, Missing: dep}
			}
		}
	}
	return nil
}

// trimBlankLines drops leading and trailing whitespace-only lines, keeping
// the indentation of the first line with content.
func trimBlankLines(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}
