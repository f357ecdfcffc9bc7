package macro

import (
	"regexp"
	"sort"
)

var refPattern = regexp.MustCompile(`\$\(([A-Za-z_][A-Za-z0-9_]*)`)

// References returns the sorted, de-duplicated macro names invoked in a
// value. Positional placeholders are not references.
func References(value string) []string {
	seen := make(map[string]bool)
	for _, m := range refPattern.FindAllStringSubmatch(value, -1) {
		seen[m[1]] = true
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Undefined returns the references in the table's definitions that
// resolve to no definition. Such invocations pass through verbatim at
// expansion time, which is usually a typo worth reporting.
func Undefined(t *Table) map[string][]string {
	undefined := make(map[string][]string)
	for _, name := range t.Names() {
		value, _ := t.Lookup(name)
		var missing []string
		for _, ref := range References(value) {
			if _, ok := t.Lookup(ref); !ok {
				missing = append(missing, ref)
			}
		}
		if len(missing) > 0 {
			undefined[name] = missing
		}
	}
	return undefined
}

// Cycles returns the reference cycles reachable from the table's
// definitions, one representative path per cycle. The reference graph
// over-approximates runtime behavior (a reference inside an argument
// that is never substituted still counts), so results are diagnostics,
// not errors: expansion terminates regardless via the depth guard.
func Cycles(t *Table) [][]string {
	graph := make(map[string][]string)
	for _, name := range t.Names() {
		value, _ := t.Lookup(name)
		for _, ref := range References(value) {
			if _, ok := t.Lookup(ref); ok {
				graph[name] = append(graph[name], ref)
			}
		}
	}

	const (
		unvisited = 0
		inStack   = 1
		done      = 2
	)
	state := make(map[string]int)
	var stack []string
	var cycles [][]string
	reported := make(map[string]bool)

	var visit func(name string)
	visit = func(name string) {
		state[name] = inStack
		stack = append(stack, name)

		for _, ref := range graph[name] {
			switch state[ref] {
			case unvisited:
				visit(ref)
			case inStack:
				// Slice the stack from the first occurrence of ref to
				// get the cycle path.
				for i, n := range stack {
					if n == ref {
						cycle := append([]string(nil), stack[i:]...)
						if !reported[cycle[0]] {
							reported[cycle[0]] = true
							cycles = append(cycles, cycle)
						}
						break
					}
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[name] = done
	}

	names := make([]string, 0, len(graph))
	for name := range graph {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if state[name] == unvisited {
			visit(name)
		}
	}

	return cycles
}
