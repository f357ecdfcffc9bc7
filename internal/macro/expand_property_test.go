//go:build property

package macro

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestExpanderProperties validates structural properties of macro expansion
func TestExpanderProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1357)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	// Property: expansion always terminates and never panics, whatever the
	// input text looks like
	properties.Property("expansion terminates on arbitrary input", prop.ForAll(
		func(text string) bool {
			table := NewBuiltinTable()
			out := NewExpander(table).Expand(text)
			return len(out) >= 0
		},
		gen.AnyString(),
	))

	// Property: text without "$(" is returned unchanged
	properties.Property("macro-free text is identity", prop.ForAll(
		func(text string) bool {
			if strings.Contains(text, "$(") {
				return true
			}
			table := NewBuiltinTable()
			return NewExpander(table).Expand(text) == text
		},
		gen.AnyString(),
	))

	// Property: ECHO = $0 reproduces any argument text free of macro
	// syntax and unbalanced delimiters
	properties.Property("echo round-trips plain arguments", prop.ForAll(
		func(arg string) bool {
			if strings.ContainsAny(arg, "$()") {
				return true
			}
			if strings.TrimLeft(arg, " \t\n") != arg || arg == "" {
				return true
			}
			table := NewTable()
			table.Define("ECHO", "$0")
			return NewExpander(table).Expand("$(ECHO "+arg+")") == arg
		},
		gen.AnyString(),
	))

	// Property: self-referential tables still terminate within the depth
	// bound and keep the prefix they produced
	properties.Property("cyclic tables terminate", prop.ForAll(
		func(depth int) bool {
			if depth < 1 || depth > 32 {
				return true
			}
			table := NewTable()
			table.Define("LOOP", "x$(LOOP)")
			out := NewExpander(table, WithMaxDepth(depth)).Expand("$(LOOP)")
			return out == strings.Repeat("x", depth)+"$(LOOP)"
		},
		gen.IntRange(1, 32),
	))

	// Property: unknown invocations survive verbatim
	properties.Property("unknown macros pass through", prop.ForAll(
		func(name string) bool {
			if name == "" {
				return true
			}
			for i := 0; i < len(name); i++ {
				if !isNameChar(name[i]) {
					return true
				}
			}
			table := NewTable()
			if _, defined := table.Lookup(name); defined {
				return true
			}
			text := "$(" + name + " x)"
			return NewExpander(table).Expand(text) == text
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
