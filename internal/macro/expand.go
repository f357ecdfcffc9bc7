package macro

import (
	"fmt"
	"strings"
)

// DefaultMaxDepth bounds recursive expansion. Cyclic macro chains hit
// the bound and are emitted verbatim instead of looping.
const DefaultMaxDepth = 64

// Expander resolves $(NAME arg1, arg2, ...) invocations against a table.
// The table is only read during expansion, so one expander can serve a
// whole render pass.
type Expander struct {
	table    *Table
	maxDepth int
	warn     func(msg string)
}

// ExpanderOption configures an Expander.
type ExpanderOption func(*Expander)

// WithMaxDepth overrides the expansion depth bound.
func WithMaxDepth(depth int) ExpanderOption {
	return func(e *Expander) {
		if depth > 0 {
			e.maxDepth = depth
		}
	}
}

// WithWarnFunc installs a callback for non-fatal expansion warnings
// (depth overflow). The default discards them.
func WithWarnFunc(warn func(msg string)) ExpanderOption {
	return func(e *Expander) {
		if warn != nil {
			e.warn = warn
		}
	}
}

// NewExpander creates an expander over the given table.
func NewExpander(table *Table, opts ...ExpanderOption) *Expander {
	e := &Expander{
		table:    table,
		maxDepth: DefaultMaxDepth,
		warn:     func(string) {},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expand resolves all macro invocations in text. Unknown macros and
// invocations past the depth bound pass through verbatim; expansion
// never fails.
func (e *Expander) Expand(text string) string {
	return e.expand(text, 0)
}

func (e *Expander) expand(s string, depth int) string {
	var b strings.Builder
	i := 0
	for {
		j := strings.Index(s[i:], "$(")
		if j < 0 {
			b.WriteString(s[i:])
			break
		}
		j += i
		b.WriteString(s[i:j])

		inv, ok := parseInvocation(s[j:])
		if !ok {
			// Unterminated invocation, emit the rest as-is.
			b.WriteString(s[j:])
			break
		}
		raw := s[j : j+inv.size]
		i = j + inv.size

		template, defined := e.table.Lookup(inv.name)
		if inv.name == "" || !defined {
			b.WriteString(raw)
			continue
		}
		if depth >= e.maxDepth {
			e.warn(fmt.Sprintf("macro %s: expansion depth limit %d reached, emitting invocation verbatim",
				inv.name, e.maxDepth))
			b.WriteString(raw)
			continue
		}

		b.WriteString(e.expand(substitute(template, inv.args), depth+1))
	}
	return b.String()
}

// invocation is a parsed $(NAME args) occurrence. It exists only while
// the expander replaces it.
type invocation struct {
	name string
	args string
	size int
}

// parseInvocation parses an invocation at the start of s, which must
// begin with "$(". The matching ")" honors nested parentheses. Returns
// ok=false when no matching ")" exists.
func parseInvocation(s string) (invocation, bool) {
	i := 2
	nameStart := i
	for i < len(s) && isNameChar(s[i]) {
		i++
	}
	name := s[nameStart:i]

	parens := 1
	j := i
	for j < len(s) {
		switch s[j] {
		case '(':
			parens++
		case ')':
			parens--
			if parens == 0 {
				return invocation{
					name: name,
					args: strings.TrimLeft(s[i:j], " \t\n"),
					size: j + 1,
				}, true
			}
		}
		j++
	}
	return invocation{}, false
}

func isNameChar(c byte) bool {
	return c >= 'a' && c <= 'z' ||
		c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' ||
		c == '_'
}

// substitute replaces positional placeholders in template with pieces of
// the raw argument text: $0 is the whole text, $1..$9 are top-level
// comma-delimited arguments, $+ is everything after the first top-level
// comma. A single argument makes $1 equal $0 and $+ empty. Missing
// indices substitute the empty string.
func substitute(template, argText string) string {
	args, plus := splitArgs(argText)

	var b strings.Builder
	b.Grow(len(template))
	for i := 0; i < len(template); i++ {
		c := template[i]
		if c != '$' || i+1 >= len(template) {
			b.WriteByte(c)
			continue
		}
		switch next := template[i+1]; {
		case next == '0':
			b.WriteString(argText)
			i++
		case next >= '1' && next <= '9':
			idx := int(next - '1')
			if idx < len(args) {
				b.WriteString(args[idx])
			}
			i++
		case next == '+':
			b.WriteString(plus)
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// splitArgs splits the raw argument text on top-level commas. Commas
// nested inside $(...) or balanced brackets do not split.
func splitArgs(argText string) (args []string, plus string) {
	if argText == "" {
		return nil, ""
	}

	depth := 0
	start := 0
	firstComma := -1
	for i := 0; i < len(argText); i++ {
		switch argText[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(argText[start:i]))
				start = i + 1
				if firstComma < 0 {
					firstComma = i
				}
			}
		}
	}
	args = append(args, strings.TrimSpace(argText[start:]))

	if firstComma < 0 {
		// Single argument: $1 is the whole text.
		return []string{argText}, ""
	}
	return args, strings.TrimLeft(argText[firstComma+1:], " \t\n")
}
