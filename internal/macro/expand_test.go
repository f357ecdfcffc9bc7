package macro

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func expandWith(defs map[string]string, text string, opts ...ExpanderOption) string {
	table := NewTable()
	for name, value := range defs {
		table.Define(name, value)
	}
	return NewExpander(table, opts...).Expand(text)
}

func TestExpand_WholeArgument(t *testing.T) {
	out := expandWith(map[string]string{"ECHO": "$0"}, "$(ECHO hello)")
	assert.Equal(t, "hello", out)
}

func TestExpand_PositionalArguments(t *testing.T) {
	out := expandWith(map[string]string{"PAIR": "$1-$2"}, "$(PAIR a,b)")
	assert.Equal(t, "a-b", out)
}

func TestExpand_MissingIndexIsEmpty(t *testing.T) {
	out := expandWith(map[string]string{"TRIPLE": "[$1|$2|$3]"}, "$(TRIPLE a,b)")
	assert.Equal(t, "[a|b|]", out)
}

func TestExpand_NoArguments(t *testing.T) {
	out := expandWith(map[string]string{"BR": "<br>"}, "line$(BR)break")
	assert.Equal(t, "line<br>break", out)
}

func TestExpand_UnknownMacroPassesThrough(t *testing.T) {
	out := expandWith(map[string]string{}, "$(UNKNOWN x)")
	assert.Equal(t, "$(UNKNOWN x)", out)
}

func TestExpand_UnknownAmongKnown(t *testing.T) {
	out := expandWith(map[string]string{"B": "<b>$0</b>"}, "$(B one) $(MISSING two) $(B three)")
	assert.Equal(t, "<b>one</b> $(MISSING two) <b>three</b>", out)
}

func TestExpand_NestedInvocationInArguments(t *testing.T) {
	defs := map[string]string{"ECHO": "$0", "PAIR": "$1-$2"}
	out := expandWith(defs, "$(PAIR $(ECHO a,b), c)")
	// The nested $(ECHO a,b) is one argument; its comma does not split the
	// outer list.
	assert.Equal(t, "a,b-c", out)
}

func TestExpand_CommaInsideBracketsDoesNotSplit(t *testing.T) {
	out := expandWith(map[string]string{"PAIR": "$1-$2"}, "$(PAIR [a,b], c)")
	assert.Equal(t, "[a,b]-c", out)
}

func TestExpand_RecursiveTemplate(t *testing.T) {
	defs := map[string]string{
		"BOLD_ITALIC": "$(B $(I $0))",
		"B":           "<b>$0</b>",
		"I":           "<i>$0</i>",
	}
	out := expandWith(defs, "$(BOLD_ITALIC text)")
	assert.Equal(t, "<b><i>text</i></b>", out)
}

func TestExpand_SameMacroNestedInArgument(t *testing.T) {
	out := expandWith(map[string]string{"B": "<b>$0</b>"}, "$(B $(B x))")
	assert.Equal(t, "<b><b>x</b></b>", out)
}

func TestExpand_PlusArgument(t *testing.T) {
	defs := map[string]string{"LINK2": "<a href=\"$1\">$+</a>"}
	out := expandWith(defs, "$(LINK2 https://example.com, the example, site)")
	assert.Equal(t, "<a href=\"https://example.com\">the example, site</a>", out)
}

func TestExpand_SingleArgumentRules(t *testing.T) {
	defs := map[string]string{"M": "0:[$0] 1:[$1] +:[$+]"}
	out := expandWith(defs, "$(M only)")
	assert.Equal(t, "0:[only] 1:[only] +:[]", out)
}

func TestExpand_SelfReferenceTerminates(t *testing.T) {
	var warned bool
	out := expandWith(map[string]string{"LOOP": "x$(LOOP)"}, "$(LOOP)",
		WithMaxDepth(8), WithWarnFunc(func(string) { warned = true }))

	assert.True(t, warned)
	assert.Equal(t, strings.Repeat("x", 8)+"$(LOOP)", out)
}

func TestExpand_MutualCycleTerminates(t *testing.T) {
	defs := map[string]string{"PING": "p$(PONG)", "PONG": "q$(PING)"}
	out := expandWith(defs, "$(PING)", WithMaxDepth(6))

	assert.True(t, strings.HasPrefix(out, "pqpqpq"))
	// The invocation that hit the bound survives verbatim.
	assert.True(t, strings.HasSuffix(out, "$(PING)") || strings.HasSuffix(out, "$(PONG)"))
}

func TestExpand_DepthGuardIsPerInvocation(t *testing.T) {
	// Sequential invocations at the same level are not nested and never
	// hit the depth bound.
	defs := map[string]string{"B": "<b>$0</b>"}
	input := strings.Repeat("$(B x)", 100)
	out := expandWith(defs, input, WithMaxDepth(4))
	assert.Equal(t, strings.Repeat("<b>x</b>", 100), out)
}

func TestExpand_UnterminatedInvocation(t *testing.T) {
	out := expandWith(map[string]string{"B": "<b>$0</b>"}, "before $(B dangling")
	assert.Equal(t, "before $(B dangling", out)
}

func TestExpand_DollarWithoutParenIsLiteral(t *testing.T) {
	out := expandWith(map[string]string{"B": "<b>$0</b>"}, "cost $5 and $(B more)")
	assert.Equal(t, "cost $5 and <b>more</b>", out)
}

func TestExpand_EmptyName(t *testing.T) {
	out := expandWith(map[string]string{"B": "<b>$0</b>"}, "$( not a macro)")
	assert.Equal(t, "$( not a macro)", out)
}

func TestExpand_PlainTextUntouched(t *testing.T) {
	text := "No macros here, just (parens) and commas, etc."
	out := expandWith(map[string]string{"B": "<b>$0</b>"}, text)
	assert.Equal(t, text, out)
}

func TestExpand_ArgumentsTrimmed(t *testing.T) {
	out := expandWith(map[string]string{"PAIR": "$1-$2"}, "$(PAIR a , b )")
	assert.Equal(t, "a-b", out)
}

func TestExpand_PageAssembly(t *testing.T) {
	table := NewBuiltinTable()
	table.Define("TITLE", "Memory Safety")
	table.Define("BODY", "$(P $(B attributes))")

	out := NewExpander(table).Expand("$(DDOC)")
	assert.Contains(t, out, "<title>Memory Safety</title>")
	assert.Contains(t, out, "<p><b>attributes</b></p>")
}

func TestSubstitute_LiteralDollarPreserved(t *testing.T) {
	assert.Equal(t, "a $x b", substitute("a $x b", "ignored"))
	assert.Equal(t, "trailing $", substitute("trailing $", ""))
}

func TestSplitArgs_Empty(t *testing.T) {
	args, plus := splitArgs("")
	assert.Nil(t, args)
	assert.Equal(t, "", plus)
}
