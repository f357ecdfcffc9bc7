package renderer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macrodoc/macrodoc/internal/macro"
	"github.com/macrodoc/macrodoc/internal/scanner"
)

func TestRenderSource_PageAssembly(t *testing.T) {
	r := NewDocumentRenderer(macro.NewBuiltinTable())

	html := r.RenderSource("safety", "$(P $(B hello))")

	assert.Contains(t, html, "<title>safety</title>")
	assert.Contains(t, html, "<p><b>hello</b></p>")
	assert.Contains(t, html, "<!DOCTYPE html>")
}

func TestRenderSource_MacrosSection(t *testing.T) {
	r := NewDocumentRenderer(macro.NewBuiltinTable())

	source := "$(GREETING world)\nMacros:\nGREETING = hi, $1!\nTITLE = Memory Safety\n"
	html := r.RenderSource("safety", source)

	assert.Contains(t, html, "hi, world!")
	assert.Contains(t, html, "<title>Memory Safety</title>")
}

func TestRenderSource_LocalMacrosDoNotLeak(t *testing.T) {
	table := macro.NewBuiltinTable()
	r := NewDocumentRenderer(table)

	r.RenderSource("one", "text\nMacros:\nLOCAL = value\n")

	_, exists := table.Lookup("LOCAL")
	assert.False(t, exists)

	// A later pass without the definition leaves the invocation verbatim.
	html := r.RenderSource("two", "$(LOCAL)")
	assert.Contains(t, html, "$(LOCAL)")
}

func TestRenderSource_UserLayoutOverride(t *testing.T) {
	table := macro.NewBuiltinTable()
	table.Define("DDOC", "== $(TITLE) ==\n$(BODY)")
	r := NewDocumentRenderer(table)

	out := r.RenderSource("notes", "plain body")
	assert.Equal(t, "== notes ==\nplain body", out)
}

func TestRenderSource_UnknownMacroSurvives(t *testing.T) {
	r := NewDocumentRenderer(macro.NewBuiltinTable())

	html := r.RenderSource("doc", "$(NO_SUCH_MACRO arg)")
	assert.Contains(t, html, "$(NO_SUCH_MACRO arg)")
}

func TestRenderSource_CyclicMacroTerminates(t *testing.T) {
	table := macro.NewBuiltinTable()
	table.Define("LOOP", "$(LOOP)")
	r := NewDocumentRenderer(table, WithMaxDepth(8))

	html := r.RenderSource("doc", "$(LOOP)")
	assert.Contains(t, html, "$(LOOP)")
}

func TestRenderDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.dd")
	require.NoError(t, os.WriteFile(path, []byte("$(B bold)"), 0644))

	r := NewDocumentRenderer(macro.NewBuiltinTable())
	html, err := r.RenderDocument(&scanner.Document{Name: "index", FilePath: path})

	require.NoError(t, err)
	assert.Contains(t, html, "<b>bold</b>")
}

func TestRenderDocument_MissingFile(t *testing.T) {
	r := NewDocumentRenderer(macro.NewBuiltinTable())
	_, err := r.RenderDocument(&scanner.Document{
		Name:     "ghost",
		FilePath: filepath.Join(t.TempDir(), "ghost.dd"),
	})
	assert.Error(t, err)
}

func TestWriteDocument(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()
	path := filepath.Join(srcDir, "guide.dd")
	require.NoError(t, os.WriteFile(path, []byte("$(I italics)"), 0644))

	r := NewDocumentRenderer(macro.NewBuiltinTable())
	outPath, err := r.WriteDocument(&scanner.Document{Name: "articles/guide", FilePath: path}, outDir, ".html")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "articles", "guide.html"), outPath)

	content, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "<i>italics</i>")
}

func TestWriteAll_ContinuesPastFailures(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()
	good := filepath.Join(srcDir, "good.dd")
	require.NoError(t, os.WriteFile(good, []byte("fine"), 0644))

	docs := []*scanner.Document{
		{Name: "missing", FilePath: filepath.Join(srcDir, "missing.dd")},
		{Name: "good", FilePath: good},
	}

	r := NewDocumentRenderer(macro.NewBuiltinTable())
	written, errs := r.WriteAll(docs, outDir, ".html")

	assert.Len(t, errs, 1)
	require.Len(t, written, 1)
	assert.Contains(t, written[0], "good.html")
}

func TestSplitMacrosSection(t *testing.T) {
	body, defs := splitMacrosSection("text line\nMacros:\nA = 1\nB = 2\n")
	assert.Equal(t, "text line", body)
	assert.Equal(t, "A = 1\nB = 2\n", defs)

	body, defs = splitMacrosSection("no section here")
	assert.Equal(t, "no section here", body)
	assert.Equal(t, "", defs)

	// Heading at the very start: the document is all definitions.
	body, defs = splitMacrosSection("Macros:\nA = 1\n")
	assert.Equal(t, "", body)
	assert.Equal(t, "A = 1\n", defs)

	// "Macros:" mid-line is ordinary text.
	body, defs = splitMacrosSection("see Macros: below")
	assert.Equal(t, "see Macros: below", body)
	assert.Equal(t, "", defs)
}
