// Package renderer turns documentation sources into rendered HTML pages.
//
// A render pass clones the shared macro table, applies any per-document
// definitions from the source's trailing "Macros:" section, defines
// TITLE and BODY, and expands $(DDOC) so the page layout itself is
// macro-driven and user-overridable. Expansion problems (unknown macros,
// depth overflow) degrade to verbatim text and never fail a pass.
package renderer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/macrodoc/macrodoc/internal/errors"
	"github.com/macrodoc/macrodoc/internal/logging"
	"github.com/macrodoc/macrodoc/internal/macro"
	"github.com/macrodoc/macrodoc/internal/scanner"
)

// macrosHeading separates document text from trailing per-document macro
// definitions, matching the layout of ddoc source files.
const macrosHeading = "Macros:"

// DocumentRenderer renders documentation sources against a macro table.
type DocumentRenderer struct {
	table    *macro.Table
	maxDepth int
	logger   logging.Logger
}

// Option configures a DocumentRenderer.
type Option func(*DocumentRenderer)

// WithMaxDepth overrides the expansion depth bound.
func WithMaxDepth(depth int) Option {
	return func(r *DocumentRenderer) {
		if depth > 0 {
			r.maxDepth = depth
		}
	}
}

// WithLogger installs a logger for expansion warnings.
func WithLogger(logger logging.Logger) Option {
	return func(r *DocumentRenderer) {
		if logger != nil {
			r.logger = logger.WithComponent("renderer")
		}
	}
}

// NewDocumentRenderer creates a renderer over the shared macro table.
func NewDocumentRenderer(table *macro.Table, opts ...Option) *DocumentRenderer {
	r := &DocumentRenderer{
		table:    table,
		maxDepth: macro.DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RenderDocument reads and renders a discovered document.
func (r *DocumentRenderer) RenderDocument(doc *scanner.Document) (string, error) {
	source, err := os.ReadFile(doc.FilePath)
	if err != nil {
		return "", errors.ErrRenderFailed(doc.Name, err).WithLocation(doc.FilePath, 0)
	}
	return r.RenderSource(doc.Name, string(source)), nil
}

// RenderSource renders source text as the named document. The name
// becomes the default TITLE; a Macros: section in the source overrides
// it and may define any other per-document macro.
func (r *DocumentRenderer) RenderSource(name, source string) string {
	body, localDefs := splitMacrosSection(source)

	pass := r.table.Clone()
	pass.Define("TITLE", name)
	if localDefs != "" {
		warnings := macro.Load(pass, strings.NewReader(localDefs), name)
		for _, w := range warnings {
			r.warn(w.String())
		}
	}
	pass.Define("BODY", strings.TrimSpace(body))

	expander := macro.NewExpander(pass,
		macro.WithMaxDepth(r.maxDepth),
		macro.WithWarnFunc(r.warn),
	)
	return expander.Expand("$(DDOC)")
}

// WriteDocument renders doc and writes the result under outDir.
func (r *DocumentRenderer) WriteDocument(doc *scanner.Document, outDir, extension string) (string, error) {
	html, err := r.RenderDocument(doc)
	if err != nil {
		return "", err
	}

	outPath := doc.OutputPath(outDir, extension)
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return "", errors.NewIOError(errors.ErrCodeRenderFailed,
			"cannot create output directory", err).WithLocation(filepath.Dir(outPath), 0)
	}
	if err := os.WriteFile(outPath, []byte(html), 0644); err != nil {
		return "", errors.NewIOError(errors.ErrCodeRenderFailed,
			"cannot write rendered document", err).WithLocation(outPath, 0)
	}
	return outPath, nil
}

// WriteAll renders every document, continuing past per-document
// failures. It returns the paths written and the errors encountered.
func (r *DocumentRenderer) WriteAll(docs []*scanner.Document, outDir, extension string) ([]string, []error) {
	var written []string
	var errs []error

	for _, doc := range docs {
		outPath, err := r.WriteDocument(doc, outDir, extension)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		written = append(written, outPath)
	}
	return written, errs
}

func (r *DocumentRenderer) warn(msg string) {
	if r.logger != nil {
		r.logger.Warn(context.Background(), nil, msg)
	} else {
		fmt.Fprintln(os.Stderr, "warning:", msg)
	}
}

// splitMacrosSection splits source into body text and the trailing
// Macros: definition section, if present. The heading must start a line.
func splitMacrosSection(source string) (body, defs string) {
	idx := strings.LastIndex(source, "\n"+macrosHeading)
	switch {
	case strings.HasPrefix(source, macrosHeading):
		rest := source[len(macrosHeading):]
		if rest == "" || rest[0] == '\n' || rest[0] == '\r' {
			return "", strings.TrimLeft(rest, "\r\n")
		}
		return source, ""
	case idx >= 0:
		after := source[idx+1+len(macrosHeading):]
		if after != "" && after[0] != '\n' && after[0] != '\r' {
			// Not a bare heading line, treat as body text.
			return source, ""
		}
		return source[:idx], strings.TrimLeft(after, "\r\n")
	default:
		return source, ""
	}
}
