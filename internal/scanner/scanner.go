// Package scanner provides documentation source discovery for macrodoc.
//
// The scanner traverses configured scan paths to find documentation
// source files by extension, applying exclude patterns. Each discovered
// file becomes a Document carrying the metadata the renderer and the
// preview server need: a stable name, the source path, and the output
// path it renders to.
package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/macrodoc/macrodoc/internal/errors"
)

// Document holds metadata about a discovered documentation source file.
type Document struct {
	// Name is the source path relative to its scan root, without
	// extension, using forward slashes. It doubles as the URL path in
	// the preview server.
	Name     string
	FilePath string
	LastMod  time.Time
	Size     int64
}

// OutputPath returns where the rendered document lands under outDir.
func (d *Document) OutputPath(outDir, extension string) string {
	return filepath.Join(outDir, filepath.FromSlash(d.Name)+extension)
}

// DocumentScanner discovers documentation sources in scan paths.
type DocumentScanner struct {
	extensions []string
	excludes   []string
}

// NewDocumentScanner creates a scanner for the given source extensions
// and exclude patterns (matched against base names).
func NewDocumentScanner(extensions, excludes []string) *DocumentScanner {
	return &DocumentScanner{
		extensions: extensions,
		excludes:   excludes,
	}
}

// ScanDirectory walks root and returns all matching documents, sorted by
// name. A missing root is an error; unreadable entries are skipped.
func (s *DocumentScanner) ScanDirectory(root string) ([]*Document, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeInvalidPath, "cannot scan directory", err).
			WithLocation(root, 0)
	}

	var docs []*Document
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if info.Name() == ".git" || info.Name() == "node_modules" {
				return filepath.SkipDir
			}
			return nil
		}
		if !s.matchExtension(path) || s.excluded(path) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}

		docs = append(docs, &Document{
			Name:     docName(rel),
			FilePath: path,
			LastMod:  info.ModTime(),
			Size:     info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

// ScanAll scans every path and merges the results. Later paths win on
// name collisions. Scan errors are returned per path via the errs slice
// so one bad path never hides the others.
func (s *DocumentScanner) ScanAll(paths []string) ([]*Document, []error) {
	byName := make(map[string]*Document)
	var errs []error

	for _, path := range paths {
		docs, err := s.ScanDirectory(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, doc := range docs {
			byName[doc.Name] = doc
		}
	}

	merged := make([]*Document, 0, len(byName))
	for _, doc := range byName {
		merged = append(merged, doc)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Name < merged[j].Name })
	return merged, errs
}

func (s *DocumentScanner) matchExtension(path string) bool {
	for _, ext := range s.extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func (s *DocumentScanner) excluded(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range s.excludes {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

func docName(rel string) string {
	name := filepath.ToSlash(rel)
	if ext := filepath.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}
