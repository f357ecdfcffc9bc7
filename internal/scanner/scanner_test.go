package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestScanDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "safety.dd", "Ddoc content")
	writeFile(t, dir, "articles/attributes.dd", "Ddoc content")
	writeFile(t, dir, "notes.txt", "not a doc")

	s := NewDocumentScanner([]string{".dd"}, nil)
	docs, err := s.ScanDirectory(dir)

	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "articles/attributes", docs[0].Name)
	assert.Equal(t, "safety", docs[1].Name)
}

func TestScanDirectory_ExcludePatterns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "keep.dd", "x")
	writeFile(t, dir, "drop.bak.dd", "x")

	s := NewDocumentScanner([]string{".dd"}, []string{"*.bak.dd"})
	docs, err := s.ScanDirectory(dir)

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "keep", docs[0].Name)
}

func TestScanDirectory_Missing(t *testing.T) {
	s := NewDocumentScanner([]string{".dd"}, nil)
	_, err := s.ScanDirectory(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestScanDirectory_SkipsGit(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".git/objects/fake.dd", "x")
	writeFile(t, dir, "real.dd", "x")

	s := NewDocumentScanner([]string{".dd"}, nil)
	docs, err := s.ScanDirectory(dir)

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "real", docs[0].Name)
}

func TestScanAll_LaterPathWins(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	pathA := writeFile(t, dirA, "index.dd", "from A")
	_ = pathA
	pathB := writeFile(t, dirB, "index.dd", "from B")

	s := NewDocumentScanner([]string{".dd"}, nil)
	docs, errs := s.ScanAll([]string{dirA, dirB})

	assert.Empty(t, errs)
	require.Len(t, docs, 1)
	assert.Equal(t, pathB, docs[0].FilePath)
}

func TestScanAll_BadPathReported(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.dd", "x")

	s := NewDocumentScanner([]string{".dd"}, nil)
	docs, errs := s.ScanAll([]string{dir, filepath.Join(dir, "absent")})

	assert.Len(t, errs, 1)
	assert.Len(t, docs, 1)
}

func TestDocument_OutputPath(t *testing.T) {
	doc := &Document{Name: "articles/attributes"}
	assert.Equal(t,
		filepath.Join("public", "articles", "attributes.html"),
		doc.OutputPath("public", ".html"))
}
