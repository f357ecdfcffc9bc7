package macro

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/macrodoc/macrodoc/internal/errors"
)

// Warning describes a definition line the loader skipped or repaired.
// Warnings never abort loading: the host keeps rendering with whatever
// definitions parsed cleanly.
type Warning struct {
	File    string
	Line    int
	Message string
}

// String formats the warning for display.
func (w Warning) String() string {
	if w.File != "" {
		return fmt.Sprintf("%s:%d: %s", w.File, w.Line, w.Message)
	}
	return fmt.Sprintf("line %d: %s", w.Line, w.Message)
}

// A definition line is NAME = VALUE with an identifier name. Anything
// else is a continuation of the previous definition's value.
var defLine = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*=(.*)$`)

// Load reads NAME = VALUE macro definitions from r into the table.
// Continuation lines append to the previous value. Duplicate names:
// last definition wins. The name argument is used in warnings only.
func Load(table *Table, r io.Reader, name string) []Warning {
	var warnings []Warning

	var curName string
	var curValue strings.Builder
	flush := func() {
		if curName != "" {
			table.Define(curName, strings.TrimSpace(curValue.String()))
			curName = ""
			curValue.Reset()
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if m := defLine.FindStringSubmatch(line); m != nil {
			flush()
			curName = m[1]
			curValue.WriteString(strings.TrimSpace(m[2]))
			continue
		}

		if curName != "" {
			// Continuation of the open definition.
			curValue.WriteString("\n")
			curValue.WriteString(line)
			continue
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		msg := "expected NAME = VALUE definition"
		if strings.Contains(line, "=") {
			msg = "definition has empty or invalid macro name"
		}
		warnings = append(warnings, Warning{File: name, Line: lineNo, Message: msg})
	}
	flush()

	if err := scanner.Err(); err != nil {
		warnings = append(warnings, Warning{
			File:    name,
			Line:    lineNo,
			Message: fmt.Sprintf("read error: %v", err),
		})
	}

	return warnings
}

// ParseDefinitions loads definitions from a string into a fresh table.
func ParseDefinitions(src string) (*Table, []Warning) {
	table := NewTable()
	warnings := Load(table, strings.NewReader(src), "")
	return table, warnings
}

// LoadFile reads macro definitions from path into the table. An
// unreadable file is an error; content problems are warnings.
func LoadFile(table *Table, path string) ([]Warning, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeMacroFileRead,
			"cannot open macro file", err).WithLocation(path, 0)
	}
	defer f.Close()

	return Load(table, f, path), nil
}

// LoadAll builds a table from the configured macro paths. Each path may
// be a single definition file or a directory of *.ddoc files (loaded in
// sorted order). Later definitions override earlier ones. Unreadable
// paths degrade to warnings so the host keeps rendering with whatever
// loaded.
func LoadAll(paths []string, builtin bool) (*Table, []Warning) {
	var table *Table
	if builtin {
		table = NewBuiltinTable()
	} else {
		table = NewTable()
	}

	var warnings []Warning
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			warnings = append(warnings, Warning{File: path, Line: 1,
				Message: fmt.Sprintf("cannot read macro path: %v", err)})
			continue
		}

		files := []string{path}
		if info.IsDir() {
			matches, err := filepath.Glob(filepath.Join(path, "*.ddoc"))
			if err != nil {
				warnings = append(warnings, Warning{File: path, Line: 1,
					Message: fmt.Sprintf("cannot list macro directory: %v", err)})
				continue
			}
			sort.Strings(matches)
			files = matches
		}

		for _, file := range files {
			fileWarnings, err := LoadFile(table, file)
			if err != nil {
				warnings = append(warnings, Warning{File: file, Line: 1,
					Message: err.Error()})
				continue
			}
			warnings = append(warnings, fileWarnings...)
		}
	}

	return table, warnings
}
