package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var initCmd = &cobra.Command{
	Use:     "init [name]",
	Aliases: []string{"i"},
	Short:   "Initialize a new macrodoc project",
	Long: `Initialize a new macrodoc project with the necessary directory
structure, configuration file, a starter macro table, and an example
document. If no name is provided, initializes in the current directory.

Examples:
  macrodoc init                   # Initialize in current directory
  macrodoc init my-docs           # Initialize in new directory 'my-docs'
  macrodoc init --minimal         # Config and directories only, no examples`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

var initMinimal bool

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&initMinimal, "minimal", false, "Minimal setup without example content")
}

func runInit(cmd *cobra.Command, args []string) error {
	var projectDir string

	if len(args) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
		projectDir = cwd
	} else {
		projectDir = args[0]
		if err := os.MkdirAll(projectDir, 0755); err != nil {
			return fmt.Errorf("failed to create project directory: %w", err)
		}
	}

	fmt.Printf("Initializing macrodoc project in %s\n", projectDir)

	for _, dir := range []string{"macros", "docs", "public"} {
		if err := os.MkdirAll(filepath.Join(projectDir, dir), 0755); err != nil {
			return fmt.Errorf("failed to create %s directory: %w", dir, err)
		}
	}

	if err := writeIfMissing(filepath.Join(projectDir, ".macrodoc.yml"), defaultConfigFile()); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	if err := writeIfMissing(filepath.Join(projectDir, "macros", "site.ddoc"), starterMacros(projectDir)); err != nil {
		return fmt.Errorf("failed to create starter macros: %w", err)
	}

	if !initMinimal {
		if err := writeIfMissing(filepath.Join(projectDir, "docs", "index.dd"), starterDocument()); err != nil {
			return fmt.Errorf("failed to create example document: %w", err)
		}
	}

	fmt.Println("✓ Project initialized successfully!")
	fmt.Println("\nNext steps:")
	if len(args) > 0 {
		fmt.Println("  1. cd " + projectDir)
		fmt.Println("  2. macrodoc serve")
	} else {
		fmt.Println("  1. macrodoc serve")
	}
	fmt.Println("  3. Open http://localhost:8080 in your browser")

	return nil
}

// writeIfMissing creates a file unless one already exists, so re-running
// init never clobbers user edits.
func writeIfMissing(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("   - Keeping existing %s\n", path)
		return nil
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return err
	}
	fmt.Printf("   - Created %s\n", path)
	return nil
}

func defaultConfigFile() string {
	return `# macrodoc configuration
server:
  port: 8080
  host: localhost

macros:
  paths:
    - "./macros"
  builtin: true

sources:
  scan_paths:
    - "./docs"
  extensions:
    - ".dd"

output:
  dir: "./public"
  extension: ".html"

expand:
  max_depth: 64

development:
  hot_reload: true
`
}

func starterMacros(projectDir string) string {
	title := projectTitle(projectDir)
	return fmt.Sprintf(`PROJECT = %s
COPYRIGHT = Copyright (c) $(PROJECT) contributors

NOTE = <div class="note"><b>Note:</b> $0</div>
WARNING = <div class="warning"><b>Warning:</b> $0</div>

DDOC = <!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>$(TITLE) - $(PROJECT)</title>
</head>
<body>
<h1>$(TITLE)</h1>
$(BODY)
<hr>
<footer>$(COPYRIGHT)</footer>
</body>
</html>
`, title)
}

func starterDocument() string {
	return `Welcome to $(B $(PROJECT)).

$(P This page is written in plain text with embedded macro invocations.
Edit it, save, and watch the preview reload.)

$(NOTE Macros defined under $(D_CODE macros/) are available in every
document. A trailing Macros: section defines document-local ones.)

$(UL
$(LI $(LINK2 https://example.com, External links) with $(D_CODE LINK2))
$(LI Formatting with $(D_CODE B), $(D_CODE I), and $(D_CODE U))
$(LI $(GREETING reader))
)

Macros:
GREETING = Hello, $(B $0)!
`
}

// projectTitle derives a human-readable project title from the target
// directory name.
func projectTitle(projectDir string) string {
	base := filepath.Base(projectDir)
	if base == "." || base == "/" || base == "" {
		base = "macrodoc"
	}
	words := strings.NewReplacer("-", " ", "_", " ").Replace(base)
	return cases.Title(language.English).String(words)
}
