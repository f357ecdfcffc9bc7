package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/net/html"
	"gopkg.in/yaml.v2"

	"github.com/macrodoc/macrodoc/internal/config"
	"github.com/macrodoc/macrodoc/internal/macro"
	"github.com/macrodoc/macrodoc/internal/renderer"
	"github.com/macrodoc/macrodoc/internal/scanner"
)

var checkCmd = &cobra.Command{
	Use:     "check",
	Aliases: []string{"c"},
	Short:   "Diagnose macro tables and rendered output",
	Long: `Diagnose the project's macro tables and rendered output and report
problems before they show up in published pages. The check command
looks for:

- Malformed lines in macro definition files
- References to macros that are never defined
- Reference cycles between macro definitions
- Rendered documents that do not parse as HTML

Examples:
  macrodoc check                   # Full diagnosis, table output
  macrodoc check --format json     # Output as JSON for tooling
  macrodoc check --format yaml     # Output as YAML`,
	RunE: runCheck,
}

var checkFormat string

// CheckResult represents the result of one diagnostic check.
type CheckResult struct {
	Name     string   `json:"name" yaml:"name"`
	Category string   `json:"category" yaml:"category"`
	Status   string   `json:"status" yaml:"status"` // "ok", "warning", "error"
	Message  string   `json:"message" yaml:"message"`
	Details  []string `json:"details,omitempty" yaml:"details,omitempty"`
}

// CheckReport is the complete diagnostic report.
type CheckReport struct {
	Timestamp time.Time     `json:"timestamp" yaml:"timestamp"`
	Results   []CheckResult `json:"results" yaml:"results"`
	Summary   CheckSummary  `json:"summary" yaml:"summary"`
}

// CheckSummary gives an overview of diagnostic results.
type CheckSummary struct {
	Total    int `json:"total" yaml:"total"`
	OK       int `json:"ok" yaml:"ok"`
	Warnings int `json:"warnings" yaml:"warnings"`
	Errors   int `json:"errors" yaml:"errors"`
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVarP(&checkFormat, "format", "f", "table", "Output format (table, json, yaml)")

	AddFormatValidation(checkCmd, "format", []string{"table", "json", "yaml"})
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	fmt.Println("🔍 Macrodoc Project Check")
	fmt.Println("=========================")
	fmt.Println()

	table, warnings := macro.LoadAll(cfg.Macros.Paths, cfg.Macros.Builtin)

	report := &CheckReport{
		Timestamp: time.Now(),
		Results: []CheckResult{
			checkMacroFiles(warnings),
			checkUndefinedReferences(table),
			checkReferenceCycles(table),
			checkRenderedHTML(cfg, table),
		},
	}
	report.Summary = summarizeResults(report.Results)

	if checkFormat == "table" {
		for _, result := range report.Results {
			displayCheckResult(result)
		}
		fmt.Println("\n📊 Summary")
		fmt.Println("==========")
		fmt.Printf("   %d checks: %d ok, %d warnings, %d errors\n",
			report.Summary.Total, report.Summary.OK,
			report.Summary.Warnings, report.Summary.Errors)
	} else {
		if err := outputCheckReport(report, checkFormat); err != nil {
			return fmt.Errorf("failed to output report: %w", err)
		}
	}

	if report.Summary.Errors > 0 {
		return fmt.Errorf("%d checks failed", report.Summary.Errors)
	}
	return nil
}

func checkMacroFiles(warnings []macro.Warning) CheckResult {
	result := CheckResult{
		Name:     "Macro Definition Files",
		Category: "Macros",
		Status:   "ok",
		Message:  "All macro files parsed cleanly",
	}

	if len(warnings) > 0 {
		result.Status = "warning"
		result.Message = fmt.Sprintf("%d malformed or unreadable lines", len(warnings))
		for _, w := range warnings {
			result.Details = append(result.Details, w.String())
		}
	}

	return result
}

func checkUndefinedReferences(table *macro.Table) CheckResult {
	result := CheckResult{
		Name:     "Undefined References",
		Category: "Macros",
		Status:   "ok",
		Message:  "Every referenced macro is defined",
	}

	undefined := macro.Undefined(table)
	if len(undefined) > 0 {
		result.Status = "warning"
		result.Message = fmt.Sprintf("%d definitions reference undefined macros (they will pass through verbatim)", len(undefined))
		for _, name := range sortedKeys(undefined) {
			result.Details = append(result.Details,
				fmt.Sprintf("%s references %s", name, strings.Join(undefined[name], ", ")))
		}
	}

	return result
}

func checkReferenceCycles(table *macro.Table) CheckResult {
	result := CheckResult{
		Name:     "Reference Cycles",
		Category: "Macros",
		Status:   "ok",
		Message:  "No reference cycles between definitions",
	}

	cycles := macro.Cycles(table)
	if len(cycles) > 0 {
		result.Status = "warning"
		result.Message = fmt.Sprintf("%d reference cycles (expansion stops at the depth guard)", len(cycles))
		for _, cycle := range cycles {
			result.Details = append(result.Details,
				strings.Join(cycle, " -> ")+" -> "+cycle[0])
		}
	}

	return result
}

func checkRenderedHTML(cfg *config.Config, table *macro.Table) CheckResult {
	result := CheckResult{
		Name:     "Rendered HTML",
		Category: "Output",
		Status:   "ok",
	}

	docScanner := scanner.NewDocumentScanner(cfg.Sources.Extensions, cfg.Sources.ExcludePatterns)
	docs, scanErrs := docScanner.ScanAll(cfg.Sources.ScanPaths)
	for _, err := range scanErrs {
		result.Details = append(result.Details, err.Error())
	}

	if len(docs) == 0 {
		result.Message = "No documents to render"
		return result
	}

	docRenderer := renderer.NewDocumentRenderer(table,
		renderer.WithMaxDepth(cfg.Expand.MaxDepth),
	)

	failed := 0
	for _, doc := range docs {
		rendered, err := docRenderer.RenderDocument(doc)
		if err != nil {
			failed++
			result.Details = append(result.Details, fmt.Sprintf("%s: %v", doc.Name, err))
			continue
		}
		if err := validateHTML(rendered); err != nil {
			failed++
			result.Details = append(result.Details, fmt.Sprintf("%s: %v", doc.Name, err))
		}
	}

	if failed > 0 {
		result.Status = "error"
		result.Message = fmt.Sprintf("%d of %d documents failed to render as HTML", failed, len(docs))
	} else {
		result.Message = fmt.Sprintf("All %d documents render as well-formed HTML", len(docs))
	}

	return result
}

// validateHTML parses the rendered output with the tolerant HTML5
// parser and walks the tree to make sure something non-trivial came
// out. The parser recovers from most markup damage, so a hard parse
// error indicates badly broken output.
func validateHTML(rendered string) error {
	doc, err := html.Parse(strings.NewReader(rendered))
	if err != nil {
		return fmt.Errorf("HTML parse failed: %w", err)
	}

	var hasBody bool
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "body" {
			hasBody = true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if !hasBody {
		return fmt.Errorf("no <body> element in rendered output")
	}
	return nil
}

func displayCheckResult(result CheckResult) {
	icon := "✅"
	switch result.Status {
	case "warning":
		icon = "⚠️ "
	case "error":
		icon = "❌"
	}

	fmt.Printf("%s %s: %s\n", icon, result.Name, result.Message)
	for _, detail := range result.Details {
		fmt.Printf("   - %s\n", detail)
	}
}

func summarizeResults(results []CheckResult) CheckSummary {
	summary := CheckSummary{Total: len(results)}
	for _, result := range results {
		switch result.Status {
		case "ok":
			summary.OK++
		case "warning":
			summary.Warnings++
		case "error":
			summary.Errors++
		}
	}
	return summary
}

func outputCheckReport(report *CheckReport, format string) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	case "yaml":
		data, err := yaml.Marshal(report)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	default:
		return fmt.Errorf("unsupported format: %s (supported: table, json, yaml)", format)
	}
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
