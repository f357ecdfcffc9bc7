package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/macrodoc/macrodoc/internal/config"
	"github.com/macrodoc/macrodoc/internal/macro"
	"github.com/macrodoc/macrodoc/internal/renderer"
	"github.com/macrodoc/macrodoc/internal/scanner"
)

var renderCmd = &cobra.Command{
	Use:     "render",
	Aliases: []string{"r"},
	Short:   "Render all documents to the output directory",
	Long: `Render all discovered documentation sources to HTML in the output
directory. Macro tables are loaded from the configured paths, each
document is expanded against them, and the result is written next to
its source-relative path under the output directory.

Examples:
  macrodoc render                     # Render with configured settings
  macrodoc render --output dist       # Render to a specific directory
  macrodoc render --clean             # Remove the output directory first
  macrodoc render --macros extra.ddoc # Load an additional macro table`,
	RunE: runRender,
}

var (
	renderOutput string
	renderClean  bool
	renderMacros []string
)

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Output directory")
	renderCmd.Flags().BoolVar(&renderClean, "clean", false, "Remove the output directory before rendering")
	renderCmd.Flags().StringSliceVarP(&renderMacros, "macros", "m", nil, "Additional macro files or directories to load")
	renderCmd.Flags().Bool("no-builtin", false, "Disable the built-in macro set")

	viper.BindPFlag("output.clean", renderCmd.Flags().Lookup("clean"))
}

func runRender(cmd *cobra.Command, args []string) error {
	startTime := time.Now()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	outDir := cfg.Output.Dir
	if renderOutput != "" {
		outDir = renderOutput
	}

	if renderClean || cfg.Output.Clean {
		fmt.Println("🧹 Cleaning output directory...")
		if err := os.RemoveAll(outDir); err != nil {
			return fmt.Errorf("failed to clean output directory: %w", err)
		}
	}

	fmt.Println("📖 Loading macro tables...")
	table, warnings := loadMacroTable(cmd, cfg)
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}
	fmt.Printf("Loaded %d macros\n", table.Count())

	fmt.Println("📁 Scanning for documents...")
	docScanner := scanner.NewDocumentScanner(cfg.Sources.Extensions, cfg.Sources.ExcludePatterns)
	docs, scanErrs := docScanner.ScanAll(cfg.Sources.ScanPaths)
	for _, scanErr := range scanErrs {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", scanErr)
	}

	if len(docs) == 0 {
		fmt.Println("No documents found to render.")
		return nil
	}

	fmt.Printf("Found %d documents\n", len(docs))

	fmt.Println("⚡ Rendering documents...")
	docRenderer := renderer.NewDocumentRenderer(table,
		renderer.WithMaxDepth(cfg.Expand.MaxDepth),
	)

	written, renderErrs := docRenderer.WriteAll(docs, outDir, cfg.Output.Extension)
	for _, renderErr := range renderErrs {
		fmt.Fprintf(os.Stderr, "Error: %v\n", renderErr)
	}

	duration := time.Since(startTime)
	if len(renderErrs) > 0 {
		fmt.Printf("⚠️  Rendered %d of %d documents in %v (%d failed)\n",
			len(written), len(docs), duration, len(renderErrs))
		return fmt.Errorf("%d documents failed to render", len(renderErrs))
	}

	fmt.Printf("✅ Rendered %d documents in %v\n", len(written), duration)
	fmt.Printf("   - Output written to: %s\n", outDir)
	return nil
}

// loadMacroTable builds the macro table from the configured paths plus
// any --macros additions, honoring --no-builtin when set.
func loadMacroTable(cmd *cobra.Command, cfg *config.Config) (*macro.Table, []macro.Warning) {
	builtin := cfg.Macros.Builtin
	if noBuiltin, err := cmd.Flags().GetBool("no-builtin"); err == nil && noBuiltin {
		builtin = false
	}

	paths := append([]string{}, cfg.Macros.Paths...)
	paths = append(paths, renderMacros...)

	return macro.LoadAll(paths, builtin)
}
