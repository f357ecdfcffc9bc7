package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/macrodoc/macrodoc/internal/config"
	"github.com/macrodoc/macrodoc/internal/macro"
	"github.com/macrodoc/macrodoc/internal/renderer"
	"github.com/macrodoc/macrodoc/internal/scanner"
	"github.com/macrodoc/macrodoc/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"w"},
	Short:   "Watch for changes and re-render documents",
	Long: `Watch macro files and documentation sources for changes and re-render
the output directory automatically. This is useful for workflows where
you want fresh output on disk but don't need the preview server.

Examples:
  macrodoc watch                  # Watch all configured paths
  macrodoc watch --verbose        # Watch with verbose output`,
	RunE: runWatch,
}

var watchVerbose bool

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVarP(&watchVerbose, "verbose", "v", false, "Verbose output")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	fileWatcher, err := watcher.NewFileWatcher(300 * time.Millisecond)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fileWatcher.Stop()

	fileWatcher.AddFilter(watcher.SourceFilter(cfg.Sources.Extensions))
	fileWatcher.AddFilter(watcher.NoBackupFilter)
	fileWatcher.AddFilter(watcher.NoGitFilter)

	fileWatcher.AddHandler(func(events []watcher.ChangeEvent) error {
		if watchVerbose {
			fmt.Printf("📁 File changes detected:\n")
			for _, event := range events {
				fmt.Printf("   %s: %s\n", event.Type, event.Path)
			}
		} else {
			fmt.Printf("📁 %d file(s) changed\n", len(events))
		}

		if err := renderAll(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Render failed: %v\n", err)
		}
		return nil
	})

	fmt.Println("🔍 Setting up file watching...")
	for _, path := range cfg.Macros.Paths {
		if err := fileWatcher.AddRecursive(path); err != nil {
			if pathErr := fileWatcher.AddPath(path); pathErr != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to watch path %s: %v\n", path, pathErr)
			}
		} else {
			fmt.Printf("   - Watching: %s\n", path)
		}
	}
	for _, path := range cfg.Sources.ScanPaths {
		if err := fileWatcher.AddRecursive(path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to watch path %s: %v\n", path, err)
		} else {
			fmt.Printf("   - Watching: %s\n", path)
		}
	}

	fmt.Println("⚡ Performing initial render...")
	if err := renderAll(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Initial render failed: %v\n", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := fileWatcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}

	fmt.Println("👀 Watching for changes... (Press Ctrl+C to stop)")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	fmt.Println("\n🛑 Stopping file watcher...")
	cancel()

	return nil
}

// renderAll reloads the macro table and re-renders every document to
// the output directory.
func renderAll(cfg *config.Config) error {
	table, warnings := macro.LoadAll(cfg.Macros.Paths, cfg.Macros.Builtin)
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}

	docScanner := scanner.NewDocumentScanner(cfg.Sources.Extensions, cfg.Sources.ExcludePatterns)
	docs, scanErrs := docScanner.ScanAll(cfg.Sources.ScanPaths)
	for _, err := range scanErrs {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	docRenderer := renderer.NewDocumentRenderer(table,
		renderer.WithMaxDepth(cfg.Expand.MaxDepth),
	)

	written, renderErrs := docRenderer.WriteAll(docs, cfg.Output.Dir, cfg.Output.Extension)
	for _, err := range renderErrs {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}

	fmt.Printf("✅ Rendered %d documents to %s\n", len(written), cfg.Output.Dir)
	if len(renderErrs) > 0 {
		return fmt.Errorf("%d documents failed to render", len(renderErrs))
	}
	return nil
}
