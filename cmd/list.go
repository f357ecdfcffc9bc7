package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/macrodoc/macrodoc/internal/config"
	"github.com/macrodoc/macrodoc/internal/macro"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"l"},
	Short:   "List the loaded macro table",
	Long: `List all macros loaded from the configured macro paths with their
values. Shows macro names, definitions, and optionally the macros each
definition references.

Examples:
  macrodoc list                   # List user macros in table format
  macrodoc list -f json           # Output as JSON (short flag)
  macrodoc list --format csv      # Output as CSV
  macrodoc list -b                # Include built-in macros (short flag)
  macrodoc list -r                # Show referenced macros per definition
  macrodoc list -br -f yaml       # Built-ins and references, output as YAML`,
	RunE: runList,
}

var (
	listFormat   string
	listBuiltins bool
	listRefs     bool
)

// macroListing is one row of list output.
type macroListing struct {
	Name       string   `json:"name" yaml:"name"`
	Value      string   `json:"value" yaml:"value"`
	Builtin    bool     `json:"builtin" yaml:"builtin"`
	References []string `json:"references,omitempty" yaml:"references,omitempty"`
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "Output format (table, json, yaml, csv)")
	listCmd.Flags().BoolVarP(&listBuiltins, "builtin", "b", false, "Include built-in macros")
	listCmd.Flags().BoolVarP(&listRefs, "refs", "r", false, "Show macros referenced by each definition")

	AddFormatValidation(listCmd, "format", []string{"table", "json", "yaml", "csv"})
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	table, warnings := macro.LoadAll(cfg.Macros.Paths, cfg.Macros.Builtin)
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}

	listings := collectListings(table, listBuiltins, listRefs)
	if len(listings) == 0 {
		fmt.Println("No macros found.")
		return nil
	}

	switch strings.ToLower(listFormat) {
	case "json":
		return outputListJSON(listings)
	case "yaml":
		return outputListYAML(listings)
	case "table":
		return outputListTable(listings)
	case "csv":
		return outputListCSV(listings)
	default:
		return fmt.Errorf("unsupported format: %s (supported: table, json, yaml, csv)", listFormat)
	}
}

func collectListings(table *macro.Table, builtins, refs bool) []macroListing {
	var listings []macroListing
	for _, name := range table.Names() {
		value, _ := table.Lookup(name)
		isBuiltin := macro.IsBuiltin(name) && isUnchangedBuiltin(table, name)
		if isBuiltin && !builtins {
			continue
		}

		listing := macroListing{
			Name:    name,
			Value:   value,
			Builtin: isBuiltin,
		}
		if refs {
			listing.References = macro.References(value)
		}
		listings = append(listings, listing)
	}
	return listings
}

// isUnchangedBuiltin reports whether a builtin name still carries its
// builtin value. A user redefinition of a builtin name is listed as a
// user macro.
func isUnchangedBuiltin(table *macro.Table, name string) bool {
	value, ok := table.Lookup(name)
	if !ok {
		return false
	}
	builtin := macro.NewBuiltinTable()
	builtinValue, ok := builtin.Lookup(name)
	return ok && value == builtinValue
}

func outputListJSON(listings []macroListing) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(listings)
}

func outputListYAML(listings []macroListing) error {
	encoder := yaml.NewEncoder(os.Stdout)
	defer encoder.Close()
	return encoder.Encode(listings)
}

func outputListTable(listings []macroListing) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	header := "NAME\tVALUE\tBUILTIN"
	if listRefs {
		header += "\tREFERENCES"
	}
	fmt.Fprintln(w, header)

	separator := strings.Repeat("-", 4) + "\t" + strings.Repeat("-", 5) + "\t" + strings.Repeat("-", 7)
	if listRefs {
		separator += "\t" + strings.Repeat("-", 10)
	}
	fmt.Fprintln(w, separator)

	for _, listing := range listings {
		row := fmt.Sprintf("%s\t%s\t%v", listing.Name, displayValue(listing.Value), listing.Builtin)
		if listRefs {
			row += "\t" + strings.Join(listing.References, ", ")
		}
		fmt.Fprintln(w, row)
	}

	fmt.Fprintf(w, "\nTotal: %d macros\n", len(listings))
	return nil
}

func outputListCSV(listings []macroListing) error {
	header := "name,value,builtin"
	if listRefs {
		header += ",references"
	}
	fmt.Println(header)

	for _, listing := range listings {
		row := fmt.Sprintf("%s,%q,%v", listing.Name, listing.Value, listing.Builtin)
		if listRefs {
			row += fmt.Sprintf(",%q", strings.Join(listing.References, " "))
		}
		fmt.Println(row)
	}
	return nil
}

// displayValue flattens and truncates a macro value for table output.
func displayValue(value string) string {
	flat := strings.ReplaceAll(value, "\n", "\\n")
	if len(flat) > 60 {
		return flat[:57] + "..."
	}
	return flat
}
