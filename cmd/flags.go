package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// AddFormatValidation rejects bad values for a format flag at parse
// time instead of after the command has done work.
func AddFormatValidation(cmd *cobra.Command, flagName string, allowed []string) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		return
	}

	originalSet := flag.Value.Set
	flag.Value = &validatingValue{
		Value: flag.Value,
		validator: func(value string) error {
			return validateFormat(value, allowed)
		},
		originalSet: originalSet,
	}
}

type validatingValue struct {
	pflag.Value
	validator   func(string) error
	originalSet func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.originalSet(val)
}

// validateFormat checks a format value against the allowed list and
// suggests the closest match for near-miss typos.
func validateFormat(value string, allowed []string) error {
	lower := strings.ToLower(value)
	for _, format := range allowed {
		if lower == format {
			return nil
		}
	}

	for _, format := range allowed {
		if strings.HasPrefix(format, lower) || strings.HasPrefix(lower, format) {
			return fmt.Errorf("unsupported format %q (did you mean %q?)", value, format)
		}
	}

	return fmt.Errorf("unsupported format %q (supported: %s)", value, strings.Join(allowed, ", "))
}
