package helpers

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// AddFormatFlag adds a standard --format/-o flag to a command.
// Validates that the format is in the supportedFormats list.
func AddFormatFlag(cmd *cobra.Command, formatVar *string, defaultFormat OutputFormat, supportedFormats []OutputFormat) {
	formatNames := make([]string, len(supportedFormats))
	for i, f := range supportedFormats {
		formatNames[i] = string(f)
	}

	description := fmt.Sprintf("Output format (%s)", strings.Join(formatNames, ", "))
	cmd.Flags().StringVarP(formatVar, "format", "o", string(defaultFormat), description)

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return formatNames, cobra.ShellCompDirectiveNoFileComp
	})
}

// AddDialectFlag adds the --dialect/-d flag selecting the backend.
func AddDialectFlag(cmd *cobra.Command, dialectVar *string) {
	cmd.Flags().StringVarP(dialectVar, "dialect", "d", DialectPostgres,
		fmt.Sprintf("Query dialect (%s, %s)", DialectPostgres, DialectClickHouse))

	_ = cmd.RegisterFlagCompletionFunc("dialect", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{DialectPostgres, DialectClickHouse}, cobra.ShellCompDirectiveNoFileComp
	})
}

// Dialect names accepted by --dialect.
const (
	DialectPostgres   = "postgres"
	DialectClickHouse = "clickhouse"
)

// ValidateFormat checks if the format is in the supported list.
func ValidateFormat(format string, supported []OutputFormat) error {
	for _, s := range supported {
		if format == string(s) {
			return nil
		}
	}

	supportedNames := make([]string, len(supported))
	for i, s := range supported {
		supportedNames[i] = string(s)
	}

	return fmt.Errorf("unsupported format %q, must be one of: %s",
		format, strings.Join(supportedNames, ", "))
}
