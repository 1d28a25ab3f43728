// Command filterctl inspects the filter catalog and shows the SQL a filter
// request compiles to, without touching a database.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"careindex/internal/domain/filter"
)

var (
	limits = filter.DefaultLimits()
	asJSON bool
)

var rootCmd = &cobra.Command{
	Use:           "filterctl",
	Short:         "Inspect the CQC filter catalog and compiled queries",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	rootCmd.PersistentFlags().IntVar(&limits.DefaultLimit, "default-limit", limits.DefaultLimit, "page size when limit is absent")
	rootCmd.PersistentFlags().IntVar(&limits.MaxLimit, "max-limit", limits.MaxLimit, "largest accepted limit")
	rootCmd.PersistentFlags().IntVar(&limits.MaxConditions, "max-conditions", limits.MaxConditions, "largest accepted number of conditions")

	rootCmd.AddCommand(newColumnsCmd(), newOperatorsCmd(), newSQLCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
