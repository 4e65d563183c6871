package cli

import (
	"github.com/spf13/cobra"

	"github.com/paylens/analytics/internal/cli/helpers"
	"github.com/paylens/analytics/internal/cli/report"
	"github.com/paylens/analytics/internal/cli/token"
	"github.com/paylens/analytics/pkg/version"
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Paylens analytics - build and run tenant-scoped payment analytics queries",
		Long: `Build payment analytics queries for the transactional (Postgres) and
analytical (ClickHouse) backends.

Every query is filtered by a tenant scope taken from a signed token or from
explicit organization, merchant and profile ids.

Configuration is read from defaults, the --config YAML file and ANALYTICS_*
environment variables, in that order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String(helpers.ConfigFlag, "", "Path to the YAML configuration file")

	cmd.AddCommand(report.NewRenderCmd())
	cmd.AddCommand(report.NewRunCmd())
	cmd.AddCommand(token.NewTokenCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("Analytics version %s\n", version.Version)
			cmd.Printf("Git commit: %s\n", version.GitCommit)
			cmd.Printf("Build date: %s\n", version.BuildDate)
			cmd.Printf("Go version: %s\n", version.GoVersion)
		},
	}
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
