// Package token provides the command issuing tenant-scope tokens.
package token

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/paylens/analytics/internal/auth"
	"github.com/paylens/analytics/internal/cli/helpers"
)

// NewTokenCmd creates the 'token' command.
func NewTokenCmd() *cobra.Command {
	var (
		scope helpers.ScopeFlags
		ttl   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a tenant-scope token",
		Long: `Issue a token granting one tenant scope, signed with the configured
auth secret (ANALYTICS_AUTH_SECRET).

Examples:
  analytics token --org org_1
  analytics token --org org_1 --merchant m_1,m_2 --ttl 1h
  analytics token --org org_1 --merchant m_1 --profile pro_1
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := helpers.LoadConfig(cmd)
			if err != nil {
				return err
			}

			info, err := scope.Explicit()
			if err != nil {
				return err
			}

			tm, err := auth.NewTokenManager(cfg.Auth)
			if err != nil {
				return err
			}

			token, err := tm.Issue(info, ttl)
			if err != nil {
				return err
			}

			logger := helpers.NewLogger(cmd, cfg)
			logger.Debug().
				Str("level", string(auth.LevelOf(info))).
				Str("org_id", info.Organization()).
				Dur("ttl", ttl).
				Msg("Issued token")

			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	scope.AddFlags(cmd.Flags(), false)
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultTTL, "Token lifetime")
	return cmd
}
