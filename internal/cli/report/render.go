package report

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/paylens/analytics/internal/cli/helpers"
	"github.com/paylens/analytics/internal/config"
	"github.com/paylens/analytics/internal/query"
)

// NewRenderCmd creates the 'render' command.
func NewRenderCmd() *cobra.Command {
	req := &Request{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the SQL of an analytics query",
		Long: `Build an analytics query from flags and print it without running it.

The tenant scope is always applied first, so every other filter can only
narrow it.

Examples:
  analytics render -t payment_attempt --org org_1 -s currency -a count -g currency --order-by count:desc
  analytics render -d clickhouse -t payment_attempts --token $TOKEN -a sum:amount:total --granularity 1h --time-bucket
  analytics render -t payment_attempt --org org_1 -s merchant_id,connector -a count -g merchant_id,connector --top-n 3 --top-n-by merchant_id
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := helpers.LoadConfig(cmd)
			if err != nil {
				return err
			}

			sql, err := Render(req, cfg, helpers.NewLogger(cmd, cfg))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), sql)
			return err
		},
	}

	helpers.AddDialectFlag(cmd, &req.Dialect)
	req.AddFlags(cmd.Flags())
	return cmd
}

// Render builds the query text of req.
func Render(req *Request, cfg *config.Config, logger zerolog.Logger) (string, error) {
	scope, err := req.Scope.Resolve(cfg.Auth)
	if err != nil {
		return "", err
	}

	switch req.Dialect {
	case helpers.DialectPostgres, "":
		return buildSQL[query.Postgres](req, nil, scope, logger)
	case helpers.DialectClickHouse:
		return buildSQL[query.ClickHouse](req, cfg.Engines(), scope, logger)
	default:
		return "", fmt.Errorf("unsupported dialect %q", req.Dialect)
	}
}

func buildSQL[D query.Dialect](req *Request, engines query.EngineResolver, scope query.AuthInfo, logger zerolog.Logger) (string, error) {
	b, err := Build[D](req, engines, scope)
	if err != nil {
		return "", err
	}
	return b.WithLogger(logger).Build()
}
