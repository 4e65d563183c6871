package report

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/paylens/analytics/internal/cli/helpers"
	"github.com/paylens/analytics/internal/config"
	cerrors "github.com/paylens/analytics/internal/errors"
	"github.com/paylens/analytics/internal/logging"
	"github.com/paylens/analytics/internal/query"
	"github.com/paylens/analytics/internal/store"
)

// NewRunCmd creates the 'run' command.
func NewRunCmd() *cobra.Command {
	req := &Request{}
	var format string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build an analytics query and run it",
		Long: `Build an analytics query from flags and run it against the configured
backend: the transactional backend for the postgres dialect and the
analytical backend for the clickhouse dialect.

Examples:
  analytics run -t payment_attempt --org org_1 -s currency -a count -g currency
  analytics run -d clickhouse -t payment_attempts --token $TOKEN -a count --granularity 15m -o csv
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := helpers.ValidateFormat(format, helpers.SupportedFormats); err != nil {
				return err
			}
			formatter, err := helpers.NewFormatter(helpers.OutputFormat(format))
			if err != nil {
				return err
			}

			cfg, err := helpers.LoadConfig(cmd)
			if err != nil {
				return err
			}

			rows, err := Run(cmd.Context(), req, cfg, helpers.NewLogger(cmd, cfg))
			if err != nil {
				return err
			}
			return formatter.Format(helpers.NewResult(rows, req.PreferredColumns()...), cmd.OutOrStdout())
		},
	}

	helpers.AddDialectFlag(cmd, &req.Dialect)
	helpers.AddFormatFlag(cmd, &format, helpers.FormatTable, helpers.SupportedFormats)
	req.AddFlags(cmd.Flags())
	return cmd
}

// Run builds req and executes it on the backend of its dialect.
func Run(ctx context.Context, req *Request, cfg *config.Config, logger zerolog.Logger) ([]map[string]any, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	scope, err := req.Scope.Resolve(cfg.Auth)
	if err != nil {
		return nil, err
	}

	switch req.Dialect {
	case helpers.DialectPostgres, "":
		return runOn[query.Postgres](ctx, req, nil, scope, cfg.Transactional, cfg.Retry, logger)
	case helpers.DialectClickHouse:
		return runOn[query.ClickHouse](ctx, req, cfg.Engines(), scope, cfg.Analytical, cfg.Retry, logger)
	default:
		return nil, fmt.Errorf("unsupported dialect %q", req.Dialect)
	}
}

func runOn[D query.Dialect](
	ctx context.Context,
	req *Request,
	engines query.EngineResolver,
	scope query.AuthInfo,
	backend config.BackendConfig,
	retryCfg config.RetryConfig,
	logger zerolog.Logger,
) ([]map[string]any, error) {
	b, err := Build[D](req, engines, scope)
	if err != nil {
		return nil, err
	}
	b.WithLogger(logger)

	backendLogger := logging.WithBackend(logger, backend.Driver)
	db, err := store.Open(ctx, backend, backendLogger)
	if err != nil {
		return nil, err
	}
	defer cerrors.DeferClose(backendLogger, db, "failed to close backend pool")

	loader := store.NewSQLLoader[D, map[string]any](db,
		store.WithRetry(store.RetryConfig(retryCfg)),
		store.WithTimeout(backend.QueryTimeout),
		store.WithLogger(backendLogger),
	)
	return query.Execute[D, map[string]any](ctx, b, loader)
}
