package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/clintrovert/release-tickets/internal/action"
	"github.com/clintrovert/release-tickets/internal/config"
	"github.com/clintrovert/release-tickets/internal/datasource"
	"github.com/clintrovert/release-tickets/internal/extractor"
	"github.com/clintrovert/release-tickets/internal/gitlocal"
)

func main() {
	if err := newRootCmd(config.NewViper()).Execute(); err != nil {
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintln(os.Stderr, "hint:", hint)
		}
		os.Exit(1)
	}
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "release-tickets",
		Short: "List the issue tracker tickets referenced by the latest release",
		Long: `release-tickets compares the two most recent tags of a repository and
prints the distinct ticket identifiers (e.g. ABC-123) mentioned in the
commit messages in between, as a JSON array.

When GITHUB_OUTPUT is set the list is also published as the "tickets"
step output.`,
		SilenceUsage: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return config.BindFlags(v, cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := zap.NewProduction()
			if err != nil {
				return errors.Wrap(err, "failed to create logger")
			}
			defer logger.Sync()

			cfg, err := config.Load(v)
			if err != nil {
				return err
			}

			return run(cmd.Context(), cfg, logger, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.String("project-key", "", "issue tracker project key, e.g. ABC (env INPUT_PROJECT_KEY)")
	flags.String("repo", "", "repository as owner/name (env GITHUB_REPOSITORY)")
	flags.String("token", "", "GitHub access token (env GITHUB_TOKEN)")
	flags.String("source", string(config.SourceGitHub), "where to read history from: github or local")
	flags.String("workspace", "", "directory holding local clones (env WORKSPACE_DIR)")
	flags.Bool("all-matches", false, "take every ticket in a commit message, not only the first")

	return cmd
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger, out io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	source, err := datasource.New(cfg, logger)
	if err != nil {
		return err
	}

	if local, ok := source.(*gitlocal.Client); ok {
		if _, err := local.EnsureRepository(ctx, cfg.Repository); err != nil {
			return err
		}
	}

	tickets, err := extractor.New(source, logger).Extract(ctx, cfg)
	if err != nil {
		return err
	}

	encoded, err := action.EncodeTickets(tickets)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, encoded)

	if cfg.OutputFile != "" {
		if err := action.WriteOutput(cfg.OutputFile, action.TicketsOutput, encoded); err != nil {
			return err
		}
		logger.Info("published step output",
			zap.String("name", action.TicketsOutput),
			zap.Int("count", len(tickets)),
		)
	}

	return nil
}
