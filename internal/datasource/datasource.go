// Package datasource builds the extractor.Source selected by configuration.
package datasource

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/clintrovert/release-tickets/internal/config"
	"github.com/clintrovert/release-tickets/internal/extractor"
	"github.com/clintrovert/release-tickets/internal/github"
	"github.com/clintrovert/release-tickets/internal/gitlocal"
)

// New returns the GitHub API source or the local clone source
func New(cfg config.Config, logger *zap.Logger) (extractor.Source, error) {
	switch cfg.Source {
	case config.SourceGitHub:
		if cfg.APIURL == "" || cfg.APIURL == config.DefaultAPIURL {
			return github.NewClient(cfg.Token, logger), nil
		}
		return github.NewEnterpriseClient(cfg.Token, cfg.APIURL, logger)
	case config.SourceLocal:
		return gitlocal.NewClient(cfg.Token, cfg.WorkspaceDir, logger), nil
	default:
		return nil, errors.Wrapf(config.ErrInvalidSource, "%q", string(cfg.Source))
	}
}
