package activities

import (
	"context"

	"go.temporal.io/sdk/activity"
	"go.uber.org/zap"

	"github.com/clintrovert/release-tickets/internal/extractor"
	"github.com/clintrovert/release-tickets/pkg/types"
)

// SourceActivities exposes an extractor.Source to workflows
type SourceActivities struct {
	source extractor.Source
	logger *zap.Logger
}

// NewSourceActivities creates a new source activities handler
func NewSourceActivities(source extractor.Source, logger *zap.Logger) *SourceActivities {
	return &SourceActivities{
		source: source,
		logger: logger,
	}
}

// repositoryPreparer is implemented by sources that read from a local clone
type repositoryPreparer interface {
	EnsureRepository(ctx context.Context, repo types.RepositoryInfo) (string, error)
}

// PrepareRepositoryActivity clones or updates the repository for sources
// that need a local copy. Other sources have nothing to prepare.
func (a *SourceActivities) PrepareRepositoryActivity(ctx context.Context, repo types.RepositoryInfo) error {
	preparer, ok := a.source.(repositoryPreparer)
	if !ok {
		return nil
	}

	logger := activity.GetLogger(ctx)
	logger.Info("preparing repository", "repository", repo.FullName())

	repoPath, err := preparer.EnsureRepository(ctx, repo)
	if err != nil {
		return err
	}

	a.logger.Info("repository ready",
		zap.String("repository", repo.FullName()),
		zap.String("path", repoPath),
	)

	return nil
}

// ListTagsActivity lists the newest tags of a repository
func (a *SourceActivities) ListTagsActivity(ctx context.Context, repo types.RepositoryInfo, limit int) ([]types.Tag, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("listing tags", "repository", repo.FullName(), "limit", limit)

	return a.source.ListTags(ctx, repo, limit)
}

// GetCommitActivity fetches the commit a tag points at
func (a *SourceActivities) GetCommitActivity(ctx context.Context, repo types.RepositoryInfo, ref string) (*types.Commit, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("getting commit", "repository", repo.FullName(), "ref", ref)

	return a.source.GetCommit(ctx, repo, ref)
}

// ListCommitsActivity lists the commits inside a release window
func (a *SourceActivities) ListCommitsActivity(ctx context.Context, repo types.RepositoryInfo, window types.TimeWindow) ([]types.Commit, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("listing commits",
		"repository", repo.FullName(),
		"since", window.Start,
		"until", window.End,
	)

	commits, err := a.source.ListCommits(ctx, repo, window)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("listed commits for workflow",
		zap.String("repository", repo.FullName()),
		zap.Int("count", len(commits)),
	)

	return commits, nil
}
