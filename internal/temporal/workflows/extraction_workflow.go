package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/clintrovert/release-tickets/internal/activities"
	"github.com/clintrovert/release-tickets/internal/extractor"
	"github.com/clintrovert/release-tickets/pkg/types"
)

// ExtractionWorkflow finds the tickets referenced by the latest release of a repository
func ExtractionWorkflow(ctx workflow.Context, input ExtractionInput) (*types.ExtractionResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("starting extraction workflow",
		"repository", input.Repository.FullName(),
	)

	// Failures surface immediately; the caller decides whether to rerun
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	matcher := extractor.NewMatcher(input.ProjectKey, extractor.ModeFor(input.AllMatches))
	logger.Info("using project key",
		"project_key", matcher.ProjectKey(),
		"pattern", matcher.Pattern(),
	)

	// Step 1: Make the repository readable by the source
	err := workflow.ExecuteActivity(ctx, activities.PrepareRepositoryActivity, input.Repository).Get(ctx, nil)
	if err != nil {
		logger.Error("failed to prepare repository", "error", err)
		return nil, err
	}

	// Step 2: Find the two release tags
	var tags []types.Tag
	err = workflow.ExecuteActivity(ctx, activities.ListTagsActivity, input.Repository, extractor.ReleaseTagCount).Get(ctx, &tags)
	if err != nil {
		logger.Error("failed to list tags", "error", err)
		return nil, err
	}

	latestTag, previousTag, err := extractor.ReleaseTags(tags)
	if err != nil {
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), "InsufficientTags", err)
	}

	// Step 3: Fetch both tag commits concurrently
	latestFuture := workflow.ExecuteActivity(ctx, activities.GetCommitActivity, input.Repository, latestTag.CommitSHA)
	previousFuture := workflow.ExecuteActivity(ctx, activities.GetCommitActivity, input.Repository, previousTag.CommitSHA)

	var latest, previous types.Commit
	if err := latestFuture.Get(ctx, &latest); err != nil {
		logger.Error("failed to get latest tag commit", "tag", latestTag.Name, "error", err)
		return nil, err
	}
	if err := previousFuture.Get(ctx, &previous); err != nil {
		logger.Error("failed to get previous tag commit", "tag", previousTag.Name, "error", err)
		return nil, err
	}

	// Step 4: List the commits of the release
	window := types.NewTimeWindow(&previous, &latest)

	var commits []types.Commit
	err = workflow.ExecuteActivity(ctx, activities.ListCommitsActivity, input.Repository, window).Get(ctx, &commits)
	if err != nil {
		logger.Error("failed to list commits", "error", err)
		return nil, err
	}

	for _, c := range commits {
		logger.Info("fetched commit", "sha", c.SHA, "message", c.Message)
	}

	// Step 5: Match
	tickets := extractor.Collect(commits, matcher)

	logger.Info("found tickets", "tickets", tickets, "count", len(tickets))

	return &types.ExtractionResult{
		Repository:  input.Repository,
		LatestTag:   latestTag,
		PreviousTag: previousTag,
		Window:      window,
		Tickets:     tickets,
	}, nil
}
