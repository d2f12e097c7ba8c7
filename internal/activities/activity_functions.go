package activities

import (
	"context"

	"go.temporal.io/sdk/temporal"

	"github.com/clintrovert/release-tickets/pkg/types"
)

// Activity functions that will be registered with Temporal worker
// These are wrapper functions that call the actual activity implementations

var sourceActivities *SourceActivities

// SetSourceActivities sets the source activities implementation
func SetSourceActivities(sa *SourceActivities) {
	sourceActivities = sa
}

func notInitialized() error {
	return temporal.NewNonRetryableApplicationError("source activities not initialized", "NotInitialized", nil)
}

// PrepareRepositoryActivity is the activity function for cloning or updating a repository
func PrepareRepositoryActivity(ctx context.Context, repo types.RepositoryInfo) error {
	if sourceActivities == nil {
		return notInitialized()
	}
	return sourceActivities.PrepareRepositoryActivity(ctx, repo)
}

// ListTagsActivity is the activity function for listing tags
func ListTagsActivity(ctx context.Context, repo types.RepositoryInfo, limit int) ([]types.Tag, error) {
	if sourceActivities == nil {
		return nil, notInitialized()
	}
	return sourceActivities.ListTagsActivity(ctx, repo, limit)
}

// GetCommitActivity is the activity function for fetching a commit
func GetCommitActivity(ctx context.Context, repo types.RepositoryInfo, ref string) (*types.Commit, error) {
	if sourceActivities == nil {
		return nil, notInitialized()
	}
	return sourceActivities.GetCommitActivity(ctx, repo, ref)
}

// ListCommitsActivity is the activity function for listing commits in a window
func ListCommitsActivity(ctx context.Context, repo types.RepositoryInfo, window types.TimeWindow) ([]types.Commit, error) {
	if sourceActivities == nil {
		return nil, notInitialized()
	}
	return sourceActivities.ListCommitsActivity(ctx, repo, window)
}
