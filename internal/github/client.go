package github

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/go-github/v57/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/clintrovert/release-tickets/pkg/types"
)

// commitsPerPage bounds ListCommits to a single page
const commitsPerPage = 100

// Client reads tags and commits through the GitHub REST API
type Client struct {
	apiClient *github.Client
	logger    *zap.Logger
}

// NewClient creates a new GitHub client authenticated with accessToken
func NewClient(accessToken string, logger *zap.Logger) *Client {
	ctx := context.Background()
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: accessToken},
	)
	tc := oauth2.NewClient(ctx, ts)

	return &Client{
		apiClient: github.NewClient(tc),
		logger:    logger,
	}
}

// NewEnterpriseClient creates a client for a GitHub Enterprise Server instance
func NewEnterpriseClient(accessToken, baseURL string, logger *zap.Logger) (*Client, error) {
	c := NewClient(accessToken, logger)

	apiClient, err := c.apiClient.WithEnterpriseURLs(baseURL, baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to configure enterprise url")
	}
	c.apiClient = apiClient

	return c, nil
}

// ListTags lists up to limit tags, newest first
func (c *Client) ListTags(ctx context.Context, repo types.RepositoryInfo, limit int) ([]types.Tag, error) {
	tags, _, err := c.apiClient.Repositories.ListTags(ctx, repo.Owner, repo.Name, &github.ListOptions{
		PerPage: limit,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tags")
	}

	result := make([]types.Tag, 0, len(tags))
	for _, tag := range tags {
		result = append(result, types.Tag{
			Name:      tag.GetName(),
			CommitSHA: tag.GetCommit().GetSHA(),
		})
	}

	c.logger.Debug("listed tags",
		zap.String("repository", repo.FullName()),
		zap.Int("count", len(result)),
	)

	return result, nil
}

// GetCommit fetches a single commit, including its committer date
func (c *Client) GetCommit(ctx context.Context, repo types.RepositoryInfo, ref string) (*types.Commit, error) {
	commit, _, err := c.apiClient.Repositories.GetCommit(ctx, repo.Owner, repo.Name, ref, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get commit %s", ref)
	}

	result := toCommit(commit)
	if result.SHA == "" {
		result.SHA = ref
	}

	return &result, nil
}

// ListCommits lists the commits of the default branch committed within window
func (c *Client) ListCommits(ctx context.Context, repo types.RepositoryInfo, window types.TimeWindow) ([]types.Commit, error) {
	commits, _, err := c.apiClient.Repositories.ListCommits(ctx, repo.Owner, repo.Name, &github.CommitsListOptions{
		Since: window.Start,
		Until: window.End,
		ListOptions: github.ListOptions{
			PerPage: commitsPerPage,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list commits")
	}

	result := make([]types.Commit, 0, len(commits))
	for _, commit := range commits {
		result = append(result, toCommit(commit))
	}

	c.logger.Debug("listed commits",
		zap.String("repository", repo.FullName()),
		zap.Time("since", window.Start),
		zap.Time("until", window.End),
		zap.Int("count", len(result)),
	)

	return result, nil
}

func toCommit(rc *github.RepositoryCommit) types.Commit {
	return types.Commit{
		SHA:           rc.GetSHA(),
		Message:       rc.GetCommit().GetMessage(),
		CommitterDate: rc.GetCommit().GetCommitter().GetDate().Time,
	}
}
