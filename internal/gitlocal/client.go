// Package gitlocal reads tags and commits from clones kept under a
// workspace directory, as <workspace>/<owner>/<name>.
package gitlocal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"go.uber.org/zap"

	"github.com/clintrovert/release-tickets/pkg/types"
)

// Client serves tags and commits from local clones
type Client struct {
	logger       *zap.Logger
	accessToken  string
	workspaceDir string
	remoteURL    func(repo types.RepositoryInfo) string
}

// NewClient creates a new local git client rooted at workspaceDir
func NewClient(accessToken, workspaceDir string, logger *zap.Logger) *Client {
	return &Client{
		logger:       logger,
		accessToken:  accessToken,
		workspaceDir: workspaceDir,
		remoteURL: func(repo types.RepositoryInfo) string {
			return fmt.Sprintf("https://github.com/%s/%s.git", repo.Owner, repo.Name)
		},
	}
}

// GetRepositoryPath returns where the clone of repo lives
func (c *Client) GetRepositoryPath(repo types.RepositoryInfo) string {
	return filepath.Join(c.workspaceDir, repo.Owner, repo.Name)
}

// WithRemoteURL overrides where repositories are cloned and fetched from
func (c *Client) WithRemoteURL(remoteURL func(repo types.RepositoryInfo) string) *Client {
	c.remoteURL = remoteURL
	return c
}

// EnsureRepository clones repo, or brings an existing clone's branches and
// tags up to date with origin
func (c *Client) EnsureRepository(ctx context.Context, repo types.RepositoryInfo) (string, error) {
	repoPath := c.GetRepositoryPath(repo)
	r, err := git.PlainOpen(repoPath)
	if err != nil {
		return c.CloneRepository(ctx, repo)
	}

	if err := c.fetch(ctx, r, repo); err != nil {
		return "", errors.Wrapf(err, "failed to update repository %s", repo.FullName())
	}

	return repoPath, nil
}

func (c *Client) fetch(ctx context.Context, r *git.Repository, repo types.RepositoryInfo) error {
	err := r.FetchContext(ctx, &git.FetchOptions{
		RemoteName: git.DefaultRemoteName,
		Tags:       git.AllTags,
		Force:      true,
		Auth:       c.auth(),
	})
	switch {
	case err == nil:
		c.logger.Info("fetched repository updates", zap.String("repository", repo.FullName()))
		return nil
	case errors.Is(err, git.NoErrAlreadyUpToDate):
		return nil
	case errors.Is(err, git.ErrRemoteNotFound):
		// A clone seeded by hand has nothing to fetch from
		c.logger.Debug("repository has no origin remote, skipping fetch", zap.String("repository", repo.FullName()))
		return nil
	default:
		return err
	}
}

func (c *Client) auth() transport.AuthMethod {
	if c.accessToken == "" {
		return nil
	}
	return &http.BasicAuth{
		Username: "x-access-token",
		Password: c.accessToken,
	}
}

// CloneRepository clones the full history and all tags of repo into the workspace
func (c *Client) CloneRepository(ctx context.Context, repo types.RepositoryInfo) (string, error) {
	repoPath := c.GetRepositoryPath(repo)

	// Remove existing directory if it exists
	if _, err := os.Stat(repoPath); err == nil {
		if err := os.RemoveAll(repoPath); err != nil {
			return "", errors.Wrap(err, "failed to remove stale clone")
		}
	}

	if err := os.MkdirAll(repoPath, 0755); err != nil {
		return "", errors.Wrap(err, "failed to create directory")
	}

	opts := &git.CloneOptions{
		URL:  c.remoteURL(repo),
		Tags: git.AllTags,
		Auth: c.auth(),
	}

	if _, err := git.PlainCloneContext(ctx, repoPath, false, opts); err != nil {
		return "", errors.Wrap(err, "failed to clone repository")
	}

	c.logger.Info("cloned repository",
		zap.String("owner", repo.Owner),
		zap.String("repo", repo.Name),
		zap.String("path", repoPath),
	)

	return repoPath, nil
}

type datedTag struct {
	tag  types.Tag
	when int64
}

// ListTags lists up to limit tags, newest tagged commit first.
// Tags on commits with equal timestamps are ordered by name, descending.
func (c *Client) ListTags(ctx context.Context, repo types.RepositoryInfo, limit int) ([]types.Tag, error) {
	r, err := c.open(repo)
	if err != nil {
		return nil, err
	}

	refs, err := r.Tags()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tags")
	}
	defer refs.Close()

	var tags []datedTag
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		commit, err := tagCommit(r, ref)
		if err != nil {
			return errors.Wrapf(err, "failed to resolve tag %s", ref.Name().Short())
		}

		tags = append(tags, datedTag{
			tag: types.Tag{
				Name:      ref.Name().Short(),
				CommitSHA: commit.Hash.String(),
			},
			when: commit.Committer.When.Unix(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(tags, func(i, j int) bool {
		if tags[i].when != tags[j].when {
			return tags[i].when > tags[j].when
		}
		return tags[i].tag.Name > tags[j].tag.Name
	})

	if limit > 0 && len(tags) > limit {
		tags = tags[:limit]
	}

	result := make([]types.Tag, 0, len(tags))
	for _, t := range tags {
		result = append(result, t.tag)
	}

	return result, nil
}

// GetCommit resolves ref (a hash, tag or branch) to its commit
func (c *Client) GetCommit(ctx context.Context, repo types.RepositoryInfo, ref string) (*types.Commit, error) {
	r, err := c.open(repo)
	if err != nil {
		return nil, err
	}

	hash, err := r.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve %s", ref)
	}

	commit, err := r.CommitObject(*hash)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get commit %s", ref)
	}

	result := toCommit(commit)
	return &result, nil
}

// ListCommits walks the history of the checked out branch, as last fetched
// from origin, and keeps commits committed within window
func (c *Client) ListCommits(ctx context.Context, repo types.RepositoryInfo, window types.TimeWindow) ([]types.Commit, error) {
	r, err := c.open(repo)
	if err != nil {
		return nil, err
	}

	tip, err := branchTip(r)
	if err != nil {
		return nil, err
	}

	since, until := window.Start, window.End
	iter, err := r.Log(&git.LogOptions{
		From:  tip,
		Since: &since,
		Until: &until,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to read log")
	}
	defer iter.Close()

	var result []types.Commit
	err = iter.ForEach(func(commit *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		result = append(result, toCommit(commit))
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to walk log")
	}

	c.logger.Debug("listed commits",
		zap.String("repository", repo.FullName()),
		zap.Time("since", since),
		zap.Time("until", until),
		zap.Int("count", len(result)),
	)

	return result, nil
}

func (c *Client) open(repo types.RepositoryInfo) (*git.Repository, error) {
	r, err := git.PlainOpen(c.GetRepositoryPath(repo))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open repository %s", repo.FullName())
	}
	return r, nil
}

// branchTip prefers origin's copy of the checked out branch, which fetches
// move, over the local branch, which they do not
func branchTip(r *git.Repository) (plumbing.Hash, error) {
	head, err := r.Head()
	if err != nil {
		return plumbing.ZeroHash, errors.Wrap(err, "failed to resolve HEAD")
	}

	if head.Name().IsBranch() {
		remoteName := plumbing.NewRemoteReferenceName(git.DefaultRemoteName, head.Name().Short())
		ref, err := r.Reference(remoteName, true)
		switch {
		case err == nil:
			return ref.Hash(), nil
		case !errors.Is(err, plumbing.ErrReferenceNotFound):
			return plumbing.ZeroHash, errors.Wrapf(err, "failed to resolve %s", remoteName)
		}
	}

	return head.Hash(), nil
}

// tagCommit peels annotated tags down to the commit they point at
func tagCommit(r *git.Repository, ref *plumbing.Reference) (*object.Commit, error) {
	tag, err := r.TagObject(ref.Hash())
	switch {
	case err == nil:
		return tag.Commit()
	case errors.Is(err, plumbing.ErrObjectNotFound):
		return r.CommitObject(ref.Hash())
	default:
		return nil, err
	}
}

func toCommit(commit *object.Commit) types.Commit {
	return types.Commit{
		SHA:           commit.Hash.String(),
		Message:       commit.Message,
		CommitterDate: commit.Committer.When.UTC(),
	}
}
