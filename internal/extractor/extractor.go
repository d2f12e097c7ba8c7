// Package extractor finds the ticket identifiers mentioned in the commits a
// release introduced, relative to the release before it.
package extractor

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/clintrovert/release-tickets/internal/config"
	"github.com/clintrovert/release-tickets/pkg/types"
)

// ReleaseTagCount is how many tags a release comparison needs
const ReleaseTagCount = 2

// ErrInsufficientTags is returned when the repository has fewer than two tags
var ErrInsufficientTags = errors.New("at least two tags are required")

// Source reads tags and commits of a repository
type Source interface {
	ListTags(ctx context.Context, repo types.RepositoryInfo, limit int) ([]types.Tag, error)
	GetCommit(ctx context.Context, repo types.RepositoryInfo, ref string) (*types.Commit, error)
	ListCommits(ctx context.Context, repo types.RepositoryInfo, window types.TimeWindow) ([]types.Commit, error)
}

// Extractor runs the tag -> window -> commits -> tickets pipeline
type Extractor struct {
	source Source
	logger *zap.Logger
}

// New creates a new extractor reading from source
func New(source Source, logger *zap.Logger) *Extractor {
	return &Extractor{
		source: source,
		logger: logger,
	}
}

// ModeFor maps the all-matches setting onto a MatchMode
func ModeFor(allMatches bool) MatchMode {
	if allMatches {
		return MatchAll
	}
	return MatchFirst
}

// Extract returns the distinct ticket identifiers, in first-seen order,
// mentioned by the commits of the latest release. An empty result is not an error.
func (e *Extractor) Extract(ctx context.Context, cfg config.Config) ([]string, error) {
	result, err := e.ExtractRelease(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return result.Tickets, nil
}

// ExtractRelease is Extract plus the tags and window the tickets were found in
func (e *Extractor) ExtractRelease(ctx context.Context, cfg config.Config) (*types.ExtractionResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	repo := cfg.Repository
	matcher := NewMatcher(cfg.ProjectKey, ModeFor(cfg.AllMatches))

	e.logger.Info("starting ticket extraction", zap.String("repository", repo.FullName()))
	e.logger.Info("using project key",
		zap.String("project_key", matcher.ProjectKey()),
		zap.String("pattern", matcher.Pattern()),
	)
	if cfg.ProjectKey == "" {
		e.logger.Warn("project key is empty, any hyphen followed by digits will match")
	}

	latestTag, previousTag, err := e.releaseTags(ctx, repo)
	if err != nil {
		return nil, err
	}

	latest, previous, err := e.tagCommits(ctx, repo, latestTag, previousTag)
	if err != nil {
		return nil, err
	}

	window := types.NewTimeWindow(previous, latest)

	commits, err := e.source.ListCommits(ctx, repo, window)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list commits")
	}

	for _, c := range commits {
		e.logger.Info("fetched commit",
			zap.String("sha", c.SHA),
			zap.String("message", c.Message),
		)
	}

	tickets := Collect(commits, matcher)

	e.logger.Info("found tickets",
		zap.Strings("tickets", tickets),
		zap.Int("count", len(tickets)),
	)

	return &types.ExtractionResult{
		Repository:  repo,
		LatestTag:   latestTag,
		PreviousTag: previousTag,
		Window:      window,
		Tickets:     tickets,
	}, nil
}

// Collect applies m to every commit message and de-duplicates the matches
func Collect(commits []types.Commit, m *Matcher) []string {
	var matches []string
	for _, c := range commits {
		matches = append(matches, m.Match(c.Message)...)
	}
	return Unique(matches)
}

// ReleaseTags picks the latest and previous tag out of a newest-first listing
func ReleaseTags(tags []types.Tag) (types.Tag, types.Tag, error) {
	if len(tags) < ReleaseTagCount {
		return types.Tag{}, types.Tag{}, errors.Wrapf(ErrInsufficientTags, "found %d", len(tags))
	}
	return tags[0], tags[1], nil
}

func (e *Extractor) releaseTags(ctx context.Context, repo types.RepositoryInfo) (types.Tag, types.Tag, error) {
	tags, err := e.source.ListTags(ctx, repo, ReleaseTagCount)
	if err != nil {
		return types.Tag{}, types.Tag{}, errors.Wrap(err, "failed to list tags")
	}

	latest, previous, err := ReleaseTags(tags)
	if err != nil {
		return types.Tag{}, types.Tag{}, err
	}

	e.logger.Info("comparing releases",
		zap.String("latest_tag", latest.Name),
		zap.String("previous_tag", previous.Name),
	)

	return latest, previous, nil
}

// tagCommits fetches both tag commits concurrently; either failure fails both
func (e *Extractor) tagCommits(ctx context.Context, repo types.RepositoryInfo, latestTag, previousTag types.Tag) (*types.Commit, *types.Commit, error) {
	var latest, previous *types.Commit

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := e.source.GetCommit(gctx, repo, latestTag.CommitSHA)
		if err != nil {
			return errors.Wrapf(err, "failed to get commit for tag %s", latestTag.Name)
		}
		latest = c
		return nil
	})
	g.Go(func() error {
		c, err := e.source.GetCommit(gctx, repo, previousTag.CommitSHA)
		if err != nil {
			return errors.Wrapf(err, "failed to get commit for tag %s", previousTag.Name)
		}
		previous = c
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return latest, previous, nil
}
