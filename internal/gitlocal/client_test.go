package gitlocal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clintrovert/release-tickets/internal/config"
	"github.com/clintrovert/release-tickets/internal/extractor"
	"github.com/clintrovert/release-tickets/pkg/types"
)

var (
	repo = types.RepositoryInfo{Owner: "acme", Name: "widgets"}

	t1 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	t2 = time.Date(2024, 5, 8, 10, 0, 0, 0, time.UTC)
)

type testRepo struct {
	t *testing.T
	r *git.Repository
	w *git.Worktree
}

func initRepo(t *testing.T, path string) *testRepo {
	r, err := git.PlainInit(path, false)
	require.NoError(t, err)
	w, err := r.Worktree()
	require.NoError(t, err)
	return &testRepo{t: t, r: r, w: w}
}

func (tr *testRepo) commit(message string, when time.Time) plumbing.Hash {
	hash, err := tr.w.Commit(message, &git.CommitOptions{
		Author:            &object.Signature{Name: "Dev", Email: "dev@example.com", When: when},
		AllowEmptyCommits: true,
	})
	require.NoError(tr.t, err)
	return hash
}

func (tr *testRepo) tag(name string, hash plumbing.Hash, annotated bool) {
	var opts *git.CreateTagOptions
	if annotated {
		opts = &git.CreateTagOptions{
			Tagger:  &object.Signature{Name: "Dev", Email: "dev@example.com", When: t2.Add(time.Hour)},
			Message: "release " + name,
		}
	}
	_, err := tr.r.CreateTag(name, hash, opts)
	require.NoError(tr.t, err)
}

// seed builds: C0 v0.9, C1 v1.0 (t1), three feature commits, C2 v1.1 (t2, annotated)
func seed(t *testing.T, workspace string) (c1, c2 plumbing.Hash) {
	tr := initRepo(t, filepath.Join(workspace, repo.Owner, repo.Name))

	c0 := tr.commit("initial import", t1.Add(-24*time.Hour))
	tr.tag("v0.9", c0, false)

	c1 = tr.commit("ABC-1 release 1.0", t1)
	tr.tag("v1.0", c1, false)

	tr.commit("ABC-10 fix", t1.Add(time.Hour))
	tr.commit("unrelated change", t1.Add(2*time.Hour))
	tr.commit("ABC-10 duplicate mention\n\nalso touches ABC-11", t1.Add(3*time.Hour))

	c2 = tr.commit("Release 1.1", t2)
	tr.tag("v1.1", c2, true)

	return c1, c2
}

func TestClient_ListTags(t *testing.T) {
	workspace := t.TempDir()
	c1, c2 := seed(t, workspace)

	c := NewClient("", workspace, zap.NewNop())

	tags, err := c.ListTags(context.Background(), repo, 2)
	require.NoError(t, err)

	assert.Equal(t, []types.Tag{
		{Name: "v1.1", CommitSHA: c2.String()},
		{Name: "v1.0", CommitSHA: c1.String()},
	}, tags)

	all, err := c.ListTags(context.Background(), repo, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "v0.9", all[2].Name)
}

func TestClient_GetCommit(t *testing.T) {
	workspace := t.TempDir()
	c1, _ := seed(t, workspace)

	c := NewClient("", workspace, zap.NewNop())

	commit, err := c.GetCommit(context.Background(), repo, c1.String())
	require.NoError(t, err)
	assert.Equal(t, c1.String(), commit.SHA)
	assert.Equal(t, "ABC-1 release 1.0", commit.Message)
	assert.True(t, t1.Equal(commit.CommitterDate))

	byTag, err := c.GetCommit(context.Background(), repo, "v1.0")
	require.NoError(t, err)
	assert.Equal(t, c1.String(), byTag.SHA)

	_, err = c.GetCommit(context.Background(), repo, "does-not-exist")
	assert.Error(t, err)
}

func TestClient_ListCommits(t *testing.T) {
	workspace := t.TempDir()
	seed(t, workspace)

	c := NewClient("", workspace, zap.NewNop())

	commits, err := c.ListCommits(context.Background(), repo, types.TimeWindow{
		Start: t1.Add(time.Second),
		End:   t2,
	})
	require.NoError(t, err)

	var messages []string
	for _, commit := range commits {
		messages = append(messages, commit.Message)
	}
	assert.ElementsMatch(t, []string{
		"Release 1.1",
		"ABC-10 duplicate mention\n\nalso touches ABC-11",
		"unrelated change",
		"ABC-10 fix",
	}, messages)
}

func TestClient_MissingRepository(t *testing.T) {
	c := NewClient("", t.TempDir(), zap.NewNop())

	_, err := c.ListTags(context.Background(), repo, 2)
	assert.Error(t, err)
}

func TestClient_CloneRepository(t *testing.T) {
	upstream := t.TempDir()
	seed(t, upstream)

	workspace := t.TempDir()
	c := NewClient("", workspace, zap.NewNop()).WithRemoteURL(func(r types.RepositoryInfo) string {
		return filepath.Join(upstream, r.Owner, r.Name)
	})

	path, err := c.EnsureRepository(context.Background(), repo)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(workspace, "acme", "widgets"), path)

	tags, err := c.ListTags(context.Background(), repo, 0)
	require.NoError(t, err)
	assert.Len(t, tags, 3)

	// a second call reuses the clone
	again, err := c.EnsureRepository(context.Background(), repo)
	require.NoError(t, err)
	assert.Equal(t, path, again)
}

func TestClient_EnsureRepository_FetchesNewRelease(t *testing.T) {
	upstream := t.TempDir()
	seed(t, upstream)

	workspace := t.TempDir()
	c := NewClient("", workspace, zap.NewNop()).WithRemoteURL(func(r types.RepositoryInfo) string {
		return filepath.Join(upstream, r.Owner, r.Name)
	})

	_, err := c.EnsureRepository(context.Background(), repo)
	require.NoError(t, err)

	// upstream cuts v1.2 after the clone was made
	r, err := git.PlainOpen(filepath.Join(upstream, repo.Owner, repo.Name))
	require.NoError(t, err)
	w, err := r.Worktree()
	require.NoError(t, err)
	up := &testRepo{t: t, r: r, w: w}

	t3 := t2.Add(7 * 24 * time.Hour)
	up.commit("ABC-20 new feature", t3.Add(-time.Hour))
	c3 := up.commit("Release 1.2", t3)
	up.tag("v1.2", c3, false)

	_, err = c.EnsureRepository(context.Background(), repo)
	require.NoError(t, err)

	tags, err := c.ListTags(context.Background(), repo, 2)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "v1.2", tags[0].Name)
	assert.Equal(t, c3.String(), tags[0].CommitSHA)
	assert.Equal(t, "v1.1", tags[1].Name)

	tickets, err := extractor.New(c, zap.NewNop()).Extract(context.Background(), config.Config{
		ProjectKey: "ABC",
		Repository: repo,
		Source:     config.SourceLocal,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ABC-20"}, tickets)

	// nothing new upstream
	_, err = c.EnsureRepository(context.Background(), repo)
	require.NoError(t, err)
}

func TestClient_EnsureRepository_WithoutRemote(t *testing.T) {
	workspace := t.TempDir()
	seed(t, workspace)

	c := NewClient("", workspace, zap.NewNop())

	path, err := c.EnsureRepository(context.Background(), repo)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(workspace, "acme", "widgets"), path)

	tags, err := c.ListTags(context.Background(), repo, 2)
	require.NoError(t, err)
	assert.Equal(t, "v1.1", tags[0].Name)
}

func TestClient_ExtractEndToEnd(t *testing.T) {
	workspace := t.TempDir()
	seed(t, workspace)

	cfg := config.Config{
		ProjectKey: "abc",
		Repository: repo,
		Source:     config.SourceLocal,
	}

	tickets, err := extractor.New(NewClient("", workspace, zap.NewNop()), zap.NewNop()).Extract(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"ABC-10"}, tickets)

	cfg.AllMatches = true
	tickets, err = extractor.New(NewClient("", workspace, zap.NewNop()), zap.NewNop()).Extract(context.Background(), cfg)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ABC-10", "ABC-11"}, tickets)
}
