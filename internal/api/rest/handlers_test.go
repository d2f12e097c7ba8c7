package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clintrovert/release-tickets/internal/temporal/workflows"
	"github.com/clintrovert/release-tickets/pkg/types"
)

type fakeRunner struct {
	mu        sync.Mutex
	started   []workflows.ExtractionInput
	results   map[string]*types.ExtractionResult
	cancelled []string
	startErr  error
}

func (f *fakeRunner) StartExtraction(ctx context.Context, input workflows.ExtractionInput) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return "", f.startErr
	}
	f.started = append(f.started, input)
	return "extraction-" + input.Repository.Owner + "-" + input.Repository.Name, nil
}

func (f *fakeRunner) GetExtractionResult(ctx context.Context, workflowID string) (*types.ExtractionResult, error) {
	result, ok := f.results[workflowID]
	if !ok {
		return nil, errors.Newf("workflow %s not found", workflowID)
	}
	return result, nil
}

func (f *fakeRunner) CancelExtraction(ctx context.Context, workflowID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, workflowID)
	return nil
}

func newServer(runner *fakeRunner) *httptest.Server {
	return httptest.NewServer(NewRouter(NewHandler(runner, zap.NewNop())))
}

func TestStartExtraction(t *testing.T) {
	runner := &fakeRunner{}
	server := newServer(runner)
	defer server.Close()

	body := `{"owner":"acme","repository":"widgets","project_key":"ABC","all_matches":true}`
	resp, err := http.Post(server.URL+"/api/v1/extractions", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var out StartExtractionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "extraction-acme-widgets", out.WorkflowID)
	assert.Equal(t, "started", out.Status)

	runner.mu.Lock()
	defer runner.mu.Unlock()
	require.Len(t, runner.started, 1)
	assert.Equal(t, workflows.ExtractionInput{
		Repository: types.RepositoryInfo{Owner: "acme", Name: "widgets"},
		ProjectKey: "ABC",
		AllMatches: true,
	}, runner.started[0])
}

func TestStartExtraction_BadRequest(t *testing.T) {
	server := newServer(&fakeRunner{})
	defer server.Close()

	for _, body := range []string{`not json`, `{"owner":"acme"}`} {
		resp, err := http.Post(server.URL+"/api/v1/extractions", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
}

func TestStartExtraction_RunnerError(t *testing.T) {
	server := newServer(&fakeRunner{startErr: errors.New("temporal unavailable")})
	defer server.Close()

	resp, err := http.Post(server.URL+"/api/v1/extractions", "application/json",
		strings.NewReader(`{"owner":"acme","repository":"widgets"}`))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestGetExtraction(t *testing.T) {
	runner := &fakeRunner{results: map[string]*types.ExtractionResult{
		"wf-1": {Tickets: []string{"ABC-10"}, LatestTag: types.Tag{Name: "v1.1"}},
	}}
	server := newServer(runner)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/v1/extractions/wf-1")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result types.ExtractionResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, []string{"ABC-10"}, result.Tickets)
	assert.Equal(t, "v1.1", result.LatestTag.Name)

	missing, err := http.Get(server.URL + "/api/v1/extractions/wf-2")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusBadGateway, missing.StatusCode)
}

func TestCancelExtraction(t *testing.T) {
	runner := &fakeRunner{}
	server := newServer(runner)
	defer server.Close()

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/api/v1/extractions/wf-1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.Equal(t, []string{"wf-1"}, runner.cancelled)
}

func TestHealth(t *testing.T) {
	server := newServer(&fakeRunner{})
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
