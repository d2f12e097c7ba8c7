package temporal

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/clintrovert/release-tickets/internal/temporal/workflows"
	"github.com/clintrovert/release-tickets/pkg/types"
)

// Client wraps Temporal client functionality
type Client struct {
	temporalClient client.Client
	logger         *zap.Logger
	taskQueue      string
	newID          func() string
}

// NewClient creates a new Temporal client
func NewClient(address, namespace, taskQueue string, logger *zap.Logger) (*Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  address,
		Namespace: namespace,
		Logger:    NewLogger(logger),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create temporal client")
	}

	return Wrap(c, taskQueue, logger), nil
}

// Wrap builds a Client around an existing SDK client
func Wrap(c client.Client, taskQueue string, logger *zap.Logger) *Client {
	return &Client{
		temporalClient: c,
		logger:         logger,
		taskQueue:      taskQueue,
		newID:          uuid.NewString,
	}
}

// SDK exposes the underlying SDK client, e.g. for creating a worker
func (c *Client) SDK() client.Client {
	return c.temporalClient
}

// StartExtraction starts a new extraction workflow. Every call gets its own
// workflow, even for the same repository and inputs.
func (c *Client) StartExtraction(ctx context.Context, input workflows.ExtractionInput) (string, error) {
	workflowID := fmt.Sprintf("extraction-%s-%s-%s", input.Repository.Owner, input.Repository.Name, c.newID())

	workflowOptions := client.StartWorkflowOptions{
		ID:                                       workflowID,
		TaskQueue:                                c.taskQueue,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}

	we, err := c.temporalClient.ExecuteWorkflow(ctx, workflowOptions, workflows.ExtractionWorkflow, input)
	if err != nil {
		return "", errors.Wrap(err, "failed to start workflow")
	}

	c.logger.Info("started workflow",
		zap.String("workflow_id", we.GetID()),
		zap.String("run_id", we.GetRunID()),
		zap.String("repository", input.Repository.FullName()),
	)

	return we.GetID(), nil
}

// GetExtractionResult blocks until the workflow completes and returns its result
func (c *Client) GetExtractionResult(ctx context.Context, workflowID string) (*types.ExtractionResult, error) {
	run := c.temporalClient.GetWorkflow(ctx, workflowID, "")

	var result types.ExtractionResult
	if err := run.Get(ctx, &result); err != nil {
		return nil, errors.Wrapf(err, "workflow %s failed", workflowID)
	}

	return &result, nil
}

// CancelExtraction cancels a running workflow
func (c *Client) CancelExtraction(ctx context.Context, workflowID string) error {
	return c.temporalClient.CancelWorkflow(ctx, workflowID, "")
}

// Close closes the Temporal client
func (c *Client) Close() {
	c.temporalClient.Close()
}
