// Package temporaladapter starts export workflows on a Temporal cluster.
package temporaladapter

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/client"

	"github.com/samirrijal/mapart/internal/core/domain"
	"github.com/samirrijal/mapart/internal/workflows"
)

// Starter implements ports.JobStarter.
type Starter struct {
	client    client.Client
	taskQueue string
}

// Dial connects to Temporal.
func Dial(hostPort, namespace string) (client.Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  hostPort,
		Namespace: namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("temporal client: %w", err)
	}
	return c, nil
}

// NewStarter creates a Starter. An empty taskQueue uses workflows.TaskQueue.
func NewStarter(c client.Client, taskQueue string) *Starter {
	if taskQueue == "" {
		taskQueue = workflows.TaskQueue
	}
	return &Starter{client: c, taskQueue: taskQueue}
}

// StartExport launches ExportWorkflow for req and returns the workflow ID.
func (s *Starter) StartExport(ctx context.Context, req domain.ExportRequest) (string, error) {
	run, err := s.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "export-" + req.JobID,
		TaskQueue: s.taskQueue,
	}, workflows.ExportWorkflow, req)
	if err != nil {
		return "", err
	}
	return run.GetID(), nil
}
