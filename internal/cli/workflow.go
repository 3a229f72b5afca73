package cli

import (
	"context"

	"github.com/forgehq/xcforge/internal/build"
	"github.com/forgehq/xcforge/internal/workflow"
)

// Represents the 'xcforge workflow' command.
type WorkflowCmd struct {
	ConfigFlags `embed:""`

	Output string `short:"o" help:"Workflow output path." default:"${workflow_path}" placeholder:"PATH"`
}

// Executes the workflow command.
//
// Derives the configuration and writes a GitHub Actions workflow whose
// dispatch inputs default to it.
func (c *WorkflowCmd) Run(ctx context.Context) error {
	cfg, err := build.Derive(c.Options())
	if err != nil {
		return err
	}
	return workflow.Save(cfg, c.Output)
}
