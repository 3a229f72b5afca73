package cli

import (
	"context"

	"github.com/forgehq/xcforge/internal/build"
	"github.com/forgehq/xcforge/internal/host"
	"github.com/forgehq/xcforge/internal/validate"
)

// Represents the 'xcforge validate' command.
type ValidateCmd struct {
	ConfigFlags `embed:""`
}

// Executes the validate command against an existing installation.
func (c *ValidateCmd) Run(ctx context.Context) error {
	cfg, err := build.Derive(c.Options())
	if err != nil {
		return err
	}
	return validate.Run(ctx, cfg, host.Exec{})
}
