package main

import (
	"context"

	cli "github.com/urfave/cli/v3"
)

// resumeCmd re-enters the loop for a PRD whose prior run left
// requirements in-progress: persisted requirement status (see
// persistRequirements) picks back up where the last run stopped, so
// resuming is a normal runLoop call rather than a distinct code path.
// The execution id argument ux.ResumeHint prints is accepted but not
// read — a fresh execution id is always minted, since the stopped
// run's in-memory orchestrator is gone.
func resumeCmd() *cli.Command {
	return &cli.Command{
		Name:      "resume",
		Usage:     "Resume a previously interrupted or failed execution",
		ArgsUsage: "[execution-id]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "prd", Usage: "PRD name (overrides prd-name in config.yaml)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := requireOutsideAgentSession(); err != nil {
				return err
			}

			projectRoot, err := findProjectRoot()
			if err != nil {
				return err
			}
			cfg, err := loadConfig(projectRoot)
			if err != nil {
				return err
			}
			if prdName := cmd.String("prd"); prdName != "" {
				cfg.PRDName = prdName
			}

			return runLoop(ctx, projectRoot, cfg)
		},
	}
}
