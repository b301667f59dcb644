package main

import (
	"context"
	"fmt"

	cli "github.com/urfave/cli/v3"

	"github.com/ralphctl/ralphctl/internal/requirement"
	"github.com/ralphctl/ralphctl/internal/snapshot"
	"github.com/ralphctl/ralphctl/internal/store"
	"github.com/ralphctl/ralphctl/internal/tui"
)

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Watch a running execution's live status",
		ArgsUsage: "<execution-id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			executionID := cmd.Args().First()
			if executionID == "" {
				return fmt.Errorf("execution-id argument is required")
			}

			projectRoot, err := findProjectRoot()
			if err != nil {
				return err
			}
			cfg, err := loadConfig(projectRoot)
			if err != nil {
				return err
			}
			fs, err := store.Open(projectRoot)
			if err != nil {
				return err
			}
			snaps := snapshot.New(fs)

			listReqs := func() []*requirement.Requirement {
				reqs, _, err := loadRequirements(fs, cfg.PRDName)
				if err != nil {
					return nil
				}
				return reqs.All()
			}

			return tui.Run(snaps, executionID, listReqs)
		},
	}
}
