package main

import (
	"context"
	"fmt"

	cli "github.com/urfave/cli/v3"

	"github.com/ralphctl/ralphctl/internal/doctor"
	"github.com/ralphctl/ralphctl/internal/store"
)

func doctorCmd() *cli.Command {
	return &cli.Command{
		Name:      "doctor",
		Usage:     "Diagnose a failed requirement's agent run using AI",
		ArgsUsage: "<requirement-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "agent", Usage: "Agent id the failed attempt ran under (defaults to the latest snapshot's current agent)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			reqID := cmd.Args().First()
			if reqID == "" {
				return fmt.Errorf("requirement-id argument is required")
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
			reqs, _, err := loadRequirements(fs, cfg.PRDName)
			if err != nil {
				return err
			}
			req, ok := reqs.Get(reqID)
			if !ok {
				return fmt.Errorf("no requirement %q in PRD %s", reqID, cfg.PRDName)
			}

			snap, err := latestSnapshot(fs)
			if err != nil {
				return err
			}

			agentID := cmd.String("agent")
			if agentID == "" && snap != nil {
				agentID = snap.CurrentAgentID
			}

			return doctor.Run(ctx, fs, cfg, snap, req, agentID)
		},
	}
}
