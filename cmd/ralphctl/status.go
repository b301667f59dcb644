package main

import (
	"context"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/ralphctl/ralphctl/internal/snapshot"
	"github.com/ralphctl/ralphctl/internal/store"
	"github.com/ralphctl/ralphctl/internal/ux"
)

func statusCmd() *cli.Command {
	return &cli.Command{
		Name:      "status",
		Usage:     "Show requirement and execution status for a PRD",
		ArgsUsage: "[prd-name]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			projectRoot, err := findProjectRoot()
			if err != nil {
				return err
			}
			cfg, err := loadConfig(projectRoot)
			if err != nil {
				return err
			}
			prdName := cmd.Args().First()
			if prdName == "" {
				prdName = cfg.PRDName
			}

			fs, err := store.Open(projectRoot)
			if err != nil {
				return err
			}
			reqs, _, err := loadRequirements(fs, prdName)
			if err != nil {
				return err
			}
			w, err := loadOrInitWorkflow(fs, prdName, time.Now())
			if err != nil {
				return err
			}

			snap, err := latestSnapshot(fs)
			if err != nil {
				return err
			}

			ux.RenderStatus(w, reqs.All(), snap)
			return nil
		},
	}
}

// latestSnapshot returns the most recently updated live snapshot, or
// nil if none exist.
func latestSnapshot(fs *store.Store) (*snapshot.Snapshot, error) {
	snaps := snapshot.New(fs)
	ids := snaps.ListLive()
	if len(ids) == 0 {
		ids, _ = fs.ListSnapshotIDs()
	}
	var latest *snapshot.Snapshot
	for _, id := range ids {
		snap, err := snaps.Get(id)
		if err != nil {
			continue
		}
		if latest == nil || snap.UpdatedAt.After(latest.UpdatedAt) {
			latest = snap
		}
	}
	if latest == nil {
		return nil, nil
	}
	return latest, nil
}
