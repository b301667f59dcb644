package main

import (
	"context"
	"fmt"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/ralphctl/ralphctl/internal/worktree"
)

// worktreeCmd groups worktree pool maintenance commands that fall
// outside the run loop itself.
func worktreeCmd() *cli.Command {
	return &cli.Command{
		Name:  "worktree",
		Usage: "Worktree pool maintenance",
		Commands: []*cli.Command{
			worktreeGCCmd(),
		},
	}
}

// worktreeGCCmd removes worktree directories a crashed process left
// behind. Deliberately manual rather than run automatically inside the
// loop — spec.md frames post-conflict reclamation as optional; the loop
// itself releases a story's worktree after a merge conflict. The pool
// built here holds no allocations, so every worktree directory older
// than --older-than is removed, including one a loop running in another
// process is still using.
func worktreeGCCmd() *cli.Command {
	return &cli.Command{
		Name:  "gc",
		Usage: "Remove orphaned worktree directories not tracked by a live allocation",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "prd", Usage: "PRD name (overrides prd-name in config.yaml)"},
			&cli.DurationFlag{Name: "older-than", Value: 24 * time.Hour, Usage: "minimum directory age before it is considered orphaned"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
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

			driver, err := openOrInitRepo(projectRoot)
			if err != nil {
				return err
			}
			pool := worktree.New(driver, projectRoot, cfg.PRDName, cfg.BaseBranch, cfg.MaxParallel)

			removed, err := pool.GC(cmd.Duration("older-than"), time.Now())
			if err != nil {
				return err
			}
			if len(removed) == 0 {
				fmt.Println("no orphaned worktrees found")
				return nil
			}
			for _, id := range removed {
				fmt.Printf("removed worktree for %s\n", id)
			}
			return nil
		},
	}
}
