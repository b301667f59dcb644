package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/ralphctl/ralphctl/internal/scaffold"
)

func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize a new .ralph-ui/ directory with a drafted config and PRD",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir, err := os.Getwd()
			if err != nil {
				return err
			}
			return scaffold.Init(ctx, dir)
		},
	}
}
