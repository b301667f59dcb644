// Command ralphctl runs the agent orchestration loop described by a
// project's .ralph-ui/config.yaml and PRD: spawn one coding agent per
// ready requirement, merge its work back, and repeat until every
// requirement passes or a limit is hit.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	cli "github.com/urfave/cli/v3"

	"github.com/ralphctl/ralphctl/internal/ux"
)

const configRelPath = ".ralph-ui/config.yaml"

func main() {
	app := &cli.Command{
		Name:        "ralphctl",
		Usage:       "Dependency-graph agent orchestrator",
		Description: "Run 'ralphctl docs' for documentation on config syntax, PRD format, and the execution model.",
		Commands: []*cli.Command{
			initCmd(),
			runCmd(),
			resumeCmd(),
			statusCmd(),
			watchCmd(),
			verifyCmd(),
			doctorCmd(),
			worktreeCmd(),
			docsCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ux.Red("error:"), err)
		os.Exit(1)
	}
}

// findProjectRoot walks up from cwd looking for .ralph-ui/config.yaml.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, configRelPath)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found (searched from cwd to root)", configRelPath)
		}
		dir = parent
	}
}

// requireOutsideAgentSession guards against running ralphctl from
// inside an agent session it would itself spawn a child agent from.
func requireOutsideAgentSession() error {
	if os.Getenv("CLAUDECODE") != "" {
		return fmt.Errorf("ralphctl cannot run inside Claude Code (CLAUDECODE env var is set). Run from a regular terminal")
	}
	return nil
}
