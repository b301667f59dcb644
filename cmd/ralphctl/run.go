package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	cli "github.com/urfave/cli/v3"

	"github.com/ralphctl/ralphctl/internal/agentproc"
	"github.com/ralphctl/ralphctl/internal/config"
	"github.com/ralphctl/ralphctl/internal/merge"
	"github.com/ralphctl/ralphctl/internal/obslog"
	"github.com/ralphctl/ralphctl/internal/orchestrator"
	"github.com/ralphctl/ralphctl/internal/snapshot"
	"github.com/ralphctl/ralphctl/internal/store"
	"github.com/ralphctl/ralphctl/internal/ux"
	"github.com/ralphctl/ralphctl/internal/vcs"
	"github.com/ralphctl/ralphctl/internal/worktree"
)

func runCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the agent loop for a PRD",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "prd", Usage: "PRD name (overrides prd-name in config.yaml)"},
			&cli.IntFlag{Name: "max-parallel", Usage: "Override max-parallel from config.yaml"},
			&cli.BoolFlag{Name: "sequential", Usage: "Force sequential execution (max-parallel 1)"},
			&cli.BoolFlag{Name: "dry-run", Usage: "Print the ready/blocked story plan without running"},
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
			if mp := cmd.Int("max-parallel"); mp > 0 {
				cfg.MaxParallel = int(mp)
			}
			if cmd.Bool("sequential") {
				cfg.ExecutionMode = config.ModeSequential
				cfg.MaxParallel = 1
			}
			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("invalid config after overrides: %w", err)
			}

			if cmd.Bool("dry-run") {
				fs, err := store.Open(projectRoot)
				if err != nil {
					return err
				}
				reqs, _, err := loadRequirements(fs, cfg.PRDName)
				if err != nil {
					return err
				}
				printPlan(reqs.All())
				return nil
			}

			return runLoop(ctx, projectRoot, cfg)
		},
	}
}

// runLoop wires every component a loop execution needs and drives it
// to a terminal state, wherever it was invoked from (run or resume).
func runLoop(ctx context.Context, projectRoot string, cfg *config.RalphLoopConfig) error {
	fs, err := store.Open(projectRoot)
	if err != nil {
		return err
	}
	reqs, _, err := loadRequirements(fs, cfg.PRDName)
	if err != nil {
		return err
	}

	if err := agentproc.Preflight(cfg.AgentKind); err != nil {
		return err
	}

	if _, err := loadOrInitWorkflow(fs, cfg.PRDName, time.Now()); err != nil {
		return fmt.Errorf("loading workflow: %w", err)
	}

	driver, err := openOrInitRepo(projectRoot)
	if err != nil {
		return err
	}

	pool := worktree.New(driver, projectRoot, cfg.PRDName, cfg.BaseBranch, cfg.MaxParallel)
	procs := agentproc.New(fs)

	var resolver merge.Resolver
	if cfg.Merge.AIResolve {
		resolver = merge.ClaudeResolver{
			Model:   cfg.Model,
			Timeout: time.Duration(cfg.Merge.ResolverTimeoutSeconds) * time.Second,
		}
	}
	var prOpener merge.PullRequestOpener
	if cfg.Merge.OpenPullRequest {
		prOpener = merge.GitHubPROpener{Driver: driver, Remote: cfg.Merge.Remote, Base: cfg.BaseBranch}
	}
	coord := merge.New(driver, pool, cfg.BaseBranch, cfg.Merge, resolver, prOpener)

	logger, err := obslog.New(projectRoot, zerolog.InfoLevel)
	if err != nil {
		return err
	}
	snaps := snapshot.New(fs)

	orch := orchestrator.New(*cfg, reqs, fs, snaps, pool, procs, coord, logger)
	orch.SetReporter(consoleReporter{})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runErr := orch.Run(ctx)
	if err := persistRequirements(fs, cfg.PRDName, reqs); err != nil {
		logger.Error().Err(err).Msg("failed to persist requirement status")
	}
	if runErr != nil {
		ux.ResumeHint(orch.ExecutionID())
		return runErr
	}
	ux.Success(len(reqs.All()))
	return nil
}

// openOrInitRepo opens projectRoot as a git repository, initializing
// one if it isn't already under version control.
func openOrInitRepo(projectRoot string) (*vcs.Driver, error) {
	if vcs.IsRepository(projectRoot) {
		return vcs.Open(projectRoot)
	}
	return vcs.Init(projectRoot)
}

// consoleReporter implements orchestrator.Reporter by printing through
// internal/ux, so a foreground run prints story lifecycle events
// without the orchestrator reaching outside its own lock.
type consoleReporter struct{}

func (consoleReporter) StoryStarted(id, title string)             { ux.StoryHeader(id, title) }
func (consoleReporter) StoryDone(id string, d time.Duration)      { ux.StoryComplete(id, d) }
func (consoleReporter) StoryRetrying(id string, attempt, max int) { ux.RetryBack(id, attempt, max) }
func (consoleReporter) StoryFailed(id, reason string)             { ux.StoryFail(id, reason) }
