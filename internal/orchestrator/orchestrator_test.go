package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/rs/zerolog"

	"github.com/ralphctl/ralphctl/internal/agentproc"
	"github.com/ralphctl/ralphctl/internal/config"
	"github.com/ralphctl/ralphctl/internal/merge"
	"github.com/ralphctl/ralphctl/internal/ralpherr"
	"github.com/ralphctl/ralphctl/internal/requirement"
	"github.com/ralphctl/ralphctl/internal/snapshot"
	"github.com/ralphctl/ralphctl/internal/store"
	"github.com/ralphctl/ralphctl/internal/vcs"
	"github.com/ralphctl/ralphctl/internal/worktree"
)

func newTestOrchestrator(t *testing.T, cfg config.RalphLoopConfig) (*Orchestrator, *requirement.Store) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("base"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Add("README.md"); err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Commit("base", &git.CommitOptions{
		Author: &object.Signature{Name: "t", Email: "t@example.com"},
	}); err != nil {
		t.Fatal(err)
	}

	driver, err := vcs.Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	head, err := driver.CurrentBranch()
	if err != nil {
		t.Fatal(err)
	}

	fs, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	snaps := snapshot.New(fs)
	procs := agentproc.New(fs)
	pool := worktree.New(driver, dir, "test-prd", head.Name, 2)
	coord := merge.New(driver, pool, head.Name, config.MergePolicy{}, nil, nil)
	reqs := requirement.NewStore()

	if cfg.MaxParallel == 0 {
		cfg.MaxParallel = 2
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = 3
	}
	cfg.ProjectPath = dir
	cfg.BaseBranch = head.Name

	o := New(cfg, reqs, fs, snaps, pool, procs, coord, zerolog.Nop())
	return o, reqs
}

func TestTick_CompletesWhenAllStoriesPass(t *testing.T) {
	o, reqs := newTestOrchestrator(t, config.RalphLoopConfig{})
	reqs.Add(&requirement.Requirement{ID: "CORE-01", Title: "a", Status: requirement.StatusDone})

	done, err := o.tick(context.Background())
	if !done || err != nil {
		t.Fatalf("expected completion with no error, got done=%v err=%v", done, err)
	}

	snap, err := o.snaps.Get(o.executionID)
	if err != nil {
		t.Fatal(err)
	}
	if snap.State.Kind != snapshot.StateCompleted {
		t.Fatalf("expected snapshot state completed, got %q", snap.State.Kind)
	}
}

func TestTick_FailsWhenNoRunnableStories(t *testing.T) {
	o, reqs := newTestOrchestrator(t, config.RalphLoopConfig{})
	reqs.Add(&requirement.Requirement{
		ID: "CORE-02", Title: "b", Status: requirement.StatusBlocked, DependsOn: []string{"CORE-missing"},
	})

	done, err := o.tick(context.Background())
	if !done {
		t.Fatal("expected the stuck detector to terminate the loop")
	}
	if !ralpherr.Is(err, ralpherr.KindFatal) {
		t.Fatalf("expected a fatal stuck error, got %v", err)
	}
}

func TestTick_RespectsMaxIterations(t *testing.T) {
	o, reqs := newTestOrchestrator(t, config.RalphLoopConfig{MaxIterations: 1})
	reqs.Add(&requirement.Requirement{ID: "CORE-01", Title: "a", Status: requirement.StatusPending})
	o.iteration = 1

	done, err := o.tick(context.Background())
	if !done || !ralpherr.Is(err, ralpherr.KindFatal) {
		t.Fatalf("expected fatal max-iterations error, got done=%v err=%v", done, err)
	}
}

func TestCancel_ObservedOnNextTick(t *testing.T) {
	o, reqs := newTestOrchestrator(t, config.RalphLoopConfig{})
	reqs.Add(&requirement.Requirement{ID: "CORE-01", Title: "a", Status: requirement.StatusPending})
	o.Cancel()

	done, err := o.tick(context.Background())
	if !done || err != nil {
		t.Fatalf("expected clean cancellation, got done=%v err=%v", done, err)
	}
	snap, gerr := o.snaps.Get(o.executionID)
	if gerr != nil {
		t.Fatal(gerr)
	}
	if snap.State.Kind != snapshot.StateCancelled {
		t.Fatalf("expected cancelled state, got %q", snap.State.Kind)
	}
}

func TestSpawnStory_ReleasesWorktreeWhenAgentSpawnFails(t *testing.T) {
	o, _ := newTestOrchestrator(t, config.RalphLoopConfig{AgentKind: "unknown-kind"})
	s := Story{ID: "CORE-01", Title: "broken"}

	o.spawnStory(context.Background(), s)

	if _, active := o.pool.Get(s.ID); active {
		t.Fatal("expected worktree to be released after a failed spawn")
	}
	o.mu.Lock()
	_, stillActive := o.active[s.ID]
	o.mu.Unlock()
	if stillActive {
		t.Fatal("expected no active agent to be recorded for a failed spawn")
	}
}

func TestRun_CancelViaContext(t *testing.T) {
	o, reqs := newTestOrchestrator(t, config.RalphLoopConfig{})
	reqs.Add(&requirement.Requirement{ID: "CORE-01", Title: "a", Status: requirement.StatusPending})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := o.Run(ctx)
	if err == nil {
		t.Fatal("expected context cancellation error")
	}
}
