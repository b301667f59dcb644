// Package orchestrator implements the Parallel Orchestrator (C10) and,
// as its max-parallel=1 degenerate case, the Sequential Orchestrator
// (C11): the top-level loop that selects ready stories, acquires
// worktrees, spawns agents, awaits completion, and routes outcomes to
// the merge coordinator.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ralphctl/ralphctl/internal/agentproc"
	"github.com/ralphctl/ralphctl/internal/completion"
	"github.com/ralphctl/ralphctl/internal/config"
	"github.com/ralphctl/ralphctl/internal/merge"
	"github.com/ralphctl/ralphctl/internal/ralpherr"
	"github.com/ralphctl/ralphctl/internal/requirement"
	"github.com/ralphctl/ralphctl/internal/snapshot"
	"github.com/ralphctl/ralphctl/internal/store"
	"github.com/ralphctl/ralphctl/internal/worktree"
)

// pollInterval is not referenced by the loop: every active agent's
// try-wait is polled once per tick, so at tickInterval.
const pollInterval = 250 * time.Millisecond

// tickInterval is how long the loop sleeps between ticks.
const tickInterval = 100 * time.Millisecond

type activeAgent struct {
	AgentID      string
	StoryID      string
	Branch       string
	WorktreePath string
	Handle       *agentproc.Handle
	StartedAt    time.Time
	Timeout      time.Duration
}

// Orchestrator runs the top-level loop for one RalphLoopConfig.
type Orchestrator struct {
	cfg         config.RalphLoopConfig
	executionID string

	reqs   *requirement.Store
	store  *store.Store
	snaps  *snapshot.Store
	pool   *worktree.Pool
	procs  *agentproc.Manager
	coord  *merge.Coordinator
	logger zerolog.Logger

	mu          sync.Mutex
	active      map[string]*activeAgent
	retryCounts map[string]int
	failed      map[string]bool
	cancelled   bool

	startedAt time.Time
	iteration int
	totalCost float64

	reporter Reporter
}

// Reporter receives story-level lifecycle events as the loop runs, so a
// foreground CLI invocation can print console output without reaching
// into the orchestrator's lock. Every method is called synchronously
// from within a tick; implementations must not block.
type Reporter interface {
	StoryStarted(id, title string)
	StoryDone(id string, duration time.Duration)
	StoryRetrying(id string, attempt, max int)
	StoryFailed(id, reason string)
}

// SetReporter installs r to receive story lifecycle events. Safe to call
// once before Run; nil disables reporting (the default).
func (o *Orchestrator) SetReporter(r Reporter) {
	o.reporter = r
}

// New constructs an Orchestrator. When cfg.ExecutionMode is Sequential,
// cfg.MaxParallel must be 1 (validated by internal/config) and the loop
// naturally degenerates to spawning one agent at a time — spec.md's C11.
func New(
	cfg config.RalphLoopConfig,
	reqs *requirement.Store,
	st *store.Store,
	snaps *snapshot.Store,
	pool *worktree.Pool,
	procs *agentproc.Manager,
	coord *merge.Coordinator,
	logger zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg:         cfg,
		executionID: uuid.New().String(),
		reqs:        reqs,
		store:       st,
		snaps:       snaps,
		pool:        pool,
		procs:       procs,
		coord:       coord,
		logger:      logger,
		active:      make(map[string]*activeAgent),
		retryCounts: make(map[string]int),
		failed:      make(map[string]bool),
	}
}

// ExecutionID returns this run's execution id.
func (o *Orchestrator) ExecutionID() string { return o.executionID }

// Cancel requests cancellation, observed at the top of the next tick.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	o.cancelled = true
	o.mu.Unlock()
}

// Run drives the loop to a terminal state: Completed, Cancelled, or Failed.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.startedAt = time.Now()
	o.emit(snapshot.LoopState{Kind: snapshot.StateRunning, Iteration: 0}, "")
	for {
		done, err := o.tick(ctx)
		if done {
			return err
		}
		select {
		case <-ctx.Done():
			o.killAllAndRelease()
			o.emit(snapshot.LoopState{Kind: snapshot.StateCancelled, Iteration: o.iteration}, "")
			return ctx.Err()
		case <-time.After(tickInterval):
		}
	}
}

// tick executes one iteration of spec.md §4.2's main loop. Returns
// done=true once a terminal state has been reached.
func (o *Orchestrator) tick(ctx context.Context) (bool, error) {
	o.mu.Lock()
	cancelled := o.cancelled
	o.mu.Unlock()
	if cancelled {
		o.killAllAndRelease()
		o.emit(snapshot.LoopState{Kind: snapshot.StateCancelled, Iteration: o.iteration}, "")
		return true, nil
	}

	if o.cfg.MaxIterations > 0 && o.iteration >= o.cfg.MaxIterations {
		o.killAllAndRelease()
		o.emit(snapshot.LoopState{Kind: snapshot.StateFailed, Iteration: o.iteration, Reason: "max iterations"}, "")
		return true, ralpherr.Fatal("orchestrator: max iterations reached")
	}
	if o.cfg.MaxCost > 0 && o.totalCost > o.cfg.MaxCost {
		o.killAllAndRelease()
		o.emit(snapshot.LoopState{Kind: snapshot.StateFailed, Iteration: o.iteration, Reason: "max cost"}, "")
		return true, ralpherr.Fatal("orchestrator: max cost exceeded")
	}

	stories := StoriesFromRequirements(o.reqs.All())
	if allPass(stories) {
		o.killAllAndRelease()
		o.emit(snapshot.LoopState{Kind: snapshot.StateCompleted, TotalIterations: o.iteration}, "")
		return true, nil
	}

	o.mu.Lock()
	activeCount := len(o.active)
	excluded := make(map[string]bool, len(o.active)+len(o.failed))
	for id := range o.active {
		excluded[id] = true
	}
	for id := range o.failed {
		excluded[id] = true
	}
	o.mu.Unlock()

	runnable := RunnableSet(stories, excluded)

	if activeCount == 0 && len(runnable) == 0 {
		o.emit(snapshot.LoopState{Kind: snapshot.StateFailed, Iteration: o.iteration, Reason: "no runnable stories"}, "")
		return true, ralpherr.Fatal("orchestrator: no runnable stories (stuck detector)")
	}

	free := o.pool.AvailableSlots()
	for i := 0; i < len(runnable) && i < free; i++ {
		o.spawnStory(ctx, runnable[i])
	}

	o.pollActive(ctx)

	o.iteration++
	o.emit(snapshot.LoopState{Kind: snapshot.StateRunning, Iteration: o.iteration}, o.currentAgentID())
	return false, nil
}

func allPass(stories []Story) bool {
	for _, s := range stories {
		if !s.Passes {
			return false
		}
	}
	return true
}

func (o *Orchestrator) spawnStory(ctx context.Context, s Story) {
	alloc, err := o.pool.Acquire(s.ID)
	if err != nil {
		o.logger.Error().Err(err).Str("story", s.ID).Msg("failed to acquire worktree")
		return
	}

	agentID := uuid.New().String()
	o.pool.SetAgentID(s.ID, agentID)

	timeout := time.Duration(o.cfg.AgentTimeoutSeconds) * time.Second
	mode := agentproc.ModePiped

	handle, err := o.procs.Spawn(ctx, agentproc.SpawnRequest{
		AgentID: agentID,
		Kind:    o.cfg.AgentKind,
		Model:   o.cfg.Model,
		Prompt:  promptFor(s),
		WorkDir: alloc.Path,
		Mode:    mode,
		Timeout: timeout,
	})
	if err != nil {
		o.logger.Error().Err(err).Str("story", s.ID).Msg("failed to spawn agent")
		_ = o.pool.Release(s.ID)
		return
	}

	o.mu.Lock()
	o.active[s.ID] = &activeAgent{
		AgentID: agentID, StoryID: s.ID, Branch: alloc.Branch,
		WorktreePath: alloc.Path, Handle: handle, StartedAt: time.Now(), Timeout: timeout,
	}
	o.mu.Unlock()

	if o.reporter != nil {
		o.reporter.StoryStarted(s.ID, s.Title)
	}
}

func promptFor(s Story) string {
	return fmt.Sprintf("# %s\n\n%s\n\nAcceptance:\n%s", s.Title, s.Description, s.Acceptance)
}

// pollActive checks every active agent's try-wait, routing finished
// ones to the merge coordinator and retry/failure handling.
func (o *Orchestrator) pollActive(ctx context.Context) {
	o.mu.Lock()
	snapshotOfActive := make([]*activeAgent, 0, len(o.active))
	for _, a := range o.active {
		snapshotOfActive = append(snapshotOfActive, a)
	}
	o.mu.Unlock()

	for _, a := range snapshotOfActive {
		if a.Timeout > 0 && time.Since(a.StartedAt) > a.Timeout {
			a.Handle.Kill(5 * time.Second)
		}
		exited, code := a.Handle.TryWait()
		if !exited {
			continue
		}
		o.handleExit(ctx, a, code)
	}
}

func (o *Orchestrator) handleExit(ctx context.Context, a *activeAgent, code int) {
	o.mu.Lock()
	delete(o.active, a.StoryID)
	o.mu.Unlock()

	output := a.Handle.Output()
	o.accrueCost(output)

	sentinel := o.cfg.CompletionPromise
	if completion.Succeeded(code, output, sentinel) {
		result := o.coord.Merge(ctx, merge.CompletedWork{
			StoryID: a.StoryID, Branch: a.Branch, WorktreePath: a.WorktreePath, AgentID: a.AgentID,
		})
		switch {
		case result.IsSuccess():
			if r, ok := o.reqs.Get(a.StoryID); ok {
				r.Status = requirement.StatusDone
			}
			if o.reporter != nil {
				o.reporter.StoryDone(a.StoryID, time.Since(a.StartedAt))
			}
		case result.IsConflict():
			o.logger.Warn().Str("story", a.StoryID).Strs("files", result.Conflicts).Msg("merge conflict")
			_ = o.pool.Release(a.StoryID)
			o.recordRetryOrFail(a.StoryID, "merge conflict")
		default:
			o.logger.Error().Err(result.Err).Str("story", a.StoryID).Msg("merge error")
			_ = o.pool.Release(a.StoryID)
			o.recordRetryOrFail(a.StoryID, "merge error")
		}
		return
	}

	// Agent failure: exit != 0 or missing sentinel. The worktree is
	// released either way, counted against the per-story retry budget.
	_ = o.pool.Release(a.StoryID)
	o.recordRetryOrFail(a.StoryID, "agent failure")
}

// recordRetryOrFail counts a non-success outcome against storyID's retry
// budget. Once exhausted, the story is added to o.failed so it drops
// out of RunnableSet for good instead of re-entering every tick with its
// worktree slot already spent — without this, a single runnable story
// stuck in a merge conflict would spin forever rather than the loop
// reaching Failed{"no runnable stories"} once retries run out.
func (o *Orchestrator) recordRetryOrFail(storyID, reason string) {
	o.mu.Lock()
	o.retryCounts[storyID]++
	attempts := o.retryCounts[storyID]
	o.mu.Unlock()

	if attempts >= o.cfg.Retry.MaxAttempts {
		o.mu.Lock()
		o.failed[storyID] = true
		o.mu.Unlock()
		o.logger.Error().Str("story", storyID).Int("attempts", attempts).Msg(reason + ": exceeded retry budget")
		if o.reporter != nil {
			o.reporter.StoryFailed(storyID, reason+": exceeded retry budget")
		}
		return
	}
	if o.reporter != nil {
		o.reporter.StoryRetrying(storyID, attempts, o.cfg.Retry.MaxAttempts)
	}
}

// accrueCost folds one agent turn's reported cost, if any, into the
// loop's running total checked against cfg.MaxCost.
func (o *Orchestrator) accrueCost(output string) {
	cost := agentproc.ParseCost(output)
	if cost <= 0 {
		return
	}
	o.mu.Lock()
	o.totalCost += cost
	o.mu.Unlock()
}

func (o *Orchestrator) killAllAndRelease() {
	o.mu.Lock()
	agents := make([]*activeAgent, 0, len(o.active))
	for _, a := range o.active {
		agents = append(agents, a)
	}
	o.active = make(map[string]*activeAgent)
	o.mu.Unlock()

	for _, a := range agents {
		a.Handle.Kill(5 * time.Second)
		_ = o.pool.Release(a.StoryID)
	}
}

func (o *Orchestrator) currentAgentID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cfg.ExecutionMode != config.ModeSequential {
		return ""
	}
	for _, a := range o.active {
		return a.AgentID
	}
	return ""
}

func (o *Orchestrator) emit(state snapshot.LoopState, currentAgentID string) {
	var worktreePath string
	o.mu.Lock()
	for _, a := range o.active {
		worktreePath = a.WorktreePath
		break
	}
	totalCost := o.totalCost
	startedAt := o.startedAt
	o.mu.Unlock()

	completed, remaining := 0, 0
	for _, s := range StoriesFromRequirements(o.reqs.All()) {
		if s.Passes {
			completed++
		} else {
			remaining++
		}
	}

	var totalDuration time.Duration
	if !startedAt.IsZero() {
		totalDuration = time.Since(startedAt)
	}

	snap := &snapshot.Snapshot{
		ExecutionID:    o.executionID,
		State:          state,
		CurrentAgentID: currentAgentID,
		WorktreePath:   worktreePath,
		UpdatedAt:      time.Now(),
		Metrics: snapshot.Metrics{
			TotalIterations:  o.iteration,
			TotalDuration:    totalDuration,
			TotalCost:        totalCost,
			StoriesCompleted: completed,
			StoriesRemaining: remaining,
		},
	}
	if err := o.snaps.Put(snap); err != nil {
		o.logger.Error().Err(err).Msg("failed to persist snapshot")
	}
}
