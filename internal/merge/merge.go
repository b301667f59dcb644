// Package merge implements the Merge Coordinator (C7): a single
// serialized boundary that integrates a completed story's branch into
// the base branch, surfaces conflicts instead of corrupting the index,
// and optionally drives an AI-assisted conflict resolver and policy-gated
// pull-request creation.
package merge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ralphctl/ralphctl/internal/config"
	"github.com/ralphctl/ralphctl/internal/ralpherr"
	"github.com/ralphctl/ralphctl/internal/vcs"
	"github.com/ralphctl/ralphctl/internal/worktree"
)

// CompletedWork is the orchestrator's handoff to the coordinator,
// produced exactly once per successful agent exit.
type CompletedWork struct {
	StoryID      string
	Branch       string
	WorktreePath string
	AgentID      string
}

// Result is the sum type spec.md calls "Merge Result".
type Result struct {
	Commit    string
	Conflicts []string
	Err       error
}

func (r Result) IsSuccess() bool  { return r.Err == nil && len(r.Conflicts) == 0 }
func (r Result) IsConflict() bool { return r.Err == nil && len(r.Conflicts) > 0 }

// ConflictRecord is the coordinator's public, append-only conflict list.
type ConflictRecord struct {
	StoryID string
	Branch  string
	Files   []string
}

// Resolver resolves one conflicted file given its 3-way content,
// returning the full resolved file content. Implemented by an
// AI-assisted subprocess resolver; bounded by ResolverTimeout.
type Resolver interface {
	Resolve(ctx context.Context, conflict vcs.ConflictInfo) (resolvedContent string, err error)
}

// PullRequestOpener opens a pull request once a merge lands, gated by policy.
type PullRequestOpener interface {
	OpenPullRequest(ctx context.Context, branch, title, body string) (url string, err error)
}

// Coordinator serializes merges against one base branch.
type Coordinator struct {
	mu         sync.Mutex
	driver     *vcs.Driver
	pool       *worktree.Pool
	baseBranch string
	policy     config.MergePolicy
	resolver   Resolver
	prOpener   PullRequestOpener

	conflicts []ConflictRecord
}

// New returns a Coordinator merging into baseBranch, serialized by its
// own lock. resolver and prOpener may be nil when their policy flags are off.
func New(driver *vcs.Driver, pool *worktree.Pool, baseBranch string, policy config.MergePolicy, resolver Resolver, prOpener PullRequestOpener) *Coordinator {
	return &Coordinator{
		driver:     driver,
		pool:       pool,
		baseBranch: baseBranch,
		policy:     policy,
		resolver:   resolver,
		prOpener:   prOpener,
	}
}

// Merge integrates work's branch into the base branch under the single
// merge lock (spec.md §4.4).
func (c *Coordinator) Merge(ctx context.Context, work CompletedWork) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.driver.CheckoutBranch(c.baseBranch); err != nil {
		return Result{Err: err}
	}
	if c.policy.PushOnMerge {
		// Nothing is fetched or fast-forwarded from the remote here;
		// PushOnMerge only governs the push in maybePushAndOpenPR.
	}

	outcome := c.driver.MergeBranch(work.Branch, c.baseBranch)
	switch {
	case outcome.Err != nil:
		return Result{Err: outcome.Err}

	case outcome.IsConflict():
		if err := c.driver.AbortMerge(); err != nil {
			return Result{Err: err}
		}
		c.conflicts = append(c.conflicts, ConflictRecord{
			StoryID: work.StoryID, Branch: work.Branch, Files: outcome.Conflicts,
		})
		return Result{Conflicts: outcome.Conflicts}

	default:
		if err := c.pool.Release(work.StoryID); err != nil {
			return Result{Commit: outcome.Commit, Err: err}
		}
		c.maybePushAndOpenPR(ctx, work.Branch)
		return Result{Commit: outcome.Commit}
	}
}

// ResolveConflicts attempts the AI-assisted resolver against every file
// of a previously recorded conflict. Partial resolutions are allowed:
// files the resolver fails on stay on the coordinator's public list.
func (c *Coordinator) ResolveConflicts(ctx context.Context, work CompletedWork) Result {
	if !c.policy.AIResolve || c.resolver == nil {
		return Result{Err: ralpherr.Validation("merge: AI conflict resolution is not enabled")}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOfConflict(work.StoryID)
	if idx < 0 {
		return Result{Err: ralpherr.NotFound("merge: no recorded conflict for story %q", work.StoryID)}
	}
	record := c.conflicts[idx]

	details, err := c.driver.ConflictDetails(record.Files)
	if err != nil {
		return Result{Err: err}
	}

	timeout := time.Duration(c.policy.ResolverTimeoutSeconds) * time.Second
	var remaining []string
	for _, d := range details {
		resolveCtx := ctx
		var cancel context.CancelFunc
		if timeout > 0 {
			resolveCtx, cancel = context.WithTimeout(ctx, timeout)
		}
		content, rerr := c.resolver.Resolve(resolveCtx, d)
		if cancel != nil {
			cancel()
		}
		if rerr != nil {
			remaining = append(remaining, d.Path)
			continue
		}
		if err := c.driver.ResolveConflict(d.Path, content); err != nil {
			remaining = append(remaining, d.Path)
		}
	}

	if len(remaining) > 0 {
		c.conflicts[idx].Files = remaining
		return Result{Conflicts: remaining}
	}

	commit, err := c.driver.CompleteMerge(
		fmt.Sprintf("merge: resolve conflicts for %s", work.StoryID),
		"ralphctl", "ralphctl@localhost",
	)
	if err != nil {
		return Result{Err: err}
	}
	c.conflicts = append(c.conflicts[:idx], c.conflicts[idx+1:]...)
	if err := c.pool.Release(work.StoryID); err != nil {
		return Result{Commit: commit.Hash, Err: err}
	}
	c.maybePushAndOpenPR(ctx, work.Branch)
	return Result{Commit: commit.Hash}
}

func (c *Coordinator) indexOfConflict(storyID string) int {
	for i, rec := range c.conflicts {
		if rec.StoryID == storyID {
			return i
		}
	}
	return -1
}

// Conflicts returns a snapshot of the public conflict list.
func (c *Coordinator) Conflicts() []ConflictRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ConflictRecord, len(c.conflicts))
	copy(out, c.conflicts)
	return out
}

func (c *Coordinator) maybePushAndOpenPR(ctx context.Context, branch string) {
	if c.policy.PushOnMerge {
		_ = c.driver.PushBranch(c.policy.Remote, c.baseBranch, false)
	}
	if c.policy.OpenPullRequest && c.prOpener != nil {
		_, _ = c.prOpener.OpenPullRequest(ctx, branch, fmt.Sprintf("Merge %s", branch), "")
	}
}
