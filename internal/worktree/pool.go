// Package worktree implements the Worktree Pool (C6): a bounded
// allocator of isolated working copies keyed by story id, backed by
// the VCS driver (internal/vcs).
package worktree

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/ralphctl/ralphctl/internal/ralpherr"
	"github.com/ralphctl/ralphctl/internal/vcs"
)

// Allocation is the (path, branch, story-id, optional agent-id) tuple
// spec.md §3 defines.
type Allocation struct {
	Path     string
	Branch   string
	StoryID  string
	AgentID  string
}

// Pool holds at most maxParallel live allocations.
type Pool struct {
	mu          sync.Mutex
	driver      *vcs.Driver
	projectRoot string
	prdName     string
	baseBranch  string
	maxParallel int
	allocations map[string]*Allocation
}

// New returns a Pool bounded to maxParallel concurrent allocations.
func New(driver *vcs.Driver, projectRoot, prdName, baseBranch string, maxParallel int) *Pool {
	return &Pool{
		driver:      driver,
		projectRoot: projectRoot,
		prdName:     prdName,
		baseBranch:  baseBranch,
		maxParallel: maxParallel,
		allocations: make(map[string]*Allocation),
	}
}

// AvailableSlots reports how many acquisitions can still be made.
func (p *Pool) AvailableSlots() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxParallel - len(p.allocations)
}

// BranchName derives the deterministic branch name for a story under
// this pool's PRD, per spec.md's `ralph/<prd>/<story-id>` convention.
func (p *Pool) BranchName(storyID string) string {
	return fmt.Sprintf("ralph/%s/%s", p.prdName, storyID)
}

func (p *Pool) worktreePath(storyID string) string {
	return filepath.Join(p.projectRoot, ".ralph-ui", "worktrees", p.prdName, storyID)
}

// Acquire allocates a worktree for storyID. Rejects a duplicate
// storyID and rejects when the pool is already at capacity. A branch
// left behind by an earlier Release is reset to the current HEAD.
func (p *Pool) Acquire(storyID string) (*Allocation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.allocations[storyID]; exists {
		return nil, ralpherr.Validation("worktree: story %q already has an allocation", storyID)
	}
	if len(p.allocations) >= p.maxParallel {
		return nil, ralpherr.Validation("worktree: pool at capacity (%d/%d)", len(p.allocations), p.maxParallel)
	}

	branch := p.BranchName(storyID)
	path := p.worktreePath(storyID)

	if _, err := p.driver.CreateBranch(branch, true); err != nil {
		return nil, err
	}
	if _, err := p.driver.CreateWorktree(branch, path); err != nil {
		return nil, err
	}

	alloc := &Allocation{Path: path, Branch: branch, StoryID: storyID}
	p.allocations[storyID] = alloc
	return alloc, nil
}

// SetAgentID records the running agent for storyID so external
// introspection can correlate PTY streams to allocations.
func (p *Pool) SetAgentID(storyID, agentID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if alloc, ok := p.allocations[storyID]; ok {
		alloc.AgentID = agentID
	}
}

// Release removes the worktree (branch left intact for post-mortem)
// and deletes the allocation. Idempotent.
func (p *Pool) Release(storyID string) error {
	p.mu.Lock()
	alloc, ok := p.allocations[storyID]
	p.mu.Unlock()
	if !ok {
		return nil
	}
	if err := p.driver.RemoveWorktree(alloc.Path); err != nil {
		return err
	}
	p.mu.Lock()
	delete(p.allocations, storyID)
	p.mu.Unlock()
	return nil
}

// Get returns the current allocation for storyID, if any.
func (p *Pool) Get(storyID string) (*Allocation, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.allocations[storyID]
	return a, ok
}

// Active returns every live allocation, keyed by story id.
func (p *Pool) Active() map[string]*Allocation {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]*Allocation, len(p.allocations))
	for k, v := range p.allocations {
		cp := *v
		out[k] = &cp
	}
	return out
}
