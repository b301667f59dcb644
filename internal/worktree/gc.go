package worktree

import (
	"os"
	"path/filepath"
	"time"

	"github.com/ralphctl/ralphctl/internal/ralpherr"
)

// GC removes worktree directories under this pool's PRD that are not
// tracked by a live allocation and whose on-disk modification time is
// older than maxAge — spec.md's post-conflict worktree reclamation,
// left manual rather than automatic per its own framing. Directories
// with a live allocation in this pool are never swept. The orchestrator
// itself releases (removes) a story's worktree after a merge conflict
// or a failed attempt, so the candidates are directories a crashed
// process left behind.
func (p *Pool) GC(maxAge time.Duration, now time.Time) ([]string, error) {
	root := filepath.Join(p.projectRoot, ".ralph-ui", "worktrees", p.prdName)
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ralpherr.Wrap(ralpherr.KindFatal, err, "worktree: listing %s", root)
	}

	p.mu.Lock()
	live := make(map[string]bool, len(p.allocations))
	for storyID := range p.allocations {
		live[storyID] = true
	}
	p.mu.Unlock()

	var removed []string
	for _, e := range entries {
		if !e.IsDir() || live[e.Name()] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) < maxAge {
			continue
		}
		if err := p.driver.RemoveWorktree(filepath.Join(root, e.Name())); err != nil {
			return removed, err
		}
		removed = append(removed, e.Name())
	}
	return removed, nil
}
