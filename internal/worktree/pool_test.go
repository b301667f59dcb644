package worktree

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/ralphctl/ralphctl/internal/vcs"
)

func newTestRepo(t *testing.T) (string, *vcs.Driver) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Add("README.md"); err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "t", Email: "t@example.com"},
	}); err != nil {
		t.Fatal(err)
	}
	d, err := vcs.Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, d
}

func TestBranchName_Deterministic(t *testing.T) {
	_, d := newTestRepo(t)
	pool := New(d, "/tmp/proj", "feature-x", "main", 2)
	if got := pool.BranchName("CORE-01"); got != "ralph/feature-x/CORE-01" {
		t.Fatalf("expected deterministic branch name, got %s", got)
	}
}

func TestAcquire_RejectsDuplicateStoryID(t *testing.T) {
	dir, d := newTestRepo(t)
	pool := New(d, dir, "feature-x", "main", 2)
	if _, err := pool.Acquire("CORE-01"); err != nil {
		t.Fatal(err)
	}
	if _, err := pool.Acquire("CORE-01"); err == nil {
		t.Fatal("expected duplicate acquire to fail")
	}
}

func TestAcquire_RejectsAtCapacity(t *testing.T) {
	dir, d := newTestRepo(t)
	pool := New(d, dir, "feature-x", "main", 1)
	if _, err := pool.Acquire("CORE-01"); err != nil {
		t.Fatal(err)
	}
	if _, err := pool.Acquire("CORE-02"); err == nil {
		t.Fatal("expected acquire beyond capacity to fail")
	}
	if pool.AvailableSlots() != 0 {
		t.Fatalf("expected 0 available slots, got %d", pool.AvailableSlots())
	}
}

func TestReleaseThenReacquire_IsIdempotentAndAllowed(t *testing.T) {
	dir, d := newTestRepo(t)
	pool := New(d, dir, "feature-x", "main", 1)
	if _, err := pool.Acquire("CORE-01"); err != nil {
		t.Fatal(err)
	}
	if err := pool.Release("CORE-01"); err != nil {
		t.Fatal(err)
	}
	if err := pool.Release("CORE-01"); err != nil {
		t.Fatalf("expected idempotent release, got %v", err)
	}
	if _, err := pool.Acquire("CORE-01"); err != nil {
		t.Fatalf("expected reacquire after release to succeed, got %v", err)
	}
}

func TestSetAgentID_RecordsOnAllocation(t *testing.T) {
	dir, d := newTestRepo(t)
	pool := New(d, dir, "feature-x", "main", 1)
	if _, err := pool.Acquire("CORE-01"); err != nil {
		t.Fatal(err)
	}
	pool.SetAgentID("CORE-01", "agent-42")
	alloc, ok := pool.Get("CORE-01")
	if !ok || alloc.AgentID != "agent-42" {
		t.Fatalf("expected agent-42 recorded, got %+v", alloc)
	}
}
