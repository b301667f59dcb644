package merge

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/ralphctl/ralphctl/internal/config"
	"github.com/ralphctl/ralphctl/internal/vcs"
	"github.com/ralphctl/ralphctl/internal/worktree"
)

func newRepoWithFeatureBranch(t *testing.T) (string, *vcs.Driver) {
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

	head, err := repo.Head()
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Storer.SetReference(plumbing.NewHashReference(plumbing.NewBranchReferenceName("ralph/feature-x/CORE-01"), head.Hash())); err != nil {
		t.Fatal(err)
	}

	if err := wt.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName("ralph/feature-x/CORE-01")}); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "feature.txt"), []byte("new feature"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Add("feature.txt"); err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Commit("add feature", &git.CommitOptions{
		Author: &object.Signature{Name: "t", Email: "t@example.com"},
	}); err != nil {
		t.Fatal(err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Branch: head.Name()}); err != nil {
		t.Fatal(err)
	}

	d, err := vcs.Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, d
}

func TestMerge_FastForwardSuccess(t *testing.T) {
	dir, d := newRepoWithFeatureBranch(t)
	pool := worktree.New(d, dir, "feature-x", "master", 2)
	// Register a real worktree allocation under the merged story's id so
	// the successful merge's Release has something to clean up.
	_, _ = pool.Acquire("CORE-99")

	baseBranch, err := d.CurrentBranch()
	if err != nil {
		t.Fatal(err)
	}

	coord := New(d, pool, baseBranch.Name, config.MergePolicy{}, nil, nil)
	result := coord.Merge(context.Background(), CompletedWork{
		StoryID: "CORE-99",
		Branch:  "ralph/feature-x/CORE-01",
	})
	if !result.IsSuccess() {
		t.Fatalf("expected fast-forward success, got %+v", result)
	}
}

type fakeResolver struct {
	content string
}

func (f fakeResolver) Resolve(ctx context.Context, conflict vcs.ConflictInfo) (string, error) {
	return f.content, nil
}

func TestConflicts_EmptyInitially(t *testing.T) {
	dir, d := newRepoWithFeatureBranch(t)
	pool := worktree.New(d, dir, "feature-x", "master", 2)
	coord := New(d, pool, "master", config.MergePolicy{}, fakeResolver{}, nil)
	if got := coord.Conflicts(); len(got) != 0 {
		t.Fatalf("expected no conflicts initially, got %+v", got)
	}
}

func TestResolveConflicts_RejectedWhenDisabled(t *testing.T) {
	dir, d := newRepoWithFeatureBranch(t)
	pool := worktree.New(d, dir, "feature-x", "master", 2)
	coord := New(d, pool, "master", config.MergePolicy{AIResolve: false}, nil, nil)
	result := coord.ResolveConflicts(context.Background(), CompletedWork{StoryID: "CORE-01"})
	if result.Err == nil {
		t.Fatal("expected error when AI resolution disabled")
	}
}
