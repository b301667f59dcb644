package vcs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func initRepoWithCommit(t *testing.T) (string, *Driver) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Add("README.md"); err != nil {
		t.Fatal(err)
	}
	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "tester@example.com"},
	})
	if err != nil {
		t.Fatal(err)
	}
	d, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, d
}

func TestIsRepository(t *testing.T) {
	dir := t.TempDir()
	if IsRepository(dir) {
		t.Fatal("expected empty directory to not be a repository")
	}
	if _, err := Init(dir); err != nil {
		t.Fatal(err)
	}
	if !IsRepository(dir) {
		t.Fatal("expected initialized directory to be a repository")
	}
}

func TestCreateBranch_RejectsDuplicateWithoutForce(t *testing.T) {
	_, d := initRepoWithCommit(t)
	if _, err := d.CreateBranch("feature-x", false); err != nil {
		t.Fatal(err)
	}
	if _, err := d.CreateBranch("feature-x", false); err == nil {
		t.Fatal("expected duplicate branch creation to fail without force")
	}
	if _, err := d.CreateBranch("feature-x", true); err != nil {
		t.Fatalf("expected force-create to succeed, got %v", err)
	}
}

func TestListBranches_IncludesCurrentAndCreated(t *testing.T) {
	_, d := initRepoWithCommit(t)
	if _, err := d.CreateBranch("feature-x", false); err != nil {
		t.Fatal(err)
	}
	branches, err := d.ListBranches()
	if err != nil {
		t.Fatal(err)
	}
	names := make(map[string]bool, len(branches))
	for _, b := range branches {
		names[b.Name] = true
	}
	if !names["feature-x"] {
		t.Fatalf("expected feature-x among branches, got %+v", branches)
	}
}

func TestMergeBranch_UpToDateWhenSameCommit(t *testing.T) {
	_, d := initRepoWithCommit(t)
	if _, err := d.CreateBranch("feature-x", false); err != nil {
		t.Fatal(err)
	}
	current, err := d.CurrentBranch()
	if err != nil {
		t.Fatal(err)
	}
	outcome := d.MergeBranch("feature-x", current.Name)
	if !outcome.IsSuccess() {
		t.Fatalf("expected success merging identical histories, got %+v", outcome)
	}
}

func TestCommitHistory_ReturnsInitialCommit(t *testing.T) {
	_, d := initRepoWithCommit(t)
	history, err := d.CommitHistory(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || history[0].Message != "initial" {
		t.Fatalf("expected one commit 'initial', got %+v", history)
	}
}

func TestStageAllAndCommit(t *testing.T) {
	dir, d := initRepoWithCommit(t)
	if err := os.WriteFile(filepath.Join(dir, "new.txt"), []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := d.StageAll(); err != nil {
		t.Fatal(err)
	}
	commit, err := d.CreateCommit("add new.txt", "tester", "tester@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if commit.Hash == "" {
		t.Fatal("expected non-empty commit hash")
	}
}

func TestResolveConflict_WritesAndStages(t *testing.T) {
	dir, d := initRepoWithCommit(t)
	path := "README.md"
	if err := d.ResolveConflict(path, "resolved content"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, path))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "resolved content" {
		t.Fatalf("expected resolved content written, got %q", data)
	}
	status, err := d.Status()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, s := range status {
		if s.Path == path {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s staged in status, got %+v", path, status)
	}
}
