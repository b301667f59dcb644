// Package vcs implements the VCS Driver (C5): the narrow set of
// git operations spec.md §6.3 requires — branch, worktree, status,
// diff, merge, push — over a go-git repository handle.
package vcs

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/ralphctl/ralphctl/internal/ralpherr"
)

// BranchInfo describes one ref in the repository.
type BranchInfo struct {
	Name     string
	Head     string
	IsHead   bool
}

// FileStatus is one entry of a working-copy status scan.
type FileStatus struct {
	Path   string
	Worktree string // git.StatusCode as a single-char string
	Staging  string
}

// CommitInfo describes one commit.
type CommitInfo struct {
	Hash      string
	Message   string
	Author    string
	Timestamp time.Time
}

// DiffInfo is a raw unified-diff-shaped summary; kept deliberately thin
// since prompt rendering (out of scope here) owns formatting.
type DiffInfo struct {
	FilesChanged []string
	Raw          string
}

// ConflictInfo names one conflicted path and its 3-way content so an
// AI resolver (or a human) can inspect and resolve it.
type ConflictInfo struct {
	Path  string
	Ours  string
	Theirs string
	Base  string
}

// MergeOutcome is the sum type of spec.md's "Merge Result": exactly one
// of Commit, Conflicts, or Err is populated.
type MergeOutcome struct {
	Commit    string
	Conflicts []string
	Err       error
}

func (m MergeOutcome) IsSuccess() bool  { return m.Err == nil && len(m.Conflicts) == 0 }
func (m MergeOutcome) IsConflict() bool { return m.Err == nil && len(m.Conflicts) > 0 }

// Driver wraps one git repository handle. Safe for concurrent read-only
// calls; callers serialize mutating calls themselves (the merge
// coordinator's lock does this for merge/checkout/commit).
type Driver struct {
	path string
	repo *git.Repository
}

// Open opens an existing repository at path.
func Open(path string) (*Driver, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: opening repository at %s", path)
	}
	return &Driver{path: path, repo: repo}, nil
}

// Init creates a new repository at path.
func Init(path string) (*Driver, error) {
	repo, err := git.PlainInit(path, false)
	if err != nil {
		return nil, ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: initializing repository at %s", path)
	}
	return &Driver{path: path, repo: repo}, nil
}

// IsRepository reports whether path already holds a git repository.
func IsRepository(path string) bool {
	_, err := git.PlainOpen(path)
	return err == nil
}

// CreateBranch creates name at the current HEAD, or force-resets it if it exists and force is set.
func (d *Driver) CreateBranch(name string, force bool) (BranchInfo, error) {
	head, err := d.repo.Head()
	if err != nil {
		return BranchInfo{}, ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: resolving HEAD")
	}
	return d.CreateBranchFromCommit(name, head.Hash().String(), force)
}

// CreateBranchFromCommit creates name at commitID.
func (d *Driver) CreateBranchFromCommit(name, commitID string, force bool) (BranchInfo, error) {
	ref := plumbing.NewBranchReferenceName(name)
	if !force {
		if _, err := d.repo.Reference(ref, false); err == nil {
			return BranchInfo{}, ralpherr.Validation("vcs: branch %q already exists", name)
		}
	}
	hash := plumbing.NewHash(commitID)
	if err := d.repo.Storer.SetReference(plumbing.NewHashReference(ref, hash)); err != nil {
		return BranchInfo{}, ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: creating branch %q", name)
	}
	return BranchInfo{Name: name, Head: commitID}, nil
}

// DeleteBranch removes a local branch ref.
func (d *Driver) DeleteBranch(name string) error {
	ref := plumbing.NewBranchReferenceName(name)
	if err := d.repo.Storer.RemoveReference(ref); err != nil {
		return ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: deleting branch %q", name)
	}
	return nil
}

// ListBranches lists every local branch.
func (d *Driver) ListBranches() ([]BranchInfo, error) {
	current, _ := d.CurrentBranch()
	iter, err := d.repo.Branches()
	if err != nil {
		return nil, ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: listing branches")
	}
	var out []BranchInfo
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		out = append(out, BranchInfo{
			Name:   name,
			Head:   ref.Hash().String(),
			IsHead: name == current.Name,
		})
		return nil
	})
	if err != nil {
		return nil, ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: iterating branches")
	}
	return out, nil
}

// CurrentBranch returns the branch HEAD points to.
func (d *Driver) CurrentBranch() (BranchInfo, error) {
	head, err := d.repo.Head()
	if err != nil {
		return BranchInfo{}, ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: resolving HEAD")
	}
	return BranchInfo{Name: head.Name().Short(), Head: head.Hash().String(), IsHead: true}, nil
}

// CheckoutBranch switches the working tree to name.
func (d *Driver) CheckoutBranch(name string) error {
	wt, err := d.repo.Worktree()
	if err != nil {
		return ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: opening worktree")
	}
	err = wt.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(name)})
	if err != nil {
		return ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: checking out branch %q", name)
	}
	return nil
}

// CreateWorktree adds a new linked worktree at path, checked out on branch.
// go-git v5 has no native multi-worktree primitive akin to libgit2's, so
// this clones the local repository's object store into path and checks
// out branch there — equivalent from the caller's point of view: an
// isolated working copy sharing this repository's history.
func (d *Driver) CreateWorktree(branch, path string) (WorktreeInfo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return WorktreeInfo{}, ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: creating parent of worktree %s", path)
	}
	cloned, err := git.PlainClone(path, false, &git.CloneOptions{
		URL:           d.path,
		ReferenceName: plumbing.NewBranchReferenceName(branch),
		SingleBranch:  true,
	})
	if err != nil {
		return WorktreeInfo{}, ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: creating worktree for branch %q at %s", branch, path)
	}
	_ = cloned
	return WorktreeInfo{Path: path, Branch: branch}, nil
}

// WorktreeInfo describes one allocated worktree.
type WorktreeInfo struct {
	Path   string
	Branch string
}

// RemoveWorktree deletes the working copy at path.
func (d *Driver) RemoveWorktree(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: removing worktree %s", path)
	}
	return nil
}

// Status reports file-level working-copy status.
func (d *Driver) Status() ([]FileStatus, error) {
	wt, err := d.repo.Worktree()
	if err != nil {
		return nil, ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: opening worktree")
	}
	st, err := wt.Status()
	if err != nil {
		return nil, ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: reading status")
	}
	var out []FileStatus
	for path, s := range st {
		out = append(out, FileStatus{
			Path:     path,
			Worktree: string(s.Worktree),
			Staging:  string(s.Staging),
		})
	}
	return out, nil
}

// StageFiles stages the given paths.
func (d *Driver) StageFiles(paths []string) error {
	wt, err := d.repo.Worktree()
	if err != nil {
		return ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: opening worktree")
	}
	for _, p := range paths {
		if _, err := wt.Add(p); err != nil {
			return ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: staging %s", p)
		}
	}
	return nil
}

// StageAll stages every modified/untracked path.
func (d *Driver) StageAll() error {
	wt, err := d.repo.Worktree()
	if err != nil {
		return ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: opening worktree")
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: staging all")
	}
	return nil
}

// CreateCommit commits the current index.
func (d *Driver) CreateCommit(message, authorName, authorEmail string) (CommitInfo, error) {
	wt, err := d.repo.Worktree()
	if err != nil {
		return CommitInfo{}, ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: opening worktree")
	}
	hash, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: authorName, Email: authorEmail, When: time.Now()},
	})
	if err != nil {
		return CommitInfo{}, ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: committing")
	}
	return CommitInfo{Hash: hash.String(), Message: message, Author: authorName, Timestamp: time.Now()}, nil
}

// CommitHistory returns up to maxCount commits reachable from HEAD.
func (d *Driver) CommitHistory(maxCount int) ([]CommitInfo, error) {
	head, err := d.repo.Head()
	if err != nil {
		return nil, ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: resolving HEAD")
	}
	iter, err := d.repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: reading log")
	}
	var out []CommitInfo
	err = iter.ForEach(func(c *object.Commit) error {
		if maxCount > 0 && len(out) >= maxCount {
			return fmt.Errorf("stop")
		}
		out = append(out, CommitInfo{
			Hash: c.Hash.String(), Message: c.Message,
			Author: c.Author.Name, Timestamp: c.Author.When,
		})
		return nil
	})
	if err != nil && err.Error() != "stop" {
		return nil, ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: iterating log")
	}
	return out, nil
}

// MergeBranch merges source into target. go-git v5 has no merge
// primitive, so this implements up-to-date and fast-forward directly,
// and a real three-way merge for diverged histories via threeWayMerge
// — only paths both branches changed since their common ancestor come
// back as a conflict, requiring the caller's own 3-way resolution path
// (ResolveConflict + CompleteMerge).
func (d *Driver) MergeBranch(source, target string) MergeOutcome {
	if err := d.CheckoutBranch(target); err != nil {
		return MergeOutcome{Err: err}
	}
	sourceRef, err := d.repo.Reference(plumbing.NewBranchReferenceName(source), true)
	if err != nil {
		return MergeOutcome{Err: ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: resolving source branch %q", source)}
	}
	targetRef, err := d.repo.Reference(plumbing.NewBranchReferenceName(target), true)
	if err != nil {
		return MergeOutcome{Err: ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: resolving target branch %q", target)}
	}
	if targetRef.Hash() == sourceRef.Hash() {
		return MergeOutcome{Commit: targetRef.Hash().String()}
	}

	// Fast-forward: target is an ancestor of source.
	isAncestor, err := d.isAncestor(targetRef.Hash(), sourceRef.Hash())
	if err != nil {
		return MergeOutcome{Err: err}
	}
	if isAncestor {
		newRef := plumbing.NewHashReference(targetRef.Name(), sourceRef.Hash())
		if err := d.repo.Storer.SetReference(newRef); err != nil {
			return MergeOutcome{Err: ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: fast-forwarding %q", target)}
		}
		if err := d.CheckoutBranch(target); err != nil {
			return MergeOutcome{Err: err}
		}
		return MergeOutcome{Commit: sourceRef.Hash().String()}
	}

	// Diverged histories: neither branch is an ancestor of the other.
	// Diff each side against their merge base and only report a
	// conflict for paths BOTH sides touched; paths only one side
	// changed apply cleanly, matching a real three-way merge's
	// fast-path instead of flagging every target..source diff as a
	// conflict.
	return d.threeWayMerge(source, target, targetRef.Hash(), sourceRef.Hash())
}

// threeWayMerge merges sourceHash into targetHash (target already
// checked out), reporting a conflict only for paths both sides changed
// since their common ancestor.
func (d *Driver) threeWayMerge(source, target string, targetHash, sourceHash plumbing.Hash) MergeOutcome {
	base, err := d.mergeBase(targetHash, sourceHash)
	if err != nil {
		return MergeOutcome{Err: err}
	}
	sourceChanged, err := d.changedFiles(base.Hash, sourceHash)
	if err != nil {
		return MergeOutcome{Err: err}
	}
	targetChanged, err := d.changedFiles(base.Hash, targetHash)
	if err != nil {
		return MergeOutcome{Err: err}
	}

	targetSet := make(map[string]bool, len(targetChanged))
	for _, f := range targetChanged {
		targetSet[f] = true
	}
	var overlap, sourceOnly []string
	for _, f := range sourceChanged {
		if targetSet[f] {
			overlap = append(overlap, f)
		} else {
			sourceOnly = append(sourceOnly, f)
		}
	}
	if len(overlap) > 0 {
		return MergeOutcome{Conflicts: overlap}
	}

	if err := d.applyFilesFromCommit(sourceHash, sourceOnly); err != nil {
		return MergeOutcome{Err: err}
	}
	wt, err := d.repo.Worktree()
	if err != nil {
		return MergeOutcome{Err: ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: opening worktree")}
	}
	hash, err := wt.Commit(fmt.Sprintf("merge: %s into %s", source, target), &git.CommitOptions{
		Author:  &object.Signature{Name: "ralphctl", Email: "ralphctl@localhost", When: time.Now()},
		Parents: []plumbing.Hash{targetHash, sourceHash},
	})
	if err != nil {
		return MergeOutcome{Err: ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: committing merge of %q into %q", source, target)}
	}
	return MergeOutcome{Commit: hash.String()}
}

// mergeBase returns the nearest common ancestor of a and b.
func (d *Driver) mergeBase(a, b plumbing.Hash) (*object.Commit, error) {
	aCommit, err := d.repo.CommitObject(a)
	if err != nil {
		return nil, ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: loading commit %s", a)
	}
	bCommit, err := d.repo.CommitObject(b)
	if err != nil {
		return nil, ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: loading commit %s", b)
	}
	bases, err := aCommit.MergeBase(bCommit)
	if err != nil {
		return nil, ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: finding merge base of %s and %s", a, b)
	}
	if len(bases) == 0 {
		return nil, ralpherr.Fatal("vcs: no common ancestor between %s and %s", a, b)
	}
	return bases[0], nil
}

// applyFilesFromCommit writes each path's blob from commitHash into the
// current working tree and stages it. A path absent from commitHash's
// tree was deleted relative to the merge base and is removed locally.
func (d *Driver) applyFilesFromCommit(commitHash plumbing.Hash, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	commit, err := d.repo.CommitObject(commitHash)
	if err != nil {
		return ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: loading commit %s", commitHash)
	}
	tree, err := commit.Tree()
	if err != nil {
		return ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: reading tree for %s", commitHash)
	}
	for _, p := range paths {
		full := filepath.Join(d.path, p)
		f, err := tree.File(p)
		if err != nil {
			_ = os.Remove(full)
			continue
		}
		content, err := f.Contents()
		if err != nil {
			return ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: reading blob for %s", p)
		}
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: creating parent directory for %s", p)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			return ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: writing %s", p)
		}
	}
	return d.StageAll()
}

func (d *Driver) isAncestor(ancestor, descendant plumbing.Hash) (bool, error) {
	if ancestor == descendant {
		return true, nil
	}
	ancestorCommit, err := d.repo.CommitObject(ancestor)
	if err != nil {
		return false, ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: loading commit %s", ancestor)
	}
	descendantCommit, err := d.repo.CommitObject(descendant)
	if err != nil {
		return false, ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: loading commit %s", descendant)
	}
	isAncestor, err := ancestorCommit.IsAncestor(descendantCommit)
	if err != nil {
		return false, ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: checking ancestry")
	}
	return isAncestor, nil
}

func (d *Driver) changedFiles(from, to plumbing.Hash) ([]string, error) {
	fromCommit, err := d.repo.CommitObject(from)
	if err != nil {
		return nil, ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: loading commit %s", from)
	}
	toCommit, err := d.repo.CommitObject(to)
	if err != nil {
		return nil, ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: loading commit %s", to)
	}
	fromTree, err := fromCommit.Tree()
	if err != nil {
		return nil, ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: reading tree")
	}
	toTree, err := toCommit.Tree()
	if err != nil {
		return nil, ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: reading tree")
	}
	changes, err := fromTree.Diff(toTree)
	if err != nil {
		return nil, ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: diffing trees")
	}
	var paths []string
	for _, c := range changes {
		name := c.To.Name
		if name == "" {
			// A deleted path has no To side.
			name = c.From.Name
		}
		paths = append(paths, name)
	}
	return paths, nil
}

// AbortMerge discards a merge in progress by resetting the working tree to HEAD.
func (d *Driver) AbortMerge() error {
	wt, err := d.repo.Worktree()
	if err != nil {
		return ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: opening worktree")
	}
	head, err := d.repo.Head()
	if err != nil {
		return ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: resolving HEAD")
	}
	if err := wt.Reset(&git.ResetOptions{Commit: head.Hash(), Mode: git.HardReset}); err != nil {
		return ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: resetting worktree")
	}
	return nil
}

// ConflictDetails retrieves 3-way content for each conflicted path so an
// AI resolver can reconcile it. go-git never materializes an on-disk
// index-level conflict the way libgit2 does, so this reads Ours from
// the current (target) working tree; Theirs/Base are left empty for
// the caller's own diffing against the source branch.
func (d *Driver) ConflictDetails(paths []string) ([]ConflictInfo, error) {
	var out []ConflictInfo
	for _, p := range paths {
		data, err := os.ReadFile(filepath.Join(d.path, p))
		ours := ""
		if err == nil {
			ours = string(data)
		}
		out = append(out, ConflictInfo{Path: p, Ours: ours})
	}
	return out, nil
}

// ResolveConflict writes resolved content for path and stages it.
func (d *Driver) ResolveConflict(path, resolvedContent string) error {
	full := filepath.Join(d.path, path)
	if err := os.WriteFile(full, []byte(resolvedContent), 0o644); err != nil {
		return ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: writing resolved content for %s", path)
	}
	return d.StageFiles([]string{path})
}

// CompleteMerge commits a resolved merge.
func (d *Driver) CompleteMerge(message, authorName, authorEmail string) (CommitInfo, error) {
	return d.CreateCommit(message, authorName, authorEmail)
}

// PushBranch pushes name to remote (default "origin").
func (d *Driver) PushBranch(remote, name string, force bool) error {
	if remote == "" {
		remote = "origin"
	}
	refSpec := fmt.Sprintf("refs/heads/%s:refs/heads/%s", name, name)
	if force {
		refSpec = "+" + refSpec
	}
	err := d.repo.Push(&git.PushOptions{
		RemoteName: remote,
		RefSpecs:   []config.RefSpec{config.RefSpec(refSpec)},
	})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return ralpherr.Wrap(ralpherr.KindFatal, err, "vcs: pushing branch %q to %q", name, remote)
	}
	return nil
}

// RemoteURL returns the configured fetch URL for remote (default "origin").
func (d *Driver) RemoteURL(remote string) (string, error) {
	if remote == "" {
		remote = "origin"
	}
	r, err := d.repo.Remote(remote)
	if err != nil {
		return "", ralpherr.Wrap(ralpherr.KindNotFound, err, "vcs: remote %q not configured", remote)
	}
	urls := r.Config().URLs
	if len(urls) == 0 {
		return "", ralpherr.NotFound("vcs: remote %q has no URL", remote)
	}
	return urls[0], nil
}
