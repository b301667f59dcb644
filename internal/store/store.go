// Package store implements the File Store (C4): the authoritative,
// project-scoped `.ralph-ui/` tree of spec.md §3/§4.5. Every write goes
// through a temp-file-then-rename to survive a crash mid-write; JSON is
// pretty-printed camelCase, logs are append-only JSONL.
package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/ralphctl/ralphctl/internal/ralpherr"
)

// Store roots every path under a single project's .ralph-ui directory.
type Store struct {
	root string // <project>/.ralph-ui
}

// Open returns a Store rooted at projectPath/.ralph-ui, creating the
// directory tree spec.md §3 names if absent.
func Open(projectPath string) (*Store, error) {
	root := filepath.Join(projectPath, ".ralph-ui")
	dirs := []string{
		root,
		filepath.Join(root, "agents"),
		filepath.Join(root, "workflows"),
		filepath.Join(root, "prds"),
		filepath.Join(root, "iterations"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, ralpherr.Wrap(ralpherr.KindFatal, err, "store: creating directory %s", d)
		}
	}
	return &Store{root: root}, nil
}

// Root returns the .ralph-ui directory path.
func (s *Store) Root() string { return s.root }

// ProjectsPath is the registered-projects file.
func (s *Store) ProjectsPath() string { return filepath.Join(s.root, "projects.json") }

// AgentPath is an agent's runtime record.
func (s *Store) AgentPath(agentID string) string {
	return filepath.Join(s.root, "agents", agentID+".json")
}

// AgentLogPath is an agent's append-only JSONL log.
func (s *Store) AgentLogPath(agentID string) string {
	return filepath.Join(s.root, "agents", agentID+".logs.jsonl")
}

// WorkflowDir is a workflow's private subtree.
func (s *Store) WorkflowDir(workflowID string) string {
	return filepath.Join(s.root, "workflows", workflowID)
}

// WorkflowStatePath is the Workflow record for workflowID.
func (s *Store) WorkflowStatePath(workflowID string) string {
	return filepath.Join(s.WorkflowDir(workflowID), "state.json")
}

// WorkflowRequirementsPath is the requirements.json for workflowID.
func (s *Store) WorkflowRequirementsPath(workflowID string) string {
	return filepath.Join(s.WorkflowDir(workflowID), "requirements.json")
}

// WorkflowDoc returns the path of one of the fixed workflow markdown
// artifacts: SPEC.md, SUMMARY.md, REQUIREMENTS.md, ROADMAP.md, AGENTS.md.
func (s *Store) WorkflowDoc(workflowID, name string) string {
	return filepath.Join(s.WorkflowDir(workflowID), name)
}

// ResearchNotePath is a named research note under a workflow.
func (s *Store) ResearchNotePath(workflowID, name string) string {
	return filepath.Join(s.WorkflowDir(workflowID), "research", name+".md")
}

// PRDPath is the exported PRD markdown file for a named PRD.
func (s *Store) PRDPath(name string) string {
	return filepath.Join(s.root, "prds", name+".md")
}

// SnapshotPath is the execution snapshot file for an execution id.
func (s *Store) SnapshotPath(executionID string) string {
	return filepath.Join(s.root, "iterations", executionID+"_snapshot.json")
}

// ListSnapshotIDs returns every execution id with a persisted snapshot
// file, read back from disk so a freshly-started process can find
// executions that outlived its own restart.
func (s *Store) ListSnapshotIDs() ([]string, error) {
	dir := filepath.Join(s.root, "iterations")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ralpherr.Wrap(ralpherr.KindFatal, err, "store: reading %s", dir)
	}
	var ids []string
	const suffix = "_snapshot.json"
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if len(name) > len(suffix) && name[len(name)-len(suffix):] == suffix {
			ids = append(ids, name[:len(name)-len(suffix)])
		}
	}
	return ids, nil
}

// WriteJSON pretty-prints v as camelCase JSON and writes it atomically.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ralpherr.Wrap(ralpherr.KindFatal, err, "store: marshalling %s", path)
	}
	return writeFileAtomic(path, data, 0o644)
}

// ReadJSON reads and unmarshals path into v. Returns a NotFound
// ralpherr.Error if the file is absent, a Corruption error if the JSON
// is malformed.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ralpherr.NotFound("store: %s does not exist", path)
		}
		return ralpherr.Wrap(ralpherr.KindFatal, err, "store: reading %s", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return ralpherr.Corruption(err, "store: %s is not valid JSON", path)
	}
	return nil
}

// Exists reports whether path is present on disk.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LogEntry is one append-only agent log line (spec.md §6.1).
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // info|warn|error|debug
	Message   string    `json:"message"`
}

// AppendLog appends one JSONL-encoded entry to path, creating it if absent.
func AppendLog(path string, entry LogEntry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ralpherr.Wrap(ralpherr.KindFatal, err, "store: creating log directory for %s", path)
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return ralpherr.Wrap(ralpherr.KindFatal, err, "store: marshalling log entry")
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return ralpherr.Wrap(ralpherr.KindFatal, err, "store: opening log %s", path)
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return ralpherr.Wrap(ralpherr.KindFatal, err, "store: appending to log %s", path)
	}
	return nil
}

// ReadLog reads every entry from a JSONL log file. Missing files yield
// an empty slice, not an error — a fresh agent has no history yet.
func ReadLog(path string) ([]LogEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ralpherr.Wrap(ralpherr.KindFatal, err, "store: reading log %s", path)
	}
	var entries []LogEntry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var e LogEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, ralpherr.Corruption(err, "store: %s contains a malformed log line", path)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, ralpherr.Wrap(ralpherr.KindFatal, err, "store: scanning log %s", path)
	}
	return entries, nil
}

// writeFileAtomic writes data to a temp file beside path and renames it
// into place, so a crash mid-write never leaves a partially-written
// authoritative file.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ralpherr.Wrap(ralpherr.KindFatal, err, "store: creating directory %s", dir)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return ralpherr.Wrap(ralpherr.KindFatal, err, "store: writing temp file for %s", path)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return ralpherr.Wrap(ralpherr.KindFatal, err, "store: renaming temp file into %s", path)
	}
	return nil
}
