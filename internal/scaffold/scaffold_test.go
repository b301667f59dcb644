package scaffold

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ralphctl/ralphctl/internal/config"
	"github.com/ralphctl/ralphctl/internal/prd"
)

func TestInit_FailsIfConfigExists(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, configRelPath)
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(configPath, []byte("project-path: .\n"), 0644); err != nil {
		t.Fatal(err)
	}

	err := Init(context.Background(), dir)
	if err == nil {
		t.Fatal("expected error when .ralph-ui/config.yaml already exists")
	}
	if !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected error containing 'already exists', got: %s", err)
	}
}

func TestInit_FallbackWhenClaudeUnavailable(t *testing.T) {
	dir := t.TempDir()

	// Clear PATH so claude binary cannot be found — should fall back to default template.
	t.Setenv("PATH", "")

	err := Init(context.Background(), dir)
	if err != nil {
		t.Fatalf("Init should succeed via fallback, got: %v", err)
	}

	name := filepath.Base(dir)
	configPath := filepath.Join(dir, configRelPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("fallback config is invalid: %v", err)
	}
	if cfg.PRDName != name {
		t.Fatalf("prd-name = %q, want %q", cfg.PRDName, name)
	}

	prdPath := filepath.Join(dir, ".ralph-ui", "prds", name+".md")
	if _, err := os.Stat(prdPath); err != nil {
		t.Fatalf("fallback PRD not created: %v", err)
	}
}

func TestWriteFallbackConfig(t *testing.T) {
	dir := t.TempDir()
	name := "my-project"
	if err := writeFallbackConfig(dir, name); err != nil {
		t.Fatalf("writeFallbackConfig failed: %v", err)
	}

	for _, path := range []string{
		".ralph-ui/config.yaml",
		".ralph-ui/prds/my-project.md",
		".ralph-ui/.gitignore",
	} {
		full := filepath.Join(dir, path)
		info, err := os.Stat(full)
		if err != nil {
			t.Fatalf("%s not created: %v", path, err)
		}
		if info.Size() == 0 {
			t.Fatalf("%s is empty", path)
		}
	}

	configPath := filepath.Join(dir, ".ralph-ui", "config.yaml")
	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("fallback config is invalid: %v", err)
	}
	if cfg.PRDName != name {
		t.Fatalf("prd-name = %q, want %q", cfg.PRDName, name)
	}
	if cfg.MaxParallel != 1 {
		t.Fatalf("max-parallel = %d, want 1", cfg.MaxParallel)
	}

	prdData, err := os.ReadFile(filepath.Join(dir, ".ralph-ui", "prds", name+".md"))
	if err != nil {
		t.Fatalf("reading fallback PRD: %v", err)
	}
	if !strings.Contains(string(prdData), "CORE-01") {
		t.Fatalf("fallback PRD missing a CORE-01 requirement, got: %s", prdData)
	}

	gitignore, err := os.ReadFile(filepath.Join(dir, ".ralph-ui", ".gitignore"))
	if err != nil {
		t.Fatalf("reading .gitignore: %v", err)
	}
	if !strings.Contains(string(gitignore), "iterations/") {
		t.Fatalf(".gitignore missing iterations/ entry")
	}
}

func TestFallbackPRD_ParsesBackCleanly(t *testing.T) {
	name := "roundtrip-project"
	dir := t.TempDir()
	if err := writeFallbackConfig(dir, name); err != nil {
		t.Fatalf("writeFallbackConfig failed: %v", err)
	}

	prdPath := filepath.Join(dir, ".ralph-ui", "prds", name+".md")
	data, err := os.ReadFile(prdPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "## V1 Requirements") {
		t.Fatalf("fallback PRD missing V1 Requirements section, got: %s", data)
	}
	parsed, err := prd.Parse(data)
	if err != nil {
		t.Fatalf("fallback PRD does not parse: %v", err)
	}
	if len(parsed.V1Requirements) != 1 || parsed.V1Requirements[0].ID != "CORE-01" {
		t.Fatalf("expected one parsed V1 requirement CORE-01, got %+v", parsed.V1Requirements)
	}
}
