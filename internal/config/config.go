// Package config loads and validates the YAML configuration that
// drives a ralph loop run: agent executable/model, concurrency and
// cost limits, completion sentinel, retry policy, and merge/VCS policy.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AgentKind identifies which coding-agent executable a loop spawns.
type AgentKind string

const (
	AgentClaude AgentKind = "claude"
	AgentCodex  AgentKind = "codex"
	AgentAider  AgentKind = "aider"
)

// ExecutionMode selects the parallel or sequential orchestrator.
type ExecutionMode string

const (
	ModeParallel   ExecutionMode = "parallel"
	ModeSequential ExecutionMode = "sequential"
)

// RetryPolicy bounds per-story retry attempts after agent failure.
type RetryPolicy struct {
	MaxAttempts int `yaml:"max-attempts"`
}

// FallbackPolicy names a secondary agent kind. Kind is validated when
// set, but the orchestrator does not switch to it: every attempt uses
// AgentKind.
type FallbackPolicy struct {
	Kind AgentKind `yaml:"kind"`
}

// MergePolicy governs what the merge coordinator does after a clean merge.
type MergePolicy struct {
	// PushOnMerge pushes the base branch to its remote after each
	// successful merge commit. Open Question #1 in spec.md §9: left
	// policy-gated, default off.
	PushOnMerge bool `yaml:"push-on-merge"`
	// OpenPullRequest opens a PR for the story branch via the
	// configured remote host API after it has merged locally into base.
	OpenPullRequest bool `yaml:"open-pull-request"`
	// Remote is the git remote name used for push/PR operations.
	Remote string `yaml:"remote"`
	// AIResolve enables the AI-assisted conflict resolver (spec.md §4.4).
	AIResolve bool `yaml:"ai-resolve"`
	// ResolverTimeoutSeconds bounds each conflict-resolver subprocess (default 120).
	ResolverTimeoutSeconds int `yaml:"resolver-timeout-seconds"`
}

// RalphLoopConfig is the top-level configuration for one loop run (spec.md §4.2).
type RalphLoopConfig struct {
	ProjectPath         string         `yaml:"project-path"`
	PRDName             string         `yaml:"prd-name"`
	AgentKind           AgentKind      `yaml:"agent-kind"`
	Model               string         `yaml:"model"`
	MaxIterations       int            `yaml:"max-iterations"`
	MaxCost             float64        `yaml:"max-cost"`
	MaxParallel         int            `yaml:"max-parallel"`
	CompletionPromise   string         `yaml:"completion-promise"`
	AgentTimeoutSeconds int            `yaml:"agent-timeout-seconds"`
	BaseBranch          string         `yaml:"base-branch"`
	UseWorktree         bool           `yaml:"use-worktree"`
	ExecutionMode       ExecutionMode  `yaml:"execution-mode"`
	Retry               RetryPolicy    `yaml:"retry"`
	Fallback            FallbackPolicy `yaml:"fallback"`
	Merge               MergePolicy    `yaml:"merge"`
}

// DefaultCompletionPromise is the sentinel an agent must emit to signal completion.
const DefaultCompletionPromise = "<promise>COMPLETE</promise>"

// defaults fills zero-valued fields with spec.md's documented defaults.
func (c *RalphLoopConfig) defaults() {
	if c.AgentKind == "" {
		c.AgentKind = AgentClaude
	}
	if c.CompletionPromise == "" {
		c.CompletionPromise = DefaultCompletionPromise
	}
	if c.AgentTimeoutSeconds == 0 {
		c.AgentTimeoutSeconds = 1800
	}
	if c.BaseBranch == "" {
		c.BaseBranch = "main"
	}
	if c.ExecutionMode == "" {
		c.ExecutionMode = ModeParallel
	}
	if c.MaxParallel == 0 {
		c.MaxParallel = 1
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Merge.ResolverTimeoutSeconds == 0 {
		c.Merge.ResolverTimeoutSeconds = 120
	}
	if c.Merge.Remote == "" {
		c.Merge.Remote = "origin"
	}
}

// Load reads a YAML config file and returns a validated, defaulted RalphLoopConfig.
func Load(path string) (*RalphLoopConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg RalphLoopConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	cfg.defaults()
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Merge layers override atop base: any non-zero field in override wins,
// otherwise base's value is kept. Mirrors the project-over-global
// merge described in the original implementation's config merger.
func Merge(base, override *RalphLoopConfig) *RalphLoopConfig {
	merged := *base
	if override.ProjectPath != "" {
		merged.ProjectPath = override.ProjectPath
	}
	if override.PRDName != "" {
		merged.PRDName = override.PRDName
	}
	if override.AgentKind != "" {
		merged.AgentKind = override.AgentKind
	}
	if override.Model != "" {
		merged.Model = override.Model
	}
	if override.MaxIterations != 0 {
		merged.MaxIterations = override.MaxIterations
	}
	if override.MaxCost != 0 {
		merged.MaxCost = override.MaxCost
	}
	if override.MaxParallel != 0 {
		merged.MaxParallel = override.MaxParallel
	}
	if override.CompletionPromise != "" {
		merged.CompletionPromise = override.CompletionPromise
	}
	if override.AgentTimeoutSeconds != 0 {
		merged.AgentTimeoutSeconds = override.AgentTimeoutSeconds
	}
	if override.BaseBranch != "" {
		merged.BaseBranch = override.BaseBranch
	}
	if override.ExecutionMode != "" {
		merged.ExecutionMode = override.ExecutionMode
	}
	if override.Retry.MaxAttempts != 0 {
		merged.Retry.MaxAttempts = override.Retry.MaxAttempts
	}
	if override.Fallback.Kind != "" {
		merged.Fallback.Kind = override.Fallback.Kind
	}
	merged.UseWorktree = base.UseWorktree || override.UseWorktree
	merged.Merge.PushOnMerge = base.Merge.PushOnMerge || override.Merge.PushOnMerge
	merged.Merge.OpenPullRequest = base.Merge.OpenPullRequest || override.Merge.OpenPullRequest
	merged.Merge.AIResolve = base.Merge.AIResolve || override.Merge.AIResolve
	if override.Merge.Remote != "" {
		merged.Merge.Remote = override.Merge.Remote
	}
	if override.Merge.ResolverTimeoutSeconds != 0 {
		merged.Merge.ResolverTimeoutSeconds = override.Merge.ResolverTimeoutSeconds
	}
	return &merged
}
