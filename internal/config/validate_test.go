package config

import (
	"strings"
	"testing"
)

func minimalConfig() *RalphLoopConfig {
	cfg := &RalphLoopConfig{
		ProjectPath: "/tmp/proj",
		PRDName:     "feature-x",
	}
	cfg.defaults()
	return cfg
}

func TestValidate_ProjectPathRequired(t *testing.T) {
	cfg := minimalConfig()
	cfg.ProjectPath = ""
	if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "'project-path' is required") {
		t.Fatalf("expected project-path required error, got %v", err)
	}
}

func TestValidate_PRDNameRequired(t *testing.T) {
	cfg := minimalConfig()
	cfg.PRDName = ""
	if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "'prd-name' is required") {
		t.Fatalf("expected prd-name required error, got %v", err)
	}
}

func TestValidate_UnknownAgentKind(t *testing.T) {
	cfg := minimalConfig()
	cfg.AgentKind = "gpt-whatever"
	if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "unknown agent-kind") {
		t.Fatalf("expected unknown agent-kind error, got %v", err)
	}
}

func TestValidate_SequentialRequiresSingleSlot(t *testing.T) {
	cfg := minimalConfig()
	cfg.ExecutionMode = ModeSequential
	cfg.MaxParallel = 3
	if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "sequential mode requires max-parallel == 1") {
		t.Fatalf("expected sequential max-parallel error, got %v", err)
	}
}

func TestValidate_MaxParallelFloor(t *testing.T) {
	cfg := minimalConfig()
	cfg.MaxParallel = 0
	if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "max-parallel must be >= 1") {
		t.Fatalf("expected max-parallel floor error, got %v", err)
	}
}

func TestValidate_NegativeLimitsRejected(t *testing.T) {
	cases := []struct {
		name  string
		apply func(*RalphLoopConfig)
		want  string
	}{
		{"max-iterations", func(c *RalphLoopConfig) { c.MaxIterations = -1 }, "max-iterations must be >= 0"},
		{"max-cost", func(c *RalphLoopConfig) { c.MaxCost = -1 }, "max-cost must be >= 0"},
		{"agent-timeout", func(c *RalphLoopConfig) { c.AgentTimeoutSeconds = -1 }, "agent-timeout-seconds must be >= 0"},
		{"resolver-timeout", func(c *RalphLoopConfig) { c.Merge.ResolverTimeoutSeconds = -1 }, "resolver-timeout-seconds must be >= 0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := minimalConfig()
			tc.apply(cfg)
			if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("%s: expected %q, got %v", tc.name, tc.want, err)
			}
		})
	}
}

func TestValidate_DefaultsApplied(t *testing.T) {
	cfg := &RalphLoopConfig{ProjectPath: "/tmp/proj", PRDName: "x"}
	cfg.defaults()
	if cfg.AgentKind != AgentClaude {
		t.Fatalf("expected default agent kind claude, got %q", cfg.AgentKind)
	}
	if cfg.CompletionPromise != DefaultCompletionPromise {
		t.Fatalf("expected default completion promise, got %q", cfg.CompletionPromise)
	}
	if cfg.ExecutionMode != ModeParallel {
		t.Fatalf("expected default execution mode parallel, got %q", cfg.ExecutionMode)
	}
	if cfg.MaxParallel != 1 {
		t.Fatalf("expected default max-parallel 1, got %d", cfg.MaxParallel)
	}
}

func TestMerge_OverrideWins(t *testing.T) {
	base := minimalConfig()
	base.MaxParallel = 2
	override := &RalphLoopConfig{MaxParallel: 5, Model: "opus"}
	merged := Merge(base, override)
	if merged.MaxParallel != 5 {
		t.Fatalf("expected override max-parallel 5, got %d", merged.MaxParallel)
	}
	if merged.Model != "opus" {
		t.Fatalf("expected override model opus, got %q", merged.Model)
	}
	if merged.PRDName != base.PRDName {
		t.Fatalf("expected base prd-name kept, got %q", merged.PRDName)
	}
}

func TestMerge_BooleansOrTogether(t *testing.T) {
	base := minimalConfig()
	base.Merge.PushOnMerge = true
	override := &RalphLoopConfig{}
	merged := Merge(base, override)
	if !merged.Merge.PushOnMerge {
		t.Fatalf("expected base push-on-merge preserved through merge")
	}
}
