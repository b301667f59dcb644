package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ralphctl/ralphctl/internal/config"
	"github.com/ralphctl/ralphctl/internal/prd"
	"github.com/ralphctl/ralphctl/internal/requirement"
	"github.com/ralphctl/ralphctl/internal/store"
	"github.com/ralphctl/ralphctl/internal/workflow"
)

// loadConfig loads and validates the project's config.yaml.
func loadConfig(projectRoot string) (*config.RalphLoopConfig, error) {
	cfg, err := config.Load(filepath.Join(projectRoot, configRelPath))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cfg.ProjectPath == "" || cfg.ProjectPath == "." {
		cfg.ProjectPath = projectRoot
	}
	return cfg, nil
}

// loadRequirements reads the named PRD and loads its requirements into
// a fresh Store, synchronising per-category id counters.
func loadRequirements(fs *store.Store, prdName string) (*requirement.Store, *prd.PRD, error) {
	data, err := os.ReadFile(fs.PRDPath(prdName))
	if err != nil {
		return nil, nil, fmt.Errorf("reading PRD %s: %w", prdName, err)
	}
	doc, err := prd.Parse(data)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing PRD %s: %w", prdName, err)
	}
	reqs := requirement.NewStore()
	all := append(append([]*requirement.Requirement{}, doc.V1Requirements...), doc.V2Requirements...)
	for _, r := range all {
		if r.Scope == "" {
			r.Scope = requirement.ScopeV1
		}
	}
	reqs.LoadAll(all)
	overlayPersistedStatus(fs, prdName, reqs)
	return reqs, doc, nil
}

// overlayPersistedStatus copies each requirement's last-known status from
// a prior run's persisted requirements.json onto the freshly-parsed set,
// since the PRD markdown itself is not rewritten as stories complete.
func overlayPersistedStatus(fs *store.Store, prdName string, reqs *requirement.Store) {
	var persisted []*requirement.Requirement
	if err := store.ReadJSON(fs.WorkflowRequirementsPath(prdName), &persisted); err != nil {
		return
	}
	for _, p := range persisted {
		if r, ok := reqs.Get(p.ID); ok {
			r.Status = p.Status
		}
	}
}

// persistRequirements snapshots every requirement's current status to
// disk, so a later `status`, `verify`, or `run` invocation in a new
// process sees work already completed by a prior run.
func persistRequirements(fs *store.Store, prdName string, reqs *requirement.Store) error {
	return store.WriteJSON(fs.WorkflowRequirementsPath(prdName), reqs.All())
}

// loadOrInitWorkflow loads the persisted Workflow record for prdName,
// or creates one. A workflow entering ralphctl already has an authored
// PRD, so a freshly created one is fast-forwarded straight through to
// Export — there is no separate Discovery/Research/Requirements pass
// in this tool, only the execution loop driven by the PRD itself.
func loadOrInitWorkflow(fs *store.Store, prdName string, now time.Time) (*workflow.Workflow, error) {
	var w workflow.Workflow
	err := store.ReadJSON(fs.WorkflowStatePath(prdName), &w)
	if err == nil {
		return &w, nil
	}

	created := workflow.New(prdName, fs.Root(), now)
	for created.CurrentPhase != workflow.PhaseExport {
		if err := created.Advance(now); err != nil {
			return nil, err
		}
	}
	if err := created.Export(now); err != nil {
		return nil, err
	}
	if err := saveWorkflow(fs, created); err != nil {
		return nil, err
	}
	return created, nil
}

func saveWorkflow(fs *store.Store, w *workflow.Workflow) error {
	return store.WriteJSON(fs.WorkflowStatePath(w.ID), w)
}
