package main

import (
	"context"
	"fmt"

	cli "github.com/urfave/cli/v3"

	"github.com/ralphctl/ralphctl/internal/graph"
	"github.com/ralphctl/ralphctl/internal/requirement"
	"github.com/ralphctl/ralphctl/internal/store"
	"github.com/ralphctl/ralphctl/internal/verify"
)

func verifyCmd() *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "Check a PRD's requirements for coverage gaps before running",
		ArgsUsage: "[prd-name]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			projectRoot, err := findProjectRoot()
			if err != nil {
				return err
			}
			cfg, err := loadConfig(projectRoot)
			if err != nil {
				return err
			}
			prdName := cmd.Args().First()
			if prdName == "" {
				prdName = cfg.PRDName
			}

			fs, err := store.Open(projectRoot)
			if err != nil {
				return err
			}
			reqs, _, err := loadRequirements(fs, prdName)
			if err != nil {
				return err
			}

			all := reqs.All()
			roadmap, err := buildRoadmap(all)
			if err != nil {
				return fmt.Errorf("building dependency roadmap: %w", err)
			}

			result := verify.Verify(all, roadmap)
			fmt.Print(verify.ToMarkdown(result))
			if !result.Passed {
				return fmt.Errorf("verification failed: %d issue(s)", len(result.Issues))
			}
			return nil
		},
	}
}

// buildRoadmap groups requirements into dependency layers: phase N
// holds every requirement whose dependencies all resolved in phases
// before it. Requirements scoped out_of_scope are excluded.
func buildRoadmap(reqs []*requirement.Requirement) (verify.Roadmap, error) {
	g := graph.New()
	byID := make(map[string]*requirement.Requirement, len(reqs))
	for _, r := range reqs {
		if r.Scope == requirement.ScopeOutOfScope {
			continue
		}
		g.AddNode(r.ID)
		byID[r.ID] = r
	}
	for _, r := range reqs {
		if _, ok := byID[r.ID]; !ok {
			continue
		}
		for _, dep := range r.DependsOn {
			if _, ok := byID[dep]; !ok {
				continue // orphaned dependency: left for verify.Verify to flag
			}
			if err := g.AddDependency(r.ID, dep); err != nil {
				return verify.Roadmap{}, err
			}
		}
	}

	var phases []verify.RoadmapPhase
	completed := make(map[string]bool, len(byID))
	for len(completed) < len(byID) {
		ready := g.ReadySet(completed)
		if len(ready) == 0 {
			break // leftover nodes form a cycle graph.AddDependency would have already rejected
		}
		phases = append(phases, verify.RoadmapPhase{
			Number:         len(phases) + 1,
			Title:          fmt.Sprintf("Phase %d", len(phases)+1),
			RequirementIDs: ready,
		})
		for _, id := range ready {
			completed[id] = true
		}
	}
	return verify.Roadmap{Phases: phases}, nil
}
