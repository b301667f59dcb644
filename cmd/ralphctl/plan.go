package main

import (
	"fmt"

	"github.com/ralphctl/ralphctl/internal/orchestrator"
	"github.com/ralphctl/ralphctl/internal/requirement"
	"github.com/ralphctl/ralphctl/internal/ux"
)

// printPlan renders the ready/blocked/passed breakdown a run would act
// on, without spawning anything.
func printPlan(reqs []*requirement.Requirement) {
	stories := orchestrator.StoriesFromRequirements(reqs)
	runnable := orchestrator.RunnableSet(stories, nil)
	ready := make(map[string]bool, len(runnable))
	for _, s := range runnable {
		ready[s.ID] = true
	}

	fmt.Printf("%s\n\n", ux.Bold(fmt.Sprintf("%d requirements", len(stories))))
	for _, s := range stories {
		switch {
		case s.Passes:
			fmt.Printf("  %s %s  %s\n", ux.Green("✓"), s.ID, s.Title)
		case ready[s.ID]:
			fmt.Printf("  %s %s  %s\n", ux.Cyan("›"), s.ID, s.Title)
		default:
			fmt.Printf("  %s %s  %s\n", ux.Dim("–"), s.ID, s.Title)
		}
	}
}
