package orchestrator

import "github.com/ralphctl/ralphctl/internal/requirement"

// Story is the execution-time projection of a Requirement (spec.md §3).
type Story struct {
	ID          string
	Title       string
	Description string
	Acceptance  string
	Passes      bool
	DependsOn   []string
}

// Runnable reports whether s can be dispatched now: it hasn't already
// passed, and every dependency has.
func (s Story) Runnable(passed map[string]bool) bool {
	if s.Passes {
		return false
	}
	for _, dep := range s.DependsOn {
		if !passed[dep] {
			return false
		}
	}
	return true
}

// StoriesFromRequirements projects every requirement into a Story,
// treating Status == Done as passes.
func StoriesFromRequirements(reqs []*requirement.Requirement) []Story {
	stories := make([]Story, 0, len(reqs))
	for _, r := range reqs {
		stories = append(stories, Story{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			DependsOn:   r.DependsOn,
			Passes:      r.Status == requirement.StatusDone,
		})
	}
	return stories
}

// PassedSet returns the set of story ids that currently pass.
func PassedSet(stories []Story) map[string]bool {
	passed := make(map[string]bool, len(stories))
	for _, s := range stories {
		if s.Passes {
			passed[s.ID] = true
		}
	}
	return passed
}

// RunnableSet returns every story that is neither passing nor already
// active, and whose dependencies are all satisfied — spec.md §4.2 step 6.
func RunnableSet(stories []Story, active map[string]bool) []Story {
	passed := PassedSet(stories)
	var out []Story
	for _, s := range stories {
		if active[s.ID] {
			continue
		}
		if s.Runnable(passed) {
			out = append(out, s)
		}
	}
	return out
}
